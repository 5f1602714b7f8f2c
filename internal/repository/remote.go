package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/LuisSandoval96/office-layout-manager/internal/models"
)

const (
	// DefaultStateKey is the redis key holding the shared document; change
	// notifications travel on the derived channel (<key>:changes).
	DefaultStateKey = "office-layout:state"

	remoteHistoryLimit = 100
)

// RemoteManager keeps one logical ApplicationState consistent across many
// clients through a shared redis document. Every write replaces the whole
// document (SET) and publishes it on the change channel; every client,
// including the writer, applies received documents to its in-memory state
// and fans them out to listeners.
type RemoteManager struct {
	notifier
	stateHolder

	client   *redis.Client
	logger   *zap.Logger
	eng      engine
	stateKey string
	channel  string

	subCtx    context.Context
	subCancel context.CancelFunc
	pubsub    *redis.PubSub
}

// NewRemoteManager synthesizes an initial state, creates the remote document
// if it does not exist yet, loads it otherwise, and attaches the continuous
// subscription.
func NewRemoteManager(ctx context.Context, client *redis.Client, logger *zap.Logger, stateKey string, policy AssignPolicy) (*RemoteManager, error) {
	if stateKey == "" {
		stateKey = DefaultStateKey
	}
	if policy == "" {
		policy = AssignPolicyEvict
	}
	m := &RemoteManager{
		client:   client,
		logger:   logger,
		eng:      engine{historyLimit: remoteHistoryLimit, policy: policy},
		stateKey: stateKey,
		channel:  stateKey + ":changes",
	}
	m.state = models.NewInitialState(time.Now().UTC())

	if err := m.ensureDocument(ctx); err != nil {
		return nil, err
	}
	m.startSubscription()
	return m, nil
}

func (m *RemoteManager) ensureDocument(ctx context.Context) error {
	raw, err := m.client.Get(ctx, m.stateKey).Result()
	if errors.Is(err, redis.Nil) {
		m.logger.Info("Remote document does not exist, creating initial state",
			zap.String("key", m.stateKey))
		m.mu.Lock()
		defer m.mu.Unlock()
		return m.save(ctx)
	}
	if err != nil {
		return fmt.Errorf("read remote document: %w", err)
	}

	state, err := m.decode([]byte(raw))
	if err != nil {
		return fmt.Errorf("decode remote document: %w", err)
	}
	m.mu.Lock()
	m.state = state
	m.mu.Unlock()
	return nil
}

// startSubscription attaches the change-channel subscription and the apply
// loop. Called at construction and again by EmergencySync after teardown.
func (m *RemoteManager) startSubscription() {
	ctx, cancel := context.WithCancel(context.Background())
	m.subCtx = ctx
	m.subCancel = cancel
	m.pubsub = m.client.Subscribe(ctx, m.channel)

	go func(ps *redis.PubSub) {
		for msg := range ps.Channel() {
			m.applyRemote(msg.Payload)
		}
	}(m.pubsub)
}

// applyRemote replaces the in-memory state with a document received from the
// change channel (echoes of this client's own writes included) and notifies
// listeners. Last writer wins at document granularity.
func (m *RemoteManager) applyRemote(payload string) {
	state, err := m.decode([]byte(payload))
	if err != nil {
		m.logger.Error("Failed to decode pushed document", zap.Error(err))
		return
	}
	m.mu.Lock()
	m.state = state
	snapshot := state.Clone()
	m.mu.Unlock()
	m.broadcast(snapshot)
}

func (m *RemoteManager) decode(raw []byte) (models.ApplicationState, error) {
	var w wireState
	if err := json.Unmarshal(raw, &w); err != nil {
		return models.ApplicationState{}, err
	}
	return fromWire(w, time.Now().UTC()), nil
}

// save converts the held state to wire form, replaces the remote document,
// and publishes it. Callers must hold the state lock. Errors propagate so
// the UI can surface a retry.
func (m *RemoteManager) save(ctx context.Context) error {
	now := time.Now().UTC()
	m.state.LastUpdated = now

	body, err := json.Marshal(toWire(m.state, now))
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	if err := m.client.Set(ctx, m.stateKey, body, 0).Err(); err != nil {
		m.logger.Error("Failed to replace remote document", zap.Error(err))
		return fmt.Errorf("replace remote document: %w", err)
	}
	// the document is saved even if the notification fails; subscribers
	// catch up on the next write or a forced sync
	if err := m.client.Publish(ctx, m.channel, body).Err(); err != nil {
		m.logger.Warn("Failed to publish change notification", zap.Error(err))
	}
	return nil
}

// --- mutations ---

func (m *RemoteManager) CreateEmployee(ctx context.Context, data models.CreateEmployeeData) (models.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	emp, err := m.eng.createEmployee(&m.state, data, time.Now().UTC())
	if err != nil {
		return models.Employee{}, err
	}
	if err := m.save(ctx); err != nil {
		return models.Employee{}, err
	}
	return emp, nil
}

func (m *RemoteManager) UpdateEmployee(ctx context.Context, id string, data models.UpdateEmployeeData) (*models.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	emp := m.eng.updateEmployee(&m.state, id, data, time.Now().UTC())
	if emp == nil {
		return nil, nil
	}
	if err := m.save(ctx); err != nil {
		return nil, err
	}
	return emp, nil
}

func (m *RemoteManager) DeleteEmployee(ctx context.Context, id string) (bool, error) {
	return m.mutate(ctx, func(now time.Time) bool {
		return m.eng.deleteEmployee(&m.state, id, now)
	})
}

func (m *RemoteManager) AssignEmployeeToPosition(ctx context.Context, employeeID, positionID string, info *models.WorkstationInfo) (bool, error) {
	return m.mutate(ctx, func(now time.Time) bool {
		return m.eng.assign(&m.state, employeeID, positionID, info, now)
	})
}

func (m *RemoteManager) UnassignEmployeeFromPosition(ctx context.Context, employeeID string) (bool, error) {
	return m.mutate(ctx, func(now time.Time) bool {
		return m.eng.unassign(&m.state, employeeID, now)
	})
}

func (m *RemoteManager) UpdateWorkstationInfo(ctx context.Context, deskNumber int, info models.WorkstationInfo) (bool, error) {
	return m.mutate(ctx, func(now time.Time) bool {
		return m.eng.updateWorkstation(&m.state, deskNumber, info, now)
	})
}

// FixCorruptedEmployeeData runs the repair pass over every employee record
// and persists once at the end if anything changed.
func (m *RemoteManager) FixCorruptedEmployeeData(ctx context.Context) (bool, error) {
	return m.mutate(ctx, func(now time.Time) bool {
		return m.eng.repairCorrupted(&m.state, now) > 0
	})
}

func (m *RemoteManager) mutate(ctx context.Context, op func(now time.Time) bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !op(time.Now().UTC()) {
		return false, nil
	}
	if err := m.save(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (m *RemoteManager) ImportData(ctx context.Context, snapshot models.ApplicationState) error {
	if !snapshot.Valid() {
		return ErrInvalidSnapshot
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = snapshot.Clone()
	normalizeOccupancy(&m.state)
	return m.save(ctx)
}

// ClearAllData replaces the remote document with a freshly synthesized
// initial state.
func (m *RemoteManager) ClearAllData(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = models.NewInitialState(time.Now().UTC())
	return m.save(ctx)
}

// ForceResetLayout regenerates the desk set from the fixed floor plan while
// preserving the employee roster.
func (m *RemoteManager) ForceResetLayout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	employees := m.state.Employees
	m.state = models.NewInitialState(time.Now().UTC())
	m.state.Employees = employees
	return m.save(ctx)
}

// EmergencySync tears down and recreates the subscription, then performs one
// direct read-through. Operational escape hatch for a stalled subscription,
// not part of the steady-state protocol.
func (m *RemoteManager) EmergencySync(ctx context.Context) error {
	m.logger.Warn("Emergency sync requested, recreating subscription")
	m.teardownSubscription()
	m.startSubscription()
	return m.ForceSyncFromRemote(ctx)
}

// ForceSyncFromRemote refreshes state with one direct read outside the
// normal push path.
func (m *RemoteManager) ForceSyncFromRemote(ctx context.Context) error {
	raw, err := m.client.Get(ctx, m.stateKey).Result()
	if errors.Is(err, redis.Nil) {
		return fmt.Errorf("remote document %q does not exist", m.stateKey)
	}
	if err != nil {
		return fmt.Errorf("read remote document: %w", err)
	}
	state, err := m.decode([]byte(raw))
	if err != nil {
		return fmt.Errorf("decode remote document: %w", err)
	}
	m.mu.Lock()
	m.state = state
	snapshot := state.Clone()
	m.mu.Unlock()
	m.broadcast(snapshot)
	return nil
}

func (m *RemoteManager) Subscribe(listener Listener) func() {
	unsubscribe := m.add(listener)
	listener(m.GetState())
	return unsubscribe
}

func (m *RemoteManager) teardownSubscription() {
	if m.subCancel != nil {
		m.subCancel()
	}
	if m.pubsub != nil {
		if err := m.pubsub.Close(); err != nil {
			m.logger.Warn("Failed to close subscription", zap.Error(err))
		}
	}
}

// Close detaches the subscription. The redis client is owned by the caller.
func (m *RemoteManager) Close() error {
	m.teardownSubscription()
	return nil
}
