package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/LuisSandoval96/office-layout-manager/internal/models"
)

const (
	localPrimaryKey = "office-layout-app-data"
	localBackupKey  = "office-layout-app-backup"

	localHistoryLimit = 1000
)

// OpenLocalDB opens (or creates) the sqlite document store.
func OpenLocalDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// the store is a single-writer document table
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS documents (
		key  TEXT PRIMARY KEY,
		body BLOB NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create documents table: %w", err)
	}
	return db, nil
}

// LocalManager keeps the whole ApplicationState in memory and persists it as
// one JSON document under a fixed key, copying the previous document to a
// backup key before every overwrite. Single-process; there is no cross-client
// sharing in local mode.
type LocalManager struct {
	notifier
	stateHolder

	db     *sql.DB
	logger *zap.Logger
	eng    engine
}

// NewLocalManager loads the stored document (migrating or discarding legacy
// formats), falling back to the backup key and finally to a synthesized
// initial state.
func NewLocalManager(db *sql.DB, logger *zap.Logger, policy AssignPolicy) (*LocalManager, error) {
	if policy == "" {
		policy = AssignPolicyReject
	}
	m := &LocalManager{
		db:     db,
		logger: logger,
		eng:    engine{historyLimit: localHistoryLimit, policy: policy},
	}
	m.state = m.load(context.Background())
	return m, nil
}

func (m *LocalManager) load(ctx context.Context) models.ApplicationState {
	now := time.Now().UTC()

	raw, err := m.readDocument(ctx, localPrimaryKey)
	if err != nil {
		m.logger.Error("Failed to read stored document, trying backup", zap.Error(err))
		raw, err = m.readDocument(ctx, localBackupKey)
		if err != nil {
			m.logger.Error("Failed to read backup document", zap.Error(err))
			return models.NewInitialState(now)
		}
	}
	if raw == nil {
		return models.NewInitialState(now)
	}

	cleaned, discard, rewritten, err := migrateStoredDocument(raw)
	if err != nil {
		m.logger.Error("Stored document is not parseable, trying backup", zap.Error(err))
		if backup, berr := m.readDocument(ctx, localBackupKey); berr == nil && backup != nil {
			if c, d, _, merr := migrateStoredDocument(backup); merr == nil && !d {
				cleaned, discard, rewritten = c, false, false
				raw = backup
			} else {
				return models.NewInitialState(now)
			}
		} else {
			return models.NewInitialState(now)
		}
	}
	if discard {
		m.logger.Info("Legacy document format detected, discarding stored data")
		if derr := m.deleteDocuments(ctx); derr != nil {
			m.logger.Error("Failed to delete legacy documents", zap.Error(derr))
		}
		return models.NewInitialState(now)
	}
	if rewritten {
		m.logger.Info("Migrated stored document in place (drawerWorking defaulted)")
		if werr := m.writeDocument(ctx, localPrimaryKey, cleaned); werr != nil {
			m.logger.Error("Failed to write migrated document", zap.Error(werr))
		}
	}

	var state models.ApplicationState
	if err := json.Unmarshal(cleaned, &state); err != nil {
		m.logger.Error("Failed to decode stored document", zap.Error(err))
		return models.NewInitialState(now)
	}
	normalizeOccupancy(&state)
	return state
}

// save copies the current primary document to the backup key, then writes
// the new state. Errors are logged and returned to the caller.
func (m *LocalManager) save(ctx context.Context) error {
	m.state.LastUpdated = time.Now().UTC()

	if current, err := m.readDocument(ctx, localPrimaryKey); err == nil && current != nil {
		if err := m.writeDocument(ctx, localBackupKey, current); err != nil {
			m.logger.Error("Failed to write backup document", zap.Error(err))
			return fmt.Errorf("write backup: %w", err)
		}
	}

	body, err := json.Marshal(m.state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := m.writeDocument(ctx, localPrimaryKey, body); err != nil {
		m.logger.Error("Failed to persist state", zap.Error(err))
		return fmt.Errorf("persist state: %w", err)
	}
	return nil
}

func (m *LocalManager) readDocument(ctx context.Context, key string) ([]byte, error) {
	var body []byte
	err := m.db.QueryRowContext(ctx, `SELECT body FROM documents WHERE key = ?`, key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (m *LocalManager) writeDocument(ctx context.Context, key string, body []byte) error {
	_, err := m.db.ExecContext(ctx,
		`INSERT INTO documents (key, body) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET body = excluded.body`, key, body)
	return err
}

func (m *LocalManager) deleteDocuments(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx,
		`DELETE FROM documents WHERE key IN (?, ?)`, localPrimaryKey, localBackupKey)
	return err
}

// --- mutations ---

func (m *LocalManager) CreateEmployee(ctx context.Context, data models.CreateEmployeeData) (models.Employee, error) {
	m.mu.Lock()
	emp, err := m.eng.createEmployee(&m.state, data, time.Now().UTC())
	if err != nil {
		m.mu.Unlock()
		return models.Employee{}, err
	}
	err = m.save(ctx)
	state := m.state.Clone()
	m.mu.Unlock()
	if err != nil {
		return models.Employee{}, err
	}
	m.broadcast(state)
	return emp, nil
}

func (m *LocalManager) UpdateEmployee(ctx context.Context, id string, data models.UpdateEmployeeData) (*models.Employee, error) {
	m.mu.Lock()
	emp := m.eng.updateEmployee(&m.state, id, data, time.Now().UTC())
	if emp == nil {
		m.mu.Unlock()
		return nil, nil
	}
	err := m.save(ctx)
	state := m.state.Clone()
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	m.broadcast(state)
	return emp, nil
}

func (m *LocalManager) DeleteEmployee(ctx context.Context, id string) (bool, error) {
	return m.mutate(ctx, func(now time.Time) bool {
		return m.eng.deleteEmployee(&m.state, id, now)
	})
}

func (m *LocalManager) AssignEmployeeToPosition(ctx context.Context, employeeID, positionID string, info *models.WorkstationInfo) (bool, error) {
	return m.mutate(ctx, func(now time.Time) bool {
		return m.eng.assign(&m.state, employeeID, positionID, info, now)
	})
}

func (m *LocalManager) UnassignEmployeeFromPosition(ctx context.Context, employeeID string) (bool, error) {
	return m.mutate(ctx, func(now time.Time) bool {
		return m.eng.unassign(&m.state, employeeID, now)
	})
}

func (m *LocalManager) UpdateWorkstationInfo(ctx context.Context, deskNumber int, info models.WorkstationInfo) (bool, error) {
	return m.mutate(ctx, func(now time.Time) bool {
		return m.eng.updateWorkstation(&m.state, deskNumber, info, now)
	})
}

func (m *LocalManager) FixCorruptedEmployeeData(ctx context.Context) (bool, error) {
	return m.mutate(ctx, func(now time.Time) bool {
		return m.eng.repairCorrupted(&m.state, now) > 0
	})
}

// mutate runs one engine operation under the state lock, persists when it
// changed anything, and notifies listeners afterwards.
func (m *LocalManager) mutate(ctx context.Context, op func(now time.Time) bool) (bool, error) {
	m.mu.Lock()
	ok := op(time.Now().UTC())
	if !ok {
		m.mu.Unlock()
		return false, nil
	}
	err := m.save(ctx)
	state := m.state.Clone()
	m.mu.Unlock()
	if err != nil {
		return false, err
	}
	m.broadcast(state)
	return true, nil
}

func (m *LocalManager) ImportData(ctx context.Context, snapshot models.ApplicationState) error {
	if !snapshot.Valid() {
		return ErrInvalidSnapshot
	}
	m.mu.Lock()
	m.state = snapshot.Clone()
	normalizeOccupancy(&m.state)
	err := m.save(ctx)
	state := m.state.Clone()
	m.mu.Unlock()
	if err != nil {
		return err
	}
	m.broadcast(state)
	return nil
}

func (m *LocalManager) ClearAllData(ctx context.Context) error {
	m.mu.Lock()
	m.state = models.NewInitialState(time.Now().UTC())
	err := m.save(ctx)
	state := m.state.Clone()
	m.mu.Unlock()
	if err != nil {
		return err
	}
	m.broadcast(state)
	return nil
}

// ForceResetLayout regenerates the desk set from the fixed floor plan while
// keeping the employee roster. Existing assignments are dropped with the old
// desks.
func (m *LocalManager) ForceResetLayout(ctx context.Context) error {
	m.mu.Lock()
	employees := m.state.Employees
	m.state = models.NewInitialState(time.Now().UTC())
	m.state.Employees = employees
	err := m.save(ctx)
	state := m.state.Clone()
	m.mu.Unlock()
	if err != nil {
		return err
	}
	m.broadcast(state)
	return nil
}

// EmergencySync re-reads the stored document. Local mode has no subscription
// to repair, so both sync escape hatches reduce to a reload.
func (m *LocalManager) EmergencySync(ctx context.Context) error {
	return m.ForceSyncFromRemote(ctx)
}

func (m *LocalManager) ForceSyncFromRemote(ctx context.Context) error {
	m.mu.Lock()
	m.state = m.load(ctx)
	state := m.state.Clone()
	m.mu.Unlock()
	m.broadcast(state)
	return nil
}

func (m *LocalManager) Subscribe(listener Listener) func() {
	unsubscribe := m.add(listener)
	listener(m.GetState())
	return unsubscribe
}

func (m *LocalManager) Close() error {
	return m.db.Close()
}

// normalizeOccupancy re-derives every desk's occupancy flag and treats a
// reference to a missing employee as vacant rather than crashing readers.
func normalizeOccupancy(s *models.ApplicationState) {
	for i := range s.Layout.Positions {
		pos := &s.Layout.Positions[i]
		if pos.EmployeeID != "" && employeeIndex(s, pos.EmployeeID) < 0 {
			pos.EmployeeID = ""
			pos.WorkstationInfo = nil
		}
		pos.IsOccupied = pos.EmployeeID != ""
	}
}
