// Package repository holds the two storage adapters (sqlite-backed local,
// redis-backed remote) behind one Manager interface, plus the shared
// assignment engine both adapters enforce.
package repository

import (
	"context"
	"errors"
	"sync"

	"github.com/LuisSandoval96/office-layout-manager/internal/models"
)

// ErrInvalidSnapshot rejects an import whose document is missing one of the
// four top-level sections.
var ErrInvalidSnapshot = errors.New("snapshot missing required sections")

// AssignPolicy decides what happens when an assignment targets an occupied
// desk. The local store historically rejected, the remote store evicted the
// previous occupant; the divergence is kept as an explicit knob.
type AssignPolicy string

const (
	// AssignPolicyReject refuses the assignment and leaves the desk bound.
	AssignPolicyReject AssignPolicy = "reject"
	// AssignPolicyEvict unbinds the current occupant (recorded as an
	// "unassigned" history entry) and installs the new one.
	AssignPolicyEvict AssignPolicy = "evict"
)

// Listener receives a full state snapshot on every replacement.
type Listener func(state models.ApplicationState)

// Manager is the capability set both adapters implement in full, so callers
// never probe for optional methods.
type Manager interface {
	GetState() models.ApplicationState
	GetEmployees() []models.Employee
	GetPositions() []models.OfficePosition
	GetDepartments() []models.Department
	GetHistory(limit int) []models.HistoryRecord
	GetLayout() models.OfficeLayout
	GetEmployeeByID(id string) (models.Employee, bool)
	GetPositionByID(id string) (models.OfficePosition, bool)

	CreateEmployee(ctx context.Context, data models.CreateEmployeeData) (models.Employee, error)
	UpdateEmployee(ctx context.Context, id string, data models.UpdateEmployeeData) (*models.Employee, error)
	DeleteEmployee(ctx context.Context, id string) (bool, error)

	AssignEmployeeToPosition(ctx context.Context, employeeID, positionID string, info *models.WorkstationInfo) (bool, error)
	UnassignEmployeeFromPosition(ctx context.Context, employeeID string) (bool, error)
	UpdateWorkstationInfo(ctx context.Context, deskNumber int, info models.WorkstationInfo) (bool, error)

	FixCorruptedEmployeeData(ctx context.Context) (bool, error)
	GetStatistics() Statistics

	ExportData() models.ApplicationState
	ImportData(ctx context.Context, snapshot models.ApplicationState) error
	ClearAllData(ctx context.Context) error
	ForceResetLayout(ctx context.Context) error

	EmergencySync(ctx context.Context) error
	ForceSyncFromRemote(ctx context.Context) error

	Subscribe(listener Listener) (unsubscribe func())
	Close() error
}

type listenerEntry struct {
	id int
	fn Listener
}

// notifier fans a snapshot out to subscribers in registration order.
// Embedded by both adapters; its mutex guards the listener list only, never
// adapter state.
type notifier struct {
	listenerMu sync.Mutex
	nextID     int
	listeners  []listenerEntry
}

func (n *notifier) add(fn Listener) (unsubscribe func()) {
	n.listenerMu.Lock()
	n.nextID++
	id := n.nextID
	n.listeners = append(n.listeners, listenerEntry{id: id, fn: fn})
	n.listenerMu.Unlock()

	return func() {
		n.listenerMu.Lock()
		defer n.listenerMu.Unlock()
		for i, e := range n.listeners {
			if e.id == id {
				n.listeners = append(n.listeners[:i], n.listeners[i+1:]...)
				return
			}
		}
		// already removed; unsubscribe is idempotent
	}
}

// broadcast invokes every listener synchronously, handing each its own copy
// so one listener mutating its snapshot cannot corrupt another's. Callers
// must pass a snapshot already detached from the adapter's held state and
// must not hold the state lock.
func (n *notifier) broadcast(state models.ApplicationState) {
	n.listenerMu.Lock()
	entries := make([]listenerEntry, len(n.listeners))
	copy(entries, n.listeners)
	n.listenerMu.Unlock()

	for _, e := range entries {
		e.fn(state.Clone())
	}
}
