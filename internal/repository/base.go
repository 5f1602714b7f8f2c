package repository

import (
	"sync"

	"github.com/LuisSandoval96/office-layout-manager/internal/models"
)

// stateHolder owns the in-memory copy of the document and serves every read
// as a defensive copy. Mutating operations in the embedding adapter take the
// same lock, so at most one local mutation is in flight at a time.
type stateHolder struct {
	mu    sync.Mutex
	state models.ApplicationState
}

func (h *stateHolder) GetState() models.ApplicationState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state.Clone()
}

func (h *stateHolder) GetEmployees() []models.Employee {
	return h.GetState().Employees
}

func (h *stateHolder) GetPositions() []models.OfficePosition {
	return h.GetState().Layout.Positions
}

func (h *stateHolder) GetDepartments() []models.Department {
	return h.GetState().Departments
}

func (h *stateHolder) GetHistory(limit int) []models.HistoryRecord {
	history := h.GetState().History
	if limit > 0 && limit < len(history) {
		return history[:limit]
	}
	return history
}

func (h *stateHolder) GetLayout() models.OfficeLayout {
	return h.GetState().Layout
}

func (h *stateHolder) GetEmployeeByID(id string) (models.Employee, bool) {
	state := h.GetState()
	if idx := employeeIndex(&state, id); idx >= 0 {
		return state.Employees[idx], true
	}
	return models.Employee{}, false
}

func (h *stateHolder) GetPositionByID(id string) (models.OfficePosition, bool) {
	state := h.GetState()
	for _, pos := range state.Layout.Positions {
		if pos.ID == id {
			return pos, true
		}
	}
	return models.OfficePosition{}, false
}

func (h *stateHolder) GetStatistics() Statistics {
	return ComputeStatistics(h.GetState())
}

func (h *stateHolder) ExportData() models.ApplicationState {
	return h.GetState()
}
