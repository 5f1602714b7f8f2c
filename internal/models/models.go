package models

import "time"

// Employee is one person on the roster. Position is the job title
// ("Analista", "Supervisor", ...), never a desk identifier; the desk
// relation lives on OfficePosition.EmployeeID.
type Employee struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Department string    `json:"department"`
	Position   string    `json:"position"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// WorkstationInfo is equipment metadata attached to an occupied desk.
type WorkstationInfo struct {
	DrawerNumber         string     `json:"drawerNumber,omitempty"`
	ChairNumber          string     `json:"chairNumber,omitempty"`
	NodesWorking         bool       `json:"nodesWorking"`
	ElectricalConnection bool       `json:"electricalConnection"`
	DrawerWorking        bool       `json:"drawerWorking"`
	AssignedDate         *time.Time `json:"assignedDate,omitempty"`
	Notes                string     `json:"notes,omitempty"`
}

// OfficePosition is a fixed desk slot. IsOccupied is derived state and must
// always equal EmployeeID != "".
type OfficePosition struct {
	ID              string           `json:"id"`
	Number          int              `json:"number"`
	X               int              `json:"x"`
	Y               int              `json:"y"`
	Width           int              `json:"width"`
	Height          int              `json:"height"`
	EmployeeID      string           `json:"employeeId"`
	IsOccupied      bool             `json:"isOccupied"`
	DeskName        string           `json:"deskName"`
	WorkstationInfo *WorkstationInfo `json:"workstationInfo,omitempty"`
}

type Department struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Color       string `json:"color"`
	Description string `json:"description,omitempty"`
}

// History actions.
const (
	ActionAssigned   = "assigned"
	ActionUnassigned = "unassigned"
	ActionMoved      = "moved"
)

// HistoryRecord is one immutable log entry. Records are ordered newest-first
// and never updated after creation.
type HistoryRecord struct {
	ID                 string    `json:"id"`
	EmployeeID         string    `json:"employeeId"`
	PositionID         string    `json:"positionId"`
	Action             string    `json:"action"`
	PreviousPositionID string    `json:"previousPositionId,omitempty"`
	Timestamp          time.Time `json:"timestamp"`
	Notes              string    `json:"notes,omitempty"`
}

type OfficeLayout struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Width     int              `json:"width"`
	Height    int              `json:"height"`
	Positions []OfficePosition `json:"positions"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// ApplicationState is the aggregate root: the unit of persistence and the
// unit of synchronization. Every write replaces the entire document.
type ApplicationState struct {
	Employees   []Employee      `json:"employees"`
	Layout      OfficeLayout    `json:"layout"`
	Departments []Department    `json:"departments"`
	History     []HistoryRecord `json:"history"`
	LastUpdated time.Time       `json:"lastUpdated"`
}

// CreateEmployeeData carries the caller-supplied fields of a new employee.
type CreateEmployeeData struct {
	Name       string `json:"name"`
	Department string `json:"department"`
	Position   string `json:"position"`
}

// UpdateEmployeeData is a partial update; nil fields are left untouched.
type UpdateEmployeeData struct {
	Name       *string `json:"name,omitempty"`
	Department *string `json:"department,omitempty"`
	Position   *string `json:"position,omitempty"`
}

// Job titles used across the application.
var PositionTypes = []string{"Analista", "Supervisor", "Gerente"}

const (
	// DefaultPositionTitle is what a repaired corrupted job title resets to.
	DefaultPositionTitle = "Analista"
	// FallbackPositionTitle / FallbackDepartment replace missing fields on
	// the wire rather than omitting them.
	FallbackPositionTitle = "Empleado"
	FallbackDepartment    = "General"
)

// DefaultDepartments returns the static reference set. A fresh slice every
// call so callers can hold it without aliasing shared state.
func DefaultDepartments() []Department {
	return []Department{
		{ID: "1", Name: "Norteamerica", Color: "#3B82F6"},
		{ID: "2", Name: "Sudamerica", Color: "#10B981"},
		{ID: "3", Name: "QSMX", Color: "#8B5CF6"},
		{ID: "4", Name: "P & Supply Chain", Color: "#F59E0B"},
		{ID: "5", Name: "Ambiental", Color: "#059669"},
	}
}

// Clone returns a deep copy of the state. Reads hand out clones so callers
// can never mutate the adapter's held state through a returned value.
func (s *ApplicationState) Clone() ApplicationState {
	out := ApplicationState{
		Employees:   make([]Employee, len(s.Employees)),
		Layout:      s.Layout,
		Departments: make([]Department, len(s.Departments)),
		History:     make([]HistoryRecord, len(s.History)),
		LastUpdated: s.LastUpdated,
	}
	copy(out.Employees, s.Employees)
	copy(out.Departments, s.Departments)
	copy(out.History, s.History)
	out.Layout.Positions = make([]OfficePosition, len(s.Layout.Positions))
	for i, pos := range s.Layout.Positions {
		if pos.WorkstationInfo != nil {
			info := *pos.WorkstationInfo
			pos.WorkstationInfo = &info
		}
		out.Layout.Positions[i] = pos
	}
	return out
}

// Valid reports whether the snapshot carries all four top-level collections.
// Used to gate imports.
func (s *ApplicationState) Valid() bool {
	return s.Employees != nil && s.Departments != nil && s.History != nil &&
		s.Layout.ID != "" && s.Layout.Positions != nil
}
