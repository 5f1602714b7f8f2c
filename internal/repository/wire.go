package repository

import (
	"strconv"
	"time"

	"github.com/LuisSandoval96/office-layout-manager/internal/models"
)

// Wire representation of the shared document. Timestamps travel as unix
// milliseconds so independent clients compare them consistently; absent
// optional fields are omitted entirely because the backing store must never
// see explicit null-ish values.
type wireState struct {
	Employees   []wireEmployee      `json:"employees"`
	Layout      wireLayout          `json:"layout"`
	Departments []models.Department `json:"departments,omitempty"`
	History     []wireHistory       `json:"history"`
	LastUpdated int64               `json:"lastUpdated"`
}

type wireEmployee struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Department string `json:"department"`
	Position   string `json:"position"`
	CreatedAt  int64  `json:"createdAt,omitempty"`
	UpdatedAt  int64  `json:"updatedAt,omitempty"`
}

type wireLayout struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Width     int            `json:"width"`
	Height    int            `json:"height"`
	Positions []wirePosition `json:"positions"`
	CreatedAt int64          `json:"createdAt"`
	UpdatedAt int64          `json:"updatedAt"`
}

type wirePosition struct {
	ID              string           `json:"id"`
	Number          int              `json:"number"`
	X               int              `json:"x"`
	Y               int              `json:"y"`
	Width           int              `json:"width"`
	Height          int              `json:"height"`
	EmployeeID      string           `json:"employeeId,omitempty"`
	IsOccupied      bool             `json:"isOccupied"`
	DeskName        string           `json:"deskName"`
	WorkstationInfo *wireWorkstation `json:"workstationInfo,omitempty"`
}

type wireWorkstation struct {
	DrawerNumber         string `json:"drawerNumber,omitempty"`
	ChairNumber          string `json:"chairNumber,omitempty"`
	NodesWorking         bool   `json:"nodesWorking"`
	ElectricalConnection bool   `json:"electricalConnection"`
	DrawerWorking        bool   `json:"drawerWorking"`
	AssignedDate         int64  `json:"assignedDate,omitempty"`
	Notes                string `json:"notes,omitempty"`
}

type wireHistory struct {
	ID                 string `json:"id"`
	EmployeeID         string `json:"employeeId"`
	PositionID         string `json:"positionId"`
	Action             string `json:"action"`
	PreviousPositionID string `json:"previousPositionId,omitempty"`
	Timestamp          int64  `json:"timestamp"`
	Notes              string `json:"notes,omitempty"`
}

func timeToMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func millisToTime(ms int64, fallback time.Time) time.Time {
	if ms == 0 {
		return fallback
	}
	return time.UnixMilli(ms).UTC()
}

// toWire converts in-memory state to the wire document. Defensive on the way
// out: employees without id or name are never transmitted, missing
// department/title get placeholder values instead of being omitted, and
// occupancy is derived from the employee reference rather than trusting the
// held flag.
func toWire(s models.ApplicationState, now time.Time) wireState {
	employees := make([]wireEmployee, 0, len(s.Employees))
	for _, emp := range s.Employees {
		if emp.ID == "" || emp.Name == "" {
			continue
		}
		w := wireEmployee{
			ID:         emp.ID,
			Name:       emp.Name,
			Department: emp.Department,
			Position:   emp.Position,
			CreatedAt:  timeToMillis(emp.CreatedAt),
			UpdatedAt:  timeToMillis(emp.UpdatedAt),
		}
		if w.Department == "" {
			w.Department = models.FallbackDepartment
		}
		if w.Position == "" {
			w.Position = models.FallbackPositionTitle
		}
		employees = append(employees, w)
	}

	positions := make([]wirePosition, 0, len(s.Layout.Positions))
	for i, pos := range s.Layout.Positions {
		w := wirePosition{
			ID:         pos.ID,
			Number:     pos.Number,
			X:          pos.X,
			Y:          pos.Y,
			Width:      pos.Width,
			Height:     pos.Height,
			EmployeeID: pos.EmployeeID,
			IsOccupied: pos.EmployeeID != "",
			DeskName:   pos.DeskName,
		}
		if w.DeskName == "" {
			w.DeskName = "Desk-" + strconv.Itoa(i+1)
		}
		if pos.WorkstationInfo != nil {
			info := pos.WorkstationInfo
			ws := &wireWorkstation{
				DrawerNumber:         info.DrawerNumber,
				ChairNumber:          info.ChairNumber,
				NodesWorking:         info.NodesWorking,
				ElectricalConnection: info.ElectricalConnection,
				DrawerWorking:        info.DrawerWorking,
				Notes:                info.Notes,
			}
			if info.AssignedDate != nil {
				ws.AssignedDate = timeToMillis(*info.AssignedDate)
			} else {
				ws.AssignedDate = timeToMillis(now)
			}
			w.WorkstationInfo = ws
		}
		positions = append(positions, w)
	}

	departments := make([]models.Department, 0, len(s.Departments))
	for _, dept := range s.Departments {
		if dept.ID == "" {
			continue
		}
		departments = append(departments, dept)
	}

	history := make([]wireHistory, 0, len(s.History))
	for _, rec := range s.History {
		if rec.Timestamp.IsZero() {
			continue
		}
		history = append(history, wireHistory{
			ID:                 rec.ID,
			EmployeeID:         rec.EmployeeID,
			PositionID:         rec.PositionID,
			Action:             rec.Action,
			PreviousPositionID: rec.PreviousPositionID,
			Timestamp:          timeToMillis(rec.Timestamp),
			Notes:              rec.Notes,
		})
	}

	layoutCreated := s.Layout.CreatedAt
	if layoutCreated.IsZero() {
		layoutCreated = now
	}
	return wireState{
		Employees: employees,
		Layout: wireLayout{
			ID:        defaultString(s.Layout.ID, models.LayoutID),
			Name:      defaultString(s.Layout.Name, models.LayoutName),
			Width:     defaultInt(s.Layout.Width, models.LayoutWidth),
			Height:    defaultInt(s.Layout.Height, models.LayoutHeight),
			Positions: positions,
			CreatedAt: timeToMillis(layoutCreated),
			UpdatedAt: timeToMillis(now),
		},
		Departments: departments,
		History:     history,
		LastUpdated: timeToMillis(now),
	}
}

// fromWire reconstructs in-memory state from a received document. Occupancy
// is re-derived from each position's employee reference; a stored flag is
// never trusted. An absent departments section falls back to the default set.
func fromWire(w wireState, now time.Time) models.ApplicationState {
	employees := make([]models.Employee, 0, len(w.Employees))
	for _, emp := range w.Employees {
		employees = append(employees, models.Employee{
			ID:         emp.ID,
			Name:       emp.Name,
			Department: emp.Department,
			Position:   emp.Position,
			CreatedAt:  millisToTime(emp.CreatedAt, now),
			UpdatedAt:  millisToTime(emp.UpdatedAt, now),
		})
	}

	positions := make([]models.OfficePosition, 0, len(w.Layout.Positions))
	for _, pos := range w.Layout.Positions {
		p := models.OfficePosition{
			ID:         pos.ID,
			Number:     pos.Number,
			X:          pos.X,
			Y:          pos.Y,
			Width:      pos.Width,
			Height:     pos.Height,
			EmployeeID: pos.EmployeeID,
			IsOccupied: pos.EmployeeID != "",
			DeskName:   pos.DeskName,
		}
		if pos.WorkstationInfo != nil {
			info := &models.WorkstationInfo{
				DrawerNumber:         pos.WorkstationInfo.DrawerNumber,
				ChairNumber:          pos.WorkstationInfo.ChairNumber,
				NodesWorking:         pos.WorkstationInfo.NodesWorking,
				ElectricalConnection: pos.WorkstationInfo.ElectricalConnection,
				DrawerWorking:        pos.WorkstationInfo.DrawerWorking,
				Notes:                pos.WorkstationInfo.Notes,
			}
			if pos.WorkstationInfo.AssignedDate != 0 {
				t := millisToTime(pos.WorkstationInfo.AssignedDate, now)
				info.AssignedDate = &t
			}
			p.WorkstationInfo = info
		}
		positions = append(positions, p)
	}

	departments := w.Departments
	if len(departments) == 0 {
		departments = models.DefaultDepartments()
	}

	history := make([]models.HistoryRecord, 0, len(w.History))
	for _, rec := range w.History {
		history = append(history, models.HistoryRecord{
			ID:                 rec.ID,
			EmployeeID:         rec.EmployeeID,
			PositionID:         rec.PositionID,
			Action:             rec.Action,
			PreviousPositionID: rec.PreviousPositionID,
			Timestamp:          millisToTime(rec.Timestamp, now),
			Notes:              rec.Notes,
		})
	}

	return models.ApplicationState{
		Employees: employees,
		Layout: models.OfficeLayout{
			ID:        w.Layout.ID,
			Name:      w.Layout.Name,
			Width:     w.Layout.Width,
			Height:    w.Layout.Height,
			Positions: positions,
			CreatedAt: millisToTime(w.Layout.CreatedAt, now),
			UpdatedAt: millisToTime(w.Layout.UpdatedAt, now),
		},
		Departments: departments,
		History:     history,
		LastUpdated: millisToTime(w.LastUpdated, now),
	}
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func defaultInt(v, fallback int) int {
	if v == 0 {
		return fallback
	}
	return v
}

