package repository

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/LuisSandoval96/office-layout-manager/internal/models"
)

// numericTitle matches a job title holding a bare desk number, the signature
// of the old defect that wrote desk identifiers into the title field.
var numericTitle = regexp.MustCompile(`^\d+$`)

// engine applies the mutation rules shared by both adapters.
//
// Reconciliation strategy: ReplaceWholeDocument. The entire ApplicationState
// is the unit of every write; concurrent writers race at document granularity
// and the last write observed by the store wins. There is no field-level
// merge and no conflict detection.
type engine struct {
	historyLimit int
	policy       AssignPolicy
}

func (e engine) createEmployee(s *models.ApplicationState, data models.CreateEmployeeData, now time.Time) (models.Employee, error) {
	if strings.TrimSpace(data.Name) == "" {
		return models.Employee{}, fmt.Errorf("employee name is required")
	}

	emp := models.Employee{
		ID:         "emp-" + uuid.NewString(),
		Name:       data.Name,
		Department: data.Department,
		Position:   data.Position,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.Employees = append(s.Employees, emp)

	e.addHistory(s, models.HistoryRecord{
		EmployeeID: emp.ID,
		Action:     models.ActionAssigned,
		Notes:      fmt.Sprintf("Empleado %s agregado al sistema", emp.Name),
	}, now)
	return emp, nil
}

func (e engine) updateEmployee(s *models.ApplicationState, id string, data models.UpdateEmployeeData, now time.Time) *models.Employee {
	idx := employeeIndex(s, id)
	if idx < 0 {
		return nil
	}

	emp := &s.Employees[idx]
	if data.Name != nil {
		emp.Name = *data.Name
	}
	if data.Department != nil {
		emp.Department = *data.Department
	}
	if data.Position != nil {
		emp.Position = *data.Position
	}
	emp.UpdatedAt = now

	e.addHistory(s, models.HistoryRecord{
		EmployeeID: id,
		Action:     models.ActionAssigned,
		Notes:      fmt.Sprintf("Empleado %s actualizado", emp.Name),
	}, now)
	out := *emp
	return &out
}

// deleteEmployee cascades: an occupied desk is freed and its workstation
// info discarded before the record is removed.
func (e engine) deleteEmployee(s *models.ApplicationState, id string, now time.Time) bool {
	idx := employeeIndex(s, id)
	if idx < 0 {
		return false
	}

	positionID := ""
	if pos := positionOfEmployee(s, id); pos != nil {
		pos.EmployeeID = ""
		pos.IsOccupied = false
		pos.WorkstationInfo = nil
		positionID = pos.ID
	}

	name := s.Employees[idx].Name
	s.Employees = append(s.Employees[:idx], s.Employees[idx+1:]...)

	e.addHistory(s, models.HistoryRecord{
		EmployeeID: id,
		PositionID: positionID,
		Action:     models.ActionUnassigned,
		Notes:      fmt.Sprintf("Empleado %s eliminado del sistema", name),
	}, now)
	return true
}

// assign binds an employee to a desk. The employee's Position field is the
// job title and is never written here. Returns false when either side is
// unknown, when the desk already holds this employee, or when the desk is
// occupied and the policy is reject.
func (e engine) assign(s *models.ApplicationState, employeeID, positionID string, info *models.WorkstationInfo, now time.Time) bool {
	idx := employeeIndex(s, employeeID)
	if idx < 0 {
		return false
	}
	emp := &s.Employees[idx]

	pos := lookupPosition(s, positionID)
	if pos == nil {
		return false
	}
	if pos.EmployeeID == employeeID {
		return false
	}

	if pos.EmployeeID != "" {
		if e.policy == AssignPolicyReject {
			return false
		}
		e.evict(s, pos, now)
	}

	var previous *models.OfficePosition
	if prev := positionOfEmployee(s, employeeID); prev != nil {
		prev.EmployeeID = ""
		prev.IsOccupied = false
		prev.WorkstationInfo = nil
		previous = prev
	}

	pos.EmployeeID = employeeID
	pos.IsOccupied = true
	if info != nil {
		assigned := *info
		if assigned.AssignedDate == nil {
			t := now
			assigned.AssignedDate = &t
		}
		pos.WorkstationInfo = &assigned
	} else {
		pos.WorkstationInfo = nil
	}
	emp.UpdatedAt = now

	rec := models.HistoryRecord{
		EmployeeID: employeeID,
		PositionID: pos.ID,
		Action:     models.ActionAssigned,
		Notes:      assignmentNotes(emp.Name, pos, previous, info),
	}
	if previous != nil {
		rec.Action = models.ActionMoved
		rec.PreviousPositionID = previous.ID
	}
	e.addHistory(s, rec, now)
	return true
}

// evict frees an occupied desk for an incoming assignment, logging the
// displaced occupant.
func (e engine) evict(s *models.ApplicationState, pos *models.OfficePosition, now time.Time) {
	name := "Empleado"
	if idx := employeeIndex(s, pos.EmployeeID); idx >= 0 {
		name = s.Employees[idx].Name
	}
	e.addHistory(s, models.HistoryRecord{
		EmployeeID: pos.EmployeeID,
		PositionID: pos.ID,
		Action:     models.ActionUnassigned,
		Notes:      fmt.Sprintf("%s removido del escritorio %s", name, deskLabel(pos)),
	}, now)
	pos.EmployeeID = ""
	pos.IsOccupied = false
	pos.WorkstationInfo = nil
}

func (e engine) unassign(s *models.ApplicationState, employeeID string, now time.Time) bool {
	pos := positionOfEmployee(s, employeeID)
	if pos == nil {
		return false
	}

	name := "Empleado"
	if idx := employeeIndex(s, employeeID); idx >= 0 {
		name = s.Employees[idx].Name
		s.Employees[idx].UpdatedAt = now
	}

	pos.EmployeeID = ""
	pos.IsOccupied = false
	pos.WorkstationInfo = nil

	e.addHistory(s, models.HistoryRecord{
		EmployeeID: employeeID,
		PositionID: pos.ID,
		Action:     models.ActionUnassigned,
		Notes:      fmt.Sprintf("%s removido del escritorio %s", name, deskLabel(pos)),
	}, now)
	return true
}

func (e engine) updateWorkstation(s *models.ApplicationState, deskNumber int, info models.WorkstationInfo, now time.Time) bool {
	for i := range s.Layout.Positions {
		pos := &s.Layout.Positions[i]
		if pos.Number != deskNumber {
			continue
		}
		updated := info
		pos.WorkstationInfo = &updated
		e.addHistory(s, models.HistoryRecord{
			PositionID: pos.ID,
			Action:     models.ActionAssigned,
			Notes:      fmt.Sprintf("Información de estación %s actualizada", deskLabel(pos)),
		}, now)
		return true
	}
	return false
}

// repairCorrupted resets numeric job titles (desk identifiers written into
// the title field) and fills missing department/title fields. Returns how
// many records changed; appends a single history entry when any did.
func (e engine) repairCorrupted(s *models.ApplicationState, now time.Time) int {
	repaired := 0
	for i := range s.Employees {
		emp := &s.Employees[i]
		changed := false
		if numericTitle.MatchString(emp.Position) {
			emp.Position = models.DefaultPositionTitle
			changed = true
		}
		if strings.TrimSpace(emp.Position) == "" {
			emp.Position = models.FallbackPositionTitle
			changed = true
		}
		if strings.TrimSpace(emp.Department) == "" {
			emp.Department = models.FallbackDepartment
			changed = true
		}
		if changed {
			emp.UpdatedAt = now
			repaired++
		}
	}
	if repaired > 0 {
		e.addHistory(s, models.HistoryRecord{
			Action: models.ActionAssigned,
			Notes:  fmt.Sprintf("Datos corregidos para %d empleados", repaired),
		}, now)
	}
	return repaired
}

// addHistory prepends one record and truncates to the retention cap.
// The log is never reordered.
func (e engine) addHistory(s *models.ApplicationState, rec models.HistoryRecord, now time.Time) {
	rec.ID = "hist-" + uuid.NewString()
	rec.Timestamp = now
	s.History = append([]models.HistoryRecord{rec}, s.History...)
	if len(s.History) > e.historyLimit {
		s.History = s.History[:e.historyLimit]
	}
}

func employeeIndex(s *models.ApplicationState, id string) int {
	for i := range s.Employees {
		if s.Employees[i].ID == id {
			return i
		}
	}
	return -1
}

func positionOfEmployee(s *models.ApplicationState, employeeID string) *models.OfficePosition {
	for i := range s.Layout.Positions {
		if s.Layout.Positions[i].EmployeeID == employeeID {
			return &s.Layout.Positions[i]
		}
	}
	return nil
}

// lookupPosition resolves a desk by primary id, falling back to the legacy
// numeric key for identifiers from older clients ("pos-73").
func lookupPosition(s *models.ApplicationState, positionID string) *models.OfficePosition {
	for i := range s.Layout.Positions {
		if s.Layout.Positions[i].ID == positionID {
			return &s.Layout.Positions[i]
		}
	}
	if n, err := strconv.Atoi(strings.TrimPrefix(positionID, "pos-")); err == nil {
		for i := range s.Layout.Positions {
			if s.Layout.Positions[i].Number == n {
				return &s.Layout.Positions[i]
			}
		}
	}
	return nil
}

func deskLabel(pos *models.OfficePosition) string {
	if pos.DeskName != "" {
		return pos.DeskName
	}
	return strconv.Itoa(pos.Number)
}

func assignmentNotes(employeeName string, pos, previous *models.OfficePosition, info *models.WorkstationInfo) string {
	verb := "asignado a"
	if previous != nil {
		verb = "movido a"
	}
	notes := fmt.Sprintf("%s %s escritorio %s", employeeName, verb, deskLabel(pos))
	if info == nil {
		return notes
	}

	details := []string{}
	if info.DrawerNumber != "" {
		details = append(details, "Cajón: "+info.DrawerNumber)
	}
	if info.ChairNumber != "" {
		details = append(details, "Silla: "+info.ChairNumber)
	}
	details = append(details, "Nodos: "+working(info.NodesWorking))
	details = append(details, "Eléctrico: "+working(info.ElectricalConnection))
	details = append(details, "Cajón: "+working(info.DrawerWorking))
	notes += " - " + strings.Join(details, ", ")
	if info.Notes != "" {
		notes += " | Notas: " + info.Notes
	}
	return notes
}

func working(ok bool) string {
	if ok {
		return "Funciona"
	}
	return "No funciona"
}
