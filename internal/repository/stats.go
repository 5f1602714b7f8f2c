package repository

import (
	"github.com/LuisSandoval96/office-layout-manager/internal/models"
)

// WorkstationIssue names one desk with at least one equipment problem.
type WorkstationIssue struct {
	DeskName string   `json:"deskName"`
	Employee string   `json:"employee"`
	Issues   []string `json:"issues"`
}

// WorkstationStats aggregates equipment health over occupied desks that
// carry workstation info.
type WorkstationStats struct {
	TotalAssignmentsWithInfo    int                `json:"totalAssignmentsWithInfo"`
	NodesWorkingCount           int                `json:"nodesWorkingCount"`
	NodesWorkingPercentage      float64            `json:"nodesWorkingPercentage"`
	ElectricalWorkingCount      int                `json:"electricalWorkingCount"`
	ElectricalWorkingPercentage float64            `json:"electricalWorkingPercentage"`
	DrawerWorkingCount          int                `json:"drawerWorkingCount"`
	DrawerWorkingPercentage     float64            `json:"drawerWorkingPercentage"`
	DrawerAssignedCount         int                `json:"drawerAssignedCount"`
	ChairAssignedCount          int                `json:"chairAssignedCount"`
	WorkstationIssues           []WorkstationIssue `json:"workstationIssues"`
}

// Statistics is the derived dashboard view of one state snapshot.
type Statistics struct {
	TotalPositions        int              `json:"totalPositions"`
	OccupiedPositions     int              `json:"occupiedPositions"`
	AvailablePositions    int              `json:"availablePositions"`
	TotalEmployees        int              `json:"totalEmployees"`
	AssignedEmployees     int              `json:"assignedEmployees"`
	UnassignedEmployees   int              `json:"unassignedEmployees"`
	EmployeesByDepartment map[string]int   `json:"employeesByDepartment"`
	OccupancyRate         float64          `json:"occupancyRate"`
	WorkstationStats      WorkstationStats `json:"workstationStats"`
}

// ComputeStatistics derives counts from a snapshot. Pure; both adapters
// delegate to it. A position referencing a missing employee still counts as
// occupied for desk math but cannot count toward assigned employees.
func ComputeStatistics(s models.ApplicationState) Statistics {
	totalPositions := len(s.Layout.Positions)
	occupied := 0
	for _, pos := range s.Layout.Positions {
		if pos.EmployeeID != "" {
			occupied++
		}
	}

	assigned := 0
	for _, emp := range s.Employees {
		for _, pos := range s.Layout.Positions {
			if pos.EmployeeID == emp.ID {
				assigned++
				break
			}
		}
	}

	byDepartment := map[string]int{}
	for _, dept := range s.Departments {
		byDepartment[dept.Name] = 0
	}
	for _, emp := range s.Employees {
		byDepartment[emp.Department]++
	}

	occupancyRate := 0.0
	if totalPositions > 0 {
		occupancyRate = float64(occupied) / float64(totalPositions) * 100
	}

	return Statistics{
		TotalPositions:        totalPositions,
		OccupiedPositions:     occupied,
		AvailablePositions:    totalPositions - occupied,
		TotalEmployees:        len(s.Employees),
		AssignedEmployees:     assigned,
		UnassignedEmployees:   len(s.Employees) - assigned,
		EmployeesByDepartment: byDepartment,
		OccupancyRate:         occupancyRate,
		WorkstationStats:      computeWorkstationStats(s),
	}
}

func computeWorkstationStats(s models.ApplicationState) WorkstationStats {
	stats := WorkstationStats{WorkstationIssues: []WorkstationIssue{}}

	for _, pos := range s.Layout.Positions {
		if pos.EmployeeID == "" || pos.WorkstationInfo == nil {
			continue
		}
		info := pos.WorkstationInfo
		stats.TotalAssignmentsWithInfo++
		if info.NodesWorking {
			stats.NodesWorkingCount++
		}
		if info.ElectricalConnection {
			stats.ElectricalWorkingCount++
		}
		if info.DrawerWorking {
			stats.DrawerWorkingCount++
		}
		if info.DrawerNumber != "" {
			stats.DrawerAssignedCount++
		}
		if info.ChairNumber != "" {
			stats.ChairAssignedCount++
		}

		issues := []string{}
		if !info.NodesWorking {
			issues = append(issues, "Nodos no funcionan")
		}
		if !info.ElectricalConnection {
			issues = append(issues, "Conexión eléctrica no funciona")
		}
		if !info.DrawerWorking {
			issues = append(issues, "Cajón no funciona")
		}
		if info.DrawerNumber == "" {
			issues = append(issues, "Sin cajón asignado")
		}
		if info.ChairNumber == "" {
			issues = append(issues, "Sin silla asignada")
		}

		if len(issues) > 0 {
			name := "Desconocido"
			for _, emp := range s.Employees {
				if emp.ID == pos.EmployeeID {
					name = emp.Name
					break
				}
			}
			deskName := pos.DeskName
			if deskName == "" {
				deskName = pos.ID
			}
			stats.WorkstationIssues = append(stats.WorkstationIssues, WorkstationIssue{
				DeskName: deskName,
				Employee: name,
				Issues:   issues,
			})
		}
	}

	if stats.TotalAssignmentsWithInfo > 0 {
		total := float64(stats.TotalAssignmentsWithInfo)
		stats.NodesWorkingPercentage = float64(stats.NodesWorkingCount) / total * 100
		stats.ElectricalWorkingPercentage = float64(stats.ElectricalWorkingCount) / total * 100
		stats.DrawerWorkingPercentage = float64(stats.DrawerWorkingCount) / total * 100
	}
	return stats
}
