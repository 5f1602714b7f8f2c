package models

import "time"

const (
	LayoutID     = "layout-1"
	LayoutName   = "Oficina Principal"
	LayoutWidth  = 1200
	LayoutHeight = 1900

	deskSize = 80
)

type deskSpec struct {
	name          string
	x, y          int
	width, height int
}

// deskTable is the fixed floor plan. Order is display order and also fixes
// each desk's legacy ordinal number (index + 1).
var deskTable = []deskSpec{
	// left side, top
	{name: "K1", x: 50, y: 50},
	{name: "K2", x: 150, y: 50},
	{name: "K7", x: 50, y: 150},
	{name: "K9", x: 150, y: 150},

	{name: "L2", x: 50, y: 280},
	{name: "L1", x: 150, y: 280},
	{name: "L7", x: 50, y: 380},
	{name: "L8", x: 150, y: 380},

	{name: "M2", x: 50, y: 510},
	{name: "M1", x: 150, y: 510},
	{name: "M5", x: 50, y: 610},
	{name: "M6", x: 150, y: 610},

	{name: "N3", x: 50, y: 740},
	{name: "N2", x: 150, y: 740},
	{name: "N1", x: 250, y: 740},
	{name: "N14", x: 50, y: 840},
	{name: "N15", x: 150, y: 840},
	{name: "N16", x: 250, y: 840},

	{name: "O3", x: 50, y: 970},
	{name: "O2", x: 150, y: 970},
	{name: "O1", x: 250, y: 970},
	{name: "O12", x: 50, y: 1070},
	{name: "O13", x: 150, y: 1070},
	{name: "O14", x: 250, y: 1070},

	{name: "P3", x: 50, y: 1200},
	{name: "P2", x: 150, y: 1200},
	{name: "P1", x: 250, y: 1200},
	{name: "P14", x: 50, y: 1300},
	{name: "P15", x: 150, y: 1300},
	{name: "P16", x: 250, y: 1300},

	{name: "Q3", x: 50, y: 1430},
	{name: "Q2", x: 150, y: 1430},
	{name: "Q1", x: 250, y: 1430},
	{name: "Q14", x: 50, y: 1530},
	{name: "Q15", x: 150, y: 1530},
	{name: "Q16", x: 250, y: 1530},

	// center meeting rooms
	{name: "SA", x: 450, y: 200, width: 120, height: 60},
	{name: "NA", x: 650, y: 200, width: 120, height: 60},

	{name: "N4", x: 430, y: 350},
	{name: "N5", x: 530, y: 350},
	{name: "N6", x: 630, y: 350},
	{name: "N13", x: 430, y: 450},
	{name: "N12", x: 530, y: 450},
	{name: "N11", x: 630, y: 450},

	{name: "O4", x: 480, y: 580},
	{name: "O5", x: 580, y: 580},
	{name: "O11", x: 480, y: 680},
	{name: "O10", x: 580, y: 680},

	{name: "P4", x: 430, y: 810},
	{name: "P5", x: 530, y: 810},
	{name: "P6", x: 630, y: 810},
	{name: "P13", x: 430, y: 910},
	{name: "P12", x: 530, y: 910},
	{name: "P11", x: 630, y: 910},

	{name: "Q4", x: 430, y: 1040},
	{name: "Q5", x: 530, y: 1040},
	{name: "Q6", x: 630, y: 1040},
	{name: "Q13", x: 430, y: 1140},
	{name: "Q12", x: 530, y: 1140},
	{name: "Q11", x: 630, y: 1140},

	{name: "R1", x: 430, y: 1270},
	{name: "R3", x: 530, y: 1270},
	{name: "R4", x: 630, y: 1270},
	{name: "R2", x: 430, y: 1370},
	{name: "R10", x: 530, y: 1370},
	{name: "R9", x: 630, y: 1370},

	// right side
	{name: "K3", x: 900, y: 50},
	{name: "K4", x: 1000, y: 50},
	{name: "K6", x: 900, y: 150},
	{name: "K5", x: 1000, y: 150},

	{name: "L3", x: 900, y: 280},
	{name: "L4", x: 1000, y: 280},
	{name: "L6", x: 900, y: 380},
	{name: "L5", x: 1000, y: 380},

	{name: "M3", x: 900, y: 510},
	{name: "M4", x: 1000, y: 510},
	{name: "M7", x: 900, y: 610},
	{name: "M8", x: 1000, y: 610},

	{name: "N7", x: 900, y: 740},
	{name: "N8", x: 1000, y: 740},
	{name: "N10", x: 900, y: 840},
	{name: "N9", x: 1000, y: 840},

	{name: "O6", x: 900, y: 970},
	{name: "O7", x: 1000, y: 970},
	{name: "O9", x: 900, y: 1070},
	{name: "O8", x: 1000, y: 1070},

	{name: "P7", x: 900, y: 1200},
	{name: "P8", x: 1000, y: 1200},
	{name: "P10", x: 900, y: 1300},
	{name: "P9", x: 1000, y: 1300},

	{name: "Q7", x: 900, y: 1430},
	{name: "Q8", x: 1000, y: 1430},
	{name: "Q10", x: 900, y: 1530},
	{name: "Q9", x: 1000, y: 1530},

	{name: "R5", x: 900, y: 1660},
	{name: "R6", x: 1000, y: 1660},
	{name: "R8", x: 900, y: 1760},
	{name: "R7", x: 1000, y: 1760},
}

// GeneratePositions builds the fixed desk set from the floor plan table.
// Desk ids are stable ("pos-K1"); desks start vacant.
func GeneratePositions() []OfficePosition {
	positions := make([]OfficePosition, 0, len(deskTable))
	for i, d := range deskTable {
		w, h := d.width, d.height
		if w == 0 {
			w = deskSize
		}
		if h == 0 {
			h = deskSize
		}
		positions = append(positions, OfficePosition{
			ID:       "pos-" + d.name,
			Number:   i + 1,
			X:        d.x,
			Y:        d.y,
			Width:    w,
			Height:   h,
			DeskName: d.name,
		})
	}
	return positions
}

// NewLayout builds the default office layout with a freshly generated desk set.
func NewLayout(now time.Time) OfficeLayout {
	return OfficeLayout{
		ID:        LayoutID,
		Name:      LayoutName,
		Width:     LayoutWidth,
		Height:    LayoutHeight,
		Positions: GeneratePositions(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewInitialState synthesizes the state used at first boot and after a full
// reset: empty roster, fresh layout, default departments, empty history.
func NewInitialState(now time.Time) ApplicationState {
	return ApplicationState{
		Employees:   []Employee{},
		Layout:      NewLayout(now),
		Departments: DefaultDepartments(),
		History:     []HistoryRecord{},
		LastUpdated: now,
	}
}
