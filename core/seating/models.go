package seating

import (
	"fmt"
	"time"
)

type CellType string

// Cell types
const (
	CellSeat   CellType = "seat"
	CellAisle  CellType = "aisle"
	CellPodium CellType = "podium"
	CellEmpty  CellType = "empty"
)

var CellTypes = []CellType{CellSeat, CellAisle, CellPodium, CellEmpty}

func (ct CellType) Valid() bool {
	switch ct {
	case CellSeat, CellAisle, CellPodium, CellEmpty:
		return true
	}
	return false
}

// Seat is a 1-based (row, column) coordinate.
type Seat struct {
	Row    int `json:"row" validate:"min=1"`
	Column int `json:"column" validate:"min=1"`
}

func (s Seat) String() string {
	return fmt.Sprintf("(%d,%d)", s.Row, s.Column)
}

type SeatCell struct {
	Row    int      `json:"row"`
	Column int      `json:"column"`
	Type   CellType `json:"type"`
}

func (c SeatCell) Seat() Seat { return Seat{Row: c.Row, Column: c.Column} }

func (c SeatCell) IsSeat() bool { return c.Type == CellSeat }

// Layout is the shape of a classroom. Cells is indexed [row-1][column-1].
type Layout struct {
	ClassID            string             `json:"class_id"`
	Rows               int                `json:"rows"`
	Columns            int                `json:"columns"`
	Cells              [][]CellType       `json:"cells"`
	NumberingMode      NumberingMode      `json:"numbering_mode"`
	NumberingDirection NumberingDirection `json:"numbering_direction"`
}

type Classroom struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Layout    Layout    `json:"layout"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

type Student struct {
	ID        string    `json:"id"`
	ClassID   string    `json:"class_id"`
	Name      string    `json:"name"`
	Gender    string    `json:"gender,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// Assignment is one persisted seat row. An empty StudentID means the seat was explicitly vacated.
type Assignment struct {
	ClassID   string `json:"class_id"`
	Row       int    `json:"row"`
	Column    int    `json:"column"`
	StudentID string `json:"student_id,omitempty"`
}

func (a Assignment) Seat() Seat { return Seat{Row: a.Row, Column: a.Column} }

func (a Assignment) Occupied() bool { return a.StudentID != "" }

// NumberedSeat is a seat cell of an Arrangement along with its number and occupant.
type NumberedSeat struct {
	Row         int    `json:"row"`
	Column      int    `json:"column"`
	Number      int    `json:"number"`
	StudentID   string `json:"student_id,omitempty"`
	StudentName string `json:"student_name,omitempty"`
}

// Arrangement is the current seating of a classroom.
type Arrangement struct {
	Layout      Layout         `json:"layout"`
	Seats       []NumberedSeat `json:"seats"`
	Assignments []Assignment   `json:"assignments"` // occupied seats only
	Unassigned  []Student      `json:"unassigned"`  // active students without a seat
}

// SeatOf returns the seat held by the student, if any.
func (arr Arrangement) SeatOf(studentID string) (Seat, bool) {
	for _, a := range arr.Assignments {
		if a.StudentID == studentID {
			return a.Seat(), true
		}
	}
	return Seat{}, false
}

type Placement struct {
	StudentID string `json:"student_id"`
	Row       int    `json:"row"`
	Column    int    `json:"column"`
}

func (p Placement) Seat() Seat { return Seat{Row: p.Row, Column: p.Column} }

type AssignResult struct {
	AssignedCount int         `json:"assigned_count"`
	Mapping       []Placement `json:"mapping"`
}

type SwapPair struct {
	SeatA Seat `json:"seat_a"`
	SeatB Seat `json:"seat_b"`
}

// NewClassroom contains information needed to create a new Classroom.
// Zero dimensions and numbering fields are filled from the configured defaults.
type NewClassroom struct {
	ID                 string             `json:"id" validate:"omitempty,max=64,alphanum_"`
	Name               string             `json:"name" validate:"required,max=128"`
	Rows               int                `json:"rows" validate:"omitempty,min=1,max=100"`
	Columns            int                `json:"columns" validate:"omitempty,min=1,max=100"`
	Cells              [][]CellType       `json:"cells" validate:"omitempty,dive,dive,celltype"`
	NumberingMode      NumberingMode      `json:"numbering_mode" validate:"omitempty,numbering_mode"`
	NumberingDirection NumberingDirection `json:"numbering_direction" validate:"omitempty,numbering_dir"`
}

// SaveLayout defines the layout configuration of an existing Classroom.
type SaveLayout struct {
	ClassID            string             `json:"class_id" validate:"required"`
	Rows               int                `json:"rows" validate:"required,min=1,max=100"`
	Columns            int                `json:"columns" validate:"required,min=1,max=100"`
	Cells              [][]CellType       `json:"cells" validate:"omitempty,dive,dive,celltype"`
	NumberingMode      NumberingMode      `json:"numbering_mode" validate:"omitempty,numbering_mode"`
	NumberingDirection NumberingDirection `json:"numbering_direction" validate:"omitempty,numbering_dir"`
}

type NewStudent struct {
	ID     string `json:"id" validate:"omitempty,max=64,alphanum_"`
	Name   string `json:"name" validate:"required,max=128"`
	Gender string `json:"gender" validate:"omitempty,max=16"`
}

type AutoAssignOptions struct {
	Strategy           Strategy           `json:"strategy" validate:"required,strategy"`
	NumberingMode      NumberingMode      `json:"numbering_mode" validate:"omitempty,numbering_mode"`
	NumberingDirection NumberingDirection `json:"numbering_direction" validate:"omitempty,numbering_dir"`
	FixedStudentIDs    []string           `json:"fixed_student_ids"`
}
