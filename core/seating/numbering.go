package seating

import (
	"fmt"

	"github.com/trezcool/seating/core"
)

type (
	NumberingMode      string
	NumberingDirection string
)

// Numbering modes
const (
	ModeRowColumn NumberingMode = "row-column"
	ModeSShape    NumberingMode = "s-shape"
	ModeZShape    NumberingMode = "z-shape"
	ModePodiumS   NumberingMode = "podium-s"
)

// Numbering directions
const (
	DirectionTop    NumberingDirection = "top"
	DirectionBottom NumberingDirection = "bottom"
)

var (
	NumberingModes      = []NumberingMode{ModeRowColumn, ModeSShape, ModeZShape, ModePodiumS}
	NumberingDirections = []NumberingDirection{DirectionTop, DirectionBottom}
)

func (m NumberingMode) Valid() bool {
	switch m {
	case ModeRowColumn, ModeSShape, ModeZShape, ModePodiumS:
		return true
	}
	return false
}

func (d NumberingDirection) Valid() bool {
	return d == DirectionTop || d == DirectionBottom
}

func ParseNumberingMode(s string) (NumberingMode, error) {
	m := NumberingMode(core.CleanString(s, true /* lower */))
	if !m.Valid() {
		return "", core.NewValidationError(nil, core.FieldError{
			Field: "numbering_mode",
			Error: fmt.Sprintf("unknown numbering mode %q", s),
		})
	}
	return m, nil
}

func ParseNumberingDirection(s string) (NumberingDirection, error) {
	d := NumberingDirection(core.CleanString(s, true /* lower */))
	if !d.Valid() {
		return "", core.NewValidationError(nil, core.FieldError{
			Field: "numbering_direction",
			Error: fmt.Sprintf("unknown numbering direction %q", s),
		})
	}
	return d, nil
}

// leftToRight reports whether the i-th traversed row (0-based, in traversal order) is numbered left to right.
func (m NumberingMode) leftToRight(i int) bool {
	switch m {
	case ModeSShape:
		return i%2 == 0
	case ModePodiumS:
		return i%2 == 1
	default: // row-column, z-shape
		return true
	}
}

// Numbering numbers every seat cell of the grid from 1 to K, K being the number of seats.
// Non-seat cells are skipped and left out of the table.
func Numbering(grid Grid, mode NumberingMode, direction NumberingDirection) map[Seat]int {
	numbers := make(map[Seat]int, grid.rows*grid.columns)
	next := 1
	for i := 0; i < grid.rows; i++ {
		row := i + 1
		if direction == DirectionBottom {
			row = grid.rows - i
		}
		for j := 0; j < grid.columns; j++ {
			col := j + 1
			if !mode.leftToRight(i) {
				col = grid.columns - j
			}
			if grid.cells[row-1][col-1] != CellSeat {
				continue
			}
			numbers[Seat{Row: row, Column: col}] = next
			next++
		}
	}
	return numbers
}

// NumberOf returns the number of the seat at (row, col), or 0 if the cell is not a numbered seat.
func NumberOf(row, col int, grid Grid, mode NumberingMode, direction NumberingDirection) int {
	if !grid.IsSeat(row, col) {
		return 0
	}
	return Numbering(grid, mode, direction)[Seat{Row: row, Column: col}]
}
