package seating

import (
	"encoding/json"
	"fmt"
	"iter"

	"github.com/pkg/errors"

	"github.com/trezcool/seating/core"
)

// Grid is the immutable shape of a classroom: rows x columns typed cells.
type Grid struct {
	rows    int
	columns int
	cells   [][]CellType
}

// NewGrid validates the dimensions and the cell matrix. A nil matrix means all cells are seats.
func NewGrid(rows, columns int, cells [][]CellType) (Grid, error) {
	var fields []core.FieldError
	if rows <= 0 {
		fields = append(fields, core.FieldError{Field: "rows", Error: "rows must be greater than 0"})
	}
	if columns <= 0 {
		fields = append(fields, core.FieldError{Field: "columns", Error: "columns must be greater than 0"})
	}
	if len(fields) > 0 {
		return Grid{}, core.NewValidationError(nil, fields...)
	}
	if cells == nil {
		return DefaultGrid(rows, columns), nil
	}

	if len(cells) != rows {
		return Grid{}, core.NewValidationError(nil, core.FieldError{
			Field: "cells",
			Error: fmt.Sprintf("expected %d rows of cells, got %d", rows, len(cells)),
		})
	}
	grid := Grid{rows: rows, columns: columns, cells: make([][]CellType, rows)}
	for r, row := range cells {
		if len(row) != columns {
			return Grid{}, core.NewValidationError(nil, core.FieldError{
				Field: fmt.Sprintf("cells[%d]", r),
				Error: fmt.Sprintf("expected %d cells, got %d", columns, len(row)),
			})
		}
		for c, ct := range row {
			if !ct.Valid() {
				return Grid{}, core.NewValidationError(nil, core.FieldError{
					Field: fmt.Sprintf("cells[%d][%d]", r, c),
					Error: fmt.Sprintf("unknown cell type %q", ct),
				})
			}
		}
		grid.cells[r] = append([]CellType(nil), row...)
	}
	return grid, nil
}

// DefaultGrid returns a fully seated grid, with neither aisles nor podium.
func DefaultGrid(rows, columns int) Grid {
	cells := make([][]CellType, rows)
	for r := range cells {
		cells[r] = make([]CellType, columns)
		for c := range cells[r] {
			cells[r][c] = CellSeat
		}
	}
	return Grid{rows: rows, columns: columns, cells: cells}
}

// GridFromLayout builds the grid of a persisted layout.
// Missing or malformed cells fall back to DefaultGrid along with a *ConfigError describing the problem.
// Invalid dimensions are a plain validation error.
func GridFromLayout(layout Layout) (Grid, error) {
	if layout.Rows <= 0 || layout.Columns <= 0 {
		return NewGrid(layout.Rows, layout.Columns, nil)
	}
	if layout.Cells == nil {
		return DefaultGrid(layout.Rows, layout.Columns), nil
	}
	grid, err := NewGrid(layout.Rows, layout.Columns, layout.Cells)
	if err != nil {
		return DefaultGrid(layout.Rows, layout.Columns), &ConfigError{ClassID: layout.ClassID, Err: err}
	}
	return grid, nil
}

func (g Grid) Rows() int    { return g.rows }
func (g Grid) Columns() int { return g.columns }

// Cells returns a copy of the cell matrix.
func (g Grid) Cells() [][]CellType {
	cells := make([][]CellType, g.rows)
	for r := range g.cells {
		cells[r] = append([]CellType(nil), g.cells[r]...)
	}
	return cells
}

func (g Grid) InBounds(row, col int) bool {
	return row >= 1 && row <= g.rows && col >= 1 && col <= g.columns
}

// CellAt returns the cell at the 1-based (row, col), or ErrInvalidSeat when out of bounds.
func (g Grid) CellAt(row, col int) (SeatCell, error) {
	if !g.InBounds(row, col) {
		return SeatCell{}, invalidSeat(Seat{Row: row, Column: col})
	}
	return SeatCell{Row: row, Column: col, Type: g.cells[row-1][col-1]}, nil
}

// SeatAt is like CellAt but also rejects cells that are not seats.
func (g Grid) SeatAt(row, col int) (SeatCell, error) {
	cell, err := g.CellAt(row, col)
	if err != nil {
		return SeatCell{}, err
	}
	if !cell.IsSeat() {
		return SeatCell{}, errors.Wrapf(ErrInvalidSeat, "%s is a %s cell", cell.Seat(), cell.Type)
	}
	return cell, nil
}

// IsSeat reports whether (row, col) is in bounds and addresses a seat cell.
func (g Grid) IsSeat(row, col int) bool {
	return g.InBounds(row, col) && g.cells[row-1][col-1] == CellSeat
}

// SeatCells yields the seat cells in row-major order.
func (g Grid) SeatCells() iter.Seq[SeatCell] {
	return func(yield func(SeatCell) bool) {
		for r := 1; r <= g.rows; r++ {
			for c := 1; c <= g.columns; c++ {
				if g.cells[r-1][c-1] != CellSeat {
					continue
				}
				if !yield(SeatCell{Row: r, Column: c, Type: CellSeat}) {
					return
				}
			}
		}
	}
}

func (g Grid) SeatCount() int {
	var n int
	for range g.SeatCells() {
		n++
	}
	return n
}

// ParseCells decodes a persisted JSON cell matrix.
// An empty value decodes to nil, i.e. a default grid.
func ParseCells(raw []byte) ([][]CellType, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var cells [][]CellType
	if err := json.Unmarshal(raw, &cells); err != nil {
		return nil, errors.Wrap(err, "seating.ParseCells")
	}
	return cells, nil
}

// FormatCells encodes a cell matrix for storage.
func FormatCells(cells [][]CellType) ([]byte, error) {
	if cells == nil {
		return []byte("null"), nil
	}
	return json.Marshal(cells)
}
