package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/trezcool/seating/core/seating"
)

const (
	minCellWidth = 6
	maxCellWidth = 20
)

func fit(s string, width int) string {
	r := []rune(s)
	if len(r) > width {
		return string(r[:width-1]) + "~"
	}
	return s + strings.Repeat(" ", width-len(r))
}

// renderArrangement prints the chart row by row, the podium corner last.
func renderArrangement(w io.Writer, arr seating.Arrangement, termWidth int) error {
	layout := arr.Layout
	if layout.Columns == 0 {
		return nil
	}
	width := min(max(termWidth/layout.Columns-1, minCellWidth), maxCellWidth)

	seats := make(map[seating.Seat]seating.NumberedSeat, len(arr.Seats))
	for _, s := range arr.Seats {
		seats[seating.Seat{Row: s.Row, Column: s.Column}] = s
	}

	var sb strings.Builder
	for r := 1; r <= layout.Rows; r++ {
		for c := 1; c <= layout.Columns; c++ {
			var label string
			ct := seating.CellSeat
			if r-1 < len(layout.Cells) && c-1 < len(layout.Cells[r-1]) {
				ct = layout.Cells[r-1][c-1]
			}
			switch ct {
			case seating.CellSeat:
				s := seats[seating.Seat{Row: r, Column: c}]
				label = fmt.Sprintf("%d", s.Number)
				if s.StudentName != "" {
					label += " " + s.StudentName
				} else if s.StudentID != "" {
					label += " " + s.StudentID
				}
			case seating.CellAisle:
				label = "|"
			case seating.CellPodium:
				label = "[podium]"
			}
			sb.WriteString(fit(label, width))
			if c < layout.Columns {
				sb.WriteByte(' ')
			}
		}
		sb.WriteByte('\n')
	}
	if len(arr.Unassigned) > 0 {
		names := make([]string, 0, len(arr.Unassigned))
		for _, st := range arr.Unassigned {
			names = append(names, st.Name)
		}
		sb.WriteString("unassigned: " + strings.Join(names, ", ") + "\n")
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
