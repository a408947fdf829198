package seating

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumbering(t *testing.T) {
	full := DefaultGrid(2, 3)

	tests := []struct {
		name      string
		grid      Grid
		mode      NumberingMode
		direction NumberingDirection
		want      map[Seat]int
	}{
		{
			name: "row-column skips the podium",
			grid: func() Grid {
				g, _ := NewGrid(2, 2, [][]CellType{{S, S}, {S, P}})
				return g
			}(),
			mode: ModeRowColumn, direction: DirectionTop,
			want: map[Seat]int{{1, 1}: 1, {1, 2}: 2, {2, 1}: 3},
		},
		{
			name: "s-shape from the top",
			grid: full, mode: ModeSShape, direction: DirectionTop,
			want: map[Seat]int{{1, 1}: 1, {1, 2}: 2, {1, 3}: 3, {2, 3}: 4, {2, 2}: 5, {2, 1}: 6},
		},
		{
			name: "z-shape from the bottom",
			grid: full, mode: ModeZShape, direction: DirectionBottom,
			want: map[Seat]int{{2, 1}: 1, {2, 2}: 2, {2, 3}: 3, {1, 1}: 4, {1, 2}: 5, {1, 3}: 6},
		},
		{
			name: "podium-s from the bottom",
			grid: full, mode: ModePodiumS, direction: DirectionBottom,
			want: map[Seat]int{{2, 3}: 1, {2, 2}: 2, {2, 1}: 3, {1, 1}: 4, {1, 2}: 5, {1, 3}: 6},
		},
		{
			name: "aisles are not numbered",
			grid: func() Grid {
				g, _ := NewGrid(2, 3, [][]CellType{{S, A, S}, {S, A, S}})
				return g
			}(),
			mode: ModeSShape, direction: DirectionTop,
			want: map[Seat]int{{1, 1}: 1, {1, 3}: 2, {2, 3}: 3, {2, 1}: 4},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Numbering(tt.grid, tt.mode, tt.direction))
		})
	}
}

func TestNumbering_bijection(t *testing.T) {
	grid, err := NewGrid(4, 5, [][]CellType{
		{S, S, A, S, S},
		{S, E, A, S, S},
		{S, S, A, S, E},
		{S, S, A, S, P},
	})
	require.NoError(t, err)
	seats := grid.SeatCount()

	for _, mode := range NumberingModes {
		for _, dir := range NumberingDirections {
			t.Run(string(mode)+"/"+string(dir), func(t *testing.T) {
				numbers := Numbering(grid, mode, dir)
				require.Len(t, numbers, seats)

				seen := make(map[int]bool, seats)
				for seat, n := range numbers {
					assert.True(t, grid.IsSeat(seat.Row, seat.Column), "%s is numbered but not a seat", seat)
					assert.True(t, n >= 1 && n <= seats, "number %d out of range", n)
					assert.False(t, seen[n], "number %d used twice", n)
					seen[n] = true
				}
			})
		}
	}
}

func TestNumberOf(t *testing.T) {
	grid, err := NewGrid(2, 2, [][]CellType{{S, S}, {S, P}})
	require.NoError(t, err)

	assert.Equal(t, 3, NumberOf(2, 1, grid, ModeRowColumn, DirectionTop))
	assert.Equal(t, 1, NumberOf(2, 1, grid, ModeRowColumn, DirectionBottom))
	assert.Equal(t, 0, NumberOf(2, 2, grid, ModeRowColumn, DirectionTop))
	assert.Equal(t, 0, NumberOf(5, 5, grid, ModeRowColumn, DirectionTop))
}

func TestParseNumbering(t *testing.T) {
	mode, err := ParseNumberingMode(" S-Shape ")
	require.NoError(t, err)
	assert.Equal(t, ModeSShape, mode)

	_, err = ParseNumberingMode("spiral")
	assert.Equal(t, []string{"numbering_mode"}, fieldsOf(t, err))

	dir, err := ParseNumberingDirection("BOTTOM")
	require.NoError(t, err)
	assert.Equal(t, DirectionBottom, dir)

	_, err = ParseNumberingDirection("left")
	assert.Equal(t, []string{"numbering_direction"}, fieldsOf(t, err))
}
