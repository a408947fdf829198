package seating

import (
	"fmt"
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func students(n int) []Student {
	sts := make([]Student, n)
	for i := range sts {
		sts[i] = Student{ID: fmt.Sprintf("s%02d", i+1), IsActive: true}
	}
	return sts
}

func placements(mapping []Placement) map[string]Seat {
	m := make(map[string]Seat, len(mapping))
	for _, p := range mapping {
		m[p.StudentID] = p.Seat()
	}
	return m
}

func TestEngine_Assign_coverage(t *testing.T) {
	grid, err := NewGrid(4, 5, [][]CellType{
		{S, S, A, S, S},
		{S, S, A, S, S},
		{S, E, A, S, S},
		{S, S, A, S, P},
	})
	require.NoError(t, err)
	seats := slices.Collect(grid.SeatCells())
	engine := NewEngine(WithRand(rand.New(rand.NewSource(42))))

	for _, strategy := range Strategies {
		for _, n := range []int{0, 1, 7, len(seats), len(seats) + 3} {
			t.Run(fmt.Sprintf("%s/%d students", strategy, n), func(t *testing.T) {
				result, err := engine.Assign(strategy, grid, students(n), seats)
				require.NoError(t, err)

				want := min(n, len(seats))
				assert.Equal(t, want, result.AssignedCount)
				require.NotNil(t, result.Mapping)
				require.Len(t, result.Mapping, want)

				usedSeats := make(map[Seat]bool, want)
				usedStudents := make(map[string]bool, want)
				for _, p := range result.Mapping {
					assert.True(t, grid.IsSeat(p.Row, p.Column), "%s is not a seat", p.Seat())
					assert.False(t, usedSeats[p.Seat()], "seat %s used twice", p.Seat())
					assert.False(t, usedStudents[p.StudentID], "student %s placed twice", p.StudentID)
					usedSeats[p.Seat()] = true
					usedStudents[p.StudentID] = true
				}
			})
		}
	}
}

func TestEngine_Assign_unknownStrategy(t *testing.T) {
	_, err := NewEngine().Assign("lol", DefaultGrid(1, 1), students(1), slices.Collect(DefaultGrid(1, 1).SeatCells()))
	assert.Equal(t, []string{"strategy"}, fieldsOf(t, err))
}

func TestEngine_Assign_podiumPriority(t *testing.T) {
	grid := DefaultGrid(6, 8)
	seats := slices.Collect(grid.SeatCells())

	result, err := NewEngine().Assign(StrategyPodiumPriority, grid, students(1), seats)
	require.NoError(t, err)
	assert.Equal(t, []Placement{{StudentID: "s01", Row: 6, Column: 8}}, result.Mapping)

	// the next best seats are the corner's neighbours
	result, err = NewEngine().Assign(StrategySequential, grid, students(3), seats)
	require.NoError(t, err)
	got := placements(result.Mapping)
	assert.Equal(t, Seat{Row: 6, Column: 8}, got["s01"])
	assert.ElementsMatch(t, []Seat{{Row: 5, Column: 8}, {Row: 6, Column: 7}}, []Seat{got["s02"], got["s03"]})
}

func TestEngine_Assign_fixedPreserve(t *testing.T) {
	grid := DefaultGrid(2, 2)
	// (2,2) is held by a fixed student
	seats := []SeatCell{
		{Row: 1, Column: 1, Type: CellSeat},
		{Row: 1, Column: 2, Type: CellSeat},
		{Row: 2, Column: 1, Type: CellSeat},
	}

	result, err := NewEngine().Assign(StrategyFixedPreserve, grid, students(3), seats)
	require.NoError(t, err)
	got := placements(result.Mapping)
	assert.Len(t, got, 3)
	for _, seat := range got {
		assert.NotEqual(t, Seat{Row: 2, Column: 2}, seat)
	}
	assert.Equal(t, Seat{Row: 1, Column: 1}, got["s03"])
}

func TestEngine_Assign_balanced(t *testing.T) {
	tests := []struct {
		name     string
		strategy Strategy
		grid     Grid
		students int
		want     map[string]Seat
	}{
		{
			name:     "one per row, nearest row first",
			strategy: StrategyBalancedRow,
			grid:     DefaultGrid(2, 2),
			students: 2,
			want:     map[string]Seat{"s01": {Row: 2, Column: 2}, "s02": {Row: 1, Column: 2}},
		},
		{
			name:     "one per column",
			strategy: StrategyBalancedColumn,
			grid:     DefaultGrid(2, 3),
			students: 3,
			want:     map[string]Seat{"s01": {Row: 2, Column: 3}, "s02": {Row: 2, Column: 2}, "s03": {Row: 2, Column: 1}},
		},
		{
			name:     "leftovers fill the remaining seats",
			strategy: StrategyBalancedRow,
			grid: func() Grid {
				g, _ := NewGrid(2, 3, [][]CellType{{S, A, A}, {S, S, S}})
				return g
			}(),
			students: 4,
			want: map[string]Seat{
				"s01": {Row: 2, Column: 3},
				"s02": {Row: 2, Column: 2},
				"s03": {Row: 1, Column: 1},
				"s04": {Row: 2, Column: 1},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := NewEngine().Assign(tt.strategy, tt.grid, students(tt.students), slices.Collect(tt.grid.SeatCells()))
			require.NoError(t, err)
			assert.Equal(t, tt.want, placements(result.Mapping))
		})
	}
}

func TestEngine_Assign_random(t *testing.T) {
	grid := DefaultGrid(3, 3)
	seats := slices.Collect(grid.SeatCells())

	run := func(seed int64) []Placement {
		result, err := NewEngine(WithRand(rand.New(rand.NewSource(seed)))).Assign(StrategyRandom, grid, students(9), seats)
		require.NoError(t, err)
		return result.Mapping
	}

	first := run(7)
	assert.Equal(t, first, run(7), "same seed, same mapping")
	assert.Len(t, placements(first), 9)

	// inputs are left untouched
	assert.Equal(t, slices.Collect(grid.SeatCells()), seats)
}

func TestParseStrategy(t *testing.T) {
	for _, s := range Strategies {
		got, err := ParseStrategy(" " + string(s) + " ")
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	_, err := ParseStrategy("alphabetical")
	assert.Equal(t, []string{"strategy"}, fieldsOf(t, err))
}
