package seating

import (
	"cmp"
	"fmt"
	"math/rand"
	"slices"
	"sync"

	"github.com/trezcool/seating/core"
)

// Strategy is one of the closed set of allocation algorithms.
type Strategy string

// Strategies
const (
	StrategySequential     Strategy = "sequential"
	StrategyPodiumPriority Strategy = "podium-priority"
	StrategyBalancedRow    Strategy = "balanced-row"
	StrategyBalancedColumn Strategy = "balanced-column"
	StrategyFixedPreserve  Strategy = "fixed-preserve"
	StrategyRandom         Strategy = "random"
)

var Strategies = []Strategy{
	StrategySequential,
	StrategyPodiumPriority,
	StrategyBalancedRow,
	StrategyBalancedColumn,
	StrategyFixedPreserve,
	StrategyRandom,
}

func (s Strategy) Valid() bool {
	return slices.Contains(Strategies, s)
}

func ParseStrategy(s string) (Strategy, error) {
	st := Strategy(core.CleanString(s, true /* lower */))
	if !st.Valid() {
		return "", core.NewValidationError(nil, core.FieldError{
			Field: "strategy",
			Error: fmt.Sprintf("unknown strategy %q", s),
		})
	}
	return st, nil
}

type (
	// Engine computes seat mappings. It never touches storage.
	Engine struct {
		mu  sync.Mutex // guards rng
		rng *rand.Rand
	}

	EngineOption func(*Engine)
)

// WithRand makes the random strategy draw from rng, e.g. a seeded source in tests.
func WithRand(rng *rand.Rand) EngineOption {
	return func(e *Engine) { e.rng = rng }
}

func NewEngine(opts ...EngineOption) *Engine {
	e := new(Engine)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Assign places students into the available seats following the strategy.
// Students and seats beyond the shorter list are left unassigned.
// Callers exclude fixed students and their seats beforehand.
func (e *Engine) Assign(strategy Strategy, grid Grid, students []Student, seats []SeatCell) (AssignResult, error) {
	var mapping []Placement
	switch strategy {
	case StrategySequential:
		mapping = assignSequential(grid, students, seats)
	case StrategyPodiumPriority:
		mapping = assignPodiumPriority(grid, students, seats)
	case StrategyBalancedRow:
		mapping = assignBalancedRow(grid, students, seats)
	case StrategyBalancedColumn:
		mapping = assignBalancedColumn(grid, students, seats)
	case StrategyFixedPreserve:
		mapping = assignFixedPreserve(grid, students, seats)
	case StrategyRandom:
		mapping = e.assignRandom(students, seats)
	default:
		_, err := ParseStrategy(string(strategy))
		return AssignResult{}, err
	}
	if mapping == nil {
		mapping = []Placement{}
	}
	return AssignResult{AssignedCount: len(mapping), Mapping: mapping}, nil
}

func assignSequential(grid Grid, students []Student, seats []SeatCell) []Placement {
	return pair(students, rankByComposite(grid, seats))
}

// assignPodiumPriority ranks like sequential: scoring does not depend on the numbering mode.
func assignPodiumPriority(grid Grid, students []Student, seats []SeatCell) []Placement {
	return pair(students, rankByComposite(grid, seats))
}

// assignFixedPreserve is podium-priority over the non-fixed students and seats.
func assignFixedPreserve(grid Grid, students []Student, seats []SeatCell) []Placement {
	return assignPodiumPriority(grid, students, seats)
}

func assignBalancedRow(grid Grid, students []Student, seats []SeatCell) []Placement {
	return assignBalanced(grid, students, seats, func(c SeatCell) int { return c.Row })
}

func assignBalancedColumn(grid Grid, students []Student, seats []SeatCell) []Placement {
	return assignBalanced(grid, students, seats, func(c SeatCell) int { return c.Column })
}

func (e *Engine) assignRandom(students []Student, seats []SeatCell) []Placement {
	students = slices.Clone(students)
	seats = slices.Clone(seats)

	shuffle := rand.Shuffle
	if e.rng != nil {
		e.mu.Lock()
		defer e.mu.Unlock()
		shuffle = e.rng.Shuffle
	}
	shuffle(len(students), func(i, j int) { students[i], students[j] = students[j], students[i] })
	shuffle(len(seats), func(i, j int) { seats[i], seats[j] = seats[j], seats[i] })
	return pair(students, seats)
}

// rankByComposite sorts seats by CompositeScore, ties broken by row-major order.
func rankByComposite(grid Grid, seats []SeatCell) []SeatCell {
	ranked := rowMajor(seats)
	scores := make(map[Seat]float64, len(ranked))
	for _, s := range ranked {
		scores[s.Seat()] = CompositeScore(s, grid, seats)
	}
	slices.SortStableFunc(ranked, func(a, b SeatCell) int {
		return cmp.Compare(scores[a.Seat()], scores[b.Seat()])
	})
	return ranked
}

type seatGroup struct {
	key      int
	seats    []SeatCell
	meanDist float64
}

// assignBalanced spreads students over seat groups (rows or columns), groups nearest the podium first.
// Each group takes at most ceil(students/groups) students; students left over because some groups were
// too small go to the remaining seats, in the same group order.
func assignBalanced(grid Grid, students []Student, seats []SeatCell, keyOf func(SeatCell) int) []Placement {
	if len(students) == 0 || len(seats) == 0 {
		return nil
	}

	byKey := make(map[int]*seatGroup)
	var groups []*seatGroup
	for _, s := range rowMajor(seats) {
		g, ok := byKey[keyOf(s)]
		if !ok {
			g = &seatGroup{key: keyOf(s)}
			byKey[g.key] = g
			groups = append(groups, g)
		}
		g.seats = append(g.seats, s)
	}
	for _, g := range groups {
		var total int
		for _, s := range g.seats {
			total += PodiumDistance(s, grid)
		}
		g.meanDist = float64(total) / float64(len(g.seats))
		slices.SortStableFunc(g.seats, func(a, b SeatCell) int {
			return cmp.Compare(PodiumDistance(a, grid), PodiumDistance(b, grid))
		})
	}
	slices.SortStableFunc(groups, func(a, b *seatGroup) int {
		if c := cmp.Compare(a.meanDist, b.meanDist); c != 0 {
			return c
		}
		return cmp.Compare(a.key, b.key)
	})

	perGroup := (len(students) + len(groups) - 1) / len(groups)
	ordered := make([]SeatCell, 0, len(seats))
	var leftover []SeatCell
	remaining := len(students)
	for _, g := range groups {
		take := min(perGroup, len(g.seats), remaining)
		ordered = append(ordered, g.seats[:take]...)
		leftover = append(leftover, g.seats[take:]...)
		remaining -= take
	}
	ordered = append(ordered, leftover...)
	return pair(students, ordered)
}

func pair(students []Student, seats []SeatCell) []Placement {
	n := min(len(students), len(seats))
	mapping := make([]Placement, 0, n)
	for i := 0; i < n; i++ {
		mapping = append(mapping, Placement{StudentID: students[i].ID, Row: seats[i].Row, Column: seats[i].Column})
	}
	return mapping
}

func rowMajor(seats []SeatCell) []SeatCell {
	sorted := slices.Clone(seats)
	slices.SortStableFunc(sorted, func(a, b SeatCell) int {
		if c := cmp.Compare(a.Row, b.Row); c != 0 {
			return c
		}
		return cmp.Compare(a.Column, b.Column)
	})
	return sorted
}
