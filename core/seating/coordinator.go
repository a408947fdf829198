package seating

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/seating/core"
)

// occupants maps the occupied seats of a classroom to their student.
func occupants(assignments []Assignment) map[Seat]string {
	occ := make(map[Seat]string, len(assignments))
	for _, a := range assignments {
		if a.Occupied() {
			occ[a.Seat()] = a.StudentID
		}
	}
	return occ
}

// AssignStudent seats the student at (row, col), vacating the seat they held before.
// It fails with ErrSeatConflict if the seat is held by another student.
func (svc *Service) AssignStudent(ctx context.Context, classID, studentID string, row, col int) (Assignment, error) {
	studentID = core.CleanString(studentID)
	if studentID == "" {
		return Assignment{}, core.NewValidationError(nil, core.FieldError{Field: "student_id", Error: "this field is required"})
	}
	target := Seat{Row: row, Column: col}
	assignment := Assignment{ClassID: classID, Row: row, Column: col, StudentID: studentID}

	err := svc.mutate(ctx, classID, func(repo Repository) error {
		_, grid, err := svc.loadClassroom(ctx, repo, classID)
		if err != nil {
			return err
		}
		if _, err := grid.SeatAt(row, col); err != nil {
			return err
		}

		roster, err := repo.LoadRoster(ctx, classID)
		if err != nil {
			return err
		}
		if !containsStudent(roster, studentID) {
			return errors.Wrapf(ErrStudentNotFound, "%q", studentID)
		}

		assignments, err := repo.LoadAssignments(ctx, classID)
		if err != nil {
			return err
		}
		occ := occupants(assignments)
		switch holder := occ[target]; holder {
		case studentID:
			return nil // already there
		case "":
		default:
			return errors.Wrapf(ErrSeatConflict, "%s", target)
		}

		for seat, sid := range occ {
			if sid == studentID {
				if err := repo.WriteAssignment(ctx, classID, seat.Row, seat.Column, ""); err != nil {
					return err
				}
			}
		}
		return repo.WriteAssignment(ctx, classID, row, col, studentID)
	})
	if err != nil {
		return Assignment{}, err
	}
	return assignment, nil
}

// RemoveStudent vacates the seat at (row, col). Vacating an empty seat is a no-op.
func (svc *Service) RemoveStudent(ctx context.Context, classID string, row, col int) error {
	return svc.mutate(ctx, classID, func(repo Repository) error {
		_, grid, err := svc.loadClassroom(ctx, repo, classID)
		if err != nil {
			return err
		}
		if _, err := grid.SeatAt(row, col); err != nil {
			return err
		}
		assignments, err := repo.LoadAssignments(ctx, classID)
		if err != nil {
			return err
		}
		if occupants(assignments)[Seat{Row: row, Column: col}] == "" {
			return nil
		}
		return repo.WriteAssignment(ctx, classID, row, col, "")
	})
}

// SwapStudents exchanges the occupants of two seats, either of which may be empty.
func (svc *Service) SwapStudents(ctx context.Context, classID string, a, b Seat) error {
	if a == b {
		_, grid, err := svc.loadClassroom(ctx, svc.repo, classID)
		if err != nil {
			return err
		}
		_, err = grid.SeatAt(a.Row, a.Column)
		return err
	}
	return svc.SwapMultiple(ctx, classID, []SwapPair{{SeatA: a, SeatB: b}})
}

// SwapMultiple exchanges the occupants of every pair, all or nothing.
// Every participating seat is vacated before any occupant is written back, so that the
// store's uniqueness constraints never see two rows holding the same student or seat.
// A batch referencing a seat more than once is rejected.
func (svc *Service) SwapMultiple(ctx context.Context, classID string, pairs []SwapPair) error {
	if err := checkClassID(classID); err != nil {
		return err
	}
	if len(pairs) == 0 {
		return nil
	}
	if err := checkOverlap(pairs); err != nil {
		return err
	}

	return svc.mutate(ctx, classID, func(repo Repository) error {
		_, grid, err := svc.loadClassroom(ctx, repo, classID)
		if err != nil {
			return err
		}
		for _, p := range pairs {
			if _, err := grid.SeatAt(p.SeatA.Row, p.SeatA.Column); err != nil {
				return err
			}
			if _, err := grid.SeatAt(p.SeatB.Row, p.SeatB.Column); err != nil {
				return err
			}
		}

		assignments, err := repo.LoadAssignments(ctx, classID)
		if err != nil {
			return err
		}
		occ := occupants(assignments)

		// phase 1: vacate
		for _, p := range pairs {
			for _, seat := range []Seat{p.SeatA, p.SeatB} {
				if occ[seat] == "" {
					continue
				}
				if err := repo.WriteAssignment(ctx, classID, seat.Row, seat.Column, ""); err != nil {
					return err
				}
			}
		}
		// phase 2: reassign
		for _, p := range pairs {
			if sid := occ[p.SeatB]; sid != "" {
				if err := repo.WriteAssignment(ctx, classID, p.SeatA.Row, p.SeatA.Column, sid); err != nil {
					return err
				}
			}
			if sid := occ[p.SeatA]; sid != "" {
				if err := repo.WriteAssignment(ctx, classID, p.SeatB.Row, p.SeatB.Column, sid); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func checkOverlap(pairs []SwapPair) error {
	seen := make(map[Seat]bool, 2*len(pairs))
	var fields []core.FieldError
	for i, p := range pairs {
		for _, seat := range []Seat{p.SeatA, p.SeatB} {
			if seen[seat] {
				fields = append(fields, core.FieldError{
					Field: fmt.Sprintf("pairs[%d]", i),
					Error: fmt.Sprintf("seat %s is referenced more than once", seat),
				})
			}
			seen[seat] = true
		}
	}
	if len(fields) > 0 {
		return core.NewValidationError(ErrOverlappingSwap, fields...)
	}
	return nil
}

func containsStudent(students []Student, id string) bool {
	for _, st := range students {
		if st.ID == id {
			return true
		}
	}
	return false
}
