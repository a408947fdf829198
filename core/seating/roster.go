package seating

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/seating/core"
)

// minNameRatio is the least similarity for a fuzzy name match.
const minNameRatio = .6

func (svc *Service) Roster(ctx context.Context, classID string, ordering ...core.DBOrdering) ([]Student, error) {
	if _, _, err := svc.loadClassroom(ctx, svc.repo, classID); err != nil {
		return nil, err
	}
	return svc.repo.LoadRoster(ctx, classID, core.FilterOrderings(ordering, RosterOrderings...)...)
}

// AddStudents adds active students to the classroom roster, all or nothing.
func (svc *Service) AddStudents(ctx context.Context, classID string, nss []NewStudent) ([]Student, error) {
	if err := checkClassID(classID); err != nil {
		return nil, err
	}
	var fields []core.FieldError
	for i := range nss {
		nss[i].ID = core.CleanString(nss[i].ID)
		nss[i].Name = core.CleanString(nss[i].Name)
		nss[i].Gender = core.CleanString(nss[i].Gender, true /* lower */)
		if err := svc.validateStruct(nss[i]); err != nil {
			var vErr *core.ValidationError
			if !errors.As(err, &vErr) {
				return nil, err
			}
			for _, fe := range vErr.Fields {
				fields = append(fields, core.FieldError{Field: fmt.Sprintf("students[%d].%s", i, fe.Field), Error: fe.Error})
			}
		}
	}
	if len(fields) > 0 {
		return nil, core.NewValidationError(nil, fields...)
	}

	now := svc.now()
	students := make([]Student, 0, len(nss))
	for _, ns := range nss {
		id := ns.ID
		if id == "" {
			id = uuid.NewString()
		}
		students = append(students, Student{
			ID:        id,
			ClassID:   classID,
			Name:      ns.Name,
			Gender:    ns.Gender,
			IsActive:  true,
			CreatedAt: now,
		})
	}

	err := svc.mutate(ctx, classID, func(repo Repository) error {
		if _, _, err := svc.loadClassroom(ctx, repo, classID); err != nil {
			return err
		}
		return repo.AddStudents(ctx, students...)
	})
	if errors.Is(err, ErrStudentExists) {
		return nil, core.NewValidationError(err, core.FieldError{Field: "id", Error: err.Error()})
	}
	if err != nil {
		return nil, err
	}
	return students, nil
}

// FindStudent looks an active student up by id, then by name. Names match case-insensitively,
// or fuzzily as a last resort.
func (svc *Service) FindStudent(ctx context.Context, classID, query string) (Student, error) {
	roster, err := svc.Roster(ctx, classID)
	if err != nil {
		return Student{}, err
	}
	if st, ok := MatchStudent(roster, query); ok {
		return st, nil
	}
	return Student{}, errors.Wrapf(ErrStudentNotFound, "%q", query)
}

// MatchStudent picks the student of the roster best matching the query.
func MatchStudent(roster []Student, query string) (Student, bool) {
	query = core.CleanString(query)
	if query == "" {
		return Student{}, false
	}
	for _, st := range roster {
		if st.ID == query {
			return st, true
		}
	}
	lquery := strings.ToLower(query)
	for _, st := range roster {
		if strings.ToLower(st.Name) == lquery {
			return st, true
		}
	}

	var (
		best      Student
		bestRatio float64
	)
	for _, st := range roster {
		ratio := difflib.NewMatcher(strings.Split(lquery, ""), strings.Split(strings.ToLower(st.Name), "")).Ratio()
		if ratio > bestRatio {
			best, bestRatio = st, ratio
		}
	}
	return best, bestRatio >= minNameRatio
}
