package inmemdb

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/seating/core"
	"github.com/trezcool/seating/core/seating"
)

type seatingRepository struct {
	db *DB
	tx *tables // set within WithTx, the db lock is then held
}

var _ seating.Repository = (*seatingRepository)(nil)

func NewSeatingRepository(db *DB) seating.Repository {
	return &seatingRepository{db: db}
}

func (repo *seatingRepository) read(fn func(t *tables) error) error {
	if repo.tx != nil {
		return fn(repo.tx)
	}
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return fn(repo.db.state)
}

// write applies fn to a copy of the tables, kept only if fn succeeds.
func (repo *seatingRepository) write(fn func(t *tables) error) error {
	if repo.tx != nil {
		return fn(repo.tx)
	}
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	t := repo.db.state.clone()
	if err := fn(t); err != nil {
		return err
	}
	repo.db.state = t
	return nil
}

func (repo *seatingRepository) WithTx(ctx context.Context, fn func(repo seating.Repository) error) error {
	if repo.tx != nil {
		return fn(repo)
	}
	return repo.write(func(t *tables) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fn(&seatingRepository{db: repo.db, tx: t})
	})
}

func toClassroom(row classroomRow) (seating.Classroom, error) {
	cls := row.cls
	cells, err := seating.ParseCells(row.cells)
	if err != nil {
		return cls, &seating.ConfigError{ClassID: cls.ID, Err: err}
	}
	cls.Layout.Cells = cells
	return cls, nil
}

func (repo *seatingRepository) ListClassrooms(_ context.Context) ([]seating.Classroom, error) {
	var classrooms []seating.Classroom
	err := repo.read(func(t *tables) error {
		classrooms = make([]seating.Classroom, 0, len(t.classroom))
		for _, row := range t.classroom {
			cls, _ := toClassroom(row) // malformed cells are reported by GetClassroom
			classrooms = append(classrooms, cls)
		}
		return nil
	})
	slices.SortFunc(classrooms, func(a, b seating.Classroom) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return classrooms, err
}

func (repo *seatingRepository) GetClassroom(_ context.Context, id string) (seating.Classroom, error) {
	var cls seating.Classroom
	err := repo.read(func(t *tables) error {
		row, ok := t.classroom[id]
		if !ok {
			return seating.ErrClassroomNotFound
		}
		var err error
		cls, err = toClassroom(row)
		return err
	})
	return cls, err
}

func (repo *seatingRepository) CreateClassroom(_ context.Context, cls seating.Classroom) (seating.Classroom, error) {
	cells, err := seating.FormatCells(cls.Layout.Cells)
	if err != nil {
		return seating.Classroom{}, seating.NewPersistenceError("create classroom", err)
	}
	err = repo.write(func(t *tables) error {
		if _, ok := t.classroom[cls.ID]; ok {
			return seating.ErrClassroomExists
		}
		row := classroomRow{cls: cls, cells: cells}
		row.cls.Layout.Cells = nil
		t.classroom[cls.ID] = row
		return nil
	})
	if err != nil {
		return seating.Classroom{}, err
	}
	return cls, nil
}

func (repo *seatingRepository) SaveLayout(_ context.Context, layout seating.Layout) error {
	cells, err := seating.FormatCells(layout.Cells)
	if err != nil {
		return seating.NewPersistenceError("save layout", err)
	}
	return repo.write(func(t *tables) error {
		row, ok := t.classroom[layout.ClassID]
		if !ok {
			return seating.ErrClassroomNotFound
		}
		row.cls.Layout = layout
		row.cls.Layout.Cells = nil
		row.cells = cells
		t.classroom[layout.ClassID] = row
		return nil
	})
}

func (repo *seatingRepository) LoadRoster(_ context.Context, classID string, ordering ...core.DBOrdering) ([]seating.Student, error) {
	var students []seating.Student
	err := repo.read(func(t *tables) error {
		students = make([]seating.Student, 0)
		for _, st := range t.student {
			if st.ClassID == classID && st.IsActive {
				students = append(students, st)
			}
		}
		return nil
	})
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "name", Ascending: true}, {Field: "id", Ascending: true}}
	}
	slices.SortFunc(students, func(a, b seating.Student) int {
		for _, ord := range ordering {
			var c int
			switch ord.Field {
			case "name":
				c = strings.Compare(a.Name, b.Name)
			case "id":
				c = strings.Compare(a.ID, b.ID)
			case "created_at":
				c = a.CreatedAt.Compare(b.CreatedAt)
			}
			if !ord.Ascending {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})
	return students, err
}

func (repo *seatingRepository) AddStudents(_ context.Context, students ...seating.Student) error {
	return repo.write(func(t *tables) error {
		for _, st := range students {
			if _, ok := t.classroom[st.ClassID]; !ok {
				return seating.ErrClassroomNotFound
			}
			if _, ok := t.student[st.ID]; ok {
				return errors.Wrapf(seating.ErrStudentExists, "%q", st.ID)
			}
			t.student[st.ID] = st
		}
		return nil
	})
}

func (repo *seatingRepository) LoadAssignments(_ context.Context, classID string) ([]seating.Assignment, error) {
	var assignments []seating.Assignment
	err := repo.read(func(t *tables) error {
		seats := t.assignment[classID]
		assignments = make([]seating.Assignment, 0, len(seats))
		for seat, sid := range seats {
			assignments = append(assignments, seating.Assignment{
				ClassID:   classID,
				Row:       seat.Row,
				Column:    seat.Column,
				StudentID: sid,
			})
		}
		return nil
	})
	slices.SortFunc(assignments, func(a, b seating.Assignment) int {
		if c := cmp.Compare(a.Row, b.Row); c != 0 {
			return c
		}
		return cmp.Compare(a.Column, b.Column)
	})
	return assignments, err
}

func (repo *seatingRepository) WriteAssignment(_ context.Context, classID string, row, col int, studentID string) error {
	target := seating.Seat{Row: row, Column: col}
	return repo.write(func(t *tables) error {
		if _, ok := t.classroom[classID]; !ok {
			return seating.ErrClassroomNotFound
		}
		seats, ok := t.assignment[classID]
		if !ok {
			seats = make(map[seating.Seat]string)
			t.assignment[classID] = seats
		}
		if studentID != "" {
			// UNIQUE (class_id, student_id)
			for seat, sid := range seats {
				if sid == studentID && seat != target {
					return errors.Wrapf(seating.ErrSeatConflict, "student %q already seated at %s", studentID, seat)
				}
			}
		}
		seats[target] = studentID
		return nil
	})
}

func (repo *seatingRepository) DeleteAssignments(_ context.Context, classID string, seats ...seating.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	return repo.write(func(t *tables) error {
		for _, seat := range seats {
			delete(t.assignment[classID], seat)
		}
		return nil
	})
}
