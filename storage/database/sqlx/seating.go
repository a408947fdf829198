package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/trezcool/seating/core"
	"github.com/trezcool/seating/core/seating"
)

type (
	seatingRepository struct {
		db   core.DB         // nil within a transaction
		exec core.DBExecutor // db, or the current transaction
	}

	classroomRow struct {
		ID                 string         `db:"id"`
		Name               string         `db:"name"`
		Rows               int            `db:"rows_count"`
		Columns            int            `db:"cols_count"`
		Cells              sql.NullString `db:"cells"`
		NumberingMode      string         `db:"numbering_mode"`
		NumberingDirection string         `db:"numbering_direction"`
		CreatedAt          time.Time      `db:"created_at"`
		UpdatedAt          time.Time      `db:"updated_at"`
	}

	studentRow struct {
		ID        string    `db:"id"`
		ClassID   string    `db:"class_id"`
		Name      string    `db:"name"`
		Gender    string    `db:"gender"`
		IsActive  bool      `db:"is_active"`
		CreatedAt time.Time `db:"created_at"`
	}

	assignmentRow struct {
		ClassID   string         `db:"class_id"`
		Row       int            `db:"row_no"`
		Column    int            `db:"col_no"`
		StudentID sql.NullString `db:"student_id"`
	}
)

var _ seating.Repository = (*seatingRepository)(nil)

const classroomColumns = "id, name, rows_count, cols_count, cells, numbering_mode, numbering_direction, created_at, updated_at"

func NewSeatingRepository(db core.DB) seating.Repository {
	return &seatingRepository{db: db, exec: db}
}

// toClassroom parses a raw row. Malformed cells are reported with a *seating.ConfigError,
// the classroom is returned anyway.
func (row classroomRow) toClassroom() (seating.Classroom, error) {
	cls := seating.Classroom{
		ID:   row.ID,
		Name: row.Name,
		Layout: seating.Layout{
			ClassID:            row.ID,
			Rows:               row.Rows,
			Columns:            row.Columns,
			NumberingMode:      seating.NumberingMode(row.NumberingMode),
			NumberingDirection: seating.NumberingDirection(row.NumberingDirection),
		},
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
	if !row.Cells.Valid {
		return cls, nil
	}
	cells, err := seating.ParseCells([]byte(row.Cells.String))
	if err != nil {
		return cls, &seating.ConfigError{ClassID: row.ID, Err: err}
	}
	cls.Layout.Cells = cells
	return cls, nil
}

func (row studentRow) toStudent() seating.Student {
	return seating.Student{
		ID:        row.ID,
		ClassID:   row.ClassID,
		Name:      row.Name,
		Gender:    row.Gender,
		IsActive:  row.IsActive,
		CreatedAt: row.CreatedAt.UTC(),
	}
}

func (row assignmentRow) toAssignment() seating.Assignment {
	return seating.Assignment{
		ClassID:   row.ClassID,
		Row:       row.Row,
		Column:    row.Column,
		StudentID: row.StudentID.String,
	}
}

func formatCells(cells [][]seating.CellType) (sql.NullString, error) {
	if cells == nil {
		return sql.NullString{}, nil
	}
	raw, err := seating.FormatCells(cells)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// isUniqueViolation reports postgres and sqlite unique & primary key violations.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505" // unique_violation
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func (repo *seatingRepository) q(query string) string {
	return repo.exec.Rebind(query)
}

func (repo *seatingRepository) WithTx(ctx context.Context, fn func(repo seating.Repository) error) (err error) {
	if repo.db == nil {
		return fn(repo)
	}

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return seating.NewPersistenceError("begin transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(&seatingRepository{exec: tx}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return seating.NewPersistenceError("commit transaction", err)
	}
	return nil
}

func (repo *seatingRepository) ListClassrooms(ctx context.Context) ([]seating.Classroom, error) {
	var rows []classroomRow
	q := "SELECT " + classroomColumns + " FROM classroom ORDER BY name, id"
	if err := repo.exec.SelectContext(ctx, &rows, q); err != nil {
		return nil, seating.NewPersistenceError("list classrooms", err)
	}
	classrooms := make([]seating.Classroom, 0, len(rows))
	for _, row := range rows {
		cls, _ := row.toClassroom() // malformed cells are reported by GetClassroom
		classrooms = append(classrooms, cls)
	}
	return classrooms, nil
}

func (repo *seatingRepository) GetClassroom(ctx context.Context, id string) (seating.Classroom, error) {
	var row classroomRow
	q := repo.q("SELECT " + classroomColumns + " FROM classroom WHERE id = ?")
	if err := repo.exec.GetContext(ctx, &row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return seating.Classroom{}, seating.ErrClassroomNotFound
		}
		return seating.Classroom{}, seating.NewPersistenceError("get classroom", err)
	}
	return row.toClassroom()
}

func (repo *seatingRepository) CreateClassroom(ctx context.Context, cls seating.Classroom) (seating.Classroom, error) {
	cells, err := formatCells(cls.Layout.Cells)
	if err != nil {
		return seating.Classroom{}, seating.NewPersistenceError("create classroom", err)
	}
	q := repo.q("INSERT INTO classroom (" + classroomColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)")
	_, err = repo.exec.ExecContext(ctx, q,
		cls.ID, cls.Name, cls.Layout.Rows, cls.Layout.Columns, cells,
		string(cls.Layout.NumberingMode), string(cls.Layout.NumberingDirection),
		cls.CreatedAt, cls.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return seating.Classroom{}, seating.ErrClassroomExists
		}
		return seating.Classroom{}, seating.NewPersistenceError("create classroom", err)
	}
	cls.Layout.ClassID = cls.ID
	return cls, nil
}

func (repo *seatingRepository) SaveLayout(ctx context.Context, layout seating.Layout) error {
	cells, err := formatCells(layout.Cells)
	if err != nil {
		return seating.NewPersistenceError("save layout", err)
	}
	q := repo.q(`UPDATE classroom
		SET rows_count = ?, cols_count = ?, cells = ?, numbering_mode = ?, numbering_direction = ?, updated_at = ?
		WHERE id = ?`)
	res, err := repo.exec.ExecContext(ctx, q,
		layout.Rows, layout.Columns, cells,
		string(layout.NumberingMode), string(layout.NumberingDirection),
		time.Now().UTC(), layout.ClassID,
	)
	if err != nil {
		return seating.NewPersistenceError("save layout", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return seating.ErrClassroomNotFound
	}
	return nil
}

func (repo *seatingRepository) LoadRoster(ctx context.Context, classID string, ordering ...core.DBOrdering) ([]seating.Student, error) {
	orderBy := "name ASC, id ASC"
	if ords := core.FilterOrderings(ordering, seating.RosterOrderings...); len(ords) > 0 {
		clauses := make([]string, 0, len(ords))
		for _, ord := range ords {
			clauses = append(clauses, ord.String())
		}
		orderBy = strings.Join(clauses, ", ")
	}

	var rows []studentRow
	q := repo.q(`SELECT id, class_id, name, gender, is_active, created_at FROM student
		WHERE class_id = ? AND is_active = ? ORDER BY ` + orderBy)
	if err := repo.exec.SelectContext(ctx, &rows, q, classID, true); err != nil {
		return nil, seating.NewPersistenceError("load roster", err)
	}
	students := make([]seating.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.toStudent())
	}
	return students, nil
}

func (repo *seatingRepository) AddStudents(ctx context.Context, students ...seating.Student) error {
	q := repo.q("INSERT INTO student (id, class_id, name, gender, is_active, created_at) VALUES (?, ?, ?, ?, ?, ?)")
	return repo.WithTx(ctx, func(r seating.Repository) error {
		exec := r.(*seatingRepository).exec
		for _, st := range students {
			if _, err := exec.ExecContext(ctx, q, st.ID, st.ClassID, st.Name, st.Gender, st.IsActive, st.CreatedAt); err != nil {
				if isUniqueViolation(err) {
					return errors.Wrapf(seating.ErrStudentExists, "%q", st.ID)
				}
				return seating.NewPersistenceError("add students", err)
			}
		}
		return nil
	})
}

func (repo *seatingRepository) LoadAssignments(ctx context.Context, classID string) ([]seating.Assignment, error) {
	var rows []assignmentRow
	q := repo.q("SELECT class_id, row_no, col_no, student_id FROM seat_assignment WHERE class_id = ? ORDER BY row_no, col_no")
	if err := repo.exec.SelectContext(ctx, &rows, q, classID); err != nil {
		return nil, seating.NewPersistenceError("load assignments", err)
	}
	assignments := make([]seating.Assignment, 0, len(rows))
	for _, row := range rows {
		assignments = append(assignments, row.toAssignment())
	}
	return assignments, nil
}

func (repo *seatingRepository) WriteAssignment(ctx context.Context, classID string, row, col int, studentID string) error {
	q := repo.q(`INSERT INTO seat_assignment (class_id, row_no, col_no, student_id, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (class_id, row_no, col_no) DO UPDATE SET student_id = excluded.student_id, updated_at = excluded.updated_at`)
	_, err := repo.exec.ExecContext(ctx, q, classID, row, col, nullString(studentID), time.Now().UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Wrapf(seating.ErrSeatConflict, "student %q at (%d,%d)", studentID, row, col)
		}
		return seating.NewPersistenceError("write assignment", err)
	}
	return nil
}

func (repo *seatingRepository) DeleteAssignments(ctx context.Context, classID string, seats ...seating.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	q := repo.q("DELETE FROM seat_assignment WHERE class_id = ? AND row_no = ? AND col_no = ?")
	return repo.WithTx(ctx, func(r seating.Repository) error {
		exec := r.(*seatingRepository).exec
		for _, seat := range seats {
			if _, err := exec.ExecContext(ctx, q, classID, seat.Row, seat.Column); err != nil {
				return seating.NewPersistenceError("delete assignments", err)
			}
		}
		return nil
	})
}
