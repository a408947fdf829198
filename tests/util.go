package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap/zaptest"

	"github.com/trezcool/seating/core"
	"github.com/trezcool/seating/core/seating"
	logsvc "github.com/trezcool/seating/services/logger"
	"github.com/trezcool/seating/storage/database"
)

// OpenDB returns a migrated, private in-memory sqlite database, closed at the end of the test.
func OpenDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err = database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("OpenDB() failed to migrate: %v", err)
	}
	return db
}

func NewLogger(t *testing.T) core.Logger {
	return logsvc.NewLogger(zaptest.NewLogger(t).Sugar())
}

// CreateClassroom persists a classroom. nil cells means a fully seated grid.
func CreateClassroom(t *testing.T, repo seating.Repository, id string, rows, cols int, cells [][]seating.CellType) seating.Classroom {
	t.Helper()
	if cells == nil {
		cells = seating.DefaultGrid(rows, cols).Cells()
	}
	now := time.Now().UTC().Truncate(time.Second)
	cls, err := repo.CreateClassroom(context.Background(), seating.Classroom{
		ID:   id,
		Name: "Class " + id,
		Layout: seating.Layout{
			ClassID:            id,
			Rows:               rows,
			Columns:            cols,
			Cells:              cells,
			NumberingMode:      seating.ModeRowColumn,
			NumberingDirection: seating.DirectionTop,
		},
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateClassroom() failed: %v", err)
	}
	return cls
}

// CreateStudents adds active students to the classroom, named after their ids.
func CreateStudents(t *testing.T, repo seating.Repository, classID string, ids ...string) []seating.Student {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	students := make([]seating.Student, 0, len(ids))
	for _, id := range ids {
		students = append(students, seating.Student{
			ID:        id,
			ClassID:   classID,
			Name:      id,
			IsActive:  true,
			CreatedAt: now,
		})
	}
	if err := repo.AddStudents(context.Background(), students...); err != nil {
		t.Fatalf("CreateStudents() failed: %v", err)
	}
	return students
}

func SeatStudent(t *testing.T, repo seating.Repository, classID, studentID string, row, col int) {
	t.Helper()
	if err := repo.WriteAssignment(context.Background(), classID, row, col, studentID); err != nil {
		t.Fatalf("SeatStudent() failed: %v", err)
	}
}

// Occupants returns the occupied seats of the classroom.
func Occupants(t *testing.T, repo seating.Repository, classID string) map[seating.Seat]string {
	t.Helper()
	assignments, err := repo.LoadAssignments(context.Background(), classID)
	if err != nil {
		t.Fatalf("Occupants() failed: %v", err)
	}
	occ := make(map[seating.Seat]string)
	for _, a := range assignments {
		if a.Occupied() {
			occ[a.Seat()] = a.StudentID
		}
	}
	return occ
}

// CheckInvariants fails the test if a student holds two seats, or a student sits outside a seat cell.
func CheckInvariants(t *testing.T, repo seating.Repository, classID string) {
	t.Helper()
	ctx := context.Background()
	cls, err := repo.GetClassroom(ctx, classID)
	if err != nil {
		t.Fatalf("CheckInvariants() failed: %v", err)
	}
	grid, err := seating.GridFromLayout(cls.Layout)
	if err != nil {
		t.Fatalf("CheckInvariants() failed: %v", err)
	}

	seen := make(map[string]seating.Seat)
	for seat, sid := range Occupants(t, repo, classID) {
		if prev, ok := seen[sid]; ok {
			t.Errorf("student %q seated twice: %s and %s", sid, prev, seat)
		}
		seen[sid] = seat
		if !grid.IsSeat(seat.Row, seat.Column) {
			t.Errorf("student %q seated on %s which is not a seat", sid, seat)
		}
	}
}
