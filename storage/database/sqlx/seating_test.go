package sqlxrepos

import (
	"context"
	"path/filepath"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/seating/core"
	"github.com/trezcool/seating/core/seating"
	"github.com/trezcool/seating/storage/database"
	testutil "github.com/trezcool/seating/tests"
)

var errBoom = errors.New("boom")

func TestSeatingRepository_classrooms(t *testing.T) {
	repo := NewSeatingRepository(testutil.OpenDB(t))
	ctx := context.Background()

	cells := [][]seating.CellType{{seating.CellSeat, seating.CellAisle}, {seating.CellSeat, seating.CellPodium}}
	created := testutil.CreateClassroom(t, repo, "math", 2, 2, cells)
	testutil.CreateClassroom(t, repo, "bio", 1, 3, nil)

	cls, err := repo.GetClassroom(ctx, "math")
	require.NoError(t, err)
	assert.Equal(t, created.Layout, cls.Layout)
	assert.True(t, created.CreatedAt.Equal(cls.CreatedAt))

	_, err = repo.GetClassroom(ctx, "lol")
	assert.ErrorIs(t, err, seating.ErrClassroomNotFound)

	_, err = repo.CreateClassroom(ctx, created)
	assert.ErrorIs(t, err, seating.ErrClassroomExists)

	classrooms, err := repo.ListClassrooms(ctx)
	require.NoError(t, err)
	require.Len(t, classrooms, 2)
	assert.Equal(t, "bio", classrooms[0].ID)

	layout := seating.Layout{ClassID: "math", Rows: 1, Columns: 1, NumberingMode: seating.ModeZShape, NumberingDirection: seating.DirectionBottom}
	require.NoError(t, repo.SaveLayout(ctx, layout))
	cls, err = repo.GetClassroom(ctx, "math")
	require.NoError(t, err)
	assert.Equal(t, layout, cls.Layout, "nil cells round trip")

	assert.ErrorIs(t, repo.SaveLayout(ctx, seating.Layout{ClassID: "lol", Rows: 1, Columns: 1}), seating.ErrClassroomNotFound)
}

func TestSeatingRepository_malformedCells(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := NewSeatingRepository(db)
	testutil.CreateClassroom(t, repo, "math", 2, 2, nil)
	_, err := db.Exec("UPDATE classroom SET cells = ? WHERE id = ?", `[["seat",`, "math")
	require.NoError(t, err)

	cls, err := repo.GetClassroom(context.Background(), "math")
	var cfgErr *seating.ConfigError
	require.True(t, errors.As(err, &cfgErr), "GetClassroom() error = %v", err)
	assert.Equal(t, "math", cfgErr.ClassID)
	assert.Equal(t, 2, cls.Layout.Rows)
	assert.Nil(t, cls.Layout.Cells)
}

func TestSeatingRepository_roster(t *testing.T) {
	repo := NewSeatingRepository(testutil.OpenDB(t))
	ctx := context.Background()
	testutil.CreateClassroom(t, repo, "math", 2, 2, nil)
	testutil.CreateClassroom(t, repo, "bio", 2, 2, nil)
	testutil.CreateStudents(t, repo, "math", "b", "a", "c")
	testutil.CreateStudents(t, repo, "bio", "z")
	require.NoError(t, repo.AddStudents(ctx, seating.Student{ID: "gone", ClassID: "math", Name: "0", CreatedAt: time.Now()}))

	err := repo.AddStudents(ctx,
		seating.Student{ID: "d", ClassID: "math", Name: "d", IsActive: true, CreatedAt: time.Now()},
		seating.Student{ID: "a", ClassID: "math", Name: "a", IsActive: true, CreatedAt: time.Now()},
	)
	assert.ErrorIs(t, err, seating.ErrStudentExists)

	tests := []struct {
		name     string
		ordering []core.DBOrdering
		want     []string
	}{
		{name: "default", want: []string{"a", "b", "c"}},
		{name: "id desc", ordering: []core.DBOrdering{{Field: "id"}}, want: []string{"c", "b", "a"}},
		{name: "unknown field ignored", ordering: []core.DBOrdering{{Field: "name; DROP TABLE student"}}, want: []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			students, err := repo.LoadRoster(ctx, "math", tt.ordering...)
			require.NoError(t, err)
			ids := make([]string, 0, len(students))
			for _, st := range students {
				ids = append(ids, st.ID)
				assert.True(t, st.IsActive)
			}
			assert.Equal(t, tt.want, ids, "inactive and duplicate students left out")
		})
	}
}

func TestSeatingRepository_assignments(t *testing.T) {
	repo := NewSeatingRepository(testutil.OpenDB(t))
	ctx := context.Background()
	testutil.CreateClassroom(t, repo, "math", 2, 2, nil)
	testutil.CreateStudents(t, repo, "math", "ada", "alan")

	require.NoError(t, repo.WriteAssignment(ctx, "math", 1, 1, "ada"))
	require.NoError(t, repo.WriteAssignment(ctx, "math", 1, 2, "alan"))

	err := repo.WriteAssignment(ctx, "math", 2, 2, "ada")
	assert.ErrorIs(t, err, seating.ErrSeatConflict, "a student holds a single seat")

	require.NoError(t, repo.WriteAssignment(ctx, "math", 1, 1, ""))
	require.NoError(t, repo.WriteAssignment(ctx, "math", 2, 2, "ada"))

	assignments, err := repo.LoadAssignments(ctx, "math")
	require.NoError(t, err)
	assert.Equal(t, []seating.Assignment{
		{ClassID: "math", Row: 1, Column: 1},
		{ClassID: "math", Row: 1, Column: 2, StudentID: "alan"},
		{ClassID: "math", Row: 2, Column: 2, StudentID: "ada"},
	}, assignments)

	require.NoError(t, repo.DeleteAssignments(ctx, "math", seating.Seat{Row: 1, Column: 1}, seating.Seat{Row: 2, Column: 2}))
	assert.Equal(t, map[seating.Seat]string{{Row: 1, Column: 2}: "alan"}, testutil.Occupants(t, repo, "math"))
	require.NoError(t, repo.DeleteAssignments(ctx, "math"))
}

func TestSeatingRepository_concurrentClassrooms(t *testing.T) {
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "seating.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	ctx := context.Background()
	require.NoError(t, database.Migrate(ctx, db))

	repo := NewSeatingRepository(db)
	classes := []string{"math", "art"}
	for _, id := range classes {
		testutil.CreateClassroom(t, repo, id, 2, 2, nil)
		testutil.CreateStudents(t, repo, id, id+"-ada")
	}

	var wg sync.WaitGroup
	errs := make([]error, len(classes))
	for i, id := range classes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = repo.WithTx(ctx, func(tx seating.Repository) error {
				if _, err := tx.LoadAssignments(ctx, id); err != nil {
					return err
				}
				// keep the transaction open between its read and its write
				time.Sleep(100 * time.Millisecond)
				return tx.WriteAssignment(ctx, id, 1, 1, id+"-ada")
			})
		}()
	}
	wg.Wait()

	for i, id := range classes {
		require.NoError(t, errs[i], id)
		assert.Equal(t, map[seating.Seat]string{{Row: 1, Column: 1}: id + "-ada"}, testutil.Occupants(t, repo, id))
	}
}

func TestSeatingRepository_WithTx(t *testing.T) {
	repo := NewSeatingRepository(testutil.OpenDB(t))
	ctx := context.Background()
	testutil.CreateClassroom(t, repo, "math", 2, 2, nil)
	testutil.CreateStudents(t, repo, "math", "ada", "alan")
	testutil.SeatStudent(t, repo, "math", "ada", 1, 1)

	err := repo.WithTx(ctx, func(tx seating.Repository) error {
		if err := tx.WriteAssignment(ctx, "math", 1, 1, ""); err != nil {
			return err
		}
		if err := tx.WriteAssignment(ctx, "math", 2, 2, "ada"); err != nil {
			return err
		}
		return tx.WriteAssignment(ctx, "math", 2, 1, "ada") // conflict
	})
	assert.ErrorIs(t, err, seating.ErrSeatConflict)
	assert.Equal(t, map[seating.Seat]string{{Row: 1, Column: 1}: "ada"}, testutil.Occupants(t, repo, "math"), "rolled back")

	// vacate first, then reassign: the swap goes through
	err = repo.WithTx(ctx, func(tx seating.Repository) error {
		if err := tx.WriteAssignment(ctx, "math", 1, 1, ""); err != nil {
			return err
		}
		if err := tx.WriteAssignment(ctx, "math", 1, 1, "alan"); err != nil {
			return err
		}
		return tx.WithTx(ctx, func(nested seating.Repository) error {
			return nested.WriteAssignment(ctx, "math", 2, 2, "ada")
		})
	})
	require.NoError(t, err)
	assert.Equal(t, map[seating.Seat]string{{Row: 1, Column: 1}: "alan", {Row: 2, Column: 2}: "ada"}, testutil.Occupants(t, repo, "math"))
}

func newMockRepo(t *testing.T) (seating.Repository, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = mockDB.Close()
	})
	return NewSeatingRepository(sqlx.NewDb(mockDB, "postgres")), mock
}

func TestSeatingRepository_failures(t *testing.T) {
	ctx := context.Background()

	t.Run("query error", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM classroom WHERE id = $1")).WithArgs("math").WillReturnError(errBoom)

		_, err := repo.GetClassroom(ctx, "math")
		assert.True(t, seating.IsPersistenceError(err))
		assert.ErrorIs(t, err, errBoom)
	})

	t.Run("postgres unique violation", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec("INSERT INTO seat_assignment").
			WithArgs("math", 1, 1, "ada", sqlmock.AnyArg()).
			WillReturnError(&pq.Error{Code: "23505"})

		err := repo.WriteAssignment(ctx, "math", 1, 1, "ada")
		assert.ErrorIs(t, err, seating.ErrSeatConflict)
		assert.False(t, seating.IsPersistenceError(err))
	})

	t.Run("other postgres error", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec("INSERT INTO seat_assignment").WillReturnError(&pq.Error{Code: "23503"})

		err := repo.WriteAssignment(ctx, "math", 1, 1, "ada")
		assert.True(t, seating.IsPersistenceError(err))
	})

	t.Run("rollback on error", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM seat_assignment").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("DELETE FROM seat_assignment").WillReturnError(errBoom)
		mock.ExpectRollback()

		err := repo.DeleteAssignments(ctx, "math", seating.Seat{Row: 1, Column: 1}, seating.Seat{Row: 1, Column: 2})
		assert.True(t, seating.IsPersistenceError(err))
	})

	t.Run("begin error", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectBegin().WillReturnError(errBoom)

		err := repo.WithTx(ctx, func(seating.Repository) error { return nil })
		assert.True(t, seating.IsPersistenceError(err))
	})

	t.Run("commit error", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectBegin()
		mock.ExpectCommit().WillReturnError(errBoom)

		err := repo.WithTx(ctx, func(seating.Repository) error { return nil })
		assert.True(t, seating.IsPersistenceError(err))
		assert.ErrorIs(t, err, errBoom)
	})

	t.Run("malformed row", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		now := time.Now()
		rows := sqlmock.NewRows([]string{"id", "name", "rows_count", "cols_count", "cells", "numbering_mode", "numbering_direction", "created_at", "updated_at"}).
			AddRow("math", "Math", 2, 2, "seat,seat", "row-column", "top", now, now)
		mock.ExpectQuery("FROM classroom WHERE id").WillReturnRows(rows)

		cls, err := repo.GetClassroom(ctx, "math")
		var cfgErr *seating.ConfigError
		assert.True(t, errors.As(err, &cfgErr))
		assert.Equal(t, "Math", cls.Name)
	})
}
