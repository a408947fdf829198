package inmemdb

import (
	"maps"
	"sync"

	"github.com/trezcool/seating/core/seating"
)

type (
	// DB is an in-memory store honoring the same constraints as the SQL schema.
	DB struct {
		mutex sync.RWMutex
		state *tables
	}

	classroomRow struct {
		cls   seating.Classroom // Layout.Cells left nil
		cells []byte            // JSON, as persisted by the SQL repository
	}

	tables struct {
		classroom  map[string]classroomRow
		student    map[string]seating.Student
		assignment map[string]map[seating.Seat]string // class id -> seat -> student id ("" if vacated)
	}
)

func Open() *DB {
	return &DB{state: &tables{
		classroom:  make(map[string]classroomRow),
		student:    make(map[string]seating.Student),
		assignment: make(map[string]map[seating.Seat]string),
	}}
}

func (t *tables) clone() *tables {
	c := &tables{
		classroom:  maps.Clone(t.classroom),
		student:    maps.Clone(t.student),
		assignment: make(map[string]map[seating.Seat]string, len(t.assignment)),
	}
	for classID, seats := range t.assignment {
		c.assignment[classID] = maps.Clone(seats)
	}
	return c
}

// PutRawCells overwrites the persisted cells of a classroom, e.g. with a malformed value.
func (db *DB) PutRawCells(classID string, raw []byte) {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	if row, ok := db.state.classroom[classID]; ok {
		row.cells = raw
		db.state.classroom[classID] = row
	}
}
