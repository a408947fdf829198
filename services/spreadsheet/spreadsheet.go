package sheetsvc

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/seating/core"
	"github.com/trezcool/seating/core/seating"
)

const (
	chartSheet  = "Seating"
	rosterSheet = "Roster"
)

var ErrNoSheet = errors.New("workbook does not contain any sheet")

// rosterColumns maps the roster header cells to their column index. The default order is name, gender, id.
func rosterColumns(header []string) (name, gender, id int, hasHeader bool) {
	name, gender, id = 0, 1, 2
	found := map[string]int{}
	for i, cell := range header {
		switch core.CleanString(cell, true /* lower */) {
		case "name", "student", "student name":
			found["name"] = i
		case "gender", "sex":
			found["gender"] = i
		case "id", "student id":
			found["id"] = i
		}
	}
	if len(found) == 0 {
		return name, gender, id, false
	}
	name, gender, id = -1, -1, -1
	if i, ok := found["name"]; ok {
		name = i
	}
	if i, ok := found["gender"]; ok {
		gender = i
	}
	if i, ok := found["id"]; ok {
		id = i
	}
	return name, gender, id, true
}

func cellAt(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// ParseRoster reads students from the first sheet of an .xlsx workbook.
// The first row is skipped if it is a header; rows without a name are ignored.
func ParseRoster(r io.Reader) ([]seating.NewStudent, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "opening workbook")
	}
	defer func() { _ = f.Close() }()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, ErrNoSheet
	}
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, errors.Wrapf(err, "reading sheet %q", sheetName)
	}
	if len(rows) == 0 {
		return []seating.NewStudent{}, nil
	}

	nameCol, genderCol, idCol, hasHeader := rosterColumns(rows[0])
	if nameCol < 0 {
		return nil, core.NewValidationError(nil, core.FieldError{Field: "file", Error: "missing a name column"})
	}
	if hasHeader {
		rows = rows[1:]
	}

	students := make([]seating.NewStudent, 0, len(rows))
	for _, row := range rows {
		name := cellAt(row, nameCol)
		if name == "" {
			continue
		}
		students = append(students, seating.NewStudent{
			ID:     cellAt(row, idCol),
			Name:   name,
			Gender: cellAt(row, genderCol),
		})
	}
	return students, nil
}

func cellLabel(cell seating.SeatCell, seat seating.NumberedSeat, occupied bool) string {
	switch {
	case !cell.IsSeat():
		if cell.Type == seating.CellEmpty {
			return ""
		}
		return strings.ToUpper(string(cell.Type))
	case occupied:
		return fmt.Sprintf("#%d %s", seat.Number, seat.StudentName)
	default:
		return fmt.Sprintf("#%d", seat.Number)
	}
}

// ExportArrangement writes the arrangement as an .xlsx workbook: the seating chart
// on a first sheet, the seat list on a second one.
func ExportArrangement(arr seating.Arrangement, w io.Writer) error {
	grid, err := seating.GridFromLayout(arr.Layout)
	var cfgErr *seating.ConfigError
	if err != nil && !errors.As(err, &cfgErr) {
		return errors.Errorf("classroom %q has an invalid %dx%d layout", arr.Layout.ClassID, arr.Layout.Rows, arr.Layout.Columns)
	}

	seats := make(map[seating.Seat]seating.NumberedSeat, len(arr.Seats))
	for _, s := range arr.Seats {
		seats[seating.Seat{Row: s.Row, Column: s.Column}] = s
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if err = f.SetSheetName(f.GetSheetName(0), chartSheet); err != nil {
		return errors.Wrap(err, "naming chart sheet")
	}

	for r := 1; r <= grid.Rows(); r++ {
		for c := 1; c <= grid.Columns(); c++ {
			cell, _ := grid.CellAt(r, c)
			seat, ok := seats[cell.Seat()]
			axis, err := excelize.CoordinatesToCellName(c, r)
			if err != nil {
				return err
			}
			if err = f.SetCellValue(chartSheet, axis, cellLabel(cell, seat, ok && seat.StudentID != "")); err != nil {
				return errors.Wrapf(err, "writing cell %s", axis)
			}
		}
	}
	if grid.Columns() > 0 {
		lastCol, _ := excelize.ColumnNumberToName(grid.Columns())
		_ = f.SetColWidth(chartSheet, "A", lastCol, 18)
	}

	if _, err = f.NewSheet(rosterSheet); err != nil {
		return errors.Wrap(err, "creating roster sheet")
	}
	header := []interface{}{"Number", "Row", "Column", "Student", "Student ID"}
	if err = f.SetSheetRow(rosterSheet, "A1", &header); err != nil {
		return err
	}
	for i, s := range arr.Seats {
		axis, _ := excelize.CoordinatesToCellName(1, i+2)
		values := []interface{}{s.Number, s.Row, s.Column, s.StudentName, s.StudentID}
		if err = f.SetSheetRow(rosterSheet, axis, &values); err != nil {
			return errors.Wrapf(err, "writing seat %d", s.Number)
		}
	}

	if _, err = f.WriteTo(w); err != nil {
		return errors.Wrap(err, "writing workbook")
	}
	return nil
}
