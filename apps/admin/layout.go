package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/trezcool/seating/core"
	"github.com/trezcool/seating/core/seating"
)

// layoutFile is the YAML layout format. Each cells entry is a row, one symbol per cell:
// S seat, A aisle, P podium, . empty; whitespace is ignored.
//
//	rows: 2
//	columns: 3
//	numbering_mode: s-shape
//	cells:
//	  - S A S
//	  - S A P
type layoutFile struct {
	Rows               int      `yaml:"rows"`
	Columns            int      `yaml:"columns"`
	NumberingMode      string   `yaml:"numbering_mode"`
	NumberingDirection string   `yaml:"numbering_direction"`
	Cells              []string `yaml:"cells"`
}

var cellSymbols = map[rune]seating.CellType{
	'S': seating.CellSeat,
	'A': seating.CellAisle,
	'P': seating.CellPodium,
	'.': seating.CellEmpty,
}

func parseCellRow(i int, row string) ([]seating.CellType, error) {
	cells := make([]seating.CellType, 0, len(row))
	for _, r := range strings.ToUpper(row) {
		if r == ' ' || r == '\t' {
			continue
		}
		ct, ok := cellSymbols[r]
		if !ok {
			return nil, core.NewValidationError(nil, core.FieldError{
				Field: fmt.Sprintf("cells[%d]", i),
				Error: fmt.Sprintf("unknown cell symbol %q", r),
			})
		}
		cells = append(cells, ct)
	}
	return cells, nil
}

func (lf layoutFile) toSaveLayout(classID string) (seating.SaveLayout, error) {
	sl := seating.SaveLayout{
		ClassID:            classID,
		Rows:               lf.Rows,
		Columns:            lf.Columns,
		NumberingMode:      seating.NumberingMode(lf.NumberingMode),
		NumberingDirection: seating.NumberingDirection(lf.NumberingDirection),
	}
	if len(lf.Cells) == 0 {
		return sl, nil
	}
	sl.Cells = make([][]seating.CellType, 0, len(lf.Cells))
	for i, row := range lf.Cells {
		cells, err := parseCellRow(i, row)
		if err != nil {
			return sl, err
		}
		sl.Cells = append(sl.Cells, cells)
	}
	// dimensions default from the matrix
	if sl.Rows == 0 {
		sl.Rows = len(sl.Cells)
	}
	if sl.Columns == 0 {
		sl.Columns = len(sl.Cells[0])
	}
	return sl, nil
}

func readLayoutFile(path string) (layoutFile, error) {
	var lf layoutFile
	data, err := os.ReadFile(path)
	if err != nil {
		return lf, errors.Wrap(err, "reading layout file")
	}
	if err = yaml.Unmarshal(data, &lf); err != nil {
		return lf, errors.Wrap(err, "parsing layout file")
	}
	return lf, nil
}

func (cli *commandLine) layoutCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "layout", Short: "Manage classroom layouts"}

	var classID, path string
	apply := &cobra.Command{
		Use:   "apply",
		Short: "Apply a YAML layout file to a classroom",
		RunE: func(c *cobra.Command, _ []string) error {
			if err := requireFlags(c, "class", "file"); err != nil {
				return err
			}
			lf, err := readLayoutFile(path)
			if err != nil {
				return err
			}
			sl, err := lf.toSaveLayout(classID)
			if err != nil {
				return err
			}
			layout, err := cli.svc.SaveLayoutConfig(c.Context(), sl)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cli.out, "applied %dx%d layout to classroom %s\n", layout.Rows, layout.Columns, layout.ClassID)
			return nil
		},
	}
	apply.Flags().StringVar(&classID, "class", "", "classroom id")
	apply.Flags().StringVarP(&path, "file", "f", "", "layout file (YAML)")

	cmd.AddCommand(apply)
	return cmd
}
