package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/seating/core"
	"github.com/trezcool/seating/core/seating"
	sheetsvc "github.com/trezcool/seating/services/spreadsheet"
)

// parseSeat parses "ROW,COL".
func parseSeat(field, s string) (seating.Seat, error) {
	parts := strings.Split(s, ",")
	if len(parts) == 2 {
		row, rErr := strconv.Atoi(strings.TrimSpace(parts[0]))
		col, cErr := strconv.Atoi(strings.TrimSpace(parts[1]))
		if rErr == nil && cErr == nil {
			return seating.Seat{Row: row, Column: col}, nil
		}
	}
	return seating.Seat{}, core.NewValidationError(nil, core.FieldError{Field: field, Error: "expected ROW,COL"})
}

func (cli *commandLine) seatsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "seats", Short: "Manage the seating of a classroom"}
	var classID string
	cmd.PersistentFlags().StringVar(&classID, "class", "", "classroom id")

	var (
		strategy, mode, direction string
		fixed                     []string
	)
	auto := &cobra.Command{
		Use:   "auto",
		Short: "Automatically seat the roster",
		RunE: func(c *cobra.Command, _ []string) error {
			if err := requireFlags(c, "class", "strategy"); err != nil {
				return err
			}
			st, err := seating.ParseStrategy(strategy)
			if err != nil {
				return err
			}
			result, err := cli.svc.AutoAssign(c.Context(), classID, seating.AutoAssignOptions{
				Strategy:           st,
				NumberingMode:      seating.NumberingMode(mode),
				NumberingDirection: seating.NumberingDirection(direction),
				FixedStudentIDs:    fixed,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cli.out, "assigned %d students\n", result.AssignedCount)
			return nil
		},
	}
	auto.Flags().StringVar(&strategy, "strategy", "", "sequential, podium-priority, balanced-row, balanced-column, fixed-preserve or random")
	auto.Flags().StringVar(&mode, "mode", "", "numbering mode to store on the layout")
	auto.Flags().StringVar(&direction, "direction", "", "numbering direction to store on the layout")
	auto.Flags().StringSliceVar(&fixed, "fixed", nil, "ids of the students keeping their seat")

	var (
		student  string
		row, col int
	)
	assign := &cobra.Command{
		Use:   "assign",
		Short: "Seat a student, found by id or name",
		RunE: func(c *cobra.Command, _ []string) error {
			if err := requireFlags(c, "class", "student"); err != nil {
				return err
			}
			st, err := cli.svc.FindStudent(c.Context(), classID, student)
			if err != nil {
				return err
			}
			if _, err = cli.svc.AssignStudent(c.Context(), classID, st.ID, row, col); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cli.out, "seated %s at (%d,%d)\n", st.Name, row, col)
			return nil
		},
	}
	assign.Flags().StringVar(&student, "student", "", "student id or name")
	assign.Flags().IntVar(&row, "row", 0, "row (1-based)")
	assign.Flags().IntVar(&col, "col", 0, "column (1-based)")

	remove := &cobra.Command{
		Use:   "remove",
		Short: "Vacate a seat",
		RunE: func(c *cobra.Command, _ []string) error {
			if err := requireFlags(c, "class"); err != nil {
				return err
			}
			return cli.svc.RemoveStudent(c.Context(), classID, row, col)
		},
	}
	remove.Flags().IntVar(&row, "row", 0, "row (1-based)")
	remove.Flags().IntVar(&col, "col", 0, "column (1-based)")

	var seatA, seatB string
	swap := &cobra.Command{
		Use:   "swap",
		Short: "Swap the occupants of two seats",
		RunE: func(c *cobra.Command, _ []string) error {
			if err := requireFlags(c, "class", "a", "b"); err != nil {
				return err
			}
			a, err := parseSeat("a", seatA)
			if err != nil {
				return err
			}
			b, err := parseSeat("b", seatB)
			if err != nil {
				return err
			}
			return cli.svc.SwapStudents(c.Context(), classID, a, b)
		},
	}
	swap.Flags().StringVar(&seatA, "a", "", "first seat, ROW,COL")
	swap.Flags().StringVar(&seatB, "b", "", "second seat, ROW,COL")

	clear := &cobra.Command{
		Use:   "clear",
		Short: "Vacate every seat",
		RunE: func(c *cobra.Command, _ []string) error {
			if err := requireFlags(c, "class"); err != nil {
				return err
			}
			return cli.svc.ClearArrangement(c.Context(), classID)
		},
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the seating chart",
		RunE: func(c *cobra.Command, _ []string) error {
			if err := requireFlags(c, "class"); err != nil {
				return err
			}
			arr, err := cli.svc.GetArrangement(c.Context(), classID)
			if err != nil {
				return err
			}
			return renderArrangement(cli.out, arr, termWidthFunc())
		},
	}

	var out string
	export := &cobra.Command{
		Use:   "export",
		Short: "Export the seating chart to an .xlsx workbook",
		RunE: func(c *cobra.Command, _ []string) error {
			if err := requireFlags(c, "class", "out"); err != nil {
				return err
			}
			arr, err := cli.svc.GetArrangement(c.Context(), classID)
			if err != nil {
				return err
			}
			file, err := os.Create(out)
			if err != nil {
				return errors.Wrap(err, "creating export file")
			}
			if err = sheetsvc.ExportArrangement(arr, file); err != nil {
				_ = file.Close()
				return err
			}
			if err = file.Close(); err != nil {
				return errors.Wrap(err, "closing export file")
			}
			_, _ = fmt.Fprintf(cli.out, "exported seating chart to %s\n", out)
			return nil
		},
	}
	export.Flags().StringVarP(&out, "out", "o", "", "output file (.xlsx)")

	cmd.AddCommand(auto, assign, remove, swap, clear, show, export)
	return cmd
}
