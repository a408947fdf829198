package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trezcool/seating/core/seating"
)

func (cli *commandLine) classroomCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "classroom", Short: "Manage classrooms"}

	var nc seating.NewClassroom
	var mode, direction string
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a classroom with a fully seated layout",
		RunE: func(c *cobra.Command, _ []string) error {
			if err := requireFlags(c, "name"); err != nil {
				return err
			}
			nc.NumberingMode = seating.NumberingMode(mode)
			nc.NumberingDirection = seating.NumberingDirection(direction)
			cls, err := cli.svc.CreateClassroom(c.Context(), nc)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cli.out, "created classroom %s %q (%dx%d)\n", cls.ID, cls.Name, cls.Layout.Rows, cls.Layout.Columns)
			return nil
		},
	}
	add.Flags().StringVar(&nc.ID, "id", "", "classroom id (generated if empty)")
	add.Flags().StringVar(&nc.Name, "name", "", "classroom name")
	add.Flags().IntVar(&nc.Rows, "rows", 0, "number of rows (default from config)")
	add.Flags().IntVar(&nc.Columns, "columns", 0, "number of columns (default from config)")
	add.Flags().StringVar(&mode, "mode", "", "numbering mode: row-column, s-shape, z-shape, podium-s")
	add.Flags().StringVar(&direction, "direction", "", "numbering direction: top, bottom")

	list := &cobra.Command{
		Use:   "list",
		Short: "List classrooms",
		RunE: func(c *cobra.Command, _ []string) error {
			classrooms, err := cli.svc.ListClassrooms(c.Context())
			if err != nil {
				return err
			}
			for _, cls := range classrooms {
				_, _ = fmt.Fprintf(cli.out, "%s\t%s\t%dx%d\n", cls.ID, cls.Name, cls.Layout.Rows, cls.Layout.Columns)
			}
			return nil
		},
	}

	cmd.AddCommand(add, list)
	return cmd
}
