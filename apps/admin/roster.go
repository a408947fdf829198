package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	sheetsvc "github.com/trezcool/seating/services/spreadsheet"
)

func (cli *commandLine) rosterCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "roster", Short: "Manage classroom rosters"}

	var classID, path string
	imp := &cobra.Command{
		Use:   "import",
		Short: "Import students from an .xlsx workbook (columns: name, gender, id)",
		RunE: func(c *cobra.Command, _ []string) error {
			if err := requireFlags(c, "class", "file"); err != nil {
				return err
			}
			file, err := os.Open(path)
			if err != nil {
				return errors.Wrap(err, "opening roster file")
			}
			defer func() { _ = file.Close() }()

			nss, err := sheetsvc.ParseRoster(file)
			if err != nil {
				return err
			}
			students, err := cli.svc.AddStudents(c.Context(), classID, nss)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cli.out, "imported %d students into classroom %s\n", len(students), classID)
			return nil
		},
	}
	imp.Flags().StringVar(&classID, "class", "", "classroom id")
	imp.Flags().StringVarP(&path, "file", "f", "", "roster workbook (.xlsx)")

	list := &cobra.Command{
		Use:   "list",
		Short: "List the active students of a classroom",
		RunE: func(c *cobra.Command, _ []string) error {
			if err := requireFlags(c, "class"); err != nil {
				return err
			}
			students, err := cli.svc.Roster(c.Context(), classID)
			if err != nil {
				return err
			}
			for _, st := range students {
				_, _ = fmt.Fprintf(cli.out, "%s\t%s\t%s\n", st.ID, st.Name, st.Gender)
			}
			return nil
		},
	}
	list.Flags().StringVar(&classID, "class", "", "classroom id")

	cmd.AddCommand(imp, list)
	return cmd
}
