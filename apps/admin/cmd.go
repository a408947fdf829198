package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/trezcool/seating/core/seating"
	"github.com/trezcool/seating/storage/database"
)

var (
	gooseRunFunc  = database.RunMigrations // mockable
	termWidthFunc = stdoutWidth            // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db  *sqlx.DB
	svc *seating.Service
	out io.Writer
}

func stdoutWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}

func (cli *commandLine) printUsage() {
	_, _ = fmt.Fprintln(cli.out, "Usage:")
	_, _ = fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                       - run a goose migration command (up, down, status...)")
	_, _ = fmt.Fprintln(cli.out, "  classroom add|list                           - manage classrooms")
	_, _ = fmt.Fprintln(cli.out, "  layout apply --class ID --file layout.yaml   - configure a classroom layout")
	_, _ = fmt.Fprintln(cli.out, "  roster import|list --class ID                - manage a classroom roster")
	_, _ = fmt.Fprintln(cli.out, "  seats auto|assign|remove|swap|clear|show|export --class ID - manage the seating")
}

func (cli *commandLine) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "Seating administration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(cli.out)
	root.SetErr(cli.out)

	root.AddCommand(
		cli.migrateCmd(),
		cli.classroomCmd(),
		cli.layoutCmd(),
		cli.rosterCmd(),
		cli.seatsCmd(),
	)
	return root
}

// run executes the command line; args[0] is the program name.
func (cli *commandLine) run(args []string) error {
	if cli.out == nil {
		cli.out = os.Stdout
	}
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	root := cli.rootCmd()
	root.SetArgs(args[1:])
	return root.ExecuteContext(context.Background())
}

// requireFlags returns errHelp, after printing the usage, if any of the string flags is empty.
func requireFlags(cmd *cobra.Command, names ...string) error {
	for _, name := range names {
		if v, _ := cmd.Flags().GetString(name); v == "" {
			_ = cmd.Usage()
			return errHelp
		}
	}
	return nil
}
