package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/erdraft/erdraft/internal/apply"
	"github.com/erdraft/erdraft/internal/ddl"
	"github.com/erdraft/erdraft/internal/dialect"
)

func newApplyCmd() *cobra.Command {
	var (
		dsn            string
		dialectName    string
		dryRun         bool
		promptPassword bool
	)

	cmd := &cobra.Command{
		Use:   "apply <snapshot.json>",
		Short: "Execute the generated DDL against a live database",
		Long: `Generate the CREATE TABLE script for a snapshot and execute it statement
by statement against the database behind --dsn. Execution stops at the
first failing statement, reporting its position and text.

The DSN may contain ${PASSWORD}; with --prompt-password it is filled in
from an interactive prompt so the password never lands in shell history.`,
		Example: `  erdraft apply schema.json --dsn 'postgres://app@localhost/appdb' --dry-run
  erdraft apply schema.json --dsn 'app:${PASSWORD}@tcp(localhost:3306)/appdb' --prompt-password`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd, args[0], dsn, dialectName, dryRun, promptPassword)
		},
	}

	cmd.Flags().StringVar(&dsn, "dsn", "", "Database connection string (required unless --dry-run)")
	cmd.Flags().StringVar(&dialectName, "dialect", "", "Target dialect; defaults to the snapshot's own dialect")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the statements without executing them")
	cmd.Flags().BoolVar(&promptPassword, "prompt-password", false, "Prompt for a password to substitute for ${PASSWORD} in the DSN")

	return cmd
}

func runApply(cmd *cobra.Command, path, dsn, dialectName string, dryRun, promptPassword bool) error {
	d, err := loadSnapshotFile(path)
	if err != nil {
		return err
	}

	k := d.Dialect
	if dialectName != "" {
		k, err = dialect.Parse(dialectName)
		if err != nil {
			return err
		}
	}
	script := ddl.GenerateFor(d, k)

	if dryRun {
		for i, stmt := range apply.SplitStatements(script) {
			fmt.Fprintf(cmd.OutOrStdout(), "-- statement %d\n%s;\n\n", i+1, stmt)
		}
		return nil
	}

	if dsn == "" {
		return fmt.Errorf("--dsn is required unless --dry-run is set")
	}

	if promptPassword {
		fmt.Fprint(cmd.OutOrStdout(), "Password: ")
		pwBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout())
		dsn = strings.ReplaceAll(dsn, "${PASSWORD}", string(pwBytes))
	}

	result, err := apply.Run(cmd.Context(), k, dsn, script)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Applied %d statements (%s)\n", result.Statements, k)
	return nil
}
