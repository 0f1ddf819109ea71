package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/erdraft/erdraft/internal/ddl"
	"github.com/erdraft/erdraft/internal/dialect"
)

func newSQLCmd() *cobra.Command {
	var (
		dialectName string
		outFile     string
	)

	cmd := &cobra.Command{
		Use:   "sql <snapshot.json>",
		Short: "Generate CREATE TABLE DDL from a snapshot file",
		Long: `Generate the CREATE TABLE script for a diagram snapshot. By default the
diagram's own dialect is used; --dialect retargets the output without
touching the snapshot.`,
		Example: `  erdraft sql schema.json
  erdraft sql schema.json --dialect postgresql -o schema.sql`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSQL(cmd, args[0], dialectName, outFile)
		},
	}

	cmd.Flags().StringVar(&dialectName, "dialect", "", "Target dialect (mysql, postgresql, mariadb, oracle, mssql, sqlite)")
	cmd.Flags().StringVarP(&outFile, "output", "o", "", "Write the script to a file instead of stdout")

	return cmd
}

func runSQL(cmd *cobra.Command, path, dialectName, outFile string) error {
	d, err := loadSnapshotFile(path)
	if err != nil {
		return err
	}

	sql := ""
	if dialectName != "" {
		k, err := dialect.Parse(dialectName)
		if err != nil {
			return err
		}
		sql = ddl.GenerateFor(d, k)
	} else {
		sql = ddl.Generate(d)
	}

	if outFile != "" {
		if err := os.WriteFile(outFile, []byte(sql), 0644); err != nil {
			return fmt.Errorf("write %s: %w", outFile, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", outFile)
		return nil
	}

	fmt.Fprint(cmd.OutOrStdout(), sql)
	return nil
}
