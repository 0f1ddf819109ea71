package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/erdraft/erdraft/internal/ddl"
	"github.com/erdraft/erdraft/internal/dialect"
	"github.com/erdraft/erdraft/internal/snapshot"
)

func newLibraryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "library",
		Aliases: []string{"lib"},
		Short:   "Manage the local diagram library",
	}

	cmd.AddCommand(newLibraryListCmd())
	cmd.AddCommand(newLibraryShowCmd())
	cmd.AddCommand(newLibraryExportCmd())
	cmd.AddCommand(newLibraryRenameCmd())
	cmd.AddCommand(newLibraryDeleteCmd())

	return cmd
}

func newLibraryListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all saved diagrams",
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := openLibrary()
			if err != nil {
				return err
			}
			defer lib.Close()

			entries, err := lib.ListDiagrams(cmd.Context())
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No diagrams saved yet.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tDIALECT\tTABLES\tUPDATED")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
					e.Name, e.Dialect, e.TableCount, e.UpdatedAt.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}
}

func newLibraryShowCmd() *cobra.Command {
	var dialectName string

	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Print the DDL for a saved diagram",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := openLibrary()
			if err != nil {
				return err
			}
			defer lib.Close()

			entry, err := lib.GetDiagram(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			d, _, err := snapshot.Decode([]byte(entry.Document))
			if err != nil {
				return fmt.Errorf("decode saved diagram %q: %w", args[0], err)
			}

			sql := ddl.Generate(d)
			if dialectName != "" {
				k, err := dialect.Parse(dialectName)
				if err != nil {
					return err
				}
				sql = ddl.GenerateFor(d, k)
			}
			fmt.Fprint(cmd.OutOrStdout(), sql)
			return nil
		},
	}

	cmd.Flags().StringVar(&dialectName, "dialect", "", "Target dialect; defaults to the diagram's own dialect")
	return cmd
}

func newLibraryExportCmd() *cobra.Command {
	var outFile string

	cmd := &cobra.Command{
		Use:   "export <name>",
		Short: "Write a saved diagram's snapshot document to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := openLibrary()
			if err != nil {
				return err
			}
			defer lib.Close()

			entry, err := lib.GetDiagram(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			path := outFile
			if path == "" {
				path = args[0] + ".json"
			}
			if err := os.WriteFile(path, []byte(entry.Document), 0644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outFile, "output", "o", "", "Output file (default: <name>.json)")
	return cmd
}

func newLibraryRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <old> <new>",
		Short: "Rename a saved diagram",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := openLibrary()
			if err != nil {
				return err
			}
			defer lib.Close()

			if err := lib.RenameDiagram(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed %q to %q\n", args[0], args[1])
			return nil
		},
	}
}

func newLibraryDeleteCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a saved diagram",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				fmt.Fprintf(cmd.OutOrStdout(), "Delete diagram %q? [y/N] ", args[0])
				var answer string
				fmt.Fscanln(cmd.InOrStdin(), &answer)
				if answer != "y" && answer != "Y" {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
					return nil
				}
			}

			lib, err := openLibrary()
			if err != nil {
				return err
			}
			defer lib.Close()

			if err := lib.DeleteDiagram(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip the confirmation prompt")
	return cmd
}
