package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile    string
	appVersion string
)

// Execute creates the root command tree and runs it.
func Execute(version, commit, date string) error {
	appVersion = version
	rootCmd := newRootCmd(version, commit, date)
	return rootCmd.Execute()
}

func newRootCmd(version, commit, date string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "erdraft",
		Short: "Design database schemas as entity-relationship diagrams",
		Long: `erdraft: a headless entity-relationship diagram editor.

erdraft keeps a diagram of tables, fields, and relationships as the source of
truth, exposes it to canvas frontends over HTTP, and generates CREATE TABLE
DDL for MySQL, PostgreSQL, MariaDB, Oracle, SQL Server, and SQLite. Saved
diagrams live in a local SQLite library, also reachable by AI agents through
a built-in MCP server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./erdraft.yaml)")
	cmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory for the diagram library (default: ~/.erdraft)")

	cobra.OnInitialize(initConfig)

	// Add subcommands
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newVersionCmd(version, commit, date))
	cmd.AddCommand(newSQLCmd())
	cmd.AddCommand(newApplyCmd())
	cmd.AddCommand(newLibraryCmd())
	cmd.AddCommand(newMCPCmd())

	return cmd
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("erdraft")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.erdraft")
	}

	viper.SetEnvPrefix("ERDRAFT")
	viper.AutomaticEnv()
	viper.ReadInConfig() // Ignore error - config file is optional
}
