package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/erdraft/erdraft/internal/library"
	"github.com/erdraft/erdraft/internal/server"
	"github.com/erdraft/erdraft/internal/session"
)

const banner = `
              _           __ _
  ___ _ _  __| |_ _ __ _ / _| |_
 / -_) '_|/ _' | '_/ _' |  _|  _|
 \___|_|  \__,_|_| \__,_|_|  \__|
`

func newServeCmd() *cobra.Command {
	var (
		port   int
		host   string
		open   string
		noLib  bool
		memory bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the erdraft session server",
		Long: `Start the HTTP server that hosts one editor session for a canvas frontend.
The server exposes the diagram, the interaction state machine, scene
composition, DDL generation, and the diagram library under /api/v1.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(host, port, open, noLib, memory)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 7335, "HTTP listen port")
	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "HTTP listen host")
	cmd.Flags().StringVar(&open, "open", "", "Snapshot file to open at startup")
	cmd.Flags().BoolVar(&noLib, "no-library", false, "Run without the diagram library")
	cmd.Flags().BoolVar(&memory, "memory", false, "Keep the library in memory instead of on disk")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe(host string, port int, open string, noLib, memory bool) error {
	fmt.Print(banner)
	fmt.Println()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Logging)

	opts, err := sessionOptions(cfg)
	if err != nil {
		return err
	}

	sess := session.New(nil, opts)
	if open != "" {
		d, err := loadSnapshotFile(open)
		if err != nil {
			return err
		}
		sess.Store.Load(d)
		logger.Info("opened snapshot", "path", open, "tables", len(d.Tables))
	}

	var lib *library.Store
	if !noLib {
		dir := resolveDataDir()
		if memory {
			dir = ""
		}
		lib, err = library.NewStore(dir)
		if err != nil {
			return fmt.Errorf("open diagram library: %w", err)
		}
		defer lib.Close()
		logger.Info("diagram library opened", "path", dir)
	}

	srv := server.New(server.Config{
		Host:            host,
		Port:            port,
		ShutdownTimeout: 10 * time.Second,
		CORSOrigins:     cfg.Server.CORSOrigins,
		RateLimit:       cfg.Server.RateLimit,
	}, sess, lib, logger)

	fmt.Printf("→ erdraft %s\n", versionString())
	fmt.Printf("→ Listening on http://%s:%d\n", host, port)
	fmt.Printf("→ API:    http://%s:%d/api/v1\n", host, port)
	fmt.Printf("→ Health: http://%s:%d/healthz\n", host, port)
	fmt.Println()

	return srv.ListenAndServe()
}
