package main

import (
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/san-kum/verletsim/internal/storage"
	"github.com/san-kum/verletsim/internal/stream"
	"github.com/san-kum/verletsim/internal/viz"
)

func newLiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "live",
		Short: "watch the simulation in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			st := storage.New(dataDir)
			if err := st.Init(); err != nil {
				return err
			}

			// The terminal belongs to the view, so logs go to a file.
			f, err := os.OpenFile(filepath.Join(dataDir, "live.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				return err
			}
			defer f.Close()
			fileLogger := log.NewWithOptions(f, log.Options{Level: logger.GetLevel(), ReportTimestamp: true})

			s, em, err := buildScene(cfg)
			if err != nil {
				return err
			}
			r := newRunner(cfg, s, em, fileLogger)
			defer func() { r.Solver().Close() }()

			m, err := viz.NewModel(r, st, fileLogger)
			if err != nil {
				return err
			}
			_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
			return err
		},
	}
}

func newServeCmd() *cobra.Command {
	var addr string
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "stream the simulation over websockets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Stream.Addr = addr
			}

			s, em, err := buildScene(cfg)
			if err != nil {
				return err
			}
			r := newRunner(cfg, s, em, logger)
			defer func() { r.Solver().Close() }()

			ctx, stop := signalContext()
			defer stop()
			return stream.NewServer(cfg.Stream.Addr, r, cfg.Stream.BroadcastEvery, logger).Run(ctx)
		},
	}
	serveCmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return serveCmd
}
