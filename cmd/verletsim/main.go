package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/san-kum/verletsim/internal/config"
	"github.com/san-kum/verletsim/internal/metrics"
	"github.com/san-kum/verletsim/internal/runner"
	"github.com/san-kum/verletsim/internal/solver"
	"github.com/san-kum/verletsim/internal/spawn"
)

var (
	dataDir    string
	configFile string
	preset     string
	logLevel   string

	logger = log.Default()
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "verletsim",
		Short:        "verlet particle simulator",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := log.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logger = log.NewWithOptions(os.Stderr, log.Options{
				Level:           level,
				ReportTimestamp: true,
			})
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".verletsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newRunCmd(),
		newLiveCmd(),
		newServeCmd(),
		newBenchCmd(),
		newListCmd(),
		newPlotCmd(),
		newExportJSONCmd(),
		newColorizeCmd(),
		newPresetsCmd(),
	)
	return rootCmd
}

// loadConfig starts from the preset, if any, then overlays the config file.
func loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		var err error
		if cfg, err = config.GetPreset(preset); err != nil {
			return nil, fmt.Errorf("%w (available: %v)", err, config.ListPresets())
		}
	}
	if configFile != "" {
		if err := config.Merge(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildScene creates the solver with the configured initial particles and
// the emitter that keeps feeding it.
func buildScene(cfg *config.Config) (*solver.Solver, *spawn.Emitter, error) {
	opts, err := cfg.SolverOptions()
	if err != nil {
		return nil, nil, err
	}
	initial := spawn.Scatter(cfg.Run.Initial, cfg.Spawn.Radius, opts.ContainerRadius, cfg.Run.Seed)
	if len(initial) < cfg.Run.Initial {
		logger.Warn("container too small for initial particles", "wanted", cfg.Run.Initial, "placed", len(initial))
	}
	s, err := solver.New(opts, initial...)
	if err != nil {
		return nil, nil, err
	}
	em, err := spawn.NewEmitter(cfg.EmitterConfig())
	if err != nil {
		s.Close()
		return nil, nil, err
	}
	return s, em, nil
}

func newRunner(cfg *config.Config, s *solver.Solver, em *spawn.Emitter, l *log.Logger) *runner.Runner {
	return runner.New(s,
		runner.WithEmitter(em),
		runner.WithLogger(l),
		runner.WithDt(cfg.Run.Dt),
		runner.WithMaxUpdates(cfg.Run.MaxUpdates),
		runner.WithSampleEvery(cfg.Run.SampleEvery),
		runner.WithMetrics(metrics.Defaults()...),
	)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
