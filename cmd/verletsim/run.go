package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/verletsim/internal/colorize"
	"github.com/san-kum/verletsim/internal/config"
	"github.com/san-kum/verletsim/internal/storage"
)

func newRunCmd() *cobra.Command {
	var (
		duration float64
		name     string
		seed     int64
	)
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a headless simulation and save it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("time") {
				cfg.Run.Duration = duration
			}
			if cmd.Flags().Changed("seed") {
				cfg.Run.Seed = seed
				cfg.Spawn.Seed = seed
			}
			return runSimulation(cfg, name)
		},
	}
	runCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "simulated seconds")
	runCmd.Flags().StringVar(&name, "name", "run", "run name")
	runCmd.Flags().Int64Var(&seed, "seed", 1, "random seed for initial placement and spawn jitter")
	return runCmd
}

func runSimulation(cfg *config.Config, name string) error {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	s, em, err := buildScene(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, stop := signalContext()
	defer stop()

	r := newRunner(cfg, s, em, logger)
	result, err := r.Run(ctx, cfg.Run.Duration)
	if err != nil {
		if result == nil {
			return err
		}
		logger.Warn("run interrupted", "frames", result.Frames, "err", err)
	}

	runID, err := st.Save(storage.RunInfo{
		Name:     name,
		Seed:     cfg.Run.Seed,
		Dt:       cfg.Run.Dt,
		Duration: cfg.Run.Duration,
	}, r.Solver(), result)
	if err != nil {
		return err
	}
	logger.Info("run saved", "id", runID, "dir", st.Dir())

	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("frames: %d\n", result.Frames)
	fmt.Printf("particles: %d\n", r.Solver().Len())
	fmt.Printf("elapsed: %v\n", result.Elapsed)
	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, result.Metrics[name])
	}
	return nil
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := storage.New(dataDir).List()
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("no runs found")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tTIME\tPARTICLES\tFRAMES\tBROADPHASE\tELAPSED")
			for _, run := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%.2fs\n",
					run.ID,
					run.Name,
					run.Timestamp.Format("2006-01-02 15:04:05"),
					run.Particles,
					run.Frames,
					run.BroadPhase,
					run.ElapsedSeconds,
				)
			}
			return w.Flush()
		},
	}
}

// resolveRun returns the run named in args, or the latest run.
func resolveRun(st *storage.Store, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	latest, err := st.Latest()
	if err != nil {
		return "", err
	}
	return latest.ID, nil
}

func newPlotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a run's energy and particle count",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.New(dataDir)
			runID, err := resolveRun(st, args)
			if err != nil {
				return err
			}
			meta, err := st.Load(runID)
			if err != nil {
				return err
			}
			samples, err := st.LoadStates(runID)
			if err != nil {
				return err
			}
			if len(samples) < 2 {
				return fmt.Errorf("not enough samples to plot in %s", runID)
			}

			fmt.Printf("run: %s\n", meta.ID)
			fmt.Printf("broadphase: %s\n", meta.BroadPhase)
			fmt.Printf("samples: %d\n\n", len(samples))

			kinetic := make([]float64, len(samples))
			potential := make([]float64, len(samples))
			count := make([]float64, len(samples))
			for i, smp := range samples {
				kinetic[i] = smp.Kinetic
				potential[i] = smp.Potential
				count[i] = float64(smp.Count)
			}
			for _, series := range []struct {
				data    []float64
				caption string
			}{
				{kinetic, "kinetic energy"},
				{potential, "potential energy"},
				{count, "particles"},
			} {
				fmt.Println(asciigraph.Plot(series.data,
					asciigraph.Height(10),
					asciigraph.Width(80),
					asciigraph.Caption(series.caption),
				))
				fmt.Println()
			}
			return nil
		},
	}
}

func newExportJSONCmd() *cobra.Command {
	var out string
	exportCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run metadata, particles and samples to JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.New(dataDir)
			runID, err := resolveRun(st, args)
			if err != nil {
				return err
			}
			if out == "" {
				return st.ExportJSON(runID, os.Stdout)
			}
			if err := st.ExportJSONFile(runID, out); err != nil {
				return err
			}
			logger.Info("exported", "run", runID, "path", out)
			return nil
		},
	}
	exportCmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return exportCmd
}

func newColorizeCmd() *cobra.Command {
	var rainbow bool
	colorizeCmd := &cobra.Command{
		Use:   "colorize [run_id] [image]",
		Short: "recolour a saved run from an image or by height",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 2 && !rainbow {
				return fmt.Errorf("need an image path or --rainbow")
			}
			st := storage.New(dataDir)
			runID := args[0]
			s, err := st.LoadSolver(runID)
			if err != nil {
				return err
			}
			defer s.Close()

			if rainbow {
				err = colorize.ApplyRainbow(s)
			} else {
				err = colorize.Apply(s, args[1])
			}
			if err != nil {
				return err
			}
			if err := st.SaveSnapshot(runID, s); err != nil {
				return err
			}
			logger.Info("colours updated", "run", runID, "particles", s.Len())
			return nil
		},
	}
	colorizeCmd.Flags().BoolVar(&rainbow, "rainbow", false, "colour by height instead of an image")
	return colorizeCmd
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("presets:")
			for _, name := range config.ListPresets() {
				fmt.Printf("  %s\n", name)
			}
			return nil
		},
	}
}
