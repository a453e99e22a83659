package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/verletsim/internal/broadphase"
	"github.com/san-kum/verletsim/internal/runner"
)

var seriesColors = []asciigraph.AnsiColor{asciigraph.Red, asciigraph.Yellow, asciigraph.Green, asciigraph.Cyan}

func newBenchCmd() *cobra.Command {
	var (
		kinds        []string
		budget       time.Duration
		window       int
		maxParticles int
		maxFrames    int
	)
	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "spawn particles until each broad phase misses the frame budget",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			benchCfg := runner.BenchConfig{
				Budget:       budget,
				Window:       window,
				MaxParticles: maxParticles,
				MaxFrames:    maxFrames,
			}

			ctx, stop := signalContext()
			defer stop()

			fmt.Printf("benchmarking with a %v frame budget\n\n", budget)
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "BROADPHASE\tPARTICLES\tFRAMES\tOVER BUDGET\tELAPSED\tMEAN FRAME")

			var series [][]float64
			var legends []string
			var colors []asciigraph.AnsiColor
			for i, name := range kinds {
				kind, err := broadphase.ParseKind(name)
				if err != nil {
					return err
				}
				cfg.Solver.BroadPhase = kind.String()
				s, em, err := buildScene(cfg)
				if err != nil {
					return err
				}
				r := runner.New(s,
					runner.WithEmitter(em),
					runner.WithLogger(logger.With("broadphase", kind)),
					runner.WithDt(cfg.Run.Dt),
					runner.WithSampleEvery(0),
				)
				res := r.Bench(ctx, benchCfg)
				s.Close()

				fmt.Fprintf(w, "%s\t%d\t%d\t%v\t%v\t%.2fms\n",
					kind, res.Particles, res.Frames, res.Exceeded,
					res.Elapsed.Round(time.Millisecond), mean(res.FrameTimes))
				if len(res.FrameTimes) > 1 {
					series = append(series, res.FrameTimes)
					legends = append(legends, kind.String())
					colors = append(colors, seriesColors[i%len(seriesColors)])
				}
				if ctx.Err() != nil {
					break
				}
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if len(series) > 0 {
				fmt.Println()
				fmt.Println(asciigraph.PlotMany(series,
					asciigraph.Height(12),
					asciigraph.Width(80),
					asciigraph.SeriesColors(colors...),
					asciigraph.SeriesLegends(legends...),
					asciigraph.Caption("frame time (ms)"),
				))
			}
			return nil
		},
	}
	defaults := runner.DefaultBenchConfig()
	benchCmd.Flags().StringSliceVar(&kinds, "kinds", allKinds(), "broad phases to compare")
	benchCmd.Flags().DurationVar(&budget, "budget", defaults.Budget, "frame time budget")
	benchCmd.Flags().IntVar(&window, "window", defaults.Window, "frames averaged against the budget")
	benchCmd.Flags().IntVar(&maxParticles, "max-particles", defaults.MaxParticles, "stop at this many particles")
	benchCmd.Flags().IntVar(&maxFrames, "max-frames", defaults.MaxFrames, "stop after this many frames")
	return benchCmd
}

func allKinds() []string {
	return []string{
		broadphase.Naive.String(),
		broadphase.Sweep.String(),
		broadphase.Grid.String(),
		broadphase.ParallelGrid.String(),
	}
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}
