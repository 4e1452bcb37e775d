package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/vortexntnu/stonefish/internal/analysis"
	"github.com/vortexntnu/stonefish/internal/config"
	"github.com/vortexntnu/stonefish/internal/export"
	"github.com/vortexntnu/stonefish/internal/metrics"
	"github.com/vortexntnu/stonefish/internal/sim"
	"github.com/vortexntnu/stonefish/internal/storage"
	"github.com/vortexntnu/stonefish/internal/tui"
)

var (
	dataDir    string
	dt         float64
	duration   float64
	integrator string
	configFile string
	preset     string
	jointIdx   int
	outPath    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "stonefish",
		Short: "articulated rigid-body simulation lab",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".stonefish", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run a scenario and store the result",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScenario,
	}
	runCmd.Flags().Float64Var(&dt, "dt", 0, "timestep override")
	runCmd.Flags().Float64Var(&duration, "time", 0, "duration override")
	runCmd.Flags().StringVar(&integrator, "integrator", "", "integrator override")
	runCmd.Flags().StringVar(&configFile, "config", "", "scenario file (yaml)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "print run metadata as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "print the run trajectory as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export a joint phase portrait as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().IntVar(&jointIdx, "joint", 0, "joint index")
	exportSVGCmd.Flags().StringVar(&outPath, "out", "phase.svg", "output path")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().IntVar(&jointIdx, "joint", 0, "joint index")

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "phase portrait of one joint",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}
	phaseCmd.Flags().IntVar(&jointIdx, "joint", 0, "joint index")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				fmt.Println(name)
			}
			return nil
		},
	}

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "run a scenario with live visualization",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	liveCmd.Flags().StringVar(&configFile, "config", "", "scenario file (yaml)")

	benchCmd := &cobra.Command{
		Use:   "bench [preset]",
		Short: "benchmark a scenario across timesteps",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchScenario,
	}
	benchCmd.Flags().StringVar(&configFile, "config", "", "scenario file (yaml)")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportJSONCmd, exportCSVCmd, exportSVGCmd,
		analyzeCmd, phaseCmd, presetsCmd, liveCmd, benchCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadScenario(args []string) (*config.Scenario, error) {
	if configFile != "" {
		return config.Load(configFile)
	}
	name := "pendulum"
	if len(args) > 0 {
		name = args[0]
	}
	sc := config.GetPreset(name)
	if sc == nil {
		return nil, fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
	}
	return sc, nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := loadScenario(args)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("dt") {
		sc.Dt = dt
	}
	if cmd.Flags().Changed("time") {
		sc.Duration = duration
	}
	if cmd.Flags().Changed("integrator") {
		sc.Integrator = integrator
	}

	tree, err := sc.Build()
	if err != nil {
		return err
	}

	world := sim.New()
	if err := world.AddTree(tree); err != nil {
		return err
	}

	cfg := sc.SimConfig()
	world.AddMetric(metrics.NewEnergy(cfg.Gravity))
	world.AddMetric(metrics.NewEnergyDrift(cfg.Gravity))
	world.AddMetric(metrics.NewControlEffort())

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	fmt.Printf("running %s...\n", sc.Name)
	start := time.Now()

	result, err := world.Run(context.Background(), cfg)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(sc.Name, sc.Integrator, cfg.Dt, cfg.Duration, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	for _, stepErr := range result.Errors {
		fmt.Printf("step error: %v\n", stepErr)
	}
	fmt.Println("\nmetrics:")
	for name, val := range result.Metrics {
		fmt.Printf("  %s: %.6f\n", name, val)
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tDURATION\tDT\tINTEG\tSTEPS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%s\t%d\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Integrator,
			run.Steps,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	_, rows, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Scenario)
	fmt.Printf("samples: %d\n\n", len(rows))

	// rows hold positions then velocities; plot positions only
	numJoints := len(rows[0]) / 2
	maxPlots := 6
	if numJoints > maxPlots {
		numJoints = maxPlots
	}

	for j := 0; j < numJoints; j++ {
		data := make([]float64, len(rows))
		for i := range rows {
			if j < len(rows[i]) {
				data[i] = rows[i][j]
			}
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("q%d vs time", j)),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	result, err := st.LoadResult(args[0])
	if err != nil {
		return err
	}
	if len(result.Positions) == 0 {
		return fmt.Errorf("no data")
	}
	if jointIdx < 0 || jointIdx >= len(result.Positions[0]) {
		return fmt.Errorf("joint %d out of range (have %d)", jointIdx, len(result.Positions[0]))
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n\n", meta.Scenario)

	data := make([]float64, len(result.Positions))
	for i := range result.Positions {
		data[i] = result.Positions[i][jointIdx]
	}

	ps := analysis.PowerSpectrum(data)
	if len(ps) < 2 {
		return fmt.Errorf("not enough samples")
	}

	graph := asciigraph.Plot(ps[:len(ps)/2+1],
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("power spectrum (q%d)", jointIdx)),
	)
	fmt.Println(graph)
	fmt.Println()

	fmt.Printf("dominant frequency: %.3f hz\n", analysis.DominantFrequency(data, meta.Dt))
	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	result, err := st.LoadResult(args[0])
	if err != nil {
		return err
	}

	portrait := analysis.ExtractPhasePortrait(result, jointIdx)
	if portrait == nil {
		return fmt.Errorf("joint %d out of range", jointIdx)
	}

	fmt.Printf("phase portrait: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Scenario)
	fmt.Printf("q%d vs qd%d\n\n", jointIdx, jointIdx)
	fmt.Println(portrait.Render(80, 24))
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	path, err := st.TrajectoryPath(args[0])
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(os.Stdout, f)
	return err
}

func exportSVG(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	_, rows, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}
	if len(rows) < 2 {
		return fmt.Errorf("not enough data")
	}

	numJoints := len(rows[0]) / 2
	if jointIdx < 0 || jointIdx >= numJoints {
		return fmt.Errorf("joint %d out of range (have %d)", jointIdx, numJoints)
	}

	qs := make([]float64, len(rows))
	qds := make([]float64, len(rows))
	for i, row := range rows {
		qs[i] = row[jointIdx]
		qds[i] = row[numJoints+jointIdx]
	}

	svg := export.TrajectoryToSVG(qs, qds, 800, 600, "#00ff00")
	if svg == "" {
		return fmt.Errorf("degenerate trajectory")
	}
	if err := export.WriteSVG(outPath, svg); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", outPath)
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	sc, err := loadScenario(args)
	if err != nil {
		return err
	}

	build := func() (*sim.World, error) {
		tree, err := sc.Build()
		if err != nil {
			return nil, err
		}
		world := sim.New()
		if err := world.AddTree(tree); err != nil {
			return nil, err
		}
		return world, nil
	}

	return tui.Run(build, sc.SimConfig())
}

func benchScenario(cmd *cobra.Command, args []string) error {
	sc, err := loadScenario(args)
	if err != nil {
		return err
	}

	durations := []float64{1.0, 5.0}
	dts := []float64{0.0005, 0.001, 0.01}

	fmt.Printf("benchmarking %s\n\n", sc.Name)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DURATION\tDT\tSTEPS\tTIME\tSTEPS/SEC")

	for _, dur := range durations {
		for _, step := range dts {
			tree, err := sc.Build()
			if err != nil {
				return err
			}
			world := sim.New()
			if err := world.AddTree(tree); err != nil {
				return err
			}

			cfg := sc.SimConfig()
			cfg.Dt = step
			cfg.Duration = dur

			start := time.Now()
			result, err := world.Run(context.Background(), cfg)
			if err != nil {
				return err
			}
			elapsed := time.Since(start)

			stepsPerSec := float64(result.StepsTaken) / elapsed.Seconds()
			fmt.Fprintf(w, "%.1fs\t%.4fs\t%d\t%v\t%.0f\n",
				dur, step, result.StepsTaken, elapsed, stepsPerSec)
		}
	}
	return w.Flush()
}
