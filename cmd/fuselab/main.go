package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/marel-k/fuselab/internal/config"
	"github.com/marel-k/fuselab/internal/fusion"
	"github.com/marel-k/fuselab/internal/physics"
	"github.com/marel-k/fuselab/internal/storage"
	"github.com/marel-k/fuselab/internal/telemetry"
	"github.com/marel-k/fuselab/internal/truth"
	"github.com/marel-k/fuselab/internal/ukf"
	"github.com/marel-k/fuselab/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string
	dt         float64
	periodMs   int
	ticks      int
	seed       int64
	mode       string
	noiseAmp   float64
	truthTheta float64
	truthOmega float64
	estTheta   float64
	estOmega   float64
	record     bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fuselab",
		Short: "pendulum state-estimation fusion loop",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".fuselab", "data directory")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the fusion loop, telemetry on stdout",
		RunE:  runLoop,
	}
	addLoopFlags(runCmd)
	runCmd.Flags().BoolVar(&record, "record", false, "store telemetry under the data directory")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run the fusion loop with live visualization",
		RunE:  runLive,
	}
	addLoopFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list recorded runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Run: func(cmd *cobra.Command, args []string) {
			for _, p := range config.ListPresets() {
				fmt.Println(p)
			}
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addLoopFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "model timestep (seconds)")
	cmd.Flags().IntVar(&periodMs, "period", config.DefaultPeriodMs, "tick period (milliseconds)")
	cmd.Flags().IntVar(&ticks, "ticks", config.DefaultTicks, "number of ticks, 0 to run until interrupted")
	cmd.Flags().Int64Var(&seed, "seed", 0, "noise seed, 0 for time-based")
	cmd.Flags().StringVar(&mode, "mode", "angles", "telemetry mode: angles or measurement")
	cmd.Flags().Float64Var(&noiseAmp, "noise", config.DefaultNoiseAmp, "measurement noise amplitude")
	cmd.Flags().Float64Var(&truthTheta, "theta", config.DefaultTruthTheta, "true initial angle")
	cmd.Flags().Float64Var(&truthOmega, "omega", 0.0, "true initial angular velocity")
	cmd.Flags().Float64Var(&estTheta, "est-theta", config.DefaultEstTheta, "estimator initial angle")
	cmd.Flags().Float64Var(&estOmega, "est-omega", 0.0, "estimator initial angular velocity")
}

// resolveConfig merges preset, config file, and flags; flags win when set
// explicitly.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		// Copy so flag overrides never mutate the shared preset table.
		c := *p
		cfg = &c
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("period") {
		cfg.PeriodMs = periodMs
	}
	if cmd.Flags().Changed("ticks") {
		cfg.Ticks = ticks
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	if cmd.Flags().Changed("mode") {
		cfg.Mode = mode
	}
	if cmd.Flags().Changed("noise") {
		cfg.Pendulum.NoiseAmp = noiseAmp
	}
	if cmd.Flags().Changed("theta") {
		cfg.InitState.TruthTheta = truthTheta
	}
	if cmd.Flags().Changed("omega") {
		cfg.InitState.TruthOmega = truthOmega
	}
	if cmd.Flags().Changed("est-theta") {
		cfg.InitState.EstTheta = estTheta
	}
	if cmd.Flags().Changed("est-omega") {
		cfg.InitState.EstOmega = estOmega
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildLoop assembles the truth simulator, the UKF, and the fusion loop
// from one resolved config. The single Dt feeds both the simulator and the
// filter's process model so the two integrate identically.
func buildLoop(cfg *config.Config, sink telemetry.Sink) *fusion.Loop {
	loopSeed := cfg.Seed
	if loopSeed == 0 {
		loopSeed = time.Now().UnixNano()
	}

	sim := truth.New(cfg.InitState.TruthTheta, cfg.InitState.TruthOmega, loopSeed)
	sim.Gravity = cfg.Pendulum.Gravity
	sim.Length = cfg.Pendulum.Length
	sim.Damping = cfg.Pendulum.Damping
	sim.Dt = cfg.Dt
	sim.NoiseAmp = cfg.Pendulum.NoiseAmp

	model := &physics.DampedPendulum{
		Gravity: cfg.Pendulum.Gravity,
		Length:  cfg.Pendulum.Length,
		Damping: cfg.Pendulum.Damping,
		Dt:      cfg.Dt,
	}

	filter := ukf.New(model, ukf.Config{
		Alpha: cfg.Filter.Alpha,
		Beta:  cfg.Filter.Beta,
		Kappa: cfg.Filter.Kappa,
	})
	filter.Reset(
		mat.NewVecDense(2, []float64{cfg.InitState.EstTheta, cfg.InitState.EstOmega}),
		cfg.Filter.PInit, cfg.Filter.RvInit, cfg.Filter.RnInit,
	)

	tuning := fusion.Tuning{
		PInit:  cfg.Filter.PInit,
		RvInit: cfg.Filter.RvInit,
		RnInit: cfg.Filter.RnInit,
	}

	return fusion.New(sim, filter, sink, tuning, model.StateDim(), model.ControlDim())
}

func runLoop(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	var sink telemetry.Sink = telemetry.NewWriterSink(os.Stdout, telemetry.Mode(cfg.Mode))
	var capture *telemetry.CaptureSink
	if record {
		capture = telemetry.NewCaptureSink()
		sink = telemetry.Tee{sink, capture}
	}

	loop := buildLoop(cfg, sink)

	period := time.Duration(cfg.PeriodMs) * time.Millisecond
	if err := loop.Run(context.Background(), period, cfg.Ticks); err != nil {
		return err
	}

	if record {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		meta := storage.RunMetadata{
			Seed:     cfg.Seed,
			Dt:       cfg.Dt,
			PeriodMs: cfg.PeriodMs,
			Ticks:    loop.Ticks(),
			Resets:   loop.Resets(),
			Mode:     cfg.Mode,
		}
		runID, err := st.Save(meta, capture.Records)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "run id: %s\n", runID)
	}

	fmt.Fprintf(os.Stderr, "ticks: %d resets: %d\n", loop.Ticks(), loop.Resets())
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	// Notices land in the capture sink; the TUI shows the reset counter.
	loop := buildLoop(cfg, telemetry.NewCaptureSink())

	return viz.RunLive(loop, time.Duration(cfg.PeriodMs)*time.Millisecond)
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
	fmt.Fprintln(w, "ID\tTIME\tTICKS\tRESETS\tDT\tPERIOD\tMODE")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.3fs\t%dms\t%s\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Ticks,
			run.Resets,
			run.Dt,
			run.PeriodMs,
			run.Mode,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	records, err := st.LoadRecords(runID)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("samples: %d resets: %d\n\n", len(records), meta.Resets)

	truthSeries := make([]float64, len(records))
	estSeries := make([]float64, len(records))
	compute := make([]float64, len(records))
	for i, rec := range records {
		truthSeries[i] = rec.TruthTheta
		estSeries[i] = rec.EstTheta
		compute[i] = rec.ComputeMs
	}

	graph := asciigraph.PlotMany(
		[][]float64{truthSeries, estSeries},
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("theta: truth / estimate"),
	)
	fmt.Println(graph)
	fmt.Println()

	graph = asciigraph.Plot(compute,
		asciigraph.Height(6),
		asciigraph.Width(80),
		asciigraph.Caption("update compute time (ms)"),
	)
	fmt.Println(graph)

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
