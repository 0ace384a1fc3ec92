package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/chemgaloo/internal/config"
	"github.com/san-kum/chemgaloo/internal/experiment"
	"github.com/san-kum/chemgaloo/internal/export"
	"github.com/san-kum/chemgaloo/internal/reactor"
	"github.com/san-kum/chemgaloo/internal/storage"
	"github.com/san-kum/chemgaloo/internal/viz"
)

var (
	dataDir    string
	verbose    bool
	configFile string
	preset     string
	noSave     bool
	themeName  string
	// Batch overrides
	dt      float64
	steps   int
	source  string
	combine string
	// CSTR overrides
	mean          float64
	cstrDt        float64
	threshold     float64
	maxIterations int
	verbosity     string
	// Sweep options
	sweepReaction int
	sweepK        []float64
	sweepMetric   string
	// Plot options
	plotSpecies []string
	plotHeight  int
	plotWidth   int
	svgWidth    int
	svgHeight   int
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "chemgaloo",
		Short:        "chemical reaction kinetics simulator",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(verbose)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".chemgaloo", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&themeName, "theme", viz.ThemeLab.Name, "color theme ("+strings.Join(viz.ThemeNames(), ", ")+")")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a batch reactor",
		Args:  cobra.NoArgs,
		RunE:  runBatch,
	}
	scenarioFlags(runCmd)
	batchFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	cstrCmd := &cobra.Command{
		Use:   "cstr",
		Short: "solve a continuous stirred-tank reactor for its steady state",
		Args:  cobra.NoArgs,
		RunE:  runCSTR,
	}
	scenarioFlags(cstrCmd)
	cstrCmd.Flags().Float64Var(&mean, "mean", config.DefaultMeanResidence, "mean residence time")
	cstrCmd.Flags().Float64Var(&cstrDt, "dt", config.DefaultDt, "micro-step size")
	cstrCmd.Flags().Float64Var(&threshold, "threshold", config.DefaultThreshold, "convergence threshold on 1 - cosine similarity")
	cstrCmd.Flags().IntVar(&maxIterations, "max-iter", config.DefaultMaxIterations, "maximum outer iterations")
	cstrCmd.Flags().StringVar(&verbosity, "verbosity", "low", "diagnostics: low, medium, high, debug")
	cstrCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the result")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot concentrations of a stored batch run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringSliceVar(&plotSpecies, "species", nil, "species to plot (default all)")
	plotCmd.Flags().IntVar(&plotHeight, "height", 10, "chart height")
	plotCmd.Flags().IntVar(&plotWidth, "width", 80, "chart width")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id] [output]",
		Short: "export a batch trace as CSV",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id] [output]",
		Short: "export a run as JSON",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  exportJSON,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id] [output]",
		Short: "export a batch trace as an SVG chart",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().IntVar(&svgWidth, "width", 800, "image width")
	exportSVGCmd.Flags().IntVar(&svgHeight, "height", 400, "image height")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in scenarios",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "step a batch reactor in an interactive view",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	scenarioFlags(liveCmd)
	batchFlags(liveCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "run a batch reactor once per rate constant of one reaction",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	scenarioFlags(sweepCmd)
	batchFlags(sweepCmd)
	sweepCmd.Flags().IntVar(&sweepReaction, "reaction", 1, "reaction to vary (1-based)")
	sweepCmd.Flags().Float64SliceVar(&sweepK, "k", nil, "rate constants to try")
	sweepCmd.Flags().StringVar(&sweepMetric, "metric", "", "report the run minimising this metric ("+strings.Join(experiment.NewRegistry().ListMetrics(), ", ")+", or a trace key such as conversion_A)")
	_ = sweepCmd.MarkFlagRequired("k")

	rootCmd.AddCommand(runCmd, cstrCmd, listCmd, showCmd, plotCmd, exportCSVCmd, exportJSONCmd, exportSVGCmd, presetsCmd, liveCmd, sweepCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogging(debug bool) {
	slog.SetDefault(newLogger(os.Stderr, logLevel(debug, "")))
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// logLevel opens the handler to debug records when -v is set or the cstr verbosity asks
// for micro-step logging.
func logLevel(verbose bool, cstrVerbosity string) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	if v, err := reactor.ParseVerbosity(cstrVerbosity); err == nil && v >= reactor.Debug {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func scenarioFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "scenario file (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "built-in scenario")
}

func batchFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "time step")
	cmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of steps")
	cmd.Flags().StringVar(&source, "source", "cached", "rate source: cached or present")
	cmd.Flags().StringVar(&combine, "combine", "overwrite", "detector print combination: overwrite or accumulate")
}

// loadScenario resolves --preset or --config and applies explicitly set flags on top.
func loadScenario(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case preset != "" && configFile != "":
		return nil, fmt.Errorf("--preset and --config are mutually exclusive")
	case preset != "":
		var err error
		if cfg, err = experiment.GetScenario(preset); err != nil {
			return nil, fmt.Errorf("%w (available: %v)", err, config.ListPresets())
		}
	case configFile != "":
		var err error
		if cfg, err = config.Load(configFile); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	default:
		return nil, fmt.Errorf("a scenario is required: use --preset or --config")
	}

	flags := cmd.Flags()
	if cmd.Name() == "cstr" {
		if flags.Changed("mean") {
			cfg.CSTR.Mean = mean
		}
		if flags.Changed("dt") {
			cfg.CSTR.Dt = cstrDt
		}
		if flags.Changed("threshold") {
			cfg.CSTR.Threshold = threshold
		}
		if flags.Changed("max-iter") {
			cfg.CSTR.MaxIterations = maxIterations
		}
		if flags.Changed("verbosity") {
			cfg.CSTR.Verbosity = verbosity
		}
	} else {
		if flags.Changed("dt") {
			cfg.Batch.Dt = dt
		}
		if flags.Changed("steps") {
			cfg.Batch.Steps = steps
		}
		if flags.Changed("source") {
			cfg.Batch.Source = source
		}
		if flags.Changed("combine") {
			cfg.Batch.Combine = combine
		}
	}

	return cfg, cfg.Validate()
}

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func openStore() (*storage.Store, error) {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return nil, err
	}
	return st, nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(cmd)
	if err != nil {
		return err
	}
	exp, err := experiment.New(cfg)
	if err != nil {
		return err
	}

	theme := viz.GetTheme(themeName)
	out := cmd.OutOrStdout()
	exp.SetReporter(viz.NewReportPrinter(out, theme, cfg.Units.Concentration, cfg.Units.Time))

	ctx, cancel := signalContext(cmd)
	defer cancel()

	slog.Info("running batch reactor", "scenario", cfg.Name, "dt", cfg.Batch.Dt, "steps", cfg.Batch.Steps)
	trace, err := exp.RunBatch(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, viz.RenderTrace(trace, theme, cfg.Units.Concentration, cfg.Units.Time))

	if noSave {
		return nil
	}
	settings, err := cfg.BatchSettings()
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	runID, err := st.SaveBatch(cfg.Name, settings, trace)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "saved run %s\n", runID)
	return nil
}

func runCSTR(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(cmd)
	if err != nil {
		return err
	}
	exp, err := experiment.New(cfg)
	if err != nil {
		return err
	}

	if level := logLevel(verbose, cfg.CSTR.Verbosity); level < slog.LevelInfo {
		logger := newLogger(cmd.ErrOrStderr(), level)
		slog.SetDefault(logger)
		exp.SetLogger(logger)
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	slog.Info("solving cstr", "scenario", cfg.Name, "mean", cfg.CSTR.Mean, "dt", cfg.CSTR.Dt)
	res, err := exp.RunCSTR(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, viz.RenderCSTR(res, viz.GetTheme(themeName), cfg.Units.Concentration))

	if noSave {
		return nil
	}
	settings, err := cfg.CSTRSettings()
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	runID, err := st.SaveCSTR(cfg.Name, settings, res)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "saved run %s\n", runID)
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.List()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "no runs found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tKIND\tTIME\tDT\tSTEPS/ITER\tSTATUS")
	for _, run := range runs {
		count, status := run.Steps, "expired"
		switch {
		case run.Kind == storage.KindCSTR:
			count, status = run.Iterations, "not converged"
			if run.Converged {
				status = "converged"
			}
		case !run.Expired:
			status = "quenched"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.4g\t%d\t%s\n",
			run.ID,
			run.Scenario,
			run.Kind,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Dt,
			count,
			status,
		)
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	theme := viz.GetTheme(themeName)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s  %s  %s\n", meta.ID, meta.Scenario, meta.Timestamp.Format("2006-01-02 15:04:05"))

	if meta.Kind == storage.KindCSTR {
		fmt.Fprintln(out, viz.RenderCSTR(&reactor.CSTRResult{
			Species:    meta.Species,
			Outflow:    meta.Outflow,
			Iterations: meta.Iterations,
			MicroSteps: meta.MicroSteps,
			Score:      meta.Score,
			Converged:  meta.Converged,
		}, theme, config.DefaultConcUnit))
		return nil
	}

	trace, err := st.LoadTrace(meta.ID)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, viz.RenderTrace(trace, theme, config.DefaultConcUnit, config.DefaultTimeUnit))
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	trace, err := st.LoadTrace(args[0])
	if err != nil {
		return err
	}

	opts := viz.DefaultPlotOptions()
	opts.Species = plotSpecies
	opts.Height = plotHeight
	opts.Width = plotWidth
	opts.Theme = viz.GetTheme(themeName)

	chart, err := viz.PlotTrace(trace, opts)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), chart)
	return nil
}

// output returns the file named by args[1], or stdout.
func output(cmd *cobra.Command, args []string) (io.Writer, func() error, error) {
	if len(args) < 2 {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(args[1])
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	trace, err := st.LoadTrace(args[0])
	if err != nil {
		return err
	}

	w, closeFn, err := output(cmd, args)
	if err != nil {
		return err
	}
	if err := storage.WriteCSV(w, trace); err != nil {
		_ = closeFn()
		return err
	}
	if err := closeFn(); err != nil {
		return err
	}
	if len(args) == 2 {
		slog.Info("exported trace", "run", args[0], "path", args[1])
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	var trace *reactor.Trace
	if meta.Kind == storage.KindBatch {
		if trace, err = st.LoadTrace(meta.ID); err != nil {
			return err
		}
	}

	w, closeFn, err := output(cmd, args)
	if err != nil {
		return err
	}
	if err := storage.ExportJSON(w, meta, trace); err != nil {
		_ = closeFn()
		return err
	}
	if err := closeFn(); err != nil {
		return err
	}
	if len(args) == 2 {
		slog.Info("exported run", "run", args[0], "path", args[1])
	}
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	trace, err := st.LoadTrace(args[0])
	if err != nil {
		return err
	}

	w, closeFn, err := output(cmd, args)
	if err != nil {
		return err
	}
	if err := export.TraceSVG(w, trace, svgWidth, svgHeight); err != nil {
		_ = closeFn()
		return err
	}
	return closeFn()
}

func listPresets(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	for _, name := range config.ListPresets() {
		exp, err := experiment.New(config.GetPreset(name))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\n", name)
		for _, r := range exp.Reactions() {
			fmt.Fprintf(out, "  %s\n", r)
		}
		for _, d := range exp.Detectors() {
			fmt.Fprintf(out, "  detector %s %v\n", d, d.Expected)
		}
	}
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(cmd)
	if err != nil {
		return err
	}
	sweep, err := experiment.NewSweep(cfg, sweepReaction-1, sweepK)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	slog.Info("running sweep", "scenario", cfg.Name, "reaction", sweepReaction, "runs", len(sweepK))
	results, err := sweep.Run(ctx)
	if err != nil {
		return err
	}

	names := cfg.Species
	out := cmd.OutOrStdout()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprint(w, "K\tSTEPS\tSTATUS")
	for _, s := range names {
		fmt.Fprintf(w, "\t%s", s.Name)
	}
	fmt.Fprintln(w)
	for _, r := range results {
		status := "expired"
		if !r.Trace.Expired {
			status = "quenched"
		}
		fmt.Fprintf(w, "%g\t%d\t%s", r.K, r.Trace.Steps(), status)
		for _, c := range r.Trace.Final() {
			fmt.Fprintf(w, "\t%.6g", c)
		}
		fmt.Fprintln(w)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if sweepMetric != "" {
		best, key, err := sweep.Best(results, sweepMetric)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "lowest %s: k=%g (%.6g)\n", key, best.K, best.Trace.Metrics[key])
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(cmd)
	if err != nil {
		return err
	}
	exp, err := experiment.New(cfg)
	if err != nil {
		return err
	}
	settings, err := cfg.BatchSettings()
	if err != nil {
		return err
	}

	// Log output would tear the alternate screen.
	exp.SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	start := func() (*reactor.Session, error) {
		return exp.Batch().Start(settings)
	}
	m := viz.NewModel("chemgaloo: "+cfg.Name, start, viz.GetTheme(themeName), cfg.Units.Concentration)

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}
