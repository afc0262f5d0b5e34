package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/expcgm/internal/config"
	"github.com/san-kum/expcgm/internal/logging"
	"github.com/san-kum/expcgm/internal/profile"
	"github.com/san-kum/expcgm/internal/registry"
	"github.com/san-kum/expcgm/internal/report"
	"github.com/san-kum/expcgm/internal/solver"
	"github.com/san-kum/expcgm/internal/storage"
	"github.com/san-kum/expcgm/internal/sweep"
)

var (
	dataDir    string
	verbose    bool
	configFile string
	preset     string
	// model overrides
	shapeKind       string
	alpha           float64
	potentialKind   string
	thermalFraction float64
	nonThermalRatio float64
	epsilon         float64
	integrator      string
	// output
	noSave  bool
	series  []string
	height  int
	width   int
	params  []string
	workers int
	target  float64
	// export-svg
	svgSeries string
	svgWidth  int
	svgHeight int

	logger = zap.NewNop()
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "expcgm",
		Short:         "equilibrium pressure profiles for circumgalactic gas",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := logging.New(verbose)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".expcgm", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	solveCmd := &cobra.Command{
		Use:   "solve [target...]",
		Short: "solve for x_cgm and the pressure normalization at each target energy",
		RunE:  solve,
	}
	addModelFlags(solveCmd)
	solveCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	tableCmd := &cobra.Command{
		Use:   "table",
		Short: "print the tabulated integrals",
		RunE:  printTable,
	}
	addModelFlags(tableCmd)

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "validate a configuration and report table diagnostics",
		RunE:  check,
	}
	addModelFlags(checkCmd)

	shapeCmd := &cobra.Command{
		Use:   "shape",
		Short: "plot the pressure slope alpha(x)",
		RunE:  plotShape,
	}
	addModelFlags(shapeCmd)
	addPlotFlags(shapeCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "solve one target over a grid of model parameters",
		RunE:  runSweep,
	}
	addModelFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&params, "param", nil, "parameter grid, e.g. alpha=1,1.5,2 (repeatable)")
	sweepCmd.Flags().Float64Var(&target, "target", 3.5, "target specific energy")
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "concurrent solves (0 = GOMAXPROCS)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
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
		Short: "plot a stored profile",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	addPlotFlags(plotCmd)
	plotCmd.Flags().StringSliceVar(&series, "series", []string{"F", "norm"}, "series to plot (F, norm, I)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export a stored profile to CSV on stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id] [path]",
		Short: "export a stored run to JSON (stdout when no path)",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  exportJSON,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id] [path]",
		Short: "export one series of a stored profile to SVG",
		Args:  cobra.ExactArgs(2),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVar(&svgSeries, "series", "F", "series to draw (F, norm, I)")
	exportSVGCmd.Flags().IntVar(&svgWidth, "width", 800, "image width")
	exportSVGCmd.Flags().IntVar(&svgHeight, "height", 400, "image height")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("presets:")
			for _, p := range config.ListPresets() {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	rootCmd.AddCommand(solveCmd, tableCmd, checkCmd, shapeCmd, sweepCmd, listCmd, showCmd, plotCmd, exportCSVCmd, exportJSONCmd, exportSVGCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func addModelFlags(cmd *cobra.Command) {
	def := config.DefaultConfig()
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml or toml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().StringVar(&shapeKind, "shape", def.Shape.Kind, "pressure shape (constant, generalized, tabulated)")
	cmd.Flags().Float64Var(&alpha, "alpha", def.Shape.Alpha, "constant pressure slope")
	cmd.Flags().StringVar(&potentialKind, "potential", def.Potential.Kind, "potential (nfw, hernquist, isothermal, nfw+hernquist)")
	cmd.Flags().Float64Var(&thermalFraction, "thermal-fraction", def.Support.ThermalFraction, "thermal share of pressure support")
	cmd.Flags().Float64Var(&nonThermalRatio, "nonthermal-ratio", def.Support.NonThermalRatio, "energy per unit non-thermal pressure")
	cmd.Flags().Float64Var(&epsilon, "epsilon", def.Solver.Epsilon, "inner integration cutoff")
	cmd.Flags().StringVar(&integrator, "integrator", def.Solver.Integrator, "integrator (kronrod, legendre)")
}

func addPlotFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&height, "height", report.DefaultHeight, "plot height")
	cmd.Flags().IntVar(&width, "width", report.DefaultWidth, "plot width")
}

// loadConfig layers defaults, preset, config file and changed flags, in
// that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.LoadOver(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("shape") {
		cfg.Shape.Kind = shapeKind
	}
	if flags.Changed("alpha") {
		cfg.Shape.Kind = config.ShapeConstant
		cfg.Shape.Alpha = alpha
	}
	if flags.Changed("potential") {
		cfg.Potential.Kind = potentialKind
	}
	if flags.Changed("thermal-fraction") {
		cfg.Support.ThermalFraction = thermalFraction
	}
	if flags.Changed("nonthermal-ratio") {
		cfg.Support.NonThermalRatio = nonThermalRatio
	}
	if flags.Changed("epsilon") {
		cfg.Solver.Epsilon = epsilon
	}
	if flags.Changed("integrator") {
		cfg.Solver.Integrator = integrator
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildSolver(cmd *cobra.Command) (*config.Config, *solver.Solver, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	s, err := registry.New().Solver(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return cfg, s, nil
}

func parseTargets(args []string, fallback []float64) ([]float64, error) {
	if len(args) == 0 {
		if len(fallback) == 0 {
			return nil, errors.New("no target energies given")
		}
		return fallback, nil
	}
	targets := make([]float64, len(args))
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid target %q: %w", a, err)
		}
		targets[i] = v
	}
	return targets, nil
}

func solve(cmd *cobra.Command, args []string) error {
	cfg, s, err := buildSolver(cmd)
	if err != nil {
		return err
	}
	targets, err := parseTargets(args, cfg.Targets)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	points, err := sweep.New(workers, logger).Targets(ctx, s, targets)
	if err != nil {
		return err
	}

	var eqs []profile.Equilibrium
	var failures []storage.Failure
	for _, p := range points {
		if p.OK() {
			eqs = append(eqs, p.Equilibrium)
		} else {
			failures = append(failures, storage.Failure{Target: targets[p.Index], Error: p.Err.Error()})
		}
	}

	fmt.Println(report.Equilibria(fmt.Sprintf("%s: %s / %s", cfg.Name, cfg.Shape.Kind, cfg.Potential.Kind), eqs, failures))

	if noSave {
		return nil
	}

	tab, err := s.Table()
	if err != nil {
		return err
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(storage.RunMetadata{
		Name:       cfg.Name,
		Shape:      cfg.Shape.Kind,
		Potential:  cfg.Potential.Kind,
		Integrator: cfg.Solver.Integrator,
		Params:     cfg.Params(),
		Equilibria: eqs,
		Failures:   failures,
	}, tab)
	if err != nil {
		return err
	}
	fmt.Println(report.Subtle.Render("saved: " + runID))
	return nil
}

func printTable(cmd *cobra.Command, args []string) error {
	_, s, err := buildSolver(cmd)
	if err != nil {
		return err
	}
	tab, err := s.Table()
	if err != nil {
		return err
	}
	rows := make([]profile.Integrals, tab.Len())
	for i := range rows {
		rows[i] = tab.At(i)
	}
	return report.WriteTable(os.Stdout, rows)
}

func check(cmd *cobra.Command, args []string) error {
	cfg, s, err := buildSolver(cmd)
	if err != nil {
		return err
	}
	tab, err := s.Table()
	if err != nil {
		return err
	}
	fmt.Println(report.Title.Render(fmt.Sprintf("%s: %s / %s", cfg.Name, cfg.Shape.Kind, cfg.Potential.Kind)))
	fmt.Println(report.Diagnostics(tab.Diagnostics()))
	if ok, _ := tab.Monotonic(); !ok {
		return fmt.Errorf("%w: roots may not be unique", profile.ErrNonMonotonic)
	}
	return nil
}

func plotShape(cmd *cobra.Command, args []string) error {
	cfg, s, err := buildSolver(cmd)
	if err != nil {
		return err
	}
	return report.PlotShape(os.Stdout, s.Shape(), cfg.Solver.XMin, cfg.Solver.XMax, width, height, width)
}

func parseGrid(args []string) (*sweep.Grid, error) {
	if len(args) == 0 {
		return nil, errors.New("at least one --param is required")
	}
	grid := sweep.NewGrid()
	for _, arg := range args {
		name, list, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --param %q, want name=v1,v2", arg)
		}
		var values []float64
		for _, field := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid --param %q: %w", arg, err)
			}
			values = append(values, v)
		}
		grid.Add(name, values...)
	}
	return grid, nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	grid, err := parseGrid(params)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cases := registry.New().Cases(cfg, grid, logger)
	points, err := sweep.New(workers, logger).Cases(ctx, cases, target)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PARAMS\tX_CGM\tP0\tSTATUS")
	for _, p := range points {
		if p.OK() {
			fmt.Fprintf(w, "%s\t%.6g\t%.6g\tok\n", p.Label, p.Equilibrium.X, p.Equilibrium.PressureNorm)
		} else {
			fmt.Fprintf(w, "%s\t-\t-\t%v\n", p.Label, p.Err)
		}
	}
	return w.Flush()
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
	fmt.Fprintln(w, "ID\tSHAPE\tPOTENTIAL\tTIME\tSOLVED\tFAILED")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\n",
			run.ID,
			run.Shape,
			run.Potential,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			len(run.Equilibria),
			len(run.Failures),
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	meta, err := storage.New(dataDir).Load(args[0])
	if err != nil {
		return err
	}
	fmt.Println(report.Run(*meta))
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	rows, err := st.LoadProfile(args[0])
	if err != nil {
		return err
	}

	selected := make([]report.Series, 0, len(series))
	for _, name := range series {
		s, err := report.SeriesByName(name)
		if err != nil {
			return err
		}
		selected = append(selected, s)
	}

	fmt.Printf("run: %s\n\n", args[0])
	return report.Plot(os.Stdout, rows, height, width, selected...)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	rows, err := storage.New(dataDir).LoadProfile(args[0])
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no data to export")
	}
	return storage.WriteProfile(os.Stdout, rows)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	rows, err := st.LoadProfile(args[0])
	if err != nil {
		return err
	}

	if len(args) == 2 {
		if err := storage.ExportJSON(args[1], *meta, rows); err != nil {
			return err
		}
		fmt.Printf("exported %d rows to %s\n", len(rows), args[1])
		return nil
	}
	return storage.EncodeJSON(os.Stdout, *meta, rows)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	rows, err := storage.New(dataDir).LoadProfile(args[0])
	if err != nil {
		return err
	}
	s, err := report.SeriesByName(svgSeries)
	if err != nil {
		return err
	}

	svg := report.SVG(rows, s, svgWidth, svgHeight, "#00ff88")
	if svg == "" {
		return fmt.Errorf("no data to export")
	}
	if err := os.WriteFile(args[1], []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("saved: %s\n", args[1])
	return nil
}
