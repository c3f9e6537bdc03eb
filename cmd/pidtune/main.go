package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/pidtune/internal/config"
	"github.com/san-kum/pidtune/internal/linsys"
	"github.com/san-kum/pidtune/internal/pipeline"
	"github.com/san-kum/pidtune/internal/process"
	"github.com/san-kum/pidtune/internal/storage"
)

var (
	configFile string
	preset     string
	logLevel   string
	dataDir    string

	// identification
	method     string
	window     int
	polyorder  int
	offset     float64
	datasetID  string
	datasetTag string

	// model
	gain  float64
	tau   float64
	theta float64

	// tuning and simulation
	lambda    float64
	rule      string
	simTime   float64
	numPoints int
	padeOrder int
	simMethod string

	// outputs
	pngOut  string
	svgOut  string
	csvOut  string
	jsonOut string

	windows []int
	addr    string

	// lambda sweep
	lambdaMin float64
	lambdaMax float64
	steps     int
	criterion string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "pidtune",
		Short:         "FOPDT identification and PID tuning from step-test data",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			level, err := cfg.Level()
			if err != nil {
				return err
			}
			logrus.SetLevel(level)
			logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "YAML config file")
	pf.StringVar(&preset, "preset", "", "named preset applied on top of the config")
	pf.StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	pf.StringVar(&dataDir, "data", "", "data directory (default from config, .pidtune)")

	importCmd := &cobra.Command{
		Use:   "import [csv]",
		Short: "store a step-test CSV (time, output, input)",
		Args:  cobra.ExactArgs(1),
		RunE:  importDataset,
	}
	importCmd.Flags().StringVar(&datasetTag, "name", "", "dataset name (default: file name)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored datasets",
		RunE:  listDatasets,
	}

	summaryCmd := &cobra.Command{
		Use:   "summary [dataset_id]",
		Short: "show ranges and a chart of a dataset",
		Args:  cobra.ExactArgs(1),
		RunE:  summarizeDataset,
	}

	identifyCmd := &cobra.Command{
		Use:   "identify [dataset_id]",
		Short: "identify a FOPDT model",
		Args:  cobra.ExactArgs(1),
		RunE:  identifyDataset,
	}
	addIdentifyFlags(identifyCmd)
	identifyCmd.Flags().StringVar(&pngOut, "png", "", "write the identification chart to this PNG")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "compute IMC and ITAE PID parameters",
		RunE:  tuneModel,
	}
	addModelFlags(tuneCmd)
	tuneCmd.Flags().StringVar(&rule, "rule", "", "only this rule (IMC or ITAE)")

	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "simulate one tuned closed loop",
		RunE:  simulateLoop,
	}
	addModelFlags(simulateCmd)
	addSimulationFlags(simulateCmd)
	simulateCmd.Flags().StringVar(&rule, "rule", string(process.RuleIMC), "tuning rule (IMC or ITAE)")

	compareCmd := &cobra.Command{
		Use:   "compare",
		Short: "simulate and compare the IMC and ITAE loops",
		RunE:  compareLoops,
	}
	addModelFlags(compareCmd)
	addSimulationFlags(compareCmd)
	addOutputFlags(compareCmd)

	filterCmd := &cobra.Command{
		Use:   "filter [dataset_id]",
		Short: "compare smoothing windows on a dataset",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeFilters,
	}
	filterCmd.Flags().IntSliceVar(&windows, "windows", nil, "window lengths (default 11,21,31,51)")
	filterCmd.Flags().IntVar(&polyorder, "polyorder", 2, "polynomial order")
	filterCmd.Flags().StringVar(&pngOut, "png", "", "write the filter chart to this PNG")

	runCmd := &cobra.Command{
		Use:   "run [dataset_id]",
		Short: "identify, tune and simulate a dataset end to end",
		Args:  cobra.ExactArgs(1),
		RunE:  runPipeline,
	}
	addIdentifyFlags(runCmd)
	addSimulationFlags(runCmd)
	addOutputFlags(runCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "serve the HTTP API",
		RunE:  serve,
	}
	serveCmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8000)")

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "interactive lambda tuner",
		RunE:  runTUI,
	}
	addModelFlags(tuiCmd)
	tuiCmd.Flags().Float64Var(&simTime, "time", pipeline.DefaultSimTime, "simulation time")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE:  listPresets,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [dataset_id]",
		Short: "run the pipeline and export the comparison as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	addIdentifyFlags(exportJSONCmd)
	addSimulationFlags(exportJSONCmd)
	exportJSONCmd.Flags().StringVarP(&jsonOut, "output", "o", "", "output file (default stdout)")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "search the IMC lambda that minimizes a criterion",
		RunE:  sweepLambda,
	}
	addModelFlags(sweepCmd)
	addSimulationFlags(sweepCmd)
	sweepCmd.Flags().Float64Var(&lambdaMin, "min", 0.2, "smallest lambda")
	sweepCmd.Flags().Float64Var(&lambdaMax, "max", 5, "largest lambda")
	sweepCmd.Flags().IntVar(&steps, "steps", 12, "number of lambdas (log spaced)")
	sweepCmd.Flags().StringVar(&criterion, "criterion", "iae", "criterion to minimize (iae, ise, itae, settling)")

	rootCmd.AddCommand(importCmd, listCmd, summaryCmd, identifyCmd, tuneCmd, simulateCmd, compareCmd,
		filterCmd, runCmd, serveCmd, tuiCmd, presetsCmd, exportJSONCmd, sweepCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func addIdentifyFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&method, "method", string(process.MethodSmith), "identification method (smith or sundaresan)")
	f.IntVar(&window, "window", 11, "Savitzky-Golay window length")
	f.IntVar(&polyorder, "polyorder", 3, "Savitzky-Golay polynomial order")
	f.Float64Var(&offset, "offset", 15, "percent of leading samples skipped")
	f.Float64Var(&lambda, "lambda", 1, "IMC closed-loop time constant")
}

func addModelFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Float64Var(&gain, "k", 1, "process gain")
	f.Float64Var(&tau, "tau", 1, "time constant")
	f.Float64Var(&theta, "theta", 0.5, "dead time")
	f.StringVar(&datasetID, "dataset", "", "identify the model from this dataset instead")
	f.Float64Var(&lambda, "lambda", 1, "IMC closed-loop time constant")
}

func addSimulationFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Float64Var(&simTime, "time", pipeline.DefaultSimTime, "simulation time")
	f.IntVar(&numPoints, "points", pipeline.DefaultNumPoints, "number of samples")
	f.IntVar(&padeOrder, "pade", 20, "Padé order of the dead-time approximation")
	f.StringVar(&simMethod, "sim-method", string(linsys.MethodZOH), "simulation method (zoh or rk4)")
}

func addOutputFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&pngOut, "png", "", "write the response chart to this PNG")
	f.StringVar(&svgOut, "svg", "", "write the response chart to this SVG")
	f.StringVar(&csvOut, "csv", "", "write the responses to this CSV")
}

// loadConfig resolves defaults, the config file, the preset and finally any
// flag the user set explicitly, in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if preset != "" && !cfg.Apply(preset) {
		return nil, fmt.Errorf("unknown preset: %s (available: %s)", preset, strings.Join(config.ListPresets(), ", "))
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("method") {
		cfg.Identification.Method = method
	}
	if flags.Changed("window") {
		cfg.Smoothing.WindowLength = window
	}
	if flags.Changed("polyorder") && cmd.Name() != "filter" {
		cfg.Smoothing.PolynomialOrder = polyorder
	}
	if flags.Changed("offset") {
		cfg.Identification.OffsetPercent = offset
	}
	if flags.Changed("lambda") {
		cfg.Tuning.Lambda = lambda
	}
	if flags.Changed("time") {
		cfg.Simulation.SimTime = simTime
	}
	if flags.Changed("points") {
		cfg.Simulation.NumPoints = numPoints
	}
	if flags.Changed("pade") {
		cfg.Simulation.PadeOrder = padeOrder
	}
	if flags.Changed("sim-method") {
		cfg.Simulation.Method = simMethod
	}
	if dataDir != "" {
		cfg.Server.DataDir = dataDir
	}
	if flags.Changed("addr") {
		cfg.Server.Addr = addr
	}
	return cfg, nil
}

func loadPipeline(cmd *cobra.Command) (*config.Config, pipeline.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, pipeline.Config{}, err
	}
	pc, err := cfg.Pipeline()
	if err != nil {
		return nil, pipeline.Config{}, err
	}
	return cfg, pc, nil
}

func openStore(cfg *config.Config) (*storage.Store, error) {
	st := storage.New(cfg.Server.DataDir)
	if err := st.Init(); err != nil {
		return nil, err
	}
	return st, nil
}

// resolveModel returns the model given by --k/--tau/--theta, or the one
// identified from --dataset.
func resolveModel(cfg *config.Config, pc pipeline.Config) (process.FOPDT, error) {
	if datasetID == "" {
		m := process.FOPDT{Gain: gain, TimeConstant: tau, DeadTime: theta}
		return m, m.Validate()
	}
	st, err := openStore(cfg)
	if err != nil {
		return process.FOPDT{}, err
	}
	exp, err := st.LoadExperiment(datasetID)
	if err != nil {
		return process.FOPDT{}, err
	}
	id, err := pipeline.Identify(exp, pc.Method, pc.OffsetPercent, pc.Smoothing)
	if err != nil {
		return process.FOPDT{}, err
	}
	fmt.Printf("identified (%s): %s\n", id.Method, id.Model)
	return id.Model, nil
}
