package cmd

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stockflow-sim/stockflow/sim"
)

var (
	// Persistent flags
	logLevel    string            // Log verbosity level
	logFile     string            // Rotating log file path (empty = stderr)
	logRotation LogRotationConfig // Rotation settings for logFile

	// Configuration sources
	presetName  string // Named preset from presetsPath
	presetsPath string // Path to presets.yaml
	configPath  string // Explicit YAML config file

	// Run outputs
	steps       int    // Steps to run; overrides duration when set
	stocksOut   string // Stock history CSV path
	flowsOut    string // Flow history CSV path
	headerOut   string // Trace header YAML path
	metricsOut  string // Prometheus textfile path
	summaryJSON bool   // Print the summary as JSON

	logCloser io.Closer
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "stockflow",
	Short: "Discrete-time stock and flow simulator for software delivery",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		closer, err := setupLogging(logLevel, logFile, logRotation)
		if err != nil {
			logrus.Fatalf("Failed to set up logging (level=%q file=%q): %v", logLevel, logFile, err)
		}
		logCloser = closer
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			_ = logCloser.Close()
		}
	},
}

// resolveConfig layers the parameters for cmd and validates them.
func resolveConfig(cmd *cobra.Command) sim.Config {
	src := configSources{Preset: presetName, PresetsPath: presetsPath, ConfigPath: configPath}
	params, err := loadParams(viper.New(), cmd.Flags(), src)
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	cfg, err := sim.NewConfig(params)
	if err != nil {
		logrus.Fatalf("%v", err)
	}
	return cfg
}

// runCmd executes the simulation using the layered configuration
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the stock and flow simulation",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := resolveConfig(cmd)
		logrus.Infof("Starting simulation: duration=%d params=%+v", cfg.Duration(), cfg.Params())

		engine := sim.NewEngine(cfg)
		if cmd.Flags().Changed("steps") {
			engine.RunSteps(steps)
		} else {
			engine.Run()
		}

		if err := writeOutputs(cmd.OutOrStdout(), engine, outputOptions{
			Preset:      presetName,
			HeaderPath:  headerOut,
			StocksPath:  stocksOut,
			FlowsPath:   flowsOut,
			MetricsPath: metricsOut,
			JSON:        summaryJSON,
		}); err != nil {
			logrus.Fatalf("Failed to write results: %v", err)
		}
		logrus.Info("Simulation complete.")
	},
}

// validateCmd checks the layered configuration without running it
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the simulation configuration",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := resolveConfig(cmd)
		printConfig(cmd.OutOrStdout(), cfg)
	},
}

// presetsCmd lists the presets available in the presets file
var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List available configuration presets",
	Run: func(cmd *cobra.Command, args []string) {
		pf, err := loadPresetsFile(presetsPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		printPresets(cmd.OutOrStdout(), pf)
	},
}

var (
	traceHeaderPath string
	traceStocksPath string
	traceFlowsPath  string
)

// summarizeCmd re-summarizes an exported run
var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Summarize a previously exported run",
	Run: func(cmd *cobra.Command, args []string) {
		if err := summarizeTrace(cmd.OutOrStdout(), traceHeaderPath, traceStocksPath, traceFlowsPath, summaryJSON); err != nil {
			logrus.Fatalf("Failed to summarize trace: %v", err)
		}
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to a rotating file instead of stderr")
	rootCmd.PersistentFlags().IntVar(&logRotation.MaxSizeMB, "log-max-size", DefaultLogMaxSizeMB, "Megabytes before the log file is rotated")
	rootCmd.PersistentFlags().IntVar(&logRotation.MaxBackups, "log-max-backups", DefaultLogMaxBackups, "Rotated log files to keep")
	rootCmd.PersistentFlags().IntVar(&logRotation.MaxAgeDays, "log-max-age", DefaultLogMaxAgeDays, "Days to keep rotated log files")
	rootCmd.PersistentFlags().BoolVar(&logRotation.Compress, "log-compress", false, "Gzip rotated log files")
	rootCmd.PersistentFlags().StringVar(&presetsPath, "presets-filepath", "presets.yaml", "Path to presets.yaml")

	for _, c := range []*cobra.Command{runCmd, validateCmd} {
		addParamFlags(c.Flags())
		c.Flags().StringVar(&presetName, "preset", "", "Named preset from the presets file")
		c.Flags().StringVar(&configPath, "config", "", "YAML file of simulation parameters")
	}

	runCmd.Flags().IntVar(&steps, "steps", 0, "Steps to run (default: duration)")
	runCmd.Flags().StringVar(&stocksOut, "stocks-out", "", "Write stock history CSV to this path")
	runCmd.Flags().StringVar(&flowsOut, "flows-out", "", "Write flow history CSV to this path")
	runCmd.Flags().StringVar(&headerOut, "header-out", "", "Write trace header YAML to this path")
	runCmd.Flags().StringVar(&metricsOut, "metrics-out", "", "Write Prometheus textfile metrics to this path")
	runCmd.Flags().BoolVar(&summaryJSON, "json", false, "Print the run summary as JSON")

	summarizeCmd.Flags().StringVar(&traceHeaderPath, "header", "", "Trace header YAML")
	summarizeCmd.Flags().StringVar(&traceStocksPath, "stocks", "", "Stock history CSV")
	summarizeCmd.Flags().StringVar(&traceFlowsPath, "flows", "", "Flow history CSV")
	summarizeCmd.Flags().BoolVar(&summaryJSON, "json", false, "Print the summary as JSON")
	_ = summarizeCmd.MarkFlagRequired("header")
	_ = summarizeCmd.MarkFlagRequired("stocks")
	_ = summarizeCmd.MarkFlagRequired("flows")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(presetsCmd)
	rootCmd.AddCommand(summarizeCmd)
}
