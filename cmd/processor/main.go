// Command processor runs the sales pipeline once and writes the report files:
// the normalized dataset, the ABC classification and tier summary CSVs and
// the Excel workbook.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"salespulse/internal/config"
	"salespulse/internal/dataprocessing"
	"salespulse/internal/infrastructure"
	"salespulse/internal/pipeline"
)

type options struct {
	configFile string
	dataDir    string
	reportsDir string
	all        bool
	year       int
	month      int
	noExport   bool
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("processor", flag.ContinueOnError)
	fs.StringVar(&o.configFile, "config", "", "YAML config file (defaults to $"+config.ConfigFileEnv+" or ./config.yaml)")
	fs.StringVar(&o.dataDir, "data", "", "directory holding the input tables")
	fs.StringVar(&o.reportsDir, "out", "", "directory for report files")
	fs.BoolVar(&o.all, "all", false, "analyse the whole feed instead of one month")
	fs.IntVar(&o.year, "year", 0, "target year of the analysed month")
	fs.IntVar(&o.month, "month", 0, "target month (1-12)")
	fs.BoolVar(&o.noExport, "no-export", false, "run without writing report files")
	return o, fs.Parse(args)
}

// loadConfig applies the command line on top of the loaded configuration
func loadConfig(o options) (*config.Config, error) {
	file := o.configFile
	if file == "" {
		file = os.Getenv(config.ConfigFileEnv)
	}
	cfg, err := config.LoadFile(file)
	if err != nil {
		return nil, err
	}
	if o.dataDir != "" {
		cfg.Paths.DataDir = o.dataDir
	}
	if o.reportsDir != "" {
		cfg.Paths.ReportsDir = o.reportsDir
	}
	if o.all {
		cfg.Period.Enabled = false
	}
	if o.year != 0 {
		cfg.Period.TargetYear = o.year
	}
	if o.month != 0 {
		cfg.Period.TargetMonth = o.month
	}
	return cfg, cfg.Validate()
}

func run(ctx context.Context, o options, cfg *config.Config, logger *slog.Logger, stdout io.Writer) (*pipeline.RunResult, error) {
	paths := cfg.GetPaths()
	if err := paths.EnsureDirectories(); err != nil {
		return nil, err
	}

	opts := pipeline.OptionsFromConfig(cfg)
	opts.Export = !o.noExport

	runner, err := pipeline.NewRunner(opts, pipeline.Dependencies{
		Logger:     logger,
		Reporter:   pipeline.NewLogReporter(logger),
		Forecaster: dataprocessing.NewTrendWeekdayForecaster(),
	})
	if err != nil {
		return nil, err
	}

	res, err := runner.Run(ctx)
	if res != nil {
		printSummary(stdout, res)
	}
	return res, err
}

func printSummary(w io.Writer, res *pipeline.RunResult) {
	fmt.Fprintf(w, "Run %s (%s): %s in %s\n", res.RunID, res.Period, res.Status, res.Duration().Round(time.Millisecond))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STEP\tSTATUS\tMESSAGE")
	for _, s := range res.Steps {
		msg := s.Message
		if s.Error != "" {
			msg = s.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.ID, s.Status, msg)
	}
	tw.Flush()

	if res.Classification != nil {
		fmt.Fprintln(w)
		tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "TIER\tPRODUCTS\tREVENUE\tSHARE %\t")
		for _, s := range res.Classification.Summary {
			fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.2f\t\n", s.Tier, s.ProductCount, s.TotalRevenue, s.PercentageOfTotalRevenue)
		}
		tw.Flush()
	}

	for _, warn := range res.Warnings {
		fmt.Fprintf(w, "warning [%s/%s]: %s\n", warn.Stage, warn.Code, warn.Message)
	}
	for _, out := range res.Outputs {
		fmt.Fprintf(w, "wrote %s\n", out)
	}
}

func main() {
	o, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	cfg, err := loadConfig(o)
	if err != nil {
		slog.Error("Failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", slog.String("error", err.Error()))
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := run(ctx, o, cfg, logger, os.Stdout); err != nil {
		logger.Error("Processing failed", slog.String("error", err.Error()))
		stop()
		infrastructure.CloseLogFile()
		os.Exit(1)
	}
}
