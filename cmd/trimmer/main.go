// Command trimmer cuts the raw transactions feed down to one month, shifting
// sale dates from the source year first, and writes the slice as a CSV the
// processor can load.
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

	"salespulse/internal/config"
	"salespulse/internal/dataprocessing"
	"salespulse/internal/exporter"
	"salespulse/internal/infrastructure"
	"salespulse/internal/loader"
)

type options struct {
	configFile string
	in         string
	out        string
	year       int
	month      int
	sourceYear int
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("trimmer", flag.ContinueOnError)
	fs.StringVar(&o.configFile, "config", "", "YAML config file (defaults to $"+config.ConfigFileEnv+" or ./config.yaml)")
	fs.StringVar(&o.in, "in", "", "transactions file (defaults to the configured one)")
	fs.StringVar(&o.out, "out", "", "output CSV (defaults to trimmed_sales_<period>.csv in the reports dir)")
	fs.IntVar(&o.year, "year", 0, "target year")
	fs.IntVar(&o.month, "month", 0, "target month (1-12)")
	fs.IntVar(&o.sourceYear, "source-year", -1, "year the raw dates belong to, 0 for no shift")
	return o, fs.Parse(args)
}

// period merges the flags over the configured period
func (o options) period(cfg *config.Config) dataprocessing.Period {
	p := dataprocessing.Period{
		TargetYear:  cfg.Period.TargetYear,
		TargetMonth: cfg.Period.TargetMonth,
		SourceYear:  cfg.Period.SourceYear,
	}
	if o.year != 0 {
		p.TargetYear = o.year
	}
	if o.month != 0 {
		p.TargetMonth = o.month
	}
	if o.sourceYear >= 0 {
		p.SourceYear = o.sourceYear
	}
	return p
}

func run(ctx context.Context, o options, cfg *config.Config, logger *slog.Logger, stdout io.Writer) (*dataprocessing.TrimResult, string, error) {
	paths := cfg.GetPaths()
	period := o.period(cfg)
	if err := period.Validate(); err != nil {
		return nil, "", err
	}

	in := o.in
	if in == "" {
		in = paths.TransactionsFile
	}
	out := o.out
	if out == "" {
		if err := paths.EnsureDirectories(); err != nil {
			return nil, "", err
		}
		out = paths.TrimmedCSV(period.Label())
	}

	records, err := loader.NewLoader(logger).LoadTransactions(ctx, in)
	if err != nil {
		return nil, "", err
	}

	res, err := dataprocessing.TrimToPeriod(records, period)
	if err != nil {
		return nil, "", err
	}
	for _, w := range res.Warnings {
		logger.WarnContext(ctx, w.Message, slog.String("code", string(w.Code)), slog.Int("count", w.Count))
	}

	written, err := exporter.NewSalesExporter(paths, logger).ExportTransactions(res.Transactions, out)
	if err != nil {
		return res, "", err
	}

	logger.InfoContext(ctx, "transactions trimmed",
		slog.String("period", period.Label()),
		slog.Int("input_rows", res.InputRows),
		slog.Int("missing_dates", res.MissingDates),
		slog.Int("shifted", res.Shifted),
		slog.Int("kept", res.Kept),
		slog.String("output", written))
	fmt.Fprintf(stdout, "%s: kept %d of %d rows (%d without a date, %d shifted) -> %s\n",
		period.Label(), res.Kept, res.InputRows, res.MissingDates, res.Shifted, written)
	return res, written, nil
}

func main() {
	o, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	file := o.configFile
	if file == "" {
		file = os.Getenv(config.ConfigFileEnv)
	}
	cfg, err := config.LoadFile(file)
	if err != nil {
		slog.Error("Failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		logger = slog.Default()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	_, _, err = run(ctx, o, cfg, logger, os.Stdout)
	stop()
	infrastructure.CloseLogFile()
	if err != nil {
		slog.Error("Trim failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
