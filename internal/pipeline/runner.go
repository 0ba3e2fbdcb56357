package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"salespulse/internal/config"
	"salespulse/internal/dataprocessing"
	apperrors "salespulse/internal/errors"
	"salespulse/internal/exporter"
	"salespulse/internal/infrastructure"
	"salespulse/internal/loader"
	"salespulse/pkg/contracts/domain"
)

// Options selects the inputs and tuning of a run
type Options struct {
	Sources    loader.Sources
	Period     *dataprocessing.Period // nil analyses the whole feed
	Filter     dataprocessing.Filter
	Thresholds domain.TierThresholds
	Reports    dataprocessing.ReportConfig

	// Export writes the report files under Paths.ReportsDir
	Export bool
	Paths  *config.Paths
}

// OptionsFromConfig maps the application config onto run options
func OptionsFromConfig(cfg *config.Config) Options {
	paths := cfg.GetPaths()
	opts := Options{
		Sources: loader.Sources{
			Transactions: paths.TransactionsFile,
			Products:     paths.ProductsFile,
			Categories:   paths.CategoriesFile,
		},
		Filter: dataprocessing.Filter{
			Denylist:  cfg.Domain.Denylist,
			Allowlist: cfg.Domain.Allowlist,
		},
		Thresholds: cfg.Domain.TierThresholds,
		Reports: dataprocessing.ReportConfig{
			COGSRatio:           cfg.Analysis.COGSRatio,
			TopN:                cfg.Analysis.TopN,
			ForecastHorizonDays: cfg.Analysis.ForecastHorizonDays,
		},
		Export: true,
		Paths:  paths,
	}
	if cfg.Period.Enabled {
		opts.Period = &dataprocessing.Period{
			TargetYear:  cfg.Period.TargetYear,
			TargetMonth: cfg.Period.TargetMonth,
			SourceYear:  cfg.Period.SourceYear,
		}
	}
	return opts
}

// Label names the run's period in file names and API responses
func (o Options) Label() string {
	if o.Period == nil {
		return "all"
	}
	return o.Period.Label()
}

// Dependencies are the collaborators a Runner may share with the rest of
// the process. Every field is optional.
type Dependencies struct {
	Logger     *slog.Logger
	Reporter   ProgressReporter
	Metrics    *infrastructure.PipelineMetrics
	Forecaster dataprocessing.Forecaster
}

// RunResult is everything one run produced. ClassificationErr is set instead
// of Classification when the period had no revenue to rank.
type RunResult struct {
	RunID      string           `json:"run_id"`
	Status     RunStatus        `json:"status"`
	Period     string           `json:"period"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Steps      []*StepState     `json:"steps"`
	Load       loader.Stats     `json:"load"`
	Warnings   []domain.Warning `json:"warnings"`
	Outputs    []string         `json:"outputs,omitempty"`
	Error      string           `json:"error,omitempty"`

	Trim              *dataprocessing.TrimResult           `json:"trim,omitempty"`
	Normalization     *dataprocessing.NormalizationResult  `json:"-"`
	Classification    *dataprocessing.ClassificationResult `json:"-"`
	ClassificationErr error                                `json:"-"`
	Reports           *dataprocessing.Reports              `json:"-"`
}

// Step returns the state of step id, or nil
func (r *RunResult) Step(id string) *StepState {
	for _, s := range r.Steps {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// Duration is the wall time of the run
func (r *RunResult) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Runner executes load, trim, normalize, classify, analytics, forecast and
// export as tracked steps
type Runner struct {
	opts       Options
	loader     *loader.Loader
	normalizer *dataprocessing.Normalizer
	classifier *dataprocessing.Classifier
	reports    *dataprocessing.ReportBuilder
	sales      *exporter.SalesExporter
	workbook   *exporter.WorkbookExporter
	reporter   ProgressReporter
	metrics    *infrastructure.PipelineMetrics
	tracer     trace.Tracer
	logger     *slog.Logger
}

// NewRunner validates opts and wires the stages. Invalid thresholds or an
// invalid period are reported here rather than at run time.
func NewRunner(opts Options, deps Dependencies) (*Runner, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Period != nil {
		if err := opts.Period.Validate(); err != nil {
			return nil, err
		}
	}
	if opts.Export && opts.Paths == nil {
		return nil, apperrors.NewConfigError("export requires report paths", nil)
	}

	classifier, err := dataprocessing.NewClassifier(opts.Thresholds, logger)
	if err != nil {
		return nil, err
	}

	reporter := deps.Reporter
	if reporter == nil {
		reporter = NewLogReporter(logger)
	}

	return &Runner{
		opts:       opts,
		loader:     loader.NewLoader(logger),
		normalizer: dataprocessing.NewNormalizer(logger),
		classifier: classifier,
		reports:    dataprocessing.NewReportBuilder(logger, opts.Reports, deps.Forecaster),
		sales:      exporter.NewSalesExporter(opts.Paths, logger),
		workbook:   exporter.NewWorkbookExporter(logger),
		reporter:   reporter,
		metrics:    deps.Metrics,
		tracer:     otel.Tracer(infrastructure.TracerName),
		logger:     logger.With(slog.String("component", "pipeline")),
	}, nil
}

// Options returns the options the runner was built with
func (r *Runner) Options() Options {
	return r.opts
}

// Run executes every step once. Load and normalize failures are fatal: the
// remaining steps are skipped and the error is returned together with the
// partial result. A period without revenue fails only the classify step.
func (r *Runner) Run(ctx context.Context) (*RunResult, error) {
	res := &RunResult{
		RunID:     infrastructure.GenerateRunID(),
		Status:    RunStatusRunning,
		Period:    r.opts.Label(),
		StartedAt: time.Now(),
	}
	for _, id := range StepOrder {
		res.Steps = append(res.Steps, NewStepState(id))
	}

	ctx = infrastructure.EnsureTraceID(infrastructure.WithRunID(ctx, res.RunID))
	ctx, span := r.tracer.Start(ctx, "pipeline.run", trace.WithAttributes(
		attribute.String("run.id", res.RunID),
		attribute.String("run.period", res.Period),
	))
	defer span.End()

	r.logger.InfoContext(ctx, "pipeline run started", slog.String("period", res.Period))
	r.reporter.BroadcastUpdate(EventRunStarted, "", string(RunStatusRunning), map[string]interface{}{
		"run_id": res.RunID,
		"period": res.Period,
	})

	if err := r.execute(ctx, res); err != nil {
		r.finish(ctx, res, RunStatusFailed, err)
		infrastructure.RecordError(ctx, err)
		return res, err
	}

	status := RunStatusCompleted
	if res.ClassificationErr != nil {
		status = RunStatusPartial
	}
	r.finish(ctx, res, status, nil)
	return res, nil
}

func (r *Runner) execute(ctx context.Context, res *RunResult) error {
	var data *domain.ReferenceData

	if err := r.step(ctx, res, StepLoad, func(ctx context.Context, s *StepState) error {
		loaded, stats, err := r.loader.LoadAll(ctx, r.opts.Sources)
		if err != nil {
			return err
		}
		data, res.Load = loaded, stats
		s.Metadata["transactions"] = stats.Transactions
		s.Metadata["products"] = stats.Products
		s.Metadata["categories"] = stats.Categories
		r.metrics.RecordRows(ctx, StepLoad, "input", stats.Transactions)
		return nil
	}); err != nil {
		return err
	}

	if err := r.step(ctx, res, StepTrim, func(ctx context.Context, s *StepState) error {
		if r.opts.Period == nil {
			s.Skip("period trimming disabled")
			return nil
		}
		trimmed, err := dataprocessing.TrimToPeriod(data.Transactions, *r.opts.Period)
		if err != nil {
			return err
		}
		res.Trim = trimmed
		res.Warnings = append(res.Warnings, trimmed.Warnings...)
		data.Transactions = trimmed.Transactions
		s.Metadata["input_rows"] = trimmed.InputRows
		s.Metadata["kept"] = trimmed.Kept
		s.Metadata["missing_dates"] = trimmed.MissingDates
		r.metrics.RecordRows(ctx, StepTrim, "input", trimmed.InputRows)
		r.metrics.RecordRows(ctx, StepTrim, "dropped", trimmed.InputRows-trimmed.Kept)
		r.metrics.RecordRows(ctx, StepTrim, "output", trimmed.Kept)
		return nil
	}); err != nil {
		return err
	}

	if err := r.step(ctx, res, StepNormalize, func(ctx context.Context, s *StepState) error {
		norm, err := r.normalizer.Normalize(data, r.opts.Filter)
		if err != nil {
			return err
		}
		res.Normalization = norm
		res.Warnings = append(res.Warnings, norm.Warnings...)
		s.Metadata["input_rows"] = norm.InputRows
		s.Metadata["output_rows"] = norm.OutputRows()
		s.Metadata["join_dropped"] = norm.JoinDropped()
		r.metrics.RecordRows(ctx, StepNormalize, "input", norm.InputRows)
		r.metrics.RecordRows(ctx, StepNormalize, "dropped", norm.InputRows-norm.OutputRows())
		r.metrics.RecordRows(ctx, StepNormalize, "output", norm.OutputRows())
		return nil
	}); err != nil {
		return err
	}

	if err := r.step(ctx, res, StepClassify, func(ctx context.Context, s *StepState) error {
		classification, err := r.classifier.Classify(res.Normalization.Rows)
		if err != nil {
			return err
		}
		res.Classification = classification
		counts := classification.TierCounts()
		s.Metadata["products"] = len(classification.Rows)
		s.Metadata["tiers"] = counts
		r.metrics.RecordTierCounts(ctx, counts)
		return nil
	}); err != nil {
		if !apperrors.Is(err, apperrors.ErrNoRevenue) {
			return err
		}
		res.ClassificationErr = err
	}

	// The normalized dataset stays valid for the aggregates below even when
	// classification failed.
	if err := r.step(ctx, res, StepAnalytics, func(ctx context.Context, s *StepState) error {
		res.Reports = r.reports.Aggregate(ctx, res.Normalization.Rows)
		s.Metadata["revenue"] = res.Reports.Overview.Revenue
		s.Metadata["days"] = len(res.Reports.Daily)
		return nil
	}); err != nil {
		return err
	}

	if err := r.step(ctx, res, StepForecast, func(ctx context.Context, s *StepState) error {
		if r.opts.Reports.ForecastHorizonDays <= 0 {
			s.Skip("forecast disabled")
			return nil
		}
		if warnings := r.reports.AttachForecast(ctx, res.Reports); len(warnings) > 0 {
			res.Warnings = append(res.Warnings, warnings...)
			s.Skip(warnings[0].Message)
			return nil
		}
		s.Metadata["points"] = len(res.Reports.Forecast)
		return nil
	}); err != nil {
		return err
	}

	return r.step(ctx, res, StepExport, func(ctx context.Context, s *StepState) error {
		if !r.opts.Export {
			s.Skip("export disabled")
			return nil
		}
		outputs, err := r.export(res)
		res.Outputs = outputs
		s.Metadata["files"] = len(outputs)
		return err
	})
}

// export writes the CSV tables and the workbook. Classification files are
// omitted when there was nothing to classify.
func (r *Runner) export(res *RunResult) ([]string, error) {
	label := res.Period
	paths := r.opts.Paths
	var outputs []string

	p, err := r.sales.ExportNormalized(res.Normalization.Rows, paths.NormalizedCSV(label))
	if err != nil {
		return outputs, err
	}
	outputs = append(outputs, p)

	data := exporter.WorkbookData{
		Period:   label,
		Weekly:   res.Reports.WeeklySales,
		COGS:     res.Reports.COGS,
		Forecast: res.Reports.Forecast,
	}

	if res.Classification != nil {
		p, err = r.sales.ExportClassification(res.Classification.Rows, paths.ClassificationCSV(label))
		if err != nil {
			return outputs, err
		}
		outputs = append(outputs, p)

		p, err = r.sales.ExportTierSummary(res.Classification.Summary, paths.TierSummaryCSV(label))
		if err != nil {
			return outputs, err
		}
		outputs = append(outputs, p)

		data.Classification = res.Classification.Rows
		data.Summary = res.Classification.Summary
	}

	p = paths.WorkbookPath(label)
	if err := r.workbook.Export(data, p); err != nil {
		return outputs, err
	}
	return append(outputs, p), nil
}

// step runs fn as step id. fn may mark the step skipped; otherwise the step
// completes when fn returns nil and fails when it returns an error.
func (r *Runner) step(ctx context.Context, res *RunResult, id string, fn func(context.Context, *StepState) error) error {
	s := res.Step(id)
	if err := ctx.Err(); err != nil {
		s.Fail(err)
		r.reporter.BroadcastUpdate(EventStepUpdate, id, string(s.Status), s.Clone())
		return fmt.Errorf("run cancelled before %s: %w", id, err)
	}

	ctx, span := r.tracer.Start(ctx, "pipeline.step."+id, trace.WithAttributes(attribute.String("run.id", res.RunID)))
	defer span.End()

	s.Start()
	r.reporter.BroadcastUpdate(EventStepUpdate, id, string(s.Status), s.Clone())

	err := fn(ctx, s)
	switch {
	case err != nil:
		s.Fail(err)
		infrastructure.RecordError(ctx, err)
		r.logger.WarnContext(ctx, "step failed",
			slog.String("step", id),
			slog.String("error_type", string(apperrors.TypeOf(err))),
			slog.String("error", err.Error()))
	case s.Status == StepStatusActive:
		s.Complete()
		r.logger.InfoContext(ctx, "step completed",
			slog.String("step", id),
			slog.Duration("duration", s.Duration()),
			slog.Any("metadata", s.Metadata))
	default:
		r.logger.InfoContext(ctx, "step skipped", slog.String("step", id), slog.String("reason", s.Message))
	}

	span.SetAttributes(attribute.String("step.status", string(s.Status)))
	r.metrics.RecordStep(ctx, id, string(s.Status), s.Duration())
	r.reporter.BroadcastUpdate(EventStepUpdate, id, string(s.Status), s.Clone())
	return err
}

func (r *Runner) finish(ctx context.Context, res *RunResult, status RunStatus, err error) {
	for _, s := range res.Steps {
		if !s.Finished() {
			s.Skip("run aborted")
		}
	}
	res.Status = status
	res.FinishedAt = time.Now()
	if err != nil {
		res.Error = err.Error()
	}
	if res.ClassificationErr != nil {
		res.Warnings = append(res.Warnings, domain.Warning{
			Code:    domain.WarningNoRevenue,
			Stage:   dataprocessing.StageClassify,
			Message: res.ClassificationErr.Error(),
		})
	}

	r.metrics.RecordRun(ctx, string(status))
	r.reporter.BroadcastUpdate(EventRunFinished, "", string(status), map[string]interface{}{
		"run_id":   res.RunID,
		"period":   res.Period,
		"duration": res.Duration().String(),
		"warnings": len(res.Warnings),
		"error":    res.Error,
	})

	attrs := []any{
		slog.String("status", string(status)),
		slog.Duration("duration", res.Duration()),
		slog.Int("warnings", len(res.Warnings)),
	}
	if err != nil {
		r.logger.ErrorContext(ctx, "pipeline run failed", append(attrs, slog.String("error", err.Error()))...)
		return
	}
	r.logger.InfoContext(ctx, "pipeline run finished", attrs...)
}
