package pipeline

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespulse/internal/config"
	"salespulse/internal/dataprocessing"
	apperrors "salespulse/internal/errors"
	"salespulse/internal/loader"
	"salespulse/pkg/contracts/domain"
)

const (
	salesCSV = "SalesID,ProductID,Quantity,Discount,SalesDate\n" +
		"1,1,3,0,2018-02-01 08:00:00\n" +
		"2,2,2,0,2018-02-02 09:30:00\n" +
		"3,3,1,0,2018-02-03\n" +
		"4,4,1,0,2018-02-04\n" +
		"5,99,1,0,2018-02-05\n" +
		"6,1,1,0,2018-03-01\n" +
		"7,1,1,0.5,2018-02-10\n"
	productsCSV = "ProductID,ProductName,Price,CategoryID\n" +
		"1,Apple,10,1\n" +
		"2,Bread,5,2\n" +
		"3,Barramundi,20,1\n" +
		"4,Gum,1,3\n"
	categoriesCSV = "CategoryID,CategoryName\n1,Produce\n2,Grain\n3,Meat\n"
)

type event struct {
	Type, Step, Status string
}

type recordingReporter struct {
	mu     sync.Mutex
	events []event
}

func (r *recordingReporter) BroadcastUpdate(eventType, step, status string, _ interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event{eventType, step, status})
}

func (r *recordingReporter) statuses(step string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		if e.Type == EventStepUpdate && e.Step == step {
			out = append(out, e.Status)
		}
	}
	return out
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func testOptions(t *testing.T) Options {
	t.Helper()
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		return path
	}
	return Options{
		Sources: loader.Sources{
			Transactions: write("sales.csv", salesCSV),
			Products:     write("products.csv", productsCSV),
			Categories:   write("categories.csv", categoriesCSV),
		},
		Period: &dataprocessing.Period{TargetYear: 2024, TargetMonth: 2, SourceYear: 2018},
		Filter: dataprocessing.Filter{
			Denylist:  []string{"Barramundi"},
			Allowlist: []string{"Produce", "Grain"},
		},
		Thresholds: domain.DefaultTierThresholds(),
		Reports:    dataprocessing.ReportConfig{COGSRatio: 0.7, TopN: 5, ForecastHorizonDays: 3},
		Export:     true,
		Paths:      &config.Paths{ReportsDir: filepath.Join(dir, "reports")},
	}
}

func newTestRunner(t *testing.T, opts Options) (*Runner, *recordingReporter) {
	t.Helper()
	reporter := &recordingReporter{}
	r, err := NewRunner(opts, Dependencies{Logger: quietLogger(), Reporter: reporter})
	require.NoError(t, err)
	return r, reporter
}

func TestRunner_Run(t *testing.T) {
	opts := testOptions(t)
	r, reporter := newTestRunner(t, opts)

	res, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, RunStatusCompleted, res.Status)
	assert.Equal(t, "2024_02", res.Period)
	assert.NotEmpty(t, res.RunID)
	for _, s := range res.Steps {
		assert.Equal(t, StepStatusCompleted, s.Status, s.ID)
	}

	assert.Equal(t, 7, res.Load.Transactions)
	require.NotNil(t, res.Trim)
	assert.Equal(t, 6, res.Trim.Kept)

	norm := res.Normalization
	require.NotNil(t, norm)
	assert.Equal(t, 3, norm.OutputRows())
	assert.Equal(t, 1, norm.JoinDropped())
	assert.Equal(t, 1, norm.ExcludedByDenylist)
	assert.Equal(t, 1, norm.ExcludedByAllowlist)

	require.NoError(t, res.ClassificationErr)
	require.NotNil(t, res.Classification)
	rows := res.Classification.Rows
	require.Len(t, rows, 2)
	assert.Equal(t, "Apple", rows[0].ProductName)
	assert.InDelta(t, 35, rows[0].TotalRevenue, 1e-9)
	assert.Equal(t, domain.TierB, rows[0].Tier)
	assert.Equal(t, domain.TierC, rows[1].Tier)
	assert.Equal(t, 100.0, rows[1].CumulativeRevenuePercentage)

	require.NotNil(t, res.Reports)
	assert.InDelta(t, 45, res.Reports.Overview.Revenue, 1e-9)
	assert.InDelta(t, res.Classification.TotalRevenue, res.Reports.Overview.Revenue, 1e-9)
	assert.NotEmpty(t, res.Reports.Forecast)

	var codes []domain.WarningCode
	for _, w := range res.Warnings {
		codes = append(codes, w.Code)
	}
	assert.Contains(t, codes, domain.WarningJoinMismatch)

	require.Len(t, res.Outputs, 4)
	for _, p := range res.Outputs {
		assert.FileExists(t, p)
	}
	assert.Equal(t, opts.Paths.WorkbookPath("2024_02"), res.Outputs[3])

	assert.Equal(t, []string{"active", "completed"}, reporter.statuses(StepClassify))
	reporter.mu.Lock()
	assert.Equal(t, EventRunStarted, reporter.events[0].Type)
	assert.Equal(t, event{EventRunFinished, "", string(RunStatusCompleted)}, reporter.events[len(reporter.events)-1])
	reporter.mu.Unlock()
}

func TestRunner_NoRevenueKeepsAnalytics(t *testing.T) {
	opts := testOptions(t)
	opts.Filter.Allowlist = []string{"Beverages"}
	r, _ := newTestRunner(t, opts)

	res, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, RunStatusPartial, res.Status)
	assert.ErrorIs(t, res.ClassificationErr, apperrors.ErrNoRevenue)
	assert.Nil(t, res.Classification)
	assert.Equal(t, StepStatusFailed, res.Step(StepClassify).Status)
	assert.Equal(t, StepStatusCompleted, res.Step(StepAnalytics).Status)
	assert.Equal(t, StepStatusSkipped, res.Step(StepForecast).Status, "an empty series cannot be forecast")
	assert.Equal(t, StepStatusCompleted, res.Step(StepExport).Status)

	assert.True(t, res.Normalization.Empty())
	assert.Zero(t, res.Reports.Overview.Revenue)
	assert.Len(t, res.Outputs, 2, "normalized CSV and workbook only")

	codes := make(map[domain.WarningCode]string)
	for _, w := range res.Warnings {
		codes[w.Code] = w.Stage
	}
	assert.Equal(t, dataprocessing.StageClassify, codes[domain.WarningNoRevenue])
	assert.Equal(t, dataprocessing.StageAnalytics, codes[domain.WarningForecastSkipped])
	assert.Contains(t, codes, domain.WarningEmptyResult, "the allowlist filter left no rows")
}

func TestRunner_MissingInputIsFatal(t *testing.T) {
	opts := testOptions(t)
	opts.Sources.Products = filepath.Join(t.TempDir(), "missing.csv")
	r, reporter := newTestRunner(t, opts)

	res, err := r.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInputNotFound)

	require.NotNil(t, res)
	assert.Equal(t, RunStatusFailed, res.Status)
	assert.NotEmpty(t, res.Error)
	assert.Equal(t, StepStatusFailed, res.Step(StepLoad).Status)
	for _, id := range StepOrder[1:] {
		assert.Equal(t, StepStatusSkipped, res.Step(id).Status, id)
	}
	assert.Nil(t, res.Normalization)
	assert.Empty(t, reporter.statuses(StepNormalize), "aborted steps are never started")
}

func TestRunner_WholeFeedWithoutExport(t *testing.T) {
	opts := testOptions(t)
	opts.Period = nil
	opts.Export = false
	opts.Reports.ForecastHorizonDays = 0
	r, _ := newTestRunner(t, opts)

	res, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "all", res.Period)
	assert.Nil(t, res.Trim)
	assert.Equal(t, StepStatusSkipped, res.Step(StepTrim).Status)
	assert.Equal(t, StepStatusSkipped, res.Step(StepForecast).Status)
	assert.Equal(t, StepStatusSkipped, res.Step(StepExport).Status)
	assert.Equal(t, 4, res.Normalization.OutputRows(), "the March sale is kept")
	assert.Empty(t, res.Outputs)
}

func TestRunner_CancelledContext(t *testing.T) {
	r, _ := newTestRunner(t, testOptions(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := r.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, RunStatusFailed, res.Status)
	assert.Equal(t, StepStatusFailed, res.Step(StepLoad).Status)
}

func TestNewRunner_RejectsInvalidOptions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
		target error
	}{
		{"inverted thresholds", func(o *Options) { o.Thresholds = domain.TierThresholds{A: 90, B: 70} }, apperrors.ErrConfig},
		{"month out of range", func(o *Options) { o.Period.TargetMonth = 13 }, apperrors.ErrValidation},
		{"export without paths", func(o *Options) { o.Paths = nil }, apperrors.ErrConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions(t)
			tt.mutate(&opts)
			_, err := NewRunner(opts, Dependencies{Logger: quietLogger()})
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = "/data"

	opts := OptionsFromConfig(cfg)
	assert.Equal(t, "/data/sales.csv", opts.Sources.Transactions)
	assert.Equal(t, "/data/reports", opts.Paths.ReportsDir)
	require.NotNil(t, opts.Period)
	assert.Equal(t, "2024_02", opts.Label())
	assert.Equal(t, config.DefaultAllowlist, opts.Filter.Allowlist)
	assert.Equal(t, 0.70, opts.Reports.COGSRatio)

	cfg.Period.Enabled = false
	assert.Nil(t, OptionsFromConfig(cfg).Period)
}
