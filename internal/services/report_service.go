package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"salespulse/internal/dataprocessing"
	"salespulse/internal/pipeline"
	"salespulse/pkg/contracts/domain"
)

// RunExecutor runs the pipeline once. *pipeline.Runner implements it.
type RunExecutor interface {
	Run(ctx context.Context) (*pipeline.RunResult, error)
}

// Page is one window of the normalized dataset
type Page struct {
	Total  int                        `json:"total"`
	Limit  int                        `json:"limit"`
	Offset int                        `json:"offset"`
	Rows   []domain.NormalizedSaleRow `json:"rows"`
}

// ReportService caches the latest pipeline run and answers read queries
// from it. At most one run executes at a time.
type ReportService struct {
	runner     RunExecutor
	runTimeout time.Duration
	logger     *slog.Logger

	runMu sync.Mutex // held for the duration of a run

	mu      sync.RWMutex
	latest  *pipeline.RunResult
	lastErr error
}

// NewReportService creates a report service. A zero runTimeout means runs
// are bounded only by the caller's context.
func NewReportService(runner RunExecutor, runTimeout time.Duration, logger *slog.Logger) *ReportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportService{
		runner:     runner,
		runTimeout: runTimeout,
		logger:     logger.With(slog.String("service", "report")),
	}
}

// Run executes the pipeline and, when it produced a dataset, makes the
// result the one served by the read methods. A failed run leaves the
// previous result in place. ErrRunInProgress is returned when another run
// holds the lock.
func (s *ReportService) Run(ctx context.Context) (*pipeline.RunResult, error) {
	if !s.runMu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.runMu.Unlock()

	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}

	s.logger.InfoContext(ctx, "Run requested")
	result, err := s.runner.Run(ctx)

	s.mu.Lock()
	s.lastErr = err
	if err == nil && result != nil {
		s.latest = result
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.ErrorContext(ctx, "Run failed", slog.String("error", err.Error()))
		return result, err
	}
	s.logger.InfoContext(ctx, "Run cached",
		slog.String("run_id", result.RunID),
		slog.String("status", string(result.Status)))
	return result, nil
}

// Running reports whether a run is executing
func (s *ReportService) Running() bool {
	if s.runMu.TryLock() {
		s.runMu.Unlock()
		return false
	}
	return true
}

// LastError is the error of the most recent run, nil when it succeeded
func (s *ReportService) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// LatestRun returns the cached run or ErrNoRunAvailable
func (s *ReportService) LatestRun() (*pipeline.RunResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return nil, ErrNoRunAvailable
	}
	return s.latest, nil
}

// Normalized returns rows [offset, offset+limit) of the normalized dataset.
// An offset past the end yields an empty page.
func (s *ReportService) Normalized(limit, offset int) (*Page, error) {
	run, err := s.LatestRun()
	if err != nil {
		return nil, err
	}
	rows := run.Normalization.Rows
	page := &Page{Total: len(rows), Limit: limit, Offset: offset, Rows: []domain.NormalizedSaleRow{}}
	if offset >= len(rows) {
		return page, nil
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	page.Rows = rows[offset:end]
	return page, nil
}

// Classification returns the ABC result, or the run's NO_REVENUE error
func (s *ReportService) Classification() (*dataprocessing.ClassificationResult, error) {
	run, err := s.LatestRun()
	if err != nil {
		return nil, err
	}
	if run.ClassificationErr != nil {
		return nil, run.ClassificationErr
	}
	return run.Classification, nil
}

// TierSummary returns the per-tier summary of the latest classification
func (s *ReportService) TierSummary() ([]domain.TierSummary, error) {
	c, err := s.Classification()
	if err != nil {
		return nil, err
	}
	return c.Summary, nil
}

// Reports returns the reporting aggregates of the latest run
func (s *ReportService) Reports() (*dataprocessing.Reports, error) {
	run, err := s.LatestRun()
	if err != nil {
		return nil, err
	}
	return run.Reports, nil
}

// Movers ranks products of the latest run with n entries per list. n <= 0
// returns the lists computed by the run.
func (s *ReportService) Movers(n int) (domain.Movers, error) {
	run, err := s.LatestRun()
	if err != nil {
		return domain.Movers{}, err
	}
	if n <= 0 {
		return run.Reports.Movers, nil
	}
	return dataprocessing.TopMovers(run.Normalization.Rows, n), nil
}
