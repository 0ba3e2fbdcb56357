package loader

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"salespulse/internal/validation"
	"salespulse/pkg/contracts/domain"
)

// Sources names the three input tables of a run
type Sources struct {
	Transactions string
	Products     string
	Categories   string
}

// Stats reports row counts per table
type Stats struct {
	Transactions int           `json:"transactions"`
	Products     int           `json:"products"`
	Categories   int           `json:"categories"`
	Duration     time.Duration `json:"duration"`
}

// Loader reads the reference tables from disk
type Loader struct {
	logger    *slog.Logger
	validator *validation.FileValidator
}

// NewLoader creates a loader
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "loader"))
	return &Loader{
		logger:    logger,
		validator: validation.NewFileValidator(logger),
	}
}

// LoadAll reads the three tables concurrently. The first failure cancels the
// other reads and is returned.
func (l *Loader) LoadAll(ctx context.Context, src Sources) (*domain.ReferenceData, Stats, error) {
	start := time.Now()
	data := &domain.ReferenceData{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		recs, err := l.LoadTransactions(gctx, src.Transactions)
		data.Transactions = recs
		return err
	})
	g.Go(func() error {
		recs, err := l.LoadProducts(gctx, src.Products)
		data.Products = recs
		return err
	})
	g.Go(func() error {
		recs, err := l.LoadCategories(gctx, src.Categories)
		data.Categories = recs
		return err
	})

	if err := g.Wait(); err != nil {
		l.logger.ErrorContext(ctx, "failed to load input tables", slog.String("error", err.Error()))
		return nil, Stats{}, err
	}

	stats := Stats{
		Transactions: len(data.Transactions),
		Products:     len(data.Products),
		Categories:   len(data.Categories),
		Duration:     time.Since(start),
	}
	l.logger.InfoContext(ctx, "input tables loaded",
		slog.Int("transactions", stats.Transactions),
		slog.Int("products", stats.Products),
		slog.Int("categories", stats.Categories),
		slog.Duration("duration", stats.Duration))

	return data, stats, nil
}

// LoadTransactions reads the transactions table
func (l *Loader) LoadTransactions(ctx context.Context, path string) ([]domain.TransactionRecord, error) {
	t, err := l.read(ctx, domain.TableTransactions, path)
	if err != nil {
		return nil, err
	}
	return ParseTransactions(t)
}

// LoadProducts reads the products table
func (l *Loader) LoadProducts(ctx context.Context, path string) ([]domain.ProductReference, error) {
	t, err := l.read(ctx, domain.TableProducts, path)
	if err != nil {
		return nil, err
	}
	return ParseProducts(t)
}

// LoadCategories reads the categories table
func (l *Loader) LoadCategories(ctx context.Context, path string) ([]domain.CategoryReference, error) {
	t, err := l.read(ctx, domain.TableCategories, path)
	if err != nil {
		return nil, err
	}
	return ParseCategories(t)
}

func (l *Loader) read(ctx context.Context, name, path string) (*Table, error) {
	format, err := l.validator.ValidateInputTable(name, path)
	if err != nil {
		return nil, err
	}

	t, err := ReadTable(ctx, name, path, format)
	if err != nil {
		return nil, err
	}

	l.logger.DebugContext(ctx, "table read",
		slog.String("table", name),
		slog.String("format", format),
		slog.Int("rows", t.Len()))
	return t, nil
}
