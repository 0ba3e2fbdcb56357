package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Paths contains every resolved file location a run reads or writes
type Paths struct {
	DataDir          string
	TransactionsFile string
	ProductsFile     string
	CategoriesFile   string
	ReportsDir       string
	LogsDir          string
}

// GetPaths resolves the configured paths against the data directory
func (c *Config) GetPaths() *Paths {
	logsDir := c.Paths.LogsDir
	if logsDir == "" {
		logsDir = DefaultLogsDir
	}
	return &Paths{
		DataDir:          c.Paths.DataDir,
		TransactionsFile: c.Resolve(c.Paths.TransactionsFile),
		ProductsFile:     c.Resolve(c.Paths.ProductsFile),
		CategoriesFile:   c.Resolve(c.Paths.CategoriesFile),
		ReportsDir:       c.Resolve(c.Paths.ReportsDir),
		LogsDir:          logsDir,
	}
}

// PeriodLabel names the analysed period in report file names, e.g. 2024_02.
// Runs over the whole feed are labelled "all".
func (c *Config) PeriodLabel() string {
	if !c.Period.Enabled {
		return "all"
	}
	return fmt.Sprintf("%04d_%02d", c.Period.TargetYear, c.Period.TargetMonth)
}

// PeriodStart returns the first instant of the configured period in UTC
func (c *Config) PeriodStart() time.Time {
	return time.Date(c.Period.TargetYear, time.Month(c.Period.TargetMonth), 1, 0, 0, 0, 0, time.UTC)
}

// EnsureDirectories creates the report and log directories
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.ReportsDir, p.LogsDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// GetReportPath returns the path for a report file
func (p *Paths) GetReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// NormalizedCSV is the normalized sales dataset export
func (p *Paths) NormalizedCSV(label string) string {
	return p.GetReportPath(fmt.Sprintf("normalized_sales_%s.csv", label))
}

// ClassificationCSV is the per-product ABC table export
func (p *Paths) ClassificationCSV(label string) string {
	return p.GetReportPath(fmt.Sprintf("abc_analysis_results_%s.csv", label))
}

// TierSummaryCSV is the per-tier summary export
func (p *Paths) TierSummaryCSV(label string) string {
	return p.GetReportPath(fmt.Sprintf("abc_summary_%s.csv", label))
}

// TrimmedCSV is the one-month transactions feed written by the trimmer
func (p *Paths) TrimmedCSV(label string) string {
	return p.GetReportPath(fmt.Sprintf("trimmed_sales_%s.csv", label))
}

// WorkbookPath is the Excel report workbook
func (p *Paths) WorkbookPath(label string) string {
	return p.GetReportPath(fmt.Sprintf("abc_analysis_%s.xlsx", label))
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// LogPathResolution logs the resolved paths at debug level
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("Path resolution summary",
		slog.Group("inputs",
			slog.String("transactions", p.TransactionsFile),
			slog.Bool("transactions_exists", FileExists(p.TransactionsFile)),
			slog.String("products", p.ProductsFile),
			slog.String("categories", p.CategoriesFile),
		),
		slog.Group("outputs",
			slog.String("reports", p.ReportsDir),
			slog.String("logs", p.LogsDir),
		))
}
