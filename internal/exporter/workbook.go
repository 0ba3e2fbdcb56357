package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	apperrors "salespulse/internal/errors"
	"salespulse/pkg/contracts/domain"
)

// Workbook sheet names
const (
	SheetClassification = "Classification"
	SheetTierSummary    = "Tier Summary"
	SheetWeeklyTrend    = "Weekly Trend"
	SheetCOGS           = "COGS by Category"
	SheetForecast       = "Forecast"
)

// WorkbookData is everything the report workbook shows. Classification and
// Summary are empty when the run had no revenue to classify.
type WorkbookData struct {
	Period         string
	Classification []domain.ClassificationRow
	Summary        []domain.TierSummary
	Weekly         []domain.WeeklySales
	COGS           []domain.CategoryCOGS
	Forecast       []domain.ForecastPoint
}

// WorkbookExporter renders the run as an Excel workbook with native charts
type WorkbookExporter struct {
	logger *slog.Logger
}

// NewWorkbookExporter creates a workbook exporter
func NewWorkbookExporter(logger *slog.Logger) *WorkbookExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookExporter{logger: logger.With(slog.String("component", "workbook"))}
}

// Build renders data into a new in-memory workbook. The caller closes it.
func (e *WorkbookExporter) Build(data WorkbookData) (*excelize.File, error) {
	f := excelize.NewFile()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		f.Close()
		return nil, err
	}
	b := &sheetBuilder{f: f, headerStyle: headerStyle}

	if err := f.SetSheetName("Sheet1", SheetClassification); err != nil {
		f.Close()
		return nil, err
	}
	b.table(SheetClassification, toAny(domain.ClassificationColumns), classificationRows(data.Classification))
	b.table(SheetTierSummary, toAny(domain.TierSummaryColumns), summaryRows(data.Summary))
	b.table(SheetWeeklyTrend, []interface{}{"Week", "Revenue"}, weeklyRows(data.Weekly))
	b.table(SheetCOGS, []interface{}{"CategoryName", "Revenue", "COGS", "InventoryAvailable"}, cogsRows(data.COGS))
	b.table(SheetForecast, []interface{}{"ds", "yhat", "yhat_lower", "yhat_upper", "actual", "is_forecast"}, forecastRows(data.Forecast))

	if n := len(data.Summary); n > 0 {
		b.chart(SheetTierSummary, "F2", excelize.Col, "Share of revenue by tier "+data.Period,
			seriesRef(SheetTierSummary, "D", n), seriesRef(SheetTierSummary, "A", n), "PercentageOfTotalRevenue")
	}
	if n := len(data.Weekly); n > 0 {
		b.chart(SheetWeeklyTrend, "D2", excelize.Line, "Weekly sales trend "+data.Period,
			seriesRef(SheetWeeklyTrend, "B", n), seriesRef(SheetWeeklyTrend, "A", n), "Revenue")
	}
	if n := len(data.COGS); n > 0 {
		b.chart(SheetCOGS, "F2", excelize.Bar, "COGS by category "+data.Period,
			seriesRef(SheetCOGS, "C", n), seriesRef(SheetCOGS, "A", n), "COGS")
	}

	if b.err != nil {
		f.Close()
		return nil, b.err
	}
	f.SetActiveSheet(0)
	return f, nil
}

// Export builds the workbook and saves it at path
func (e *WorkbookExporter) Export(data WorkbookData, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewStorageError("failed to create directory", err).WithContext("path", path)
	}

	f, err := e.Build(data)
	if err != nil {
		return apperrors.NewStorageError("failed to build workbook", err).WithContext("path", path)
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return apperrors.NewStorageError("failed to save workbook", err).WithContext("path", path)
	}

	e.logger.Info("Workbook written",
		slog.String("path", path),
		slog.Int("products", len(data.Classification)),
		slog.Int("weeks", len(data.Weekly)),
		slog.Int("forecast_points", len(data.Forecast)))
	return nil
}

// sheetBuilder keeps the first error so sheet writes read linearly
type sheetBuilder struct {
	f           *excelize.File
	headerStyle int
	err         error
}

func (b *sheetBuilder) table(sheet string, header []interface{}, rows [][]interface{}) {
	if b.err != nil {
		return
	}
	if idx, _ := b.f.GetSheetIndex(sheet); idx < 0 {
		if _, err := b.f.NewSheet(sheet); err != nil {
			b.err = err
			return
		}
	}
	if err := b.f.SetSheetRow(sheet, "A1", &header); err != nil {
		b.err = err
		return
	}
	if err := b.f.SetRowStyle(sheet, 1, 1, b.headerStyle); err != nil {
		b.err = err
		return
	}
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			b.err = err
			return
		}
		if err := b.f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			b.err = err
			return
		}
	}
	lastCol, _ := excelize.ColumnNumberToName(len(header))
	if err := b.f.SetColWidth(sheet, "A", lastCol, 18); err != nil {
		b.err = err
	}
}

func (b *sheetBuilder) chart(sheet, anchor string, kind excelize.ChartType, title, values, categories, name string) {
	if b.err != nil {
		return
	}
	b.err = b.f.AddChart(sheet, anchor, &excelize.Chart{
		Type: kind,
		Series: []excelize.ChartSeries{{
			Name:       name,
			Categories: categories,
			Values:     values,
		}},
		Title:  []excelize.RichTextRun{{Text: title}},
		Legend: excelize.ChartLegend{Position: "bottom"},
	})
}

// seriesRef addresses rows 2..n+1 of column col
func seriesRef(sheet, col string, n int) string {
	return fmt.Sprintf("'%s'!$%s$2:$%s$%d", sheet, col, col, n+1)
}

func toAny(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func classificationRows(rows []domain.ClassificationRow) [][]interface{} {
	out := make([][]interface{}, 0, len(rows))
	for _, r := range rows {
		out = append(out, []interface{}{r.ProductID, r.ProductName, r.TotalRevenue, r.CumulativeRevenue, r.CumulativeRevenuePercentage, string(r.Tier)})
	}
	return out
}

func summaryRows(rows []domain.TierSummary) [][]interface{} {
	out := make([][]interface{}, 0, len(rows))
	for _, s := range rows {
		out = append(out, []interface{}{string(s.Tier), s.ProductCount, s.TotalRevenue, s.PercentageOfTotalRevenue})
	}
	return out
}

func weeklyRows(rows []domain.WeeklySales) [][]interface{} {
	out := make([][]interface{}, 0, len(rows))
	for _, w := range rows {
		out = append(out, []interface{}{w.Week, w.Revenue})
	}
	return out
}

func cogsRows(rows []domain.CategoryCOGS) [][]interface{} {
	out := make([][]interface{}, 0, len(rows))
	for _, c := range rows {
		out = append(out, []interface{}{c.CategoryName, c.Revenue, c.COGS, c.InventoryAvailable})
	}
	return out
}

func forecastRows(rows []domain.ForecastPoint) [][]interface{} {
	out := make([][]interface{}, 0, len(rows))
	for _, p := range rows {
		var actual interface{}
		if p.Actual != nil {
			actual = *p.Actual
		}
		out = append(out, []interface{}{p.Date.Format("2006-01-02"), p.Yhat, p.YhatLower, p.YhatUpper, actual, p.IsForecast})
	}
	return out
}
