package exporter

import (
	"log/slog"
	"strconv"

	"salespulse/internal/config"
	"salespulse/pkg/contracts/domain"
)

// SalesExporter writes the run's tables as CSV files
type SalesExporter struct {
	csvWriter *CSVWriter
}

// NewSalesExporter creates a new sales table exporter
func NewSalesExporter(paths *config.Paths, logger *slog.Logger) *SalesExporter {
	return &SalesExporter{csvWriter: NewCSVWriter(paths, logger)}
}

// TransactionHeaders are the columns of an exported transactions feed
var TransactionHeaders = []string{domain.ColProductID, domain.ColQuantity, domain.ColDiscount, domain.ColSalesDate}

// ExportTransactions writes a raw transactions feed that the loader can read
// back, as produced by the period trimmer.
func (e *SalesExporter) ExportTransactions(records []domain.TransactionRecord, path string) (string, error) {
	w, err := e.csvWriter.CreateStreamWriter(path, TransactionHeaders)
	if err != nil {
		return "", err
	}
	for _, r := range records {
		if err := w.WriteRecord([]string{
			formatInt(r.ProductID),
			formatInt(r.Quantity),
			formatFloat(r.Discount),
			formatDate(r.SalesDate),
		}); err != nil {
			w.Close()
			return "", err
		}
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	return w.Path(), nil
}

// ExportNormalized writes the normalized sales dataset in canonical column order
func (e *SalesExporter) ExportNormalized(rows []domain.NormalizedSaleRow, path string) (string, error) {
	w, err := e.csvWriter.CreateStreamWriter(path, domain.NormalizedColumns)
	if err != nil {
		return "", err
	}
	for _, row := range rows {
		if err := w.WriteRecord(NormalizedRecord(row)); err != nil {
			w.Close()
			return "", err
		}
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	return w.Path(), nil
}

// ExportClassification writes the per-product ABC table
func (e *SalesExporter) ExportClassification(rows []domain.ClassificationRow, path string) (string, error) {
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, []string{
			formatInt(row.ProductID),
			row.ProductName,
			formatFloat(row.TotalRevenue),
			formatFloat(row.CumulativeRevenue),
			formatFloat(row.CumulativeRevenuePercentage),
			string(row.Tier),
		})
	}
	return e.csvWriter.WriteSimpleCSV(path, domain.ClassificationColumns, records)
}

// ExportTierSummary writes the per-tier summary
func (e *SalesExporter) ExportTierSummary(summary []domain.TierSummary, path string) (string, error) {
	records := make([][]string, 0, len(summary))
	for _, s := range summary {
		records = append(records, []string{
			string(s.Tier),
			strconv.Itoa(s.ProductCount),
			formatFloat(s.TotalRevenue),
			formatFloat(s.PercentageOfTotalRevenue),
		})
	}
	return e.csvWriter.WriteSimpleCSV(path, domain.TierSummaryColumns, records)
}

// NormalizedRecord converts a normalized row to its CSV fields
func NormalizedRecord(row domain.NormalizedSaleRow) []string {
	return []string{
		formatInt(row.ProductID),
		row.ProductName,
		formatInt(row.CategoryID),
		row.CategoryName,
		formatInt(row.Quantity),
		formatFloat(row.Discount),
		formatFloat(row.TotalPrice),
		formatDate(row.SalesDate),
		calendarField(row.SaleYear),
		row.SaleMonth,
		row.SaleWeekday,
		calendarField(row.SaleWeek),
		formatFloat(row.Price),
	}
}

// calendarField leaves the calendar fields of undated rows blank
func calendarField(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}
