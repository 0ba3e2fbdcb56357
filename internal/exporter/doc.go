// Package exporter writes the results of a run to disk.
//
// This package contains three main components:
//
// CSVWriter: Core CSV writing functionality with support for headers, streaming,
// and UTF-8 BOM for Excel compatibility.
//
// SalesExporter: Writes the trimmed transactions feed, the normalized sales
// dataset, the ABC classification table and the tier summary.
//
// WorkbookExporter: Renders the classification, tier summary, weekly trend,
// COGS by category and forecast as sheets of one Excel workbook with native
// charts.
//
// Example usage:
//
//	sales := exporter.NewSalesExporter(paths, logger)
//	path, err := sales.ExportClassification(result.Rows, paths.ClassificationCSV("2024_02"))
//
//	book := exporter.NewWorkbookExporter(logger)
//	err = book.Export(data, paths.WorkbookPath("2024_02"))
package exporter
