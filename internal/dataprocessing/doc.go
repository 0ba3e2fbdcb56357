// Package dataprocessing turns raw sales transactions into the normalized
// sales dataset and derives every report from it.
//
// # Architecture
//
// The package is organized into four components:
//
// 1. Trimmer: selects one calendar month of the raw feed, optionally shifting years
// 2. Normalizer: joins transactions to products and categories, recomputes
// TotalPrice, derives calendar fields and applies the domain filter
// 3. Classifier: ranks products by revenue and assigns ABC tiers
// 4. ReportBuilder: financial overview, weekly trend, movers, COGS by
// category, daily series and forecast
//
// # Usage
//
//	trimmed, err := dataprocessing.TrimToPeriod(data.Transactions, period)
//	data.Transactions = trimmed.Transactions
//
//	normalized, err := dataprocessing.NewNormalizer(logger).Normalize(data, filter)
//
//	classifier, err := dataprocessing.NewClassifier(domain.DefaultTierThresholds(), logger)
//	classification, err := classifier.Classify(normalized.Rows)
//	if errors.Is(err, apperrors.ErrNoRevenue) {
//	    // the normalized dataset is still valid
//	}
//
// # Data Flow
//
//	raw tables → Trimmer → Normalizer → normalized rows → {Classifier, ReportBuilder}
//
// # Error Handling
//
// Data-quality problems are not errors. Dropped join rows and empty results
// are reported as domain.Warning values on the stage result. Errors are
// reserved for invalid input values and for a classification with no revenue.
//
// Every function here is deterministic: the same input and configuration
// produce the same rows in the same order.
package dataprocessing
