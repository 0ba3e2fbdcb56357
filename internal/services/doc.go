// Package services sits between the HTTP handlers and the pipeline.
//
// # ReportService
//
// ReportService owns the pipeline runner. It executes at most one run at a
// time, caches the latest successful RunResult and answers every read query
// of the API from that cache:
//
//	svc := services.NewReportService(runner, cfg.Server.RunTimeout, logger)
//	if _, err := svc.Run(ctx); err != nil {
//		logger.Error("initial run failed", slog.String("error", err.Error()))
//	}
//	page, err := svc.Normalized(100, 0)
//
// A failed run records its error for health checks but keeps the previous
// result available. When the cached run had no revenue, Classification and
// TierSummary return the NO_REVENUE error while the normalized dataset and
// reports stay readable.
//
// # HealthService
//
// HealthService reports liveness and readiness. Readiness requires the three
// input tables on disk and a last run that did not fail.
package services
