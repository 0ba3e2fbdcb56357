// Package app wires the sales reporting API server.
//
// NewApplication builds every component from a validated config:
//
//	1. OpenTelemetry providers and the pipeline and websocket instruments
//	2. The websocket hub that streams pipeline progress
//	3. The pipeline runner and the ReportService caching its latest run
//	4. The chi router with middleware, REST handlers and /metrics
//
// Start begins listening and triggers a first pipeline run in the
// background so the API has data without an explicit POST /api/v1/run.
//
//	cfg, err := config.Load()
//	if err != nil {
//		return err
//	}
//	application, err := app.NewApplication(cfg, logger)
//	if err != nil {
//		return err
//	}
//	return application.Run()
//
// Run blocks until SIGINT or SIGTERM and then shuts down gracefully.
package app
