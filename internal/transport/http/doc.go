// Package http implements the REST handlers of the sales reporting service.
//
// Handlers stay thin: they bind and validate query parameters, call the
// service layer and render JSON with go-chi/render. Errors go through the
// shared ErrorHandler and come back as RFC 7807 problem documents.
//
// # Routes
//
// ReportHandler.Routes is mounted under /api/v1:
//
//	GET  /run                     latest run with step states and warnings
//	POST /run                     execute the pipeline now (409 while running)
//	GET  /normalized              normalized rows, ?limit=&offset=
//	GET  /classification          ranked ABC classification
//	GET  /classification/summary  per-tier totals
//	GET  /overview                revenue, COGS and profit
//	GET  /trend/weekly            revenue per relative week
//	GET  /movers                  fast and slow movers, ?n=
//	GET  /cogs                    COGS by category
//	GET  /forecast                revenue forecast
//
// FilesHandler.Routes is mounted under /api/v1/files: GET / lists the
// report files (?kind=&period=) and GET /{name} downloads one.
//
// HealthHandler.Routes is mounted under /healthz with / , /ready and /live.
//
// Before the first successful run every report endpoint answers 503. When
// the run had no revenue the classification endpoints answer 422 while the
// rest of the reports stay available.
package http
