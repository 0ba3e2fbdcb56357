// Package pipeline runs the sales analysis as a sequence of tracked steps.
//
// A run loads the three input tables, optionally trims the feed to one
// month, normalizes it, ranks products into ABC tiers, computes the
// reporting aggregates, forecasts daily sales and writes the report files:
//
//	load -> trim -> normalize -> classify -> analytics -> forecast -> export
//
// Every step has a StepState (pending, active, completed, failed or skipped)
// with start and end times and a metadata map of row counts. Transitions are
// sent to a ProgressReporter; the websocket hub implements it for the web
// server and LogReporter stands in for it in the command line tools.
//
// Failure policy:
//
//   - load and normalize failures are fatal. Remaining steps are skipped and
//     Run returns the error together with the partial RunResult.
//   - a period without revenue fails only the classify step. The run ends
//     with status "partial", RunResult.ClassificationErr holds the
//     NO_REVENUE error and the analytics remain valid.
//   - a forecast that cannot be fitted skips the forecast step and adds a
//     warning.
//
// Example usage:
//
//	runner, err := pipeline.NewRunner(pipeline.OptionsFromConfig(cfg), pipeline.Dependencies{
//		Logger:   logger,
//		Reporter: hub,
//		Metrics:  metrics,
//	})
//	if err != nil {
//		return err
//	}
//	result, err := runner.Run(ctx)
package pipeline
