// Package services defines shared utilities consumed by the pipeline executor
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp episode IDs, job IDs, stage names, and
//     correlation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification consistent across stages and the HTTP surface.
//
// Use these helpers when wiring new stage logic so operational behaviour
// (error handling, observability) stays uniform across the pipeline.
package services
