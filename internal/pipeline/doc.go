// Package pipeline drives episodes through the five processing stages.
//
// Initiate claims a stage inside a single catalog transaction and hands the
// resulting job to the executor, which runs the stage on its own goroutine
// and persists exactly one terminal status for it. Stage work itself is
// delegated to a processing.Adapter; this package only sequences claims,
// execution, and outcome recording.
package pipeline
