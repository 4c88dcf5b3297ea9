// Package daemon coordinates the long-running podbench process.
//
// It wires configuration, the episode catalog, the processing pipeline, the
// event hub, and the HTTP API into a single lifecycle with flock-based
// locking to prevent multiple instances. The daemon owns upload ingestion,
// auto-starting preprocess for new episodes, and the aggregated runtime
// status served to clients.
//
// Keep orchestration logic here: stage execution lives in pipeline, request
// handling in api, and the daemon focuses on startup, shutdown, and high
// level coordination.
package daemon
