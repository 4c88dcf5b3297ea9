// Package api exposes the episode catalog and processing pipeline over HTTP
// and defines the wire-format DTOs browser and CLI clients consume without
// coupling to internal types.
//
// # Key Types
//
// Server: route table, request decoding, and error mapping around the
// catalog store, layout manager, and pipeline.
//
// Episode/Job: transport representations of catalog rows with per-stage
// statuses flattened into strings.
//
// DaemonStatus: aggregated runtime information including preflight checks,
// dependency probes, and disk headroom.
//
// Ingestor/StatusProvider: the two daemon-side contracts the server calls
// into; the daemon implements both, keeping the import direction one way.
//
// # Converters
//
// FromEpisode/FromJob: catalog rows -> DTOs. Optional timestamps collapse to
// empty strings rather than null.
//
// # Design Notes
//
// DTOs use snake_case JSON tags to match the event stream payloads, so a
// websocket consumer and a REST consumer decode the same field names.
// Timestamps use RFC3339 with milliseconds in UTC.
//
// Stage gate failures and precondition failures both answer 400 with the
// observed status in the body; a stage already holding a live job answers
// 409. Artifact routes never stream partial stage output: the stage must
// have completed first.
package api
