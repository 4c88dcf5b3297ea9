// Package client is the HTTP client for the podbench daemon API, used by
// the CLI.
//
// Methods map one-to-one onto /api/v1 routes and return the api package's
// response DTOs. Non-2xx responses surface as *APIError carrying the decoded
// error body, so commands can distinguish a missing episode from a stage
// gate refusal without string matching.
package client
