// Package processing defines the boundary to the external audio toolchain.
// The pipeline depends on the Adapter interface; CommandAdapter is the
// production implementation wrapping the configured processor binary.
package processing
