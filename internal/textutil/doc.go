// Package textutil provides text processing utilities for filename handling.
//
// The primary use cases are:
//   - Validating uploaded file names before they touch the filesystem
//   - Normalizing names to NFC so lookups are byte-stable
//   - Sanitizing display titles into archive-safe names
//   - Deriving human-readable episode titles from recording file names
package textutil
