// Package preflight provides readiness checks for the filesystem paths and
// external binaries podbench depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll at startup. A failed data-directory check
//     aborts startup; a missing toolchain is logged and surfaced in status,
//     since the API can still serve reads without it.
//   - The status endpoint and the CLI "podbench status" command report the
//     same checks plus disk headroom for the data directory.
package preflight
