// Package main hosts the podbench CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into HTTP
// calls against the daemon: episode creation and inspection, stage
// triggering, status reporting, and configuration scaffolding. It
// centralizes configuration resolution and daemon address discovery so
// subcommands can focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
