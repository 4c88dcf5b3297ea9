// Package export packages an episode's metadata artifacts and combined
// transcript into the downloadable archive produced by the export stage.
package export
