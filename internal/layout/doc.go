// Package layout owns the on-disk contract for episode data: the directory
// tree rooted at <data_dir>/episodes/<id>, combined-artifact resolution, and
// safe joining of caller-supplied file names.
package layout
