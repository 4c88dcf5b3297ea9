// Package transcript parses just enough of the SRT format to count cues,
// measure duration, and validate annotated transcripts before they are
// stored.
package transcript
