package transcript_test

import (
	"testing"

	"podbench/internal/transcript"
)

const sampleSRT = `1
00:00:01,000 --> 00:00:04,200
Welcome back to the show.

2
00:00:04,500 --> 00:00:09,750
Today we are talking about release schedules.
`

func TestCountCues(t *testing.T) {
	if got := transcript.CountCues([]byte(sampleSRT)); got != 2 {
		t.Fatalf("expected 2 cues, got %d", got)
	}
	if got := transcript.CountCues([]byte("  \n\n  ")); got != 0 {
		t.Fatalf("expected 0 cues for blank content, got %d", got)
	}

	crlf := "1\r\n00:00:01,000 --> 00:00:02,000\r\nHi.\r\n\r\n2\r\n00:00:03,000 --> 00:00:04,000\r\nBye.\r\n"
	if got := transcript.CountCues([]byte(crlf)); got != 2 {
		t.Fatalf("expected 2 cues for CRLF content, got %d", got)
	}
}

func TestDuration(t *testing.T) {
	if got := transcript.Duration([]byte(sampleSRT)); got != 9.75 {
		t.Fatalf("expected 9.75s, got %f", got)
	}
	if got := transcript.Duration([]byte("no timings here")); got != 0 {
		t.Fatalf("expected 0 for content without timings, got %f", got)
	}
}

func TestValidate(t *testing.T) {
	if err := transcript.Validate([]byte(sampleSRT)); err != nil {
		t.Fatalf("expected valid transcript, got %v", err)
	}

	// A period before milliseconds is tolerated.
	dotted := "1\n00:00:01.000 --> 00:00:02.000\nHi.\n"
	if err := transcript.Validate([]byte(dotted)); err != nil {
		t.Fatalf("expected dotted timestamps accepted, got %v", err)
	}

	invalid := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"whitespace", "   \n  "},
		{"no timing lines", "1\njust some prose\n"},
		{"garbled timestamps", "1\nab:cd:ef,ghi --> 00:00\nHi.\n"},
	}
	for _, tc := range invalid {
		if err := transcript.Validate([]byte(tc.content)); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}
