package transcript

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// CountCues returns the number of cue blocks in SRT content. Blocks are
// separated by blank lines; blank-only blocks do not count.
func CountCues(content []byte) int {
	text := strings.ReplaceAll(string(content), "\r\n", "\n")
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	count := 0
	for _, block := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(block) != "" {
			count++
		}
	}
	return count
}

// Duration returns the latest end timestamp in seconds found in SRT content.
func Duration(content []byte) float64 {
	var last float64
	for _, line := range strings.Split(string(content), "\n") {
		if !strings.Contains(line, "-->") {
			continue
		}
		parts := strings.Split(line, "-->")
		if len(parts) != 2 {
			continue
		}
		seconds, err := parseTimestamp(parts[1])
		if err != nil {
			continue
		}
		if seconds > last {
			last = seconds
		}
	}
	return last
}

// Validate checks that content is a plausible SRT document: at least one cue
// block and at least one parseable timing line.
func Validate(content []byte) error {
	if CountCues(content) == 0 {
		return errors.New("transcript has no cues")
	}
	for _, line := range strings.Split(string(content), "\n") {
		if !strings.Contains(line, "-->") {
			continue
		}
		parts := strings.Split(line, "-->")
		if len(parts) != 2 {
			continue
		}
		if _, err := parseTimestamp(parts[0]); err != nil {
			continue
		}
		if _, err := parseTimestamp(parts[1]); err != nil {
			continue
		}
		return nil
	}
	return errors.New("transcript has no valid timing lines")
}

func parseTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	// SRT uses a comma before milliseconds; tolerate a period.
	value = strings.ReplaceAll(value, ".", ",")
	timeParts := strings.Split(value, ",")
	if len(timeParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(timeParts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	return float64(hours*3600+minutes*60+seconds) + float64(millis)/1000, nil
}
