package layout

import (
	"errors"
	"path/filepath"
	"sort"
	"strings"

	"podbench/internal/fileutil"
)

// ErrArtifactNotFound reports that a directory holds no candidate for the
// requested combined artifact.
var ErrArtifactNotFound = errors.New("artifact not found")

// CombinedArtifact picks the combined file out of a set of candidate names.
// A combine step produces a file whose base name carries no hyphen, while
// per-speaker or per-segment outputs are named with a hyphen-joined suffix;
// the first hyphen-free name wins. When no hyphen-free candidate exists the
// lexicographically first name is returned, so resolution stays stable for
// an unchanged directory. Returns false for an empty set.
func CombinedArtifact(names []string) (string, bool) {
	if len(names) == 0 {
		return "", false
	}
	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.Strings(sorted)

	for _, name := range sorted {
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		if !strings.Contains(stem, "-") {
			return name, true
		}
	}
	return sorted[0], true
}

// CombinedAudio resolves the combined .wav artifact inside dir.
func CombinedAudio(dir string) (string, error) {
	return resolveCombined(dir, ".wav")
}

// CombinedTranscript resolves the combined .srt artifact inside dir.
func CombinedTranscript(dir string) (string, error) {
	return resolveCombined(dir, ".srt")
}

func resolveCombined(dir, ext string) (string, error) {
	names, err := fileutil.ListFileNames(dir)
	if err != nil {
		return "", err
	}
	var candidates []string
	for _, name := range names {
		if strings.EqualFold(filepath.Ext(name), ext) {
			candidates = append(candidates, name)
		}
	}
	name, ok := CombinedArtifact(candidates)
	if !ok {
		return "", ErrArtifactNotFound
	}
	return filepath.Join(dir, name), nil
}
