package testsupport

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"podbench/internal/catalog"
	"podbench/internal/fileutil"
	"podbench/internal/processing"
)

// SampleSRT is a small parseable transcript for tests that need real cue
// timings.
const SampleSRT = `1
00:00:00,000 --> 00:00:04,500
Welcome back to the show.

2
00:00:04,500 --> 00:00:09,750
Today we are walking through the release checklist.
`

// FakeAdapter implements processing.Adapter with deterministic file writes,
// so pipeline tests can assert stage outputs without the external toolchain.
// Failures, panics, and delays can be injected per stage.
type FakeAdapter struct {
	mu          sync.Mutex
	failures    map[catalog.Stage]error
	panics      map[catalog.Stage]string
	delays      map[catalog.Stage]time.Duration
	calls       []catalog.Stage
	editorState string
}

var _ processing.Adapter = (*FakeAdapter)(nil)

func NewFakeAdapter() *FakeAdapter {
	return &FakeAdapter{
		failures: make(map[catalog.Stage]error),
		panics:   make(map[catalog.Stage]string),
		delays:   make(map[catalog.Stage]time.Duration),
	}
}

// FailStage makes the named stage's adapter call return err.
func (f *FakeAdapter) FailStage(stage catalog.Stage, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[stage] = err
}

// PanicStage makes the named stage's adapter call panic with message.
func (f *FakeAdapter) PanicStage(stage catalog.Stage, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.panics[stage] = message
}

// DelayStage makes the named stage's adapter call wait for d before doing
// anything else. The wait honors context cancellation.
func (f *FakeAdapter) DelayStage(stage catalog.Stage, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delays[stage] = d
}

// Calls reports the stages whose adapter calls started, in order.
func (f *FakeAdapter) Calls() []catalog.Stage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]catalog.Stage, len(f.calls))
	copy(out, f.calls)
	return out
}

// EditorState reports the editor state content seen by the most recent Edit
// call, or the empty string when none was provided.
func (f *FakeAdapter) EditorState() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.editorState
}

func (f *FakeAdapter) gate(ctx context.Context, stage catalog.Stage) error {
	f.mu.Lock()
	f.calls = append(f.calls, stage)
	delay := f.delays[stage]
	message := f.panics[stage]
	failure := f.failures[stage]
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if message != "" {
		panic(message)
	}
	return failure
}

// Preprocess treats the first sorted source as the reference track, writes
// one aligned wav per remaining source, and emits a transcript.
func (f *FakeAdapter) Preprocess(ctx context.Context, req processing.PreprocessRequest) error {
	if err := f.gate(ctx, catalog.StagePreprocess); err != nil {
		return err
	}
	names, err := fileutil.ListFileNames(req.SourceDir)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return fmt.Errorf("no source recordings in %s", req.SourceDir)
	}
	speakers := names
	if len(names) > 1 {
		speakers = names[1:]
	}
	for _, name := range speakers {
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		aligned := filepath.Join(req.OutputDir, stem+"-aligned.wav")
		if err := os.WriteFile(aligned, []byte("aligned "+name), 0o644); err != nil {
			return err
		}
	}
	return os.WriteFile(filepath.Join(req.OutputDir, "transcript.srt"), []byte(SampleSRT), 0o644)
}

// Edit copies the preprocessed wavs through and writes the combined track at
// the requested path.
func (f *FakeAdapter) Edit(ctx context.Context, req processing.EditRequest) error {
	if err := f.gate(ctx, catalog.StageEdit); err != nil {
		return err
	}

	state := ""
	if req.EditorStatePath != "" {
		data, err := os.ReadFile(req.EditorStatePath)
		if err != nil {
			return err
		}
		state = string(data)
	}
	f.mu.Lock()
	f.editorState = state
	f.mu.Unlock()

	names, err := fileutil.ListFileNames(req.InputDir)
	if err != nil {
		return err
	}
	for _, name := range names {
		if !strings.EqualFold(filepath.Ext(name), ".wav") {
			continue
		}
		src := filepath.Join(req.InputDir, name)
		if err := fileutil.CopyFile(src, filepath.Join(req.OutputDir, name)); err != nil {
			return err
		}
	}
	return os.WriteFile(req.CombinedPath, []byte("combined audio"), 0o644)
}

// Postprocess writes a mastered track, its unmastered sibling, and the
// combined transcript.
func (f *FakeAdapter) Postprocess(ctx context.Context, req processing.PostprocessRequest) error {
	if err := f.gate(ctx, catalog.StagePostprocess); err != nil {
		return err
	}
	outputs := map[string]string{
		"episode.wav":     "mastered audio",
		"episode-raw.wav": "unmastered audio",
		"episode.srt":     SampleSRT,
	}
	for name, content := range outputs {
		if err := os.WriteFile(filepath.Join(req.OutputDir, name), []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}

// GenerateMetadata checks both inputs exist, then writes chapters and show
// notes and copies the final audio alongside them.
func (f *FakeAdapter) GenerateMetadata(ctx context.Context, req processing.MetadataRequest) error {
	if err := f.gate(ctx, catalog.StageMetadata); err != nil {
		return err
	}
	if _, err := os.Stat(req.AudioPath); err != nil {
		return fmt.Errorf("metadata audio input: %w", err)
	}
	if _, err := os.Stat(req.TranscriptPath); err != nil {
		return fmt.Errorf("metadata transcript input: %w", err)
	}
	chapters := "00:00:00 Intro\n00:04:30 Release checklist\n"
	if err := os.WriteFile(filepath.Join(req.OutputDir, "chapters.txt"), []byte(chapters), 0o644); err != nil {
		return err
	}
	notes := "A walkthrough of the release checklist.\n"
	if err := os.WriteFile(filepath.Join(req.OutputDir, "show_notes.txt"), []byte(notes), 0o644); err != nil {
		return err
	}
	return fileutil.CopyFile(req.AudioPath, filepath.Join(req.OutputDir, filepath.Base(req.AudioPath)))
}
