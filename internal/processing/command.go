package processing

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CommandAdapter drives the external processing toolchain, one subcommand
// per operation.
type CommandAdapter struct {
	binary        string
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewCommandAdapter returns an adapter invoking the given toolchain binary.
func NewCommandAdapter(binary string) *CommandAdapter {
	return &CommandAdapter{binary: binary}
}

// WithCommandRunner sets a custom command runner (for testing).
func (a *CommandAdapter) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	a.commandRunner = runner
}

func (a *CommandAdapter) run(ctx context.Context, args ...string) error {
	if a.commandRunner != nil {
		return a.commandRunner(ctx, a.binary, args...)
	}
	cmd := exec.CommandContext(ctx, a.binary, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", a.binary, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// Preprocess aligns and transcribes the uploaded sources.
func (a *CommandAdapter) Preprocess(ctx context.Context, req PreprocessRequest) error {
	if req.SourceDir == "" || req.OutputDir == "" {
		return fmt.Errorf("preprocess: source and output dirs required")
	}
	args := []string{
		"preprocess",
		"--source-dir", req.SourceDir,
		"--output-dir", req.OutputDir,
	}
	if err := a.run(ctx, args...); err != nil {
		return fmt.Errorf("preprocess: %w", err)
	}
	return nil
}

// Edit applies the saved editor state and merges the result.
func (a *CommandAdapter) Edit(ctx context.Context, req EditRequest) error {
	if req.InputDir == "" || req.OutputDir == "" || req.CombinedPath == "" {
		return fmt.Errorf("edit: input dir, output dir, and combined path required")
	}
	args := []string{
		"edit",
		"--input-dir", req.InputDir,
		"--output-dir", req.OutputDir,
		"--combined", req.CombinedPath,
	}
	if req.EditorStatePath != "" {
		args = append(args, "--editor-state", req.EditorStatePath)
	}
	if err := a.run(ctx, args...); err != nil {
		return fmt.Errorf("edit: %w", err)
	}
	return nil
}

// Postprocess masters the edited audio and recombines transcripts.
func (a *CommandAdapter) Postprocess(ctx context.Context, req PostprocessRequest) error {
	if req.InputDir == "" || req.OutputDir == "" {
		return fmt.Errorf("postprocess: input and output dirs required")
	}
	args := []string{
		"postprocess",
		"--input-dir", req.InputDir,
		"--output-dir", req.OutputDir,
	}
	if err := a.run(ctx, args...); err != nil {
		return fmt.Errorf("postprocess: %w", err)
	}
	return nil
}

// GenerateMetadata derives chapters and show notes from the annotated
// transcript.
func (a *CommandAdapter) GenerateMetadata(ctx context.Context, req MetadataRequest) error {
	if req.AudioPath == "" || req.TranscriptPath == "" || req.OutputDir == "" {
		return fmt.Errorf("metadata: audio, transcript, and output dir required")
	}
	args := []string{
		"metadata",
		"--audio", req.AudioPath,
		"--transcript", req.TranscriptPath,
		"--output-dir", req.OutputDir,
	}
	if err := a.run(ctx, args...); err != nil {
		return fmt.Errorf("metadata: %w", err)
	}
	return nil
}
