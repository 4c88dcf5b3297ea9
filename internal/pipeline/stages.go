package pipeline

import (
	"context"
	"fmt"
	"os"
	"strings"

	"podbench/internal/catalog"
	"podbench/internal/export"
	"podbench/internal/layout"
	"podbench/internal/processing"
)

// stageDefinition declares a stage's predecessor and its runner. The
// predecessor check happens inside the claim transaction; runners only
// transform files.
type stageDefinition struct {
	requires *catalog.Stage
	run      func(ctx context.Context, episode *catalog.Episode) error
}

func requiresStage(stage catalog.Stage) *catalog.Stage {
	return &stage
}

func (p *Pipeline) buildStages() map[catalog.Stage]stageDefinition {
	return map[catalog.Stage]stageDefinition{
		catalog.StagePreprocess: {
			run: p.runPreprocess,
		},
		catalog.StageEdit: {
			requires: requiresStage(catalog.StagePreprocess),
			run:      p.runEdit,
		},
		catalog.StagePostprocess: {
			requires: requiresStage(catalog.StageEdit),
			run:      p.runPostprocess,
		},
		catalog.StageMetadata: {
			requires: requiresStage(catalog.StagePostprocess),
			run:      p.runMetadata,
		},
		catalog.StageExport: {
			requires: requiresStage(catalog.StageMetadata),
			run:      p.runExport,
		},
	}
}

func (p *Pipeline) runStage(ctx context.Context, episode *catalog.Episode, job *catalog.Job) error {
	def, ok := p.stages[job.Stage]
	if !ok {
		return fmt.Errorf("unknown stage %q", job.Stage)
	}
	return def.run(ctx, episode)
}

func (p *Pipeline) runPreprocess(ctx context.Context, episode *catalog.Episode) error {
	outputDir, err := p.layout.ResetStageOutputs(episode.ID, catalog.StagePreprocess)
	if err != nil {
		return err
	}
	return p.adapter.Preprocess(ctx, processing.PreprocessRequest{
		SourceDir: p.layout.SourceDir(episode.ID),
		OutputDir: outputDir,
	})
}

func (p *Pipeline) runEdit(ctx context.Context, episode *catalog.Episode) error {
	outputDir, err := p.layout.ResetStageOutputs(episode.ID, catalog.StageEdit)
	if err != nil {
		return err
	}

	statePath := ""
	if strings.TrimSpace(episode.EditorState) != "" {
		state, err := os.CreateTemp("", "podbench-editor-state-*.json")
		if err != nil {
			return fmt.Errorf("stage editor state: %w", err)
		}
		statePath = state.Name()
		defer os.Remove(statePath)
		if _, err := state.WriteString(episode.EditorState); err != nil {
			state.Close()
			return fmt.Errorf("write editor state: %w", err)
		}
		if err := state.Close(); err != nil {
			return fmt.Errorf("write editor state: %w", err)
		}
	}

	return p.adapter.Edit(ctx, processing.EditRequest{
		InputDir:        p.layout.PreprocessedDir(episode.ID),
		OutputDir:       outputDir,
		CombinedPath:    p.layout.EditCombinedPath(episode.ID),
		EditorStatePath: statePath,
	})
}

func (p *Pipeline) runPostprocess(ctx context.Context, episode *catalog.Episode) error {
	outputDir, err := p.layout.ResetStageOutputs(episode.ID, catalog.StagePostprocess)
	if err != nil {
		return err
	}
	return p.adapter.Postprocess(ctx, processing.PostprocessRequest{
		InputDir:  p.layout.EditedDir(episode.ID),
		OutputDir: outputDir,
	})
}

func (p *Pipeline) runMetadata(ctx context.Context, episode *catalog.Episode) error {
	outputDir, err := p.layout.ResetStageOutputs(episode.ID, catalog.StageMetadata)
	if err != nil {
		return err
	}
	postprocessed := p.layout.PostprocessedDir(episode.ID)
	audio, err := layout.CombinedAudio(postprocessed)
	if err != nil {
		return fmt.Errorf("resolve combined audio: %w", err)
	}
	transcript, err := layout.CombinedTranscript(postprocessed)
	if err != nil {
		return fmt.Errorf("resolve combined transcript: %w", err)
	}
	return p.adapter.GenerateMetadata(ctx, processing.MetadataRequest{
		AudioPath:      audio,
		TranscriptPath: transcript,
		OutputDir:      outputDir,
	})
}

func (p *Pipeline) runExport(ctx context.Context, episode *catalog.Episode) error {
	outputDir, err := p.layout.ResetStageOutputs(episode.ID, catalog.StageExport)
	if err != nil {
		return err
	}
	transcript, err := layout.CombinedTranscript(p.layout.PostprocessedDir(episode.ID))
	if err != nil {
		return fmt.Errorf("resolve combined transcript: %w", err)
	}
	_, err = export.Bundle(ctx, export.Request{
		MetadataDir:    p.layout.MetadataDir(episode.ID),
		TranscriptPath: transcript,
		OutputDir:      outputDir,
		Title:          episode.Title,
	})
	return err
}
