package processing

import "context"

// PreprocessRequest names the directories for the preprocess operation.
type PreprocessRequest struct {
	SourceDir string
	OutputDir string
}

// EditRequest names the inputs and outputs for the edit operation.
// CombinedPath is where the toolchain writes the merged audio.
// EditorStatePath points at a file holding the episode's editor state and is
// empty when none has been saved.
type EditRequest struct {
	InputDir        string
	OutputDir       string
	CombinedPath    string
	EditorStatePath string
}

// PostprocessRequest names the directories for the postprocess operation.
type PostprocessRequest struct {
	InputDir  string
	OutputDir string
}

// MetadataRequest names the inputs and output for metadata generation. The
// toolchain derives chapters and show notes from the transcript and copies
// the final audio alongside them.
type MetadataRequest struct {
	AudioPath      string
	TranscriptPath string
	OutputDir      string
}

// Adapter performs the audio transformations behind the pipeline stages.
// Implementations may take seconds to minutes per call and must honor
// context cancellation.
type Adapter interface {
	Preprocess(ctx context.Context, req PreprocessRequest) error
	Edit(ctx context.Context, req EditRequest) error
	Postprocess(ctx context.Context, req PostprocessRequest) error
	GenerateMetadata(ctx context.Context, req MetadataRequest) error
}
