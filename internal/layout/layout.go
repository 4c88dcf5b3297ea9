package layout

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"podbench/internal/catalog"
	"podbench/internal/textutil"
)

// ErrUnsafeName reports a caller-supplied file name that could escape its
// stage directory.
var ErrUnsafeName = errors.New("unsafe file name")

const (
	episodesDirName      = "episodes"
	sourceDirName        = "source"
	preprocessedDirName  = "preprocessed"
	editedDirName        = "edited"
	postprocessedDirName = "postprocessed"
	metadataDirName      = "metadata"
	exportDirName        = "export"

	editCombinedFileName = "edited-combined.wav"
	chaptersFileName     = "chapters.txt"
	showNotesFileName    = "show_notes.txt"
)

var stageOutputDirNames = map[catalog.Stage]string{
	catalog.StagePreprocess:  preprocessedDirName,
	catalog.StageEdit:        editedDirName,
	catalog.StagePostprocess: postprocessedDirName,
	catalog.StageMetadata:    metadataDirName,
	catalog.StageExport:      exportDirName,
}

// Manager translates episode identifiers and stage names into filesystem
// paths under the data directory. Directories are created lazily by the
// stage that writes them; the whole tree is owned by the episode and removed
// with it.
type Manager struct {
	dataDir string
}

// NewManager returns a Manager rooted at dataDir.
func NewManager(dataDir string) *Manager {
	return &Manager{dataDir: dataDir}
}

// EpisodesRoot returns the directory holding every episode tree.
func (m *Manager) EpisodesRoot() string {
	return filepath.Join(m.dataDir, episodesDirName)
}

// EpisodeDir returns the root of one episode's tree.
func (m *Manager) EpisodeDir(episodeID string) string {
	return filepath.Join(m.EpisodesRoot(), episodeID)
}

// SourceDir holds the uploaded originals for an episode.
func (m *Manager) SourceDir(episodeID string) string {
	return filepath.Join(m.EpisodeDir(episodeID), sourceDirName)
}

// PreprocessedDir holds per-source processed audio plus transcripts.
func (m *Manager) PreprocessedDir(episodeID string) string {
	return filepath.Join(m.EpisodeDir(episodeID), preprocessedDirName)
}

// EditedDir holds the edit stage's per-source outputs.
func (m *Manager) EditedDir(episodeID string) string {
	return filepath.Join(m.EpisodeDir(episodeID), editedDirName)
}

// PostprocessedDir holds mastered audio and recombined transcripts.
func (m *Manager) PostprocessedDir(episodeID string) string {
	return filepath.Join(m.EpisodeDir(episodeID), postprocessedDirName)
}

// MetadataDir holds generated chapters, show notes, and the metadata-stage
// audio copy.
func (m *Manager) MetadataDir(episodeID string) string {
	return filepath.Join(m.EpisodeDir(episodeID), metadataDirName)
}

// ExportDir holds the packaged archive.
func (m *Manager) ExportDir(episodeID string) string {
	return filepath.Join(m.EpisodeDir(episodeID), exportDirName)
}

// EditCombinedPath is the canonical target for the edit stage's combined
// audio, written at the episode root next to the stage directories.
func (m *Manager) EditCombinedPath(episodeID string) string {
	return filepath.Join(m.EpisodeDir(episodeID), editCombinedFileName)
}

// ChaptersPath is where the metadata stage writes chapter markers.
func (m *Manager) ChaptersPath(episodeID string) string {
	return filepath.Join(m.MetadataDir(episodeID), chaptersFileName)
}

// ShowNotesPath is where the metadata stage writes show notes.
func (m *Manager) ShowNotesPath(episodeID string) string {
	return filepath.Join(m.MetadataDir(episodeID), showNotesFileName)
}

// ExportArchive resolves the packaged archive inside the export directory.
// Export replaces prior archives, so at most one candidate exists.
func (m *Manager) ExportArchive(episodeID string) (string, error) {
	return resolveCombined(m.ExportDir(episodeID), ".zip")
}

// StageOutputDir returns the directory a stage writes into.
func (m *Manager) StageOutputDir(episodeID string, stage catalog.Stage) (string, error) {
	name, ok := stageOutputDirNames[stage]
	if !ok {
		return "", fmt.Errorf("no output directory for stage %q", stage)
	}
	return filepath.Join(m.EpisodeDir(episodeID), name), nil
}

// ResetStageOutputs clears a stage's prior outputs and recreates an empty
// output directory, so re-runs never mix results from different attempts.
// The edit stage additionally owns the loose combined files at the episode
// root; those are removed with its directory.
func (m *Manager) ResetStageOutputs(episodeID string, stage catalog.Stage) (string, error) {
	dir, err := m.StageOutputDir(episodeID, stage)
	if err != nil {
		return "", err
	}
	if err := os.RemoveAll(dir); err != nil {
		return "", fmt.Errorf("clear stage outputs: %w", err)
	}
	if stage == catalog.StageEdit {
		if err := m.removeRootArtifacts(episodeID); err != nil {
			return "", err
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create stage output dir: %w", err)
	}
	return dir, nil
}

func (m *Manager) removeRootArtifacts(episodeID string) error {
	root := m.EpisodeDir(episodeID)
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read episode dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(root, entry.Name())); err != nil {
			return fmt.Errorf("remove root artifact: %w", err)
		}
	}
	return nil
}

// RemoveEpisode deletes the entire episode tree. A missing tree is not an
// error.
func (m *Manager) RemoveEpisode(episodeID string) error {
	return os.RemoveAll(m.EpisodeDir(episodeID))
}

// SafeJoin joins a caller-supplied file name onto dir after rejecting names
// that contain path separators or parent-directory segments.
func (m *Manager) SafeJoin(dir, name string) (string, error) {
	name = textutil.NormalizeFileName(name)
	if !textutil.IsSafeFileName(name) {
		return "", fmt.Errorf("%w: %q", ErrUnsafeName, name)
	}
	return filepath.Join(dir, name), nil
}
