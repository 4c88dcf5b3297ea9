package export

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"podbench/internal/fileutil"
	"podbench/internal/textutil"
)

const fallbackArchiveStem = "episode"

// Request describes one export bundling run.
type Request struct {
	MetadataDir    string
	TranscriptPath string
	OutputDir      string
	Title          string
}

// Bundle packages the metadata directory's files and the combined transcript
// into a single zip archive named after the episode title, replacing any
// prior archive in the output directory. It returns the archive path.
func Bundle(ctx context.Context, req Request) (string, error) {
	stem := textutil.SanitizeFileName(strings.TrimSpace(req.Title))
	if stem == "" {
		stem = fallbackArchiveStem
	}

	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("ensure export dir: %w", err)
	}
	if err := removePriorArchives(req.OutputDir); err != nil {
		return "", err
	}

	archivePath := filepath.Join(req.OutputDir, stem+".zip")
	archive, err := os.Create(archivePath)
	if err != nil {
		return "", fmt.Errorf("create archive: %w", err)
	}
	defer archive.Close()

	writer := zip.NewWriter(archive)
	added := make(map[string]struct{})

	names, err := fileutil.ListFileNames(req.MetadataDir)
	if err != nil {
		return "", fmt.Errorf("list metadata files: %w", err)
	}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if err := addEntry(writer, filepath.Join(req.MetadataDir, name), name, added); err != nil {
			return "", err
		}
	}

	if req.TranscriptPath != "" {
		if err := addEntry(writer, req.TranscriptPath, filepath.Base(req.TranscriptPath), added); err != nil {
			return "", err
		}
	}

	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finalize archive: %w", err)
	}
	if err := archive.Close(); err != nil {
		return "", fmt.Errorf("flush archive: %w", err)
	}
	return archivePath, nil
}

func removePriorArchives(dir string) error {
	names, err := fileutil.ListFileNames(dir)
	if err != nil {
		return fmt.Errorf("list export dir: %w", err)
	}
	for _, name := range names {
		if !strings.EqualFold(filepath.Ext(name), ".zip") {
			continue
		}
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("remove prior archive: %w", err)
		}
	}
	return nil
}

func addEntry(writer *zip.Writer, path, name string, added map[string]struct{}) error {
	if _, dup := added[name]; dup {
		return nil
	}
	added[name] = struct{}{}

	source, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer source.Close()

	entry, err := writer.Create(name)
	if err != nil {
		return fmt.Errorf("add %s: %w", name, err)
	}
	if _, err := io.Copy(entry, source); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
