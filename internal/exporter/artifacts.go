package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Download names and content types of the report artifacts
const (
	FileCSV  = "predictions.csv"
	FilePDF  = "prediction_report.pdf"
	FileXLSX = "predictions.xlsx"

	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypePDF  = "application/pdf"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Artifact is one produced report file
type Artifact struct {
	Name        string
	ContentType string
	Data        []byte
}

// Size returns the artifact length in bytes
func (a Artifact) Size() int {
	return len(a.Data)
}

// ArtifactWriter persists artifacts into a directory
type ArtifactWriter struct {
	dir    string
	logger *slog.Logger
}

// NewArtifactWriter creates a writer rooted at dir
func NewArtifactWriter(dir string, logger *slog.Logger) *ArtifactWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ArtifactWriter{
		dir:    dir,
		logger: logger.With(slog.String("component", "artifact_writer")),
	}
}

// Dir returns the output directory
func (w *ArtifactWriter) Dir() string {
	return w.dir
}

// Write stores a under its base name and returns the full path. The file is
// written to a temporary name first and renamed into place, so readers never
// see a partial artifact.
func (w *ArtifactWriter) Write(a Artifact) (string, error) {
	if a.Name == "" {
		return "", fmt.Errorf("artifact has no name")
	}

	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	fullPath := filepath.Join(w.dir, filepath.Base(a.Name))

	tmp, err := os.CreateTemp(w.dir, "."+filepath.Base(a.Name)+".*")
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(a.Data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write %s: %w", a.Name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to close %s: %w", a.Name, err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to chmod %s: %w", a.Name, err)
	}
	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to move %s into place: %w", a.Name, err)
	}

	w.logger.Info("artifact written",
		slog.String("file_path", fullPath),
		slog.String("size", FormatSize(a.Size())))

	return fullPath, nil
}

// WriteAll writes every artifact, stopping at the first failure
func (w *ArtifactWriter) WriteAll(artifacts ...Artifact) ([]string, error) {
	paths := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		p, err := w.Write(a)
		if err != nil {
			return paths, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}
