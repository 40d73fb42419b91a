package exporter

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricescope/internal/shared/testutil"
)

func TestArtifactWriter_Write(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	dir := filepath.Join(t.TempDir(), "out", "nested")
	w := NewArtifactWriter(dir, logger)

	path, err := w.Write(Artifact{Name: FileCSV, ContentType: ContentTypeCSV, Data: []byte("a,b\n1,2\n")})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, FileCSV), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(content))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")

	testutil.AssertLogContains(t, logs, slog.LevelInfo, "artifact written")
	testutil.AssertLogAttr(t, logs, "size", "8 B")
}

func TestArtifactWriter_Overwrite(t *testing.T) {
	w := NewArtifactWriter(t.TempDir(), nil)

	_, err := w.Write(Artifact{Name: FilePDF, Data: []byte("first version")})
	require.NoError(t, err)
	path, err := w.Write(Artifact{Name: FilePDF, Data: []byte("second")})
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(content))
}

func TestArtifactWriter_StripsDirectories(t *testing.T) {
	dir := t.TempDir()
	w := NewArtifactWriter(dir, nil)

	path, err := w.Write(Artifact{Name: "../../escape.csv", Data: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "escape.csv"), path)
}

func TestArtifactWriter_WriteAll(t *testing.T) {
	w := NewArtifactWriter(t.TempDir(), nil)

	paths, err := w.WriteAll(
		Artifact{Name: FileCSV, Data: []byte("csv")},
		Artifact{Name: FilePDF, Data: []byte("%PDF")},
	)
	require.NoError(t, err)
	assert.Len(t, paths, 2)

	paths, err = w.WriteAll(Artifact{Name: FileXLSX, Data: []byte("x")}, Artifact{})
	require.Error(t, err)
	assert.Len(t, paths, 1)
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "0 B", FormatSize(-1))
	assert.Equal(t, "512 B", FormatSize(512))
	assert.Equal(t, "2.0 kB", FormatSize(2000))
}
