package adapters

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"funcfleet/internal/types"
)

func TestBuildArchive(t *testing.T) {
	root := writeSourceTree(t, map[string]string{
		"main.py":          "def main(event, context):\n    pass\n",
		"requirements.txt": "requests==2.31.0\n",
		"shared/util.py":   "VERSION = 1\n",
	})
	tree, err := NewSourceScanAdapter().ScanSource(root)
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "out", "check_topics.zip")
	size, err := NewArchiveAdapter().BuildArchive(tree, dest)
	require.NoError(t, err)
	assert.Positive(t, size)

	reader, err := zip.OpenReader(dest)
	require.NoError(t, err)
	defer reader.Close()

	require.Len(t, reader.File, 3)
	assert.Equal(t, "main.py", reader.File[0].Name)
	assert.Equal(t, "requirements.txt", reader.File[1].Name)
	assert.Equal(t, "shared/util.py", reader.File[2].Name)
	for _, entry := range reader.File {
		assert.Equal(t, archiveEpoch, entry.Modified.UTC())
	}
}

func TestBuildArchiveDeterministic(t *testing.T) {
	files := map[string]string{
		"main.py":        "print('hi')\n",
		"shared/util.py": "VERSION = 2\n",
	}
	scan := NewSourceScanAdapter()
	pack := NewArchiveAdapter()

	firstTree, err := scan.ScanSource(writeSourceTree(t, files))
	require.NoError(t, err)
	secondTree, err := scan.ScanSource(writeSourceTree(t, files))
	require.NoError(t, err)

	firstDest := filepath.Join(t.TempDir(), "first.zip")
	secondDest := filepath.Join(t.TempDir(), "second.zip")
	_, err = pack.BuildArchive(firstTree, firstDest)
	require.NoError(t, err)
	_, err = pack.BuildArchive(secondTree, secondDest)
	require.NoError(t, err)

	firstBytes, err := os.ReadFile(firstDest)
	require.NoError(t, err)
	secondBytes, err := os.ReadFile(secondDest)
	require.NoError(t, err)
	assert.Equal(t, firstBytes, secondBytes)
}

func TestBuildArchiveEmptyTree(t *testing.T) {
	_, err := NewArchiveAdapter().BuildArchive(types.SourceTree{}, filepath.Join(t.TempDir(), "empty.zip"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source tree is empty")
}

func TestBuildArchiveMissingSourceFile(t *testing.T) {
	root := writeSourceTree(t, map[string]string{"main.py": "pass\n"})
	tree, err := NewSourceScanAdapter().ScanSource(root)
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(root, "main.py")))

	_, err = NewArchiveAdapter().BuildArchive(tree, filepath.Join(t.TempDir(), "gone.zip"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source file disappeared during packaging")
}
