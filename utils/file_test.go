package utils

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestZIP(t *testing.T, dir string, files map[string]string) string {
	t.Helper()
	zipPath := filepath.Join(dir, "test.zip")
	f, err := os.Create(zipPath)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	for name, content := range files {
		fw, err := w.Create(name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
	return zipPath
}

func TestGetFilenameWithoutExt(t *testing.T) {
	assert.Equal(t, "CanadaLandcover2015", GetFilenameWithoutExt("/a/b/CanadaLandcover2015.tif"))
	assert.Equal(t, "x.tar", GetFilenameWithoutExt("x.tar.gz"))
	assert.Equal(t, "noext", GetFilenameWithoutExt("noext"))
}

func TestGetUniqSubDir(t *testing.T) {
	parent := filepath.Join(t.TempDir(), "nested")
	a, err := GetUniqSubDir(parent)
	require.NoError(t, err)
	b, err := GetUniqSubDir(parent)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.DirExists(t, a)
	assert.DirExists(t, b)
}

func TestUnzip(t *testing.T) {
	dir := t.TempDir()
	zipPath := createTestZIP(t, dir, map[string]string{
		"data/a.tif":   "a",
		"data/b.txt":   "b",
		"readme.md":    "r",
		"data/sub/c.x": "c",
	})
	dst := filepath.Join(dir, "out")
	files, err := Unzip(zipPath, dst)
	require.NoError(t, err)
	assert.Len(t, files, 4)
	data, err := os.ReadFile(filepath.Join(dst, "data", "a.tif"))
	require.NoError(t, err)
	assert.Equal(t, "a", string(data))
}

func TestUnzipRejectsZipSlip(t *testing.T) {
	dir := t.TempDir()
	zipPath := createTestZIP(t, dir, map[string]string{"../../evil.txt": "x"})
	_, err := Unzip(zipPath, filepath.Join(dir, "out"))
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(filepath.Dir(dir), "evil.txt"))
}

func TestGetFileInZip(t *testing.T) {
	dir := t.TempDir()
	zipPath := createTestZIP(t, dir, map[string]string{
		"pkg/b.TIF":   "b",
		"pkg/a.tif":   "a",
		"pkg/doc.pdf": "d",
	})
	path, err := GetFileInZip(zipPath, filepath.Join(dir, "out"), ".tif")
	require.NoError(t, err)
	assert.Equal(t, "a.tif", filepath.Base(path))

	_, err = GetFileInZip(zipPath, filepath.Join(dir, "out2"), ".shp")
	assert.True(t, eris.Is(err, ErrNoFileInZip))
}
