package ops

import (
	"archive/tar"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func readTree(t *testing.T, root string) map[string]string {
	t.Helper()
	got := map[string]string{}
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		got[filepath.ToSlash(rel)] = string(b)
		return nil
	})
	require.NoError(t, err)
	return got
}

func TestBackupRestore_RoundTrip(t *testing.T) {
	src := filepath.Join(t.TempDir(), "data")
	files := map[string]string{
		"blocks.json":        `{"version":1,"blocks":[{"id":"a","title":"Run","date":"2024-01-02"}]}`,
		"activity.jsonl":     `{"id":1,"type":"block_added"}` + "\n",
		"nested/config.yaml": "data_dir: x\n",
	}
	writeTree(t, src, files)

	archive := filepath.Join(t.TempDir(), "out", "backup.tar.gz")
	sum, err := Backup(src, archive, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Files)
	assert.FileExists(t, archive)

	target := filepath.Join(t.TempDir(), "restore")
	restored, err := Restore(archive, target, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 3, restored.Files)
	assert.Equal(t, files, readTree(t, target))

	want, err := Digest(src)
	require.NoError(t, err)
	got, err := Digest(target)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestBackup_SkipsArchiveInsideDataDir(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{"blocks.json": "[]"})

	archive := filepath.Join(src, "self.tar.gz")
	sum, err := Backup(src, archive, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Files)
}

func TestBackup_MissingDataDir(t *testing.T) {
	_, err := Backup(filepath.Join(t.TempDir(), "nope"), filepath.Join(t.TempDir(), "a.tar.gz"), zerolog.Nop())
	assert.Error(t, err)
}

func TestRestore_RejectsPathTraversal(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "bad.tar.gz")
	f, err := os.Create(archive)
	require.NoError(t, err)

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name:     "../escape.txt",
		Typeflag: tar.TypeReg,
		Mode:     0o644,
		Size:     int64(len("bad")),
	}))
	_, err = tw.Write([]byte("bad"))
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	_, err = Restore(archive, filepath.Join(t.TempDir(), "out"), zerolog.Nop())
	assert.ErrorIs(t, err, ErrUnsafeEntry)
}

func TestDigest_ChangesWithContent(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	writeTree(t, a, map[string]string{"blocks.json": "[]"})
	writeTree(t, b, map[string]string{"blocks.json": "[ ]"})

	da, err := Digest(a)
	require.NoError(t, err)
	db, err := Digest(b)
	require.NoError(t, err)
	assert.NotEqual(t, da, db)
}

func TestDefaultArchiveName(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, "lifetracker-20240102T030405Z.tar.gz", DefaultArchiveName(now))
}
