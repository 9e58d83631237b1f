package fs_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/avrogen/internal/adapters/fs"
	"go.trai.ch/avrogen/internal/core/domain"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestWalker_WalkFiles(t *testing.T) {
	// tmp/
	//   .git/config
	//   ignored/file
	//   src/main.go
	//   README.md
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, ".git", "config"), "git config")
	writeFile(t, filepath.Join(tmpDir, ".jj", "repo"), "jj")
	writeFile(t, filepath.Join(tmpDir, "ignored", "file"), "ignored content")
	writeFile(t, filepath.Join(tmpDir, "src", "main.go"), "package main")
	writeFile(t, filepath.Join(tmpDir, "README.md"), "# Readme")

	walker := fs.NewWalker()

	var files []string
	for path := range walker.WalkFiles(tmpDir, []string{"ignored"}) {
		rel, err := filepath.Rel(tmpDir, path)
		require.NoError(t, err)
		files = append(files, rel)
	}

	assert.Equal(t, []string{"README.md", filepath.Join("src", "main.go")}, files)
}

func TestWalker_WalkFiles_MissingRoot(t *testing.T) {
	walker := fs.NewWalker()
	count := 0
	for range walker.WalkFiles(filepath.Join(t.TempDir(), "missing"), nil) {
		count++
	}
	assert.Zero(t, count)
}

func TestScanner_Scan(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "a.avdl"), "protocol P {}")
	writeFile(t, filepath.Join(tmpDir, "com", "acme", "b.avsc"), "{}")
	writeFile(t, filepath.Join(tmpDir, "com", "acme", "a.avsc"), "{}")
	writeFile(t, filepath.Join(tmpDir, "svc.avpr"), "{}")
	writeFile(t, filepath.Join(tmpDir, "notes.txt"), "ignored")
	writeFile(t, filepath.Join(tmpDir, "Legacy.AVSC"), "{}")

	scanner := fs.NewScanner(fs.NewWalker())
	result := scanner.Scan(tmpDir)

	assert.Equal(t, tmpDir, result.Root)
	require.Len(t, result.IDL, 1)
	require.Len(t, result.Flat, 2)
	require.Len(t, result.Protocol, 1)
	assert.Equal(t, filepath.Join(tmpDir, "com", "acme", "a.avsc"), result.Flat[0].Path)
	assert.Equal(t, filepath.Join(tmpDir, "com", "acme", "b.avsc"), result.Flat[1].Path)
	assert.Equal(t, domain.FormatProtocol, result.Protocol[0].Format)
}

func TestScanner_Scan_MissingRoot(t *testing.T) {
	scanner := fs.NewScanner(fs.NewWalker())
	result := scanner.Scan(filepath.Join(t.TempDir(), "nope"))
	assert.Empty(t, result.All())
}

func TestScanner_Scan_UnreadableSubtree(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "ok.avsc"), "{}")
	locked := filepath.Join(tmpDir, "locked")
	writeFile(t, filepath.Join(locked, "hidden.avsc"), "{}")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o750) })

	result := fs.NewScanner(fs.NewWalker()).Scan(tmpDir)
	require.Len(t, result.Flat, 1)
	assert.Equal(t, filepath.Join(tmpDir, "ok.avsc"), result.Flat[0].Path)
}

func TestHasher_ComputeFileHash(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.avsc")
	writeFile(t, path, "hello world")

	hasher, err := fs.NewHasher(16)
	require.NoError(t, err)

	hash1, err := hasher.ComputeFileHash(path)
	require.NoError(t, err)
	assert.NotZero(t, hash1)

	hash2, err := hasher.ComputeFileHash(path)
	require.NoError(t, err)
	assert.Equal(t, hash1, hash2)
}

func TestHasher_HashFile_TracksContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.avsc")
	writeFile(t, path, "one")

	hasher, err := fs.NewHasher(16)
	require.NoError(t, err)

	first, err := hasher.HashFile(path)
	require.NoError(t, err)
	assert.Len(t, first, 16)

	writeFile(t, path, "two, longer")
	second, err := hasher.HashFile(path)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	_, err = hasher.HashFile(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}

func TestHasher_HashString(t *testing.T) {
	hasher, err := fs.NewHasher(1)
	require.NoError(t, err)
	assert.Equal(t, hasher.HashString("a"), hasher.HashString("a"))
	assert.NotEqual(t, hasher.HashString("a"), hasher.HashString("b"))
}
