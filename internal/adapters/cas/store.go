// Package cas implements the on-disk store for incremental cache entries.
package cas

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"go.trai.ch/avrogen/internal/core/domain"
	"go.trai.ch/avrogen/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.CacheStore = (*Store)(nil)

const (
	dirPerm  = 0o750
	filePerm = 0o644
)

var errEmptyCacheDir = zerr.Wrap(domain.ErrInvalidConfig, "cache directory must not be empty")

// Store implements ports.CacheStore using one JSON file per source directory.
// File names are the sha256 of the directory path, so entries for different
// directories never contend. Every operation names the cache directory explicitly.
type Store struct{}

// NewStore creates a new Store.
func NewStore() *Store {
	return &Store{}
}

// Get retrieves the entry for a source directory.
func (s *Store) Get(cacheDir, sourceDir string) (*domain.CacheEntry, error) {
	if cacheDir == "" {
		return nil, errEmptyCacheDir
	}
	filename := s.filename(cacheDir, sourceDir)
	//nolint:gosec // Path is constructed from trusted directory and hashed filename
	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.With(zerr.Wrap(err, "failed to read cache entry"), "source_dir", sourceDir)
	}

	var entry domain.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrCacheCorrupt, err.Error()), "source_dir", sourceDir)
	}
	if entry.SourceDir != sourceDir {
		return nil, nil
	}

	return &entry, nil
}

// Put stores the entry, replacing any previous one. The file is written to a
// temporary name and renamed so readers never observe a partial entry.
func (s *Store) Put(cacheDir string, entry domain.CacheEntry) error {
	if cacheDir == "" {
		return errEmptyCacheDir
	}
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "failed to marshal cache entry")
	}

	if err := os.MkdirAll(cacheDir, dirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create cache directory"), "path", cacheDir)
	}

	tmp, err := os.CreateTemp(cacheDir, "entry-*.tmp")
	if err != nil {
		return zerr.Wrap(err, "failed to create temporary cache file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // Best effort cleanup, gone after rename

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return zerr.Wrap(err, "failed to write cache entry")
	}
	if err := tmp.Chmod(filePerm); err != nil {
		_ = tmp.Close()
		return zerr.Wrap(err, "failed to set cache entry permissions")
	}
	if err := tmp.Close(); err != nil {
		return zerr.Wrap(err, "failed to close cache entry")
	}

	if err := os.Rename(tmpName, s.filename(cacheDir, entry.SourceDir)); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to commit cache entry"), "source_dir", entry.SourceDir)
	}
	return nil
}

// Clear removes every stored entry.
func (s *Store) Clear(cacheDir string) error {
	if cacheDir == "" {
		return errEmptyCacheDir
	}
	if err := os.RemoveAll(cacheDir); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to clear cache"), "path", cacheDir)
	}
	return nil
}

func (s *Store) filename(cacheDir, sourceDir string) string {
	hash := sha256.Sum256([]byte(sourceDir))
	return filepath.Join(cacheDir, hex.EncodeToString(hash[:])+".json")
}
