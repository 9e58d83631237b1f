package fs

import (
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.trai.ch/avrogen/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.ContentHasher = (*Hasher)(nil)

// DefaultMemoSize is the number of file digests kept in memory.
const DefaultMemoSize = 4096

type memoKey struct {
	path    string
	modTime int64
	size    int64
}

// Hasher computes xxhash digests of files. Digests are memoised by path,
// modification time and size, so unchanged files are read once per process.
type Hasher struct {
	memo *lru.Cache[memoKey, string]
}

// NewHasher creates a new Hasher keeping up to size digests.
func NewHasher(size int) (*Hasher, error) {
	memo, err := lru.New[memoKey, string](size)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to create digest memo")
	}
	return &Hasher{memo: memo}, nil
}

// ComputeFileHash computes the XXHash of a file's content.
func (h *Hasher) ComputeFileHash(path string) (uint64, error) {
	f, err := os.Open(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to open file"), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	hasher := xxhash.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to hash file content"), "path", path)
	}

	return hasher.Sum64(), nil
}

// HashFile returns the hex digest of the file's content.
func (h *Hasher) HashFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to stat file"), "path", path)
	}

	key := memoKey{path: path, modTime: info.ModTime().UnixNano(), size: info.Size()}
	if digest, ok := h.memo.Get(key); ok {
		return digest, nil
	}

	sum, err := h.ComputeFileHash(path)
	if err != nil {
		return "", err
	}
	digest := fmt.Sprintf("%016x", sum)
	h.memo.Add(key, digest)
	return digest, nil
}

// HashString returns the hex digest of s.
func (h *Hasher) HashString(s string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(s))
}
