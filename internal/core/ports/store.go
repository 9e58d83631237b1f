package ports

import "go.trai.ch/avrogen/internal/core/domain"

// CacheStore defines the interface for persisting per-directory cache entries.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type CacheStore interface {
	// Get retrieves the entry recorded for a source directory in cacheDir.
	// Returns nil, nil if not found.
	Get(cacheDir, sourceDir string) (*domain.CacheEntry, error)

	// Put stores the entry in cacheDir, replacing any previous entry for the same directory.
	Put(cacheDir string, entry domain.CacheEntry) error

	// Clear removes every entry stored in cacheDir.
	Clear(cacheDir string) error
}
