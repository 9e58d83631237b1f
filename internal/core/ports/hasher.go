package ports

// ContentHasher defines the interface for computing content digests.
//
//go:generate go run go.uber.org/mock/mockgen -destination=mocks/hasher_mock.go -package=mocks -source=hasher.go
type ContentHasher interface {
	// HashFile returns the hex digest of the file's content.
	HashFile(path string) (string, error)

	// HashString returns the hex digest of s.
	HashString(s string) string
}
