package domain

import (
	"fmt"

	"go.trai.ch/zerr"
)

var (
	// ErrParse is returned when an Avro source file cannot be parsed or resolved.
	ErrParse = zerr.New("schema parse failed")

	// ErrNamespaceLayout is returned when a flat schema's namespace does not match its directory.
	ErrNamespaceLayout = zerr.New("namespace does not match directory layout")

	// ErrIO is returned when a source file cannot be read or an output cannot be written.
	ErrIO = zerr.New("i/o failure")

	// ErrInvalidOption is returned when a compile option has an unsupported value.
	ErrInvalidOption = zerr.New("invalid compile option")

	// ErrInvalidConfig is returned when the configuration file is malformed or incomplete.
	ErrInvalidConfig = zerr.New("invalid configuration")

	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = zerr.New("configuration file not found")

	// ErrCacheCorrupt is returned when a stored cache entry cannot be decoded.
	ErrCacheCorrupt = zerr.New("cache entry corrupt")

	// ErrDuplicateType is returned when a named type is defined twice within one compilation.
	ErrDuplicateType = zerr.New("duplicate named type")

	// ErrUnsupportedFormat is returned when no compiler handles a file's format.
	ErrUnsupportedFormat = zerr.New("unsupported source format")
)

// NewParseError wraps cause as a parse failure of the file at path.
// The result matches ErrParse with errors.Is.
func NewParseError(path string, cause error) error {
	return zerr.With(fmt.Errorf("%w: %w", ErrParse, cause), "file", path)
}

// NewIOError wraps cause as an I/O failure on path.
// The result matches ErrIO with errors.Is.
func NewIOError(path string, cause error) error {
	return zerr.With(fmt.Errorf("%w: %w", ErrIO, cause), "file", path)
}

// NewNamespaceLayoutError reports a flat schema whose namespace does not match its location.
// The result matches ErrNamespaceLayout with errors.Is.
func NewNamespaceLayoutError(path, namespace, dir string) error {
	err := zerr.With(zerr.Wrap(ErrNamespaceLayout, "flat schema rejected"), "file", path)
	err = zerr.With(err, "namespace", namespace)
	return zerr.With(err, "directory", dir)
}
