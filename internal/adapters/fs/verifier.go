package fs

import (
	"os"
	"path/filepath"
	"slices"

	"go.trai.ch/avrogen/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Verifier = (*Verifier)(nil)

// Verifier provides functionality to verify the existence of files.
type Verifier struct {
	walker *Walker
}

// NewVerifier creates a new Verifier.
func NewVerifier(walker *Walker) *Verifier {
	return &Verifier{walker: walker}
}

// VerifyOutputs checks if all output files exist.
// It returns true if all outputs exist, false otherwise.
func (v *Verifier) VerifyOutputs(outputs []string) (bool, error) {
	for _, path := range outputs {
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				return false, nil
			}
			return false, zerr.With(zerr.Wrap(err, "failed to stat output"), "path", path)
		}
	}
	return true, nil
}

// ListGenerated returns every .go file under root in sorted order.
func (v *Verifier) ListGenerated(root string) ([]string, error) {
	var files []string
	for path := range v.walker.WalkFiles(root, nil) {
		if filepath.Ext(path) == ".go" {
			files = append(files, path)
		}
	}
	slices.Sort(files)
	return files, nil
}
