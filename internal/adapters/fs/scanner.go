package fs

import (
	"go.trai.ch/avrogen/internal/core/domain"
	"go.trai.ch/avrogen/internal/core/ports"
)

var _ ports.Scanner = (*Scanner)(nil)

// Scanner discovers Avro sources by extension.
type Scanner struct {
	walker *Walker
}

// NewScanner creates a new Scanner.
func NewScanner(walker *Walker) *Scanner {
	return &Scanner{walker: walker}
}

// Scan groups every Avro source under root by format, in walk order.
func (s *Scanner) Scan(root string) domain.ScanResult {
	result := domain.ScanResult{Root: root}
	for path := range s.walker.WalkFiles(root, nil) {
		result.Add(domain.NewSchemaFile(path))
	}
	return result
}
