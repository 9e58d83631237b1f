package ports

import "go.trai.ch/avrogen/internal/core/domain"

// Scanner discovers Avro source files.
//
//go:generate go run go.uber.org/mock/mockgen -source=scanner.go -destination=mocks/mock_scanner.go -package=mocks
type Scanner interface {
	// Scan walks root recursively and groups the files it finds by format.
	// A missing or unreadable root yields an empty result.
	Scan(root string) domain.ScanResult
}
