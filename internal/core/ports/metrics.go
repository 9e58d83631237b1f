package ports

import "go.trai.ch/avrogen/internal/core/domain"

// Metrics records compilation counters.
//
//go:generate go run go.uber.org/mock/mockgen -source=metrics.go -destination=mocks/mock_metrics.go -package=mocks
type Metrics interface {
	// CompilerInvoked counts one invocation of the compiler for format.
	CompilerInvoked(format domain.Format)
	// CacheLookup counts one cache lookup and whether it hit.
	CacheLookup(hit bool)
	// FileFailed counts one source file that failed to compile.
	FileFailed(format domain.Format)
	// WriteTextfile writes the current counters in the Prometheus text format.
	WriteTextfile(path string) error
}
