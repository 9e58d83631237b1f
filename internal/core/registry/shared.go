package registry

import (
	"sync/atomic"

	"github.com/hamba/avro/v2"
	"go.trai.ch/avrogen/internal/core/domain"
)

// Shared is the process-wide registry. Every operation is a single atomic
// load or store of an immutable Registry value, so readers never block and
// never see a partially updated set.
type Shared struct {
	current atomic.Pointer[Registry]
	flags   atomic.Pointer[domain.RegistryFlags]
}

// NewShared creates a shared registry with no types.
func NewShared(flags domain.RegistryFlags) *Shared {
	s := &Shared{}
	s.flags.Store(&flags)
	s.current.Store(New(flags))
	return s
}

// Snapshot returns an independent copy of the current types and flags.
func (s *Shared) Snapshot() *Registry {
	return s.current.Load().clone()
}

// Reset replaces the registry with an empty one carrying the configured flags.
func (s *Shared) Reset() {
	s.current.Store(New(*s.flags.Load()))
}

// ResetWithFlags replaces the registry with an empty one and changes the flags
// used by later resets.
func (s *Shared) ResetWithFlags(flags domain.RegistryFlags) {
	s.flags.Store(&flags)
	s.current.Store(New(flags))
}

// Publish adds types to the shared registry. Concurrent publishers retry until
// their copy-on-write update lands on the value they read.
func (s *Shared) Publish(types ...avro.NamedSchema) error {
	for {
		old := s.current.Load()
		next := old.clone()
		if err := next.Add(types...); err != nil {
			return err
		}
		if s.current.CompareAndSwap(old, next) {
			return nil
		}
	}
}
