// Package registry holds the named Avro types visible to a compilation.
//
// A Registry value is private to one compilation run and may be mutated freely by it.
// Shared is the process-wide holder: callers take a Snapshot, work on the copy,
// and never observe another run's additions.
package registry

import (
	"encoding/hex"
	"maps"
	"slices"
	"strings"

	"github.com/hamba/avro/v2"
	"go.trai.ch/avrogen/internal/core/domain"
	"go.trai.ch/zerr"
)

// Registry is a set of named Avro types plus the validation flags in force.
type Registry struct {
	types map[string]avro.NamedSchema
	order []string
	flags domain.RegistryFlags
}

// New creates an empty registry carrying the given flags.
func New(flags domain.RegistryFlags) *Registry {
	return &Registry{
		types: make(map[string]avro.NamedSchema),
		flags: flags,
	}
}

// Flags returns the validation flags.
func (r *Registry) Flags() domain.RegistryFlags {
	return r.flags
}

// Len returns the number of named types.
func (r *Registry) Len() int {
	return len(r.types)
}

// Lookup returns the type registered under the full name.
func (r *Registry) Lookup(fullName string) (avro.NamedSchema, bool) {
	s, ok := r.types[fullName]
	return s, ok
}

// Names returns the registered full names in insertion order.
func (r *Registry) Names() []string {
	return slices.Clone(r.order)
}

// Add registers named types. Re-adding an identical definition is a no-op;
// a different definition under an existing name fails with ErrDuplicateType
// and leaves the registry unchanged.
func (r *Registry) Add(types ...avro.NamedSchema) error {
	for _, t := range types {
		if existing, ok := r.types[t.FullName()]; ok && existing.Fingerprint() != t.Fingerprint() {
			return zerr.With(zerr.Wrap(domain.ErrDuplicateType, "conflicting definition"), "type", t.FullName())
		}
	}
	for _, t := range types {
		name := t.FullName()
		if _, ok := r.types[name]; ok {
			continue
		}
		r.types[name] = t
		r.order = append(r.order, name)
	}
	return nil
}

// Digest describes the registered types by name and canonical fingerprint.
// Registries holding the same definitions have equal digests regardless of
// insertion order.
func (r *Registry) Digest() string {
	names := slices.Sorted(maps.Keys(r.types))
	var b strings.Builder
	for _, name := range names {
		fp := r.types[name].Fingerprint()
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(hex.EncodeToString(fp[:]))
		b.WriteByte('\n')
	}
	return b.String()
}

// SchemaCache returns a new parser cache seeded with every registered type and its aliases.
// Parsing against it never modifies the registry.
func (r *Registry) SchemaCache() *avro.SchemaCache {
	cache := &avro.SchemaCache{}
	for _, name := range r.order {
		t := r.types[name]
		cache.Add(name, t)
		for _, alias := range t.Aliases() {
			cache.Add(alias, t)
		}
	}
	return cache
}

func (r *Registry) clone() *Registry {
	return &Registry{
		types: maps.Clone(r.types),
		order: slices.Clone(r.order),
		flags: r.flags,
	}
}
