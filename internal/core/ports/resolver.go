package ports

// InputResolver expands configured import patterns into files.
//
//go:generate go run go.uber.org/mock/mockgen -destination=mocks/resolver_mock.go -package=mocks -source=resolver.go
type InputResolver interface {
	// ResolveInputs returns the sorted files matched by patterns, relative ones resolved against root.
	ResolveInputs(inputs []string, root string) ([]string, error)
}
