package ports

// Verifier defines the interface for verifying file existence.
//
//go:generate go run go.uber.org/mock/mockgen -destination=mocks/verifier_mock.go -package=mocks -source=verifier.go
type Verifier interface {
	// VerifyOutputs reports whether every output path exists.
	VerifyOutputs(outputs []string) (bool, error)

	// ListGenerated returns every generated Go file under root, sorted.
	// A missing root yields an empty list.
	ListGenerated(root string) ([]string, error)
}
