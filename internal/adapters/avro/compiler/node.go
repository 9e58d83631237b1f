package compiler

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/avrogen/internal/core/ports"
)

// NodeID is the unique identifier for the format compilers Graft node.
const NodeID graft.ID = "adapter.compilers"

func init() {
	// Compilers in the order a source directory is compiled.
	graft.Register(graft.Node[[]ports.Compiler]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(ctx context.Context) ([]ports.Compiler, error) {
			return []ports.Compiler{
				NewIDLCompiler(),
				NewFlatSchemaCompiler(),
				NewProtocolCompiler(),
			}, nil
		},
	})
}
