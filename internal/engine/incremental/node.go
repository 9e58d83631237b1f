package incremental

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/avrogen/internal/adapters/cas" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/avrogen/internal/adapters/fs"  //nolint:depguard // Wired in engine wiring
	"go.trai.ch/avrogen/internal/core/ports"
)

// NodeID is the unique identifier for the incremental cache Graft node.
const NodeID graft.ID = "engine.incremental"

func init() {
	graft.Register(graft.Node[*Cache]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			cas.NodeID,
			fs.HasherNodeID,
			fs.VerifierNodeID,
		},
		Run: func(ctx context.Context) (*Cache, error) {
			store, err := graft.Dep[ports.CacheStore](ctx)
			if err != nil {
				return nil, err
			}

			hasher, err := graft.Dep[ports.ContentHasher](ctx)
			if err != nil {
				return nil, err
			}

			verifier, err := graft.Dep[ports.Verifier](ctx)
			if err != nil {
				return nil, err
			}

			return New(store, hasher, verifier), nil
		},
	})
}
