package metrics

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/avrogen/internal/core/ports"
)

// NodeID is the unique identifier for the Prometheus metrics Graft node.
const NodeID graft.ID = "adapter.metrics"

func init() {
	graft.Register(graft.Node[ports.Metrics]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (ports.Metrics, error) {
			return New(), nil
		},
	})
}
