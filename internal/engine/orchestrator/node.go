package orchestrator

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/avrogen/internal/adapters/avro/compiler" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/avrogen/internal/adapters/fs"            //nolint:depguard // Wired in engine wiring
	"go.trai.ch/avrogen/internal/adapters/logger"        //nolint:depguard // Wired in engine wiring
	"go.trai.ch/avrogen/internal/adapters/metrics"       //nolint:depguard // Wired in engine wiring
	"go.trai.ch/avrogen/internal/adapters/telemetry"     //nolint:depguard // Wired in engine wiring
	"go.trai.ch/avrogen/internal/core/domain"
	"go.trai.ch/avrogen/internal/core/ports"
	"go.trai.ch/avrogen/internal/core/registry"
	"go.trai.ch/avrogen/internal/engine/incremental"
)

const (
	// NodeID is the unique identifier for the orchestrator Graft node.
	NodeID graft.ID = "engine.orchestrator"
	// RegistryNodeID is the unique identifier for the shared type registry.
	RegistryNodeID graft.ID = "engine.registry"
)

func init() {
	// The application resets the registry with the configured flags before each run.
	graft.Register(graft.Node[*registry.Shared]{
		ID:        RegistryNodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (*registry.Shared, error) {
			return registry.NewShared(domain.RegistryFlags{}), nil
		},
	})

	graft.Register(graft.Node[*Orchestrator]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			fs.ScannerNodeID,
			incremental.NodeID,
			compiler.NodeID,
			RegistryNodeID,
			logger.PortNodeID,
			metrics.NodeID,
			telemetry.TracerNodeID,
		},
		Run: func(ctx context.Context) (*Orchestrator, error) {
			scanner, err := graft.Dep[ports.Scanner](ctx)
			if err != nil {
				return nil, err
			}

			cache, err := graft.Dep[*incremental.Cache](ctx)
			if err != nil {
				return nil, err
			}

			compilers, err := graft.Dep[[]ports.Compiler](ctx)
			if err != nil {
				return nil, err
			}

			types, err := graft.Dep[*registry.Shared](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			m, err := graft.Dep[ports.Metrics](ctx)
			if err != nil {
				return nil, err
			}

			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}

			return New(scanner, cache, compilers, types, log, m, tracer), nil
		},
	})
}
