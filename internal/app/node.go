package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/avrogen/internal/adapters/avro/compiler" //nolint:depguard // Wired in app layer
	"go.trai.ch/avrogen/internal/adapters/cas"           //nolint:depguard // Wired in app layer
	"go.trai.ch/avrogen/internal/adapters/config"        //nolint:depguard // Wired in app layer
	"go.trai.ch/avrogen/internal/adapters/fs"            //nolint:depguard // Wired in app layer
	"go.trai.ch/avrogen/internal/adapters/logger"        //nolint:depguard // Wired in app layer
	"go.trai.ch/avrogen/internal/adapters/metrics"       //nolint:depguard // Wired in app layer
	"go.trai.ch/avrogen/internal/adapters/watcher"       //nolint:depguard // Wired in app layer
	"go.trai.ch/avrogen/internal/core/ports"
	"go.trai.ch/avrogen/internal/engine/orchestrator"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	// App Node
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			orchestrator.NodeID,
			compiler.NodeID,
			fs.ResolverNodeID,
			cas.NodeID,
			watcher.NodeID,
			logger.PortNodeID,
			metrics.NodeID,
		},
		Run: runAppNode,
	})

	// Components Node
	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.PortNodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			app, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return NewComponents(app, log), nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}

	orch, err := graft.Dep[*orchestrator.Orchestrator](ctx)
	if err != nil {
		return nil, err
	}

	compilers, err := graft.Dep[[]ports.Compiler](ctx)
	if err != nil {
		return nil, err
	}

	resolver, err := graft.Dep[ports.InputResolver](ctx)
	if err != nil {
		return nil, err
	}

	store, err := graft.Dep[ports.CacheStore](ctx)
	if err != nil {
		return nil, err
	}

	w, err := graft.Dep[ports.Watcher](ctx)
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

	return New(loader, orch, compilers, resolver, store, w, log, m), nil
}
