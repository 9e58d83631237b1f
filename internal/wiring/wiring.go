// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/avrogen/internal/adapters/avro/compiler"
	_ "go.trai.ch/avrogen/internal/adapters/cas"
	_ "go.trai.ch/avrogen/internal/adapters/config"
	_ "go.trai.ch/avrogen/internal/adapters/fs"
	_ "go.trai.ch/avrogen/internal/adapters/logger"
	_ "go.trai.ch/avrogen/internal/adapters/metrics"
	_ "go.trai.ch/avrogen/internal/adapters/telemetry"
	_ "go.trai.ch/avrogen/internal/adapters/watcher"
	// Register app and engine nodes.
	_ "go.trai.ch/avrogen/internal/app"
	_ "go.trai.ch/avrogen/internal/engine/incremental"
	_ "go.trai.ch/avrogen/internal/engine/orchestrator"
)
