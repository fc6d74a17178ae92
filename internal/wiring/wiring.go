// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/qpm/internal/adapters/archive"
	_ "go.trai.ch/qpm/internal/adapters/cas"
	_ "go.trai.ch/qpm/internal/adapters/config"
	_ "go.trai.ch/qpm/internal/adapters/fs"
	_ "go.trai.ch/qpm/internal/adapters/logger"
	_ "go.trai.ch/qpm/internal/adapters/manifest"
	_ "go.trai.ch/qpm/internal/adapters/metrics"
	_ "go.trai.ch/qpm/internal/adapters/registry"
	_ "go.trai.ch/qpm/internal/adapters/shell"
	_ "go.trai.ch/qpm/internal/adapters/telemetry"
	// Register app and engine nodes.
	_ "go.trai.ch/qpm/internal/app"
	_ "go.trai.ch/qpm/internal/engine/installer"
)
