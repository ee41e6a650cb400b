// Package core is the orchestration layer.  It turns a Config into a
// launched engine session and drives that session through one of the
// operational modes.
//
// Architecture layers (bottom → top):
//
//	transport  →  engine (session + protocol adapter)  →  core  →  cmd (CLI)
//
// Build is the single dispatch point from configuration to mode.
package core

import (
	"context"

	"enginectl/config"
	ecerr "enginectl/internal/errors"
	"enginectl/internal/metrics"
	"enginectl/util"
)

// Mode represents a complete operational mode of enginectl (probe or
// console).  Each mode owns its session from launch to quit.
type Mode interface {
	Run(ctx context.Context) error
}

// Build constructs the Mode selected by cfg.Mode.
func Build(cfg *config.Config, logger *util.Logger, met *metrics.Collector) (Mode, error) {
	m := NewManager(&cfg.Engine, logger, met)
	switch cfg.Mode {
	case config.ModeConsole:
		return &ConsoleMode{Manager: m, ReadyTimeout: cfg.Engine.Timeouts.Ready, Logger: logger}, nil
	case config.ModeProbe, "":
		return &ProbeMode{Manager: m, ReadyTimeout: cfg.Engine.Timeouts.Ready, Logger: logger}, nil
	}
	return nil, &ecerr.ConfigError{Field: "mode", Value: cfg.Mode, Message: "unknown mode"}
}
