package core

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"enginectl/config"
	"enginectl/engine"
	"enginectl/internal/metrics"
	"enginectl/internal/remote"
	"enginectl/internal/transport"
	"enginectl/protocol"
	"enginectl/util"
)

// Manager launches engines described by one EngineConfig and hands
// out session ids.
type Manager struct {
	Config  *config.EngineConfig
	Logger  *util.Logger
	Metrics *metrics.Collector

	// Launcher overrides the transport built from Config.  Tests use
	// it to substitute a scripted engine.
	Launcher transport.Launcher

	nextID atomic.Int64
}

// NewManager returns a Manager for cfg.
func NewManager(cfg *config.EngineConfig, logger *util.Logger, met *metrics.Collector) *Manager {
	return &Manager{Config: cfg, Logger: logger, Metrics: met}
}

// Open launches the engine and returns a started session with the
// configured setup applied.  handler receives every session event.
func (m *Manager) Open(ctx context.Context, handler engine.EventHandler) (*engine.Session, error) {
	cfg := m.Config
	factory, err := protocol.Lookup(cfg.Protocol, cfg.Timeouts.Feature)
	if err != nil {
		return nil, err
	}

	l := m.Launcher
	if l == nil {
		l = buildLauncher(cfg, m.Logger)
	}
	m.Logger.Verbose("launching %s (%s)", l, cfg.Protocol)
	stream, err := l.Launch(ctx)
	if err != nil {
		return nil, fmt.Errorf("launch %s: %w", l, err)
	}

	s := engine.New(ctx, m.nextID.Add(1), stream, factory, engine.Config{
		Name:        cfg.Name,
		PingTimeout: cfg.Timeouts.Ping,
		IdleTimeout: cfg.Timeouts.Idle,
		QuitTimeout: cfg.Timeouts.Quit,
		Handler:     handler,
		Logger:      m.Logger,
		Metrics:     m.Metrics,
	})
	s.ApplyConfiguration(engine.Setup{
		InitStrings:  cfg.InitStrings,
		Options:      cfg.Options,
		WhiteEvalPOV: cfg.WhiteEvalPOV,
	})
	s.Start()
	return s, nil
}

// ── launcher builders ────────────────────────────────────────────────

func buildLauncher(cfg *config.EngineConfig, logger *util.Logger) transport.Launcher {
	switch cfg.Transport {
	case config.TransportTCP:
		return &transport.Socket{
			Dialer:  buildDialer(cfg, logger),
			Address: cfg.Address,
			Logger:  logger,
		}
	case config.TransportSSH:
		return &transport.RemoteCommand{
			Config:  remoteConfig(cfg),
			Command: strings.Join(append([]string{cfg.Command}, cfg.Args...), " "),
			Logger:  logger,
		}
	default:
		return &transport.Process{
			Path:      cfg.Command,
			Args:      cfg.Args,
			Dir:       cfg.Dir,
			KillGrace: cfg.Timeouts.KillGrace,
			Logger:    logger,
		}
	}
}

// buildDialer routes socket connections through the SSH gateway when
// one is configured.
func buildDialer(cfg *config.EngineConfig, logger *util.Logger) transport.Dialer {
	if cfg.SSH.Enabled() {
		return transport.NewSSHDialer(remoteConfig(cfg), logger)
	}
	return &transport.TCPDialer{Timeout: cfg.Timeouts.Connect}
}

func remoteConfig(cfg *config.EngineConfig) *remote.Config {
	s := cfg.SSH
	return &remote.Config{
		User:          s.User,
		Host:          s.Host,
		Port:          s.Port,
		KeyPath:       s.KeyPath,
		Password:      s.Password,
		PromptPass:    s.PromptPass,
		UseAgent:      s.UseAgent,
		StrictHostKey: s.StrictHostKey,
		KnownHosts:    s.KnownHosts,
		ConnTimeout:   cfg.Timeouts.Connect,
	}
}
