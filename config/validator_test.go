package config

import (
	"errors"
	"strings"
	"testing"

	"enginectl/engine"
	ecerr "enginectl/internal/errors"
)

func validConfig() *Config {
	cfg := Default()
	cfg.Engine.Command = "stockfish"
	return cfg
}

func TestValidate_OK(t *testing.T) {
	cases := map[string]func(*Config){
		"process": func(*Config) {},
		"tcp": func(c *Config) {
			c.Engine.Transport = TransportTCP
			c.Engine.Address = "engines:9000"
		},
		"tcp via gateway": func(c *Config) {
			c.Engine.Transport = TransportTCP
			c.Engine.Address = "10.0.0.5:9000"
			_ = c.Engine.SSH.SetSpec("gw")
		},
		"ssh": func(c *Config) {
			c.Engine.Transport = TransportSSH
			_ = c.Engine.SSH.SetSpec("chess@box")
		},
		"console xboard": func(c *Config) {
			c.Mode = ModeConsole
			c.Engine.Protocol = "xboard"
		},
	}
	for name, mod := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := validConfig()
			mod(cfg)
			if err := cfg.Validate(); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

// TestValidate_ErrorMessages verifies that Validate returns actionable
// error messages.
func TestValidate_ErrorMessages(t *testing.T) {
	tests := []struct {
		name    string
		mod     func(*Config)
		wantSub string // substring expected in error
	}{
		{"bad mode has hint", func(c *Config) { c.Mode = "tournament" }, "hint:"},
		{"bad protocol has hint", func(c *Config) { c.Engine.Protocol = "cecp3" }, "hint:"},
		{"missing command", func(c *Config) { c.Engine.Command = "" }, "engine command is required"},
		{"tcp without address", func(c *Config) { c.Engine.Transport = TransportTCP }, "host:port is required"},
		{"ssh without host", func(c *Config) { c.Engine.Transport = TransportSSH }, "requires an SSH host"},
		{"process over ssh", func(c *Config) { _ = c.Engine.SSH.SetSpec("box") }, "--transport ssh"},
		{"zero ping timeout", func(c *Config) { c.Engine.Timeouts.Ping = 0 }, "--ping-timeout"},
		{"empty option name", func(c *Config) {
			c.Engine.Options = []engine.OptionValue{{Value: "1"}}
		}, "option name is empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mod(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			var ce *ecerr.ConfigError
			if !errors.As(err, &ce) {
				t.Errorf("error %T is not a *ConfigError", err)
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q should contain %q", err.Error(), tt.wantSub)
			}
		})
	}
}
