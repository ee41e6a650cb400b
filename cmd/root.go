// Package cmd wires up the CLI flags and dispatches to an operational
// mode.
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"enginectl/config"
	"enginectl/internal/core"
	"enginectl/internal/metrics"
	"enginectl/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X enginectl/cmd.version=2.0.0"
var version = "0.3.0" //nolint:gochecknoglobals

// Execute parses args and runs the selected mode.
func Execute(ctx context.Context, args []string) error {
	cfg := config.Default()
	if err := config.LoadFromEnv(cfg); err != nil {
		return err
	}
	e := &cfg.Engine

	fs := flag.NewFlagSet("enginectl", flag.ContinueOnError)
	// Everything after the engine command belongs to the engine.
	fs.SetInterspersed(false)

	// ── engine ───────────────────────────────────────────────────
	fs.StringVarP(&e.Protocol, "protocol", "P", e.Protocol, "Engine protocol (uci, xboard)")
	fs.StringVarP(&e.Name, "name", "n", e.Name, "Display name until the engine reports one")
	fs.StringVarP(&e.Dir, "dir", "d", e.Dir, "Working directory for a local engine")

	transportName := string(e.Transport)
	fs.StringVarP(&transportName, "transport", "t", transportName, "Where the engine runs (process, tcp, ssh)")
	fs.StringVarP(&e.Address, "connect", "c", e.Address, "Connect to a socket engine at host:port")

	// ── setup ────────────────────────────────────────────────────
	var optionSpecs, initLines []string
	fs.StringArrayVarP(&optionSpecs, "option", "o", nil, "Set an engine option name=value (repeatable)")
	fs.StringArrayVarP(&initLines, "init", "i", nil, "Send a line before normal operation (repeatable)")
	fs.BoolVar(&e.WhiteEvalPOV, "white-pov", e.WhiteEvalPOV, "Engine reports scores from White's point of view")

	// ── SSH ──────────────────────────────────────────────────────
	var sshSpec string
	fs.StringVarP(&sshSpec, "ssh", "S", "", "Run the engine on, or connect through, [user@]host[:port]")
	fs.StringVar(&e.SSH.KeyPath, "ssh-key", e.SSH.KeyPath, "SSH private key file")
	fs.BoolVar(&e.SSH.PromptPass, "ssh-password", false, "Prompt for SSH password")
	fs.BoolVar(&e.SSH.UseAgent, "ssh-agent", e.SSH.UseAgent, "Use SSH agent")
	fs.BoolVar(&e.SSH.StrictHostKey, "strict-hostkey", e.SSH.StrictHostKey, "Verify SSH host keys")
	fs.StringVar(&e.SSH.KnownHosts, "known-hosts", e.SSH.KnownHosts, "Custom known_hosts path")

	// ── timeouts ─────────────────────────────────────────────────
	to := &e.Timeouts
	fs.DurationVar(&to.Ping, "ping-timeout", to.Ping, "Time an engine has to answer a liveness probe")
	fs.DurationVar(&to.Idle, "idle-timeout", to.Idle, "Time an engine has to move after stop")
	fs.DurationVar(&to.Quit, "quit-timeout", to.Quit, "Time an engine has to exit after quit")
	fs.DurationVar(&to.Feature, "feature-timeout", to.Feature, "Xboard feature handshake timeout")
	fs.DurationVar(&to.Ready, "ready-timeout", to.Ready, "Time allowed for the initial handshake")
	fs.DurationVarP(&to.Connect, "timeout", "w", to.Connect, "TCP/SSH connect timeout")

	// ── output ───────────────────────────────────────────────────
	fs.CountVarP(&cfg.Verbose, "verbose", "v", "Increase verbosity (repeatable)")

	var showVersion, showHelp, dryRun bool
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")
	fs.BoolVar(&dryRun, "dry-run", false, "Validate the configuration and exit")

	fs.Usage = func() { printUsage(fs) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return err
	}

	if showHelp || len(args) == 0 {
		printUsage(fs)
		return nil
	}
	if showVersion {
		fmt.Printf("enginectl %s\n", version)
		return nil
	}

	// ── positional arguments ─────────────────────────────────────
	parsePositional(cfg, fs.Args())

	// ── setup lists ──────────────────────────────────────────────
	for _, spec := range optionSpecs {
		o, err := config.ParseOptionSpec(spec)
		if err != nil {
			return fmt.Errorf("option: %w", err)
		}
		e.Options = append(e.Options, o)
	}
	e.InitStrings = append(e.InitStrings, initLines...)

	// ── transport ────────────────────────────────────────────────
	if sshSpec != "" {
		if err := e.SSH.SetSpec(sshSpec); err != nil {
			return fmt.Errorf("ssh: %w", err)
		}
	}
	t, err := config.ParseTransport(transportName)
	if err != nil {
		return err
	}
	e.Transport = inferTransport(t, fs.Changed("transport"), e)

	// ── validate ─────────────────────────────────────────────────
	if err := cfg.Validate(); err != nil {
		return err
	}
	if dryRun {
		fmt.Printf("%s: %s engine %s over %s\n", cfg.Mode, e.Protocol, describe(e), e.Transport)
		return nil
	}

	// ── build components ─────────────────────────────────────────
	// Warnings are shown by default; each -v adds a level.
	logger := util.NewLogger(cfg.Verbose + 1)
	met := metrics.New()
	defer func() {
		if logger.Level() >= util.LogDebug {
			logger.Debug("metrics %s", met.JSON())
		}
	}()

	mode, err := core.Build(cfg, logger, met)
	if err != nil {
		return err
	}
	return mode.Run(ctx)
}

// ── helpers ──────────────────────────────────────────────────────────

// parsePositional reads [mode] [engine [args...]].
func parsePositional(cfg *config.Config, remaining []string) {
	if len(remaining) > 0 {
		switch remaining[0] {
		case config.ModeProbe, config.ModeConsole:
			cfg.Mode = remaining[0]
			remaining = remaining[1:]
		}
	}
	if len(remaining) > 0 {
		cfg.Engine.Command = remaining[0]
		cfg.Engine.Args = remaining[1:]
	}
}

// inferTransport picks tcp when only --connect was given, and ssh when
// only --ssh was.
func inferTransport(t config.Transport, explicit bool, e *config.EngineConfig) config.Transport {
	if explicit || t != config.TransportProcess {
		return t
	}
	switch {
	case e.Address != "":
		return config.TransportTCP
	case e.SSH.Enabled():
		return config.TransportSSH
	}
	return t
}

func describe(e *config.EngineConfig) string {
	switch e.Transport {
	case config.TransportTCP:
		if e.SSH.Enabled() {
			return e.Address + " via " + e.SSH.Host
		}
		return e.Address
	case config.TransportSSH:
		return strings.Join(append([]string{e.Command}, e.Args...), " ") + " on " + e.SSH.Host
	}
	return strings.Join(append([]string{e.Command}, e.Args...), " ")
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, `enginectl – Chess Engine Session Controller v%s

Starts a UCI or Xboard engine locally, over TCP, or on an SSH host and
drives it through a managed session.

Usage:
  enginectl [options] [probe] <engine> [args...]     Handshake and list options
  enginectl [options] console <engine> [args...]     Interactive session
  enginectl [options] -c host:port [mode]            Socket engine
  enginectl [options] -S user@host [mode] <engine>   Engine on an SSH host

Options:
`, version)
	fs.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Examples:
  enginectl stockfish                                 Probe a UCI engine
  enginectl -P xboard console crafty                  Xboard console
  enginectl -o Hash=256 -o Threads=4 console sf       Configure options
  enginectl -c 10.0.0.5:9000 -S admin@bastion         Socket engine via gateway
  enginectl -vv -S chess@box probe /opt/sf/stockfish  Remote engine, debug log

Environment:
  ENGINECTL_* variables (ENGINECTL_PROTOCOL, ENGINECTL_OPTIONS, …) set
  defaults that flags override.
`)
}
