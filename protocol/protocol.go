// Package protocol maps protocol names to engine adapters.
package protocol

import (
	"fmt"
	"strings"
	"time"

	"enginectl/engine"
	ecerr "enginectl/internal/errors"
	"enginectl/protocol/uci"
	"enginectl/protocol/xboard"
)

// Protocol names.
const (
	UCI    = "uci"
	Xboard = "xboard"
)

// Names returns the supported protocol names, sorted.
func Names() []string {
	return []string{UCI, Xboard}
}

// Lookup returns the adapter factory for name.  featureTimeout bounds
// the Xboard feature handshake; zero selects the default.
func Lookup(name string, featureTimeout time.Duration) (engine.Factory, error) {
	switch strings.ToLower(name) {
	case UCI:
		return uci.New, nil
	case Xboard, "winboard", "cecp":
		if featureTimeout <= 0 {
			return xboard.New, nil
		}
		return xboard.WithFeatureTimeout(featureTimeout), nil
	}
	return nil, fmt.Errorf("%w %q (want one of %s)", ecerr.ErrUnknownProtocol, name,
		strings.Join(Names(), ", "))
}

// Valid reports whether name selects a known protocol.
func Valid(name string) bool {
	_, err := Lookup(name, 0)
	return err == nil
}
