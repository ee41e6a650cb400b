// Package option models the configurable parameters an engine declares
// during its handshake: the option registry of an engine session.
//
// Values travel as text, the way every line protocol sends them.
package option

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the declared type of an option.
type Kind int

const (
	Check  Kind = iota // boolean
	Spin               // integer within [Min, Max]
	Combo              // one of Choices
	Button             // an action, carries no value
	String             // free text, includes file and path options
)

func (k Kind) String() string {
	switch k {
	case Check:
		return "check"
	case Spin:
		return "spin"
	case Combo:
		return "combo"
	case Button:
		return "button"
	case String:
		return "string"
	default:
		return "unknown"
	}
}

// ParseKind maps a protocol type name to a Kind.  Both the UCI names
// and the Xboard "-" spellings are accepted.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimPrefix(s, "-")) {
	case "check":
		return Check, nil
	case "spin", "slider":
		return Spin, nil
	case "combo":
		return Combo, nil
	case "button", "reset", "save":
		return Button, nil
	case "string", "file", "path":
		return String, nil
	}
	return 0, fmt.Errorf("unknown option type %q", s)
}

// Option describes one engine parameter.  Alias is a protocol-specific
// short name the option may also be addressed by.
type Option struct {
	Name    string
	Alias   string
	Kind    Kind
	Default string
	Value   string
	Min     int
	Max     int
	Choices []string
}

// IsValid reports whether v may be sent to the engine for this option.
func (o *Option) IsValid(v string) bool {
	switch o.Kind {
	case Check:
		return v == "true" || v == "false"
	case Spin:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		return err == nil && n >= o.Min && n <= o.Max
	case Combo:
		for _, c := range o.Choices {
			if strings.EqualFold(c, v) {
				return true
			}
		}
		return false
	case Button, String:
		return true
	}
	return false
}

// SetValue commits v as the current value.  Callers validate first.
func (o *Option) SetValue(v string) {
	if o.Kind == Spin {
		v = strings.TrimSpace(v)
	}
	o.Value = v
}

func (o *Option) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)", o.Name, o.Kind)
	switch o.Kind {
	case Spin:
		fmt.Fprintf(&b, " %d..%d", o.Min, o.Max)
	case Combo:
		fmt.Fprintf(&b, " [%s]", strings.Join(o.Choices, "|"))
	}
	if o.Kind != Button {
		fmt.Fprintf(&b, " = %q", o.Value)
	}
	return b.String()
}
