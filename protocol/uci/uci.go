// Package uci adapts engines speaking the Universal Chess Interface.
package uci

import (
	"strconv"
	"strings"
	"time"

	"enginectl/engine"
	ecerr "enginectl/internal/errors"
	"enginectl/option"
)

// Adapter drives one UCI engine.
type Adapter struct {
	l engine.Link
}

// New is an engine.Factory.
func New(l engine.Link) engine.Protocol {
	return &Adapter{l: l}
}

func (a *Adapter) StartProtocol() {
	a.l.Write("uci", engine.Unbuffered)
}

// SendPing always succeeds: UCI engines answer isready even while
// searching.
func (a *Adapter) SendPing() bool {
	a.l.Write("isready", engine.Unbuffered)
	return true
}

func (a *Adapter) SendQuit() { a.l.Write("quit", engine.Unbuffered) }

func (a *Adapter) SendStop() { a.l.Write("stop", engine.Unbuffered) }

func (a *Adapter) SendOption(name, value string) {
	if o := a.l.Options().Lookup(name); o != nil && o.Kind == option.Button {
		a.l.Write("setoption name "+name, engine.Buffered)
		return
	}
	a.l.Write("setoption name "+name+" value "+value, engine.Buffered)
}

func (a *Adapter) NewGame(engine.Side) {
	a.l.Write("ucinewgame", engine.Buffered)
}

func (a *Adapter) SendGo() {
	a.l.Write("go infinite", engine.Buffered)
}

// SendResult does nothing; UCI has no command for the game's outcome.
func (a *Adapter) SendResult(engine.Result) {}

func (a *Adapter) ParseLine(line string) {
	cmd, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)

	switch cmd {
	case "uciok":
		a.l.ProtocolStarted()
	case "readyok":
		a.l.Pong()
	case "id":
		if key, val, _ := strings.Cut(rest, " "); key == "name" {
			a.l.SetName(strings.TrimSpace(val))
		}
	case "option":
		o, err := ParseOption(rest)
		if err != nil {
			a.l.Diagnostic(&ecerr.ProtocolError{Engine: a.l.Name(), Line: line, Err: err})
			return
		}
		a.l.Options().Add(o)
	case "bestmove":
		move, _, _ := strings.Cut(rest, " ")
		if move == "" {
			a.l.Diagnostic(&ecerr.ProtocolError{Engine: a.l.Name(), Line: line, Err: ecerr.ErrMalformedLine})
			return
		}
		a.l.ReportMove(move)
	case "info":
		if info, ok := ParseInfo(rest); ok {
			a.l.ReportInfo(info)
		}
	case "copyprotection", "registration":
		if rest == "error" {
			a.l.Diagnostic(&ecerr.ProtocolError{Engine: a.l.Name(), Line: line, Err: ecerr.ErrEngineReported})
		}
	default:
		a.l.Logger().Debug("%s(%d): ignoring %q", a.l.Name(), a.l.ID(), line)
	}
}

var optionKeywords = map[string]bool{
	"name": true, "type": true, "default": true, "min": true, "max": true, "var": true,
}

// ParseOption decodes the arguments of an "option" line, e.g.
//
//	name Hash type spin default 16 min 1 max 33554432
func ParseOption(s string) (*option.Option, error) {
	var (
		o     option.Option
		typ   string
		key   string
		words []string
		vars  []string
		err   error
	)
	flush := func() {
		val := strings.Join(words, " ")
		switch key {
		case "name":
			o.Name = val
		case "type":
			typ = val
		case "default":
			if val == "<empty>" {
				val = ""
			}
			o.Default = val
		case "min":
			o.Min, err = atoiOr(val, err)
		case "max":
			o.Max, err = atoiOr(val, err)
		case "var":
			vars = append(vars, val)
		}
		words = words[:0]
	}
	for _, f := range strings.Fields(s) {
		// Option names may contain keywords; only "type" ends a name.
		if optionKeywords[f] && (key != "name" || f == "type") {
			flush()
			key = f
			continue
		}
		words = append(words, f)
	}
	flush()

	if err != nil {
		return nil, err
	}
	if o.Name == "" {
		return nil, ecerr.ErrMalformedLine
	}
	kind, kerr := option.ParseKind(typ)
	if kerr != nil {
		return nil, kerr
	}
	o.Kind = kind
	o.Choices = vars
	o.Value = o.Default
	return &o, nil
}

func atoiOr(s string, prev error) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil && prev == nil {
		prev = err
	}
	return n, prev
}

// ParseInfo decodes the arguments of an "info" line.  It reports false
// for lines carrying no search data, such as "info string".
func ParseInfo(s string) (engine.Info, bool) {
	var info engine.Info
	found := false

	f := strings.Fields(s)
	for i := 0; i < len(f); i++ {
		next := func() string {
			if i+1 < len(f) {
				i++
				return f[i]
			}
			return ""
		}
		switch f[i] {
		case "string":
			return info, found
		case "depth":
			info.Depth, _ = strconv.Atoi(next())
			found = true
		case "nodes":
			info.Nodes, _ = strconv.ParseInt(next(), 10, 64)
		case "time":
			ms, _ := strconv.ParseInt(next(), 10, 64)
			info.Time = time.Duration(ms) * time.Millisecond
		case "score":
			switch next() {
			case "cp":
				info.Score, _ = strconv.Atoi(next())
			case "mate":
				info.Mate, _ = strconv.Atoi(next())
			}
			found = true
		case "pv":
			info.PV = append([]string(nil), f[i+1:]...)
			found = true
			i = len(f)
		case "lowerbound", "upperbound":
		case "seldepth", "multipv", "currmove", "currmovenumber", "hashfull",
			"nps", "tbhits", "sbhits", "cpuload":
			next()
		}
	}
	return info, found
}
