// Package xboard adapts engines speaking the Xboard/WinBoard protocol,
// version 2.
package xboard

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"enginectl/engine"
	ecerr "enginectl/internal/errors"
	"enginectl/option"
)

// DefaultFeatureTimeout is how long the handshake waits for
// "feature done=1" before starting anyway.
const DefaultFeatureTimeout = 2 * time.Second

// An engine that sends "done=0" asks for more time to declare its
// features.
const extendedFeatureTimeout = time.Hour

// mateScore is added to the distance to mate in thinking output.
const mateScore = 100000

// Adapter drives one Xboard engine.
type Adapter struct {
	l              engine.Link
	featureTimeout time.Duration

	started       bool
	cancelFeature func()
	pingFeature   bool
	lastPing      int
}

// New is an engine.Factory using DefaultFeatureTimeout.
func New(l engine.Link) engine.Protocol {
	return &Adapter{l: l, featureTimeout: DefaultFeatureTimeout}
}

// WithFeatureTimeout returns a factory whose adapters wait d for the
// feature handshake.
func WithFeatureTimeout(d time.Duration) engine.Factory {
	return func(l engine.Link) engine.Protocol {
		return &Adapter{l: l, featureTimeout: d}
	}
}

func (a *Adapter) StartProtocol() {
	a.l.Write("xboard", engine.Unbuffered)
	a.l.Write("protover 2", engine.Unbuffered)
	a.cancelFeature = a.l.Schedule(a.featureTimeout, a.finishFeatures)
}

func (a *Adapter) finishFeatures() {
	if a.started {
		return
	}
	a.started = true
	if a.cancelFeature != nil {
		a.cancelFeature()
	}
	a.l.ProtocolStarted()
}

// SendPing writes "ping N".  Engines that did not announce the ping
// feature cannot be probed, and neither can a thinking engine, which
// would only answer after its move.
func (a *Adapter) SendPing() bool {
	if !a.pingFeature || a.l.State() == engine.Thinking {
		return false
	}
	a.lastPing++
	a.l.Write("ping "+strconv.Itoa(a.lastPing), engine.Unbuffered)
	return true
}

func (a *Adapter) SendQuit() { a.l.Write("quit", engine.Unbuffered) }

func (a *Adapter) SendStop() { a.l.Write("?", engine.Unbuffered) }

func (a *Adapter) SendOption(name, value string) {
	o := a.l.Options().Lookup(name)
	switch {
	case o != nil && o.Kind == option.Button:
		a.l.Write("option "+name, engine.Buffered)
	case o != nil && o.Kind == option.Check:
		v := "0"
		if value == "true" {
			v = "1"
		}
		a.l.Write("option "+name+"="+v, engine.Buffered)
	default:
		a.l.Write("option "+name+"="+value, engine.Buffered)
	}
}

func (a *Adapter) NewGame(engine.Side) {
	a.l.Write("new", engine.Buffered)
	a.l.Write("force", engine.Buffered)
	a.l.Write("post", engine.Buffered)
}

func (a *Adapter) SendGo() { a.l.Write("go", engine.Buffered) }

func (a *Adapter) SendResult(r engine.Result) {
	a.l.Write("result "+r.String(), engine.Buffered)
}

var thinkingRe = regexp.MustCompile(`^(\d+)[.&]?\s+(-?\d+)\s+(\d+)\s+(\d+)(?:\s+(.*))?$`)

func (a *Adapter) ParseLine(line string) {
	line = strings.TrimSpace(line)
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch {
	case cmd == "feature":
		a.parseFeatures(rest)
	case cmd == "pong":
		if n, err := strconv.Atoi(rest); err == nil && n == a.lastPing {
			a.l.Pong()
		}
	case cmd == "move":
		a.l.ReportMove(rest)
	case cmd == "Illegal" || strings.HasPrefix(cmd, "Error"):
		a.l.Diagnostic(&ecerr.ProtocolError{Engine: a.l.Name(), Line: line, Err: ecerr.ErrEngineReported})
	case cmd == "tellusererror":
		a.l.Diagnostic(&ecerr.ProtocolError{Engine: a.l.Name(), Line: rest, Err: ecerr.ErrEngineReported})
	case cmd == "telluser":
		a.l.Logger().Info("%s(%d): %s", a.l.Name(), a.l.ID(), rest)
	case thinkingRe.MatchString(line):
		a.parseThinking(line)
	default:
		a.l.Logger().Debug("%s(%d): ignoring %q", a.l.Name(), a.l.ID(), line)
	}
}

// Features this adapter knows.  Everything else is rejected.
var knownFeatures = map[string]bool{
	"ping": true, "myname": true, "option": true, "done": true,
	"setboard": true, "playother": true, "san": true, "usermove": true,
	"time": true, "draw": true, "sigint": true, "sigterm": true,
	"reuse": true, "analyze": true, "colors": true, "variants": true,
	"name": true, "debug": true, "memory": true, "smp": true,
}

func (a *Adapter) parseFeatures(s string) {
	for _, f := range SplitFeatures(s) {
		if !knownFeatures[f.Key] {
			a.l.Write("rejected "+f.Key, engine.Unbuffered)
			continue
		}
		a.l.Write("accepted "+f.Key, engine.Unbuffered)

		switch f.Key {
		case "ping":
			a.pingFeature = f.Value == "1"
		case "myname":
			a.l.SetName(f.Value)
		case "option":
			o, err := ParseOption(f.Value)
			if err != nil {
				a.l.Diagnostic(&ecerr.ProtocolError{Engine: a.l.Name(), Line: f.Value, Err: err})
				continue
			}
			a.l.Options().Add(o)
		case "done":
			switch f.Value {
			case "1":
				a.finishFeatures()
			case "0":
				if a.cancelFeature != nil && !a.started {
					a.cancelFeature()
					a.cancelFeature = a.l.Schedule(extendedFeatureTimeout, a.finishFeatures)
				}
			}
		}
	}
}

func (a *Adapter) parseThinking(line string) {
	m := thinkingRe.FindStringSubmatch(line)
	depth, _ := strconv.Atoi(m[1])
	score, _ := strconv.Atoi(m[2])
	cs, _ := strconv.ParseInt(m[3], 10, 64)
	nodes, _ := strconv.ParseInt(m[4], 10, 64)

	info := engine.Info{
		Depth: depth,
		Score: score,
		Nodes: nodes,
		Time:  time.Duration(cs) * 10 * time.Millisecond,
		PV:    strings.Fields(m[5]),
	}
	switch {
	case score >= mateScore:
		info.Score, info.Mate = 0, score-mateScore
	case score <= -mateScore:
		info.Score, info.Mate = 0, score+mateScore
	}
	a.l.ReportInfo(info)
}

// Feature is one key=value pair of a "feature" line.
type Feature struct {
	Key   string
	Value string
}

// SplitFeatures splits the arguments of a "feature" line.  Values may
// be double-quoted to contain spaces.
func SplitFeatures(s string) []Feature {
	var out []Feature
	for {
		s = strings.TrimLeft(s, " \t")
		if s == "" {
			return out
		}
		eq := strings.IndexByte(s, '=')
		if eq < 0 {
			return out
		}
		key := strings.TrimSpace(s[:eq])
		s = s[eq+1:]

		var val string
		if strings.HasPrefix(s, `"`) {
			end := strings.IndexByte(s[1:], '"')
			if end < 0 {
				val, s = s[1:], ""
			} else {
				val, s = s[1:end+1], s[end+2:]
			}
		} else {
			val, s, _ = strings.Cut(s, " ")
		}
		out = append(out, Feature{Key: key, Value: val})
	}
}

// ParseOption decodes an option feature value, e.g.
//
//	Hash -spin 64 1 4096
//	Style -combo Solid /// *Normal /// Risky
func ParseOption(s string) (*option.Option, error) {
	i := strings.Index(s, " -")
	if i <= 0 {
		return nil, ecerr.ErrMalformedLine
	}
	name := strings.TrimSpace(s[:i])
	typ, args, _ := strings.Cut(s[i+1:], " ")
	kind, err := option.ParseKind(typ)
	if err != nil {
		return nil, err
	}
	args = strings.TrimSpace(args)

	o := &option.Option{Name: name, Kind: kind}
	switch kind {
	case option.Check:
		o.Default = "false"
		if args == "1" {
			o.Default = "true"
		}
	case option.Spin:
		f := strings.Fields(args)
		if len(f) != 3 {
			return nil, ecerr.ErrMalformedLine
		}
		if _, err := strconv.Atoi(f[0]); err != nil {
			return nil, err
		}
		o.Default = f[0]
		if o.Min, err = strconv.Atoi(f[1]); err != nil {
			return nil, err
		}
		if o.Max, err = strconv.Atoi(f[2]); err != nil {
			return nil, err
		}
	case option.Combo:
		for _, c := range strings.Split(args, "///") {
			c = strings.TrimSpace(c)
			if def, ok := strings.CutPrefix(c, "*"); ok {
				c = def
				o.Default = def
			}
			o.Choices = append(o.Choices, c)
		}
	case option.String:
		o.Default = args
	}
	o.Value = o.Default
	return o, nil
}
