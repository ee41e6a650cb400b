package engine

import (
	"fmt"
	"time"
)

// Default timer intervals.
const (
	DefaultPingTimeout = 10 * time.Second
	DefaultIdleTimeout = 10 * time.Second
	DefaultQuitTimeout = 2 * time.Second
)

// State is the lifecycle state of a session's player.
type State int

const (
	NotStarted State = iota
	Starting
	Idle
	Thinking
	Observing
	FinishingGame
	Disconnected
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not started"
	case Starting:
		return "starting"
	case Idle:
		return "idle"
	case Thinking:
		return "thinking"
	case Observing:
		return "observing"
	case FinishingGame:
		return "finishing game"
	case Disconnected:
		return "disconnected"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// WriteMode selects whether a line may be held back while a liveness
// probe is outstanding.
type WriteMode int

const (
	// Buffered lines wait in the write buffer while a ping is
	// outstanding.
	Buffered WriteMode = iota
	// Unbuffered lines go out at once unless the engine has not been
	// started yet.
	Unbuffered
)

// Side is the colour an engine plays in the current game.
type Side int

const (
	NoSide Side = iota
	White
	Black
)

func (s Side) String() string {
	switch s {
	case White:
		return "white"
	case Black:
		return "black"
	default:
		return "none"
	}
}

// Result is a finished game's outcome as reported to the engine.
// Score is one of "1-0", "0-1", "1/2-1/2" or "*".
type Result struct {
	Score   string
	Comment string
}

func (r Result) String() string {
	if r.Comment == "" {
		return r.Score
	}
	return fmt.Sprintf("%s {%s}", r.Score, r.Comment)
}

// ForfeitReason explains why a game was forfeited on the engine's
// behalf.
type ForfeitReason string

const (
	StalledConnection ForfeitReason = "stalled connection"
	Disconnection     ForfeitReason = "disconnection"
)

// Info is one line of search information reported by an engine.  Score
// is in centipawns from the engine's own point of view unless Mate is
// non-zero, in which case Mate is the signed distance to mate in moves.
type Info struct {
	Depth int
	Score int
	Mate  int
	Nodes int64
	Time  time.Duration
	PV    []string
}

// OptionValue is a named option setting from an engine configuration.
type OptionValue struct {
	Name  string
	Value string
}

// Setup is the configuration applied to a session before normal
// operation: verbatim init lines, option values, and whether the
// engine reports scores from White's point of view.
type Setup struct {
	InitStrings  []string
	Options      []OptionValue
	WhiteEvalPOV bool
}
