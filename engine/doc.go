// Package engine drives one external chess engine through a line-based
// text protocol.
//
// A [Session] owns the engine's byte stream and runs a small state
// machine on a single reactive goroutine.  Every state change happens on
// that goroutine, in reaction to one of:
//
//   - data arriving on the stream,
//   - the ping, idle or quit timer firing,
//   - a call from the owning game logic (Start, Go, EndGame, Quit ...).
//
// The wire vocabulary is not part of this package.  A [Protocol]
// adapter (see enginectl/protocol/uci and enginectl/protocol/xboard)
// is built from a [Factory] and talks back through the [Link] it is
// given.  Adapter methods always run on the session goroutine, so they
// may use the Link freely but must never block.
//
// Observers receive [Event] values in order on a separate goroutine, so
// an [EventHandler] may call back into the Session.
package engine
