// Package client implements the client side of the ping-pong protocol.
//
// The client performs the following steps:
//	1. Connect to the server.
//	2. Repeatedly send a request numbered with a per-session counter that
//	   starts at 0 and advances on every attempt, whatever its outcome.
//	3. Wait for the correlated reply within a fixed timeout. A timeout is
//	   an expected outcome, recorded in the audit log, and the next cycle
//	   proceeds regardless.
//	4. Pause a random jitter between cycles to bound the server's
//	   concurrent load.
//
// Keepalive pushes from the server may arrive at any moment, interleaved
// with the request/reply exchange. A single reader goroutine owns the
// connection's input stream and classifies every line exactly once:
// keepalives are logged as their own audit entries and never satisfy a
// pending reply wait; all other lines are delivered to the sender through
// a reply channel only the sender consumes.
//
// On any connection-level error the session runs a reconnect state
// machine (Connected -> Disconnected -> Reconnecting -> Connected, or
// Failed after a fixed number of attempts). Exhaustion degrades the
// session rather than crashing it; later cycles re-enter reconnect. The
// request counter deliberately survives reconnects even though the
// server sees each new connection as a brand-new client.
package client
