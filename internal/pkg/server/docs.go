// Package server implements the server side of the ping-pong protocol.
//
// The server performs the following steps:
//	1. Listens for TCP connections and spawns one handler per accepted client.
//	2. The handler registers the connection, obtaining a monotonically
//	   assigned client id that is never reused.
//	3. Each newline-terminated request is either ignored with a fixed
//	   probability (simulating network loss), or answered after a random
//	   processing delay with a reply embedding a server-wide response id,
//	   the original request number, and the client id.
//	4. Independently, a broadcaster pushes a keepalive message to every
//	   registered connection on a fixed interval. Each delivered broadcast
//	   consumes exactly one response id, shared by all recipients.
//	5. Every exchange, drop, and push is recorded in the audit log; the
//	   diagnostic log carries connection lifecycle events.
//
// Response ids form a single strictly increasing sequence across all
// concurrent handlers and the broadcaster. A connection is removed from
// the registry on read failure, reply failure, failed keepalive delivery,
// or shutdown; a reconnecting client is a brand-new connection with a
// fresh id.
package server
