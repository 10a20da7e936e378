// Package registry tracks the server's live client connections and issues
// the server-wide response id sequence.
package registry

import (
	"net"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
)

// Conn is one registered client connection. Writes are serialized so the
// handler's replies and the broadcaster's keepalives never interleave on
// the socket.
type Conn struct {
	id   uint64
	conn net.Conn

	mu sync.Mutex
}

// ID returns the connection id assigned at registration. Ids start at 1
// and are never reused; a reconnecting client gets a fresh id.
func (c *Conn) ID() uint64 {
	return c.id
}

// RemoteAddr returns the peer address, for diagnostics only.
func (c *Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// WriteLine sends one newline-terminated message on the connection.
func (c *Conn) WriteLine(line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.conn.Write([]byte(line + "\n"))
	return errors.Wrap(err, "write line failed")
}

// Close closes the underlying socket.
func (c *Conn) Close() error {
	return errors.Wrap(c.conn.Close(), "close connection failed")
}

// Registry maps connection ids to live connections. All operations are
// atomic with respect to each other.
type Registry struct {
	mu     sync.RWMutex
	conns  map[uint64]*Conn
	nextID uint64
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[uint64]*Conn),
	}
}

// Register adds a connection and assigns it the next connection id.
func (r *Registry) Register(conn net.Conn) *Conn {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	c := &Conn{
		id:   r.nextID,
		conn: conn,
	}
	r.conns[c.id] = c
	return c
}

// Unregister removes the connection with the given id. Removing an
// already-removed id is a no-op.
func (r *Registry) Unregister(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, id)
}

// Snapshot returns the connections live at call time. A connection
// removed concurrently may still appear; writes to it fail gracefully
// and the caller unregisters it.
func (r *Registry) Snapshot() []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conns := make([]*Conn, 0, len(r.conns))
	for _, c := range r.conns {
		conns = append(conns, c)
	}
	return conns
}

// Len returns the number of live connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Allocator issues the single server-wide response id sequence stamped on
// every outbound message, replies and keepalives alike. The sequence
// starts at 0 and no two allocations ever observe the same value.
type Allocator struct {
	next atomic.Uint64
}

// Next returns the next response id.
func (a *Allocator) Next() uint64 {
	return a.next.Add(1) - 1
}
