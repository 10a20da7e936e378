package server

import (
	"bufio"
	"context"
	"fmt"
	"math/rand"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/AndrewSkow24/tcp-ping-pong/internal/pkg/auditlog"
	"github.com/AndrewSkow24/tcp-ping-pong/internal/pkg/wire"

	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T, cfgs ...Cfg) net.Addr {
	t.Helper()
	audit, err := auditlog.NewWriter(filepath.Join(t.TempDir(), "server.log"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = audit.Close() })

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	cfgs = append([]Cfg{
		WithListener(ln),
		WithAuditLog(audit),
		WithProcessingDelay(time.Millisecond, 2*time.Millisecond),
		WithRand(rand.New(rand.NewSource(1))),
	}, cfgs...)
	s, err := NewServer(cfgs...)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})
	return ln.Addr()
}

func dial(t *testing.T, addr net.Addr) (net.Conn, *bufio.Reader) {
	t.Helper()
	conn, err := net.Dial("tcp", addr.String())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn, bufio.NewReader(conn)
}

func sendLine(t *testing.T, conn net.Conn, line string) {
	t.Helper()
	_, err := fmt.Fprintf(conn, "%s\n", line)
	require.NoError(t, err)
}

func readLine(t *testing.T, conn net.Conn, r *bufio.Reader, within time.Duration) string {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(within)))
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	return line[:len(line)-1]
}

func TestReplyCorrelation(t *testing.T) {
	addr := startServer(t, WithDropProbability(0))
	conn, r := dial(t, addr)

	for i := uint64(0); i < 3; i++ {
		sendLine(t, conn, wire.FormatRequest(i))
		reply, err := wire.ParseReply(readLine(t, conn, r, time.Second))
		require.NoError(t, err)
		require.Equal(t, i, reply.RequestNumber)
		require.Equal(t, i, reply.ResponseID)
		require.Equal(t, uint64(1), reply.ClientID)
	}
}

func TestDroppedRequestGetsNoReply(t *testing.T) {
	addr := startServer(t, WithDropProbability(1))
	conn, r := dial(t, addr)

	sendLine(t, conn, wire.FormatRequest(0))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, err := r.ReadString('\n')
	require.Error(t, err)
	var netErr net.Error
	require.ErrorAs(t, err, &netErr)
	require.True(t, netErr.Timeout())
}

func TestMalformedRequestSkippedSilently(t *testing.T) {
	addr := startServer(t, WithDropProbability(0))
	conn, r := dial(t, addr)

	sendLine(t, conn, "PING without a number")
	sendLine(t, conn, wire.FormatRequest(7))
	reply, err := wire.ParseReply(readLine(t, conn, r, time.Second))
	require.NoError(t, err)
	require.Equal(t, uint64(7), reply.RequestNumber)
}

func TestKeepaliveBroadcastReachesAllClients(t *testing.T) {
	addr := startServer(t,
		WithDropProbability(0),
		WithKeepaliveInterval(50*time.Millisecond),
	)
	connA, rA := dial(t, addr)
	connB, rB := dial(t, addr)

	lineA := readLine(t, connA, rA, time.Second)
	lineB := readLine(t, connB, rB, time.Second)
	require.True(t, wire.IsKeepalive(lineA), lineA)
	require.True(t, wire.IsKeepalive(lineB), lineB)
	// One broadcast consumes exactly one response id.
	require.Equal(t, lineA, lineB)
}

func TestResponseIDsUniqueAcrossConnections(t *testing.T) {
	addr := startServer(t, WithDropProbability(0))

	const clients = 3
	const perClient = 5
	ids := make(chan uint64, clients*perClient)
	done := make(chan struct{}, clients)
	for i := 0; i < clients; i++ {
		conn, r := dial(t, addr)
		go func(conn net.Conn, r *bufio.Reader) {
			defer func() { done <- struct{}{} }()
			for n := uint64(0); n < perClient; n++ {
				sendLine(t, conn, wire.FormatRequest(n))
				reply, err := wire.ParseReply(readLine(t, conn, r, 2*time.Second))
				require.NoError(t, err)
				require.Equal(t, n, reply.RequestNumber)
				ids <- reply.ResponseID
			}
		}(conn, r)
	}
	for i := 0; i < clients; i++ {
		<-done
	}
	close(ids)

	seen := make(map[uint64]bool)
	for id := range ids {
		require.False(t, seen[id], "response id %d issued twice", id)
		require.Less(t, id, uint64(clients*perClient))
		seen[id] = true
	}
	require.Len(t, seen, clients*perClient)
}

func TestHandlerAssignsFreshIDAfterReconnect(t *testing.T) {
	addr := startServer(t, WithDropProbability(0))

	conn, r := dial(t, addr)
	sendLine(t, conn, wire.FormatRequest(0))
	first, err := wire.ParseReply(readLine(t, conn, r, time.Second))
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	conn2, r2 := dial(t, addr)
	sendLine(t, conn2, wire.FormatRequest(0))
	second, err := wire.ParseReply(readLine(t, conn2, r2, time.Second))
	require.NoError(t, err)
	require.Greater(t, second.ClientID, first.ClientID)
}
