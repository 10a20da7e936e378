package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRequestRoundTrip(t *testing.T) {
	require.Equal(t, "[0] PING", FormatRequest(0))
	n, err := ParseRequest("[42] PING")
	require.NoError(t, err)
	require.Equal(t, uint64(42), n)
}

func TestParseReply(t *testing.T) {
	reply, err := ParseReply("[7/3] PONG (2)")
	require.NoError(t, err)
	require.Equal(t, Reply{ResponseID: 7, RequestNumber: 3, ClientID: 2}, reply)
	require.Equal(t, "[7/3] PONG (2)", FormatReply(7, 3, 2))
}

func TestParseMalformed(t *testing.T) {
	for _, line := range []string{
		"",
		"PING",
		"[x] PING",
		"[1]PING",
		"[1] PONG",
		"[1] keepalive",
	} {
		_, err := ParseRequest(line)
		require.ErrorIs(t, err, ErrMalformed, "request %q", line)
	}
	for _, line := range []string{
		"",
		"[7] PONG (2)",
		"[7/3] PONG 2",
		"[7/x] PONG (2)",
		"[0] keepalive",
	} {
		_, err := ParseReply(line)
		require.ErrorIs(t, err, ErrMalformed, "reply %q", line)
	}
}

func TestKeepalive(t *testing.T) {
	line := FormatKeepalive(12)
	require.Equal(t, "[12] keepalive", line)
	require.True(t, IsKeepalive(line))
	require.False(t, IsKeepalive("[7/3] PONG (2)"))
}
