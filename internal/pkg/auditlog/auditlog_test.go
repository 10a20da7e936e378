package auditlog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fixedClock() func() time.Time {
	t := time.Date(2024, 3, 1, 12, 30, 45, 123*int(time.Millisecond), time.UTC)
	return func() time.Time { return t }
}

func TestEntryFormats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "server.log")
	w, err := NewWriter(path, WithClock(fixedClock()))
	require.NoError(t, err)

	require.NoError(t, w.Exchange("12:30:45.123", "[0] PING", "12:30:45.500", "[0/0] PONG (1)"))
	require.NoError(t, w.Dropped("12:30:45.123", "[1] PING"))
	require.NoError(t, w.Timeout("12:30:45.123", "[2] PING", "12:30:47.123"))
	require.NoError(t, w.Keepalive("12:30:46.000", "[3] keepalive"))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, []string{
		"2024-03-01;12:30:45.123;[0] PING;12:30:45.500;[0/0] PONG (1)",
		"2024-03-01;12:30:45.123;[1] PING;(dropped);(dropped)",
		"2024-03-01;12:30:45.123;[2] PING;12:30:47.123;(timeout)",
		"2024-03-01;;;12:30:46.000;[3] keepalive",
	}, strings.Split(strings.TrimRight(string(data), "\n"), "\n"))
}

func TestTruncateOnOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")

	w, err := NewWriter(path, WithClock(fixedClock()))
	require.NoError(t, err)
	require.NoError(t, w.Dropped("12:00:00.000", "[0] PING"))
	require.NoError(t, w.Close())

	w, err = NewWriter(path, WithClock(fixedClock()))
	require.NoError(t, err)
	require.NoError(t, w.Keepalive("13:00:00.000", "[9] keepalive"))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "2024-03-01;;;13:00:00.000;[9] keepalive\n", string(data))
}

func TestConcurrentAppendsDoNotInterleave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	w, err := NewWriter(path, WithClock(fixedClock()))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				require.NoError(t, w.Keepalive("12:00:00.000", fmt.Sprintf("[%d] keepalive", i)))
			}
		}(i)
	}
	wg.Wait()
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 20*50)
	for _, line := range lines {
		require.Len(t, strings.Split(line, ";"), 5)
		require.True(t, strings.HasPrefix(line, "2024-03-01;;;12:00:00.000;["), line)
	}
}

func TestFormatters(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 5, 7, 42*int(time.Millisecond), time.UTC)
	require.Equal(t, "09:05:07.042", FormatTime(at))
	require.Equal(t, "2024-03-01", FormatDate(at))
}
