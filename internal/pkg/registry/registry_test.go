package registry

import (
	"net"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegisterAssignsIncreasingIDs(t *testing.T) {
	r := NewRegistry()
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	first := r.Register(a)
	second := r.Register(b)
	require.Equal(t, uint64(1), first.ID())
	require.Equal(t, uint64(2), second.ID())
	require.Equal(t, 2, r.Len())

	r.Unregister(first.ID())
	require.Equal(t, 1, r.Len())

	// Ids are never reused, even after the earlier connection is gone.
	c, d := net.Pipe()
	defer c.Close()
	defer d.Close()
	require.Equal(t, uint64(3), r.Register(c).ID())
}

func TestSnapshotReflectsLiveConnections(t *testing.T) {
	r := NewRegistry()
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	first := r.Register(a)
	second := r.Register(b)
	r.Unregister(first.ID())

	snapshot := r.Snapshot()
	require.Len(t, snapshot, 1)
	require.Equal(t, second.ID(), snapshot[0].ID())

	r.Unregister(second.ID())
	require.Empty(t, r.Snapshot())
	r.Unregister(second.ID()) // no-op
}

func TestAllocatorSequenceUnderConcurrency(t *testing.T) {
	var alloc Allocator
	const workers = 8
	const perWorker = 1000

	results := make([][]uint64, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				results[i] = append(results[i], alloc.Next())
			}
		}(i)
	}
	wg.Wait()

	var all []uint64
	for _, ids := range results {
		all = append(all, ids...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })
	require.Len(t, all, workers*perWorker)
	for i, id := range all {
		require.Equal(t, uint64(i), id, "sequence must start at 0 with no gaps or duplicates")
	}
}

func TestConnWriteLine(t *testing.T) {
	r := NewRegistry()
	a, b := net.Pipe()
	defer b.Close()

	c := r.Register(a)
	go func() {
		require.NoError(t, c.WriteLine("[0] keepalive"))
	}()
	buf := make([]byte, 64)
	n, err := b.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "[0] keepalive\n", string(buf[:n]))

	require.NoError(t, c.Close())
	require.Error(t, c.WriteLine("[1] keepalive"))
}
