package diskann

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMinHeap_PopsAscendingWithIDTiebreak(t *testing.T) {
	t.Parallel()

	h := newMinHeap(4)
	h.push(candidate{id: 3, distance: 5})
	h.push(candidate{id: 1, distance: 5})
	h.push(candidate{id: 2, distance: 1})

	c, ok := h.pop()
	require.True(t, ok)
	require.Equal(t, candidate{id: 2, distance: 1}, c)

	c, ok = h.pop()
	require.True(t, ok)
	require.Equal(t, candidate{id: 1, distance: 5}, c) // tie broken by ascending ID

	c, ok = h.pop()
	require.True(t, ok)
	require.Equal(t, candidate{id: 3, distance: 5}, c)

	_, ok = h.pop()
	require.False(t, ok)
}

func TestMaxHeap_EvictsWorstAndSortsAscending(t *testing.T) {
	t.Parallel()

	h := newMaxHeap(3)
	h.push(candidate{id: 1, distance: 1})
	h.push(candidate{id: 2, distance: 5})
	h.push(candidate{id: 3, distance: 3})

	top, ok := h.top()
	require.True(t, ok)
	require.Equal(t, int32(2), top.id) // worst (farthest) on top

	sorted := h.sorted()
	require.Len(t, sorted, 3)
	require.Equal(t, int32(1), sorted[0].id)
	require.Equal(t, int32(3), sorted[1].id)
	require.Equal(t, int32(2), sorted[2].id)
}
