package diskann

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPruneNeighbors_FiltersOwnerAndTruncates(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := openStorage(filepath.Join(dir, "x.vec"), filepath.Join(dir, "x.adj"), 1, 4, Float64, 5)
	require.NoError(t, err)
	defer s.Close()

	// owner at 0, candidates at 1..4 with distances 4,3,2,1 respectively.
	require.NoError(t, s.writeVector(0, []float64{0}))
	for i, v := range []float64{4, 3, 2, 1} {
		require.NoError(t, s.writeVector(i+1, []float64{v}))
	}

	pruned := pruneNeighbors(s, squaredEuclidean, 0, []float64{0}, []int32{0, 1, 2, 3, 4}, 2)
	require.Equal(t, []int32{4, 3}, pruned) // closest two to owner, owner itself dropped
}

func TestPruneNeighbors_DedupesAndKeepsAllWhenUnderLimit(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := openStorage(filepath.Join(dir, "x.vec"), filepath.Join(dir, "x.adj"), 1, 4, Float64, 3)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.writeVector(0, []float64{0}))
	require.NoError(t, s.writeVector(1, []float64{1}))
	require.NoError(t, s.writeVector(2, []float64{2}))

	pruned := pruneNeighbors(s, squaredEuclidean, 0, []float64{0}, []int32{1, 1, 2}, 8)
	require.Equal(t, []int32{1, 2}, pruned)
}
