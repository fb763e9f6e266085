package diskann

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// White-box check of spec.md §8 properties 1 and 2 directly against the
// on-disk adjacency rows: no live row contains a self-loop or a duplicate
// neighbor ID, and every nonnegative cell names a live internal ID.
func TestInvariants_AdjacencyRows(t *testing.T) {
	t.Parallel()

	ix, err := Create(filepath.Join(t.TempDir(), "idx"), basicTestConfig(8))
	require.NoError(t, err)
	defer ix.Close()

	n := 60
	for i := 0; i < n; i++ {
		v := make([]float64, 8)
		for d := range v {
			v[d] = float64((i*7+d*13)%97) / 97.0
		}
		_, _, err := ix.Insert(v, "")
		require.NoError(t, err)
	}
	for i := 0; i < n; i += 5 {
		_ = ix.DeleteByID(int64(i + 1))
	}

	for internal := int32(0); internal < ix.meta.numPoints; internal++ {
		if ix.freeSet[internal] {
			continue
		}
		row := ix.store.readAdjacency(int(internal))

		seen := make(map[int32]bool, len(row))
		for _, nb := range row {
			require.NotEqual(t, internal, nb, "node %d has a self-loop", internal)
			require.False(t, seen[nb], "node %d has duplicate neighbor %d", internal, nb)
			seen[nb] = true
			require.False(t, ix.freeSet[nb], "node %d has tombstoned neighbor %d", internal, nb)
			require.True(t, nb >= 0 && nb < ix.meta.numPoints, "node %d has out-of-range neighbor %d", internal, nb)
		}
	}
}

func basicTestConfig(dim int) Config {
	return Config{
		Dim:            dim,
		ElementType:    Float32,
		MaxDegree:      8,
		Metric:         L2,
		EfSearch:       32,
		EfConstruction: 32,
	}
}
