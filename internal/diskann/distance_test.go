package diskann

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDistance_SquaredEuclideanAndFinalize(t *testing.T) {
	t.Parallel()

	a := []float64{0, 0}
	b := []float64{3, 4}

	got := squaredEuclidean(a, b)
	require.Equal(t, 25.0, got)
	require.Equal(t, 5.0, L2.finalize(got))
}

func TestDistance_CosineSelfIsZero(t *testing.T) {
	t.Parallel()

	v := []float64{1, 2, 3}
	require.InDelta(t, 0.0, cosineDistance(v, v), 1e-9)
}

func TestDistance_GetDistanceFuncRejectsUnknownMetric(t *testing.T) {
	t.Parallel()

	_, err := getDistanceFunc(Metric(99))
	require.Error(t, err)
}

func TestDistance_InnerProductOrdering(t *testing.T) {
	t.Parallel()

	query := []float64{1, 0}
	closer := []float64{1, 0}
	farther := []float64{0, 1}

	dc := negatedInnerProduct(query, closer)
	df := negatedInnerProduct(query, farther)
	require.Less(t, dc, df)
	require.True(t, math.IsNaN(dc) == false)
}
