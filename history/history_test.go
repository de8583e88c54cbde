package history

import (
	"testing"

	"github.com/backgen/backgen/images"
	"github.com/backgen/backgen/regions"
	"github.com/stretchr/testify/require"
)

// singlePixelAggregator builds a 1x1 single-channel aggregator, the smallest
// unit the admission policy can be observed on.
func singlePixelAggregator(t *testing.T, capacity int) *Aggregator {
	t.Helper()
	regs, err := regions.Partition(1, 1)
	require.NoError(t, err)
	agg, err := NewAggregator(regs, 1, 1, 1, capacity)
	require.NoError(t, err)
	return agg
}

// offer inserts a single-pixel frame with the given value and motion score.
func offer(t *testing.T, agg *Aggregator, value uint8, score int64) {
	t.Helper()
	frame, err := images.NewFrame(1, 1, 1)
	require.NoError(t, err)
	frame.Pix[0] = value
	m, err := images.NewProbabilityMap(1, 1)
	require.NoError(t, err)
	m.Pix[0] = score
	require.NoError(t, agg.Insert(m, frame))
}

func background(t *testing.T, agg *Aggregator) uint8 {
	t.Helper()
	dst, err := images.NewFrame(1, 1, 1)
	require.NoError(t, err)
	require.NoError(t, agg.Median(dst))
	return dst.Pix[0]
}

func TestAggregatorRejectsBadConstruction(t *testing.T) {
	regs, err := regions.Partition(1, 1)
	require.NoError(t, err)

	_, err = NewAggregator(regs, 1, 1, 1, 0)
	require.Error(t, err)
	_, err = NewAggregator(nil, 1, 1, 1, 3)
	require.Error(t, err)
	_, err = NewAggregator(regs, 0, 1, 1, 3)
	require.Error(t, err)
}

func TestCapacityNeverExceeded(t *testing.T) {
	for _, capacity := range []int{1, 2, 3, 19} {
		agg := singlePixelAggregator(t, capacity)
		for i := 0; i < 100; i++ {
			offer(t, agg, uint8(i), int64(100-i)) // ever-improving scores force churn
			require.LessOrEqual(t, agg.Retained(0), capacity)
		}
		require.Equal(t, capacity, agg.Retained(0))
	}
}

func TestBelowCapacityAdmitsUnconditionally(t *testing.T) {
	agg := singlePixelAggregator(t, 3)
	offer(t, agg, 10, 1000) // terrible score still admitted while not full
	offer(t, agg, 20, 2000)
	offer(t, agg, 30, 3000)
	require.Equal(t, 3, agg.Retained(0))
}

func TestFullBufferAdmitsOnlyStrictlyBetter(t *testing.T) {
	agg := singlePixelAggregator(t, 1)
	offer(t, agg, 50, 100)

	// Equal score: earliest retained wins, candidate discarded.
	offer(t, agg, 60, 100)
	require.Equal(t, uint8(50), background(t, agg))

	// Worse score: discarded.
	offer(t, agg, 70, 101)
	require.Equal(t, uint8(50), background(t, agg))

	// Strictly better: evicts the retained sample.
	offer(t, agg, 80, 99)
	require.Equal(t, uint8(80), background(t, agg))
}

func TestCapacityOneRetainsLowestScoreEarliestArrival(t *testing.T) {
	agg := singlePixelAggregator(t, 1)
	scores := []int64{40, 12, 55, 12, 90, 13}
	for i, s := range scores {
		offer(t, agg, uint8(i), s)
	}
	// Lowest score is 12, first reached at index 1.
	require.Equal(t, uint8(1), background(t, agg))
}

func TestEvictionRemovesWorstRetained(t *testing.T) {
	agg := singlePixelAggregator(t, 3)
	offer(t, agg, 1, 10)
	offer(t, agg, 2, 30)
	offer(t, agg, 3, 20)

	// Score 25 beats the worst (30); retained set becomes {10, 20, 25}.
	offer(t, agg, 4, 25)
	require.Equal(t, 3, agg.Retained(0))

	// Median over values {1, 3, 4} (scores 10, 20, 25).
	require.Equal(t, uint8(3), background(t, agg))
}

func TestMedianOddCount(t *testing.T) {
	agg := singlePixelAggregator(t, 5)
	for i, v := range []uint8{90, 10, 50} {
		offer(t, agg, v, int64(i))
	}
	require.Equal(t, uint8(50), background(t, agg))
}

func TestMedianEvenCountTakesLowerMiddle(t *testing.T) {
	agg := singlePixelAggregator(t, 4)
	for i, v := range []uint8{10, 20, 30, 40} {
		offer(t, agg, v, int64(i))
	}
	require.Equal(t, uint8(20), background(t, agg))
}

func TestMedianPerChannelIndependence(t *testing.T) {
	regs, err := regions.Partition(1, 1)
	require.NoError(t, err)
	agg, err := NewAggregator(regs, 1, 1, 3, 3)
	require.NoError(t, err)

	m, err := images.NewProbabilityMap(1, 1)
	require.NoError(t, err)
	for i, px := range [][3]uint8{{10, 200, 35}, {30, 100, 25}, {20, 44, 45}} {
		frame, err := images.NewFrame(1, 1, 3)
		require.NoError(t, err)
		copy(frame.Pix, px[:])
		m.Pix[0] = int64(i)
		require.NoError(t, agg.Insert(m, frame))
	}

	dst, err := images.NewFrame(1, 1, 3)
	require.NoError(t, err)
	require.NoError(t, agg.Median(dst))
	require.Equal(t, uint8(20), dst.Pix[0])  // median of 10, 30, 20
	require.Equal(t, uint8(100), dst.Pix[1]) // median of 200, 100, 44
	require.Equal(t, uint8(35), dst.Pix[2])  // median of 35, 25, 45
}

func TestMedianBeforeAnyInsertWritesZeroSentinel(t *testing.T) {
	agg := singlePixelAggregator(t, 3)
	dst, err := images.NewFrame(1, 1, 1)
	require.NoError(t, err)
	dst.Pix[0] = 99
	require.NoError(t, agg.Median(dst))
	require.Equal(t, uint8(0), dst.Pix[0])
}

func TestMedianIsIdempotent(t *testing.T) {
	regs, err := regions.Partition(4, 4)
	require.NoError(t, err)
	agg, err := NewAggregator(regs, 4, 4, 3, 3)
	require.NoError(t, err)

	m, err := images.NewProbabilityMap(4, 4)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		frame, err := images.NewFrame(4, 4, 3)
		require.NoError(t, err)
		for j := range frame.Pix {
			frame.Pix[j] = uint8((j*7 + i*13) % 256)
		}
		for j := range m.Pix {
			m.Pix[j] = int64((j + i) % 9)
		}
		require.NoError(t, agg.Insert(m, frame))
	}

	first, err := images.NewFrame(4, 4, 3)
	require.NoError(t, err)
	second, err := images.NewFrame(4, 4, 3)
	require.NoError(t, err)
	require.NoError(t, agg.Median(first))
	require.NoError(t, agg.Median(second))
	require.Equal(t, first.Pix, second.Pix)
}

func TestParallelInsertAndMedianMatchSequential(t *testing.T) {
	const h, w, ch, s = 16, 16, 3, 4

	build := func(parallel bool) *images.Frame {
		regs, err := regions.Partition(h, w)
		require.NoError(t, err)
		agg, err := NewAggregator(regs, h, w, ch, s)
		require.NoError(t, err)
		agg.Parallel = parallel

		m, err := images.NewProbabilityMap(h, w)
		require.NoError(t, err)
		for i := 0; i < 9; i++ {
			frame, err := images.NewFrame(h, w, ch)
			require.NoError(t, err)
			for j := range frame.Pix {
				frame.Pix[j] = uint8((j*11 + i*29) % 256)
			}
			for j := range m.Pix {
				m.Pix[j] = int64((j*3 + i*17) % 101)
			}
			require.NoError(t, agg.Insert(m, frame))
		}

		dst, err := images.NewFrame(h, w, ch)
		require.NoError(t, err)
		require.NoError(t, agg.Median(dst))
		return dst
	}

	require.Equal(t, build(false).Pix, build(true).Pix)
}

func TestInsertRejectsShapeMismatch(t *testing.T) {
	agg := singlePixelAggregator(t, 3)

	frame, err := images.NewFrame(2, 2, 1)
	require.NoError(t, err)
	m, err := images.NewProbabilityMap(2, 2)
	require.NoError(t, err)
	require.Error(t, agg.Insert(m, frame))

	badDst, err := images.NewFrame(2, 2, 1)
	require.NoError(t, err)
	require.Error(t, agg.Median(badDst))
}
