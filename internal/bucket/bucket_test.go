package bucket

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValueIsDeterministic(t *testing.T) {
	first := Value("812734", "user-1")
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, Value("812734", "user-1"))
	}
}

func TestValueRange(t *testing.T) {
	for i := 0; i < 1000; i++ {
		v := Value("seed", fmt.Sprintf("id-%d", i))
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, 1.0)
	}
}

func TestValueVariesPerSeed(t *testing.T) {
	// Same identifier bucketed against different objects must not be
	// pinned to the same value, otherwise every split correlates.
	a := Value("segment-1", "user-1")
	b := Value("segment-2", "user-1")
	assert.NotEqual(t, a, b)
}

func TestDistributionIsRoughlyUniform(t *testing.T) {
	const n = 10000
	var under int
	for i := 0; i < n; i++ {
		if Value("rollout", fmt.Sprintf("identity-%d", i)) < 0.5 {
			under++
		}
	}
	share := float64(under) / n
	assert.InDelta(t, 0.5, share, 0.02)
}

func TestFractionStaysBelowOne(t *testing.T) {
	// Full 64-bit division rounds to exactly 1.0 near MaxUint64, which
	// would let an identity escape a 100% split.
	assert.Equal(t, 0.0, fraction(0))
	assert.Less(t, fraction(math.MaxUint64), 1.0)
	assert.Less(t, fraction(math.MaxUint64-2047), 1.0)
}

func TestPickCoversPartition(t *testing.T) {
	ranges := []Range{
		{Label: "control", Weight: 50},
		{Label: "variant", Weight: 50},
	}

	counts := map[string]int{}
	for i := 0; i < 10000; i++ {
		counts[Pick(ranges, "exp-1", fmt.Sprintf("id-%d", i))]++
	}

	assert.Len(t, counts, 2)
	assert.InDelta(t, 5000, counts["control"], 500)
	assert.InDelta(t, 5000, counts["variant"], 500)
}

func TestPickIsStable(t *testing.T) {
	ranges := []Range{
		{Label: "a", Weight: 1},
		{Label: "b", Weight: 2},
		{Label: "c", Weight: 1},
	}
	first := Pick(ranges, "exp-2", "user-42")
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, Pick(ranges, "exp-2", "user-42"))
	}
}

func TestPickEmptyPartition(t *testing.T) {
	assert.Equal(t, "", Pick(nil, "x"))
	assert.Equal(t, "", Pick([]Range{{Label: "a", Weight: 0}}, "x"))
}
