// Package bucket implements the deterministic percentage bucketing used
// for segment percentage splits and gradual rollouts.
package bucket

import (
	"encoding/binary"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Value hashes the seed parts (object IDs plus the identity identifier,
// joined with commas) to a float in [0, 1). The same parts always
// produce the same bucket, with no stored state.
func Value(parts ...string) float64 {
	sum := blake2b.Sum256([]byte(strings.Join(parts, ",")))
	return fraction(binary.BigEndian.Uint64(sum[:8]))
}

// fraction keeps the top 53 bits so the result stays strictly below
// 1.0; dividing the full 64 bits by 2^64 rounds up for inputs near
// MaxUint64.
func fraction(n uint64) float64 {
	return float64(n>>11) / float64(1<<53)
}

// Range is one labeled slice of the [0, 1) partition.
type Range struct {
	Label  string
	Weight float64
}

// Pick selects the range the seed's bucket falls into. Weights are
// normalized against their sum, so callers may pass percentages or raw
// ratios. The final range absorbs rounding remainder; an empty or
// zero-weight partition returns "".
func Pick(ranges []Range, parts ...string) string {
	var total float64
	for _, r := range ranges {
		total += r.Weight
	}
	if total <= 0 {
		return ""
	}

	b := Value(parts...)
	var cursor float64
	for i, r := range ranges {
		cursor += r.Weight / total
		if b < cursor || i == len(ranges)-1 {
			return r.Label
		}
	}
	return ""
}
