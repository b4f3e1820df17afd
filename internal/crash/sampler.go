package crash

import (
	"math"
	"math/rand"
)

// Sampler draws one crash point. It runs exactly once per round, at the
// moment the lobby closes; the result is frozen for the round's lifetime.
type Sampler func() float64

// HouseEdgeSampler reproduces the production distribution (~5% edge):
// 1% of rounds crash almost immediately in [1.00, 1.10), 4% crash early in
// [1.10, 1.50), and the rest follow the heavy-tailed draw 0.9 / u^0.7.
func HouseEdgeSampler(rng *rand.Rand) Sampler {
	return func() float64 {
		r := rng.Float64()
		switch {
		case r < 0.01:
			return 1.0 + rng.Float64()*0.1
		case r < 0.05:
			return 1.1 + rng.Float64()*0.4
		default:
			return 0.9 / math.Pow(rng.Float64(), 0.7)
		}
	}
}

// FixedSampler always returns point. Test hook.
func FixedSampler(point float64) Sampler {
	return func() float64 { return point }
}
