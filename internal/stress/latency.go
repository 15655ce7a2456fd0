package stress

import (
	"math"
	"math/rand/v2"
	"slices"
	"time"
)

// latencyReservoirSize bounds the memory used for latency percentiles on
// long duration-bound runs.
const latencyReservoirSize = 8192

// Latency percentiles reported in the summary.
const (
	percentileMedian = 0.5
	percentileP99    = 0.99
)

// latencyReservoir keeps a uniform sample of operation latencies. It draws
// from its own generator so the workload sequence does not depend on it.
type latencyReservoir struct {
	samples []float64
	seen    int
	max     time.Duration
	rng     *rand.Rand
}

func newLatencyReservoir(seed uint64) *latencyReservoir {
	return &latencyReservoir{
		samples: make([]float64, 0, latencyReservoirSize),
		rng:     rand.New(rand.NewPCG(seed, ^seed)), //nolint:gosec // sampling only.
	}
}

func (l *latencyReservoir) add(d time.Duration) {
	l.seen++
	l.max = max(l.max, d)

	if len(l.samples) < latencyReservoirSize {
		l.samples = append(l.samples, float64(d))

		return
	}

	if slot := l.rng.IntN(l.seen); slot < latencyReservoirSize {
		l.samples[slot] = float64(d)
	}
}

// percentile returns the p-th percentile (p in [0, 1]) by linear
// interpolation between the nearest ranks. Zero when nothing was recorded.
func (l *latencyReservoir) percentile(p float64) time.Duration {
	count := len(l.samples)
	if count == 0 {
		return 0
	}

	sorted := slices.Clone(l.samples)
	slices.Sort(sorted)

	idx := p * float64(count-1)
	lower := int(math.Floor(idx))
	upper := int(math.Ceil(idx))

	if lower == upper || upper >= count {
		return time.Duration(sorted[lower])
	}

	frac := idx - float64(lower)

	return time.Duration(sorted[lower]*(1-frac) + sorted[upper]*frac)
}
