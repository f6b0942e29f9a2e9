// Package stats computes per-group count/sum/standard-deviation statistics
// and their exact pooled combination, plus the month/year roll-ups the
// report generator is built on.
package stats

import "math"

// Group is a summary statistic over a set of amounts. Sd is nil when N <= 1
// because no variance is definable from fewer than two samples.
type Group struct {
	N    int      `json:"n"`
	Sum  float64  `json:"sum"`
	Mean float64  `json:"mean"`
	Sd   *float64 `json:"sd,omitempty"`
}

// Compute returns the statistic over amounts, using the population standard
// deviation.
func Compute(amounts []float64) Group {
	n := len(amounts)
	if n == 0 {
		return Group{}
	}
	sum := 0.0
	for _, a := range amounts {
		sum += a
	}
	mean := sum / float64(n)
	if n == 1 {
		return Group{N: 1, Sum: sum, Mean: mean}
	}
	sq := 0.0
	for _, a := range amounts {
		d := a - mean
		sq += d * d
	}
	sd := math.Sqrt(sq / float64(n))
	return Group{N: n, Sum: sum, Mean: mean, Sd: &sd}
}

// Combine pools partitioned groups into the statistic of their union without
// access to the raw amounts. The result is exact, not an approximation: the
// pooled variance is the weighted within-group variance plus the
// between-group variance (parallel-axis decomposition).
//
//	variance = (Σ nᵢ·sdᵢ² + Σ nᵢ·(meanᵢ − mean)²) / n
//
// Groups with n = 0 are excluded; undefined sdᵢ terms contribute zero
// within-group variance. Combining nothing (or only empty groups) yields the
// zero statistic.
func Combine(groups []Group) Group {
	n := 0
	sum := 0.0
	for _, g := range groups {
		if g.N == 0 {
			continue
		}
		n += g.N
		sum += g.Sum
	}
	if n == 0 {
		return Group{}
	}
	mean := sum / float64(n)
	if n == 1 {
		return Group{N: 1, Sum: sum, Mean: mean}
	}
	within := 0.0
	between := 0.0
	for _, g := range groups {
		if g.N == 0 {
			continue
		}
		if g.Sd != nil {
			within += float64(g.N) * (*g.Sd) * (*g.Sd)
		}
		d := g.Mean - mean
		between += float64(g.N) * d * d
	}
	sd := math.Sqrt((within + between) / float64(n))
	return Group{N: n, Sum: sum, Mean: mean, Sd: &sd}
}
