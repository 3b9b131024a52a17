package numerics

import (
	"sort"
)

// QuantileNormalize replaces each value of y with its Gaussian quantile
// under rank-based inverse-normal transformation, as described in
// spec.md 4.1. Ties share the average rank. y is modified in place and
// also returned for chaining.
func QuantileNormalize(y []float64) []float64 {
	n := len(y)
	if n == 0 {
		return y
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return y[idx[a]] < y[idx[b]] })

	ranks := make([]float64, n)
	i := 0
	for i < n {
		j := i
		for j+1 < n && y[idx[j+1]] == y[idx[i]] {
			j++
		}
		// Average rank (1-based) for the tied block [i, j].
		avgRank := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avgRank
		}
		i = j + 1
	}

	out := make([]float64, n)
	for k, r := range ranks {
		p := (r - 0.5) / float64(n)
		out[k] = stdNormal.Quantile(p)
	}
	copy(y, out)
	return y
}
