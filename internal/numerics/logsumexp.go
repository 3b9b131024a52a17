package numerics

import "math"

// Log10WeightedSum computes log10(sum_i weights[i] * 10^vals[i]) using the
// max-shift trick so it never overflows/underflows, per spec.md 4.1.
//
// weights may be nil, in which case uniform weights 1/len(vals) are used.
// NaN entries in vals contribute nothing to the sum; if every entry is
// NaN the result is NaN.
func Log10WeightedSum(vals []float64, weights []float64) float64 {
	n := len(vals)
	if n == 0 {
		return math.NaN()
	}
	if weights == nil {
		weights = UniformWeights(n)
	}

	maxV := math.Inf(-1)
	haveFinite := false
	for _, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		haveFinite = true
		if v > maxV {
			maxV = v
		}
	}
	if !haveFinite {
		return math.NaN()
	}
	if math.IsInf(maxV, -1) {
		return math.Inf(-1)
	}

	var sum float64
	for i, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		sum += weights[i] * math.Pow(10, v-maxV)
	}
	if sum <= 0 {
		return math.Inf(-1)
	}
	return maxV + math.Log10(sum)
}

// UniformWeights returns a slice of n weights each equal to 1/n.
func UniformWeights(n int) []float64 {
	w := make([]float64, n)
	u := 1 / float64(n)
	for i := range w {
		w[i] = u
	}
	return w
}
