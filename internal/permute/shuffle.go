package permute

import (
	"math/rand"

	"github.com/ASBoldt/quantgen/internal/model"
)

// ShuffleSampleIndex returns a copy of base with the columns mapped by
// its present (non-absent) entries randomly permuted among themselves,
// per spec.md 4.6's "shuffle the phenotype sample index vector". Absent
// entries stay absent, in place.
func ShuffleSampleIndex(base model.SampleIndex, rng *rand.Rand) model.SampleIndex {
	out := make(model.SampleIndex, len(base))
	copy(out, base)

	var present []int
	for i, v := range out {
		if v >= 0 {
			present = append(present, i)
		}
	}

	for i := len(present) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		pi, pj := present[i], present[j]
		out[pi], out[pj] = out[pj], out[pi]
	}

	return out
}
