// Package abf computes Approximate Bayes Factors from standardized
// per-subgroup summary statistics, and assembles the ABF families of
// spec.md 4.2 over a grid of prior-variance pairs.
package abf

import (
	"math"

	"github.com/ASBoldt/quantgen/internal/configenum"
	"github.com/ASBoldt/quantgen/internal/numerics"
)

// GridPoint is one (phi^2, omega^2) prior-variance pair.
type GridPoint struct {
	Phi2   float64
	Omega2 float64
}

// Family selects which configuration families an association run
// computes, per spec.md 6's bfs/pbf flags.
type Family int

const (
	FamilyConst Family = iota
	FamilySubset
	FamilyAll
)

// ParseFamily parses the CLI spelling of a bfs/pbf selector.
func ParseFamily(s string) (Family, bool) {
	switch s {
	case "const":
		return FamilyConst, true
	case "subset":
		return FamilySubset, true
	case "all":
		return FamilyAll, true
	default:
		return 0, false
	}
}

const constLabel = "const"
const constFixLabel = "const.fix"
const constMaxhLabel = "const.maxh"

// ComputeABF is the single-(phi^2,omega^2) kernel of spec.md 4.2: it
// combines each contributing subgroup's single-subgroup log10 ABF with
// the cross-subgroup meta-analysis term. Subgroups whose standardized
// triple has |t|<1e-8 (the zero-triple sentinel for masked-out or
// degenerate subgroups) contribute nothing, and if none contribute the
// result is 0 — no data, no evidence.
func ComputeABF(stats []numerics.StandardizedStats, phi2, omega2 float64) float64 {
	var sumSingle, num, den float64
	any := false

	for _, st := range stats {
		if math.Abs(st.T) < 1e-8 {
			continue
		}
		any = true
		v := st.Se * st.Se
		l10s := 0.5*math.Log10(v) - 0.5*math.Log10(v+phi2) +
			(0.5*st.T*st.T*phi2/(v+phi2))/math.Ln10
		sumSingle += l10s
		num += st.B / (v + phi2)
		den += 1 / (v + phi2)
	}

	if !any || den == 0 {
		return 0
	}

	bbar := num / den
	vbar := 1 / den
	t2 := bbar * bbar / vbar

	var l10bar float64
	if t2 != 0 {
		l10bar = 0.5*math.Log10(vbar) - 0.5*math.Log10(vbar+omega2) +
			(0.5*t2*omega2/(vbar+omega2))/math.Ln10
	}

	return l10bar + sumSingle
}

// MaskOut returns a copy of stats where every subgroup not listed in
// members is replaced by the zero triple, so ComputeABF/the const family
// treats it as having no data (spec.md 4.2's subset/all masking).
func MaskOut(stats []numerics.StandardizedStats, members []int) []numerics.StandardizedStats {
	out := make([]numerics.StandardizedStats, len(stats))
	for _, m := range members {
		if m >= 0 && m < len(stats) {
			out[m] = stats[m]
		}
	}
	return out
}

func constVector(stats []numerics.StandardizedStats, grid []GridPoint) []float64 {
	vec := make([]float64, len(grid))
	for i, g := range grid {
		vec[i] = ComputeABF(stats, g.Phi2, g.Omega2)
	}
	return vec
}

// Assembled holds every configuration's grid-indexed unweighted ABF
// vector and log10-weighted-sum scalar for one (feature, SNP) pair.
type Assembled struct {
	// Labels lists the configuration labels in the deterministic order
	// they were computed, "const" first, so writers can emit rows in a
	// stable order matching spec.md 6.
	Labels    []string
	Unweighted map[string][]float64
	Weighted   map[string]float64
}

// Assemble computes the const / const.fix / const.maxh families always,
// plus whatever additional per-subgroup or per-subset configurations
// family requires, over the given grid.
func Assemble(stats []numerics.StandardizedStats, grid []GridPoint, numSubgroups int, family Family) Assembled {
	out := Assembled{
		Unweighted: make(map[string][]float64),
		Weighted:   make(map[string]float64),
	}

	add := func(label string, vec []float64) {
		out.Labels = append(out.Labels, label)
		out.Unweighted[label] = vec
		out.Weighted[label] = numerics.Log10WeightedSum(vec, nil)
	}

	add(constLabel, constVector(stats, grid))

	fixVec := make([]float64, len(grid))
	maxhVec := make([]float64, len(grid))
	for i, g := range grid {
		fixVec[i] = ComputeABF(stats, 0, g.Phi2+g.Omega2)
		maxhVec[i] = ComputeABF(stats, g.Phi2+g.Omega2, 0)
	}
	add(constFixLabel, fixVec)
	add(constMaxhLabel, maxhVec)

	var configs []configenum.Config
	switch family {
	case FamilyConst:
		// no additional configurations
	case FamilySubset:
		configs = configenum.Subset(numSubgroups)
	case FamilyAll:
		configs = configenum.All(numSubgroups)
	}

	for _, cfg := range configs {
		masked := MaskOut(stats, cfg.Members)
		add(cfg.Label, constVector(masked, grid))
	}

	return out
}

// MaxL10TrueAbf implements spec.md 4.2's per-feature summary: the
// maximum weighted ABF among the configurations the permutation-BF
// policy (pbf) considers. pbf must be a subset of the family Assemble
// was run with (spec.md 6's bfs/pbf constraint), so every label it
// names is guaranteed present in weighted.
func MaxL10TrueAbf(weighted map[string]float64, numSubgroups int, pbf Family) float64 {
	max := weighted[constLabel]
	consider := func(label string) {
		if v, ok := weighted[label]; ok && (math.IsNaN(max) || v > max) {
			if !math.IsNaN(v) {
				max = v
			}
		}
	}

	switch pbf {
	case FamilyConst:
		// const only, already seeded above
	case FamilySubset:
		for _, cfg := range configenum.Subset(numSubgroups) {
			consider(cfg.Label)
		}
	case FamilyAll:
		for _, cfg := range configenum.All(numSubgroups) {
			consider(cfg.Label)
		}
	}

	return max
}
