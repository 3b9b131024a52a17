package permute

import (
	"math"

	"github.com/ASBoldt/quantgen/internal/model"
	"github.com/ASBoldt/quantgen/internal/numerics"
)

// RunSeparate runs the per-subgroup permutation test of spec.md 4.6 for
// subgroup against every feature in ftrs that has at least one cis-SNP,
// updating each feature's PermPvalSep[subgroup] and
// NbPermsSoFar[subgroup] in place.
//
// The RNG streams are re-seeded once for the whole subgroup (not once
// per feature), so feature processing order must stay deterministic to
// reproduce results for a given seed (spec.md 5).
func RunSeparate(ftrs []*model.Ftr, snps []*model.Snp, alignment model.Alignment, subgroup int, seed int64, nperm int, trick Trick, onMilestone MilestoneFunc) {
	rngPerm, rngTrick := seedStreams(seed, int64(subgroup)+1)
	base := alignment.PhenoIdx[subgroup]

	for _, f := range ftrs {
		if len(f.CisSnps) == 0 {
			continue
		}

		minTrueP := math.Inf(1)
		for _, r := range f.PairResults {
			if r.N[subgroup] >= 2 && r.BetaPval[subgroup] < minTrueP {
				minTrueP = r.BetaPval[subgroup]
			}
		}

		counter := 1
		nbPerms := 0
		shuffleOnly := false

		for permID := 0; permID < nperm; permID++ {
			permIdx := ShuffleSampleIndex(base, rngPerm)
			if shuffleOnly {
				continue
			}
			nbPerms++

			minPermP := minPermPval(f, snps, alignment.GenoIdx, permIdx, subgroup)
			if minPermP <= minTrueP {
				counter++
			}

			if onMilestone != nil && nbPerms%milestoneInterval == 0 {
				onMilestone(f.Name, nbPerms, nperm)
			}

			if trick != TrickNone && counter == 11 {
				if trick == TrickStop {
					break
				}
				shuffleOnly = true
			}
		}

		f.NbPermsSoFar[subgroup] = nbPerms
		f.PermPvalSep[subgroup] = Calibrate(counter, nbPerms, nperm, rngTrick)
	}
}

// minPermPval computes the minimum OLS p-value over f's cis-SNPs for
// subgroup, using permIdx in place of the subgroup's real phenotype
// alignment and the unchanged genotype alignment.
func minPermPval(f *model.Ftr, snps []*model.Snp, genoIdx model.SampleIndex, permIdx model.SampleIndex, subgroup int) float64 {
	minP := math.Inf(1)
	for _, snpIdx := range f.CisSnps {
		snp := snps[snpIdx]
		colsPheno, colsGeno := model.AlignedPairs(permIdx, genoIdx, f.IsNA[subgroup], snp.IsNA)
		n := len(colsPheno)
		if n < 2 {
			continue
		}
		g := make([]float64, n)
		y := make([]float64, n)
		for k := range colsPheno {
			g[k] = snp.Genos[colsGeno[k]]
			y[k] = f.Phenos[subgroup][colsPheno[k]]
		}
		p := numerics.FitOLS(g, y).Pval
		if p < minP {
			minP = p
		}
	}
	return minP
}
