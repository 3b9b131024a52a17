package permute

import (
	"math"

	"github.com/ASBoldt/quantgen/internal/abf"
	"github.com/ASBoldt/quantgen/internal/model"
	"github.com/ASBoldt/quantgen/internal/numerics"
)

// JointOptions configures the joint permutation engine's ABF recomputation.
type JointOptions struct {
	Grid       []abf.GridPoint
	PermFamily abf.Family // whichPermBf

	// OnMilestone, if set, is called periodically during each feature's
	// permutation loop to report progress.
	OnMilestone MilestoneFunc
}

// RunJoint runs the joint permutation test of spec.md 4.6 over every
// feature in ftrs with at least one cis-SNP, updating JointPermPval and
// NbPermsSoFarJoint in place. The RNG streams are seeded once for the
// entire joint run.
func RunJoint(ftrs []*model.Ftr, snps []*model.Snp, alignment model.Alignment, numSubgroups int, seed int64, nperm int, trick Trick, opts JointOptions) {
	rngPerm, rngTrick := seedStreams(seed, 0)

	for _, f := range ftrs {
		if len(f.CisSnps) == 0 {
			continue
		}

		counter := 1
		nbPerms := 0
		shuffleOnly := false

		for permID := 0; permID < nperm; permID++ {
			permIdx := make([]model.SampleIndex, numSubgroups)
			for s := 0; s < numSubgroups; s++ {
				permIdx[s] = ShuffleSampleIndex(alignment.PhenoIdx[s], rngPerm)
			}
			if shuffleOnly {
				continue
			}
			nbPerms++

			maxPermAbf := maxJointAbf(f, snps, alignment.GenoIdx, permIdx, numSubgroups, opts)
			if maxPermAbf >= f.MaxL10TrueAbf {
				counter++
			}

			if opts.OnMilestone != nil && nbPerms%milestoneInterval == 0 {
				opts.OnMilestone(f.Name, nbPerms, nperm)
			}

			if trick != TrickNone && counter == 11 {
				if trick == TrickStop {
					break
				}
				shuffleOnly = true
			}
		}

		f.NbPermsSoFarJoint = nbPerms
		f.JointPermPval = Calibrate(counter, nbPerms, nperm, rngTrick)
	}
}

func maxJointAbf(f *model.Ftr, snps []*model.Snp, genoIdx model.SampleIndex, permIdx []model.SampleIndex, numSubgroups int, opts JointOptions) float64 {
	maxAbf := math.Inf(-1)

	for _, snpIdx := range f.CisSnps {
		snp := snps[snpIdx]
		stats := make([]numerics.StandardizedStats, numSubgroups)

		for s := 0; s < numSubgroups; s++ {
			if len(f.Phenos[s]) == 0 {
				continue
			}
			colsPheno, colsGeno := model.AlignedPairs(permIdx[s], genoIdx, f.IsNA[s], snp.IsNA)
			n := len(colsPheno)
			if n < 2 {
				continue
			}
			g := make([]float64, n)
			y := make([]float64, n)
			for k := range colsPheno {
				g[k] = snp.Genos[colsGeno[k]]
				y[k] = f.Phenos[s][colsPheno[k]]
			}
			res := numerics.FitOLS(g, y)
			stats[s] = numerics.Standardize(res.Betahat, res.Sebetahat, res.Sigmahat, n)
		}

		assembled := abf.Assemble(stats, opts.Grid, numSubgroups, opts.PermFamily)
		m := abf.MaxL10TrueAbf(assembled.Weighted, numSubgroups, opts.PermFamily)
		if m > maxAbf {
			maxAbf = m
		}
	}

	return maxAbf
}
