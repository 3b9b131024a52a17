package main

import (
	"math"

	"github.com/ASBoldt/quantgen/internal/abf"
	"github.com/ASBoldt/quantgen/internal/model"
	"github.com/ASBoldt/quantgen/internal/numerics"
	"github.com/ASBoldt/quantgen/internal/quantlog"
	"github.com/ASBoldt/quantgen/internal/resumestore"
)

// tryResumeFeature rebuilds f.PairResults (and, when grid is non-empty,
// f.MaxL10TrueAbf) from a resume store's cached summary statistics,
// skipping the per-sample FitOLS call entirely. It reports false -- and
// leaves f untouched -- if any subgroup or any of f's cis-SNPs is
// missing from the store, so the caller falls back to recomputing f
// from scratch. f.CisSnps must already be populated (via
// Engine.ScanCisSnps) before calling this.
func tryResumeFeature(f *model.Ftr, snps []*model.Snp, store *resumestore.Store, numSubgroups int, grid []abf.GridPoint, family, permFamily abf.Family) (bool, error) {
	bySubgroup := make([]map[string]resumestore.AssocResultRow, numSubgroups)
	for s := 0; s < numSubgroups; s++ {
		rows, err := store.LoadAssocResults(f.Name, s)
		if err != nil {
			return false, err
		}
		if len(rows) == 0 {
			return false, nil
		}
		bySubgroup[s] = rows
	}

	pairs := make([]*model.ResFtrSnp, len(f.CisSnps))
	maxAbf := math.Inf(-1)

	for i, snpIdx := range f.CisSnps {
		snpName := snps[snpIdx].Name
		r := model.NewResFtrSnp(snpIdx, snpName, numSubgroups)

		for s := 0; s < numSubgroups; s++ {
			row, ok := bySubgroup[s][snpName]
			if !ok {
				return false, nil
			}
			r.N[s] = row.N
			r.Betahat[s] = row.Betahat
			r.Sebetahat[s] = row.Sebetahat
			r.Sigmahat[s] = row.Sigmahat
			r.BetaPval[s] = row.BetaPval
			r.PVE[s] = row.PVE

			if len(grid) > 0 {
				r.StdSstatsCorr[s] = numerics.Standardize(row.Betahat, row.Sebetahat, row.Sigmahat, row.N)
			}
		}

		if len(grid) > 0 {
			assembled := abf.Assemble(r.StdSstatsCorr, grid, numSubgroups, family)
			r.UnweightedAbfs = assembled.Unweighted
			r.WeightedAbfs = assembled.Weighted
			if m := abf.MaxL10TrueAbf(r.WeightedAbfs, numSubgroups, permFamily); m > maxAbf {
				maxAbf = m
			}
		}

		pairs[i] = r
	}

	f.PairResults = pairs
	if len(grid) > 0 {
		f.MaxL10TrueAbf = maxAbf
	}
	return true, nil
}

// resumePermCounters seeds PermPvalSep/NbPermsSoFar for subgroup from
// the store for every feature whose saved counter already reached
// nperm, returning the features still needing permutation. Features
// with no cis-SNP keep their NewFtr sentinels and are never persisted
// or resumed.
func resumePermCounters(ftrs []*model.Ftr, store *resumestore.Store, subgroup, nperm int, log *quantlog.Logger) ([]*model.Ftr, error) {
	toCompute := make([]*model.Ftr, 0, len(ftrs))
	resumed := 0
	for _, f := range ftrs {
		if len(f.CisSnps) == 0 {
			continue
		}
		nb, pval, ok, err := store.LoadPermCounter(f.Name, subgroup)
		if err != nil {
			return nil, err
		}
		if ok && nb >= nperm {
			f.NbPermsSoFar[subgroup] = nb
			f.PermPvalSep[subgroup] = pval
			resumed++
			continue
		}
		toCompute = append(toCompute, f)
	}
	if resumed > 0 {
		log.Infof("resumed %d features already permuted for subgroup %d", resumed, subgroup)
	}
	return toCompute, nil
}

// resumeJointCounters is resumePermCounters's joint-mode counterpart.
func resumeJointCounters(ftrs []*model.Ftr, store *resumestore.Store, nperm int, log *quantlog.Logger) ([]*model.Ftr, error) {
	toCompute := make([]*model.Ftr, 0, len(ftrs))
	resumed := 0
	for _, f := range ftrs {
		if len(f.CisSnps) == 0 {
			continue
		}
		nb, jointPval, maxAbf, ok, err := store.LoadJointPermCounter(f.Name)
		if err != nil {
			return nil, err
		}
		if ok && nb >= nperm {
			f.NbPermsSoFarJoint = nb
			f.JointPermPval = jointPval
			f.MaxL10TrueAbf = maxAbf
			resumed++
			continue
		}
		toCompute = append(toCompute, f)
	}
	if resumed > 0 {
		log.Infof("resumed %d features already permuted (joint mode)", resumed)
	}
	return toCompute, nil
}
