// Package cisscan locates the cis-SNPs of a feature: the SNPs on its
// chromosome that fall inside an anchor-relative window, per spec.md 4.4.
package cisscan

import (
	"sort"

	"github.com/ASBoldt/quantgen/internal/model"
)

// Anchor selects which end(s) of the feature the cis window is measured
// from.
type Anchor int

const (
	// FSS anchors the window at the feature start site only.
	FSS Anchor = iota
	// FSSFES anchors the window between the feature start and end sites.
	FSSFES
)

// ParseAnchor parses the CLI spelling of an anchor policy.
func ParseAnchor(s string) (Anchor, bool) {
	switch s {
	case "FSS":
		return FSS, true
	case "FSS+FES":
		return FSSFES, true
	default:
		return 0, false
	}
}

// ChromIndex maps a chromosome name to the indices (into a Catalogue's
// Snps slice) of its SNPs, sorted ascending by coordinate.
type ChromIndex map[string][]model.SnpIndex

// BuildChromIndex groups snps by chromosome and sorts each group by
// coordinate, so Scan can binary-search into it.
func BuildChromIndex(snps []*model.Snp) ChromIndex {
	idx := make(ChromIndex)
	for i, s := range snps {
		idx[s.Chr] = append(idx[s.Chr], model.SnpIndex(i))
	}
	for chr, ids := range idx {
		sort.Slice(ids, func(a, b int) bool {
			return snps[ids[a]].Coord < snps[ids[b]].Coord
		})
		idx[chr] = ids
	}
	return idx
}

// Scan returns the cis-SNPs of ftr under the given anchor policy and
// half-window halfWindow (bp), sorted by coordinate (spec.md 3 invariant
// a). It walks the chromosome's coordinate-sorted SNP list starting from
// the lowest in-window coordinate and stops as soon as a SNP's coordinate
// exceeds the upper bound, per spec.md 4.4's sorted early-exit.
func Scan(snps []*model.Snp, idx ChromIndex, ftr *model.Ftr, anchor Anchor, halfWindow int64) []model.SnpIndex {
	lo := ftr.Start - halfWindow
	if lo < 0 {
		lo = 0
	}

	var hi int64
	switch anchor {
	case FSS:
		hi = ftr.Start + halfWindow
	case FSSFES:
		hi = ftr.End + halfWindow
	}

	chromSnps := idx[ftr.Chr]
	if len(chromSnps) == 0 {
		return nil
	}

	start := sort.Search(len(chromSnps), func(i int) bool {
		return snps[chromSnps[i]].Coord >= lo
	})

	var out []model.SnpIndex
	for i := start; i < len(chromSnps); i++ {
		coord := snps[chromSnps[i]].Coord
		if coord > hi {
			break
		}
		out = append(out, chromSnps[i])
	}
	return out
}
