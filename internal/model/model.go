package model

import (
	"math"

	"github.com/ASBoldt/quantgen/internal/numerics"
)

// SnpIndex is a stable index into a Catalogue's Snps slice. Features
// reference cis-SNPs by index rather than pointer so the catalogue can
// be built once as an arena (spec.md 9, "replace cyclic references with
// arena + stable index").
type SnpIndex int

// Snp is a single variant: its genotype dosages (single shared source,
// spec.md 9's single-genotype-file assumption) and per-subgroup MAF.
type Snp struct {
	Name       string
	Chr        string
	Coord      int64 // 1-based
	Genos      []float64
	IsNA       []bool
	MAF        []float64 // per subgroup
}

// Dose converts an IMPUTE genotype-probability triple (pAA, pAB, pBB)
// into a dosage, per spec.md 3. A triple of all zeros is missing.
func Dose(pAA, pAB, pBB float64) (dose float64, isNA bool) {
	if pAA == 0 && pAB == 0 && pBB == 0 {
		return 0, true
	}
	return pAB + 2*pBB, false
}

// ResFtrSnp is the per-(feature,snp) result of spec.md 3.
type ResFtrSnp struct {
	SnpIdx  SnpIndex
	SnpName string

	N             []int
	Betahat       []float64
	Sebetahat     []float64
	Sigmahat      []float64
	BetaPval      []float64
	PVE           []float64
	StdSstatsCorr []numerics.StandardizedStats

	// UnweightedAbfs[label] is the grid-indexed vector of log10 ABFs for
	// that configuration; WeightedAbfs[label] is its log10-weighted-sum.
	UnweightedAbfs map[string][]float64
	WeightedAbfs   map[string]float64
}

// NewResFtrSnp allocates a result row with per-subgroup slices sized for
// numSubgroups subgroups, all initialized to degenerate sentinels: n=0,
// betahat 0, sebetahat and sigmahat +Inf, p-value 1, PVE 0, and the zero
// standardized triple.
func NewResFtrSnp(idx SnpIndex, snpName string, numSubgroups int) *ResFtrSnp {
	r := &ResFtrSnp{
		SnpIdx:         idx,
		SnpName:        snpName,
		N:              make([]int, numSubgroups),
		Betahat:        make([]float64, numSubgroups),
		Sebetahat:      make([]float64, numSubgroups),
		Sigmahat:       make([]float64, numSubgroups),
		BetaPval:       make([]float64, numSubgroups),
		PVE:            make([]float64, numSubgroups),
		StdSstatsCorr:  make([]numerics.StandardizedStats, numSubgroups),
		UnweightedAbfs: make(map[string][]float64),
		WeightedAbfs:   make(map[string]float64),
	}
	for s := 0; s < numSubgroups; s++ {
		r.Betahat[s] = 0
		r.Sebetahat[s] = math.Inf(1)
		r.Sigmahat[s] = math.Inf(1)
		r.BetaPval[s] = 1
		r.PVE[s] = 0
	}
	return r
}

// Ftr is a molecular-phenotype feature: its coordinate, per-subgroup
// phenotype vectors, the cis-SNPs located for it, and the accumulated
// per-pair results and permutation bookkeeping.
type Ftr struct {
	Name  string
	Chr   string
	Start int64 // 1-based, inclusive
	End   int64 // 1-based, inclusive

	Phenos [][]float64 // Phenos[s][j]
	IsNA   [][]bool    // IsNA[s][j]

	CisSnps     []SnpIndex
	PairResults []*ResFtrSnp

	PermPvalSep      []float64 // per subgroup
	NbPermsSoFar     []int     // per subgroup

	JointPermPval     float64
	NbPermsSoFarJoint int

	MaxL10TrueAbf float64
}

// NewFtr allocates a feature with permutation bookkeeping sized for
// numSubgroups subgroups, per spec.md 3's invariant that counters start
// at their spec-mandated initial values.
func NewFtr(name, chr string, start, end int64, numSubgroups int) *Ftr {
	f := &Ftr{
		Name:         name,
		Chr:          chr,
		Start:        start,
		End:          end,
		PermPvalSep:  make([]float64, numSubgroups),
		NbPermsSoFar: make([]int, numSubgroups),
	}
	for s := range f.PermPvalSep {
		f.PermPvalSep[s] = 1
	}
	f.JointPermPval = 1
	return f
}

// Catalogue is the global, immutable-after-build store of SNPs and
// features that loaders populate once (spec.md 3's lifecycle note).
type Catalogue struct {
	Snps []*Snp
	Ftrs []*Ftr
}
