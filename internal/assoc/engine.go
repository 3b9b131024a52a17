// Package assoc drives the per-feature association scan: locate cis-SNPs,
// run the OLS/ABF kernel for each, and store the results on the feature,
// per spec.md 4.5.
package assoc

import (
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/ASBoldt/quantgen/internal/abf"
	"github.com/ASBoldt/quantgen/internal/cisscan"
	"github.com/ASBoldt/quantgen/internal/model"
	"github.com/ASBoldt/quantgen/internal/numerics"
)

// Options configures one association run.
type Options struct {
	Anchor       cisscan.Anchor
	HalfWindow   int64
	QuantileNorm bool
	Grid         []abf.GridPoint // nil/empty disables ABF computation
	Family       abf.Family      // bfs: which configurations to compute
	PermFamily   abf.Family      // pbf: which feed MaxL10TrueAbf

	// OnFeatureDone, if set, is called after each feature finishes
	// association (from whichever goroutine processed it), with its
	// cis-SNP count and wall-clock time spent. Optional progress hook.
	OnFeatureDone func(ftrName string, nbSnps int, elapsedSeconds float64)
}

// Engine holds the read-only inputs shared by every feature's task: the
// SNP catalogue, its chromosome index, and the sample alignment.
type Engine struct {
	Snps      []*model.Snp
	ChromIdx  cisscan.ChromIndex
	Alignment model.Alignment
	Opts      Options
}

// NewEngine builds an Engine over a catalogue's SNPs.
func NewEngine(snps []*model.Snp, alignment model.Alignment, opts Options) *Engine {
	return &Engine{
		Snps:      snps,
		ChromIdx:  cisscan.BuildChromIndex(snps),
		Alignment: alignment,
		Opts:      opts,
	}
}

// ScanCisSnps locates ftr's cis-SNPs and records them on the feature,
// without running the OLS/ABF kernel. Associate calls this itself, but
// callers that need the cis-SNP set before deciding whether to run the
// kernel (e.g. to check a resume store) can call it directly first;
// Associate re-scanning afterwards is idempotent.
func (e *Engine) ScanCisSnps(ftr *model.Ftr) {
	ftr.CisSnps = cisscan.Scan(e.Snps, e.ChromIdx, ftr, e.Opts.Anchor, e.Opts.HalfWindow)
}

// Associate runs the full scan for a single feature: cis-SNP lookup, then
// the kernel for every cis-SNP, in cis-SNP coordinate order (spec.md 4.5
// - ordering within a feature's results follows the cis-SNP order).
func (e *Engine) Associate(ftr *model.Ftr) {
	e.ScanCisSnps(ftr)
	if len(ftr.CisSnps) == 0 {
		return
	}

	numSubgroups := len(ftr.Phenos)
	ftr.PairResults = make([]*model.ResFtrSnp, len(ftr.CisSnps))
	ftr.MaxL10TrueAbf = math.Inf(-1)

	for i, snpIdx := range ftr.CisSnps {
		snp := e.Snps[snpIdx]
		r := e.associatePair(ftr, snp, snpIdx, numSubgroups)
		ftr.PairResults[i] = r

		if len(e.Opts.Grid) > 0 {
			m := abf.MaxL10TrueAbf(r.WeightedAbfs, numSubgroups, e.Opts.PermFamily)
			if m > ftr.MaxL10TrueAbf {
				ftr.MaxL10TrueAbf = m
			}
		}
	}
}

func (e *Engine) associatePair(ftr *model.Ftr, snp *model.Snp, snpIdx model.SnpIndex, numSubgroups int) *model.ResFtrSnp {
	r := model.NewResFtrSnp(snpIdx, snp.Name, numSubgroups)

	for s := 0; s < numSubgroups; s++ {
		if len(ftr.Phenos[s]) == 0 {
			continue
		}

		colsPheno, colsGeno := model.AlignedPairs(e.Alignment.PhenoIdx[s], e.Alignment.GenoIdx, ftr.IsNA[s], snp.IsNA)
		n := len(colsPheno)
		r.N[s] = n
		if n < 2 {
			continue
		}

		g := make([]float64, n)
		y := make([]float64, n)
		for k := range colsPheno {
			g[k] = snp.Genos[colsGeno[k]]
			y[k] = ftr.Phenos[s][colsPheno[k]]
		}
		if e.Opts.QuantileNorm {
			numerics.QuantileNormalize(y)
		}

		res := numerics.FitOLS(g, y)
		r.Betahat[s] = res.Betahat
		r.Sebetahat[s] = res.Sebetahat
		r.Sigmahat[s] = res.Sigmahat
		r.BetaPval[s] = res.Pval
		r.PVE[s] = res.PVE

		if len(e.Opts.Grid) > 0 {
			r.StdSstatsCorr[s] = numerics.Standardize(res.Betahat, res.Sebetahat, res.Sigmahat, n)
		}
	}

	if len(e.Opts.Grid) > 0 {
		assembled := abf.Assemble(r.StdSstatsCorr, e.Opts.Grid, numSubgroups, e.Opts.Family)
		r.UnweightedAbfs = assembled.Unweighted
		r.WeightedAbfs = assembled.Weighted
	}

	return r
}

// RunAll associates every feature in ftrs sequentially, in slice order.
// This is the deterministic path invariants and reproducibility tests
// rely on.
func (e *Engine) RunAll(ftrs []*model.Ftr) {
	for _, f := range ftrs {
		start := time.Now()
		e.Associate(f)
		e.reportDone(f, start)
	}
}

func (e *Engine) reportDone(f *model.Ftr, start time.Time) {
	if e.Opts.OnFeatureDone != nil {
		e.Opts.OnFeatureDone(f.Name, len(f.CisSnps), time.Since(start).Seconds())
	}
}

// RunAllParallel associates every feature using a pool of workers.
// Features are embarrassingly parallel (spec.md 4.5/5): each task reads
// only shared, read-only catalogue/alignment state and writes only its
// own feature's fields. If workers<=0, runtime.NumCPU() is used.
func (e *Engine) RunAllParallel(ftrs []*model.Ftr, workers int) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	work := make(chan *model.Ftr, 2*workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for f := range work {
				start := time.Now()
				e.Associate(f)
				e.reportDone(f, start)
			}
		}()
	}

	for _, f := range ftrs {
		work <- f
	}
	close(work)
	wg.Wait()
}
