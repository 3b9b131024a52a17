// Package numerics implements the per-pair statistical kernel: ordinary
// least squares on paired samples, small-sample standardization, and the
// log10-domain weighted sum used to average Bayes factors over a grid.
package numerics

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// OLSResult holds the summary statistics of a simple linear regression
// y = mu + beta*g fit on n paired, non-missing observations.
type OLSResult struct {
	N        int
	Betahat  float64
	Sebetahat float64
	Sigmahat float64
	Pval     float64
	PVE      float64 // R^2
}

// FitOLS computes the summary statistics described in spec.md 4.1 for the
// paired vectors g (genotype dosage) and y (phenotype), both already
// restricted to the samples that are non-missing in both.
//
// Callers must pass len(g) == len(y) >= 2; FitOLS panics otherwise since
// the cis-scan / association engine never invokes it on shorter pairs
// (subgroups with n<2 are short-circuited before reaching here).
func FitOLS(g, y []float64) OLSResult {
	n := len(g)
	if n != len(y) || n < 2 {
		panic("numerics: FitOLS requires len(g) == len(y) >= 2")
	}

	var sumG, sumY, sumG2, sumY2, sumGY float64
	for i := 0; i < n; i++ {
		sumG += g[i]
		sumY += y[i]
		sumG2 += g[i] * g[i]
		sumY2 += y[i] * y[i]
		sumGY += g[i] * y[i]
	}
	nf := float64(n)
	gbar := sumG / nf
	ybar := sumY / nf
	varG := sumG2 - nf*gbar*gbar

	if varG <= 1e-8 {
		sigma := math.Sqrt((sumY2 - nf*ybar*ybar) / (nf - 2))
		return OLSResult{
			N:         n,
			Betahat:   0,
			Sebetahat: math.Inf(1),
			Sigmahat:  sigma,
			Pval:      1,
			PVE:       0,
		}
	}

	betahat := (sumGY - nf*gbar*ybar) / varG
	rss1 := sumY2 - (1/varG)*(nf*ybar*(sumG2*ybar-gbar*sumGY)-sumGY*(nf*gbar*ybar-sumGY))

	var sigmahat float64
	if math.Abs(betahat) > 1e-8 {
		sigmahat = math.Sqrt(rss1 / (nf - 2))
	} else {
		sigmahat = math.Sqrt((sumY2 - nf*ybar*ybar) / (nf - 2))
	}

	sebetahat := sigmahat / math.Sqrt(varG)
	muhat := (ybar*sumG2 - gbar*sumGY) / varG

	var mss float64
	for i := 0; i < n; i++ {
		d := muhat + betahat*g[i] - ybar
		mss += d * d
	}

	fstat := mss / (sigmahat * sigmahat)
	pval := fUpperTail(fstat, 1, nf-2)
	pve := mss / (mss + rss1)

	return OLSResult{
		N:         n,
		Betahat:   betahat,
		Sebetahat: sebetahat,
		Sigmahat:  sigmahat,
		Pval:      pval,
		PVE:       pve,
	}
}

// fUpperTail returns P(X >= x) for X ~ F(d1, d2), clamped to [0,1].
func fUpperTail(x, d1, d2 float64) float64 {
	if math.IsNaN(x) || d2 <= 0 {
		return 1
	}
	if math.IsInf(x, 1) {
		return 0
	}
	if x <= 0 {
		return 1
	}
	f := distuv.F{D1: d1, D2: d2}
	p := 1 - f.CDF(x)
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return p
}

var stdNormal = distuv.Normal{Mu: 0, Sigma: 1}

// StandardizedStats is the (bhat, sebhat, t) triple of spec.md 4.1,
// used directly by the ABF kernel.
type StandardizedStats struct {
	B  float64
	Se float64
	T  float64
}

// Standardize applies the small-sample standardization of spec.md 4.1 to
// a subgroup's raw OLS output. n is the subgroup's non-missing sample
// count; callers must emit the zero triple themselves for n<=1 (this
// function is never called in that case by the association engine, but
// it mirrors the n<=1 sentinel for direct callers such as tests).
func Standardize(beta, se, sigma float64, n int) StandardizedStats {
	if n <= 1 {
		return StandardizedStats{}
	}

	b := beta / sigma
	seB := se / sigma

	ratio := b / seB
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 2)}
	p := tDist.CDF(-math.Abs(ratio))
	t := stdNormal.Quantile(p)

	if math.Abs(t) <= 1e-8 {
		return StandardizedStats{B: 0, Se: math.Inf(1), T: 0}
	}

	sigmaTilde := math.Abs(beta) / (math.Abs(t) * seB)
	bFinal := beta / sigmaTilde
	seBFinal := bFinal / t

	return StandardizedStats{B: bFinal, Se: seBFinal, T: t}
}
