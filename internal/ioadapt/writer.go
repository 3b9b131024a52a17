package ioadapt

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ASBoldt/quantgen/internal/model"
)

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "NA"
	}
	return strconv.FormatFloat(v, 'g', 6, 64)
}

// SumstatsWriter writes "<prefix>_sumstats_<subgroup>.txt.gz": one row
// per (feature, cis-SNP) pair for a single subgroup, per spec.md 6.
type SumstatsWriter struct{ w *gzipWriter }

func NewSumstatsWriter(path string) (*SumstatsWriter, error) {
	w, err := createGzipWriter(path)
	if err != nil {
		return nil, err
	}
	return &SumstatsWriter{w: w}, nil
}

func (sw *SumstatsWriter) WriteHeader() error {
	return sw.w.WriteString("ftr\tsnp\tmaf\tn\tbetahat\tsebetahat\tsigmahat\tbetaPval\tpve\n")
}

func (sw *SumstatsWriter) WriteRow(ftrName string, snp *model.Snp, r *model.ResFtrSnp, subgroup int) error {
	row := strings.Join([]string{
		ftrName,
		r.SnpName,
		formatFloat(snp.MAF[subgroup]),
		strconv.Itoa(r.N[subgroup]),
		formatFloat(r.Betahat[subgroup]),
		formatFloat(r.Sebetahat[subgroup]),
		formatFloat(r.Sigmahat[subgroup]),
		formatFloat(r.BetaPval[subgroup]),
		formatFloat(r.PVE[subgroup]),
	}, "\t") + "\n"
	return sw.w.WriteString(row)
}

func (sw *SumstatsWriter) Close() error { return sw.w.Close() }

// PermPvalWriter writes "<prefix>_permPval_<subgroup>.txt.gz".
type PermPvalWriter struct{ w *gzipWriter }

func NewPermPvalWriter(path string) (*PermPvalWriter, error) {
	w, err := createGzipWriter(path)
	if err != nil {
		return nil, err
	}
	return &PermPvalWriter{w: w}, nil
}

func (pw *PermPvalWriter) WriteHeader() error {
	return pw.w.WriteString("ftr\tnbSnps\tpermPval\tnbPerms\n")
}

func (pw *PermPvalWriter) WriteRow(f *model.Ftr, subgroup int) error {
	row := fmt.Sprintf("%s\t%d\t%s\t%d\n",
		f.Name, len(f.CisSnps), formatFloat(f.PermPvalSep[subgroup]), f.NbPermsSoFar[subgroup])
	return pw.w.WriteString(row)
}

func (pw *PermPvalWriter) Close() error { return pw.w.Close() }

// AbfsUnweightedWriter writes "<prefix>_abfs_unweighted.txt.gz": one row
// per (ftr, snp, config), "const" first then the selector's additional
// configs in enumerator order (spec.md 6).
type AbfsUnweightedWriter struct {
	w        *gzipWriter
	gridSize int
}

func NewAbfsUnweightedWriter(path string, gridSize int) (*AbfsUnweightedWriter, error) {
	w, err := createGzipWriter(path)
	if err != nil {
		return nil, err
	}
	return &AbfsUnweightedWriter{w: w, gridSize: gridSize}, nil
}

func (aw *AbfsUnweightedWriter) WriteHeader() error {
	var cols []string
	for i := 1; i <= aw.gridSize; i++ {
		cols = append(cols, fmt.Sprintf("ABFgrid%d", i))
	}
	return aw.w.WriteString("ftr\tsnp\tconfig\t" + strings.Join(cols, "\t") + "\n")
}

func (aw *AbfsUnweightedWriter) WriteRow(ftrName, snpName, config string, vals []float64) error {
	formatted := make([]string, len(vals))
	for i, v := range vals {
		formatted[i] = formatFloat(v)
	}
	row := ftrName + "\t" + snpName + "\t" + config + "\t" + strings.Join(formatted, "\t") + "\n"
	return aw.w.WriteString(row)
}

func (aw *AbfsUnweightedWriter) Close() error { return aw.w.Close() }

// AbfsWeightedWriter writes "<prefix>_abfs_weighted.txt.gz".
type AbfsWeightedWriter struct {
	w           *gzipWriter
	extraLabels []string
}

// NewAbfsWeightedWriter takes the additional (beyond const/const.fix/
// const.maxh) configuration labels in enumerator order, so the header
// and every row line up.
func NewAbfsWeightedWriter(path string, extraLabels []string) (*AbfsWeightedWriter, error) {
	w, err := createGzipWriter(path)
	if err != nil {
		return nil, err
	}
	return &AbfsWeightedWriter{w: w, extraLabels: extraLabels}, nil
}

func (aw *AbfsWeightedWriter) WriteHeader() error {
	cols := []string{"ftr", "snp", "nb.subgroups", "nb.samples", "abf.const", "abf.const.fix", "abf.const.maxh"}
	for _, l := range aw.extraLabels {
		cols = append(cols, "abf."+l)
	}
	return aw.w.WriteString(strings.Join(cols, "\t") + "\n")
}

func (aw *AbfsWeightedWriter) WriteRow(ftrName string, r *model.ResFtrSnp, nbSubgroups int) error {
	nbSamples := 0
	for _, n := range r.N {
		nbSamples += n
	}

	row := []string{
		ftrName,
		r.SnpName,
		strconv.Itoa(nbSubgroups),
		strconv.Itoa(nbSamples),
		formatFloat(r.WeightedAbfs["const"]),
		formatFloat(r.WeightedAbfs["const.fix"]),
		formatFloat(r.WeightedAbfs["const.maxh"]),
	}
	for _, l := range aw.extraLabels {
		row = append(row, formatFloat(r.WeightedAbfs[l]))
	}
	return aw.w.WriteString(strings.Join(row, "\t") + "\n")
}

func (aw *AbfsWeightedWriter) Close() error { return aw.w.Close() }

// JointPermPvalsWriter writes "<prefix>_jointPermPvals.txt.gz".
type JointPermPvalsWriter struct{ w *gzipWriter }

func NewJointPermPvalsWriter(path string) (*JointPermPvalsWriter, error) {
	w, err := createGzipWriter(path)
	if err != nil {
		return nil, err
	}
	return &JointPermPvalsWriter{w: w}, nil
}

func (jw *JointPermPvalsWriter) WriteHeader() error {
	return jw.w.WriteString("ftr\tnbSnps\tjointPermPval\tnbPerms\tmaxL10TrueAbf\n")
}

func (jw *JointPermPvalsWriter) WriteRow(f *model.Ftr) error {
	row := fmt.Sprintf("%s\t%d\t%s\t%d\t%s\n",
		f.Name, len(f.CisSnps), formatFloat(f.JointPermPval), f.NbPermsSoFarJoint, formatFloat(f.MaxL10TrueAbf))
	return jw.w.WriteString(row)
}

func (jw *JointPermPvalsWriter) Close() error { return jw.w.Close() }
