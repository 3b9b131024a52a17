package ioadapt

import (
	"bufio"
	"compress/gzip"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ASBoldt/quantgen/internal/model"
)

func readGzipLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("gzip.NewReader: %v", err)
	}
	defer gz.Close()

	var lines []string
	sc := bufio.NewScanner(gz)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	return lines
}

func TestFormatFloat_NaNBecomesNA(t *testing.T) {
	if got := formatFloat(math.NaN()); got != "NA" {
		t.Errorf("formatFloat(NaN) = %q, want NA", got)
	}
}

func TestFormatFloat_FiniteValue(t *testing.T) {
	if got := formatFloat(1.5); got != "1.5" {
		t.Errorf("formatFloat(1.5) = %q, want 1.5", got)
	}
}

func TestLoadAllowList_EmptyPathMeansNoFilter(t *testing.T) {
	set, err := LoadAllowList("")
	if err != nil {
		t.Fatalf("LoadAllowList(\"\") error: %v", err)
	}
	if set != nil {
		t.Errorf("LoadAllowList(\"\") = %v, want nil", set)
	}
}

func TestLoadAllowList_ParsesLinesSkippingCommentsAndBlanks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "allow.txt")
	content := "ftr1\n# a comment\n\nftr2\n  \nftr3\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	set, err := LoadAllowList(path)
	if err != nil {
		t.Fatalf("LoadAllowList error: %v", err)
	}
	want := []string{"ftr1", "ftr2", "ftr3"}
	if len(set) != len(want) {
		t.Fatalf("LoadAllowList = %v, want keys %v", set, want)
	}
	for _, id := range want {
		if !set[id] {
			t.Errorf("LoadAllowList missing id %q", id)
		}
	}
}

func TestLoadAllowList_TransparentGzip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "allow.txt.gz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	gz := gzip.NewWriter(f)
	gz.Write([]byte("ftrA\nftrB\n"))
	gz.Close()
	f.Close()

	set, err := LoadAllowList(path)
	if err != nil {
		t.Fatalf("LoadAllowList(gzip) error: %v", err)
	}
	if !set["ftrA"] || !set["ftrB"] {
		t.Errorf("LoadAllowList(gzip) = %v, want ftrA and ftrB", set)
	}
}

func TestLoadGrid_ParsesTwoColumnRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grid.txt")
	content := "0.04 0.16\n# comment\n0.01\t0.04\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	grid, err := LoadGrid(path)
	if err != nil {
		t.Fatalf("LoadGrid error: %v", err)
	}
	if len(grid) != 2 {
		t.Fatalf("LoadGrid produced %d points, want 2", len(grid))
	}
	if grid[0].Phi2 != 0.04 || grid[0].Omega2 != 0.16 {
		t.Errorf("grid[0] = %+v, want {0.04 0.16}", grid[0])
	}
	if grid[1].Phi2 != 0.01 || grid[1].Omega2 != 0.04 {
		t.Errorf("grid[1] = %+v, want {0.01 0.04}", grid[1])
	}
}

func TestLoadGrid_RejectsWrongColumnCount(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grid.txt")
	os.WriteFile(path, []byte("0.04 0.16 0.5\n"), 0o644)

	_, err := LoadGrid(path)
	if err == nil {
		t.Fatal("LoadGrid with 3 columns: want error, got nil")
	}
	if _, ok := err.(*ParseError); !ok {
		t.Errorf("LoadGrid error = %v (%T), want *ParseError", err, err)
	}
}

func TestLoadGrid_RejectsEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grid.txt")
	os.WriteFile(path, []byte("# only comments\n"), 0o644)

	_, err := LoadGrid(path)
	if err == nil {
		t.Fatal("LoadGrid on empty grid: want error, got nil")
	}
}

func TestSumstatsWriter_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sumstats_1.txt.gz")

	w, err := NewSumstatsWriter(path)
	if err != nil {
		t.Fatalf("NewSumstatsWriter: %v", err)
	}
	if err := w.WriteHeader(); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}

	snp := &model.Snp{Name: "rs1", MAF: []float64{0.25}}
	r := model.NewResFtrSnp(0, "rs1", 1)
	r.N[0] = 10
	r.Betahat[0] = 0.5

	if err := w.WriteRow("ftr1", snp, r, 0); err != nil {
		t.Fatalf("WriteRow: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	lines := readGzipLines(t, path)
	if len(lines) != 2 {
		t.Fatalf("wrote %d lines, want 2 (header + 1 row)", len(lines))
	}
	if lines[0] != "ftr\tsnp\tmaf\tn\tbetahat\tsebetahat\tsigmahat\tbetaPval\tpve" {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "ftr1\trs1\t0.25\t10\t0.5\t") {
		t.Errorf("row = %q, want prefix ftr1/rs1/0.25/10/0.5", lines[1])
	}
}

func TestAbfsUnweightedWriter_HeaderMatchesGridSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "abfs_unweighted.txt.gz")

	w, err := NewAbfsUnweightedWriter(path, 3)
	if err != nil {
		t.Fatalf("NewAbfsUnweightedWriter: %v", err)
	}
	if err := w.WriteHeader(); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
	if err := w.WriteRow("ftr1", "rs1", "const", []float64{1, 2, 3}); err != nil {
		t.Fatalf("WriteRow: %v", err)
	}
	w.Close()

	lines := readGzipLines(t, path)
	wantHeader := "ftr\tsnp\tconfig\tABFgrid1\tABFgrid2\tABFgrid3"
	if lines[0] != wantHeader {
		t.Errorf("header = %q, want %q", lines[0], wantHeader)
	}
	if lines[1] != "ftr1\trs1\tconst\t1\t2\t3" {
		t.Errorf("row = %q", lines[1])
	}
}

func TestAbfsWeightedWriter_HeaderIncludesExtraLabelsAndFixedCols(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "abfs_weighted.txt.gz")

	w, err := NewAbfsWeightedWriter(path, []string{"1", "2"})
	if err != nil {
		t.Fatalf("NewAbfsWeightedWriter: %v", err)
	}
	if err := w.WriteHeader(); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}

	r := model.NewResFtrSnp(0, "rs1", 2)
	r.N = []int{5, 5}
	r.WeightedAbfs = map[string]float64{
		"const": 1.0, "const.fix": 0.5, "const.maxh": 0.25, "1": 2.0, "2": 3.0,
	}
	if err := w.WriteRow("ftr1", r, 2); err != nil {
		t.Fatalf("WriteRow: %v", err)
	}
	w.Close()

	lines := readGzipLines(t, path)
	wantHeader := "ftr\tsnp\tnb.subgroups\tnb.samples\tabf.const\tabf.const.fix\tabf.const.maxh\tabf.1\tabf.2"
	if lines[0] != wantHeader {
		t.Errorf("header = %q, want %q", lines[0], wantHeader)
	}
	wantRow := "ftr1\trs1\t2\t10\t1\t0.5\t0.25\t2\t3"
	if lines[1] != wantRow {
		t.Errorf("row = %q, want %q", lines[1], wantRow)
	}
}

func TestJointPermPvalsWriter_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jointPermPvals.txt.gz")

	w, err := NewJointPermPvalsWriter(path)
	if err != nil {
		t.Fatalf("NewJointPermPvalsWriter: %v", err)
	}
	w.WriteHeader()

	f := model.NewFtr("ftr1", "1", 100, 200, 2)
	f.CisSnps = []model.SnpIndex{0, 1}
	f.JointPermPval = 0.03
	f.NbPermsSoFarJoint = 500
	f.MaxL10TrueAbf = 4.2

	if err := w.WriteRow(f); err != nil {
		t.Fatalf("WriteRow: %v", err)
	}
	w.Close()

	lines := readGzipLines(t, path)
	if lines[1] != "ftr1\t2\t0.03\t500\t4.2" {
		t.Errorf("row = %q", lines[1])
	}
}

func TestPermPvalWriter_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "permPval_0.txt.gz")

	w, err := NewPermPvalWriter(path)
	if err != nil {
		t.Fatalf("NewPermPvalWriter: %v", err)
	}
	w.WriteHeader()

	f := model.NewFtr("ftr1", "1", 100, 200, 1)
	f.CisSnps = []model.SnpIndex{0}
	f.PermPvalSep[0] = 0.1
	f.NbPermsSoFar[0] = 1000

	if err := w.WriteRow(f, 0); err != nil {
		t.Fatalf("WriteRow: %v", err)
	}
	w.Close()

	lines := readGzipLines(t, path)
	if lines[1] != "ftr1\t1\t0.1\t1000" {
		t.Errorf("row = %q", lines[1])
	}
}
