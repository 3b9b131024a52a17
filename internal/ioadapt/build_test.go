package ioadapt

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ASBoldt/quantgen/internal/model"
)

func TestLoadGenotypeList_RejectsMultipleRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "genolist.txt")
	os.WriteFile(path, []byte("all geno1.txt\nall2 geno2.txt\n"), 0o644)

	_, err := LoadGenotypeList(path)
	if err == nil {
		t.Fatal("LoadGenotypeList with 2 rows: want error (single shared genotype source only)")
	}
}

func TestLoadGenotypeMatrix_ParsesDosagesAndStripsSampleSuffix(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "geno.txt")
	content := "chr name coord a1 a2 s1_a1a1 s1_a1a2 s1_a2a2 s2_a1a1 s2_a1a2 s2_a2a2\n" +
		"1 rs1 1000 A G 1 0 0 0 1 0\n" +
		"1 rs2 2000 A G 0 0 0 0 0 0\n"
	os.WriteFile(path, []byte(content), 0o644)

	snps, samples, err := LoadGenotypeMatrix(path)
	if err != nil {
		t.Fatalf("LoadGenotypeMatrix error: %v", err)
	}
	if len(samples) != 2 || samples[0] != "s1" || samples[1] != "s2" {
		t.Errorf("samples = %v, want [s1 s2]", samples)
	}
	if len(snps) != 2 {
		t.Fatalf("len(snps) = %d, want 2", len(snps))
	}
	if snps[0].Genos[0] != 0 || snps[0].IsNA[0] {
		t.Errorf("rs1 sample0 dose = %v isNA=%v, want 0 false", snps[0].Genos[0], snps[0].IsNA[0])
	}
	if snps[0].Genos[1] != 1 {
		t.Errorf("rs1 sample1 dose = %v, want 1", snps[0].Genos[1])
	}
	if !snps[1].IsNA[0] || !snps[1].IsNA[1] {
		t.Errorf("rs2 (all-zero triples) want both samples isNA, got %v", snps[1].IsNA)
	}
}

func TestLoadGenotypeMatrix_RejectsMalformedHeader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "geno.txt")
	os.WriteFile(path, []byte("chr name coord\n"), 0o644)

	_, _, err := LoadGenotypeMatrix(path)
	if err == nil {
		t.Fatal("LoadGenotypeMatrix with short header: want error")
	}
}

func TestLoadPhenotypeMatrix_StripsLeadingIdHeader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pheno.txt")
	content := "Id s1 s2 s3\nftrA 1.0 NA 3.0\n"
	os.WriteFile(path, []byte(content), 0o644)

	pm, err := LoadPhenotypeMatrix(path)
	if err != nil {
		t.Fatalf("LoadPhenotypeMatrix error: %v", err)
	}
	if len(pm.SampleNames) != 3 {
		t.Fatalf("SampleNames = %v, want 3 entries", pm.SampleNames)
	}
	if pm.Values["ftrA"][0] != 1.0 || pm.Values["ftrA"][2] != 3.0 {
		t.Errorf("ftrA values = %v, want [1 _ 3]", pm.Values["ftrA"])
	}
	if !pm.IsNA["ftrA"][1] {
		t.Errorf("ftrA sample2 not marked NA")
	}
}

func TestLoadFeatureCoords_ConvertsHalfOpenToInclusive(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "coords.bed")
	os.WriteFile(path, []byte("1\t999\t2000\tftrA\n"), 0o644)

	coords, err := LoadFeatureCoords(path)
	if err != nil {
		t.Fatalf("LoadFeatureCoords error: %v", err)
	}
	if len(coords) != 1 {
		t.Fatalf("len(coords) = %d, want 1", len(coords))
	}
	if coords[0].Start != 1000 {
		t.Errorf("Start = %d, want 1000 (0-based 999 -> 1-based 1000)", coords[0].Start)
	}
	if coords[0].End != 2000 {
		t.Errorf("End = %d, want 2000", coords[0].End)
	}
}

func TestSubgroupMAF_ComputesMinorAlleleFrequency(t *testing.T) {
	snp := &model.Snp{
		Genos: []float64{0, 1, 2, 1},
		IsNA:  []bool{false, false, false, false},
	}
	alignment := model.Alignment{
		GenoIdx:  model.SampleIndex{0, 1, 2, 3},
		PhenoIdx: []model.SampleIndex{{0, 1, 2, 3}},
	}
	// mean dose = 1 -> p = 0.5, already minor.
	got := subgroupMAF(snp, alignment, 0)
	if math.Abs(got-0.5) > 1e-9 {
		t.Errorf("subgroupMAF = %v, want 0.5", got)
	}
}

func TestSubgroupMAF_FlipsMajorToMinor(t *testing.T) {
	snp := &model.Snp{
		Genos: []float64{2, 2, 2, 0},
		IsNA:  []bool{false, false, false, false},
	}
	alignment := model.Alignment{
		GenoIdx:  model.SampleIndex{0, 1, 2, 3},
		PhenoIdx: []model.SampleIndex{{0, 1, 2, 3}},
	}
	// mean dose = 1.5 -> p = 0.75 > 0.5, flipped to the minor 1-p = 0.25.
	got := subgroupMAF(snp, alignment, 0)
	if math.Abs(got-0.25) > 1e-9 {
		t.Errorf("subgroupMAF = %v, want 0.25", got)
	}
}

func TestSubgroupMAF_NoGenotypedSamplesIsNaN(t *testing.T) {
	snp := &model.Snp{
		Genos: []float64{0},
		IsNA:  []bool{true},
	}
	alignment := model.Alignment{
		GenoIdx:  model.SampleIndex{0},
		PhenoIdx: []model.SampleIndex{{0}},
	}
	got := subgroupMAF(snp, alignment, 0)
	if !math.IsNaN(got) {
		t.Errorf("subgroupMAF with all-NA samples = %v, want NaN", got)
	}
}

func TestBuild_EndToEndSmallFixture(t *testing.T) {
	dir := t.TempDir()

	genoPath := filepath.Join(dir, "geno.txt")
	os.WriteFile(genoPath, []byte(
		"chr name coord a1 a2 s1_a1a1 s1_a1a2 s1_a2a2 s2_a1a1 s2_a1a2 s2_a2a2 s3_a1a1 s3_a1a2 s3_a2a2\n"+
			"1 rs1 1000 A G 1 0 0 0 1 0 0 0 1\n",
	), 0o644)

	genoListPath := filepath.Join(dir, "genolist.txt")
	os.WriteFile(genoListPath, []byte("all "+genoPath+"\n"), 0o644)

	phenoPath := filepath.Join(dir, "pheno1.txt")
	os.WriteFile(phenoPath, []byte("Id s1 s2 s3\nftrA 1.0 2.0 3.0\n"), 0o644)

	phenoListPath := filepath.Join(dir, "phenolist.txt")
	os.WriteFile(phenoListPath, []byte("grp1 "+phenoPath+"\n"), 0o644)

	coordPath := filepath.Join(dir, "coords.bed")
	os.WriteFile(coordPath, []byte("1\t999\t2000\tftrA\n"), 0o644)

	cat, alignment, subgroups, err := Build(BuildInputs{
		GenotypeListPath:  genoListPath,
		PhenotypeListPath: phenoListPath,
		FeatureCoordPath:  coordPath,
	})
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	if len(subgroups) != 1 || subgroups[0] != "grp1" {
		t.Errorf("subgroups = %v, want [grp1]", subgroups)
	}
	if len(cat.Snps) != 1 || cat.Snps[0].Name != "rs1" {
		t.Fatalf("cat.Snps = %v, want [rs1]", cat.Snps)
	}
	if len(cat.Ftrs) != 1 || cat.Ftrs[0].Name != "ftrA" {
		t.Fatalf("cat.Ftrs = %v, want [ftrA]", cat.Ftrs)
	}
	if cat.Ftrs[0].Start != 1000 || cat.Ftrs[0].End != 2000 {
		t.Errorf("ftrA coords = (%d,%d), want (1000,2000)", cat.Ftrs[0].Start, cat.Ftrs[0].End)
	}
	if len(alignment.PhenoIdx) != 1 {
		t.Fatalf("alignment.PhenoIdx has %d entries, want 1", len(alignment.PhenoIdx))
	}
	if cat.Snps[0].MAF[0] == 0 || math.IsNaN(cat.Snps[0].MAF[0]) {
		t.Errorf("rs1 MAF[0] = %v, want a computed non-NaN value", cat.Snps[0].MAF[0])
	}
}

func TestBuild_DropsFeatureWithoutCoordinate(t *testing.T) {
	dir := t.TempDir()

	genoPath := filepath.Join(dir, "geno.txt")
	os.WriteFile(genoPath, []byte(
		"chr name coord a1 a2 s1_a1a1 s1_a1a2 s1_a2a2\n1 rs1 1000 A G 1 0 0\n",
	), 0o644)
	genoListPath := filepath.Join(dir, "genolist.txt")
	os.WriteFile(genoListPath, []byte("all "+genoPath+"\n"), 0o644)

	phenoPath := filepath.Join(dir, "pheno1.txt")
	os.WriteFile(phenoPath, []byte("Id s1\nftrA 1.0\nftrB 2.0\n"), 0o644)
	phenoListPath := filepath.Join(dir, "phenolist.txt")
	os.WriteFile(phenoListPath, []byte("grp1 "+phenoPath+"\n"), 0o644)

	// Only ftrA has a coordinate; ftrB must be silently dropped.
	coordPath := filepath.Join(dir, "coords.bed")
	os.WriteFile(coordPath, []byte("1\t999\t2000\tftrA\n"), 0o644)

	cat, _, _, err := Build(BuildInputs{
		GenotypeListPath:  genoListPath,
		PhenotypeListPath: phenoListPath,
		FeatureCoordPath:  coordPath,
	})
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if len(cat.Ftrs) != 1 || cat.Ftrs[0].Name != "ftrA" {
		t.Errorf("cat.Ftrs = %v, want only ftrA (ftrB lacks a coordinate)", cat.Ftrs)
	}
}
