package ioadapt

import (
	"fmt"
	"math"
	"sort"

	"github.com/ASBoldt/quantgen/internal/model"
)

// BuildInputs names the files a catalogue is built from.
type BuildInputs struct {
	GenotypeListPath  string
	PhenotypeListPath string
	FeatureCoordPath  string
	FtrAllowListPath  string
	SnpAllowListPath  string
}

// Build loads every input file, aligns samples against a shared universe,
// and returns the catalogue and alignment the association/permutation
// engines consume. Subgroups is the subgroup id order (from the
// phenotype list file), which also indexes every per-subgroup slice.
func Build(in BuildInputs) (cat *model.Catalogue, alignment model.Alignment, subgroups []string, err error) {
	genoEntry, err := LoadGenotypeList(in.GenotypeListPath)
	if err != nil {
		return nil, model.Alignment{}, nil, err
	}
	phenoEntries, err := LoadPhenotypeList(in.PhenotypeListPath)
	if err != nil {
		return nil, model.Alignment{}, nil, err
	}
	if len(phenoEntries) == 0 {
		return nil, model.Alignment{}, nil, fmt.Errorf("%s: no phenotype subgroups listed", in.PhenotypeListPath)
	}

	snps, genoSamples, err := LoadGenotypeMatrix(genoEntry.Path)
	if err != nil {
		return nil, model.Alignment{}, nil, err
	}

	coords, err := LoadFeatureCoords(in.FeatureCoordPath)
	if err != nil {
		return nil, model.Alignment{}, nil, err
	}

	ftrAllow, err := LoadAllowList(in.FtrAllowListPath)
	if err != nil {
		return nil, model.Alignment{}, nil, err
	}
	snpAllow, err := LoadAllowList(in.SnpAllowListPath)
	if err != nil {
		return nil, model.Alignment{}, nil, err
	}

	if snpAllow != nil {
		filtered := snps[:0]
		for _, s := range snps {
			if snpAllow[s.Name] {
				filtered = append(filtered, s)
			}
		}
		snps = filtered
	}

	coordByName := make(map[string]FeatureCoord, len(coords))
	for _, c := range coords {
		coordByName[c.Name] = c
	}

	numSubgroups := len(phenoEntries)
	subgroups = make([]string, numSubgroups)
	phenoMatrices := make([]*PhenotypeMatrix, numSubgroups)
	for s, e := range phenoEntries {
		subgroups[s] = e.SubgroupID
		pm, err := LoadPhenotypeMatrix(e.Path)
		if err != nil {
			return nil, model.Alignment{}, nil, err
		}
		phenoMatrices[s] = pm
	}

	universe := model.NewSampleUniverse()
	for _, name := range genoSamples {
		universe.Add(name)
	}
	for _, pm := range phenoMatrices {
		for _, name := range pm.SampleNames {
			universe.Add(name)
		}
	}

	alignment.GenoIdx = model.NewSampleIndex(universe.Len())
	for col, name := range genoSamples {
		i, _ := universe.Lookup(name)
		alignment.GenoIdx[i] = col
	}

	alignment.PhenoIdx = make([]model.SampleIndex, numSubgroups)
	for s, pm := range phenoMatrices {
		idx := model.NewSampleIndex(universe.Len())
		for col, name := range pm.SampleNames {
			i, _ := universe.Lookup(name)
			idx[i] = col
		}
		alignment.PhenoIdx[s] = idx
	}

	// Union of feature names across every subgroup's matrix,
	// intersected with the allow-list if present, then sorted by name.
	var ftrNames []string
	seen := make(map[string]bool)
	for _, pm := range phenoMatrices {
		for _, name := range pm.FeatureNames {
			if seen[name] {
				continue
			}
			seen[name] = true
			if ftrAllow != nil && !ftrAllow[name] {
				continue
			}
			ftrNames = append(ftrNames, name)
		}
	}
	sort.Strings(ftrNames) // deterministic regardless of subgroup load order

	var ftrs []*model.Ftr
	for _, name := range ftrNames {
		coord, ok := coordByName[name]
		if !ok {
			// spec.md 7: "data (feature without coordinate)" is a data
			// error; the feature is dropped rather than aborting the run,
			// since coordinate files commonly lag phenotype matrices.
			continue
		}

		f := model.NewFtr(name, coord.Chr, coord.Start, coord.End, numSubgroups)
		f.Phenos = make([][]float64, numSubgroups)
		f.IsNA = make([][]bool, numSubgroups)
		for s, pm := range phenoMatrices {
			f.Phenos[s] = pm.Values[name]
			f.IsNA[s] = pm.IsNA[name]
		}
		ftrs = append(ftrs, f)
	}

	for _, snp := range snps {
		snp.MAF = make([]float64, numSubgroups)
		for s := range subgroups {
			snp.MAF[s] = subgroupMAF(snp, alignment, s)
		}
	}

	return &model.Catalogue{Snps: snps, Ftrs: ftrs}, alignment, subgroups, nil
}

// subgroupMAF computes a SNP's minor allele frequency over the samples
// of subgroup s that are genotyped and non-missing (spec.md 3).
func subgroupMAF(snp *model.Snp, alignment model.Alignment, s int) float64 {
	phenoIdx := alignment.PhenoIdx[s]
	n := len(phenoIdx)
	if len(alignment.GenoIdx) < n {
		n = len(alignment.GenoIdx)
	}

	var sum float64
	var count int
	for i := 0; i < n; i++ {
		if !phenoIdx.Present(i) || !alignment.GenoIdx.Present(i) {
			continue
		}
		gcol := alignment.GenoIdx[i]
		if snp.IsNA[gcol] {
			continue
		}
		sum += snp.Genos[gcol]
		count++
	}
	if count == 0 {
		return math.NaN()
	}
	p := sum / float64(count) / 2
	if p > 0.5 {
		p = 1 - p
	}
	return p
}
