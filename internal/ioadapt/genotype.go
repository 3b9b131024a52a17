package ioadapt

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/ASBoldt/quantgen/internal/model"
)

// GenotypeFileEntry is one row of a genotype list file.
type GenotypeFileEntry struct {
	SubgroupID string
	Path       string
}

// LoadGenotypeList parses a genotype list file (spec.md 6): two
// whitespace-separated columns subgroupId/path, comments starting with
// '#'. The core only supports the single shared genotype source
// (spec.md 9); more than one row is a configuration error.
func LoadGenotypeList(path string) (GenotypeFileEntry, error) {
	r, err := openReader(path)
	if err != nil {
		return GenotypeFileEntry{}, err
	}
	defer r.Close()

	sc := bufio.NewScanner(r)
	var entries []GenotypeFileEntry
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return GenotypeFileEntry{}, &ParseError{Path: path, Line: lineNo, Message: "expected 2 columns: subgroupId path"}
		}
		entries = append(entries, GenotypeFileEntry{SubgroupID: fields[0], Path: fields[1]})
	}
	if err := sc.Err(); err != nil {
		return GenotypeFileEntry{}, fmt.Errorf("read %s: %w", path, err)
	}
	if len(entries) != 1 {
		return GenotypeFileEntry{}, fmt.Errorf("%s: the core supports exactly one shared genotype source, found %d", path, len(entries))
	}
	return entries[0], nil
}

// LoadGenotypeMatrix parses an IMPUTE-style genotype dosage matrix
// (spec.md 6): header "chr name coord a1 a2 sample1_a1a1 sample1_a1a2
// sample1_a2a2 ...", body rows "chr id coord a1 a2 <3*N dosage columns>".
func LoadGenotypeMatrix(path string) (snps []*model.Snp, sampleNames []string, err error) {
	r, err := openReader(path)
	if err != nil {
		return nil, nil, err
	}
	defer r.Close()

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<24)

	if !sc.Scan() {
		return nil, nil, fmt.Errorf("%s: empty genotype matrix", path)
	}
	header := strings.Fields(sc.Text())
	if len(header) < 8 || (len(header)-5)%3 != 0 {
		return nil, nil, &ParseError{Path: path, Line: 1, Message: "malformed genotype header"}
	}
	nSamples := (len(header) - 5) / 3
	sampleNames = make([]string, nSamples)
	for i := 0; i < nSamples; i++ {
		tok := header[5+3*i]
		sampleNames[i] = stripGenotypeColumnSuffix(tok)
	}

	lineNo := 1
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != len(header) {
			return nil, nil, &ParseError{Path: path, Line: lineNo, Message: fmt.Sprintf("expected %d columns, got %d", len(header), len(fields))}
		}

		coord, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return nil, nil, &ParseError{Path: path, Line: lineNo, Message: "non-numeric coordinate"}
		}

		snp := &model.Snp{
			Name:  fields[1],
			Chr:   fields[0],
			Coord: coord,
			Genos: make([]float64, nSamples),
			IsNA:  make([]bool, nSamples),
		}

		for i := 0; i < nSamples; i++ {
			base := 5 + 3*i
			pAA, err1 := strconv.ParseFloat(fields[base], 64)
			pAB, err2 := strconv.ParseFloat(fields[base+1], 64)
			pBB, err3 := strconv.ParseFloat(fields[base+2], 64)
			if err1 != nil || err2 != nil || err3 != nil {
				return nil, nil, &ParseError{Path: path, Line: lineNo, Message: "non-numeric genotype probability"}
			}
			dose, isNA := model.Dose(pAA, pAB, pBB)
			snp.Genos[i] = dose
			snp.IsNA[i] = isNA
		}

		snps = append(snps, snp)
	}
	if err := sc.Err(); err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}

	return snps, sampleNames, nil
}

// stripGenotypeColumnSuffix strips the trailing "_aNaM" genotype-class
// suffix (e.g. "_a1a1") from an IMPUTE header token to recover the
// sample id.
func stripGenotypeColumnSuffix(tok string) string {
	i := strings.LastIndex(tok, "_a")
	if i < 0 {
		return tok
	}
	return tok[:i]
}
