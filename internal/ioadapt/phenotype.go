package ioadapt

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

// PhenotypeFileEntry is one row of a phenotype list file.
type PhenotypeFileEntry struct {
	SubgroupID string
	Path       string
}

// LoadPhenotypeList parses a phenotype list file (spec.md 6): two
// whitespace-separated columns subgroupId/path, comments starting with
// '#', one row per subgroup.
func LoadPhenotypeList(path string) ([]PhenotypeFileEntry, error) {
	r, err := openReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	sc := bufio.NewScanner(r)
	var entries []PhenotypeFileEntry
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, &ParseError{Path: path, Line: lineNo, Message: "expected 2 columns: subgroupId path"}
		}
		entries = append(entries, PhenotypeFileEntry{SubgroupID: fields[0], Path: fields[1]})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return entries, nil
}

// PhenotypeMatrix is one subgroup's phenotype matrix, in file order.
type PhenotypeMatrix struct {
	SampleNames  []string
	FeatureNames []string // load order, for deterministic downstream iteration
	Values       map[string][]float64
	IsNA         map[string][]bool
}

// LoadPhenotypeMatrix parses a per-subgroup phenotype matrix (spec.md 6):
// row 1 is sample names (with an optional leading "Id" column header),
// column 1 is the feature name, and cells are numeric or "NA".
func LoadPhenotypeMatrix(path string) (*PhenotypeMatrix, error) {
	r, err := openReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<24)

	if !sc.Scan() {
		return nil, fmt.Errorf("%s: empty phenotype matrix", path)
	}
	header := strings.Fields(sc.Text())
	if len(header) == 0 {
		return nil, &ParseError{Path: path, Line: 1, Message: "empty header"}
	}
	if strings.EqualFold(header[0], "Id") {
		header = header[1:]
	}

	pm := &PhenotypeMatrix{
		SampleNames: header,
		Values:      make(map[string][]float64),
		IsNA:        make(map[string][]bool),
	}

	lineNo := 1
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != len(header)+1 {
			return nil, &ParseError{Path: path, Line: lineNo, Message: fmt.Sprintf("expected %d columns, got %d", len(header)+1, len(fields))}
		}

		name := fields[0]
		values := make([]float64, len(header))
		isNA := make([]bool, len(header))
		for i, tok := range fields[1:] {
			if strings.EqualFold(tok, "NA") {
				isNA[i] = true
				continue
			}
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return nil, &ParseError{Path: path, Line: lineNo, Message: fmt.Sprintf("non-numeric phenotype value %q", tok)}
			}
			values[i] = v
		}

		pm.FeatureNames = append(pm.FeatureNames, name)
		pm.Values[name] = values
		pm.IsNA[name] = isNA
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return pm, nil
}
