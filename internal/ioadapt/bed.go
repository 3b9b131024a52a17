package ioadapt

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

// FeatureCoord is one BED-like feature-coordinate row, converted to
// 1-based inclusive coordinates (spec.md 6: "0-based half-open start ->
// stored as start+1").
type FeatureCoord struct {
	Name  string
	Chr   string
	Start int64 // 1-based, inclusive
	End   int64 // 1-based, inclusive
}

// LoadFeatureCoords parses a BED-like feature-coordinate file: rows
// "chr start end name ...". Extra trailing columns are ignored.
func LoadFeatureCoords(path string) ([]FeatureCoord, error) {
	r, err := openReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	sc := bufio.NewScanner(r)
	var out []FeatureCoord
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "track") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			return nil, &ParseError{Path: path, Line: lineNo, Message: "expected at least 4 columns: chr start end name"}
		}

		start, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return nil, &ParseError{Path: path, Line: lineNo, Message: "non-numeric start"}
		}
		end, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return nil, &ParseError{Path: path, Line: lineNo, Message: "non-numeric end"}
		}

		out = append(out, FeatureCoord{
			Name:  fields[3],
			Chr:   fields[0],
			Start: start + 1, // 0-based half-open -> 1-based inclusive
			End:   end,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return out, nil
}
