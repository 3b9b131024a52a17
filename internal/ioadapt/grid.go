package ioadapt

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/ASBoldt/quantgen/internal/abf"
)

// LoadGrid parses a grid file (spec.md 6): two whitespace-separated
// columns phi^2/omega^2, one row per grid point.
func LoadGrid(path string) ([]abf.GridPoint, error) {
	r, err := openReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	sc := bufio.NewScanner(r)
	var grid []abf.GridPoint
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, &ParseError{Path: path, Line: lineNo, Message: "expected 2 columns: phi2 omega2"}
		}
		phi2, err1 := strconv.ParseFloat(fields[0], 64)
		omega2, err2 := strconv.ParseFloat(fields[1], 64)
		if err1 != nil || err2 != nil {
			return nil, &ParseError{Path: path, Line: lineNo, Message: "non-numeric grid value"}
		}
		grid = append(grid, abf.GridPoint{Phi2: phi2, Omega2: omega2})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(grid) == 0 {
		return nil, fmt.Errorf("%s: empty grid", path)
	}
	return grid, nil
}
