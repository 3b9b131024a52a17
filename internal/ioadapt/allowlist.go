package ioadapt

import (
	"bufio"
	"fmt"
	"strings"
)

// LoadAllowList parses a one-id-per-line allow-list file (spec.md 6's
// optional feature/SNP allow-lists). An empty path is not an error: it
// means no allow-list was requested, and callers should treat every id
// as allowed.
func LoadAllowList(path string) (map[string]bool, error) {
	if path == "" {
		return nil, nil
	}

	r, err := openReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	set := make(map[string]bool)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		set[line] = true
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return set, nil
}
