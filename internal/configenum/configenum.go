// Package configenum enumerates the subgroup configurations used by the
// ABF kernel: non-empty proper subsets of the S subgroups, labeled
// "i" / "i-j" / ... in the deterministic order spec.md 4.3 requires so
// label-keyed maps line up between the association phase and the writers.
package configenum

import (
	"strconv"
	"strings"
)

// Config is one enumerated subgroup subset.
type Config struct {
	// Members holds the 0-based subgroup indices in the subset, ascending.
	Members []int
	// Label is "i-j-..." with 1-based subgroup numbers, e.g. "1-3".
	Label string
}

// KCombinations returns every k-element subset of {0,...,s-1} in
// lexicographic order, as spec.md 4.3 requires.
//
// The source this was distilled from advances combinations with an
// inner loop missing its advance step (spec.md 9's open question); this
// implementation instead uses the standard next-combination-in-place
// algorithm, advancing until the combinations are exhausted.
func KCombinations(s, k int) []Config {
	if k <= 0 || k > s {
		return nil
	}

	c := make([]int, k)
	for i := range c {
		c[i] = i
	}

	var out []Config
	for {
		members := append([]int(nil), c...)
		out = append(out, Config{Members: members, Label: labelFor(members)})
		if !advance(c, s) {
			break
		}
	}
	return out
}

// advance mutates c in place to the lexicographically next k-combination
// of {0,...,n-1}, returning false once combinations are exhausted.
func advance(c []int, n int) bool {
	k := len(c)
	i := k - 1
	for i >= 0 && c[i] == n-k+i {
		i--
	}
	if i < 0 {
		return false
	}
	c[i]++
	for j := i + 1; j < k; j++ {
		c[j] = c[j-1] + 1
	}
	return true
}

// Subset enumerates the k=1 configurations ("s" in spec.md 4.2's
// per-subgroup family), one per subgroup.
func Subset(s int) []Config {
	return KCombinations(s, 1)
}

// All enumerates every non-empty proper subset of {0,...,s-1}: every
// k-combination for 1 <= k < s, in the order KCombinations produces for
// each k, k ascending. Size is 2^s - 2.
func All(s int) []Config {
	var out []Config
	for k := 1; k < s; k++ {
		out = append(out, KCombinations(s, k)...)
	}
	return out
}

func labelFor(members []int) string {
	parts := make([]string, len(members))
	for i, m := range members {
		parts[i] = strconv.Itoa(m + 1)
	}
	return strings.Join(parts, "-")
}
