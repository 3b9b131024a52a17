package model

// SourceKind distinguishes the two data sources a sample universe maps
// into: phenotype matrices (one per subgroup) and the shared genotype
// matrix (one for the whole run).
type SourceKind int

const (
	SourcePheno SourceKind = iota
	SourceGeno
)

// SampleUniverse is the union of sample identifiers seen across every
// phenotype and genotype source, in first-seen order. Position in
// Names is the "universe index" every alignment table is keyed by.
type SampleUniverse struct {
	Names []string
	index map[string]int
}

// NewSampleUniverse builds an empty universe.
func NewSampleUniverse() *SampleUniverse {
	return &SampleUniverse{index: make(map[string]int)}
}

// Add registers name if not already present and returns its universe index.
func (u *SampleUniverse) Add(name string) int {
	if i, ok := u.index[name]; ok {
		return i
	}
	i := len(u.Names)
	u.Names = append(u.Names, name)
	u.index[name] = i
	return i
}

// Lookup returns the universe index of name, or (-1, false) if absent.
func (u *SampleUniverse) Lookup(name string) (int, bool) {
	i, ok := u.index[name]
	if !ok {
		return -1, false
	}
	return i, true
}

// Len returns the number of samples in the universe.
func (u *SampleUniverse) Len() int {
	return len(u.Names)
}

// SampleIndex maps universe positions to a single source's column index.
// Absent mappings are represented by a negative value, matching the
// "present or absent" invariant of spec.md 3.
type SampleIndex []int

// NewSampleIndex returns a SampleIndex of the given universe size with
// every entry marked absent.
func NewSampleIndex(universeSize int) SampleIndex {
	idx := make(SampleIndex, universeSize)
	for i := range idx {
		idx[i] = -1
	}
	return idx
}

// Present reports whether universe position i has a mapped column.
func (s SampleIndex) Present(i int) bool {
	return i >= 0 && i < len(s) && s[i] >= 0
}

// Alignment holds the sample-index maps threaded through association
// and permutation: one genotype map (spec.md 9's single-genotype-source
// assumption) shared by every subgroup, and one phenotype map per
// subgroup.
type Alignment struct {
	GenoIdx   SampleIndex
	PhenoIdx  []SampleIndex // per subgroup
}

// AlignedPairs returns, for every universe position where both idxA and
// idxB are present and the corresponding missingness flags are false,
// the pair of source-column indices (a, b). This is the sample-alignment
// step spec.md 3's invariant requires before any per-pair statistic is
// computed.
func AlignedPairs(idxA, idxB SampleIndex, naA, naB []bool) (colsA, colsB []int) {
	n := len(idxA)
	if len(idxB) < n {
		n = len(idxB)
	}
	for i := 0; i < n; i++ {
		if !idxA.Present(i) || !idxB.Present(i) {
			continue
		}
		a, b := idxA[i], idxB[i]
		if naA != nil && a < len(naA) && naA[a] {
			continue
		}
		if naB != nil && b < len(naB) && naB[b] {
			continue
		}
		colsA = append(colsA, a)
		colsB = append(colsB, b)
	}
	return colsA, colsB
}
