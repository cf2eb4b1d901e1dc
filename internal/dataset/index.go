package dataset

import "sort"

// CompanyIndex maps a tax identifier to the positions of its rows, ordered
// by year ascending. Duplicate inn+year pairs keep their dataset order
// (stable sort), so reloading the same source always yields the same index.
type CompanyIndex struct {
	byINN map[string][]int
}

// BuildIndex constructs the index in one pass over the dataset. Rows with an
// empty inn are skipped: they remain reachable through sampling but have no
// meaningful lookup key. Building never fails for a validated dataset.
func BuildIndex(d *Dataset) *CompanyIndex {
	byINN := make(map[string][]int)
	for i := 0; i < d.Len(); i++ {
		r := d.row(i)
		if r.INN == "" {
			continue
		}
		byINN[r.INN] = append(byINN[r.INN], i)
	}
	for inn, positions := range byINN {
		sort.SliceStable(positions, func(a, b int) bool {
			return d.row(positions[a]).Year < d.row(positions[b]).Year
		})
		byINN[inn] = positions
	}
	return &CompanyIndex{byINN: byINN}
}

// Lookup returns the row positions for a tax identifier, or nil when the
// identifier is unknown. The returned slice is shared and must not be
// modified.
func (ix *CompanyIndex) Lookup(inn string) []int {
	return ix.byINN[inn]
}

// Companies returns the number of distinct indexed tax identifiers.
func (ix *CompanyIndex) Companies() int {
	return len(ix.byINN)
}
