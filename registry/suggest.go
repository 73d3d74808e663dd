package registry

import (
	"cmp"
	"slices"

	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
)

// Suggest returns up to n registered names closest to name by edit distance.
// Names sharing nothing with name are not suggested.
func (c *Category) Suggest(name string, n int) []string {
	if n <= 0 || name == "" {
		return nil
	}
	type scored struct {
		name string
		dist int
	}
	dmp := diffpatch.New()
	var cands []scored
	for _, cand := range c.Names() {
		d := dmp.DiffLevenshtein(dmp.DiffMain(name, cand, false))
		if d >= max(len(cand), len(name)) {
			continue
		}
		cands = append(cands, scored{cand, d})
	}
	slices.SortStableFunc(cands, func(a, b scored) int {
		return cmp.Compare(a.dist, b.dist)
	})
	if len(cands) > n {
		cands = cands[:n]
	}
	res := make([]string, len(cands))
	for i := range cands {
		res[i] = cands[i].name
	}
	return res
}
