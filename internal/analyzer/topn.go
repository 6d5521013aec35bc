package analyzer

import "slices"

// TopN returns the k entries with the highest counts, highest first. Entries
// with equal counts keep their relative order from the input. A non-positive
// k or an empty table yields an empty, non-nil slice; a k larger than the
// table yields the whole table ranked.
func TopN[K comparable](entries []Entry[K], k int) []Entry[K] {
	if k <= 0 || len(entries) == 0 {
		return []Entry[K]{}
	}

	ranked := slices.Clone(entries)
	slices.SortStableFunc(ranked, func(a, b Entry[K]) int {
		return b.Count - a.Count
	})
	if k < len(ranked) {
		ranked = ranked[:k]
	}
	return ranked
}

// Ranked orders the whole table by descending count.
func Ranked[K comparable](entries []Entry[K]) []Entry[K] {
	return TopN(entries, len(entries))
}
