package replacer

import "sort"

// FilterByCategory resolves overlapping spans per category. Spans are
// grouped by the string value of the given metadata key; within each
// group the longest span wins and anything overlapping a kept span is
// dropped. Spans without the key form their own group. Matching itself
// never deduplicates, so consumers that show a single suggestion per
// region apply this (or their own policy) on the output.
func FilterByCategory(spans []Span, key string) []Span {
	groups := make(map[string][]Span)
	for _, sp := range spans {
		cat, _ := sp.Meta[key].(string)
		groups[cat] = append(groups[cat], sp)
	}

	var kept []Span
	for _, group := range groups {
		kept = append(kept, filterOverlaps(group)...)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Start != kept[j].Start {
			return kept[i].Start < kept[j].Start
		}
		return kept[i].End < kept[j].End
	})
	return kept
}

// filterOverlaps keeps the longest spans first and discards any later
// span overlapping one already kept.
func filterOverlaps(spans []Span) []Span {
	order := make([]Span, len(spans))
	copy(order, spans)
	sort.SliceStable(order, func(i, j int) bool {
		li, lj := order[i].End-order[i].Start, order[j].End-order[j].Start
		if li != lj {
			return li > lj
		}
		return order[i].Start < order[j].Start
	})

	var kept []Span
	for _, sp := range order {
		overlaps := false
		for _, k := range kept {
			if sp.Start < k.End && k.Start < sp.End {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, sp)
		}
	}
	return kept
}
