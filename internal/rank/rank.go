// Package rank defines the core types for ranking snapshots and the
// diff between two observations of the same ranking.
package rank

// MaxEntries caps how many entries one observation keeps. The tail of the
// ranking churns constantly; truncating keeps diffs stable across fetches.
const MaxEntries = 50

// Entry is a single ranked item as seen in one fetch of the source page.
type Entry struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Rank  int    `json:"-"`
}

// IDs projects the entry list onto its identifiers, preserving order.
func IDs(entries []Entry) []string {
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	return ids
}

// NewIDs returns the ids present in current but absent from seen, in the
// order they appear in current. Removals are not tracked.
func NewIDs(current []string, seen []string) []string {
	seenSet := make(map[string]struct{}, len(seen))
	for _, id := range seen {
		seenSet[id] = struct{}{}
	}
	var fresh []string
	for _, id := range current {
		if _, ok := seenSet[id]; !ok {
			fresh = append(fresh, id)
		}
	}
	return fresh
}
