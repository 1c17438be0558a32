package docstore

import (
	"sort"
	"time"
)

// Latest returns the document with the greatest timestamp in field.
// Documents without a readable timestamp are skipped; nil when none has one.
func Latest(docs []*Document, field string) *Document {
	var (
		best   *Document
		bestAt time.Time
	)
	for _, d := range docs {
		at, ok := Time(d, field)
		if !ok {
			continue
		}
		if best == nil || at.After(bestAt) {
			best, bestAt = d, at
		}
	}
	return best
}

// SortByTimeDesc orders docs newest first by field. Documents without a
// timestamp go last, in id order.
func SortByTimeDesc(docs []*Document, field string) {
	sort.SliceStable(docs, func(i, j int) bool {
		ti, oki := Time(docs[i], field)
		tj, okj := Time(docs[j], field)
		switch {
		case oki && okj:
			if ti.Equal(tj) {
				return docs[i].ID < docs[j].ID
			}
			return ti.After(tj)
		case oki != okj:
			return oki
		default:
			return docs[i].ID < docs[j].ID
		}
	})
}

// Union merges result sets, keeping the first occurrence of each id, and
// returns them sorted by id.
func Union(sets ...[]*Document) []*Document {
	seen := make(map[string]struct{})
	out := make([]*Document, 0)
	for _, set := range sets {
		for _, d := range set {
			if _, dup := seen[d.ID]; dup {
				continue
			}
			seen[d.ID] = struct{}{}
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
