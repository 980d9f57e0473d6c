package query

import (
	"slices"

	"github.com/tobsdb/memdb/pkg"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortBy orders by one field. An empty Direction sorts ascending.
type SortBy struct {
	Field     string        `json:"field"`
	Direction SortDirection `json:"direction"`
}

// SortRecords returns a sorted copy of records; the input is left as is.
// The sort is stable. nil values go last in ascending order and first in
// descending order, strings use locale aware collation, and values of
// different kinds are ordered by kind.
func SortRecords(records []pkg.Map[string, any], sort_by *SortBy) []pkg.Map[string, any] {
	sorted := slices.Clone(records)
	if sort_by == nil || len(sort_by.Field) == 0 {
		return sorted
	}

	// a Collator keeps internal buffers and is not safe to share
	col := collate.New(language.Und)
	slices.SortStableFunc(sorted, func(a, b pkg.Map[string, any]) int {
		cmp := compareForSort(col, a[sort_by.Field], b[sort_by.Field])
		if sort_by.Direction == SortDesc {
			return -cmp
		}
		return cmp
	})
	return sorted
}

func compareForSort(col *collate.Collator, a, b any) int {
	if Equal(a, b) {
		return 0
	}
	ka, kb := KindOf(a), KindOf(b)
	if ka == KindNil {
		return 1
	}
	if kb == KindNil {
		return -1
	}
	if ka == KindString && kb == KindString {
		return col.CompareString(String(a), String(b))
	}
	if cmp, ok := Compare(a, b); ok {
		return cmp
	}
	if ka != kb {
		return compareNumbers(float64(ka), float64(kb))
	}
	return col.CompareString(String(a), String(b))
}

// Paginate applies offset then limit. Values <= 0 mean unset.
func Paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return []T{}
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
