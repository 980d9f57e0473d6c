package builder

import (
	"strings"

	"github.com/tobsdb/memdb/internal/query"
)

// Index maps the value (or tuple of values) of its fields to the set of
// primary keys holding it. Empty buckets are dropped.
type Index struct {
	Fields  []string
	buckets map[query.ValueKey]map[string]struct{}
}

func newIndex(fields []string) *Index {
	return &Index{Fields: fields, buckets: make(map[query.ValueKey]map[string]struct{})}
}

func (idx *Index) Name() string { return strings.Join(idx.Fields, ",") }

func (idx *Index) keyOf(record Record) query.ValueKey {
	values := make([]any, len(idx.Fields))
	for i, f := range idx.Fields {
		values[i] = record[f]
	}
	return query.TupleKey(values...)
}

func (idx *Index) add(pk string, record Record) {
	key := idx.keyOf(record)
	bucket, ok := idx.buckets[key]
	if !ok {
		bucket = make(map[string]struct{})
		idx.buckets[key] = bucket
	}
	bucket[pk] = struct{}{}
}

func (idx *Index) remove(pk string, record Record) {
	key := idx.keyOf(record)
	bucket, ok := idx.buckets[key]
	if !ok {
		return
	}
	delete(bucket, pk)
	if len(bucket) == 0 {
		delete(idx.buckets, key)
	}
}

// Covers reports whether every field of the index has a value in eq.
func (idx *Index) Covers(eq map[string]any) bool {
	for _, f := range idx.Fields {
		if _, ok := eq[f]; !ok {
			return false
		}
	}
	return true
}

// Lookup returns the primary keys whose record holds the values in eq.
func (idx *Index) Lookup(eq map[string]any) []string {
	values := make([]any, len(idx.Fields))
	for i, f := range idx.Fields {
		values[i] = eq[f]
	}
	bucket := idx.buckets[query.TupleKey(values...)]
	pks := make([]string, 0, len(bucket))
	for pk := range bucket {
		pks = append(pks, pk)
	}
	return pks
}

// Buckets is the number of distinct values held.
func (idx *Index) Buckets() int { return len(idx.buckets) }

func (idx *Index) clear() {
	idx.buckets = make(map[query.ValueKey]map[string]struct{})
}
