package builder

import (
	"slices"
	"strings"

	"github.com/tobsdb/memdb/internal/query"
	"github.com/tobsdb/memdb/pkg"
	sorted "github.com/tobshub/go-sortedmap"
)

// Maps record field name to its saved data
type Record = pkg.Map[string, any]

// KeySeparator joins primary key values into a composite key.
const KeySeparator = "\x00"

type Entry struct {
	Key        string
	Record     Record
	AccessTime int64

	// position of the slot in insertion order, kept when the slot is overwritten
	order uint64
}

// Table holds the records of one model. Tables do no locking of their own;
// callers serialize access.
type Table struct {
	Name       string
	PrimaryKey []string

	db         *DB
	records    *pkg.InsertSortMap[string, *Entry]
	access     *sorted.SortedMap[string, *Entry]
	indexes    []*Index
	next_order uint64
}

func accessComparisonFunc(a, b *Entry) bool {
	if a.AccessTime != b.AccessTime {
		return a.AccessTime < b.AccessTime
	}
	return a.order < b.order
}

func newTable(db *DB, name string, primary_key []string, indexes [][]string) *Table {
	t := &Table{
		Name:       name,
		PrimaryKey: primary_key,
		db:         db,
		records:    pkg.NewInsertSortMap[string, *Entry](),
		access:     sorted.New[string, *Entry](0, accessComparisonFunc),
	}
	for _, fields := range indexes {
		if slices.ContainsFunc(t.indexes, func(idx *Index) bool { return slices.Equal(idx.Fields, fields) }) {
			continue
		}
		t.indexes = append(t.indexes, newIndex(fields))
	}
	return t
}

// Key computes the composite primary key of record. nil and missing
// values read as the empty string.
func (t *Table) Key(record Record) string {
	parts := make([]string, len(t.PrimaryKey))
	for i, f := range t.PrimaryKey {
		parts[i] = query.String(record[f])
	}
	return strings.Join(parts, KeySeparator)
}

// KeyFromEq builds the composite key out of equality values. ok is false
// unless every primary key field is present.
func (t *Table) KeyFromEq(eq map[string]any) (key string, ok bool) {
	record := make(Record, len(t.PrimaryKey))
	for _, f := range t.PrimaryKey {
		v, has := eq[f]
		if !has {
			return "", false
		}
		record[f] = v
	}
	return t.Key(record), true
}

func (t *Table) Len() int { return t.records.Len() }

func (t *Table) Get(key string) (*Entry, bool) {
	e := t.records.Get(key)
	return e, e != nil
}

// Entries lists the stored entries in insertion order.
func (t *Table) Entries() []*Entry {
	return t.records.Values()
}

// EntriesFor resolves keys to entries in insertion order, skipping keys
// that are not stored.
func (t *Table) EntriesFor(keys []string) []*Entry {
	entries := make([]*Entry, 0, len(keys))
	for _, key := range keys {
		if e, ok := t.Get(key); ok {
			entries = append(entries, e)
		}
	}
	slices.SortFunc(entries, func(a, b *Entry) int {
		if a.order < b.order {
			return -1
		} else if a.order > b.order {
			return 1
		}
		return 0
	})
	return entries
}

// Touch refreshes the access time of e.
func (t *Table) Touch(e *Entry) {
	// the access map orders by AccessTime, so the entry leaves it before
	// the field changes
	t.access.Delete(e.Key)
	e.AccessTime = t.db.Now()
	t.access.Insert(e.Key, e)
}

// Put stores record in its slot. An occupied slot keeps its position and
// the previous record is returned.
func (t *Table) Put(record Record) (entry *Entry, previous Record) {
	key := t.Key(record)
	if e, ok := t.Get(key); ok {
		t.unindex(e)
		previous = e.Record
		e.Record = record
		t.Touch(e)
		t.index(e)
		return e, previous
	}

	e := &Entry{Key: key, Record: record, AccessTime: t.db.Now(), order: t.next_order}
	t.next_order++
	t.records.Push(key, e)
	t.access.Insert(key, e)
	t.index(e)
	return e, nil
}

// Replace swaps the record of e for record. When the primary key fields
// changed the record moves to its new slot, and whatever occupied that slot
// is removed and returned as displaced.
func (t *Table) Replace(e *Entry, record Record) (stored *Entry, displaced Record) {
	key := t.Key(record)
	if key == e.Key {
		t.unindex(e)
		e.Record = record
		t.Touch(e)
		t.index(e)
		return e, nil
	}

	t.Remove(e.Key)
	displaced, _ = t.Remove(key)
	stored, _ = t.Put(record)
	return stored, displaced
}

func (t *Table) Remove(key string) (Record, bool) {
	e, ok := t.Get(key)
	if !ok {
		return nil, false
	}
	t.unindex(e)
	t.records.Delete(key)
	t.access.Delete(key)
	return e.Record, true
}

// Clear drops every record and index entry, returning the removed records
// in insertion order.
func (t *Table) Clear() []Record {
	removed := make([]Record, 0, t.records.Len())
	for _, e := range t.records.Values() {
		removed = append(removed, e.Record)
	}
	t.records.Clear()
	t.access = sorted.New[string, *Entry](0, accessComparisonFunc)
	for _, idx := range t.indexes {
		idx.clear()
	}
	return removed
}

func (t *Table) index(e *Entry) {
	for _, idx := range t.indexes {
		idx.add(e.Key, e.Record)
	}
}

func (t *Table) unindex(e *Entry) {
	for _, idx := range t.indexes {
		idx.remove(e.Key, e.Record)
	}
}

func (t *Table) Indexes() []*Index { return t.indexes }

func (t *Table) IndexNames() []string {
	names := make([]string, len(t.indexes))
	for i, idx := range t.indexes {
		names[i] = idx.Name()
	}
	return names
}

// BestIndex picks the index covered by eq with the most fields, or nil.
func (t *Table) BestIndex(eq map[string]any) *Index {
	var best *Index
	for _, idx := range t.indexes {
		if idx.Covers(eq) && (best == nil || len(idx.Fields) > len(best.Fields)) {
			best = idx
		}
	}
	return best
}
