package store

import (
	"github.com/tiendc/go-deepcopy"
	"github.com/tobsdb/memdb/internal/builder"
	"github.com/tobsdb/memdb/internal/metrics"
	"github.com/tobsdb/memdb/internal/query"
	"github.com/tobsdb/memdb/pkg"
)

// Create stores data in the slot of its primary key, overwriting whatever
// was there. Use InsertStrict to refuse occupied slots.
func (s *Store) Create(model string, data Record) Record {
	metrics.ObserveOperation(model, "create")
	return s.insert(model, s.table(model), data)
}

// InsertStrict is Create that fails with ErrDuplicateKey, changing
// nothing, when the primary key slot is already taken.
func (s *Store) InsertStrict(model string, data Record) (Record, error) {
	metrics.ObserveOperation(model, "insertStrict")
	t := s.table(model)
	if _, taken := t.Get(t.Key(data)); taken {
		return nil, ErrDuplicateKey
	}
	return s.insert(model, t, data), nil
}

func (s *Store) insert(model string, t *builder.Table, data Record) Record {
	e, _ := t.Put(newRecord(data))
	record := e.Record.Clone()
	s.enforceMaxEntries(model, t)
	s.notify(model, []TableChange{{Type: ChangeInsert, Data: record.Clone()}})
	return record
}

// CreateMany stores every record, then evicts and notifies once for the
// whole batch.
func (s *Store) CreateMany(model string, data []Record) []Record {
	metrics.ObserveOperation(model, "createMany")
	t := s.table(model)

	records := make([]Record, 0, len(data))
	for _, d := range data {
		e, _ := t.Put(newRecord(d))
		records = append(records, e.Record.Clone())
	}
	s.enforceMaxEntries(model, t)

	changes := make([]TableChange, len(records))
	for i, r := range records {
		changes[i] = TableChange{Type: ChangeInsert, Data: r.Clone()}
	}
	s.notify(model, changes)
	return records
}

// Update merges data into the first match and returns the result, or nil
// when nothing matches.
func (s *Store) Update(model string, where query.Where, data Record) Record {
	metrics.ObserveOperation(model, "update")
	t := s.table(model)

	e := s.resolveFirst(t, where)
	if e == nil {
		return nil
	}

	changes := []TableChange{}
	record := s.merge(t, e, data, &changes)
	s.notify(model, changes)
	return record
}

func (s *Store) UpdateMany(model string, where query.Where, data Record) int {
	metrics.ObserveOperation(model, "updateMany")
	t := s.table(model)

	changes := []TableChange{}
	updated := 0
	for _, e := range s.resolve(t, where, false) {
		// a primary key change earlier in the batch may have displaced e
		if current, ok := t.Get(e.Key); !ok || current != e {
			continue
		}
		s.merge(t, e, data, &changes)
		updated++
	}
	s.notify(model, changes)
	return updated
}

// merge applies data over e's record and re-indexes it. When the primary
// key moves onto an occupied slot, the occupant is removed and reported as
// deleted ahead of the update.
func (s *Store) merge(t *builder.Table, e *builder.Entry, data Record, changes *[]TableChange) Record {
	merged := e.Record.Clone()
	for k, v := range data {
		merged[k] = v
	}

	stored, displaced := t.Replace(e, merged)
	if displaced != nil {
		*changes = append(*changes, TableChange{Type: ChangeDelete, Data: displaced.Clone()})
	}
	*changes = append(*changes, TableChange{Type: ChangeUpdate, Data: stored.Record.Clone()})
	return stored.Record.Clone()
}

// Upsert updates the first match with update, or creates create when
// nothing matches.
func (s *Store) Upsert(model string, where query.Where, create, update Record) Record {
	metrics.ObserveOperation(model, "upsert")
	t := s.table(model)

	if e := s.resolveFirst(t, where); e != nil {
		changes := []TableChange{}
		record := s.merge(t, e, update, &changes)
		s.notify(model, changes)
		return record
	}
	return s.insert(model, t, create)
}

// Delete removes the first match, if any.
func (s *Store) Delete(model string, where query.Where) {
	metrics.ObserveOperation(model, "delete")
	t := s.table(model)

	e := s.resolveFirst(t, where)
	if e == nil {
		return
	}
	if r, ok := t.Remove(e.Key); ok {
		s.notify(model, []TableChange{{Type: ChangeDelete, Data: r.Clone()}})
	}
}

func (s *Store) DeleteMany(model string, where query.Where) int {
	metrics.ObserveOperation(model, "deleteMany")
	t := s.table(model)

	changes := []TableChange{}
	for _, e := range s.resolve(t, where, false) {
		if r, ok := t.Remove(e.Key); ok {
			changes = append(changes, TableChange{Type: ChangeDelete, Data: r.Clone()})
		}
	}
	s.notify(model, changes)
	return len(changes)
}

// Clear empties the table and returns how many records it held.
func (s *Store) Clear(model string) int {
	metrics.ObserveOperation(model, "clear")
	removed := s.table(model).Clear()

	changes := make([]TableChange, len(removed))
	for i, r := range removed {
		changes[i] = TableChange{Type: ChangeDelete, Data: r.Clone()}
	}
	s.notify(model, changes)
	return len(removed)
}

func newRecord(data Record) Record {
	if data == nil {
		return Record{}
	}
	return data.Clone()
}

// copyRecord is a deep copy for records handed out next to stored ones.
// It falls back to a shallow copy if a value cannot be copied.
func copyRecord(r Record) Record {
	var c Record
	if err := deepcopy.Copy(&c, r); err != nil {
		pkg.WarnLog("deep copy failed, using shallow copy:", err)
		return r.Clone()
	}
	return c
}
