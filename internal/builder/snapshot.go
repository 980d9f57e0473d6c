package builder

import (
	"github.com/tiendc/go-deepcopy"
	"github.com/tobsdb/memdb/pkg"
)

type SnapshotEntry struct {
	Key        string
	Record     Record
	AccessTime int64
}

// TableSnapshot is a deep copy of a table's records and access times in
// insertion order. Indexes are not copied; Restore rebuilds them.
type TableSnapshot struct {
	Name    string
	Entries []SnapshotEntry
}

func (t *Table) Snapshot() (TableSnapshot, error) {
	entries := make([]SnapshotEntry, 0, t.records.Len())
	for _, e := range t.records.Values() {
		entries = append(entries, SnapshotEntry{Key: e.Key, Record: e.Record, AccessTime: e.AccessTime})
	}

	snap := TableSnapshot{Name: t.Name}
	if err := deepcopy.Copy(&snap.Entries, entries); err != nil {
		return TableSnapshot{}, err
	}
	return snap, nil
}

// Restore replaces the table's contents with snap. The snapshot itself is
// copied again so it can be restored more than once.
func (t *Table) Restore(snap TableSnapshot) error {
	var entries []SnapshotEntry
	if err := deepcopy.Copy(&entries, snap.Entries); err != nil {
		return err
	}

	t.Clear()
	for _, se := range entries {
		e := &Entry{Key: se.Key, Record: se.Record, AccessTime: se.AccessTime, order: t.next_order}
		t.next_order++
		t.records.Push(e.Key, e)
		t.access.Insert(e.Key, e)
		t.index(e)
	}
	return nil
}

// Snapshot holds every table of a DB at one point in time.
type Snapshot struct {
	Tables pkg.Map[string, TableSnapshot]
}

func (db *DB) Snapshot() (*Snapshot, error) {
	snap := &Snapshot{Tables: pkg.Map[string, TableSnapshot]{}}
	for _, t := range db.Tables() {
		ts, err := t.Snapshot()
		if err != nil {
			return nil, err
		}
		snap.Tables.Set(t.Name, ts)
	}
	return snap, nil
}

// Restore puts every table back to its state in snap. Tables created after
// the snapshot was taken are emptied.
func (db *DB) Restore(snap *Snapshot) error {
	for _, t := range db.Tables() {
		ts, ok := snap.Tables[t.Name]
		if !ok {
			t.Clear()
			continue
		}
		if err := t.Restore(ts); err != nil {
			return err
		}
	}
	return nil
}
