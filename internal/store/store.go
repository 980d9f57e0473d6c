// Package store is the storage operations contract over a builder.DB:
// lookups, writes, joins, eviction, transactions and change subscriptions.
//
// A Store does no locking. Callers sharing one across goroutines serialize
// their own access.
package store

import (
	"net/http"

	"github.com/tobsdb/memdb/internal/builder"
	"github.com/tobsdb/memdb/internal/metrics"
	"github.com/tobsdb/memdb/internal/query"
	"github.com/tobsdb/memdb/internal/schema"
	"github.com/tobsdb/memdb/pkg"
)

type (
	Record         = builder.Record
	EvictionPolicy = builder.EvictionPolicy
)

const (
	EvictionLRU  = builder.EvictionLRU
	EvictionFIFO = builder.EvictionFIFO
)

// ErrDuplicateKey is returned by InsertStrict when the primary key slot is
// taken.
var ErrDuplicateKey = query.NewQueryError(http.StatusConflict, "Primary key already exists")

type Options struct {
	// MaxEntries bounds every table's size; <= 0 means unbounded.
	MaxEntries int
	// Eviction defaults to lru.
	Eviction EvictionPolicy
	Schema   *schema.Descriptor
}

type Store struct {
	db      *builder.DB
	options Options

	// model -> subscription id -> callback
	subscribers pkg.Map[string, *pkg.InsertSortMap[string, Subscriber]]
}

// New creates a store over a fresh database.
func New(options Options) *Store {
	return NewWithDB(builder.NewDB(), options)
}

// NewWithDB wraps db, which may be shared with other stores. Each store
// keeps its own options and subscribers.
func NewWithDB(db *builder.DB, options Options) *Store {
	if len(options.Eviction) == 0 {
		options.Eviction = EvictionLRU
	}
	return &Store{
		db:          db,
		options:     options,
		subscribers: pkg.Map[string, *pkg.InsertSortMap[string, Subscriber]]{},
	}
}

func (s *Store) DB() *builder.DB { return s.db }

func (s *Store) Options() Options { return s.options }

func (s *Store) table(model string) *builder.Table {
	t, _ := s.db.EnsureTable(model, s.options.Schema)
	return t
}

// resolve finds the entries matching where: by primary key when every key
// field has a necessary eq clause, then by the best covering index, then by
// scanning. Candidates are always checked against the whole predicate, so
// the path taken never changes the result. first stops at one match.
func (s *Store) resolve(t *builder.Table, where query.Where, first bool) []*builder.Entry {
	eq := where.EqValues()

	if key, ok := t.KeyFromEq(eq); ok {
		e, found := t.Get(key)
		if !found || !where.Match(e.Record) {
			return nil
		}
		return []*builder.Entry{e}
	}

	var candidates []*builder.Entry
	if idx := t.BestIndex(eq); idx != nil {
		candidates = t.EntriesFor(idx.Lookup(eq))
	} else {
		candidates = t.Entries()
	}

	matched := []*builder.Entry{}
	for _, e := range candidates {
		if !where.Match(e.Record) {
			continue
		}
		matched = append(matched, e)
		if first {
			break
		}
	}
	return matched
}

func (s *Store) resolveFirst(t *builder.Table, where query.Where) *builder.Entry {
	found := s.resolve(t, where, true)
	if len(found) == 0 {
		return nil
	}
	return found[0]
}

func (s *Store) enforceMaxEntries(model string, t *builder.Table) {
	evicted := t.Evict(s.options.MaxEntries, s.options.Eviction)
	if len(evicted) == 0 {
		return
	}

	metrics.ObserveEvictions(model, string(s.options.Eviction), len(evicted))
	pkg.DebugLog("evicted", len(evicted), "records from", model)

	changes := make([]TableChange, len(evicted))
	for i, r := range evicted {
		changes[i] = TableChange{Type: ChangeDelete, Data: r.Clone()}
	}
	s.notify(model, changes)
}

type TableStats struct {
	Name       string   `json:"name"`
	Records    int      `json:"records"`
	PrimaryKey []string `json:"primaryKey"`
	Indexes    []string `json:"indexes"`
}

// Stats describes every table in creation order.
func (s *Store) Stats() []TableStats {
	stats := []TableStats{}
	for _, t := range s.db.Tables() {
		stats = append(stats, TableStats{
			Name:       t.Name,
			Records:    t.Len(),
			PrimaryKey: t.PrimaryKey,
			Indexes:    t.IndexNames(),
		})
	}
	return stats
}
