package builder

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/tobsdb/memdb/internal/schema"
	"github.com/tobsdb/memdb/pkg"
)

// DB is the shared set of tables. Several stores may wrap one DB and see
// the same records under different eviction settings.
type DB struct {
	locker sync.RWMutex
	tables *pkg.InsertSortMap[string, *Table]

	last_tick atomic.Int64
}

func NewDB() *DB {
	return &DB{tables: pkg.NewInsertSortMap[string, *Table]()}
}

func (db *DB) GetLocker() *sync.RWMutex { return &db.locker }

// Now returns a strictly increasing access timestamp in unix nanoseconds.
func (db *DB) Now() int64 {
	for {
		last := db.last_tick.Load()
		next := time.Now().UnixNano()
		if next <= last {
			next = last + 1
		}
		if db.last_tick.CompareAndSwap(last, next) {
			return next
		}
	}
}

func (db *DB) Table(name string) (*Table, bool) {
	db.locker.RLock()
	defer db.locker.RUnlock()
	t := db.tables.Get(name)
	return t, t != nil
}

// EnsureTable returns the table for name, creating it from desc the first
// time. created reports whether this call made it.
func (db *DB) EnsureTable(name string, desc *schema.Descriptor) (t *Table, created bool) {
	db.locker.Lock()
	defer db.locker.Unlock()

	if t := db.tables.Get(name); t != nil {
		return t, false
	}

	t = newTable(db, name, desc.PrimaryKey(name), desc.Indexes(name))
	db.tables.Push(name, t)
	pkg.DebugLog("created table", name, "primary key", t.PrimaryKey, "indexes", t.IndexNames())
	return t, true
}

// Tables lists tables in creation order.
func (db *DB) Tables() []*Table {
	db.locker.RLock()
	defer db.locker.RUnlock()
	return db.tables.Values()
}

func (db *DB) TableNames() []string {
	db.locker.RLock()
	defer db.locker.RUnlock()
	return db.tables.Keys()
}
