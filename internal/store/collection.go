package store

import (
	"github.com/goccy/go-json"
	"github.com/tobsdb/memdb/internal/query"
)

// Collection is a typed view of one model. Values convert to and from
// records through their JSON encoding, so field names follow json tags and
// numbers are stored as float64.
type Collection[T any] struct {
	store *Store
	model string
}

func NewCollection[T any](s *Store, model string) *Collection[T] {
	return &Collection[T]{store: s, model: model}
}

func (c *Collection[T]) Model() string { return c.model }

func toRecord(v any) (Record, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	r := Record{}
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return r, nil
}

func fromRecord[T any](r Record) (T, error) {
	var v T
	data, err := json.Marshal(r)
	if err != nil {
		return v, err
	}
	err = json.Unmarshal(data, &v)
	return v, err
}

func fromRecords[T any](records []Record) ([]T, error) {
	out := make([]T, 0, len(records))
	for _, r := range records {
		v, err := fromRecord[T](r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (c *Collection[T]) Create(v T) (T, error) {
	r, err := toRecord(v)
	if err != nil {
		var zero T
		return zero, err
	}
	return fromRecord[T](c.store.Create(c.model, r))
}

func (c *Collection[T]) InsertStrict(v T) (T, error) {
	var zero T
	r, err := toRecord(v)
	if err != nil {
		return zero, err
	}
	created, err := c.store.InsertStrict(c.model, r)
	if err != nil {
		return zero, err
	}
	return fromRecord[T](created)
}

// FindOne returns nil when nothing matches.
func (c *Collection[T]) FindOne(where query.Where) (*T, error) {
	r := c.store.FindOne(c.model, where, nil)
	if r == nil {
		return nil, nil
	}
	v, err := fromRecord[T](r)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *Collection[T]) FindMany(args FindArgs) ([]T, error) {
	return fromRecords[T](c.store.FindMany(c.model, args))
}

func (c *Collection[T]) Count(where query.Where) int {
	return c.store.Count(c.model, where)
}

// Update applies patch, any value with a JSON object encoding, to the first
// match. It returns nil when nothing matches.
func (c *Collection[T]) Update(where query.Where, patch any) (*T, error) {
	r, err := toRecord(patch)
	if err != nil {
		return nil, err
	}
	updated := c.store.Update(c.model, where, r)
	if updated == nil {
		return nil, nil
	}
	v, err := fromRecord[T](updated)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *Collection[T]) Upsert(where query.Where, create T, patch any) (T, error) {
	var zero T
	cr, err := toRecord(create)
	if err != nil {
		return zero, err
	}
	ur, err := toRecord(patch)
	if err != nil {
		return zero, err
	}
	return fromRecord[T](c.store.Upsert(c.model, where, cr, ur))
}

func (c *Collection[T]) Delete(where query.Where) {
	c.store.Delete(c.model, where)
}

func (c *Collection[T]) DeleteMany(where query.Where) int {
	return c.store.DeleteMany(c.model, where)
}

type Change[T any] struct {
	Type ChangeType
	Data T
}

// Subscribe delivers changes decoded into T. Records that fail to decode
// are skipped.
func (c *Collection[T]) Subscribe(fn func([]Change[T])) (unsubscribe func()) {
	return c.store.Subscribe(c.model, func(changes []TableChange) {
		typed := make([]Change[T], 0, len(changes))
		for _, ch := range changes {
			v, err := fromRecord[T](ch.Data)
			if err != nil {
				continue
			}
			typed = append(typed, Change[T]{Type: ch.Type, Data: v})
		}
		fn(typed)
	})
}
