package store

import (
	"github.com/google/uuid"
	"github.com/tobsdb/memdb/internal/metrics"
	"github.com/tobsdb/memdb/pkg"
)

type ChangeType string

const (
	ChangeInsert ChangeType = "insert"
	ChangeUpdate ChangeType = "update"
	ChangeDelete ChangeType = "delete"
)

// TableChange carries the record as it is after the change; for a delete,
// as it was last stored.
type TableChange struct {
	Type ChangeType `json:"type"`
	Data Record     `json:"data"`
}

// Subscriber receives the changes of one mutating call. The slice is shared
// between subscribers and must not be modified.
type Subscriber func(changes []TableChange)

// Subscribe registers fn for changes to model and returns a function that
// removes it again. Callbacks run synchronously in registration order; a
// panicking callback is logged and skipped.
func (s *Store) Subscribe(model string, fn Subscriber) (unsubscribe func()) {
	subs, ok := s.subscribers[model]
	if !ok {
		subs = pkg.NewInsertSortMap[string, Subscriber]()
		s.subscribers.Set(model, subs)
	}
	id := uuid.New().String()
	subs.Push(id, fn)

	return func() {
		subs, ok := s.subscribers[model]
		if !ok {
			return
		}
		subs.Delete(id)
		if subs.Len() == 0 {
			s.subscribers.Delete(model)
		}
	}
}

// Subscribers is the number of callbacks registered for model.
func (s *Store) Subscribers(model string) int {
	subs, ok := s.subscribers[model]
	if !ok {
		return 0
	}
	return subs.Len()
}

// HasSubscribers reports whether model has a subscriber set at all.
func (s *Store) HasSubscribers(model string) bool {
	return s.subscribers.Has(model)
}

func (s *Store) notify(model string, changes []TableChange) {
	if len(changes) == 0 {
		return
	}
	subs, ok := s.subscribers[model]
	if !ok {
		return
	}
	// callbacks may unsubscribe while we deliver
	for _, fn := range subs.Values() {
		s.deliver(model, fn, changes)
	}
}

func (s *Store) deliver(model string, fn Subscriber, changes []TableChange) {
	defer func() {
		if r := recover(); r != nil {
			metrics.SubscriberPanics.Inc()
			pkg.ErrorLog("subscriber on", model, "panicked:", r)
		}
	}()
	fn(changes)
}
