package builder

import (
	"fmt"

	sorted "github.com/tobshub/go-sortedmap"
)

type EvictionPolicy string

const (
	EvictionLRU  EvictionPolicy = "lru"
	EvictionFIFO EvictionPolicy = "fifo"
)

func ParseEvictionPolicy(s string) (EvictionPolicy, error) {
	switch p := EvictionPolicy(s); p {
	case "", EvictionLRU:
		return EvictionLRU, nil
	case EvictionFIFO:
		return EvictionFIFO, nil
	default:
		return "", fmt.Errorf("Invalid eviction policy: %s", s)
	}
}

// Evict removes records until at most max remain and returns them in the
// order they were removed. lru removes the least recently accessed first,
// fifo the earliest inserted. max <= 0 disables eviction.
func (t *Table) Evict(max int, policy EvictionPolicy) []Record {
	over := t.Len() - max
	if max <= 0 || over <= 0 {
		return nil
	}

	var victims []string
	if policy == EvictionFIFO {
		victims = t.records.Keys()[:over]
	} else {
		victims = t.oldestAccessed(over)
	}

	evicted := make([]Record, 0, len(victims))
	for _, key := range victims {
		if r, ok := t.Remove(key); ok {
			evicted = append(evicted, r)
		}
	}
	return evicted
}

// oldestAccessed collects the keys before anything is removed: the access
// map must not change while it is walked.
func (t *Table) oldestAccessed(n int) []string {
	keys := make([]string, 0, n)
	t.access.IterFunc(false, func(rec sorted.Record[string, *Entry]) bool {
		keys = append(keys, rec.Key)
		return len(keys) < n
	})
	return keys
}
