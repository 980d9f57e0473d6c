package store

import (
	"github.com/tobsdb/memdb/internal/builder"
	"github.com/tobsdb/memdb/internal/metrics"
	"github.com/tobsdb/memdb/internal/query"
)

type FindArgs struct {
	Where  query.Where       `json:"where,omitempty"`
	SortBy *query.SortBy     `json:"sortBy,omitempty"`
	Limit  int               `json:"limit,omitempty"`
	Offset int               `json:"offset,omitempty"`
	Join   query.JoinOptions `json:"join,omitempty"`
}

// FindOne returns the first match or nil. The match counts as accessed.
func (s *Store) FindOne(model string, where query.Where, join query.JoinOptions) Record {
	metrics.ObserveOperation(model, "findOne")
	t := s.table(model)

	e := s.resolveFirst(t, where)
	if e == nil {
		return nil
	}
	t.Touch(e)

	return s.applyJoins([]Record{e.Record}, join)[0]
}

// FindMany returns every match, sorted then paginated. All matches count as
// accessed, including the ones pagination drops.
func (s *Store) FindMany(model string, args FindArgs) []Record {
	metrics.ObserveOperation(model, "findMany")
	t := s.table(model)

	found := s.resolve(t, args.Where, false)
	records := make([]Record, len(found))
	for i, e := range found {
		t.Touch(e)
		records[i] = e.Record
	}

	records = query.SortRecords(records, args.SortBy)
	records = query.Paginate(records, args.Limit, args.Offset)
	return s.applyJoins(records, args.Join)
}

func (s *Store) Count(model string, where query.Where) int {
	metrics.ObserveOperation(model, "count")
	return len(s.resolve(s.table(model), where, false))
}

func (s *Store) Exists(model string, where query.Where) bool {
	metrics.ObserveOperation(model, "exists")
	return s.resolveFirst(s.table(model), where) != nil
}

// applyJoins copies records and attaches the joined records of every table
// in join. Joined tables are scanned and never created.
func (s *Store) applyJoins(records []Record, join query.JoinOptions) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	if len(join) == 0 {
		return out
	}

	for join_model, raw := range join {
		config := raw.Normalize(join_model)
		join_table, ok := s.db.Table(join_model)

		for i, r := range out {
			if !ok {
				r[join_model] = emptyJoin(config)
				continue
			}
			// the parent value, even if an earlier join reused its field name
			r[join_model] = s.joinRecords(join_table, records[i][config.On.From], config)
		}
	}
	return out
}

func emptyJoin(config query.JoinConfig) any {
	if config.Relation == query.RelationOneToOne {
		return nil
	}
	return []Record{}
}

func (s *Store) joinRecords(t *builder.Table, local any, config query.JoinConfig) any {
	limit := config.Limit
	if config.Relation == query.RelationOneToOne {
		limit = 1
	}

	matches := []Record{}
	for _, e := range t.Entries() {
		if len(matches) >= limit {
			break
		}
		if query.Equal(e.Record[config.On.To], local) {
			matches = append(matches, copyRecord(e.Record))
		}
	}

	if config.Relation == query.RelationOneToOne {
		if len(matches) == 0 {
			return nil
		}
		return matches[0]
	}
	return matches
}
