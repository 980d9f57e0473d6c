package store_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/tobsdb/memdb/internal/query"
	"github.com/tobsdb/memdb/internal/schema"
	. "github.com/tobsdb/memdb/internal/store"
	"gotest.tools/assert"
)

func usersSchema() *schema.Descriptor {
	return &schema.Descriptor{Tables: []*schema.Table{
		{
			Name: "users",
			Columns: schema.Columns{
				{Name: "id", Type: "String", PrimaryKey: true},
				{Name: "email", Type: "String"},
			},
			Constraints: []schema.Constraint{
				{Type: schema.ConstraintIndex, Columns: []string{"email"}},
			},
		},
		{
			Name: "members",
			Constraints: []schema.Constraint{
				{Type: schema.ConstraintPrimaryKey, Columns: []string{"org", "user"}},
				{Type: schema.ConstraintIndex, Columns: []string{"org", "role"}},
			},
		},
	}}
}

func newTestStore() *Store {
	return New(Options{Schema: usersSchema()})
}

func seed(s *Store, model string, n int) {
	for i := 1; i <= n; i++ {
		s.Create(model, Record{"id": i, "name": fmt.Sprintf("user%d", i), "value": i * 10})
	}
}

func ids(records []Record) []any {
	out := []any{}
	for _, r := range records {
		out = append(out, r["id"])
	}
	return out
}

func TestCreate(t *testing.T) {
	t.Run("create a record", func(t *testing.T) {
		s := newTestStore()
		r := s.Create("items", Record{"id": 1, "name": "a"})

		assert.DeepEqual(t, r, Record{"id": 1, "name": "a"})
		assert.Equal(t, s.Count("items", nil), 1)
	})

	t.Run("create overwrites the same slot", func(t *testing.T) {
		s := newTestStore()
		s.Create("items", Record{"id": 1, "name": "a"})
		s.Create("items", Record{"id": 1, "name": "b"})

		assert.Equal(t, s.Count("items", nil), 1)
		assert.Equal(t, s.FindOne("items", query.Where{query.Eq("id", 1)}, nil)["name"], "b")
	})

	t.Run("input is copied", func(t *testing.T) {
		s := newTestStore()
		data := Record{"id": 1, "name": "a"}
		s.Create("items", data)
		data["name"] = "changed"

		assert.Equal(t, s.FindOne("items", query.Where{query.Eq("id", 1)}, nil)["name"], "a")
	})

	t.Run("results are copies", func(t *testing.T) {
		s := newTestStore()
		s.Create("users", Record{"id": "u1", "email": "a@x.com"})
		found := s.FindOne("users", query.Where{query.Eq("id", "u1")}, nil)
		found["email"] = "b@x.com"

		assert.Equal(t, s.Count("users", query.Where{query.Eq("email", "a@x.com")}), 1)
	})

	t.Run("nil data", func(t *testing.T) {
		s := newTestStore()
		r := s.Create("items", nil)
		assert.DeepEqual(t, r, Record{})
		assert.Equal(t, s.Count("items", query.Where{query.Eq("id", nil)}), 1)
	})
}

func TestCreateMany(t *testing.T) {
	t.Run("create multiple records in batch", func(t *testing.T) {
		s := newTestStore()
		created := s.CreateMany("items", []Record{{"id": 1}, {"id": 2}, {"id": 3}})

		assert.DeepEqual(t, ids(created), []any{1, 2, 3})
		assert.Equal(t, s.Count("items", nil), 3)
	})

	t.Run("empty batch", func(t *testing.T) {
		s := newTestStore()
		assert.DeepEqual(t, s.CreateMany("items", []Record{}), []Record{})
	})
}

func TestInsertStrict(t *testing.T) {
	t.Run("insert into a free slot", func(t *testing.T) {
		s := newTestStore()
		r, err := s.InsertStrict("users", Record{"id": "u1", "email": "a@x.com"})

		assert.NilError(t, err)
		assert.Equal(t, r["email"], "a@x.com")
	})

	t.Run("duplicate key", func(t *testing.T) {
		s := newTestStore()
		s.Create("users", Record{"id": "u1", "email": "a@x.com"})

		_, err := s.InsertStrict("users", Record{"id": "u1", "email": "b@x.com"})
		assert.Assert(t, errors.Is(err, ErrDuplicateKey))
		assert.Equal(t, ErrDuplicateKey.Status(), 409)

		found := s.FindOne("users", query.Where{query.Eq("id", "u1")}, nil)
		assert.Equal(t, found["email"], "a@x.com")
	})

	t.Run("composite key", func(t *testing.T) {
		s := newTestStore()
		_, err := s.InsertStrict("members", Record{"org": "o1", "user": 1})
		assert.NilError(t, err)
		_, err = s.InsertStrict("members", Record{"org": "o1", "user": 2})
		assert.NilError(t, err)
		_, err = s.InsertStrict("members", Record{"org": "o1", "user": 1, "role": "x"})
		assert.ErrorContains(t, err, "Primary key already exists")
	})
}

func TestFindOne(t *testing.T) {
	t.Run("find a record by field", func(t *testing.T) {
		s := newTestStore()
		seed(s, "items", 3)

		r := s.FindOne("items", query.Where{query.Eq("name", "user2")}, nil)
		assert.Equal(t, r["id"], 2)
	})

	t.Run("nil for non-existent record", func(t *testing.T) {
		s := newTestStore()
		seed(s, "items", 3)

		assert.Assert(t, s.FindOne("items", query.Where{query.Eq("id", 99)}, nil) == nil)
	})

	t.Run("multiple where clauses", func(t *testing.T) {
		s := newTestStore()
		seed(s, "items", 3)

		r := s.FindOne("items", query.Where{query.Eq("name", "user2"), query.Eq("value", 20)}, nil)
		assert.Equal(t, r["id"], 2)
		r = s.FindOne("items", query.Where{query.Eq("name", "user2"), query.Eq("value", 30)}, nil)
		assert.Assert(t, r == nil)
	})

	t.Run("primary key match is checked against other clauses", func(t *testing.T) {
		s := newTestStore()
		seed(s, "items", 3)

		r := s.FindOne("items", query.Where{query.Eq("id", 1), query.Eq("name", "user2")}, nil)
		assert.Assert(t, r == nil)
	})

	t.Run("primary key lookup is typed", func(t *testing.T) {
		s := newTestStore()
		seed(s, "items", 3)

		assert.Assert(t, s.FindOne("items", query.Where{query.Eq("id", "1")}, nil) == nil)
		assert.Assert(t, s.FindOne("items", query.Where{query.Eq("id", 1.0)}, nil) != nil)
	})

	t.Run("does not create join tables", func(t *testing.T) {
		s := newTestStore()
		seed(s, "items", 1)

		s.FindOne("items", nil, query.JoinOptions{"missing": {}})
		for _, st := range s.Stats() {
			assert.Assert(t, st.Name != "missing")
		}
	})
}

func TestFindMany(t *testing.T) {
	t.Run("find all records", func(t *testing.T) {
		s := newTestStore()
		seed(s, "items", 5)
		assert.DeepEqual(t, ids(s.FindMany("items", FindArgs{})), []any{1, 2, 3, 4, 5})
	})

	t.Run("filter with where clause", func(t *testing.T) {
		s := newTestStore()
		seed(s, "items", 5)
		found := s.FindMany("items", FindArgs{Where: query.Where{{Field: "value", Operator: query.OpGt, Value: 30}}})
		assert.DeepEqual(t, ids(found), []any{4, 5})
	})

	t.Run("limit", func(t *testing.T) {
		s := newTestStore()
		seed(s, "items", 5)
		assert.DeepEqual(t, ids(s.FindMany("items", FindArgs{Limit: 2})), []any{1, 2})
	})

	t.Run("offset", func(t *testing.T) {
		s := newTestStore()
		seed(s, "items", 5)
		assert.DeepEqual(t, ids(s.FindMany("items", FindArgs{Offset: 3})), []any{4, 5})
	})

	t.Run("limit and offset together", func(t *testing.T) {
		s := newTestStore()
		seed(s, "items", 5)
		assert.DeepEqual(t, ids(s.FindMany("items", FindArgs{Limit: 2, Offset: 1})), []any{2, 3})
	})

	t.Run("sort ascending", func(t *testing.T) {
		s := newTestStore()
		s.CreateMany("items", []Record{{"id": 1, "n": 3}, {"id": 2, "n": 1}, {"id": 3, "n": 2}})
		found := s.FindMany("items", FindArgs{SortBy: &query.SortBy{Field: "n", Direction: query.SortAsc}})
		assert.DeepEqual(t, ids(found), []any{2, 3, 1})
	})

	t.Run("sort descending then paginate", func(t *testing.T) {
		s := newTestStore()
		s.CreateMany("items", []Record{{"id": 1, "n": 3}, {"id": 2, "n": 1}, {"id": 3, "n": 2}})
		found := s.FindMany("items", FindArgs{
			SortBy: &query.SortBy{Field: "n", Direction: query.SortDesc},
			Limit:  2,
		})
		assert.DeepEqual(t, ids(found), []any{1, 3})
	})

	t.Run("empty model", func(t *testing.T) {
		s := newTestStore()
		assert.DeepEqual(t, s.FindMany("nothing", FindArgs{}), []Record{})
	})
}

func TestCountExists(t *testing.T) {
	s := newTestStore()
	seed(s, "items", 5)

	t.Run("count all", func(t *testing.T) {
		assert.Equal(t, s.Count("items", nil), 5)
	})

	t.Run("count with where", func(t *testing.T) {
		assert.Equal(t, s.Count("items", query.Where{{Field: "value", Operator: query.OpLte, Value: 20}}), 2)
	})

	t.Run("count empty model", func(t *testing.T) {
		assert.Equal(t, s.Count("nothing", nil), 0)
	})

	t.Run("exists", func(t *testing.T) {
		assert.Assert(t, s.Exists("items", query.Where{query.Eq("name", "user3")}))
		assert.Assert(t, !s.Exists("items", query.Where{query.Eq("name", "nobody")}))
	})

	t.Run("exists with complex where", func(t *testing.T) {
		where := query.Where{
			query.Eq("name", "nobody"),
			{Field: "value", Operator: query.OpGte, Value: 50, Connector: query.ConnectorOr},
		}
		assert.Assert(t, s.Exists("items", where))
	})
}

func TestUpdate(t *testing.T) {
	t.Run("update a record", func(t *testing.T) {
		s := newTestStore()
		seed(s, "items", 3)

		r := s.Update("items", query.Where{query.Eq("id", 2)}, Record{"name": "changed"})
		assert.DeepEqual(t, r, Record{"id": 2, "name": "changed", "value": 20})
	})

	t.Run("nil when nothing matches", func(t *testing.T) {
		s := newTestStore()
		seed(s, "items", 3)
		assert.Assert(t, s.Update("items", query.Where{query.Eq("id", 9)}, Record{"name": "x"}) == nil)
	})

	t.Run("update only the matching record", func(t *testing.T) {
		s := newTestStore()
		seed(s, "items", 3)
		s.Update("items", query.Where{query.Eq("name", "user1")}, Record{"value": 0})

		assert.Equal(t, s.FindOne("items", query.Where{query.Eq("id", 2)}, nil)["value"], 20)
		assert.Equal(t, s.FindOne("items", query.Where{query.Eq("id", 1)}, nil)["value"], 0)
	})

	t.Run("primary key change moves the record", func(t *testing.T) {
		s := newTestStore()
		seed(s, "items", 3)

		var changes []TableChange
		s.Subscribe("items", func(c []TableChange) { changes = c })

		r := s.Update("items", query.Where{query.Eq("id", 1)}, Record{"id": 3})
		assert.Equal(t, r["name"], "user1")
		assert.Equal(t, s.Count("items", nil), 2)
		assert.Assert(t, s.FindOne("items", query.Where{query.Eq("id", 1)}, nil) == nil)
		assert.Equal(t, s.FindOne("items", query.Where{query.Eq("id", 3)}, nil)["name"], "user1")

		assert.Equal(t, len(changes), 2)
		assert.Equal(t, changes[0].Type, ChangeDelete)
		assert.Equal(t, changes[0].Data["name"], "user3")
		assert.Equal(t, changes[1].Type, ChangeUpdate)
	})
}

func TestUpsert(t *testing.T) {
	t.Run("create when missing", func(t *testing.T) {
		s := newTestStore()
		r := s.Upsert("items", query.Where{query.Eq("id", 1)}, Record{"id": 1, "name": "new"}, Record{"name": "updated"})

		assert.DeepEqual(t, r, Record{"id": 1, "name": "new"})
		assert.Equal(t, s.Count("items", nil), 1)
	})

	t.Run("update when present", func(t *testing.T) {
		s := newTestStore()
		seed(s, "items", 1)
		r := s.Upsert("items", query.Where{query.Eq("id", 1)}, Record{"id": 1, "name": "new"}, Record{"name": "updated"})

		assert.Equal(t, r["name"], "updated")
		assert.Equal(t, r["value"], 10)
	})

	t.Run("other records untouched", func(t *testing.T) {
		s := newTestStore()
		seed(s, "items", 2)
		s.Upsert("items", query.Where{query.Eq("id", 1)}, Record{"id": 1}, Record{"name": "updated"})

		assert.Equal(t, s.FindOne("items", query.Where{query.Eq("id", 2)}, nil)["name"], "user2")
	})
}

func TestUpdateMany(t *testing.T) {
	t.Run("update multiple records", func(t *testing.T) {
		s := newTestStore()
		seed(s, "items", 5)

		n := s.UpdateMany("items", query.Where{{Field: "value", Operator: query.OpGte, Value: 30}}, Record{"flag": true})
		assert.Equal(t, n, 3)
		assert.Equal(t, s.Count("items", query.Where{query.Eq("flag", true)}), 3)
	})

	t.Run("zero when nothing matches", func(t *testing.T) {
		s := newTestStore()
		seed(s, "items", 2)
		assert.Equal(t, s.UpdateMany("items", query.Where{query.Eq("id", 9)}, Record{"flag": true}), 0)
	})
}

func TestDelete(t *testing.T) {
	t.Run("delete a record", func(t *testing.T) {
		s := newTestStore()
		seed(s, "items", 3)
		s.Delete("items", query.Where{query.Eq("id", 2)})

		assert.DeepEqual(t, ids(s.FindMany("items", FindArgs{})), []any{1, 3})
	})

	t.Run("delete only the first match", func(t *testing.T) {
		s := newTestStore()
		seed(s, "items", 3)
		s.Delete("items", query.Where{{Field: "value", Operator: query.OpGt, Value: 0}})

		assert.DeepEqual(t, ids(s.FindMany("items", FindArgs{})), []any{2, 3})
	})

	t.Run("non-existent record", func(t *testing.T) {
		s := newTestStore()
		seed(s, "items", 1)
		s.Delete("items", query.Where{query.Eq("id", 9)})
		assert.Equal(t, s.Count("items", nil), 1)
	})

	t.Run("delete many", func(t *testing.T) {
		s := newTestStore()
		seed(s, "items", 5)
		n := s.DeleteMany("items", query.Where{{Field: "value", Operator: query.OpIn, Value: []any{10, 30, 50}}})

		assert.Equal(t, n, 3)
		assert.DeepEqual(t, ids(s.FindMany("items", FindArgs{})), []any{2, 4})
	})

	t.Run("delete many without matches", func(t *testing.T) {
		s := newTestStore()
		seed(s, "items", 2)
		assert.Equal(t, s.DeleteMany("items", query.Where{query.Eq("id", 9)}), 0)
	})
}

func TestClear(t *testing.T) {
	t.Run("delete all records", func(t *testing.T) {
		s := newTestStore()
		seed(s, "items", 3)
		assert.Equal(t, s.Clear("items"), 3)
		assert.Equal(t, s.Count("items", nil), 0)
	})

	t.Run("empty table", func(t *testing.T) {
		s := newTestStore()
		assert.Equal(t, s.Clear("items"), 0)
	})

	t.Run("other tables untouched", func(t *testing.T) {
		s := newTestStore()
		seed(s, "items", 3)
		seed(s, "other", 2)
		s.Clear("items")
		assert.Equal(t, s.Count("other", nil), 2)
	})
}

func TestStats(t *testing.T) {
	s := newTestStore()
	seed(s, "users", 2)
	s.Count("members", nil)

	assert.DeepEqual(t, s.Stats(), []TableStats{
		{Name: "users", Records: 2, PrimaryKey: []string{"id"}, Indexes: []string{"email"}},
		{Name: "members", Records: 0, PrimaryKey: []string{"org", "user"}, Indexes: []string{"org,role"}},
	})
}

func TestSharedDB(t *testing.T) {
	a := newTestStore()
	b := NewWithDB(a.DB(), Options{MaxEntries: 2, Eviction: EvictionFIFO})

	seed(a, "items", 2)
	assert.Equal(t, b.Count("items", nil), 2)

	b.Create("items", Record{"id": 3})
	assert.Equal(t, a.Count("items", nil), 2)
	assert.Equal(t, a.Options().Eviction, EvictionLRU)
}
