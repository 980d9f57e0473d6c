package parser_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/tobsdb/memdb/internal/parser"
	"github.com/tobsdb/memdb/internal/schema"
	"gotest.tools/assert"
)

const users_schema = `
$TABLE org {
	id Int key(primary)
	name String
}

$TABLE user {
	org_id Int relation(org.id) index(true)
	email  String unique(true)
	name   String optional(true)
	$PRIMARY org_id, email
	$INDEX org_id, name
}
`

func TestParseSchema(t *testing.T) {
	t.Run("tables and keys", func(t *testing.T) {
		desc, err := ParseSchema(users_schema)

		assert.NilError(t, err)
		assert.Equal(t, len(desc.Tables), 2)
		assert.DeepEqual(t, desc.PrimaryKey("org"), []string{"id"})
		assert.DeepEqual(t, desc.PrimaryKey("user"), []string{"org_id", "email"})
	})

	t.Run("indexes", func(t *testing.T) {
		desc, err := ParseSchema(users_schema)

		assert.NilError(t, err)
		assert.DeepEqual(t, desc.Indexes("user"), [][]string{{"org_id"}, {"email"}, {"org_id", "name"}})
		assert.DeepEqual(t, desc.Indexes("org"), [][]string{})
	})

	t.Run("column flags", func(t *testing.T) {
		desc, err := ParseSchema(users_schema)
		assert.NilError(t, err)

		col, ok := desc.Table("user").Columns.Get("name")
		assert.Assert(t, ok)
		assert.Assert(t, col.Optional)

		unique := false
		for _, c := range desc.Table("user").Constraints {
			if c.Name == "email" && c.Type == schema.ConstraintIndex {
				unique = c.Unique
			}
		}
		assert.Assert(t, unique)
	})

	t.Run("duplicate table", func(t *testing.T) {
		_, err := ParseSchema("$TABLE a {\n}\n$TABLE a {\n}")

		assert.ErrorContains(t, err, "Duplicate table a")
	})

	t.Run("duplicate field", func(t *testing.T) {
		_, err := ParseSchema("$TABLE a {\nb Int\nb String\n}")

		assert.ErrorContains(t, err, "Error parsing line 3: Duplicate field b")
	})

	t.Run("unknown relation", func(t *testing.T) {
		_, err := ParseSchema("$TABLE a {\nb Int relation(c.id)\n}")

		assert.ErrorContains(t, err, `"c" is not a valid table`)
	})

	t.Run("unclosed table", func(t *testing.T) {
		_, err := ParseSchema("$TABLE a {\nb Int")

		assert.ErrorContains(t, err, "table a is not closed")
	})

	t.Run("field outside table", func(t *testing.T) {
		_, err := ParseSchema("b Int")

		assert.ErrorContains(t, err, "Error parsing line 1: field b is outside a table")
	})
}

func TestLoadSchemaFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("dsl file", func(t *testing.T) {
		path := filepath.Join(dir, "schema.tdb")
		assert.NilError(t, os.WriteFile(path, []byte(users_schema), 0o644))

		desc, err := LoadSchemaFile(path)

		assert.NilError(t, err)
		assert.DeepEqual(t, desc.PrimaryKey("user"), []string{"org_id", "email"})
	})

	t.Run("yaml file", func(t *testing.T) {
		path := filepath.Join(dir, "schema.yaml")
		data := "name: app\nversion: 1\ntables:\n  - name: user\n    columns:\n      email:\n        type: String\n        primaryKey: true\n"
		assert.NilError(t, os.WriteFile(path, []byte(data), 0o644))

		desc, err := LoadSchemaFile(path)

		assert.NilError(t, err)
		assert.DeepEqual(t, desc.PrimaryKey("user"), []string{"email"})
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadSchemaFile(filepath.Join(dir, "missing.tdb"))

		assert.ErrorContains(t, err, "reading schema")
	})
}
