package generate_test

import (
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/tobsdb/memdb/internal/parser"
	"github.com/tobsdb/memdb/internal/schema"
	gen "github.com/tobsdb/memdb/tools/generate"
	"gotest.tools/assert"
)

func createSimpleSchema() *schema.Descriptor {
	desc, err := parser.ParseSchema(`
$TABLE user_account {
    id      Int key(primary)
    name    String optional(true)
    joined  Date
    tags    Vector vector(String)
    grid    Vector vector(Int, 2)
    meta    Object
}`)
	if err != nil {
		panic(err)
	}
	return desc
}

// squash drops formatting so tests don't depend on column alignment.
func squash(s string) string { return strings.Join(strings.Fields(s), " ") }

func TestSimpleSchemaToGo(t *testing.T) {
	res, err := gen.SchemaToLang(createSimpleSchema(), "go")
	assert.NilError(t, err)

	assert.Equal(t, squash(string(res)), squash(`// Code generated by tdb-mem generate. DO NOT EDIT.

package schema

import "time"

const UserAccountModel = "user_account"

type UserAccount struct {
	Id     int            `+"`json:\"id\"`"+`
	Name   *string        `+"`json:\"name,omitempty\"`"+`
	Joined time.Time      `+"`json:\"joined\"`"+`
	Tags   []string       `+"`json:\"tags\"`"+`
	Grid   [][]int        `+"`json:\"grid\"`"+`
	Meta   map[string]any `+"`json:\"meta\"`"+`
}
`))
}

func TestSchemaToGoPackage(t *testing.T) {
	desc := &schema.Descriptor{Tables: []*schema.Table{
		{Name: "items", Columns: schema.Columns{{Name: "id", Type: "String"}}},
	}}
	res, err := gen.SchemaToGo([]gen.ParsedTable{{Name: desc.Tables[0].Name, Fields: []gen.ParsedField{
		{Name: "id", BuiltinType: "String"},
	}}}, "models")
	assert.NilError(t, err)
	assert.Assert(t, strings.Contains(string(res), "package models"))
	assert.Assert(t, !strings.Contains(string(res), "import"))

	_, err = gen.SchemaToGo(nil, "1bad")
	assert.Assert(t, err != nil)
}

func TestSimpleSchemaToTypescript(t *testing.T) {
	res, err := gen.SchemaToLang(createSimpleSchema(), "ts")
	assert.NilError(t, err)

	assert.Equal(t, string(res), "export type UserAccount = {\n"+
		"\tid: number;\n"+
		"\tname?: string;\n"+
		"\tjoined: string;\n"+
		"\ttags: string[];\n"+
		"\tgrid: number[][];\n"+
		"\tmeta: Record<string, unknown>;\n"+
		"};\n\n"+
		"export type Schema = {\n"+
		"\tuser_account: UserAccount;\n"+
		"};\n")
}

func TestSimpleSchemaToRust(t *testing.T) {
	res, err := gen.SchemaToLang(createSimpleSchema(), "rs")
	assert.NilError(t, err)

	assert.Equal(t, string(res), "use serde::{Deserialize, Serialize};\n"+
		"\n#[derive(Debug, Clone, Serialize, Deserialize)]\npub struct UserAccount {\n"+
		"\tpub id: i64,\n"+
		"\t#[serde(skip_serializing_if = \"Option::is_none\")]\n"+
		"\tpub name: Option<String>,\n"+
		"\tpub joined: String,\n"+
		"\tpub tags: Vec<String>,\n"+
		"\tpub grid: Vec<Vec<i64>>,\n"+
		"\tpub meta: serde_json::Value,\n"+
		"}\n")
}

func TestSchemaToJson(t *testing.T) {
	res, err := gen.SchemaToLang(createSimpleSchema(), "json")
	assert.NilError(t, err)

	var tables []gen.ParsedTable
	assert.NilError(t, json.Unmarshal(res, &tables))
	assert.Equal(t, len(tables), 1)
	assert.Equal(t, tables[0].Fields[0].PrimaryKey, true)
	assert.Equal(t, tables[0].Fields[4].ElemDepth, 2)
}

func TestUnsupportedLang(t *testing.T) {
	_, err := gen.SchemaToLang(createSimpleSchema(), "cobol")
	assert.ErrorContains(t, err, "Unsupported Language: cobol")
}
