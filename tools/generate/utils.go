package generate

import (
	"strings"
	"unicode"

	"github.com/tobsdb/memdb/internal/props"
	"github.com/tobsdb/memdb/internal/schema"
	"github.com/tobsdb/memdb/internal/types"
)

func toPascalCase(t string) string {
	res := ""
	for _, v := range strings.FieldsFunc(t, func(r rune) bool { return r == '_' || r == '-' }) {
		runes := []rune(v)
		runes[0] = unicode.ToUpper(runes[0])
		res += string(runes)
	}
	return res
}

type (
	ParsedTable struct {
		Name   string        `json:"name"`
		Fields []ParsedField `json:"fields"`
	}

	ParsedField struct {
		Name        string          `json:"name"`
		BuiltinType types.FieldType `json:"type"`
		PrimaryKey  bool            `json:"primaryKey,omitempty"`
		Optional    bool            `json:"optional,omitempty"`
		// element type and depth, only for vectors
		ElemType  types.FieldType `json:"elemType,omitempty"`
		ElemDepth int             `json:"elemDepth,omitempty"`
	}
)

func schemaDestructure(d *schema.Descriptor) []ParsedTable {
	res := []ParsedTable{}
	for _, t := range d.Tables {
		primary_key := map[string]bool{}
		for _, k := range t.PrimaryKey() {
			primary_key[k] = true
		}

		fields := []ParsedField{}
		for _, c := range t.Columns {
			f := ParsedField{
				Name:        c.Name,
				BuiltinType: c.Type,
				PrimaryKey:  primary_key[c.Name],
				Optional:    c.Optional,
			}
			if c.Type == types.FieldTypeVector {
				f.ElemType, f.ElemDepth = types.FieldTypeObject, 1
				if elem, depth, err := props.ParseVectorPropSafe(c.Vector); err == nil {
					f.ElemType, f.ElemDepth = elem, depth
				}
			}
			fields = append(fields, f)
		}
		res = append(res, ParsedTable{t.Name, fields})
	}
	return res
}

// vectorOf wraps elem in depth levels of a list type.
func vectorOf(elem string, depth int, wrap func(string) string) string {
	for i := 0; i < depth; i++ {
		elem = wrap(elem)
	}
	return elem
}
