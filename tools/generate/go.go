package generate

import (
	"fmt"
	"go/format"
	"strings"

	"github.com/tobsdb/memdb/internal/types"
)

// SchemaToGo writes one struct per table, json-tagged with the column names
// so the structs work with store.Collection, and a model name constant next
// to each.
func SchemaToGo(s []ParsedTable, package_name string) ([]byte, error) {
	body := ""
	uses_time := false
	for _, t := range s {
		name := toPascalCase(t.Name)
		body += fmt.Sprintf("\nconst %sModel = %q\n", name, t.Name)
		body += fmt.Sprintf("\ntype %s struct {\n", name)
		for _, f := range t.Fields {
			go_type := tdbTypeToGo(f.BuiltinType, f.ElemType, f.ElemDepth)
			if strings.Contains(go_type, "time.Time") {
				uses_time = true
			}
			tag := f.Name
			if f.Optional {
				tag += ",omitempty"
				if isGoScalar(f.BuiltinType) {
					go_type = "*" + go_type
				}
			}
			body += fmt.Sprintf("\t%s %s `json:%q`\n", toPascalCase(f.Name), go_type, tag)
		}
		body += "}\n"
	}

	res := fmt.Sprintf("// Code generated by tdb-mem generate. DO NOT EDIT.\n\npackage %s\n", package_name)
	if uses_time {
		res += "\nimport \"time\"\n"
	}
	res += body

	return format.Source([]byte(res))
}

func isGoScalar(t types.FieldType) bool {
	switch t {
	case types.FieldTypeVector, types.FieldTypeBytes, types.FieldTypeObject:
		return false
	default:
		return true
	}
}

func tdbTypeToGo(t types.FieldType, elem types.FieldType, depth int) string {
	switch t {
	case types.FieldTypeInt:
		return "int"
	case types.FieldTypeFloat:
		return "float64"
	case types.FieldTypeString:
		return "string"
	case types.FieldTypeBool:
		return "bool"
	case types.FieldTypeDate:
		return "time.Time"
	case types.FieldTypeBytes:
		return "[]byte"
	case types.FieldTypeVector:
		return vectorOf(tdbTypeToGo(elem, "", 0), depth, func(s string) string { return "[]" + s })
	default:
		return "map[string]any"
	}
}
