package generate

import (
	"fmt"

	"github.com/tobsdb/memdb/internal/types"
)

func SchemaToTypescript(s []ParsedTable) []byte {
	res := ""
	for _, t := range s {
		res += fmt.Sprintf("export type %s = {\n", toPascalCase(t.Name))
		for _, f := range t.Fields {
			optional := ""
			if f.Optional {
				optional = "?"
			}
			res += fmt.Sprintf("\t%s%s: %s;\n", f.Name, optional,
				tdbTypeToTypescript(f.BuiltinType, f.ElemType, f.ElemDepth))
		}
		res += "};\n\n"
	}

	res += "export type Schema = {\n"
	for _, t := range s {
		res += fmt.Sprintf("\t%s: %s;\n", t.Name, toPascalCase(t.Name))
	}
	res += "};\n"
	return []byte(res)
}

func tdbTypeToTypescript(t types.FieldType, elem types.FieldType, depth int) string {
	switch t {
	case types.FieldTypeInt, types.FieldTypeFloat:
		return "number"
	case types.FieldTypeString:
		return "string"
	case types.FieldTypeBool:
		return "boolean"
	case types.FieldTypeDate:
		// dates cross the wire as strings
		return "string"
	case types.FieldTypeBytes:
		return "string"
	case types.FieldTypeVector:
		return vectorOf(tdbTypeToTypescript(elem, "", 0), depth, func(s string) string { return s + "[]" })
	default:
		return "Record<string, unknown>"
	}
}
