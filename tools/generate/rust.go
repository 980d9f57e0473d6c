package generate

import (
	"fmt"

	"github.com/tobsdb/memdb/internal/types"
)

func SchemaToRust(s []ParsedTable) []byte {
	res := "use serde::{Deserialize, Serialize};\n"

	for _, t := range s {
		res += fmt.Sprintf("\n#[derive(Debug, Clone, Serialize, Deserialize)]\npub struct %s {\n", toPascalCase(t.Name))
		for _, f := range t.Fields {
			rust_type := tdbTypeToRust(f.BuiltinType, f.ElemType, f.ElemDepth)
			if f.Optional {
				res += "\t#[serde(skip_serializing_if = \"Option::is_none\")]\n"
				rust_type = fmt.Sprintf("Option<%s>", rust_type)
			}
			res += fmt.Sprintf("\tpub %s: %s,\n", f.Name, rust_type)
		}
		res += "}\n"
	}
	return []byte(res)
}

func tdbTypeToRust(t types.FieldType, elem types.FieldType, depth int) string {
	switch t {
	case types.FieldTypeInt:
		return "i64"
	case types.FieldTypeFloat:
		return "f64"
	case types.FieldTypeString, types.FieldTypeDate, types.FieldTypeBytes:
		return "String"
	case types.FieldTypeBool:
		return "bool"
	case types.FieldTypeVector:
		return vectorOf(tdbTypeToRust(elem, "", 0), depth, func(s string) string { return fmt.Sprintf("Vec<%s>", s) })
	default:
		return "serde_json::Value"
	}
}
