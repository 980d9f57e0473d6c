// Package generate turns a schema descriptor into record types for client
// code: Go structs for typed collections, TypeScript, Rust or plain JSON.
package generate

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/tobsdb/memdb/internal/schema"
)

const DefaultGoPackage = "schema"

func SchemaToLang(d *schema.Descriptor, lang string) ([]byte, error) {
	s := schemaDestructure(d)
	switch lang {
	case "json":
		return SchemaToJson(s)
	case "typescript", "ts":
		return SchemaToTypescript(s), nil
	case "rust", "rs":
		return SchemaToRust(s), nil
	case "golang", "go":
		return SchemaToGo(s, DefaultGoPackage)
	default:
		return nil, fmt.Errorf("Unsupported Language: %s", lang)
	}
}

// SchemaToGoPackage is SchemaToLang for go with a chosen package name.
func SchemaToGoPackage(d *schema.Descriptor, package_name string) ([]byte, error) {
	return SchemaToGo(schemaDestructure(d), package_name)
}

func SchemaToJson(s []ParsedTable) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}
