package parser

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tobsdb/memdb/internal/props"
	"github.com/tobsdb/memdb/internal/schema"
)

// ParseSchema reads the $TABLE line format into a descriptor.
//
//	$TABLE user {
//	  id     Int    key(primary)
//	  email  String unique(true)
//	  org_id Int    relation(org.id) index(true)
//	  $INDEX org_id, email
//	}
func ParseSchema(data string) (*schema.Descriptor, error) {
	desc := &schema.Descriptor{}
	var current *schema.Table

	scanner := bufio.NewScanner(strings.NewReader(data))
	line_idx := 0
	for scanner.Scan() {
		line_idx++
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 || strings.HasPrefix(line, "//") {
			continue
		}

		state, parsed, err := LineParser(line)
		if err != nil {
			return nil, fmt.Errorf("Error parsing line %d: %s", line_idx, err.Error())
		}

		switch state {
		case ParserStateTableStart:
			if current != nil {
				return nil, fmt.Errorf("Error parsing line %d: table %s is not closed", line_idx, current.Name)
			}
			if desc.Table(parsed.Name) != nil {
				return nil, fmt.Errorf("Duplicate table %s", parsed.Name)
			}
			current = &schema.Table{Name: parsed.Name}
		case ParserStateTableEnd:
			if current == nil {
				return nil, fmt.Errorf("Error parsing line %d: unexpected }", line_idx)
			}
			desc.Tables = append(desc.Tables, current)
			current = nil
		case ParserStateNewField:
			if current == nil {
				return nil, fmt.Errorf("Error parsing line %d: field %s is outside a table", line_idx, parsed.Name)
			}
			if err := addField(current, parsed); err != nil {
				return nil, fmt.Errorf("Error parsing line %d: %s", line_idx, err.Error())
			}
		case ParserStateConstraint:
			if current == nil {
				return nil, fmt.Errorf("Error parsing line %d: %s is outside a table", line_idx, parsed.Constraint)
			}
			addConstraint(current, parsed)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if current != nil {
		return nil, fmt.Errorf("table %s is not closed", current.Name)
	}

	if err := desc.Validate(); err != nil {
		return nil, err
	}
	return desc, nil
}

func addField(table *schema.Table, data *ParserData) error {
	if _, ok := table.Columns.Get(data.Name); ok {
		return fmt.Errorf("Duplicate field %s", data.Name)
	}

	col := schema.Column{Name: data.Name, Type: data.Builtin_type}
	for prop, value := range data.Properties {
		switch prop {
		case props.FieldPropKey:
			col.PrimaryKey = true
		case props.FieldPropOptional:
			col.Optional, _ = props.ParseBoolPropSafe(prop, value)
		case props.FieldPropVector:
			col.Vector = value
		}
	}
	table.Columns = append(table.Columns, col)

	unique, _ := props.ParseBoolPropSafe(props.FieldPropUnique, data.Properties[props.FieldPropUnique])
	index, _ := props.ParseBoolPropSafe(props.FieldPropIndex, data.Properties[props.FieldPropIndex])
	if unique || index {
		table.Constraints = append(table.Constraints, schema.Constraint{
			Type:    schema.ConstraintIndex,
			Name:    data.Name,
			Columns: []string{data.Name},
			Unique:  unique,
		})
	}

	if rel, ok := data.Properties[props.FieldPropRelation]; ok {
		rel_table, rel_field, _ := props.ParseRelationPropSafe(rel)
		table.Constraints = append(table.Constraints, schema.Constraint{
			Type:       schema.ConstraintForeignKey,
			Name:       data.Name,
			Columns:    []string{data.Name},
			References: &schema.ColumnRef{Table: rel_table, Column: rel_field},
		})
	}
	return nil
}

func addConstraint(table *schema.Table, data *ParserData) {
	c := schema.Constraint{Name: strings.Join(data.Columns, "_"), Columns: data.Columns}
	switch data.Constraint {
	case LineConstraintPrimary:
		c.Type = schema.ConstraintPrimaryKey
	case LineConstraintUnique:
		c.Type = schema.ConstraintIndex
		c.Unique = true
	default:
		c.Type = schema.ConstraintIndex
	}
	table.Constraints = append(table.Constraints, c)
}

// LoadSchemaFile reads .tdb files with ParseSchema; anything else is
// decoded as a YAML or JSON descriptor.
func LoadSchemaFile(path string) (*schema.Descriptor, error) {
	if filepath.Ext(path) != ".tdb" {
		return schema.ParseFile(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema: %w", err)
	}
	return ParseSchema(string(data))
}
