// Package schema describes tables to the store: which fields form a table's
// primary key and which fields carry secondary indexes. Record shapes are not
// enforced; column types are informational.
package schema

import (
	"fmt"
	"os"
	"slices"

	"github.com/tobsdb/memdb/internal/types"
	"gopkg.in/yaml.v3"
)

// DefaultPrimaryKey is used for tables the descriptor does not mention, and
// for tables that declare no primary key of their own.
const DefaultPrimaryKey = "id"

type ConstraintType string

const (
	ConstraintIndex      ConstraintType = "index"
	ConstraintPrimaryKey ConstraintType = "primaryKey"
	ConstraintForeignKey ConstraintType = "foreignKey"
)

type ColumnRef struct {
	Table  string `yaml:"table" json:"table"`
	Column string `yaml:"column" json:"column"`
}

type Constraint struct {
	Type       ConstraintType `yaml:"type" json:"type"`
	Name       string         `yaml:"name,omitempty" json:"name,omitempty"`
	Columns    []string       `yaml:"columns" json:"columns"`
	Unique     bool           `yaml:"unique,omitempty" json:"unique,omitempty"`
	References *ColumnRef     `yaml:"references,omitempty" json:"references,omitempty"`
}

type Column struct {
	Name       string          `yaml:"-" json:"name"`
	Type       types.FieldType `yaml:"type" json:"type"`
	PrimaryKey bool            `yaml:"primaryKey,omitempty" json:"primaryKey,omitempty"`
	Optional   bool            `yaml:"optional,omitempty" json:"optional,omitempty"`
	// Vector is the element type and depth of a Vector column, e.g. "Int, 2".
	Vector string `yaml:"vector,omitempty" json:"vector,omitempty"`
}

// Columns keeps declaration order, which decides the order of a primary key
// assembled from column flags.
type Columns []Column

func (c *Columns) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: columns must be a mapping", node.Line)
	}
	cols := make(Columns, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var col Column
		if err := node.Content[i+1].Decode(&col); err != nil {
			return err
		}
		col.Name = node.Content[i].Value
		cols = append(cols, col)
	}
	*c = cols
	return nil
}

func (c Columns) Get(name string) (Column, bool) {
	for _, col := range c {
		if col.Name == name {
			return col, true
		}
	}
	return Column{}, false
}

type Table struct {
	Name        string       `yaml:"name" json:"name"`
	Columns     Columns      `yaml:"columns" json:"columns"`
	Constraints []Constraint `yaml:"constraints,omitempty" json:"constraints,omitempty"`
}

// PrimaryKey resolves the ordered primary key fields: a primaryKey
// constraint wins over column flags, and no declaration at all falls back to
// DefaultPrimaryKey.
func (t *Table) PrimaryKey() []string {
	for _, c := range t.Constraints {
		if c.Type == ConstraintPrimaryKey && len(c.Columns) > 0 {
			return slices.Clone(c.Columns)
		}
	}

	pk := []string{}
	for _, col := range t.Columns {
		if col.PrimaryKey {
			pk = append(pk, col.Name)
		}
	}
	if len(pk) == 0 {
		return []string{DefaultPrimaryKey}
	}
	return pk
}

// Indexes returns the field lists of every index constraint, single and
// multi column alike.
func (t *Table) Indexes() [][]string {
	indexes := [][]string{}
	for _, c := range t.Constraints {
		if c.Type == ConstraintIndex && len(c.Columns) > 0 {
			indexes = append(indexes, slices.Clone(c.Columns))
		}
	}
	return indexes
}

type Descriptor struct {
	Name    string   `yaml:"name" json:"name"`
	Version int      `yaml:"version" json:"version"`
	Tables  []*Table `yaml:"tables" json:"tables"`
}

func (d *Descriptor) Table(name string) *Table {
	if d == nil {
		return nil
	}
	for _, t := range d.Tables {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// PrimaryKey is safe on a nil descriptor.
func (d *Descriptor) PrimaryKey(model string) []string {
	t := d.Table(model)
	if t == nil {
		return []string{DefaultPrimaryKey}
	}
	return t.PrimaryKey()
}

// Indexes is safe on a nil descriptor.
func (d *Descriptor) Indexes(model string) [][]string {
	t := d.Table(model)
	if t == nil {
		return [][]string{}
	}
	return t.Indexes()
}

func (d *Descriptor) Validate() error {
	seen := map[string]bool{}
	for _, t := range d.Tables {
		if len(t.Name) == 0 {
			return fmt.Errorf("Table name cannot be empty")
		}
		if seen[t.Name] {
			return fmt.Errorf("Duplicate table %s", t.Name)
		}
		seen[t.Name] = true

		primary_keys := 0
		for _, c := range t.Constraints {
			switch c.Type {
			case ConstraintIndex, ConstraintPrimaryKey, ConstraintForeignKey:
			default:
				return fmt.Errorf("Invalid constraint type %q on table %s", c.Type, t.Name)
			}
			if len(c.Columns) == 0 {
				return fmt.Errorf("Constraint %s on table %s has no columns", c.Type, t.Name)
			}
			if c.Type == ConstraintPrimaryKey {
				primary_keys++
			}
		}
		if primary_keys > 1 {
			return fmt.Errorf("Table %s can't have multiple primary key constraints", t.Name)
		}
	}

	for _, t := range d.Tables {
		for _, c := range t.Constraints {
			if c.Type != ConstraintForeignKey || c.References == nil {
				continue
			}
			if !seen[c.References.Table] {
				return fmt.Errorf("Invalid relation on table %s; %q is not a valid table", t.Name, c.References.Table)
			}
		}
	}
	return nil
}

// Parse decodes a YAML or JSON descriptor and validates it.
func Parse(data []byte) (*Descriptor, error) {
	d := &Descriptor{}
	if err := yaml.Unmarshal(data, d); err != nil {
		return nil, fmt.Errorf("decoding schema: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

func ParseFile(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema: %w", err)
	}
	return Parse(data)
}
