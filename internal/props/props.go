package props

import "slices"

type FieldProp string

var VALID_BUILTIN_PROPS = []FieldProp{
	FieldPropOptional, FieldPropRelation,
	FieldPropKey, FieldPropUnique, FieldPropIndex, FieldPropVector,
}

const (
	FieldPropOptional FieldProp = "optional" // optional(true/false)
	FieldPropRelation FieldProp = "relation" // relation(table.field)
	FieldPropKey      FieldProp = "key"      // key(primary)
	FieldPropUnique   FieldProp = "unique"   // unique(true/false)
	FieldPropIndex    FieldProp = "index"    // index(true/false)
	FieldPropVector   FieldProp = "vector"   // vector(type, level)
)

func (p FieldProp) IsValid() bool {
	return slices.Contains(VALID_BUILTIN_PROPS, p)
}

const KeyPropPrimary string = "primary"
