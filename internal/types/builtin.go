package types

import "slices"

var VALID_BUILTIN_TYPES = []FieldType{
	FieldTypeInt, FieldTypeString, FieldTypeDate, FieldTypeFloat,
	FieldTypeBool, FieldTypeBytes, FieldTypeVector, FieldTypeObject,
}

// FieldType is informational: records are not validated against it.
type FieldType string

const (
	FieldTypeInt    FieldType = "Int"
	FieldTypeString FieldType = "String"
	FieldTypeDate   FieldType = "Date"
	FieldTypeFloat  FieldType = "Float"
	FieldTypeBool   FieldType = "Bool"
	FieldTypeBytes  FieldType = "Bytes"
	FieldTypeVector FieldType = "Vector"
	FieldTypeObject FieldType = "Object"
)

func (t FieldType) IsValid() bool {
	return slices.Contains(VALID_BUILTIN_TYPES, t)
}
