package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/tobsdb/memdb/internal/props"
	"github.com/tobsdb/memdb/internal/types"
	"github.com/tobsdb/memdb/pkg"
)

type LineParserState int

const (
	ParserStateTableStart LineParserState = iota
	ParserStateTableEnd
	ParserStateNewField
	ParserStateConstraint
	ParserStateIdle
)

type LineConstraint string

const (
	LineConstraintPrimary LineConstraint = "$PRIMARY"
	LineConstraintIndex   LineConstraint = "$INDEX"
	LineConstraintUnique  LineConstraint = "$UNIQUE"
)

type ParserData struct {
	Name         string
	Builtin_type types.FieldType
	Properties   map[props.FieldProp]string

	Constraint LineConstraint
	Columns    []string
}

const (
	table_prefix     = "$TABLE "
	table_prefix_len = len(table_prefix)
)

var (
	name_regex = regexp.MustCompile(`^\w+$`)
	prop_regex = regexp.MustCompile(`(\w+)\(([^)]*)\)`)
)

func LineParser(line string) (LineParserState, *ParserData, error) {
	if strings.HasPrefix(line, table_prefix) {
		line := strings.TrimSpace(line[table_prefix_len:])
		if !strings.HasSuffix(line, "{") {
			return ParserStateIdle, nil, errors.New("Invalid line")
		}
		name := strings.TrimSpace(strings.TrimSuffix(line, "{"))
		if len(name) == 0 {
			return ParserStateIdle, nil, errors.New("Invalid line")
		}
		if strings.Contains(name, " ") {
			return ParserStateIdle, nil, errors.New("Table name cannot include space")
		}
		if !name_regex.MatchString(name) {
			return ParserStateIdle, nil, errors.New("Table name contains invalid characters")
		}
		return ParserStateTableStart, &ParserData{Name: name}, nil
	}

	if line == "}" {
		return ParserStateTableEnd, nil, nil
	}

	if strings.HasPrefix(line, "$") {
		return parseConstraintLine(line)
	}

	splits := pkg.Filter(strings.Split(line, " "), func(s string) bool { return len(s) > 0 })
	if !name_regex.MatchString(splits[0]) {
		return ParserStateIdle, nil, errors.New("Field name contains invalid characters")
	}
	if len(splits) < 2 {
		return ParserStateIdle, nil, fmt.Errorf("Field %s does not have a type", splits[0])
	}

	builtin_type := types.FieldType(splits[1])
	if !builtin_type.IsValid() {
		return ParserStateIdle, nil, fmt.Errorf("Invalid field type: %s", builtin_type)
	}

	field_props, err := parseRawFieldProps(strings.Join(splits[2:], " "))
	if err != nil {
		return ParserStateIdle, nil, err
	}

	return ParserStateNewField, &ParserData{
		Name:         splits[0],
		Builtin_type: builtin_type,
		Properties:   field_props,
	}, nil
}

func parseConstraintLine(line string) (LineParserState, *ParserData, error) {
	kind, rest, _ := strings.Cut(line, " ")
	constraint := LineConstraint(kind)
	switch constraint {
	case LineConstraintPrimary, LineConstraintIndex, LineConstraintUnique:
	default:
		return ParserStateIdle, nil, fmt.Errorf("Invalid table constraint: %s", kind)
	}

	columns := []string{}
	for _, col := range strings.Split(rest, ",") {
		col = strings.TrimSpace(col)
		if len(col) == 0 {
			continue
		}
		if !name_regex.MatchString(col) {
			return ParserStateIdle, nil, fmt.Errorf("Invalid column %q in %s", col, kind)
		}
		columns = append(columns, col)
	}
	if len(columns) == 0 {
		return ParserStateIdle, nil, fmt.Errorf("%s requires at least one column", kind)
	}

	return ParserStateConstraint, &ParserData{Constraint: constraint, Columns: columns}, nil
}

func parseRawFieldProps(raw string) (map[props.FieldProp]string, error) {
	field_props := make(map[props.FieldProp]string)

	for _, match := range prop_regex.FindAllStringSubmatch(raw, -1) {
		prop, value := props.FieldProp(match[1]), strings.TrimSpace(match[2])
		if !prop.IsValid() {
			return nil, fmt.Errorf("Invalid field prop: %s", prop)
		}
		if len(value) == 0 {
			return nil, fmt.Errorf("No value for prop: %s", prop)
		}
		if err := validatePropValue(prop, value); err != nil {
			return nil, err
		}
		field_props[prop] = value
	}

	return field_props, nil
}

func validatePropValue(prop props.FieldProp, value string) error {
	switch prop {
	case props.FieldPropOptional, props.FieldPropUnique, props.FieldPropIndex:
		if _, err := props.ParseBoolPropSafe(prop, value); err != nil {
			return fmt.Errorf("%s(%s) is not a valid prop", prop, value)
		}
	case props.FieldPropKey:
		if value != props.KeyPropPrimary {
			return fmt.Errorf("%s(%s) is not a valid prop", prop, value)
		}
	case props.FieldPropRelation:
		if _, _, err := props.ParseRelationPropSafe(value); err != nil {
			return err
		}
	case props.FieldPropVector:
		if _, _, err := props.ParseVectorPropSafe(value); err != nil {
			return err
		}
	}
	return nil
}
