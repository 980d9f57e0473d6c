package query

import (
	"strings"

	"github.com/tobsdb/memdb/pkg"
)

type Operator string

const (
	OpEq         Operator = "eq"
	OpNe         Operator = "ne"
	OpGt         Operator = "gt"
	OpGte        Operator = "gte"
	OpLt         Operator = "lt"
	OpLte        Operator = "lte"
	OpIn         Operator = "in"
	OpNotIn      Operator = "not_in"
	OpContains   Operator = "contains"
	OpStartsWith Operator = "starts_with"
	OpEndsWith   Operator = "ends_with"
)

type Connector string

const (
	ConnectorAnd Connector = "AND"
	ConnectorOr  Connector = "OR"
)

type WhereClause struct {
	Field     string    `json:"field"`
	Operator  Operator  `json:"operator,omitempty"`
	Value     any       `json:"value"`
	Connector Connector `json:"connector,omitempty"`
}

// Eq is shorthand for an AND-connected equality clause.
func Eq(field string, value any) WhereClause {
	return WhereClause{Field: field, Operator: OpEq, Value: value}
}

func (c WhereClause) IsEq() bool {
	return c.Operator == "" || c.Operator == OpEq
}

func (c WhereClause) IsOr() bool {
	return strings.EqualFold(string(c.Connector), string(ConnectorOr))
}

// Match evaluates the clause against one record. A missing field reads as
// nil. Ordering operators are false when the two sides are of different
// kinds; unknown operators fall back to eq.
func (c WhereClause) Match(record pkg.Map[string, any]) bool {
	value := record[c.Field]

	switch c.Operator {
	case OpNe:
		return !Equal(value, c.Value)
	case OpGt:
		cmp, ok := Compare(value, c.Value)
		return ok && cmp > 0
	case OpGte:
		cmp, ok := Compare(value, c.Value)
		return ok && cmp >= 0
	case OpLt:
		cmp, ok := Compare(value, c.Value)
		return ok && cmp < 0
	case OpLte:
		cmp, ok := Compare(value, c.Value)
		return ok && cmp <= 0
	case OpIn:
		return Contains(c.Value, value)
	case OpNotIn:
		return !Contains(c.Value, value)
	case OpContains:
		return strings.Contains(String(value), String(c.Value))
	case OpStartsWith:
		return strings.HasPrefix(String(value), String(c.Value))
	case OpEndsWith:
		return strings.HasSuffix(String(value), String(c.Value))
	default:
		return Equal(value, c.Value)
	}
}

// Where is an ordered clause list folded left to right: the first clause
// seeds the result and every later clause is joined with OR when its
// connector says so, AND otherwise. There is no grouping.
type Where []WhereClause

func (w Where) Match(record pkg.Map[string, any]) bool {
	if len(w) == 0 {
		return true
	}

	result := true
	for i, clause := range w {
		matches := clause.Match(record)
		if i == 0 {
			result = matches
		} else if clause.IsOr() {
			result = result || matches
		} else {
			result = result && matches
		}
	}
	return result
}

// Necessary returns the clauses every matching record has to satisfy: the
// ones after the last OR connector. With no OR that is the whole list.
// The clause right before an OR is folded into the OR and is not necessary.
func (w Where) Necessary() Where {
	last_or := -1
	for i, clause := range w {
		if i > 0 && clause.IsOr() {
			last_or = i
		}
	}
	if last_or < 0 {
		return w
	}
	return w[last_or+1:]
}

// EqValues collects the values of the necessary equality clauses by field.
// When a field is constrained twice the first value is kept; candidates are
// re-checked against the full list anyway.
func (w Where) EqValues() map[string]any {
	values := make(map[string]any)
	for _, clause := range w.Necessary() {
		if !clause.IsEq() {
			continue
		}
		if _, ok := values[clause.Field]; !ok {
			values[clause.Field] = clause.Value
		}
	}
	return values
}
