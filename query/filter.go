// Package query translates abstract filter, ordering, pagination and
// relationship specifications into backend builder calls. It is the only
// place operator names are mapped to backend predicates.
package query

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/parishdesk/parishdesk/postgrest"
)

// Operator names a comparison applied to a single column. Both the long
// grid-style names and the short backend names are accepted.
type Operator string

const (
	Equals             Operator = "equals"
	NotEquals          Operator = "notEquals"
	GreaterThan        Operator = "greaterThan"
	GreaterThanOrEqual Operator = "greaterThanOrEqual"
	LessThan           Operator = "lessThan"
	LessThanOrEqual    Operator = "lessThanOrEqual"
	Contains           Operator = "contains"
	NotContains        Operator = "notContains"
	StartsWith         Operator = "startsWith"
	EndsWith           Operator = "endsWith"
	IsEmpty            Operator = "isEmpty"
	IsNotEmpty         Operator = "isNotEmpty"
	IsAnyOf            Operator = "isAnyOf"
	Between            Operator = "between"

	// Short aliases, interchangeable with the long forms above.
	Eq  Operator = "eq"
	Neq Operator = "neq"
	Gt  Operator = "gt"
	Gte Operator = "gte"
	Lt  Operator = "lt"
	Lte Operator = "lte"
)

// Filter is one predicate on a column. ValueTo is only consulted by the
// Between operator.
type Filter struct {
	Operator Operator
	Value    any
	ValueTo  any
}

// Condition is one leg of a cross-field OR expression.
type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

// Filters maps a column name to its filter specification. A value may be a
// Filter, a []Filter (OR across the alternatives for that column), a bare
// value (shorthand for equality), or, for the reserved "or" key, a
// []Condition, a single Condition, or a raw pre-formatted OR expression
// string.
type Filters map[string]any

// Apply adds every filter in the set to the builder, skipping nil entries.
func Apply(b *postgrest.Builder, filters Filters) *postgrest.Builder {
	for column, filter := range filters {
		if filter == nil {
			continue
		}
		b = ApplyFilter(b, column, filter)
	}
	return b
}

// ApplyFilter adds one column's filter specification to the builder. A nil
// filter value is a no-op: the query is returned unchanged rather than
// failing.
func ApplyFilter(b *postgrest.Builder, column string, filter any) *postgrest.Builder {
	if column == "or" {
		switch f := filter.(type) {
		case []Condition:
			expr := lo.Map(f, func(c Condition, _ int) string {
				return conditionExpr(column, c)
			})
			return b.Or(joinExprs(expr))
		case Condition:
			return b.Or(conditionExpr(column, f))
		case string:
			return b.Or(f)
		}
	}

	switch f := filter.(type) {
	case []Filter:
		// OR across the alternatives for this one column.
		expr := lo.Map(f, func(alt Filter, _ int) string {
			return fmt.Sprintf("%s.%s.%v", column, alt.Operator, alt.Value)
		})
		return b.Or(joinExprs(expr))
	case Filter:
		return applyOperator(b, column, f)
	case *Filter:
		if f == nil {
			return b
		}
		return applyOperator(b, column, *f)
	}

	// Bare value shorthand: anything else is an equality test.
	return b.Eq(column, filter)
}

// applyOperator maps one (operator, value, valueTo) triple onto the backend
// builder. A nil value disables the filter, except for the null-ness tests
// which compare against null explicitly and must not be skipped.
func applyOperator(b *postgrest.Builder, column string, f Filter) *postgrest.Builder {
	switch f.Operator {
	case IsEmpty:
		return b.Is(column, nil)
	case IsNotEmpty:
		return b.Not(column, "is", nil)
	}

	if f.Value == nil {
		return b
	}

	switch f.Operator {
	case Equals, Eq:
		return b.Eq(column, f.Value)
	case NotEquals, Neq:
		return b.Neq(column, f.Value)
	case GreaterThan, Gt:
		return b.Gt(column, f.Value)
	case GreaterThanOrEqual, Gte:
		return b.Gte(column, f.Value)
	case LessThan, Lt:
		return b.Lt(column, f.Value)
	case LessThanOrEqual, Lte:
		return b.Lte(column, f.Value)
	case Contains:
		return b.Ilike(column, fmt.Sprintf("%%%v%%", f.Value))
	case NotContains:
		return b.Not(column, "ilike", fmt.Sprintf("%%%v%%", f.Value))
	case StartsWith:
		return b.Ilike(column, fmt.Sprintf("%v%%", f.Value))
	case EndsWith:
		return b.Ilike(column, fmt.Sprintf("%%%v", f.Value))
	case IsAnyOf:
		return b.In(column, toSlice(f.Value))
	case Between:
		// A missing bound makes the whole filter a no-op, not an error.
		if f.Value != nil && f.ValueTo != nil {
			return b.Gte(column, f.Value).Lte(column, f.ValueTo)
		}
		return b
	}
	return b
}

func conditionExpr(fallbackField string, c Condition) string {
	field := c.Field
	if field == "" {
		field = fallbackField
	}
	return fmt.Sprintf("%s.%s.%v", field, c.Operator, c.Value)
}

func joinExprs(exprs []string) string {
	out := ""
	for i, e := range exprs {
		if i > 0 {
			out += ","
		}
		out += e
	}
	return out
}

func toSlice(v any) []any {
	if s, ok := v.([]any); ok {
		return s
	}
	if s, ok := v.([]string); ok {
		return lo.Map(s, func(v string, _ int) any { return v })
	}
	return []any{v}
}
