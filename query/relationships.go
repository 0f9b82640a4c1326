package query

import (
	"strings"
)

// Relationship describes a foreign-key-joined sub-selection of another
// table. Nested relationships recurse to arbitrary depth; each level becomes
// one parenthesised segment of the composite select expression.
type Relationship struct {
	Table      string
	ForeignKey string
	Alias      string
	Select     []string
	Nested     []Relationship
}

// Ref is the bare-table shorthand for a nested relationship: the named table
// joined on its id column with the full column set.
func Ref(table string) Relationship {
	return Relationship{Table: table, ForeignKey: "id"}
}

// BuildRelationshipSelect renders a relationship tree into a single select
// expression. Each spec emits
//
//	<alias:><table>!<foreignKey>(<columns-or-*>[,<nested>...])
//
// and top-level specs are comma-joined. An empty slice yields "".
func BuildRelationshipSelect(relationships []Relationship) string {
	parts := make([]string, 0, len(relationships))
	for _, rel := range relationships {
		parts = append(parts, buildNestedSelect(rel))
	}
	return strings.Join(parts, ",")
}

func buildNestedSelect(rel Relationship) string {
	baseSelect := "*"
	if len(rel.Select) > 0 {
		baseSelect = strings.Join(rel.Select, ",")
	}

	var b strings.Builder
	if rel.Alias != "" {
		b.WriteString(rel.Alias)
		b.WriteString(":")
	}
	b.WriteString(rel.Table)
	b.WriteString("!")
	b.WriteString(rel.ForeignKey)
	b.WriteString("(")
	b.WriteString(baseSelect)
	for _, nested := range rel.Nested {
		b.WriteString(",")
		b.WriteString(buildNestedSelect(nested))
	}
	b.WriteString(")")
	return b.String()
}
