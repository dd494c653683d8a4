package types

import (
	"slices"
	"sort"
	"strings"
)

// Relation keywords joining predicate filters.
const (
	RelationAnd = "and"
	RelationOr  = "or"
)

// Condition is a list of filters combined by a relation keyword. The zero
// Condition has no filters and compiles to the empty string.
type Condition struct {
	relation string
	filters  []Filter
}

// All returns a condition whose predicates must all hold.
func All(filters ...Filter) Condition {
	return Condition{relation: RelationAnd, filters: slices.Clone(filters)}
}

// Any returns a condition of which at least one predicate must hold.
func Any(filters ...Filter) Condition {
	return Condition{relation: RelationOr, filters: slices.Clone(filters)}
}

// Relation returns "and" or "or". The zero Condition returns "and".
func (c Condition) Relation() string {
	if c.relation == "" {
		return RelationAnd
	}
	return c.relation
}

// Filters returns a copy of the filters in the order they were given.
func (c Condition) Filters() []Filter {
	return slices.Clone(c.filters)
}

// Empty reports whether the condition has no filters.
func (c Condition) Empty() bool {
	return len(c.filters) == 0
}

// With returns a copy of c with filters appended.
func (c Condition) With(filters ...Filter) Condition {
	out := Condition{relation: c.Relation(), filters: make([]Filter, 0, len(c.filters)+len(filters))}
	out.filters = append(out.filters, c.filters...)
	out.filters = append(out.filters, filters...)
	return out
}

// Keys returns the column names referenced by the condition's filters,
// in filter order, skipping paging filters.
func (c Condition) Keys() []string {
	var keys []string
	for _, f := range c.filters {
		if f.key != "" {
			keys = append(keys, f.key)
		}
	}
	return keys
}

// Compile renders the condition as a SQL clause suffix with predicate values
// inlined as literals, e.g. " where age = 49  order by age asc  limit 5 ".
//
// Filters are stable-sorted by priority (predicates, then ordering, then
// paging). Predicates are joined by the relation keyword; ordering and
// paging fragments follow with no separator. An empty condition compiles to
// "". The " where" keyword is emitted only when at least one predicate is
// present.
func (c Condition) Compile() string {
	clause, _ := c.assemble(false)
	return clause
}

// Bind renders the same clause as Compile with each predicate value replaced
// by a "?" placeholder, returning the values in placeholder order.
func (c Condition) Bind() (string, []any) {
	return c.assemble(true)
}

// String implements fmt.Stringer.
func (c Condition) String() string {
	return c.Compile()
}

func (c Condition) assemble(bind bool) (string, []any) {
	if len(c.filters) == 0 {
		return "", nil
	}

	sorted := slices.Clone(c.filters)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() > sorted[j].Priority()
	})

	var (
		predicates []string
		directives []string
		args       []any
	)
	for _, f := range sorted {
		fragment, fargs := f.render(bind)
		if f.Combinable() {
			predicates = append(predicates, fragment)
			args = append(args, fargs...)
			continue
		}
		directives = append(directives, fragment)
	}

	var b strings.Builder
	if len(predicates) > 0 {
		b.WriteString(" where")
		b.WriteString(strings.Join(predicates, c.Relation()))
	}
	b.WriteString(strings.Join(directives, ""))
	return b.String(), args
}
