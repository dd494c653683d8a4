package types

import (
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FilterKind identifies a filter variant.
type FilterKind int

// Filter variants. Paging and ordering variants stand alone in a compiled
// clause; predicate variants are joined by the condition's relation.
const (
	KindLimit FilterKind = iota
	KindRangeLimit
	KindSortAsc
	KindSortDesc
	KindEqual
	KindNotEqual
	KindGreaterThan
	KindLessThan
	KindGreaterOrEqual
	KindLessOrEqual
	KindLikePrefix
	KindLikeSuffix
	KindLikeContains
	KindNotLike
)

// Emission priorities. Higher priorities are emitted earlier so that the
// compiled clause reads WHERE ... ORDER BY ... LIMIT ...
const (
	PriorityPaging    = 1
	PriorityOrdering  = 2
	PriorityPredicate = 3
)

var kindNames = map[FilterKind]string{
	KindLimit:          "limit",
	KindRangeLimit:     "rangeLimit",
	KindSortAsc:        "sortAsc",
	KindSortDesc:       "sortDesc",
	KindEqual:          "equal",
	KindNotEqual:       "notEqual",
	KindGreaterThan:    "greaterThan",
	KindLessThan:       "lessThan",
	KindGreaterOrEqual: "greaterOrEqual",
	KindLessOrEqual:    "lessOrEqual",
	KindLikePrefix:     "likePrefix",
	KindLikeSuffix:     "likeSuffix",
	KindLikeContains:   "likeContains",
	KindNotLike:        "notLike",
}

// String returns the variant name.
func (k FilterKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("FilterKind(%d)", int(k))
}

// comparisonOps maps comparison variants to their SQL operator.
var comparisonOps = map[FilterKind]string{
	KindEqual:          "=",
	KindNotEqual:       "<>",
	KindGreaterThan:    ">",
	KindLessThan:       "<",
	KindGreaterOrEqual: ">=",
	KindLessOrEqual:    "<=",
}

// Filter is one clause of a Condition: a predicate on a column, an ordering
// directive or a paging directive. Construct filters with the functions
// below; the zero value is a LIMIT 0.
//
// Predicate values are rendered into the SQL text by Condition.Compile. Only
// pass values from trusted sources to Compile; Condition.Bind produces the
// same clause with positional parameters instead.
type Filter struct {
	kind   FilterKind
	key    string
	value  any
	offset int
	count  int
}

// Limit keeps the first count rows.
func Limit(count int) Filter {
	return Filter{kind: KindLimit, count: count}
}

// RangeLimit keeps count rows starting at offset.
func RangeLimit(offset, count int) Filter {
	return Filter{kind: KindRangeLimit, offset: offset, count: count}
}

// SortAsc orders rows by key, ascending.
func SortAsc(key string) Filter {
	return Filter{kind: KindSortAsc, key: key}
}

// SortDesc orders rows by key, descending.
func SortDesc(key string) Filter {
	return Filter{kind: KindSortDesc, key: key}
}

// Equal matches rows where key = value.
func Equal(key string, value any) Filter {
	return Filter{kind: KindEqual, key: key, value: value}
}

// NotEqual matches rows where key <> value.
func NotEqual(key string, value any) Filter {
	return Filter{kind: KindNotEqual, key: key, value: value}
}

// GreaterThan matches rows where key > value.
func GreaterThan(key string, value any) Filter {
	return Filter{kind: KindGreaterThan, key: key, value: value}
}

// LessThan matches rows where key < value.
func LessThan(key string, value any) Filter {
	return Filter{kind: KindLessThan, key: key, value: value}
}

// GreaterOrEqual matches rows where key >= value.
func GreaterOrEqual(key string, value any) Filter {
	return Filter{kind: KindGreaterOrEqual, key: key, value: value}
}

// LessOrEqual matches rows where key <= value.
func LessOrEqual(key string, value any) Filter {
	return Filter{kind: KindLessOrEqual, key: key, value: value}
}

// LikePrefix matches rows where key starts with value.
func LikePrefix(key, value string) Filter {
	return Filter{kind: KindLikePrefix, key: key, value: value}
}

// LikeSuffix matches rows where key ends with value.
func LikeSuffix(key, value string) Filter {
	return Filter{kind: KindLikeSuffix, key: key, value: value}
}

// LikeContains matches rows where key contains value.
func LikeContains(key, value string) Filter {
	return Filter{kind: KindLikeContains, key: key, value: value}
}

// NotLike matches rows where key does not contain value.
func NotLike(key, value string) Filter {
	return Filter{kind: KindNotLike, key: key, value: value}
}

// Kind returns the filter variant.
func (f Filter) Kind() FilterKind { return f.kind }

// Key returns the column the filter applies to. Paging filters have no key.
func (f Filter) Key() string { return f.key }

// Value returns the comparison value of a predicate filter.
func (f Filter) Value() any { return f.value }

// Priority returns the emission priority: predicates 3, ordering 2, paging 1.
func (f Filter) Priority() int {
	switch f.kind {
	case KindLimit, KindRangeLimit:
		return PriorityPaging
	case KindSortAsc, KindSortDesc:
		return PriorityOrdering
	default:
		return PriorityPredicate
	}
}

// Combinable reports whether the filter may be joined with AND/OR.
// Only predicates are combinable.
func (f Filter) Combinable() bool {
	return f.Priority() == PriorityPredicate
}

// String returns the literal SQL fragment of the filter.
func (f Filter) String() string {
	s, _ := f.render(false)
	return s
}

// render returns the fragment for f. When bind is true the predicate value
// is replaced by a placeholder and returned as an argument.
func (f Filter) render(bind bool) (string, []any) {
	switch f.kind {
	case KindLimit:
		return fmt.Sprintf(" limit %d ", f.count), nil
	case KindRangeLimit:
		return fmt.Sprintf(" limit %d, %d ", f.offset, f.count), nil
	case KindSortDesc:
		return " order by " + f.key + " desc ", nil
	case KindSortAsc:
		return " order by " + f.key + " asc ", nil
	case KindLikePrefix, KindLikeSuffix, KindLikeContains, KindNotLike:
		return f.renderLike(bind)
	}

	op, ok := comparisonOps[f.kind]
	if !ok {
		return "", nil
	}
	if bind {
		return " " + f.key + " " + op + " ? ", []any{bindValue(f.value)}
	}
	return " " + f.key + " " + op + " " + Literal(f.value) + " ", nil
}

func (f Filter) renderLike(bind bool) (string, []any) {
	text := fmt.Sprint(f.value)
	var pattern, op string
	switch f.kind {
	case KindLikePrefix:
		pattern, op = text+"%", "like"
	case KindLikeSuffix:
		pattern, op = "%"+text, "like"
	case KindLikeContains:
		pattern, op = "%"+text+"%", "like"
	default:
		pattern, op = "%"+text+"%", "not like"
	}
	if bind {
		return " " + f.key + " " + op + " ? ", []any{pattern}
	}
	return " " + f.key + " " + op + " " + quote(pattern) + " ", nil
}

// Literal renders v as SQL literal text. Integers and floats are unquoted,
// strings are single-quoted with embedded quotes doubled, byte slices use
// the X'..' blob notation, booleans render as 1 or 0 and nil as NULL.
func Literal(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return quote(x)
	case []byte:
		return "X'" + strings.ToUpper(hex.EncodeToString(x)) + "'"
	case bool:
		if x {
			return "1"
		}
		return "0"
	case int:
		return strconv.Itoa(x)
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, uintptr:
		return fmt.Sprintf("%d", x)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case fmt.Stringer:
		return quote(x.String())
	default:
		return quote(fmt.Sprint(x))
	}
}

// bindValue normalizes v into a value database/sql drivers accept.
func bindValue(v any) any {
	switch x := v.(type) {
	case nil, string, []byte, bool, int, int8, int16, int32, int64,
		uint8, uint16, uint32, float32, float64:
		return x
	case uint:
		return bindUnsigned(uint64(x))
	case uint64:
		return bindUnsigned(x)
	case uintptr:
		return bindUnsigned(uint64(x))
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// bindUnsigned keeps unsigned values that fit in int64 exact. Larger ones
// bind as float64, the value the engine reads the same literal as.
func bindUnsigned(x uint64) any {
	if x <= math.MaxInt64 {
		return int64(x)
	}
	return float64(x)
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
