package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/dbstack/pkg/types"
)

// ErrBadFilter is returned for a malformed --where, --sort or --range value.
var ErrBadFilter = errors.New("invalid filter")

// whereOps lists the --where operators, longest first so that ">=" wins
// over ">".
var whereOps = []string{">=", "<=", "!=", "!~", "^=", "$=", "=", ">", "<", "~"}

// filterFlags holds the condition flags shared by list, update, delete and sql.
type filterFlags struct {
	where     []string
	sort      []string
	limit     int
	rangeSpec string
	any       bool
}

// register adds the condition flags to cmd. Paging flags are added only when
// paging is true.
func (f *filterFlags) register(cmd *cobra.Command, paging bool) {
	cmd.Flags().StringArrayVar(&f.where, "where", nil,
		"predicate key<op>value; ops: = != > < >= <= ^= (prefix) $= (suffix) ~ (contains) !~ (not contains)")
	cmd.Flags().BoolVar(&f.any, "any", false, "match rows satisfying any --where predicate instead of all")
	if paging {
		cmd.Flags().StringArrayVar(&f.sort, "sort", nil, "order by key, key:asc or key:desc")
		cmd.Flags().IntVar(&f.limit, "limit", 0, "maximum number of rows (0 = no limit)")
		cmd.Flags().StringVar(&f.rangeSpec, "range", "", "offset,count window of rows")
	}
}

// condition builds the condition described by the flags.
func (f *filterFlags) condition() (types.Condition, error) {
	var filters []types.Filter
	for _, expr := range f.where {
		filter, err := parseWhere(expr)
		if err != nil {
			return types.Condition{}, err
		}
		filters = append(filters, filter)
	}
	for _, spec := range f.sort {
		filter, err := parseSort(spec)
		if err != nil {
			return types.Condition{}, err
		}
		filters = append(filters, filter)
	}
	if f.limit < 0 {
		return types.Condition{}, fmt.Errorf("%w: --limit must not be negative", ErrBadFilter)
	}
	if f.limit > 0 {
		filters = append(filters, types.Limit(f.limit))
	}
	if f.rangeSpec != "" {
		filter, err := parseRange(f.rangeSpec)
		if err != nil {
			return types.Condition{}, err
		}
		filters = append(filters, filter)
	}

	if f.any {
		return types.Any(filters...), nil
	}
	return types.All(filters...), nil
}

// parseWhere turns "age>=30" into GreaterOrEqual("age", 30).
func parseWhere(expr string) (types.Filter, error) {
	i := strings.IndexAny(expr, "=!<>^$~")
	if i <= 0 {
		return types.Filter{}, fmt.Errorf("%w: %q: expected key<op>value", ErrBadFilter, expr)
	}
	key := strings.TrimSpace(expr[:i])

	var op string
	for _, candidate := range whereOps {
		if strings.HasPrefix(expr[i:], candidate) {
			op = candidate
			break
		}
	}
	if op == "" {
		return types.Filter{}, fmt.Errorf("%w: %q: unknown operator", ErrBadFilter, expr)
	}
	raw := expr[i+len(op):]

	switch op {
	case "=":
		return types.Equal(key, parseValue(raw)), nil
	case "!=":
		return types.NotEqual(key, parseValue(raw)), nil
	case ">":
		return types.GreaterThan(key, parseValue(raw)), nil
	case "<":
		return types.LessThan(key, parseValue(raw)), nil
	case ">=":
		return types.GreaterOrEqual(key, parseValue(raw)), nil
	case "<=":
		return types.LessOrEqual(key, parseValue(raw)), nil
	case "^=":
		return types.LikePrefix(key, raw), nil
	case "$=":
		return types.LikeSuffix(key, raw), nil
	case "~":
		return types.LikeContains(key, raw), nil
	default: // "!~"
		return types.NotLike(key, raw), nil
	}
}

// parseValue reads raw as an integer, then a float, then text.
func parseValue(raw string) any {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

// parseSort turns "age" or "age:desc" into an ordering filter.
func parseSort(spec string) (types.Filter, error) {
	key, dir, _ := strings.Cut(spec, ":")
	if key == "" {
		return types.Filter{}, fmt.Errorf("%w: empty sort key", ErrBadFilter)
	}
	switch strings.ToLower(dir) {
	case "", "asc":
		return types.SortAsc(key), nil
	case "desc":
		return types.SortDesc(key), nil
	default:
		return types.Filter{}, fmt.Errorf("%w: %q: direction must be asc or desc", ErrBadFilter, spec)
	}
}

// parseRange turns "10,5" into RangeLimit(10, 5).
func parseRange(spec string) (types.Filter, error) {
	o, c, ok := strings.Cut(spec, ",")
	if !ok {
		return types.Filter{}, fmt.Errorf("%w: %q: expected offset,count", ErrBadFilter, spec)
	}
	offset, err := strconv.Atoi(strings.TrimSpace(o))
	if err != nil || offset < 0 {
		return types.Filter{}, fmt.Errorf("%w: %q: bad offset", ErrBadFilter, spec)
	}
	count, err := strconv.Atoi(strings.TrimSpace(c))
	if err != nil || count < 0 {
		return types.Filter{}, fmt.Errorf("%w: %q: bad count", ErrBadFilter, spec)
	}
	return types.RangeLimit(offset, count), nil
}
