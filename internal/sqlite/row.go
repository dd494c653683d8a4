package sqlite

import (
	"bytes"
	"strconv"
	"strings"
	"time"

	"github.com/mesh-intelligence/dbstack/pkg/types"
)

// row is one scanned result row. Values are whatever the driver produced:
// int64, float64, string, []byte, bool, time.Time or nil.
type row struct {
	cols  []string
	index map[string]int
	vals  []any
}

func newRow(cols []string, vals []any) *row {
	index := make(map[string]int, len(cols))
	for i, c := range cols {
		index[c] = i
	}
	return &row{cols: cols, index: index, vals: vals}
}

// value returns the raw value of column, matching names case-insensitively
// when there is no exact match.
func (r *row) value(column string) (any, bool) {
	if i, ok := r.index[column]; ok {
		return r.vals[i], true
	}
	for i, c := range r.cols {
		if strings.EqualFold(c, column) {
			return r.vals[i], true
		}
	}
	return nil, false
}

func (r *row) Columns() []string {
	out := make([]string, len(r.cols))
	copy(out, r.cols)
	return out
}

func (r *row) IsNull(column string) bool {
	v, ok := r.value(column)
	return !ok || v == nil
}

func (r *row) String(column string) (string, bool) {
	v, _ := r.value(column)
	switch x := v.(type) {
	case string:
		return x, true
	case []byte:
		return string(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), true
	case bool:
		return strconv.FormatBool(x), true
	case time.Time:
		return x.Format(time.RFC3339Nano), true
	default:
		return "", false
	}
}

func (r *row) Int(column string) (int64, bool) {
	v, _ := r.value(column)
	switch x := v.(type) {
	case int64:
		return x, true
	case float64:
		return int64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		return n, err == nil
	case []byte:
		n, err := strconv.ParseInt(string(bytes.TrimSpace(x)), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

func (r *row) Float(column string) (float64, bool) {
	v, _ := r.value(column)
	switch x := v.(type) {
	case float64:
		return x, true
	case int64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	case []byte:
		f, err := strconv.ParseFloat(string(bytes.TrimSpace(x)), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func (r *row) Bytes(column string) ([]byte, bool) {
	v, _ := r.value(column)
	switch x := v.(type) {
	case []byte:
		return bytes.Clone(x), true
	case string:
		return []byte(x), true
	default:
		return nil, false
	}
}

var _ types.Row = (*row)(nil)
