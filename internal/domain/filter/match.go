package filter

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

// Match evaluates c against a row already loaded in memory.
// A field missing from row compares as NULL and only IsNull matches it,
// as in SQL where comparisons with NULL are never true.
func Match(c Condition, row map[string]any) bool {
	if c.IsGroup() {
		if c.Logic == Or {
			for _, child := range c.Children {
				if Match(child, row) {
					return true
				}
			}
			return false
		}
		for _, child := range c.Children {
			if !Match(child, row) {
				return false
			}
		}
		return true
	}

	v, present := row[c.Field]
	if !present || v == nil {
		return c.Operator == IsNull
	}

	switch c.Operator {
	case IsNull:
		return false
	case IsNotNull:
		return true
	case Equal:
		return compare(v, c.Value) == 0
	case NotEqual:
		return compare(v, c.Value) != 0
	case GreaterThan:
		return compare(v, c.Value) > 0
	case GreaterOrEqual:
		return compare(v, c.Value) >= 0
	case LessThan:
		return compare(v, c.Value) < 0
	case LessOrEqual:
		return compare(v, c.Value) <= 0
	case Contains:
		return containsFold(v, c.Value)
	case NotContains:
		return !containsFold(v, c.Value)
	case InList:
		return inList(v, c.Value)
	case NotInList:
		return !inList(v, c.Value)
	}
	return false
}

func containsFold(v, needle any) bool {
	return strings.Contains(
		strings.ToLower(fmt.Sprint(v)),
		strings.ToLower(fmt.Sprint(needle)),
	)
}

func inList(v, list any) bool {
	rv := reflect.ValueOf(list)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return compare(v, list) == 0
	}
	for i := 0; i < rv.Len(); i++ {
		if compare(v, rv.Index(i).Interface()) == 0 {
			return true
		}
	}
	return false
}

// compare orders numbers numerically, times chronologically and everything
// else by its string form.
func compare(a, b any) int {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Compare(tb)
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}
