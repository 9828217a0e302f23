package query_repo

import (
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"

	"easyadmin/internal/core/apperror"
	"easyadmin/internal/domain/filter"
	"easyadmin/internal/domain/query"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Render converts a condition tree into a parameterized squirrel predicate.
// Every leaf column must be in allowed; anything else is rejected before
// any SQL is built.
//
// An empty And group renders as (1=1) and an empty Or group as (1=0).
func Render(c filter.Condition, allowed map[string]struct{}) (squirrel.Sqlizer, error) {
	if c.IsGroup() {
		parts := make([]squirrel.Sqlizer, 0, len(c.Children))
		for _, child := range c.Children {
			part, err := Render(child, allowed)
			if err != nil {
				return nil, err
			}
			parts = append(parts, part)
		}
		if c.Logic == filter.Or {
			return squirrel.Or(parts), nil
		}
		return squirrel.And(parts), nil
	}

	if _, ok := allowed[c.Field]; !ok {
		return nil, apperror.NewInvalidFilter(c.Field, "unknown column")
	}

	switch c.Operator {
	case filter.Equal:
		return squirrel.Eq{c.Field: c.Value}, nil
	case filter.NotEqual:
		return squirrel.NotEq{c.Field: c.Value}, nil
	case filter.GreaterThan:
		return squirrel.Gt{c.Field: c.Value}, nil
	case filter.GreaterOrEqual:
		return squirrel.GtOrEq{c.Field: c.Value}, nil
	case filter.LessThan:
		return squirrel.Lt{c.Field: c.Value}, nil
	case filter.LessOrEqual:
		return squirrel.LtOrEq{c.Field: c.Value}, nil
	// Text matching casts the column so numeric and enum columns match on
	// their printed value, as filter.Match does.
	case filter.Contains:
		return squirrel.ILike{c.Field + "::text": likePattern(c.Value)}, nil
	case filter.NotContains:
		return squirrel.NotILike{c.Field + "::text": likePattern(c.Value)}, nil
	case filter.InList:
		// squirrel expands slices to IN (...) and an empty slice to (1=0).
		return squirrel.Eq{c.Field: c.Value}, nil
	case filter.NotInList:
		return squirrel.NotEq{c.Field: c.Value}, nil
	case filter.IsNull:
		return squirrel.Eq{c.Field: nil}, nil
	case filter.IsNotNull:
		return squirrel.NotEq{c.Field: nil}, nil
	}

	return nil, apperror.NewInvalidFilter(c.Field, fmt.Sprintf("unsupported operator %q", c.Operator))
}

func likePattern(v any) string {
	return "%" + likeEscaper.Replace(fmt.Sprint(v)) + "%"
}

// OrderBy renders sort instructions as ORDER BY terms over allowed columns.
func OrderBy(sorts []query.Sort, allowed map[string]struct{}) ([]string, error) {
	terms := make([]string, 0, len(sorts))
	for _, s := range sorts {
		if _, ok := allowed[s.Field]; !ok {
			return nil, apperror.NewInvalidSort(s.Field)
		}
		direction := "ASC"
		switch s.Order {
		case query.Desc:
			direction = "DESC"
		case query.Asc, query.Unset:
		default:
			return nil, apperror.NewInvalidSort(s.Field).WithDetail("order", s.Order)
		}
		terms = append(terms, s.Field+" "+direction)
	}
	return terms, nil
}
