// Package filter describes search, filter and permission conditions as a
// storage-agnostic predicate tree.
package filter

import "fmt"

// Operator defines the comparison applied by a leaf condition.
type Operator string

const (
	Equal          Operator = "eq"
	NotEqual       Operator = "neq"
	Contains       Operator = "contains"  // ILIKE %val%
	NotContains    Operator = "ncontains" // NOT ILIKE %val%
	GreaterThan    Operator = "gt"
	GreaterOrEqual Operator = "gte"
	LessThan       Operator = "lt"
	LessOrEqual    Operator = "lte"

	InList    Operator = "in"
	NotInList Operator = "nin"
	IsNull    Operator = "null"
	IsNotNull Operator = "not_null"
)

// Valid reports whether op is a known operator.
func (op Operator) Valid() bool {
	switch op {
	case Equal, NotEqual, Contains, NotContains,
		GreaterThan, GreaterOrEqual, LessThan, LessOrEqual,
		InList, NotInList, IsNull, IsNotNull:
		return true
	}
	return false
}

// Logic joins sibling conditions of a group.
type Logic string

const (
	And Logic = "and"
	Or  Logic = "or"
)

// Condition is either a leaf (Field/Operator/Value) or a group (Children).
//
// A group with no children is a constant: an empty And group is always true,
// an empty Or group is always false. Renderers and evaluators must keep that
// meaning.
type Condition struct {
	Field    string      `json:"field,omitempty"`
	Operator Operator    `json:"operator,omitempty"`
	Value    any         `json:"value,omitempty"`
	Logic    Logic       `json:"logic,omitempty"`
	Children []Condition `json:"children,omitempty"`
}

// Leaf creates a single field comparison.
func Leaf(field string, op Operator, value any) Condition {
	return Condition{Field: field, Operator: op, Value: value, Logic: And}
}

// AllOf creates an And group.
func AllOf(children ...Condition) Condition {
	return Condition{Logic: And, Children: children}
}

// AnyOf creates an Or group.
func AnyOf(children ...Condition) Condition {
	return Condition{Logic: Or, Children: children}
}

// True returns the always-true condition.
func True() Condition {
	return Condition{Logic: And}
}

// False returns the always-false condition.
func False() Condition {
	return Condition{Logic: Or}
}

// IsGroup reports whether c combines children rather than comparing a field.
func (c Condition) IsGroup() bool {
	return len(c.Children) > 0 || (c.Field == "" && c.Operator == "")
}

// IsTrue reports whether c is the always-true constant.
func (c Condition) IsTrue() bool {
	return c.IsGroup() && len(c.Children) == 0 && c.Logic != Or
}

// IsFalse reports whether c is the always-false constant.
func (c Condition) IsFalse() bool {
	return c.IsGroup() && len(c.Children) == 0 && c.Logic == Or
}

// Fields returns every field referenced by the tree, in visiting order.
func (c Condition) Fields() []string {
	var out []string
	c.walk(func(leaf Condition) {
		out = append(out, leaf.Field)
	})
	return out
}

// Validate checks that every leaf names a field and a known operator.
func (c Condition) Validate() error {
	var err error
	c.walk(func(leaf Condition) {
		if err != nil {
			return
		}
		if leaf.Field == "" {
			err = fmt.Errorf("condition with operator %q has no field", leaf.Operator)
			return
		}
		if !leaf.Operator.Valid() {
			err = fmt.Errorf("field %q: unknown operator %q", leaf.Field, leaf.Operator)
		}
	})
	return err
}

func (c Condition) walk(visit func(leaf Condition)) {
	if !c.IsGroup() {
		visit(c)
		return
	}
	for _, child := range c.Children {
		child.walk(visit)
	}
}

// Conjoin returns the And of a and b, folding constants so that
// False absorbs and True is the identity.
func Conjoin(a, b Condition) Condition {
	switch {
	case a.IsFalse() || b.IsFalse():
		return False()
	case a.IsTrue():
		return b
	case b.IsTrue():
		return a
	}
	return AllOf(a, b)
}
