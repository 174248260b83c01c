package expression

import (
	"strings"

	"github.com/bawdo/sqlexpr/binder"
	"github.com/bawdo/sqlexpr/types"
)

// ComparisonExpression compares a field against a value with a binary
// operator. Types ending in "[]" compare against a list of values, one
// placeholder per element.
type ComparisonExpression struct {
	field    any
	value    any
	typ      string
	operator string
	multiple bool
}

// NewComparison creates a comparison. field is an identifier string or an
// Expression; an empty operator means "=".
func NewComparison(field, value any, typ, operator string) *ComparisonExpression {
	if operator == "" {
		operator = "="
	}
	e := &ComparisonExpression{typ: typ, operator: operator}
	e.SetField(field)
	e.SetValue(value)
	return e
}

func (e *ComparisonExpression) Field() any { return e.field }

func (e *ComparisonExpression) SetField(field any) {
	e.field = field
}

func (e *ComparisonExpression) Value() any { return e.value }

// SetValue replaces the value, casting it through the comparison type first.
func (e *ComparisonExpression) SetValue(value any) {
	value = castToExpression(value, e.typ)
	e.multiple = types.IsMultiple(e.typ)
	if e.multiple {
		if _, ok := value.(Expression); !ok {
			items, ok := toSlice(value)
			if !ok {
				items = []any{value}
			}
			value = items
		}
	}
	e.value = value
}

func (e *ComparisonExpression) Operator() string { return e.operator }

func (e *ComparisonExpression) SetOperator(operator string) {
	e.operator = operator
}

func (e *ComparisonExpression) Type() string { return e.typ }

func (e *ComparisonExpression) SQL(b *binder.ValueBinder) string {
	field := fieldSQL(e.field, b)
	switch v := e.value.(type) {
	case *IdentifierExpression:
		return field + " " + e.operator + " " + v.SQL(b)
	case Expression:
		return field + " " + e.operator + " (" + v.SQL(b) + ")"
	}
	if f, ok := e.field.(Expression); ok {
		if _, ident := f.(*IdentifierExpression); !ident {
			field = "(" + field + ")"
		}
	}
	if !e.multiple {
		return field + " " + e.operator + " " + bindValue(b, "c", e.value, e.typ)
	}
	items, _ := e.value.([]any)
	if len(items) == 0 {
		raise(ErrEmptyValueList, "impossible to generate condition with empty list of values for field (%s)", field)
	}
	typ := types.BaseType(e.typ)
	parts := make([]string, len(items))
	for i, item := range items {
		if x, ok := item.(Expression); ok {
			parts[i] = x.SQL(b)
			continue
		}
		parts[i] = bindValue(b, "c", item, typ)
	}
	return field + " " + e.operator + " (" + strings.Join(parts, ",") + ")"
}

func (e *ComparisonExpression) Traverse(visit func(Expression)) {
	walk(e.field, visit)
	if items, ok := e.value.([]any); ok {
		for _, item := range items {
			walk(item, visit)
		}
		return
	}
	walk(e.value, visit)
}

func (e *ComparisonExpression) Clone() Expression {
	c := *e
	c.field = cloneValue(e.field)
	if items, ok := e.value.([]any); ok {
		c.value = cloneSlice(items)
	} else {
		c.value = cloneValue(e.value)
	}
	return &c
}

// fieldSQL renders a comparison field: expressions inline, strings verbatim.
func fieldSQL(field any, b *binder.ValueBinder) string {
	if x, ok := field.(Expression); ok {
		return x.SQL(b)
	}
	return operand(field, b)
}

// BetweenExpression renders "field BETWEEN from AND to" with both bounds
// bound independently.
type BetweenExpression struct {
	field any
	from  any
	to    any
	typ   string
}

// NewBetween creates a BETWEEN comparison.
func NewBetween(field, from, to any, typ string) *BetweenExpression {
	if typ != "" {
		from = castToExpression(from, typ)
		to = castToExpression(to, typ)
	}
	return &BetweenExpression{field: field, from: from, to: to, typ: typ}
}

func (e *BetweenExpression) Field() any { return e.field }

func (e *BetweenExpression) SetField(field any) { e.field = field }

func (e *BetweenExpression) SQL(b *binder.ValueBinder) string {
	bound := func(v any) string {
		if x, ok := v.(Expression); ok {
			return x.SQL(b)
		}
		return bindValue(b, "c", v, e.typ)
	}
	field := fieldSQL(e.field, b)
	from := bound(e.from)
	return field + " BETWEEN " + from + " AND " + bound(e.to)
}

func (e *BetweenExpression) Traverse(visit func(Expression)) {
	walk(e.field, visit)
	walk(e.from, visit)
	walk(e.to, visit)
}

func (e *BetweenExpression) Clone() Expression {
	c := *e
	c.field = cloneValue(e.field)
	c.from = cloneValue(e.from)
	c.to = cloneValue(e.to)
	return &c
}

// UnaryExpression applies an operator before (EXISTS, NOT) or after
// (IS NULL) its operand. The operand is always parenthesized.
type UnaryExpression struct {
	operator string
	value    any
	position Position
}

// NewUnary creates a unary operation. value is raw SQL text or an Expression.
func NewUnary(operator string, value any, position Position) *UnaryExpression {
	return &UnaryExpression{operator: operator, value: value, position: position}
}

func (e *UnaryExpression) Operator() string   { return e.operator }
func (e *UnaryExpression) Value() any         { return e.value }
func (e *UnaryExpression) Position() Position { return e.position }

func (e *UnaryExpression) SQL(b *binder.ValueBinder) string {
	op := fieldSQL(e.value, b)
	if e.position == Postfix {
		return "(" + op + ") " + e.operator
	}
	return e.operator + " (" + op + ")"
}

func (e *UnaryExpression) Traverse(visit func(Expression)) {
	walk(e.value, visit)
}

func (e *UnaryExpression) Clone() Expression {
	c := *e
	c.value = cloneValue(e.value)
	return &c
}
