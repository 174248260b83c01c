package expression

import (
	"strings"

	"github.com/bawdo/sqlexpr/binder"
)

// OrderByExpression renders an ORDER BY clause. Keyed entries pair a field
// with a direction; positional entries are raw SQL or expressions.
type OrderByExpression struct {
	parts Conditions
}

// NewOrderBy creates an ORDER BY clause from fields (see Add).
func NewOrderBy(fields any) *OrderByExpression {
	o := &OrderByExpression{}
	if !isEmpty(fields) {
		o.Add(fields)
	}
	return o
}

// Add appends sort terms. fields is a string or Expression (positional), or
// Conditions / map[string]string / map[string]any keyed by field. A keyed
// string value other than ASC or DESC panics, so sort expressions cannot be
// smuggled in through the direction.
func (o *OrderByExpression) Add(fields any) *OrderByExpression {
	switch f := fields.(type) {
	case string, Expression:
		o.parts = append(o.parts, Cond{Value: f})
		return o
	}
	if fn, ok := asBuilder(fields); ok {
		if r := fn(NewQueryExpression(nil, nil, "")); !isNil(r) {
			o.parts = append(o.parts, Cond{Value: r})
		}
		return o
	}
	list, ok := toConditions(fields)
	if !ok {
		raise(ErrInvalidArgument, "cannot order by %s", typeName(fields))
	}
	for _, c := range list {
		if c.Key == "" {
			if isEmpty(c.Value) {
				continue
			}
			switch c.Value.(type) {
			case string, Expression:
			default:
				raise(ErrInvalidArgument, "positional order term must be a string or an expression, %s given", typeName(c.Value))
			}
			o.parts = append(o.parts, c)
			continue
		}
		switch v := c.Value.(type) {
		case string:
			dir := upper(v)
			if dir != "ASC" && dir != "DESC" {
				raise(ErrInvalidArgument,
					"passing extra expressions by keyed entry (%q => %q) is not allowed to avoid potential SQL injection; use an expression or a positional entry instead",
					c.Key, v)
			}
			o.parts = append(o.parts, Cond{Key: c.Key, Value: dir})
		case Expression:
			o.parts = append(o.parts, c)
		default:
			raise(ErrInvalidArgument, "order direction for %q must be ASC, DESC or an expression, %s given", c.Key, typeName(v))
		}
	}
	return o
}

// Count returns the number of sort terms.
func (o *OrderByExpression) Count() int { return len(o.parts) }

// IterateParts replaces every term with the result of fn, which may also
// rewrite the key. Returning a nil part removes the term.
func (o *OrderByExpression) IterateParts(fn func(part any, key *string) any) *OrderByExpression {
	parts := make(Conditions, 0, len(o.parts))
	for _, c := range o.parts {
		key := c.Key
		if r := fn(c.Value, &key); r != nil {
			parts = append(parts, Cond{Key: key, Value: r})
		}
	}
	o.parts = parts
	return o
}

// Terms renders the comma separated sort terms without the keyword.
func (o *OrderByExpression) Terms(b *binder.ValueBinder) string {
	out := make([]string, 0, len(o.parts))
	for _, c := range o.parts {
		dir := operand(c.Value, b)
		if c.Key == "" {
			out = append(out, dir)
			continue
		}
		out = append(out, c.Key+" "+dir)
	}
	return strings.Join(out, ", ")
}

func (o *OrderByExpression) SQL(b *binder.ValueBinder) string {
	if len(o.parts) == 0 {
		return ""
	}
	return "ORDER BY " + o.Terms(b)
}

func (o *OrderByExpression) Traverse(visit func(Expression)) {
	for _, c := range o.parts {
		walk(c.Value, visit)
	}
}

func (o *OrderByExpression) Clone() Expression {
	return &OrderByExpression{parts: o.parts.Clone()}
}

// OrderClauseExpression is a single "field direction" sort term.
type OrderClauseExpression struct {
	field     any
	direction string
}

// NewOrderClause creates a sort term. field is an identifier string or an
// Expression; direction must be ASC or DESC.
func NewOrderClause(field any, direction string) *OrderClauseExpression {
	dir := upper(direction)
	if dir != "ASC" && dir != "DESC" {
		raise(ErrInvalidArgument, "order direction must be ASC or DESC, %q given", direction)
	}
	return &OrderClauseExpression{field: field, direction: dir}
}

func (o *OrderClauseExpression) Field() any         { return o.field }
func (o *OrderClauseExpression) SetField(field any) { o.field = field }
func (o *OrderClauseExpression) Direction() string  { return o.direction }

func (o *OrderClauseExpression) SQL(b *binder.ValueBinder) string {
	return operand(o.field, b) + " " + o.direction
}

func (o *OrderClauseExpression) Traverse(visit func(Expression)) {
	walk(o.field, visit)
}

func (o *OrderClauseExpression) Clone() Expression {
	c := *o
	c.field = cloneValue(o.field)
	return &c
}
