package expression

import (
	"strings"

	"github.com/bawdo/sqlexpr/binder"
)

// CommonTableExpression is one named entry of a WITH clause:
// name(fields) AS [MATERIALIZED ](query).
type CommonTableExpression struct {
	name         *IdentifierExpression
	fields       []*IdentifierExpression
	query        Expression
	materialized string
	recursive    bool
}

// NewCTE creates a common table expression. query may be nil and set later.
func NewCTE(name string, query Expression) *CommonTableExpression {
	return &CommonTableExpression{name: NewIdentifier(name), query: query}
}

// Name sets the CTE name.
func (c *CommonTableExpression) Name(name string) *CommonTableExpression {
	c.name = NewIdentifier(name)
	return c
}

// CTEName returns the CTE name.
func (c *CommonTableExpression) CTEName() string { return c.name.Identifier() }

// Query sets the CTE body. A func() Expression is called immediately.
func (c *CommonTableExpression) Query(query any) *CommonTableExpression {
	if fn, ok := query.(func() Expression); ok {
		query = fn()
	}
	e, ok := query.(Expression)
	if !ok || isNil(e) {
		raise(ErrInvalidArgument, "a CTE query must be an expression, %s given", typeName(query))
	}
	c.query = e
	return c
}

// Field appends column names to the field list.
func (c *CommonTableExpression) Field(fields ...any) *CommonTableExpression {
	for _, f := range fields {
		switch x := f.(type) {
		case string:
			c.fields = append(c.fields, NewIdentifier(x))
		case *IdentifierExpression:
			c.fields = append(c.fields, x)
		default:
			raise(ErrInvalidArgument, "a CTE field must be a string or an identifier, %s given", typeName(f))
		}
	}
	return c
}

// Fields returns the field identifiers.
func (c *CommonTableExpression) Fields() []*IdentifierExpression { return c.fields }

// Materialized adds the MATERIALIZED hint.
func (c *CommonTableExpression) Materialized() *CommonTableExpression {
	c.materialized = "MATERIALIZED"
	return c
}

// NotMaterialized adds the NOT MATERIALIZED hint.
func (c *CommonTableExpression) NotMaterialized() *CommonTableExpression {
	c.materialized = "NOT MATERIALIZED"
	return c
}

// Recursive marks the CTE as recursive; the WITH clause then emits
// RECURSIVE.
func (c *CommonTableExpression) Recursive() *CommonTableExpression {
	c.recursive = true
	return c
}

func (c *CommonTableExpression) IsRecursive() bool { return c.recursive }

func (c *CommonTableExpression) SQL(b *binder.ValueBinder) string {
	if c.name.Identifier() == "" {
		raise(ErrLogic, "cannot generate SQL for a common table expression without a name")
	}
	if c.query == nil {
		raise(ErrLogic, "cannot generate SQL for common table expression %q without a query", c.name.Identifier())
	}
	var fields string
	if len(c.fields) > 0 {
		parts := make([]string, len(c.fields))
		for i, f := range c.fields {
			parts[i] = f.SQL(b)
		}
		fields = "(" + strings.Join(parts, ", ") + ")"
	}
	var suffix string
	if c.materialized != "" {
		suffix = c.materialized + " "
	}
	return c.name.SQL(b) + fields + " AS " + suffix + "(" + c.query.SQL(b) + ")"
}

func (c *CommonTableExpression) Traverse(visit func(Expression)) {
	walk(c.name, visit)
	for _, f := range c.fields {
		walk(f, visit)
	}
	walk(c.query, visit)
}

func (c *CommonTableExpression) Clone() Expression {
	n := *c
	n.name = c.name.Clone().(*IdentifierExpression)
	n.fields = make([]*IdentifierExpression, len(c.fields))
	for i, f := range c.fields {
		n.fields[i] = f.Clone().(*IdentifierExpression)
	}
	if c.query != nil {
		n.query = c.query.Clone()
	}
	return &n
}

// WithExpression is a WITH clause: a list of uniquely named CTEs. RECURSIVE
// is emitted when any member is recursive.
type WithExpression struct {
	ctes []*CommonTableExpression
}

// NewWith creates a WITH clause from ctes.
func NewWith(ctes ...*CommonTableExpression) *WithExpression {
	w := &WithExpression{}
	for _, c := range ctes {
		w.Add(c)
	}
	return w
}

// Add appends a CTE. A name already in use panics with ErrLogic.
func (w *WithExpression) Add(cte *CommonTableExpression) *WithExpression {
	name := cte.CTEName()
	for _, c := range w.ctes {
		if name != "" && c.CTEName() == name {
			raise(ErrLogic, "a common table expression named %q already exists", name)
		}
	}
	w.ctes = append(w.ctes, cte)
	return w
}

// CTEs returns the members in order.
func (w *WithExpression) CTEs() []*CommonTableExpression { return w.ctes }

func (w *WithExpression) Count() int { return len(w.ctes) }

// IsRecursive reports whether any member is recursive.
func (w *WithExpression) IsRecursive() bool {
	for _, c := range w.ctes {
		if c.IsRecursive() {
			return true
		}
	}
	return false
}

func (w *WithExpression) SQL(b *binder.ValueBinder) string {
	if len(w.ctes) == 0 {
		return ""
	}
	parts := make([]string, len(w.ctes))
	for i, c := range w.ctes {
		parts[i] = c.SQL(b)
	}
	kw := "WITH "
	if w.IsRecursive() {
		kw += "RECURSIVE "
	}
	return kw + strings.Join(parts, ", ")
}

func (w *WithExpression) Traverse(visit func(Expression)) {
	for _, c := range w.ctes {
		walk(c, visit)
	}
}

func (w *WithExpression) Clone() Expression {
	n := &WithExpression{ctes: make([]*CommonTableExpression, len(w.ctes))}
	for i, c := range w.ctes {
		n.ctes[i] = c.Clone().(*CommonTableExpression)
	}
	return n
}
