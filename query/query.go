// Package query provides fluent SELECT, INSERT, UPDATE and DELETE statements
// built from expression trees. Statements are expressions themselves, so any
// statement can be used as a subquery inside another one.
package query

import (
	"fmt"
	"slices"
	"strings"

	"github.com/bawdo/sqlexpr/binder"
	"github.com/bawdo/sqlexpr/expression"
	"github.com/bawdo/sqlexpr/types"
)

// Statement is implemented by every statement type.
type Statement interface {
	expression.Query
	// TypeMap returns the column types used to bind condition values.
	TypeMap() *types.TypeMap
	// Transform returns a clone with every registered transformer applied.
	Transform() (Statement, error)
	// Clause returns the named part of the statement.
	Clause(name string) any
}

// Transformer rewrites statements before they are compiled. Implementations
// embed plugins.BaseTransformer and override only the methods they need.
type Transformer interface {
	TransformSelect(q *SelectQuery) (*SelectQuery, error)
	TransformInsert(q *InsertQuery) (*InsertQuery, error)
	TransformUpdate(q *UpdateQuery) (*UpdateQuery, error)
	TransformDelete(q *DeleteQuery) (*DeleteQuery, error)
}

// base holds the parts shared by every statement type.
type base struct {
	typeMap      *types.TypeMap
	with         *expression.WithExpression
	epilog       any // string or expression.Expression
	transformers []Transformer
}

func newBase() base {
	return base{typeMap: types.NewTypeMap(nil), with: expression.NewWith()}
}

// TypeMap returns the statement's type map.
func (b *base) TypeMap() *types.TypeMap { return b.typeMap }

// Transformers returns the registered transformer pipeline.
func (b *base) Transformers() []Transformer { return b.transformers }

// NewExpr returns an empty AND tree sharing the statement's type map.
func (b *base) NewExpr() *expression.QueryExpression {
	return expression.NewQueryExpression(nil, b.typeMap, "AND")
}

// Func returns the function builder.
func (b *base) Func() expression.FunctionsBuilder { return expression.Func() }

func (b *base) setTypeMap(tm *types.TypeMap) {
	if tm == nil {
		tm = types.NewTypeMap(nil)
	}
	b.typeMap = tm
}

func (b *base) addWith(cte *expression.CommonTableExpression) {
	b.with.Add(cte)
}

func (b *base) setEpilog(epilog any) {
	switch epilog.(type) {
	case nil, string, expression.Expression:
	default:
		raise(expression.ErrInvalidArgument, "epilog must be a string or an expression, %T given", epilog)
	}
	b.epilog = epilog
}

func (b *base) cloneBase() base {
	c := *b
	c.with = b.with.Clone().(*expression.WithExpression)
	if e, ok := b.epilog.(expression.Expression); ok {
		c.epilog = e.Clone()
	}
	c.transformers = slices.Clone(b.transformers)
	return c
}

func (b *base) traverseBase(visit func(expression.Expression)) {
	walk(b.with, visit)
}

// compile renders s with a fresh binder, recovering builder misuse.
func compile(s expression.Expression) (sql string, b *binder.ValueBinder, err error) {
	defer expression.Recover(&err)
	b = binder.New()
	return s.SQL(b), b, nil
}

func raise(kind error, format string, args ...any) {
	panic(&expression.Error{Kind: kind, Msg: fmt.Sprintf(format, args...)})
}

func walk(v any, visit func(expression.Expression)) {
	e, ok := v.(expression.Expression)
	if !ok || e == nil {
		return
	}
	visit(e)
	e.Traverse(visit)
}

func cloneValue(v any) any {
	if e, ok := v.(expression.Expression); ok && e != nil {
		return e.Clone()
	}
	return v
}

// isEmpty reports whether conditions would add nothing.
func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case expression.Conditions:
		return len(x) == 0
	case []any:
		return len(x) == 0
	case []string:
		return len(x) == 0
	case map[string]any:
		return len(x) == 0
	case map[string]string:
		return len(x) == 0
	}
	return false
}

// conjugate merges conditions into *part. When the existing tree already
// uses conj they are appended; otherwise the tree is wrapped in a new conj
// tree together with the added conditions.
func conjugate(part **expression.QueryExpression, tm *types.TypeMap, conditions any, conj string, colTypes []map[string]string) {
	if *part == nil {
		*part = expression.NewQueryExpression(nil, tm, "AND")
	}
	if isEmpty(conditions) {
		return
	}
	var typ map[string]string
	if len(colTypes) > 0 {
		typ = colTypes[0]
	}
	expr := *part
	if expr.Conjunction() == conj {
		expr.AddTyped(conditions, typ)
		return
	}
	*part = expression.NewQueryExpression(nil, tm, conj).AddTyped(expression.List(expr, conditions), typ)
}

func cloneConditions(q *expression.QueryExpression) *expression.QueryExpression {
	if q == nil {
		return nil
	}
	return q.Clone().(*expression.QueryExpression)
}

func checkClause(name string, valid []string) {
	if !slices.Contains(valid, name) {
		raise(expression.ErrInvalidArgument,
			"the %q clause is not defined, valid clauses are: %s", name, strings.Join(valid, ", "))
	}
}
