package query

import (
	"github.com/bawdo/sqlexpr/binder"
	"github.com/bawdo/sqlexpr/expression"
	"github.com/bawdo/sqlexpr/types"
)

var deleteClauses = []string{"with", "modifier", "from", "where", "epilog"}

// DeleteQuery builds DELETE statements.
type DeleteQuery struct {
	base
	table     string
	modifiers []string
	where     *expression.QueryExpression
}

// NewDelete creates a DELETE statement for table.
func NewDelete(table string) *DeleteQuery {
	return &DeleteQuery{base: newBase(), table: table}
}

func (q *DeleteQuery) StatementType() string { return "delete" }

// From sets the table rows are deleted from.
func (q *DeleteQuery) From(table string) *DeleteQuery {
	q.table = table
	return q
}

// Where adds conditions joined with AND.
func (q *DeleteQuery) Where(conditions any, colTypes ...map[string]string) *DeleteQuery {
	conjugate(&q.where, q.typeMap, conditions, "AND", colTypes)
	return q
}

// OrWhere joins conditions to the existing WHERE clause with OR.
func (q *DeleteQuery) OrWhere(conditions any, colTypes ...map[string]string) *DeleteQuery {
	conjugate(&q.where, q.typeMap, conditions, "OR", colTypes)
	return q
}

// Modifier adds keywords rendered after DELETE, such as QUICK.
func (q *DeleteQuery) Modifier(modifiers ...string) *DeleteQuery {
	q.modifiers = append(q.modifiers, modifiers...)
	return q
}

// With adds a common table expression.
func (q *DeleteQuery) With(cte *expression.CommonTableExpression) *DeleteQuery {
	q.addWith(cte)
	return q
}

// Epilog sets trailing SQL.
func (q *DeleteQuery) Epilog(epilog any) *DeleteQuery {
	q.setEpilog(epilog)
	return q
}

// Use registers a transformer.
func (q *DeleteQuery) Use(t Transformer) *DeleteQuery {
	q.transformers = append(q.transformers, t)
	return q
}

// SetTypeMap replaces the type map used by conditions added afterwards.
func (q *DeleteQuery) SetTypeMap(tm *types.TypeMap) *DeleteQuery {
	q.setTypeMap(tm)
	return q
}

func (q *DeleteQuery) Table() string         { return q.table }
func (q *DeleteQuery) SetTable(table string) { q.table = table }

// Clause returns "with", "modifier", "from" (the table), "where"
// (*QueryExpression, may be nil) or "epilog".
func (q *DeleteQuery) Clause(name string) any {
	checkClause(name, deleteClauses)
	switch name {
	case "with":
		return q.with
	case "modifier":
		return append([]string(nil), q.modifiers...)
	case "from":
		return q.table
	case "where":
		return q.where
	}
	return q.epilog
}

// SQL renders the statement. A missing table panics with expression.ErrLogic.
func (q *DeleteQuery) SQL(b *binder.ValueBinder) string {
	if q.table == "" {
		raise(expression.ErrLogic, "a delete needs a table, use From")
	}
	c := newCompiler(b)
	c.writeWith(q.with)
	c.sb.WriteString("DELETE")
	for _, m := range q.modifiers {
		c.sb.WriteString(" ")
		c.sb.WriteString(m)
	}
	c.sb.WriteString(" FROM ")
	c.sb.WriteString(q.table)
	c.writeConditions(" WHERE ", q.where)
	c.writeEpilog(q.epilog)
	return c.String()
}

func (q *DeleteQuery) Traverse(visit func(expression.Expression)) {
	q.traverseBase(visit)
	if q.where != nil {
		walk(q.where, visit)
	}
	walk(q.epilog, visit)
}

func (q *DeleteQuery) Clone() expression.Expression {
	return &DeleteQuery{
		base:      q.cloneBase(),
		table:     q.table,
		modifiers: append([]string(nil), q.modifiers...),
		where:     cloneConditions(q.where),
	}
}

// Transform applies the transformers to a clone.
func (q *DeleteQuery) Transform() (Statement, error) {
	c := q.Clone().(*DeleteQuery)
	var err error
	for _, t := range q.transformers {
		if c, err = t.TransformDelete(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ToSQL applies the transformers and renders the statement with a fresh
// binder.
func (q *DeleteQuery) ToSQL() (string, *binder.ValueBinder, error) {
	return toSQL(q)
}

var _ Statement = (*DeleteQuery)(nil)
