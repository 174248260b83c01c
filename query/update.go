package query

import (
	"github.com/bawdo/sqlexpr/binder"
	"github.com/bawdo/sqlexpr/expression"
	"github.com/bawdo/sqlexpr/types"
)

var updateClauses = []string{"with", "update", "modifier", "set", "where", "epilog"}

// UpdateQuery builds UPDATE statements.
type UpdateQuery struct {
	base
	table     any // string or expression.Expression
	modifiers []string
	set       *expression.QueryExpression
	where     *expression.QueryExpression
}

// NewUpdate creates an UPDATE statement for table, a table name or an
// expression.
func NewUpdate(table any) *UpdateQuery {
	q := &UpdateQuery{base: newBase()}
	q.set = expression.NewQueryExpression(nil, q.typeMap, ",")
	return q.Update(table)
}

func (q *UpdateQuery) StatementType() string { return "update" }

// Update sets the target table.
func (q *UpdateQuery) Update(table any) *UpdateQuery {
	switch table.(type) {
	case string, expression.Expression:
	default:
		raise(expression.ErrInvalidArgument, "table must be a string or an expression, %T given", table)
	}
	q.table = table
	return q
}

// Set adds assignments. values is a map or Conditions of field to value, a
// raw SQL string, an expression or a closure receiving the SET list.
func (q *UpdateQuery) Set(values any, colTypes ...map[string]string) *UpdateQuery {
	var typ map[string]string
	if len(colTypes) > 0 {
		typ = colTypes[0]
	}
	switch v := values.(type) {
	case func(*expression.QueryExpression) *expression.QueryExpression:
		q.set = v(q.set)
	default:
		q.set.AddTyped(values, typ)
	}
	return q
}

// SetField adds "field = value", binding value with typ or the type map's
// type for field.
func (q *UpdateQuery) SetField(field string, value any, typ ...string) *UpdateQuery {
	q.set.Eq(field, value, typ...)
	return q
}

// Where adds conditions joined with AND.
func (q *UpdateQuery) Where(conditions any, colTypes ...map[string]string) *UpdateQuery {
	conjugate(&q.where, q.typeMap, conditions, "AND", colTypes)
	return q
}

// OrWhere joins conditions to the existing WHERE clause with OR.
func (q *UpdateQuery) OrWhere(conditions any, colTypes ...map[string]string) *UpdateQuery {
	conjugate(&q.where, q.typeMap, conditions, "OR", colTypes)
	return q
}

// Modifier adds keywords rendered after UPDATE, such as LOW_PRIORITY.
func (q *UpdateQuery) Modifier(modifiers ...string) *UpdateQuery {
	q.modifiers = append(q.modifiers, modifiers...)
	return q
}

// With adds a common table expression.
func (q *UpdateQuery) With(cte *expression.CommonTableExpression) *UpdateQuery {
	q.addWith(cte)
	return q
}

// Epilog sets trailing SQL.
func (q *UpdateQuery) Epilog(epilog any) *UpdateQuery {
	q.setEpilog(epilog)
	return q
}

// Use registers a transformer.
func (q *UpdateQuery) Use(t Transformer) *UpdateQuery {
	q.transformers = append(q.transformers, t)
	return q
}

// SetTypeMap replaces the type map used by conditions and assignments added
// afterwards.
func (q *UpdateQuery) SetTypeMap(tm *types.TypeMap) *UpdateQuery {
	q.setTypeMap(tm)
	q.set.SetTypeMap(q.typeMap)
	return q
}

func (q *UpdateQuery) Table() any         { return q.table }
func (q *UpdateQuery) SetTable(table any) { q.table = table }

// Clause returns "with", "update" (the table), "modifier", "set"
// (*QueryExpression), "where" (*QueryExpression, may be nil) or "epilog".
func (q *UpdateQuery) Clause(name string) any {
	checkClause(name, updateClauses)
	switch name {
	case "with":
		return q.with
	case "update":
		return q.table
	case "modifier":
		return append([]string(nil), q.modifiers...)
	case "set":
		return q.set
	case "where":
		return q.where
	}
	return q.epilog
}

// SQL renders the statement. An empty SET list panics with
// expression.ErrLogic.
func (q *UpdateQuery) SQL(b *binder.ValueBinder) string {
	c := newCompiler(b)
	c.writeWith(q.with)
	c.sb.WriteString("UPDATE")
	for _, m := range q.modifiers {
		c.sb.WriteString(" ")
		c.sb.WriteString(m)
	}
	c.sb.WriteString(" ")
	c.sb.WriteString(c.part(q.table))
	set := q.set.SQL(b)
	if set == "" {
		raise(expression.ErrLogic, "an update of %s has nothing to set", c.part(q.table))
	}
	c.sb.WriteString(" SET ")
	c.sb.WriteString(set)
	c.writeConditions(" WHERE ", q.where)
	c.writeEpilog(q.epilog)
	return c.String()
}

func (q *UpdateQuery) Traverse(visit func(expression.Expression)) {
	q.traverseBase(visit)
	walk(q.table, visit)
	walk(q.set, visit)
	if q.where != nil {
		walk(q.where, visit)
	}
	walk(q.epilog, visit)
}

func (q *UpdateQuery) Clone() expression.Expression {
	return &UpdateQuery{
		base:      q.cloneBase(),
		table:     cloneValue(q.table),
		modifiers: append([]string(nil), q.modifiers...),
		set:       cloneConditions(q.set),
		where:     cloneConditions(q.where),
	}
}

// Transform applies the transformers to a clone.
func (q *UpdateQuery) Transform() (Statement, error) {
	c := q.Clone().(*UpdateQuery)
	var err error
	for _, t := range q.transformers {
		if c, err = t.TransformUpdate(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ToSQL applies the transformers and renders the statement with a fresh
// binder.
func (q *UpdateQuery) ToSQL() (string, *binder.ValueBinder, error) {
	return toSQL(q)
}

var _ Statement = (*UpdateQuery)(nil)
