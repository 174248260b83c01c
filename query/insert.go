package query

import (
	"strings"

	"github.com/bawdo/sqlexpr/binder"
	"github.com/bawdo/sqlexpr/expression"
	"github.com/bawdo/sqlexpr/types"
)

var insertClauses = []string{"with", "insert", "modifier", "values", "epilog"}

// InsertQuery builds INSERT statements.
type InsertQuery struct {
	base
	table     string
	columns   []string
	modifiers []string
	values    *expression.ValuesExpression
}

// NewInsert creates an INSERT statement. Columns are declared with Insert.
func NewInsert() *InsertQuery {
	return &InsertQuery{base: newBase()}
}

func (q *InsertQuery) StatementType() string { return "insert" }

// Insert declares the columns to insert and, optionally, their types. It
// must be called before Values. An empty column list panics with
// expression.ErrInvalidArgument.
func (q *InsertQuery) Insert(columns []string, colTypes ...map[string]string) *InsertQuery {
	if len(columns) == 0 {
		raise(expression.ErrInvalidArgument, "at least one column is required to perform an insert")
	}
	q.columns = append([]string(nil), columns...)
	if len(colTypes) > 0 {
		q.typeMap = q.typeMap.Clone().AddTypes(colTypes[0])
	}
	if q.values == nil {
		q.values = expression.NewValues(q.columns, q.typeMap)
	} else {
		q.values.SetColumns(q.columns)
	}
	return q
}

// Into sets the target table.
func (q *InsertQuery) Into(table string) *InsertQuery {
	q.table = table
	return q
}

// Values adds rows. data is a row map, a slice of row maps, a statement to
// insert from, or a *expression.ValuesExpression replacing every row.
func (q *InsertQuery) Values(data any) *InsertQuery {
	if q.values == nil {
		raise(expression.ErrLogic, "you cannot add values before defining columns to use")
	}
	switch d := data.(type) {
	case *expression.ValuesExpression:
		q.values = d
	case []map[string]any:
		for _, row := range d {
			q.values.Add(row)
		}
	default:
		q.values.Add(data)
	}
	return q
}

// Modifier adds keywords rendered between INSERT and INTO, such as IGNORE.
func (q *InsertQuery) Modifier(modifiers ...string) *InsertQuery {
	q.modifiers = append(q.modifiers, modifiers...)
	return q
}

// With adds a common table expression.
func (q *InsertQuery) With(cte *expression.CommonTableExpression) *InsertQuery {
	q.addWith(cte)
	return q
}

// Epilog sets trailing SQL such as "RETURNING id".
func (q *InsertQuery) Epilog(epilog any) *InsertQuery {
	q.setEpilog(epilog)
	return q
}

// Use registers a transformer.
func (q *InsertQuery) Use(t Transformer) *InsertQuery {
	q.transformers = append(q.transformers, t)
	return q
}

// SetTypeMap replaces the type map used to bind inserted values.
func (q *InsertQuery) SetTypeMap(tm *types.TypeMap) *InsertQuery {
	q.setTypeMap(tm)
	return q
}

func (q *InsertQuery) Table() string               { return q.table }
func (q *InsertQuery) SetTable(table string)       { q.table = table }
func (q *InsertQuery) Columns() []string           { return append([]string(nil), q.columns...) }
func (q *InsertQuery) SetColumns(columns []string) { q.columns = columns }

// Clause returns "with", "insert" (the table followed by the columns, as
// []string), "modifier", "values" (*ValuesExpression, may be nil) or
// "epilog".
func (q *InsertQuery) Clause(name string) any {
	checkClause(name, insertClauses)
	switch name {
	case "with":
		return q.with
	case "insert":
		return append([]string{q.table}, q.columns...)
	case "modifier":
		return append([]string(nil), q.modifiers...)
	case "values":
		return q.values
	}
	return q.epilog
}

// SQL renders the statement. A missing table, column list or values panics
// with expression.ErrLogic.
func (q *InsertQuery) SQL(b *binder.ValueBinder) string {
	if q.table == "" {
		raise(expression.ErrLogic, "an insert needs a table, use Into")
	}
	if len(q.columns) == 0 {
		raise(expression.ErrLogic, "at least one column is required to perform an insert")
	}
	c := newCompiler(b)
	c.writeWith(q.with)
	c.sb.WriteString("INSERT")
	for _, m := range q.modifiers {
		c.sb.WriteString(" ")
		c.sb.WriteString(m)
	}
	c.sb.WriteString(" INTO ")
	c.sb.WriteString(q.table)
	c.sb.WriteString(" (")
	c.sb.WriteString(strings.Join(q.columns, ", "))
	c.sb.WriteString(") ")
	values := ""
	if q.values != nil {
		values = q.values.SQL(b)
	}
	if values == "" {
		raise(expression.ErrLogic, "an insert into %s has no values", q.table)
	}
	c.sb.WriteString(values)
	c.writeEpilog(q.epilog)
	return c.String()
}

func (q *InsertQuery) Traverse(visit func(expression.Expression)) {
	q.traverseBase(visit)
	if q.values != nil {
		walk(q.values, visit)
	}
	walk(q.epilog, visit)
}

func (q *InsertQuery) Clone() expression.Expression {
	c := &InsertQuery{
		base:      q.cloneBase(),
		table:     q.table,
		columns:   append([]string(nil), q.columns...),
		modifiers: append([]string(nil), q.modifiers...),
	}
	if q.values != nil {
		c.values = q.values.Clone().(*expression.ValuesExpression)
	}
	return c
}

// Transform applies the transformers to a clone.
func (q *InsertQuery) Transform() (Statement, error) {
	c := q.Clone().(*InsertQuery)
	var err error
	for _, t := range q.transformers {
		if c, err = t.TransformInsert(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ToSQL applies the transformers and renders the statement with a fresh
// binder.
func (q *InsertQuery) ToSQL() (string, *binder.ValueBinder, error) {
	return toSQL(q)
}

var _ Statement = (*InsertQuery)(nil)
