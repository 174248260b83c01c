package query

import (
	"slices"
	"strings"

	"github.com/bawdo/sqlexpr/binder"
	"github.com/bawdo/sqlexpr/expression"
	"github.com/bawdo/sqlexpr/types"
)

// Join types.
const (
	InnerJoin = "INNER"
	LeftJoin  = "LEFT"
	RightJoin = "RIGHT"
)

// Join is one JOIN of a SELECT. Table is a table name or an expression such
// as a subquery; Conditions renders after ON, or "1 = 1" when empty.
type Join struct {
	Alias      string
	Table      any
	Type       string
	Conditions *expression.QueryExpression
}

func (j *Join) clone() *Join {
	c := *j
	c.Table = cloneValue(j.Table)
	c.Conditions = cloneConditions(j.Conditions)
	return &c
}

type namedWindow struct {
	name   string
	window *expression.WindowExpression
}

type union struct {
	all   bool
	query *SelectQuery
}

var selectClauses = []string{
	"with", "select", "distinct", "modifier", "from", "join", "where",
	"group", "having", "window", "order", "limit", "offset", "union", "epilog",
}

// SelectQuery provides a fluent API for building SELECT statements.
type SelectQuery struct {
	base
	fields  *expression.SelectExpression
	from    expression.Conditions
	joins   []*Join
	where   *expression.QueryExpression
	group   []any
	having  *expression.QueryExpression
	windows []namedWindow
	order   *expression.OrderByExpression
	limit   *int
	offset  *int
	unions  []union
}

// NewSelect creates an empty SELECT statement. fields are added with Select.
func NewSelect(fields ...any) *SelectQuery {
	q := &SelectQuery{
		base:   newBase(),
		fields: expression.NewSelect(nil),
		order:  expression.NewOrderBy(nil),
	}
	for _, f := range fields {
		q.Select(f)
	}
	return q
}

func (q *SelectQuery) StatementType() string { return "select" }

// SetTypeMap replaces the type map used by conditions added afterwards.
func (q *SelectQuery) SetTypeMap(tm *types.TypeMap) *SelectQuery {
	q.setTypeMap(tm)
	return q
}

// With adds a common table expression.
func (q *SelectQuery) With(cte *expression.CommonTableExpression) *SelectQuery {
	q.addWith(cte)
	return q
}

// Select adds fields. See expression.SelectExpression.Add for the accepted
// forms; keyed entries are aliased.
func (q *SelectQuery) Select(fields any) *SelectQuery {
	if !isEmpty(fields) {
		q.fields.Add(fields)
	}
	return q
}

// SetSelect replaces every field.
func (q *SelectQuery) SetSelect(fields any) *SelectQuery {
	q.fields.Set(fields)
	return q
}

// Distinct adds DISTINCT, or DISTINCT ON (on) when fields are given.
func (q *SelectQuery) Distinct(on ...any) *SelectQuery {
	q.fields.Distinct(on...)
	return q
}

// Modifier adds SELECT modifiers such as SQL_CALC_FOUND_ROWS.
func (q *SelectQuery) Modifier(modifiers ...string) *SelectQuery {
	q.fields.Modifier(modifiers...)
	return q
}

// From adds tables. tables is a table name, an expression, or Conditions /
// map[string]string keyed by alias.
func (q *SelectQuery) From(tables any) *SelectQuery {
	q.from = append(q.from, sources(tables)...)
	return q
}

// SetFrom replaces every table.
func (q *SelectQuery) SetFrom(tables any) *SelectQuery {
	q.from = sources(tables)
	return q
}

func sources(tables any) expression.Conditions {
	switch t := tables.(type) {
	case nil:
		return nil
	case string, expression.Expression:
		return expression.List(t)
	case expression.Conditions:
		return slices.Clone(t)
	case []string:
		out := make(expression.Conditions, len(t))
		for i, s := range t {
			out[i] = expression.Cond{Value: s}
		}
		return out
	case map[string]string:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		out := make(expression.Conditions, len(keys))
		for i, k := range keys {
			out[i] = expression.Cond{Key: k, Value: t[k]}
		}
		return out
	}
	raise(expression.ErrInvalidArgument, "cannot use %T as a table", tables)
	return nil
}

// Join adds an INNER JOIN of table under alias, on conditions.
func (q *SelectQuery) Join(alias string, table, conditions any, colTypes ...map[string]string) *SelectQuery {
	return q.join(InnerJoin, alias, table, conditions, colTypes)
}

// InnerJoin is Join.
func (q *SelectQuery) InnerJoin(alias string, table, conditions any, colTypes ...map[string]string) *SelectQuery {
	return q.join(InnerJoin, alias, table, conditions, colTypes)
}

// LeftJoin adds a LEFT JOIN.
func (q *SelectQuery) LeftJoin(alias string, table, conditions any, colTypes ...map[string]string) *SelectQuery {
	return q.join(LeftJoin, alias, table, conditions, colTypes)
}

// RightJoin adds a RIGHT JOIN.
func (q *SelectQuery) RightJoin(alias string, table, conditions any, colTypes ...map[string]string) *SelectQuery {
	return q.join(RightJoin, alias, table, conditions, colTypes)
}

func (q *SelectQuery) join(typ, alias string, table, conditions any, colTypes []map[string]string) *SelectQuery {
	switch table.(type) {
	case string, expression.Expression:
	default:
		raise(expression.ErrInvalidArgument, "cannot join %T", table)
	}
	var on *expression.QueryExpression
	conjugate(&on, q.typeMap, conditions, "AND", colTypes)
	q.joins = append(q.joins, &Join{Alias: alias, Table: table, Type: typ, Conditions: on})
	return q
}

// RemoveJoin drops the join registered under alias.
func (q *SelectQuery) RemoveJoin(alias string) *SelectQuery {
	q.joins = slices.DeleteFunc(q.joins, func(j *Join) bool { return j.Alias == alias })
	return q
}

// Where adds conditions joined with AND. colTypes types the fields of
// these conditions only.
func (q *SelectQuery) Where(conditions any, colTypes ...map[string]string) *SelectQuery {
	conjugate(&q.where, q.typeMap, conditions, "AND", colTypes)
	return q
}

// AndWhere is Where.
func (q *SelectQuery) AndWhere(conditions any, colTypes ...map[string]string) *SelectQuery {
	return q.Where(conditions, colTypes...)
}

// OrWhere joins conditions to the existing WHERE clause with OR.
func (q *SelectQuery) OrWhere(conditions any, colTypes ...map[string]string) *SelectQuery {
	conjugate(&q.where, q.typeMap, conditions, "OR", colTypes)
	return q
}

// SetWhere replaces the WHERE clause.
func (q *SelectQuery) SetWhere(conditions any, colTypes ...map[string]string) *SelectQuery {
	q.where = nil
	return q.Where(conditions, colTypes...)
}

// WhereNull adds "(field) IS NULL" for each field.
func (q *SelectQuery) WhereNull(fields ...string) *SelectQuery {
	for _, f := range fields {
		q.Where(q.NewExpr().IsNull(f))
	}
	return q
}

// WhereNotNull adds "(field) IS NOT NULL" for each field.
func (q *SelectQuery) WhereNotNull(fields ...string) *SelectQuery {
	for _, f := range fields {
		q.Where(q.NewExpr().IsNotNull(f))
	}
	return q
}

// WhereInList adds "field IN (values)". An empty list panics with
// expression.ErrEmptyValueList unless allowEmpty is set, in which case the
// condition never matches.
func (q *SelectQuery) WhereInList(field string, values []any, allowEmpty bool) *SelectQuery {
	if len(values) == 0 {
		if !allowEmpty {
			raise(expression.ErrEmptyValueList, "no values were given for the IN list of %q", field)
		}
		return q.Where("1=0")
	}
	return q.Where(q.NewExpr().In(field, values))
}

// WhereNotInList adds "field NOT IN (values)". An empty list is skipped when
// allowEmpty is set.
func (q *SelectQuery) WhereNotInList(field string, values []any, allowEmpty bool) *SelectQuery {
	if len(values) == 0 {
		if !allowEmpty {
			raise(expression.ErrEmptyValueList, "no values were given for the NOT IN list of %q", field)
		}
		return q
	}
	return q.Where(q.NewExpr().NotIn(field, values))
}

// Group adds GROUP BY fields: a field name, an expression or a list.
func (q *SelectQuery) Group(fields any) *SelectQuery {
	q.group = append(q.group, groupFields(fields)...)
	return q
}

// SetGroup replaces every GROUP BY field.
func (q *SelectQuery) SetGroup(fields any) *SelectQuery {
	q.group = groupFields(fields)
	return q
}

func groupFields(fields any) []any {
	switch f := fields.(type) {
	case nil:
		return nil
	case string, expression.Expression:
		return []any{f}
	case []string:
		out := make([]any, len(f))
		for i, s := range f {
			out[i] = s
		}
		return out
	case []any:
		for _, v := range f {
			switch v.(type) {
			case string, expression.Expression:
			default:
				raise(expression.ErrInvalidArgument, "group field must be a string or an expression, %T given", v)
			}
		}
		return slices.Clone(f)
	}
	raise(expression.ErrInvalidArgument, "cannot group by %T", fields)
	return nil
}

// Having adds HAVING conditions joined with AND.
func (q *SelectQuery) Having(conditions any, colTypes ...map[string]string) *SelectQuery {
	conjugate(&q.having, q.typeMap, conditions, "AND", colTypes)
	return q
}

// AndHaving is Having.
func (q *SelectQuery) AndHaving(conditions any, colTypes ...map[string]string) *SelectQuery {
	return q.Having(conditions, colTypes...)
}

// Window adds a named window. window is a *expression.WindowExpression or a
// func(*expression.WindowExpression) *expression.WindowExpression.
func (q *SelectQuery) Window(name string, window any) *SelectQuery {
	var w *expression.WindowExpression
	switch x := window.(type) {
	case *expression.WindowExpression:
		w = x
	case func(*expression.WindowExpression) *expression.WindowExpression:
		w = x(expression.NewWindow(""))
	}
	if w == nil {
		raise(expression.ErrInvalidArgument, "window %q must be a window expression, %T given", name, window)
	}
	q.windows = append(q.windows, namedWindow{name: name, window: w})
	return q
}

// Order adds ORDER BY terms. See expression.OrderByExpression.Add.
func (q *SelectQuery) Order(fields any) *SelectQuery {
	if !isEmpty(fields) {
		q.order.Add(fields)
	}
	return q
}

// OrderAsc adds "field ASC".
func (q *SelectQuery) OrderAsc(field any) *SelectQuery {
	q.order.Add(expression.NewOrderClause(field, "ASC"))
	return q
}

// OrderDesc adds "field DESC".
func (q *SelectQuery) OrderDesc(field any) *SelectQuery {
	q.order.Add(expression.NewOrderClause(field, "DESC"))
	return q
}

// SetOrder replaces the ORDER BY clause.
func (q *SelectQuery) SetOrder(fields any) *SelectQuery {
	q.order = expression.NewOrderBy(fields)
	return q
}

// Limit sets the LIMIT value.
func (q *SelectQuery) Limit(n int) *SelectQuery {
	if n < 0 {
		raise(expression.ErrInvalidArgument, "limit must be non-negative, %d given", n)
	}
	q.limit = &n
	return q
}

// Offset sets the OFFSET value.
func (q *SelectQuery) Offset(n int) *SelectQuery {
	if n < 0 {
		raise(expression.ErrInvalidArgument, "offset must be non-negative, %d given", n)
	}
	q.offset = &n
	return q
}

// Page sets LIMIT and OFFSET for the one-based page num.
func (q *SelectQuery) Page(num, limit int) *SelectQuery {
	if num < 1 {
		raise(expression.ErrInvalidArgument, "pages must start at 1, %d given", num)
	}
	return q.Limit(limit).Offset((num - 1) * limit)
}

// Union appends "UNION (other)".
func (q *SelectQuery) Union(other *SelectQuery) *SelectQuery {
	q.unions = append(q.unions, union{query: other})
	return q
}

// UnionAll appends "UNION ALL (other)".
func (q *SelectQuery) UnionAll(other *SelectQuery) *SelectQuery {
	q.unions = append(q.unions, union{all: true, query: other})
	return q
}

// Epilog sets trailing SQL such as "FOR UPDATE".
func (q *SelectQuery) Epilog(epilog any) *SelectQuery {
	q.setEpilog(epilog)
	return q
}

// Use registers a transformer to be applied before SQL generation.
func (q *SelectQuery) Use(t Transformer) *SelectQuery {
	q.transformers = append(q.transformers, t)
	return q
}

// Clause returns the named part: "with" (*WithExpression), "select"
// (*SelectExpression), "distinct" (bool), "modifier" ([]string), "from"
// (Conditions), "join" ([]*Join), "where" and "having" (*QueryExpression, may
// be nil), "group" ([]any), "window" (map of name to window), "order"
// (*OrderByExpression), "limit" and "offset" (*int), "union"
// ([]*SelectQuery) or "epilog". Other names panic with
// expression.ErrInvalidArgument.
func (q *SelectQuery) Clause(name string) any {
	checkClause(name, selectClauses)
	switch name {
	case "with":
		return q.with
	case "select":
		return q.fields
	case "distinct":
		return q.fields.IsDistinct()
	case "modifier":
		return q.fields.Modifiers()
	case "from":
		return slices.Clone(q.from)
	case "join":
		return slices.Clone(q.joins)
	case "where":
		return q.where
	case "group":
		return slices.Clone(q.group)
	case "having":
		return q.having
	case "window":
		out := make(map[string]*expression.WindowExpression, len(q.windows))
		for _, w := range q.windows {
			out[w.name] = w.window
		}
		return out
	case "order":
		return q.order
	case "limit":
		return q.limit
	case "offset":
		return q.offset
	case "union":
		out := make([]*SelectQuery, len(q.unions))
		for i, u := range q.unions {
			out[i] = u.query
		}
		return out
	}
	return q.epilog
}

func (q *SelectQuery) SQL(b *binder.ValueBinder) string {
	c := newCompiler(b)
	c.writeWith(q.with)
	c.sb.WriteString(q.fields.SQL(b))
	c.writeSources(" FROM ", q.from)
	c.writeJoins(q.joins)
	c.writeConditions(" WHERE ", q.where)
	c.writeList(" GROUP BY ", q.group)
	c.writeConditions(" HAVING ", q.having)
	c.writeWindows(q.windows)
	c.writeOrder(q.order)
	c.writeInt(" LIMIT ", q.limit)
	c.writeInt(" OFFSET ", q.offset)
	c.writeUnions(q.unions)
	c.writeEpilog(q.epilog)
	return c.String()
}

func (q *SelectQuery) Traverse(visit func(expression.Expression)) {
	q.traverseBase(visit)
	walk(q.fields, visit)
	for _, f := range q.from {
		walk(f.Value, visit)
	}
	for _, j := range q.joins {
		walk(j.Table, visit)
		if j.Conditions != nil {
			walk(j.Conditions, visit)
		}
	}
	if q.where != nil {
		walk(q.where, visit)
	}
	for _, g := range q.group {
		walk(g, visit)
	}
	if q.having != nil {
		walk(q.having, visit)
	}
	for _, w := range q.windows {
		walk(w.window, visit)
	}
	walk(q.order, visit)
	for _, u := range q.unions {
		walk(u.query, visit)
	}
	walk(q.epilog, visit)
}

// Clone returns a deep copy. Transformers are shared, not copied.
func (q *SelectQuery) Clone() expression.Expression {
	c := &SelectQuery{
		base:   q.cloneBase(),
		fields: q.fields.Clone().(*expression.SelectExpression),
		from:   q.from.Clone(),
		where:  cloneConditions(q.where),
		having: cloneConditions(q.having),
		order:  q.order.Clone().(*expression.OrderByExpression),
		limit:  q.limit,
		offset: q.offset,
	}
	for _, j := range q.joins {
		c.joins = append(c.joins, j.clone())
	}
	for _, g := range q.group {
		c.group = append(c.group, cloneValue(g))
	}
	for _, w := range q.windows {
		c.windows = append(c.windows, namedWindow{name: w.name, window: w.window.Clone().(*expression.WindowExpression)})
	}
	for _, u := range q.unions {
		c.unions = append(c.unions, union{all: u.all, query: u.query.Clone().(*SelectQuery)})
	}
	return c
}

// Transform applies the transformers to a clone.
func (q *SelectQuery) Transform() (Statement, error) {
	c := q.Clone().(*SelectQuery)
	var err error
	for _, t := range q.transformers {
		if c, err = t.TransformSelect(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ToSQL applies the transformers and renders the statement with a fresh
// binder. Builder misuse is returned as an error.
func (q *SelectQuery) ToSQL() (string, *binder.ValueBinder, error) {
	return toSQL(q)
}

// String renders the statement for display, ignoring errors.
func (q *SelectQuery) String() string {
	sql, _, _ := q.ToSQL()
	return strings.TrimSpace(sql)
}

func toSQL(s Statement) (sql string, b *binder.ValueBinder, err error) {
	defer expression.Recover(&err)
	t, err := s.Transform()
	if err != nil {
		return "", nil, err
	}
	return compile(t)
}

var _ Statement = (*SelectQuery)(nil)
