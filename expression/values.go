package expression

import (
	"maps"
	"strings"

	"github.com/bawdo/sqlexpr/binder"
	"github.com/bawdo/sqlexpr/types"
)

// ValuesExpression holds the rows of an INSERT: either literal rows keyed by
// column, or a single subquery. The two modes cannot be mixed.
type ValuesExpression struct {
	columns []string
	rows    []map[string]any
	query   Query
	typeMap *types.TypeMap
	casted  bool
}

// NewValues creates an empty VALUES list for columns typed through tm.
func NewValues(columns []string, tm *types.TypeMap) *ValuesExpression {
	if tm == nil {
		tm = types.NewTypeMap(nil)
	}
	return &ValuesExpression{columns: columns, typeMap: tm}
}

// Add appends a row (map[string]any) or sets the source subquery.
func (v *ValuesExpression) Add(values any) *ValuesExpression {
	switch x := values.(type) {
	case Query:
		if len(v.rows) > 0 {
			raise(ErrLogic, "you cannot mix subqueries and array values in inserts")
		}
		v.query = x
	case map[string]any:
		if v.query != nil {
			raise(ErrLogic, "you cannot mix subqueries and array values in inserts")
		}
		v.rows = append(v.rows, x)
		v.casted = false
	default:
		raise(ErrInvalidArgument, "insert values must be a row map or a query, %s given", typeName(values))
	}
	return v
}

func (v *ValuesExpression) Columns() []string { return v.columns }

func (v *ValuesExpression) SetColumns(columns []string) *ValuesExpression {
	v.columns = columns
	return v
}

// Values returns the rows after casting values of expression types.
func (v *ValuesExpression) Values() []map[string]any {
	v.processExpressions()
	return v.rows
}

// SetValues replaces every row.
func (v *ValuesExpression) SetValues(rows []map[string]any) *ValuesExpression {
	v.rows = rows
	v.casted = false
	return v
}

func (v *ValuesExpression) Query() Query { return v.query }

func (v *ValuesExpression) SetQuery(q Query) *ValuesExpression {
	v.query = q
	return v
}

func (v *ValuesExpression) TypeMap() *types.TypeMap { return v.typeMap }

// columnNames strips identifier quote characters from the columns.
func (v *ValuesExpression) columnNames() []string {
	out := make([]string, len(v.columns))
	for i, c := range v.columns {
		out[i] = strings.Trim(c, "`[]\"")
	}
	return out
}

// processExpressions converts values of expression types once per set of
// rows.
func (v *ValuesExpression) processExpressions() {
	if v.casted {
		return
	}
	colTypes := make(map[string]string, len(v.columns))
	for _, c := range v.columnNames() {
		colTypes[c] = v.typeMap.Type(c)
	}
	conv := expressionTypes(colTypes)
	if len(conv) == 0 {
		return
	}
	for i, row := range v.rows {
		out := maps.Clone(row)
		for col, t := range conv {
			val, ok := row[col]
			if !ok || val == nil {
				continue
			}
			if _, isExpr := val.(Expression); isExpr {
				continue
			}
			out[col] = t.ToExpression(val)
		}
		v.rows[i] = out
	}
	v.casted = true
}

func (v *ValuesExpression) SQL(b *binder.ValueBinder) string {
	if len(v.rows) > 0 && v.query != nil {
		raise(ErrLogic, "you cannot mix subqueries and array values in inserts")
	}
	if v.query != nil {
		return v.query.SQL(b)
	}
	if len(v.rows) == 0 {
		return ""
	}
	v.processExpressions()
	columns := v.columnNames()
	colTypes := make([]string, len(columns))
	for i, c := range columns {
		colTypes[i] = v.typeMap.Type(c)
	}
	groups := make([]string, len(v.rows))
	for r, row := range v.rows {
		placeholders := make([]string, len(columns))
		for i, col := range columns {
			if e, ok := row[col].(Expression); ok {
				placeholders[i] = "(" + e.SQL(b) + ")"
				continue
			}
			placeholders[i] = bindValue(b, "c", row[col], colTypes[i])
		}
		groups[r] = "(" + strings.Join(placeholders, ", ") + ")"
	}
	return "VALUES " + strings.Join(groups, ", ")
}

func (v *ValuesExpression) Traverse(visit func(Expression)) {
	if v.query != nil {
		walk(v.query, visit)
		return
	}
	v.processExpressions()
	columns := v.columnNames()
	for _, row := range v.rows {
		for _, col := range columns {
			walk(row[col], visit)
		}
	}
}

func (v *ValuesExpression) Clone() Expression {
	c := *v
	c.columns = append([]string(nil), v.columns...)
	c.rows = make([]map[string]any, len(v.rows))
	for i, row := range v.rows {
		r := make(map[string]any, len(row))
		for k, val := range row {
			r[k] = cloneValue(val)
		}
		c.rows[i] = r
	}
	if v.query != nil {
		c.query = v.query.Clone().(Query)
	}
	return &c
}
