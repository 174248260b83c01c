package expression

import (
	"strings"

	"github.com/bawdo/sqlexpr/binder"
	"github.com/bawdo/sqlexpr/types"
)

// Builder is a closure that receives a fresh QueryExpression sharing the
// caller's type map and returns the expression to add.
type Builder func(exp *QueryExpression) Expression

// QueryExpression is a list of conditions joined by one conjunction (AND,
// OR, XOR, or "," for SET lists). Conditions are raw SQL strings or
// expressions. An empty list renders "", a single condition renders bare and
// two or more are wrapped in parentheses.
type QueryExpression struct {
	conditions  []any
	conjunction string
	typeMap     *types.TypeMap
}

// NewQueryExpression creates a condition tree from conditions (see Add). A
// nil typeMap means no known types; an empty conjunction means AND.
func NewQueryExpression(conditions any, typeMap *types.TypeMap, conjunction string) *QueryExpression {
	if typeMap == nil {
		typeMap = types.NewTypeMap(nil)
	}
	if conjunction == "" {
		conjunction = "AND"
	}
	q := &QueryExpression{conjunction: upper(conjunction), typeMap: typeMap}
	if !isEmpty(conditions) {
		q.Add(conditions)
	}
	return q
}

// NewAnd creates an AND tree from conditions.
func NewAnd(conditions any) *QueryExpression {
	return NewQueryExpression(conditions, nil, "AND")
}

// NewOr creates an OR tree from conditions.
func NewOr(conditions any) *QueryExpression {
	return NewQueryExpression(conditions, nil, "OR")
}

// TypeMap returns the type map used to type parsed conditions.
func (q *QueryExpression) TypeMap() *types.TypeMap { return q.typeMap }

// SetTypeMap replaces the type map. The map is shared, not copied.
func (q *QueryExpression) SetTypeMap(tm *types.TypeMap) *QueryExpression {
	if tm == nil {
		tm = types.NewTypeMap(nil)
	}
	q.typeMap = tm
	return q
}

func (q *QueryExpression) Conjunction() string { return q.conjunction }

func (q *QueryExpression) SetConjunction(conjunction string) *QueryExpression {
	q.conjunction = upper(conjunction)
	return q
}

// Add appends conditions. Accepted forms:
//
//   - a string, appended verbatim as raw SQL;
//   - an Expression, appended as is;
//   - a Builder or func(*QueryExpression) *QueryExpression;
//   - Conditions, map[string]any, []any or []string, processed entry by entry.
//
// Keyed entries named and, or or xor (any case) nest a tree with that
// conjunction, not nests a negated AND tree, and any other key is parsed as
// "field operator" and compared with the entry's value.
func (q *QueryExpression) Add(conditions any) *QueryExpression {
	switch c := conditions.(type) {
	case string:
		q.conditions = append(q.conditions, c)
		return q
	case Expression:
		q.conditions = append(q.conditions, c)
		return q
	}
	if fn, ok := asBuilder(conditions); ok {
		q.add(List(fn), q.typeMap)
		return q
	}
	list, ok := toConditions(conditions)
	if !ok {
		raise(ErrInvalidArgument, "cannot add conditions of type %s", typeName(conditions))
	}
	q.add(list, q.typeMap)
	return q
}

// AddTyped is Add with extra column types used when parsing conditions.
func (q *QueryExpression) AddTyped(conditions any, columnTypes map[string]string) *QueryExpression {
	if len(columnTypes) > 0 {
		q.typeMap = q.typeMap.Clone().AddTypes(columnTypes)
	}
	return q.Add(conditions)
}

func asBuilder(v any) (Builder, bool) {
	switch fn := v.(type) {
	case Builder:
		return fn, true
	case func(*QueryExpression) Expression:
		return fn, true
	case func(*QueryExpression) *QueryExpression:
		return func(e *QueryExpression) Expression {
			if r := fn(e); r != nil {
				return r
			}
			return nil
		}, true
	}
	return nil, false
}

func (q *QueryExpression) add(list Conditions, tm *types.TypeMap) {
	for _, entry := range list {
		k, c := entry.Key, entry.Value
		positional := k == ""
		if fn, ok := asBuilder(c); ok {
			var r any = fn(NewQueryExpression(nil, tm, ""))
			if isNil(r) {
				r = nil
			}
			c = r
		}
		if positional && isEmpty(c) {
			continue
		}
		var isOperator, isNot bool
		if !positional {
			switch strings.ToLower(k) {
			case "and", "or", "xor":
				isOperator = true
			case "not":
				isNot = true
			}
		}
		if (isOperator || isNot) && isContainer(c) && isEmpty(c) {
			continue
		}
		switch {
		case positional:
			switch v := c.(type) {
			case Expression:
				q.conditions = append(q.conditions, v)
			case string:
				q.conditions = append(q.conditions, v)
			default:
				if !isContainer(c) {
					raise(ErrInvalidArgument, "positional condition must be a string, an expression or a list, %s given", typeName(c))
				}
				q.conditions = append(q.conditions, NewQueryExpression(c, tm, "AND"))
			}
		case isOperator:
			q.conditions = append(q.conditions, NewQueryExpression(c, tm, k))
		case isNot:
			q.conditions = append(q.conditions, NewUnary("NOT", NewQueryExpression(c, tm, "AND"), Prefix))
		default:
			q.conditions = append(q.conditions, q.parseCondition(k, c))
		}
	}
}

// parseCondition turns a "field operator" key and its value into a node.
func (q *QueryExpression) parseCondition(key string, value any) Expression {
	p := ParseCondition(key)
	op := p.Operator
	typ := q.typeMap.Type(p.Field)
	multi := types.IsMultiple(typ)
	if p.Multiple() || multi {
		if typ == "" {
			typ = "string"
		}
		if !multi {
			typ += "[]"
		}
		switch op {
		case "=":
			op = "IN"
		case "!=", "<>":
			op = "NOT IN"
		}
		multi = true
	}
	if multi {
		if _, ok := value.(Expression); !ok {
			if value == nil {
				value = []any{}
			} else if items, ok := toSlice(value); ok {
				value = items
			} else {
				value = []any{value}
			}
		}
	}
	switch {
	case p.kind == opIs && value == nil:
		return NewUnary("IS NULL", NewIdentifier(p.Field), Postfix)
	case p.kind == opIsNot && value == nil:
		return NewUnary("IS NOT NULL", NewIdentifier(p.Field), Postfix)
	case p.kind == opIs:
		op = "="
	case p.kind == opIsNot:
		op = "!="
	}
	if value == nil && q.conjunction != "," {
		raise(ErrInvalidArgument, "expression %q is missing operator (IS, IS NOT) with nil value", p.Field)
	}
	return NewComparison(p.Field, value, typ, op)
}

// calculateType resolves the type of a field through the type map.
func (q *QueryExpression) calculateType(field any) string {
	switch f := field.(type) {
	case *IdentifierExpression:
		return q.typeMap.Type(f.Identifier())
	case string:
		return q.typeMap.Type(f)
	}
	return ""
}

func (q *QueryExpression) typeFor(field any, typ []string) string {
	if len(typ) > 0 && typ[0] != "" {
		return typ[0]
	}
	return q.calculateType(field)
}

func (q *QueryExpression) compare(field, value any, typ []string, op string) *QueryExpression {
	return q.Add(NewComparison(field, value, q.typeFor(field, typ), op))
}

// Eq adds "field = value".
func (q *QueryExpression) Eq(field, value any, typ ...string) *QueryExpression {
	return q.compare(field, value, typ, "=")
}

// NotEq adds "field != value".
func (q *QueryExpression) NotEq(field, value any, typ ...string) *QueryExpression {
	return q.compare(field, value, typ, "!=")
}

// Gt adds "field > value".
func (q *QueryExpression) Gt(field, value any, typ ...string) *QueryExpression {
	return q.compare(field, value, typ, ">")
}

// Lt adds "field < value".
func (q *QueryExpression) Lt(field, value any, typ ...string) *QueryExpression {
	return q.compare(field, value, typ, "<")
}

// Gte adds "field >= value".
func (q *QueryExpression) Gte(field, value any, typ ...string) *QueryExpression {
	return q.compare(field, value, typ, ">=")
}

// Lte adds "field <= value".
func (q *QueryExpression) Lte(field, value any, typ ...string) *QueryExpression {
	return q.compare(field, value, typ, "<=")
}

// Like adds "field LIKE value".
func (q *QueryExpression) Like(field, value any, typ ...string) *QueryExpression {
	return q.compare(field, value, typ, "LIKE")
}

// NotLike adds "field NOT LIKE value".
func (q *QueryExpression) NotLike(field, value any, typ ...string) *QueryExpression {
	return q.compare(field, value, typ, "NOT LIKE")
}

func (q *QueryExpression) list(field, values any, typ []string, op string) *QueryExpression {
	t := q.typeFor(field, typ)
	if t == "" {
		t = "string"
	}
	if !types.IsMultiple(t) {
		t += "[]"
	}
	if _, ok := values.(Expression); !ok {
		if items, ok := toSlice(values); ok {
			values = items
		} else if values == nil {
			values = []any{}
		} else {
			values = []any{values}
		}
	}
	return q.Add(NewComparison(field, values, t, op))
}

// In adds "field IN (values)". values is a list, a single value or a
// subquery. The element type defaults to string.
func (q *QueryExpression) In(field, values any, typ ...string) *QueryExpression {
	return q.list(field, values, typ, "IN")
}

// NotIn adds "field NOT IN (values)".
func (q *QueryExpression) NotIn(field, values any, typ ...string) *QueryExpression {
	return q.list(field, values, typ, "NOT IN")
}

// NotInOrNull adds "(field NOT IN (values) OR (field) IS NULL)".
func (q *QueryExpression) NotInOrNull(field, values any, typ ...string) *QueryExpression {
	or := NewQueryExpression(nil, q.typeMap, "OR")
	or.NotIn(field, values, typ...).IsNull(field)
	return q.Add(or)
}

func identifier(field any) any {
	if s, ok := field.(string); ok {
		return NewIdentifier(s)
	}
	return field
}

// IsNull adds "(field) IS NULL".
func (q *QueryExpression) IsNull(field any) *QueryExpression {
	return q.Add(NewUnary("IS NULL", identifier(field), Postfix))
}

// IsNotNull adds "(field) IS NOT NULL".
func (q *QueryExpression) IsNotNull(field any) *QueryExpression {
	return q.Add(NewUnary("IS NOT NULL", identifier(field), Postfix))
}

// Exists adds "EXISTS (subquery)".
func (q *QueryExpression) Exists(subquery Expression) *QueryExpression {
	return q.Add(NewUnary("EXISTS", subquery, Prefix))
}

// NotExists adds "NOT EXISTS (subquery)".
func (q *QueryExpression) NotExists(subquery Expression) *QueryExpression {
	return q.Add(NewUnary("NOT EXISTS", subquery, Prefix))
}

// Between adds "field BETWEEN from AND to".
func (q *QueryExpression) Between(field, from, to any, typ ...string) *QueryExpression {
	return q.Add(NewBetween(field, from, to, q.typeFor(field, typ)))
}

// EqualFields adds "left = right" comparing two columns.
func (q *QueryExpression) EqualFields(left, right any) *QueryExpression {
	return q.Eq(identifier(left), identifier(right))
}

// AddCase adds a legacy CASE expression. See NewCaseExpression.
func (q *QueryExpression) AddCase(conditions []Expression, values any, valueTypes []string) *QueryExpression {
	return q.Add(NewCaseExpression(conditions, values, valueTypes))
}

// Case returns a searched CASE builder sharing this type map. It is not
// added to q.
func (q *QueryExpression) Case() *CaseStatementExpression {
	return NewCaseStatement().SetTypeMap(q.typeMap)
}

// SimpleCase returns a simple CASE builder comparing value. It is not added
// to q.
func (q *QueryExpression) SimpleCase(value any, typ ...string) *CaseStatementExpression {
	t := ""
	if len(typ) > 0 {
		t = typ[0]
	}
	return NewSimpleCaseStatement(value, t).SetTypeMap(q.typeMap)
}

// And returns a new AND tree over conditions sharing this type map. It is
// not added to q.
func (q *QueryExpression) And(conditions any) *QueryExpression {
	return q.nested(conditions, "AND")
}

// Or returns a new OR tree over conditions sharing this type map. It is not
// added to q.
func (q *QueryExpression) Or(conditions any) *QueryExpression {
	return q.nested(conditions, "OR")
}

func (q *QueryExpression) nested(conditions any, conjunction string) *QueryExpression {
	if fn, ok := asBuilder(conditions); ok {
		r := fn(NewQueryExpression(nil, q.typeMap, conjunction))
		if qe, ok := r.(*QueryExpression); ok {
			return qe
		}
		return NewQueryExpression(r, q.typeMap, conjunction)
	}
	return NewQueryExpression(conditions, q.typeMap, conjunction)
}

// Not adds the negation of conditions.
func (q *QueryExpression) Not(conditions any) *QueryExpression {
	return q.Add(Conditions{{Key: "NOT", Value: conditions}})
}

// Count returns the number of conditions, including ones rendering empty.
func (q *QueryExpression) Count() int { return len(q.conditions) }

// HasNestedExpression reports whether any condition is an expression.
func (q *QueryExpression) HasNestedExpression() bool {
	for _, c := range q.conditions {
		if _, ok := c.(Expression); ok {
			return true
		}
	}
	return false
}

// IterateParts replaces every condition with the result of fn. Returning nil
// removes the condition.
func (q *QueryExpression) IterateParts(fn func(part any) any) *QueryExpression {
	parts := q.conditions[:0:0]
	for _, c := range q.conditions {
		if r := fn(c); r != nil {
			parts = append(parts, r)
		}
	}
	q.conditions = parts
	return q
}

func (q *QueryExpression) SQL(b *binder.ValueBinder) string {
	parts := make([]string, 0, len(q.conditions))
	for _, c := range q.conditions {
		if s := operand(c, b); s != "" {
			parts = append(parts, s)
		}
	}
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}
	if q.conjunction == "," {
		return strings.Join(parts, ", ")
	}
	return "(" + strings.Join(parts, " "+q.conjunction+" ") + ")"
}

func (q *QueryExpression) Traverse(visit func(Expression)) {
	for _, c := range q.conditions {
		walk(c, visit)
	}
}

func (q *QueryExpression) Clone() Expression {
	c := *q
	c.conditions = cloneSlice(q.conditions)
	return &c
}
