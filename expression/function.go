package expression

import (
	"strconv"
	"strings"

	"github.com/bawdo/sqlexpr/binder"
)

// Parameter markers for keyed function arguments.
const (
	// Literal inserts the entry key verbatim.
	Literal = "literal"
	// Identifier wraps the entry key in an IdentifierExpression.
	Identifier = "identifier"
)

// boundParam is a function argument bound as a value at render time.
type boundParam struct {
	value any
	typ   string
}

// FunctionExpression renders a SQL function call NAME(arg, ...). Arguments
// are bound values, expressions, or keyed entries marked Literal or
// Identifier, which are the only way to put unbound text into the call.
type FunctionExpression struct {
	name        string
	params      []any // string (literal), Expression or boundParam
	conjunction string
	returnType  string
}

// NewFunction creates a function call. params is a []any of positional
// values or Conditions mixing positional values with keyed Literal and
// Identifier markers. argTypes is keyed by position ("0", "1", ...) or by
// entry key. An empty returnType means "string".
func NewFunction(name string, params any, argTypes map[string]string, returnType string) *FunctionExpression {
	if returnType == "" {
		returnType = "string"
	}
	f := &FunctionExpression{name: name, conjunction: ",", returnType: returnType}
	if !isEmpty(params) {
		f.AddTyped(params, argTypes)
	}
	return f
}

func (f *FunctionExpression) Name() string { return f.name }

func (f *FunctionExpression) SetName(name string) *FunctionExpression {
	f.name = name
	return f
}

func (f *FunctionExpression) ReturnType() string { return f.returnType }

func (f *FunctionExpression) SetReturnType(typ string) { f.returnType = typ }

func (f *FunctionExpression) Conjunction() string { return f.conjunction }

// SetConjunction changes the argument separator, for example " AS" for
// CAST(x AS type). A single space always follows it.
func (f *FunctionExpression) SetConjunction(conjunction string) *FunctionExpression {
	f.conjunction = conjunction
	return f
}

// Add appends arguments.
func (f *FunctionExpression) Add(params any) *FunctionExpression {
	return f.AddTyped(params, nil)
}

// AddTyped appends arguments typed through argTypes.
func (f *FunctionExpression) AddTyped(params any, argTypes map[string]string) *FunctionExpression {
	f.params = append(f.params, f.normalize(params, argTypes)...)
	return f
}

// Prepend inserts arguments before the existing ones.
func (f *FunctionExpression) Prepend(params any, argTypes map[string]string) *FunctionExpression {
	f.params = append(f.normalize(params, argTypes), f.params...)
	return f
}

func (f *FunctionExpression) normalize(params any, argTypes map[string]string) []any {
	var list Conditions
	switch p := params.(type) {
	case Expression:
		list = List(p)
	default:
		var ok bool
		if list, ok = toConditions(params); !ok {
			list = List(params)
		}
	}
	out := make([]any, 0, len(list))
	// Positional type keys count positional arguments only.
	pos := 0
	for _, c := range list {
		key := c.Key
		if key != "" {
			switch c.Value {
			case Literal:
				out = append(out, key)
				continue
			case Identifier:
				out = append(out, NewIdentifier(key))
				continue
			}
		} else {
			key = strconv.Itoa(pos)
			pos++
		}
		typ := argTypes[key]
		p := c.Value
		if _, ok := p.(Expression); !ok && typ != "" {
			p = castToExpression(p, typ)
		}
		if e, ok := p.(Expression); ok {
			out = append(out, e)
			continue
		}
		out = append(out, boundParam{value: p, typ: typ})
	}
	return out
}

// Count returns the number of nodes: the call itself plus its arguments.
func (f *FunctionExpression) Count() int { return 1 + len(f.params) }

func (f *FunctionExpression) SQL(b *binder.ValueBinder) string {
	parts := make([]string, len(f.params))
	for i, p := range f.params {
		switch x := p.(type) {
		case boundParam:
			parts[i] = bindValue(b, "param", x.value, x.typ)
		default:
			parts[i] = operand(x, b)
		}
	}
	return f.name + "(" + strings.Join(parts, f.conjunction+" ") + ")"
}

func (f *FunctionExpression) Traverse(visit func(Expression)) {
	for _, p := range f.params {
		walk(p, visit)
	}
}

func (f *FunctionExpression) Clone() Expression {
	return f.clone()
}

func (f *FunctionExpression) clone() *FunctionExpression {
	c := *f
	c.params = cloneSlice(f.params)
	return &c
}

// AggregateExpression is an aggregate or window function call with optional
// FILTER (WHERE ...) and OVER clauses.
type AggregateExpression struct {
	*FunctionExpression
	filter *QueryExpression
	window *WindowExpression
}

// NewAggregate creates an aggregate call. See NewFunction for params. An
// empty returnType means "float".
func NewAggregate(name string, params any, argTypes map[string]string, returnType string) *AggregateExpression {
	if returnType == "" {
		returnType = "float"
	}
	return &AggregateExpression{FunctionExpression: NewFunction(name, params, argTypes, returnType)}
}

// Filter adds conditions to the FILTER (WHERE ...) clause.
func (a *AggregateExpression) Filter(conditions any) *AggregateExpression {
	if a.filter == nil {
		a.filter = NewQueryExpression(nil, nil, "AND")
	}
	if fn, ok := asBuilder(conditions); ok {
		conditions = fn(NewQueryExpression(nil, nil, "AND"))
	}
	a.filter.Add(conditions)
	return a
}

// Over attaches a window. With a name the window refers to a named window
// defined on the query; partitions, ordering and frames already set are kept
// and extend it.
func (a *AggregateExpression) Over(name ...string) *AggregateExpression {
	if a.window == nil {
		a.window = NewWindow("")
	}
	if len(name) > 0 && name[0] != "" {
		a.window.Name(name[0])
	}
	return a
}

// Window returns the attached window, or nil.
func (a *AggregateExpression) Window() *WindowExpression { return a.window }

func (a *AggregateExpression) Partition(partitions any) *AggregateExpression {
	a.Over()
	a.window.Partition(partitions)
	return a
}

func (a *AggregateExpression) Order(fields any) *AggregateExpression {
	a.Over()
	a.window.Order(fields)
	return a
}

func (a *AggregateExpression) Range(start, end any) *AggregateExpression {
	a.Over()
	a.window.Range(start, end)
	return a
}

func (a *AggregateExpression) Rows(start, end any) *AggregateExpression {
	a.Over()
	a.window.Rows(start, end)
	return a
}

func (a *AggregateExpression) Groups(start, end any) *AggregateExpression {
	a.Over()
	a.window.Groups(start, end)
	return a
}

func (a *AggregateExpression) Frame(typ string, start any, startDir string, end any, endDir string) *AggregateExpression {
	a.Over()
	a.window.Frame(typ, start, startDir, end, endDir)
	return a
}

func (a *AggregateExpression) ExcludeCurrent() *AggregateExpression {
	a.Over()
	a.window.ExcludeCurrent()
	return a
}

func (a *AggregateExpression) ExcludeGroup() *AggregateExpression {
	a.Over()
	a.window.ExcludeGroup()
	return a
}

func (a *AggregateExpression) ExcludeTies() *AggregateExpression {
	a.Over()
	a.window.ExcludeTies()
	return a
}

// Count adds one for an attached window.
func (a *AggregateExpression) Count() int {
	n := a.FunctionExpression.Count()
	if a.window != nil {
		n++
	}
	return n
}

func (a *AggregateExpression) SQL(b *binder.ValueBinder) string {
	sql := a.FunctionExpression.SQL(b)
	if a.filter != nil {
		sql += " FILTER (WHERE " + a.filter.SQL(b) + ")"
	}
	if a.window != nil {
		if a.window.IsNamedOnly() {
			sql += " OVER " + a.window.SQL(b)
		} else {
			sql += " OVER (" + a.window.SQL(b) + ")"
		}
	}
	return sql
}

func (a *AggregateExpression) Traverse(visit func(Expression)) {
	a.FunctionExpression.Traverse(visit)
	if a.filter != nil {
		walk(a.filter, visit)
	}
	if a.window != nil {
		walk(a.window, visit)
	}
}

func (a *AggregateExpression) Clone() Expression {
	c := &AggregateExpression{FunctionExpression: a.FunctionExpression.clone()}
	if a.filter != nil {
		c.filter = a.filter.Clone().(*QueryExpression)
	}
	if a.window != nil {
		c.window = a.window.Clone().(*WindowExpression)
	}
	return c
}

// GroupedExpression is an ordered-set aggregate such as PERCENTILE_CONT. Its
// ordering is part of the call: NAME(args) WITHIN GROUP (ORDER BY ...).
type GroupedExpression struct {
	*FunctionExpression
	order *OrderByExpression
}

// NewGrouped creates an ordered-set aggregate. See NewFunction for params.
func NewGrouped(name string, params any, argTypes map[string]string, returnType string) *GroupedExpression {
	if returnType == "" {
		returnType = "float"
	}
	return &GroupedExpression{
		FunctionExpression: NewFunction(name, params, argTypes, returnType),
		order:              NewOrderBy(nil),
	}
}

// Order adds terms to the WITHIN GROUP ordering. See OrderByExpression.Add.
func (g *GroupedExpression) Order(fields any) *GroupedExpression {
	g.order.Add(fields)
	return g
}

func (g *GroupedExpression) SQL(b *binder.ValueBinder) string {
	sql := g.FunctionExpression.SQL(b)
	if g.order.Count() == 0 {
		raise(ErrLogic, "%s needs an ordering for WITHIN GROUP", g.name)
	}
	return sql + " WITHIN GROUP (" + g.order.SQL(b) + ")"
}

func (g *GroupedExpression) Traverse(visit func(Expression)) {
	g.FunctionExpression.Traverse(visit)
	walk(g.order, visit)
}

func (g *GroupedExpression) Clone() Expression {
	return &GroupedExpression{
		FunctionExpression: g.FunctionExpression.clone(),
		order:              g.order.Clone().(*OrderByExpression),
	}
}

// argType returns the first explicit argument type, used to pick a return
// type for MIN/MAX/SUM style aggregates.
func argType(argTypes []string) string {
	if len(argTypes) > 0 {
		return argTypes[0]
	}
	return ""
}

// positionalTypes keys argument types by position.
func positionalTypes(argTypes []string) map[string]string {
	if len(argTypes) == 0 {
		return nil
	}
	out := make(map[string]string, len(argTypes))
	for i, t := range argTypes {
		if t != "" {
			out[strconv.Itoa(i)] = t
		}
	}
	return out
}

var _ TypedResult = (*FunctionExpression)(nil)
