package expression

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/bawdo/sqlexpr/binder"
	"github.com/bawdo/sqlexpr/types"
)

// InferType guesses the abstract type of a CASE operand or result. It
// returns "" when nothing matches; tm resolves identifier types and may be
// nil.
func InferType(value any, tm *types.TypeMap) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return "string"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "integer"
	case float32, float64:
		return "float"
	case bool:
		return "boolean"
	case types.Date:
		return "date"
	case time.Time:
		return "datetime"
	case *IdentifierExpression:
		return tm.Type(v.Identifier())
	case TypedResult:
		return v.ReturnType()
	case fmt.Stringer:
		return "string"
	}
	return ""
}

// compileNullable renders a CASE operand or result: nil as NULL, statements
// in parentheses, expressions inline, anything else as a bound value.
func compileNullable(b *binder.ValueBinder, value any, typ string) string {
	if _, ok := value.(Expression); !ok && typ != "" {
		value = castToExpression(value, typ)
	}
	switch x := value.(type) {
	case nil:
		return "NULL"
	case Query:
		return "(" + x.SQL(b) + ")"
	case Expression:
		return x.SQL(b)
	}
	return bindValue(b, "c", value, typ)
}

func checkResult(arg string, v any) {
	if !isScalarOrObject(v) {
		raise(ErrInvalidArgument, "the %s argument must be nil, a scalar value, an object or an expression, %s given", arg, typeName(v))
	}
}

type pendingWhen struct {
	when any
	typ  any
}

// CaseStatementExpression builds a CASE expression fluently. A simple case
// compares a value (CASE value WHEN ...), a searched case evaluates
// conditions (CASE WHEN cond ...); the variant is fixed at construction.
//
// Every When must be followed by its Then before any other call; violating
// that order panics with ErrLogic.
type CaseStatementExpression struct {
	simple     bool
	value      any
	valueType  string
	when       []*WhenThenExpression
	pending    *pendingWhen
	elseValue  any
	elseType   string
	returnType string
	typeMap    *types.TypeMap
}

// NewCaseStatement creates a searched CASE expression.
func NewCaseStatement() *CaseStatementExpression {
	return &CaseStatementExpression{typeMap: types.NewTypeMap(nil)}
}

// NewSimpleCaseStatement creates a simple CASE expression comparing value.
// An empty typ is inferred from value.
func NewSimpleCaseStatement(value any, typ string) *CaseStatementExpression {
	checkResult("value", value)
	c := NewCaseStatement()
	c.simple = true
	c.value = value
	if _, ok := value.(Expression); !ok && value != nil && typ == "" {
		typ = InferType(value, nil)
	}
	c.valueType = typ
	return c
}

// TypeMap returns the map used to type identifiers and array conditions.
func (c *CaseStatementExpression) TypeMap() *types.TypeMap { return c.typeMap }

func (c *CaseStatementExpression) SetTypeMap(tm *types.TypeMap) *CaseStatementExpression {
	if tm == nil {
		tm = types.NewTypeMap(nil)
	}
	c.typeMap = tm
	return c
}

func (c *CaseStatementExpression) mustBeComplete(action string) {
	if c.pending != nil {
		raise(ErrLogic, "cannot call %s between When() and Then()", action)
	}
}

// When opens a WHEN clause. when is a scalar, an Expression, a non-empty
// condition list (rendered as a QueryExpression), a *WhenThenExpression or a
// func(*WhenThenExpression) *WhenThenExpression. typ is a string for scalar
// values or a map[string]string for condition lists.
func (c *CaseStatementExpression) When(when any, typ ...any) *CaseStatementExpression {
	c.mustBeComplete("When()")
	if fn, ok := when.(func(*WhenThenExpression) *WhenThenExpression); ok {
		wt := fn(NewWhenThen(c.typeMap))
		if wt == nil {
			raise(ErrLogic, "When() callables must return a *WhenThenExpression, nil given")
		}
		when = wt
	}
	if wt, ok := when.(*WhenThenExpression); ok {
		c.when = append(c.when, wt)
		return c
	}
	var t any
	if len(typ) > 0 {
		t = typ[0]
	}
	c.pending = &pendingWhen{when: when, typ: t}
	return c
}

// Then closes the open WHEN clause with its result. An empty typ is
// inferred from result.
func (c *CaseStatementExpression) Then(result any, typ ...string) *CaseStatementExpression {
	if c.pending == nil {
		raise(ErrLogic, "cannot call Then() before When()")
	}
	wt := NewWhenThen(c.typeMap).When(c.pending.when, c.pending.typ)
	wt.Then(result, typ...)
	c.pending = nil
	c.when = append(c.when, wt)
	return c
}

// Else sets the ELSE result. An empty typ is inferred from result.
func (c *CaseStatementExpression) Else(result any, typ ...string) *CaseStatementExpression {
	c.mustBeComplete("Else()")
	checkResult("result", result)
	t := firstType(typ)
	if t == "" {
		t = InferType(result, c.typeMap)
	}
	c.elseValue = result
	c.elseType = t
	return c
}

func firstType(typ []string) string {
	if len(typ) > 0 {
		return typ[0]
	}
	return ""
}

// ReturnType returns the explicit return type, or the single type shared
// by every THEN and ELSE result, or "string".
func (c *CaseStatementExpression) ReturnType() string {
	if c.returnType != "" {
		return c.returnType
	}
	var found []string
	for _, wt := range c.when {
		if t := wt.ResultType(); t != "" {
			found = append(found, t)
		}
	}
	if c.elseType != "" {
		found = append(found, c.elseType)
	}
	slices.Sort(found)
	found = slices.Compact(found)
	if len(found) == 1 {
		return found[0]
	}
	return "string"
}

func (c *CaseStatementExpression) SetReturnType(typ string) { c.returnType = typ }

var caseClauses = []string{"value", "when", "else"}

// Clause returns the named part: "value", "when" ([]*WhenThenExpression) or
// "else". Other names panic with ErrInvalidArgument.
func (c *CaseStatementExpression) Clause(name string) any {
	switch name {
	case "value":
		return c.value
	case "when":
		return slices.Clone(c.when)
	case "else":
		return c.elseValue
	}
	raise(ErrInvalidArgument, "the clause argument must be one of %s, the given value %q is invalid", strings.Join(caseClauses, ", "), name)
	return nil
}

func (c *CaseStatementExpression) SQL(b *binder.ValueBinder) string {
	if c.pending != nil {
		raise(ErrLogic, "case expression has incomplete when clause, missing Then() after When()")
	}
	if len(c.when) == 0 {
		raise(ErrLogic, "case expression must have at least one when statement")
	}
	var sb strings.Builder
	sb.WriteString("CASE ")
	if c.simple {
		sb.WriteString(compileNullable(b, c.value, c.valueType))
		sb.WriteString(" ")
	}
	for i, wt := range c.when {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(wt.SQL(b))
	}
	sb.WriteString(" ELSE ")
	sb.WriteString(compileNullable(b, c.elseValue, c.elseType))
	sb.WriteString(" END")
	return sb.String()
}

func (c *CaseStatementExpression) Traverse(visit func(Expression)) {
	if c.pending != nil {
		raise(ErrLogic, "case expression has incomplete when clause, missing Then() after When()")
	}
	walk(c.value, visit)
	for _, wt := range c.when {
		walk(wt, visit)
	}
	walk(c.elseValue, visit)
}

func (c *CaseStatementExpression) Clone() Expression {
	if c.pending != nil {
		raise(ErrLogic, "case expression has incomplete when clause, missing Then() after When()")
	}
	n := *c
	n.value = cloneValue(c.value)
	n.when = make([]*WhenThenExpression, len(c.when))
	for i, wt := range c.when {
		n.when[i] = wt.Clone().(*WhenThenExpression)
	}
	n.elseValue = cloneValue(c.elseValue)
	return &n
}

// WhenThenExpression is one WHEN ... THEN ... pair of a CASE expression.
type WhenThenExpression struct {
	when     any
	whenType string
	then     any
	thenType string
	hasThen  bool
	typeMap  *types.TypeMap
}

// NewWhenThen creates an empty pair typed through tm, which may be nil.
func NewWhenThen(tm *types.TypeMap) *WhenThenExpression {
	if tm == nil {
		tm = types.NewTypeMap(nil)
	}
	return &WhenThenExpression{typeMap: tm}
}

// When sets the condition. Lists become a QueryExpression typed with the
// optional map[string]string; scalars take an optional string type that is
// otherwise inferred.
func (w *WhenThenExpression) When(when any, typ ...any) *WhenThenExpression {
	var t any
	if len(typ) > 0 {
		t = typ[0]
	}
	if when == nil {
		raise(ErrInvalidArgument, "the when argument must be a non-empty list, a scalar value, an object or an expression, nil given")
	}
	if _, isFunc := when.(func(*WhenThenExpression) *WhenThenExpression); !isFunc && isContainer(when) {
		if isEmpty(when) {
			raise(ErrInvalidArgument, "the when argument must be a non-empty list, a scalar value, an object or an expression, empty list given")
		}
		tm := w.typeMap
		switch tt := t.(type) {
		case nil:
		case map[string]string:
			if len(tt) > 0 {
				tm = tm.Clone().AddTypes(tt)
			}
		default:
			raise(ErrInvalidArgument, "when using a list for the when argument, the type argument must be a map[string]string, %s given", typeName(t))
		}
		w.when = NewQueryExpression(when, tm, "AND")
		w.whenType = ""
		return w
	}
	checkResult("when", when)
	var ts string
	switch tt := t.(type) {
	case nil:
	case string:
		ts = tt
	default:
		raise(ErrInvalidArgument, "when using a non-list value for the when argument, the type argument must be a string, %s given", typeName(t))
	}
	if _, ok := when.(Expression); !ok && ts == "" {
		ts = InferType(when, w.typeMap)
	}
	w.when = when
	w.whenType = ts
	return w
}

// Then sets the result. An empty typ is inferred from result.
func (w *WhenThenExpression) Then(result any, typ ...string) *WhenThenExpression {
	checkResult("result", result)
	t := firstType(typ)
	if t == "" {
		t = InferType(result, w.typeMap)
	}
	w.then = result
	w.thenType = t
	w.hasThen = true
	return w
}

// ResultType returns the type of the THEN result.
func (w *WhenThenExpression) ResultType() string { return w.thenType }

var whenThenClauses = []string{"when", "then"}

// Clause returns "when" or "then"; other names panic with ErrInvalidArgument.
func (w *WhenThenExpression) Clause(name string) any {
	switch name {
	case "when":
		return w.when
	case "then":
		return w.then
	}
	raise(ErrInvalidArgument, "the clause argument must be one of %s, the given value %q is invalid", strings.Join(whenThenClauses, ", "), name)
	return nil
}

func (w *WhenThenExpression) SQL(b *binder.ValueBinder) string {
	if w.when == nil {
		raise(ErrLogic, "case expression has incomplete when clause, missing When()")
	}
	if !w.hasThen {
		raise(ErrLogic, "case expression has incomplete when clause, missing Then() after When()")
	}
	when := w.when
	if _, ok := when.(Expression); !ok && w.whenType != "" {
		when = castToExpression(when, w.whenType)
	}
	var ws string
	switch x := when.(type) {
	case Query:
		ws = "(" + x.SQL(b) + ")"
	case Expression:
		ws = x.SQL(b)
	default:
		ws = bindValue(b, "c", when, w.whenType)
	}
	return "WHEN " + ws + " THEN " + compileNullable(b, w.then, w.thenType)
}

func (w *WhenThenExpression) Traverse(visit func(Expression)) {
	walk(w.when, visit)
	walk(w.then, visit)
}

func (w *WhenThenExpression) Clone() Expression {
	c := *w
	c.when = cloneValue(w.when)
	c.then = cloneValue(w.then)
	return &c
}
