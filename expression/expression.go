// Package expression defines the SQL expression tree. Every node renders
// itself against a shared binder.ValueBinder, so values always travel as
// bound parameters and never as interpolated text.
package expression

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/bawdo/sqlexpr/binder"
	"github.com/bawdo/sqlexpr/types"
)

// Expression is the interface that all tree nodes implement.
type Expression interface {
	// SQL renders the node and its children. Values are bound on b.
	SQL(b *binder.ValueBinder) string
	// Traverse calls visit for every expression child, then descends into it.
	Traverse(visit func(Expression))
	// Clone returns a deep copy of the node.
	Clone() Expression
}

// Query is implemented by complete statements. A Query used as an operand is
// wrapped in parentheses.
type Query interface {
	Expression
	// StatementType returns "select", "insert", "update" or "delete".
	StatementType() string
}

// Field is implemented by nodes that compare or order a single field. The
// field is either a raw identifier string or an Expression.
type Field interface {
	Field() any
	SetField(field any)
}

// TypedResult is implemented by nodes whose result has a known abstract type.
type TypedResult interface {
	ReturnType() string
	SetReturnType(typ string)
}

// ExpressionType is implemented by registered types that convert a value into
// an expression instead of a bound parameter, for example a spatial POINT().
type ExpressionType interface {
	ToExpression(value any) Expression
}

// Position places a unary operator before or after its operand.
type Position int

const (
	Prefix Position = iota
	Postfix
)

// castToExpression converts value through typ when the registered type
// renders as an expression. Anything else is returned unchanged.
func castToExpression(value any, typ string) any {
	if typ == "" {
		return value
	}
	base := types.BaseType(typ)
	t, ok := types.Build(base)
	if !ok {
		return value
	}
	conv, ok := t.(ExpressionType)
	if !ok {
		return value
	}
	if base != typ {
		items, ok := toSlice(value)
		if !ok {
			return value
		}
		out := make([]any, len(items))
		for i, v := range items {
			out[i] = conv.ToExpression(v)
		}
		return out
	}
	return conv.ToExpression(value)
}

// expressionTypes keeps the entries of columns whose types render as
// expressions.
func expressionTypes(columns map[string]string) map[string]ExpressionType {
	out := map[string]ExpressionType{}
	for col, typ := range columns {
		if typ == "" {
			continue
		}
		t, ok := types.Build(typ)
		if !ok {
			continue
		}
		if conv, ok := t.(ExpressionType); ok {
			out[col] = conv
		}
	}
	return out
}

// bindValue binds value under a fresh placeholder built from token.
func bindValue(b *binder.ValueBinder, token string, value any, typ string) string {
	p := b.Placeholder(token)
	b.Bind(p, value, typ)
	return p
}

// operand renders v for use inside another node: statements in parentheses,
// expressions inline and strings verbatim.
func operand(v any, b *binder.ValueBinder) string {
	switch x := v.(type) {
	case Query:
		return "(" + x.SQL(b) + ")"
	case Expression:
		return x.SQL(b)
	case string:
		return x
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}

// walk visits v and its subtree when v is an expression.
func walk(v any, visit func(Expression)) {
	e, ok := v.(Expression)
	if !ok || isNil(e) {
		return
	}
	visit(e)
	e.Traverse(visit)
}

func cloneValue(v any) any {
	if e, ok := v.(Expression); ok && !isNil(e) {
		return e.Clone()
	}
	return v
}

func cloneSlice(vs []any) []any {
	if vs == nil {
		return nil
	}
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = cloneValue(v)
	}
	return out
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// toSlice flattens any slice or array except []byte into []any.
func toSlice(v any) ([]any, bool) {
	switch x := v.(type) {
	case nil:
		return nil, false
	case []any:
		return x, true
	case []byte, Conditions:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// isScalarOrObject reports whether v may be used as a single SQL value: nil,
// a scalar, an expression, or any other non-collection value.
func isScalarOrObject(v any) bool {
	if v == nil {
		return true
	}
	if _, ok := v.(Expression); ok {
		return true
	}
	if _, ok := v.([]byte); ok {
		return true
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Func, reflect.Chan:
		return false
	}
	return true
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", v)
}

func upper(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
