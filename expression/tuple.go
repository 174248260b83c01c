package expression

import (
	"strings"

	"github.com/bawdo/sqlexpr/binder"
)

// TupleComparison compares a tuple of fields against one tuple of values,
// or against a set of tuples for the IN and NOT IN operators.
type TupleComparison struct {
	fields   []any
	value    any
	types    []string
	operator string
}

// NewTupleComparison creates a tuple comparison. fields holds identifier
// strings or expressions. values is a flat list for single-tuple operators,
// a list of lists for IN and NOT IN, or an Expression such as a subquery.
// types are matched to tuple positions.
func NewTupleComparison(fields []any, values any, types []string, operator string) *TupleComparison {
	if operator == "" {
		operator = "="
	}
	e := &TupleComparison{fields: fields, types: types, operator: operator}
	e.SetValue(values)
	return e
}

// Field returns the tuple fields as []any.
func (e *TupleComparison) Field() any { return e.fields }

// SetField accepts a []any, a []string or a single field.
func (e *TupleComparison) SetField(field any) {
	if items, ok := toSlice(field); ok {
		e.fields = items
		return
	}
	e.fields = []any{field}
}

func (e *TupleComparison) Value() any       { return e.value }
func (e *TupleComparison) Operator() string { return e.operator }
func (e *TupleComparison) Types() []string  { return e.types }

// IsMulti reports whether the operator compares against a set of tuples.
func (e *TupleComparison) IsMulti() bool {
	op := upper(e.operator)
	return op == "IN" || op == "NOT IN"
}

// SetValue replaces the compared values. The shape must match the operator:
// a list of tuples for IN and NOT IN, a single tuple otherwise.
func (e *TupleComparison) SetValue(value any) {
	if _, ok := value.(Expression); ok {
		e.value = value
		return
	}
	items, ok := toSlice(value)
	if !ok {
		raise(ErrInvalidArgument, "tuple comparison value must be a list or an expression, %s given", typeName(value))
	}
	nested := false
	for _, item := range items {
		if _, ok := item.(Expression); !ok {
			nested = isTuple(item)
			break
		}
	}
	if e.IsMulti() {
		if len(items) > 0 && !nested {
			raise(ErrInvalidArgument, "multi-tuple comparisons require a multi-tuple value, single-tuple given")
		}
		rows := make([]any, len(items))
		for i, row := range items {
			if x, ok := row.(Expression); ok {
				rows[i] = x
				continue
			}
			r, ok := toSlice(row)
			if !ok {
				raise(ErrInvalidArgument, "multi-tuple comparisons require a multi-tuple value, %s given at %d", typeName(row), i)
			}
			rows[i] = r
		}
		e.value = rows
		return
	}
	if nested {
		raise(ErrInvalidArgument, "single-tuple comparisons require a single-tuple value, multi-tuple given")
	}
	e.value = items
}

func isTuple(v any) bool {
	_, ok := toSlice(v)
	return ok
}

func (e *TupleComparison) typeAt(i int) string {
	if i < len(e.types) {
		return e.types[i]
	}
	return ""
}

func (e *TupleComparison) SQL(b *binder.ValueBinder) string {
	fields := make([]string, len(e.fields))
	for i, f := range e.fields {
		fields[i] = fieldSQL(f, b)
	}
	return "(" + strings.Join(fields, ", ") + ") " + e.operator + " (" + e.valuesSQL(b) + ")"
}

func (e *TupleComparison) valuesSQL(b *binder.ValueBinder) string {
	if x, ok := e.value.(Expression); ok {
		return x.SQL(b)
	}
	items, _ := e.value.([]any)
	if len(items) == 0 {
		raise(ErrEmptyValueList, "impossible to generate tuple comparison with an empty list of values")
	}
	parts := make([]string, 0, len(items))
	for i, v := range items {
		if x, ok := v.(Expression); ok {
			parts = append(parts, x.SQL(b))
			continue
		}
		if e.IsMulti() {
			row := v.([]any)
			bound := make([]string, len(row))
			for k, val := range row {
				if x, ok := val.(Expression); ok {
					bound[k] = x.SQL(b)
					continue
				}
				bound[k] = bindValue(b, "tuple", val, e.typeAt(k))
			}
			parts = append(parts, "("+strings.Join(bound, ",")+")")
			continue
		}
		parts = append(parts, bindValue(b, "tuple", v, e.typeAt(i)))
	}
	return strings.Join(parts, ", ")
}

func (e *TupleComparison) Traverse(visit func(Expression)) {
	for _, f := range e.fields {
		walk(f, visit)
	}
	items, ok := e.value.([]any)
	if !ok {
		walk(e.value, visit)
		return
	}
	for _, v := range items {
		if row, ok := v.([]any); ok {
			for _, val := range row {
				walk(val, visit)
			}
			continue
		}
		walk(v, visit)
	}
}

func (e *TupleComparison) Clone() Expression {
	c := *e
	c.fields = cloneSlice(e.fields)
	c.types = append([]string(nil), e.types...)
	items, ok := e.value.([]any)
	if !ok {
		c.value = cloneValue(e.value)
		return &c
	}
	rows := make([]any, len(items))
	for i, v := range items {
		if row, ok := v.([]any); ok {
			rows[i] = cloneSlice(row)
			continue
		}
		rows[i] = cloneValue(v)
	}
	c.value = rows
	return &c
}
