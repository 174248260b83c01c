package expression

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/bawdo/sqlexpr/binder"
)

// Frame types.
const (
	RangeFrame  = "RANGE"
	RowsFrame   = "ROWS"
	GroupsFrame = "GROUPS"
)

// Frame bound directions.
const (
	Preceding = "PRECEDING"
	Following = "FOLLOWING"
)

// frameBound is one end of a window frame. A nil offset is UNBOUNDED and a
// zero offset is CURRENT ROW.
type frameBound struct {
	offset    any
	direction string
}

type frame struct {
	typ   string
	start frameBound
	end   *frameBound
}

// WindowExpression renders a window specification: an optional reference
// name, PARTITION BY, ORDER BY and a frame with an optional exclusion.
type WindowExpression struct {
	name       *IdentifierExpression
	partitions []Expression
	order      *OrderByExpression
	frame      *frame
	exclusion  string
}

// NewWindow creates a window. A non-empty name refers to a named window.
func NewWindow(name string) *WindowExpression {
	return &WindowExpression{name: NewIdentifier(name)}
}

// IsNamedOnly reports whether the window is nothing but a reference to a
// named window.
func (w *WindowExpression) IsNamedOnly() bool {
	return w.name.Identifier() != "" && len(w.partitions) == 0 && w.frame == nil && w.order == nil
}

// Name sets the referenced window name.
func (w *WindowExpression) Name(name string) *WindowExpression {
	w.name = NewIdentifier(name)
	return w
}

// Partition adds PARTITION BY terms: identifier strings, expressions, a list
// of either, or a Builder.
func (w *WindowExpression) Partition(partitions any) *WindowExpression {
	if isEmpty(partitions) {
		return w
	}
	if fn, ok := asBuilder(partitions); ok {
		partitions = fn(NewQueryExpression(nil, nil, ""))
	}
	items, ok := toSlice(partitions)
	if !ok {
		items = []any{partitions}
	}
	for _, p := range items {
		switch x := p.(type) {
		case string:
			w.partitions = append(w.partitions, NewIdentifier(x))
		case Expression:
			w.partitions = append(w.partitions, x)
		default:
			raise(ErrInvalidArgument, "partition must be a string or an expression, %s given", typeName(p))
		}
	}
	return w
}

// Order adds ORDER BY terms. See OrderByExpression.Add.
func (w *WindowExpression) Order(fields any) *WindowExpression {
	if isEmpty(fields) {
		return w
	}
	if w.order == nil {
		w.order = NewOrderBy(nil)
	}
	w.order.Add(fields)
	return w
}

// Range sets a RANGE frame from start PRECEDING to end FOLLOWING.
func (w *WindowExpression) Range(start, end any) *WindowExpression {
	return w.Frame(RangeFrame, start, Preceding, end, Following)
}

// Rows sets a ROWS frame from start PRECEDING to end FOLLOWING.
func (w *WindowExpression) Rows(start, end any) *WindowExpression {
	return w.Frame(RowsFrame, start, Preceding, end, Following)
}

// Groups sets a GROUPS frame from start PRECEDING to end FOLLOWING.
func (w *WindowExpression) Groups(start, end any) *WindowExpression {
	return w.Frame(GroupsFrame, start, Preceding, end, Following)
}

// Frame sets a frame with both bounds. Offsets are non-negative integers,
// nil (UNBOUNDED), raw SQL strings such as "INTERVAL '1' DAY", or
// expressions.
func (w *WindowExpression) Frame(typ string, start any, startDir string, end any, endDir string) *WindowExpression {
	w.frame = &frame{
		typ:   checkFrameType(typ),
		start: newFrameBound(start, startDir),
	}
	e := newFrameBound(end, endDir)
	w.frame.end = &e
	return w
}

// FrameStart sets a frame with only a start bound, rendered without BETWEEN.
func (w *WindowExpression) FrameStart(typ string, start any, startDir string) *WindowExpression {
	w.frame = &frame{typ: checkFrameType(typ), start: newFrameBound(start, startDir)}
	return w
}

func checkFrameType(typ string) string {
	t := upper(typ)
	switch t {
	case RangeFrame, RowsFrame, GroupsFrame:
		return t
	}
	raise(ErrInvalidArgument, "frame type must be RANGE, ROWS or GROUPS, %q given", typ)
	return ""
}

func newFrameBound(offset any, direction string) frameBound {
	dir := upper(direction)
	if dir != Preceding && dir != Following {
		raise(ErrInvalidArgument, "frame direction must be PRECEDING or FOLLOWING, %q given", direction)
	}
	if n, ok := intValue(offset); ok {
		if n < 0 {
			raise(ErrInvalidArgument, "frame offsets must be non-negative, %d given", n)
		}
		offset = n
	}
	return frameBound{offset: offset, direction: dir}
}

func intValue(v any) (int64, bool) {
	if v == nil {
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint()), true
	}
	return 0, false
}

// ExcludeCurrent adds EXCLUDE CURRENT ROW to the frame.
func (w *WindowExpression) ExcludeCurrent() *WindowExpression {
	w.exclusion = "CURRENT ROW"
	return w
}

// ExcludeGroup adds EXCLUDE GROUP to the frame.
func (w *WindowExpression) ExcludeGroup() *WindowExpression {
	w.exclusion = "GROUP"
	return w
}

// ExcludeTies adds EXCLUDE TIES to the frame.
func (w *WindowExpression) ExcludeTies() *WindowExpression {
	w.exclusion = "TIES"
	return w
}

func (w *WindowExpression) SQL(b *binder.ValueBinder) string {
	var clauses []string
	if w.name.Identifier() != "" {
		clauses = append(clauses, w.name.SQL(b))
	}
	if len(w.partitions) > 0 {
		parts := make([]string, len(w.partitions))
		for i, p := range w.partitions {
			parts[i] = p.SQL(b)
		}
		clauses = append(clauses, "PARTITION BY "+strings.Join(parts, ", "))
	}
	if w.order != nil && w.order.Count() > 0 {
		clauses = append(clauses, w.order.SQL(b))
	}
	if w.frame != nil {
		start := w.boundSQL(w.frame.start, b)
		var sql string
		if w.frame.end == nil {
			sql = w.frame.typ + " " + start
		} else {
			sql = w.frame.typ + " BETWEEN " + start + " AND " + w.boundSQL(*w.frame.end, b)
		}
		if w.exclusion != "" {
			sql += " EXCLUDE " + w.exclusion
		}
		clauses = append(clauses, sql)
	}
	return strings.Join(clauses, " ")
}

func (w *WindowExpression) boundSQL(fb frameBound, b *binder.ValueBinder) string {
	switch x := fb.offset.(type) {
	case nil:
		return "UNBOUNDED " + fb.direction
	case int64:
		if x == 0 {
			return "CURRENT ROW"
		}
		return fmt.Sprintf("%d %s", x, fb.direction)
	case Expression:
		return x.SQL(b) + " " + fb.direction
	}
	return fmt.Sprint(fb.offset) + " " + fb.direction
}

func (w *WindowExpression) Traverse(visit func(Expression)) {
	walk(w.name, visit)
	for _, p := range w.partitions {
		walk(p, visit)
	}
	if w.order != nil {
		walk(w.order, visit)
	}
	if w.frame != nil {
		walk(w.frame.start.offset, visit)
		if w.frame.end != nil {
			walk(w.frame.end.offset, visit)
		}
	}
}

func (w *WindowExpression) Clone() Expression {
	c := *w
	c.name = w.name.Clone().(*IdentifierExpression)
	c.partitions = make([]Expression, len(w.partitions))
	for i, p := range w.partitions {
		c.partitions[i] = p.Clone()
	}
	if w.order != nil {
		c.order = w.order.Clone().(*OrderByExpression)
	}
	if w.frame != nil {
		f := *w.frame
		f.start.offset = cloneValue(f.start.offset)
		if f.end != nil {
			e := *f.end
			e.offset = cloneValue(e.offset)
			f.end = &e
		}
		c.frame = &f
	}
	return &c
}
