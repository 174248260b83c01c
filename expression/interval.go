package expression

import (
	"strconv"
	"strings"
	"time"

	"github.com/bawdo/sqlexpr/binder"
	"github.com/bawdo/sqlexpr/types"
)

// IntervalExpression renders a types.Interval unit by unit:
// INTERVAL '1' YEAR + INTERVAL '2' DAY. Inverted intervals render negative
// amounts.
type IntervalExpression struct {
	interval types.Interval
}

// NewInterval creates an interval literal. An interval whose units are all
// zero has no SQL rendering and panics with ErrUnsupported.
func NewInterval(iv types.Interval) *IntervalExpression {
	if iv.IsZero() {
		raise(ErrUnsupported, "intervals with all units zero cannot be rendered")
	}
	return &IntervalExpression{interval: iv}
}

// Interval returns the wrapped interval.
func (e *IntervalExpression) Interval() types.Interval { return e.interval }

func intervalParts(iv types.Interval, sign int) []string {
	units := []struct {
		n    int
		name string
	}{
		{iv.Years, "YEAR"},
		{iv.Months, "MONTH"},
		{iv.Days, "DAY"},
		{iv.Hours, "HOUR"},
		{iv.Minutes, "MINUTE"},
		{iv.Seconds, "SECOND"},
		{iv.Microseconds, "MICROSECOND"},
	}
	var parts []string
	for _, u := range units {
		if u.n == 0 {
			continue
		}
		parts = append(parts, "INTERVAL '"+strconv.Itoa(sign*u.n)+"' "+u.name)
	}
	return parts
}

func (e *IntervalExpression) SQL(_ *binder.ValueBinder) string {
	sign := 1
	if e.interval.Invert {
		sign = -1
	}
	return strings.Join(intervalParts(e.interval, sign), " + ")
}

func (e *IntervalExpression) Traverse(func(Expression)) {}

func (e *IntervalExpression) Clone() Expression {
	c := *e
	return &c
}

// DateTimeIntervalExpression shifts a date or datetime value by an interval:
// value + INTERVAL ... or, for inverted intervals, value - INTERVAL ....
type DateTimeIntervalExpression struct {
	value    any
	interval types.Interval
}

// NewDateTimeInterval creates a shifted value. value is a column name, a
// time.Time or types.Date (bound), or an Expression.
func NewDateTimeInterval(value any, iv types.Interval) *DateTimeIntervalExpression {
	if iv.IsZero() {
		raise(ErrUnsupported, "intervals with all units zero cannot be rendered")
	}
	if s, ok := value.(string); ok {
		value = NewIdentifier(s)
	}
	return &DateTimeIntervalExpression{value: value, interval: iv}
}

func (e *DateTimeIntervalExpression) Value() any { return e.value }

func (e *DateTimeIntervalExpression) Interval() types.Interval { return e.interval }

// ReturnType is "date" for dates and "datetime" otherwise.
func (e *DateTimeIntervalExpression) ReturnType() string {
	if _, ok := e.value.(types.Date); ok {
		return "date"
	}
	return "datetime"
}

func (e *DateTimeIntervalExpression) SetReturnType(string) {}

func (e *DateTimeIntervalExpression) SQL(b *binder.ValueBinder) string {
	var base string
	switch x := e.value.(type) {
	case Query:
		base = "(" + x.SQL(b) + ")"
	case Expression:
		base = x.SQL(b)
	case types.Date:
		base = bindValue(b, "c", x, "date")
	case time.Time:
		base = bindValue(b, "c", x, "datetime")
	default:
		base = bindValue(b, "c", x, "")
	}
	op := " + "
	if e.interval.Invert {
		op = " - "
	}
	return base + op + strings.Join(intervalParts(e.interval, 1), op)
}

func (e *DateTimeIntervalExpression) Traverse(visit func(Expression)) {
	walk(e.value, visit)
}

func (e *DateTimeIntervalExpression) Clone() Expression {
	c := *e
	c.value = cloneValue(e.value)
	return &c
}
