package expression

import (
	"slices"
	"strings"

	"github.com/bawdo/sqlexpr/binder"
)

// SelectExpression renders a SELECT list: modifiers, an optional DISTINCT
// and comma separated terms, each optionally aliased.
type SelectExpression struct {
	modifiers  []string
	distinct   bool
	distinctOn []Expression
	terms      Conditions
}

// NewSelect creates a select list from terms (see Add).
func NewSelect(terms any) *SelectExpression {
	s := &SelectExpression{}
	if !isEmpty(terms) {
		s.Add(terms)
	}
	return s
}

// Add appends terms. Positional strings are identifiers or raw SQL,
// expressions render inline and statements in parentheses. Keyed entries are
// aliased: Cond{Key: "total", Value: expr} renders "expr AS total".
func (s *SelectExpression) Add(terms any) *SelectExpression {
	switch t := terms.(type) {
	case string, Expression:
		s.terms = append(s.terms, Cond{Value: t})
		return s
	}
	list, ok := toConditions(terms)
	if !ok {
		raise(ErrInvalidArgument, "cannot select %s", typeName(terms))
	}
	for _, c := range list {
		switch c.Value.(type) {
		case string, Expression:
		default:
			raise(ErrInvalidArgument, "select term must be a string or an expression, %s given", typeName(c.Value))
		}
		s.terms = append(s.terms, c)
	}
	return s
}

// Set replaces every term.
func (s *SelectExpression) Set(terms any) *SelectExpression {
	s.terms = nil
	if isEmpty(terms) {
		return s
	}
	return s.Add(terms)
}

// Terms returns the select terms in order.
func (s *SelectExpression) Terms() Conditions { return slices.Clone(s.terms) }

// Count returns the number of terms.
func (s *SelectExpression) Count() int { return len(s.terms) }

// Modifier adds a modifier such as SQL_CALC_FOUND_ROWS. Modifiers are kept
// once, compared by upper-cased name.
func (s *SelectExpression) Modifier(modifiers ...string) *SelectExpression {
	for _, m := range modifiers {
		u := upper(m)
		if u == "" || slices.Contains(s.modifiers, u) {
			continue
		}
		s.modifiers = append(s.modifiers, u)
	}
	return s
}

// Modifiers returns the modifiers in insertion order.
func (s *SelectExpression) Modifiers() []string { return slices.Clone(s.modifiers) }

// Distinct toggles DISTINCT. With fields it renders DISTINCT ON (fields).
func (s *SelectExpression) Distinct(on ...any) *SelectExpression {
	s.distinct = true
	for _, f := range on {
		switch x := f.(type) {
		case string:
			s.distinctOn = append(s.distinctOn, NewIdentifier(x))
		case Expression:
			s.distinctOn = append(s.distinctOn, x)
		default:
			raise(ErrInvalidArgument, "distinct field must be a string or an expression, %s given", typeName(f))
		}
	}
	return s
}

// IsDistinct reports whether DISTINCT is set.
func (s *SelectExpression) IsDistinct() bool { return s.distinct }

// IterateTerms rewrites every term and alias with fn.
func (s *SelectExpression) IterateTerms(fn func(term any, alias *string) any) *SelectExpression {
	out := make(Conditions, 0, len(s.terms))
	for _, c := range s.terms {
		alias := c.Key
		if r := fn(c.Value, &alias); r != nil {
			out = append(out, Cond{Key: alias, Value: r})
		}
	}
	s.terms = out
	return s
}

func (s *SelectExpression) SQL(b *binder.ValueBinder) string {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	for _, m := range s.modifiers {
		sb.WriteString(m)
		sb.WriteString(" ")
	}
	if s.distinct {
		sb.WriteString("DISTINCT ")
		if len(s.distinctOn) > 0 {
			on := make([]string, len(s.distinctOn))
			for i, e := range s.distinctOn {
				on[i] = e.SQL(b)
			}
			sb.WriteString("ON (" + strings.Join(on, ", ") + ") ")
		}
	}
	if len(s.terms) == 0 {
		sb.WriteString("*")
		return sb.String()
	}
	for i, c := range s.terms {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(operand(c.Value, b))
		if c.Key != "" {
			sb.WriteString(" AS ")
			sb.WriteString(c.Key)
		}
	}
	return sb.String()
}

func (s *SelectExpression) Traverse(visit func(Expression)) {
	for _, e := range s.distinctOn {
		walk(e, visit)
	}
	for _, c := range s.terms {
		walk(c.Value, visit)
	}
}

func (s *SelectExpression) Clone() Expression {
	c := *s
	c.modifiers = slices.Clone(s.modifiers)
	c.distinctOn = make([]Expression, len(s.distinctOn))
	for i, e := range s.distinctOn {
		c.distinctOn[i] = e.Clone()
	}
	c.terms = s.terms.Clone()
	return &c
}
