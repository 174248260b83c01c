package driver

import (
	"strings"

	"github.com/bawdo/sqlexpr/expression"
	"github.com/bawdo/sqlexpr/query"
)

// IdentifierQuoter quotes the identifiers of a statement in place: table
// names, aliases, selected and grouped fields, comparison and order fields
// and identifier expressions, including those of nested statements.
type IdentifierQuoter struct {
	d *Driver
}

func NewIdentifierQuoter(d *Driver) *IdentifierQuoter {
	return &IdentifierQuoter{d: d}
}

// Quote quotes s and every expression it contains. Raw SQL strings used as
// conditions are left alone.
func (q *IdentifierQuoter) Quote(s query.Statement) query.Statement {
	q.quoteParts(s)
	s.Traverse(q.QuoteExpression)
	return s
}

// QuoteExpression quotes a single node. It is meant to be passed to
// Traverse, so it does not descend into children.
func (q *IdentifierQuoter) QuoteExpression(e expression.Expression) {
	switch x := e.(type) {
	case query.Statement:
		q.quoteParts(x)
	case *expression.IdentifierExpression:
		x.SetIdentifier(q.d.QuoteIdentifier(x.Identifier()))
	case *expression.OrderByExpression:
		q.quoteOrderBy(x)
	case *expression.ValuesExpression:
		x.SetColumns(q.quoteAll(x.Columns()))
	case expression.Field:
		q.quoteField(x)
	}
}

func (q *IdentifierQuoter) quoteField(f expression.Field) {
	switch v := f.Field().(type) {
	case string:
		f.SetField(q.d.QuoteIdentifier(v))
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			if s, ok := item.(string); ok {
				out[i] = q.d.QuoteIdentifier(s)
			} else {
				out[i] = item
			}
		}
		f.SetField(out)
	}
}

func (q *IdentifierQuoter) quoteOrderBy(o *expression.OrderByExpression) {
	o.IterateParts(func(part any, key *string) any {
		if *key != "" {
			*key = q.d.QuoteIdentifier(*key)
			return part
		}
		if s, ok := part.(string); ok && !strings.Contains(s, " ") {
			return q.d.QuoteIdentifier(s)
		}
		return part
	})
}

func (q *IdentifierQuoter) quoteParts(s query.Statement) {
	switch x := s.(type) {
	case *query.SelectQuery:
		q.quoteSelect(x)
	case *query.InsertQuery:
		x.SetTable(q.d.QuoteIdentifier(x.Table()))
		x.SetColumns(q.quoteAll(x.Columns()))
	case *query.UpdateQuery:
		if t, ok := x.Table().(string); ok {
			x.SetTable(q.d.QuoteIdentifier(t))
		}
	case *query.DeleteQuery:
		x.SetTable(q.d.QuoteIdentifier(x.Table()))
	}
}

func (q *IdentifierQuoter) quoteSelect(s *query.SelectQuery) {
	s.Clause("select").(*expression.SelectExpression).IterateTerms(func(term any, alias *string) any {
		if *alias != "" {
			*alias = q.d.QuoteIdentifier(*alias)
		}
		if t, ok := term.(string); ok {
			return q.d.QuoteIdentifier(t)
		}
		return term
	})

	from := s.Clause("from").(expression.Conditions)
	for i, f := range from {
		if f.Key != "" {
			from[i].Key = q.d.QuoteIdentifier(f.Key)
		}
		if t, ok := f.Value.(string); ok {
			from[i].Value = q.d.QuoteIdentifier(t)
		}
	}
	s.SetFrom(from)

	group := s.Clause("group").([]any)
	for i, g := range group {
		if t, ok := g.(string); ok {
			group[i] = q.d.QuoteIdentifier(t)
		}
	}
	s.SetGroup(group)

	for _, j := range s.Clause("join").([]*query.Join) {
		if j.Alias != "" {
			j.Alias = q.d.QuoteIdentifier(j.Alias)
		}
		if t, ok := j.Table.(string); ok {
			j.Table = q.d.QuoteIdentifier(t)
		}
	}
}

func (q *IdentifierQuoter) quoteAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = q.d.QuoteIdentifier(n)
	}
	return out
}
