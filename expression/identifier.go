package expression

import "github.com/bawdo/sqlexpr/binder"

// IdentifierExpression is a column or table reference rendered verbatim.
// Identifiers are never bound, so they must not come from user input.
type IdentifierExpression struct {
	identifier string
	collation  string
}

// NewIdentifier creates an identifier with an optional collation.
func NewIdentifier(identifier string, collation ...string) *IdentifierExpression {
	e := &IdentifierExpression{identifier: identifier}
	if len(collation) > 0 {
		e.collation = collation[0]
	}
	return e
}

func (e *IdentifierExpression) Identifier() string { return e.identifier }

func (e *IdentifierExpression) SetIdentifier(identifier string) *IdentifierExpression {
	e.identifier = identifier
	return e
}

func (e *IdentifierExpression) Collation() string { return e.collation }

func (e *IdentifierExpression) SetCollation(collation string) *IdentifierExpression {
	e.collation = collation
	return e
}

func (e *IdentifierExpression) SQL(_ *binder.ValueBinder) string {
	if e.collation != "" {
		return e.identifier + " COLLATE " + e.collation
	}
	return e.identifier
}

func (e *IdentifierExpression) Traverse(func(Expression)) {}

func (e *IdentifierExpression) Clone() Expression {
	c := *e
	return &c
}

// StringExpression is a string value bound with an explicit collation.
type StringExpression struct {
	value     string
	collation string
}

// NewString creates a collated string literal.
func NewString(value, collation string) *StringExpression {
	return &StringExpression{value: value, collation: collation}
}

func (e *StringExpression) Value() string     { return e.value }
func (e *StringExpression) Collation() string { return e.collation }

func (e *StringExpression) SetCollation(collation string) *StringExpression {
	e.collation = collation
	return e
}

func (e *StringExpression) SQL(b *binder.ValueBinder) string {
	return bindValue(b, "c", e.value, "string") + " COLLATE " + e.collation
}

func (e *StringExpression) Traverse(func(Expression)) {}

func (e *StringExpression) Clone() Expression {
	c := *e
	return &c
}

// RawExpression is a trusted SQL fragment rendered verbatim.
type RawExpression struct {
	sql string
}

// Raw wraps a trusted SQL fragment.
func Raw(sql string) *RawExpression {
	return &RawExpression{sql: sql}
}

func (e *RawExpression) SQL(_ *binder.ValueBinder) string { return e.sql }
func (e *RawExpression) Traverse(func(Expression))        {}

func (e *RawExpression) Clone() Expression {
	c := *e
	return &c
}
