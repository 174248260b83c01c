package expression

import "github.com/bawdo/sqlexpr/binder"

// TableNameExpression is a table reference with an optional name prefix, or
// a subquery used as a table.
type TableNameExpression struct {
	name   any // string or Expression
	prefix string
}

// NewTableName creates a table reference. name is a table name or an
// Expression; prefix is prepended to string names.
func NewTableName(name any, prefix string) *TableNameExpression {
	return &TableNameExpression{name: name, prefix: prefix}
}

func (t *TableNameExpression) Name() any { return t.name }

func (t *TableNameExpression) SetName(name any) *TableNameExpression {
	t.name = name
	return t
}

func (t *TableNameExpression) Prefix() string { return t.prefix }

func (t *TableNameExpression) SetPrefix(prefix string) *TableNameExpression {
	t.prefix = prefix
	return t
}

// FullName returns the prefixed name, or "" for subqueries.
func (t *TableNameExpression) FullName() string {
	if s, ok := t.name.(string); ok {
		return t.prefix + s
	}
	return ""
}

func (t *TableNameExpression) SQL(b *binder.ValueBinder) string {
	if e, ok := t.name.(Expression); ok {
		return "(" + e.SQL(b) + ")"
	}
	return t.FullName()
}

func (t *TableNameExpression) Traverse(visit func(Expression)) {
	walk(t.name, visit)
}

func (t *TableNameExpression) Clone() Expression {
	c := *t
	c.name = cloneValue(t.name)
	return &c
}

// CrossSchemaTableExpression is a schema-qualified table: schema.table.
type CrossSchemaTableExpression struct {
	schema Expression
	table  Expression
}

// NewCrossSchemaTable creates schema.table. Strings become identifiers.
func NewCrossSchemaTable(schema, table any) *CrossSchemaTableExpression {
	return &CrossSchemaTableExpression{schema: asIdentifier(schema), table: asIdentifier(table)}
}

func asIdentifier(v any) Expression {
	switch x := v.(type) {
	case string:
		return NewIdentifier(x)
	case Expression:
		return x
	}
	raise(ErrInvalidArgument, "expected a string or an expression, %s given", typeName(v))
	return nil
}

func (t *CrossSchemaTableExpression) Schema() Expression { return t.schema }
func (t *CrossSchemaTableExpression) Table() Expression  { return t.table }

func (t *CrossSchemaTableExpression) SQL(b *binder.ValueBinder) string {
	return t.schema.SQL(b) + "." + t.table.SQL(b)
}

func (t *CrossSchemaTableExpression) Traverse(visit func(Expression)) {
	walk(t.schema, visit)
	walk(t.table, visit)
}

func (t *CrossSchemaTableExpression) Clone() Expression {
	return &CrossSchemaTableExpression{schema: t.schema.Clone(), table: t.table.Clone()}
}
