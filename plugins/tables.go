package plugins

import (
	"github.com/bawdo/sqlexpr/expression"
	"github.com/bawdo/sqlexpr/query"
)

// TableRef holds a table referenced by a statement.
// Ref is the name columns are qualified with (the alias when one is set),
// and Name is the underlying table name (for matching/filtering).
type TableRef struct {
	Ref  string
	Name string
}

// Column returns "ref.column".
func (r TableRef) Column(column string) string {
	return r.Ref + "." + column
}

// CollectTables returns all tables referenced by a SELECT, including the
// FROM tables and all JOIN targets. Subqueries and other expressions are
// skipped.
func CollectTables(q *query.SelectQuery) []TableRef {
	var refs []TableRef
	for _, f := range q.Clause("from").(expression.Conditions) {
		if ref, ok := extractTableRef(f.Value, f.Key); ok {
			refs = append(refs, ref)
		}
	}
	for _, j := range q.Clause("join").([]*query.Join) {
		if ref, ok := extractTableRef(j.Table, j.Alias); ok {
			refs = append(refs, ref)
		}
	}
	return refs
}

func extractTableRef(table any, alias string) (TableRef, bool) {
	var name string
	switch t := table.(type) {
	case string:
		name = t
	case *expression.TableNameExpression:
		n, ok := t.Name().(string)
		if !ok {
			return TableRef{}, false
		}
		name = t.Prefix() + n
	default:
		return TableRef{}, false
	}
	if alias == "" {
		return TableRef{Ref: name, Name: name}, true
	}
	return TableRef{Ref: alias, Name: name}, true
}
