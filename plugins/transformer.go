// Package plugins defines the Transformer interface for statement middleware.
package plugins

import "github.com/bawdo/sqlexpr/query"

// Transformer is the interface that statement transformation plugins
// implement. Plugins embed BaseTransformer and override only the methods
// they need.
type Transformer = query.Transformer

// BaseTransformer provides no-op defaults for all Transformer methods.
// Plugins embed this and override only the methods they care about.
type BaseTransformer struct{}

func (BaseTransformer) TransformSelect(q *query.SelectQuery) (*query.SelectQuery, error) {
	return q, nil
}
func (BaseTransformer) TransformInsert(q *query.InsertQuery) (*query.InsertQuery, error) {
	return q, nil
}
func (BaseTransformer) TransformUpdate(q *query.UpdateQuery) (*query.UpdateQuery, error) {
	return q, nil
}
func (BaseTransformer) TransformDelete(q *query.DeleteQuery) (*query.DeleteQuery, error) {
	return q, nil
}
