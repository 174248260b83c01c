// Package binder allocates placeholders and records the values bound to them
// while an expression tree is rendered to SQL.
package binder

import (
	"fmt"
	"strings"
)

// Binding is a single placeholder together with its value and abstract type.
type Binding struct {
	Param       string // placeholder as it appears in SQL, e.g. ":c0"
	Placeholder string // Param without the leading colon
	Value       any
	Type        string // abstract type name, empty when untyped
}

// ValueBinder hands out unique placeholder names and records the values bound
// to them. A single binder is shared by every node taking part in one render
// so placeholder names never collide within a statement.
type ValueBinder struct {
	bindings []Binding
	index    map[string]int
	count    int
}

// New returns an empty ValueBinder.
func New() *ValueBinder {
	return &ValueBinder{index: make(map[string]int)}
}

// Bind associates value and typ with param. Binding the same param twice
// replaces the earlier value but keeps its original position.
func (b *ValueBinder) Bind(param string, value any, typ string) {
	if b.index == nil {
		b.index = make(map[string]int)
	}
	bd := Binding{
		Param:       param,
		Placeholder: strings.TrimPrefix(param, ":"),
		Value:       value,
		Type:        typ,
	}
	if i, ok := b.index[param]; ok {
		b.bindings[i] = bd
		return
	}
	b.index[param] = len(b.bindings)
	b.bindings = append(b.bindings, bd)
}

// Placeholder returns a fresh placeholder built from token. Tokens that
// already start with ':' and the positional marker '?' are returned as is;
// anything else gets a ':' prefix and the running counter as suffix, so
// Placeholder("c") yields ":c0", ":c1", ...
func (b *ValueBinder) Placeholder(token string) string {
	n := b.count
	b.count++
	if strings.HasPrefix(token, ":") || token == "?" {
		return token
	}
	return fmt.Sprintf(":%s%d", token, n)
}

// GenerateManyNamed binds every value under a fresh ":c" placeholder and
// returns the placeholders in the order of values.
func (b *ValueBinder) GenerateManyNamed(values []any, typ string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		p := b.Placeholder("c")
		b.Bind(p, v, typ)
		out[i] = p
	}
	return out
}

// Bindings returns the recorded bindings in the order they were first bound.
func (b *ValueBinder) Bindings() []Binding {
	out := make([]Binding, len(b.bindings))
	copy(out, b.bindings)
	return out
}

// Lookup returns the binding registered for param.
func (b *ValueBinder) Lookup(param string) (Binding, bool) {
	i, ok := b.index[param]
	if !ok {
		return Binding{}, false
	}
	return b.bindings[i], true
}

// Len reports the number of distinct bound placeholders.
func (b *ValueBinder) Len() int {
	return len(b.bindings)
}

// Values returns the bound values in binding order.
func (b *ValueBinder) Values() []any {
	out := make([]any, len(b.bindings))
	for i, bd := range b.bindings {
		out[i] = bd.Value
	}
	return out
}

// Reset clears all bindings and the placeholder counter.
func (b *ValueBinder) Reset() {
	b.bindings = nil
	b.index = make(map[string]int)
	b.count = 0
}

// ResetCount restarts the placeholder counter without dropping bindings.
func (b *ValueBinder) ResetCount() {
	b.count = 0
}
