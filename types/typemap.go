// Package types maps column names to abstract type names and converts Go
// values to and from their database representation for each type name.
package types

import (
	"maps"
	"strings"
)

// TypeMap resolves a column name to an abstract type name such as "integer"
// or "datetime". Specific types take precedence over defaults.
//
// Expressions treat a TypeMap as copy-on-write: a map that has been handed to
// an expression is cloned before it is changed.
type TypeMap struct {
	defaults map[string]string
	types    map[string]string
}

// NewTypeMap creates a TypeMap with the given defaults.
func NewTypeMap(defaults map[string]string) *TypeMap {
	m := &TypeMap{
		defaults: make(map[string]string, len(defaults)),
		types:    make(map[string]string),
	}
	maps.Copy(m.defaults, defaults)
	return m
}

// SetDefaults replaces the default types.
func (m *TypeMap) SetDefaults(defaults map[string]string) *TypeMap {
	m.defaults = make(map[string]string, len(defaults))
	maps.Copy(m.defaults, defaults)
	return m
}

// AddDefaults merges defaults into the existing defaults.
func (m *TypeMap) AddDefaults(defaults map[string]string) *TypeMap {
	if m.defaults == nil {
		m.defaults = make(map[string]string, len(defaults))
	}
	maps.Copy(m.defaults, defaults)
	return m
}

// SetTypes replaces the specific types.
func (m *TypeMap) SetTypes(types map[string]string) *TypeMap {
	m.types = make(map[string]string, len(types))
	maps.Copy(m.types, types)
	return m
}

// AddTypes merges types into the existing specific types.
func (m *TypeMap) AddTypes(types map[string]string) *TypeMap {
	if m.types == nil {
		m.types = make(map[string]string, len(types))
	}
	maps.Copy(m.types, types)
	return m
}

// Defaults returns a copy of the default types.
func (m *TypeMap) Defaults() map[string]string {
	return maps.Clone(m.defaults)
}

// Types returns a copy of the specific types.
func (m *TypeMap) Types() map[string]string {
	return maps.Clone(m.types)
}

// Type returns the type registered for column, or "" when none is known.
func (m *TypeMap) Type(column string) string {
	if m == nil {
		return ""
	}
	if t, ok := m.types[column]; ok {
		return t
	}
	if t, ok := m.defaults[column]; ok {
		return t
	}
	return ""
}

// ToDefault returns defaults overlaid with the specific types.
func (m *TypeMap) ToDefault() map[string]string {
	out := maps.Clone(m.defaults)
	if out == nil {
		out = make(map[string]string, len(m.types))
	}
	maps.Copy(out, m.types)
	return out
}

// Clone returns an independent copy of m. Cloning a nil map yields an empty one.
func (m *TypeMap) Clone() *TypeMap {
	if m == nil {
		return NewTypeMap(nil)
	}
	c := NewTypeMap(m.defaults)
	c.types = maps.Clone(m.types)
	if c.types == nil {
		c.types = make(map[string]string)
	}
	return c
}

// IsMultiple reports whether typ names a list type such as "integer[]".
func IsMultiple(typ string) bool {
	return strings.Contains(typ, "[]")
}

// BaseType strips the list marker from typ: "integer[]" becomes "integer".
func BaseType(typ string) string {
	return strings.ReplaceAll(typ, "[]", "")
}
