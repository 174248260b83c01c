package binder

import (
	"fmt"
	"strings"
)

// Style selects how named placeholders are written for a database driver.
type Style int

const (
	// Named keeps ":c0" style placeholders.
	Named Style = iota
	// Question rewrites every placeholder to "?" (MySQL, SQLite).
	Question
	// Dollar rewrites placeholders to "$1", "$2", ... (PostgreSQL).
	Dollar
)

// String returns the style name.
func (s Style) String() string {
	switch s {
	case Question:
		return "question"
	case Dollar:
		return "dollar"
	default:
		return "named"
	}
}

// Placeholder returns the positional marker for the 1-based index i.
func (s Style) Placeholder(i int) string {
	switch s {
	case Question:
		return "?"
	case Dollar:
		return fmt.Sprintf("$%d", i)
	default:
		return ""
	}
}

// Rebind rewrites the named placeholders in sql that are known to b into the
// given positional style and returns the bindings in placeholder order.
// Placeholders inside quoted strings or quoted identifiers, PostgreSQL "::"
// casts and names b never bound are left untouched. With the Dollar style a
// placeholder used twice keeps a single position.
func (b *ValueBinder) Rebind(sql string, style Style) (string, []Binding) {
	if style == Named {
		return sql, b.Bindings()
	}

	var (
		sb       strings.Builder
		ordered  []Binding
		position = make(map[string]int)
	)
	sb.Grow(len(sql))

	for i := 0; i < len(sql); {
		c := sql[i]
		switch {
		case c == '\'' || c == '"' || c == '`':
			end := skipQuoted(sql, i)
			sb.WriteString(sql[i:end])
			i = end
		case c == ':' && i+1 < len(sql) && sql[i+1] == ':':
			sb.WriteString("::")
			i += 2
		case c == ':' && i+1 < len(sql) && isIdentStart(sql[i+1]):
			j := i + 1
			for j < len(sql) && isIdentPart(sql[j]) {
				j++
			}
			param := sql[i:j]
			bd, ok := b.Lookup(param)
			if !ok {
				sb.WriteString(param)
				i = j
				continue
			}
			if style == Dollar {
				if pos, seen := position[param]; seen {
					sb.WriteString(style.Placeholder(pos))
					i = j
					continue
				}
			}
			ordered = append(ordered, bd)
			position[param] = len(ordered)
			sb.WriteString(style.Placeholder(len(ordered)))
			i = j
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return sb.String(), ordered
}

// skipQuoted returns the index just past the quoted section starting at
// sql[start]. A doubled quote character is an escaped quote.
func skipQuoted(sql string, start int) int {
	q := sql[start]
	i := start + 1
	for i < len(sql) {
		if sql[i] == q {
			if i+1 < len(sql) && sql[i+1] == q {
				i += 2
				continue
			}
			return i + 1
		}
		i++
	}
	return len(sql)
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
