// Package driver adapts compiled statements to a specific database: it
// quotes identifiers in the dialect's style, rewrites named placeholders
// into the driver's positional form and converts bound values through the
// type registry.
package driver

import (
	"fmt"
	"slices"
	"strings"

	"github.com/bawdo/sqlexpr/binder"
	"github.com/bawdo/sqlexpr/expression"
	"github.com/bawdo/sqlexpr/internal/quoting"
	"github.com/bawdo/sqlexpr/query"
	"github.com/bawdo/sqlexpr/types"
)

// Driver describes one SQL dialect.
type Driver struct {
	// Name is the dialect name: "postgres", "mysql" or "sqlite".
	Name string
	// SQLDriver is the database/sql driver name registered by the driver
	// package imported for this dialect.
	SQLDriver string
	// Style is the placeholder style the database/sql driver accepts.
	Style binder.Style
	// AutoQuote quotes identifiers before compiling.
	AutoQuote bool

	quote func(string) string
}

// Option configures a Driver returned by Lookup or a constructor.
type Option func(*Driver)

// WithAutoQuote enables or disables identifier quoting.
func WithAutoQuote(on bool) Option {
	return func(d *Driver) { d.AutoQuote = on }
}

// WithStyle overrides the placeholder style.
func WithStyle(s binder.Style) Option {
	return func(d *Driver) { d.Style = s }
}

func (d *Driver) apply(opts []Option) *Driver {
	for _, o := range opts {
		o(d)
	}
	return d
}

var aliases = map[string]func(...Option) *Driver{
	"postgres":   Postgres,
	"postgresql": Postgres,
	"pgx":        Postgres,
	"mysql":      MySQL,
	"sqlite":     SQLite,
	"sqlite3":    SQLite,
}

// Lookup returns the driver registered under name (case-insensitive).
func Lookup(name string, opts ...Option) (*Driver, error) {
	ctor, ok := aliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("driver: unknown driver %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return ctor(opts...), nil
}

// Names returns the accepted driver names in sorted order.
func Names() []string {
	names := make([]string, 0, len(aliases))
	for n := range aliases {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// QuoteIdentifier quotes a field reference such as "users.id" or
// "COUNT(id) AS n" in the dialect's style.
func (d *Driver) QuoteIdentifier(ident string) string {
	return quoting.Identifier(ident, d.quote)
}

// Compile transforms, quotes and renders s. The returned SQL uses the
// driver's placeholder style and args holds the bound values, converted
// through the type registry, in placeholder order. s itself is not modified.
func (d *Driver) Compile(s query.Statement) (sql string, args []any, err error) {
	defer expression.Recover(&err)

	t, err := s.Transform()
	if err != nil {
		return "", nil, err
	}
	if d.AutoQuote {
		NewIdentifierQuoter(d).Quote(t)
	}

	b := binder.New()
	named := t.SQL(b)
	sql, bindings := b.Rebind(named, d.Style)
	args = make([]any, len(bindings))
	for i, bd := range bindings {
		v, err := types.ToDatabase(bd.Value, bd.Type)
		if err != nil {
			return "", nil, fmt.Errorf("driver: bind %s: %w", bd.Param, err)
		}
		args[i] = v
	}
	return sql, args, nil
}
