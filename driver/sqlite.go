package driver

import (
	// Registers the "sqlite" database/sql driver (pure Go, no cgo).
	_ "modernc.org/sqlite"

	"github.com/bawdo/sqlexpr/binder"
	"github.com/bawdo/sqlexpr/internal/quoting"
)

// SQLite returns the SQLite dialect.
// Identifiers are quoted with double quotes like PostgreSQL, but
// placeholders are positional question marks.
func SQLite(opts ...Option) *Driver {
	d := &Driver{
		Name:      "sqlite",
		SQLDriver: "sqlite",
		Style:     binder.Question,
		quote:     quoting.DoubleQuote,
	}
	return d.apply(opts)
}
