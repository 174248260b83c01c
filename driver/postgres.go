package driver

import (
	// Registers the "pgx" database/sql driver.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/bawdo/sqlexpr/binder"
	"github.com/bawdo/sqlexpr/internal/quoting"
)

// Postgres returns the PostgreSQL dialect.
// Identifiers are quoted with double quotes: "table"."column", and
// placeholders are written $1, $2, ...
func Postgres(opts ...Option) *Driver {
	d := &Driver{
		Name:      "postgres",
		SQLDriver: "pgx",
		Style:     binder.Dollar,
		quote:     quoting.DoubleQuote,
	}
	return d.apply(opts)
}
