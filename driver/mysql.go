package driver

import (
	// Registers the "mysql" database/sql driver.
	_ "github.com/go-sql-driver/mysql"

	"github.com/bawdo/sqlexpr/binder"
	"github.com/bawdo/sqlexpr/internal/quoting"
)

// MySQL returns the MySQL dialect.
// Identifiers are quoted with backticks: `table`.`column`.
func MySQL(opts ...Option) *Driver {
	d := &Driver{
		Name:      "mysql",
		SQLDriver: "mysql",
		Style:     binder.Question,
		quote:     quoting.Backtick,
	}
	return d.apply(opts)
}
