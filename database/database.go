// Package database runs compiled statements over database/sql. A Connection
// pairs a *sql.DB with the driver.Driver that compiles statements for it.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/bawdo/sqlexpr/driver"
	"github.com/bawdo/sqlexpr/query"
)

// Connection executes statements against one database.
type Connection struct {
	db         *sql.DB
	driver     *driver.Driver
	logger     *slog.Logger
	logQueries bool
	maxOpen    int
	driverOpts []driver.Option
}

// Option configures a Connection.
type Option func(*Connection)

// WithLogger sets the logger used for query logging. The default discards
// everything.
func WithLogger(l *slog.Logger) Option {
	return func(c *Connection) { c.logger = l }
}

// WithQueryLogging logs every executed statement at debug level.
func WithQueryLogging(on bool) Option {
	return func(c *Connection) { c.logQueries = on }
}

// WithMaxOpenConns limits the number of open connections in the pool.
func WithMaxOpenConns(n int) Option {
	return func(c *Connection) { c.maxOpen = n }
}

// WithDriverOptions applies driver options, such as driver.WithAutoQuote, to
// the connection's driver.
func WithDriverOptions(opts ...driver.Option) Option {
	return func(c *Connection) { c.driverOpts = append(c.driverOpts, opts...) }
}

// Open looks up the named driver, opens dsn with it and pings the database.
func Open(ctx context.Context, driverName, dsn string, opts ...Option) (*Connection, error) {
	d, err := driver.Lookup(driverName)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(d.SQLDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return New(db, d, opts...), nil
}

// New wraps an open database.
func New(db *sql.DB, d *driver.Driver, opts ...Option) *Connection {
	c := &Connection{
		db:     db,
		driver: d,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(c)
	}
	for _, o := range c.driverOpts {
		o(c.driver)
	}
	if c.maxOpen > 0 {
		db.SetMaxOpenConns(c.maxOpen)
	}
	return c
}

func (c *Connection) DB() *sql.DB            { return c.db }
func (c *Connection) Driver() *driver.Driver { return c.driver }
func (c *Connection) Close() error           { return c.db.Close() }

// Compile compiles s for this connection's driver.
func (c *Connection) Compile(s query.Statement) (string, []any, error) {
	return c.driver.Compile(s)
}

// Run compiles and executes a statement that returns rows.
func (c *Connection) Run(ctx context.Context, s query.Statement) (*Result, error) {
	sqlStr, args, err := c.Compile(s)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	res, err := c.query(ctx, sqlStr, args)
	rows := 0
	if res != nil {
		rows = len(res.Rows)
	}
	c.log(ctx, LoggedQuery{Query: sqlStr, Params: args, Style: c.driver.Style, Took: time.Since(start), Rows: rows, Err: err})
	return res, err
}

// Exec compiles and executes a statement that returns no rows.
func (c *Connection) Exec(ctx context.Context, s query.Statement) (sql.Result, error) {
	sqlStr, args, err := c.Compile(s)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	res, err := c.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		err = fmt.Errorf("exec: %w", err)
	}
	entry := LoggedQuery{Query: sqlStr, Params: args, Style: c.driver.Style, Took: time.Since(start), Err: err}
	if res != nil {
		if n, nerr := res.RowsAffected(); nerr == nil {
			entry.Rows = int(n)
		}
	}
	c.log(ctx, entry)
	return res, err
}

func (c *Connection) query(ctx context.Context, sqlStr string, args []any) (*Result, error) {
	rows, err := c.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanRows(rows)
}

func (c *Connection) log(ctx context.Context, q LoggedQuery) {
	if !c.logQueries {
		return
	}
	if q.Err != nil {
		c.logger.LogAttrs(ctx, slog.LevelError, "query failed", slog.Any("query", q))
		return
	}
	c.logger.LogAttrs(ctx, slog.LevelDebug, "query", slog.Any("query", q))
}

// Tables lists the user tables of the connected database.
func (c *Connection) Tables(ctx context.Context) ([]string, error) {
	var q string
	switch c.driver.Name {
	case "postgres":
		q = "SELECT table_name FROM information_schema.tables WHERE table_schema = 'public' ORDER BY table_name"
	case "mysql":
		q = "SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE() ORDER BY table_name"
	case "sqlite":
		q = "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name"
	default:
		return nil, fmt.Errorf("unsupported driver: %s", c.driver.Name)
	}
	return c.stringColumn(ctx, q)
}

// Columns lists the columns of table in ordinal order.
func (c *Connection) Columns(ctx context.Context, table string) ([]string, error) {
	var q string
	switch c.driver.Name {
	case "postgres":
		q = "SELECT column_name FROM information_schema.columns WHERE table_schema = 'public' AND table_name = $1 ORDER BY ordinal_position"
	case "mysql":
		q = "SELECT column_name FROM information_schema.columns WHERE table_schema = DATABASE() AND table_name = ? ORDER BY ordinal_position"
	case "sqlite":
		q = "SELECT name FROM pragma_table_info(?)"
	default:
		return nil, fmt.Errorf("unsupported driver: %s", c.driver.Name)
	}
	return c.stringColumn(ctx, q, table)
}

func (c *Connection) stringColumn(ctx context.Context, q string, args ...any) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
