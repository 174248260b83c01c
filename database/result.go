package database

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cast"
)

// Result holds the rows returned by a statement, keyed by column name, plus
// the column order reported by the driver.
type Result struct {
	Columns []string
	Rows    []map[string]any
}

// Len returns the number of rows.
func (r *Result) Len() int { return len(r.Rows) }

// Strings returns the rows as display strings in column order. NULL values
// become "NULL".
func (r *Result) Strings() [][]string {
	out := make([][]string, len(r.Rows))
	for i, row := range r.Rows {
		cells := make([]string, len(r.Columns))
		for j, col := range r.Columns {
			v := row[col]
			if v == nil {
				cells[j] = "NULL"
				continue
			}
			s, err := cast.ToStringE(v)
			if err != nil {
				s = fmt.Sprint(v)
			}
			cells[j] = s
		}
		out[i] = cells
	}
	return out
}

func scanRows(rows *sql.Rows) (*Result, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}
	res := &Result{Columns: columns}
	for rows.Next() {
		vals := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			if b, ok := vals[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = vals[i]
		}
		res.Rows = append(res.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return res, nil
}
