package database

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/bawdo/sqlexpr/binder"
	"github.com/bawdo/sqlexpr/internal/quoting"
)

// LoggedQuery records one executed statement.
type LoggedQuery struct {
	Query  string
	Params []any
	Style  binder.Style
	Took   time.Duration
	Rows   int
	Err    error
}

// String returns the query with its parameters interpolated. The result is
// for display only and must never be executed.
func (q LoggedQuery) String() string {
	if len(q.Params) == 0 || q.Style == binder.Named {
		return q.Query
	}
	var sb strings.Builder
	next := 0
	for i := 0; i < len(q.Query); {
		c := q.Query[i]
		switch {
		case c == '\'' || c == '"' || c == '`':
			end := skipQuoted(q.Query, i)
			sb.WriteString(q.Query[i:end])
			i = end
		case c == '?' && q.Style == binder.Question && next < len(q.Params):
			sb.WriteString(literal(q.Params[next]))
			next++
			i++
		case c == '$' && q.Style == binder.Dollar:
			j := i + 1
			for j < len(q.Query) && q.Query[j] >= '0' && q.Query[j] <= '9' {
				j++
			}
			n, err := strconv.Atoi(q.Query[i+1 : j])
			if err != nil || n < 1 || n > len(q.Params) {
				sb.WriteString(q.Query[i:j])
			} else {
				sb.WriteString(literal(q.Params[n-1]))
			}
			i = j
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return sb.String()
}

// LogValue groups the entry's attributes under the query key.
func (q LoggedQuery) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("sql", q.String()),
		slog.Duration("took", q.Took),
		slog.Int("rows", q.Rows),
	}
	if q.Err != nil {
		attrs = append(attrs, slog.String("error", q.Err.Error()))
	}
	return slog.GroupValue(attrs...)
}

func literal(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if x {
			return "1"
		}
		return "0"
	case string:
		return quoting.Literal(x)
	case []byte:
		return quoting.Literal(string(x))
	case time.Time:
		return "'" + x.Format("2006-01-02 15:04:05") + "'"
	case fmt.Stringer:
		return quoting.Literal(x.String())
	default:
		return fmt.Sprint(x)
	}
}

func skipQuoted(s string, start int) int {
	q := s[start]
	for i := start + 1; i < len(s); i++ {
		if s[i] != q {
			continue
		}
		if i+1 < len(s) && s[i+1] == q {
			i++
			continue
		}
		return i + 1
	}
	return len(s)
}
