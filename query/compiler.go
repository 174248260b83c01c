package query

import (
	"strconv"
	"strings"

	"github.com/bawdo/sqlexpr/binder"
	"github.com/bawdo/sqlexpr/expression"
)

// compiler writes statement clauses in order into a single buffer. Values
// are bound on b.
type compiler struct {
	sb strings.Builder
	b  *binder.ValueBinder
}

func newCompiler(b *binder.ValueBinder) *compiler {
	return &compiler{b: b}
}

func (c *compiler) String() string { return c.sb.String() }

// part renders a string verbatim, a statement in parentheses and any other
// expression inline.
func (c *compiler) part(v any) string {
	switch x := v.(type) {
	case expression.Query:
		return "(" + x.SQL(c.b) + ")"
	case expression.Expression:
		return x.SQL(c.b)
	case string:
		return x
	}
	return ""
}

func (c *compiler) writeWith(w *expression.WithExpression) {
	if w == nil || w.Count() == 0 {
		return
	}
	c.sb.WriteString(w.SQL(c.b))
	c.sb.WriteString(" ")
}

// writeSources writes "keyword a, b alias" for table lists. Keys are aliases.
func (c *compiler) writeSources(keyword string, sources expression.Conditions) {
	if len(sources) == 0 {
		return
	}
	c.sb.WriteString(keyword)
	for i, s := range sources {
		if i > 0 {
			c.sb.WriteString(", ")
		}
		c.sb.WriteString(c.part(s.Value))
		if s.Key != "" {
			c.sb.WriteString(" ")
			c.sb.WriteString(s.Key)
		}
	}
}

func (c *compiler) writeJoins(joins []*Join) {
	for _, j := range joins {
		c.sb.WriteString(" ")
		c.sb.WriteString(j.Type)
		c.sb.WriteString(" JOIN ")
		c.sb.WriteString(c.part(j.Table))
		if j.Alias != "" {
			c.sb.WriteString(" ")
			c.sb.WriteString(j.Alias)
		}
		on := ""
		if j.Conditions != nil {
			on = j.Conditions.SQL(c.b)
		}
		if on == "" {
			on = "1 = 1"
		}
		c.sb.WriteString(" ON ")
		c.sb.WriteString(on)
	}
}

// writeConditions writes "keyword conditions" when the tree renders anything.
func (c *compiler) writeConditions(keyword string, q *expression.QueryExpression) {
	if q == nil {
		return
	}
	if sql := q.SQL(c.b); sql != "" {
		c.sb.WriteString(keyword)
		c.sb.WriteString(sql)
	}
}

func (c *compiler) writeList(keyword string, items []any) {
	if len(items) == 0 {
		return
	}
	c.sb.WriteString(keyword)
	for i, item := range items {
		if i > 0 {
			c.sb.WriteString(", ")
		}
		c.sb.WriteString(c.part(item))
	}
}

func (c *compiler) writeWindows(windows []namedWindow) {
	if len(windows) == 0 {
		return
	}
	c.sb.WriteString(" WINDOW ")
	for i, w := range windows {
		if i > 0 {
			c.sb.WriteString(", ")
		}
		c.sb.WriteString(w.name)
		c.sb.WriteString(" AS (")
		c.sb.WriteString(w.window.SQL(c.b))
		c.sb.WriteString(")")
	}
}

func (c *compiler) writeOrder(o *expression.OrderByExpression) {
	if o == nil || o.Count() == 0 {
		return
	}
	c.sb.WriteString(" ")
	c.sb.WriteString(o.SQL(c.b))
}

func (c *compiler) writeInt(keyword string, n *int) {
	if n == nil {
		return
	}
	c.sb.WriteString(keyword)
	c.sb.WriteString(strconv.Itoa(*n))
}

func (c *compiler) writeUnions(unions []union) {
	for _, u := range unions {
		c.sb.WriteString(" UNION ")
		if u.all {
			c.sb.WriteString("ALL ")
		}
		c.sb.WriteString("(")
		c.sb.WriteString(u.query.SQL(c.b))
		c.sb.WriteString(")")
	}
}

func (c *compiler) writeEpilog(epilog any) {
	if s := c.part(epilog); s != "" {
		c.sb.WriteString(" ")
		c.sb.WriteString(s)
	}
}
