package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/bawdo/sqlexpr/expression"
	"github.com/bawdo/sqlexpr/plugins/opa"
	"github.com/bawdo/sqlexpr/plugins/softdelete"
	"github.com/bawdo/sqlexpr/query"
)

// A query document is a YAML mapping describing one statement:
//
//	vars:
//	  min_age: 6 * 3
//	select: [id, name]
//	from: users
//	where:
//	  age >=: $min_age
//	  or:
//	    name like: A%
//	    deleted_at is: null
//	order: {name: ASC}
//	limit: 10
//	types: {age: integer}
//
// "insert", "update" and "delete" mappings describe the other statements.
// Mapping order is kept, so conditions render in the order they are written.

var errEmptyDocument = errors.New("empty query document")

type docContext struct {
	vars  map[string]any
	types map[string]string
}

// parseDocument builds the statement described by data.
func parseDocument(data []byte) (stmt query.Statement, err error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return nil, errEmptyDocument
	}
	top, err := fields(root.Content[0])
	if err != nil {
		return nil, err
	}

	defer expression.Recover(&err)

	ctx := &docContext{vars: map[string]any{}, types: map[string]string{}}
	if n, ok := top["vars"]; ok {
		if err := ctx.evalVars(n); err != nil {
			return nil, err
		}
	}
	if n, ok := top["types"]; ok {
		if err := n.Decode(&ctx.types); err != nil {
			return nil, fmt.Errorf("types: %w", err)
		}
	}

	switch {
	case top["insert"] != nil:
		stmt, err = ctx.buildInsert(top["insert"])
	case top["update"] != nil:
		stmt, err = ctx.buildUpdate(top["update"])
	case top["delete"] != nil:
		stmt, err = ctx.buildDelete(top["delete"])
	case top["select"] != nil || top["from"] != nil:
		stmt, err = ctx.buildSelect(top)
	default:
		return nil, errors.New("document needs one of select, from, insert, update or delete")
	}
	if err != nil {
		return nil, err
	}
	if n, ok := top["plugins"]; ok {
		if err := applyPlugins(stmt, n); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

// fields indexes the keys of a mapping node by their lower-cased name.
func fields(n *yaml.Node) (map[string]*yaml.Node, error) {
	n = resolve(n)
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping", n.Line)
	}
	out := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		out[strings.ToLower(n.Content[i].Value)] = n.Content[i+1]
	}
	return out, nil
}

func resolve(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode || n.Kind == yaml.DocumentNode {
		if n.Kind == yaml.AliasNode {
			n = n.Alias
		} else {
			n = n.Content[0]
		}
	}
	return n
}

// evalVars evaluates every entry of the vars mapping as an expr-lang
// expression. Later variables may refer to earlier ones.
func (c *docContext) evalVars(n *yaml.Node) error {
	n = resolve(n)
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: vars must be a mapping", n.Line)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		name := n.Content[i].Value
		src := resolve(n.Content[i+1]).Value
		program, err := expr.Compile(src, expr.Env(c.vars))
		if err != nil {
			return fmt.Errorf("vars.%s: %w", name, err)
		}
		v, err := expr.Run(program, c.vars)
		if err != nil {
			return fmt.Errorf("vars.%s: %w", name, err)
		}
		c.vars[name] = v
	}
	return nil
}

// value converts a node into the Go value the builders accept: mappings
// become ordered Conditions (or a subquery when they hold select and from),
// sequences become []any and "$name" scalars are replaced by variables.
func (c *docContext) value(n *yaml.Node) (any, error) {
	n = resolve(n)
	switch n.Kind {
	case yaml.MappingNode:
		m, err := fields(n)
		if err != nil {
			return nil, err
		}
		if m["select"] != nil && m["from"] != nil {
			return c.buildSelect(m)
		}
		return c.conditions(n)
	case yaml.SequenceNode:
		out := make([]any, len(n.Content))
		for i, item := range n.Content {
			v, err := c.value(item)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}
	var v any
	if err := n.Decode(&v); err != nil {
		return nil, fmt.Errorf("line %d: %w", n.Line, err)
	}
	s, ok := v.(string)
	if !ok {
		return v, nil
	}
	if name, isVar := strings.CutPrefix(s, "$"); isVar && name != "" && !strings.HasPrefix(name, "$") {
		val, defined := c.vars[name]
		if !defined {
			return nil, fmt.Errorf("line %d: undefined variable %q", n.Line, name)
		}
		return val, nil
	}
	if strings.HasPrefix(s, "$$") {
		return s[1:], nil
	}
	return s, nil
}

// conditions converts a mapping into ordered Conditions. Keys are NFC
// normalised so visually identical identifiers compare equal.
func (c *docContext) conditions(n *yaml.Node) (expression.Conditions, error) {
	n = resolve(n)
	switch n.Kind {
	case yaml.MappingNode:
		out := make(expression.Conditions, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := c.value(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			out = append(out, expression.Cond{Key: norm.NFC.String(n.Content[i].Value), Value: v})
		}
		return out, nil
	case yaml.SequenceNode:
		var out expression.Conditions
		for _, item := range n.Content {
			if resolve(item).Kind == yaml.MappingNode {
				sub, err := c.conditions(item)
				if err != nil {
					return nil, err
				}
				out = append(out, sub...)
				continue
			}
			v, err := c.value(item)
			if err != nil {
				return nil, err
			}
			out = append(out, expression.Cond{Value: v})
		}
		return out, nil
	}
	v, err := c.value(n)
	if err != nil {
		return nil, err
	}
	return expression.List(v), nil
}

func (c *docContext) names(n *yaml.Node) ([]string, error) {
	n = resolve(n)
	if n.Kind == yaml.ScalarNode {
		return []string{norm.NFC.String(n.Value)}, nil
	}
	var out []string
	if err := n.Decode(&out); err != nil {
		return nil, fmt.Errorf("line %d: expected a list of names: %w", n.Line, err)
	}
	for i, s := range out {
		out[i] = norm.NFC.String(s)
	}
	return out, nil
}

func (c *docContext) integer(n *yaml.Node, name string) (int, error) {
	v, err := c.value(n)
	if err != nil {
		return 0, err
	}
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case float64:
		if x == float64(int(x)) {
			return int(x), nil
		}
	}
	return 0, fmt.Errorf("line %d: %s must be an integer", n.Line, name)
}

func (c *docContext) buildSelect(m map[string]*yaml.Node) (*query.SelectQuery, error) {
	q := query.NewSelect()

	if n, ok := m["with"]; ok {
		if err := c.addWith(n, func(cte *expression.CommonTableExpression) { q.With(cte) }); err != nil {
			return nil, err
		}
	}
	if n, ok := m["select"]; ok {
		terms, err := c.conditions(n)
		if err != nil {
			return nil, err
		}
		q.Select(terms)
	}
	if n, ok := m["distinct"]; ok {
		if err := c.distinct(q, n); err != nil {
			return nil, err
		}
	}
	if n, ok := m["from"]; ok {
		from, err := c.conditions(n)
		if err != nil {
			return nil, err
		}
		q.From(from)
	}
	if n, ok := m["join"]; ok {
		if err := c.joins(q, n); err != nil {
			return nil, err
		}
	}
	if n, ok := m["where"]; ok {
		where, err := c.conditions(n)
		if err != nil {
			return nil, err
		}
		q.Where(where, c.types)
	}
	if n, ok := m["group"]; ok {
		group, err := c.names(n)
		if err != nil {
			return nil, err
		}
		q.Group(group)
	}
	if n, ok := m["having"]; ok {
		having, err := c.conditions(n)
		if err != nil {
			return nil, err
		}
		q.Having(having, c.types)
	}
	if n, ok := m["order"]; ok {
		order, err := c.conditions(n)
		if err != nil {
			return nil, err
		}
		q.Order(order)
	}
	if n, ok := m["limit"]; ok {
		limit, err := c.integer(n, "limit")
		if err != nil {
			return nil, err
		}
		q.Limit(limit)
		if p, ok := m["page"]; ok {
			page, err := c.integer(p, "page")
			if err != nil {
				return nil, err
			}
			q.Page(page, limit)
		}
	} else if _, ok := m["page"]; ok {
		return nil, errors.New("page needs a limit")
	}
	if n, ok := m["offset"]; ok {
		offset, err := c.integer(n, "offset")
		if err != nil {
			return nil, err
		}
		q.Offset(offset)
	}
	for _, kind := range []string{"union", "union_all"} {
		n, ok := m[kind]
		if !ok {
			continue
		}
		n = resolve(n)
		items := n.Content
		if n.Kind == yaml.MappingNode {
			items = []*yaml.Node{n}
		}
		for _, item := range items {
			sub, err := fields(item)
			if err != nil {
				return nil, err
			}
			other, err := c.buildSelect(sub)
			if err != nil {
				return nil, err
			}
			if kind == "union" {
				q.Union(other)
			} else {
				q.UnionAll(other)
			}
		}
	}
	if n, ok := m["epilog"]; ok {
		q.Epilog(resolve(n).Value)
	}
	return q, nil
}

func (c *docContext) distinct(q *query.SelectQuery, n *yaml.Node) error {
	n = resolve(n)
	if n.Kind == yaml.ScalarNode && n.ShortTag() == "!!bool" {
		var on bool
		if err := n.Decode(&on); err != nil {
			return err
		}
		if on {
			q.Distinct()
		}
		return nil
	}
	cols, err := c.names(n)
	if err != nil {
		return err
	}
	on := make([]any, len(cols))
	for i, col := range cols {
		on[i] = col
	}
	q.Distinct(on...)
	return nil
}

func (c *docContext) joins(q *query.SelectQuery, n *yaml.Node) error {
	n = resolve(n)
	items := n.Content
	if n.Kind == yaml.MappingNode {
		items = []*yaml.Node{n}
	}
	for _, item := range items {
		j, err := fields(item)
		if err != nil {
			return err
		}
		if j["table"] == nil {
			return fmt.Errorf("line %d: join needs a table", item.Line)
		}
		table, err := c.value(j["table"])
		if err != nil {
			return err
		}
		var alias string
		if a, ok := j["alias"]; ok {
			alias = resolve(a).Value
		}
		var on any
		if o, ok := j["on"]; ok {
			if on, err = c.conditions(o); err != nil {
				return err
			}
		}
		typ := query.InnerJoin
		if t, ok := j["type"]; ok {
			typ = strings.ToUpper(strings.TrimSpace(resolve(t).Value))
		}
		switch typ {
		case query.InnerJoin:
			q.InnerJoin(alias, table, on, c.types)
		case query.LeftJoin:
			q.LeftJoin(alias, table, on, c.types)
		case query.RightJoin:
			q.RightJoin(alias, table, on, c.types)
		default:
			return fmt.Errorf("line %d: unknown join type %q", item.Line, typ)
		}
	}
	return nil
}

func (c *docContext) addWith(n *yaml.Node, add func(*expression.CommonTableExpression)) error {
	n = resolve(n)
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: with must map names to queries", n.Line)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		m, err := fields(n.Content[i+1])
		if err != nil {
			return err
		}
		sub, err := c.buildSelect(m)
		if err != nil {
			return err
		}
		add(expression.NewCTE(n.Content[i].Value, sub))
	}
	return nil
}

func (c *docContext) buildInsert(n *yaml.Node) (*query.InsertQuery, error) {
	m, err := fields(n)
	if err != nil {
		return nil, err
	}
	if m["into"] == nil {
		return nil, errors.New("insert needs into")
	}
	q := query.NewInsert().Into(resolve(m["into"]).Value)

	var rows []map[string]any
	var source query.Statement
	var order []string
	if v, ok := m["values"]; ok {
		val, err := c.value(v)
		if err != nil {
			return nil, err
		}
		switch x := val.(type) {
		case *query.SelectQuery:
			source = x
		case expression.Conditions:
			row, cols := rowOf(x)
			rows, order = append(rows, row), cols
		case []any:
			for i, item := range x {
				conds, ok := item.(expression.Conditions)
				if !ok {
					return nil, fmt.Errorf("insert values: row %d must be a mapping", i)
				}
				row, cols := rowOf(conds)
				if i == 0 {
					order = cols
				}
				rows = append(rows, row)
			}
		default:
			return nil, fmt.Errorf("insert values must be rows or a query, %T given", val)
		}
	}

	columns := order
	if cn, ok := m["columns"]; ok {
		if columns, err = c.names(cn); err != nil {
			return nil, err
		}
	}
	if len(columns) == 0 {
		return nil, errors.New("insert needs columns or values")
	}
	q.Insert(columns, c.types)
	if mod, ok := m["modifier"]; ok {
		mods, err := c.names(mod)
		if err != nil {
			return nil, err
		}
		q.Modifier(mods...)
	}
	switch {
	case source != nil:
		q.Values(source)
	case len(rows) > 0:
		q.Values(rows)
	}
	if e, ok := m["epilog"]; ok {
		q.Epilog(resolve(e).Value)
	}
	return q, nil
}

func rowOf(c expression.Conditions) (map[string]any, []string) {
	row := make(map[string]any, len(c))
	cols := make([]string, 0, len(c))
	for _, e := range c {
		row[e.Key] = e.Value
		cols = append(cols, e.Key)
	}
	return row, cols
}

func (c *docContext) buildUpdate(n *yaml.Node) (*query.UpdateQuery, error) {
	m, err := fields(n)
	if err != nil {
		return nil, err
	}
	if m["table"] == nil {
		return nil, errors.New("update needs a table")
	}
	q := query.NewUpdate(resolve(m["table"]).Value)
	if s, ok := m["set"]; ok {
		set, err := c.conditions(s)
		if err != nil {
			return nil, err
		}
		q.Set(set, c.types)
	}
	if w, ok := m["where"]; ok {
		where, err := c.conditions(w)
		if err != nil {
			return nil, err
		}
		q.Where(where, c.types)
	}
	if e, ok := m["epilog"]; ok {
		q.Epilog(resolve(e).Value)
	}
	return q, nil
}

func (c *docContext) buildDelete(n *yaml.Node) (*query.DeleteQuery, error) {
	m, err := fields(n)
	if err != nil {
		return nil, err
	}
	if m["from"] == nil {
		return nil, errors.New("delete needs from")
	}
	q := query.NewDelete(resolve(m["from"]).Value)
	if w, ok := m["where"]; ok {
		where, err := c.conditions(w)
		if err != nil {
			return nil, err
		}
		q.Where(where, c.types)
	}
	if e, ok := m["epilog"]; ok {
		q.Epilog(resolve(e).Value)
	}
	return q, nil
}

type softdeleteConfig struct {
	Column  string            `yaml:"column"`
	Tables  []string          `yaml:"tables"`
	Columns map[string]string `yaml:"columns"`
}

type opaConfig struct {
	URL    string         `yaml:"url"`
	Policy string         `yaml:"policy"`
	Input  map[string]any `yaml:"input"`
}

// applyPlugins registers the transformers configured under "plugins" in the
// order they are listed.
func applyPlugins(stmt query.Statement, n *yaml.Node) error {
	n = resolve(n)
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: plugins must be a mapping", n.Line)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		name, cfg := strings.ToLower(n.Content[i].Value), n.Content[i+1]
		switch name {
		case "softdelete":
			var sc softdeleteConfig
			if resolve(cfg).Kind == yaml.MappingNode {
				if err := cfg.Decode(&sc); err != nil {
					return fmt.Errorf("plugins.softdelete: %w", err)
				}
			}
			var opts []softdelete.Option
			if sc.Column != "" {
				opts = append(opts, softdelete.WithColumn(sc.Column))
			}
			if len(sc.Tables) > 0 {
				opts = append(opts, softdelete.WithTables(sc.Tables...))
			}
			for table, col := range sc.Columns {
				opts = append(opts, softdelete.WithTableColumn(table, col))
			}
			use(stmt, softdelete.New(opts...))
		case "opa":
			var oc opaConfig
			if err := cfg.Decode(&oc); err != nil {
				return fmt.Errorf("plugins.opa: %w", err)
			}
			if oc.URL == "" || oc.Policy == "" {
				return errors.New("plugins.opa: url and policy are required")
			}
			use(stmt, opa.NewFromServer(oc.URL, oc.Policy, oc.Input))
		default:
			return fmt.Errorf("unknown plugin %q", name)
		}
	}
	return nil
}

func use(stmt query.Statement, t query.Transformer) {
	switch s := stmt.(type) {
	case *query.SelectQuery:
		s.Use(t)
	case *query.InsertQuery:
		s.Use(t)
	case *query.UpdateQuery:
		s.Use(t)
	case *query.DeleteQuery:
		s.Use(t)
	}
}
