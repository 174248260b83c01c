package main

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/bawdo/sqlexpr/expression"
	"github.com/bawdo/sqlexpr/query"
)

// Fill colours per node category.
const (
	colorStatement  = "#6CA6CD" // blue: statements, tables, CTEs
	colorIdentifier = "#B0D4E8" // light blue: identifiers, select lists
	colorComparison = "#FFB347" // orange: comparisons, predicates
	colorLogical    = "#FFEB80" // yellow: condition trees, case
	colorOrdering   = "#CDA0E0" // purple: ordering, windows
	colorFunction   = "#87CEEB" // sky blue: functions, aggregates
	colorValue      = "#D3D3D3" // grey: values, intervals, raw SQL
)

// renderDot renders the expression tree of stmt as a Graphviz digraph.
func renderDot(stmt query.Statement) string {
	var b strings.Builder
	b.WriteString("digraph sqlexpr {\n")
	b.WriteString("  node [shape=box, style=\"filled,rounded\", fontname=\"Helvetica\"];\n")
	n := 0
	var add func(e expression.Expression) string
	add = func(e expression.Expression) string {
		id := fmt.Sprintf("n%d", n)
		n++
		fmt.Fprintf(&b, "  %s [label=%q, fillcolor=%q];\n", id, dotLabel(e), dotColor(e))
		for _, c := range directChildren(e) {
			fmt.Fprintf(&b, "  %s -> %s;\n", id, add(c))
		}
		return id
	}
	add(stmt)
	b.WriteString("}\n")
	return b.String()
}

// directChildren returns the children Traverse reaches that are not
// themselves below another child.
func directChildren(e expression.Expression) []expression.Expression {
	var all []expression.Expression
	e.Traverse(func(c expression.Expression) { all = append(all, c) })
	nested := map[expression.Expression]bool{}
	for _, c := range all {
		c.Traverse(func(g expression.Expression) {
			if reflect.ValueOf(g).Comparable() {
				nested[g] = true
			}
		})
	}
	var out []expression.Expression
	for _, c := range all {
		if reflect.ValueOf(c).Comparable() && nested[c] {
			continue
		}
		out = append(out, c)
	}
	return out
}

func dotLabel(e expression.Expression) string {
	name := reflect.TypeOf(e).String()
	name = name[strings.LastIndex(name, ".")+1:]
	var detail string
	switch x := e.(type) {
	case query.Statement:
		detail = strings.ToUpper(x.StatementType())
	case *expression.IdentifierExpression:
		detail = x.Identifier()
	case *expression.QueryExpression:
		detail = x.Conjunction()
	case *expression.ComparisonExpression:
		detail = fmt.Sprintf("%v %s", x.Field(), x.Operator())
	case interface{ Name() string }:
		detail = x.Name()
	case expression.Field:
		detail = fmt.Sprint(x.Field())
	}
	if detail == "" {
		return name
	}
	return name + "\n" + detail
}

func dotColor(e expression.Expression) string {
	switch e.(type) {
	case query.Statement, *expression.TableNameExpression, *expression.CrossSchemaTableExpression,
		*expression.CommonTableExpression, *expression.WithExpression:
		return colorStatement
	case *expression.IdentifierExpression, *expression.SelectExpression:
		return colorIdentifier
	case *expression.ComparisonExpression, *expression.BetweenExpression,
		*expression.TupleComparison, *expression.UnaryExpression:
		return colorComparison
	case *expression.QueryExpression, *expression.CaseStatementExpression,
		*expression.WhenThenExpression, *expression.CaseExpression:
		return colorLogical
	case *expression.OrderByExpression, *expression.OrderClauseExpression, *expression.WindowExpression:
		return colorOrdering
	case *expression.FunctionExpression, *expression.AggregateExpression, *expression.GroupedExpression:
		return colorFunction
	}
	return colorValue
}
