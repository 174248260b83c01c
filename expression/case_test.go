package expression_test

import (
	"testing"
	"time"

	"github.com/bawdo/sqlexpr/binder"
	"github.com/bawdo/sqlexpr/expression"
	"github.com/bawdo/sqlexpr/internal/testutil"
	"github.com/bawdo/sqlexpr/types"
)

// --- CASE statements ---

func TestCaseStatementSearched(t *testing.T) {
	t.Parallel()
	c := expression.NewCaseStatement().
		When(expression.Pairs("status", "active")).Then(1).
		When(expression.Pairs("status", "pending")).Then(2).
		Else(0)
	b := testutil.AssertSQL(t, c, "CASE WHEN status = :c0 THEN :c1 WHEN status = :c2 THEN :c3 ELSE :c4 END")
	testutil.AssertBindings(t, b, "active", 1, "pending", 2, 0)
	testutil.AssertEqual(t, c.ReturnType(), "integer")
}

func TestCaseStatementSimple(t *testing.T) {
	t.Parallel()
	c := expression.NewSimpleCaseStatement(expression.NewIdentifier("status"), "").
		When("a").Then("Active")
	b := testutil.AssertSQL(t, c, "CASE status WHEN :c0 THEN :c1 ELSE NULL END")
	testutil.AssertBindings(t, b, "a", "Active")
}

func TestCaseStatementSimpleValueIsBound(t *testing.T) {
	t.Parallel()
	c := expression.NewSimpleCaseStatement(3, "").When(3).Then(true)
	b := testutil.AssertSQL(t, c, "CASE :c0 WHEN :c1 THEN :c2 ELSE NULL END")
	bs := b.Bindings()
	testutil.AssertEqual(t, bs[0].Type, "integer")
	testutil.AssertEqual(t, bs[2].Type, "boolean")
}

func TestCaseStatementMultipleConditions(t *testing.T) {
	t.Parallel()
	c := expression.NewCaseStatement().
		When(expression.Pairs("a >", 1, "b", 2)).Then(expression.NewIdentifier("x")).
		Else(expression.Raw("y"))
	testutil.AssertSQL(t, c, "CASE WHEN (a > :c0 AND b = :c1) THEN x ELSE y END")
}

func TestCaseStatementWhenCallback(t *testing.T) {
	t.Parallel()
	c := expression.NewCaseStatement().When(func(w *expression.WhenThenExpression) *expression.WhenThenExpression {
		return w.When(expression.Pairs("a >", 1)).Then("big")
	})
	testutil.AssertSQL(t, c, "CASE WHEN a > :c0 THEN :c1 ELSE NULL END")
	testutil.AssertEqual(t, len(c.Clause("when").([]*expression.WhenThenExpression)), 1)
}

func TestCaseStatementTypedWhen(t *testing.T) {
	t.Parallel()
	c := expression.NewCaseStatement().
		When(expression.Pairs("price >", "10"), map[string]string{"price": "float"}).Then("expensive")
	b := testutil.AssertSQL(t, c, "CASE WHEN price > :c0 THEN :c1 ELSE NULL END")
	testutil.AssertEqual(t, b.Bindings()[0].Type, "float")
}

func TestCaseStatementUsesQueryTypeMap(t *testing.T) {
	t.Parallel()
	q := expression.NewQueryExpression(nil, types.NewTypeMap(map[string]string{"price": "float"}), "")
	c := q.Case().When(expression.Pairs("price >", "10")).Then(expression.NewIdentifier("price"))

	b := testutil.AssertSQL(t, c, "CASE WHEN price > :c0 THEN price ELSE NULL END")
	testutil.AssertEqual(t, b.Bindings()[0].Type, "float")
	testutil.AssertEqual(t, c.ReturnType(), "float")
	testutil.AssertEqual(t, q.Count(), 0)
}

func TestCaseStatementReturnType(t *testing.T) {
	t.Parallel()
	mixed := expression.NewCaseStatement().When("a = 1").Then(1).Else("x")
	testutil.AssertEqual(t, mixed.ReturnType(), "string")

	dates := expression.NewCaseStatement().
		When(expression.Raw("a = 1")).Then(types.NewDate(2024, time.January, 1)).
		Else(types.NewDate(2025, time.January, 1))
	testutil.AssertEqual(t, dates.ReturnType(), "date")

	mixed.SetReturnType("text")
	testutil.AssertEqual(t, mixed.ReturnType(), "text")
}

func TestCaseStatementOrdering(t *testing.T) {
	t.Parallel()
	testutil.AssertPanicIs(t, expression.ErrLogic, func() {
		expression.NewCaseStatement().Then(1)
	})
	testutil.AssertPanicIs(t, expression.ErrLogic, func() {
		expression.NewCaseStatement().When("a").When("b")
	})
	testutil.AssertPanicIs(t, expression.ErrLogic, func() {
		expression.NewCaseStatement().When("a").Else(1)
	})
	testutil.AssertPanicIs(t, expression.ErrLogic, func() {
		expression.NewCaseStatement().When("a").SQL(binder.New())
	})
	testutil.AssertPanicIs(t, expression.ErrLogic, func() {
		expression.NewCaseStatement().Else(1).SQL(binder.New())
	})
}

func TestCaseStatementArgumentValidation(t *testing.T) {
	t.Parallel()
	testutil.AssertPanicIs(t, expression.ErrInvalidArgument, func() {
		expression.NewCaseStatement().Else([]int{1})
	})
	testutil.AssertPanicIs(t, expression.ErrInvalidArgument, func() {
		expression.NewCaseStatement().When(expression.Conditions{}).Then(1)
	})
	testutil.AssertPanicIs(t, expression.ErrInvalidArgument, func() {
		expression.NewCaseStatement().When(expression.Pairs("a", 1), "integer").Then(1)
	})
	testutil.AssertPanicIs(t, expression.ErrInvalidArgument, func() {
		expression.NewCaseStatement().When("a", map[string]string{}).Then(1)
	})
	testutil.AssertPanicIs(t, expression.ErrInvalidArgument, func() {
		expression.NewCaseStatement().Clause("then")
	})
}

func TestCaseStatementCloneIsIndependent(t *testing.T) {
	t.Parallel()
	c := expression.NewCaseStatement().When(expression.Pairs("a", 1)).Then(1)
	clone := c.Clone().(*expression.CaseStatementExpression)
	clone.When(expression.Pairs("b", 2)).Then(2)

	testutil.AssertSQL(t, c, "CASE WHEN a = :c0 THEN :c1 ELSE NULL END")
	testutil.AssertSQL(t, clone, "CASE WHEN a = :c0 THEN :c1 WHEN b = :c2 THEN :c3 ELSE NULL END")
}

func TestCaseStatementTraverse(t *testing.T) {
	t.Parallel()
	c := expression.NewCaseStatement().When(expression.Pairs("a", 1)).Then(expression.NewIdentifier("x"))
	count := 0
	c.Traverse(func(expression.Expression) { count++ })
	// when-then, its query expression, the comparison and the identifier
	testutil.AssertEqual(t, count, 4)
}

// --- Legacy CASE ---

func TestCaseExpression(t *testing.T) {
	t.Parallel()
	c := expression.NewCaseExpression(
		[]expression.Expression{
			expression.NewAnd(expression.Pairs("a", 1)),
			expression.NewAnd(expression.Pairs("b", 2)),
		},
		[]any{"x", "y", "z"},
		nil,
	)
	b := testutil.AssertSQL(t, c, "CASE WHEN a = :c0 THEN :param1 WHEN b = :c2 THEN :param3 ELSE :param4 END")
	testutil.AssertBindings(t, b, 1, "x", 2, "y", "z")
}

func TestCaseExpressionDefaults(t *testing.T) {
	t.Parallel()
	c := expression.NewCaseExpression([]expression.Expression{expression.Raw("a > 1")}, nil, nil)
	b := testutil.AssertSQL(t, c, "CASE WHEN a > 1 THEN :param0 END")
	testutil.AssertBindings(t, b, 1)
}

func TestCaseExpressionMarkersAndAdd(t *testing.T) {
	t.Parallel()
	c := expression.NewCaseExpression(
		[]expression.Expression{expression.Raw("a > 1")},
		expression.Conditions{{Key: "col", Value: expression.Literal}},
		nil,
	)
	c.Add([]expression.Expression{expression.Raw("b > 1")}, []any{5}, []string{"integer"})
	c.ElseValue(expression.NewIdentifier("other"), "")
	b := testutil.AssertSQL(t, c, "CASE WHEN a > 1 THEN col WHEN b > 1 THEN :param0 ELSE other END")
	testutil.AssertEqual(t, b.Bindings()[0].Type, "integer")
}

func TestQueryExpressionAddCase(t *testing.T) {
	t.Parallel()
	q := expression.NewAnd(nil).AddCase([]expression.Expression{expression.Raw("a > 1")}, []any{1, 0}, nil)
	testutil.AssertSQL(t, q, "CASE WHEN a > 1 THEN :param0 ELSE :param1 END")
}
