package query_test

import (
	"errors"
	"testing"

	"github.com/bawdo/sqlexpr/expression"
	"github.com/bawdo/sqlexpr/internal/testutil"
	"github.com/bawdo/sqlexpr/query"
	"github.com/bawdo/sqlexpr/types"
)

// --- Basic SELECT ---

func TestSelectBasic(t *testing.T) {
	t.Parallel()
	q := query.NewSelect([]string{"id", "name"}).
		From("users").
		Where(expression.Pairs("active", true)).
		OrderDesc("id").
		Limit(10).
		Offset(20)
	b := testutil.AssertSQL(t, q, "SELECT id, name FROM users WHERE active = :c0 ORDER BY id DESC LIMIT 10 OFFSET 20")
	testutil.AssertBindings(t, b, true)
}

func TestSelectStar(t *testing.T) {
	t.Parallel()
	testutil.AssertSQL(t, query.NewSelect().From("users"), "SELECT * FROM users")
}

func TestSelectAliasedTables(t *testing.T) {
	t.Parallel()
	q := query.NewSelect("u.id").From(map[string]string{"u": "users", "a": "accounts"})
	testutil.AssertSQL(t, q, "SELECT u.id FROM accounts a, users u")

	q.SetFrom("people")
	testutil.AssertSQL(t, q, "SELECT u.id FROM people")
}

func TestSelectFromSubquery(t *testing.T) {
	t.Parallel()
	inner := query.NewSelect("id").From("users").Where(expression.Pairs("age >", 18))
	q := query.NewSelect("*").From(expression.Conditions{{Key: "adults", Value: inner}})
	b := testutil.AssertSQL(t, q, "SELECT * FROM (SELECT id FROM users WHERE age > :c0) adults")
	testutil.AssertBindings(t, b, 18)
}

func TestSelectRejectsBadTables(t *testing.T) {
	t.Parallel()
	testutil.AssertPanicIs(t, expression.ErrInvalidArgument, func() {
		query.NewSelect().From(42)
	})
	testutil.AssertPanicIs(t, expression.ErrInvalidArgument, func() {
		query.NewSelect().Join("x", 42, nil)
	})
}

func TestSelectDistinctAndModifiers(t *testing.T) {
	t.Parallel()
	q := query.NewSelect("name").Distinct().Modifier("SQL_NO_CACHE").From("users")
	testutil.AssertSQL(t, q, "SELECT SQL_NO_CACHE DISTINCT name FROM users")
	testutil.AssertEqual(t, q.Clause("distinct").(bool), true)

	on := query.NewSelect([]string{"user_id", "created"}).Distinct("user_id").From("posts")
	testutil.AssertSQL(t, on, "SELECT DISTINCT ON (user_id) user_id, created FROM posts")
}

func TestSelectAliasedFields(t *testing.T) {
	t.Parallel()
	q := query.NewSelect()
	q.Select(expression.Conditions{
		{Value: "id"},
		{Key: "total", Value: q.Func().Count("*")},
	}).From("orders")
	testutil.AssertSQL(t, q, "SELECT id, COUNT(*) AS total FROM orders")

	q.SetSelect("id")
	testutil.AssertSQL(t, q, "SELECT id FROM orders")
}

// --- Joins ---

func TestSelectJoins(t *testing.T) {
	t.Parallel()
	q := query.NewSelect("u.id").
		From(map[string]string{"u": "users"}).
		LeftJoin("p", "posts", "p.user_id = u.id").
		Join("c", "comments", nil)
	testutil.AssertSQL(t, q,
		"SELECT u.id FROM users u LEFT JOIN posts p ON p.user_id = u.id INNER JOIN comments c ON 1 = 1")
}

func TestSelectJoinWithTypedConditions(t *testing.T) {
	t.Parallel()
	q := query.NewSelect("*").From("users").
		RightJoin("o", "orders", expression.Pairs("o.total >", "10"), map[string]string{"o.total": "float"})
	b := testutil.AssertSQL(t, q, "SELECT * FROM users RIGHT JOIN orders o ON o.total > :c0")
	testutil.AssertEqual(t, b.Bindings()[0].Type, "float")
}

func TestSelectJoinSubqueryAndRemove(t *testing.T) {
	t.Parallel()
	latest := query.NewSelect("user_id").From("logins")
	q := query.NewSelect("*").From("users").
		InnerJoin("l", latest, "l.user_id = users.id").
		LeftJoin("x", "extras", nil)
	testutil.AssertSQL(t, q,
		"SELECT * FROM users INNER JOIN (SELECT user_id FROM logins) l ON l.user_id = users.id LEFT JOIN extras x ON 1 = 1")

	q.RemoveJoin("x")
	testutil.AssertEqual(t, len(q.Clause("join").([]*query.Join)), 1)
}

// --- WHERE ---

func TestSelectWhereConjugation(t *testing.T) {
	t.Parallel()
	q := query.NewSelect().From("t").
		Where(expression.Pairs("a", 1)).
		AndWhere(expression.Pairs("b", 2)).
		OrWhere(expression.Pairs("c", 3))
	b := testutil.AssertSQL(t, q, "SELECT * FROM t WHERE ((a = :c0 AND b = :c1) OR c = :c2)")
	testutil.AssertBindings(t, b, 1, 2, 3)
}

func TestSelectOrWhereOnEmptyTree(t *testing.T) {
	t.Parallel()
	q := query.NewSelect().From("t").OrWhere(expression.Pairs("a", 1))
	testutil.AssertSQL(t, q, "SELECT * FROM t WHERE a = :c0")
}

func TestSelectWhereIgnoresEmptyConditions(t *testing.T) {
	t.Parallel()
	q := query.NewSelect().From("t").Where(nil).Where("").Where(expression.Conditions{})
	testutil.AssertSQL(t, q, "SELECT * FROM t")
}

func TestSelectWhereTypesAreLocal(t *testing.T) {
	t.Parallel()
	q := query.NewSelect().From("t").
		Where(expression.Pairs("id", "1"), map[string]string{"id": "integer"})
	b := testutil.AssertSQL(t, q, "SELECT * FROM t WHERE id = :c0")
	testutil.AssertEqual(t, b.Bindings()[0].Type, "integer")
	testutil.AssertEqual(t, q.TypeMap().Type("id"), "")
}

func TestSelectStatementTypeMap(t *testing.T) {
	t.Parallel()
	q := query.NewSelect().SetTypeMap(types.NewTypeMap(map[string]string{"created": "datetime"})).
		From("t").
		Where(expression.Pairs("created >", "2024-01-01"))
	b := testutil.AssertSQL(t, q, "SELECT * FROM t WHERE created > :c0")
	testutil.AssertEqual(t, b.Bindings()[0].Type, "datetime")
}

func TestSelectWhereClosure(t *testing.T) {
	t.Parallel()
	q := query.NewSelect().From("t").Where(func(e *expression.QueryExpression) *expression.QueryExpression {
		return e.Or(expression.Pairs("a", 1, "b", 2))
	})
	testutil.AssertSQL(t, q, "SELECT * FROM t WHERE (a = :c0 OR b = :c1)")
}

func TestSelectSetWhere(t *testing.T) {
	t.Parallel()
	q := query.NewSelect().From("t").Where(expression.Pairs("a", 1)).SetWhere(expression.Pairs("b", 2))
	b := testutil.AssertSQL(t, q, "SELECT * FROM t WHERE b = :c0")
	testutil.AssertBindings(t, b, 2)
}

func TestSelectWhereNull(t *testing.T) {
	t.Parallel()
	q := query.NewSelect().From("t").WhereNull("deleted").WhereNotNull("email")
	testutil.AssertSQL(t, q, "SELECT * FROM t WHERE ((deleted) IS NULL AND (email) IS NOT NULL)")
}

func TestSelectWhereInList(t *testing.T) {
	t.Parallel()
	q := query.NewSelect().From("t").WhereInList("id", []any{1, 2}, false)
	b := testutil.AssertSQL(t, q, "SELECT * FROM t WHERE id IN (:c0,:c1)")
	testutil.AssertBindings(t, b, 1, 2)

	empty := query.NewSelect().From("t").WhereInList("id", nil, true)
	testutil.AssertSQL(t, empty, "SELECT * FROM t WHERE 1=0")

	skipped := query.NewSelect().From("t").WhereNotInList("id", nil, true)
	testutil.AssertSQL(t, skipped, "SELECT * FROM t")

	testutil.AssertPanicIs(t, expression.ErrEmptyValueList, func() {
		query.NewSelect().WhereInList("id", nil, false)
	})
	testutil.AssertPanicIs(t, expression.ErrEmptyValueList, func() {
		query.NewSelect().WhereNotInList("id", []any{}, false)
	})
}

func TestSelectWhereSubquery(t *testing.T) {
	t.Parallel()
	sub := query.NewSelect("user_id").From("bans")
	q := query.NewSelect().From("users")
	q.Where(q.NewExpr().NotIn("id", sub))
	testutil.AssertSQL(t, q, "SELECT * FROM users WHERE id NOT IN (SELECT user_id FROM bans)")
}

// --- GROUP BY, HAVING, WINDOW ---

func TestSelectGroupHaving(t *testing.T) {
	t.Parallel()
	q := query.NewSelect()
	q.Select(expression.Conditions{{Value: "user_id"}, {Key: "n", Value: q.Func().Count("*")}}).
		From("orders").
		Group("user_id").
		Having(expression.Pairs("COUNT(*) >", 5)).
		AndHaving("SUM(total) > 100")
	b := testutil.AssertSQL(t, q,
		"SELECT user_id, COUNT(*) AS n FROM orders GROUP BY user_id HAVING (COUNT(*) > :c0 AND SUM(total) > 100)")
	testutil.AssertBindings(t, b, 5)
}

func TestSelectGroupForms(t *testing.T) {
	t.Parallel()
	q := query.NewSelect().From("t").Group([]string{"a", "b"}).Group(expression.Func().Lower("c"))
	testutil.AssertSQL(t, q, "SELECT * FROM t GROUP BY a, b, LOWER(c)")

	q.SetGroup([]any{"d"})
	testutil.AssertSQL(t, q, "SELECT * FROM t GROUP BY d")

	testutil.AssertPanicIs(t, expression.ErrInvalidArgument, func() {
		query.NewSelect().Group([]any{1})
	})
	testutil.AssertPanicIs(t, expression.ErrInvalidArgument, func() {
		query.NewSelect().Group(3.5)
	})
}

func TestSelectNamedWindow(t *testing.T) {
	t.Parallel()
	q := query.NewSelect().
		From("orders").
		Window("w", expression.NewWindow("").Partition("user_id")).
		Window("w2", func(w *expression.WindowExpression) *expression.WindowExpression {
			return w.Order("created")
		})
	q.Select(expression.Conditions{{Key: "running", Value: q.Func().Sum("amount").Over("w")}})
	testutil.AssertSQL(t, q,
		"SELECT SUM(amount) OVER w AS running FROM orders WINDOW w AS (PARTITION BY user_id), w2 AS (ORDER BY created)")

	testutil.AssertPanicIs(t, expression.ErrInvalidArgument, func() {
		query.NewSelect().Window("w", "PARTITION BY a")
	})
}

// --- ORDER, LIMIT, paging ---

func TestSelectOrder(t *testing.T) {
	t.Parallel()
	q := query.NewSelect().From("t").
		Order(expression.Pairs("name", "ASC")).
		OrderAsc("id").
		OrderDesc(expression.Func().Lower("title"))
	testutil.AssertSQL(t, q, "SELECT * FROM t ORDER BY name ASC, id ASC, LOWER(title) DESC")

	q.SetOrder("created")
	testutil.AssertSQL(t, q, "SELECT * FROM t ORDER BY created")
}

func TestSelectPage(t *testing.T) {
	t.Parallel()
	q := query.NewSelect().From("t").Page(3, 25)
	testutil.AssertSQL(t, q, "SELECT * FROM t LIMIT 25 OFFSET 50")
	testutil.AssertEqual(t, *q.Clause("limit").(*int), 25)
}

func TestSelectPagingValidation(t *testing.T) {
	t.Parallel()
	testutil.AssertPanicIs(t, expression.ErrInvalidArgument, func() { query.NewSelect().Page(0, 10) })
	testutil.AssertPanicIs(t, expression.ErrInvalidArgument, func() { query.NewSelect().Limit(-1) })
	testutil.AssertPanicIs(t, expression.ErrInvalidArgument, func() { query.NewSelect().Offset(-1) })
}

// --- UNION, WITH, epilog ---

func TestSelectUnion(t *testing.T) {
	t.Parallel()
	q := query.NewSelect("id").From("a").Where(expression.Pairs("x", 1)).
		Union(query.NewSelect("id").From("b").Where(expression.Pairs("y", 2))).
		UnionAll(query.NewSelect("id").From("c"))
	b := testutil.AssertSQL(t, q,
		"SELECT id FROM a WHERE x = :c0 UNION (SELECT id FROM b WHERE y = :c1) UNION ALL (SELECT id FROM c)")
	testutil.AssertBindings(t, b, 1, 2)
}

func TestSelectWith(t *testing.T) {
	t.Parallel()
	recent := query.NewSelect("id").From("posts").Where(expression.Pairs("age <", 7))
	q := query.NewSelect().
		With(expression.NewCTE("recent", recent)).
		From("recent")
	b := testutil.AssertSQL(t, q, "WITH recent AS (SELECT id FROM posts WHERE age < :c0) SELECT * FROM recent")
	testutil.AssertBindings(t, b, 7)
}

func TestSelectEpilog(t *testing.T) {
	t.Parallel()
	q := query.NewSelect().From("t").Epilog("FOR UPDATE")
	testutil.AssertSQL(t, q, "SELECT * FROM t FOR UPDATE")

	q.Epilog(expression.Raw("LOCK IN SHARE MODE"))
	testutil.AssertSQL(t, q, "SELECT * FROM t LOCK IN SHARE MODE")

	testutil.AssertPanicIs(t, expression.ErrInvalidArgument, func() { q.Epilog(1) })
}

// --- Subqueries ---

func TestSelectAsOperand(t *testing.T) {
	t.Parallel()
	sub := query.NewSelect("MAX(total)").From("orders")
	q := query.NewSelect().From("orders")
	q.Where(q.NewExpr().Eq("total", sub))
	testutil.AssertSQL(t, q, "SELECT * FROM orders WHERE total = (SELECT MAX(total) FROM orders)")
	testutil.AssertEqual(t, sub.StatementType(), "select")
}

func TestSelectPlaceholdersAreUniqueAcrossSubqueries(t *testing.T) {
	t.Parallel()
	sub := query.NewSelect("id").From("b").Where(expression.Pairs("x", 1))
	q := query.NewSelect().From("a").Where(expression.Pairs("y", 2))
	q.Where(q.NewExpr().In("id", sub))
	b := testutil.AssertSQL(t, q, "SELECT * FROM a WHERE (y = :c0 AND id IN (SELECT id FROM b WHERE x = :c1))")
	testutil.AssertEqual(t, b.Len(), 2)
}

// --- Clause, Clone, Traverse ---

func TestSelectClause(t *testing.T) {
	t.Parallel()
	q := query.NewSelect("id").From("users").Where("a = 1").Window("w", expression.NewWindow(""))
	testutil.AssertEqual(t, q.Clause("select").(*expression.SelectExpression).Count(), 1)
	testutil.AssertEqual(t, len(q.Clause("from").(expression.Conditions)), 1)
	testutil.AssertEqual(t, q.Clause("where").(*expression.QueryExpression).Count(), 1)
	testutil.AssertEqual(t, q.Clause("having") == (*expression.QueryExpression)(nil), true)
	testutil.AssertEqual(t, len(q.Clause("window").(map[string]*expression.WindowExpression)), 1)
	testutil.AssertEqual(t, q.Clause("limit") == (*int)(nil), true)

	testutil.AssertPanicIs(t, expression.ErrInvalidArgument, func() { q.Clause("fields") })
}

func TestSelectCloneIsIndependent(t *testing.T) {
	t.Parallel()
	q := query.NewSelect("id").From("t").Where(expression.Pairs("a", 1)).LeftJoin("j", "x", "j.id = t.id")
	clone := q.Clone().(*query.SelectQuery)
	clone.Where(expression.Pairs("b", 2)).Limit(1).Select("name")
	clone.Clause("join").([]*query.Join)[0].Conditions.Add("j.live = 1")

	testutil.AssertSQL(t, q, "SELECT id FROM t LEFT JOIN x j ON j.id = t.id WHERE a = :c0")
	testutil.AssertSQL(t, clone,
		"SELECT id, name FROM t LEFT JOIN x j ON (j.id = t.id AND j.live = 1) WHERE (a = :c0 AND b = :c1) LIMIT 1")
}

func TestSelectTraverse(t *testing.T) {
	t.Parallel()
	q := query.NewSelect("id").From("t").Where(expression.Pairs("a", 1))
	var comparisons int
	q.Traverse(func(e expression.Expression) {
		if _, ok := e.(*expression.ComparisonExpression); ok {
			comparisons++
		}
	})
	testutil.AssertEqual(t, comparisons, 1)
}

// --- ToSQL and transformers ---

type suffixer struct {
	err error
}

func (s suffixer) TransformSelect(q *query.SelectQuery) (*query.SelectQuery, error) {
	if s.err != nil {
		return nil, s.err
	}
	return q.Where("tenant_id = 7"), nil
}

func (s suffixer) TransformInsert(q *query.InsertQuery) (*query.InsertQuery, error) {
	return q.Epilog("RETURNING id"), s.err
}

func (s suffixer) TransformUpdate(q *query.UpdateQuery) (*query.UpdateQuery, error) {
	return q.Where("tenant_id = 7"), s.err
}

func (s suffixer) TransformDelete(q *query.DeleteQuery) (*query.DeleteQuery, error) {
	return q.Where("tenant_id = 7"), s.err
}

func TestSelectToSQLAppliesTransformers(t *testing.T) {
	t.Parallel()
	q := query.NewSelect().From("t").Where(expression.Pairs("a", 1)).Use(suffixer{})
	sql, b, err := q.ToSQL()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, sql, "SELECT * FROM t WHERE (a = :c0 AND tenant_id = 7)")
	testutil.AssertBindings(t, b, 1)

	// the receiver is left untouched
	testutil.AssertSQL(t, q, "SELECT * FROM t WHERE a = :c0")
	testutil.AssertEqual(t, q.String(), "SELECT * FROM t WHERE (a = :c0 AND tenant_id = 7)")
}

func TestSelectToSQLTransformerError(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	_, _, err := query.NewSelect().From("t").Use(suffixer{err: boom}).ToSQL()
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestSelectToSQLRecoversMisuse(t *testing.T) {
	t.Parallel()
	q := query.NewSelect().From("t").Where(expression.Pairs("a IN", []any{}))
	_, _, err := q.ToSQL()
	testutil.AssertError(t, err)
	if !errors.Is(err, expression.ErrEmptyValueList) {
		t.Errorf("expected ErrEmptyValueList, got %v", err)
	}
}
