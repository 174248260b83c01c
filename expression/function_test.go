package expression_test

import (
	"testing"

	"github.com/bawdo/sqlexpr/binder"
	"github.com/bawdo/sqlexpr/expression"
	"github.com/bawdo/sqlexpr/internal/testutil"
)

// --- Function calls ---

func TestFunctionMarkers(t *testing.T) {
	t.Parallel()
	f := expression.NewFunction("CONCAT", expression.Conditions{
		{Key: "name", Value: expression.Literal},
		{Value: " - "},
		{Key: "title", Value: expression.Identifier},
	}, nil, "")
	b := testutil.AssertSQL(t, f, "CONCAT(name, :param0, title)")
	testutil.AssertBindings(t, b, " - ")
	testutil.AssertEqual(t, f.ReturnType(), "string")
	testutil.AssertEqual(t, f.Count(), 4)
}

func TestFunctionPositionalTypes(t *testing.T) {
	t.Parallel()
	f := expression.NewFunction("ABS", []any{-5}, map[string]string{"0": "integer"}, "integer")
	b := testutil.AssertSQL(t, f, "ABS(:param0)")
	testutil.AssertEqual(t, b.Bindings()[0].Type, "integer")

	mixed := expression.NewFunction("F", expression.Conditions{
		{Key: "DAY", Value: expression.Literal},
		{Value: "5"},
	}, map[string]string{"0": "integer"}, "")
	b = testutil.AssertSQL(t, mixed, "F(DAY, :param0)")
	testutil.AssertEqual(t, b.Bindings()[0].Type, "integer")
}

func TestFunctionAddAndPrepend(t *testing.T) {
	t.Parallel()
	f := expression.NewFunction("F", []any{2}, nil, "")
	f.Add([]any{3})
	f.Prepend(expression.Conditions{{Key: "x", Value: expression.Literal}}, nil)
	b := testutil.AssertSQL(t, f, "F(x, :param0, :param1)")
	testutil.AssertBindings(t, b, 2, 3)
}

func TestFunctionNestedExpressions(t *testing.T) {
	t.Parallel()
	inner := expression.Func().Lower("name")
	f := expression.NewFunction("TRIM", inner, nil, "")
	testutil.AssertSQL(t, f, "TRIM(LOWER(name))")
}

func TestFunctionsBuilder(t *testing.T) {
	t.Parallel()
	fb := expression.Func()
	tests := []struct {
		name string
		expr expression.Expression
		want string
	}{
		{"sum", fb.Sum("amount"), "SUM(amount)"},
		{"avg", fb.Avg("amount"), "AVG(amount)"},
		{"min", fb.Min("price"), "MIN(price)"},
		{"max", fb.Max("price"), "MAX(price)"},
		{"count", fb.Count("*"), "COUNT(*)"},
		{"cast", fb.Cast("price", "DECIMAL(10,2)"), "CAST(price AS DECIMAL(10,2))"},
		{"extract", fb.Extract("YEAR", "created"), "EXTRACT(YEAR FROM created)"},
		{"date add", fb.DateAdd("created", 5, "DAY"), "DATE_ADD(created, INTERVAL 5 DAY)"},
		{"day of week", fb.DayOfWeek("created"), "DAYOFWEEK(created)"},
		{"rand", fb.Rand(), "RAND()"},
		{"now", fb.Now(), "NOW()"},
		{"current date", fb.Now("date"), "CURRENT_DATE()"},
		{"current time", fb.Now("time"), "CURRENT_TIME()"},
		{"upper", fb.Upper("name"), "UPPER(name)"},
		{"row number", fb.RowNumber(), "ROW_NUMBER() OVER ()"},
		{"rank", fb.Rank(), "RANK() OVER ()"},
		{"dense rank", fb.DenseRank(), "DENSE_RANK() OVER ()"},
		{"lag", fb.Lag("price", 1, nil, ""), "LAG(price, 1) OVER ()"},
		{"lead with default", fb.Lead("price", 2, 0, "float"), "LEAD(price, 2, :param0) OVER ()"},
		{"percentile", fb.PercentileCont(0.5, "price"), "PERCENTILE_CONT(:param0) WITHIN GROUP (ORDER BY price)"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			testutil.AssertSQL(t, tt.expr, tt.want)
		})
	}
}

func TestFunctionsBuilderReturnTypes(t *testing.T) {
	t.Parallel()
	fb := expression.Func()
	testutil.AssertEqual(t, fb.Sum("a").ReturnType(), "float")
	testutil.AssertEqual(t, fb.Sum("a", "integer").ReturnType(), "integer")
	testutil.AssertEqual(t, fb.Max("d", "date").ReturnType(), "date")
	testutil.AssertEqual(t, fb.Count("*").ReturnType(), "integer")
	testutil.AssertEqual(t, fb.Coalesce([]any{"a", 1}, "string", "integer").ReturnType(), "string")
	testutil.AssertEqual(t, fb.Now("date").ReturnType(), "date")
}

func TestFunctionsBuilderConcatBindsStrings(t *testing.T) {
	t.Parallel()
	f := expression.Func().Concat([]any{expression.NewIdentifier("first"), " ", expression.NewIdentifier("last")})
	b := testutil.AssertSQL(t, f, "CONCAT(first, :param0, last)")
	testutil.AssertBindings(t, b, " ")
}

func TestNowRejectsUnknownKind(t *testing.T) {
	t.Parallel()
	testutil.AssertPanicIs(t, expression.ErrInvalidArgument, func() {
		expression.Func().Now("century")
	})
}

// --- Aggregates and windows ---

func TestAggregateFilter(t *testing.T) {
	t.Parallel()
	a := expression.Func().Count("*").Filter(expression.Pairs("status", "active"))
	b := testutil.AssertSQL(t, a, "COUNT(*) FILTER (WHERE status = :c0)")
	testutil.AssertBindings(t, b, "active")
}

func TestAggregateWindow(t *testing.T) {
	t.Parallel()
	a := expression.Func().Sum("amount").
		Partition("user_id").
		Order(expression.Pairs("created", "desc")).
		Rows(nil, 0)
	testutil.AssertSQL(t, a,
		"SUM(amount) OVER (PARTITION BY user_id ORDER BY created DESC ROWS BETWEEN UNBOUNDED PRECEDING AND CURRENT ROW)")
	testutil.AssertEqual(t, a.Count(), 3)
}

func TestAggregateNamedWindow(t *testing.T) {
	t.Parallel()
	testutil.AssertSQL(t, expression.Func().Sum("amount").Over("w"), "SUM(amount) OVER w")

	extended := expression.Func().Sum("amount").Over("w").Order("id")
	testutil.AssertSQL(t, extended, "SUM(amount) OVER (w ORDER BY id)")

	named := expression.NewAggregate("ROW_NUMBER", nil, nil, "integer").Partition("dept").Order("salary").Over("w")
	testutil.AssertSQL(t, named, "ROW_NUMBER() OVER (w PARTITION BY dept ORDER BY salary)")
}

func TestAggregateCloneIsIndependent(t *testing.T) {
	t.Parallel()
	a := expression.Func().Sum("amount").Partition("a")
	c := a.Clone().(*expression.AggregateExpression)
	c.Window().Partition("b")

	testutil.AssertSQL(t, a, "SUM(amount) OVER (PARTITION BY a)")
	testutil.AssertSQL(t, c, "SUM(amount) OVER (PARTITION BY a, b)")
}

func TestWindowFrames(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		w    *expression.WindowExpression
		want string
	}{
		{"range", expression.NewWindow("").Range(5, nil), "RANGE BETWEEN 5 PRECEDING AND UNBOUNDED FOLLOWING"},
		{"start only", expression.NewWindow("").FrameStart(expression.RowsFrame, nil, expression.Preceding), "ROWS UNBOUNDED PRECEDING"},
		{"raw offset", expression.NewWindow("").Range("INTERVAL '1' DAY", 0), "RANGE BETWEEN INTERVAL '1' DAY PRECEDING AND CURRENT ROW"},
		{"exclude ties", expression.NewWindow("").Groups(1, 1).ExcludeTies(), "GROUPS BETWEEN 1 PRECEDING AND 1 FOLLOWING EXCLUDE TIES"},
		{"exclude current", expression.NewWindow("").Rows(0, 2).ExcludeCurrent(), "ROWS BETWEEN CURRENT ROW AND 2 FOLLOWING EXCLUDE CURRENT ROW"},
		{"both following", expression.NewWindow("").Frame("rows", 1, "following", 3, "following"), "ROWS BETWEEN 1 FOLLOWING AND 3 FOLLOWING"},
		{"named with partition", expression.NewWindow("base").Partition([]string{"a", "b"}), "base PARTITION BY a, b"},
		{"empty", expression.NewWindow(""), ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			testutil.AssertSQL(t, tt.w, tt.want)
		})
	}
}

func TestWindowFrameValidation(t *testing.T) {
	t.Parallel()
	testutil.AssertPanicIs(t, expression.ErrInvalidArgument, func() {
		expression.NewWindow("").Rows(-1, 0)
	})
	testutil.AssertPanicIs(t, expression.ErrInvalidArgument, func() {
		expression.NewWindow("").Frame("SLICES", 1, expression.Preceding, 1, expression.Following)
	})
	testutil.AssertPanicIs(t, expression.ErrInvalidArgument, func() {
		expression.NewWindow("").Frame(expression.RowsFrame, 1, "BEFORE", 1, expression.Following)
	})
}

func TestGroupedNeedsOrdering(t *testing.T) {
	t.Parallel()
	g := expression.NewGrouped("MODE", nil, nil, "")
	testutil.AssertPanicIs(t, expression.ErrLogic, func() {
		g.SQL(binder.New())
	})
}
