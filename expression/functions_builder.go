package expression

import (
	"strconv"
)

// FunctionsBuilder creates common SQL function calls.
type FunctionsBuilder struct{}

// Func returns a FunctionsBuilder.
func Func() FunctionsBuilder { return FunctionsBuilder{} }

// literalParam turns a column name into a literal argument and an
// expression into a positional one.
func literalParam(expr any) any {
	switch x := expr.(type) {
	case string:
		return Conditions{{Key: x, Value: Literal}}
	case Expression:
		return []any{x}
	}
	return expr
}

// Aggregate creates any aggregate call. An empty returnType means "float".
func (FunctionsBuilder) Aggregate(name string, params any, argTypes []string, returnType string) *AggregateExpression {
	return NewAggregate(name, params, positionalTypes(argTypes), returnType)
}

// Function creates any function call.
func (FunctionsBuilder) Function(name string, params any, argTypes []string, returnType string) *FunctionExpression {
	return NewFunction(name, params, positionalTypes(argTypes), returnType)
}

// Sum returns SUM(expr), typed integer when the argument is.
func (f FunctionsBuilder) Sum(expr any, argTypes ...string) *AggregateExpression {
	ret := "float"
	if argType(argTypes) == "integer" {
		ret = "integer"
	}
	return f.Aggregate("SUM", literalParam(expr), argTypes, ret)
}

// Avg returns AVG(expr).
func (f FunctionsBuilder) Avg(expr any, argTypes ...string) *AggregateExpression {
	return f.Aggregate("AVG", literalParam(expr), argTypes, "float")
}

// Max returns MAX(expr), typed like its argument.
func (f FunctionsBuilder) Max(expr any, argTypes ...string) *AggregateExpression {
	return f.Aggregate("MAX", literalParam(expr), argTypes, orDefault(argType(argTypes), "float"))
}

// Min returns MIN(expr), typed like its argument.
func (f FunctionsBuilder) Min(expr any, argTypes ...string) *AggregateExpression {
	return f.Aggregate("MIN", literalParam(expr), argTypes, orDefault(argType(argTypes), "float"))
}

// Count returns COUNT(expr).
func (f FunctionsBuilder) Count(expr any, argTypes ...string) *AggregateExpression {
	return f.Aggregate("COUNT", literalParam(expr), argTypes, "integer")
}

// Concat returns CONCAT(args...). String arguments are bound as values.
func (f FunctionsBuilder) Concat(args []any, argTypes ...string) *FunctionExpression {
	return f.Function("CONCAT", args, argTypes, "string")
}

// Coalesce returns COALESCE(args...), typed like its first argument.
func (f FunctionsBuilder) Coalesce(args []any, argTypes ...string) *FunctionExpression {
	return f.Function("COALESCE", args, argTypes, orDefault(argType(argTypes), "string"))
}

// Lower returns LOWER(expr).
func (f FunctionsBuilder) Lower(expr any) *FunctionExpression {
	return f.Function("LOWER", literalParam(expr), nil, "string")
}

// Upper returns UPPER(expr).
func (f FunctionsBuilder) Upper(expr any) *FunctionExpression {
	return f.Function("UPPER", literalParam(expr), nil, "string")
}

// Cast returns CAST(expr AS typ).
func (f FunctionsBuilder) Cast(expr any, typ string) *FunctionExpression {
	fn := f.Function("CAST", literalParam(expr), nil, "")
	fn.SetConjunction(" AS").Add(Conditions{{Key: typ, Value: Literal}})
	return fn
}

// DateDiff returns DATEDIFF(args...).
func (f FunctionsBuilder) DateDiff(args []any, argTypes ...string) *FunctionExpression {
	return f.Function("DATEDIFF", args, argTypes, "integer")
}

// Extract returns EXTRACT(part FROM expr).
func (f FunctionsBuilder) Extract(part string, expr any, argTypes ...string) *FunctionExpression {
	fn := f.Function("EXTRACT", literalParam(expr), argTypes, "integer")
	fn.SetConjunction(" FROM").Prepend(Conditions{{Key: part, Value: Literal}}, nil)
	return fn
}

// DateAdd returns DATE_ADD(expr, INTERVAL value unit).
func (f FunctionsBuilder) DateAdd(expr any, value int, unit string, argTypes ...string) *FunctionExpression {
	fn := f.Function("DATE_ADD", literalParam(expr), argTypes, "datetime")
	fn.SetConjunction(", INTERVAL").Add(Conditions{{Key: strconv.Itoa(value) + " " + unit, Value: Literal}})
	return fn
}

// DayOfWeek returns DAYOFWEEK(expr).
func (f FunctionsBuilder) DayOfWeek(expr any, argTypes ...string) *FunctionExpression {
	return f.Function("DAYOFWEEK", literalParam(expr), argTypes, "integer")
}

// Rand returns RAND().
func (f FunctionsBuilder) Rand() *FunctionExpression {
	return f.Function("RAND", nil, nil, "float")
}

// Now returns the current "datetime" (NOW()), "date" (CURRENT_DATE()) or
// "time" (CURRENT_TIME()). Other kinds panic with ErrInvalidArgument.
func (f FunctionsBuilder) Now(kind ...string) *FunctionExpression {
	switch k := orDefault(argType(kind), "datetime"); k {
	case "datetime":
		return f.Function("NOW", nil, nil, "datetime")
	case "date":
		return f.Function("CURRENT_DATE", nil, nil, "date")
	case "time":
		return f.Function("CURRENT_TIME", nil, nil, "time")
	default:
		raise(ErrInvalidArgument, "invalid argument for Now(): %q", k)
	}
	return nil
}

// RowNumber returns ROW_NUMBER() OVER ().
func (f FunctionsBuilder) RowNumber() *AggregateExpression {
	return f.Aggregate("ROW_NUMBER", nil, nil, "integer").Over()
}

// Rank returns RANK() OVER ().
func (f FunctionsBuilder) Rank() *AggregateExpression {
	return f.Aggregate("RANK", nil, nil, "integer").Over()
}

// DenseRank returns DENSE_RANK() OVER ().
func (f FunctionsBuilder) DenseRank() *AggregateExpression {
	return f.Aggregate("DENSE_RANK", nil, nil, "integer").Over()
}

func (f FunctionsBuilder) offsetWindow(name string, expr any, offset int, def any, typ string) *AggregateExpression {
	var params Conditions
	switch p := literalParam(expr).(type) {
	case Conditions:
		params = append(params, p...)
	case []any:
		params = append(params, List(p...)...)
	}
	params = append(params, Cond{Key: strconv.Itoa(offset), Value: Literal})
	var argTypes []string
	if def != nil {
		params = append(params, Cond{Value: def})
		if typ != "" {
			argTypes = []string{typ, "integer", typ}
		}
	}
	return f.Aggregate(name, params, argTypes, orDefault(typ, "float")).Over()
}

// Lag returns LAG(expr, offset[, default]) OVER (). def may be nil.
func (f FunctionsBuilder) Lag(expr any, offset int, def any, typ string) *AggregateExpression {
	return f.offsetWindow("LAG", expr, offset, def, typ)
}

// Lead returns LEAD(expr, offset[, default]) OVER (). def may be nil.
func (f FunctionsBuilder) Lead(expr any, offset int, def any, typ string) *AggregateExpression {
	return f.offsetWindow("LEAD", expr, offset, def, typ)
}

// PercentileCont returns PERCENTILE_CONT(fraction) WITHIN GROUP
// (ORDER BY order).
func (f FunctionsBuilder) PercentileCont(fraction float64, order any) *GroupedExpression {
	return NewGrouped("PERCENTILE_CONT", []any{fraction}, map[string]string{"0": "float"}, "float").Order(order)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
