package expression

import (
	"strings"

	"github.com/bawdo/sqlexpr/binder"
)

// CaseExpression is the list-based CASE builder: conditions are paired with
// values by position, and one extra trailing value becomes the ELSE result.
// New code should prefer CaseStatementExpression.
type CaseExpression struct {
	conditions []Expression
	values     []any // string (literal), Expression or boundParam
	elseValue  any   // nil when no ELSE is set
}

// NewCaseExpression creates a CASE expression. values is a []any of
// positional results or Conditions whose keyed entries may use the Literal
// and Identifier markers. valueTypes are matched to values by position.
func NewCaseExpression(conditions []Expression, values any, valueTypes []string) *CaseExpression {
	c := &CaseExpression{}
	list := caseValues(values)
	if len(conditions) > 0 {
		c.Add(conditions, list, valueTypes)
	}
	if len(list) > len(conditions) {
		last := len(list) - 1
		typ := ""
		if last < len(valueTypes) {
			typ = valueTypes[last]
		}
		c.ElseValue(list[last].Value, typ)
	}
	return c
}

func caseValues(values any) Conditions {
	if isNil(values) {
		return nil
	}
	if list, ok := toConditions(values); ok {
		return list
	}
	return List(values)
}

// Add pairs more conditions with values. Nil conditions are skipped; a
// missing value defaults to 1.
func (c *CaseExpression) Add(conditions []Expression, values any, valueTypes []string) *CaseExpression {
	list := caseValues(values)
	for k, cond := range conditions {
		if isNil(cond) {
			continue
		}
		c.conditions = append(c.conditions, cond)
		entry := Cond{Value: 1}
		if k < len(list) {
			entry = list[k]
		}
		if entry.Key != "" {
			switch entry.Value {
			case Literal:
				c.values = append(c.values, entry.Key)
				continue
			case Identifier:
				c.values = append(c.values, NewIdentifier(entry.Key))
				continue
			}
		}
		typ := ""
		if k < len(valueTypes) {
			typ = valueTypes[k]
		}
		v := entry.Value
		if _, ok := v.(Expression); !ok && typ != "" {
			v = castToExpression(v, typ)
		}
		if e, ok := v.(Expression); ok {
			c.values = append(c.values, e)
			continue
		}
		c.values = append(c.values, boundParam{value: v, typ: typ})
	}
	return c
}

// ElseValue sets the ELSE result.
func (c *CaseExpression) ElseValue(value any, typ string) *CaseExpression {
	if _, ok := value.(Expression); !ok && value != nil {
		value = castToExpression(value, typ)
	}
	if e, ok := value.(Expression); ok {
		c.elseValue = e
		return c
	}
	c.elseValue = boundParam{value: value, typ: typ}
	return c
}

func (c *CaseExpression) compile(part any, b *binder.ValueBinder) string {
	if p, ok := part.(boundParam); ok {
		return bindValue(b, "param", p.value, p.typ)
	}
	return operand(part, b)
}

func (c *CaseExpression) SQL(b *binder.ValueBinder) string {
	parts := []string{"CASE"}
	for k, cond := range c.conditions {
		parts = append(parts, "WHEN "+c.compile(cond, b)+" THEN "+c.compile(c.values[k], b))
	}
	if c.elseValue != nil {
		parts = append(parts, "ELSE", c.compile(c.elseValue, b))
	}
	parts = append(parts, "END")
	return strings.Join(parts, " ")
}

func (c *CaseExpression) Traverse(visit func(Expression)) {
	for k, cond := range c.conditions {
		walk(cond, visit)
		walk(c.values[k], visit)
	}
	walk(c.elseValue, visit)
}

func (c *CaseExpression) Clone() Expression {
	n := &CaseExpression{
		conditions: make([]Expression, len(c.conditions)),
		values:     cloneSlice(c.values),
		elseValue:  cloneValue(c.elseValue),
	}
	for i, cond := range c.conditions {
		n.conditions[i] = cond.Clone()
	}
	return n
}
