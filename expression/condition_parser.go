package expression

import (
	"strings"
)

// operatorKind classifies the operator parsed from a condition key.
type operatorKind int

const (
	opCompare operatorKind = iota
	opIs
	opIsNot
	opIn
	opNotIn
)

// operatorTable maps the normalized operators that need special handling.
// Any other operator is rendered as a plain comparison.
var operatorTable = map[string]operatorKind{
	"IS":     opIs,
	"IS NOT": opIsNot,
	"IN":     opIn,
	"NOT IN": opNotIn,
}

// ParsedCondition is a condition key split into its field and operator.
type ParsedCondition struct {
	Field    string
	Operator string
	kind     operatorKind
}

// ParseCondition splits a condition key such as "age >=" or
// "name NOT LIKE" into field and operator:
//
//   - a key without whitespace is a field compared with "=";
//   - a key with two words is "field operator";
//   - with three or more words the operator is the last word, or the last two
//     words when they read "IS NOT" or "NOT <word>"; everything before it is
//     the field, so field expressions may contain spaces.
//
// Operators are upper-cased. Runs of whitespace count as a single separator.
func ParseCondition(key string) ParsedCondition {
	words := strings.Fields(key)
	var field, op string
	switch len(words) {
	case 0:
		op = "="
	case 1:
		field, op = words[0], "="
	case 2:
		field, op = words[0], words[1]
	default:
		n := len(words)
		last, second := strings.ToUpper(words[n-1]), strings.ToUpper(words[n-2])
		if (second == "IS" && last == "NOT") || second == "NOT" {
			field = strings.Join(words[:n-2], " ")
			op = words[n-2] + " " + words[n-1]
		} else {
			field = strings.Join(words[:n-1], " ")
			op = words[n-1]
		}
	}
	op = strings.ToUpper(op)
	return ParsedCondition{Field: field, Operator: op, kind: operatorTable[op]}
}

// Multiple reports whether the operator compares against a list of values.
func (p ParsedCondition) Multiple() bool {
	return p.kind == opIn || p.kind == opNotIn
}
