// Package opa provides a Transformer that enforces Open Policy Agent
// policies on SELECT statements by adding policy-derived WHERE conditions
// and masking columns.
//
// A [PolicyFunc] is called once per table referenced in the query (FROM and
// JOINs) and returns the conditions to add. Returning an error rejects the
// query entirely, which is how hard "access denied" rules are expressed.
//
//	policy := func(ref plugins.TableRef) (expression.Conditions, error) {
//	    switch ref.Name {
//	    case "secrets":
//	        return nil, errors.New("access denied")
//	    case "users":
//	        return expression.Pairs(ref.Column("tenant_id"), 42), nil
//	    }
//	    return nil, nil
//	}
//
//	q := query.NewSelect().From("users").Use(opa.New(policy))
//	// SELECT * FROM users WHERE users.tenant_id = :c0
//
// [NewFromServer] asks an OPA server instead: the policy is partially
// evaluated with the table's rows unknown and the residual is translated
// into conditions. Column masks published next to the policy rule replace
// masked columns with literals.
//
// OPA composes with any other Transformer; plugins registered with
// successive Use calls are applied in order.
package opa

import (
	"fmt"
	"strings"

	"github.com/bawdo/sqlexpr/expression"
	"github.com/bawdo/sqlexpr/internal/quoting"
	"github.com/bawdo/sqlexpr/plugins"
	"github.com/bawdo/sqlexpr/query"
)

// PolicyFunc evaluates a policy for a table and returns conditions to add
// to the WHERE clause. A non-nil error rejects the query.
type PolicyFunc func(ref plugins.TableRef) (expression.Conditions, error)

// ColumnResolver returns the columns of a table. Masks need it to expand a
// star projection into columns that can be replaced individually.
type ColumnResolver func(tableName string) ([]string, error)

// Option configures an OPA transformer.
type Option func(*OPA)

// WithColumnResolver sets the resolver used to expand star projections when
// masks are present. Without one, masking a star projection fails.
func WithColumnResolver(resolver ColumnResolver) Option {
	return func(o *OPA) { o.columnResolver = resolver }
}

// OPA evaluates a policy for every table of a SELECT.
type OPA struct {
	plugins.BaseTransformer
	evalPolicy     PolicyFunc
	client         *Client
	columnResolver ColumnResolver
}

func New(policy PolicyFunc) *OPA {
	return &OPA{evalPolicy: policy}
}

// NewFromServer creates a transformer backed by an OPA server. url is the
// server's base URL, policyPath the rule to satisfy (e.g. "authz.allow") and
// input the input document sent with every request.
func NewFromServer(url, policyPath string, input map[string]any, opts ...Option) *OPA {
	o := &OPA{client: NewClient(url, policyPath, input)}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// TransformSelect adds the policy conditions of every referenced table and,
// in server mode, applies the column masks.
func (o *OPA) TransformSelect(q *query.SelectQuery) (*query.SelectQuery, error) {
	refs := plugins.CollectTables(q)
	for _, ref := range refs {
		var conds expression.Conditions
		var err error
		if o.client != nil {
			conds, err = o.client.Compile(ref)
		} else {
			conds, err = o.evalPolicy(ref)
		}
		if err != nil {
			return nil, err
		}
		if len(conds) > 0 {
			q.Where(conds)
		}
	}

	if o.client == nil {
		return q, nil
	}
	masks, err := o.client.FetchMasks()
	if err != nil {
		return nil, err
	}
	if len(masks) > 0 {
		if err := o.applyMasks(q, refs, masks); err != nil {
			return nil, err
		}
	}
	return q, nil
}

func (o *OPA) applyMasks(q *query.SelectQuery, refs []plugins.TableRef, masks map[string]map[string]MaskAction) error {
	fields := q.Clause("select").(*expression.SelectExpression)
	if isStar(fields) {
		if o.columnResolver == nil {
			return fmt.Errorf("opa: column resolver required to apply masks to star projection")
		}
		var expanded expression.Conditions
		for _, ref := range refs {
			cols, err := o.columnResolver(ref.Name)
			if err != nil {
				return fmt.Errorf("opa: column resolver: %w", err)
			}
			for _, col := range cols {
				if action, ok := masks[ref.Name][col]; ok && action.Replace != nil {
					expanded = append(expanded, expression.Cond{Key: col, Value: maskLiteral(action.Replace.Value)})
				} else {
					expanded = append(expanded, expression.Cond{Value: ref.Column(col)})
				}
			}
		}
		q.SetSelect(expanded)
		return nil
	}

	byRef := make(map[string]string, len(refs))
	for _, ref := range refs {
		byRef[ref.Ref] = ref.Name
	}
	fields.IterateTerms(func(term any, alias *string) any {
		s, ok := term.(string)
		if !ok {
			return term
		}
		table, col, qualified := strings.Cut(s, ".")
		if !qualified {
			if len(refs) != 1 {
				return term
			}
			table, col = refs[0].Ref, s
		}
		action, ok := masks[byRef[table]][col]
		if !ok || action.Replace == nil {
			return term
		}
		if *alias == "" {
			*alias = col
		}
		return maskLiteral(action.Replace.Value)
	})
	return nil
}

func isStar(fields *expression.SelectExpression) bool {
	if fields.Count() == 0 {
		return true
	}
	for _, t := range fields.Terms() {
		if t.Value == "*" {
			return true
		}
	}
	return false
}

// maskLiteral renders a replacement value as a quoted SQL string.
func maskLiteral(value string) string { return quoting.Literal(value) }
