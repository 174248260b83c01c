package opa

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/bawdo/sqlexpr/expression"
	"github.com/bawdo/sqlexpr/internal/quoting"
	"github.com/bawdo/sqlexpr/plugins"
)

// ErrAccessDenied is returned when the policy has no way to allow access to
// a table.
var ErrAccessDenied = errors.New("opa: access denied")

// Client communicates with an OPA server's Compile and Data APIs.
type Client struct {
	baseURL    string
	policyPath string
	input      map[string]any
	httpClient *http.Client
}

// NewClient creates an OPA Client with the given base URL, policy path, and input.
// The policy path is normalized to include the "data." prefix if not already present.
//
// SECURITY: The baseURL is used as-is for HTTP requests. In production, use HTTPS
// to prevent policy decisions and input data from being transmitted in plain text.
func NewClient(baseURL, policyPath string, input map[string]any) *Client {
	if !strings.HasPrefix(policyPath, "data.") {
		policyPath = "data." + policyPath
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		policyPath: policyPath,
		input:      input,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *Client) postJSON(path string, reqBody any) ([]byte, error) {
	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("opa: marshal request: %w", err)
	}
	resp, err := c.httpClient.Post(c.baseURL+path, "application/json", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// --- Compile API response types ---

type compileResponse struct {
	Result struct {
		Queries [][]compileExpression `json:"queries"`
	} `json:"result"`
}

type compileExpression struct {
	Index int           `json:"index"`
	Terms []compileTerm `json:"terms"`
}

type compileTerm struct {
	Type  string
	Value any // string, int, float64, bool, or []compileTerm for refs
}

// MaskAction describes how to mask a single column.
type MaskAction struct {
	Replace *ReplaceAction `json:"replace"`
}

// ReplaceAction replaces the column value with a literal string.
type ReplaceAction struct {
	Value string `json:"value"`
}

func (ct *compileTerm) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type  string          `json:"type"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ct.Type = raw.Type

	switch raw.Type {
	case "string", "var":
		var s string
		if err := json.Unmarshal(raw.Value, &s); err != nil {
			return fmt.Errorf("opa: %s value: %w", raw.Type, err)
		}
		ct.Value = s
	case "number":
		var f float64
		if err := json.Unmarshal(raw.Value, &f); err != nil {
			return fmt.Errorf("opa: number value: %w", err)
		}
		if f == math.Trunc(f) && !math.IsInf(f, 0) {
			ct.Value = int(f)
		} else {
			ct.Value = f
		}
	case "boolean":
		var b bool
		if err := json.Unmarshal(raw.Value, &b); err != nil {
			return fmt.Errorf("opa: boolean value: %w", err)
		}
		ct.Value = b
	case "ref":
		var terms []compileTerm
		if err := json.Unmarshal(raw.Value, &terms); err != nil {
			return fmt.Errorf("opa: ref value: %w", err)
		}
		ct.Value = terms
	default:
		return fmt.Errorf("opa: unknown term type %q", raw.Type)
	}
	return nil
}

// refParts returns the parts of a ref term whose head is the given var.
func refParts(term compileTerm, head string) ([]compileTerm, bool) {
	if term.Type != "ref" {
		return nil, false
	}
	parts, ok := term.Value.([]compileTerm)
	if !ok || len(parts) == 0 || parts[0].Type != "var" {
		return nil, false
	}
	if head != "" && parts[0].Value != head {
		return nil, false
	}
	return parts, true
}

func extractOperator(term compileTerm) (string, error) {
	parts, ok := refParts(term, "")
	if !ok {
		return "", fmt.Errorf("opa: operator term must be a var ref, got %s", term.Type)
	}
	return parts[0].Value.(string), nil
}

// extractColumnName returns the last string element of a data ref.
func extractColumnName(parts []compileTerm) (string, error) {
	for i := len(parts) - 1; i >= 0; i-- {
		if s, ok := parts[i].Value.(string); ok && parts[i].Type == "string" {
			return s, nil
		}
	}
	return "", errors.New("opa: column ref has no string element")
}

var comparisons = map[string]string{
	"eq":    "",
	"equal": "",
	"neq":   " !=",
	"lt":    " <",
	"lte":   " <=",
	"gt":    " >",
	"gte":   " >=",
}

// mirrored maps an ordering operator to the one that holds when the
// operands swap sides.
var mirrored = map[string]string{"lt": "gt", "lte": "gte", "gt": "lt", "gte": "lte"}

// translateExpression converts one residual expression into a condition on
// ref. OPA does not guarantee operand order, so the column is found by type.
func translateExpression(e compileExpression, ref plugins.TableRef) (expression.Cond, error) {
	if len(e.Terms) < 3 {
		return expression.Cond{}, fmt.Errorf("opa: expression has %d terms, need at least 3", len(e.Terms))
	}
	op, err := extractOperator(e.Terms[0])
	if err != nil {
		return expression.Cond{}, err
	}

	var parts []compileTerm
	var val any
	if p, ok := refParts(e.Terms[1], "data"); ok {
		parts, val = p, e.Terms[2].Value
	} else if p, ok := refParts(e.Terms[2], "data"); ok {
		parts, val = p, e.Terms[1].Value
		if m, swap := mirrored[op]; swap {
			op = m
		}
	} else {
		return expression.Cond{}, errors.New("opa: expression has no data ref term")
	}
	name, err := extractColumnName(parts)
	if err != nil {
		return expression.Cond{}, err
	}
	col := ref.Column(name)

	if suffix, ok := comparisons[op]; ok {
		return expression.Cond{Key: col + suffix, Value: val}, nil
	}
	s, ok := val.(string)
	if !ok {
		return expression.Cond{}, fmt.Errorf("opa: %s requires a string value, got %T", op, val)
	}
	switch op {
	case "startswith":
		return expression.Cond{Key: col + " LIKE", Value: quoting.LikePrefix(s)}, nil
	case "endswith":
		return expression.Cond{Key: col + " LIKE", Value: quoting.LikeSuffix(s)}, nil
	case "contains":
		return expression.Cond{Key: col + " LIKE", Value: quoting.LikeContains(s)}, nil
	}
	return expression.Cond{}, fmt.Errorf("opa: unsupported operator %q", op)
}

// translateQueries converts a residual query set into WHERE conditions:
//   - no queries denies access
//   - an empty query allows unconditionally
//   - a single query yields its expressions, ANDed by the statement
//   - several queries are ANDed internally and ORed together
func translateQueries(queries [][]compileExpression, ref plugins.TableRef) (expression.Conditions, error) {
	if len(queries) == 0 {
		return nil, ErrAccessDenied
	}
	groups := make(expression.Conditions, 0, len(queries))
	for _, q := range queries {
		if len(q) == 0 {
			return nil, nil
		}
		group := make(expression.Conditions, 0, len(q))
		for _, e := range q {
			cond, err := translateExpression(e, ref)
			if err != nil {
				return nil, err
			}
			group = append(group, cond)
		}
		groups = append(groups, expression.Cond{Key: "and", Value: group})
	}
	if len(groups) == 1 {
		return groups[0].Value.(expression.Conditions), nil
	}
	return expression.Conditions{{Key: "or", Value: groups}}, nil
}

type compileRequest struct {
	Query    string   `json:"query"`
	Input    any      `json:"input,omitempty"`
	Unknowns []string `json:"unknowns"`
}

func (c *Client) compile(unknowns []string, input any) (*compileResponse, error) {
	body, err := c.postJSON("/v1/compile", compileRequest{
		Query:    c.policyPath + " == true",
		Input:    input,
		Unknowns: unknowns,
	})
	if err != nil {
		return nil, fmt.Errorf("opa: compile request failed: %w", err)
	}
	var resp compileResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("opa: parse compile response: %w", err)
	}
	return &resp, nil
}

// Compile partially evaluates the policy with the table's rows unknown and
// returns the residual as conditions on ref.
func (c *Client) Compile(ref plugins.TableRef) (expression.Conditions, error) {
	resp, err := c.compile([]string{"data." + ref.Name}, c.input)
	if err != nil {
		return nil, err
	}
	return translateQueries(resp.Result.Queries, ref)
}

// masksDataPath returns the Data API path of the masks rule that sits next
// to the policy rule: data.a.b.allow becomes a/b/masks.
func (c *Client) masksDataPath() string {
	path := strings.TrimPrefix(c.policyPath, "data.")
	if idx := strings.LastIndex(path, "."); idx >= 0 {
		path = path[:idx]
	}
	return strings.ReplaceAll(path, ".", "/") + "/masks"
}

// FetchMasks evaluates the masks rule for the current input. Columns whose
// replacement value is not a string are not masked.
func (c *Client) FetchMasks() (map[string]map[string]MaskAction, error) {
	body, err := c.postJSON("/v1/data/"+c.masksDataPath(), struct {
		Input any `json:"input,omitempty"`
	}{c.input})
	if err != nil {
		return nil, fmt.Errorf("opa: masks request failed: %w", err)
	}
	return parseMasksResponse(body)
}

func parseMasksResponse(data []byte) (map[string]map[string]MaskAction, error) {
	var resp struct {
		Result map[string]map[string]struct {
			Replace *struct {
				Value any `json:"value"`
			} `json:"replace"`
		} `json:"result"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("opa: parse masks response: %w", err)
	}

	var masks map[string]map[string]MaskAction
	for table, columns := range resp.Result {
		for column, action := range columns {
			if action.Replace == nil {
				continue
			}
			value, ok := action.Replace.Value.(string)
			if !ok {
				continue
			}
			if masks == nil {
				masks = make(map[string]map[string]MaskAction)
			}
			if masks[table] == nil {
				masks[table] = make(map[string]MaskAction)
			}
			masks[table][column] = MaskAction{Replace: &ReplaceAction{Value: value}}
		}
	}
	return masks, nil
}

// DiscoverInputs partially evaluates the policy with the whole input unknown
// and returns the sorted input paths it refers to, such as "subject.role".
// Extra data unknowns expose inputs used by rules over those documents.
func (c *Client) DiscoverInputs(dataUnknowns ...string) ([]string, error) {
	resp, err := c.compile(append([]string{"input"}, dataUnknowns...), map[string]any{})
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	for _, q := range resp.Result.Queries {
		for _, e := range q {
			for _, term := range e.Terms {
				if path, ok := inputRefPath(term); ok {
					seen[path] = true
				}
			}
		}
	}
	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths, nil
}

func inputRefPath(term compileTerm) (string, bool) {
	parts, ok := refParts(term, "input")
	if !ok || len(parts) < 2 {
		return "", false
	}
	segments := make([]string, 0, len(parts)-1)
	for _, p := range parts[1:] {
		s, ok := p.Value.(string)
		if !ok || p.Type != "string" {
			return "", false
		}
		segments = append(segments, s)
	}
	return strings.Join(segments, "."), true
}
