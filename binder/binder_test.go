package binder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceholderCounts(t *testing.T) {
	t.Parallel()
	b := New()
	assert.Equal(t, ":c0", b.Placeholder("c"))
	assert.Equal(t, ":param1", b.Placeholder("param"))
	assert.Equal(t, ":fixed", b.Placeholder(":fixed"))
	assert.Equal(t, "?", b.Placeholder("?"))
	assert.Equal(t, ":c4", b.Placeholder("c"))
}

func TestBindRecordsInOrder(t *testing.T) {
	t.Parallel()
	b := New()
	b.Bind(":c0", 18, "integer")
	b.Bind(":c1", "Ann", "string")

	got := b.Bindings()
	require.Len(t, got, 2)
	assert.Equal(t, Binding{Param: ":c0", Placeholder: "c0", Value: 18, Type: "integer"}, got[0])
	assert.Equal(t, Binding{Param: ":c1", Placeholder: "c1", Value: "Ann", Type: "string"}, got[1])
}

func TestBindReplacesExisting(t *testing.T) {
	t.Parallel()
	b := New()
	b.Bind(":c0", 1, "integer")
	b.Bind(":c1", 2, "integer")
	b.Bind(":c0", 3, "float")

	bd, ok := b.Lookup(":c0")
	require.True(t, ok)
	assert.Equal(t, 3, bd.Value)
	assert.Equal(t, "float", bd.Type)
	assert.Equal(t, []any{3, 2}, b.Values())
}

func TestGenerateManyNamed(t *testing.T) {
	t.Parallel()
	b := New()
	ps := b.GenerateManyNamed([]any{18, 21}, "integer")
	assert.Equal(t, []string{":c0", ":c1"}, ps)
	assert.Equal(t, 2, b.Len())
	bd, _ := b.Lookup(":c1")
	assert.Equal(t, 21, bd.Value)
	assert.Equal(t, "integer", bd.Type)
}

func TestResetAndResetCount(t *testing.T) {
	t.Parallel()
	b := New()
	b.Bind(b.Placeholder("c"), 1, "")
	b.ResetCount()
	assert.Equal(t, ":c0", b.Placeholder("c"))
	assert.Equal(t, 1, b.Len())

	b.Reset()
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, ":c0", b.Placeholder("c"))
}

func TestRebindQuestion(t *testing.T) {
	t.Parallel()
	b := New()
	b.Bind(":c0", 1, "integer")
	b.Bind(":c1", "x", "string")

	sql, ordered := b.Rebind("a = :c1 AND b = :c0 AND c = ':c0' AND d::text = :c1", Question)
	assert.Equal(t, "a = ? AND b = ? AND c = ':c0' AND d::text = ?", sql)
	require.Len(t, ordered, 3)
	assert.Equal(t, "x", ordered[0].Value)
	assert.Equal(t, 1, ordered[1].Value)
	assert.Equal(t, "x", ordered[2].Value)
}

func TestRebindDollarReusesPositions(t *testing.T) {
	t.Parallel()
	b := New()
	b.Bind(":c0", 1, "integer")
	b.Bind(":c1", 2, "integer")

	sql, ordered := b.Rebind(`"weird:c0" = :c0 OR x = :c1 OR y = :c0 OR z = :unknown`, Dollar)
	assert.Equal(t, `"weird:c0" = $1 OR x = $2 OR y = $1 OR z = :unknown`, sql)
	require.Len(t, ordered, 2)
}

func TestRebindNamedIsIdentity(t *testing.T) {
	t.Parallel()
	b := New()
	b.Bind(":c0", 1, "")
	sql, ordered := b.Rebind("x = :c0", Named)
	assert.Equal(t, "x = :c0", sql)
	assert.Len(t, ordered, 1)
}

func TestStylePlaceholder(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "?", Question.Placeholder(3))
	assert.Equal(t, "$3", Dollar.Placeholder(3))
	assert.Equal(t, "dollar", Dollar.String())
}
