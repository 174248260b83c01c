package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "none.yaml")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestCompileCommand(t *testing.T) {
	out, err := runCLI(t, "from: users\nwhere: {id: 3}\n", "compile", "--driver", "mysql", "-")
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM users WHERE id = ?\n-- 1: 3 (int)\n", out)
}

func TestCompileCommandInterpolate(t *testing.T) {
	out, err := runCLI(t, "from: users\nwhere: {name: \"O'Hara\"}\n", "compile", "-d", "postgres", "--quote", "-i", "-")
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "users" WHERE "name" = 'O''Hara'`+"\n", out)
}

func TestCompileCommandFile(t *testing.T) {
	out, err := runCLI(t, "", "compile", "-d", "postgres", filepath.Join("testdata", "docs", "delete_subquery.yaml"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "DELETE FROM posts WHERE user_id IN"))
}

func TestCompileCommandErrors(t *testing.T) {
	_, err := runCLI(t, "from: t", "compile", "-d", "oracle", "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")

	_, err = runCLI(t, "", "compile", filepath.Join("testdata", "docs", "missing.yaml"))
	require.Error(t, err)

	_, err = runCLI(t, "", "compile")
	require.Error(t, err)
}

func TestRunCommand(t *testing.T) {
	out, err := runCLI(t, "select: ['1 + 1 AS two']\n", "run", "-d", "sqlite", "--dsn", ":memory:", "-")
	require.NoError(t, err)
	assert.Equal(t, "+-----+\n| two |\n+-----+\n| 2   |\n+-----+\n(1 row)\n", out)
}

func TestRunCommandNeedsDSN(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := runCLI(t, "from: t", "run", "-d", "sqlite", "-")
	require.ErrorIs(t, err, errNoDSN)
}

func TestRunCommandExec(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "app.db")
	sess := newTestSession(t, dsn)
	_, err := sess.conn.DB().Exec("CREATE TABLE notes (id INTEGER, body TEXT)")
	require.NoError(t, err)
	sess.close()

	out, err := runCLI(t, "insert:\n  into: notes\n  values:\n    - {id: 1, body: a}\n    - {id: 2, body: b}\n",
		"run", "-d", "sqlite", "--dsn", dsn, "-")
	require.NoError(t, err)
	assert.Equal(t, "(2 rows affected)\n", out)

	out, err = runCLI(t, "delete: {from: notes, where: {id: 1}}\n", "run", "-d", "sqlite", "--dsn", dsn, "-")
	require.NoError(t, err)
	assert.Equal(t, "(1 row affected)\n", out)
}

func TestCompileCommandDot(t *testing.T) {
	doc := "from: posts\nwhere: {id: 3}\nplugins: {softdelete: {}}\n"
	out, err := runCLI(t, doc, "compile", "--dot", "-")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "digraph sqlexpr {\n"))
	assert.Contains(t, out, `n0 [label="SelectQuery\nSELECT", fillcolor="#6CA6CD"];`)
	assert.Contains(t, out, `[label="QueryExpression\nAND", fillcolor="#FFEB80"];`)
	assert.Contains(t, out, `[label="ComparisonExpression\nid =", fillcolor="#FFB347"];`)
	// The soft delete condition is added before rendering.
	assert.Contains(t, out, `label="UnaryExpression`)

	_, err = runCLI(t, doc, "compile", "--dot", "-i", "-")
	require.Error(t, err)
}
