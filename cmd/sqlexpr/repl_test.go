package main

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptReader feeds a fixed list of lines to the session.
type scriptReader struct {
	lines   []string
	prompts []string
}

func (r *scriptReader) ReadLine() (string, error) {
	if len(r.lines) == 0 {
		return "", io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, nil
}

func (r *scriptReader) SetPrompt(p string) { r.prompts = append(r.prompts, p) }

func newTestSession(t *testing.T, dsn string) *session {
	t.Helper()
	s := &settings{Profile: Profile{Driver: "sqlite", DSN: dsn}}
	var out bytes.Buffer
	sess, err := newSession(s, &out, &out)
	require.NoError(t, err)
	if dsn != "" {
		require.NoError(t, sess.connect(context.Background(), dsn))
	}
	t.Cleanup(sess.close)
	return sess
}

func output(s *session) string { return s.out.(*bytes.Buffer).String() }

func TestReplCompilesWithoutConnection(t *testing.T) {
	t.Parallel()
	sess := newTestSession(t, "")
	rl := &scriptReader{lines: []string{
		"from: users",
		"where:",
		"  id: 3",
		"",
		"exit",
		"from: never",
	}}
	require.NoError(t, sess.loop(context.Background(), rl))
	assert.Equal(t, "SELECT * FROM users WHERE id = ?\n-- 1: 3 (int)\n", output(sess))
	assert.Equal(t, []string{prompt, contPrompt, contPrompt, contPrompt, prompt}, rl.prompts)
}

func TestReplFlushesAtEOF(t *testing.T) {
	t.Parallel()
	sess := newTestSession(t, "")
	require.NoError(t, sess.loop(context.Background(), &scriptReader{lines: []string{"driver postgres", "from: t", "where: {a: 1}"}}))
	assert.Equal(t, "  Driver: postgres\nSELECT * FROM t WHERE a = $1\n-- 1: 1 (int)\n", output(sess))
}

func TestReplCommandsOnlyOutsideDocuments(t *testing.T) {
	t.Parallel()
	sess := newTestSession(t, "")
	ctx := context.Background()
	assert.False(t, sess.handle(ctx, "select:"))
	assert.False(t, sess.handle(ctx, "  - help"))
	assert.Equal(t, []string{"select:", "  - help"}, sess.buf)
	assert.False(t, sess.handle(ctx, "from: t"))
	assert.False(t, sess.handle(ctx, ""))
	assert.Empty(t, sess.buf)
	assert.Contains(t, output(sess), "SELECT help FROM t")
}

func TestReplRunsWhenConnected(t *testing.T) {
	t.Parallel()
	sess := newTestSession(t, ":memory:")
	ctx := context.Background()
	for _, line := range []string{"select: ['41 + 1 AS answer']", ""} {
		sess.handle(ctx, line)
	}
	out := output(sess)
	assert.Contains(t, out, "Connected to :memory: (sqlite)")
	assert.Contains(t, out, "| answer |")
	assert.Contains(t, out, "| 42     |")
	assert.Contains(t, out, "(1 row)")
}

func TestReplSessionCommands(t *testing.T) {
	t.Parallel()
	sess := newTestSession(t, filepath.Join(t.TempDir(), "repl.db"))
	ctx := context.Background()
	_, err := sess.conn.DB().ExecContext(ctx, "CREATE TABLE widgets (id INTEGER)")
	require.NoError(t, err)

	sess.handle(ctx, "tables")
	assert.Contains(t, output(sess), "  widgets\n")

	sess.handle(ctx, "driver mysql")
	assert.Contains(t, output(sess), "disconnect before changing the driver")

	sess.handle(ctx, "quote on")
	assert.True(t, sess.driver.AutoQuote)
	sess.handle(ctx, "quote maybe")
	assert.Contains(t, output(sess), "usage: quote on|off")

	sess.handle(ctx, "disconnect")
	assert.Nil(t, sess.conn)
	sess.handle(ctx, "tables")
	assert.Contains(t, output(sess), "not connected")

	sess.handle(ctx, "driver mysql")
	assert.Equal(t, "mysql", sess.driver.Name)
	assert.True(t, sess.driver.AutoQuote)

	sess.handle(ctx, "help")
	assert.Contains(t, output(sess), "connect [DSN]")
	assert.True(t, sess.handle(ctx, "QUIT"))
}

func TestReplReportsDocumentErrors(t *testing.T) {
	t.Parallel()
	sess := newTestSession(t, "")
	sess.handle(context.Background(), "limit: 3")
	sess.handle(context.Background(), "")
	assert.Contains(t, output(sess), "Error: document needs one of")
}

func TestCompleter(t *testing.T) {
	t.Parallel()
	sess := newTestSession(t, "")
	sess.tables = []string{"orders", "users"}
	c := &replCompleter{sess: sess}

	complete := func(line string) []string {
		got, _ := c.Do([]rune(line), len([]rune(line)))
		out := make([]string, len(got))
		for i, r := range got {
			out[i] = string(r)
		}
		return out
	}
	assert.Equal(t, []string{"isconnect ", "river ", "elete: ", "istinct: "}, complete("d"))
	assert.Equal(t, []string{"stgres ", "stgresql "}, complete("driver po"))
	assert.Equal(t, []string{"sers "}, complete("from: u"))
	assert.Equal(t, []string{"rders "}, complete("select: [o"))
	assert.Equal(t, []string{"f "}, complete("quote of"))
	assert.Equal(t, []string{"mit: "}, complete("  li"))
}
