package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ergochat/readline"
	"github.com/spf13/cobra"

	"github.com/bawdo/sqlexpr/database"
	"github.com/bawdo/sqlexpr/driver"
)

const (
	prompt     = "sqlexpr> "
	contPrompt = "     ..> "
)

// lineReader is the part of *readline.Instance the session needs.
type lineReader interface {
	ReadLine() (string, error)
	SetPrompt(string)
}

func newReplCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Compile or run query documents interactively",
		Long: `Start an interactive session. Type a YAML query document and finish it
with a blank line: it is compiled, and executed when connected.
Type 'help' for the session commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := root.settings()
			if err != nil {
				return err
			}
			sess, err := newSession(s, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer sess.close()

			rl, err := readline.NewFromConfig(&readline.Config{
				Prompt:          prompt,
				HistoryFile:     historyPath(),
				HistoryLimit:    500,
				AutoComplete:    &replCompleter{sess: sess},
				InterruptPrompt: "^C",
				EOFPrompt:       "exit",
			})
			if err != nil {
				return fmt.Errorf("readline init: %w", err)
			}
			defer func() { _ = rl.Close() }()

			if s.DSN != "" {
				if err := sess.connect(cmd.Context(), s.DSN); err != nil {
					fmt.Fprintf(sess.errOut, "  Warning: connect failed: %v\n", err)
				}
			}
			fmt.Fprintln(sess.out, "sqlexpr REPL, type 'help' for commands, 'exit' to quit")
			return sess.loop(cmd.Context(), rl)
		},
	}
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".sqlexpr_history")
}

// session holds the REPL state: the active driver, the optional connection
// and the document being typed.
type session struct {
	out      io.Writer
	errOut   io.Writer
	settings *settings
	driver   *driver.Driver
	conn     *database.Connection
	buf      []string
	tables   []string
}

func newSession(s *settings, out, errOut io.Writer) (*session, error) {
	d, err := s.driverFor()
	if err != nil {
		return nil, err
	}
	return &session{out: out, errOut: errOut, settings: s, driver: d}, nil
}

func (s *session) close() {
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
}

func (s *session) loop(ctx context.Context, rl lineReader) error {
	for {
		if len(s.buf) > 0 {
			rl.SetPrompt(contPrompt)
		} else {
			rl.SetPrompt(prompt)
		}
		line, err := rl.ReadLine()
		if errors.Is(err, readline.ErrInterrupt) {
			s.buf = nil
			continue
		}
		if errors.Is(err, io.EOF) {
			s.flush(ctx)
			return nil
		}
		if err != nil {
			return err
		}
		if quit := s.handle(ctx, line); quit {
			return nil
		}
	}
}

// handle processes one input line and reports whether the session ends.
// Commands are only recognised outside a document.
func (s *session) handle(ctx context.Context, line string) bool {
	trimmed := strings.TrimSpace(line)
	if len(s.buf) == 0 {
		if trimmed == "" {
			return false
		}
		cmd, arg, _ := strings.Cut(trimmed, " ")
		arg = strings.TrimSpace(arg)
		switch strings.ToLower(cmd) {
		case "exit", "quit":
			return true
		case "help":
			s.help()
			return false
		case "driver":
			s.report(s.setDriver(arg))
			return false
		case "connect":
			if arg == "" {
				arg = s.settings.DSN
			}
			s.report(s.connect(ctx, arg))
			return false
		case "disconnect":
			s.close()
			fmt.Fprintln(s.out, "  Disconnected")
			return false
		case "tables":
			s.report(s.listTables(ctx))
			return false
		case "quote":
			s.report(s.setQuote(arg))
			return false
		}
	}
	if trimmed == "" {
		s.flush(ctx)
		return false
	}
	s.buf = append(s.buf, line)
	return false
}

func (s *session) report(err error) {
	if err != nil {
		fmt.Fprintf(s.errOut, "  Error: %v\n", err)
	}
}

// flush compiles the buffered document, and runs it when connected.
func (s *session) flush(ctx context.Context) {
	if len(s.buf) == 0 {
		return
	}
	doc := strings.Join(s.buf, "\n")
	s.buf = nil

	stmt, err := parseDocument([]byte(doc))
	if err != nil {
		s.report(err)
		return
	}
	var out string
	if s.conn != nil {
		out, err = execute(ctx, s.conn, stmt)
	} else {
		out, err = renderCompiled(s.driver, stmt, false)
	}
	if err != nil {
		s.report(err)
		return
	}
	fmt.Fprint(s.out, out)
}

func (s *session) setDriver(name string) error {
	if s.conn != nil {
		return errors.New("disconnect before changing the driver")
	}
	d, err := driver.Lookup(name, driver.WithAutoQuote(s.settings.AutoQuote))
	if err != nil {
		return err
	}
	s.driver = d
	s.settings.Driver = d.Name
	fmt.Fprintf(s.out, "  Driver: %s\n", d.Name)
	return nil
}

func (s *session) setQuote(arg string) error {
	switch strings.ToLower(arg) {
	case "on":
		s.settings.AutoQuote = true
	case "off":
		s.settings.AutoQuote = false
	default:
		return errors.New("usage: quote on|off")
	}
	s.driver.AutoQuote = s.settings.AutoQuote
	fmt.Fprintf(s.out, "  Identifier quoting: %s\n", strings.ToLower(arg))
	return nil
}

func (s *session) connect(ctx context.Context, dsn string) error {
	if dsn == "" {
		return errNoDSN
	}
	s.close()
	cfg := *s.settings
	cfg.DSN = dsn
	conn, err := cfg.connect(ctx, s.errOut)
	if err != nil {
		return err
	}
	s.conn = conn
	s.driver = conn.Driver()
	s.tables, _ = conn.Tables(ctx)
	fmt.Fprintf(s.out, "  Connected to %s (%s)\n", sanitizeDSN(dsn), s.driver.Name)
	return nil
}

func (s *session) listTables(ctx context.Context) error {
	if s.conn == nil {
		return errors.New("not connected")
	}
	tables, err := s.conn.Tables(ctx)
	if err != nil {
		return err
	}
	s.tables = tables
	for _, t := range tables {
		fmt.Fprintf(s.out, "  %s\n", t)
	}
	return nil
}

func (s *session) help() {
	fmt.Fprint(s.out, `  Type a YAML query document and end it with a blank line.

  Commands:
    driver NAME       switch driver (postgres, mysql, sqlite)
    connect [DSN]     connect; documents are executed while connected
    disconnect        close the connection
    tables            list the tables of the connected database
    quote on|off      toggle identifier quoting
    help              show this help
    exit              leave the session
`)
}
