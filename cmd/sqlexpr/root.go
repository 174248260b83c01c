package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/bawdo/sqlexpr/database"
	"github.com/bawdo/sqlexpr/driver"
)

// rootOptions holds the global flags shared by every command.
type rootOptions struct {
	configPath string
	profile    string
	driver     string
	dsn        string
	verbose    bool
	autoQuote  bool

	getenv func(string) string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{getenv: os.Getenv}

	cmd := &cobra.Command{
		Use:   "sqlexpr",
		Short: "Compile and run SQL expression documents",
		Long: `sqlexpr builds SQL statements from YAML query documents, compiles them
for PostgreSQL, MySQL or SQLite and optionally executes them.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", defaultConfigPath(), "config file")
	cmd.PersistentFlags().StringVarP(&opts.profile, "profile", "p", "", "connection profile from the config file")
	cmd.PersistentFlags().StringVarP(&opts.driver, "driver", "d", "", "driver: postgres, mysql or sqlite")
	cmd.PersistentFlags().StringVar(&opts.dsn, "dsn", "", "data source name")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log executed queries")
	cmd.PersistentFlags().BoolVar(&opts.autoQuote, "quote", false, "quote identifiers")

	cmd.AddCommand(newCompileCommand(opts))
	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newReplCommand(opts))
	return cmd
}

func (o *rootOptions) settings() (*settings, error) {
	cfg, err := loadConfig(o.configPath)
	if err != nil {
		return nil, err
	}
	return o.resolve(cfg, o.getenv)
}

func (s *settings) logger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: s.logLevel}))
}

func (s *settings) driverFor() (*driver.Driver, error) {
	return driver.Lookup(s.Driver, driver.WithAutoQuote(s.AutoQuote))
}

var errNoDSN = errors.New("no data source: use --dsn, DATABASE_URL or a profile")

func (s *settings) connect(ctx context.Context, logs io.Writer) (*database.Connection, error) {
	if s.DSN == "" {
		return nil, errNoDSN
	}
	conn, err := database.Open(ctx, s.Driver, s.DSN,
		database.WithLogger(s.logger(logs)),
		database.WithQueryLogging(s.LogQueries),
		database.WithDriverOptions(driver.WithAutoQuote(s.AutoQuote)),
	)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", sanitizeDSN(s.DSN), err)
	}
	return conn, nil
}

// readDocument reads path, or standard input when path is "-".
func readDocument(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}
