package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bawdo/sqlexpr/database"
	"github.com/bawdo/sqlexpr/query"
)

func newRunCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run FILE",
		Short: "Execute a query document and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := root.settings()
			if err != nil {
				return err
			}
			data, err := readDocument(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			stmt, err := parseDocument(data)
			if err != nil {
				return err
			}
			conn, err := s.connect(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = conn.Close() }()

			out, err := execute(cmd.Context(), conn, stmt)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}
}

// execute runs stmt and formats its outcome: a result table for selects, an
// affected row count otherwise.
func execute(ctx context.Context, conn *database.Connection, stmt query.Statement) (string, error) {
	if stmt.StatementType() == "select" {
		res, err := conn.Run(ctx, stmt)
		if err != nil {
			return "", err
		}
		return formatTable(res.Columns, res.Strings()), nil
	}
	res, err := conn.Exec(ctx, stmt)
	if err != nil {
		return "", err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", err
	}
	if n == 1 {
		return "(1 row affected)\n", nil
	}
	return printer.Sprintf("(%d rows affected)\n", n), nil
}
