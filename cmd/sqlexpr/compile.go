package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bawdo/sqlexpr/database"
	"github.com/bawdo/sqlexpr/driver"
	"github.com/bawdo/sqlexpr/query"
)

func newCompileCommand(root *rootOptions) *cobra.Command {
	var interpolate, dot bool

	cmd := &cobra.Command{
		Use:   "compile FILE",
		Short: "Print the SQL and parameters of a query document",
		Long: `Compile a YAML query document for the selected driver and print the SQL
followed by one comment line per bound parameter. Use "-" to read the
document from standard input.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := root.settings()
			if err != nil {
				return err
			}
			d, err := s.driverFor()
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
			var out string
			if dot {
				out, err = renderTree(stmt)
			} else {
				out, err = renderCompiled(d, stmt, interpolate)
			}
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}

	cmd.Flags().BoolVarP(&interpolate, "interpolate", "i", false, "inline the parameters (display only)")
	cmd.Flags().BoolVar(&dot, "dot", false, "print the expression tree as a Graphviz graph")
	cmd.MarkFlagsMutuallyExclusive("interpolate", "dot")
	return cmd
}

// renderTree applies the statement's transformers and renders the result
// as a DOT graph.
func renderTree(stmt query.Statement) (string, error) {
	t, err := stmt.Transform()
	if err != nil {
		return "", err
	}
	return renderDot(t), nil
}

func renderCompiled(d *driver.Driver, stmt query.Statement, interpolate bool) (string, error) {
	sql, args, err := d.Compile(stmt)
	if err != nil {
		return "", err
	}
	if interpolate {
		return database.LoggedQuery{Query: sql, Params: args, Style: d.Style}.String() + "\n", nil
	}
	var b strings.Builder
	b.WriteString(sql)
	b.WriteByte('\n')
	for i, a := range args {
		fmt.Fprintf(&b, "-- %d: %v (%T)\n", i+1, a, a)
	}
	return b.String(), nil
}
