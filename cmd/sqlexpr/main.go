// Command sqlexpr compiles and runs YAML query documents.
//
// Usage:
//
//	sqlexpr compile query.yaml            # print SQL and parameters
//	sqlexpr run --dsn ./app.db query.yaml # execute and print the rows
//	sqlexpr repl                          # interactive session
//
// Connection settings come from a profile in the config file, then the
// SQLEXPR_DRIVER and DATABASE_URL environment variables, then flags.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
