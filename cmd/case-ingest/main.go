// case-ingest retrieves the published case-statistics spreadsheet from an
// IMAP mailbox (or a local path), extracts its worksheets and writes them
// as JSON artifacts together with the ingested revision's timestamp.
//
// Usage:
//
//	case-ingest --mode remote --login-type password --server imap.example.org \
//	            --user feed@example.org --password keyring:feed --query 'FROM "stats@example.org"'
//	case-ingest --mode local --file-path ./20230501data.xlsx
//	case-ingest credential set <key>
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/nhle/case-ingest/internal/source"
)

// version is set at build time via -ldflags.
var version = "dev"

// Exit codes.
const (
	exitOK             = 0
	exitFailure        = 1
	exitAlreadyCurrent = 3
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)

	err := cmd.Execute()
	if err == nil {
		return exitOK
	}

	return exitCode(err)
}

// exitCode reports err once and maps it to the process exit code.
func exitCode(err error) int {
	kind := source.KindOf(err)
	if kind == source.KindAlreadyCurrent {
		fmt.Fprintln(os.Stderr, err)
		return exitAlreadyCurrent
	}

	var usage *usageError
	if errors.As(err, &usage) {
		return exitFailure
	}

	fmt.Fprintf(os.Stderr, "%s: %v\n", kind, err)
	return exitFailure
}
