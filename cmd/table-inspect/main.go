package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"bitbucket.org/mmdatafocus/cortes_backend/config"
	"bitbucket.org/mmdatafocus/cortes_backend/dbase"
	"bitbucket.org/mmdatafocus/cortes_backend/workflow"
)

// table-inspect validates an operator-supplied legacy table path: existence,
// size, schema, row count and whether the columns a table kind needs are
// present.
//
// Example:
//
//	go run ./cmd/table-inspect --path=/mnt/legacy/CORTES.DBF --kind=cuts
func main() {
	var (
		path     = flag.String("path", "", "legacy table path (default: the configured path for --kind)")
		kind     = flag.String("kind", "", "table kind: cuts|registers|ledger")
		codepage = flag.String("codepage", "", "codepage name (default: configured candidates)")
	)
	flag.Parse()

	p := *path
	if p == "" {
		p = config.GetTablePaths().Path(config.TableKind(*kind))
	}
	if p == "" {
		fmt.Fprintln(os.Stderr, "either --path or a configured --kind is required")
		flag.Usage()
		os.Exit(2)
	}

	cp := dbase.CodepageFromCandidates(config.CodepageCandidates())
	if *codepage != "" {
		var err error
		cp, err = dbase.LookupCodepage(*codepage)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid --codepage: %v\n", err)
			os.Exit(2)
		}
	}

	info, err := workflow.InspectTable(p, cp, config.TableKind(*kind))
	if err != nil {
		fmt.Fprintf(os.Stderr, "inspect failed: %v\n", err)
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(info, "", "  ")
	fmt.Println(string(out))
	if !info.Exists {
		os.Exit(1)
	}
}
