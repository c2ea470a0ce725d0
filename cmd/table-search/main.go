package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"bitbucket.org/mmdatafocus/cortes_backend/config"
	"bitbucket.org/mmdatafocus/cortes_backend/dbase"
	"bitbucket.org/mmdatafocus/cortes_backend/workflow"
)

// table-search runs the free-form diagnostic scan over any legacy table.
// Criteria are field=value pairs; all must match.
//
// Example:
//
//	go run ./cmd/table-search --path=/mnt/legacy/DOCTOS.DBF \
//	  --where=CSERIEDO=FGIH --where=CFOLIO=100 --mode=exact
func main() {
	var where multiFlag
	var (
		path      = flag.String("path", "", "legacy table path (required)")
		mode      = flag.String("mode", "exact", "match mode: exact|contains")
		chunkSize = flag.Int("chunk_size", 0, "scan chunk size (0 = default)")
		codepage  = flag.String("codepage", "", "codepage name (default: configured candidates)")
	)
	flag.Var(&where, "where", "FIELD=VALUE criterion (repeatable, all must match)")
	flag.Parse()

	if *path == "" || len(where) == 0 {
		fmt.Fprintln(os.Stderr, "--path and at least one --where are required")
		flag.Usage()
		os.Exit(2)
	}

	var fields, values []string
	for _, w := range where {
		field, value, ok := strings.Cut(w, "=")
		if !ok || strings.TrimSpace(field) == "" {
			fmt.Fprintf(os.Stderr, "invalid --where %q (want FIELD=VALUE)\n", w)
			os.Exit(2)
		}
		fields = append(fields, strings.TrimSpace(field))
		values = append(values, value)
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

	result, err := workflow.SearchTable(config.GetLogger(), *path, cp, fields, values, workflow.MatchMode(*mode), *chunkSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "search failed: %v\n", err)
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))
	fmt.Fprintf(os.Stderr, "matched %d of %d scanned (%d corrupt)\n", len(result.Rows), result.Scanned, result.Corrupt)
}

type multiFlag []string

func (f *multiFlag) String() string { return strings.Join(*f, ",") }

func (f *multiFlag) Set(v string) error {
	*f = append(*f, v)
	return nil
}
