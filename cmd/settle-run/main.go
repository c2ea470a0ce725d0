package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"bitbucket.org/mmdatafocus/cortes_backend/config"
	"bitbucket.org/mmdatafocus/cortes_backend/docref"
	"bitbucket.org/mmdatafocus/cortes_backend/workflow"
)

// settle-run executes one reconciliation from the command line, using the same
// env configuration as the server. Handy for cron snapshots and support calls.
//
// Example:
//
//	go run ./cmd/settle-run --branch=Himno --date=2024-03-01
func main() {
	var (
		branch  = flag.String("branch", "", "branch name, exact (required)")
		dateStr = flag.String("date", time.Now().Format("2006-01-02"), "settlement date (YYYY-MM-DD)")
	)
	flag.Parse()

	if *branch == "" {
		fmt.Fprintln(os.Stderr, "--branch is required")
		flag.Usage()
		os.Exit(2)
	}
	date, err := time.Parse("2006-01-02", *dateStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid --date: %v\n", err)
		os.Exit(2)
	}

	result, err := workflow.ProcessSettlementWorkflow(
		config.GetLogger(),
		workflow.InputFromConfig(),
		docref.NewDelimitedCodec(),
		*branch,
		date,
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "settlement failed: %v\n", err)
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))
	fmt.Fprintf(os.Stderr, "%d rows; cuts scanned=%d skipped=%d; docs scanned=%d skipped=%d; multi-matched=%d\n",
		len(result.Rows),
		result.Cuts.Scanned, result.Cuts.Skipped,
		result.Docs.Scanned, result.Docs.Skipped,
		result.MultiMatched)
}
