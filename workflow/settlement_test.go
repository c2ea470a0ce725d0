package workflow

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/cortes_backend/docref"
	"bitbucket.org/mmdatafocus/cortes_backend/utils"
)

var testDate = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

// scenarioA: branch Himno, one cut for register CAJA1 on 2024-03-01; a COH
// client invoice of 300.00 attributed to CAJA1 and an FGIH global-sale
// document (id 1, folio 100, 500.00) referenced from the cut's invoice blob.
func scenarioA(t *testing.T) SettlementInput {
	t.Helper()
	cuts := cutsTable().
		Row("20240301", "1", "1,FGIH,100", "")
	registers := registersTable().
		Row("1", "CAJA1").
		Row("2", "CAJA2")
	ledger := ledgerTable().
		Row("1", "FGIH", "100", "20240301", "500.00", "").
		Row("2", "COH", "77", "20240301", "300.00", "CAJA1")
	return writeFixtures(t, cuts, registers, ledger)
}

func TestSettlement_ScenarioA(t *testing.T) {
	in := scenarioA(t)
	result, err := ProcessSettlementWorkflow(testLogger(), in, docref.NewDelimitedCodec(), "Himno", testDate)
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d: %+v", len(result.Rows), result.Rows)
	}
	row := result.Rows[0]
	if row.Date != "01/03/2024" {
		t.Fatalf("date: %q", row.Date)
	}
	if row.RegisterName != "CAJA1" {
		t.Fatalf("register: %q", row.RegisterName)
	}
	if row.Invoiced.String() != "300" {
		t.Fatalf("invoiced: %s", row.Invoiced)
	}
	if row.GlobalSales.String() != "500" {
		t.Fatalf("global sales: %s", row.GlobalSales)
	}
	if !row.Returned.IsZero() {
		t.Fatalf("returned: %s", row.Returned)
	}
	if row.Total.String() != "800" {
		t.Fatalf("total: %s", row.Total)
	}
	// Arithmetic invariant: total == invoiced + global - returned, exactly.
	if !row.Total.Equal(row.Invoiced.Add(row.GlobalSales).Sub(row.Returned)) {
		t.Fatalf("arithmetic invariant violated: %+v", row)
	}
}

func TestSettlement_ScenarioB_UnknownRegisterDropsCut(t *testing.T) {
	cuts := cutsTable().
		Row("20240301", "9", "1,FGIH,100", "") // register 9 has no directory entry
	registers := registersTable().
		Row("1", "CAJA1")
	ledger := ledgerTable().
		Row("1", "FGIH", "100", "20240301", "500.00", "")
	in := writeFixtures(t, cuts, registers, ledger)

	result, err := ProcessSettlementWorkflow(testLogger(), in, docref.NewDelimitedCodec(), "Himno", testDate)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Rows) != 0 {
		t.Fatalf("expected no rows, got %+v", result.Rows)
	}
	if result.Cuts.Skipped != 1 {
		t.Fatalf("expected the dropped cut counted, got %+v", result.Cuts)
	}
}

func TestSettlement_ScenarioC_FolioMismatchNoGlobalMatch(t *testing.T) {
	cuts := cutsTable().
		Row("20240301", "1", "1,FGIH,101", "") // blob references folio 101
	registers := registersTable().
		Row("1", "CAJA1")
	ledger := ledgerTable().
		Row("1", "FGIH", "100", "20240301", "500.00", ""). // ledger has folio 100
		Row("2", "COH", "77", "20240301", "300.00", "CAJA1")
	in := writeFixtures(t, cuts, registers, ledger)

	result, err := ProcessSettlementWorkflow(testLogger(), in, docref.NewDelimitedCodec(), "Himno", testDate)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(result.Rows))
	}
	if !result.Rows[0].GlobalSales.IsZero() {
		t.Fatalf("global sales should be zero, got %s", result.Rows[0].GlobalSales)
	}
	if result.Rows[0].Total.String() != "300" {
		t.Fatalf("total: %s", result.Rows[0].Total)
	}
}

func TestSettlement_ReturnsBucket(t *testing.T) {
	cuts := cutsTable().
		Row("20240301", "1", "1,FGIH,100", "3,DFCH,55")
	registers := registersTable().
		Row("1", "CAJA1")
	ledger := ledgerTable().
		Row("1", "FGIH", "100", "20240301", "500.00", "").
		Row("3", "DFCH", "55", "20240301", "120.00", "")
	in := writeFixtures(t, cuts, registers, ledger)

	result, err := ProcessSettlementWorkflow(testLogger(), in, docref.NewDelimitedCodec(), "Himno", testDate)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(result.Rows))
	}
	row := result.Rows[0]
	if row.Returned.String() != "120" {
		t.Fatalf("returned: %s", row.Returned)
	}
	if row.Total.String() != "380" { // 0 + 500 - 120
		t.Fatalf("total: %s", row.Total)
	}
}

func TestSettlement_Idempotent(t *testing.T) {
	in := scenarioA(t)

	first, err := ProcessSettlementWorkflow(testLogger(), in, docref.NewDelimitedCodec(), "Himno", testDate)
	if err != nil {
		t.Fatal(err)
	}
	second, err := ProcessSettlementWorkflow(testLogger(), in, docref.NewDelimitedCodec(), "Himno", testDate)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first.Rows, second.Rows) {
		t.Fatalf("runs differ:\n%+v\n%+v", first.Rows, second.Rows)
	}
}

func TestSettlement_NoCutsSkipsLedgerEntirely(t *testing.T) {
	cuts := cutsTable().
		Row("20240215", "1", "", "") // different date: no cuts for the target
	registers := registersTable().
		Row("1", "CAJA1")
	in := writeFixtures(t, cuts, registers, ledgerTable())
	// If the engine tried to scan the ledger, this would fail loudly.
	in.LedgerPath = filepath.Join(t.TempDir(), "missing", "DOCTOS.DBF")

	result, err := ProcessSettlementWorkflow(testLogger(), in, docref.NewDelimitedCodec(), "Himno", testDate)
	if err != nil {
		t.Fatalf("ledger must not be scanned when there are no cuts: %v", err)
	}
	if len(result.Rows) != 0 {
		t.Fatalf("expected empty result, got %+v", result.Rows)
	}
}

func TestSettlement_UnknownBranchYieldsEmptyReport(t *testing.T) {
	in := scenarioA(t)

	result, err := ProcessSettlementWorkflow(testLogger(), in, docref.NewDelimitedCodec(), "Sucursal Nueva", testDate)
	if err != nil {
		t.Fatalf("unknown branch must fail soft: %v", err)
	}
	if len(result.Rows) != 0 {
		t.Fatalf("expected empty report, got %+v", result.Rows)
	}
}

func TestSettlement_SeriesMatchingIsCaseInsensitive(t *testing.T) {
	cuts := cutsTable().
		Row("20240301", "1", "1,fgih,100", "")
	registers := registersTable().
		Row("1", "CAJA1")
	ledger := ledgerTable().
		Row("1", "fgih", "100", "20240301", "500.00", "").
		Row("2", "coh", "77", "20240301", "300.00", "caja1")
	in := writeFixtures(t, cuts, registers, ledger)

	result, err := ProcessSettlementWorkflow(testLogger(), in, docref.NewDelimitedCodec(), "Himno", testDate)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(result.Rows))
	}
	if result.Rows[0].Total.String() != "800" {
		t.Fatalf("total: %s", result.Rows[0].Total)
	}
}

func TestSettlement_CorruptLedgerRowDoesNotPoisonOthers(t *testing.T) {
	cuts := cutsTable().
		Row("20240301", "1", "1,FGIH,100", "")
	registers := registersTable().
		Row("1", "CAJA1")
	ledger := ledgerTable().
		Row("1", "FGIH", "100", "20240301", "500.00", "").
		Row("9", "COH", "88", "@@@@@@@@", "250.00", "CAJA1"). // unreadable date
		Row("2", "COH", "77", "20240301", "300.00", "CAJA1")
	in := writeFixtures(t, cuts, registers, ledger)

	result, err := ProcessSettlementWorkflow(testLogger(), in, docref.NewDelimitedCodec(), "Himno", testDate)
	if err != nil {
		t.Fatal(err)
	}
	if result.Docs.Skipped != 1 {
		t.Fatalf("expected exactly one skipped ledger row, got %+v", result.Docs)
	}
	if len(result.Rows) != 1 || result.Rows[0].Total.String() != "800" {
		t.Fatalf("valid rows changed by corrupt neighbor: %+v", result.Rows)
	}
}

func TestSettlement_MultiplyMatchedDocumentIsFlagged(t *testing.T) {
	// Two cuts reference the same global-sale document. The first claim wins;
	// the second is counted as a data-quality flag, not resolved silently.
	cuts := cutsTable().
		Row("20240301", "1", "1,FGIH,100", "").
		Row("20240301", "2", "1,FGIH,100", "")
	registers := registersTable().
		Row("1", "CAJA1").
		Row("2", "CAJA2")
	ledger := ledgerTable().
		Row("1", "FGIH", "100", "20240301", "500.00", "")
	in := writeFixtures(t, cuts, registers, ledger)

	result, err := ProcessSettlementWorkflow(testLogger(), in, docref.NewDelimitedCodec(), "Himno", testDate)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Rows) != 1 {
		t.Fatalf("expected 1 row (second cut got nothing), got %+v", result.Rows)
	}
	if result.Rows[0].RegisterName != "CAJA1" {
		t.Fatalf("first structural match should win, got %q", result.Rows[0].RegisterName)
	}
	if result.MultiMatched != 1 {
		t.Fatalf("expected 1 multi-matched flag, got %d", result.MultiMatched)
	}
}

func TestSettlement_AllZeroBucketsEmitNoRow(t *testing.T) {
	cuts := cutsTable().
		Row("20240301", "1", "", "")
	registers := registersTable().
		Row("1", "CAJA1")
	in := writeFixtures(t, cuts, registers, ledgerTable())

	result, err := ProcessSettlementWorkflow(testLogger(), in, docref.NewDelimitedCodec(), "Himno", testDate)
	if err != nil {
		t.Fatal(err)
	}
	if result.Cuts.Matched != 1 {
		t.Fatalf("the cut itself should collect: %+v", result.Cuts)
	}
	if len(result.Rows) != 0 {
		t.Fatalf("expected no rows, got %+v", result.Rows)
	}
}

func TestSettlement_BlankPathIsConfigIncomplete(t *testing.T) {
	in := scenarioA(t)
	in.LedgerPath = ""

	_, err := ProcessSettlementWorkflow(testLogger(), in, docref.NewDelimitedCodec(), "Himno", testDate)
	if !errors.Is(err, utils.ErrConfigIncomplete) {
		t.Fatalf("expected ErrConfigIncomplete, got %v", err)
	}
}

func TestSettlement_CancelledBetweenPhases(t *testing.T) {
	in := scenarioA(t)

	cancelled := false
	hooks := &runHooks{
		cancelled: func() bool { return cancelled },
		phase: func(name string) {
			if name == "ledger" {
				cancelled = true
			}
		},
	}
	result, err := processSettlement(testLogger(), in, docref.NewDelimitedCodec(), "Himno", testDate, hooks)
	if !errors.Is(err, ErrRunCancelled) {
		t.Fatalf("expected ErrRunCancelled, got %v", err)
	}
	if result != nil {
		t.Fatalf("a cancelled run must publish nothing, got %+v", result)
	}
}
