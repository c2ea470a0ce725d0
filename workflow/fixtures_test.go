package workflow

import (
	"io"
	"testing"

	"bitbucket.org/mmdatafocus/cortes_backend/dbase"
	"bitbucket.org/mmdatafocus/cortes_backend/dbase/dbasetest"
	"github.com/sirupsen/logrus"
)

// The fixture schemas mirror the reference deployment's tables (columns.go).

func cutsTable() *dbasetest.TableBuilder {
	return dbasetest.NewTable(
		dbasetest.Field{Name: "FECHA", Type: 'D', Length: 8},
		dbasetest.Field{Name: "NUMCAJA", Type: 'N', Length: 4},
		dbasetest.Field{Name: "FACTURAS", Type: 'C', Length: 60},
		dbasetest.Field{Name: "DEVOLUCIO", Type: 'C', Length: 60},
	)
}

func registersTable() *dbasetest.TableBuilder {
	return dbasetest.NewTable(
		dbasetest.Field{Name: "NUMCAJA", Type: 'N', Length: 4},
		dbasetest.Field{Name: "DESCRIPCIO", Type: 'C', Length: 30},
	)
}

func ledgerTable() *dbasetest.TableBuilder {
	return dbasetest.NewTable(
		dbasetest.Field{Name: "CIDDOCUM", Type: 'N', Length: 10},
		dbasetest.Field{Name: "CSERIEDO", Type: 'C', Length: 10},
		dbasetest.Field{Name: "CFOLIO", Type: 'N', Length: 10},
		dbasetest.Field{Name: "CFECHA", Type: 'D', Length: 8},
		dbasetest.Field{Name: "CTOTAL", Type: 'N', Length: 12, Decimals: 2},
		dbasetest.Field{Name: "CRAZONSO", Type: 'C', Length: 30},
	)
}

func writeFixtures(t *testing.T, cuts, registers, ledger *dbasetest.TableBuilder) SettlementInput {
	t.Helper()
	dir := t.TempDir()
	in := SettlementInput{Codepage: dbase.Latin1()}
	var err error
	if in.CutsPath, err = cuts.WriteFile(dir, "CORTES.DBF"); err != nil {
		t.Fatal(err)
	}
	if in.RegistersPath, err = registers.WriteFile(dir, "CAJAS.DBF"); err != nil {
		t.Fatal(err)
	}
	if in.LedgerPath, err = ledger.WriteFile(dir, "DOCTOS.DBF"); err != nil {
		t.Fatal(err)
	}
	return in
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
