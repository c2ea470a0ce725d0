package dbase_test

import (
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/cortes_backend/dbase"
	"bitbucket.org/mmdatafocus/cortes_backend/dbase/dbasetest"
)

func openOne(t *testing.T, b *dbasetest.TableBuilder, cp dbase.Codepage) (*dbase.Table, *dbase.Row) {
	t.Helper()
	path := writeTable(t, b, "one.dbf")
	tab, err := dbase.Open(path, cp)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { tab.Close() })
	row, err := tab.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	return tab, row
}

func TestRow_DeclaredTypeReads(t *testing.T) {
	b := dbasetest.NewTable(
		dbasetest.Field{Name: "NOMBRE", Type: 'C', Length: 10},
		dbasetest.Field{Name: "IMPORTE", Type: 'N', Length: 12, Decimals: 2},
		dbasetest.Field{Name: "FECHA", Type: 'D', Length: 8},
		dbasetest.Field{Name: "ACTIVO", Type: 'L', Length: 1},
	).Row("CAJA1", "1234.50", "20240301", "T")

	tab, row := openOne(t, b, dbase.Latin1())

	if v, st := row.String("NOMBRE"); v != "CAJA1" || st != dbase.FieldOK {
		t.Fatalf("String: %q %v", v, st)
	}
	if v, st := row.Decimal("IMPORTE"); st != dbase.FieldOK || v.String() != "1234.5" {
		t.Fatalf("Decimal: %s %v", v, st)
	}
	want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if v, st := row.Date("FECHA"); st != dbase.FieldOK || !v.Equal(want) {
		t.Fatalf("Date: %v %v", v, st)
	}
	if v, st := row.Bool("ACTIVO"); st != dbase.FieldOK || !v {
		t.Fatalf("Bool: %v %v", v, st)
	}
	if n := len(tab.FieldErrors()); n != 0 {
		t.Fatalf("expected no field errors, got %v", tab.FieldErrors())
	}
}

func TestRow_FallbackReads(t *testing.T) {
	// Declared types stopped being honored years ago: an integer stored in a
	// text field, an amount with a thousands separator, a display-format date.
	b := dbasetest.NewTable(
		dbasetest.Field{Name: "NUMCAJA", Type: 'C', Length: 6},
		dbasetest.Field{Name: "CTOTAL", Type: 'C', Length: 12},
		dbasetest.Field{Name: "CFECHA", Type: 'C', Length: 10},
	).Row("7", "1,250.00", "01/03/2024")

	tab, row := openOne(t, b, dbase.Latin1())

	if v, st := row.Int("NUMCAJA"); st != dbase.FieldDegraded || v != 7 {
		t.Fatalf("Int fallback: %d %v", v, st)
	}
	if v, st := row.Decimal("CTOTAL"); st != dbase.FieldDegraded || v.String() != "1250" {
		t.Fatalf("Decimal fallback: %s %v", v, st)
	}
	if v, st := row.Date("CFECHA"); st != dbase.FieldDegraded || v.Day() != 1 || v.Month() != 3 {
		t.Fatalf("Date fallback: %v %v", v, st)
	}

	errs := tab.FieldErrors()
	for _, col := range []string{"NUMCAJA", "CTOTAL", "CFECHA"} {
		if errs[col] != 1 {
			t.Fatalf("expected 1 counted error for %s, got %v", col, errs)
		}
	}
}

func TestRow_FailedReadsDefaultAndCount(t *testing.T) {
	b := dbasetest.NewTable(
		dbasetest.Field{Name: "CTOTAL", Type: 'N', Length: 12},
		dbasetest.Field{Name: "CFECHA", Type: 'D', Length: 8},
	).Row("garbage", "")

	tab, row := openOne(t, b, dbase.Latin1())

	if v, st := row.Decimal("CTOTAL"); st != dbase.FieldFailed || !v.IsZero() {
		t.Fatalf("Decimal on garbage: %s %v", v, st)
	}
	if _, st := row.Date("CFECHA"); st != dbase.FieldFailed {
		t.Fatalf("Date on blank: %v", st)
	}
	if _, st := row.String("NOSUCHCOL"); st != dbase.FieldFailed {
		t.Fatalf("missing column must fail, got %v", st)
	}

	errs := tab.FieldErrors()
	if errs["CTOTAL"] != 1 || errs["CFECHA"] != 1 || errs["NOSUCHCOL"] != 1 {
		t.Fatalf("unexpected counters %v", errs)
	}
}

func TestRow_RowSurvivesBadField(t *testing.T) {
	// One undecodable cell must not poison the rest of the row.
	b := dbasetest.NewTable(
		dbasetest.Field{Name: "CTOTAL", Type: 'N', Length: 12},
		dbasetest.Field{Name: "NOMBRE", Type: 'C', Length: 10},
	).Row("xx", "CAJA1")

	_, row := openOne(t, b, dbase.Latin1())

	if _, st := row.Decimal("CTOTAL"); st != dbase.FieldFailed {
		t.Fatalf("expected failed total, got %v", st)
	}
	if v, st := row.String("NOMBRE"); st != dbase.FieldOK || v != "CAJA1" {
		t.Fatalf("name should still read: %q %v", v, st)
	}
}

func TestCodepage_DecodesLegacyBytes(t *testing.T) {
	// 0xA4 is n-with-tilde in CP850 but a currency sign in Latin-1.
	raw := []byte{'P', 0xA4, 'A'}
	b := dbasetest.NewTable(dbasetest.Field{Name: "NOMBRE", Type: 'C', Length: 5}).Row(raw)

	cp850, err := dbase.LookupCodepage("cp850")
	if err != nil {
		t.Fatal(err)
	}
	_, row := openOne(t, b, cp850)
	if v, _ := row.String("NOMBRE"); v != "PñA" {
		t.Fatalf("cp850 decode: %q", v)
	}

	b2 := dbasetest.NewTable(dbasetest.Field{Name: "NOMBRE", Type: 'C', Length: 5}).Row(raw)
	_, row2 := openOne(t, b2, dbase.Latin1())
	if v, _ := row2.String("NOMBRE"); v != "P¤A" {
		t.Fatalf("latin1 decode: %q", v)
	}
}

func TestLookupCodepage_Aliases(t *testing.T) {
	for _, name := range []string{"windows-1252", "WINDOWS_1252", "Windows1252"} {
		if _, err := dbase.LookupCodepage(name); err != nil {
			t.Fatalf("alias %q should resolve: %v", name, err)
		}
	}
	if _, err := dbase.LookupCodepage("klingon"); err == nil {
		t.Fatal("expected error for unknown codepage")
	}
}

func TestCodepageFromCandidates_FallsBackToLatin1(t *testing.T) {
	cp := dbase.CodepageFromCandidates([]string{"klingon", "cp850"})
	if cp.Name() != "cp850" {
		t.Fatalf("expected cp850, got %s", cp.Name())
	}
	cp = dbase.CodepageFromCandidates([]string{"klingon"})
	if cp.Name() != "latin1" {
		t.Fatalf("expected latin1 fallback, got %s", cp.Name())
	}
}
