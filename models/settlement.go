package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CutRecord is one end-of-day register cut pulled from the cut table, with the
// register name already resolved through the register directory. Transient:
// lives only for the duration of a reconciliation run.
type CutRecord struct {
	RegisterID   int
	RegisterName string
	InvoicesBlob string
	ReturnsBlob  string
}

// RegisterDirectoryEntry maps a register id to its display name. The directory
// is a small master table read once per run; the legacy format has no index,
// so resolution is a linear scan.
type RegisterDirectoryEntry struct {
	RegisterID   int
	RegisterName string
}

// DocumentRecord is one ledger document for the target date in one of the
// branch's series.
type DocumentRecord struct {
	DocumentID   string
	Series       string
	Folio        string
	Date         time.Time
	Total        decimal.Decimal
	RegisterText string
}

// DocumentReference is a join key decoded from a cut's blob cells; never persisted.
type DocumentReference struct {
	DocumentID string
	Series     string
	Folio      string
}

// SettlementRow is the reconciled output for one cut:
// Total = Invoiced + GlobalSales - Returned, exact decimal arithmetic.
// A cut whose three buckets are all zero emits no row.
type SettlementRow struct {
	Date         string          `json:"date"`
	RegisterName string          `json:"register_name"`
	Invoiced     decimal.Decimal `json:"invoiced"`
	Returned     decimal.Decimal `json:"returned"`
	GlobalSales  decimal.Decimal `json:"global_sales"`
	Total        decimal.Decimal `json:"total"`
}

// ScanStats summarizes one table scan. Returned by value so callers can judge
// whether the result is trustworthy; there are no ambient counters anywhere.
type ScanStats struct {
	Scanned     int            `json:"scanned"`
	Matched     int            `json:"matched"`
	Skipped     int            `json:"skipped"`
	FieldErrors map[string]int `json:"field_errors,omitempty"`
}

// SettlementResult is everything one reconciliation run produced. Rows keep
// the order cuts were encountered in; sorting is the caller's concern.
type SettlementResult struct {
	Branch string          `json:"branch"`
	Date   string          `json:"date"`
	Rows   []SettlementRow `json:"rows"`
	Cuts   ScanStats       `json:"cuts"`
	Docs   ScanStats       `json:"docs"`

	// MultiMatched counts ledger documents claimed by the reference lists of
	// more than one cut. The legacy data model does not say whether that is
	// legitimate, so it is flagged, never silently resolved.
	MultiMatched int `json:"multi_matched"`
}
