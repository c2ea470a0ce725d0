package config

import (
	"fmt"
	"os"
	"strings"

	"bitbucket.org/mmdatafocus/cortes_backend/utils"
	"github.com/joho/godotenv"
)

// TableKind identifies one of the three legacy tables the engine reads.
type TableKind string

const (
	TableCuts      TableKind = "cuts"
	TableRegisters TableKind = "registers"
	TableLedger    TableKind = "ledger"
)

func init() {
	// Load env from .env. Missing file is fine; real deployments set env directly.
	godotenv.Load()
}

// TablePaths holds the operator-configured locations of the legacy tables.
// The legacy system owns these files; we only ever open them read-only.
type TablePaths struct {
	Cuts      string
	Registers string
	Ledger    string
}

// Env:
// - CORTES_CUTS_TABLE      path to the register-cut table (CORTES.DBF)
// - CORTES_REGISTERS_TABLE path to the register directory (CAJAS.DBF)
// - CORTES_LEDGER_TABLE    path to the ledger document table (DOCTOS.DBF)
func GetTablePaths() TablePaths {
	return TablePaths{
		Cuts:      strings.TrimSpace(os.Getenv("CORTES_CUTS_TABLE")),
		Registers: strings.TrimSpace(os.Getenv("CORTES_REGISTERS_TABLE")),
		Ledger:    strings.TrimSpace(os.Getenv("CORTES_LEDGER_TABLE")),
	}
}

// Path returns the configured path for one table kind ("" when unknown).
func (p TablePaths) Path(kind TableKind) string {
	switch kind {
	case TableCuts:
		return p.Cuts
	case TableRegisters:
		return p.Registers
	case TableLedger:
		return p.Ledger
	}
	return ""
}

// Validate is the fatal precondition gate: a reconciliation must not start
// with a blank path. It reports the first missing key by name so the operator
// screen can show which setting is incomplete, not a generic IO failure.
func (p TablePaths) Validate() error {
	if p.Cuts == "" {
		return fmt.Errorf("%w: CORTES_CUTS_TABLE is not set", utils.ErrConfigIncomplete)
	}
	if p.Registers == "" {
		return fmt.Errorf("%w: CORTES_REGISTERS_TABLE is not set", utils.ErrConfigIncomplete)
	}
	if p.Ledger == "" {
		return fmt.Errorf("%w: CORTES_LEDGER_TABLE is not set", utils.ErrConfigIncomplete)
	}
	return nil
}

// CodepageCandidates returns the prioritized codepage list for decoding text
// fields out of the legacy tables. The files predate Unicode; which single-byte
// page a given deployment used is folklore, so the operator can override.
//
// Env:
// - CORTES_CODEPAGES comma-separated, e.g. "cp850,windows-1252"
func CodepageCandidates() []string {
	raw := strings.TrimSpace(os.Getenv("CORTES_CODEPAGES"))
	if raw == "" {
		return []string{"cp850", "windows-1252"}
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
