package models

// BranchSeries is the per-branch assignment of which ledger series code
// represents which document category.
type BranchSeries struct {
	Client  string `json:"client"`
	Global  string `json:"global"`
	Returns string `json:"returns"`
}

// Empty reports whether the branch resolved to no series at all.
func (s BranchSeries) Empty() bool {
	return s.Client == "" && s.Global == "" && s.Returns == ""
}

// Codes returns the non-empty series codes, for the ledger scan filter.
func (s BranchSeries) Codes() []string {
	var out []string
	for _, c := range []string{s.Client, s.Global, s.Returns} {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

// branchSeriesCatalog is the deployed branch-to-series table. Branch names are
// exact and case-sensitive: they come from the operator's own configuration,
// not from legacy files.
var branchSeriesCatalog = map[string]BranchSeries{
	"Himno":   {Client: "COH", Global: "FGIH", Returns: "DFCH"},
	"Centro":  {Client: "COC", Global: "FGIC", Returns: "DFCC"},
	"Aurora":  {Client: "COA", Global: "FGIA", Returns: "DFCA"},
	"Bosques": {Client: "COB", Global: "FGIB", Returns: "DFCB"},
	"Mirador": {Client: "COM", Global: "FGIM", Returns: "DFCM"},
}

// ResolveBranchSeries maps a branch name to its series codes. An unknown
// branch resolves to the all-empty BranchSeries on purpose: the reconciliation
// then matches nothing and yields an empty report instead of an error.
func ResolveBranchSeries(branch string) BranchSeries {
	return branchSeriesCatalog[branch]
}

// KnownBranches lists the catalog's branch names (order unspecified).
func KnownBranches() []string {
	out := make([]string, 0, len(branchSeriesCatalog))
	for name := range branchSeriesCatalog {
		out = append(out, name)
	}
	return out
}
