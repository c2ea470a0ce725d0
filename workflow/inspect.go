package workflow

import (
	"os"
	"time"

	"bitbucket.org/mmdatafocus/cortes_backend/config"
	"bitbucket.org/mmdatafocus/cortes_backend/dbase"
)

// ColumnInfo is one schema entry the operator screen renders.
type ColumnInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Length   int    `json:"length"`
	Decimals int    `json:"decimals"`
}

// TableInfo is the path-validation report: it answers "is this file the table
// the operator thinks it is" before a reconciliation run is ever attempted.
type TableInfo struct {
	Path         string       `json:"path"`
	Exists       bool         `json:"exists"`
	SizeBytes    int64        `json:"size_bytes"`
	ModTime      time.Time    `json:"mod_time,omitempty"`
	RecordCount  int          `json:"record_count"`
	Columns      []ColumnInfo `json:"columns,omitempty"`
	CodepageHint string       `json:"codepage_hint,omitempty"`

	// ExpectedColumns maps each column the given table kind needs to whether
	// the file declares it. Empty for an unknown kind.
	ExpectedColumns map[string]bool `json:"expected_columns,omitempty"`

	// Error carries a non-fatal diagnosis (unreadable header etc.); the
	// inspection itself only fails on IO errors other than absence.
	Error string `json:"error,omitempty"`
}

// InspectTable reports existence, size, schema and row count for one legacy
// table path. A missing file is a finding, not an error: the report comes back
// with Exists=false so the operator screen can say so.
func InspectTable(path string, cp dbase.Codepage, kind config.TableKind) (*TableInfo, error) {
	info := &TableInfo{Path: path}

	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return info, nil
		}
		return nil, err
	}
	info.Exists = true
	info.SizeBytes = fi.Size()
	info.ModTime = fi.ModTime()

	t, err := dbase.Open(path, cp)
	if err != nil {
		info.Error = err.Error()
		return info, nil
	}
	defer t.Close()

	info.RecordCount = t.RecordCount()
	info.CodepageHint = t.LanguageDriverHint()

	declared := map[string]bool{}
	for _, c := range t.Columns() {
		declared[c.Name] = true
		info.Columns = append(info.Columns, ColumnInfo{
			Name:     c.Name,
			Type:     string(c.Type),
			Length:   c.Length,
			Decimals: c.Decimals,
		})
	}

	if expected, ok := expectedColumns[kind]; ok {
		info.ExpectedColumns = make(map[string]bool, len(expected))
		for _, name := range expected {
			info.ExpectedColumns[name] = declared[name]
		}
	}
	return info, nil
}
