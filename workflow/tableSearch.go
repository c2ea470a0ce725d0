package workflow

import (
	"errors"
	"fmt"
	"io"

	"bitbucket.org/mmdatafocus/cortes_backend/config"
	"bitbucket.org/mmdatafocus/cortes_backend/dbase"
	"bitbucket.org/mmdatafocus/cortes_backend/utils"
	"github.com/sirupsen/logrus"
)

// MatchMode selects how search criteria compare against cell values.
type MatchMode string

const (
	// MatchExact: trimmed, case-insensitive equality.
	MatchExact MatchMode = "exact"
	// MatchContains: case-insensitive substring containment.
	MatchContains MatchMode = "contains"
)

const (
	defaultChunkSize = 500
	maxChunkSize     = 5000
)

// SearchRow is one matching record, cells stringified for display.
type SearchRow struct {
	RecNo int               `json:"recno"`
	Cells map[string]string `json:"cells"`
}

// SearchResult reports matches plus how much was scanned, so a caller can
// drive progress reporting and judge coverage regardless of match outcome.
type SearchResult struct {
	Rows    []SearchRow `json:"rows"`
	Scanned int         `json:"scanned"`
	Corrupt int         `json:"corrupt"`
}

// SearchTable is the free-form diagnostic scan over any legacy table: every
// given field must match its value (logical AND). Rows are buffered in chunks
// of chunkSize to bound memory; each full chunk is appended to the result and
// a fresh buffer started. A structurally corrupt record (a criteria field
// outside the record's bounds) is skipped and logged with its record number,
// never fatal to the scan.
func SearchTable(logger *logrus.Logger, path string, cp dbase.Codepage, fields, values []string, mode MatchMode, chunkSize int) (*SearchResult, error) {
	if len(fields) == 0 || len(fields) != len(values) {
		return nil, fmt.Errorf("search needs matching field and value lists, got %d fields and %d values", len(fields), len(values))
	}
	if mode != MatchExact && mode != MatchContains {
		return nil, fmt.Errorf("unknown match mode %q", mode)
	}
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	if chunkSize > maxChunkSize {
		chunkSize = maxChunkSize
	}

	t, err := dbase.Open(path, cp)
	if err != nil {
		config.LogError(logger, "tableSearch.go", "SearchTable", "opening table", path, err)
		return nil, err
	}
	defer t.Close()

	columns := t.Columns()
	result := &SearchResult{}
	chunk := make([]SearchRow, 0, chunkSize)

	for {
		row, err := t.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		result.Scanned++

		matched := true
		corrupt := false
		for i, field := range fields {
			cell, st := row.String(field)
			if !st.Usable() {
				corrupt = true
				break
			}
			switch mode {
			case MatchExact:
				if !utils.FoldEquals(cell, values[i]) {
					matched = false
				}
			case MatchContains:
				if !utils.FoldContains(cell, values[i]) {
					matched = false
				}
			}
			if !matched {
				break
			}
		}
		if corrupt {
			result.Corrupt++
			config.LogWarn(logger, "tableSearch.go", "SearchTable", "corrupt record skipped", row.RecNo())
			continue
		}
		if !matched {
			continue
		}

		cells := make(map[string]string, len(columns))
		for _, c := range columns {
			cells[c.Name] = row.Display(c.Name)
		}
		chunk = append(chunk, SearchRow{RecNo: row.RecNo(), Cells: cells})
		if len(chunk) == chunkSize {
			result.Rows = append(result.Rows, chunk...)
			chunk = make([]SearchRow, 0, chunkSize)
		}
	}
	result.Rows = append(result.Rows, chunk...)
	return result, nil
}
