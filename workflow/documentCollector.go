package workflow

import (
	"errors"
	"io"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/cortes_backend/config"
	"bitbucket.org/mmdatafocus/cortes_backend/dbase"
	"bitbucket.org/mmdatafocus/cortes_backend/models"
	"bitbucket.org/mmdatafocus/cortes_backend/utils"
	"github.com/sirupsen/logrus"
)

// CollectDocuments scans the ledger table once for the target date, keeping
// rows whose series (trimmed, case-insensitive) is one of the candidates.
// The ledger is the largest table in the system: it is streamed exactly once
// per run and never materialized twice. Rows failing date or series decoding
// are skipped and counted, not fatal.
func CollectDocuments(logger *logrus.Logger, ledgerPath string, cp dbase.Codepage, date time.Time, series []string) ([]models.DocumentRecord, models.ScanStats, error) {
	stats := models.ScanStats{}

	wanted := make(map[string]bool, len(series))
	for _, s := range series {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			wanted[s] = true
		}
	}

	t, err := dbase.Open(ledgerPath, cp)
	if err != nil {
		config.LogError(logger, "documentCollector.go", "CollectDocuments", "opening ledger table", ledgerPath, err)
		return nil, stats, err
	}
	defer t.Close()

	var docs []models.DocumentRecord
	for {
		row, err := t.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, err
		}
		stats.Scanned++

		docDate, st := row.Date(colDocDate)
		if !st.Usable() {
			stats.Skipped++
			continue
		}
		if !utils.SameDay(docDate, date) {
			continue
		}

		docSeries, st := row.String(colDocSeries)
		if !st.Usable() {
			stats.Skipped++
			continue
		}
		if !wanted[strings.ToUpper(strings.TrimSpace(docSeries))] {
			continue
		}

		// Total degrades to zero rather than dropping the document; the
		// aggregate counters tell the caller how much to trust the run.
		total, _ := row.Decimal(colDocTotal)
		docID, _ := row.String(colDocID)
		folio, _ := row.String(colDocFolio)
		registerText, _ := row.String(colDocRegister)

		docs = append(docs, models.DocumentRecord{
			DocumentID:   docID,
			Series:       strings.TrimSpace(docSeries),
			Folio:        folio,
			Date:         docDate,
			Total:        total,
			RegisterText: registerText,
		})
		stats.Matched++
	}
	stats.FieldErrors = t.FieldErrors()
	return docs, stats, nil
}
