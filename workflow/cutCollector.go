package workflow

import (
	"errors"
	"io"
	"time"

	"bitbucket.org/mmdatafocus/cortes_backend/config"
	"bitbucket.org/mmdatafocus/cortes_backend/dbase"
	"bitbucket.org/mmdatafocus/cortes_backend/models"
	"bitbucket.org/mmdatafocus/cortes_backend/utils"
	"github.com/sirupsen/logrus"
)

// loadRegisterDirectory reads the whole register master table into memory.
// It is a handful of rows; the cut scan then resolves names against the slice.
func loadRegisterDirectory(logger *logrus.Logger, path string, cp dbase.Codepage) ([]models.RegisterDirectoryEntry, error) {
	t, err := dbase.Open(path, cp)
	if err != nil {
		config.LogError(logger, "cutCollector.go", "loadRegisterDirectory", "opening register directory", path, err)
		return nil, err
	}
	defer t.Close()

	var entries []models.RegisterDirectoryEntry
	for {
		row, err := t.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		id, st := row.Int(colRegisterID)
		if !st.Usable() {
			continue
		}
		name, _ := row.String(colRegisterName)
		entries = append(entries, models.RegisterDirectoryEntry{RegisterID: id, RegisterName: name})
	}
	return entries, nil
}

// resolveRegisterName is the linear scan the legacy format forces: no index,
// no key, just walk the directory. "" means the register is unknown.
func resolveRegisterName(directory []models.RegisterDirectoryEntry, registerID int) string {
	for _, e := range directory {
		if e.RegisterID == registerID {
			return e.RegisterName
		}
	}
	return ""
}

// CollectCuts scans the cut table once for the target date (date portion only,
// time-of-day ignored) and resolves each cut's register name through the
// directory table. A cut whose register id has no directory entry is dropped:
// a settlement row cannot be attributed to an unknown register. Rows with
// unreadable dates or register ids are skipped and counted, never fatal.
func CollectCuts(logger *logrus.Logger, cutsPath, registersPath string, cp dbase.Codepage, date time.Time) ([]models.CutRecord, models.ScanStats, error) {
	stats := models.ScanStats{}

	directory, err := loadRegisterDirectory(logger, registersPath, cp)
	if err != nil {
		return nil, stats, err
	}

	t, err := dbase.Open(cutsPath, cp)
	if err != nil {
		config.LogError(logger, "cutCollector.go", "CollectCuts", "opening cut table", cutsPath, err)
		return nil, stats, err
	}
	defer t.Close()

	var cuts []models.CutRecord
	for {
		row, err := t.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, err
		}
		stats.Scanned++

		cutDate, st := row.Date(colCutDate)
		if !st.Usable() {
			stats.Skipped++
			continue
		}
		if !utils.SameDay(cutDate, date) {
			continue
		}

		registerID, st := row.Int(colCutRegister)
		if !st.Usable() {
			stats.Skipped++
			continue
		}

		registerName := resolveRegisterName(directory, registerID)
		if registerName == "" {
			stats.Skipped++
			config.LogWarn(logger, "cutCollector.go", "CollectCuts", "cut dropped: register not in directory", registerID)
			continue
		}

		invoicesBlob, _ := row.String(colCutInvoices)
		returnsBlob, _ := row.String(colCutReturns)

		cuts = append(cuts, models.CutRecord{
			RegisterID:   registerID,
			RegisterName: registerName,
			InvoicesBlob: invoicesBlob,
			ReturnsBlob:  returnsBlob,
		})
		stats.Matched++
	}
	stats.FieldErrors = t.FieldErrors()
	return cuts, stats, nil
}
