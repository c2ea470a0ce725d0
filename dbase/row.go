package dbase

import (
	"encoding/binary"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FieldStatus reports how a typed cell read resolved.
type FieldStatus int

const (
	// FieldOK: the declared-type read succeeded.
	FieldOK FieldStatus = iota
	// FieldDegraded: the declared-type read failed but the generic
	// stringify-then-reparse fallback produced a usable value. Counted in the
	// table's per-column error counters.
	FieldDegraded
	// FieldFailed: nothing usable; the zero value is returned and counted.
	FieldFailed
)

// Usable reports whether the read produced a value a caller may rely on.
func (s FieldStatus) Usable() bool {
	return s != FieldFailed
}

// Row is one record. Cell reads are typed-with-fallback: the declared type is
// tried first, then a generic stringify path; a row is never discarded just
// because one cell failed to decode as its preferred type.
type Row struct {
	table *Table
	data  []byte
	recNo int
}

// RecNo is the zero-based physical record number, including deleted records.
func (r *Row) RecNo() int {
	return r.recNo
}

// Deleted reports the soft-delete flag (only observable with SkipDeleted off).
func (r *Row) Deleted() bool {
	return len(r.data) > 0 && r.data[0] == deletedFlag
}

// raw returns the cell bytes for column index i, bounds-checked against the
// actual record buffer: a descriptor that overruns the record yields nothing
// instead of a panic.
func (r *Row) raw(i int) ([]byte, bool) {
	if i < 0 || i >= len(r.table.columns) {
		return nil, false
	}
	start := 1 + r.table.offsets[i]
	end := start + r.table.columns[i].Length
	if start >= len(r.data) || end > len(r.data) {
		return nil, false
	}
	return r.data[start:end], true
}

func (r *Row) colIndex(name string) int {
	for i, c := range r.table.columns {
		if strings.EqualFold(c.Name, name) {
			return i
		}
	}
	return -1
}

func (r *Row) countErr(name string) {
	r.table.fieldErrs[strings.ToUpper(name)]++
}

// text decodes a cell through the table codepage, trimmed of the
// space/NUL padding every fixed-width cell carries.
func (r *Row) text(i int) string {
	b, ok := r.raw(i)
	if !ok {
		return ""
	}
	return strings.Trim(r.table.cp.Decode(b), " \x00")
}

// String reads a cell as text. Any declared type stringifies; the only failure
// is a missing column or a descriptor past the end of the record.
func (r *Row) String(name string) (string, FieldStatus) {
	i := r.colIndex(name)
	if i < 0 {
		r.countErr(name)
		return "", FieldFailed
	}
	if _, ok := r.raw(i); !ok {
		r.countErr(name)
		return "", FieldFailed
	}
	return r.Display(name), FieldOK
}

// Int reads a cell as an integer: binary int32 for declared I, numeric text
// for N/F, then the generic text fallback for everything else.
func (r *Row) Int(name string) (int, FieldStatus) {
	i := r.colIndex(name)
	if i < 0 {
		r.countErr(name)
		return 0, FieldFailed
	}
	b, ok := r.raw(i)
	if !ok {
		r.countErr(name)
		return 0, FieldFailed
	}

	switch r.table.columns[i].Type {
	case 'I':
		if len(b) >= 4 {
			return int(int32(binary.LittleEndian.Uint32(b[:4]))), FieldOK
		}
	case 'N', 'F':
		if v, err := strconv.Atoi(strings.TrimSpace(string(b))); err == nil {
			return v, FieldOK
		}
	}

	if v, err := strconv.Atoi(cleanNumeric(r.text(i))); err == nil {
		r.countErr(name)
		return v, FieldDegraded
	}
	if f, err := strconv.ParseFloat(cleanNumeric(r.text(i)), 64); err == nil {
		r.countErr(name)
		return int(f), FieldDegraded
	}
	r.countErr(name)
	return 0, FieldFailed
}

// Decimal reads a cell as an exact decimal amount. Declared N/F parse as
// numeric text, Y as the binary currency type (four implied decimals), I as a
// binary integer; the fallback strips grouping characters from the text form.
func (r *Row) Decimal(name string) (decimal.Decimal, FieldStatus) {
	i := r.colIndex(name)
	if i < 0 {
		r.countErr(name)
		return decimal.Zero, FieldFailed
	}
	b, ok := r.raw(i)
	if !ok {
		r.countErr(name)
		return decimal.Zero, FieldFailed
	}

	switch r.table.columns[i].Type {
	case 'N', 'F':
		if v, err := decimal.NewFromString(strings.TrimSpace(string(b))); err == nil {
			return v, FieldOK
		}
	case 'Y':
		if len(b) >= 8 {
			raw := int64(binary.LittleEndian.Uint64(b[:8]))
			return decimal.New(raw, -4), FieldOK
		}
	case 'I':
		if len(b) >= 4 {
			return decimal.NewFromInt(int64(int32(binary.LittleEndian.Uint32(b[:4])))), FieldOK
		}
	}

	if v, err := decimal.NewFromString(cleanNumeric(r.text(i))); err == nil {
		r.countErr(name)
		return v, FieldDegraded
	}
	r.countErr(name)
	return decimal.Zero, FieldFailed
}

// Date reads a cell as a calendar date: YYYYMMDD text for declared D, the
// binary day+milliseconds pair for declared T, then common display layouts
// from the text fallback. An empty or unreadable cell fails; whether that
// drops the row is the caller's decision.
func (r *Row) Date(name string) (time.Time, FieldStatus) {
	i := r.colIndex(name)
	if i < 0 {
		r.countErr(name)
		return time.Time{}, FieldFailed
	}
	b, ok := r.raw(i)
	if !ok {
		r.countErr(name)
		return time.Time{}, FieldFailed
	}

	switch r.table.columns[i].Type {
	case 'D':
		if v, err := time.Parse("20060102", strings.TrimSpace(string(b))); err == nil {
			return v, FieldOK
		}
	case 'T':
		if len(b) >= 8 {
			day := int32(binary.LittleEndian.Uint32(b[:4]))
			ms := int32(binary.LittleEndian.Uint32(b[4:8]))
			if day > 0 {
				return julianToTime(int(day), int(ms)), FieldOK
			}
		}
	}

	txt := r.text(i)
	for _, layout := range []string{"20060102", "02/01/2006", "2006-01-02"} {
		if v, err := time.Parse(layout, txt); err == nil {
			r.countErr(name)
			return v, FieldDegraded
		}
	}
	r.countErr(name)
	return time.Time{}, FieldFailed
}

// Bool reads a declared-L cell. The legacy '?' (uninitialized) resolves to
// false, degraded.
func (r *Row) Bool(name string) (bool, FieldStatus) {
	i := r.colIndex(name)
	if i < 0 {
		r.countErr(name)
		return false, FieldFailed
	}
	b, ok := r.raw(i)
	if !ok || len(b) == 0 {
		r.countErr(name)
		return false, FieldFailed
	}

	switch b[0] {
	case 'T', 't', 'Y', 'y':
		return true, FieldOK
	case 'F', 'f', 'N', 'n', ' ':
		return false, FieldOK
	}
	r.countErr(name)
	return false, FieldDegraded
}

// Display stringifies a cell for diagnostics and ad-hoc search, rendering
// binary types readably. It never fails and never counts errors; a cell that
// cannot be rendered is the empty string.
func (r *Row) Display(name string) string {
	i := r.colIndex(name)
	if i < 0 {
		return ""
	}
	b, ok := r.raw(i)
	if !ok {
		return ""
	}

	switch r.table.columns[i].Type {
	case 'I':
		if len(b) >= 4 {
			return strconv.Itoa(int(int32(binary.LittleEndian.Uint32(b[:4]))))
		}
	case 'Y':
		if len(b) >= 8 {
			return decimal.New(int64(binary.LittleEndian.Uint64(b[:8])), -4).String()
		}
	case 'T':
		if len(b) >= 8 {
			day := int32(binary.LittleEndian.Uint32(b[:4]))
			if day > 0 {
				ms := int32(binary.LittleEndian.Uint32(b[4:8]))
				return julianToTime(int(day), int(ms)).Format("02/01/2006 15:04:05")
			}
			return ""
		}
	}
	return r.text(i)
}

func cleanNumeric(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "$", "")
	return s
}

// julianToTime converts the legacy datetime pair (julian day number plus
// milliseconds since midnight) to a UTC time. JDN 2440588 is 1970-01-01.
func julianToTime(day, ms int) time.Time {
	const unixEpochJDN = 2440588
	return time.Unix(int64(day-unixEpochJDN)*86400, 0).UTC().
		Add(time.Duration(ms) * time.Millisecond)
}
