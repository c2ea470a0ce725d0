// Package dbase reads the legacy flat-file tables (xBase family: fixed-length
// records behind a binary header, one soft-delete flag byte per record).
//
// The reader is deliberately defensive. These files are decades old, still
// being appended to by the originating system while we read them, and full of
// fields whose declared type stopped being honored years ago. Nothing short of
// failing to open the file is fatal: malformed cells degrade, truncated
// trailing records end the scan, and inconsistent headers are clamped to what
// the file can actually hold.
package dbase

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"bitbucket.org/mmdatafocus/cortes_backend/utils"
)

const (
	headerSize     = 32
	descriptorSize = 32

	deletedFlag = '*'
	activeFlag  = ' '
	eofMarker   = 0x1A
)

// Column is one field descriptor from the table header, available before the
// first record is read.
type Column struct {
	Name     string
	Type     byte // declared xBase type: C N F D L I T Y M B
	Length   int
	Decimals int
}

// Table is a forward-only, non-restartable cursor over one legacy table file.
// It is not safe for concurrent use; concurrent runs each open their own Table.
type Table struct {
	// SkipDeleted controls whether soft-deleted records are surfaced.
	// All collectors leave it on; set to false before the first Next to see
	// deleted records too (diagnostics).
	SkipDeleted bool

	f           *os.File
	path        string
	cp          Codepage
	columns     []Column
	offsets     []int // field byte offset within a record, after the flag byte
	recordCount int
	headerLen   int
	recordLen   int
	langDriver  byte
	pos         int
	fieldErrs   map[string]int
}

// Open opens a legacy table for shared read access. The originating system may
// still be writing to the file; no lock is taken or required.
func Open(path string, cp Codepage) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", utils.ErrTableNotFound, path)
		}
		return nil, fmt.Errorf("opening legacy table %s: %w", path, err)
	}

	t := &Table{
		SkipDeleted: true,
		f:           f,
		path:        path,
		cp:          cp,
		fieldErrs:   map[string]int{},
	}
	if err := t.readHeader(); err != nil {
		f.Close()
		return nil, fmt.Errorf("reading header of %s: %w", path, err)
	}
	return t, nil
}

func (t *Table) readHeader() error {
	var h [headerSize]byte
	if _, err := io.ReadFull(t.f, h[:]); err != nil {
		return fmt.Errorf("not a legacy table (short header): %w", err)
	}

	t.recordCount = int(binary.LittleEndian.Uint32(h[4:8]))
	t.headerLen = int(binary.LittleEndian.Uint16(h[8:10]))
	t.recordLen = int(binary.LittleEndian.Uint16(h[10:12]))
	t.langDriver = h[29]

	if t.headerLen < headerSize+1 || t.recordLen < 1 {
		return fmt.Errorf("not a legacy table (header length %d, record length %d)", t.headerLen, t.recordLen)
	}

	// Field descriptors run from byte 32 to the 0x0D terminator. A header
	// length that disagrees with the terminator is tolerated; the terminator
	// wins for the descriptor count, the header length wins for record offsets.
	maxDescriptors := (t.headerLen - headerSize - 1) / descriptorSize
	offset := 0
	for i := 0; i < maxDescriptors; i++ {
		var d [descriptorSize]byte
		if _, err := io.ReadFull(t.f, d[:1]); err != nil {
			return fmt.Errorf("truncated field descriptors: %w", err)
		}
		if d[0] == 0x0D {
			break
		}
		if _, err := io.ReadFull(t.f, d[1:]); err != nil {
			return fmt.Errorf("truncated field descriptors: %w", err)
		}

		name := descriptorName(d[:11])
		if name == "" {
			name = fmt.Sprintf("FIELD%d", i+1)
		}
		col := Column{
			Name:     name,
			Type:     d[11],
			Length:   int(d[16]),
			Decimals: int(d[17]),
		}
		t.columns = append(t.columns, col)
		t.offsets = append(t.offsets, offset)
		offset += col.Length
	}
	if len(t.columns) == 0 {
		return fmt.Errorf("table declares no fields")
	}

	// Clamp the declared record count to what the file actually holds. A
	// half-appended trailing record is ignored, not an error.
	if fi, err := t.f.Stat(); err == nil {
		if avail := (fi.Size() - int64(t.headerLen)) / int64(t.recordLen); avail < int64(t.recordCount) {
			if avail < 0 {
				avail = 0
			}
			t.recordCount = int(avail)
		}
	}
	return nil
}

func descriptorName(b []byte) string {
	end := len(b)
	for i, c := range b {
		if c == 0 {
			end = i
			break
		}
	}
	out := make([]byte, 0, end)
	for _, c := range b[:end] {
		if c == ' ' {
			continue
		}
		out = append(out, c)
	}
	return string(out)
}

// Columns returns the declared schema. The slice is shared; callers must not modify it.
func (t *Table) Columns() []Column {
	return t.columns
}

// RecordCount is the declared record count clamped to the file size, including
// soft-deleted records.
func (t *Table) RecordCount() int {
	return t.recordCount
}

// Codepage returns the codepage this table decodes text cells with.
func (t *Table) Codepage() Codepage {
	return t.cp
}

// LanguageDriverHint names the codepage suggested by the header's
// language-driver byte, or "" when the byte is unknown. Diagnostic only.
func (t *Table) LanguageDriverHint() string {
	return languageDriverHints[t.langDriver]
}

// FieldErrors returns a copy of the per-column decode error counters
// accumulated so far by typed cell reads.
func (t *Table) FieldErrors() map[string]int {
	out := make(map[string]int, len(t.fieldErrs))
	for k, v := range t.fieldErrs {
		out[k] = v
	}
	return out
}

// Next returns the next record, skipping soft-deleted records when SkipDeleted
// is set. It returns io.EOF at the end of the table; a short trailing record
// (the legacy system mid-append) also ends the scan cleanly.
func (t *Table) Next() (*Row, error) {
	for t.pos < t.recordCount {
		recNo := t.pos
		buf := make([]byte, t.recordLen)
		n, err := t.f.ReadAt(buf, int64(t.headerLen)+int64(recNo)*int64(t.recordLen))
		if n < t.recordLen {
			if err == io.EOF || err == io.ErrUnexpectedEOF || err == nil {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("reading record %d of %s: %w", recNo, t.path, err)
		}
		t.pos++

		if buf[0] == eofMarker {
			return nil, io.EOF
		}
		if buf[0] == deletedFlag && t.SkipDeleted {
			continue
		}
		return &Row{table: t, data: buf, recNo: recNo}, nil
	}
	return nil, io.EOF
}

func (t *Table) Close() error {
	return t.f.Close()
}
