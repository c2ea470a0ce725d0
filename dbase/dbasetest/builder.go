// Package dbasetest builds small synthetic legacy table files for tests.
// It is test support only; the engine itself never writes the legacy format.
package dbasetest

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
)

type Field struct {
	Name     string
	Type     byte
	Length   int
	Decimals int
}

// TableBuilder accumulates records and renders the binary table layout:
// 32-byte header, 32-byte field descriptors, 0x0D terminator, fixed-length
// records, 0x1A end marker.
type TableBuilder struct {
	fields        []Field
	records       [][]byte
	langDriver    byte
	declaredCount int
	truncateTail  int
}

func NewTable(fields ...Field) *TableBuilder {
	return &TableBuilder{fields: fields, declaredCount: -1}
}

func (b *TableBuilder) LangDriver(id byte) *TableBuilder {
	b.langDriver = id
	return b
}

// DeclareRecords overrides the header's record count, for testing headers that
// promise more records than the file holds.
func (b *TableBuilder) DeclareRecords(n int) *TableBuilder {
	b.declaredCount = n
	return b
}

// TruncateTail drops the last n bytes of the file body, simulating the legacy
// system caught mid-append.
func (b *TableBuilder) TruncateTail(n int) *TableBuilder {
	b.truncateTail = n
	return b
}

// Row appends an active record. Each cell is a string (padded or truncated to
// the field width; numeric fields right-aligned) or a []byte written verbatim.
func (b *TableBuilder) Row(cells ...any) *TableBuilder {
	return b.record(' ', cells)
}

// DeletedRow appends a soft-deleted record.
func (b *TableBuilder) DeletedRow(cells ...any) *TableBuilder {
	return b.record('*', cells)
}

func (b *TableBuilder) record(flag byte, cells []any) *TableBuilder {
	rec := []byte{flag}
	for i, f := range b.fields {
		cell := make([]byte, f.Length)
		for j := range cell {
			cell[j] = ' '
		}
		if i < len(cells) {
			switch v := cells[i].(type) {
			case string:
				copy(cell, padCell(v, f))
			case []byte:
				copy(cell, v)
			default:
				panic(fmt.Sprintf("dbasetest: cell %d must be string or []byte", i))
			}
		}
		rec = append(rec, cell...)
	}
	b.records = append(b.records, rec)
	return b
}

func padCell(v string, f Field) []byte {
	if len(v) > f.Length {
		v = v[:f.Length]
	}
	if f.Type == 'N' || f.Type == 'F' {
		return []byte(fmt.Sprintf("%*s", f.Length, v))
	}
	return []byte(fmt.Sprintf("%-*s", f.Length, v))
}

// Bytes renders the table file.
func (b *TableBuilder) Bytes() []byte {
	headerLen := 32 + 32*len(b.fields) + 1
	recordLen := 1
	for _, f := range b.fields {
		recordLen += f.Length
	}
	count := len(b.records)
	if b.declaredCount >= 0 {
		count = b.declaredCount
	}

	out := make([]byte, 32)
	out[0] = 0x03
	out[1], out[2], out[3] = 24, 3, 1
	binary.LittleEndian.PutUint32(out[4:8], uint32(count))
	binary.LittleEndian.PutUint16(out[8:10], uint16(headerLen))
	binary.LittleEndian.PutUint16(out[10:12], uint16(recordLen))
	out[29] = b.langDriver

	for _, f := range b.fields {
		d := make([]byte, 32)
		copy(d[:11], f.Name)
		d[11] = f.Type
		d[16] = byte(f.Length)
		d[17] = byte(f.Decimals)
		out = append(out, d...)
	}
	out = append(out, 0x0D)

	for _, rec := range b.records {
		out = append(out, rec...)
	}
	out = append(out, 0x1A)

	if b.truncateTail > 0 && b.truncateTail < len(out) {
		out = out[:len(out)-b.truncateTail]
	}
	return out
}

// WriteFile renders the table into dir under name and returns the full path.
func (b *TableBuilder) WriteFile(dir, name string) (string, error) {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, b.Bytes(), 0o644); err != nil {
		return "", err
	}
	return path, nil
}
