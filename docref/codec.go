// Package docref decodes the compact reference lists the legacy register
// software packs into the FACTURAS and DEVOLUCIO text cells of a cut record.
//
// The producing system is external and its serializer is not ours to change,
// so decoding is tolerant by contract: malformed sub-records are skipped, a
// blank blob is an empty list, and nothing here ever returns an error.
package docref

import (
	"strings"

	"bitbucket.org/mmdatafocus/cortes_backend/models"
)

// Codec turns one blob cell into document references. The engine depends only
// on this contract; deployments with a different blob dialect plug in their own.
type Codec interface {
	Parse(blob string) []models.DocumentReference
}

// DelimitedCodec is the dialect observed in the reference deployment:
// sub-records separated by ';', '|' or newlines, each one
// "document_id,series,folio" with optional padding around every part.
type DelimitedCodec struct{}

func NewDelimitedCodec() DelimitedCodec {
	return DelimitedCodec{}
}

func (DelimitedCodec) Parse(blob string) []models.DocumentReference {
	blob = strings.TrimSpace(blob)
	if blob == "" {
		return nil
	}

	var refs []models.DocumentReference
	for _, sub := range strings.FieldsFunc(blob, isRecordSeparator) {
		parts := strings.Split(sub, ",")
		if len(parts) < 3 {
			continue
		}
		ref := models.DocumentReference{
			DocumentID: strings.TrimSpace(parts[0]),
			Series:     strings.TrimSpace(parts[1]),
			Folio:      strings.TrimSpace(parts[2]),
		}
		// A reference without an id or series can never match a ledger
		// document; dropping it here keeps the join loops honest.
		if ref.DocumentID == "" || ref.Series == "" {
			continue
		}
		refs = append(refs, ref)
	}
	return refs
}

func isRecordSeparator(r rune) bool {
	return r == ';' || r == '|' || r == '\n' || r == '\r'
}
