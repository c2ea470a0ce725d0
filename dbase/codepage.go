package dbase

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// Codepage is the single-byte encoding used for text cells in one table.
// The files predate Unicode; every deployment picked whatever its DOS or
// Windows installation happened to use.
type Codepage struct {
	name string
	cm   *charmap.Charmap
}

func (c Codepage) Name() string {
	return c.name
}

// Decode maps raw cell bytes to a Go string. Single-byte charmaps decode
// every byte to something, so this never fails; unmapped bytes become U+FFFD.
func (c Codepage) Decode(b []byte) string {
	cm := c.cm
	if cm == nil {
		cm = charmap.ISO8859_1
	}
	out, err := cm.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}

// Latin1 is the decode-of-last-resort: every byte maps 1:1 to a code point,
// so nothing is ever lost, only possibly misdisplayed.
func Latin1() Codepage {
	return Codepage{name: "latin1", cm: charmap.ISO8859_1}
}

var codepages = map[string]*charmap.Charmap{
	"cp437":        charmap.CodePage437,
	"cp850":        charmap.CodePage850,
	"cp852":        charmap.CodePage852,
	"cp866":        charmap.CodePage866,
	"windows1250":  charmap.Windows1250,
	"windows1251":  charmap.Windows1251,
	"windows1252":  charmap.Windows1252,
	"latin1":       charmap.ISO8859_1,
	"iso88591":     charmap.ISO8859_1,
}

// LookupCodepage resolves a codepage by name. Names are matched ignoring case,
// dashes and underscores ("windows-1252", "Windows_1252" and "WINDOWS1252" are
// all the same page).
func LookupCodepage(name string) (Codepage, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.NewReplacer("-", "", "_", "", " ", "").Replace(key)
	if cm, ok := codepages[key]; ok {
		return Codepage{name: key, cm: cm}, nil
	}
	return Codepage{}, fmt.Errorf("unknown codepage %q", name)
}

// CodepageFromCandidates tries candidate names in order and falls back to
// Latin-1 when none resolve. This is the caller-side fallback policy from the
// reader contract: the engine itself never guesses.
func CodepageFromCandidates(names []string) Codepage {
	for _, n := range names {
		if cp, err := LookupCodepage(n); err == nil {
			return cp
		}
	}
	return Latin1()
}

// languageDriverHints maps the header's language-driver byte to a codepage
// name. Reported for diagnostics only; real files lie about this byte often
// enough that it is never trusted for decoding.
var languageDriverHints = map[byte]string{
	0x01: "cp437",
	0x02: "cp850",
	0x03: "windows1252",
	0x64: "cp852",
	0x65: "cp866",
	0xC8: "windows1250",
	0xC9: "windows1251",
}
