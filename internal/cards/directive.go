package cards

import (
	"strconv"
	"strings"
)

// Reserved field names carrying control semantics. Any other field is
// passed through verbatim as a template variable.
const (
	// FieldIgnore excludes a row from rendering when its value is "true"
	// in any casing.
	FieldIgnore = "ignore"
	// FieldNumCards repeats a row's rendered fragment N times.
	FieldNumCards = "num_cards"
)

// Directives holds the typed control values extracted from a row's
// reserved fields, decoupled from the pass-through template variables.
type Directives struct {
	Ignore bool
	Copies int
}

// ExtractDirectives reads the reserved fields of a row into a Directives
// value. A malformed copy count never fails: it falls back to 1 so a bad
// cell cannot halt the whole render pass.
func ExtractDirectives(row Row) Directives {
	d := Directives{Copies: 1}

	if v, ok := row[FieldIgnore]; ok {
		d.Ignore = strings.EqualFold(strings.TrimSpace(v), "true")
	}

	if v, ok := row[FieldNumCards]; ok {
		d.Copies = parseCopies(v)
	}

	return d
}

// parseCopies parses the num_cards cell. Values containing no digit at all
// (including the empty string) default to 1 rather than erroring, matching
// the tolerance expected of hand-edited spreadsheets. Negative values
// cannot occur: "-2" contains a digit and parses, but ParseUint rejects
// the sign, so it also defaults to 1.
func parseCopies(raw string) int {
	trimmed := strings.TrimSpace(raw)
	if !strings.ContainsAny(trimmed, "0123456789") {
		return 1
	}

	n, err := strconv.ParseUint(trimmed, 10, 32)
	if err != nil {
		return 1
	}

	return int(n)
}
