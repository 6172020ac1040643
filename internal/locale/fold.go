package locale

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Fold prepares free text for case-insensitive comparison: NFC
// composition first, so precomposed and combining accents compare equal,
// then lower-casing.
func Fold(s string) string {
	return cases.Lower(language.Und).String(norm.NFC.String(s))
}
