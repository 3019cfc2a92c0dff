package tmdb

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// germanReplacer expands German special characters into their conventional
// ASCII digraphs before generic diacritic folding, so that "Können" becomes
// "Koennen" rather than "Konnen".
var germanReplacer = strings.NewReplacer(
	"ä", "ae",
	"ö", "oe",
	"ü", "ue",
	"ß", "ss",
	"Ä", "Ae",
	"Ö", "Oe",
	"Ü", "Ue",
)

var diacriticFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeTerm prepares a search term for the TMDB query string: German
// characters are transliterated, remaining diacritics folded, and
// surrounding whitespace trimmed.
func NormalizeTerm(term string) string {
	term = strings.TrimSpace(term)
	if term == "" {
		return term
	}
	term = germanReplacer.Replace(term)
	if folded, _, err := transform.String(diacriticFolder, term); err == nil {
		term = folded
	}
	return term
}
