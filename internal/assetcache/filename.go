package assetcache

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldDiacritics = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// SafeFileName converts a catalog key into a deterministic name safe for any
// filesystem: diacritics are folded to their base letters, spaces become
// underscores, and everything outside letters, digits, dash, underscore, and
// dot is dropped.
func SafeFileName(key string) string {
	folded, _, err := transform.String(foldDiacritics, key)
	if err != nil {
		folded = key
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte('_')
		}
	}

	name := strings.Trim(b.String(), "._")
	if name == "" {
		return "sound"
	}
	return name
}
