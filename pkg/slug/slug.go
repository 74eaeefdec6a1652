package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// đ and Đ are letters of their own, not d plus a combining mark, so
// decomposition does not strip them.
var letterFold = strings.NewReplacer("đ", "d", "Đ", "d")

// Generate returns a URL slug for name. Vietnamese diacritics (and any other
// combining marks) are stripped: "Áo Thun Đỏ" becomes "ao-thun-do".
func Generate(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.TrimSpace(name))
	if err != nil {
		folded = name
	}
	folded = strings.ToLower(letterFold.Replace(folded))
	return strings.Trim(nonAlnum.ReplaceAllString(folded, "-"), "-")
}

// Normalize canonicalizes a caller-supplied slug before it is used in a
// catalog lookup. Well-formed slugs pass through unchanged.
func Normalize(s string) string {
	return Generate(s)
}
