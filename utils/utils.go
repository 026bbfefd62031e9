package utils

import (
	rndm "math/rand"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// --- Random String and ID Generators ---

var letterRunes = []rune("abcdefghijklmnopqrstuvwxyz0123456789_ABCDEFGHIJKLMNOPQRSTUVWXYZ")

// GenerateRandomString creates a random alphanumeric string of length n.
func GenerateRandomString(n int) string {
	b := make([]rune, n)
	for i := range b {
		b[i] = letterRunes[rndm.Intn(len(letterRunes))]
	}
	return string(b)
}

// --- Name normalization and slugs ---

var (
	slugStripRe    = regexp.MustCompile(`[^a-z0-9]+`)
	punctRe        = regexp.MustCompile(`[^\p{L}\p{N} ]+`)
	multiSpaceRe   = regexp.MustCompile(`\s+`)
	asciiTransform = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// Slugify lowercases, strips accents and punctuation, and hyphen-joins a name:
// "Café Zoë & Friends" -> "cafe-zoe-friends".
func Slugify(name string) string {
	s, _, err := transform.String(asciiTransform, name)
	if err != nil {
		s = name
	}
	s = strings.ToLower(s)
	s = slugStripRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// NormalizeName folds case, accents, punctuation, and runs of whitespace so
// two spellings of the same venue name compare equal.
func NormalizeName(name string) string {
	s, _, err := transform.String(asciiTransform, name)
	if err != nil {
		s = name
	}
	s = strings.ToLower(s)
	s = punctRe.ReplaceAllString(s, " ")
	s = multiSpaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// NormalizePostcode uppercases and removes interior whitespace.
func NormalizePostcode(pc string) string {
	return strings.ToUpper(strings.Join(strings.Fields(pc), ""))
}
