package extraction

import (
	"regexp"
	"strings"
)

var (
	idShape  = regexp.MustCompile(`^(?:\d{15}|\d{17}[\dXx])$`)
	idToken  = regexp.MustCompile(`\d{17}[\dXx]`)
	idRun    = regexp.MustCompile(`\d{18}|\d{17}[Xx]`)
	idStrips = strings.NewReplacer(" ", "", "-", "")
)

// NormalizeIDNumber removes the spaces and hyphens often used to group an
// identity number on printed reports.
func NormalizeIDNumber(s string) string {
	return idStrips.Replace(s)
}

// IsValidIDNumber reports whether s has the shape of a national identity
// number: 15 digits, or 17 digits followed by a digit or X. The checksum is
// not verified.
func IsValidIDNumber(s string) bool {
	return idShape.MatchString(s)
}

// FindIDNumber returns the first standalone 18-character identity number in
// text. Tokens that are part of a longer digit run are ignored.
func FindIDNumber(text string) (string, bool) {
	for _, loc := range idToken.FindAllStringIndex(text, -1) {
		if loc[0] > 0 && isDigit(text[loc[0]-1]) {
			continue
		}
		if loc[1] < len(text) && isDigit(text[loc[1]]) {
			continue
		}
		return text[loc[0]:loc[1]], true
	}
	return "", false
}

// StripIDNumbers removes identity-number-shaped digit runs from s. Loosely
// bounded fields such as the referring unit can swallow a neighbouring number.
func StripIDNumbers(s string) string {
	return strings.TrimSpace(idRun.ReplaceAllString(s, ""))
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
