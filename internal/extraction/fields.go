package extraction

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Pattern is one candidate matcher for a field. Label locates the anchor text
// (including any separator and trailing whitespace). Value must match at the
// start of the text that follows the label. When Stops is non-empty the capture
// ends at the earliest stop match after the first character, or at end of text,
// and Value must then cover that whole region.
type Pattern struct {
	Label *regexp.Regexp
	Value *regexp.Regexp
	Stops []*regexp.Regexp
}

// NewPattern compiles a Pattern from source expressions.
func NewPattern(label, value string, stops ...string) (Pattern, error) {
	lre, err := regexp.Compile(label)
	if err != nil {
		return Pattern{}, fmt.Errorf("invalid label pattern %q: %w", label, err)
	}
	anchored := `^(?:` + value + `)`
	if len(stops) > 0 {
		anchored += `$`
	}
	vre, err := regexp.Compile(anchored)
	if err != nil {
		return Pattern{}, fmt.Errorf("invalid value pattern %q: %w", value, err)
	}
	p := Pattern{Label: lre, Value: vre}
	for _, s := range stops {
		sre, err := regexp.Compile(s)
		if err != nil {
			return Pattern{}, fmt.Errorf("invalid stop pattern %q: %w", s, err)
		}
		p.Stops = append(p.Stops, sre)
	}
	return p, nil
}

// MustPattern is like NewPattern but panics on a bad expression. It is meant
// for package-level registries.
func MustPattern(label, value string, stops ...string) Pattern {
	p, err := NewPattern(label, value, stops...)
	if err != nil {
		panic(err)
	}
	return p
}

// Find returns the first capture in text, trimmed, scanning label occurrences
// left to right.
func (p Pattern) Find(text string) (string, bool) {
	for _, loc := range p.Label.FindAllStringIndex(text, -1) {
		rest := text[loc[1]:]
		if len(p.Stops) > 0 {
			rest = rest[:p.stopIndex(rest)]
		}
		m := p.Value.FindString(rest)
		if m == "" {
			continue
		}
		return strings.TrimSpace(m), true
	}
	return "", false
}

// stopIndex returns the byte offset where the capture region ends. A stop at
// offset 0 is ignored so the capture always holds at least one character.
func (p Pattern) stopIndex(rest string) int {
	if rest == "" {
		return 0
	}
	_, skip := utf8.DecodeRuneInString(rest)
	cut := len(rest)
	for _, s := range p.Stops {
		loc := s.FindStringIndex(rest[skip:])
		if loc != nil && skip+loc[0] < cut {
			cut = skip + loc[0]
		}
	}
	return cut
}

// FieldSpec declares how one field is located in report text. Patterns are
// tried in order and the first match wins.
type FieldSpec struct {
	ID       string
	Label    string
	Patterns []Pattern
	Default  string

	// Post rewrites a trimmed capture (strip separators, append a unit).
	Post func(string) string
	// Check is a structural validity test applied after Post.
	Check func(string) bool
	// Fallback scans the whole text when Check fails or nothing matched.
	Fallback func(text string) (string, bool)
}

// Extract applies specs to text and returns the frozen field values.
func Extract(text string, specs []FieldSpec) ExtractedFields {
	fields, _ := ExtractFields(text, specs)
	return fields
}

// ExtractFields is Extract plus the recoverable problems met on the way
// (missing fields, failed validation). None of them stop extraction.
func ExtractFields(text string, specs []FieldSpec) (ExtractedFields, []*Error) {
	text = foldSpaces(text)
	values := make(map[string]string, len(specs))
	var diags []*Error

	for _, spec := range specs {
		v, err := spec.extract(text)
		values[spec.ID] = v
		if err != nil {
			diags = append(diags, err)
		}
	}
	return ExtractedFields{values: values}, diags
}

func (spec FieldSpec) extract(text string) (string, *Error) {
	raw, found := "", false
	for _, p := range spec.Patterns {
		if raw, found = p.Find(text); found {
			break
		}
	}

	if !found {
		if spec.Fallback != nil {
			if v, ok := spec.Fallback(text); ok {
				return v, nil
			}
		}
		return spec.Default, NewError(ErrorTypeFieldNotFound, "no candidate pattern matched").WithField(spec.ID)
	}

	v := raw
	if spec.Post != nil {
		v = spec.Post(v)
	}
	if spec.Check == nil || spec.Check(v) {
		return v, nil
	}
	if spec.Fallback != nil {
		if fb, ok := spec.Fallback(text); ok {
			return fb, nil
		}
	}
	return v, NewError(ErrorTypeValidationFailure,
		fmt.Sprintf("value %q failed validation, kept as captured", v)).WithField(spec.ID)
}

// foldSpaces maps the non-ASCII blanks seen in report text to a plain space so
// the ASCII-only \s and \S classes treat them as whitespace.
var spaceFolder = strings.NewReplacer("\u3000", " ", "\u00a0", " ", "\v", " ")

func foldSpaces(s string) string {
	return spaceFolder.Replace(s)
}
