package safety

import (
	"regexp"
	"sort"
	"strings"
)

// PIIKind identifies a category of personally identifiable information.
type PIIKind string

const (
	PIIEmail       PIIKind = "email"
	PIIPhone       PIIKind = "phone"
	PIINationalID  PIIKind = "national_id"
	PIICreditCard  PIIKind = "credit_card"
	PIIDateOfBirth PIIKind = "date_of_birth"
)

// PIIMatch is one detected PII fragment with its span in the source text.
type PIIMatch struct {
	Kind  PIIKind `json:"kind"`
	Value string  `json:"value"`
	Start int     `json:"start"`
	End   int     `json:"end"`
}

// piiPatterns is evaluated in this fixed order; when spans overlap, the
// earlier pattern claims the span. Broader numeric patterns come before
// patterns that would match their prefixes (a card number must not be
// half-claimed as a national ID). A slice (not a map) keeps detection
// reproducible for identical input.
var piiPatterns = []struct {
	kind PIIKind
	re   *regexp.Regexp
}{
	{PIIEmail, regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)},
	{PIICreditCard, regexp.MustCompile(`\b\d{4}[- ]?\d{4}[- ]?\d{4}[- ]?\d{4}\b`)},
	{PIIPhone, regexp.MustCompile(`\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`)},
	{PIINationalID, regexp.MustCompile(`\b\d{3}-?\d{2}-?\d{4}\b`)},
	{PIIDateOfBirth, regexp.MustCompile(`\b(0?[1-9]|1[0-2])[/-](0?[1-9]|[12]\d|3[01])[/-]\d{4}\b`)},
}

// DetectPII scans text for personally identifiable fragments. The returned
// matches are ordered by span start and never overlap.
func DetectPII(text string) (bool, []PIIMatch) {
	var matches []PIIMatch

	for _, p := range piiPatterns {
		for _, loc := range p.re.FindAllStringIndex(text, -1) {
			if overlapsAny(matches, loc[0], loc[1]) {
				continue
			}
			matches = append(matches, PIIMatch{
				Kind:  p.kind,
				Value: text[loc[0]:loc[1]],
				Start: loc[0],
				End:   loc[1],
			})
		}
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Start < matches[j].Start })
	return len(matches) > 0, matches
}

// Redact replaces each matched span with a category-tagged placeholder.
// Matches are applied in descending span-start order so earlier
// replacements do not shift the offsets of not-yet-applied matches.
// Redacting already-redacted text is a no-op: placeholders contain no
// digits or address characters, so they never re-match.
func Redact(text string, matches []PIIMatch) string {
	ordered := make([]PIIMatch, len(matches))
	copy(ordered, matches)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Start > ordered[j].Start })

	for _, m := range ordered {
		if m.Start < 0 || m.End > len(text) || m.Start > m.End {
			continue
		}
		text = text[:m.Start] + placeholder(m.Kind) + text[m.End:]
	}
	return text
}

func placeholder(kind PIIKind) string {
	return "[REDACTED " + strings.ToUpper(string(kind)) + "]"
}

func overlapsAny(matches []PIIMatch, start, end int) bool {
	for _, m := range matches {
		if start < m.End && end > m.Start {
			return true
		}
	}
	return false
}
