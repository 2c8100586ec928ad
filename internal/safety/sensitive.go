package safety

import "regexp"

// sensitiveTerms is the fixed vocabulary of clinically or socially
// sensitive conditions. Matching is case-insensitive and whole-word.
var sensitiveTerms = []string{
	"HIV", "AIDS", "mental health", "suicide", "abuse",
	"substance abuse", "STD", "STI", "pregnancy", "abortion",
	"cancer", "terminal", "palliative", "hospice",
}

var sensitivePatterns = compileSensitive()

func compileSensitive() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(sensitiveTerms))
	for i, term := range sensitiveTerms {
		patterns[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`)
	}
	return patterns
}

// DetectSensitive reports whether text mentions any sensitive condition.
// Matched terms are returned deduplicated, in vocabulary order. Word
// boundaries prevent matches inside unrelated words ("cancel" does not
// match "cancer"; "terminally" does not match "terminal").
func DetectSensitive(text string) (bool, []string) {
	var found []string
	for i, re := range sensitivePatterns {
		if re.MatchString(text) {
			found = append(found, sensitiveTerms[i])
		}
	}
	return len(found) > 0, found
}
