package transcript

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// dropMarker is checked case-sensitively: titles containing it are
// dropped outright rather than cleaned. Historical behavior; the noise
// rules themselves match case-insensitively.
const dropMarker = "Study Hall"

var (
	reSpaceRun  = regexp.MustCompile(`\s+`)
	reHyphenRun = regexp.MustCompile(`-{2,}`)
)

// Normalizer strips administrative noise from course titles using an
// ordered rule list. The zero rule list means DefaultRules. A Normalizer
// is immutable after construction and safe for concurrent use.
type Normalizer struct {
	rules []Rule
}

// NewNormalizer returns a Normalizer using the given rules, or the
// built-in DefaultRules when none are given.
func NewNormalizer(rules ...Rule) *Normalizer {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Normalizer{rules: rules}
}

// Normalize cleans one course title. It never fails and is idempotent:
// normalizing an already-normalized title returns it unchanged.
//
// An empty input, or one containing the "Study Hall" marker, normalizes
// to "", which callers treat as "drop this course". A leading "+"
// distinction marker is preserved as a leading "+ " on the result.
func (n *Normalizer) Normalize(raw string) string {
	title := norm.NFC.String(raw)

	if strings.TrimSpace(title) == "" || strings.Contains(title, dropMarker) {
		return ""
	}

	title = strings.TrimSpace(title)
	hasPlus := strings.HasPrefix(title, "+")
	if hasPlus {
		title = strings.TrimSpace(title[1:])
	}

	// Apply the rule list until the title stops changing. Every rule
	// only ever shortens the title, so this terminates; running to the
	// fixed point is what makes Normalize idempotent.
	for {
		prev := title
		for _, r := range n.rules {
			title = r.Pattern.ReplaceAllString(title, r.Replace)
		}
		if title == prev {
			break
		}
	}

	title = reSpaceRun.ReplaceAllString(title, " ")
	title = reHyphenRun.ReplaceAllString(title, "-")
	title = strings.Trim(title, "- ")

	if title == "" {
		return ""
	}
	if hasPlus {
		return "+ " + title
	}
	return title
}

// Rules returns the normalizer's rule list. The slice is shared; do not
// modify it.
func (n *Normalizer) Rules() []Rule {
	return n.rules
}

var defaultNormalizer = NewNormalizer()

// Normalize cleans one course title using the built-in rules. See
// Normalizer.Normalize.
func Normalize(raw string) string {
	return defaultNormalizer.Normalize(raw)
}
