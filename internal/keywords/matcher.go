// Package keywords implements literal keyword matching for comment text.
package keywords

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Policy selects how keywords ending in "?" are treated.
type Policy string

const (
	// PolicySubstring matches every keyword as a literal substring, including
	// any trailing "?".
	PolicySubstring Policy = "substring"

	// PolicyQuestionIntent treats a keyword ending in "?" as a question-intent
	// keyword: its "?"-stripped form must be a substring and the text must
	// contain a "?" somewhere.
	PolicyQuestionIntent Policy = "question"
)

// ParsePolicy accepts "", "substring" and "question".
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicySubstring:
		return PolicySubstring, nil
	case PolicyQuestionIntent:
		return PolicyQuestionIntent, nil
	default:
		return "", fmt.Errorf("unknown keyword policy %q (want substring or question)", s)
	}
}

// Matcher is stateless and safe for concurrent use.
type Matcher struct {
	Policy Policy
}

func NewMatcher(p Policy) *Matcher {
	if p == "" {
		p = PolicySubstring
	}
	return &Matcher{Policy: p}
}

// Match returns the keywords found in text, in keyword order and original
// casing. It never returns nil.
func (m *Matcher) Match(text string, keywords []string) []string {
	out := []string{}
	if strings.TrimSpace(text) == "" || len(keywords) == 0 {
		return out
	}

	// cases.Caser is stateful, so one per call.
	lower := cases.Lower(language.Und)
	haystack := lower.String(text)
	hasQuestion := strings.Contains(text, "?")

	seen := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		needle := lower.String(strings.TrimSpace(kw))
		if needle == "" {
			continue
		}
		if _, dup := seen[needle]; dup {
			continue
		}

		if m.matches(haystack, needle, hasQuestion) {
			seen[needle] = struct{}{}
			out = append(out, kw)
		}
	}
	return out
}

func (m *Matcher) matches(haystack, needle string, hasQuestion bool) bool {
	if m.Policy == PolicyQuestionIntent && strings.HasSuffix(needle, "?") {
		base := strings.TrimSpace(strings.TrimRight(needle, "?"))
		if base == "" {
			return false
		}
		return hasQuestion && strings.Contains(haystack, base)
	}
	return strings.Contains(haystack, needle)
}

// Clean trims keywords and drops empty and case-folded duplicate entries,
// keeping the first spelling seen.
func Clean(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	lower := cases.Lower(language.Und)
	seen := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		key := lower.String(kw)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, kw)
	}
	return out
}
