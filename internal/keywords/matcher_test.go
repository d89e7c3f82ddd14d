package keywords

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	require.Equal(t, PolicySubstring, p)

	p, err = ParsePolicy(" Question ")
	require.NoError(t, err)
	require.Equal(t, PolicyQuestionIntent, p)

	_, err = ParsePolicy("token")
	require.Error(t, err)
}

func TestMatch_CaseInsensitiveKeepsKeywordCasing(t *testing.T) {
	m := NewMatcher(PolicySubstring)
	got := m.Match("I want a REFUND now", []string{"Refund", "broken"})
	require.Equal(t, []string{"Refund"}, got)
}

func TestMatch_PreservesKeywordOrder(t *testing.T) {
	m := NewMatcher(PolicySubstring)
	got := m.Match("price? buy link pls", []string{"link", "zzz", "buy", "price"})
	require.Equal(t, []string{"link", "buy", "price"}, got)
}

func TestMatch_TrimsAndIgnoresEmptyKeywords(t *testing.T) {
	m := NewMatcher(PolicySubstring)
	got := m.Match("where can I buy this", []string{"", "   ", "  buy  "})
	require.Equal(t, []string{"  buy  "}, got)
}

func TestMatch_EmptyInputs(t *testing.T) {
	m := NewMatcher(PolicyQuestionIntent)

	got := m.Match("", []string{"buy"})
	require.NotNil(t, got)
	require.Empty(t, got)

	got = m.Match("buy buy buy", nil)
	require.NotNil(t, got)
	require.Empty(t, got)

	require.Empty(t, m.Match("   ", []string{"buy"}))
}

func TestMatch_DuplicateKeywordsReportedOnce(t *testing.T) {
	m := NewMatcher(PolicySubstring)
	got := m.Match("refund please", []string{"refund", "REFUND", "refund"})
	require.Equal(t, []string{"refund"}, got)
}

func TestMatch_QuestionScenario(t *testing.T) {
	keywords := []string{"refund", "broken?"}

	// Plain substring: "broken?" is literally present.
	plain := NewMatcher(PolicySubstring)
	require.Equal(t, []string{"broken?"}, plain.Match("is this broken???", keywords))
	require.Empty(t, plain.Match("is this broken", keywords))

	// Question intent: the stripped form must appear and the text must ask.
	q := NewMatcher(PolicyQuestionIntent)
	require.Equal(t, []string{"broken?"}, q.Match("is this broken???", keywords))
	require.Equal(t, []string{"broken?"}, q.Match("broken. why?", keywords))
	require.Empty(t, q.Match("this is broken", keywords))
}

func TestMatch_QuestionPolicyLeavesPlainKeywordsAlone(t *testing.T) {
	q := NewMatcher(PolicyQuestionIntent)
	require.Equal(t, []string{"refund"}, q.Match("refund", []string{"refund", "?"}))
}

func TestMatch_ResultIsSubsetOfKeywords(t *testing.T) {
	m := NewMatcher(PolicyQuestionIntent)
	texts := []string{"", "a", "Buy? now", "ÜBER cool", "link in bio?", "nothing here"}
	sets := [][]string{nil, {}, {"buy?", "now"}, {"über", "cool", "x"}, {"link", "bio?", ""}}

	for _, text := range texts {
		for _, kws := range sets {
			got := m.Match(text, kws)
			require.NotNil(t, got)

			// every result comes from kws, in order
			i := 0
			for _, g := range got {
				for i < len(kws) && kws[i] != g {
					i++
				}
				require.Less(t, i, len(kws), "%q not an ordered subset of %q", got, kws)
				i++
			}
		}
	}
}

func TestMatch_UnicodeFolding(t *testing.T) {
	m := NewMatcher(PolicySubstring)
	require.Equal(t, []string{"über"}, m.Match("ÜBER COOL", []string{"über"}))
}

func TestClean(t *testing.T) {
	require.Equal(t, []string{"Price", "where to buy?"}, Clean([]string{" Price ", "", "price", "where to buy?", "  "}))
	require.Equal(t, []string{}, Clean(nil))
}
