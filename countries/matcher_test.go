package countries

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper: a matcher over an empty registry, so only the substring rules
// can fire
func newSubstringOnlyMatcher(t *testing.T) *Matcher {
	r, err := NewRegistry(nil)
	require.NoError(t, err)
	return NewMatcher(r)
}

// TestMatches_RoundTrip verifies every registry pair matches itself
func TestMatches_RoundTrip(t *testing.T) {
	m := NewMatcher(Default())

	for _, e := range m.Registry().Entries() {
		rule, ok := m.Explain(e.Name, e.Code)
		assert.True(t, ok, "%s should match %s", e.Name, e.Code)
		assert.Equal(t, RuleCanonical, rule, "%s should match canonically", e.Name)
	}
}

// TestMatches_CaseInsensitive verifies name and code case is ignored
func TestMatches_CaseInsensitive(t *testing.T) {
	m := NewMatcher(Default())

	assert.True(t, m.Matches("Spain", "esp"))
	assert.True(t, m.Matches("SPAIN", "ESP"))
	assert.True(t, m.Matches("spain", "Esp"))
}

// TestMatches_Unknown verifies unrelated input doesn't match
func TestMatches_Unknown(t *testing.T) {
	m := NewMatcher(Default())

	assert.False(t, m.Matches("Unknownland", "ZZZ"))
	assert.False(t, m.Matches("France", "ESP"))
}

// TestExplain_Rules verifies which rule resolves each case
func TestExplain_Rules(t *testing.T) {
	m := NewMatcher(Default())

	tests := []struct {
		name        string
		countryName string
		countryCode string
		wantRule    string
		wantOK      bool
	}{
		{
			name:        "registry hit",
			countryName: "Germany",
			countryCode: "DEU",
			wantRule:    RuleCanonical,
			wantOK:      true,
		},
		{
			name:        "canonical wins over substring",
			countryName: "Peru",
			countryCode: "per",
			wantRule:    RuleCanonical,
			wantOK:      true,
		},
		{
			name:        "map name embeds the code",
			countryName: "United States (USA)",
			countryCode: "USA",
			wantRule:    RuleNameContainsCode,
			wantOK:      true,
		},
		{
			name:        "short code inside the name",
			countryName: "Argentine Republic",
			countryCode: "arg",
			wantRule:    RuleNameContainsCode,
			wantOK:      true,
		},
		{
			name:        "code contains the name prefix",
			countryName: "Germany",
			countryCode: "GER-DE",
			wantRule:    RuleCodeContainsNamePrefix,
			wantOK:      true,
		},
		{
			name:        "name shorter than three characters",
			countryName: "Ch",
			countryCode: "CHN",
			wantRule:    RuleCodeContainsNamePrefix,
			wantOK:      true,
		},
		{
			// Not a registry name, "usa" is not in the name and "uni" is
			// not in the code, so no rule fires.
			name:        "long form name missing from the registry",
			countryName: "United States of America",
			countryCode: "USA",
			wantOK:      false,
		},
		{
			name:        "registry code differs and no substring overlap",
			countryName: "Chile",
			countryCode: "CHL",
			wantOK:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, ok := m.Explain(tt.countryName, tt.countryCode)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantRule, rule)
		})
	}
}

// TestMatches_NameContainsCode verifies the substring fallback without any
// registry entry
func TestMatches_NameContainsCode(t *testing.T) {
	m := newSubstringOnlyMatcher(t)

	rule, ok := m.Explain("Mexico City", "MEX")
	assert.True(t, ok)
	assert.Equal(t, RuleNameContainsCode, rule)

	rule, ok = m.Explain("Spain", "ESP")
	assert.False(t, ok, "no substring overlap and no registry entry")
	assert.Empty(t, rule)
}

// TestMatches_KnownFalsePositive pins the permissive substring behaviour
func TestMatches_KnownFalsePositive(t *testing.T) {
	m := NewMatcher(Default())

	// India's code is a substring of Indonesia.
	rule, ok := m.Explain("Indonesia", "IND")
	assert.True(t, ok)
	assert.Equal(t, RuleNameContainsCode, rule)
}

// TestMatches_EmptyInput verifies degenerate input returns false
func TestMatches_EmptyInput(t *testing.T) {
	m := NewMatcher(Default())

	tests := []struct {
		name        string
		countryName string
		countryCode string
	}{
		{name: "both empty", countryName: "", countryCode: ""},
		{name: "empty name", countryName: "", countryCode: "USA"},
		{name: "empty code", countryName: "Spain", countryCode: ""},
		{name: "blank name", countryName: "   ", countryCode: "ESP"},
		{name: "blank code", countryName: "Spain", countryCode: "  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.False(t, m.Matches(tt.countryName, tt.countryCode))
			})
		})
	}
}

// TestMatches_Idempotent verifies repeated calls agree
func TestMatches_Idempotent(t *testing.T) {
	m := NewMatcher(Default())

	for range 10 {
		assert.True(t, m.Matches("Spain", "ESP"))
		assert.False(t, m.Matches("Unknownland", "ZZZ"))
	}
}

// TestMatches_NilRegistry verifies the canonical rule is skipped safely
func TestMatches_NilRegistry(t *testing.T) {
	m := NewMatcher(nil)

	assert.False(t, m.Matches("Spain", "ESP"))
	assert.True(t, m.Matches("Mexico City", "MEX"))
}

// TestNewMatcherWithRules verifies a custom rule list is honoured
func TestNewMatcherWithRules(t *testing.T) {
	m := NewMatcherWithRules(Default(), []Rule{
		{Name: RuleCanonical, Match: matchCanonical},
	})

	assert.True(t, m.Matches("Spain", "ESP"))
	assert.False(t, m.Matches("Mexico City", "MEX"), "substring rules are not configured")
}

// TestMatchingCodes verifies highlighting keeps input order
func TestMatchingCodes(t *testing.T) {
	m := NewMatcher(Default())

	codes := []string{"ESP", "FRA", "SP", "esp"}
	assert.Equal(t, []string{"ESP", "SP", "esp"}, m.MatchingCodes("Spain", codes))
	assert.Empty(t, m.MatchingCodes("Unknownland", codes))
	assert.Empty(t, m.MatchingCodes("Spain", nil))
}

// TestWithObserver verifies every decision is reported with its rule
func TestWithObserver(t *testing.T) {
	base := NewMatcher(Default())

	var rules []string
	m := base.WithObserver(func(rule string) { rules = append(rules, rule) })

	assert.Equal(t, []string{"ESP"}, m.MatchingCodes("Spain", []string{"ESP", "FRA"}))
	assert.False(t, m.Matches("", "ESP"))
	assert.Equal(t, []string{RuleCanonical, "", ""}, rules)

	base.Matches("Spain", "ESP")
	assert.Len(t, rules, 3, "the original matcher has no observer")
}

// TestFilter verifies filtering arbitrary records by their code
func TestFilter(t *testing.T) {
	m := NewMatcher(Default())

	type paper struct {
		title string
		code  string
	}
	papers := []paper{
		{title: "El País", code: "ESP"},
		{title: "Le Monde", code: "FRA"},
		{title: "El Mundo", code: "esp"},
	}

	filtered := Filter(m, "Spain", papers, func(p paper) string { return p.code })

	require.Len(t, filtered, 2)
	assert.Equal(t, "El País", filtered[0].title)
	assert.Equal(t, "El Mundo", filtered[1].title)
}

// TestMatches_Concurrent verifies the matcher can be shared between
// goroutines
func TestMatches_Concurrent(t *testing.T) {
	m := NewMatcher(Default())

	var wg sync.WaitGroup
	results := make([]bool, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = m.Matches("Japan", "JPN")
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.True(t, r)
	}
}
