package countries

import (
	"strings"
)

// Rule names, in the order the matcher evaluates them.
const (
	RuleCanonical              = "canonical"
	RuleNameContainsCode       = "name-contains-code"
	RuleCodeContainsNamePrefix = "code-contains-name-prefix"
)

// namePrefixLen is how much of the country name rule 3 looks for in the code.
const namePrefixLen = 3

// Rule is one step of the matching decision. Match receives the name
// lowercased and the code as given.
type Rule struct {
	Name  string
	Match func(r *Registry, name, code string) bool
}

// DefaultRules is the ordered rule list used by NewMatcher.
//
// The two substring rules are lossy. They give false positives for short codes
// that appear inside an unrelated name (e.g. "ind" in "Indonesia").
var DefaultRules = []Rule{
	{Name: RuleCanonical, Match: matchCanonical},
	{Name: RuleNameContainsCode, Match: matchNameContainsCode},
	{Name: RuleCodeContainsNamePrefix, Match: matchCodeContainsNamePrefix},
}

// Matcher decides whether a country name reported by the map and a country
// code stored on a newspaper denote the same country. It holds no mutable
// state and is safe for concurrent use.
type Matcher struct {
	registry *Registry
	rules    []Rule
	observe  func(rule string)
}

// NewMatcher creates a matcher over registry using DefaultRules.
func NewMatcher(registry *Registry) *Matcher {
	return NewMatcherWithRules(registry, DefaultRules)
}

// NewMatcherWithRules creates a matcher that evaluates rules in order.
func NewMatcherWithRules(registry *Registry, rules []Rule) *Matcher {
	return &Matcher{
		registry: registry,
		rules:    append([]Rule(nil), rules...),
	}
}

// WithObserver returns a copy of m that calls observe with the deciding rule
// of every match, or "" when nothing matched.
func (m *Matcher) WithObserver(observe func(rule string)) *Matcher {
	c := *m
	c.observe = observe
	return &c
}

// Registry returns the registry the matcher was built with.
func (m *Matcher) Registry() *Registry {
	return m.registry
}

// Matches reports whether countryName and countryCode refer to the same
// country. Empty input never matches.
func (m *Matcher) Matches(countryName, countryCode string) bool {
	_, ok := m.Explain(countryName, countryCode)
	return ok
}

// Explain is Matches, but also returns the name of the rule that matched.
func (m *Matcher) Explain(countryName, countryCode string) (string, bool) {
	rule, ok := m.explain(countryName, countryCode)
	if m.observe != nil {
		m.observe(rule)
	}
	return rule, ok
}

func (m *Matcher) explain(countryName, countryCode string) (string, bool) {
	if strings.TrimSpace(countryName) == "" || strings.TrimSpace(countryCode) == "" {
		return "", false
	}

	name := strings.ToLower(countryName)
	for _, rule := range m.rules {
		if rule.Match(m.registry, name, countryCode) {
			return rule.Name, true
		}
	}
	return "", false
}

// MatchingCodes returns the codes, in input order, that match countryName.
func (m *Matcher) MatchingCodes(countryName string, codes []string) []string {
	matched := []string{}
	for _, code := range codes {
		if m.Matches(countryName, code) {
			matched = append(matched, code)
		}
	}
	return matched
}

// Filter returns the items whose country code matches countryName.
func Filter[T any](m *Matcher, countryName string, items []T, codeOf func(T) string) []T {
	filtered := []T{}
	for _, item := range items {
		if m.Matches(countryName, codeOf(item)) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

// matchCanonical: the registry's code for the name equals the uppercased code.
func matchCanonical(r *Registry, name, code string) bool {
	if r == nil {
		return false
	}
	registered, ok := r.CodeForName(name)
	return ok && registered == strings.ToUpper(code)
}

// matchNameContainsCode: the name literally contains the code.
func matchNameContainsCode(_ *Registry, name, code string) bool {
	return strings.Contains(name, strings.ToLower(code))
}

// matchCodeContainsNamePrefix: the code contains the first three characters of
// the name, as with abbreviation-style codes.
func matchCodeContainsNamePrefix(_ *Registry, name, code string) bool {
	return strings.Contains(strings.ToLower(code), prefix(name, namePrefixLen))
}
