// Package countries maps newspaper country codes to the country names used by
// the world map, and decides whether a map region and a stored code refer to
// the same country.
package countries

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// Custom errors for registry construction
var (
	ErrEmptyEntry    = errors.New("registry entry must have a code and a name")
	ErrDuplicateCode = errors.New("duplicate country code in registry")
	ErrDuplicateName = errors.New("duplicate country name in registry")
)

// fallbackCode is returned by SuggestedCode when there is nothing to derive a
// code from.
const fallbackCode = "XXX"

// Entry pairs one country code with its canonical English name.
type Entry struct {
	Code string `json:"code" yaml:"code"`
	Name string `json:"name" yaml:"name"`
}

// Registry is a fixed code/name vocabulary with a reverse index from the
// lowercased name to the code. A Registry is never modified after it is built,
// so it can be shared between goroutines without locking.
type Registry struct {
	codeToName map[string]string
	nameToCode map[string]string
}

// NewRegistry builds a registry from the given entries. Codes are stored
// uppercased. Every code must map to exactly one name and every name
// (case-insensitively) to exactly one code.
func NewRegistry(entries []Entry) (*Registry, error) {
	r := &Registry{
		codeToName: make(map[string]string, len(entries)),
		nameToCode: make(map[string]string, len(entries)),
	}

	for _, e := range entries {
		code := strings.ToUpper(strings.TrimSpace(e.Code))
		name := strings.TrimSpace(e.Name)
		if code == "" || name == "" {
			return nil, fmt.Errorf("%w: %q/%q", ErrEmptyEntry, e.Code, e.Name)
		}
		if _, ok := r.codeToName[code]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCode, code)
		}

		key := nameKey(name)
		if _, ok := r.nameToCode[key]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateName, name)
		}

		r.codeToName[code] = name
		r.nameToCode[key] = code
	}

	return r, nil
}

// LoadRegistry reads a YAML list of {code, name} entries from path and builds
// a registry from it.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry file: %w", err)
	}

	var entries []Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse registry file: %w", err)
	}

	return NewRegistry(entries)
}

// CodeForName looks up name case-insensitively. The second result is false
// when the registry has no such name.
func (r *Registry) CodeForName(name string) (string, bool) {
	code, ok := r.nameToCode[nameKey(name)]
	return code, ok
}

// NameForCode returns the canonical name registered for code.
func (r *Registry) NameForCode(code string) (string, bool) {
	name, ok := r.codeToName[strings.ToUpper(strings.TrimSpace(code))]
	return name, ok
}

// SuggestedCode returns the registry code for name, or a code made of the
// first three characters of the trimmed name, uppercased, when the registry
// doesn't know it. It is meant to pre-fill a code for an operator to confirm, never for
// matching stored records.
func (r *Registry) SuggestedCode(name string) string {
	if code, ok := r.CodeForName(name); ok {
		return code
	}

	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fallbackCode
	}

	return strings.ToUpper(prefix(trimmed, 3))
}

// Entries returns every entry sorted by code.
func (r *Registry) Entries() []Entry {
	entries := make([]Entry, 0, len(r.codeToName))
	for code, name := range r.codeToName {
		entries = append(entries, Entry{Code: code, Name: name})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Code < entries[j].Code
	})
	return entries
}

// Len returns the number of entries.
func (r *Registry) Len() int {
	return len(r.codeToName)
}

// nameKey is the reverse index key for a name: NFC-normalized and lowercased.
func nameKey(name string) string {
	return strings.ToLower(norm.NFC.String(name))
}

// prefix returns the first n runes of s.
func prefix(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
