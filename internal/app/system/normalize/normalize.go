// Package normalize canonicalises user-supplied identifiers before they are
// stored or compared.
package normalize

import (
	"regexp"
	"strings"

	"github.com/dalemusser/waffle/pantry/validate"
)

// Email trims and lowercases an address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ValidEmail reports whether s is a bare address such as "a@b.edu".
// Display-name forms like "Bob <bob@b.edu>" are rejected.
func ValidEmail(s string) bool {
	s = Email(s)
	return validate.SimpleEmailValid(s) && validate.Var(s, "email") == nil
}

// Name trims surrounding whitespace and collapses inner runs of spaces.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// RollNo uppercases a roll number and strips spaces.
func RollNo(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}

// Branch uppercases a branch code ("cse " -> "CSE").
func Branch(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Branches normalises each entry and drops blanks and duplicates.
func Branches(in []string) []string {
	return dedupe(in, Branch)
}

// Skills trims each skill, drops blanks and removes case-insensitive duplicates
// while keeping the first spelling.
func Skills(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = Name(s)
		if s == "" {
			continue
		}
		k := strings.ToLower(s)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Tags lowercases and dedupes problem tags.
func Tags(in []string) []string {
	return dedupe(in, func(s string) string { return strings.ToLower(strings.TrimSpace(s)) })
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug turns a title into a URL-safe identifier ("Two Sum II" -> "two-sum-ii").
func Slug(s string) string {
	s = nonSlug.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(s, "-")
}

func dedupe(in []string, f func(string) string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = f(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
