// Package match reconciles raw runner names from odds sources against
// a race's known roster. Raw names arrive with punctuation variants,
// abbreviations and the occasional trailing country code; matching is
// exact first, then similarity-scored with an ambiguity guard so a bad
// match is never picked silently.
package match

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// countryCodes that sources append to imported runners, e.g. "(IRE)"
var countryCodes = map[string]struct{}{
	"IRE": {}, "GB": {}, "USA": {}, "NZ": {}, "AUS": {}, "FR": {},
	"GER": {}, "JPN": {}, "SAF": {}, "HK": {}, "ARG": {}, "BRZ": {},
}

// NormalizeName canonicalizes a runner name for matching: uppercase,
// diacritics stripped, hyphens treated as spaces, punctuation removed,
// whitespace collapsed, trailing country code dropped.
func NormalizeName(name string) string {
	if name == "" {
		return ""
	}

	name = strings.ToUpper(name)
	name = stripDiacritics(name)
	name = strings.ReplaceAll(name, "-", " ")

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == ' ', r == '(', r == ')':
			b.WriteRune(r)
		}
	}
	name = b.String()

	fields := strings.Fields(name)
	if n := len(fields); n > 1 {
		last := strings.Trim(fields[n-1], "()")
		if _, ok := countryCodes[last]; ok && strings.HasPrefix(fields[n-1], "(") {
			fields = fields[:n-1]
		}
	}

	// Parentheses only mattered for the country-code suffix
	joined := strings.Join(fields, " ")
	joined = strings.ReplaceAll(joined, "(", "")
	joined = strings.ReplaceAll(joined, ")", "")
	return strings.Join(strings.Fields(joined), " ")
}

func stripDiacritics(s string) string {
	decomposed := norm.NFKD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// abbreviation pairs swapped in both directions when building variants
var abbreviations = [][2]string{
	{"MISTER ", "MR "},
	{"MISS ", "MS "},
	{"SAINT ", "ST "},
	{"MOUNT ", "MT "},
}

// Variants returns the normalized name plus common spelling variants:
// the leading "THE" dropped and abbreviation swaps in both directions.
// The normalized form is always first.
func Variants(name string) []string {
	normalized := NormalizeName(name)
	if normalized == "" {
		return nil
	}

	variants := []string{normalized}
	seen := map[string]struct{}{normalized: {}}
	add := func(v string) {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			variants = append(variants, v)
		}
	}

	if rest, ok := strings.CutPrefix(normalized, "THE "); ok {
		add(rest)
	}
	for _, pair := range abbreviations {
		if strings.Contains(normalized, pair[0]) {
			add(strings.ReplaceAll(normalized, pair[0], pair[1]))
		}
		if strings.Contains(normalized, pair[1]) {
			add(strings.ReplaceAll(normalized, pair[1], pair[0]))
		}
	}
	return variants
}
