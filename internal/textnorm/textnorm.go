// Package textnorm normalizes task text for similarity scoring and search.
//
// Normalization is purely character-rule driven: no dictionaries, no
// language models. The same pipeline is used on both sides of every
// comparison, so scores stay symmetric.
package textnorm

import (
	"strings"
	"unicode"
)

// minTokenLen is the shortest token kept by TokenizeAndNormalize.
// Shorter tokens ("a", "to", "of") add noise to set similarity.
const minTokenLen = 3

// Tokenize lowercases text, replaces every non-alphanumeric rune with a
// space, and splits on whitespace. Short tokens and duplicates are kept;
// use this where token order or multiplicity matters. Input with no
// tokens yields nil.
func Tokenize(text string) []string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	fields := strings.Fields(b.String())
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// TokenizeAndNormalize tokenizes text and returns the deduplicated set of
// tokens longer than two characters. Order is not significant; callers use
// the result for set similarity. Empty input yields an empty set.
func TokenizeAndNormalize(text string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range Tokenize(text) {
		if len(tok) <= minTokenLen-1 {
			continue
		}
		set[tok] = true
	}
	return set
}

// isVowel reports whether b is an ASCII vowel.
func isVowel(b byte) bool {
	switch b {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}

// StemWord strips common English suffixes using deterministic character
// rules. It is intentionally crude: good enough to make "running" match
// "run" and "stories" match "story" without an external dictionary.
func StemWord(word string) string {
	w := strings.ToLower(strings.TrimSpace(word))

	switch {
	case strings.HasSuffix(w, "ies") && len(w) > 4:
		return w[:len(w)-3] + "y"
	case strings.HasSuffix(w, "sses") && len(w) > 4:
		return w[:len(w)-2]
	case strings.HasSuffix(w, "es") && len(w) > 3 && hasESStem(w):
		return w[:len(w)-2]
	case strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss") && len(w) > 3:
		return w[:len(w)-1]
	case strings.HasSuffix(w, "ing") && len(w) > 5:
		return collapseDouble(w[:len(w)-3])
	case strings.HasSuffix(w, "ed") && len(w) > 4:
		return collapseDouble(w[:len(w)-2])
	case strings.HasSuffix(w, "ly") && len(w) > 4:
		return w[:len(w)-2]
	}
	return w
}

// hasESStem reports whether stripping a trailing "es" leaves a plausible
// stem: "boxes" -> "box", "fixes" -> "fix", but "goes" keeps its "es".
func hasESStem(w string) bool {
	stem := w[:len(w)-2]
	last := stem[len(stem)-1]
	switch last {
	case 'x', 's', 'z':
		return true
	case 'h':
		if len(stem) >= 2 {
			prev := stem[len(stem)-2]
			return prev == 'c' || prev == 's'
		}
	}
	return false
}

// collapseDouble removes one of a trailing doubled consonant, so that
// "runn" (from "running") becomes "run" while "fill" stays "fill" long
// enough to remain recognizable.
func collapseDouble(stem string) string {
	n := len(stem)
	if n < 3 {
		return stem
	}
	last := stem[n-1]
	if stem[n-2] == last && !isVowel(last) && last != 'l' && last != 's' {
		return stem[:n-1]
	}
	return stem
}

// synonyms maps a canonical task-domain term to its alternatives. Lookup
// is bidirectional: querying any member of a group yields the whole group.
var synonyms = map[string][]string{
	"bug":    {"defect", "issue", "error", "fault", "problem"},
	"fix":    {"repair", "resolve", "correct", "patch"},
	"create": {"add", "new", "make", "build"},
	"remove": {"delete", "drop", "prune"},
	"update": {"edit", "modify", "change", "revise"},
	"done":   {"complete", "finished", "closed", "resolved"},
	"todo":   {"pending", "open", "backlog"},
	"start":  {"begin", "initiate"},
	"test":   {"verify", "check", "validate"},
	"ready":  {"prepared", "actionable"},
	"block":  {"stuck", "waiting", "blocked"},
	"doc":    {"document", "documentation", "readme"},
	"task":   {"ticket", "item", "chore"},
	"urgent": {"critical", "important", "priority"},
}

// synonymGroups indexes every member of every synonym group to the full
// group (canonical term included). Built once at init.
var synonymGroups = buildSynonymGroups()

func buildSynonymGroups() map[string][]string {
	groups := make(map[string][]string)
	for canonical, alts := range synonyms {
		group := append([]string{canonical}, alts...)
		for _, member := range group {
			groups[member] = group
		}
	}
	return groups
}

// Canonical reduces a token to one canonical form: synonym-group members
// fold onto the group's head term, everything else is stemmed, so "issue",
// "issues", and "bug" all canonicalize to "bug". The raw token is checked
// before its stem; stemming can mangle group members ("issue" stems to
// "iss").
func Canonical(token string) string {
	tok := strings.ToLower(token)
	if group, ok := synonymGroups[tok]; ok {
		return group[0]
	}
	stem := StemWord(tok)
	if group, ok := synonymGroups[stem]; ok {
		return group[0]
	}
	return stem
}

// CanonicalTokens tokenizes text and returns the deduplicated set of
// canonical forms of tokens longer than two characters. Titles that differ
// only by inflection or synonym choice produce identical sets.
func CanonicalTokens(text string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range Tokenize(text) {
		if len(tok) <= minTokenLen-1 {
			continue
		}
		set[Canonical(tok)] = true
	}
	return set
}

// ExpandWithSynonyms tokenizes and normalizes the query, stems each token,
// and unions in every synonym-group member for tokens that appear in the
// table. The result is deduplicated and keeps first-seen order.
func ExpandWithSynonyms(query string) []string {
	seen := make(map[string]bool)
	var out []string

	add := func(term string) {
		if term == "" || seen[term] {
			return
		}
		seen[term] = true
		out = append(out, term)
	}

	for _, tok := range Tokenize(query) {
		if len(tok) <= minTokenLen-1 {
			continue
		}
		add(tok)
		stem := StemWord(tok)
		add(stem)
		for _, key := range []string{tok, stem} {
			if group, ok := synonymGroups[key]; ok {
				for _, member := range group {
					add(member)
				}
			}
		}
	}
	return out
}
