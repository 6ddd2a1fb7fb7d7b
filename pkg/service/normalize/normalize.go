// Package normalize turns guideline and case text into the tokens, chunks and
// labels used by retrieval and plan reconciliation.
package normalize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MinTokenLength is the shortest token kept by Tokenize
const MinTokenLength = 3

// MaxQueryTerms is the number of unique terms kept in a full-text query
const MaxQueryTerms = 12

func isTokenRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r >= 'а' && r <= 'я':
		return true
	case r == 'ё':
		return true
	}
	return false
}

// Tokenize lowercases s, treats every rune outside Latin and Cyrillic
// letters and digits as a separator and keeps tokens of at least
// MinTokenLength runes.
func Tokenize(s string) []string {
	lower := strings.ToLower(s)
	fields := strings.FieldsFunc(lower, func(r rune) bool {
		return unicode.IsSpace(r) || !isTokenRune(r)
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) >= MinTokenLength {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// TokenSet returns the distinct tokens of s
func TokenSet(s string) map[string]struct{} {
	tokens := Tokenize(s)
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// Overlaps reports whether any of tokens is in set
func Overlaps(set map[string]struct{}, tokens []string) bool {
	for _, t := range tokens {
		if _, ok := set[t]; ok {
			return true
		}
	}
	return false
}

// FullTextQuery returns up to MaxQueryTerms unique tokens of s in order of
// first appearance. Each is meant to be matched as a prefix term.
func FullTextQuery(s string) []string {
	seen := make(map[string]struct{})
	var terms []string
	for _, t := range Tokenize(s) {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		terms = append(terms, t)
		if len(terms) == MaxQueryTerms {
			break
		}
	}
	return terms
}

// Truncate cuts s to at most n runes
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// SentenceChunks splits text after '.', '!' or '?' followed by whitespace and
// greedily packs the fragments into chunks of at most maxLen runes. A
// fragment longer than maxLen is first cut at word boundaries, or mid-word
// when a word alone exceeds maxLen.
func SentenceChunks(text string, maxLen int) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var fragments []string
	for _, fragment := range splitSentences(text) {
		fragments = append(fragments, splitLong(fragment, maxLen)...)
	}

	var chunks []string
	bucket := ""
	for _, fragment := range fragments {
		joined := strings.TrimSpace(bucket + " " + fragment)
		if utf8.RuneCountInString(joined) > maxLen {
			if b := strings.TrimSpace(bucket); b != "" {
				chunks = append(chunks, b)
			}
			bucket = fragment
		} else {
			bucket = bucket + " " + fragment
		}
	}
	if b := strings.TrimSpace(bucket); b != "" {
		chunks = append(chunks, b)
	}
	return chunks
}

func splitLong(fragment string, maxLen int) []string {
	runes := []rune(strings.TrimSpace(fragment))
	if maxLen <= 0 || len(runes) <= maxLen {
		return []string{string(runes)}
	}

	var pieces []string
	for len(runes) > maxLen {
		cut := maxLen
		for i := maxLen; i > maxLen/2; i-- {
			if unicode.IsSpace(runes[i]) {
				cut = i
				break
			}
		}
		if piece := strings.TrimSpace(string(runes[:cut])); piece != "" {
			pieces = append(pieces, piece)
		}
		runes = []rune(strings.TrimSpace(string(runes[cut:])))
	}
	if len(runes) > 0 {
		pieces = append(pieces, string(runes))
	}
	return pieces
}

func splitSentences(text string) []string {
	var fragments []string
	var sb strings.Builder
	var prev rune
	inGap := false

	flush := func() {
		if f := strings.TrimSpace(sb.String()); f != "" {
			fragments = append(fragments, f)
		}
		sb.Reset()
	}

	for _, r := range text {
		if unicode.IsSpace(r) {
			if inGap {
				continue
			}
			if prev == '.' || prev == '!' || prev == '?' {
				flush()
				inGap = true
				continue
			}
		}
		inGap = false
		sb.WriteRune(r)
		prev = r
	}
	flush()
	return fragments
}

var evidenceLevelPattern = regexp.MustCompile(
	`(?i)уровень\s+убедительности\s+рекомендаций\s*[-–:]\s*([A-Za-zА-Яа-я0-9]+)`)

// ExtractEvidenceLevel returns the grade of recommendation stated in text,
// or an empty string
func ExtractEvidenceLevel(text string) string {
	m := evidenceLevelPattern.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}
