// Package textscan provides the lexical analysis primitives used by memory
// extraction and connection scoring: sentence splitting, word sets, and
// emotion/topic detection against fixed vocabularies.
package textscan

import (
	"strings"
	"unicode/utf8"
)

// EmotionWords is the fixed emotion vocabulary used for tagging.
var EmotionWords = []string{"happy", "sad", "angry", "anxious", "calm", "excited", "worried", "content"}

// TopicWords is the fixed topic vocabulary used for tagging.
var TopicWords = []string{"work", "family", "relationship", "health", "stress", "growth", "goals"}

// Sentences splits text into trimmed sentences on '.', '!' and '?'.
// Empty fragments are dropped.
func Sentences(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	var sentences []string
	for _, f := range fields {
		if t := strings.TrimSpace(f); t != "" {
			sentences = append(sentences, t)
		}
	}
	return sentences
}

// Words returns the set of lowercase words longer than minLen characters.
func Words(text string, minLen int) map[string]bool {
	words := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,!?;:'\"()")
		if len(w) > minLen {
			words[w] = true
		}
	}
	return words
}

// SharedWords counts words present in both texts, considering lowercase
// words longer than three characters.
func SharedWords(a, b string) int {
	wa := Words(a, 3)
	wb := Words(b, 3)
	shared := 0
	for w := range wa {
		if wb[w] {
			shared++
		}
	}
	return shared
}

// QueryTerms tokenizes a search query into lowercase terms longer than two
// characters.
func QueryTerms(query string) []string {
	var terms []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		w = strings.Trim(w, ".,!?;:'\"()")
		if len(w) > 2 {
			terms = append(terms, w)
		}
	}
	return terms
}

// Emotions returns the emotion words present in the text by substring match.
func Emotions(text string) []string {
	return detect(text, EmotionWords)
}

// Topics returns the topic words present in the text by substring match.
func Topics(text string) []string {
	return detect(text, TopicWords)
}

func detect(text string, vocabulary []string) []string {
	lower := strings.ToLower(text)
	var found []string
	for _, w := range vocabulary {
		if strings.Contains(lower, w) {
			found = append(found, w)
		}
	}
	return found
}

// ContainsAny reports whether the lowercase text contains any of the phrases.
func ContainsAny(text string, phrases []string) bool {
	lower := strings.ToLower(text)
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// Truncate shortens s to at most limit bytes without splitting a rune.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

// Dedup returns the items with duplicates removed, preserving first-seen
// order.
func Dedup(items []string) []string {
	seen := make(map[string]bool, len(items))
	var out []string
	for _, it := range items {
		if !seen[it] {
			seen[it] = true
			out = append(out, it)
		}
	}
	return out
}
