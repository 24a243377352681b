package rag

import (
	"context"
	"strings"
)

// KeywordReformulator builds the comprehensive query from the heritage vocabulary alone.
// It is deterministic and never fails.
type KeywordReformulator struct{}

// Reformulate expands the utterance with item synonyms, a region context and media hints.
// When the utterance names no item or region, the topic of the most recent previous query
// that did is carried forward, so "what about videos" keeps the thread's subject.
func (KeywordReformulator) Reformulate(_ context.Context, userText string, history History) (string, error) {
	previous := history.Queries
	terms := ExtractTerms(userText)
	words := newWordSet()

	for _, tok := range terms.Tokens {
		if _, isFormat := MediaFormats[tok]; isFormat {
			continue
		}
		words.add(tok)
	}

	items, regions := terms.Items, terms.Regions
	if len(items) == 0 && len(regions) == 0 {
		for i := len(previous) - 1; i >= 0; i-- {
			prev := ExtractTerms(previous[i])
			if len(prev.Items) > 0 || len(prev.Regions) > 0 {
				items, regions = prev.Items, prev.Regions
				break
			}
		}
	}

	for _, item := range items {
		words.add(itemExpansions[item])
	}
	for _, region := range regions {
		words.add(region)
	}
	if len(regions) > 0 {
		words.add("malaysian heritage")
	}
	for _, format := range terms.Formats {
		words.add(mediaHints[format])
	}
	if words.empty() {
		return strings.TrimSpace(userText), nil
	}
	if !terms.HasDomainSignal() && len(items) == 0 && len(regions) == 0 {
		words.add("heritage")
	}
	return words.String(), nil
}

type wordSet struct {
	seen  map[string]bool
	order []string
}

func newWordSet() *wordSet {
	return &wordSet{seen: make(map[string]bool)}
}

func (w *wordSet) add(phrase string) {
	for _, word := range strings.Fields(phrase) {
		if w.seen[word] {
			continue
		}
		w.seen[word] = true
		w.order = append(w.order, word)
	}
}

func (w *wordSet) empty() bool {
	return len(w.order) == 0
}

func (w *wordSet) String() string {
	return strings.Join(w.order, " ")
}
