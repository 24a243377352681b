// FILE: pkg/rag/filter.go
// PURPOSE: Result aggregation: dedupe, score floor, relevance cross-check, merge into state

package rag

import (
	"sort"
	"strings"
)

// ============================================================
// RELEVANCE CROSS-CHECK
// ============================================================

// RelevanceChecker rejects records that name a different region or item than the one the user asked for.
type RelevanceChecker struct{}

// Relevant returns false only for a clear mismatch: the user named a region (or item),
// the record names one or more regions (or items), and none of them overlap.
// Anything less certain is accepted.
func (RelevanceChecker) Relevant(userTerms Terms, rec ArchiveRecord) bool {
	if len(userTerms.Regions) == 0 && len(userTerms.Items) == 0 {
		return true
	}
	recTerms := ExtractTerms(recordText(rec))

	if conflicting(userTerms.Regions, recTerms.Regions) {
		return false
	}
	if conflicting(userTerms.Items, recTerms.Items) {
		return false
	}
	return true
}

func conflicting(want, have []string) bool {
	if len(want) == 0 || len(have) == 0 {
		return false
	}
	for _, w := range want {
		for _, h := range have {
			if w == h {
				return false
			}
		}
	}
	return true
}

func recordText(rec ArchiveRecord) string {
	var sb strings.Builder
	sb.WriteString(rec.Title)
	if rec.Description != nil {
		sb.WriteString(" ")
		sb.WriteString(*rec.Description)
	}
	for _, tag := range rec.Tags {
		sb.WriteString(" ")
		sb.WriteString(tag)
	}
	return sb.String()
}

// ============================================================
// AGGREGATOR
// ============================================================

// Aggregator validates raw tool output. Validate is pure; Merge is the only mutation.
type Aggregator struct {
	minSimilarity float64
	checker       RelevanceChecker
}

// NewAggregator builds an aggregator with the configured acceptance floor.
func NewAggregator(settings Settings) *Aggregator {
	return &Aggregator{minSimilarity: settings.Normalize().MinSimilarity}
}

// MinSimilarity is the acceptance floor for scored records.
func (a *Aggregator) MinSimilarity() float64 {
	return a.minSimilarity
}

// Accepts reports whether a single record passes the score floor.
// Unscored (filter) records always pass.
func (a *Aggregator) Accepts(rec ArchiveRecord) bool {
	score, ok := rec.Score()
	if !ok {
		return true
	}
	return score >= a.minSimilarity
}

// Validate deduplicates raw by identity, applies the score floor and the relevance check,
// and orders the result: scored records by descending score, then unscored in tool order.
// Records already in state are kept in the result (they count toward totals) but are not new.
func (a *Aggregator) Validate(userText string, raw []ArchiveRecord) []ArchiveRecord {
	userTerms := ExtractTerms(userText)

	best := make(map[string]int, len(raw))
	var scored, unscored []ArchiveRecord

	for _, rec := range raw {
		if rec.ID == "" || !a.Accepts(rec) || !a.checker.Relevant(userTerms, rec) {
			continue
		}
		if idx, seen := best[rec.ID]; seen {
			// keep the higher score for a duplicated scored record
			if idx >= 0 {
				prev, _ := scored[idx].Score()
				if cur, ok := rec.Score(); ok && cur > prev {
					scored[idx] = rec
				}
			}
			continue
		}
		if _, ok := rec.Score(); ok {
			best[rec.ID] = len(scored)
			scored = append(scored, rec)
		} else {
			best[rec.ID] = -1
			unscored = append(unscored, rec)
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		si, _ := scored[i].Score()
		sj, _ := scored[j].Score()
		return si > sj
	})

	return append(scored, unscored...)
}

// Merge adds accepted records to state.archives_found and returns the ones that were new.
// Re-adding an identity already present is a no-op.
func (a *Aggregator) Merge(state *ConversationState, accepted []ArchiveRecord) []ArchiveRecord {
	var added []ArchiveRecord
	for _, rec := range accepted {
		if !a.Accepts(rec) {
			continue
		}
		if state.AddArchive(rec) {
			added = append(added, rec)
		}
	}
	return added
}

// MergeOrdered combines per-step accepted sets for one turn: similarity-sourced first, then filter-sourced,
// each keeping its own order, deduplicated by identity.
func MergeOrdered(batches ...[]ArchiveRecord) []ArchiveRecord {
	seen := make(map[string]bool)
	var scored, unscored []ArchiveRecord
	for _, batch := range batches {
		for _, rec := range batch {
			if seen[rec.ID] {
				continue
			}
			seen[rec.ID] = true
			if _, ok := rec.Score(); ok {
				scored = append(scored, rec)
			} else {
				unscored = append(unscored, rec)
			}
		}
	}
	return append(scored, unscored...)
}
