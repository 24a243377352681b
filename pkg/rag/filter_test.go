package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(id string, score float64) ArchiveRecord {
	return ArchiveRecord{ID: id, Title: id, Source: SourceSimilarity}.WithSimilarity(score)
}

func filterRec(id string) ArchiveRecord {
	return ArchiveRecord{ID: id, Title: id, Source: SourceFilter}
}

func ids(records []ArchiveRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func TestAcceptanceIsDeterministic(t *testing.T) {
	agg := NewAggregator(DefaultSettings())

	tests := []struct {
		score float64
		want  bool
	}{
		{0.0, false},
		{0.29, false},
		{0.2999, false},
		{0.3, true},
		{0.31, true},
		{0.95, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, agg.Accepts(rec("x", tt.score)), "score %.4f", tt.score)
	}
	assert.True(t, agg.Accepts(filterRec("f")))
}

func TestValidateOrdersAndDedupes(t *testing.T) {
	agg := NewAggregator(DefaultSettings())

	raw := []ArchiveRecord{
		filterRec("f2"),
		rec("a", 0.4),
		rec("b", 0.9),
		filterRec("f1"),
		rec("a", 0.6),
		rec("low", 0.1),
	}

	got := agg.Validate("heritage", raw)

	assert.Equal(t, []string{"b", "a", "f2", "f1"}, ids(got))
	score, ok := got[1].Score()
	require.True(t, ok)
	assert.Equal(t, 0.6, score)
}

func TestRelevanceCrossCheck(t *testing.T) {
	checker := RelevanceChecker{}
	desc := func(s string) *string { return &s }

	tests := []struct {
		name   string
		user   string
		record ArchiveRecord
		want   bool
	}{
		{"same region", "batik from Kelantan", ArchiveRecord{Title: "Kelantan textiles"}, true},
		{"different region", "batik from Kelantan", ArchiveRecord{Title: "Batik workshop", Tags: []string{"perak"}}, false},
		{"different item", "batik from Kelantan", ArchiveRecord{Title: "Songket of Kelantan"}, false},
		{"shared item among several", "batik", ArchiveRecord{Title: "Songket and batik exhibition"}, true},
		{"culture against region", "Minangkabau wedding", ArchiveRecord{Title: "Kadazan wedding", Description: desc("Sabah highlands")}, false},
		{"record names nothing", "keris from Perak", ArchiveRecord{Title: "Untitled reel"}, true},
		{"user names nothing", "old photographs", ArchiveRecord{Title: "Penang shophouses"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, checker.Relevant(ExtractTerms(tt.user), tt.record))
		})
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	agg := NewAggregator(DefaultSettings())
	state := NewConversationState("t")

	first := agg.Merge(state, []ArchiveRecord{rec("A", 0.9), rec("B", 0.8)})
	second := agg.Merge(state, []ArchiveRecord{rec("B", 0.85), rec("C", 0.7)})
	again := agg.Merge(state, []ArchiveRecord{rec("C", 0.7)})

	assert.Equal(t, []string{"A", "B"}, ids(first))
	assert.Equal(t, []string{"C"}, ids(second))
	assert.Empty(t, again)
	assert.Equal(t, 3, state.ArchiveCount())
	assert.Equal(t, []string{"A", "B", "C"}, ids(state.Archives()))
}

func TestMergeNeverStoresBelowFloor(t *testing.T) {
	agg := NewAggregator(DefaultSettings())
	state := NewConversationState("t")

	agg.Merge(state, []ArchiveRecord{rec("low", 0.2)})

	assert.False(t, state.HasArchive("low"))
}

func TestMergeOrdered(t *testing.T) {
	got := MergeOrdered(
		[]ArchiveRecord{filterRec("f1"), filterRec("f2")},
		[]ArchiveRecord{rec("s1", 0.9), filterRec("f1")},
		[]ArchiveRecord{rec("s2", 0.5)},
	)
	assert.Equal(t, []string{"s1", "s2", "f1", "f2"}, ids(got))
}

func TestRelevanceBand(t *testing.T) {
	assert.Equal(t, "excellent", RelevanceBand(0.72))
	assert.Equal(t, "good", RelevanceBand(0.5))
	assert.Equal(t, "good", RelevanceBand(0.35))
	assert.Equal(t, "fair", RelevanceBand(0.31))
}
