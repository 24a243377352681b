package rag

import (
	"time"
)

// RecordSource tells which tool produced an archive record.
type RecordSource string

const (
	SourceSimilarity RecordSource = "similarity"
	SourceFilter     RecordSource = "filter"
)

// ArchiveRecord is an immutable snapshot of one archive row as returned by a tool call.
type ArchiveRecord struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Description  *string      `json:"description,omitempty"`
	Summary      string       `json:"summary,omitempty"`
	MediaTypes   []string     `json:"media_types"`
	Dates        []time.Time  `json:"dates,omitempty"`
	Tags         []string     `json:"tags,omitempty"`
	StoragePaths []string     `json:"storage_paths,omitempty"`
	GenAIFileIDs []string     `json:"genai_file_ids,omitempty"`
	FileURIs     []string     `json:"file_uris,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    *time.Time   `json:"updated_at,omitempty"`
	Similarity   *float64     `json:"similarity,omitempty"`
	Source       RecordSource `json:"-"`
}

// Score returns the similarity score and whether one is present.
// Filter-tool records never carry a score even if the field was set upstream.
func (r ArchiveRecord) Score() (float64, bool) {
	if r.Source == SourceFilter || r.Similarity == nil {
		return 0, false
	}
	return *r.Similarity, true
}

// WithSimilarity returns a copy carrying the given score.
func (r ArchiveRecord) WithSimilarity(score float64) ArchiveRecord {
	s := score
	r.Similarity = &s
	return r
}

// RelevanceBand buckets a similarity score for display.
func RelevanceBand(score float64) string {
	switch {
	case score > 0.5:
		return "excellent"
	case score >= 0.35:
		return "good"
	default:
		return "fair"
	}
}
