package rag

import (
	"context"
	"fmt"
)

// Tool names as exposed to callers and recorded in transcripts.
const (
	ToolSearchArchives = "search_archives_db"
	ToolReadArchives   = "read_archives_data"
)

// FilterDimension is the metadata field a filter step matches on.
type FilterDimension string

const (
	FilterByTag        FilterDimension = "tag"
	FilterByTitle      FilterDimension = "title"
	FilterByMediaType  FilterDimension = "media_type"
	FilterByDateAfter  FilterDimension = "date_after"
	FilterByDateBefore FilterDimension = "date_before"
)

// Valid reports whether d is a supported dimension.
func (d FilterDimension) Valid() bool {
	switch d {
	case FilterByTag, FilterByTitle, FilterByMediaType, FilterByDateAfter, FilterByDateBefore:
		return true
	}
	return false
}

// SimilarityQuery is the input of search_archives_db.
type SimilarityQuery struct {
	Queries   []string `json:"queries"`
	Threshold float64  `json:"threshold"`
	Limit     int      `json:"limit"`
}

func (q SimilarityQuery) Validate() error {
	if len(q.Queries) == 0 {
		return fmt.Errorf("%w: at least one query is required", ErrInvalidInput)
	}
	if q.Threshold <= 0 || q.Threshold > 1 {
		return fmt.Errorf("%w: threshold %.2f outside (0,1]", ErrInvalidInput, q.Threshold)
	}
	if q.Limit <= 0 {
		return fmt.Errorf("%w: limit must be positive", ErrInvalidInput)
	}
	return nil
}

// FilterQuery is the input of read_archives_data.
type FilterQuery struct {
	FilterBy    FilterDimension `json:"filter_by"`
	FilterValue string          `json:"filter_value"`
	Limit       int             `json:"limit"`
}

func (q FilterQuery) Validate() error {
	if !q.FilterBy.Valid() {
		return fmt.Errorf("%w: unknown filter dimension %q", ErrInvalidInput, q.FilterBy)
	}
	if q.FilterValue == "" {
		return fmt.Errorf("%w: filter value is required", ErrInvalidInput)
	}
	if q.Limit <= 0 {
		return fmt.Errorf("%w: limit must be positive", ErrInvalidInput)
	}
	return nil
}

// SimilarityTool returns ranked records with Similarity populated,
// deduplicated across the input queries and capped at Limit per query.
type SimilarityTool interface {
	SearchArchives(ctx context.Context, q SimilarityQuery) ([]ArchiveRecord, error)
}

// FilterTool returns exactly-matching records, unranked and without a score.
type FilterTool interface {
	ReadArchives(ctx context.Context, q FilterQuery) ([]ArchiveRecord, error)
}
