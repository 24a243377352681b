package entity

import (
	"time"

	"github.com/google/uuid"
)

type Archive struct {
	Id           uuid.UUID
	Title        string
	Description  *string
	Summary      string
	Embedding    []float32
	MediaTypes   []string
	Tags         []string
	Dates        []time.Time
	StoragePaths []string
	GenAIFileIDs []string
	FileURIs     []string
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}

// ScoredArchive pairs an archive with its similarity to the query, 0.0 to 1.0 (1.0 = identical).
type ScoredArchive struct {
	Archive    *Archive
	Similarity float64
}
