package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type Archive struct {
	Id           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Title        string          `gorm:"type:text;not null"`
	Description  *string         `gorm:"type:text"`
	Summary      string          `gorm:"type:text"`
	Embedding    pgvector.Vector `gorm:"type:vector(768)"` // text-embedding-004
	MediaTypes   pq.StringArray  `gorm:"type:text[];not null;default:'{}'"`
	Tags         pq.StringArray  `gorm:"type:text[];not null;default:'{}'"`
	Dates        datatypes.JSON  `gorm:"type:jsonb;not null;default:'[]'"` // ["2006-01-02", ...] in content order
	StoragePaths pq.StringArray  `gorm:"type:text[];not null;default:'{}'"`
	GenAIFileIDs pq.StringArray  `gorm:"column:genai_file_ids;type:text[];not null;default:'{}'"`
	FileURIs     pq.StringArray  `gorm:"column:file_uris;type:text[];not null;default:'{}'"`
	CreatedAt    time.Time       `gorm:"autoCreateTime;index"`
	UpdatedAt    *time.Time
}

func (Archive) TableName() string {
	return "archives"
}

// ScoredArchive is an archive row read together with its cosine similarity to a query vector.
type ScoredArchive struct {
	Archive
	Similarity float64
}
