package dto

import (
	"io"
	"time"

	"github.com/google/uuid"
)

type IngestArchiveRequest struct {
	Title       string   `form:"title" json:"title" validate:"required"`
	Description string   `form:"description" json:"description"`
	MediaTypes  []string `form:"media_types" json:"media_types" validate:"required,min=1,dive,oneof=image video audio document"`
	Tags        []string `form:"tags" json:"tags"`
	Dates       []string `form:"dates" json:"dates"`
}

// IngestFile is one uploaded file. Body must be readable twice.
type IngestFile struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.ReadSeeker
}

type ArchiveResponse struct {
	Id           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	Description  *string    `json:"description"`
	Summary      string     `json:"summary"`
	MediaTypes   []string   `json:"media_types"`
	Tags         []string   `json:"tags"`
	Dates        []string   `json:"dates"`
	StoragePaths []string   `json:"storage_paths"`
	GenAIFileIDs []string   `json:"genai_file_ids"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at"`
}

type ListArchivesRequest struct {
	Limit  int `query:"limit" validate:"omitempty,min=1,max=100"`
	Offset int `query:"offset" validate:"omitempty,min=0"`
}

type ListArchivesResponse struct {
	Archives []*ArchiveResponse `json:"archives"`
	Total    int64              `json:"total"`
	Limit    int                `json:"limit"`
	Offset   int                `json:"offset"`
}
