package response

import (
	"time"

	"heritage-archive-be/pkg/rag"
)

// ArchiveView is the client-facing shape of an accepted archive record.
type ArchiveView struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  *string    `json:"description"`
	Summary      string     `json:"summary,omitempty"`
	MediaTypes   []string   `json:"media_types"`
	Dates        []string   `json:"dates"`
	Tags         []string   `json:"tags"`
	StoragePaths []string   `json:"storage_paths"`
	GenAIFileIDs []string   `json:"genai_file_ids"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at"`
	Similarity   *float64   `json:"similarity"`
	Relevance    string     `json:"relevance,omitempty"`
}

// NewArchiveView converts a record. Filter-sourced records never expose a score.
func NewArchiveView(rec rag.ArchiveRecord) ArchiveView {
	view := ArchiveView{
		ID:           rec.ID,
		Title:        rec.Title,
		Description:  rec.Description,
		Summary:      rec.Summary,
		MediaTypes:   orEmpty(rec.MediaTypes),
		Dates:        make([]string, 0, len(rec.Dates)),
		Tags:         orEmpty(rec.Tags),
		StoragePaths: orEmpty(rec.StoragePaths),
		GenAIFileIDs: orEmpty(rec.GenAIFileIDs),
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
	}
	for _, d := range rec.Dates {
		view.Dates = append(view.Dates, d.Format("2006-01-02"))
	}
	if score, ok := rec.Score(); ok {
		s := score
		view.Similarity = &s
		view.Relevance = rag.RelevanceBand(score)
	}
	return view
}

// Views converts records in order.
func Views(records []rag.ArchiveRecord) []ArchiveView {
	views := make([]ArchiveView, 0, len(records))
	for _, rec := range records {
		views = append(views, NewArchiveView(rec))
	}
	return views
}

// FinalMessage is the explanatory text of a completed search turn; empty when something was found.
func FinalMessage(total int) string {
	if total == 0 {
		return NoResultsMessage
	}
	return ""
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
