package mapper

import (
	"encoding/json"
	"time"

	"heritage-archive-be/internal/entity"
	"heritage-archive-be/internal/model"
	"heritage-archive-be/pkg/rag"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

const dateLayout = "2006-01-02"

type ArchiveMapper struct{}

func NewArchiveMapper() *ArchiveMapper {
	return &ArchiveMapper{}
}

func (m *ArchiveMapper) ToEntity(a *model.Archive) *entity.Archive {
	if a == nil {
		return nil
	}

	return &entity.Archive{
		Id:           a.Id,
		Title:        a.Title,
		Description:  a.Description,
		Summary:      a.Summary,
		Embedding:    a.Embedding.Slice(),
		MediaTypes:   []string(a.MediaTypes),
		Tags:         []string(a.Tags),
		Dates:        decodeDates(a.Dates),
		StoragePaths: []string(a.StoragePaths),
		GenAIFileIDs: []string(a.GenAIFileIDs),
		FileURIs:     []string(a.FileURIs),
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func (m *ArchiveMapper) ToModel(e *entity.Archive) *model.Archive {
	if e == nil {
		return nil
	}

	return &model.Archive{
		Id:           e.Id,
		Title:        e.Title,
		Description:  e.Description,
		Summary:      e.Summary,
		Embedding:    pgvector.NewVector(e.Embedding),
		MediaTypes:   pq.StringArray(orEmpty(e.MediaTypes)),
		Tags:         pq.StringArray(orEmpty(e.Tags)),
		Dates:        encodeDates(e.Dates),
		StoragePaths: pq.StringArray(orEmpty(e.StoragePaths)),
		GenAIFileIDs: pq.StringArray(orEmpty(e.GenAIFileIDs)),
		FileURIs:     pq.StringArray(orEmpty(e.FileURIs)),
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

func (m *ArchiveMapper) ToEntities(archives []*model.Archive) []*entity.Archive {
	entities := make([]*entity.Archive, len(archives))
	for i, a := range archives {
		entities[i] = m.ToEntity(a)
	}
	return entities
}

// ToRecord builds the tool-facing record. similarity is nil for metadata lookups.
func (m *ArchiveMapper) ToRecord(e *entity.Archive, similarity *float64) rag.ArchiveRecord {
	rec := rag.ArchiveRecord{
		ID:           e.Id.String(),
		Title:        e.Title,
		Description:  e.Description,
		Summary:      e.Summary,
		MediaTypes:   e.MediaTypes,
		Dates:        e.Dates,
		Tags:         e.Tags,
		StoragePaths: e.StoragePaths,
		GenAIFileIDs: e.GenAIFileIDs,
		FileURIs:     e.FileURIs,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
		Source:       rag.SourceFilter,
	}
	if similarity != nil {
		rec = rec.WithSimilarity(*similarity)
		rec.Source = rag.SourceSimilarity
	}
	return rec
}

func encodeDates(dates []time.Time) datatypes.JSON {
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.UTC().Format(dateLayout))
	}
	raw, _ := json.Marshal(out)
	return datatypes.JSON(raw)
}

// decodeDates skips values it cannot parse; rows written by older importers may hold free text.
func decodeDates(raw datatypes.JSON) []time.Time {
	if len(raw) == 0 {
		return nil
	}
	var values []string
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil
	}
	dates := make([]time.Time, 0, len(values))
	for _, v := range values {
		if t, err := ParseDate(v); err == nil {
			dates = append(dates, t)
		}
	}
	return dates
}

// ParseDate accepts RFC3339 or YYYY-MM-DD.
func ParseDate(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse(dateLayout, v)
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
