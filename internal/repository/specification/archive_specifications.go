package specification

import (
	"fmt"
	"strings"
	"time"

	"heritage-archive-be/pkg/rag"

	"gorm.io/gorm"
)

// TagEquals matches archives carrying the tag Value, ignoring case.
// "bat" does not match "batik".
type TagEquals struct {
	Value string
}

func (s TagEquals) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("EXISTS (SELECT 1 FROM unnest(archives.tags) AS tag WHERE lower(tag) = lower(?))", strings.TrimSpace(s.Value))
}

// TitleContains matches archives whose title contains Value, case-insensitive.
type TitleContains struct {
	Value string
}

func (s TitleContains) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("archives.title ILIKE ?", likePattern(s.Value))
}

// HasMediaType matches archives carrying the media type exactly.
type HasMediaType struct {
	MediaType string
}

func (s HasMediaType) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("? = ANY(archives.media_types)", strings.ToLower(s.MediaType))
}

// DatedAfter matches archives with at least one content date on or after Date.
type DatedAfter struct {
	Date time.Time
}

func (s DatedAfter) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("EXISTS (SELECT 1 FROM jsonb_array_elements_text(archives.dates) AS d WHERE d::date >= ?)", s.Date.Format("2006-01-02"))
}

// DatedBefore matches archives with at least one content date on or before Date.
type DatedBefore struct {
	Date time.Time
}

func (s DatedBefore) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("EXISTS (SELECT 1 FROM jsonb_array_elements_text(archives.dates) AS d WHERE d::date <= ?)", s.Date.Format("2006-01-02"))
}

// NewestFirst orders archives by creation time, newest first.
type NewestFirst struct{}

func (NewestFirst) Apply(db *gorm.DB) *gorm.DB {
	return db.Order("archives.created_at DESC")
}

// ArchiveFilter builds the specification for one metadata filter dimension.
// Unknown dimensions and unparseable dates are invalid input.
func ArchiveFilter(dim rag.FilterDimension, value string, parseDate func(string) (time.Time, error)) (Specification, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("%w: filter_value must not be empty", rag.ErrInvalidInput)
	}

	switch dim {
	case rag.FilterByTag:
		return TagEquals{Value: value}, nil
	case rag.FilterByTitle:
		return TitleContains{Value: value}, nil
	case rag.FilterByMediaType:
		return HasMediaType{MediaType: value}, nil
	case rag.FilterByDateAfter, rag.FilterByDateBefore:
		date, err := parseDate(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s expects YYYY-MM-DD or RFC3339, got %q", rag.ErrInvalidInput, dim, value)
		}
		if dim == rag.FilterByDateAfter {
			return DatedAfter{Date: date}, nil
		}
		return DatedBefore{Date: date}, nil
	}
	return nil, fmt.Errorf("%w: unknown filter_by %q", rag.ErrInvalidInput, dim)
}

func likePattern(v string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(v)
	return "%" + escaped + "%"
}
