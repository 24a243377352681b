package contract

import (
	"context"

	"heritage-archive-be/internal/entity"
	"heritage-archive-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ArchiveRepository interface {
	Create(ctx context.Context, archive *entity.Archive) error
	Update(ctx context.Context, archive *entity.Archive) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Archive, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Archive, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// SearchSimilar returns archives whose cosine similarity to embedding is at least threshold, best first.
	SearchSimilar(ctx context.Context, embedding []float32, threshold float64, limit int) ([]*entity.ScoredArchive, error)
}
