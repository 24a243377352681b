package implementation

import (
	"context"
	"errors"

	"heritage-archive-be/internal/entity"
	"heritage-archive-be/internal/mapper"
	"heritage-archive-be/internal/model"
	"heritage-archive-be/internal/repository/contract"
	"heritage-archive-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type ArchiveRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ArchiveMapper
}

func NewArchiveRepository(db *gorm.DB) contract.ArchiveRepository {
	return &ArchiveRepositoryImpl{
		db:     db,
		mapper: mapper.NewArchiveMapper(),
	}
}

func (r *ArchiveRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	return specification.ApplyAll(db, specs...)
}

func (r *ArchiveRepositoryImpl) Create(ctx context.Context, archive *entity.Archive) error {
	m := r.mapper.ToModel(archive)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*archive = *r.mapper.ToEntity(m)
	return nil
}

func (r *ArchiveRepositoryImpl) Update(ctx context.Context, archive *entity.Archive) error {
	m := r.mapper.ToModel(archive)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*archive = *r.mapper.ToEntity(m)
	return nil
}

func (r *ArchiveRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Archive{}, id).Error
}

func (r *ArchiveRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Archive, error) {
	var m model.Archive
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Archive{}), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *ArchiveRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Archive, error) {
	var models []*model.Archive
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Archive{}), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *ArchiveRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Archive{}), specs...)
	err := query.Count(&count).Error
	return count, err
}

func (r *ArchiveRepositoryImpl) SearchSimilar(ctx context.Context, embedding []float32, threshold float64, limit int) ([]*entity.ScoredArchive, error) {
	if limit <= 0 {
		limit = 10
	}

	// pgvector <=> is cosine distance, so similarity = 1 - distance
	var results []model.ScoredArchive
	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("archives").
		Select("archives.*, 1 - (embedding <=> ?) as similarity", queryVector).
		Where("embedding IS NOT NULL").
		Where("1 - (embedding <=> ?) >= ?", queryVector, threshold).
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*entity.ScoredArchive, len(results))
	for i := range results {
		scored[i] = &entity.ScoredArchive{
			Archive:    r.mapper.ToEntity(&results[i].Archive),
			Similarity: results[i].Similarity,
		}
	}
	return scored, nil
}
