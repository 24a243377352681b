package search

import (
	"context"
	"fmt"

	"heritage-archive-be/internal/mapper"
	"heritage-archive-be/internal/pkg/logger"
	"heritage-archive-be/internal/repository/contract"
	"heritage-archive-be/internal/repository/specification"
	"heritage-archive-be/pkg/rag"
)

// FilterTool implements read_archives_data: exact metadata matches, newest first, unscored.
type FilterTool struct {
	repo   contract.ArchiveRepository
	mapper *mapper.ArchiveMapper
	logger logger.ILogger
}

var _ rag.FilterTool = (*FilterTool)(nil)

func NewFilterTool(repo contract.ArchiveRepository, log logger.ILogger) *FilterTool {
	return &FilterTool{
		repo:   repo,
		mapper: mapper.NewArchiveMapper(),
		logger: log,
	}
}

func (t *FilterTool) ReadArchives(ctx context.Context, q rag.FilterQuery) ([]rag.ArchiveRecord, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	spec, err := specification.ArchiveFilter(q.FilterBy, q.FilterValue, mapper.ParseDate)
	if err != nil {
		return nil, err
	}

	archives, err := t.repo.FindAll(ctx,
		spec,
		specification.NewestFirst{},
		specification.Pagination{Limit: q.Limit},
	)
	if err != nil {
		return nil, fmt.Errorf("filter %s: %w", q.FilterBy, err)
	}

	records := make([]rag.ArchiveRecord, 0, len(archives))
	for _, a := range archives {
		records = append(records, t.mapper.ToRecord(a, nil))
	}

	t.logger.Debug("SEARCH", "Metadata filter complete", map[string]interface{}{
		"filter_by":    string(q.FilterBy),
		"filter_value": q.FilterValue,
		"results":      len(records),
	})
	return records, nil
}
