package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"heritage-archive-be/internal/mapper"
	"heritage-archive-be/internal/pkg/logger"
	"heritage-archive-be/internal/repository/contract"
	"heritage-archive-be/pkg/embedding"
	"heritage-archive-be/pkg/rag"

	"github.com/patrickmn/go-cache"
)

// SimilarityTool implements search_archives_db on top of pgvector.
type SimilarityTool struct {
	embedder embedding.EmbeddingProvider
	repo     contract.ArchiveRepository
	mapper   *mapper.ArchiveMapper
	cache    *cache.Cache
	logger   logger.ILogger
}

var _ rag.SimilarityTool = (*SimilarityTool)(nil)

// NewSimilarityTool caches result sets for cacheTTL. A zero TTL disables the cache.
func NewSimilarityTool(embedder embedding.EmbeddingProvider, repo contract.ArchiveRepository, cacheTTL time.Duration, log logger.ILogger) *SimilarityTool {
	t := &SimilarityTool{
		embedder: embedder,
		repo:     repo,
		mapper:   mapper.NewArchiveMapper(),
		logger:   log,
	}
	if cacheTTL > 0 {
		t.cache = cache.New(cacheTTL, 2*cacheTTL)
	}
	return t
}

func (t *SimilarityTool) SearchArchives(ctx context.Context, q rag.SimilarityQuery) ([]rag.ArchiveRecord, error) {
	queries := make([]string, 0, len(q.Queries))
	for _, text := range q.Queries {
		if text = strings.TrimSpace(text); text != "" {
			queries = append(queries, text)
		}
	}
	q.Queries = queries
	if err := q.Validate(); err != nil {
		return nil, err
	}

	key := cacheKey(q)
	if t.cache != nil {
		if cached, found := t.cache.Get(key); found {
			return append([]rag.ArchiveRecord(nil), cached.([]rag.ArchiveRecord)...), nil
		}
	}

	best := make(map[string]rag.ArchiveRecord)
	for _, text := range q.Queries {
		res, err := t.embedder.Generate(ctx, text, embedding.TaskRetrievalQuery)
		if err != nil {
			if errors.Is(err, embedding.ErrUnauthorized) {
				return nil, fmt.Errorf("%w: %v", rag.ErrToolFatal, err)
			}
			return nil, fmt.Errorf("embed query: %w", err)
		}

		scored, err := t.repo.SearchSimilar(ctx, res.Embedding.Values, q.Threshold, q.Limit)
		if err != nil {
			return nil, fmt.Errorf("similarity search: %w", err)
		}

		for _, s := range scored {
			similarity := s.Similarity
			rec := t.mapper.ToRecord(s.Archive, &similarity)
			if prev, seen := best[rec.ID]; seen && *prev.Similarity >= similarity {
				continue
			}
			best[rec.ID] = rec
		}
	}

	records := make([]rag.ArchiveRecord, 0, len(best))
	for _, rec := range best {
		records = append(records, rec)
	}
	sort.SliceStable(records, func(i, j int) bool {
		if *records[i].Similarity != *records[j].Similarity {
			return *records[i].Similarity > *records[j].Similarity
		}
		return records[i].ID < records[j].ID
	})

	t.logger.Debug("SEARCH", "Similarity search complete", map[string]interface{}{
		"queries":   q.Queries,
		"threshold": q.Threshold,
		"results":   len(records),
	})

	if t.cache != nil {
		t.cache.SetDefault(key, records)
	}
	return append([]rag.ArchiveRecord(nil), records...), nil
}

// Invalidate drops cached result sets. Called when the archive table changes.
func (t *SimilarityTool) Invalidate() {
	if t.cache != nil {
		t.cache.Flush()
	}
}

func cacheKey(q rag.SimilarityQuery) string {
	return fmt.Sprintf("%s|%.4f|%d", strings.Join(q.Queries, "\x1f"), q.Threshold, q.Limit)
}
