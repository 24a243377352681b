package executor

import (
	"context"
	"fmt"

	"heritage-archive-be/pkg/rag"
)

// invoke runs one step against the tool it selects and stamps the source on every record.
func (e *RetrievalExecutor) invoke(ctx context.Context, step rag.RetrievalStep) ([]rag.ArchiveRecord, error) {
	switch step.Tool {
	case rag.ToolSimilarity:
		records, err := e.similarity.SearchArchives(ctx, rag.SimilarityQuery{
			Queries:   []string{step.Query},
			Threshold: step.Threshold,
			Limit:     step.Limit,
		})
		if err != nil {
			return nil, err
		}
		for i := range records {
			records[i].Source = rag.SourceSimilarity
		}
		return records, nil

	case rag.ToolFilter:
		records, err := e.filter.ReadArchives(ctx, rag.FilterQuery{
			FilterBy:    step.FilterBy,
			FilterValue: step.FilterValue,
			Limit:       step.Limit,
		})
		if err != nil {
			return nil, err
		}
		for i := range records {
			records[i].Source = rag.SourceFilter
			records[i].Similarity = nil
		}
		return records, nil
	}

	return nil, fmt.Errorf("%w: unknown tool %q", rag.ErrInvalidInput, step.Tool)
}

func recordIDs(records []rag.ArchiveRecord) []string {
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	return ids
}
