package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"heritage-archive-be/internal/entity"
	"heritage-archive-be/internal/pkg/logger"
	"heritage-archive-be/internal/repository/specification"
	"heritage-archive-be/pkg/embedding"
	"heritage-archive-be/pkg/rag"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	calls    []string
	taskType string
	err      error
}

func (f *fakeEmbedder) Generate(_ context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
	f.calls = append(f.calls, text)
	f.taskType = taskType
	if f.err != nil {
		return nil, f.err
	}
	return &embedding.EmbeddingResponse{Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{float32(len(f.calls))}}}, nil
}

// fakeArchiveRepo answers SearchSimilar per call index and FindAll from a fixed slice.
type fakeArchiveRepo struct {
	similar    [][]*entity.ScoredArchive
	similarErr error
	searches   int
	thresholds []float64

	all      []*entity.Archive
	allErr   error
	lastSpec []specification.Specification
}

func (f *fakeArchiveRepo) Create(context.Context, *entity.Archive) error { return nil }
func (f *fakeArchiveRepo) Update(context.Context, *entity.Archive) error { return nil }
func (f *fakeArchiveRepo) Delete(context.Context, uuid.UUID) error       { return nil }
func (f *fakeArchiveRepo) FindOne(context.Context, ...specification.Specification) (*entity.Archive, error) {
	return nil, nil
}
func (f *fakeArchiveRepo) Count(context.Context, ...specification.Specification) (int64, error) {
	return int64(len(f.all)), nil
}

func (f *fakeArchiveRepo) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.Archive, error) {
	f.lastSpec = specs
	return f.all, f.allErr
}

func (f *fakeArchiveRepo) SearchSimilar(_ context.Context, _ []float32, threshold float64, _ int) ([]*entity.ScoredArchive, error) {
	f.thresholds = append(f.thresholds, threshold)
	if f.similarErr != nil {
		return nil, f.similarErr
	}
	i := f.searches
	f.searches++
	if i < len(f.similar) {
		return f.similar[i], nil
	}
	return nil, nil
}

var (
	idA = uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	idB = uuid.MustParse("00000000-0000-0000-0000-00000000000b")
	idC = uuid.MustParse("00000000-0000-0000-0000-00000000000c")
)

func scored(id uuid.UUID, s float64) *entity.ScoredArchive {
	return &entity.ScoredArchive{Archive: &entity.Archive{Id: id, Title: id.String()[34:]}, Similarity: s}
}

func TestSimilarityToolDedupesAcrossQueries(t *testing.T) {
	emb := &fakeEmbedder{}
	repo := &fakeArchiveRepo{similar: [][]*entity.ScoredArchive{
		{scored(idA, 0.72), scored(idB, 0.71)},
		{scored(idA, 0.9), scored(idC, 0.75)},
	}}
	tool := NewSimilarityTool(emb, repo, 0, logger.NewNopLogger())

	got, err := tool.SearchArchives(context.Background(), rag.SimilarityQuery{
		Queries: []string{"batik", " ", "kelantan batik"}, Threshold: 0.7, Limit: 10,
	})
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, idA.String(), got[0].ID)
	assert.InDelta(t, 0.9, *got[0].Similarity, 1e-9, "best score wins")
	assert.Equal(t, idC.String(), got[1].ID)
	assert.Equal(t, idB.String(), got[2].ID)
	for _, r := range got {
		assert.Equal(t, rag.SourceSimilarity, r.Source)
	}

	assert.Equal(t, []string{"batik", "kelantan batik"}, emb.calls, "blank queries are skipped")
	assert.Equal(t, embedding.TaskRetrievalQuery, emb.taskType)
	assert.Equal(t, []float64{0.7, 0.7}, repo.thresholds)
}

func TestSimilarityToolCache(t *testing.T) {
	emb := &fakeEmbedder{}
	repo := &fakeArchiveRepo{similar: [][]*entity.ScoredArchive{{scored(idA, 0.8)}, {scored(idB, 0.8)}}}
	tool := NewSimilarityTool(emb, repo, time.Minute, logger.NewNopLogger())
	q := rag.SimilarityQuery{Queries: []string{"batik"}, Threshold: 0.7, Limit: 10}

	first, err := tool.SearchArchives(context.Background(), q)
	require.NoError(t, err)
	second, err := tool.SearchArchives(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, emb.calls, 1)

	tool.Invalidate()
	third, err := tool.SearchArchives(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, idB.String(), third[0].ID)
	assert.Len(t, emb.calls, 2)
}

func TestSimilarityToolErrors(t *testing.T) {
	tests := []struct {
		name      string
		emb       *fakeEmbedder
		repo      *fakeArchiveRepo
		query     rag.SimilarityQuery
		wantErr   error
		retryable bool
	}{
		{
			name:    "empty queries are invalid",
			emb:     &fakeEmbedder{},
			repo:    &fakeArchiveRepo{},
			query:   rag.SimilarityQuery{Queries: []string{"  "}, Threshold: 0.7, Limit: 10},
			wantErr: rag.ErrInvalidInput,
		},
		{
			name:    "credential rejection is fatal",
			emb:     &fakeEmbedder{err: embedding.ErrUnauthorized},
			repo:    &fakeArchiveRepo{},
			query:   rag.SimilarityQuery{Queries: []string{"batik"}, Threshold: 0.7, Limit: 10},
			wantErr: rag.ErrToolFatal,
		},
		{
			name:      "database error is retryable",
			emb:       &fakeEmbedder{},
			repo:      &fakeArchiveRepo{similarErr: errors.New("connection reset")},
			query:     rag.SimilarityQuery{Queries: []string{"batik"}, Threshold: 0.7, Limit: 10},
			retryable: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool := NewSimilarityTool(tt.emb, tt.repo, 0, logger.NewNopLogger())
			_, err := tool.SearchArchives(context.Background(), tt.query)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Equal(t, !tt.retryable, rag.IsNonRetryable(err))
		})
	}
}

func TestFilterToolReadArchives(t *testing.T) {
	repo := &fakeArchiveRepo{all: []*entity.Archive{{Id: idA, Title: "Wau Bulan"}, {Id: idB, Title: "Wau Kucing"}}}
	tool := NewFilterTool(repo, logger.NewNopLogger())

	got, err := tool.ReadArchives(context.Background(), rag.FilterQuery{FilterBy: rag.FilterByTitle, FilterValue: "wau", Limit: 5})
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, r := range got {
		assert.Equal(t, rag.SourceFilter, r.Source)
		assert.Nil(t, r.Similarity)
	}

	require.Len(t, repo.lastSpec, 3)
	assert.Equal(t, specification.TitleContains{Value: "wau"}, repo.lastSpec[0])
	assert.Equal(t, specification.Pagination{Limit: 5}, repo.lastSpec[2])
}

func TestFilterToolDates(t *testing.T) {
	repo := &fakeArchiveRepo{}
	tool := NewFilterTool(repo, logger.NewNopLogger())

	_, err := tool.ReadArchives(context.Background(), rag.FilterQuery{FilterBy: rag.FilterByDateAfter, FilterValue: "1957-08-31", Limit: 5})
	require.NoError(t, err)
	after, ok := repo.lastSpec[0].(specification.DatedAfter)
	require.True(t, ok)
	assert.Equal(t, 1957, after.Date.Year())

	_, err = tool.ReadArchives(context.Background(), rag.FilterQuery{FilterBy: rag.FilterByDateBefore, FilterValue: "last year", Limit: 5})
	assert.ErrorIs(t, err, rag.ErrInvalidInput)

	_, err = tool.ReadArchives(context.Background(), rag.FilterQuery{FilterBy: "colour", FilterValue: "red", Limit: 5})
	assert.ErrorIs(t, err, rag.ErrInvalidInput)
}

func TestFilterToolRepositoryError(t *testing.T) {
	tool := NewFilterTool(&fakeArchiveRepo{allErr: errors.New("timeout")}, logger.NewNopLogger())
	_, err := tool.ReadArchives(context.Background(), rag.FilterQuery{FilterBy: rag.FilterByTag, FilterValue: "batik", Limit: 5})
	require.Error(t, err)
	assert.False(t, rag.IsNonRetryable(err))
}
