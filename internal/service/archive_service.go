package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"heritage-archive-be/internal/dto"
	"heritage-archive-be/internal/entity"
	"heritage-archive-be/internal/mapper"
	"heritage-archive-be/internal/pkg/logger"
	"heritage-archive-be/internal/repository/specification"
	"heritage-archive-be/internal/repository/unitofwork"
	"heritage-archive-be/pkg/events"
	"heritage-archive-be/pkg/rag"
	"heritage-archive-be/pkg/rag/prompt"
	"heritage-archive-be/pkg/storage"

	"github.com/google/uuid"
	"google.golang.org/genai"
)

var ErrArchiveNotFound = errors.New("archive not found")

const defaultListLimit = 20

type IArchiveService interface {
	Ingest(ctx context.Context, request *dto.IngestArchiveRequest, files []dto.IngestFile) (*dto.ArchiveResponse, error)
	Show(ctx context.Context, id uuid.UUID) (*dto.ArchiveResponse, error)
	List(ctx context.Context, request *dto.ListArchivesRequest) (*dto.ListArchivesResponse, error)
}

// ArchiveAnalyzer is the model side of ingest. *ingest.Analyzer implements it.
type ArchiveAnalyzer interface {
	UploadFile(ctx context.Context, r io.Reader, displayName, mimeType string) (*genai.File, error)
	Summarize(ctx context.Context, files []*genai.File, meta prompt.ArchiveMetadata) (string, error)
	Embed(ctx context.Context, summary string) ([]float32, error)
}

// IngestObserver records ingest latency. nil disables it.
type IngestObserver interface {
	ObserveIngest(start time.Time, err error)
}

type archiveService struct {
	uowFactory unitofwork.RepositoryFactory
	store      storage.ObjectStore
	analyzer   ArchiveAnalyzer
	publisher  IPublisherService
	instanceID string
	observer   IngestObserver
	logger     logger.ILogger
}

func NewArchiveService(
	uowFactory unitofwork.RepositoryFactory,
	store storage.ObjectStore,
	analyzer ArchiveAnalyzer,
	publisher IPublisherService,
	instanceID string,
	observer IngestObserver,
	log logger.ILogger,
) IArchiveService {
	return &archiveService{
		uowFactory: uowFactory,
		store:      store,
		analyzer:   analyzer,
		publisher:  publisher,
		instanceID: instanceID,
		observer:   observer,
		logger:     log,
	}
}

func (as *archiveService) Ingest(ctx context.Context, request *dto.IngestArchiveRequest, files []dto.IngestFile) (res *dto.ArchiveResponse, err error) {
	start := time.Now()
	if as.observer != nil {
		defer func() { as.observer.ObserveIngest(start, err) }()
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w: at least one file is required", rag.ErrInvalidInput)
	}
	dates, err := parseDates(request.Dates)
	if err != nil {
		return nil, err
	}

	var description *string
	if d := strings.TrimSpace(request.Description); d != "" {
		description = &d
	}

	archive := &entity.Archive{
		Id:          uuid.New(),
		Title:       strings.TrimSpace(request.Title),
		Description: description,
		MediaTypes:  request.MediaTypes,
		Tags:        normalizeTags(request.Tags),
		Dates:       dates,
		CreatedAt:   time.Now(),
	}

	// 1. Object storage
	var stored []string
	defer func() {
		if err != nil {
			as.cleanup(stored)
		}
	}()
	for _, f := range files {
		key := storage.BuildStoragePath(f.Name)
		path, putErr := as.store.Put(ctx, key, f.Body, f.ContentType)
		if putErr != nil {
			return nil, fmt.Errorf("failed to store %s: %w", f.Name, putErr)
		}
		stored = append(stored, key)
		archive.StoragePaths = append(archive.StoragePaths, path)
	}

	// 2. Model file upload
	uploaded := make([]*genai.File, 0, len(files))
	for _, f := range files {
		if _, err := f.Body.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("failed to rewind %s: %w", f.Name, err)
		}
		gf, err := as.analyzer.UploadFile(ctx, f.Body, storage.SafeName(f.Name), f.ContentType)
		if err != nil {
			return nil, err
		}
		uploaded = append(uploaded, gf)
		archive.GenAIFileIDs = append(archive.GenAIFileIDs, gf.Name)
		archive.FileURIs = append(archive.FileURIs, gf.URI)
	}

	// 3. Summary and embedding
	summary, err := as.analyzer.Summarize(ctx, uploaded, prompt.ArchiveMetadata{
		Title:       archive.Title,
		Description: request.Description,
		MediaTypes:  archive.MediaTypes,
		Tags:        archive.Tags,
	})
	if err != nil {
		return nil, err
	}
	archive.Summary = summary

	archive.Embedding, err = as.analyzer.Embed(ctx, summary)
	if err != nil {
		return nil, err
	}

	// 4. Persist
	uow := as.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.ArchiveRepository().Create(ctx, archive); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	// 5. Announce
	if err := as.publisher.SendMessage(ctx, events.NewArchiveIngested(archive.Id.String(), archive.Title, as.instanceID)); err != nil {
		as.logger.Warn("INGEST", "Failed to publish ingest event", map[string]interface{}{
			"archive_id": archive.Id.String(),
			"error":      err.Error(),
		})
	}

	as.logger.Info("INGEST", "Archive ingested", map[string]interface{}{
		"archive_id":  archive.Id.String(),
		"files":       len(files),
		"summary_len": len(summary),
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return toArchiveResponse(archive), nil
}

func (as *archiveService) cleanup(keys []string) {
	for _, key := range keys {
		if err := as.store.Delete(context.Background(), key); err != nil {
			as.logger.Warn("INGEST", "Failed to remove stored object", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
	}
}

func (as *archiveService) Show(ctx context.Context, id uuid.UUID) (*dto.ArchiveResponse, error) {
	uow := as.uowFactory.NewUnitOfWork(ctx)

	archive, err := uow.ArchiveRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if archive == nil {
		return nil, fmt.Errorf("%w: %s", ErrArchiveNotFound, id)
	}
	return toArchiveResponse(archive), nil
}

func (as *archiveService) List(ctx context.Context, request *dto.ListArchivesRequest) (*dto.ListArchivesResponse, error) {
	limit, offset := defaultListLimit, 0
	if request != nil {
		if request.Limit > 0 {
			limit = request.Limit
		}
		if request.Offset > 0 {
			offset = request.Offset
		}
	}

	uow := as.uowFactory.NewUnitOfWork(ctx)
	repo := uow.ArchiveRepository()

	archives, err := repo.FindAll(ctx,
		specification.NewestFirst{},
		specification.Pagination{Limit: limit, Offset: offset},
	)
	if err != nil {
		return nil, err
	}
	total, err := repo.Count(ctx)
	if err != nil {
		return nil, err
	}

	res := &dto.ListArchivesResponse{
		Archives: make([]*dto.ArchiveResponse, 0, len(archives)),
		Total:    total,
		Limit:    limit,
		Offset:   offset,
	}
	for _, a := range archives {
		res.Archives = append(res.Archives, toArchiveResponse(a))
	}
	return res, nil
}

func parseDates(values []string) ([]time.Time, error) {
	dates := make([]time.Time, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		t, err := mapper.ParseDate(v)
		if err != nil {
			return nil, fmt.Errorf("%w: date %q must be RFC3339 or YYYY-MM-DD", rag.ErrInvalidInput, v)
		}
		dates = append(dates, t)
	}
	return dates, nil
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func toArchiveResponse(a *entity.Archive) *dto.ArchiveResponse {
	dates := make([]string, 0, len(a.Dates))
	for _, d := range a.Dates {
		dates = append(dates, d.Format("2006-01-02"))
	}
	return &dto.ArchiveResponse{
		Id:           a.Id,
		Title:        a.Title,
		Description:  a.Description,
		Summary:      a.Summary,
		MediaTypes:   nonNilStrings(a.MediaTypes),
		Tags:         nonNilStrings(a.Tags),
		Dates:        dates,
		StoragePaths: nonNilStrings(a.StoragePaths),
		GenAIFileIDs: nonNilStrings(a.GenAIFileIDs),
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
