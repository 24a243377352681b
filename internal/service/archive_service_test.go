package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"heritage-archive-be/internal/dto"
	"heritage-archive-be/internal/entity"
	"heritage-archive-be/internal/pkg/logger"
	"heritage-archive-be/internal/repository/contract"
	"heritage-archive-be/internal/repository/specification"
	"heritage-archive-be/internal/repository/unitofwork"
	"heritage-archive-be/pkg/events"
	"heritage-archive-be/pkg/rag"
	"heritage-archive-be/pkg/rag/prompt"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

// ---- fakes ----

type memArchiveRepo struct {
	mu       sync.Mutex
	archives []*entity.Archive
	failOn   string
}

func (r *memArchiveRepo) Create(_ context.Context, a *entity.Archive) error {
	if r.failOn == "create" {
		return errors.New("insert failed")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.archives = append(r.archives, a)
	return nil
}

func (r *memArchiveRepo) Update(context.Context, *entity.Archive) error { return nil }
func (r *memArchiveRepo) Delete(context.Context, uuid.UUID) error       { return nil }

func (r *memArchiveRepo) FindOne(_ context.Context, specs ...specification.Specification) (*entity.Archive, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range specs {
		if byID, ok := s.(specification.ByID); ok {
			for _, a := range r.archives {
				if a.Id == byID.ID {
					return a, nil
				}
			}
		}
	}
	return nil, nil
}

func (r *memArchiveRepo) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.Archive, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.Archive, 0, len(r.archives))
	for i := len(r.archives) - 1; i >= 0; i-- {
		out = append(out, r.archives[i])
	}
	for _, s := range specs {
		if p, ok := s.(specification.Pagination); ok {
			if p.Offset >= len(out) {
				return []*entity.Archive{}, nil
			}
			out = out[p.Offset:]
			if len(out) > p.Limit {
				out = out[:p.Limit]
			}
		}
	}
	return out, nil
}

func (r *memArchiveRepo) Count(context.Context, ...specification.Specification) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.archives)), nil
}

func (r *memArchiveRepo) SearchSimilar(context.Context, []float32, float64, int) ([]*entity.ScoredArchive, error) {
	return nil, nil
}

type memUnitOfWork struct {
	repo      *memArchiveRepo
	committed *int
}

func (u *memUnitOfWork) Begin(context.Context) error { return nil }
func (u *memUnitOfWork) Commit() error {
	*u.committed++
	return nil
}
func (u *memUnitOfWork) Rollback() error                               { return nil }
func (u *memUnitOfWork) ArchiveRepository() contract.ArchiveRepository { return u.repo }

type memFactory struct {
	repo      *memArchiveRepo
	committed int
}

func (f *memFactory) NewUnitOfWork(context.Context) unitofwork.UnitOfWork {
	return &memUnitOfWork{repo: f.repo, committed: &f.committed}
}

type memStore struct {
	objects map[string][]byte
	deleted []string
	failPut bool
}

func (s *memStore) Put(_ context.Context, key string, body io.ReadSeeker, _ string) (string, error) {
	if s.failPut {
		return "", errors.New("bucket unavailable")
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	s.objects[key] = data
	return "bucket/" + key, nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	delete(s.objects, key)
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *memStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := s.objects[key]
	return ok, nil
}

type fakeAnalyzer struct {
	uploadedBodies []string
	meta           prompt.ArchiveMetadata
	summarizeErr   error
}

func (a *fakeAnalyzer) UploadFile(_ context.Context, r io.Reader, displayName, mimeType string) (*genai.File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	a.uploadedBodies = append(a.uploadedBodies, string(data))
	return &genai.File{Name: "files/" + displayName, URI: "https://genai/files/" + displayName, MIMEType: mimeType}, nil
}

func (a *fakeAnalyzer) Summarize(_ context.Context, files []*genai.File, meta prompt.ArchiveMetadata) (string, error) {
	a.meta = meta
	if a.summarizeErr != nil {
		return "", a.summarizeErr
	}
	return "A batik sarong from Kelantan with floral motifs.", nil
}

func (a *fakeAnalyzer) Embed(context.Context, string) ([]float32, error) {
	return []float32{0.1, 0.2, 0.3}, nil
}

type recordingPublisher struct {
	sent []events.Event
}

func (p *recordingPublisher) SendMessage(_ context.Context, e events.Event) error {
	p.sent = append(p.sent, e)
	return nil
}

type ingestCounter struct {
	runs int
	errs int
}

func (c *ingestCounter) ObserveIngest(_ time.Time, err error) {
	c.runs++
	if err != nil {
		c.errs++
	}
}

type archiveFixture struct {
	svc       IArchiveService
	factory   *memFactory
	store     *memStore
	analyzer  *fakeAnalyzer
	publisher *recordingPublisher
	observer  *ingestCounter
}

func newArchiveFixture() *archiveFixture {
	f := &archiveFixture{
		factory:   &memFactory{repo: &memArchiveRepo{}},
		store:     &memStore{objects: map[string][]byte{}},
		analyzer:  &fakeAnalyzer{},
		publisher: &recordingPublisher{},
		observer:  &ingestCounter{},
	}
	f.svc = NewArchiveService(f.factory, f.store, f.analyzer, f.publisher, "node-a", f.observer, logger.NewNopLogger())
	return f
}

func upload(name, body string) dto.IngestFile {
	return dto.IngestFile{Name: name, ContentType: "image/jpeg", Size: int64(len(body)), Body: bytes.NewReader([]byte(body))}
}

// ---- tests ----

func TestIngestHappyPath(t *testing.T) {
	f := newArchiveFixture()

	res, err := f.svc.Ingest(context.Background(), &dto.IngestArchiveRequest{
		Title:       "  Batik Sarong ",
		Description: "Hand-drawn batik",
		MediaTypes:  []string{"image"},
		Tags:        []string{"Batik", "kelantan", "batik", " "},
		Dates:       []string{"1965-03-01", "1970-01-01T00:00:00Z"},
	}, []dto.IngestFile{upload("my photo (1).jpg", "jpeg-bytes")})
	require.NoError(t, err)

	assert.Equal(t, "Batik Sarong", res.Title)
	assert.Equal(t, []string{"batik", "kelantan"}, res.Tags)
	assert.Equal(t, []string{"1965-03-01", "1970-01-01"}, res.Dates)
	require.Len(t, res.StoragePaths, 1)
	assert.True(t, strings.HasSuffix(res.StoragePaths[0], "/my_photo__1_.jpg"))
	assert.Equal(t, []string{"files/my_photo__1_.jpg"}, res.GenAIFileIDs)
	assert.NotEmpty(t, res.Summary)

	// the upload to the model saw the whole file after it went to storage
	assert.Equal(t, []string{"jpeg-bytes"}, f.analyzer.uploadedBodies)
	assert.Equal(t, "Hand-drawn batik", f.analyzer.meta.Description)

	assert.Equal(t, 1, f.factory.committed)
	require.Len(t, f.factory.repo.archives, 1)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, f.factory.repo.archives[0].Embedding)

	require.Len(t, f.publisher.sent, 1)
	assert.Equal(t, events.TypeArchiveIngested, f.publisher.sent[0].EventType())
	assert.Equal(t, res.Id.String(), events.ArchiveID(f.publisher.sent[0]))

	assert.Equal(t, 1, f.observer.runs)
	assert.Zero(t, f.observer.errs)
}

func TestIngestValidation(t *testing.T) {
	tests := []struct {
		name  string
		req   *dto.IngestArchiveRequest
		files []dto.IngestFile
	}{
		{"no files", &dto.IngestArchiveRequest{Title: "x", MediaTypes: []string{"image"}}, nil},
		{"bad date", &dto.IngestArchiveRequest{Title: "x", MediaTypes: []string{"image"}, Dates: []string{"March 1965"}}, []dto.IngestFile{upload("a.jpg", "x")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newArchiveFixture()
			_, err := f.svc.Ingest(context.Background(), tt.req, tt.files)
			assert.ErrorIs(t, err, rag.ErrInvalidInput)
			assert.Empty(t, f.store.objects)
			assert.Equal(t, 1, f.observer.errs)
		})
	}
}

func TestIngestCleansUpStoredObjectsOnFailure(t *testing.T) {
	f := newArchiveFixture()
	f.analyzer.summarizeErr = errors.New("model overloaded")

	_, err := f.svc.Ingest(context.Background(), &dto.IngestArchiveRequest{Title: "x", MediaTypes: []string{"image"}},
		[]dto.IngestFile{upload("a.jpg", "1"), upload("b.jpg", "2")})
	require.Error(t, err)

	assert.Len(t, f.store.deleted, 2)
	assert.Empty(t, f.store.objects)
	assert.Empty(t, f.factory.repo.archives)
	assert.Empty(t, f.publisher.sent)
}

func TestShowAndList(t *testing.T) {
	f := newArchiveFixture()
	ctx := context.Background()

	var ids []uuid.UUID
	for _, title := range []string{"first", "second", "third"} {
		res, err := f.svc.Ingest(ctx, &dto.IngestArchiveRequest{Title: title, MediaTypes: []string{"document"}},
			[]dto.IngestFile{upload(title+".pdf", title)})
		require.NoError(t, err)
		ids = append(ids, res.Id)
	}

	got, err := f.svc.Show(ctx, ids[1])
	require.NoError(t, err)
	assert.Equal(t, "second", got.Title)

	_, err = f.svc.Show(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrArchiveNotFound)

	page, err := f.svc.List(ctx, &dto.ListArchivesRequest{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	require.Len(t, page.Archives, 2)
	assert.Equal(t, "third", page.Archives[0].Title)

	page, err = f.svc.List(ctx, &dto.ListArchivesRequest{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, page.Archives, 1)
	assert.Equal(t, "first", page.Archives[0].Title)
}
