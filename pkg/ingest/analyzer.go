package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"heritage-archive-be/internal/pkg/logger"
	"heritage-archive-be/pkg/embedding"
	"heritage-archive-be/pkg/rag/prompt"

	"google.golang.org/genai"
)

var (
	// ErrFileFailed is returned when the model service could not process an uploaded file.
	ErrFileFailed = errors.New("uploaded file failed processing")
	// ErrEmptySummary is returned when the model produced no text.
	ErrEmptySummary = errors.New("empty analysis from model")
)

type fileAPI interface {
	Upload(ctx context.Context, r io.Reader, config *genai.UploadFileConfig) (*genai.File, error)
	Get(ctx context.Context, name string, config *genai.GetFileConfig) (*genai.File, error)
}

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Config struct {
	Model        string
	PollInterval time.Duration
	MaxWait      time.Duration
}

func (c Config) withDefaults() Config {
	if c.Model == "" {
		c.Model = "gemini-2.5-flash-lite"
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 2 * time.Second
	}
	if c.MaxWait <= 0 {
		c.MaxWait = 300 * time.Second
	}
	return c
}

// Analyzer turns uploaded materials into a searchable summary and its document embedding.
type Analyzer struct {
	files    fileAPI
	models   contentGenerator
	embedder embedding.EmbeddingProvider
	cfg      Config
	logger   logger.ILogger
}

func NewAnalyzer(client *genai.Client, embedder embedding.EmbeddingProvider, cfg Config, log logger.ILogger) *Analyzer {
	return newAnalyzer(client.Files, client.Models, embedder, cfg, log)
}

func newAnalyzer(files fileAPI, models contentGenerator, embedder embedding.EmbeddingProvider, cfg Config, log logger.ILogger) *Analyzer {
	return &Analyzer{
		files:    files,
		models:   models,
		embedder: embedder,
		cfg:      cfg.withDefaults(),
		logger:   log,
	}
}

// UploadFile sends r to the Files API and waits until the file is ACTIVE.
func (a *Analyzer) UploadFile(ctx context.Context, r io.Reader, displayName, mimeType string) (*genai.File, error) {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	file, err := a.files.Upload(ctx, r, &genai.UploadFileConfig{
		DisplayName: displayName,
		MIMEType:    mimeType,
	})
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", displayName, err)
	}
	return a.waitActive(ctx, file)
}

func (a *Analyzer) waitActive(ctx context.Context, file *genai.File) (*genai.File, error) {
	waitCtx, cancel := context.WithTimeout(ctx, a.cfg.MaxWait)
	defer cancel()

	ticker := time.NewTicker(a.cfg.PollInterval)
	defer ticker.Stop()

	for {
		switch file.State {
		case genai.FileStateActive:
			return file, nil
		case genai.FileStateFailed:
			return nil, fmt.Errorf("%w: %s", ErrFileFailed, file.Name)
		}

		select {
		case <-waitCtx.Done():
			return nil, fmt.Errorf("%w: %s still %s after %s", ErrFileFailed, file.Name, file.State, a.cfg.MaxWait)
		case <-ticker.C:
		}

		next, err := a.files.Get(waitCtx, file.Name, nil)
		if err != nil {
			return nil, fmt.Errorf("poll %s: %w", file.Name, err)
		}
		file = next
		a.logger.Debug("INGEST", "Polled uploaded file", map[string]interface{}{
			"file":  file.Name,
			"state": string(file.State),
		})
	}
}

// Summarize asks the analysis model for a multimodal summary of files.
func (a *Analyzer) Summarize(ctx context.Context, files []*genai.File, meta prompt.ArchiveMetadata) (string, error) {
	parts := []*genai.Part{genai.NewPartFromText(prompt.NewAnalysisBuilder(meta).Build())}
	for _, f := range files {
		parts = append(parts, genai.NewPartFromURI(f.URI, f.MIMEType))
	}

	res, err := a.models.GenerateContent(ctx, a.cfg.Model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
		&genai.GenerateContentConfig{
			Temperature:     genai.Ptr[float32](0.2),
			MaxOutputTokens: 8192,
			TopP:            genai.Ptr[float32](0.95),
			TopK:            genai.Ptr[float32](40),
		},
	)
	if err != nil {
		return "", fmt.Errorf("analyze content: %w", err)
	}

	summary := strings.TrimSpace(res.Text())
	if summary == "" {
		return "", ErrEmptySummary
	}
	return summary, nil
}

// Embed returns the RETRIEVAL_DOCUMENT embedding of a summary.
func (a *Analyzer) Embed(ctx context.Context, summary string) ([]float32, error) {
	res, err := a.embedder.Generate(ctx, summary, embedding.TaskRetrievalDocument)
	if err != nil {
		return nil, fmt.Errorf("embed summary: %w", err)
	}
	return res.Embedding.Values, nil
}
