package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const DefaultGeminiModel = "text-embedding-004"

// contentEmbedder is the part of genai.Models the provider needs.
type contentEmbedder interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

type GeminiProvider struct {
	models contentEmbedder
	model  string
}

func NewGeminiProvider(client *genai.Client, model string) EmbeddingProvider {
	return newGeminiProvider(client.Models, model)
}

func newGeminiProvider(models contentEmbedder, model string) *GeminiProvider {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiProvider{models: models, model: model}
}

func (p *GeminiProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("gemini embedding: empty text")
	}

	res, err := p.models.EmbedContent(ctx, p.model,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)},
		&genai.EmbedContentConfig{TaskType: taskType},
	)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) && isAuthStatus(apiErr.Code) {
			return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
		}
		return nil, fmt.Errorf("gemini embedding: %w", err)
	}
	if len(res.Embeddings) == 0 || len(res.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("gemini embedding: empty response")
	}

	return &EmbeddingResponse{
		Embedding: EmbeddingResponseEmbedding{
			Values: res.Embeddings[0].Values,
		},
	}, nil
}
