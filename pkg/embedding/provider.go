package embedding

import (
	"context"
	"errors"
)

// Task types understood by retrieval-tuned embedding models.
const (
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
)

// ErrUnauthorized is returned when the provider rejects our credentials. Retrying will not help.
var ErrUnauthorized = errors.New("embedding provider rejected credentials")

// EmbeddingProvider defines the interface for generating text embeddings
type EmbeddingProvider interface {
	Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error)
}

type EmbeddingResponseEmbedding struct {
	Values []float32 `json:"values"`
}

type EmbeddingResponse struct {
	Embedding EmbeddingResponseEmbedding `json:"embedding"`
}

func isAuthStatus(code int) bool {
	return code == 401 || code == 403
}
