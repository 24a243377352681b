package bootstrap

import (
	"context"
	"fmt"
	"io"

	"heritage-archive-be/pkg/rag"
	"heritage-archive-be/pkg/rag/prompt"

	"google.golang.org/genai"
)

// unavailableAnalyzer stands in when no GenAI key is configured so search still boots.
type unavailableAnalyzer struct{}

var errNoAnalyzer = fmt.Errorf("%w: archive analysis needs GOOGLE_GENAI_API_KEY", rag.ErrUpstreamUnavailable)

func (unavailableAnalyzer) UploadFile(context.Context, io.Reader, string, string) (*genai.File, error) {
	return nil, errNoAnalyzer
}

func (unavailableAnalyzer) Summarize(context.Context, []*genai.File, prompt.ArchiveMetadata) (string, error) {
	return "", errNoAnalyzer
}

func (unavailableAnalyzer) Embed(context.Context, string) ([]float32, error) {
	return nil, errNoAnalyzer
}
