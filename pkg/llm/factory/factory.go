package factory

import (
	"fmt"

	"heritage-archive-be/pkg/llm"
	"heritage-archive-be/pkg/llm/gemini"
	"heritage-archive-be/pkg/llm/ollama"

	"google.golang.org/genai"
)

// NewLLMProvider returns nil for "none": the intent layer then runs on rules alone.
func NewLLMProvider(providerType, modelName, baseURL string, genaiClient *genai.Client) (llm.LLMProvider, error) {
	switch providerType {
	case "", "none":
		return nil, nil
	case "ollama":
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	case "genai", "gemini":
		if genaiClient == nil {
			return nil, fmt.Errorf("LLM provider %q needs GOOGLE_GENAI_API_KEY", providerType)
		}
		return gemini.NewGeminiProvider(genaiClient, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
