package gemini

import (
	"context"
	"errors"
	"testing"

	"heritage-archive-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeGenerator struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
	reply    string
	err      error
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model, f.contents, f.config = model, contents, config
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: genai.NewContentFromText(f.reply, genai.RoleModel)}},
	}, nil
}

func TestChatMapsRolesAndOptions(t *testing.T) {
	fake := &fakeGenerator{reply: "search"}
	p := newGeminiProvider(fake, "")

	out, err := p.Chat(context.Background(), []llm.Message{
		{Role: "system", Content: "classify"},
		{Role: "user", Content: "batik"},
		{Role: "assistant", Content: "ok"},
	}, llm.WithTemperature(0), llm.WithMaxTokens(32))
	require.NoError(t, err)
	assert.Equal(t, "search", out)

	assert.Equal(t, DefaultModel, fake.model)
	require.Len(t, fake.contents, 2)
	assert.Equal(t, genai.RoleUser, fake.contents[0].Role)
	assert.Equal(t, genai.RoleModel, fake.contents[1].Role)
	require.NotNil(t, fake.config.SystemInstruction)
	require.NotNil(t, fake.config.Temperature)
	assert.Zero(t, *fake.config.Temperature)
	assert.Equal(t, int32(32), fake.config.MaxOutputTokens)
}

func TestChatErrors(t *testing.T) {
	p := newGeminiProvider(&fakeGenerator{err: errors.New("unavailable")}, "")
	_, err := p.Generate(context.Background(), "batik")
	assert.Error(t, err)

	_, err = p.Chat(context.Background(), []llm.Message{{Role: "system", Content: "only system"}})
	assert.Error(t, err)
}
