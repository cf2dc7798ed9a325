package ai

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-1.5-flash"

// GeminiProvider calls the Gemini API through the official genai SDK.
type GeminiProvider struct {
	client *genai.Client
	Model  string
}

func NewGeminiProvider(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini: api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.Wrap(err, "gemini: create client")
	}
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiProvider{client: client, Model: model}, nil
}

// WithModel returns a provider sharing the same client but using model.
func (p *GeminiProvider) WithModel(model string) *GeminiProvider {
	if strings.TrimSpace(model) == "" {
		return p
	}
	return &GeminiProvider{client: p.client, Model: model}
}

// geminiRole maps chat roles onto the two roles Gemini accepts.
func geminiRole(role string) string {
	if role == "assistant" {
		return "model"
	}
	return "user"
}

func (p *GeminiProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	if p.client == nil {
		return "", errors.New("gemini: client is nil")
	}

	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		contents = append(contents, &genai.Content{
			Role:  geminiRole(m.Role),
			Parts: []*genai.Part{{Text: m.Content}},
		})
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.Model, contents, nil)
	if err != nil {
		return "", errors.Wrap(err, "gemini: generate content")
	}
	return resp.Text(), nil
}
