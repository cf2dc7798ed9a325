package ai

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// OllamaProvider calls a local Ollama server's /api/chat endpoint without
// streaming.
type OllamaProvider struct {
	BaseURL string
	Model   string
	Client  *http.Client
}

func NewOllamaProvider(baseURL, model string) *OllamaProvider {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3:latest"
	}
	return &OllamaProvider{
		BaseURL: baseURL,
		Model:   model,
		Client:  &http.Client{Timeout: 90 * time.Second},
	}
}

type ollamaChatReq struct {
	Model    string    `json:"model"`
	Messages []wireMsg `json:"messages"`
	Stream   bool      `json:"stream"`
}

type ollamaChatResp struct {
	Message wireMsg `json:"message"`
	Error   string  `json:"error,omitempty"`
}

func (p *OllamaProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	var out ollamaChatResp
	in := ollamaChatReq{Model: p.Model, Messages: toWire(messages)}
	if err := postJSON(ctx, p.Client, "ollama", endpoint(p.BaseURL, "/api/chat"), nil, in, &out); err != nil {
		return "", err
	}
	if out.Error != "" {
		return "", errors.New("ollama: " + out.Error)
	}
	return out.Message.Content, nil
}
