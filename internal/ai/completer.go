package ai

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/suPer8Hu/gopherchat/internal/common"
)

// Completer is the single entry point for text generation: one prompt in,
// one reply out. It holds no conversation state between calls.
type Completer struct {
	registry *Registry
	provider string
	model    string
}

func NewCompleter(registry *Registry, provider, model string) *Completer {
	return &Completer{registry: registry, provider: provider, model: model}
}

func (c *Completer) Provider() string { return c.provider }

func (c *Completer) Generate(ctx context.Context, prompt string) (string, error) {
	const op = "generate"
	if strings.TrimSpace(prompt) == "" {
		return "", common.CompletionError(op, errors.New("prompt is empty"))
	}

	p, err := c.registry.Get(ctx, c.provider, c.model)
	if err != nil {
		return "", common.CompletionError(op, err)
	}

	reply, err := p.Chat(ctx, []Message{{Role: "user", Content: prompt}})
	if err != nil {
		return "", common.CompletionError(op, err)
	}
	if strings.TrimSpace(reply) == "" {
		return "", common.CompletionError(op, errors.New("provider returned an empty reply"))
	}
	return reply, nil
}
