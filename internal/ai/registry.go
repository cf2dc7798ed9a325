package ai

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// ProviderFactory builds a provider for model. model is never blank: the
// registry substitutes the provider's default first.
type ProviderFactory func(ctx context.Context, model string) (Provider, error)

type registration struct {
	defaultModel string
	factory      ProviderFactory
}

// Registry routes a provider name to its factory and default model.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]registration
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]registration)}
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Register adds or replaces a provider. defaultModel is used whenever a
// caller asks for the provider without naming a model.
func (r *Registry) Register(name, defaultModel string, f ProviderFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[normalizeName(name)] = registration{
		defaultModel: strings.TrimSpace(defaultModel),
		factory:      f,
	}
}

// Get builds the named provider for model, falling back to the provider's
// default model when model is blank.
func (r *Registry) Get(ctx context.Context, name, model string) (Provider, error) {
	name = normalizeName(name)
	r.mu.RLock()
	reg, ok := r.providers[name]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.Errorf("unknown ai provider: %s", name)
	}
	m := strings.TrimSpace(model)
	if m == "" {
		m = reg.defaultModel
	}
	if m == "" {
		return nil, errors.Errorf("ai provider %s: no model configured", name)
	}
	return reg.factory(ctx, m)
}

// DefaultModel reports the model used for name when none is requested.
func (r *Registry) DefaultModel(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.providers[normalizeName(name)]
	return reg.defaultModel, ok
}

// Names lists registered providers in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.providers))
	for n := range r.providers {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
