// Package llm abstracts the language-model collaborators used for
// concept extraction, function annotation and natural-language queries.
package llm

import (
	"context"
	"fmt"
	"sync"
)

// Request is a single text-in/text-out completion request.
type Request struct {
	System    string
	Prompt    string
	MaxTokens int
}

// Provider is one language-model backend. The core depends only on
// deterministic text-in/text-out behavior.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req *Request) (string, error)
}

// Config carries provider construction inputs.
type Config struct {
	APIKey string
	Model  string
}

// Factory constructs a provider from config.
type Factory func(cfg Config) (Provider, error)

// Registry maps provider names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a provider factory under its name.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get constructs the named provider.
func (r *Registry) Get(name string, cfg Config) (Provider, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown llm provider: %s", name)
	}
	return factory(cfg)
}

// Names returns the registered provider names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	return names
}

// DefaultRegistry has every built-in provider registered.
var DefaultRegistry = NewRegistry()

func init() {
	DefaultRegistry.Register("anthropic", func(cfg Config) (Provider, error) {
		return NewAnthropicProvider(cfg)
	})
	DefaultRegistry.Register("openai", func(cfg Config) (Provider, error) {
		return NewOpenAIProvider(cfg)
	})
}
