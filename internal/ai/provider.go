// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package ai provides a unified interface for interacting with multiple
// LLM providers (OpenAI, Gemini, Claude). Each provider implements the
// Provider interface; providers that can deliver token streams additionally
// implement StreamingProvider. The Registry selects providers by name and
// resolves per-role model settings.
package ai

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Options carries per-call generation parameters. A zero Model means the
// provider's configured default.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// PartType discriminates the content parts of a multimodal message.
type PartType string

const (
	PartText  PartType = "text"
	PartImage PartType = "image"
)

// Part is one content part of a message: either text or an image carried
// as a fully qualified data URI (data:<mime>;base64,<payload>).
type Part struct {
	Type     PartType
	Text     string
	ImageURL string
}

// TextPart builds a text content part.
func TextPart(text string) Part { return Part{Type: PartText, Text: text} }

// ImagePart builds an image content part from a data URI.
func ImagePart(dataURI string) Part { return Part{Type: PartImage, ImageURL: dataURI} }

// Message is an ordered sequence of content parts with a chat role.
type Message struct {
	Role  string
	Parts []Part
}

// UserMessage builds a user-role message from the given parts.
func UserMessage(parts ...Part) Message {
	return Message{Role: "user", Parts: parts}
}

// Provider defines the interface that all AI providers must implement.
// Each provider handles its own HTTP communication and response parsing.
type Provider interface {
	// Name returns the provider identifier (e.g., "openai", "gemini").
	Name() string

	// TextCompletion sends a plain text prompt and returns the response text.
	TextCompletion(ctx context.Context, prompt string, opts Options) (string, error)

	// ChatCompletion sends structured (possibly multimodal) messages and
	// returns the response text.
	ChatCompletion(ctx context.Context, messages []Message, opts Options) (string, error)
}

// StreamingProvider is the optional capability of delivering the response
// as a token stream. Callers type-assert this interface and fall back to
// the blocking Provider methods when it is absent.
type StreamingProvider interface {
	Provider

	// StreamTextCompletion streams the completion of a text prompt,
	// invoking fn for every chunk. A non-nil error from fn aborts the stream.
	StreamTextCompletion(ctx context.Context, prompt string, opts Options, fn func(chunk string) error) error

	// StreamChatCompletion streams the completion of a chat exchange.
	StreamChatCompletion(ctx context.Context, messages []Message, opts Options, fn func(chunk string) error) error
}

// ProviderConfig holds the credentials and settings for a single provider.
type ProviderConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// RoleSettings binds a functional role (e.g. "template") to a provider and
// model choice plus generation parameters.
type RoleSettings struct {
	Provider    string
	Model       string
	MaxTokens   int
	Temperature float64
}

// Options converts role settings into per-call options.
func (rs RoleSettings) Options() Options {
	return Options{Model: rs.Model, MaxTokens: rs.MaxTokens, Temperature: rs.Temperature}
}

// Registry manages available AI providers, the active default, and
// per-role settings. All methods are safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	active    string
	roles     map[string]RoleSettings
}

// NewRegistry creates a registry and initialises providers for every config
// that has a non-empty API key. Providers without keys are silently skipped.
func NewRegistry(active string, configs map[string]ProviderConfig) *Registry {
	r := &Registry{
		providers: make(map[string]Provider),
		active:    active,
		roles:     make(map[string]RoleSettings),
	}

	for name, cfg := range configs {
		if cfg.APIKey == "" {
			continue
		}
		switch name {
		case "openai":
			r.providers[name] = newOpenAI(cfg)
		case "gemini":
			r.providers[name] = newGemini(cfg)
		case "claude":
			r.providers[name] = newClaude(cfg)
		}
	}

	return r
}

// SetRole binds settings to a functional role name.
func (r *Registry) SetRole(role string, settings RoleSettings) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roles[role] = settings
}

// ForRole resolves the provider and settings for a functional role.
// A non-empty override takes precedence over the role's configured
// provider, which in turn takes precedence over the registry's active one.
func (r *Registry) ForRole(role, override string) (Provider, RoleSettings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	settings := r.roles[role]

	name := override
	if name == "" {
		name = settings.Provider
	}
	if name == "" {
		name = r.active
	}

	p, ok := r.providers[name]
	if !ok {
		return nil, RoleSettings{}, fmt.Errorf("ai: no provider configured for %q (role %q)", name, role)
	}
	return p, settings, nil
}

// Active returns the currently active provider.
func (r *Registry) Active() (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[r.active]
	if !ok {
		return nil, fmt.Errorf("ai: no provider configured for %q", r.active)
	}
	return p, nil
}

// SetActive switches the active provider at runtime. Returns an error if
// the named provider has no API key configured.
func (r *Registry) SetActive(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.providers[name]; !ok {
		return fmt.Errorf("ai: provider %q is not available (no API key?)", name)
	}
	r.active = name
	return nil
}

// ActiveName returns the name of the currently active provider.
func (r *Registry) ActiveName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.active
}

// Available returns the names of all providers that have valid API keys.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}

// Register adds or replaces a provider in the registry. This allows injecting
// custom providers at runtime (e.g. for testing or plugin-based providers).
func (r *Registry) Register(name string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = p
}

// HasProvider checks whether a named provider is configured and available.
func (r *Registry) HasProvider(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.providers[name]
	return ok
}

// SplitDataURI decomposes a data URI into its MIME type and base64 payload.
// Returns ok=false when the string is not a data URI.
func SplitDataURI(uri string) (mimeType, data string, ok bool) {
	if !strings.HasPrefix(uri, "data:") {
		return "", "", false
	}
	rest := uri[len("data:"):]
	sep := strings.Index(rest, ";base64,")
	if sep == -1 {
		return "", "", false
	}
	return rest[:sep], rest[sep+len(";base64,"):], true
}
