// Package llm talks to hosted large language models. Callers build a Request
// (system prompt, user prompt, optional images) and receive raw text; JSON
// answers are post-processed with ExtractJSON/DecodeJSON.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

var (
	// ErrNotConfigured is returned when no provider credentials are set.
	ErrNotConfigured = errors.New("llm: provider not configured")
	// ErrEmptyResponse is returned when the provider answered with no text.
	ErrEmptyResponse = errors.New("llm: empty response")
)

// Image is an inline image part, used by proctoring snapshots.
type Image struct {
	MIME string
	Data []byte
}

// Request is a single-turn completion request.
type Request struct {
	System      string
	Prompt      string
	Images      []Image
	Temperature float64
	JSON        bool // ask the provider for a JSON object
}

// Client completes a Request.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Providers.
const (
	ProviderGroq   = "groq"
	ProviderGemini = "gemini"
)

// Config selects and configures a provider.
type Config struct {
	Provider        string
	GroqAPIKey      string
	GroqModel       string
	GroqVisionModel string
	GroqBaseURL     string // empty uses the public endpoint
	GeminiAPIKey    string
	GeminiModel     string
}

// New builds the configured client. A provider without an API key yields a
// client that always returns ErrNotConfigured, so the AI features degrade
// (ATS falls back to keyword scoring) instead of preventing startup.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderGroq:
		if cfg.GroqAPIKey == "" {
			logger.Warn("groq api key not set; AI features disabled")
			return Disabled{}, nil
		}
		return NewGroq(cfg.GroqAPIKey, cfg.GroqModel, cfg.GroqVisionModel, cfg.GroqBaseURL), nil
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			logger.Warn("gemini api key not set; AI features disabled")
			return Disabled{}, nil
		}
		return NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}

// Disabled is a Client that is never configured.
type Disabled struct{}

// Complete always fails with ErrNotConfigured.
func (Disabled) Complete(context.Context, Request) (string, error) { return "", ErrNotConfigured }
