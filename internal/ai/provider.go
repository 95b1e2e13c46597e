package ai

import (
	"context"
	"errors"
	"fmt"
)

// ErrResourceExhausted is returned when the provider is out of capacity
// (rate limited or overloaded). Callers may retry once in degraded mode.
var ErrResourceExhausted = errors.New("summarizer resource exhausted")

// Summarizer reduces article text to a short synopsis.
type Summarizer interface {
	Summarize(ctx context.Context, req SummarizeRequest) (string, error)
}

// NewProvider creates the appropriate summarizer based on config.
func NewProvider(cfg ProviderConfig) (Summarizer, error) {
	switch cfg.Provider {
	case "anthropic":
		return NewAnthropicProvider(cfg), nil
	case "openai":
		return NewOpenAIProvider(cfg), nil
	case "extractive":
		return NewExtractiveSummarizer(), nil
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", cfg.Provider)
	}
}
