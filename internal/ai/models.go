package ai

// ProviderConfig holds the configuration needed to create a summarizer.
type ProviderConfig struct {
	Provider      string // "anthropic" | "openai" | "extractive"
	APIKey        string
	Model         string
	FallbackModel string // used for degraded retries
	BaseURL       string // optional override of the provider endpoint host
}

// SummarizeRequest is the input to a single summarization call.
type SummarizeRequest struct {
	Text string
	// MaxLength and MinLength bound the summary, in words.
	MaxLength int
	MinLength int
	// Degraded asks the provider to use its cheaper execution path. It is
	// set on the single retry after ErrResourceExhausted.
	Degraded bool
}
