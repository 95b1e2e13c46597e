package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenAISummarize(t *testing.T) {
	var got openaiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %q, want /v1/chat/completions", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"choices":[{"message":{"content":"Acme rose."}}]}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider(ProviderConfig{
		APIKey:        "test-key",
		Model:         "gpt-4o",
		FallbackModel: "gpt-4o-mini",
		BaseURL:       srv.URL,
	})

	summary, err := p.Summarize(context.Background(), SummarizeRequest{Text: "body", MaxLength: 200, MinLength: 50, Degraded: true})
	if err != nil {
		t.Fatalf("Summarize() error: %v", err)
	}
	if summary != "Acme rose." {
		t.Errorf("summary = %q", summary)
	}
	if got.Model != "gpt-4o-mini" {
		t.Errorf("model = %q, want fallback model for degraded request", got.Model)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Role != "user" {
		t.Errorf("messages = %+v", got.Messages)
	}
	if got.MaxTokens != 400 {
		t.Errorf("max_tokens = %d, want 400", got.MaxTokens)
	}
}

func TestOpenAISummarize_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"Rate limit reached"}}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider(ProviderConfig{APIKey: "k", Model: "m", BaseURL: srv.URL})
	_, err := p.Summarize(context.Background(), SummarizeRequest{Text: "x", MaxLength: 60, MinLength: 50})
	if !errors.Is(err, ErrResourceExhausted) {
		t.Errorf("expected ErrResourceExhausted, got %v", err)
	}
}

func TestOpenAISummarize_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider(ProviderConfig{APIKey: "k", Model: "m", BaseURL: srv.URL})
	if _, err := p.Summarize(context.Background(), SummarizeRequest{Text: "x", MaxLength: 60, MinLength: 50}); err == nil {
		t.Fatal("expected error for empty choices")
	}
}
