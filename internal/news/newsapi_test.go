package news

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewsAPISearch(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/everything" {
			t.Errorf("path = %q, want /v2/everything", r.URL.Path)
		}
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status":       "ok",
			"totalResults": 3,
			"articles": []map[string]any{
				{"url": "https://a.com/1", "title": "Acme <b>rallies</b>", "urlToImage": "https://a.com/1.jpg"},
				{"url": "", "title": "missing url"},
				{"url": "https://b.com/2", "title": "Acme falls", "urlToImage": nil},
			},
		})
	}))
	defer srv.Close()

	client := NewNewsAPIClient(NewsAPIConfig{APIKey: "test-key", BaseURL: srv.URL})
	got, err := client.Search(context.Background(), "Acme")
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2", len(got))
	}
	if got[0].URL != "https://a.com/1" || got[1].URL != "https://b.com/2" {
		t.Errorf("candidates out of upstream order: %+v", got)
	}
	if got[0].Title != "Acme rallies" {
		t.Errorf("Title = %q, want markup stripped", got[0].Title)
	}
	if got[0].ImageURL != "https://a.com/1.jpg" || got[1].ImageURL != "" {
		t.Errorf("image urls = %q, %q", got[0].ImageURL, got[1].ImageURL)
	}

	wantParams := map[string]string{
		"sortBy":   "relevancy",
		"pageSize": "100",
		"language": "en",
		"apiKey":   "test-key",
	}
	for k, v := range wantParams {
		if gotQuery[k] != v {
			t.Errorf("query param %s = %q, want %q", k, gotQuery[k], v)
		}
	}
	if !strings.HasPrefix(gotQuery["q"], `"Acme" AND (`) || !strings.Contains(gotQuery["q"], `"market cap"`) {
		t.Errorf("q = %q, want composed financial query", gotQuery["q"])
	}
}

func TestNewsAPISearch_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"status":  "error",
			"code":    "apiKeyInvalid",
			"message": "Your API key is invalid.",
		})
	}))
	defer srv.Close()

	_, err := NewNewsAPIClient(NewsAPIConfig{BaseURL: srv.URL}).Search(context.Background(), "Acme")

	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected *UpstreamError, got %v", err)
	}
	if ue.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d, want 401", ue.StatusCode)
	}
	if ue.Message != "Your API key is invalid." {
		t.Errorf("Message = %q", ue.Message)
	}
}

func TestNewsAPISearch_StatusNotOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"error","message":"rate limited"}`))
	}))
	defer srv.Close()

	_, err := NewNewsAPIClient(NewsAPIConfig{BaseURL: srv.URL}).Search(context.Background(), "Acme")

	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected *UpstreamError, got %v", err)
	}
	if !strings.Contains(ue.Error(), "rate limited") {
		t.Errorf("Error() = %q, want upstream message", ue.Error())
	}
}

func TestNewsAPISearch_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	_, err := NewNewsAPIClient(NewsAPIConfig{BaseURL: addr}).Search(context.Background(), "Acme")

	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected *UpstreamError, got %v", err)
	}
}

func TestComposeQuery(t *testing.T) {
	got := ComposeQuery("Acme")
	want := `"Acme" AND (stock OR shares OR investor OR "market cap" OR valuation OR funding OR IPO OR "initial public offering" OR nasdaq OR nyse)`
	if got != want {
		t.Errorf("ComposeQuery() = %q, want %q", got, want)
	}
}
