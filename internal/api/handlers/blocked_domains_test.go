package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

func TestGetBlockedDomains(t *testing.T) {
	bl, _ := newTestBlocklist(t, "b.example", "a.example")

	r := httptest.NewRequest(http.MethodGet, "/api/blocked_domains", nil)
	w := httptest.NewRecorder()
	GetBlockedDomains(bl).ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d", w.Code, http.StatusOK)
	}

	var got []string
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if want := []string{"a.example", "b.example"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestGetBlockedDomains_Empty(t *testing.T) {
	bl, _ := newTestBlocklist(t)

	r := httptest.NewRequest(http.MethodGet, "/api/blocked_domains", nil)
	w := httptest.NewRecorder()
	GetBlockedDomains(bl).ServeHTTP(w, r)

	if body := w.Body.String(); body != "[]\n" {
		t.Errorf("got body %q, want empty JSON array", body)
	}
}

func TestAddBlockedDomain(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantDomain string
	}{
		{"bare domain", `{"domain": "spam.example"}`, http.StatusCreated, "spam.example"},
		{"url is reduced to host", `{"domain": "https://Spam.Example/path?q=1"}`, http.StatusCreated, "spam.example"},
		{"www prefix kept", `{"domain": "www.spam.example"}`, http.StatusCreated, "www.spam.example"},
		{"missing domain", `{}`, http.StatusBadRequest, ""},
		{"invalid json", `{"domain":`, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bl, store := newTestBlocklist(t)

			r := httptest.NewRequest(http.MethodPost, "/api/blocked_domains", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()
			AddBlockedDomain(bl).ServeHTTP(w, r)

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d; body: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantDomain == "" {
				return
			}

			if !bl.Contains(tt.wantDomain) {
				t.Errorf("blocklist should contain %q", tt.wantDomain)
			}
			domains, err := store.ListBlockedDomains(context.Background())
			if err != nil {
				t.Fatalf("ListBlockedDomains() error: %v", err)
			}
			if len(domains) != 1 || domains[0].Domain != tt.wantDomain {
				t.Errorf("persisted = %+v, want %q", domains, tt.wantDomain)
			}
		})
	}
}

func TestRemoveBlockedDomain(t *testing.T) {
	bl, _ := newTestBlocklist(t, "spam.example")

	t.Run("existing domain", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodDelete, "/api/blocked_domains", bytes.NewBufferString(`{"domain": "spam.example"}`))
		w := httptest.NewRecorder()
		RemoveBlockedDomain(bl).ServeHTTP(w, r)

		if w.Code != http.StatusOK {
			t.Fatalf("got status %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
		}
		if bl.Contains("spam.example") {
			t.Error("domain should be removed")
		}
	})

	t.Run("unknown domain", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodDelete, "/api/blocked_domains", bytes.NewBufferString(`{"domain": "spam.example"}`))
		w := httptest.NewRecorder()
		RemoveBlockedDomain(bl).ServeHTTP(w, r)

		if w.Code != http.StatusNotFound {
			t.Fatalf("got status %d, want %d", w.Code, http.StatusNotFound)
		}
	})
}
