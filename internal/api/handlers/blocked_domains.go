package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mrz1836/go-sanitize"

	"github.com/hoanghai1803/tickerbrief/internal/blocklist"
	"github.com/hoanghai1803/tickerbrief/internal/storage"
)

// domainRequest is the body of POST and DELETE /api/blocked_domains.
type domainRequest struct {
	Domain string `json:"domain"`
}

// GetBlockedDomains handles GET /api/blocked_domains. It returns the blocked
// domains as a sorted JSON array.
func GetBlockedDomains(bl *blocklist.Blocklist) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, bl.List())
	}
}

// AddBlockedDomain handles POST /api/blocked_domains.
func AddBlockedDomain(bl *blocklist.Blocklist) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		domain, ok := readDomain(w, r)
		if !ok {
			return
		}

		if _, err := bl.Add(r.Context(), domain); err != nil {
			slog.Error("failed to add blocked domain", "domain", domain, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to add blocked domain")
			return
		}

		slog.Info("domain blocked by request", "domain", domain)
		writeJSON(w, http.StatusCreated, map[string]string{
			"message": fmt.Sprintf("Domain %s added to blocked list", domain),
		})
	}
}

// RemoveBlockedDomain handles DELETE /api/blocked_domains.
func RemoveBlockedDomain(bl *blocklist.Blocklist) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		domain, ok := readDomain(w, r)
		if !ok {
			return
		}

		if err := bl.Remove(r.Context(), domain); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				writeError(w, http.StatusNotFound, "Domain not found in blocked list")
				return
			}
			slog.Error("failed to remove blocked domain", "domain", domain, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to remove blocked domain")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{
			"message": fmt.Sprintf("Domain %s removed from blocked list", domain),
		})
	}
}

// readDomain decodes the request body and normalizes its domain to a bare
// lower-case host. On failure it writes a 400 and returns false.
func readDomain(w http.ResponseWriter, r *http.Request) (string, bool) {
	var body domainRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return "", false
	}

	domain, err := sanitize.Domain(body.Domain, false, false)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid domain")
		return "", false
	}
	if domain == "" {
		writeError(w, http.StatusBadRequest, "No domain provided")
		return "", false
	}
	return domain, true
}
