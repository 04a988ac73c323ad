package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatResult(t *testing.T) {
	var resp scrapeResponse
	require.NoError(t, json.Unmarshal([]byte(`{
		"name": "Sample Movie",
		"image": "https://img.example/filmyzilla_logo.png",
		"links": {
			"720p": {"main_url": "https://site.example/server/720p-abc", "redirect_url": "https://cdn.example/file.mp4"},
			"1080p": {"main_url": "https://site.example/server/1080"}
		},
		"logs": ["✅ Movie name found: Sample Movie"]
	}`), &resp))

	out := formatResult(&resp, true)

	assert.Contains(t, out, "Title: Sample Movie\n")
	assert.Contains(t, out, "Poster: https://img.example/filmyzilla_logo.png\n")
	assert.Contains(t, out, "download: https://cdn.example/file.mp4")
	assert.Contains(t, out, "download: (unresolved)")
	assert.Less(t, strings.Index(out, "1080p"), strings.Index(out, "720p"))
	assert.Contains(t, out, "✅ Movie name found: Sample Movie")

	assert.NotContains(t, formatResult(&resp, false), "Movie name found")
}

func TestAPIPost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/scrape", r.URL.Path)
		assert.Equal(t, "k", r.Header.Get("X-API-Key"))
		var req scrapeRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "https://site.example/m", req.URL)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to scrape"}`))
	}))
	defer srv.Close()

	body, status, err := apiPost(context.Background(), srv.Client(), srv.URL, "k", "/api/scrape", scrapeRequest{URL: "https://site.example/m"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.JSONEq(t, `{"error":"Failed to scrape"}`, string(body))
}
