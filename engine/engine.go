package engine

import (
	"context"
	"time"
)

// Engine is the interface that all fetch engines must implement.
type Engine interface {
	// Name returns the engine identifier (e.g. "http", "rod").
	Name() string

	// Fetch retrieves the page content for the given request.
	Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error)
}

// Prober issues redirect-suppressed HEAD requests.
type Prober interface {
	Head(ctx context.Context, req *FetchRequest) (*HeadResult, error)
}

// FetchRequest contains everything an engine needs to fetch a page.
type FetchRequest struct {
	URL     string
	Headers map[string]string
	Timeout time.Duration
}

// FetchResult is the output of a successful engine fetch.
type FetchResult struct {
	HTML       string
	StatusCode int
	EngineName string
}

// HeadResult is the raw outcome of a HEAD request. Any status is a result,
// not an error; Location holds the header exactly as the server sent it.
type HeadResult struct {
	StatusCode int
	Location   string
}
