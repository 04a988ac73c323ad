package models

// ScrapeResult is the success body for POST /api/scrape.
type ScrapeResult struct {
	// Name is the movie title. Always present, possibly empty.
	Name string `json:"name"`

	// Image is the poster URL, serialised as null when not found.
	Image *string `json:"image"`

	// Links maps each quality label to its link. Always present.
	Links map[QualityLabel]*QualityLink `json:"links"`

	// Logs is the request's diagnostic trace, only when diagnostics are on.
	Logs []string `json:"logs,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string   `json:"error"`
	Logs  []string `json:"logs,omitempty"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status  string   `json:"status"`
	Uptime  string   `json:"uptime"`
	Engines []string `json:"engines"`
	Version string   `json:"version"`
}
