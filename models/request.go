package models

// ScrapeRequest is the payload for POST /api/scrape.
type ScrapeRequest struct {
	// URL is the absolute URL of the movie page. Required.
	URL string `json:"url"`
}
