package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/filmgrab/api/middleware"
	"github.com/use-agent/filmgrab/diag"
	"github.com/use-agent/filmgrab/models"
	"github.com/use-agent/filmgrab/scraper"
)

// Scrape returns the handler for /api/scrape.
//
// Flow:
//  1. OPTIONS → 200 empty; any other non-POST → 405.
//  2. Parse body; a missing url is 400 with no outbound fetch.
//  3. Scraper.DoScrape → metadata with resolved links.
//  4. Attach the diagnostic trace when enabled, return 200.
func Scrape(sc *scraper.Scraper, diagnostics bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		// ── 1. Method ───────────────────────────────────────────────
		switch c.Request.Method {
		case http.MethodPost:
		case http.MethodOptions:
			c.Status(http.StatusOK)
			return
		default:
			c.JSON(http.StatusMethodNotAllowed, models.ErrorResponse{Error: "POST only"})
			return
		}

		// ── 2. Parse request ────────────────────────────────────────
		var req models.ScrapeRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.URL == "" {
			log := diag.New("request_id", c.GetString(middleware.RequestIDKey))
			log.Failf("URL missing in request body")
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: "URL required",
				Logs:  traceFor(log, diagnostics),
			})
			return
		}

		// ── 3. Scrape ───────────────────────────────────────────────
		result, log, err := sc.DoScrape(c.Request.Context(), req.URL)
		if err != nil {
			respondError(c, err, traceFor(log, diagnostics))
			return
		}

		// ── 4. Respond ──────────────────────────────────────────────
		result.Logs = traceFor(log, diagnostics)
		c.JSON(http.StatusOK, result)
	}
}

func traceFor(log *diag.Log, diagnostics bool) []string {
	if !diagnostics {
		return nil
	}
	return log.Strings()
}

// respondError maps a ScrapeError to its HTTP status and public message.
func respondError(c *gin.Context, err error, logs []string) {
	var scrapeErr *models.ScrapeError
	if !errors.As(err, &scrapeErr) {
		scrapeErr = models.NewScrapeError(models.ErrCodeInternal, err.Error(), err)
	}

	status := mapErrorToStatus(scrapeErr)
	msg := "Failed to scrape"
	if status == http.StatusBadRequest {
		msg = "Invalid URL"
	}
	c.JSON(status, models.ErrorResponse{Error: msg, Logs: logs})
}

// mapErrorToStatus translates error codes to HTTP status codes. Fetch
// failures and timeouts on the main page are both plain 500s.
func mapErrorToStatus(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}
