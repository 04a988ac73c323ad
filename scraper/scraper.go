// Package scraper runs the scrape-and-resolve pipeline for one movie page.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/use-agent/filmgrab/config"
	"github.com/use-agent/filmgrab/diag"
	"github.com/use-agent/filmgrab/engine"
	"github.com/use-agent/filmgrab/extract"
	"github.com/use-agent/filmgrab/models"
	"golang.org/x/sync/errgroup"
)

// Scraper fetches a movie page, extracts its links and resolves each link's
// download redirect. It holds no per-request state and is safe for
// concurrent use.
type Scraper struct {
	fetcher     engine.Engine
	prober      engine.Prober
	extractor   *extract.Extractor
	timeout     time.Duration
	concurrency int
}

// NewScraper wires a Scraper. fetcher serves every GET (main page and server
// pages); prober serves the final HEAD probes.
func NewScraper(fetcher engine.Engine, prober engine.Prober, cfg config.ScraperConfig) (*Scraper, error) {
	ex, err := extract.NewExtractor(cfg.ImageBrand)
	if err != nil {
		return nil, fmt.Errorf("scraper: compile image selector: %w", err)
	}

	concurrency := cfg.ResolveConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	return &Scraper{
		fetcher:     fetcher,
		prober:      prober,
		extractor:   ex,
		timeout:     cfg.FetchTimeout,
		concurrency: concurrency,
	}, nil
}

// DoScrape executes the full pipeline for targetURL.
//
// The returned Log is never nil and holds the trace up to the point of
// failure. Only an invalid URL or a failed main-page fetch is an error;
// per-link problems are recorded in the Log and leave that link without a
// redirect_url.
func (s *Scraper) DoScrape(ctx context.Context, targetURL string) (*models.ScrapeResult, *diag.Log, error) {
	log := diag.New("url", targetURL)

	if err := validateURL(targetURL); err != nil {
		log.Failf("Invalid URL: %s", targetURL)
		return nil, log, err
	}

	// ── Step 1: Main page ───────────────────────────────────────────
	log.Stepf("Fetching main page: %s", targetURL)
	page, err := s.fetcher.Fetch(ctx, &engine.FetchRequest{
		URL:     targetURL,
		Timeout: s.timeout,
	})
	if err != nil {
		log.Failf("Error fetching main page: %s", errorCause(err))
		return nil, log, err
	}

	// ── Step 2: Metadata ────────────────────────────────────────────
	// Links resolve against the URL the caller gave, not the post-redirect one.
	meta := s.extractor.Extract(page.HTML, targetURL, log)

	// ── Step 3: Redirects ───────────────────────────────────────────
	labels := meta.Labels()
	labelLogs := make([]*diag.Log, len(labels))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, label := range labels {
		labelLog := diag.New("url", targetURL, "quality", string(label))
		labelLogs[i] = labelLog
		link := meta.Links[label]
		g.Go(func() error {
			s.resolveLink(ctx, label, link, labelLog)
			return nil
		})
	}
	_ = g.Wait()

	for _, l := range labelLogs {
		log.Append(l)
	}

	return &models.ScrapeResult{
		Name:  meta.Name,
		Image: meta.Image,
		Links: meta.Links,
	}, log, nil
}

// validateURL accepts only absolute http(s) URLs with a host.
func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return models.NewScrapeError(models.ErrCodeInvalidInput, "invalid url", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return models.NewScrapeError(models.ErrCodeInvalidInput, "invalid url",
			fmt.Errorf("url must be absolute http or https, got %q", raw))
	}
	return nil
}

// errorCause returns the upstream message carried by err.
func errorCause(err error) string {
	var se *models.ScrapeError
	if errors.As(err, &se) {
		return se.Cause()
	}
	return err.Error()
}
