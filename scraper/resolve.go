package scraper

import (
	"context"
	"net/url"

	"github.com/use-agent/filmgrab/diag"
	"github.com/use-agent/filmgrab/engine"
	"github.com/use-agent/filmgrab/extract"
	"github.com/use-agent/filmgrab/models"
)

// resolveLink follows one quality link to its download redirect and stores
// the Location header on link. Failures are logged, never returned.
func (s *Scraper) resolveLink(ctx context.Context, label models.QualityLabel, link *models.QualityLink, log *diag.Log) {
	log.Stepf("Visiting server page for %s: %s", label, link.MainURL)
	page, err := s.fetcher.Fetch(ctx, &engine.FetchRequest{
		URL:     link.MainURL,
		Timeout: s.timeout,
	})
	if err != nil {
		log.Failf("Error resolving %s: %s", label, errorCause(err))
		return
	}

	href, ok := extract.StartDownloadHref(page.HTML)
	if !ok {
		log.Failf("Start Download link not found for %s", label)
		return
	}
	log.OKf("Start Download link found for %s: %s", label, href)

	target, err := resolveAgainst(link.MainURL, href)
	if err != nil {
		log.Failf("Error resolving %s: %s", label, err)
		return
	}

	head, err := s.prober.Head(ctx, &engine.FetchRequest{
		URL:     target,
		Timeout: s.timeout,
	})
	if err != nil {
		log.Failf("Error resolving %s: %s", label, errorCause(err))
		return
	}

	if head.Location == "" {
		log.Warnf("No redirect URL returned for %s", label)
		return
	}
	// Stored verbatim; a relative Location stays relative.
	link.RedirectURL = head.Location
	log.OKf("Redirect URL for %s: %s", label, head.Location)
}

func resolveAgainst(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	u, err := b.Parse(ref)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}
