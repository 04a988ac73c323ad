// Package extract pulls movie metadata and download links out of the
// target site's markup.
package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/use-agent/filmgrab/diag"
	"github.com/use-agent/filmgrab/models"
	"golang.org/x/net/html"
)

// Metadata is what the extractor finds on a movie page.
type Metadata struct {
	Name  string
	Image *string
	Links map[models.QualityLabel]*models.QualityLink

	// order holds labels in the order they were first seen.
	order []models.QualityLabel
}

// Labels returns the link labels in first-seen order.
func (m *Metadata) Labels() []models.QualityLabel {
	out := make([]models.QualityLabel, len(m.order))
	copy(out, m.order)
	return out
}

func (m *Metadata) setLink(label models.QualityLabel, link *models.QualityLink) {
	if _, ok := m.Links[label]; !ok {
		m.order = append(m.order, label)
	}
	m.Links[label] = link
}

// Extractor reads movie pages of one site. It is safe for concurrent use.
type Extractor struct {
	imageSel cascadia.Selector
}

// NewExtractor compiles the selectors for the given poster brand substring.
func NewExtractor(brand string) (*Extractor, error) {
	sel, err := brandImageSelector(brand)
	if err != nil {
		return nil, err
	}
	return &Extractor{imageSel: sel}, nil
}

// Extract parses rawHTML fetched from pageURL. It never fails: missing
// elements leave the matching fields empty.
func (e *Extractor) Extract(rawHTML, pageURL string, log *diag.Log) *Metadata {
	meta := &Metadata{Links: make(map[models.QualityLabel]*models.QualityLink)}

	doc, err := parseDocument(rawHTML)
	if err != nil {
		log.Warnf("Could not parse page markup: %v", err)
		return meta
	}

	// ── Name ────────────────────────────────────────────────────────
	meta.Name = strings.TrimSpace(doc.FindMatcher(infoNameSel).First().Text())
	if meta.Name == "" {
		meta.Name = strings.TrimSpace(doc.FindMatcher(infoBlockSel).Text())
		log.Warnf("Movie name not found in <b>, fallback to <p.info>")
	} else {
		log.OKf("Movie name found: %s", meta.Name)
	}

	// ── Image ───────────────────────────────────────────────────────
	if src, ok := doc.FindMatcher(e.imageSel).First().Attr("src"); ok && src != "" {
		meta.Image = &src
		log.OKf("Image found: %s", src)
	} else {
		log.Warnf("Image not found")
	}

	// ── Links by quality ────────────────────────────────────────────
	base, err := url.Parse(pageURL)
	if err != nil {
		log.Warnf("Invalid page URL %q, links skipped: %v", pageURL, err)
		return meta
	}

	doc.FindMatcher(serverLinkSel).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		resolved, err := base.Parse(href)
		if err != nil {
			log.Warnf("Skipping unresolvable link %q: %v", href, err)
			return
		}

		label := Classify(s.Text(), href)
		meta.setLink(label, &models.QualityLink{MainURL: resolved.String()})
		log.Stepf("Found %s main_url: %s", label, resolved.String())
	})

	return meta
}

// StartDownloadHref returns the href of the first anchor on a server page
// whose text holds StartDownloadText verbatim. An empty href counts as not
// found.
func StartDownloadHref(rawHTML string) (string, bool) {
	doc, err := parseDocument(rawHTML)
	if err != nil {
		return "", false
	}
	href, ok := doc.FindMatcher(anchorSel).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.Contains(s.Text(), StartDownloadText)
	}).First().Attr("href")
	if !ok || href == "" {
		return "", false
	}
	return href, true
}

// parseDocument builds a goquery document from the HTML5 parse tree.
func parseDocument(rawHTML string) (*goquery.Document, error) {
	root, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromNode(root), nil
}
