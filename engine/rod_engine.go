package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/filmgrab/config"
	"github.com/use-agent/filmgrab/models"
	"github.com/ysmood/gson"
)

// RodEngine renders pages in a headless Chromium. It is the escalation tier
// for pages that refuse plain HTTP clients (JS challenges, bot walls).
// It is safe for concurrent use.
type RodEngine struct {
	browser   *rod.Browser
	pagePool  rod.Pool[rod.Page]
	userAgent string
}

// NewRodEngine launches a browser with stealth flags and a reusable page pool.
func NewRodEngine(cfg config.BrowserConfig, userAgent string) (*RodEngine, error) {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}

	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInternal, "failed to launch browser", err)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInternal, "failed to connect to browser", err)
	}

	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = 1
	}

	return &RodEngine{
		browser:   browser,
		pagePool:  rod.NewPagePool(maxPages),
		userAgent: userAgent,
	}, nil
}

func (e *RodEngine) Name() string { return "rod" }

// Fetch navigates a pooled tab to the URL and returns the rendered HTML.
func (e *RodEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	ctx, cancel := withTimeout(ctx, req.Timeout)
	defer cancel()

	page, err := e.pagePool.Get(func() (*rod.Page, error) {
		return e.browser.Page(proto.TargetCreateTarget{})
	})
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInternal, "failed to acquire page from pool", err)
	}
	defer func() {
		if navErr := page.Navigate("about:blank"); navErr != nil {
			slog.Warn("cleanup: failed to navigate to about:blank", "error", navErr)
		}
		e.pagePool.Put(page)
	}()

	if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
		slog.Warn("stealth injection failed, proceeding without stealth", "error", evalErr)
	}

	headers := map[string]string{"User-Agent": e.userAgent}
	for k, v := range req.Headers {
		headers[k] = v
	}
	_ = proto.NetworkSetExtraHTTPHeaders{Headers: toHeadersMap(headers)}.Call(page)

	p := page.Context(ctx)

	// Navigate does not fail on HTTP errors; take the status from the
	// document response instead.
	status := 0
	waitDocument := p.EachEvent(func(ev *proto.NetworkResponseReceived) bool {
		if ev.Type != proto.NetworkResourceTypeDocument {
			return false
		}
		status = ev.Response.Status
		return true
	})

	if err := p.Navigate(req.URL); err != nil {
		return nil, categorizeError(err, "navigation to target URL failed")
	}
	waitDocument()

	if err := documentStatusError(status, ctx.Err()); err != nil {
		return nil, err
	}

	if stableErr := p.WaitDOMStable(300*time.Millisecond, 0.1); stableErr != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM", "error", stableErr)
	}

	rawHTML, err := p.HTML()
	if err != nil {
		return nil, categorizeError(err, "failed to extract page HTML")
	}

	return &FetchResult{
		HTML:       rawHTML,
		StatusCode: status,
		EngineName: e.Name(),
	}, nil
}

// Close drains the page pool and kills the browser process.
func (e *RodEngine) Close() {
	e.pagePool.Cleanup(func(p *rod.Page) {
		_ = p.Close()
	})
	if err := e.browser.Close(); err != nil {
		slog.Warn("browser close failed", "error", err)
	}
}

// documentStatusError judges a navigation by its document response status.
// A zero status means no response arrived before ctxErr (if any) ended the wait.
func documentStatusError(status int, ctxErr error) error {
	if status == 0 {
		if ctxErr != nil {
			return categorizeError(ctxErr, "no document response")
		}
		return models.NewScrapeError(models.ErrCodeFetch, "no document response", nil)
	}
	return checkStatus(status)
}

// toHeadersMap converts a plain string map to proto.NetworkHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}
