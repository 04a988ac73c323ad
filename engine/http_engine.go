package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	tls "github.com/refraction-networking/utls"
	"github.com/use-agent/filmgrab/models"
)

// DefaultUserAgent identifies the client as a desktop Chrome browser.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// maxBody caps how much of a page is read into memory.
const maxBody = 10 << 20

// HTTPEngine is a lightweight engine that uses pure net/http with a
// Chrome-like TLS fingerprint. It serves both page GETs and the
// redirect-suppressed HEAD probes of the resolver.
type HTTPEngine struct {
	client    *http.Client
	noFollow  *http.Client
	userAgent string
}

// chromeH1Spec is a Chrome-like TLS ClientHello with ALPN forced to http/1.1
// only. Computed once at init time and reused for every connection.
var chromeH1Spec tls.ClientHelloSpec

func init() {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		return
	}
	// Go's http.Transport cannot speak h2 over a utls connection.
	for i, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			spec.Extensions[i] = alpn
			break
		}
	}
	chromeH1Spec = spec
}

// NewHTTPEngine creates an HTTPEngine. An empty userAgent selects DefaultUserAgent.
func NewHTTPEngine(userAgent string) *HTTPEngine {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	transport := &http.Transport{
		DialTLSContext:    dialTLSChrome,
		ForceAttemptHTTP2: false,
		IdleConnTimeout:   90 * time.Second,
	}
	return &HTTPEngine{
		client: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		noFollow: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		userAgent: userAgent,
	}
}

// dialTLSChrome establishes a TLS connection using the Chrome h1 spec.
func dialTLSChrome(ctx context.Context, network, addr string) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	host, _, _ := net.SplitHostPort(addr)
	tlsConn := tls.UClient(conn, &tls.Config{ServerName: host}, tls.HelloCustom)
	if err := tlsConn.ApplyPreset(&chromeH1Spec); err != nil {
		conn.Close()
		return nil, fmt.Errorf("http_engine: apply tls spec: %w", err)
	}
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return tlsConn, nil
}

func (e *HTTPEngine) Name() string { return "http" }

// Fetch GETs the page and returns its body. Any non-2xx status is an error.
func (e *HTTPEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	ctx, cancel := withTimeout(ctx, req.Timeout)
	defer cancel()

	httpReq, err := e.newRequest(ctx, http.MethodGet, req)
	if err != nil {
		return nil, err
	}

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, categorizeError(err, "request failed")
	}
	defer resp.Body.Close()

	if err := checkStatus(resp.StatusCode); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, categorizeError(err, "read body")
	}

	return &FetchResult{
		HTML:       string(body),
		StatusCode: resp.StatusCode,
		EngineName: e.Name(),
	}, nil
}

// Head sends a HEAD request without following redirects. The status code is
// never validated; only transport failures are errors.
func (e *HTTPEngine) Head(ctx context.Context, req *FetchRequest) (*HeadResult, error) {
	ctx, cancel := withTimeout(ctx, req.Timeout)
	defer cancel()

	httpReq, err := e.newRequest(ctx, http.MethodHead, req)
	if err != nil {
		return nil, err
	}

	resp, err := e.noFollow.Do(httpReq)
	if err != nil {
		return nil, categorizeError(err, "head request failed")
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return &HeadResult{
		StatusCode: resp.StatusCode,
		Location:   resp.Header.Get("Location"),
	}, nil
}

// newRequest builds a request with browser-like headers. Caller headers win.
func (e *HTTPEngine) newRequest(ctx context.Context, method string, req *FetchRequest) (*http.Request, error) {
	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, nil)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeFetch, "build request", err)
	}

	httpReq.Header.Set("User-Agent", e.userAgent)
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	httpReq.Header.Set("Accept-Language", "en-US,en;q=0.9")
	httpReq.Header.Set("Accept-Encoding", "identity")

	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	return httpReq, nil
}

// withTimeout bounds ctx by d when d is positive.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// checkStatus rejects any page status outside 2xx.
func checkStatus(code int) error {
	if code < 200 || code > 299 {
		return models.NewScrapeError(
			models.ErrCodeFetch,
			"unexpected status",
			fmt.Errorf("request failed with status code %d", code),
		)
	}
	return nil
}

// categorizeError wraps raw errors into typed ScrapeErrors.
func categorizeError(err error, msg string) *models.ScrapeError {
	if errors.Is(err, context.DeadlineExceeded) {
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	}
	return models.NewScrapeError(models.ErrCodeFetch, msg, err)
}
