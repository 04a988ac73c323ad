package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/filmgrab/config"
	"github.com/use-agent/filmgrab/engine"
	"github.com/use-agent/filmgrab/models"
)

const moviePage = `<html><body>
	<p class="info"><b>Sample Movie</b></p>
	<img src="/img/filmyzilla_logo.png">
	<a href="/server/720p-abc">720p Server</a>
	<a href="/server/1080-broken">1080p Server</a>
	<a href="/server/480-nolink">480p Server</a>
	<a href="http://127.0.0.1:1/server/dead">Fast Server</a>
</body></html>`

// newSite serves a fake movie site and counts every request it receives.
func newSite(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/movie", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(moviePage))
	})
	mux.HandleFunc("/server/720p-abc", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<a href="/other">Mirror</a><a href="/final/xyz">Start Download Now</a>`))
	})
	mux.HandleFunc("/server/1080-broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/server/480-nolink", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<a href="/x">Download later</a>`))
	})
	mux.HandleFunc("/final/xyz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Location", "https://cdn.example/file.mp4")
		w.WriteHeader(http.StatusFound)
	})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func newTestScraper(t *testing.T, concurrency int) *Scraper {
	t.Helper()
	eng := engine.NewHTTPEngine("")
	s, err := NewScraper(eng, eng, config.ScraperConfig{
		FetchTimeout:       5 * time.Second,
		ResolveConcurrency: concurrency,
		ImageBrand:         "filmyzilla",
	})
	require.NoError(t, err)
	return s
}

func TestDoScrape_ResolvesAndIsolatesFailures(t *testing.T) {
	srv, _ := newSite(t)
	s := newTestScraper(t, 4)

	res, log, err := s.DoScrape(context.Background(), srv.URL+"/movie")
	require.NoError(t, err)
	require.NotNil(t, log)

	assert.Equal(t, "Sample Movie", res.Name)
	require.NotNil(t, res.Image)
	assert.Equal(t, "/img/filmyzilla_logo.png", *res.Image)

	require.Len(t, res.Links, 4)
	ok := res.Links[models.Quality720p]
	assert.Equal(t, srv.URL+"/server/720p-abc", ok.MainURL)
	assert.Equal(t, "https://cdn.example/file.mp4", ok.RedirectURL)

	for _, label := range []models.QualityLabel{models.Quality1080p, models.Quality480p, models.QualityUnknown} {
		assert.NotEmpty(t, res.Links[label].MainURL, label)
		assert.Empty(t, res.Links[label].RedirectURL, label)
	}

	lines := log.Strings()
	assert.Contains(t, lines, "✅ Redirect URL for 720p: https://cdn.example/file.mp4")
	assert.Contains(t, lines, "✅ Start Download link found for 720p: /final/xyz")
	assert.Contains(t, lines, "❌ Error resolving 1080p: request failed with status code 500")
	assert.Contains(t, lines, "❌ Start Download link not found for 480p")
}

func TestDoScrape_LogOrderIndependentOfConcurrency(t *testing.T) {
	srv, _ := newSite(t)

	_, seqLog, err := newTestScraper(t, 1).DoScrape(context.Background(), srv.URL+"/movie")
	require.NoError(t, err)
	_, parLog, err := newTestScraper(t, 8).DoScrape(context.Background(), srv.URL+"/movie")
	require.NoError(t, err)

	// The unreachable host's error text can vary between runs; compare lengths
	// and the deterministic prefix.
	seq, par := seqLog.Strings(), parLog.Strings()
	require.Equal(t, len(seq), len(par))
	for i := range seq {
		if i < len(seq)-1 {
			assert.Equal(t, seq[i], par[i])
		}
	}
	assert.Equal(t, "➡️ Fetching main page: "+srv.URL+"/movie", seq[0])
}

func TestDoScrape_MainPageFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	res, log, err := newTestScraper(t, 4).DoScrape(context.Background(), srv.URL+"/missing")

	require.Error(t, err)
	assert.Nil(t, res)
	var se *models.ScrapeError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, models.ErrCodeFetch, se.Code)
	assert.Equal(t, []string{
		"➡️ Fetching main page: " + srv.URL + "/missing",
		"❌ Error fetching main page: request failed with status code 404",
	}, log.Strings())
}

func TestDoScrape_InvalidURL(t *testing.T) {
	for _, raw := range []string{"", "not a url", "/relative/path", "ftp://host/x", "http://"} {
		t.Run(raw, func(t *testing.T) {
			res, log, err := newTestScraper(t, 4).DoScrape(context.Background(), raw)

			assert.Nil(t, res)
			var se *models.ScrapeError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, models.ErrCodeInvalidInput, se.Code)
			assert.Equal(t, 1, log.Len())
		})
	}
}

func TestDoScrape_RelativeLocationKeptVerbatim(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/movie", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<a href="/server/720">720p</a>`))
	})
	mux.HandleFunc("/server/720", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<a href="go">Start Download Now</a>`))
	})
	mux.HandleFunc("/server/go", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "../files/a.mkv")
		w.WriteHeader(http.StatusMovedPermanently)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	res, _, err := newTestScraper(t, 2).DoScrape(context.Background(), srv.URL+"/movie")
	require.NoError(t, err)
	assert.Equal(t, "../files/a.mkv", res.Links[models.Quality720p].RedirectURL)
}

func TestDoScrape_NoLocation(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/movie", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<a href="/server/480">480p</a>`))
	})
	mux.HandleFunc("/server/480", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<a href="/final">Start Download Now</a>`))
	})
	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) {})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	res, log, err := newTestScraper(t, 1).DoScrape(context.Background(), srv.URL+"/movie")
	require.NoError(t, err)
	assert.Empty(t, res.Links[models.Quality480p].RedirectURL)
	assert.Contains(t, log.Strings(), "⚠️ No redirect URL returned for 480p")
}
