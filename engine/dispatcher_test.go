package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	name  string
	delay time.Duration
	html  string
	err   error
	calls int
}

func (f *fakeEngine) Name() string { return f.name }

func (f *fakeEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &FetchResult{HTML: f.html, EngineName: f.name}, nil
}

func TestDispatcher_SingleEngine(t *testing.T) {
	e := &fakeEngine{name: "http", html: "<p>a</p>"}
	d := NewDispatcher([]Engine{e}, nil)

	res, err := d.Fetch(context.Background(), &FetchRequest{URL: "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, "http", res.EngineName)
	assert.Equal(t, 1, e.calls)
	assert.Equal(t, []string{"http"}, d.Engines())
}

func TestDispatcher_EscalatesOnFailure(t *testing.T) {
	first := &fakeEngine{name: "http", err: errors.New("blocked")}
	second := &fakeEngine{name: "rod", html: "<p>rendered</p>"}
	d := NewDispatcher([]Engine{first, second}, []time.Duration{0, 10 * time.Millisecond})

	res, err := d.Fetch(context.Background(), &FetchRequest{URL: "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, "rod", res.EngineName)
	assert.Equal(t, "<p>rendered</p>", res.HTML)
}

func TestDispatcher_FastEngineWins(t *testing.T) {
	first := &fakeEngine{name: "http", html: "fast"}
	second := &fakeEngine{name: "rod", html: "slow", delay: time.Second}
	d := NewDispatcher([]Engine{first, second}, []time.Duration{0, 0})

	res, err := d.Fetch(context.Background(), &FetchRequest{URL: "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, "fast", res.HTML)
}

func TestDispatcher_AllFailReturnsFirstEngineError(t *testing.T) {
	httpErr := errors.New("http said no")
	d := NewDispatcher([]Engine{
		&fakeEngine{name: "http", err: httpErr},
		&fakeEngine{name: "rod", err: errors.New("rod said no")},
	}, []time.Duration{0, 0})

	_, err := d.Fetch(context.Background(), &FetchRequest{URL: "https://example.com"})
	assert.ErrorIs(t, err, httpErr)
}
