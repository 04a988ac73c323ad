package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Dispatcher coordinates multi-engine racing with staged escalation.
// It starts the fastest engine first and progressively escalates to heavier
// engines if earlier ones fail or are slow. It keeps no state between calls.
type Dispatcher struct {
	engines          []Engine
	escalationDelays []time.Duration
}

// NewDispatcher creates a Dispatcher with the given engines and escalation delays.
// engines[i] starts after escalationDelays[i] from the race beginning.
// Missing delays default to zero.
func NewDispatcher(engines []Engine, escalationDelays []time.Duration) *Dispatcher {
	delays := make([]time.Duration, len(engines))
	copy(delays, escalationDelays)
	return &Dispatcher{
		engines:          engines,
		escalationDelays: delays,
	}
}

func (d *Dispatcher) Name() string { return "dispatcher" }

// Engines returns the names of the configured engines in escalation order.
func (d *Dispatcher) Engines() []string {
	names := make([]string, len(d.engines))
	for i, e := range d.engines {
		names[i] = e.Name()
	}
	return names
}

// Fetch runs the race and returns the first successful result. If all
// engines fail, it returns the error of the first engine, which is the one
// closest to a plain browser GET.
func (d *Dispatcher) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	if len(d.engines) == 1 {
		return d.engines[0].Fetch(ctx, req)
	}

	type raceResult struct {
		idx    int
		result *FetchResult
		err    error
	}

	raceCtx, raceCancel := context.WithCancel(ctx)
	defer raceCancel()

	results := make(chan raceResult, len(d.engines))
	var wg sync.WaitGroup

	for i, eng := range d.engines {
		wg.Add(1)
		go func(idx int, e Engine, delay time.Duration) {
			defer wg.Done()

			if delay > 0 {
				select {
				case <-raceCtx.Done():
					return
				case <-time.After(delay):
				}
			}

			select {
			case <-raceCtx.Done():
				return
			default:
			}

			slog.Debug("engine starting", "engine", e.Name(), "url", req.URL)
			result, err := e.Fetch(raceCtx, req)
			if err != nil {
				slog.Debug("engine failed", "engine", e.Name(), "url", req.URL, "error", err)
			}
			results <- raceResult{idx: idx, result: result, err: err}
		}(i, eng, d.escalationDelays[i])
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	errs := make([]error, len(d.engines))
	for rr := range results {
		if rr.err != nil {
			errs[rr.idx] = rr.err
			continue
		}
		raceCancel()
		slog.Debug("engine won race", "engine", rr.result.EngineName, "url", req.URL)
		return rr.result, nil
	}

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, categorizeError(err, "fetch canceled")
	}
	return nil, fmt.Errorf("dispatcher: all engines failed for %s", req.URL)
}
