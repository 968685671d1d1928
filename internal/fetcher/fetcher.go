// Package fetcher runs fetch cycles for views: concurrent composite requests joined into a single
// {loading, error, data} state, with stale completions discarded when a newer cycle starts.
package fetcher

import (
	"context"
	"errors"
	"sync"

	"github.com/BearBump/FlightBoard/internal/integrations/upstream"
	"golang.org/x/sync/errgroup"
)

// DefaultErrorMessage is shown when the failure did not come from the remote service.
const DefaultErrorMessage = "An error occurred while fetching data"

// State is the triple handed to the presentation layer. Exactly one of Error and Data is set
// once a cycle has finished; both are nil while loading.
type State[T any] struct {
	Loading bool    `json:"loading"`
	Error   *string `json:"error"`
	Data    *T      `json:"data"`
}

func Loading[T any]() State[T] { return State[T]{Loading: true} }

func Failed[T any](msg string) State[T] { return State[T]{Error: &msg} }

func Succeeded[T any](data T) State[T] { return State[T]{Data: &data} }

// Err returns the error message or "".
func (s State[T]) Err() string {
	if s.Error == nil {
		return ""
	}
	return *s.Error
}

// All runs reqs concurrently and waits for all of them. The first failure cancels the context
// passed to the others and is returned.
func All(ctx context.Context, reqs ...func(ctx context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, req := range reqs {
		g.Go(func() error { return req(gctx) })
	}
	return g.Wait()
}

// Message extracts the user-facing text of err: the remote service's own message when it sent
// one, otherwise a generic text. Transport errors carry internal addresses and stay in logs.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *upstream.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return apiErr.Error()
	}
	switch {
	case errors.Is(err, context.Canceled):
		return context.Canceled.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return context.DeadlineExceeded.Error()
	}
	return DefaultErrorMessage
}

// Result reports how a Load call ended.
type Result int

const (
	Completed Result = iota
	Superseded
)

// Observer is notified once per finished cycle.
type Observer interface {
	ObserveFetch(view, outcome string)
}

// View owns the state of one logical view. Each Load starts a new cycle: the previous cycle's
// context is canceled and its completion, if it still arrives, is discarded.
type View[T any] struct {
	name string
	obs  Observer

	mu     sync.Mutex
	gen    uint64
	key    string
	cancel context.CancelFunc
	state  State[T]
	closed bool
}

func NewView[T any](name string, obs Observer) *View[T] {
	return &View[T]{name: name, obs: obs}
}

func (v *View[T]) Name() string { return v.name }

// State returns a snapshot of the current triple.
func (v *View[T]) State() State[T] {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Key returns the trigger key of the most recent cycle.
func (v *View[T]) Key() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.key
}

// Load runs fn as a new cycle for key and blocks until it finishes. The returned state is the
// view state after the cycle; when a newer cycle started meanwhile it is that cycle's state and
// the result is Superseded.
func (v *View[T]) Load(ctx context.Context, key string, fn func(ctx context.Context) (T, error)) (State[T], Result) {
	v.mu.Lock()
	if v.closed {
		st := v.state
		v.mu.Unlock()
		return st, Superseded
	}
	if v.cancel != nil {
		v.cancel()
	}
	v.gen++
	gen := v.gen
	cctx, cancel := context.WithCancel(ctx)
	v.cancel = cancel
	v.key = key
	v.state = Loading[T]()
	v.mu.Unlock()

	data, err := fn(cctx)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || v.gen != gen || v.key != key {
		cancel()
		v.observe(outcomeSuperseded)
		return v.state, Superseded
	}
	cancel()
	v.cancel = nil
	if err != nil {
		v.state = Failed[T](Message(err))
		v.observe(outcomeFailure)
	} else {
		v.state = Succeeded(data)
		v.observe(outcomeSuccess)
	}
	return v.state, Completed
}

// Close cancels any in-flight cycle; later completions are discarded.
func (v *View[T]) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
}

const (
	outcomeSuccess    = "success"
	outcomeFailure    = "failure"
	outcomeSuperseded = "superseded"
)

func (v *View[T]) observe(outcome string) {
	if v.obs != nil {
		v.obs.ObserveFetch(v.name, outcome)
	}
}
