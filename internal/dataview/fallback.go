package dataview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/raphaelgruber/oceanboard/internal/appstate"
	"github.com/raphaelgruber/oceanboard/internal/notify"
)

// FallbackNotice is shown once per load that falls back to synthetic data.
const FallbackNotice = "Live data unavailable, showing sample data"

// Origin tells where a dataset came from.
type Origin string

const (
	OriginRemote    Origin = "remote"
	OriginSynthetic Origin = "synthetic"
)

// Result is the outcome of a load.
type Result[T any] struct {
	Data   []T
	Origin Origin
	// Cause is the primary failure that triggered the fallback.
	Cause error
}

// Loader loads a dataset.
type Loader[T any] interface {
	Load(ctx context.Context) (Result[T], error)
}

// Fallback tries a primary source and substitutes a secondary one on failure.
//
// Every primary failure (transport, non-2xx status, decoding, timeout) is
// replaced, except an authentication failure, which is returned so the caller
// can send the user to login. A cancelled caller context is returned as is.
type Fallback[T any] struct {
	primary  Source[T]
	fallback Source[T]
	timeout  time.Duration
	notifier notify.Notifier
	logger   *slog.Logger
}

// FallbackOption configures a Fallback.
type FallbackOption func(*fallbackOptions)

type fallbackOptions struct {
	timeout  time.Duration
	notifier notify.Notifier
	logger   *slog.Logger
}

// WithTimeout bounds each primary fetch.
func WithTimeout(d time.Duration) FallbackOption {
	return func(o *fallbackOptions) { o.timeout = d }
}

// WithNotifier sets where fallback notices go.
func WithNotifier(n notify.Notifier) FallbackOption {
	return func(o *fallbackOptions) { o.notifier = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) FallbackOption {
	return func(o *fallbackOptions) { o.logger = l }
}

// NewFallback creates a loader over primary with fallback as the substitute.
func NewFallback[T any](primary, fallback Source[T], opts ...FallbackOption) *Fallback[T] {
	o := fallbackOptions{
		timeout:  10 * time.Second,
		notifier: notify.Discard{},
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Fallback[T]{
		primary:  primary,
		fallback: fallback,
		timeout:  o.timeout,
		notifier: o.notifier,
		logger:   o.logger,
	}
}

// Load fetches from the primary source, falling back when it fails.
func (f *Fallback[T]) Load(ctx context.Context) (Result[T], error) {
	if err := ctx.Err(); err != nil {
		return Result[T]{}, err
	}

	fetchCtx := ctx
	if f.timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	data, err := f.primary.Fetch(fetchCtx)
	if err == nil {
		if data == nil {
			data = []T{}
		}
		return Result[T]{Data: data, Origin: OriginRemote}, nil
	}

	if errors.Is(err, appstate.ErrUnauthenticated) {
		return Result[T]{}, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Result[T]{}, ctxErr
	}

	f.logger.Warn("primary source failed, using fallback",
		"source", f.primary.Name(),
		"fallback", f.fallback.Name(),
		"error", err,
	)
	notify.Warn(f.notifier, FallbackNotice)

	data, ferr := f.fallback.Fetch(ctx)
	if ferr != nil {
		return Result[T]{}, fmt.Errorf("fallback %s: %w", f.fallback.Name(), ferr)
	}
	return Result[T]{Data: data, Origin: OriginSynthetic, Cause: err}, nil
}

// LoadOne runs a single-object loader and returns its only item.
func LoadOne[T any](ctx context.Context, loader Loader[T]) (T, Origin, error) {
	var zero T
	res, err := loader.Load(ctx)
	if err != nil {
		return zero, "", err
	}
	if len(res.Data) == 0 {
		return zero, "", fmt.Errorf("load: empty result from %s source", res.Origin)
	}
	return res.Data[0], res.Origin, nil
}
