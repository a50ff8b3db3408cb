package gateway

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/eringen/blogfront/domain"
	"github.com/eringen/blogfront/errs"
)

// Fallback serves listings from the primary API and switches to a stand-in
// source while the primary is unreachable. Every other operation goes to the
// primary untouched.
type Fallback struct {
	API
	standIn PostSource
	cb      *gobreaker.CircuitBreaker
}

// FallbackSettings tunes when the primary is considered unreachable.
type FallbackSettings struct {
	// Failures is the number of consecutive network failures that opens the
	// breaker (default 3).
	Failures uint32
	// Cooldown is how long the breaker stays open before probing (default 30s).
	Cooldown time.Duration
	// OnStateChange is called on breaker transitions.
	OnStateChange func(from, to string)
}

// NewFallback wraps primary so listings fall back to standIn.
func NewFallback(primary API, standIn PostSource, s FallbackSettings) *Fallback {
	if s.Failures == 0 {
		s.Failures = 3
	}
	if s.Cooldown == 0 {
		s.Cooldown = 30 * time.Second
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "posts-api",
		MaxRequests: 1,
		Timeout:     s.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.Failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !unreachable(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state changed", "component", name, "from", from.String(), "to", to.String())
			if s.OnStateChange != nil {
				s.OnStateChange(from.String(), to.String())
			}
		},
	})
	return &Fallback{API: primary, standIn: standIn, cb: cb}
}

// ListPosts asks the primary first. Only network-level failures divert to
// the stand-in; a 4xx/5xx answer is the primary's real answer and is returned.
func (f *Fallback) ListPosts(ctx context.Context, q domain.ListQuery) (domain.PostPage, error) {
	res, err := f.cb.Execute(func() (interface{}, error) {
		return f.API.ListPosts(ctx, q)
	})
	if err == nil {
		return res.(domain.PostPage), nil
	}
	if ctx.Err() != nil || !divertible(err) {
		return domain.PostPage{}, err
	}
	slog.WarnContext(ctx, "Posts API unreachable, serving stand-in dataset", "error", err)
	page, standInErr := f.standIn.ListPosts(ctx, q)
	if standInErr != nil {
		return domain.PostPage{}, errors.Join(err, standInErr)
	}
	page.Offline = true
	return page, nil
}

// State reports the breaker state ("closed", "open", "half-open").
func (f *Fallback) State() string {
	return f.cb.State().String()
}

// unreachable reports whether err says the primary could not be reached. A
// request the caller cancelled says nothing about the primary.
func unreachable(err error) bool {
	return errs.Is(err, errs.KindNetwork) && !errors.Is(err, context.Canceled)
}

func divertible(err error) bool {
	return unreachable(err) ||
		errors.Is(err, gobreaker.ErrOpenState) ||
		errors.Is(err, gobreaker.ErrTooManyRequests)
}
