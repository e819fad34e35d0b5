// Package fallback runs an ordered list of fallible strategies and keeps the
// first success. Every attempt is recorded so callers can log or assert on the
// degraded path instead of swallowing errors.
package fallback

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrExhausted is returned by Outcome.Err when no strategy succeeded.
var ErrExhausted = errors.New("fallback: nenhuma estratégia teve sucesso")

// Strategy is one tier of a fallback chain.
type Strategy[T any] struct {
	Name string
	Run  func(ctx context.Context) (T, error)
}

// Attempt records how one strategy behaved.
type Attempt struct {
	Name     string
	Err      error
	Duration time.Duration
}

// Outcome is the result of a chain run.
type Outcome[T any] struct {
	Value    T
	Source   string // name of the winning strategy, "" when none succeeded
	Attempts []Attempt
}

// OK reports whether any strategy succeeded.
func (o Outcome[T]) OK() bool { return o.Source != "" }

// Failures returns only the attempts that failed, in order.
func (o Outcome[T]) Failures() []Attempt {
	var out []Attempt
	for _, a := range o.Attempts {
		if a.Err != nil {
			out = append(out, a)
		}
	}
	return out
}

// Err returns nil on success, otherwise ErrExhausted wrapping the last failure.
func (o Outcome[T]) Err() error {
	if o.OK() {
		return nil
	}
	if n := len(o.Attempts); n > 0 && o.Attempts[n-1].Err != nil {
		return fmt.Errorf("%w: %s: %w", ErrExhausted, o.Attempts[n-1].Name, o.Attempts[n-1].Err)
	}
	return ErrExhausted
}

// New is a shorthand for building a Strategy.
func New[T any](name string, run func(ctx context.Context) (T, error)) Strategy[T] {
	return Strategy[T]{Name: name, Run: run}
}

// First runs strategies in order and returns as soon as one returns a nil
// error. When perTry > 0 each strategy runs under its own timeout. A cancelled
// parent context stops the chain; the cancellation is recorded as the failing
// attempt.
func First[T any](ctx context.Context, perTry time.Duration, strategies ...Strategy[T]) Outcome[T] {
	var out Outcome[T]

	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			out.Attempts = append(out.Attempts, Attempt{Name: s.Name, Err: err})
			return out
		}

		tryCtx, cancel := ctx, context.CancelFunc(func() {})
		if perTry > 0 {
			tryCtx, cancel = context.WithTimeout(ctx, perTry)
		}

		start := time.Now()
		v, err := run(tryCtx, s)
		cancel()

		out.Attempts = append(out.Attempts, Attempt{Name: s.Name, Err: err, Duration: time.Since(start)})
		if err == nil {
			out.Value = v
			out.Source = s.Name
			return out
		}
	}

	return out
}

// run guards against a nil Run func and panics inside a strategy so that one
// broken tier degrades to the next instead of taking the chain down.
func run[T any](ctx context.Context, s Strategy[T]) (v T, err error) {
	if s.Run == nil {
		return v, fmt.Errorf("estratégia %q sem implementação", s.Name)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("estratégia %q falhou: %v", s.Name, r)
		}
	}()
	return s.Run(ctx)
}
