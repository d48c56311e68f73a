package render

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// OutcomeKind says how a page continues after its customize step.
type OutcomeKind int

const (
	// OutcomeContinue renders the page.
	OutcomeContinue OutcomeKind = iota
	// OutcomeRedirect sends the client to Outcome.Target without rendering.
	OutcomeRedirect
	// OutcomeFail answers 404 with Outcome.Message as plain text.
	OutcomeFail
)

// Outcome is the single result of a customize step.
type Outcome struct {
	Kind    OutcomeKind
	Target  string
	Message string
}

// Continue proceeds to render.
func Continue() Outcome {
	return Outcome{Kind: OutcomeContinue}
}

// Redirect short-circuits to target.
func Redirect(target string) Outcome {
	return Outcome{Kind: OutcomeRedirect, Target: target}
}

// Fail short-circuits with a not-found message.
func Fail(message string) Outcome {
	return Outcome{Kind: OutcomeFail, Message: message}
}

// Customize adjusts locals for one request before the page is rendered.
// It must watch ctx and return once ctx is done.
type Customize func(ctx context.Context, r *http.Request, locals *Locals) Outcome

// RunCustomize runs fn with a deadline of timeout.
//
// A nil fn continues immediately. When the deadline passes first the step
// is abandoned and ErrCustomizeTimeout is returned; a panic in fn is
// returned as ErrCustomizePanic.
func RunCustomize(ctx context.Context, timeout time.Duration, fn Customize, r *http.Request, locals *Locals) (Outcome, error) {
	if fn == nil {
		return Continue(), nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		outcome Outcome
		err     error
	}
	done := make(chan result, 1)

	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- result{err: fmt.Errorf("%w: %v", ErrCustomizePanic, p)}
			}
		}()
		done <- result{outcome: fn(ctx, r.WithContext(ctx), locals)}
	}()

	select {
	case res := <-done:
		return res.outcome, res.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Outcome{}, fmt.Errorf("%w after %v", ErrCustomizeTimeout, timeout)
		}
		return Outcome{}, fmt.Errorf("customize step: %w", ctx.Err())
	}
}
