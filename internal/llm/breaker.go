package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/ppiankov/litscreen/internal/model"
)

// BreakerCompleter stops calling the completion service after repeated
// failures and lets a probe through once the open timeout passes
type BreakerCompleter struct {
	next    Completer
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerCompleter wraps next with a circuit breaker configured from cfg
func NewBreakerCompleter(next Completer, cfg model.BreakerConfig, log logrus.FieldLogger) *BreakerCompleter {
	minRequests := cfg.MinRequests
	if minRequests == 0 {
		minRequests = 1
	}
	threshold := cfg.FailureThreshold

	return &BreakerCompleter{
		next: next,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        next.Name(),
			MaxRequests: cfg.MaxRequests,
			Interval:    cfg.Interval,
			Timeout:     cfg.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= minRequests && failureRatio >= threshold
			},
			IsSuccessful: func(err error) bool {
				// Cancellation says nothing about the service's health
				return err == nil || errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				log.WithFields(logrus.Fields{
					"breaker": name,
					"from":    from.String(),
					"to":      to.String(),
				}).Warn("circuit breaker state changed")
			},
		}),
	}
}

// Name returns the wrapped provider name
func (b *BreakerCompleter) Name() string {
	return b.next.Name()
}

// State returns the current breaker state
func (b *BreakerCompleter) State() gobreaker.State {
	return b.breaker.State()
}

// Complete calls the wrapped completer unless the breaker is open
func (b *BreakerCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	out, err := b.breaker.Execute(func() (interface{}, error) {
		return b.next.Complete(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: %w", ErrCircuitOpen, err)
	}
	if err != nil {
		return "", err
	}
	return out.(string), nil
}
