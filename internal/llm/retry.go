package llm

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/litscreen/internal/model"
)

// retrySleepFunc waits between attempts. Tests swap it out.
var retrySleepFunc = sleepContext

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// RetryPolicy is exponential backoff with multiplicative jitter. Each wait is
// the previous one times Multiplier*(1+Jitter*u) for u drawn from [0,1),
// capped at MaxDelay.
type RetryPolicy struct {
	MaxRetries   int
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Jitter       float64

	// Random draws u. Nil uses math/rand/v2.
	Random func() float64
}

// DefaultRetryPolicy returns the policy used when nothing overrides it
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:   10,
		InitialDelay: time.Second,
		Multiplier:   2,
		MaxDelay:     5 * time.Minute,
		Jitter:       1,
	}
}

// RetryPolicyFromModel converts the retry section of the run configuration
func RetryPolicyFromModel(c model.RetryConfig) RetryPolicy {
	p := RetryPolicy{
		MaxRetries:   c.MaxRetries,
		InitialDelay: c.InitialDelay,
		Multiplier:   c.Multiplier,
		MaxDelay:     c.MaxDelay,
	}
	if c.Jitter {
		p.Jitter = 1
	}
	return p
}

// next returns the wait after delay
func (p RetryPolicy) next(delay time.Duration) time.Duration {
	multiplier := p.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}
	u := 0.0
	if p.Jitter > 0 {
		random := p.Random
		if random == nil {
			random = rand.Float64
		}
		u = random()
	}
	next := time.Duration(float64(delay) * multiplier * (1 + p.Jitter*u))
	if p.MaxDelay > 0 && next > p.MaxDelay {
		next = p.MaxDelay
	}
	return next
}

// Do calls fn until it succeeds, fails with a non-retryable error, or has
// been retried MaxRetries times. The last error is wrapped in
// ErrRetriesExhausted.
func (p RetryPolicy) Do(ctx context.Context, log logrus.FieldLogger, fn func(ctx context.Context) error) error {
	delay := p.InitialDelay
	if delay <= 0 {
		delay = time.Millisecond
	}

	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !Retryable(err) {
			return err
		}
		if attempt >= p.MaxRetries {
			return fmt.Errorf("%w after %d retries: %w", ErrRetriesExhausted, attempt, err)
		}

		delay = p.next(delay)
		log.WithFields(logrus.Fields{
			"attempt": attempt + 1,
			"delay":   delay.String(),
		}).WithError(err).Warn("retrying after transient error")

		if err := retrySleepFunc(ctx, delay); err != nil {
			return err
		}
	}
}

// RetryingCompleter retries transient completion failures
type RetryingCompleter struct {
	next   Completer
	policy RetryPolicy
	log    logrus.FieldLogger
}

// NewRetryingCompleter wraps next with policy
func NewRetryingCompleter(next Completer, policy RetryPolicy, log logrus.FieldLogger) *RetryingCompleter {
	return &RetryingCompleter{next: next, policy: policy, log: log}
}

// Name returns the wrapped provider name
func (r *RetryingCompleter) Name() string {
	return r.next.Name()
}

// Complete calls the wrapped completer under the retry policy
func (r *RetryingCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	var answer string
	err := r.policy.Do(ctx, r.log.WithField("model", req.Model), func(ctx context.Context) error {
		var err error
		answer, err = r.next.Complete(ctx, req)
		return err
	})
	return answer, err
}

// RetryingEmbedder retries transient embedding failures
type RetryingEmbedder struct {
	next   Embedder
	policy RetryPolicy
	log    logrus.FieldLogger
}

// NewRetryingEmbedder wraps next with policy
func NewRetryingEmbedder(next Embedder, policy RetryPolicy, log logrus.FieldLogger) *RetryingEmbedder {
	return &RetryingEmbedder{next: next, policy: policy, log: log}
}

// Name returns the wrapped provider name
func (r *RetryingEmbedder) Name() string {
	return r.next.Name()
}

// Embed calls the wrapped embedder under the retry policy
func (r *RetryingEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	var vec []float64
	err := r.policy.Do(ctx, r.log, func(ctx context.Context) error {
		var err error
		vec, err = r.next.Embed(ctx, text)
		return err
	})
	return vec, err
}
