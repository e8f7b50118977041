package entrez

import (
	"context"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = 10 * time.Second
	DefaultMinInterval = 1 * time.Second
)

// RetryPolicy is applied uniformly to every remote operation. Errors for
// which Retryable returns false are handed back immediately.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
	Retryable   func(error) bool

	// Sleep is time.Sleep unless overridden (tests record the waits instead
	// of taking them).
	Sleep func(time.Duration)
}

// DefaultRetryPolicy retries 5xx responses up to 3 attempts in total, 10
// seconds apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		Delay:       DefaultRetryDelay,
		Retryable:   IsTransient,
		Sleep:       time.Sleep,
	}
}

// Do runs op until it succeeds, fails with a non-retryable error, or the
// attempts run out. op is the name used in log lines and in the
// ExhaustedError.
func (p RetryPolicy) Do(ctx context.Context, op string, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsTransient
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(p.Delay), uint64(attempts-1)), ctx)

	attempt := 0
	exhausted := false
	err := backoff.RetryNotifyWithTimer(func() error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return backoff.Permanent(ctxErr)
		}

		attempt++
		err := fn()
		if err == nil {
			return nil
		}

		if !retryable(err) {
			return backoff.Permanent(err)
		}

		log.Printf("Received error from server %v\n", err)
		log.Printf("Attempt %d of %d\n", attempt, attempts)
		exhausted = attempt >= attempts

		return err
	}, b, func(err error, wait time.Duration) {
		log.Printf("Retrying %s in %v\n", op, wait)
	}, &sleepTimer{sleep: p.Sleep})

	if err != nil && exhausted && retryable(err) {
		return &ExhaustedError{Op: op, Attempts: attempts, Err: err}
	}

	return err
}

// sleepTimer is a backoff.Timer that waits through a RetryPolicy's Sleep
// hook, so tests can record the delays rather than take them.
type sleepTimer struct {
	sleep func(time.Duration)
	c     chan time.Time
}

func (t *sleepTimer) Start(d time.Duration) {
	if t.c == nil {
		t.c = make(chan time.Time, 1)
	}

	sleep := t.sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	sleep(d)

	t.c <- time.Now()
}

func (t *sleepTimer) Stop() {}

func (t *sleepTimer) C() <-chan time.Time {
	return t.c
}
