package entrez

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryPolicyDo(t *testing.T) {
	transient := &StatusError{Code: 500, Status: "500 Internal Server Error"}
	permanent := errors.New("bad request")

	for _, v := range []struct {
		name     string
		results  []error
		calls    int
		sleeps   int
		wantErr  bool
		exhausts bool
	}{
		{"first try", []error{nil}, 1, 0, false, false},
		{"one transient", []error{transient, nil}, 2, 1, false, false},
		{"two transient", []error{transient, transient, nil}, 3, 2, false, false},
		{"three transient", []error{transient, transient, transient}, 3, 2, true, true},
		{"permanent", []error{permanent}, 1, 0, true, false},
		{"transient then permanent", []error{transient, permanent}, 2, 1, true, false},
	} {
		rec := &sleepRecorder{}
		p := DefaultRetryPolicy()
		p.Sleep = rec.Sleep

		calls := 0
		err := p.Do(context.Background(), "elink", func() error {
			e := v.results[calls]
			calls++
			return e
		})

		if calls != v.calls {
			t.Errorf("%s: expected %d calls, got %d", v.name, v.calls, calls)
		}
		if x := len(rec.Slept()); x != v.sleeps {
			t.Errorf("%s: expected %d sleeps, got %d", v.name, v.sleeps, x)
		}
		for _, d := range rec.Slept() {
			if d != 10*time.Second {
				t.Errorf("%s: expected 10s delays, got %v", v.name, d)
			}
		}
		if (err != nil) != v.wantErr {
			t.Errorf("%s: unexpected error state %v", v.name, err)
		}
		var ee *ExhaustedError
		if errors.As(err, &ee) != v.exhausts {
			t.Errorf("%s: exhaustion mismatch for %v", v.name, err)
		}
	}
}

func TestRetryPolicyStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := DefaultRetryPolicy().Do(ctx, "efetch", func() error {
		calls++
		return nil
	})
	if !errors.Is(err, context.Canceled) || calls != 0 {
		t.Errorf("Expected context.Canceled without calls, got %v after %d calls", err, calls)
	}
}

func TestRetryPolicyCancelledWhileWaiting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := DefaultRetryPolicy()
	p.Sleep = func(time.Duration) { cancel() }

	calls := 0
	err := p.Do(ctx, "esummary", func() error {
		calls++
		return &StatusError{Code: 502, Status: "502 Bad Gateway"}
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	var ee *ExhaustedError
	if errors.As(err, &ee) {
		t.Errorf("Cancellation is not exhaustion: %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call before cancellation, got %d", calls)
	}
}

func TestRetryPolicySingleAttempt(t *testing.T) {
	rec := &sleepRecorder{}
	p := RetryPolicy{MaxAttempts: 1, Delay: time.Second, Sleep: rec.Sleep}

	err := p.Do(context.Background(), "elink", func() error {
		return &StatusError{Code: 503, Status: "503 Service Unavailable"}
	})

	var ee *ExhaustedError
	if !errors.As(err, &ee) || ee.Attempts != 1 {
		t.Fatalf("Expected exhaustion after 1 attempt, got %v", err)
	}
	if x := len(rec.Slept()); x != 0 {
		t.Errorf("Expected no delay, got %d", x)
	}
}
