package ai

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(3, 2, time.Minute)

	if cb.GetState() != CircuitClosed {
		t.Fatalf("new breaker state = %v, want CLOSED", cb.GetState())
	}

	cb.RecordFailure()
	cb.RecordFailure()
	if cb.GetState() != CircuitClosed {
		t.Errorf("state after 2 failures = %v, want CLOSED", cb.GetState())
	}

	cb.RecordFailure()
	if cb.GetState() != CircuitOpen {
		t.Errorf("state after 3 failures = %v, want OPEN", cb.GetState())
	}
	if err := cb.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Allow on open circuit = %v, want ErrCircuitOpen", err)
	}
}

func TestCircuitBreakerRecovery(t *testing.T) {
	cb := NewCircuitBreaker(1, 2, 10*time.Millisecond)

	cb.RecordFailure()
	if cb.GetState() != CircuitOpen {
		t.Fatalf("state = %v, want OPEN", cb.GetState())
	}

	// After the open timeout the next Allow transitions to half-open
	time.Sleep(20 * time.Millisecond)
	if err := cb.Allow(); err != nil {
		t.Fatalf("Allow after timeout = %v, want nil", err)
	}
	if cb.GetState() != CircuitHalfOpen {
		t.Fatalf("state = %v, want HALF_OPEN", cb.GetState())
	}

	// Two successes close the circuit
	cb.RecordSuccess()
	cb.RecordSuccess()
	if cb.GetState() != CircuitClosed {
		t.Errorf("state after recovery = %v, want CLOSED", cb.GetState())
	}
}

func TestCircuitBreakerReopensOnHalfOpenFailure(t *testing.T) {
	cb := NewCircuitBreaker(1, 2, 10*time.Millisecond)

	cb.RecordFailure()
	time.Sleep(20 * time.Millisecond)
	if err := cb.Allow(); err != nil {
		t.Fatalf("Allow = %v, want nil", err)
	}

	cb.RecordFailure()
	if cb.GetState() != CircuitOpen {
		t.Errorf("state after half-open failure = %v, want OPEN", cb.GetState())
	}
}

func TestNewClientDefaultsRetryOnZeroConfig(t *testing.T) {
	c, err := NewClient(&Config{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if c.retry.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", c.retry.MaxRetries)
	}
	if c.circuitBreaker == nil {
		t.Error("expected circuit breaker with default config")
	}
}

func TestNewClientKeepsExplicitZeroRetries(t *testing.T) {
	c, err := NewClient(&Config{
		APIKey: "test-key",
		Retry:  RetryConfig{Timeout: time.Second},
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if c.retry.MaxRetries != 0 {
		t.Errorf("MaxRetries = %d, want 0 (explicit no-retries config)", c.retry.MaxRetries)
	}
	if c.circuitBreaker != nil {
		t.Error("circuit breaker should stay disabled when not enabled explicitly")
	}
}

func TestIsRetriableError(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{context.DeadlineExceeded, true},
		{errors.New("429 too many requests"), true},
		{errors.New("rate limit exceeded"), true},
		{errors.New("503 service unavailable"), true},
		{errors.New("connection refused"), true},
		{errors.New("request timeout"), true},
		{errors.New("401 unauthorized"), false},
		{errors.New("invalid request body"), false},
	}
	for _, tc := range cases {
		if got := isRetriableError(tc.err); got != tc.want {
			t.Errorf("isRetriableError(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestRetryWithBackoffGivesUp(t *testing.T) {
	c := &Client{retry: RetryConfig{
		MaxRetries:        2,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        5 * time.Millisecond,
		BackoffMultiplier: 2,
		Timeout:           time.Second,
	}}

	calls := 0
	err := c.retryWithBackoff(context.Background(), "test", func(ctx context.Context) error {
		calls++
		return errors.New("503 service unavailable")
	})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3 (initial + 2 retries)", calls)
	}
}

func TestRetryWithBackoffNonRetriableFailsFast(t *testing.T) {
	c := &Client{retry: RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        5 * time.Millisecond,
		BackoffMultiplier: 2,
		Timeout:           time.Second,
	}}

	calls := 0
	err := c.retryWithBackoff(context.Background(), "test", func(ctx context.Context) error {
		calls++
		return errors.New("401 unauthorized")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retries on non-retriable errors)", calls)
	}
}
