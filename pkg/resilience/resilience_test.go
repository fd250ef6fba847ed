package resilience

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/opencacm/adk/pkg/errors"
)

func TestWithTimeoutCompletes(t *testing.T) {
	err := WithTimeout(context.Background(), TimeoutConfig{Duration: time.Second}, func(ctx context.Context) error {
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}

func TestWithTimeoutExceeded(t *testing.T) {
	err := WithTimeout(context.Background(), TimeoutConfig{Duration: 10 * time.Millisecond}, func(ctx context.Context) error {
		time.Sleep(200 * time.Millisecond)
		return nil
	})
	if !errors.IsCode(err, errors.CodeTimeout) {
		t.Fatalf("expected timeout code, got %v", err)
	}
}

func TestWithTimeoutZeroDisables(t *testing.T) {
	called := false
	err := WithTimeout(context.Background(), TimeoutConfig{}, func(ctx context.Context) error {
		called = true
		return nil
	})
	if err != nil || !called {
		t.Fatalf("expected direct call, err=%v called=%v", err, called)
	}
}

func TestWithTimeoutResult(t *testing.T) {
	value, err := WithTimeoutResult(context.Background(), TimeoutConfig{Duration: time.Second}, func(ctx context.Context) (int, error) {
		return 42, nil
	})
	if err != nil || value != 42 {
		t.Fatalf("expected 42, got %v err=%v", value, err)
	}
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	attempts := 0
	cfg := DefaultRetryConfig().WithInitialDelay(time.Millisecond)
	err := cfg.Do(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return stderrors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetryStopsOnUnrecoverable(t *testing.T) {
	attempts := 0
	cfg := DefaultRetryConfig().WithInitialDelay(time.Millisecond)
	fatal := errors.New(errors.CodeValidation, "bad input", nil)
	err := cfg.Do(context.Background(), func() error {
		attempts++
		return fatal
	})
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
	if !errors.IsCode(err, errors.CodeValidation) {
		t.Fatalf("expected original error, got %v", err)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	attempts := 0
	cfg := DefaultRetryConfig().WithMaxAttempts(2).WithInitialDelay(time.Millisecond)
	err := cfg.Do(context.Background(), func() error {
		attempts++
		return stderrors.New("still failing")
	})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestRetryTreatsUntypedErrorsAsRecoverable(t *testing.T) {
	attempts := 0
	cfg := DefaultRetryConfig().WithInitialDelay(time.Millisecond)
	err := cfg.Do(context.Background(), func() error {
		attempts++
		return stderrors.New("connection refused")
	})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if attempts != cfg.MaxAttempts {
		t.Fatalf("untyped error retried %d time(s), want %d attempts", attempts, cfg.MaxAttempts)
	}
}

func TestDoWithResult(t *testing.T) {
	cfg := DefaultRetryConfig().WithInitialDelay(time.Millisecond)
	calls := 0
	value, err := DoWithResult(context.Background(), cfg, func() (string, error) {
		calls++
		if calls < 2 {
			return "", stderrors.New("transient")
		}
		return "ok", nil
	})
	if err != nil || value != "ok" {
		t.Fatalf("expected ok, got %q err=%v", value, err)
	}
}

func TestCircuitBreakerOpensAndRecovers(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 2,
		SuccessThreshold: 1,
		Timeout:          20 * time.Millisecond,
		Name:             "test",
	})

	boom := stderrors.New("boom")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := cb.Call(ctx, func() error { return boom }); err == nil {
			t.Fatal("expected failure")
		}
	}
	if cb.State() != StateOpen {
		t.Fatalf("expected open, got %s", cb.State())
	}

	err := cb.Call(ctx, func() error { return nil })
	if !errors.IsCode(err, errors.CodeSkillFailure) {
		t.Fatalf("expected rejection while open, got %v", err)
	}

	time.Sleep(30 * time.Millisecond)
	if err := cb.Call(ctx, func() error { return nil }); err != nil {
		t.Fatalf("expected half-open probe to pass, got %v", err)
	}
	if cb.State() != StateClosed {
		t.Fatalf("expected closed after recovery, got %s", cb.State())
	}
}

func TestCircuitBreakerManualControls(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{})
	cb.Open()
	if cb.State() != StateOpen {
		t.Fatal("expected open")
	}
	cb.Reset()
	if cb.State() != StateClosed {
		t.Fatal("expected closed")
	}
}
