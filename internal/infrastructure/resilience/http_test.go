package resilience

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/kirillkom/visual-rag-router/internal/core/domain"
)

type timeoutNetError struct{}

func (timeoutNetError) Error() string { return "i/o timeout" }
func (timeoutNetError) Timeout() bool { return true }
func (timeoutNetError) Temporary() bool { return true }

func TestClassifyHTTPError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		retry  bool
		record bool
	}{
		{name: "canceled", err: context.Canceled},
		{name: "deadline", err: fmt.Errorf("call: %w", context.DeadlineExceeded)},
		{name: "circuit open", err: gobreaker.ErrOpenState, retry: true, record: true},
		{name: "service unavailable", err: &HTTPStatusError{StatusCode: http.StatusServiceUnavailable}, retry: true, record: true},
		{name: "too many requests", err: &HTTPStatusError{StatusCode: http.StatusTooManyRequests}, retry: true, record: true},
		{name: "bad request", err: &HTTPStatusError{StatusCode: http.StatusBadRequest}},
		{name: "network", err: fmt.Errorf("dial: %w", timeoutNetError{}), retry: true, record: true},
		{name: "other", err: errors.New("decode"), record: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			class := ClassifyHTTPError(tc.err)
			if class.Retryable != tc.retry || class.RecordFailure != tc.record {
				t.Fatalf("unexpected classification %+v", class)
			}
		})
	}
}

func TestWrapTemporary(t *testing.T) {
	err := WrapTemporary("embed", &HTTPStatusError{Service: "clip", Operation: "embed", StatusCode: http.StatusBadGateway, Status: "502 Bad Gateway"})
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error, got %v", err)
	}

	permanent := &HTTPStatusError{StatusCode: http.StatusBadRequest}
	if got := WrapTemporary("embed", permanent); domain.IsKind(got, domain.ErrTemporary) {
		t.Fatalf("expected permanent error to stay unwrapped, got %v", got)
	}
	if WrapTemporary("embed", nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
}

func TestCallReturnsValue(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    2,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
		BreakerEnabled:      false,
	})

	attempts := 0
	got, err := Call(context.Background(), exec, "op", func(context.Context) ([]float32, error) {
		attempts++
		if attempts == 1 {
			return nil, &HTTPStatusError{StatusCode: http.StatusServiceUnavailable}
		}
		return []float32{1, 2}, nil
	}, ClassifyHTTPError)
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if len(got) != 2 || attempts != 2 {
		t.Fatalf("unexpected result %v after %d attempts", got, attempts)
	}
}
