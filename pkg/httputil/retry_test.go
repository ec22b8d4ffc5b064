package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

var errTransient = errors.New("transient")

func TestRetry(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		failures  int
		retryable bool
		wantCalls int
		wantErr   bool
	}{
		{"success", 0, true, 1, false},
		{"recovers", 2, true, 3, false},
		{"exhausted", 5, true, 3, true},
		{"permanent", 5, false, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := Retry(ctx, 3, time.Millisecond, func() error {
				calls++
				if calls <= tt.failures {
					if tt.retryable {
						return Retryable(errTransient)
					}
					return errTransient
				}
				return nil
			})
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestRetryContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, 3, time.Hour, func() error {
		return Retryable(errTransient)
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestRetryable(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}
	err := Retryable(errTransient)
	if !IsRetryable(err) || !errors.Is(err, errTransient) {
		t.Errorf("Retryable() = %v", err)
	}
	if IsRetryable(errTransient) {
		t.Error("plain error reported retryable")
	}
}

func TestGet(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/flaky":
			if calls.Add(1) < 2 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			_, _ = w.Write([]byte("ok"))
		case "/missing":
			http.NotFound(w, r)
		default:
			_, _ = w.Write([]byte("hello"))
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	opts := Options{Delay: time.Millisecond}

	body, err := Get(ctx, srv.Client(), srv.URL+"/plain", opts)
	if err != nil || string(body) != "hello" {
		t.Errorf("Get(plain) = %q, %v", body, err)
	}

	body, err = Get(ctx, srv.Client(), srv.URL+"/flaky", opts)
	if err != nil || string(body) != "ok" {
		t.Errorf("Get(flaky) = %q, %v", body, err)
	}

	_, err = Get(ctx, srv.Client(), srv.URL+"/missing", opts)
	var serr *StatusError
	if !errors.As(err, &serr) || serr.StatusCode != http.StatusNotFound {
		t.Errorf("Get(missing) err = %v, want 404 StatusError", err)
	}
	if IsRetryable(err) {
		t.Error("404 should not be retryable")
	}
}

func TestBackoffWait(t *testing.T) {
	b := Backoff{Attempts: 5, Delay: 100 * time.Millisecond, MaxDelay: time.Second}
	tests := []struct {
		name    string
		attempt int
		err     error
		want    time.Duration
	}{
		{"first", 0, Retryable(errTransient), 100 * time.Millisecond},
		{"doubles", 2, Retryable(errTransient), 400 * time.Millisecond},
		{"capped", 6, Retryable(errTransient), time.Second},
		{"server hint", 0, RetryAfter(errTransient, 700*time.Millisecond), 700 * time.Millisecond},
		{"hint capped", 0, RetryAfter(errTransient, time.Hour), time.Second},
		{"overflow", 70, Retryable(errTransient), time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.wait(tt.attempt, tt.err); got != tt.want {
				t.Errorf("wait(%d) = %v, want %v", tt.attempt, got, tt.want)
			}
		})
	}
}

func TestRetryAfterHeader(t *testing.T) {
	tests := map[string]time.Duration{
		"":                              0,
		"3":                             3 * time.Second,
		" 1 ":                           time.Second,
		"-2":                            0,
		"Wed, 21 Oct 2026 07:28:00 GMT": 0,
	}
	for in, want := range tests {
		if got := retryAfter(in); got != want {
			t.Errorf("retryAfter(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestGetRateLimited(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	// MaxDelay keeps the requested second from slowing the test down.
	opts := Options{Delay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
	start := time.Now()
	body, err := Get(context.Background(), srv.Client(), srv.URL, opts)
	if err != nil || string(body) != "ok" {
		t.Fatalf("Get() = %q, %v", body, err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("MaxDelay not applied to Retry-After")
	}
}
