package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// Timeout cancels the request context after d and answers 503 when the
// handler has not produced a response by then. Affiliate redirects and
// page renders should never take that long; this guards against stuck
// database calls.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			tracked := &trackedWriter{ResponseWriter: w}
			done := make(chan struct{})

			go func() {
				defer close(done)
				next.ServeHTTP(tracked, r.WithContext(ctx))
			}()

			select {
			case <-done:
			case <-ctx.Done():
				tracked.mu.Lock()
				defer tracked.mu.Unlock()
				if !tracked.wrote {
					tracked.wrote = true
					w.Header().Set("Content-Type", "text/plain; charset=utf-8")
					w.WriteHeader(http.StatusServiceUnavailable)
					_, _ = w.Write([]byte("Request timeout"))
				}
			}
		})
	}
}

// trackedWriter records whether a response has started so the timeout
// path never writes a second status line.
type trackedWriter struct {
	http.ResponseWriter
	mu    sync.Mutex
	wrote bool
}

func (t *trackedWriter) WriteHeader(code int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.wrote {
		return
	}
	t.wrote = true
	t.ResponseWriter.WriteHeader(code)
}

func (t *trackedWriter) Write(b []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.wrote {
		t.wrote = true
		t.ResponseWriter.WriteHeader(http.StatusOK)
	}
	return t.ResponseWriter.Write(b)
}
