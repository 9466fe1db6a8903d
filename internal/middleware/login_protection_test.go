package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestProtection(maxAttempts int, lockout, window time.Duration) *LoginProtection {
	return NewLoginProtection(LoginProtectionConfig{
		IPRateLimit:       100, // keep IP limiting out of the way
		IPBurst:           100,
		MaxFailedAttempts: maxAttempts,
		LockoutDuration:   lockout,
		AttemptWindow:     window,
	})
}

func TestLoginProtection_Defaults(t *testing.T) {
	cfg := DefaultLoginProtectionConfig()
	if cfg.IPRateLimit != 0.5 || cfg.IPBurst != 5 {
		t.Errorf("IP limiting defaults = %v/%d, want 0.5/5", cfg.IPRateLimit, cfg.IPBurst)
	}
	if cfg.MaxFailedAttempts != 5 {
		t.Errorf("MaxFailedAttempts = %d, want 5", cfg.MaxFailedAttempts)
	}
	if cfg.LockoutDuration != 15*time.Minute || cfg.AttemptWindow != 15*time.Minute {
		t.Errorf("durations = %v/%v, want 15m each", cfg.LockoutDuration, cfg.AttemptWindow)
	}

	// Zero config falls back to the same defaults.
	lp := NewLoginProtection(LoginProtectionConfig{})
	if lp.maxFailedAttempts != 5 || lp.lockoutDuration != 15*time.Minute {
		t.Errorf("zero config = %d/%v, want defaults", lp.maxFailedAttempts, lp.lockoutDuration)
	}
}

func TestLoginProtection_LockAfterMaxFailures(t *testing.T) {
	lp := newTestProtection(3, 200*time.Millisecond, time.Minute)
	const email = "member@example.com"

	if locked, _ := lp.IsAccountLocked(email); locked {
		t.Fatal("fresh account reported locked")
	}

	if locked, _ := lp.RecordFailedAttempt(email); locked {
		t.Error("first failure locked the account")
	}
	if locked, _ := lp.RecordFailedAttempt(email); locked {
		t.Error("second failure locked the account")
	}
	locked, d := lp.RecordFailedAttempt(email)
	if !locked {
		t.Fatal("third failure did not lock the account")
	}
	if d <= 0 {
		t.Errorf("lock duration = %v, want > 0", d)
	}

	locked, remaining := lp.IsAccountLocked(email)
	if !locked || remaining <= 0 {
		t.Errorf("IsAccountLocked = %v/%v after lockout", locked, remaining)
	}

	time.Sleep(250 * time.Millisecond)
	if locked, _ := lp.IsAccountLocked(email); locked {
		t.Error("account still locked after lockout expired")
	}
}

func TestLoginProtection_SuccessClearsFailures(t *testing.T) {
	lp := newTestProtection(3, time.Minute, time.Minute)
	const email = "member@example.com"

	lp.RecordFailedAttempt(email)
	lp.RecordFailedAttempt(email)
	if got := lp.GetRemainingAttempts(email); got != 1 {
		t.Errorf("remaining = %d, want 1", got)
	}

	lp.RecordSuccessfulLogin(email)
	if got := lp.GetRemainingAttempts(email); got != 3 {
		t.Errorf("remaining after success = %d, want 3", got)
	}
}

func TestLoginProtection_RepeatLockoutsBackOff(t *testing.T) {
	lp := newTestProtection(2, 50*time.Millisecond, time.Minute)
	const email = "member@example.com"

	lp.RecordFailedAttempt(email)
	_, first := lp.RecordFailedAttempt(email)

	time.Sleep(first + 10*time.Millisecond)

	lp.RecordFailedAttempt(email)
	_, second := lp.RecordFailedAttempt(email)

	if second <= first {
		t.Errorf("second lockout %v not longer than first %v", second, first)
	}
}

func TestLoginProtection_WindowExpiryResetsCount(t *testing.T) {
	lp := newTestProtection(5, time.Minute, 60*time.Millisecond)
	const email = "member@example.com"

	lp.RecordFailedAttempt(email)
	if got := lp.GetRemainingAttempts(email); got != 4 {
		t.Errorf("remaining = %d, want 4", got)
	}

	time.Sleep(100 * time.Millisecond)
	if got := lp.GetRemainingAttempts(email); got != 5 {
		t.Errorf("remaining after window = %d, want 5", got)
	}
}

func TestLoginProtection_Middleware(t *testing.T) {
	lp := newTestProtection(5, time.Minute, time.Minute)
	wrapped := lp.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// GET is never rate limited; the form has to render.
	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/login", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("GET status = %d, want %d", rr.Code, http.StatusOK)
	}

	rr = httptest.NewRecorder()
	wrapped.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/login", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("POST status = %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestLoginProtection_MiddlewareThrottlesRepeatedPOSTs(t *testing.T) {
	lp := NewLoginProtection(LoginProtectionConfig{
		IPRateLimit:       0.5,
		IPBurst:           2,
		MaxFailedAttempts: 5,
		LockoutDuration:   time.Minute,
		AttemptWindow:     time.Minute,
	})
	wrapped := lp.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	post := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/access/unlock", nil)
		req.RemoteAddr = "203.0.113.9:51000"
		rr := httptest.NewRecorder()
		wrapped.ServeHTTP(rr, req)
		return rr.Code
	}

	for i := 0; i < 2; i++ {
		if got := post(); got != http.StatusOK {
			t.Fatalf("POST %d status = %d, want %d", i+1, got, http.StatusOK)
		}
	}
	if got := post(); got != http.StatusTooManyRequests {
		t.Errorf("POST beyond burst status = %d, want %d", got, http.StatusTooManyRequests)
	}
}

func TestLoginProtection_IPRateLimitBurst(t *testing.T) {
	lp := NewLoginProtection(LoginProtectionConfig{
		IPRateLimit:       1,
		IPBurst:           3,
		MaxFailedAttempts: 5,
		LockoutDuration:   time.Minute,
		AttemptWindow:     time.Minute,
	})

	const ip = "203.0.113.9"
	for i := 0; i < 3; i++ {
		if !lp.CheckIPRateLimit(ip) {
			t.Fatalf("request %d within burst was limited", i+1)
		}
	}
	if lp.CheckIPRateLimit(ip) {
		t.Error("request beyond burst was allowed")
	}
}
