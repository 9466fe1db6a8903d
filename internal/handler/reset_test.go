package handler

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"github.com/alexedwards/scs/v2"

	"github.com/mrpdeals/mrpdeals-go/internal/auth"
	"github.com/mrpdeals/mrpdeals-go/internal/service"
	"github.com/mrpdeals/mrpdeals-go/internal/session"
)

type recordingSender struct {
	to   string
	body string
}

func (s *recordingSender) Send(to, subject, body string) error {
	s.to = to
	s.body = body
	return nil
}

var resetCodePattern = regexp.MustCompile(`\b(\d{6})\b`)

func sentResetCode(t *testing.T, sender *recordingSender) string {
	t.Helper()
	m := resetCodePattern.FindStringSubmatch(sender.body)
	if m == nil {
		t.Fatalf("no 6-digit code in mail body: %q", sender.body)
	}
	return m[1]
}

func newResetHandler(t *testing.T, db *sql.DB) (*ResetHandler, *scs.SessionManager, *recordingSender) {
	t.Helper()
	sm := testSessionManager(t)
	sender := &recordingSender{}
	h := NewResetHandler(testRenderer(t, sm), sm,
		service.NewResetService(db, sender, "MRP Deals", testLoggerDiscard()))
	return h, sm, sender
}

func TestResetHandler_FullWizard(t *testing.T) {
	db := testDB(t)
	h, sm, sender := newResetHandler(t, db)
	user := createUserWithPassword(t, db, "member@example.com", "old-password-123", "member")

	// Step 1: request a code.
	rec, req := postAuthForm(t, sm, h.SendCode, "/forgot", url.Values{
		"email": {"member@example.com"},
	})
	assertStatus(t, rec.Code, http.StatusSeeOther)
	if loc := rec.Header().Get("Location"); loc != "/forgot/code" {
		t.Errorf("Location = %q; want /forgot/code", loc)
	}
	if sender.to != user.Email {
		t.Errorf("code sent to %q; want %q", sender.to, user.Email)
	}
	ctx := req.Context()

	// Step 2: submit the code from the mail.
	code := sentResetCode(t, sender)
	req2 := httptest.NewRequest(http.MethodPost, "/forgot/code", strings.NewReader(url.Values{
		"code": {code},
	}.Encode()))
	req2.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req2 = req2.WithContext(ctx)
	rec2 := httptest.NewRecorder()
	h.VerifyCode(rec2, req2)
	assertStatus(t, rec2.Code, http.StatusSeeOther)
	if loc := rec2.Header().Get("Location"); loc != "/forgot/password" {
		t.Errorf("Location = %q; want /forgot/password", loc)
	}

	// Step 3: choose a new password.
	req3 := httptest.NewRequest(http.MethodPost, "/forgot/password", strings.NewReader(url.Values{
		"password": {"brand-new-password"},
	}.Encode()))
	req3.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req3 = req3.WithContext(ctx)
	rec3 := httptest.NewRecorder()
	h.SetPassword(rec3, req3)
	assertStatus(t, rec3.Code, http.StatusSeeOther)
	if loc := rec3.Header().Get("Location"); loc != redirectLogin {
		t.Errorf("Location = %q; want %q", loc, redirectLogin)
	}

	// The new password works, the old one doesn't.
	row := db.QueryRow(`SELECT password_hash FROM users WHERE id = ?`, user.ID)
	var hash string
	if err := row.Scan(&hash); err != nil {
		t.Fatalf("scanning password hash: %v", err)
	}
	if ok, _ := auth.CheckPassword("brand-new-password", hash); !ok {
		t.Error("new password does not verify")
	}
	if ok, _ := auth.CheckPassword("old-password-123", hash); ok {
		t.Error("old password still verifies")
	}

	// Wizard state is cleared after completion.
	if stage := sm.GetString(ctx, session.KeyResetStage); stage != "" {
		t.Errorf("reset stage still set after completion: %q", stage)
	}
}

func TestResetHandler_SendCode_UnknownEmail(t *testing.T) {
	db := testDB(t)
	h, sm, sender := newResetHandler(t, db)

	// Unknown emails get the same confirmation as known ones.
	rec, _ := postAuthForm(t, sm, h.SendCode, "/forgot", url.Values{
		"email": {"nobody@example.com"},
	})

	assertStatus(t, rec.Code, http.StatusSeeOther)
	if loc := rec.Header().Get("Location"); loc != "/forgot/code" {
		t.Errorf("Location = %q; want /forgot/code", loc)
	}
	if sender.to != "" {
		t.Errorf("mail sent for unknown email to %q", sender.to)
	}
}

func TestResetHandler_VerifyCode_Invalid(t *testing.T) {
	db := testDB(t)
	h, sm, _ := newResetHandler(t, db)
	createUserWithPassword(t, db, "member@example.com", "old-password-123", "member")

	_, req := postAuthForm(t, sm, h.SendCode, "/forgot", url.Values{
		"email": {"member@example.com"},
	})
	ctx := req.Context()

	req2 := httptest.NewRequest(http.MethodPost, "/forgot/code", strings.NewReader(url.Values{
		"code": {"000000"},
	}.Encode()))
	req2.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req2 = req2.WithContext(ctx)
	rec2 := httptest.NewRecorder()
	h.VerifyCode(rec2, req2)

	assertStatus(t, rec2.Code, http.StatusSeeOther)
	if loc := rec2.Header().Get("Location"); loc != "/forgot/code" {
		t.Errorf("Location = %q; want /forgot/code", loc)
	}
	if stage := sm.GetString(ctx, session.KeyResetStage); stage != session.ResetStageOTP {
		t.Errorf("stage advanced on invalid code: %q", stage)
	}
}

func TestResetHandler_StageGuards(t *testing.T) {
	db := testDB(t)
	h, sm, _ := newResetHandler(t, db)

	// Jumping into a later step with no wizard state bounces to the start.
	for name, handler := range map[string]http.HandlerFunc{
		"code form":     h.CodeForm,
		"password form": h.PasswordForm,
		"set password":  h.SetPassword,
	} {
		t.Run(name, func(t *testing.T) {
			req := requestWithSession(sm, httptest.NewRequest(http.MethodGet, "/forgot/code", nil))
			rec := httptest.NewRecorder()
			handler(rec, req)

			assertStatus(t, rec.Code, http.StatusSeeOther)
			if loc := rec.Header().Get("Location"); loc != redirectForgot {
				t.Errorf("Location = %q; want %q", loc, redirectForgot)
			}
		})
	}
}
