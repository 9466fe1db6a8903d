package service

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/mrpdeals/mrpdeals-go/internal/auth"
	"github.com/mrpdeals/mrpdeals-go/internal/model"
	"github.com/mrpdeals/mrpdeals-go/internal/store"
)

type recordingSender struct {
	to   string
	body string
}

func (r *recordingSender) Send(to, subject, body string) error {
	r.to = to
	r.body = body
	return nil
}

var codePattern = regexp.MustCompile(`\b(\d{6})\b`)

func sentCode(t *testing.T, sender *recordingSender) string {
	t.Helper()
	m := codePattern.FindStringSubmatch(sender.body)
	if m == nil {
		t.Fatalf("no 6-digit code in mail body: %q", sender.body)
	}
	return m[1]
}

func TestReset_FullWizard(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()
	ctx := context.Background()
	sender := &recordingSender{}
	svc := NewResetService(db, sender, "MRP Deals", testLogger())
	user := createTestUser(t, db, "member@example.com", model.RoleMember)

	if err := svc.Start(ctx, "Member@Example.com "); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if sender.to != user.Email {
		t.Errorf("mail sent to %q, want %q", sender.to, user.Email)
	}
	code := sentCode(t, sender)

	if err := svc.Verify(ctx, user.Email, code); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	if err := svc.Complete(ctx, user.Email, code, "new-password-123"); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	got, err := store.New(db).GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	ok, err := auth.CheckPassword("new-password-123", got.PasswordHash)
	if err != nil || !ok {
		t.Errorf("new password not set (ok=%v, err=%v)", ok, err)
	}

	// The code is single use.
	err = svc.Complete(ctx, user.Email, code, "another-password-123")
	if !errors.Is(err, ErrInvalidCode) {
		t.Errorf("err = %v, want ErrInvalidCode on reuse", err)
	}
}

func TestReset_UnknownEmail(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()
	svc := NewResetService(db, &recordingSender{}, "MRP Deals", testLogger())

	err := svc.Start(context.Background(), "nobody@example.com")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestReset_WrongCode(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()
	ctx := context.Background()
	sender := &recordingSender{}
	svc := NewResetService(db, sender, "MRP Deals", testLogger())
	user := createTestUser(t, db, "member@example.com", model.RoleMember)

	if err := svc.Start(ctx, user.Email); err != nil {
		t.Fatalf("Start: %v", err)
	}

	err := svc.Verify(ctx, user.Email, "000000")
	if !errors.Is(err, ErrInvalidCode) {
		// A random code collides with 000000 once in a million runs.
		t.Errorf("err = %v, want ErrInvalidCode", err)
	}
}

func TestReset_ExpiredCode(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()
	ctx := context.Background()
	svc := NewResetService(db, &recordingSender{}, "MRP Deals", testLogger())
	user := createTestUser(t, db, "member@example.com", model.RoleMember)

	codeHash, err := auth.HashCode("123456")
	if err != nil {
		t.Fatalf("HashCode: %v", err)
	}
	_, err = store.New(db).CreatePasswordReset(ctx, store.CreatePasswordResetParams{
		UserID:    user.ID,
		CodeHash:  codeHash,
		ExpiresAt: time.Now().Add(-time.Minute),
	})
	if err != nil {
		t.Fatalf("CreatePasswordReset: %v", err)
	}

	err = svc.Verify(ctx, user.Email, "123456")
	if !errors.Is(err, ErrInvalidCode) {
		t.Errorf("err = %v, want ErrInvalidCode for expired code", err)
	}
}

func TestReset_NewCodeInvalidatesOld(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()
	ctx := context.Background()
	sender := &recordingSender{}
	svc := NewResetService(db, sender, "MRP Deals", testLogger())
	user := createTestUser(t, db, "member@example.com", model.RoleMember)

	if err := svc.Start(ctx, user.Email); err != nil {
		t.Fatalf("Start: %v", err)
	}
	oldCode := sentCode(t, sender)

	if err := svc.Start(ctx, user.Email); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	newCode := sentCode(t, sender)

	if oldCode != newCode {
		if err := svc.Verify(ctx, user.Email, oldCode); !errors.Is(err, ErrInvalidCode) {
			t.Errorf("err = %v, want ErrInvalidCode for superseded code", err)
		}
	}
	if err := svc.Verify(ctx, user.Email, newCode); err != nil {
		t.Errorf("Verify with latest code: %v", err)
	}
}

func TestReset_ShortPassword(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()
	ctx := context.Background()
	sender := &recordingSender{}
	svc := NewResetService(db, sender, "MRP Deals", testLogger())
	user := createTestUser(t, db, "member@example.com", model.RoleMember)

	if err := svc.Start(ctx, user.Email); err != nil {
		t.Fatalf("Start: %v", err)
	}
	code := sentCode(t, sender)

	err := svc.Complete(ctx, user.Email, code, "short")
	if _, ok := AsValidationError(err); !ok {
		t.Errorf("err = %v, want ValidationError", err)
	}
}

func TestGenerateResetCode(t *testing.T) {
	for i := 0; i < 20; i++ {
		code, err := generateResetCode()
		if err != nil {
			t.Fatalf("generateResetCode: %v", err)
		}
		if len(code) != resetCodeDigits {
			t.Fatalf("code %q has %d digits, want %d", code, len(code), resetCodeDigits)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("non-digit in code %q", code)
			}
		}
	}
}

func TestPurgeExpired(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()
	ctx := context.Background()
	svc := NewResetService(db, &recordingSender{}, "MRP Deals", testLogger())
	user := createTestUser(t, db, "member@example.com", model.RoleMember)

	codeHash, err := auth.HashCode("123456")
	if err != nil {
		t.Fatalf("HashCode: %v", err)
	}
	q := store.New(db)
	_, err = q.CreatePasswordReset(ctx, store.CreatePasswordResetParams{
		UserID:    user.ID,
		CodeHash:  codeHash,
		ExpiresAt: time.Now().Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("CreatePasswordReset: %v", err)
	}

	n, err := svc.PurgeExpired(ctx)
	if err != nil {
		t.Fatalf("PurgeExpired: %v", err)
	}
	if n != 1 {
		t.Errorf("purged %d rows, want 1", n)
	}
}
