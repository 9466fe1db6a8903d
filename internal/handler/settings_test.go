package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/mrpdeals/mrpdeals-go/internal/model"
	"github.com/mrpdeals/mrpdeals-go/internal/service"
	"github.com/mrpdeals/mrpdeals-go/internal/store"
)

func newSettingsHandler(t *testing.T, db *sql.DB) (*SettingsHandler, *service.AccessService) {
	t.Helper()
	access := service.NewAccessService(db, testLoggerDiscard())
	h := NewSettingsHandler(db, access, service.NewEventService(db, testLoggerDiscard()), testRenderer(t, nil))
	return h, access
}

func TestSettingsHandler_Save(t *testing.T) {
	db := testDB(t)
	h, _ := newSettingsHandler(t, db)

	form := url.Values{
		"site_name":     {"  MRP Deals  "},
		"site_tagline":  {"Curated savings"},
		"contact_email": {"hello@example.com"},
	}
	rec := postForm(t, h.Save, "/admin/settings", form, nil)
	assertStatus(t, rec.Code, http.StatusSeeOther)

	got, err := store.New(db).GetSettingValue(context.Background(), model.SettingSiteName)
	if err != nil {
		t.Fatalf("GetSettingValue: %v", err)
	}
	if got != "MRP Deals" {
		t.Errorf("site name = %q; want trimmed %q", got, "MRP Deals")
	}
}

func TestSettingsHandler_Save_AccessCode(t *testing.T) {
	db := testDB(t)
	h, access := newSettingsHandler(t, db)

	rec := postForm(t, h.Save, "/admin/settings", url.Values{
		"access_code": {"LAUNCH-2026"},
	}, nil)
	assertStatus(t, rec.Code, http.StatusSeeOther)

	configured, err := access.AccessCodeConfigured(context.Background())
	if err != nil {
		t.Fatalf("AccessCodeConfigured: %v", err)
	}
	if !configured {
		t.Error("access code not stored")
	}

	// A blank field on a later save leaves the stored code alone.
	rec = postForm(t, h.Save, "/admin/settings", url.Values{
		"site_name":   {"MRP Deals"},
		"access_code": {""},
	}, nil)
	assertStatus(t, rec.Code, http.StatusSeeOther)

	configured, err = access.AccessCodeConfigured(context.Background())
	if err != nil {
		t.Fatalf("AccessCodeConfigured: %v", err)
	}
	if !configured {
		t.Error("blank field wiped the stored access code")
	}
}

func TestSettingsHandler_Save_AbsentFieldsUntouched(t *testing.T) {
	db := testDB(t)
	h, _ := newSettingsHandler(t, db)

	err := store.New(db).UpsertSetting(context.Background(), store.UpsertSettingParams{
		Key:       model.SettingSiteTagline,
		Value:     "Original tagline",
		UpdatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("UpsertSetting: %v", err)
	}

	rec := postForm(t, h.Save, "/admin/settings", url.Values{
		"site_name": {"MRP Deals"},
	}, nil)
	assertStatus(t, rec.Code, http.StatusSeeOther)

	got, err := store.New(db).GetSettingValue(context.Background(), model.SettingSiteTagline)
	if err != nil {
		t.Fatalf("GetSettingValue: %v", err)
	}
	if got != "Original tagline" {
		t.Errorf("tagline = %q; a form without the field overwrote it", got)
	}
}

func TestSettingsHandler_Form(t *testing.T) {
	db := testDB(t)
	h, access := newSettingsHandler(t, db)

	req := httptest.NewRequest(http.MethodGet, "/admin/settings", nil)
	rec := httptest.NewRecorder()
	h.Form(rec, req)

	assertStatus(t, rec.Code, http.StatusOK)
	if !strings.Contains(rec.Body.String(), "configured=false") {
		t.Error("unconfigured access code not reported")
	}

	if err := access.SetAccessCode(context.Background(), "LAUNCH-2026"); err != nil {
		t.Fatalf("SetAccessCode: %v", err)
	}

	rec = httptest.NewRecorder()
	h.Form(rec, httptest.NewRequest(http.MethodGet, "/admin/settings", nil))

	body := rec.Body.String()
	if !strings.Contains(body, "configured=true") {
		t.Error("configured access code not reported")
	}
	// The code itself must never appear in the page.
	if strings.Contains(body, "LAUNCH-2026") {
		t.Error("access code leaked into settings page")
	}
}
