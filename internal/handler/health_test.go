package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthHandler_Health(t *testing.T) {
	db := testDB(t)
	h := NewHealthHandler(db)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.Health(rec, req)

	assertStatus(t, rec.Code, http.StatusOK)

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %v; want ok", body["status"])
	}
	if body["database"] != "ok" {
		t.Errorf("database = %v; want ok", body["database"])
	}
}

func TestHealthHandler_Health_DatabaseDown(t *testing.T) {
	db := testDB(t)
	h := NewHealthHandler(db)
	_ = db.Close()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.Health(rec, req)

	assertStatus(t, rec.Code, http.StatusServiceUnavailable)
}

func TestHealthHandler_Liveness(t *testing.T) {
	h := NewHealthHandler(testDB(t))

	rec := httptest.NewRecorder()
	h.Liveness(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assertStatus(t, rec.Code, http.StatusOK)
}

func TestHealthHandler_Readiness(t *testing.T) {
	db := testDB(t)
	h := NewHealthHandler(db)

	rec := httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assertStatus(t, rec.Code, http.StatusOK)

	_ = db.Close()
	rec = httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assertStatus(t, rec.Code, http.StatusServiceUnavailable)
}
