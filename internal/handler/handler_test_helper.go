package handler

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"testing/fstest"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mrpdeals/mrpdeals-go/internal/middleware"
	"github.com/mrpdeals/mrpdeals-go/internal/model"
	"github.com/mrpdeals/mrpdeals-go/internal/render"
	"github.com/mrpdeals/mrpdeals-go/internal/store"
)

// testDB creates an in-memory SQLite database with the required schema for testing.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'member',
			name TEXT NOT NULL DEFAULT '',
			has_full_access INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_login_at DATETIME
		);
		CREATE INDEX idx_users_email ON users(email);

		CREATE TABLE deals (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			slug TEXT NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT 'Other',
			tags TEXT NOT NULL DEFAULT '[]',
			access_type TEXT NOT NULL DEFAULT 'Free',
			value_highlight TEXT NOT NULL DEFAULT '',
			affiliate_url TEXT NOT NULL DEFAULT '',
			logo_url TEXT,
			expiry_date DATETIME,
			is_featured INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'DRAFT',
			display_order INTEGER,
			click_count INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX idx_deals_status ON deals(status);

		CREATE TABLE settings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			key TEXT NOT NULL UNIQUE,
			value TEXT NOT NULL DEFAULT '',
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			level TEXT NOT NULL,
			category TEXT NOT NULL,
			message TEXT NOT NULL,
			user_id INTEGER REFERENCES users(id) ON DELETE SET NULL,
			metadata TEXT NOT NULL DEFAULT '{}',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE deal_clicks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			deal_id INTEGER NOT NULL REFERENCES deals(id) ON DELETE CASCADE,
			user_id INTEGER REFERENCES users(id) ON DELETE SET NULL,
			browser TEXT NOT NULL DEFAULT '',
			os TEXT NOT NULL DEFAULT '',
			device_type TEXT NOT NULL DEFAULT '',
			country TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE password_resets (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			code_hash TEXT NOT NULL,
			expires_at DATETIME NOT NULL,
			used_at DATETIME,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE sessions (
			token TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			expiry REAL NOT NULL
		);
	`

	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

// testSessionManager creates a session manager for testing.
func testSessionManager(t *testing.T) *scs.SessionManager {
	t.Helper()
	sm := scs.New()
	sm.Lifetime = 24 * time.Hour
	return sm
}

// testLoggerDiscard returns a logger that drops everything.
func testLoggerDiscard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testTemplates is a minimal template tree exercising the same layout
// composition the real templates use.
var testTemplates = fstest.MapFS{
	"layouts/base.html": {Data: []byte(
		`{{define "base"}}<!doctype html><title>{{.Title}}</title>` +
			`{{with .Flash}}<div class="flash">{{.}}</div>{{end}}` +
			`{{block "content" .}}{{end}}{{end}}`)},
	"layouts/admin.html":      {Data: []byte(`{{define "content"}}<main>{{block "admin-content" .}}{{end}}</main>{{end}}`)},
	"site/home.html":          {Data: []byte(`{{define "content"}}{{range .Data.Cards}}<article>{{.Deal.Title}}{{if .Locked}} [locked]{{end}}</article>{{end}}{{end}}`)},
	"site/deal.html":          {Data: []byte(`{{define "content"}}<h1>{{.Data.Card.Deal.Title}}</h1>{{.Data.Description}}{{end}}`)},
	"site/unlock.html":        {Data: []byte(`{{define "content"}}<form id="unlock"></form>{{end}}`)},
	"auth/login.html":         {Data: []byte(`{{define "content"}}<form id="login"></form>{{end}}`)},
	"auth/signup.html":        {Data: []byte(`{{define "content"}}<form id="signup"></form>{{end}}`)},
	"auth/forgot.html":        {Data: []byte(`{{define "content"}}<form id="forgot"></form>{{end}}`)},
	"auth/reset_code.html":    {Data: []byte(`{{define "content"}}<form id="code"></form>{{end}}`)},
	"auth/reset_password.html": {Data: []byte(`{{define "content"}}<form id="password"></form>{{end}}`)},
	"admin/dashboard.html":    {Data: []byte(`{{define "admin-content"}}published={{.Data.PublishedCount}} drafts={{.Data.DraftCount}} clicks={{.Data.TotalClicks}}{{end}}`)},
	"admin/deals_list.html":   {Data: []byte(`{{define "admin-content"}}{{range .Data.Deals}}<tr>{{.Title}}</tr>{{end}}{{end}}`)},
	"admin/deal_form.html":    {Data: []byte(`{{define "admin-content"}}{{range $f, $m := .Data.Errors}}<p class="err">{{$f}}: {{$m}}</p>{{end}}<input value="{{.Data.Deal.Title}}">{{end}}`)},
	"admin/users_list.html":   {Data: []byte(`{{define "admin-content"}}{{range .Data.Users}}<tr>{{.Email}}</tr>{{end}}{{end}}`)},
	"admin/user_form.html":    {Data: []byte(`{{define "admin-content"}}<input value="{{.Data.FormUser.Email}}">{{end}}`)},
	"admin/settings.html":     {Data: []byte(`{{define "admin-content"}}configured={{.Data.AccessCodeConfigured}}{{end}}`)},
	"admin/events.html":       {Data: []byte(`{{define "admin-content"}}{{range .Data.Events}}<tr>{{.Message}}</tr>{{end}}{{end}}`)},
}

// testRenderer creates a renderer over the minimal template tree.
func testRenderer(t *testing.T, sm *scs.SessionManager) *render.Renderer {
	t.Helper()

	r, err := render.New(render.Config{
		TemplatesFS:    testTemplates,
		SessionManager: sm,
		IsDev:          true,
	})
	if err != nil {
		t.Fatalf("failed to create test renderer: %v", err)
	}
	return r
}

// testUser describes a user to insert for a test.
type testUser struct {
	Email         string
	Name          string
	Role          string
	HasFullAccess bool
	PasswordHash  string
}

// createTestUser creates a test user in the database.
func createTestUser(t *testing.T, db *sql.DB, user testUser) model.User {
	t.Helper()

	if user.PasswordHash == "" {
		// Placeholder hash, not a real credential.
		user.PasswordHash = "$argon2id$v=19$m=19456,t=2,p=1$c29tZXNhbHQ$RdescudvJCsgt3ub+b+dWRWJTmaaJObG"
	}
	if user.Role == "" {
		user.Role = model.RoleMember
	}

	now := time.Now()
	created, err := store.New(db).CreateUser(context.Background(), store.CreateUserParams{
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Role:         user.Role,
		Name:         user.Name,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	if user.HasFullAccess {
		err := store.New(db).SetUserFullAccess(context.Background(), store.SetUserFullAccessParams{
			ID:            created.ID,
			HasFullAccess: true,
			UpdatedAt:     now,
		})
		if err != nil {
			t.Fatalf("failed to grant full access: %v", err)
		}
		created.HasFullAccess = true
	}
	return created
}

// createTestDeal inserts a published deal and returns it.
func createTestDeal(t *testing.T, db *sql.DB, title, slug, accessType string) model.Deal {
	t.Helper()

	now := time.Now()
	deal, err := store.New(db).CreateDeal(context.Background(), store.CreateDealParams{
		Title:        title,
		Slug:         slug,
		Category:     model.CategoryCloud,
		Tags:         "[]",
		AccessType:   accessType,
		AffiliateURL: "https://partner.example.com/" + slug,
		Status:       model.DealStatusPublished,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("failed to create test deal: %v", err)
	}
	return deal
}

// requestWithURLParams adds chi URL parameters to a request.
func requestWithURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// requestWithSession wraps a request with session context.
func requestWithSession(sm *scs.SessionManager, r *http.Request) *http.Request {
	ctx, err := sm.Load(r.Context(), "")
	if err != nil {
		return r
	}
	return r.WithContext(ctx)
}

// requestWithUser puts a user into the request context the way the
// user-loading middleware does.
func requestWithUser(r *http.Request, user model.User) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.ContextKeyUser, user)
	return r.WithContext(ctx)
}

// assertStatus checks if the response status code matches the expected value.
func assertStatus(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status = %d; want %d", got, want)
	}
}
