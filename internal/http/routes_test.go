package httpx

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/staff-portal/internal/domain/auth"
	"github.com/target/staff-portal/internal/domain/policy"
)

func TestRouter_SitePages(t *testing.T) {
	tr := newTestRouter(t, newFakeUsers(), newFakeAuth(adminSession(), userSession()))

	tests := []struct {
		path    string
		session string
		status  int
		want    string
	}{
		{"/", "", http.StatusOK, "Welcome"},
		{"/", "sess-user", http.StatusOK, "Welcome, Uma User"},
		{"/privacy", "", http.StatusOK, "Privacy"},
		{"/special", "sess-user", http.StatusOK, "2015-03-01"},
		{"/admin-claim", "sess-admin", http.StatusOK, "administrator claim"},
	}
	for _, tt := range tests {
		t.Run(tt.path+"/"+tt.session, func(t *testing.T) {
			rec := tr.get(tt.path, tt.session)
			require.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
			assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
		})
	}
}

func TestRouter_AdminNavOnlyForAdmins(t *testing.T) {
	tr := newTestRouter(t, newFakeUsers(), newFakeAuth(adminSession(), userSession()))

	assert.Contains(t, tr.get("/", "sess-admin").Body.String(), `href="/admin/users"`)
	assert.NotContains(t, tr.get("/", "sess-user").Body.String(), `href="/admin/users"`)
}

func TestRouter_ErrorPageShowsRequestID(t *testing.T) {
	tr := newTestRouter(t, newFakeUsers(), newFakeAuth())
	req := httptest.NewRequest(http.MethodGet, "/error", nil)
	req.Header.Set("Accept", "text/html")
	req.Header.Set(middleware.RequestIDHeader, "corr-123")

	rec := serve(tr, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "corr-123")
}

func TestRouter_NotFound(t *testing.T) {
	tr := newTestRouter(t, newFakeUsers(), newFakeAuth())

	rec := tr.get("/no/such/page", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "The page you&#39;re looking for doesn&#39;t exist.")

	req := httptest.NewRequest(http.MethodGet, "/no/such/page", nil)
	req.Header.Set("Accept", "application/json")
	rec = serve(tr, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
}

func TestRouter_MethodNotAllowedPassesThrough(t *testing.T) {
	tr := newTestRouter(t, newFakeUsers(), newFakeAuth())
	req := httptest.NewRequest(http.MethodDelete, "/privacy", nil)
	req.Header.Set("X-CSRF-Token", testCSRFToken)
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: testCSRFToken})

	rec := serve(tr, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRouter_Healthz(t *testing.T) {
	tr := newTestRouter(t, newFakeUsers(), newFakeAuth())
	rec := serve(tr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRouter_PartialRenderForHTMX(t *testing.T) {
	tr := newTestRouter(t, newFakeUsers(), newFakeAuth())
	req := httptest.NewRequest(http.MethodGet, "/privacy", nil)
	req.Header.Set("Hx-Request", "true")

	rec := serve(tr, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<title>Privacy - Staff Portal</title>")
	assert.NotContains(t, body, "<html")
	assert.Contains(t, rec.Header().Get("Hx-Trigger"), "nav:activate")
}

func TestRouter_PolicyGateJudgesRolelessSession(t *testing.T) {
	roleless := domainauth.Session{
		ID: "sess-roleless", UserID: "u-idp", FirstName: "Rita", LastName: "Roleless",
		Email: "rita@example.com", Role: domainauth.RoleGuest,
		Claims:    domainauth.Claims{policy.ClaimAdmin: "yes"},
		ExpiresAt: time.Now().Add(time.Hour),
	}
	tr := newTestRouter(t, newFakeUsers(), newFakeAuth(roleless))

	rec := tr.get("/admin-claim", "sess-roleless")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "administrator claim")

	rec = tr.get("/special", "sess-roleless")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "/auth/access-denied?"),
		"a failed policy goes to access denied, not back to login")

	rec = tr.get("/admin/users", "sess-roleless")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "/auth/access-denied?"))
}
