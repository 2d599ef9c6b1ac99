package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/staff-portal/internal/domain/auth"
	"github.com/target/staff-portal/internal/domain/policy"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
}

func TestRequirePolicyBrowser(t *testing.T) {
	auth := newFakeAuth(adminSession(), userSession())
	reg := testPolicies(t)

	tests := []struct {
		name     string
		policy   policy.Name
		session  string
		htmx     bool
		status   int
		location string
		hxTarget string
	}{
		{name: "tenure met", policy: policy.FiveYearsEmployee, session: "sess-user", status: http.StatusOK},
		{name: "tenure missing", policy: policy.FiveYearsEmployee, session: "sess-admin",
			status: http.StatusSeeOther, location: "/auth/access-denied?redirect_uri=%2Fgated"},
		{name: "claim present", policy: policy.AdminClaimPolicy, session: "sess-admin", status: http.StatusOK},
		{name: "claim absent", policy: policy.AdminClaimPolicy, session: "sess-user",
			status: http.StatusSeeOther, location: "/auth/access-denied?redirect_uri=%2Fgated"},
		{name: "anonymous", policy: policy.AdminClaimPolicy,
			status: http.StatusSeeOther, location: "/auth/login?redirect_uri=%2Fgated"},
		{name: "unknown session", policy: policy.AdminClaimPolicy, session: "gone",
			status: http.StatusSeeOther, location: "/auth/login?redirect_uri=%2Fgated"},
		{name: "unknown policy", policy: policy.Name("Nope"), session: "sess-admin",
			status: http.StatusSeeOther, location: "/auth/access-denied?redirect_uri=%2Fgated"},
		{name: "htmx denial", policy: policy.AdminClaimPolicy, session: "sess-user", htmx: true,
			status: http.StatusNoContent, hxTarget: "/auth/access-denied?redirect_uri=%2Fgated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/gated", nil)
			if tt.session != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: tt.session})
			}
			if tt.htmx {
				req.Header.Set("Hx-Request", "true")
			}
			rec := serve(RequirePolicyBrowser(auth, reg, tt.policy)(okHandler()), req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.location, rec.Header().Get("Location"))
			assert.Equal(t, tt.hxTarget, rec.Header().Get("Hx-Redirect"))
		})
	}
}

func TestRequirePolicyBrowser_NilRegistryDenies(t *testing.T) {
	auth := newFakeAuth(adminSession())
	req := httptest.NewRequest(http.MethodGet, "/admin-claim", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "sess-admin"})

	rec := serve(RequirePolicyBrowser(auth, nil, policy.AdminClaimPolicy)(okHandler()), req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestRequireRoleBrowser_APIClientsGetJSON(t *testing.T) {
	auth := newFakeAuth(userSession())
	gate := RequireRoleBrowser(auth, domainauth.RoleAdmin)(okHandler())

	anon := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	anon.Header.Set("Accept", "application/json")
	rec := serve(gate, anon)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "authentication_required")

	user := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	user.Header.Set("Accept", "application/json")
	user.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "sess-user"})
	rec = serve(gate, user)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "insufficient_permissions")
}

func TestRequireRoleBrowser_PassesSessionDownstream(t *testing.T) {
	auth := newFakeAuth(adminSession())
	var got *domainauth.Session
	gate := RequireRoleBrowser(auth, domainauth.RoleAdmin)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = GetSessionFromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "sess-admin"})

	serve(gate, req)

	require.NotNil(t, got)
	assert.Equal(t, "ada@example.com", got.Email)
}

func TestHasRequiredRole(t *testing.T) {
	assert.True(t, hasRequiredRole(domainauth.RoleAdmin, domainauth.RoleUser))
	assert.True(t, hasRequiredRole(domainauth.RoleUser, domainauth.RoleUser))
	assert.False(t, hasRequiredRole(domainauth.RoleUser, domainauth.RoleAdmin))
	assert.False(t, hasRequiredRole(domainauth.RoleGuest, domainauth.RoleUser))
	assert.False(t, hasRequiredRole(domainauth.Role("root"), domainauth.RoleUser))
}

func TestRedirectToLogin_HTMXUsesCurrentURL(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	req.Header.Set("Hx-Request", "true")
	req.Header.Set("Hx-Current-Url", "https://portal.example.com/admin/users/u-1/edit?x=1")

	rec := serve(RequireAuthBrowser(newFakeAuth())(okHandler()), req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	want := "/auth/login?redirect_uri=" + url.QueryEscape("/admin/users/u-1/edit?x=1")
	assert.Equal(t, want, rec.Header().Get("Hx-Redirect"))
}

func TestSafeRedirectPath(t *testing.T) {
	tests := map[string]string{
		"":                         "/",
		"/admin/users":             "/admin/users",
		"/special?x=1":             "/special?x=1",
		"https://evil.example.com": "/",
		"//evil.example.com/path":  "/",
		"relative/path":            "/",
		`/\evil.example.com`:       "/",
	}
	for in, want := range tests {
		assert.Equal(t, want, safeRedirectPath(in), "input %q", in)
	}
}

func TestIsBrowserRequest(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		accept string
		htmx   bool
		want   bool
	}{
		{"html", "/", "text/html,application/xhtml+xml", false, true},
		{"no accept", "/", "", false, true},
		{"json", "/", "application/json", false, false},
		{"htmx", "/", "*/*", true, true},
		{"health", "/healthz", "text/html", false, false},
		{"static", "/static/css/site.css", "text/html", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.accept != "" {
				req.Header.Set("Accept", tt.accept)
			}
			if tt.htmx {
				req.Header.Set("Hx-Request", "true")
			}
			assert.Equal(t, tt.want, IsBrowserRequest(req))
		})
	}
}

func TestRecover_RendersWithRequestID(t *testing.T) {
	var rendered error
	var renderedID string
	h := middleware.RequestID(Recover(slog.Default(), func(w http.ResponseWriter, r *http.Request, err error) {
		rendered = err
		renderedID = RequestID(r)
		w.WriteHeader(http.StatusInternalServerError)
	})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-42")

	rec := serve(h, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Error(t, rendered)
	assert.Contains(t, rendered.Error(), "boom")
	assert.Equal(t, "req-42", renderedID)
}

func TestRecover_NilRenderFallsBack(t *testing.T) {
	h := Recover(slog.Default(), nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(errors.New("boom"))
	}))

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCSRFProtection(t *testing.T) {
	h := CSRFProtection(CSRFConfig{})(okHandler())

	t.Run("get issues cookie", func(t *testing.T) {
		rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, csrfCookieName, cookies[0].Name)
		assert.False(t, cookies[0].HttpOnly)
		assert.Equal(t, http.SameSiteStrictMode, cookies[0].SameSite)
	})

	t.Run("post without cookie", func(t *testing.T) {
		rec := serve(h, newFormRequest(t, "/", url.Values{"csrf_token": {"x"}}))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("post with matching field", func(t *testing.T) {
		req := newFormRequest(t, "/", url.Values{"csrf_token": {"tok"}})
		req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "tok"})
		assert.Equal(t, http.StatusOK, serve(h, req).Code)
	})

	t.Run("post with matching header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("X-CSRF-Token", "tok")
		req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "tok"})
		assert.Equal(t, http.StatusOK, serve(h, req).Code)
	})

	t.Run("post with mismatched field", func(t *testing.T) {
		req := newFormRequest(t, "/", url.Values{"csrf_token": {"other"}})
		req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "tok"})
		assert.Equal(t, http.StatusForbidden, serve(h, req).Code)
	})

	t.Run("secure flag from config", func(t *testing.T) {
		rec := serve(CSRFProtection(CSRFConfig{Secure: true})(okHandler()), httptest.NewRequest(http.MethodGet, "/", nil))
		require.Len(t, rec.Result().Cookies(), 1)
		assert.True(t, rec.Result().Cookies()[0].Secure)
	})
}

func TestCSRFProtection_TokenInContext(t *testing.T) {
	var token string
	h := CSRFProtection(CSRFConfig{})(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		token = GetCSRFToken(r)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "existing"})

	rec := serve(h, req)

	assert.Equal(t, "existing", token)
	assert.Empty(t, rec.Result().Cookies())
}
