package httpx

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/staff-portal/internal/service"
)

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestLogin_LocalFormRenders(t *testing.T) {
	tr := newTestRouter(t, newFakeUsers(), newFakeAuth())

	rec := tr.get("/auth/login?redirect_uri=%2Fspecial", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `action="/auth/login"`)
	assert.Contains(t, body, `name="redirect_uri" value="/special"`)
	assert.Contains(t, body, `name="csrf_token"`)
}

func TestLogin_RedirectModeSetsFlowCookies(t *testing.T) {
	auth := newFakeAuth()
	auth.redirect = true
	tr := newTestRouter(t, newFakeUsers(), auth)

	rec := tr.get("/auth/login?redirect_uri=https%3A%2F%2Fevil.example.com", "")

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "https://idp.example.com/authorize")
	assert.Equal(t, "state-1", cookieNamed(rec, oauthStateCookie).Value)
	assert.Equal(t, "nonce-1", cookieNamed(rec, oauthNonceCookie).Value)
	assert.Equal(t, "/", cookieNamed(rec, postLoginCookie).Value)
	assert.True(t, cookieNamed(rec, oauthStateCookie).HttpOnly)
}

func TestLoginSubmit_Success(t *testing.T) {
	tr := newTestRouter(t, newFakeUsers(), newFakeAuth())
	form := url.Values{"email": {"uma@example.com"}, "password": {"Passw0rd!"}, "redirect_uri": {"/special"}}

	rec := tr.post("/auth/login", "", form)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/special", rec.Header().Get("Location"))
	c := cookieNamed(rec, SessionCookieName)
	require.NotNil(t, c)
	assert.Equal(t, "sess-local", c.Value)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Positive(t, c.MaxAge)
}

func TestLoginSubmit_Failures(t *testing.T) {
	tests := []struct {
		name    string
		form    url.Values
		err     error
		status  int
		message string
	}{
		{
			name:    "missing fields",
			form:    url.Values{"email": {""}, "password": {""}},
			status:  http.StatusUnprocessableEntity,
			message: "Email is required.",
		},
		{
			name:    "bad credentials",
			form:    url.Values{"email": {"uma@example.com"}, "password": {"wrong"}},
			err:     service.ErrInvalidCredentials,
			status:  http.StatusUnauthorized,
			message: "Invalid email or password.",
		},
		{
			name:    "locked out",
			form:    url.Values{"email": {"uma@example.com"}, "password": {"wrong"}},
			err:     &service.LockedOutError{RetryAfter: 90 * time.Second},
			status:  http.StatusTooManyRequests,
			message: "Try again in 2 minute(s).",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := newFakeAuth()
			auth.loginErr = tt.err
			tr := newTestRouter(t, newFakeUsers(), auth)

			rec := tr.post("/auth/login", "", tt.form)

			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.message)
			assert.Nil(t, cookieNamed(rec, SessionCookieName))
		})
	}
}

func TestCallback(t *testing.T) {
	auth := newFakeAuth()
	auth.redirect = true
	tr := newTestRouter(t, newFakeUsers(), auth)

	t.Run("state mismatch", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=c&state=forged", nil)
		req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "state-1"})
		req.AddCookie(&http.Cookie{Name: oauthNonceCookie, Value: "nonce-1"})
		rec := serve(tr, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Nil(t, cookieNamed(rec, SessionCookieName))
	})

	t.Run("success", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=c&state=state-1", nil)
		req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "state-1"})
		req.AddCookie(&http.Cookie{Name: oauthNonceCookie, Value: "nonce-1"})
		req.AddCookie(&http.Cookie{Name: postLoginCookie, Value: "/admin-claim"})
		rec := serve(tr, req)
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/admin-claim", rec.Header().Get("Location"))
		assert.Equal(t, "sess-oidc", cookieNamed(rec, SessionCookieName).Value)
		assert.Equal(t, -1, cookieNamed(rec, oauthStateCookie).MaxAge)
	})
}

func TestLogout(t *testing.T) {
	auth := newFakeAuth(userSession())
	tr := newTestRouter(t, newFakeUsers(), auth)

	rec := tr.post("/auth/logout", "sess-user", url.Values{"redirect_uri": {"/special"}})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth/signed-out?redirect_uri=%2Fspecial", rec.Header().Get("Location"))
	assert.Equal(t, []string{"sess-user"}, auth.loggedOut)
	assert.Equal(t, -1, cookieNamed(rec, SessionCookieName).MaxAge)
}

func TestSignedOutAndAccessDenied(t *testing.T) {
	tr := newTestRouter(t, newFakeUsers(), newFakeAuth(userSession()))

	rec := tr.get("/auth/signed-out?redirect_uri=%2Fspecial", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "You have been signed out.")

	rec = tr.get("/auth/access-denied?redirect_uri=%2Fadmin-claim", "sess-user")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "<code>/admin-claim</code>")
}
