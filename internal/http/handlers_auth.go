package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	domainauth "github.com/target/staff-portal/internal/domain/auth"
	"github.com/target/staff-portal/internal/http/validation"
	"github.com/target/staff-portal/internal/service"
)

// AuthServiceInterface defines the interface for auth service operations.
type AuthServiceInterface interface {
	SessionReader
	SupportsRedirectLogin() bool
	BeginLogin(ctx context.Context, redirectURL string) (*service.BeginLoginResult, error)
	CompleteLogin(ctx context.Context, input service.CompleteLoginInput) (domainauth.Session, error)
	LocalLogin(ctx context.Context, email, password string) (domainauth.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

var _ AuthServiceInterface = (*service.AuthService)(nil)

const (
	oauthStateCookie    = "oauth_state"
	oauthNonceCookie    = "oauth_nonce"
	postLoginCookie     = "post_login_redirect"
	oauthCookieLifetime = 10 * time.Minute
)

// AuthHandlers serves sign-in, callback, sign-out and the access-denied page.
type AuthHandlers struct {
	Svc          AuthServiceInterface
	UI           *UIHandlers
	CookieDomain string
	Secure       bool
	Logger       *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Login starts a sign-in. With an identity provider configured it redirects there;
// otherwise it renders the local email and password form.
// GET /auth/login?redirect_uri=<optional_redirect>.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	redirectURI := safeRedirectPath(r.URL.Query().Get("redirect_uri"))

	if !h.Svc.SupportsRedirectLogin() {
		h.renderLogin(w, r, loginView{Status: http.StatusOK, RedirectURI: redirectURI})
		return
	}

	result, err := h.Svc.BeginLogin(r.Context(), redirectURI)
	if err != nil {
		h.UI.ServerError(w, r, err)
		return
	}
	h.setCookie(w, oauthStateCookie, result.State, oauthCookieLifetime)
	h.setCookie(w, oauthNonceCookie, result.Nonce, oauthCookieLifetime)
	h.setCookie(w, postLoginCookie, redirectURI, oauthCookieLifetime)
	http.Redirect(w, r, result.AuthURL, http.StatusFound)
}

type loginView struct {
	Status      int
	RedirectURI string
	Email       string
	Errors      map[string]string
	Message     string
}

func (h *AuthHandlers) renderLogin(w http.ResponseWriter, r *http.Request, v loginView) {
	b := NewTemplateData(r, pageMeta("Sign in", PageLogin)).
		With("RedirectURI", v.RedirectURI).
		With("Email", v.Email).
		WithFieldErrors(v.Errors)
	if v.Message != "" {
		b.WithError(v.Message)
	}
	h.UI.renderPage(w, r, v.Status, b.Build())
}

// LoginSubmit verifies local credentials and starts a session.
// POST /auth/login.
func (h *AuthHandlers) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	email := r.PostFormValue("email")
	password := r.PostFormValue("password")
	view := loginView{
		Status:      http.StatusUnprocessableEntity,
		RedirectURI: safeRedirectPath(r.PostFormValue("redirect_uri")),
		Email:       email,
	}

	fv := validation.New().
		Validate("email", email, validation.Required("Email", 0), validation.Email()).
		Validate("password", password, validation.Present("Password"))
	if errs := fv.Errors(); len(errs) > 0 {
		view.Errors = errs
		view.Message = errMsgFixBelow
		h.renderLogin(w, r, view)
		return
	}

	session, err := h.Svc.LocalLogin(r.Context(), email, password)
	var locked *service.LockedOutError
	switch {
	case err == nil:
	case errors.Is(err, service.ErrInvalidCredentials):
		view.Status = http.StatusUnauthorized
		view.Message = service.ErrInvalidCredentials.Message
		h.renderLogin(w, r, view)
		return
	case errors.As(err, &locked):
		view.Status = http.StatusTooManyRequests
		view.Message = locked.Error()
		h.renderLogin(w, r, view)
		return
	default:
		h.UI.ServerError(w, r, err)
		return
	}

	h.setSessionCookie(w, session)
	RedirectAfterPost(w, r, view.RedirectURI)
}

// Callback completes the identity provider flow.
// GET /auth/callback?code=<code>&state=<state>.
func (h *AuthHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	stateCookie, stateErr := r.Cookie(oauthStateCookie)
	nonceCookie, nonceErr := r.Cookie(oauthNonceCookie)
	if code == "" || state == "" || stateErr != nil || stateCookie.Value != state || nonceErr != nil {
		h.logger().WarnContext(r.Context(), "rejected oauth callback",
			"has_code", code != "",
			"state_match", stateErr == nil && stateCookie.Value == state,
			"request_id", RequestID(r))
		h.UI.renderErrorPage(w, r, errorPage{
			Status:  http.StatusBadRequest,
			Title:   "Sign-in failed",
			Message: "The sign-in response was invalid or expired. Please try again.",
		})
		return
	}

	session, err := h.Svc.CompleteLogin(r.Context(), service.CompleteLoginInput{
		Code:  code,
		State: state,
		Nonce: nonceCookie.Value,
	})
	if err != nil {
		h.UI.ServerError(w, r, err)
		return
	}

	h.setSessionCookie(w, session)
	h.clearCookie(w, oauthStateCookie)
	h.clearCookie(w, oauthNonceCookie)

	redirectURI := "/"
	if c, err := r.Cookie(postLoginCookie); err == nil {
		redirectURI = safeRedirectPath(c.Value)
		h.clearCookie(w, postLoginCookie)
	}
	http.Redirect(w, r, redirectURI, http.StatusFound)
}

// Logout ends the session and lands on the signed-out page.
// POST /auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		if err := h.Svc.Logout(r.Context(), c.Value); err != nil {
			h.logger().WarnContext(r.Context(), "logout failed", "error", err, "request_id", RequestID(r))
		}
	}
	h.clearCookie(w, SessionCookieName)

	q := url.Values{}
	q.Set("redirect_uri", safeRedirectPath(r.FormValue("redirect_uri")))
	RedirectAfterPost(w, r, "/auth/signed-out?"+q.Encode())
}

// SignedOut confirms sign-out and offers to sign in again.
// GET /auth/signed-out.
func (h *AuthHandlers) SignedOut(w http.ResponseWriter, r *http.Request) {
	data := NewTemplateData(r, pageMeta("Signed out", PageSignedOut)).
		With("RedirectURI", safeRedirectPath(r.URL.Query().Get("redirect_uri"))).
		Build()
	h.UI.renderPage(w, r, http.StatusOK, data)
}

// AccessDenied tells a signed-in principal they lack permission for the page they asked for.
// GET /auth/access-denied.
func (h *AuthHandlers) AccessDenied(w http.ResponseWriter, r *http.Request) {
	data := NewTemplateData(r, pageMeta("Access denied", PageAccessDenied)).
		With("RedirectURI", safeRedirectPath(r.URL.Query().Get("redirect_uri"))).
		Build()
	h.UI.renderPage(w, r, http.StatusForbidden, data)
}

func (h *AuthHandlers) setCookie(w http.ResponseWriter, name, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   h.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(ttl.Seconds()),
	})
}

func (h *AuthHandlers) setSessionCookie(w http.ResponseWriter, s domainauth.Session) {
	ttl := time.Until(s.ExpiresAt)
	if ttl < time.Second {
		ttl = time.Second
	}
	h.setCookie(w, SessionCookieName, s.ID, ttl)
}

// clearCookie mirrors the attributes used when setting so browsers match the deletion.
func (h *AuthHandlers) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   h.Secure,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}
