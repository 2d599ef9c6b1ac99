package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	domainauth "github.com/target/staff-portal/internal/domain/auth"
	"github.com/target/staff-portal/internal/domain/model"
	"github.com/target/staff-portal/internal/domain/policy"
	apperrors "github.com/target/staff-portal/internal/errors"
	"github.com/target/staff-portal/internal/service"
)

const testCSRFToken = "test-csrf-token"

// RequireTemplateRenderer parses the source-tree templates, skipping the test when they are absent.
func RequireTemplateRenderer(t *testing.T) *TemplateRenderer {
	t.Helper()
	if _, err := os.Stat(TemplatePathFromTest); os.IsNotExist(err) {
		t.Skip("templates not available")
	}
	tr, err := NewTemplateRenderer(TemplateRendererConfig{TemplateFS: os.DirFS(TemplatePathFromTest)})
	require.NoError(t, err)
	return tr
}

// fakeUsers is an in-memory UsersService.
type fakeUsers struct {
	mu       sync.Mutex
	users    map[string]model.UserWithRoles
	roles    []string
	nextID   int
	failWith error // returned by every call when set
	deleted  []string
}

func newFakeUsers(users ...model.UserWithRoles) *fakeUsers {
	f := &fakeUsers{users: map[string]model.UserWithRoles{}, roles: []string{"Admin", "User"}}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUsers) List(context.Context) ([]model.UserWithRoles, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := make([]model.UserWithRoles, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (f *fakeUsers) RoleNames(context.Context) ([]string, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.roles, nil
}

func (f *fakeUsers) Register(_ context.Context, req model.RegisterUserRequest) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return model.User{}, f.failWith
	}
	for _, u := range f.users {
		if strings.EqualFold(u.Email, req.Email) {
			return model.User{}, apperrors.ConflictField("email", "A user with this email already exists.")
		}
	}
	f.nextID++
	role := req.Role
	if role == "" {
		role = domainauth.RoleNameUser
	}
	u := model.User{
		ID:           "u-new-" + strconv.Itoa(f.nextID),
		Email:        req.Email,
		UserName:     req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		RegisteredAt: time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC),
	}
	f.users[u.ID] = model.UserWithRoles{User: u, Roles: []string{role}}
	return u, nil
}

func (f *fakeUsers) Get(_ context.Context, id string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return model.User{}, f.failWith
	}
	u, ok := f.users[id]
	if !ok {
		return model.User{}, apperrors.NotFound("user not found")
	}
	return u.User, nil
}

func (f *fakeUsers) Update(_ context.Context, id string, req model.UpdateUserRequest) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return model.User{}, f.failWith
	}
	u, ok := f.users[id]
	if !ok {
		return model.User{}, apperrors.NotFound("user not found")
	}
	u.User = req.Apply(u.User)
	f.users[id] = u
	return u.User, nil
}

func (f *fakeUsers) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.deleted = append(f.deleted, id)
	delete(f.users, id)
	return nil
}

// fakeAuth is an AuthServiceInterface backed by a session map.
type fakeAuth struct {
	mu         sync.Mutex
	sessions   map[string]domainauth.Session
	redirect   bool
	loginErr   error
	loggedOut  []string
	loginEmail string
}

func newFakeAuth(sessions ...domainauth.Session) *fakeAuth {
	f := &fakeAuth{sessions: map[string]domainauth.Session{}}
	for _, s := range sessions {
		f.sessions[s.ID] = s
	}
	return f
}

func (f *fakeAuth) SupportsRedirectLogin() bool { return f.redirect }

func (f *fakeAuth) BeginLogin(_ context.Context, redirectURL string) (*service.BeginLoginResult, error) {
	return &service.BeginLoginResult{
		AuthURL: "https://idp.example.com/authorize?redirect=" + url.QueryEscape(redirectURL),
		State:   "state-1",
		Nonce:   "nonce-1",
	}, nil
}

func (f *fakeAuth) CompleteLogin(_ context.Context, in service.CompleteLoginInput) (domainauth.Session, error) {
	if in.State != "state-1" || in.Nonce != "nonce-1" {
		return domainauth.Session{}, apperrors.Unauthorized("bad state")
	}
	s := domainauth.Session{ID: "sess-oidc", Email: "oidc@example.com", Role: domainauth.RoleUser,
		ExpiresAt: time.Now().Add(time.Hour)}
	f.mu.Lock()
	f.sessions[s.ID] = s
	f.mu.Unlock()
	return s, nil
}

func (f *fakeAuth) LocalLogin(_ context.Context, email, _ string) (domainauth.Session, error) {
	f.loginEmail = email
	if f.loginErr != nil {
		return domainauth.Session{}, f.loginErr
	}
	s := domainauth.Session{ID: "sess-local", Email: email, Role: domainauth.RoleUser,
		ExpiresAt: time.Now().Add(time.Hour)}
	f.mu.Lock()
	f.sessions[s.ID] = s
	f.mu.Unlock()
	return s, nil
}

func (f *fakeAuth) GetSession(_ context.Context, id string) (*domainauth.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, apperrors.NotFound("session not found")
	}
	return &s, nil
}

func (f *fakeAuth) Logout(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loggedOut = append(f.loggedOut, id)
	delete(f.sessions, id)
	return nil
}

func adminSession() domainauth.Session {
	return domainauth.Session{
		ID: "sess-admin", UserID: "u-admin", FirstName: "Ada", LastName: "Admin",
		Email: "ada@example.com", Role: domainauth.RoleAdmin, Roles: []string{"Admin"},
		Claims:    domainauth.Claims{policy.ClaimAdmin: "true"},
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func userSession() domainauth.Session {
	return domainauth.Session{
		ID: "sess-user", UserID: "u-user", FirstName: "Uma", LastName: "User",
		Email: "uma@example.com", Role: domainauth.RoleUser, Roles: []string{"User"},
		Claims:    domainauth.Claims{policy.ClaimEmploymentStartDate: "2015-03-01"},
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

// testPolicies evaluates tenure against a fixed date.
func testPolicies(t *testing.T) *policy.Registry {
	t.Helper()
	clock := policy.ClockFunc(func() time.Time { return time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC) })
	reg, err := policy.NewRegistry(clock, policy.DefaultDefinitions()...)
	require.NoError(t, err)
	return reg
}

type testRouter struct {
	http.Handler
	users *fakeUsers
	auth  *fakeAuth
}

func newTestRouter(t *testing.T, users *fakeUsers, auth *fakeAuth) testRouter {
	t.Helper()
	if _, err := os.Stat(TemplatePathFromTest); os.IsNotExist(err) {
		t.Skip("templates not available")
	}
	h, err := NewRouter(RouterServices{
		Users:      users,
		Auth:       auth,
		Policies:   testPolicies(t),
		TemplateFS: os.DirFS(TemplatePathFromTest),
	})
	require.NoError(t, err)
	return testRouter{Handler: h, users: users, auth: auth}
}

// get issues a browser GET, optionally with a session cookie.
func (tr testRouter) get(path, sessionID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Accept", "text/html")
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sessionID})
	}
	rec := httptest.NewRecorder()
	tr.ServeHTTP(rec, req)
	return rec
}

// post submits a form with a valid CSRF pair.
func (tr testRouter) post(path, sessionID string, form url.Values, headers ...string) *httptest.ResponseRecorder {
	if form == nil {
		form = url.Values{}
	}
	form.Set("csrf_token", testCSRFToken)
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/html")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: testCSRFToken})
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sessionID})
	}
	rec := httptest.NewRecorder()
	tr.ServeHTTP(rec, req)
	return rec
}

func newFormRequest(t *testing.T, path string, form url.Values) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/html")
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
