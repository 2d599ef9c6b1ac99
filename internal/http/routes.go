package httpx

import (
	"bytes"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	staffportal "github.com/target/staff-portal"
	domainauth "github.com/target/staff-portal/internal/domain/auth"
	"github.com/target/staff-portal/internal/domain/policy"
)

// RouterServices holds everything the HTTP router needs.
type RouterServices struct {
	Users    UsersService
	Auth     AuthServiceInterface
	Policies *policy.Registry
	// Health lists readiness probes run by /healthz.
	Health []HealthCheck

	CookieDomain string
	// SecureCookies marks session, OAuth and CSRF cookies Secure.
	SecureCookies bool
	// CompressionLevel enables response compression when positive.
	CompressionLevel int

	// TemplateFS overrides where templates are read from. Tests point it at the source tree.
	TemplateFS fs.FS
	IsDev      bool // Development mode flag for template hot reloading
	Logger     *slog.Logger
}

// NewRouter creates the portal's HTTP handler: routes, gates and the browser middleware chain.
func NewRouter(services RouterServices) (http.Handler, error) {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tr, err := NewTemplateRenderer(TemplateRendererConfig{
		TemplateFS: templateFS(services),
		DevMode:    services.IsDev,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	ui := &UIHandlers{
		T:        tr,
		Users:    services.Users,
		Policies: services.Policies,
		IsDev:    services.IsDev,
		Logger:   logger,
	}
	auth := &AuthHandlers{
		Svc:          services.Auth,
		UI:           ui,
		CookieDomain: services.CookieDomain,
		Secure:       services.SecureCookies,
		Logger:       logger,
	}

	mux := http.NewServeMux()
	health := healthHandler(services.Health, logger)
	mux.HandleFunc("GET /healthz", health)
	mux.HandleFunc("HEAD /healthz", health)
	mux.Handle("GET /static/", staticHandler(services.IsDev, logger))

	registerSiteRoutes(mux, ui, services)
	registerAuthRoutes(mux, auth)
	registerUserRoutes(mux, ui, services.Auth)

	var handler http.Handler = &notFoundHandler{mux: mux, ui: ui}
	handler = CSRFProtection(CSRFConfig{
		CookieDomain: services.CookieDomain,
		Secure:       services.SecureCookies,
		OnFailure: func(w http.ResponseWriter, r *http.Request) {
			ui.renderErrorPage(w, r, errorPage{
				Status:  http.StatusForbidden,
				Title:   "Request expired",
				Message: "Your form expired. Reload the page and try again.",
			})
		},
	})(handler)
	handler = LoadSession(services.Auth)(handler)
	handler = BrowserDetection()(handler)
	if services.CompressionLevel > 0 {
		handler = middleware.Compress(services.CompressionLevel)(handler)
	}
	handler = Recover(logger, ui.ServerError)(handler)
	handler = Logging(logger)(handler)
	handler = middleware.RealIP(handler)
	handler = middleware.RequestID(handler)
	return handler, nil
}

func registerSiteRoutes(mux *http.ServeMux, ui *UIHandlers, services RouterServices) {
	mux.HandleFunc("GET /{$}", ui.Home)
	mux.HandleFunc("GET /privacy", ui.Privacy)
	mux.HandleFunc("GET /error", ui.ErrorPage)
	mux.Handle("GET /special",
		RequirePolicyBrowser(services.Auth, services.Policies, policy.FiveYearsEmployee)(http.HandlerFunc(ui.Special)))
	mux.Handle("GET /admin-claim",
		RequirePolicyBrowser(services.Auth, services.Policies, policy.AdminClaimPolicy)(http.HandlerFunc(ui.AdminClaim)))
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers) {
	mux.HandleFunc("GET /auth/login", h.Login)
	mux.HandleFunc("POST /auth/login", h.LoginSubmit)
	mux.HandleFunc("GET /auth/callback", h.Callback)
	mux.HandleFunc("POST /auth/logout", h.Logout)
	mux.HandleFunc("GET /auth/signed-out", h.SignedOut)
	mux.Handle("GET /auth/access-denied", RequireAuthBrowser(h.Svc)(http.HandlerFunc(h.AccessDenied)))
}

func registerUserRoutes(mux *http.ServeMux, ui *UIHandlers, authSvc SessionReader) {
	admin := RequireRoleBrowser(authSvc, domainauth.RoleAdmin)
	routes := []struct {
		pattern string
		handler http.HandlerFunc
	}{
		{"GET /admin/users", ui.UserList},
		{"GET /admin/users/new", ui.UserNew},
		{"POST /admin/users", ui.UserCreate},
		{"GET /admin/users/{id}/edit", ui.UserEdit},
		{"POST /admin/users/{id}", ui.UserUpdate},
		{"GET /admin/users/{id}/delete", ui.UserDeleteConfirm},
		{"POST /admin/users/{id}/delete", ui.UserDelete},
	}
	for _, rt := range routes {
		mux.Handle(rt.pattern, admin(rt.handler))
	}
}

// templateFS picks the template source: an explicit override, the working tree in dev
// mode, or the embedded copy.
func templateFS(services RouterServices) fs.FS {
	if services.TemplateFS != nil {
		return services.TemplateFS
	}
	if services.IsDev {
		return os.DirFS(TemplatePathFromRoot)
	}
	sub, err := fs.Sub(staffportal.TemplateFS, TemplatePathFromRoot)
	if err != nil {
		return os.DirFS(TemplatePathFromRoot)
	}
	return sub
}

// staticHandler serves /static/* from disk in dev mode and from the embedded FS otherwise.
func staticHandler(isDev bool, logger *slog.Logger) http.Handler {
	var fsys http.FileSystem = http.Dir("frontend/static")
	cache := "no-cache"
	if !isDev {
		sub, err := fs.Sub(staffportal.StaticFS, "frontend/static")
		if err != nil {
			logger.Error("static sub-filesystem unavailable; serving from disk", "error", err)
		} else {
			fsys = http.FS(sub)
			cache = "public, max-age=3600"
		}
	}
	files := http.StripPrefix("/static/", http.FileServer(fsys))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", cache)
		files.ServeHTTP(w, r)
	})
}

// notFoundHandler renders the portal's 404 page for requests the mux does not route.
type notFoundHandler struct {
	mux *http.ServeMux
	ui  *UIHandlers
}

func (h *notFoundHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if _, pattern := h.mux.Handler(r); pattern == "" && !strings.HasPrefix(r.URL.Path, "/static/") {
		cw := &captureWriter{header: make(http.Header), status: http.StatusOK}
		h.mux.ServeHTTP(cw, r)
		if cw.status == http.StatusNotFound {
			h.ui.NotFound(w, r)
			return
		}
		cw.flushTo(w, h.ui.logger())
		return
	}
	h.mux.ServeHTTP(w, r)
}

// captureWriter buffers an unrouted response (404 or 405) so it can be replaced.
type captureWriter struct {
	header http.Header
	status int
	buf    bytes.Buffer
}

func (c *captureWriter) Header() http.Header         { return c.header }
func (c *captureWriter) WriteHeader(code int)        { c.status = code }
func (c *captureWriter) Write(b []byte) (int, error) { return c.buf.Write(b) }

func (c *captureWriter) flushTo(w http.ResponseWriter, logger *slog.Logger) {
	for k, vs := range c.header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(c.status)
	if _, err := w.Write(c.buf.Bytes()); err != nil {
		logger.Error("failed to write captured response", "error", err)
	}
}
