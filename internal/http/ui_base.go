package httpx

import (
	"context"
	"errors"
	"html"
	"log/slog"
	"net/http"

	domainauth "github.com/target/staff-portal/internal/domain/auth"
	"github.com/target/staff-portal/internal/domain/model"
	"github.com/target/staff-portal/internal/domain/policy"
	apperrors "github.com/target/staff-portal/internal/errors"
	"github.com/target/staff-portal/internal/http/ui/viewmodel"
	"github.com/target/staff-portal/internal/service"
)

const siteName = "Staff Portal"

// UsersService is the slice of the user service the admin pages need.
type UsersService interface {
	List(ctx context.Context) ([]model.UserWithRoles, error)
	RoleNames(ctx context.Context) ([]string, error)
	Register(ctx context.Context, req model.RegisterUserRequest) (model.User, error)
	Get(ctx context.Context, id string) (model.User, error)
	Update(ctx context.Context, id string, req model.UpdateUserRequest) (model.User, error)
	Delete(ctx context.Context, id string) error
}

var _ UsersService = (*service.UserService)(nil)

// UIHandlers serves browser-facing routes.
type UIHandlers struct {
	T        *TemplateRenderer
	Users    UsersService
	Policies *policy.Registry
	IsDev    bool // Development mode flag for enhanced error reporting
	Logger   *slog.Logger
}

// logger returns the configured logger or falls back to slog.Default().
func (h *UIHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// PageMeta contains metadata for page rendering.
type PageMeta struct {
	Title       string
	PageTitle   string
	CurrentPage string
}

func pageMeta(pageTitle, currentPage string) PageMeta {
	return PageMeta{Title: pageTitle + " - " + siteName, PageTitle: pageTitle, CurrentPage: currentPage}
}

// buildLayout constructs shared layout metadata from the request/session context.
func buildLayout(r *http.Request, meta PageMeta) viewmodel.Layout {
	layout := viewmodel.Layout{
		Title:       meta.Title,
		PageTitle:   meta.PageTitle,
		CurrentPage: meta.CurrentPage,
		CSRFToken:   GetCSRFToken(r),
		RequestID:   RequestID(r),
	}

	if session := GetSessionFromContext(r.Context()); session != nil && !session.IsGuest() {
		layout.User = &viewmodel.User{
			Email:       session.Email,
			DisplayName: session.DisplayName(),
			Role:        string(session.Role),
			Roles:       session.Roles,
		}
		layout.IsAuthenticated = true
		layout.IsAdmin = session.Role == domainauth.RoleAdmin
	}

	return layout
}

// basePageData constructs the common page data map with user context.
func basePageData(r *http.Request, meta PageMeta) map[string]any {
	layout := buildLayout(r, meta)
	data := map[string]any{
		"Title":           layout.Title,
		"PageTitle":       layout.PageTitle,
		"CurrentPage":     layout.CurrentPage,
		"IsAuthenticated": layout.IsAuthenticated,
		"IsAdmin":         layout.IsAdmin,
		"CSRFToken":       layout.CSRFToken,
		"RequestID":       layout.RequestID,
	}
	if layout.User != nil {
		data["User"] = layout.User
	}
	return data
}

// PageSpec defines metadata and an optional fetch for page-specific data.
type PageSpec struct {
	Meta  PageMeta
	Fetch func(ctx context.Context, data map[string]any) error
}

// Page builds base data, optionally fetches content data, and renders. A failing fetch
// renders the error page.
func (h *UIHandlers) Page(w http.ResponseWriter, r *http.Request, spec PageSpec) {
	data := NewTemplateData(r, spec.Meta).Build()
	if spec.Fetch != nil {
		if err := spec.Fetch(r.Context(), data); err != nil {
			h.ServerError(w, r, err)
			return
		}
	}
	h.renderPage(w, r, http.StatusOK, data)
}

// wantsPartial is true for targeted htmx swaps. Boosted navigation gets the full layout.
func wantsPartial(r *http.Request) bool {
	return IsHTMX(r) && !IsBoosted(r)
}

// renderPage renders a page with the layout, or only its content for targeted htmx requests.
func (h *UIHandlers) renderPage(w http.ResponseWriter, r *http.Request, status int, data map[string]any) {
	if !wantsPartial(r) {
		if err := h.T.RenderFull(w, status, data); err != nil {
			h.logAndRenderTemplateError(w, r, err)
		}
		return
	}

	page, _ := data["CurrentPage"].(string)
	title, _ := data["Title"].(string)
	SetHXTrigger(w, "nav:activate", map[string]string{"path": r.URL.Path})
	// htmx picks up <title> from partial swaps
	pw := &prefixWriter{ResponseWriter: w, prefix: []byte(`<title>` + html.EscapeString(title) + `</title>`)}
	if err := h.T.RenderContent(pw, status, page, data); err != nil {
		h.logAndRenderTemplateError(w, r, err)
	}
}

// prefixWriter emits prefix ahead of the first body write.
type prefixWriter struct {
	http.ResponseWriter
	prefix []byte
}

func (p *prefixWriter) Write(b []byte) (int, error) {
	if len(p.prefix) > 0 {
		prefix := p.prefix
		p.prefix = nil
		if _, err := p.ResponseWriter.Write(prefix); err != nil {
			return 0, err
		}
	}
	return p.ResponseWriter.Write(b)
}

// NotFound renders the 404 page for browsers and a JSON error for other clients.
func (h *UIHandlers) NotFound(w http.ResponseWriter, r *http.Request) {
	if !IsBrowserRequest(r) {
		WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found", Err: errors.New("not found")})
		return
	}
	h.renderErrorPage(w, r, errorPage{
		Status:  http.StatusNotFound,
		Title:   "Page Not Found",
		Message: "The page you're looking for doesn't exist.",
	})
}

// ServerError logs err with the request id and renders the generic error page, which shows
// only the correlation id.
func (h *UIHandlers) ServerError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger().ErrorContext(r.Context(), "request failed",
		"error", err,
		"error_type", apperrors.Classify(err),
		"request_id", RequestID(r),
		"method", r.Method,
		"path", r.URL.Path,
	)
	if errors.Is(err, context.Canceled) {
		// client went away
		return
	}
	h.renderErrorPage(w, r, errorPage{
		Status:  http.StatusInternalServerError,
		Title:   "Error",
		Message: "An error occurred while processing your request.",
	})
}

type errorPage struct {
	Status  int
	Title   string
	Message string
}

func (h *UIHandlers) renderErrorPage(w http.ResponseWriter, r *http.Request, p errorPage) {
	session := GetSessionFromContext(r.Context())
	data := map[string]any{
		"Title":           p.Title + " - " + siteName,
		"PageTitle":       p.Title,
		"Code":            p.Status,
		"Message":         p.Message,
		"RequestID":       RequestID(r),
		"IsAuthenticated": session != nil,
		"ShowLogin":       session == nil,
		"RedirectURI":     safeRedirectPath(r.URL.RequestURI()),
	}
	if h.T == nil {
		http.Error(w, p.Message, p.Status)
		return
	}
	if err := h.T.RenderError(w, p.Status, data); err != nil {
		http.Error(w, p.Message, p.Status)
	}
}

// logAndRenderTemplateError logs template errors and renders them in dev mode.
func (h *UIHandlers) logAndRenderTemplateError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger().ErrorContext(r.Context(), "template rendering failed",
		"error", err,
		"request_id", RequestID(r),
		"path", r.URL.Path,
	)

	if h.IsDev {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		if _, writeErr := w.Write([]byte(`<pre class="template-error">` + html.EscapeString(err.Error()) + `</pre>`)); writeErr != nil {
			h.logger().Error("failed to write template error response", "error", writeErr)
		}
		return
	}
	http.Error(w, "internal server error", http.StatusInternalServerError)
}
