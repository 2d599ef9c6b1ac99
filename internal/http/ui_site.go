package httpx

import (
	"context"
	"net/http"

	"github.com/target/staff-portal/internal/domain/policy"
)

// Home renders the landing page.
func (h *UIHandlers) Home(w http.ResponseWriter, r *http.Request) {
	h.Page(w, r, PageSpec{Meta: pageMeta("Home", PageHome)})
}

// Privacy renders the privacy notice.
func (h *UIHandlers) Privacy(w http.ResponseWriter, r *http.Request) {
	h.Page(w, r, PageSpec{Meta: pageMeta("Privacy", PagePrivacy)})
}

// Special is reachable only by principals meeting the tenure policy.
func (h *UIHandlers) Special(w http.ResponseWriter, r *http.Request) {
	h.Page(w, r, PageSpec{
		Meta: pageMeta("Special", PageSpecial),
		Fetch: func(ctx context.Context, data map[string]any) error {
			if s := GetSessionFromContext(ctx); s != nil {
				if v, ok := s.Claims.Lookup(policy.ClaimEmploymentStartDate); ok {
					data["EmploymentStartDate"] = v
				}
			}
			return nil
		},
	})
}

// AdminClaim is reachable only by principals carrying the admin claim.
func (h *UIHandlers) AdminClaim(w http.ResponseWriter, r *http.Request) {
	h.Page(w, r, PageSpec{Meta: pageMeta("Admin claim", PageAdminClaim)})
}

// ErrorPage renders the generic error page with the request id for support correlation.
func (h *UIHandlers) ErrorPage(w http.ResponseWriter, r *http.Request) {
	h.renderErrorPage(w, r, errorPage{
		Status:  http.StatusOK,
		Title:   "Error",
		Message: "An error occurred while processing your request.",
	})
}
