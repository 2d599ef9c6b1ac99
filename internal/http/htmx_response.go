package httpx

import (
	"net/http"
)

// HTMXResponse provides a fluent API for building HTMX responses.
type HTMXResponse struct {
	w http.ResponseWriter
}

// HTMX creates a new HTMXResponse for fluent response building.
func HTMX(w http.ResponseWriter) *HTMXResponse {
	return &HTMXResponse{w: w}
}

// Redirect sets HX-Redirect and answers 204 No Content. The handler should return
// immediately afterwards.
func (h *HTMXResponse) Redirect(url string) {
	SetHXRedirect(h.w, url)
	h.w.WriteHeader(http.StatusNoContent)
}

// Trigger triggers a client-side event after swap with optional payload.
func (h *HTMXResponse) Trigger(event string, payload any) *HTMXResponse {
	SetHXTrigger(h.w, event, payload)
	return h
}

// RedirectAfterPost finishes a successful mutation: 204 with HX-Redirect for htmx
// requests, 303 See Other for plain form posts.
func RedirectAfterPost(w http.ResponseWriter, r *http.Request, url string) {
	if IsHTMX(r) {
		HTMX(w).Redirect(url)
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// triggerToast sends a showToast event for the client-side notification area.
func triggerToast(w http.ResponseWriter, message, toastType string) {
	if message == "" {
		return
	}
	HTMX(w).Trigger("showToast", map[string]any{"message": message, "type": toastType})
}
