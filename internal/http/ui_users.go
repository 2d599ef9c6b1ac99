package httpx

import (
	"context"
	"net/http"

	apperrors "github.com/target/staff-portal/internal/errors"
	"github.com/target/staff-portal/internal/http/ui/viewmodel"
)

const usersPath = "/admin/users"

// UserList lists every account with its roles.
// GET /admin/users.
func (h *UIHandlers) UserList(w http.ResponseWriter, r *http.Request) {
	h.Page(w, r, PageSpec{
		Meta: pageMeta("Users", PageUsers),
		Fetch: func(ctx context.Context, data map[string]any) error {
			users, err := h.Users.List(ctx)
			if err != nil {
				return err
			}
			data["Users"] = viewmodel.UserRows(users)
			return nil
		},
	})
}

// UserDeleteConfirm asks before removing an account.
// GET /admin/users/{id}/delete.
func (h *UIHandlers) UserDeleteConfirm(w http.ResponseWriter, r *http.Request) {
	u, ok := h.lookupUser(w, r)
	if !ok {
		return
	}
	data := NewTemplateData(r, pageMeta("Delete user", PageUserDelete)).
		With("Target", viewmodel.UserFormFrom(u)).
		Build()
	h.renderPage(w, r, http.StatusOK, data)
}

// UserDelete removes the account when it still exists and returns to the list either way.
// POST /admin/users/{id}/delete.
func (h *UIHandlers) UserDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id != "" {
		if err := h.Users.Delete(r.Context(), id); err != nil && !apperrors.IsNotFound(err) {
			h.ServerError(w, r, err)
			return
		}
	}
	if IsHTMX(r) {
		triggerToast(w, "User deleted.", "success")
	}
	RedirectAfterPost(w, r, usersPath)
}
