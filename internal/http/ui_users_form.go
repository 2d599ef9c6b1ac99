package httpx

import (
	"context"
	"net/http"

	"github.com/target/staff-portal/internal/domain/auth"
	"github.com/target/staff-portal/internal/domain/model"
	apperrors "github.com/target/staff-portal/internal/errors"
	"github.com/target/staff-portal/internal/http/ui/viewmodel"
	"github.com/target/staff-portal/internal/http/validation"
)

const (
	maxEmailLen = 256
	maxNameLen  = 100
)

// UserNew shows the registration form with every assignable role.
// GET /admin/users/new.
func (h *UIHandlers) UserNew(w http.ResponseWriter, r *http.Request) {
	h.Page(w, r, PageSpec{
		Meta: pageMeta("Register user", PageUserForm),
		Fetch: func(ctx context.Context, data map[string]any) error {
			extra, err := h.roleOptions(ctx)
			if err != nil {
				return err
			}
			for k, v := range extra {
				data[k] = v
			}
			data["Mode"] = string(FormModeCreate)
			data["FormData"] = viewmodel.UserForm{Role: auth.RoleNameUser}
			return nil
		},
	})
}

// UserCreate registers an account.
// POST /admin/users.
func (h *UIHandlers) UserCreate(w http.ResponseWriter, r *http.Request) {
	HandleForm(FormHandlerOpts[model.RegisterUserRequest]{
		W:      w,
		R:      r,
		Mode:   FormModeCreate,
		Parser: parseRegisterForm,
		Submit: func(ctx context.Context, _ string, req model.RegisterUserRequest) error {
			_, err := h.Users.Register(ctx, req)
			return err
		},
		Renderer:   h.renderUserForm,
		SuccessURL: usersPath,
		PageMeta:   pageMeta("Register user", PageUserForm),
		ExtraData:  h.roleOptions,
		Logger:     h.logger(),
	})
}

// UserEdit shows the profile form filled with the stored values.
// GET /admin/users/{id}/edit.
func (h *UIHandlers) UserEdit(w http.ResponseWriter, r *http.Request) {
	u, ok := h.lookupUser(w, r)
	if !ok {
		return
	}
	data := NewTemplateData(r, pageMeta("Edit user", PageUserForm)).
		With("Mode", string(FormModeEdit)).
		With("UserID", u.ID).
		With("RegisteredAt", viewmodel.UserFormFrom(u).RegisteredAt).
		With("FormData", viewmodel.UserFormFrom(u)).
		Build()
	h.renderPage(w, r, http.StatusOK, data)
}

// UserUpdate overwrites the editable profile fields. Any identifier, password or
// registration date in the body is ignored.
// POST /admin/users/{id}.
func (h *UIHandlers) UserUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	HandleForm(FormHandlerOpts[model.UpdateUserRequest]{
		W:      w,
		R:      r,
		Mode:   FormModeEdit,
		Parser: parseUpdateForm,
		Submit: func(ctx context.Context, id string, req model.UpdateUserRequest) error {
			_, err := h.Users.Update(ctx, id, req)
			return err
		},
		Renderer:   h.renderUserForm,
		SuccessURL: usersPath,
		PageMeta:   pageMeta("Edit user", PageUserForm),
		ExtraData: func(ctx context.Context) (map[string]any, error) {
			u, err := h.Users.Get(ctx, id)
			if err != nil {
				return map[string]any{"UserID": id}, err
			}
			return map[string]any{
				"UserID":       u.ID,
				"RegisteredAt": viewmodel.UserFormFrom(u).RegisteredAt,
			}, nil
		},
		OnNotFound: h.NotFound,
		Logger:     h.logger(),
	})
}

func (h *UIHandlers) renderUserForm(w http.ResponseWriter, r *http.Request, status int, data map[string]any) {
	h.renderPage(w, r, status, data)
}

func (h *UIHandlers) roleOptions(ctx context.Context) (map[string]any, error) {
	roles, err := h.Users.RoleNames(ctx)
	if err != nil {
		return map[string]any{"Roles": []string{}}, err
	}
	return map[string]any{"Roles": roles}, nil
}

// lookupUser loads the {id} user, rendering 404 or 500 itself when it cannot.
func (h *UIHandlers) lookupUser(w http.ResponseWriter, r *http.Request) (model.User, bool) {
	id := r.PathValue("id")
	if id == "" {
		h.NotFound(w, r)
		return model.User{}, false
	}
	u, err := h.Users.Get(r.Context(), id)
	switch {
	case err == nil:
		return u, true
	case apperrors.IsNotFound(err):
		h.NotFound(w, r)
	default:
		h.ServerError(w, r, err)
	}
	return model.User{}, false
}

func parseRegisterForm(r *http.Request) (model.RegisterUserRequest, map[string]string) {
	req := model.RegisterUserRequest{
		Email:     r.PostFormValue("email"),
		FirstName: r.PostFormValue("first_name"),
		LastName:  r.PostFormValue("last_name"),
		Password:  r.PostFormValue("password"),
		Role:      r.PostFormValue("role"),
	}
	fv := validateProfile(validation.New(), req.Email, req.FirstName, req.LastName).
		Validate("password", req.Password, validation.Present("Password"))
	req.Normalize()
	return req, fv.Errors()
}

func parseUpdateForm(r *http.Request) (model.UpdateUserRequest, map[string]string) {
	req := model.UpdateUserRequest{
		Email:     r.PostFormValue("email"),
		FirstName: r.PostFormValue("first_name"),
		LastName:  r.PostFormValue("last_name"),
	}
	fv := validateProfile(validation.New(), req.Email, req.FirstName, req.LastName)
	req.Normalize()
	return req, fv.Errors()
}

func validateProfile(fv *validation.FieldValidator, email, first, last string) *validation.FieldValidator {
	return fv.
		Validate("email", email, validation.Required("Email", maxEmailLen), validation.Email()).
		Validate("first_name", first, validation.Required("First name", maxNameLen)).
		Validate("last_name", last, validation.Required("Last name", maxNameLen))
}
