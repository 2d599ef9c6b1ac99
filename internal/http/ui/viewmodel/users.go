package viewmodel

import (
	"github.com/target/staff-portal/internal/domain/model"
	"github.com/target/staff-portal/internal/http/uiutil"
)

// UserRow is one line of the user list.
type UserRow struct {
	ID           string
	Email        string
	FullName     string
	Initials     string
	RegisteredAt string
	Roles        []string
}

// UserRows maps users to list rows, keeping their order.
func UserRows(users []model.UserWithRoles) []UserRow {
	rows := make([]UserRow, 0, len(users))
	for _, u := range users {
		rows = append(rows, UserRow{
			ID:           u.ID,
			Email:        u.Email,
			FullName:     u.FullName(),
			Initials:     uiutil.Initials(u.FullName()),
			RegisteredAt: uiutil.FormatDate(u.RegisteredAt),
			Roles:        u.Roles,
		})
	}
	return rows
}

// UserForm holds the values shown in the register and edit forms. Password is never
// echoed back.
type UserForm struct {
	ID           string
	Email        string
	FirstName    string
	LastName     string
	Role         string
	RegisteredAt string
}

// UserFormFrom fills the edit form from a stored user.
func UserFormFrom(u model.User) UserForm {
	return UserForm{
		ID:           u.ID,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		RegisteredAt: uiutil.FormatDate(u.RegisteredAt),
	}
}
