// Package viewmodel defines the typed data shared by every rendered page.
package viewmodel

// User represents the signed-in principal exposed to templates.
type User struct {
	Email       string
	DisplayName string
	Role        string
	Roles       []string
}

// Layout captures shared chrome metadata (titles, navigation state, auth flags).
type Layout struct {
	Title           string
	PageTitle       string
	CurrentPage     string
	CSRFToken       string
	RequestID       string
	IsAuthenticated bool
	IsAdmin         bool
	User            *User
}
