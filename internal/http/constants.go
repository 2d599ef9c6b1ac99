package httpx

// CurrentPage constants define the page identifiers used in templates and navigation.
const (
	PageHome       = "home"
	PagePrivacy    = "privacy"
	PageSpecial    = "special"
	PageAdminClaim = "admin-claim"

	// Admin user management.
	PageUsers      = "users"
	PageUserForm   = "user-form" // register and edit
	PageUserDelete = "user-delete"

	// Auth pages.
	PageLogin        = "login"
	PageAccessDenied = "access-denied"
	PageSignedOut    = "signed-out"
)

// Template paths used for loading templates in tests and production.
const (
	TemplatePathFromRoot = "frontend/templates"       // From project root
	TemplatePathFromTest = "../../frontend/templates" // From internal/http test files
)

// FormMode represents the mode of a form (create or edit).
type FormMode string

const (
	FormModeEdit   FormMode = "edit"
	FormModeCreate FormMode = "create"
)

const errMsgFixBelow = "Please fix the errors below."

//nolint:gochecknoglobals // static read-only lookup
var contentTemplates = map[string]string{
	PageHome:         "home-content",
	PagePrivacy:      "privacy-content",
	PageSpecial:      "special-content",
	PageAdminClaim:   "admin-claim-content",
	PageUsers:        "users-content",
	PageUserForm:     "user-form-content",
	PageUserDelete:   "user-delete-content",
	PageLogin:        "login-content",
	PageAccessDenied: "access-denied-content",
	PageSignedOut:    "signed-out-content",
}

// ContentTemplateMap returns the mapping from CurrentPage to template name.
func ContentTemplateMap() map[string]string { return contentTemplates }

// ContentTemplateFor returns the content template for the given CurrentPage.
// Falls back to home-content for unknown pages.
func ContentTemplateFor(currentPage string) string {
	if name, ok := ContentTemplateMap()[currentPage]; ok {
		return name
	}
	return "home-content"
}
