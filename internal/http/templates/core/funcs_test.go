package core

import (
	"html/template"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldError(t *testing.T) {
	errs := map[string]string{"email": "Email is required."}
	assert.Equal(t, "Email is required.", fieldError(errs, "email"))
	assert.Empty(t, fieldError(errs, "first_name"))
	assert.Empty(t, fieldError(nil, "email"))
}

func TestSelected(t *testing.T) {
	assert.True(t, selected(" admin ", "Admin"))
	assert.False(t, selected("", "User"))
}

func TestTimeTag(t *testing.T) {
	fn := createTimeTagFunc()
	assert.Empty(t, fn(time.Time{}))
	assert.Empty(t, fn("not a time"))
	out := string(fn(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)))
	assert.Contains(t, out, `datetime="2024-01-02T03:04:05Z"`)
}

func TestRenderSection(t *testing.T) {
	var tmpl *template.Template
	funcs := Funcs(Deps{
		Template:           &tmpl,
		ContentTemplateFor: func(string) string { return "home-content" },
	})
	tmpl = template.Must(template.New("root").Funcs(funcs).Parse(
		`{{define "home-content"}}<p>{{.}}</p>{{end}}{{define "layout"}}{{renderSection "home" .}}{{end}}`))

	var sb strings.Builder
	require.NoError(t, tmpl.ExecuteTemplate(&sb, "layout", "<b>"))
	assert.Equal(t, "<p>&lt;b&gt;</p>", sb.String())
}
