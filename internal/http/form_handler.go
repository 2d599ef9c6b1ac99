package httpx

import (
	"context"
	"log/slog"
	"net/http"

	apperrors "github.com/target/staff-portal/internal/errors"
)

// FormParser parses form data from an HTTP request and returns the parsed data
// along with any field-level validation errors.
type FormParser[T any] func(r *http.Request) (T, map[string]string)

// FormSubmitter applies the parsed form. id is empty in create mode.
type FormSubmitter[T any] func(ctx context.Context, id string, req T) error

// FormRenderer renders the form page with the given status and data.
type FormRenderer func(w http.ResponseWriter, r *http.Request, status int, data map[string]any)

// FormHandlerOpts contains all options needed to handle a form submission.
type FormHandlerOpts[T any] struct {
	W        http.ResponseWriter
	R        *http.Request
	Mode     FormMode
	Parser   FormParser[T]
	Submit   FormSubmitter[T]
	Renderer FormRenderer
	// SuccessURL is where a successful submission redirects.
	SuccessURL string
	PageMeta   PageMeta
	// ExtraData reloads page data the form needs on re-render, such as dropdown options.
	ExtraData func(ctx context.Context) (map[string]any, error)
	// OnNotFound handles a submit that reports the record as absent (optional; plain 404 otherwise).
	OnNotFound http.HandlerFunc
	Logger     *slog.Logger
}

// HandleForm runs the parse, submit, redirect-after-post cycle shared by create and edit forms.
// Failures re-render the form with the submitted values.
func HandleForm[T any](opts FormHandlerOpts[T]) {
	if opts.Parser == nil || opts.Submit == nil || opts.Renderer == nil {
		http.Error(opts.W, "misconfigured form handler", http.StatusInternalServerError)
		return
	}

	id := ""
	switch opts.Mode {
	case FormModeCreate:
	case FormModeEdit:
		id = opts.R.PathValue("id")
		if id == "" {
			opts.notFound()
			return
		}
	default:
		http.Error(opts.W, "invalid form mode", http.StatusBadRequest)
		return
	}

	if err := opts.R.ParseForm(); err != nil {
		http.Error(opts.W, "malformed form body", http.StatusBadRequest)
		return
	}

	data, fieldErrors := opts.Parser(opts.R)
	if len(fieldErrors) > 0 {
		opts.renderFailure(formFailure{
			Fields:  fieldErrors,
			Message: errMsgFixBelow,
			Status:  http.StatusUnprocessableEntity,
		}, data)
		return
	}

	if err := opts.Submit(opts.R.Context(), id, data); err != nil {
		if apperrors.IsNotFound(err) {
			opts.notFound()
			return
		}
		failure := classifyFormError(err)
		if failure.Unexpected {
			opts.logger().ErrorContext(opts.R.Context(), "form submission failed",
				"error", err,
				"mode", opts.Mode,
				"request_id", RequestID(opts.R),
				"path", opts.R.URL.Path,
			)
		}
		opts.renderFailure(failure, data)
		return
	}

	RedirectAfterPost(opts.W, opts.R, opts.SuccessURL)
}

func (fh FormHandlerOpts[T]) notFound() {
	if fh.OnNotFound != nil {
		fh.OnNotFound(fh.W, fh.R)
		return
	}
	http.NotFound(fh.W, fh.R)
}

func (fh FormHandlerOpts[T]) logger() *slog.Logger {
	if fh.Logger != nil {
		return fh.Logger
	}
	return slog.Default()
}

// renderFailure re-renders the form with errors and preserves the submitted data.
func (fh FormHandlerOpts[T]) renderFailure(failure formFailure, data T) {
	b := NewTemplateData(fh.R, fh.PageMeta).
		WithFieldErrors(failure.Fields).
		WithError(failure.Message).
		With("Mode", string(fh.Mode))

	if fh.ExtraData != nil {
		extra, err := fh.ExtraData(fh.R.Context())
		if err != nil {
			fh.logger().WarnContext(fh.R.Context(), "reloading form data failed",
				"error", err,
				"request_id", RequestID(fh.R),
			)
		}
		for k, v := range extra {
			b.With(k, v)
		}
	}
	b.With("FormData", data)

	if IsHTMX(fh.R) {
		triggerToast(fh.W, failure.Message, "error")
	}
	fh.Renderer(fh.W, fh.R, failure.Status, b.Build())
}
