package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/KaramelBytes/prism-cli/internal/dataset"
	"github.com/KaramelBytes/prism-cli/internal/session"
)

// Problem is an RFC 7807 error body.
type Problem struct {
	Type      string            `json:"type"`
	Title     string            `json:"title"`
	Status    int               `json:"status"`
	Detail    string            `json:"detail,omitempty"`
	Instance  string            `json:"instance,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

func (p *Problem) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, p.Status)
	return nil
}

const (
	typeInvalidInput = "/errors/invalid-input"
	typeNotFound     = "/errors/not-found"
	typeValidation   = "/errors/validation"
	typeTooLarge     = "/errors/payload-too-large"
	typeInternal     = "/errors/internal"
)

// errBadRequest marks malformed requests that are not dataset problems.
type errBadRequest struct{ msg string }

func (e *errBadRequest) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &errBadRequest{msg: fmt.Sprintf(format, args...)}
}

// problemFor maps domain errors onto HTTP statuses.
func problemFor(err error) *Problem {
	var (
		ve  validator.ValidationErrors
		br  *errBadRequest
		mbe *http.MaxBytesError
	)
	switch {
	case errors.Is(err, session.ErrNotFound):
		return &Problem{Type: typeNotFound, Title: "Dataset not found", Status: http.StatusNotFound, Detail: err.Error()}
	case errors.As(err, &ve):
		fields := make(map[string]string, len(ve))
		for _, fe := range ve {
			fields[fe.Field()] = fe.Tag()
		}
		return &Problem{Type: typeValidation, Title: "Validation failed", Status: http.StatusUnprocessableEntity, Fields: fields}
	case errors.As(err, &mbe):
		return &Problem{Type: typeTooLarge, Title: "Upload too large", Status: http.StatusRequestEntityTooLarge, Detail: err.Error()}
	case dataset.IsInputError(err), errors.As(err, &br):
		return &Problem{Type: typeInvalidInput, Title: "Invalid input", Status: http.StatusBadRequest, Detail: err.Error()}
	default:
		return &Problem{Type: typeInternal, Title: "Internal error", Status: http.StatusInternalServerError}
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	p := problemFor(err)
	p.Instance = r.URL.Path
	p.RequestID = middleware.GetReqID(r.Context())
	if p.Status >= 500 {
		s.log.ErrorContext(r.Context(), "request failed", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
	} else {
		s.log.DebugContext(r.Context(), "request rejected", slog.Int("status", p.Status), slog.String("error", err.Error()))
	}
	_ = render.Render(w, r, p)
}
