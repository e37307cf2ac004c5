package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"projectboard/assembler"
	"projectboard/domain"
	"projectboard/session"
	"projectboard/storage"
	"projectboard/store"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

var errNotFound = errors.New("not found")

const stageKey = "error_stage"

func statusFor(err error) int {
	var verr *assembler.ValidationError
	switch {
	case errors.Is(err, session.ErrNoSession),
		errors.Is(err, session.ErrForeignToken),
		errors.Is(err, session.ErrMissingAuthorization),
		errors.Is(err, session.ErrBadAuthorization):
		return http.StatusUnauthorized
	case errors.As(err, &verr),
		errors.Is(err, errBadBody),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidPriority),
		errors.Is(err, domain.ErrInvalidRole),
		errors.Is(err, store.ErrEmptyName),
		errors.Is(err, assembler.ErrUnknownCategory),
		errors.Is(err, assembler.ErrNotSelected),
		errors.Is(err, assembler.ErrUnknownSubcategory),
		errors.Is(err, assembler.ErrTemplateIndex):
		return http.StatusBadRequest
	case errors.Is(err, assembler.ErrSubmitting):
		return http.StatusConflict
	case errors.Is(err, errNotFound),
		errors.Is(err, storage.ErrNotFound),
		store.IsKind(err, store.KindLookup):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func stageFor(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return "auth"
	case http.StatusBadRequest:
		return "validation"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	}
	return "store"
}

// writeError maps err to a status. Store failures are reported with the
// message recorded in the session status.
func writeError(c echo.Context, err error) error {
	status := statusFor(err)
	c.Set(stageKey, stageFor(status))
	resp := errorResponse{Error: err.Error()}
	var opErr *store.OpError
	if status == http.StatusInternalServerError && errors.As(err, &opErr) {
		resp.Error = opErr.Msg
	}
	var verr *assembler.ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Fields
	}
	return c.JSON(status, resp)
}
