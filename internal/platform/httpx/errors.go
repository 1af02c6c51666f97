// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/stockbook/stockbook/internal/shared"
)

// ErrBadRequest marks malformed or structurally invalid request bodies.
var ErrBadRequest = errors.New("bad request")

// StatusOf reports the HTTP status an error maps to.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, shared.ErrInvalidInput):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	status := StatusOf(err)
	switch status {
	case http.StatusBadRequest:
		Problem(w, status, "Bad Request", err.Error())
	case http.StatusNotFound:
		Problem(w, status, "Not Found", err.Error())
	case http.StatusConflict:
		Problem(w, status, "Conflict", err.Error())
	case http.StatusUnprocessableEntity:
		Problem(w, status, "Validation Failed", err.Error())
	default:
		if errors.Is(err, shared.ErrPersistence) {
			Problem(w, status, "Persistence Failure", "the record store rejected the request")
			return
		}
		Problem(w, status, "Internal Error", "")
	}
}
