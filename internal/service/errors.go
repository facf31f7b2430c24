package service

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
)

type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewError(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

func invalid(message string) *Error {
	return NewError(http.StatusBadRequest, "invalid_request", message)
}

func notFound(message string) *Error {
	return NewError(http.StatusNotFound, "not_found", message)
}

func forbidden(message string) *Error {
	return NewError(http.StatusForbidden, "forbidden", message)
}

func unauthorized(message string) *Error {
	return NewError(http.StatusUnauthorized, "unauthorized", message)
}

func unavailable(message string) *Error {
	return NewError(http.StatusServiceUnavailable, "service_unavailable", message)
}

var errNoStore = unavailable("database not configured")

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

// AsError extracts a service error from err's chain.
func AsError(err error) (*Error, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
