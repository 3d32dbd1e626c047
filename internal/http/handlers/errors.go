// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case and stable: clients branch on them rather
// than on messages. Generic codes mirror HTTP status semantics; the few
// domain codes name failures a status alone cannot convey.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "forbidden",
//	  "message": "not authorized to edit this post"
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/tbourn/go-linkboard/internal/services"
)

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeInactiveUser     = "inactive_user"
	ErrCodeValidation       = "validation_failed"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)

// classify maps a service error to status, code and a client-safe message.
// Specific sentinels are checked before their categories so messages stay
// precise; anything unknown is a 500.
func classify(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, services.ErrPostNotFound):
		return http.StatusNotFound, ErrCodeNotFound, "post not found"
	case errors.Is(err, services.ErrCommentNotFound):
		return http.StatusNotFound, ErrCodeNotFound, "comment not found"
	case errors.Is(err, services.ErrParentNotFound):
		return http.StatusNotFound, ErrCodeNotFound, "parent comment not found"
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, ErrCodeNotFound, "resource not found"
	case errors.Is(err, services.ErrUsernameTaken):
		return http.StatusConflict, ErrCodeConflict, "username already registered"
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict, ErrCodeConflict, "conflict"
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden, ErrCodeForbidden, "forbidden"
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized, ErrCodeUnauthorized, "incorrect username or password"
	case errors.Is(err, services.ErrInactiveUser):
		return http.StatusBadRequest, ErrCodeInactiveUser, "inactive user"
	default:
		return http.StatusInternalServerError, ErrCodeInternal, "internal error"
	}
}
