package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/donoralert/pkg/jwt"
	"github.com/dmitrymomot/donoralert/svc/alert"
	"github.com/dmitrymomot/donoralert/svc/donor"
	"github.com/dmitrymomot/donoralert/svc/notification"
)

// HTTPError is an error with a status code and a stable machine-readable key.
type HTTPError struct {
	Code    int
	Key     string
	Message string
}

func (e HTTPError) Error() string { return e.Key }

var (
	ErrBadRequest   = HTTPError{Code: http.StatusBadRequest, Key: "bad_request", Message: "Malformed request"}
	ErrUnauthorized = HTTPError{Code: http.StatusUnauthorized, Key: "unauthorized", Message: "Authentication required"}
	ErrForbidden    = HTTPError{Code: http.StatusForbidden, Key: "forbidden", Message: "Insufficient permissions"}
	ErrNotFound     = HTTPError{Code: http.StatusNotFound, Key: "not_found", Message: "Resource not found"}
)

// errorInfo is the classified form of an error, ready to render.
type errorInfo struct {
	status   int
	key      string
	message  string
	details  map[string][]string
	logLevel slog.Level
}

func classifyError(err error) errorInfo {
	info := errorInfo{
		status:   http.StatusInternalServerError,
		key:      "internal_error",
		message:  "An error occurred processing your request",
		logLevel: slog.LevelError,
	}

	var invalid *alert.InvalidError
	var httpErr HTTPError
	switch {
	case errors.As(err, &invalid):
		info.status, info.key, info.message = http.StatusUnprocessableEntity, "invalid_alert", "Alert is invalid"
		info.details = map[string][]string{"alert": invalid.Problems}
	case errors.Is(err, alert.ErrAlreadySent):
		info.status, info.key, info.message = http.StatusBadRequest, "already_sent", "Alert already sent"
	case errors.Is(err, alert.ErrNotFound):
		info.status, info.key, info.message = http.StatusNotFound, "not_found", "Alert not found"
	case errors.Is(err, notification.ErrNotFound):
		info.status, info.key, info.message = http.StatusNotFound, "not_found", "Notification not found"
	case errors.Is(err, donor.ErrProfileNotFound):
		info.status, info.key, info.message = http.StatusNotFound, "not_found", "Donor profile not found"
	case errors.Is(err, notification.ErrInvalidType),
		errors.Is(err, donor.ErrInvalidBloodType),
		errors.Is(err, donor.ErrInvalidAvailability):
		info.status, info.key, info.message = http.StatusBadRequest, "bad_request", err.Error()
	case errors.Is(err, alert.ErrPartialFanOut):
		info.status, info.key, info.message = http.StatusServiceUnavailable, "fan_out_failed", "Alert could not be sent, try again later"
	case errors.Is(err, jwt.ErrExpiredToken):
		info.status, info.key, info.message = http.StatusUnauthorized, "token_expired", "Token has expired"
	case errors.Is(err, jwt.ErrMissingToken),
		errors.Is(err, jwt.ErrInvalidToken),
		errors.Is(err, jwt.ErrInvalidClaims):
		info.status, info.key, info.message = ErrUnauthorized.Code, ErrUnauthorized.Key, ErrUnauthorized.Message
	case errors.As(err, &httpErr):
		info.status, info.key, info.message = httpErr.Code, httpErr.Key, httpErr.Message
	}

	switch {
	case info.status >= http.StatusInternalServerError:
		info.logLevel = slog.LevelError
	case errors.Is(err, alert.ErrAlreadySent):
		info.logLevel = slog.LevelInfo
	default:
		info.logLevel = slog.LevelWarn
	}
	return info
}

func badRequest(msg string) HTTPError {
	e := ErrBadRequest
	e.Message = msg
	return e
}
