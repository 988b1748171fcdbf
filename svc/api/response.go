package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/donoralert/pkg/logger"
	"github.com/dmitrymomot/donoralert/pkg/requestid"
)

// envelope is the body of every JSON response.
type envelope struct {
	Data  any            `json:"data,omitempty"`
	Meta  map[string]any `json:"meta,omitempty"`
	Error *errorDetail   `json:"error,omitempty"`
}

type errorDetail struct {
	Code      string              `json:"code"`
	Message   string              `json:"message"`
	Details   map[string][]string `json:"details,omitempty"`
	RequestID string              `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respond(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Data: data})
}

// fail logs err and renders it as a JSON error.
func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	a.failWithMeta(w, r, err, nil)
}

func (a *API) failWithMeta(w http.ResponseWriter, r *http.Request, err error, meta map[string]any) {
	info := classifyError(err)
	reqID := requestid.FromContext(r.Context())

	a.logger.LogAttrs(r.Context(), info.logLevel, "request error",
		logger.Error(err),
		slog.Int("status_code", info.status),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		logger.Component("api"),
	)

	writeJSON(w, info.status, envelope{
		Meta: meta,
		Error: &errorDetail{
			Code:      info.key,
			Message:   info.message,
			Details:   info.details,
			RequestID: reqID,
		},
	})
}
