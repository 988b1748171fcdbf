package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, badRequest("invalid " + name)
	}
	return id, nil
}

// decodeBody reads a single JSON value from the request body.
func (a *API) decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, a.cfg.MaxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("request body is empty")
		}
		return errors.Join(badRequest("request body is not valid JSON"), err)
	}
	return nil
}

type page struct {
	limit  int
	offset int
}

// pagination reads limit and offset, clamping limit to the configured maximum.
func (a *API) pagination(r *http.Request) (page, error) {
	p := page{limit: a.cfg.DefaultPageSize}
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return page{}, badRequest("limit must be a positive integer")
		}
		p.limit = min(n, a.cfg.MaxPageSize)
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return page{}, badRequest("offset must be a non-negative integer")
		}
		p.offset = n
	}
	return p, nil
}
