package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/dmitrymomot/donoralert/svc/alert"
)

func (a *API) listAlerts(w http.ResponseWriter, r *http.Request) {
	p, err := a.pagination(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	alerts, err := a.alerts.List(r.Context(), alert.ListOptions{Limit: p.limit, Offset: p.offset})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if alerts == nil {
		alerts = []alert.Alert{}
	}
	writeJSON(w, http.StatusOK, envelope{
		Data: alerts,
		Meta: map[string]any{"limit": p.limit, "offset": p.offset},
	})
}

func (a *API) getAlert(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	al, err := a.alerts.Get(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, al)
}

// createAlert stores a draft. A draft that sends now answers 201 with the
// recipient count, or 503 with the stored alert ID when fan-out kept failing.
func (a *API) createAlert(w http.ResponseWriter, r *http.Request) {
	var d alert.Draft
	if err := a.decodeBody(w, r, &d); err != nil {
		a.fail(w, r, err)
		return
	}
	d.CreatedBy, _ = caller(r)

	sent, err := a.alerts.Create(r.Context(), d)
	if err != nil {
		var meta map[string]any
		if errors.Is(err, alert.ErrPartialFanOut) && sent.Alert.ID != uuid.Nil {
			meta = map[string]any{"alert_id": sent.Alert.ID}
		}
		a.failWithMeta(w, r, err, meta)
		return
	}
	respond(w, http.StatusCreated, sent)
}

func (a *API) sendAlert(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	sent, err := a.alerts.Trigger(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, sent)
}
