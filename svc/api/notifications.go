package api

import (
	"net/http"
	"strconv"

	"github.com/dmitrymomot/donoralert/svc/notification"
)

func (a *API) listNotifications(w http.ResponseWriter, r *http.Request) {
	userID, _ := caller(r)
	p, err := a.pagination(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	opts := notification.ListOptions{Limit: p.limit, Offset: p.offset}
	q := r.URL.Query()
	if v := q.Get("type"); v != "" {
		t := notification.Type(v)
		opts.Type = &t
	}
	if v := q.Get("is_read"); v != "" {
		read, err := strconv.ParseBool(v)
		if err != nil {
			a.fail(w, r, badRequest("is_read must be true or false"))
			return
		}
		opts.IsRead = &read
	}

	items, err := a.inbox.List(r.Context(), userID, opts)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if items == nil {
		items = []notification.Notification{}
	}
	writeJSON(w, http.StatusOK, envelope{
		Data: items,
		Meta: map[string]any{"limit": p.limit, "offset": p.offset},
	})
}

func (a *API) unreadCount(w http.ResponseWriter, r *http.Request) {
	userID, _ := caller(r)
	n, err := a.inbox.CountUnread(r.Context(), userID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]int{"count": n})
}

func (a *API) markRead(w http.ResponseWriter, r *http.Request) {
	userID, _ := caller(r)
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.inbox.MarkRead(r.Context(), userID, id); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) markAllRead(w http.ResponseWriter, r *http.Request) {
	userID, _ := caller(r)
	n, err := a.inbox.MarkAllRead(r.Context(), userID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]int{"updated": n})
}

func (a *API) deleteNotification(w http.ResponseWriter, r *http.Request) {
	userID, _ := caller(r)
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.inbox.Delete(r.Context(), userID, id); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
