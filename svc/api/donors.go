package api

import (
	"net/http"

	"github.com/dmitrymomot/donoralert/svc/donor"
)

type profileRequest struct {
	BloodType    donor.BloodType    `json:"blood_type"`
	Municipality string             `json:"municipality"`
	Availability donor.Availability `json:"availability"`
	Age          int                `json:"age"`
}

type availabilityRequest struct {
	Availability donor.Availability `json:"availability"`
}

func (a *API) getOwnProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := caller(r)
	p, err := a.donors.Get(r.Context(), userID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, p)
}

func (a *API) upsertOwnProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := caller(r)
	var req profileRequest
	if err := a.decodeBody(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	if req.Availability == "" {
		req.Availability = donor.Available
	}

	p, err := a.donors.Upsert(r.Context(), donor.Profile{
		UserID:       userID,
		BloodType:    req.BloodType,
		Municipality: req.Municipality,
		Availability: req.Availability,
		Age:          req.Age,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, p)
}

// setAvailability is used by staff after a donation or deferral.
func (a *API) setAvailability(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "user_id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var req availabilityRequest
	if err := a.decodeBody(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.donors.SetAvailability(r.Context(), userID, req.Availability); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
