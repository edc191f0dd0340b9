package httpapi

import (
	"net/http"

	"lunysse-scheduler/internal/ledger"
	"lunysse-scheduler/internal/model"
)

type requestBody struct {
	PatientName    string        `json:"patient_name"`
	PatientEmail   string        `json:"patient_email"`
	PatientPhone   string        `json:"patient_phone"`
	PsychologistID int64         `json:"preferred_psychologist"`
	Description    string        `json:"description"`
	Urgency        model.Urgency `json:"urgency"`
	PreferredDates []string      `json:"preferred_dates"`
	PreferredTimes []string      `json:"preferred_times"`
}

type requestUpdate struct {
	Status model.RequestStatus `json:"status"`
	Notes  string              `json:"notes"`
}

type acceptResponse struct {
	*model.Request
	Patient *model.Patient `json:"patient"`
}

func (a *API) createRequest(w http.ResponseWriter, r *http.Request) {
	var in requestBody
	if !readJSON(w, r, &in) {
		return
	}
	req, err := a.svc.CreateRequest(r.Context(), ledger.RequestInput{
		PatientName:    in.PatientName,
		PatientEmail:   in.PatientEmail,
		PatientPhone:   in.PatientPhone,
		PsychologistID: in.PsychologistID,
		Description:    in.Description,
		Urgency:        in.Urgency,
		PreferredDates: in.PreferredDates,
		PreferredTimes: in.PreferredTimes,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (a *API) listRequests(w http.ResponseWriter, r *http.Request) {
	psy, ok := queryID(w, r, "psychologist_id")
	if !ok {
		return
	}
	reqs, err := a.svc.ListRequests(r.Context(), caller(r), ledger.RequestFilter{
		PsychologistID: psy,
		Status:         model.RequestStatus(r.URL.Query().Get("status")),
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reqs)
}

// updateRequest routes accept and reject through their workflows. Any other
// status is written as is.
func (a *API) updateRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in requestUpdate
	if !readJSON(w, r, &in) {
		return
	}
	c := caller(r)
	if !c.IsPsychologist() {
		a.writeError(w, r, ledger.ErrForbidden)
		return
	}

	switch in.Status {
	case model.Accepted:
		req, p, err := a.svc.AcceptRequest(r.Context(), c, id, in.Notes)
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, acceptResponse{Request: req, Patient: p})
	case model.Rejected:
		req, err := a.svc.RejectRequest(r.Context(), c, id, in.Notes)
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, req)
	default:
		req, err := a.svc.UpdateRequestStatus(r.Context(), id, in.Status, in.Notes)
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, req)
	}
}
