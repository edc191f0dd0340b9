package httpapi

import (
	"net/http"

	"lunysse-scheduler/internal/ledger"
	"lunysse-scheduler/internal/model"
)

type patientBody struct {
	Name      string              `json:"name"`
	Email     string              `json:"email"`
	Phone     string              `json:"phone"`
	BirthDate string              `json:"birth_date"`
	Status    model.PatientStatus `json:"status"`
}

type patientPatch struct {
	Name      *string              `json:"name"`
	Phone     *string              `json:"phone"`
	BirthDate *string              `json:"birth_date"`
	Status    *model.PatientStatus `json:"status"`
}

func (a *API) listPatients(w http.ResponseWriter, r *http.Request) {
	c := caller(r)
	if !c.IsPsychologist() {
		a.writeError(w, r, ledger.ErrForbidden)
		return
	}
	pats, err := a.svc.Patients(r.Context(), c.ID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pats)
}

func (a *API) createPatient(w http.ResponseWriter, r *http.Request) {
	c := caller(r)
	if !c.IsPsychologist() {
		a.writeError(w, r, ledger.ErrForbidden)
		return
	}
	var in patientBody
	if !readJSON(w, r, &in) {
		return
	}
	p, err := a.svc.CreatePatient(r.Context(), c.ID, ledger.PatientInput{
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		BirthDate: in.BirthDate,
		Status:    in.Status,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (a *API) patientDetails(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := a.svc.PatientDetails(r.Context(), caller(r), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *API) updatePatient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in patientPatch
	if !readJSON(w, r, &in) {
		return
	}
	p, err := a.svc.UpdatePatient(r.Context(), caller(r), id, ledger.PatientPatch{
		Name:      in.Name,
		Phone:     in.Phone,
		BirthDate: in.BirthDate,
		Status:    in.Status,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *API) patientSessions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	apts, err := a.svc.PatientSessions(r.Context(), caller(r), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, apts)
}
