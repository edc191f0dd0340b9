package httpapi

import (
	"net/http"

	"lunysse-scheduler/internal/ledger"
	"lunysse-scheduler/internal/model"
)

type appointmentBody struct {
	PatientID      int64  `json:"patient_id"`
	PsychologistID int64  `json:"psychologist_id"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	Duration       int    `json:"duration"`
	Description    string `json:"description"`
	Notes          string `json:"notes"`
}

type appointmentPatch struct {
	Date        *string                  `json:"date"`
	Time        *string                  `json:"time"`
	Duration    *int                     `json:"duration"`
	Description *string                  `json:"description"`
	Notes       *string                  `json:"notes"`
	FullReport  *string                  `json:"full_report"`
	Status      *model.AppointmentStatus `json:"status"`
}

type statusBody struct {
	Status model.AppointmentStatus `json:"status"`
}

type notesBody struct {
	Notes      string `json:"notes"`
	FullReport string `json:"full_report"`
}

// listAppointments serves the caller's sessions, optionally narrowed by
// date and status. A psychologist may also look their sessions up by patient
// email.
func (a *API) listAppointments(w http.ResponseWriter, r *http.Request) {
	c := caller(r)
	q := r.URL.Query()

	if email := q.Get("patient_email"); email != "" && c.IsPsychologist() {
		apts, err := a.svc.AppointmentsByEmail(r.Context(), c, email)
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, apts)
		return
	}

	apts, err := a.svc.AppointmentsFor(r.Context(), c, ledger.AppointmentFilter{
		Date:   q.Get("date"),
		Status: model.AppointmentStatus(q.Get("status")),
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, apts)
}

func (a *API) createAppointment(w http.ResponseWriter, r *http.Request) {
	var in appointmentBody
	if !readJSON(w, r, &in) {
		return
	}
	apt, err := a.svc.CreateAppointment(r.Context(), caller(r), ledger.AppointmentInput{
		PatientID:      in.PatientID,
		PsychologistID: in.PsychologistID,
		Date:           in.Date,
		Time:           in.Time,
		Duration:       in.Duration,
		Description:    in.Description,
		Notes:          in.Notes,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, apt)
}

func (a *API) availableSlots(w http.ResponseWriter, r *http.Request) {
	psy, ok := queryID(w, r, "psychologist_id")
	if !ok {
		return
	}
	slots, err := a.svc.AvailableSlots(r.Context(), r.URL.Query().Get("date"), psy)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, slots)
}

func (a *API) sessionDetails(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	apt, err := a.svc.SessionDetails(r.Context(), caller(r), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, apt)
}

func (a *API) updateAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in appointmentPatch
	if !readJSON(w, r, &in) {
		return
	}
	apt, err := a.svc.UpdateAppointment(r.Context(), caller(r), id, ledger.AppointmentPatch{
		Date:        in.Date,
		Time:        in.Time,
		Duration:    in.Duration,
		Description: in.Description,
		Notes:       in.Notes,
		FullReport:  in.FullReport,
		Status:      in.Status,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, apt)
}

func (a *API) cancelAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	apt, err := a.svc.CancelAppointment(r.Context(), caller(r), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, apt)
}

func (a *API) updateSessionStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in statusBody
	if !readJSON(w, r, &in) {
		return
	}
	apt, err := a.svc.UpdateSessionStatus(r.Context(), caller(r), id, in.Status)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, apt)
}

func (a *API) updateSessionNotes(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in notesBody
	if !readJSON(w, r, &in) {
		return
	}
	apt, err := a.svc.UpdateSessionNotes(r.Context(), caller(r), id, in.Notes, in.FullReport)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, apt)
}

func (a *API) dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := a.svc.Dashboard(r.Context(), caller(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
