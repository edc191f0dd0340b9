package httpapi

import (
	"fmt"
	"net/http"

	"lunysse-scheduler/internal/export"
	"lunysse-scheduler/internal/ledger"
)

// ownReport resolves {id} and checks that it is the calling psychologist.
func (a *API) ownReport(w http.ResponseWriter, r *http.Request) (*ledger.Report, bool) {
	id, ok := pathID(w, r)
	if !ok {
		return nil, false
	}
	c := caller(r)
	if !c.IsPsychologist() || c.ID != id {
		a.writeError(w, r, ledger.ErrForbidden)
		return nil, false
	}
	rep, err := a.svc.Report(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return nil, false
	}
	return rep, true
}

func (a *API) report(w http.ResponseWriter, r *http.Request) {
	if rep, ok := a.ownReport(w, r); ok {
		writeJSON(w, http.StatusOK, rep)
	}
}

func (a *API) exportReport(w http.ResponseWriter, r *http.Request) {
	rep, ok := a.ownReport(w, r)
	if !ok {
		return
	}
	data, err := export.ReportWorkbook(rep)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	name := fmt.Sprintf("report-%d-%s.xlsx", rep.PsychologistID, rep.GeneratedAt.Format("20060102"))
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (a *API) riskAnalysis(w http.ResponseWriter, r *http.Request) {
	c := caller(r)
	if !c.IsPsychologist() {
		a.writeError(w, r, ledger.ErrForbidden)
		return
	}
	out, err := a.svc.RiskAnalysis(r.Context(), c.ID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) patientRisk(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	out, err := a.svc.PatientRisk(r.Context(), caller(r), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
