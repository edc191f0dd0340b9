package ledger

import (
	"context"
	"math"
	"sort"
	"time"

	"lunysse-scheduler/internal/model"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

func (l RiskLevel) rank() int {
	switch l {
	case RiskHigh:
		return 2
	case RiskMedium:
		return 1
	}
	return 0
}

const (
	reasonAbsences      = "consecutive absences"
	reasonCancellations = "frequent cancellations"
	alertCount          = 3
)

var monthNames = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// CompletionRate is completed/total as a percentage rounded to one decimal,
// 0 when there are no sessions.
func CompletionRate(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return roundFloat(float64(completed)/float64(total)*100, 1)
}

func roundFloat(val float64, precision uint) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}

type ReportStats struct {
	ActivePatients    int     `json:"active_patients"`
	TotalSessions     int     `json:"total_sessions"`
	ScheduledSessions int     `json:"scheduled_sessions"`
	StartedSessions   int     `json:"started_sessions"`
	CompletedSessions int     `json:"completed_sessions"`
	CanceledSessions  int     `json:"canceled_sessions"`
	CompletionRate    float64 `json:"completion_rate"`
	RiskAlerts        int     `json:"risk_alerts"`
}

type MonthCount struct {
	Month    string `json:"month"`
	Sessions int    `json:"sessions"`
}

type StatusCount struct {
	Status model.AppointmentStatus `json:"status"`
	Count  int                     `json:"count"`
}

type RiskAlert struct {
	PatientID int64     `json:"id"`
	Patient   string    `json:"patient"`
	Risk      RiskLevel `json:"risk"`
	Reason    string    `json:"reason"`
	Date      string    `json:"date"`
}

type Report struct {
	PsychologistID          int64         `json:"psychologist_id"`
	Stats                   ReportStats   `json:"stats"`
	Frequency               []MonthCount  `json:"frequency"`
	StatusBreakdown         []StatusCount `json:"status_breakdown"`
	PatientsWithSessions    int           `json:"patients_with_sessions"`
	PatientsWithoutSessions int           `json:"patients_without_sessions"`
	RiskAlerts              []RiskAlert   `json:"risk_alerts"`
	GeneratedAt             time.Time     `json:"generated_at"`
}

// Report aggregates a psychologist's sessions and patients. The risk alert
// list is a canned placeholder: the first three patients in id order, the
// first flagged high for absences and the rest medium for cancellations.
// RiskAnalysis computes levels from actual attendance.
func (s *Service) Report(ctx context.Context, psychologistID int64) (*Report, error) {
	apts, err := s.repo.FindAppointments(ctx, AppointmentFilter{PsychologistID: psychologistID})
	if err != nil {
		return nil, err
	}
	pats, err := s.repo.FindPatients(ctx, PatientFilter{PsychologistID: &psychologistID})
	if err != nil {
		return nil, err
	}

	now := s.now()
	today := midnight(now)
	rep := &Report{
		PsychologistID: psychologistID,
		Frequency:      make([]MonthCount, len(monthNames)),
		GeneratedAt:    now.UTC(),
	}
	for i, m := range monthNames {
		rep.Frequency[i].Month = m
	}

	byStatus := make(map[model.AppointmentStatus]int, 4)
	seen := make(map[int64]struct{}, len(pats))
	for _, a := range apts {
		byStatus[a.Status]++
		seen[a.PatientID] = struct{}{}
		if d, err := time.Parse(dateLayout, a.Date); err == nil && d.Year() == today.Year() {
			rep.Frequency[d.Month()-1].Sessions++
		}
	}

	rep.Stats = ReportStats{
		ActivePatients:    len(pats),
		TotalSessions:     len(apts),
		ScheduledSessions: byStatus[model.Scheduled],
		StartedSessions:   byStatus[model.Started],
		CompletedSessions: byStatus[model.Completed],
		CanceledSessions:  byStatus[model.Canceled],
		CompletionRate:    CompletionRate(byStatus[model.Completed], len(apts)),
	}
	rep.StatusBreakdown = []StatusCount{}
	for _, st := range []model.AppointmentStatus{model.Completed, model.Canceled, model.Started, model.Scheduled} {
		if n := byStatus[st]; n > 0 {
			rep.StatusBreakdown = append(rep.StatusBreakdown, StatusCount{Status: st, Count: n})
		}
	}

	for _, p := range pats {
		if _, ok := seen[p.ID]; ok {
			rep.PatientsWithSessions++
		}
	}
	rep.PatientsWithoutSessions = len(pats) - rep.PatientsWithSessions

	rep.RiskAlerts = cannedAlerts(pats, today)
	rep.Stats.RiskAlerts = len(rep.RiskAlerts)
	return rep, nil
}

func cannedAlerts(pats []model.Patient, today time.Time) []RiskAlert {
	sorted := append([]model.Patient(nil), pats...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	if len(sorted) > alertCount {
		sorted = sorted[:alertCount]
	}
	out := make([]RiskAlert, len(sorted))
	for i, p := range sorted {
		out[i] = RiskAlert{
			PatientID: p.ID,
			Patient:   p.Name,
			Risk:      RiskMedium,
			Reason:    reasonCancellations,
			Date:      today.AddDate(0, 0, -(i + 1)).Format(dateLayout),
		}
		if i == 0 {
			out[i].Risk = RiskHigh
			out[i].Reason = reasonAbsences
		}
	}
	return out
}

// PatientRisk scores one patient from their attendance. A no-show is a
// session still marked scheduled after its date has passed.
type PatientRisk struct {
	PatientID     int64     `json:"patient_id"`
	Patient       string    `json:"patient"`
	Level         RiskLevel `json:"level"`
	NoShows       int       `json:"no_shows"`
	Cancellations int       `json:"cancellations"`
	Completed     int       `json:"completed"`
	TotalSessions int       `json:"total_sessions"`
	Reasons       []string  `json:"reasons"`
}

func scoreRisk(p model.Patient, apts []model.Appointment, today string) PatientRisk {
	r := PatientRisk{PatientID: p.ID, Patient: p.Name, Level: RiskLow, Reasons: []string{}}
	for _, a := range apts {
		if a.PatientID != p.ID {
			continue
		}
		r.TotalSessions++
		switch {
		case a.Status == model.Completed:
			r.Completed++
		case a.Status == model.Canceled:
			r.Cancellations++
		case a.Status == model.Scheduled && a.Date < today:
			r.NoShows++
		}
	}
	if r.NoShows > 0 {
		r.Reasons = append(r.Reasons, reasonAbsences)
	}
	if r.Cancellations >= 2 {
		r.Reasons = append(r.Reasons, reasonCancellations)
	}
	switch {
	case r.NoShows >= 2:
		r.Level = RiskHigh
	case r.Cancellations >= 2 || r.NoShows == 1:
		r.Level = RiskMedium
	}
	return r
}

// RiskAnalysis scores every patient of the psychologist, most at risk first.
func (s *Service) RiskAnalysis(ctx context.Context, psychologistID int64) ([]PatientRisk, error) {
	pats, err := s.repo.FindPatients(ctx, PatientFilter{PsychologistID: &psychologistID})
	if err != nil {
		return nil, err
	}
	apts, err := s.repo.FindAppointments(ctx, AppointmentFilter{PsychologistID: psychologistID})
	if err != nil {
		return nil, err
	}
	today := s.Today().Format(dateLayout)
	out := make([]PatientRisk, len(pats))
	for i, p := range pats {
		out[i] = scoreRisk(p, apts, today)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if a, b := out[i].Level.rank(), out[j].Level.rank(); a != b {
			return a > b
		}
		return out[i].PatientID < out[j].PatientID
	})
	return out, nil
}

func (s *Service) PatientRisk(ctx context.Context, caller Caller, patientID int64) (*PatientRisk, error) {
	p, err := s.repo.PatientByID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if err := s.checkPatientAccess(ctx, caller, p); err != nil {
		return nil, err
	}
	apts, err := s.repo.FindAppointments(ctx, AppointmentFilter{PatientIDs: []int64{p.ID}})
	if err != nil {
		return nil, err
	}
	r := scoreRisk(*p, apts, s.Today().Format(dateLayout))
	return &r, nil
}
