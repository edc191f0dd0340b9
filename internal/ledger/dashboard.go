package ledger

import (
	"context"
	"time"

	"lunysse-scheduler/internal/model"
)

const (
	dashboardUpcoming = 5
	dashboardRecent   = 3
)

// SplitAppointments partitions list around today. Status wins over date:
// completed and canceled sessions are always past, scheduled and started
// ones are upcoming unless their date is before today. Upcoming is sorted
// oldest first, past newest first.
func SplitAppointments(list []model.Appointment, today time.Time) (upcoming, past []model.Appointment) {
	cutoff := midnight(today).Format(dateLayout)
	upcoming = []model.Appointment{}
	past = []model.Appointment{}
	for _, a := range list {
		switch {
		case a.Status == model.Completed || a.Status == model.Canceled:
			past = append(past, a)
		case a.Date >= cutoff:
			upcoming = append(upcoming, a)
		default:
			past = append(past, a)
		}
	}
	sortAppointments(upcoming, true)
	sortAppointments(past, false)
	return upcoming, past
}

type Dashboard struct {
	Upcoming          []model.Appointment `json:"upcoming"`
	Recent            []model.Appointment `json:"recent"`
	TodayAppointments int                 `json:"today_appointments"`
	CompletedSessions int                 `json:"completed_sessions"`
	// ActivePatients counts every patient in care; both patient statuses
	// (active, in_treatment) are in care.
	ActivePatients  int `json:"active_patients,omitempty"`
	PendingRequests int `json:"pending_requests,omitempty"`
}

// Dashboard builds the landing view for either kind of user. Patient and
// request counters are only filled in for psychologists.
func (s *Service) Dashboard(ctx context.Context, caller Caller) (*Dashboard, error) {
	apts, err := s.AppointmentsFor(ctx, caller, AppointmentFilter{})
	if err != nil {
		return nil, err
	}
	today := s.Today()
	upcoming, past := SplitAppointments(apts, today)

	d := &Dashboard{
		Upcoming: head(upcoming, dashboardUpcoming),
		Recent:   head(past, dashboardRecent),
	}
	todayStr := today.Format(dateLayout)
	for _, a := range apts {
		if a.Date == todayStr && a.Status == model.Scheduled {
			d.TodayAppointments++
		}
		if a.Status == model.Completed {
			d.CompletedSessions++
		}
	}

	if !caller.IsPsychologist() {
		return d, nil
	}
	pats, err := s.repo.FindPatients(ctx, PatientFilter{PsychologistID: &caller.ID})
	if err != nil {
		return nil, err
	}
	d.ActivePatients = len(pats)
	reqs, err := s.repo.FindRequests(ctx, RequestFilter{PsychologistID: caller.ID, Status: model.Pending})
	if err != nil {
		return nil, err
	}
	d.PendingRequests = len(reqs)
	return d, nil
}

func head(apts []model.Appointment, n int) []model.Appointment {
	if len(apts) > n {
		return apts[:n]
	}
	return apts
}
