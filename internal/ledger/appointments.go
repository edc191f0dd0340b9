package ledger

import (
	"context"
	"errors"
	"sort"

	"lunysse-scheduler/internal/events"
	"lunysse-scheduler/internal/model"
)

const defaultDuration = 50 // minutes

type AppointmentInput struct {
	PatientID      int64
	PsychologistID int64
	Date           string
	Time           string
	Duration       int
	Description    string
	Notes          string
}

// CreateAppointment books a session with status scheduled. A psychologist
// books for one of their patients; a patient books for themselves. There is
// no overlap check: two sessions may share a slot.
func (s *Service) CreateAppointment(ctx context.Context, caller Caller, in AppointmentInput) (*model.Appointment, error) {
	if caller.IsPsychologist() {
		in.PsychologistID = caller.ID
	} else if in.PatientID == 0 {
		in.PatientID = caller.ID
	}
	if in.Duration == 0 {
		in.Duration = defaultDuration
	}

	var v ValidationError
	if in.PatientID <= 0 {
		v.add("patient_id", "required")
	}
	if in.PsychologistID <= 0 {
		v.add("psychologist_id", "required")
	}
	if !validDate(in.Date) {
		v.add("date", "must be YYYY-MM-DD")
	}
	if !validTime(in.Time) {
		v.add("time", "must be HH:MM")
	}
	if in.Duration < 0 {
		v.add("duration", "must be positive")
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	if caller.IsPsychologist() {
		p, err := s.repo.PatientByID(ctx, in.PatientID)
		if errors.Is(err, ErrNotFound) || (err == nil && p.PsychologistID != caller.ID) {
			return nil, &ValidationError{Fields: []FieldError{{Field: "patient_id", Msg: "unknown patient"}}}
		}
		if err != nil {
			return nil, err
		}
	} else {
		ids, err := s.patientIDs(ctx, caller.ID)
		if err != nil {
			return nil, err
		}
		if !containsID(ids, in.PatientID) {
			return nil, &ValidationError{Fields: []FieldError{{Field: "patient_id", Msg: "unknown patient"}}}
		}
		psy, err := s.repo.UserByID(ctx, in.PsychologistID)
		if errors.Is(err, ErrNotFound) || (err == nil && psy.Type != model.Psychologist) {
			return nil, &ValidationError{Fields: []FieldError{{Field: "psychologist_id", Msg: "unknown psychologist"}}}
		}
		if err != nil {
			return nil, err
		}
	}

	a := &model.Appointment{
		PatientID:      in.PatientID,
		PsychologistID: in.PsychologistID,
		Date:           in.Date,
		Time:           in.Time,
		Duration:       in.Duration,
		Status:         model.Scheduled,
		Description:    in.Description,
		Notes:          in.Notes,
	}
	err := s.withFreshIDs(func() error {
		a.ID = s.ids.next()
		return s.repo.InsertAppointment(ctx, a)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.AppointmentCreated, a.ID, a.PsychologistID)
	return a, nil
}

// AppointmentsFor lists the caller's appointments: by psychologist for
// psychologists, by every patient record of the caller for patients.
func (s *Service) AppointmentsFor(ctx context.Context, caller Caller, f AppointmentFilter) ([]model.Appointment, error) {
	f.PatientIDs = nil
	f.PsychologistID = 0
	if caller.IsPsychologist() {
		f.PsychologistID = caller.ID
	} else {
		ids, err := s.patientIDs(ctx, caller.ID)
		if err != nil {
			return nil, err
		}
		f.PatientIDs = ids
	}
	apts, err := s.repo.FindAppointments(ctx, f)
	if err != nil {
		return nil, err
	}
	sortAppointments(apts, true)
	return apts, nil
}

// AppointmentsByEmail looks up a psychologist's sessions with every patient
// record registered under email. Patients cannot search by email.
func (s *Service) AppointmentsByEmail(ctx context.Context, caller Caller, email string) ([]model.Appointment, error) {
	if !caller.IsPsychologist() {
		return nil, ErrForbidden
	}
	pats, err := s.repo.FindPatients(ctx, PatientFilter{Email: normalizeEmail(email)})
	if err != nil {
		return nil, err
	}
	if len(pats) == 0 {
		return []model.Appointment{}, nil
	}
	ids := make([]int64, len(pats))
	for i, p := range pats {
		ids[i] = p.ID
	}
	apts, err := s.repo.FindAppointments(ctx, AppointmentFilter{PsychologistID: caller.ID, PatientIDs: ids})
	if err != nil {
		return nil, err
	}
	sortAppointments(apts, true)
	return apts, nil
}

func (s *Service) SessionDetails(ctx context.Context, caller Caller, id int64) (*model.Appointment, error) {
	return s.ownedAppointment(ctx, s.repo, caller, id)
}

func (s *Service) UpdateSessionStatus(ctx context.Context, caller Caller, id int64, status model.AppointmentStatus) (*model.Appointment, error) {
	if !status.Valid() {
		return nil, &ValidationError{Fields: []FieldError{{Field: "status", Msg: "must be scheduled, started, completed or canceled"}}}
	}
	return s.mutateAppointment(ctx, caller, id, func(a *model.Appointment) { a.Status = status })
}

func (s *Service) UpdateSessionNotes(ctx context.Context, caller Caller, id int64, notes, fullReport string) (*model.Appointment, error) {
	return s.mutateAppointment(ctx, caller, id, func(a *model.Appointment) {
		a.Notes = notes
		a.FullReport = fullReport
	})
}

func (s *Service) CancelAppointment(ctx context.Context, caller Caller, id int64) (*model.Appointment, error) {
	return s.mutateAppointment(ctx, caller, id, func(a *model.Appointment) { a.Status = model.Canceled })
}

type AppointmentPatch struct {
	Date        *string
	Time        *string
	Duration    *int
	Description *string
	Notes       *string
	FullReport  *string
	Status      *model.AppointmentStatus
}

func (p AppointmentPatch) validate() error {
	var v ValidationError
	if p.Date != nil && !validDate(*p.Date) {
		v.add("date", "must be YYYY-MM-DD")
	}
	if p.Time != nil && !validTime(*p.Time) {
		v.add("time", "must be HH:MM")
	}
	if p.Duration != nil && *p.Duration <= 0 {
		v.add("duration", "must be positive")
	}
	if p.Status != nil && !p.Status.Valid() {
		v.add("status", "must be scheduled, started, completed or canceled")
	}
	return v.err()
}

// UpdateAppointment merges the non-nil fields of patch into the appointment.
func (s *Service) UpdateAppointment(ctx context.Context, caller Caller, id int64, patch AppointmentPatch) (*model.Appointment, error) {
	if err := patch.validate(); err != nil {
		return nil, err
	}
	return s.mutateAppointment(ctx, caller, id, func(a *model.Appointment) {
		if patch.Date != nil {
			a.Date = *patch.Date
		}
		if patch.Time != nil {
			a.Time = *patch.Time
		}
		if patch.Duration != nil {
			a.Duration = *patch.Duration
		}
		if patch.Description != nil {
			a.Description = *patch.Description
		}
		if patch.Notes != nil {
			a.Notes = *patch.Notes
		}
		if patch.FullReport != nil {
			a.FullReport = *patch.FullReport
		}
		if patch.Status != nil {
			a.Status = *patch.Status
		}
	})
}

func (s *Service) mutateAppointment(ctx context.Context, caller Caller, id int64, fn func(*model.Appointment)) (*model.Appointment, error) {
	var out *model.Appointment
	err := s.repo.Atomic(ctx, func(r Repository) error {
		a, err := s.ownedAppointment(ctx, r, caller, id)
		if err != nil {
			return err
		}
		fn(a)
		out = a
		return r.UpdateAppointment(ctx, a)
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.AppointmentUpdated, out.ID, out.PsychologistID)
	return out, nil
}

// ownedAppointment loads an appointment the caller takes part in. Anything
// else is reported as missing so ids of other people's sessions do not leak.
func (s *Service) ownedAppointment(ctx context.Context, r Repository, caller Caller, id int64) (*model.Appointment, error) {
	a, err := r.AppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if caller.IsPsychologist() {
		if a.PsychologistID != caller.ID {
			return nil, ErrNotFound
		}
		return a, nil
	}
	ids, err := s.patientIDs(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	if !containsID(ids, a.PatientID) {
		return nil, ErrNotFound
	}
	return a, nil
}

// AvailableSlots is the catalog minus the times already taken by scheduled
// appointments of the psychologist on date, in catalog order. Durations are
// ignored: a 60 minute session only blocks its own start time.
func (s *Service) AvailableSlots(ctx context.Context, date string, psychologistID int64) ([]string, error) {
	var v ValidationError
	if !validDate(date) {
		v.add("date", "must be YYYY-MM-DD")
	}
	if psychologistID <= 0 {
		v.add("psychologist_id", "required")
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	booked, err := s.repo.FindAppointments(ctx, AppointmentFilter{
		PsychologistID: psychologistID,
		Date:           date,
		Status:         model.Scheduled,
	})
	if err != nil {
		return nil, err
	}
	return freeSlots(s.slots, booked), nil
}

func freeSlots(catalog []string, booked []model.Appointment) []string {
	taken := make(map[string]struct{}, len(booked))
	for _, a := range booked {
		taken[a.Time] = struct{}{}
	}
	out := make([]string, 0, len(catalog))
	for _, slot := range catalog {
		if _, ok := taken[slot]; !ok {
			out = append(out, slot)
		}
	}
	return out
}

func sortAppointments(apts []model.Appointment, asc bool) {
	sort.SliceStable(apts, func(i, j int) bool {
		ki := apts[i].Date + " " + apts[i].Time
		kj := apts[j].Date + " " + apts[j].Time
		if asc {
			return ki < kj
		}
		return ki > kj
	})
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
