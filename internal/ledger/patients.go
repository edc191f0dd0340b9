package ledger

import (
	"context"
	"strings"
	"time"

	"lunysse-scheduler/internal/events"
	"lunysse-scheduler/internal/model"
)

// Age returns full years between birthDate and today, or 0 when birthDate is
// not a valid date.
func Age(birthDate string, today time.Time) int {
	b, err := time.Parse(dateLayout, birthDate)
	if err != nil {
		return 0
	}
	age := today.Year() - b.Year()
	if today.Month() < b.Month() || (today.Month() == b.Month() && today.Day() < b.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

// Patients lists a psychologist's patients with their session counts.
func (s *Service) Patients(ctx context.Context, psychologistID int64) ([]model.Patient, error) {
	pats, err := s.repo.FindPatients(ctx, PatientFilter{PsychologistID: &psychologistID})
	if err != nil {
		return nil, err
	}
	apts, err := s.repo.FindAppointments(ctx, AppointmentFilter{PsychologistID: psychologistID})
	if err != nil {
		return nil, err
	}

	sessions := make(map[int64]int, len(pats))
	for _, a := range apts {
		sessions[a.PatientID]++
	}
	today := s.now()
	for i := range pats {
		pats[i].TotalSessions = sessions[pats[i].ID]
		pats[i].Age = Age(pats[i].BirthDate, today)
	}
	return pats, nil
}

type PatientInput struct {
	Name      string
	Email     string
	Phone     string
	BirthDate string
	Status    model.PatientStatus
}

func (in *PatientInput) validate() error {
	var v ValidationError
	if strings.TrimSpace(in.Name) == "" {
		v.add("name", "required")
	}
	checkEmail(&v, "email", in.Email)
	if in.BirthDate != "" && !validDate(in.BirthDate) {
		v.add("birth_date", "must be YYYY-MM-DD")
	}
	if in.Status != "" && !in.Status.Valid() {
		v.add("status", "must be active or in_treatment")
	}
	return v.err()
}

// CreatePatient registers a patient directly under a psychologist. A second
// record for the same (email, psychologist) fails with ErrDuplicate.
func (s *Service) CreatePatient(ctx context.Context, psychologistID int64, in PatientInput) (*model.Patient, error) {
	in.Email = normalizeEmail(in.Email)
	if err := in.validate(); err != nil {
		return nil, err
	}

	p := &model.Patient{
		Name:           strings.TrimSpace(in.Name),
		Email:          in.Email,
		Phone:          in.Phone,
		BirthDate:      in.BirthDate,
		Age:            Age(in.BirthDate, s.now()),
		Status:         model.PatientActive,
		PsychologistID: psychologistID,
	}
	if in.Status != "" {
		p.Status = in.Status
	}

	err := s.withFreshIDs(func() error {
		p.ID = s.ids.next()
		return s.repo.Atomic(ctx, func(r Repository) error {
			dup, err := r.FindPatients(ctx, PatientFilter{PsychologistID: &psychologistID, Email: p.Email})
			if err != nil {
				return err
			}
			if len(dup) > 0 {
				return ErrDuplicate
			}
			return r.InsertPatient(ctx, p)
		})
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.PatientSaved, p.ID, psychologistID)
	return p, nil
}

type PatientPatch struct {
	Name      *string
	Phone     *string
	BirthDate *string
	Status    *model.PatientStatus
}

func (s *Service) UpdatePatient(ctx context.Context, caller Caller, id int64, patch PatientPatch) (*model.Patient, error) {
	var v ValidationError
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		v.add("name", "cannot be empty")
	}
	if patch.BirthDate != nil && !validDate(*patch.BirthDate) {
		v.add("birth_date", "must be YYYY-MM-DD")
	}
	if patch.Status != nil && !patch.Status.Valid() {
		v.add("status", "must be active or in_treatment")
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	var out *model.Patient
	err := s.repo.Atomic(ctx, func(r Repository) error {
		p, err := r.PatientByID(ctx, id)
		if err != nil {
			return err
		}
		if !caller.IsPsychologist() || p.PsychologistID != caller.ID {
			return ErrNotFound
		}
		if patch.Name != nil {
			p.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Phone != nil {
			p.Phone = *patch.Phone
		}
		if patch.BirthDate != nil {
			p.BirthDate = *patch.BirthDate
		}
		if patch.Status != nil {
			p.Status = *patch.Status
		}
		p.Age = Age(p.BirthDate, s.now())
		out = p
		return r.UpdatePatient(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.PatientSaved, out.ID, out.PsychologistID)
	return out, nil
}

// PatientDetails returns the patient with its session count. Records that
// belong to someone else are reported as missing.
func (s *Service) PatientDetails(ctx context.Context, caller Caller, id int64) (*model.Patient, error) {
	p, err := s.repo.PatientByID(ctx, id)
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
	p.TotalSessions = len(apts)
	p.Age = Age(p.BirthDate, s.now())
	return p, nil
}

func (s *Service) PatientSessions(ctx context.Context, caller Caller, id int64) ([]model.Appointment, error) {
	p, err := s.repo.PatientByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkPatientAccess(ctx, caller, p); err != nil {
		return nil, err
	}
	f := AppointmentFilter{PatientIDs: []int64{p.ID}}
	if caller.IsPsychologist() {
		f.PsychologistID = caller.ID
	}
	apts, err := s.repo.FindAppointments(ctx, f)
	if err != nil {
		return nil, err
	}
	sortAppointments(apts, false)
	return apts, nil
}

func (s *Service) checkPatientAccess(ctx context.Context, caller Caller, p *model.Patient) error {
	if caller.IsPsychologist() {
		if p.PsychologistID != caller.ID {
			return ErrNotFound
		}
		return nil
	}
	ids, err := s.patientIDs(ctx, caller.ID)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == p.ID {
			return nil
		}
	}
	return ErrNotFound
}

// patientIDs resolves every patient record that belongs to a patient user:
// the self-signup record plus any record a psychologist created for the same
// email.
func (s *Service) patientIDs(ctx context.Context, userID int64) ([]int64, error) {
	u, err := s.repo.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := []int64{u.ID}
	pats, err := s.repo.FindPatients(ctx, PatientFilter{Email: u.Email})
	if err != nil {
		return nil, err
	}
	for _, p := range pats {
		if p.ID != u.ID {
			ids = append(ids, p.ID)
		}
	}
	return ids, nil
}
