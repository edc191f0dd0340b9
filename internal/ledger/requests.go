package ledger

import (
	"context"
	"errors"
	"sort"
	"strings"

	"lunysse-scheduler/internal/events"
	"lunysse-scheduler/internal/model"
)

type RequestInput struct {
	PatientName    string
	PatientEmail   string
	PatientPhone   string
	PsychologistID int64
	Description    string
	Urgency        model.Urgency
	PreferredDates []string
	PreferredTimes []string
}

// CreateRequest files a new pending request. Only one pending request may
// exist per (email, psychologist).
func (s *Service) CreateRequest(ctx context.Context, in RequestInput) (*model.Request, error) {
	in.PatientEmail = normalizeEmail(in.PatientEmail)
	in.PatientName = strings.TrimSpace(in.PatientName)
	if in.Urgency == "" {
		in.Urgency = model.UrgencyMedium
	}

	var v ValidationError
	if in.PatientName == "" {
		v.add("patient_name", "required")
	}
	checkEmail(&v, "patient_email", in.PatientEmail)
	if in.PsychologistID <= 0 {
		v.add("preferred_psychologist", "required")
	}
	if !in.Urgency.Valid() {
		v.add("urgency", "must be low, medium or high")
	}
	for _, d := range in.PreferredDates {
		if !validDate(d) {
			v.add("preferred_dates", "must be YYYY-MM-DD")
			break
		}
	}
	for _, t := range in.PreferredTimes {
		if !validTime(t) {
			v.add("preferred_times", "must be HH:MM")
			break
		}
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	req := &model.Request{
		PatientName:           in.PatientName,
		PatientEmail:          in.PatientEmail,
		PatientPhone:          in.PatientPhone,
		PreferredPsychologist: in.PsychologistID,
		Description:           in.Description,
		Urgency:               in.Urgency,
		PreferredDates:        in.PreferredDates,
		PreferredTimes:        in.PreferredTimes,
		Status:                model.Pending,
		CreatedAt:             s.now().UTC(),
	}

	err := s.withFreshIDs(func() error {
		req.ID = s.ids.next()
		return s.repo.Atomic(ctx, func(r Repository) error { return s.fileRequest(ctx, r, req) })
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.RequestCreated, req.ID, req.PreferredPsychologist)
	return req, nil
}

func (s *Service) fileRequest(ctx context.Context, r Repository, req *model.Request) error {
	psy, err := r.UserByID(ctx, req.PreferredPsychologist)
	if errors.Is(err, ErrNotFound) || (err == nil && psy.Type != model.Psychologist) {
		return &ValidationError{Fields: []FieldError{{Field: "preferred_psychologist", Msg: "unknown psychologist"}}}
	}
	if err != nil {
		return err
	}

	pending, err := r.FindRequests(ctx, RequestFilter{
		Email:          req.PatientEmail,
		PsychologistID: req.PreferredPsychologist,
		Status:         model.Pending,
	})
	if err != nil {
		return err
	}
	if len(pending) > 0 {
		return ErrDuplicate
	}
	return r.InsertRequest(ctx, req)
}

// ListRequests is psychologist-only; requests stay visible to every
// psychologist until one of them acts on it.
func (s *Service) ListRequests(ctx context.Context, caller Caller, f RequestFilter) ([]model.Request, error) {
	if !caller.IsPsychologist() {
		return nil, ErrForbidden
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, &ValidationError{Fields: []FieldError{{Field: "status", Msg: "must be pending, accepted or rejected"}}}
	}
	reqs, err := s.repo.FindRequests(ctx, f)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(reqs, func(i, j int) bool { return reqs[i].CreatedAt.After(reqs[j].CreatedAt) })
	return reqs, nil
}

// UpdateRequestStatus overwrites status and notes unconditionally.
func (s *Service) UpdateRequestStatus(ctx context.Context, id int64, status model.RequestStatus, notes string) (*model.Request, error) {
	if !status.Valid() {
		return nil, &ValidationError{Fields: []FieldError{{Field: "status", Msg: "must be pending, accepted or rejected"}}}
	}
	var out *model.Request
	err := s.repo.Atomic(ctx, func(r Repository) error {
		var err error
		out, err = s.setRequestStatus(ctx, r, id, status, notes)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.RequestUpdated, out.ID, out.PreferredPsychologist)
	return out, nil
}

func (s *Service) setRequestStatus(ctx context.Context, r Repository, id int64, status model.RequestStatus, notes string) (*model.Request, error) {
	req, err := r.RequestByID(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	req.Status = status
	req.Notes = notes
	req.UpdatedAt = &now
	if err := r.UpdateRequest(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// AcceptRequest takes the sender on as a patient of the calling
// psychologist: the (email, psychologist) patient record is updated when it
// exists and created otherwise, then the request is marked accepted.
func (s *Service) AcceptRequest(ctx context.Context, caller Caller, id int64, notes string) (*model.Request, *model.Patient, error) {
	if !caller.IsPsychologist() {
		return nil, nil, ErrForbidden
	}
	if notes == "" {
		notes = "patient accepted"
	}

	var (
		req *model.Request
		pat *model.Patient
	)
	err := s.withFreshIDs(func() error {
		return s.repo.Atomic(ctx, func(r Repository) error {
			cur, err := r.RequestByID(ctx, id)
			if err != nil {
				return err
			}

			existing, err := r.FindPatients(ctx, PatientFilter{PsychologistID: &caller.ID, Email: cur.PatientEmail})
			if err != nil {
				return err
			}
			if len(existing) > 0 {
				pat = &existing[0]
				pat.Name = cur.PatientName
				if cur.PatientPhone != "" {
					pat.Phone = cur.PatientPhone
				}
				err = r.UpdatePatient(ctx, pat)
			} else {
				pat = &model.Patient{
					ID:             s.ids.next(),
					Name:           cur.PatientName,
					Email:          cur.PatientEmail,
					Phone:          cur.PatientPhone,
					Status:         model.PatientActive,
					PsychologistID: caller.ID,
				}
				err = r.InsertPatient(ctx, pat)
			}
			if err != nil {
				return err
			}

			req, err = s.setRequestStatus(ctx, r, id, model.Accepted, notes)
			return err
		})
	})
	if err != nil {
		return nil, nil, err
	}

	s.publish(ctx, events.PatientSaved, pat.ID, caller.ID)
	s.publish(ctx, events.RequestUpdated, req.ID, req.PreferredPsychologist)
	return req, pat, nil
}

func (s *Service) RejectRequest(ctx context.Context, caller Caller, id int64, notes string) (*model.Request, error) {
	if !caller.IsPsychologist() {
		return nil, ErrForbidden
	}
	if notes == "" {
		notes = "request rejected"
	}
	return s.UpdateRequestStatus(ctx, id, model.Rejected, notes)
}
