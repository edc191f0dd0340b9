package ledger

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"lunysse-scheduler/internal/auth"
	"lunysse-scheduler/internal/events"
	"lunysse-scheduler/internal/model"
)

const minPasswordLen = 6

type RegisterInput struct {
	Email           string
	Password        string
	ConfirmPassword string
	Name            string
	Type            model.UserType
	Phone           string
	Specialty       string
	LicenseID       string
	BirthDate       string
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)

	var v ValidationError
	checkEmail(&v, "email", in.Email)
	if in.Name == "" {
		v.add("name", "required")
	}
	if len(in.Password) < minPasswordLen {
		v.add("password", "must have at least 6 characters")
	}
	if in.ConfirmPassword != "" && in.ConfirmPassword != in.Password {
		v.add("confirm_password", "passwords do not match")
	}
	switch in.Type {
	case model.Psychologist:
		if strings.TrimSpace(in.LicenseID) == "" {
			v.add("license_id", "required for psychologists")
		}
	case model.PatientUser:
		if !validDate(in.BirthDate) {
			v.add("birth_date", "must be YYYY-MM-DD")
		} else if in.BirthDate > s.Today().Format(dateLayout) {
			v.add("birth_date", "cannot be in the future")
		}
	default:
		v.add("type", "must be psychologist or patient")
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password, s.hashCost)
	if err != nil {
		return nil, err
	}

	u := &model.User{
		Email:        in.Email,
		PasswordHash: hash,
		Type:         in.Type,
		Name:         in.Name,
		Phone:        in.Phone,
		CreatedAt:    s.now().UTC(),
	}
	if in.Type == model.Psychologist {
		u.Specialty = in.Specialty
		u.LicenseID = in.LicenseID
	} else {
		u.BirthDate = in.BirthDate
	}

	err = s.withFreshIDs(func() error {
		u.ID = s.ids.next()
		return s.repo.Atomic(ctx, func(r Repository) error { return s.createUser(ctx, r, u) })
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.UserRegistered, u.ID, 0)
	return u, nil
}

func (s *Service) createUser(ctx context.Context, r Repository, u *model.User) error {
	if _, err := r.UserByEmail(ctx, u.Email); err == nil {
		return ErrDuplicate
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	if err := r.CreateUser(ctx, u); err != nil {
		return err
	}
	if u.Type != model.PatientUser {
		return nil
	}

	// self-signup gets an unassigned patient record sharing the user id
	unassigned := int64(0)
	existing, err := r.FindPatients(ctx, PatientFilter{PsychologistID: &unassigned, Email: u.Email})
	if err != nil || len(existing) > 0 {
		return err
	}
	return r.InsertPatient(ctx, &model.Patient{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		BirthDate: u.BirthDate,
		Age:       Age(u.BirthDate, s.now()),
		Status:    model.PatientActive,
	})
}

func (s *Service) Login(ctx context.Context, email, password string) (*model.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		v := ValidationError{}
		if email == "" {
			v.add("email", "required")
		}
		if password == "" {
			v.add("password", "required")
		}
		return nil, &v
	}

	u, err := s.repo.UserByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrAuthFailed
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, ErrAuthFailed
	}
	return u, nil
}

func (s *Service) User(ctx context.Context, id int64) (*model.User, error) {
	return s.repo.UserByID(ctx, id)
}

// Psychologists lists the public directory, without contact details.
func (s *Service) Psychologists(ctx context.Context) ([]model.User, error) {
	users, err := s.repo.ListUsers(ctx, model.Psychologist)
	if err != nil {
		return nil, err
	}
	out := make([]model.User, len(users))
	for i, u := range users {
		out[i] = model.User{
			ID:        u.ID,
			Type:      u.Type,
			Name:      u.Name,
			Specialty: u.Specialty,
			LicenseID: u.LicenseID,
		}
	}
	return out, nil
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

func checkEmail(v *ValidationError, field, email string) {
	if email == "" {
		v.add(field, "required")
		return
	}
	if a, err := mail.ParseAddress(email); err != nil || a.Address != email {
		v.add(field, "invalid email address")
	}
}
