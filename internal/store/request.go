package store

import (
	"context"

	"lunysse-scheduler/internal/ledger"
	"lunysse-scheduler/internal/model"
)

const requestColumns = `id, patient_name, patient_email, patient_phone, preferred_psychologist, description,
	urgency, preferred_dates, preferred_times, status, notes, created_at, updated_at`

func scanRequest(row interface{ Scan(...any) error }) (*model.Request, error) {
	r := &model.Request{}
	err := row.Scan(&r.ID, &r.PatientName, &r.PatientEmail, &r.PatientPhone, &r.PreferredPsychologist,
		&r.Description, &r.Urgency, &r.PreferredDates, &r.PreferredTimes, &r.Status, &r.Notes,
		&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func orEmpty(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

// InsertRequest relies on the partial unique index over pending requests, so
// a second pending (email, psychologist) pair fails with ledger.ErrDuplicate.
func (s *Store) InsertRequest(ctx context.Context, r *model.Request) error {
	tag, err := s.q.Exec(ctx,
		`INSERT INTO requests (`+requestColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		 ON CONFLICT (id) DO NOTHING`,
		r.ID, r.PatientName, r.PatientEmail, r.PatientPhone, r.PreferredPsychologist, r.Description,
		r.Urgency, orEmpty(r.PreferredDates), orEmpty(r.PreferredTimes), r.Status, r.Notes, r.CreatedAt, r.UpdatedAt,
	)
	return inserted("insert request", tag, err)
}

func (s *Store) UpdateRequest(ctx context.Context, r *model.Request) error {
	tag, err := s.q.Exec(ctx,
		`UPDATE requests SET status = $2, notes = $3, updated_at = $4 WHERE id = $1`,
		r.ID, r.Status, r.Notes, r.UpdatedAt,
	)
	return updated("update request", tag, err)
}

func (s *Store) RequestByID(ctx context.Context, id int64) (*model.Request, error) {
	r, err := scanRequest(s.q.QueryRow(ctx, `SELECT `+requestColumns+` FROM requests WHERE id = $1`, id))
	return r, mapErr("request by id", err)
}

func (s *Store) FindRequests(ctx context.Context, f ledger.RequestFilter) ([]model.Request, error) {
	var w where
	if f.Email != "" {
		w.add("patient_email = ?", f.Email)
	}
	if f.PsychologistID != 0 {
		w.add("preferred_psychologist = ?", f.PsychologistID)
	}
	if f.Status != "" {
		w.add("status = ?", f.Status)
	}
	rows, err := s.q.Query(ctx, `SELECT `+requestColumns+` FROM requests`+w.String()+` ORDER BY id`, w.args...)
	if err != nil {
		return nil, mapErr("find requests", err)
	}
	defer rows.Close()

	out := []model.Request{}
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, mapErr("find requests", err)
		}
		out = append(out, *r)
	}
	return out, mapErr("find requests", rows.Err())
}
