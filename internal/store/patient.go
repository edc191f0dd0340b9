package store

import (
	"context"

	"lunysse-scheduler/internal/ledger"
	"lunysse-scheduler/internal/model"
)

const patientColumns = `id, name, email, phone, birth_date, status, psychologist_id`

func scanPatient(row interface{ Scan(...any) error }) (*model.Patient, error) {
	p := &model.Patient{}
	var psy *int64
	if err := row.Scan(&p.ID, &p.Name, &p.Email, &p.Phone, &p.BirthDate, &p.Status, &psy); err != nil {
		return nil, err
	}
	p.PsychologistID = fromNullID(psy)
	return p, nil
}

func (s *Store) InsertPatient(ctx context.Context, p *model.Patient) error {
	tag, err := s.q.Exec(ctx,
		`INSERT INTO patients (`+patientColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7)
		 ON CONFLICT (id) DO NOTHING`,
		p.ID, p.Name, p.Email, p.Phone, p.BirthDate, p.Status, nullID(p.PsychologistID),
	)
	return inserted("insert patient", tag, err)
}

func (s *Store) UpdatePatient(ctx context.Context, p *model.Patient) error {
	tag, err := s.q.Exec(ctx,
		`UPDATE patients SET name = $2, email = $3, phone = $4, birth_date = $5, status = $6,
		   psychologist_id = $7, updated_at = NOW()
		 WHERE id = $1`,
		p.ID, p.Name, p.Email, p.Phone, p.BirthDate, p.Status, nullID(p.PsychologistID),
	)
	return updated("update patient", tag, err)
}

func (s *Store) PatientByID(ctx context.Context, id int64) (*model.Patient, error) {
	p, err := scanPatient(s.q.QueryRow(ctx, `SELECT `+patientColumns+` FROM patients WHERE id = $1`, id))
	return p, mapErr("patient by id", err)
}

func (s *Store) FindPatients(ctx context.Context, f ledger.PatientFilter) ([]model.Patient, error) {
	var w where
	if f.PsychologistID != nil {
		if *f.PsychologistID == 0 {
			w.conds = append(w.conds, "psychologist_id IS NULL")
		} else {
			w.add("psychologist_id = ?", *f.PsychologistID)
		}
	}
	if f.Email != "" {
		w.add("email = ?", f.Email)
	}
	rows, err := s.q.Query(ctx, `SELECT `+patientColumns+` FROM patients`+w.String()+` ORDER BY id`, w.args...)
	if err != nil {
		return nil, mapErr("find patients", err)
	}
	defer rows.Close()

	out := []model.Patient{}
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, mapErr("find patients", err)
		}
		out = append(out, *p)
	}
	return out, mapErr("find patients", rows.Err())
}
