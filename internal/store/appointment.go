package store

import (
	"context"

	"lunysse-scheduler/internal/ledger"
	"lunysse-scheduler/internal/model"
)

const appointmentColumns = `id, patient_id, psychologist_id, date, time, duration, status, description, notes, full_report`

func scanAppointment(row interface{ Scan(...any) error }) (*model.Appointment, error) {
	a := &model.Appointment{}
	err := row.Scan(&a.ID, &a.PatientID, &a.PsychologistID, &a.Date, &a.Time,
		&a.Duration, &a.Status, &a.Description, &a.Notes, &a.FullReport)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Store) InsertAppointment(ctx context.Context, a *model.Appointment) error {
	tag, err := s.q.Exec(ctx,
		`INSERT INTO appointments (`+appointmentColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		 ON CONFLICT (id) DO NOTHING`,
		a.ID, a.PatientID, a.PsychologistID, a.Date, a.Time, a.Duration, a.Status, a.Description, a.Notes, a.FullReport,
	)
	return inserted("insert appointment", tag, err)
}

func (s *Store) UpdateAppointment(ctx context.Context, a *model.Appointment) error {
	tag, err := s.q.Exec(ctx,
		`UPDATE appointments SET date = $2, time = $3, duration = $4, status = $5,
		   description = $6, notes = $7, full_report = $8, updated_at = NOW()
		 WHERE id = $1`,
		a.ID, a.Date, a.Time, a.Duration, a.Status, a.Description, a.Notes, a.FullReport,
	)
	return updated("update appointment", tag, err)
}

func (s *Store) AppointmentByID(ctx context.Context, id int64) (*model.Appointment, error) {
	a, err := scanAppointment(s.q.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id))
	return a, mapErr("appointment by id", err)
}

func (s *Store) FindAppointments(ctx context.Context, f ledger.AppointmentFilter) ([]model.Appointment, error) {
	var w where
	if f.PsychologistID != 0 {
		w.add("psychologist_id = ?", f.PsychologistID)
	}
	if f.PatientIDs != nil {
		w.add("patient_id = ANY(?)", f.PatientIDs)
	}
	if f.Date != "" {
		w.add("date = ?", f.Date)
	}
	if f.Status != "" {
		w.add("status = ?", f.Status)
	}
	rows, err := s.q.Query(ctx, `SELECT `+appointmentColumns+` FROM appointments`+w.String()+` ORDER BY id`, w.args...)
	if err != nil {
		return nil, mapErr("find appointments", err)
	}
	defer rows.Close()

	out := []model.Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, mapErr("find appointments", err)
		}
		out = append(out, *a)
	}
	return out, mapErr("find appointments", rows.Err())
}
