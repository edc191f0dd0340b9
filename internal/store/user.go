package store

import (
	"context"

	"lunysse-scheduler/internal/model"
)

const userColumns = `id, email, password_hash, type, name, phone, specialty, license_id, birth_date, created_at`

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Type, &u.Name,
		&u.Phone, &u.Specialty, &u.LicenseID, &u.BirthDate, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	tag, err := s.q.Exec(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		 ON CONFLICT (id) DO NOTHING`,
		u.ID, u.Email, u.PasswordHash, u.Type, u.Name, u.Phone, u.Specialty, u.LicenseID, u.BirthDate, u.CreatedAt,
	)
	return inserted("create user", tag, err)
}

func (s *Store) UserByID(ctx context.Context, id int64) (*model.User, error) {
	u, err := scanUser(s.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	return u, mapErr("user by id", err)
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(s.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	return u, mapErr("user by email", err)
}

func (s *Store) ListUsers(ctx context.Context, typ model.UserType) ([]model.User, error) {
	var w where
	if typ != "" {
		w.add("type = ?", typ)
	}
	rows, err := s.q.Query(ctx, `SELECT `+userColumns+` FROM users`+w.String()+` ORDER BY id`, w.args...)
	if err != nil {
		return nil, mapErr("list users", err)
	}
	defer rows.Close()

	out := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, mapErr("list users", err)
		}
		out = append(out, *u)
	}
	return out, mapErr("list users", rows.Err())
}
