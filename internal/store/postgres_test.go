package store_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lunysse-scheduler/internal/ledger"
	"lunysse-scheduler/internal/model"
	"lunysse-scheduler/internal/store"
)

func setupPostgres(t *testing.T) *store.Store {
	t.Helper()
	_ = godotenv.Load("../../.env")
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}
	pool, err := pgxpool.New(context.Background(), dbURL)
	if err != nil {
		t.Fatalf("db: %v", err)
	}
	t.Cleanup(pool.Close)

	script, err := os.ReadFile("../../db/migrations/001_init.sql")
	require.NoError(t, err)
	st := store.New(pool)
	require.NoError(t, st.Migrate(context.Background(), string(script)))
	return st
}

// base keeps ids from different runs apart.
func base() int64 { return time.Now().UnixNano() / 1000 }

func TestPostgresLedgerRoundTrip(t *testing.T) {
	st := setupPostgres(t)
	ctx := context.Background()
	id := base()

	psy := &model.User{ID: id, Email: fmt.Sprintf("psy-%d@test.com", id),
		PasswordHash: "x", Type: model.Psychologist, Name: "Psy", LicenseID: "CRP 1", CreatedAt: time.Now().UTC()}
	require.NoError(t, st.CreateUser(ctx, psy))
	assert.ErrorIs(t, st.CreateUser(ctx, psy), ledger.ErrIDTaken)
	other := *psy
	other.ID = id + 100
	assert.ErrorIs(t, st.CreateUser(ctx, &other), ledger.ErrDuplicate)

	got, err := st.UserByEmail(ctx, psy.Email)
	require.NoError(t, err)
	assert.Equal(t, psy.ID, got.ID)
	assert.Equal(t, model.Psychologist, got.Type)

	pat := &model.Patient{ID: id + 1, Name: "Pat", Email: "pat@test.com", Status: model.PatientActive, PsychologistID: id}
	require.NoError(t, st.InsertPatient(ctx, pat))
	dup := *pat
	dup.ID = id + 2
	assert.ErrorIs(t, st.InsertPatient(ctx, &dup), ledger.ErrDuplicate)
	clash := *pat
	clash.Email = "other@test.com"
	assert.ErrorIs(t, st.InsertPatient(ctx, &clash), ledger.ErrIDTaken)
	pat.Phone = "11 99999-0000"
	require.NoError(t, st.UpdatePatient(ctx, pat))
	assert.ErrorIs(t, st.UpdatePatient(ctx, &model.Patient{ID: -1, Email: "x@test.com", Status: model.PatientActive}), ledger.ErrNotFound)

	unassigned := &model.Patient{ID: id + 3, Name: "Self", Email: fmt.Sprintf("self-%d@test.com", id), Status: model.PatientActive}
	require.NoError(t, st.InsertPatient(ctx, unassigned))
	back, err := st.PatientByID(ctx, unassigned.ID)
	require.NoError(t, err)
	assert.Zero(t, back.PsychologistID)

	apt := &model.Appointment{ID: id + 4, PatientID: pat.ID, PsychologistID: id, Date: "2024-12-20",
		Time: "10:00", Duration: 50, Status: model.Scheduled}
	require.NoError(t, st.InsertAppointment(ctx, apt))
	assert.ErrorIs(t, st.InsertAppointment(ctx, apt), ledger.ErrIDTaken)
	apts, err := st.FindAppointments(ctx, ledger.AppointmentFilter{PsychologistID: id, Date: "2024-12-20", Status: model.Scheduled})
	require.NoError(t, err)
	require.Len(t, apts, 1)
	assert.Equal(t, "10:00", apts[0].Time)

	apts, err = st.FindAppointments(ctx, ledger.AppointmentFilter{PatientIDs: []int64{pat.ID}})
	require.NoError(t, err)
	assert.Len(t, apts, 1)

	req := &model.Request{ID: id + 5, PatientName: "Pat", PatientEmail: "new@test.com", PreferredPsychologist: id,
		Urgency: model.UrgencyHigh, PreferredTimes: []string{"09:00"}, Status: model.Pending, CreatedAt: time.Now().UTC()}
	require.NoError(t, st.InsertRequest(ctx, req))
	second := *req
	second.ID = id + 6
	assert.ErrorIs(t, st.InsertRequest(ctx, &second), ledger.ErrDuplicate)
	second = *req
	second.PatientEmail = "else@test.com"
	assert.ErrorIs(t, st.InsertRequest(ctx, &second), ledger.ErrIDTaken)

	r, err := st.RequestByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00"}, r.PreferredTimes)
	assert.Empty(t, r.PreferredDates)
	assert.Nil(t, r.UpdatedAt)

	_, err = st.RequestByID(ctx, -1)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestPostgresAtomicRollsBack(t *testing.T) {
	st := setupPostgres(t)
	ctx := context.Background()
	id := base()
	boom := errors.New("boom")

	err := st.Atomic(ctx, func(r ledger.Repository) error {
		require.NoError(t, r.InsertPatient(ctx, &model.Patient{ID: id, Name: "Tx", Email: "tx@test.com", Status: model.PatientActive}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = st.PatientByID(ctx, id)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}
