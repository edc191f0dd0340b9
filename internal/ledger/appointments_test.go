package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lunysse-scheduler/internal/events"
	"lunysse-scheduler/internal/ledger"
	"lunysse-scheduler/internal/model"
	"lunysse-scheduler/internal/store"
)

func TestAvailableSlotsExcludesBookedTime(t *testing.T) {
	svc, _ := newService(t, store.NewMemory(), fixedNow)
	ctx := context.Background()
	psy := registerPsychologist(t, svc, "psy@test.com")
	p := addPatient(t, svc, psy, "p@test.com")

	_, err := svc.CreateAppointment(ctx, psy, ledger.AppointmentInput{PatientID: p.ID, Date: "2024-12-20", Time: "10:00"})
	require.NoError(t, err)

	slots, err := svc.AvailableSlots(ctx, "2024-12-20", psy.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "11:00", "14:00", "15:00", "16:00", "17:00"}, slots)

	other, err := svc.AvailableSlots(ctx, "2024-12-21", psy.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.DefaultSlots, other)
}

func TestAvailableSlotsOnlyCountsScheduled(t *testing.T) {
	svc, _ := seededService(t)
	ctx := context.Background()

	// appointment 9 holds 15:00 on 2024-12-20 for Ana
	slots, err := svc.AvailableSlots(ctx, "2024-12-20", ana.ID)
	require.NoError(t, err)
	assert.NotContains(t, slots, "15:00")

	// Carlos is free at that time
	slots, err = svc.AvailableSlots(ctx, "2024-12-20", carlo.ID)
	require.NoError(t, err)
	assert.Contains(t, slots, "15:00")

	_, err = svc.CancelAppointment(ctx, ana, 9)
	require.NoError(t, err)
	slots, err = svc.AvailableSlots(ctx, "2024-12-20", ana.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.DefaultSlots, slots)

	for _, s := range slots {
		assert.Contains(t, svc.Slots(), s)
	}
}

func TestAvailableSlotsCustomCatalog(t *testing.T) {
	mem := store.NewSeededMemory(store.Fixtures{Now: clock(fixedNow)})
	svc := ledger.New(mem, ledger.WithClock(clock(fixedNow)), ledger.WithSlots([]string{"08:00", "15:00", "19:00"}))

	slots, err := svc.AvailableSlots(context.Background(), "2024-12-20", ana.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"08:00", "19:00"}, slots)
}

func TestAvailableSlotsValidation(t *testing.T) {
	svc, _ := seededService(t)

	_, err := svc.AvailableSlots(context.Background(), "20/12/2024", ana.ID)
	assert.ErrorIs(t, err, ledger.ErrValidation)
	_, err = svc.AvailableSlots(context.Background(), "2024-12-20", 0)
	assert.ErrorIs(t, err, ledger.ErrValidation)
}

func TestCreateAppointment(t *testing.T) {
	svc, rec := seededService(t)
	ctx := context.Background()

	a, err := svc.CreateAppointment(ctx, ana, ledger.AppointmentInput{
		PatientID: 6, PsychologistID: 99, Date: "2024-12-23", Time: "09:00", Description: "follow-up",
	})
	require.NoError(t, err)
	assert.Equal(t, ana.ID, a.PsychologistID, "psychologist is always the caller")
	assert.Equal(t, model.Scheduled, a.Status)
	assert.Equal(t, 50, a.Duration)
	assert.Equal(t, []events.Kind{events.AppointmentCreated}, rec.kinds())

	// overlapping bookings are accepted
	_, err = svc.CreateAppointment(ctx, ana, ledger.AppointmentInput{PatientID: 7, Date: "2024-12-23", Time: "09:00"})
	require.NoError(t, err)

	// patient books for themselves
	own, err := svc.CreateAppointment(ctx, maria, ledger.AppointmentInput{PsychologistID: ana.ID, Date: "2024-12-24", Time: "11:00", Duration: 60})
	require.NoError(t, err)
	assert.Equal(t, maria.ID, own.PatientID)
	assert.Equal(t, 60, own.Duration)
}

func TestCreateAppointmentRejects(t *testing.T) {
	svc, _ := seededService(t)

	tests := []struct {
		name   string
		caller ledger.Caller
		in     ledger.AppointmentInput
	}{
		{"bad date", ana, ledger.AppointmentInput{PatientID: 6, Date: "tomorrow", Time: "09:00"}},
		{"bad time", ana, ledger.AppointmentInput{PatientID: 6, Date: "2024-12-23", Time: "9h"}},
		{"missing patient", ana, ledger.AppointmentInput{Date: "2024-12-23", Time: "09:00"}},
		{"someone else's patient", ana, ledger.AppointmentInput{PatientID: 9, Date: "2024-12-23", Time: "09:00"}},
		{"unknown patient", ana, ledger.AppointmentInput{PatientID: 404, Date: "2024-12-23", Time: "09:00"}},
		{"patient books for another", maria, ledger.AppointmentInput{PatientID: 6, PsychologistID: ana.ID, Date: "2024-12-23", Time: "09:00"}},
		{"patient picks a patient", maria, ledger.AppointmentInput{PsychologistID: maria.ID, Date: "2024-12-23", Time: "09:00"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateAppointment(context.Background(), tt.caller, tt.in)
			assert.ErrorIs(t, err, ledger.ErrValidation)
		})
	}
}

func TestUpdateSessionStatusAndNotes(t *testing.T) {
	svc, rec := seededService(t)
	ctx := context.Background()

	for _, st := range []model.AppointmentStatus{model.Started, model.Completed, model.Scheduled, model.Canceled} {
		a, err := svc.UpdateSessionStatus(ctx, ana, 9, st)
		require.NoError(t, err)
		assert.Equal(t, st, a.Status)
	}
	assert.Len(t, rec.kinds(), 4)

	_, err := svc.UpdateSessionStatus(ctx, ana, 9, "rescheduled")
	assert.ErrorIs(t, err, ledger.ErrValidation)
	_, err = svc.UpdateSessionStatus(ctx, ana, 404, model.Completed)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
	_, err = svc.UpdateSessionStatus(ctx, carlo, 9, model.Completed)
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	a, err := svc.UpdateSessionNotes(ctx, ana, 8, "short", "long report")
	require.NoError(t, err)
	assert.Equal(t, "short", a.Notes)
	assert.Equal(t, "long report", a.FullReport)

	got, err := svc.SessionDetails(ctx, maria, 8)
	require.NoError(t, err)
	assert.Equal(t, "long report", got.FullReport)

	_, err = svc.SessionDetails(ctx, maria, 9)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestUpdateAppointmentMergesPatch(t *testing.T) {
	svc, _ := seededService(t)
	ctx := context.Background()

	date, tm := "2024-12-27", "16:00"
	a, err := svc.UpdateAppointment(ctx, ana, 9, ledger.AppointmentPatch{Date: &date, Time: &tm})
	require.NoError(t, err)
	assert.Equal(t, date, a.Date)
	assert.Equal(t, tm, a.Time)
	assert.Equal(t, "Follow-up session", a.Description)
	assert.Equal(t, 50, a.Duration)

	bad := 0
	_, err = svc.UpdateAppointment(ctx, ana, 9, ledger.AppointmentPatch{Duration: &bad})
	assert.ErrorIs(t, err, ledger.ErrValidation)
}

func TestAppointmentsForAndByEmail(t *testing.T) {
	svc, _ := seededService(t)
	ctx := context.Background()

	mine, err := svc.AppointmentsFor(ctx, ana, ledger.AppointmentFilter{PsychologistID: carlo.ID})
	require.NoError(t, err)
	assert.Equal(t, []int64{19, 18, 10, 17, 8, 21, 9}, ids(mine))

	scheduled, err := svc.AppointmentsFor(ctx, maria, ledger.AppointmentFilter{Status: model.Scheduled})
	require.NoError(t, err)
	assert.Equal(t, []int64{21}, ids(scheduled))

	byEmail, err := svc.AppointmentsByEmail(ctx, ana, " Paciente@Test.com")
	require.NoError(t, err)
	assert.Equal(t, []int64{19, 18, 17, 8, 21}, ids(byEmail))

	none, err := svc.AppointmentsByEmail(ctx, ana, "nobody@test.com")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAppointmentsByEmailScopedToCaller(t *testing.T) {
	svc, _ := seededService(t)
	ctx := context.Background()

	// paciente@test.com only has sessions with ana
	others, err := svc.AppointmentsByEmail(ctx, carlo, "paciente@test.com")
	require.NoError(t, err)
	assert.Empty(t, others)

	_, err = svc.AppointmentsByEmail(ctx, maria, "paciente@test.com")
	assert.ErrorIs(t, err, ledger.ErrForbidden)
}
