package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lunysse-scheduler/internal/ledger"
	"lunysse-scheduler/internal/model"
	"lunysse-scheduler/internal/store"
)

func TestCompletionRate(t *testing.T) {
	tests := []struct {
		completed, total int
		want             float64
	}{
		{0, 0, 0},
		{3, 4, 75.0},
		{1, 3, 33.3},
		{2, 3, 66.7},
		{5, 7, 71.4},
		{4, 4, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ledger.CompletionRate(tt.completed, tt.total), "%d/%d", tt.completed, tt.total)
	}
}

func TestSplitAppointments(t *testing.T) {
	today := time.Date(2024, 12, 18, 15, 30, 0, 0, time.UTC)
	list := []model.Appointment{
		{ID: 1, Date: "2024-12-17", Time: "10:00", Status: model.Scheduled},
		{ID: 2, Date: "2024-12-18", Time: "09:00", Status: model.Scheduled},
		{ID: 3, Date: "2024-12-19", Time: "09:00", Status: model.Completed},
		{ID: 4, Date: "2024-12-20", Time: "09:00", Status: model.Started},
		{ID: 5, Date: "2024-12-18", Time: "08:00", Status: model.Canceled},
		{ID: 6, Date: "2024-12-18", Time: "17:00", Status: model.Scheduled},
		{ID: 7, Date: "2024-12-01", Time: "10:00", Status: model.Completed},
	}

	upcoming, past := ledger.SplitAppointments(list, today)
	assert.Equal(t, []int64{2, 6, 4}, ids(upcoming))
	assert.Equal(t, []int64{3, 5, 1, 7}, ids(past))
	assert.Equal(t, len(list), len(upcoming)+len(past))

	up, pa := ledger.SplitAppointments(nil, today)
	assert.NotNil(t, up)
	assert.NotNil(t, pa)
}

func TestDashboard(t *testing.T) {
	svc, _ := seededService(t)
	ctx := context.Background()

	d, err := svc.Dashboard(ctx, ana)
	require.NoError(t, err)
	assert.Equal(t, []int64{21, 9}, ids(d.Upcoming))
	assert.Equal(t, []int64{8, 17, 10}, ids(d.Recent))
	assert.Equal(t, 0, d.TodayAppointments)
	assert.Equal(t, 5, d.CompletedSessions)
	assert.Equal(t, 5, d.ActivePatients)
	assert.Equal(t, 1, d.PendingRequests)

	_, err = svc.CreateAppointment(ctx, ana, ledger.AppointmentInput{PatientID: 8, Date: "2024-12-18", Time: "16:00"})
	require.NoError(t, err)
	d, err = svc.Dashboard(ctx, ana)
	require.NoError(t, err)
	assert.Equal(t, 1, d.TodayAppointments)
	assert.Len(t, d.Upcoming, 3)

	pd, err := svc.Dashboard(ctx, maria)
	require.NoError(t, err)
	assert.Equal(t, []int64{21}, ids(pd.Upcoming))
	assert.Equal(t, []int64{8, 17, 18}, ids(pd.Recent))
	assert.Equal(t, 4, pd.CompletedSessions)
	assert.Zero(t, pd.PendingRequests)
}

func TestReport(t *testing.T) {
	svc, _ := seededService(t)

	rep, err := svc.Report(context.Background(), ana.ID)
	require.NoError(t, err)

	assert.Equal(t, ledger.ReportStats{
		ActivePatients:    5,
		TotalSessions:     7,
		ScheduledSessions: 2,
		CompletedSessions: 5,
		CompletionRate:    71.4,
		RiskAlerts:        3,
	}, rep.Stats)
	assert.Equal(t, 3, rep.PatientsWithSessions)
	assert.Equal(t, 2, rep.PatientsWithoutSessions)

	require.Len(t, rep.Frequency, 12)
	assert.Equal(t, ledger.MonthCount{Month: "Nov", Sessions: 1}, rep.Frequency[10])
	assert.Equal(t, ledger.MonthCount{Month: "Dec", Sessions: 6}, rep.Frequency[11])

	assert.Equal(t, []ledger.StatusCount{
		{Status: model.Completed, Count: 5},
		{Status: model.Scheduled, Count: 2},
	}, rep.StatusBreakdown)

	assert.Equal(t, []ledger.RiskAlert{
		{PatientID: 5, Patient: "Maria Santos", Risk: ledger.RiskHigh, Reason: "consecutive absences", Date: "2024-12-17"},
		{PatientID: 6, Patient: "Lucas Pereira", Risk: ledger.RiskMedium, Reason: "frequent cancellations", Date: "2024-12-16"},
		{PatientID: 7, Patient: "Camila Rodrigues", Risk: ledger.RiskMedium, Reason: "frequent cancellations", Date: "2024-12-15"},
	}, rep.RiskAlerts)
}

func TestReportEmpty(t *testing.T) {
	svc, _ := newService(t, store.NewMemory(), fixedNow)

	rep, err := svc.Report(context.Background(), 42)
	require.NoError(t, err)
	assert.Zero(t, rep.Stats.TotalSessions)
	assert.Zero(t, rep.Stats.CompletionRate)
	assert.Empty(t, rep.RiskAlerts)
	assert.Empty(t, rep.StatusBreakdown)
}

func TestRiskAnalysis(t *testing.T) {
	svc, _ := newService(t, store.NewMemory(), fixedNow)
	ctx := context.Background()
	psy := registerPsychologist(t, svc, "psy@test.com")

	absent := addPatient(t, svc, psy, "absent@test.com")
	canceler := addPatient(t, svc, psy, "canceler@test.com")
	steady := addPatient(t, svc, psy, "steady@test.com")

	book := func(p *model.Patient, date string, st model.AppointmentStatus) {
		a, err := svc.CreateAppointment(ctx, psy, ledger.AppointmentInput{PatientID: p.ID, Date: date, Time: "10:00"})
		require.NoError(t, err)
		if st != model.Scheduled {
			_, err = svc.UpdateSessionStatus(ctx, psy, a.ID, st)
			require.NoError(t, err)
		}
	}
	book(absent, "2024-12-01", model.Scheduled)
	book(absent, "2024-12-08", model.Scheduled)
	book(canceler, "2024-12-02", model.Canceled)
	book(canceler, "2024-12-09", model.Canceled)
	book(steady, "2024-12-03", model.Completed)
	book(steady, "2024-12-30", model.Scheduled)

	risks, err := svc.RiskAnalysis(ctx, psy.ID)
	require.NoError(t, err)
	require.Len(t, risks, 3)
	assert.Equal(t, absent.ID, risks[0].PatientID)
	assert.Equal(t, ledger.RiskHigh, risks[0].Level)
	assert.Equal(t, 2, risks[0].NoShows)
	assert.Equal(t, canceler.ID, risks[1].PatientID)
	assert.Equal(t, ledger.RiskMedium, risks[1].Level)
	assert.Equal(t, []string{"frequent cancellations"}, risks[1].Reasons)
	assert.Equal(t, steady.ID, risks[2].PatientID)
	assert.Equal(t, ledger.RiskLow, risks[2].Level)
	assert.Empty(t, risks[2].Reasons)

	one, err := svc.PatientRisk(ctx, psy, absent.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.RiskHigh, one.Level)

	_, err = svc.PatientRisk(ctx, ana, absent.ID)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}
