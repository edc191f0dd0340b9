package ledger_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"lunysse-scheduler/internal/events"
	"lunysse-scheduler/internal/ledger"
	"lunysse-scheduler/internal/model"
	"lunysse-scheduler/internal/store"
)

var fixedNow = time.Date(2024, 12, 18, 10, 0, 0, 0, time.UTC)

func clock(t time.Time) func() time.Time { return func() time.Time { return t } }

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) kinds() []events.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Kind, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind
	}
	return out
}

func newService(t *testing.T, repo ledger.Repository, now time.Time) (*ledger.Service, *recorder) {
	t.Helper()
	rec := &recorder{}
	svc := ledger.New(repo,
		ledger.WithClock(clock(now)),
		ledger.WithPublisher(rec),
		ledger.WithHashCost(bcrypt.MinCost),
	)
	return svc, rec
}

// seededService runs against the demo data set with today = 2024-12-18.
func seededService(t *testing.T) (*ledger.Service, *recorder) {
	t.Helper()
	return newService(t, store.NewSeededMemory(store.Fixtures{Now: clock(fixedNow)}), fixedNow)
}

var (
	ana   = ledger.Caller{ID: 2, Type: model.Psychologist}
	carlo = ledger.Caller{ID: 3, Type: model.Psychologist}
	maria = ledger.Caller{ID: 5, Type: model.PatientUser}
)

func registerPsychologist(t *testing.T, svc *ledger.Service, email string) ledger.Caller {
	t.Helper()
	u, err := svc.Register(context.Background(), ledger.RegisterInput{
		Email: email, Password: "secret1", Name: "Dr. Test", Type: model.Psychologist, LicenseID: "CRP 00/00000",
	})
	require.NoError(t, err)
	return ledger.Caller{ID: u.ID, Type: u.Type}
}

func addPatient(t *testing.T, svc *ledger.Service, psy ledger.Caller, email string) *model.Patient {
	t.Helper()
	p, err := svc.CreatePatient(context.Background(), psy.ID, ledger.PatientInput{Name: "Patient " + email, Email: email})
	require.NoError(t, err)
	return p
}

func ids(apts []model.Appointment) []int64 {
	out := make([]int64, len(apts))
	for i, a := range apts {
		out[i] = a.ID
	}
	return out
}
