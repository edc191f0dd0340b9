// Package ledger implements the scheduling ledger: users, patients,
// appointments and requests, the lifecycle operations between them and the
// derived views (available slots, dashboards, reports).
package ledger

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"lunysse-scheduler/internal/events"
	"lunysse-scheduler/internal/model"
)

// DefaultSlots is the daily booking catalog.
var DefaultSlots = []string{"09:00", "10:00", "11:00", "14:00", "15:00", "16:00", "17:00"}

// Repository is the storage boundary. Lookups and Update methods return
// ErrNotFound for a missing id; CreateUser and Insert methods return
// ErrIDTaken when the id is in use.
type Repository interface {
	CreateUser(ctx context.Context, u *model.User) error
	UserByID(ctx context.Context, id int64) (*model.User, error)
	UserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context, typ model.UserType) ([]model.User, error)

	InsertPatient(ctx context.Context, p *model.Patient) error
	UpdatePatient(ctx context.Context, p *model.Patient) error
	PatientByID(ctx context.Context, id int64) (*model.Patient, error)
	FindPatients(ctx context.Context, f PatientFilter) ([]model.Patient, error)

	InsertAppointment(ctx context.Context, a *model.Appointment) error
	UpdateAppointment(ctx context.Context, a *model.Appointment) error
	AppointmentByID(ctx context.Context, id int64) (*model.Appointment, error)
	FindAppointments(ctx context.Context, f AppointmentFilter) ([]model.Appointment, error)

	InsertRequest(ctx context.Context, r *model.Request) error
	UpdateRequest(ctx context.Context, r *model.Request) error
	RequestByID(ctx context.Context, id int64) (*model.Request, error)
	FindRequests(ctx context.Context, f RequestFilter) ([]model.Request, error)

	// Atomic runs fn against a view of the repository whose writes either
	// all persist or none do.
	Atomic(ctx context.Context, fn func(Repository) error) error
}

type PatientFilter struct {
	PsychologistID *int64 // nil matches any, 0 matches unassigned
	Email          string
}

type AppointmentFilter struct {
	PsychologistID int64
	PatientIDs     []int64
	Date           string
	Status         model.AppointmentStatus
}

type RequestFilter struct {
	Email          string
	PsychologistID int64
	Status         model.RequestStatus
}

// Caller is the authenticated identity behind an operation.
type Caller struct {
	ID   int64
	Type model.UserType
}

func (c Caller) IsPsychologist() bool { return c.Type == model.Psychologist }

type Service struct {
	repo     Repository
	pub      events.Publisher
	log      *zap.Logger
	now      func() time.Time
	slots    []string
	hashCost int
	ids      idGen
}

type Option func(*Service)

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func WithSlots(slots []string) Option {
	return func(s *Service) {
		if len(slots) > 0 {
			s.slots = append([]string(nil), slots...)
		}
	}
}

func WithPublisher(p events.Publisher) Option { return func(s *Service) { s.pub = p } }

func WithLogger(l *zap.Logger) Option { return func(s *Service) { s.log = l } }

func WithHashCost(cost int) Option { return func(s *Service) { s.hashCost = cost } }

func New(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		pub:      events.Nop{},
		log:      zap.NewNop(),
		now:      time.Now,
		slots:    DefaultSlots,
		hashCost: bcrypt.DefaultCost,
	}
	for _, o := range opts {
		o(s)
	}
	s.ids.now = s.now
	return s
}

// Slots returns the booking catalog in use.
func (s *Service) Slots() []string { return append([]string(nil), s.slots...) }

// Today is the current date at midnight in the service clock's location.
func (s *Service) Today() time.Time { return midnight(s.now()) }

func (s *Service) publish(ctx context.Context, kind events.Kind, id, psychologistID int64) {
	if err := s.pub.Publish(ctx, events.New(kind, id, psychologistID)); err != nil {
		s.log.Warn("publish event failed", zap.String("kind", string(kind)), zap.Int64("id", id), zap.Error(err))
	}
}

const idAttempts = 5

// withFreshIDs runs fn again while it fails with ErrIDTaken. fn must draw
// its ids from s.ids on every call.
func (s *Service) withFreshIDs(fn func() error) error {
	var err error
	for i := 0; i < idAttempts; i++ {
		if err = fn(); !errors.Is(err, ErrIDTaken) {
			return err
		}
		s.log.Debug("id collision, retrying", zap.Int("attempt", i+1))
	}
	return err
}

// idGen hands out millisecond timestamps, bumped so ids stay strictly
// increasing within one process.
type idGen struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func (g *idGen) next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func validDate(s string) bool {
	_, err := time.Parse(dateLayout, s)
	return err == nil
}

func validTime(s string) bool {
	_, err := time.Parse(timeLayout, s)
	return err == nil && len(s) == 5
}
