package store

import (
	"context"
	"sort"
	"sync"

	"lunysse-scheduler/internal/ledger"
	"lunysse-scheduler/internal/model"
)

// Memory keeps the four collections in maps guarded by one lock. It backs
// local development and tests when no database is configured.
type Memory struct {
	mu sync.RWMutex
	st *memState

	seed    func() (*memState, error)
	once    sync.Once
	seedErr error
}

func NewMemory() *Memory {
	return &Memory{st: newMemState()}
}

// NewSeededMemory returns a store that loads the fixture data on first use.
func NewSeededMemory(f Fixtures) *Memory {
	m := NewMemory()
	m.seed = f.state
	return m
}

func (m *Memory) init() error {
	m.once.Do(func() {
		if m.seed == nil {
			return
		}
		st, err := m.seed()
		if err != nil {
			m.seedErr = err
			return
		}
		m.mu.Lock()
		m.st = st
		m.mu.Unlock()
	})
	return m.seedErr
}

func (m *Memory) read(fn func(v memView) error) error {
	if err := m.init(); err != nil {
		return err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fn(memView{m.st})
}

func (m *Memory) write(fn func(v memView) error) error {
	if err := m.init(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(memView{m.st})
}

func (m *Memory) CreateUser(ctx context.Context, u *model.User) error {
	return m.write(func(v memView) error { return v.CreateUser(ctx, u) })
}

func (m *Memory) UserByID(ctx context.Context, id int64) (out *model.User, err error) {
	err = m.read(func(v memView) error { out, err = v.UserByID(ctx, id); return err })
	return out, err
}

func (m *Memory) UserByEmail(ctx context.Context, email string) (out *model.User, err error) {
	err = m.read(func(v memView) error { out, err = v.UserByEmail(ctx, email); return err })
	return out, err
}

func (m *Memory) ListUsers(ctx context.Context, typ model.UserType) (out []model.User, err error) {
	err = m.read(func(v memView) error { out, err = v.ListUsers(ctx, typ); return err })
	return out, err
}

func (m *Memory) InsertPatient(ctx context.Context, p *model.Patient) error {
	return m.write(func(v memView) error { return v.InsertPatient(ctx, p) })
}

func (m *Memory) UpdatePatient(ctx context.Context, p *model.Patient) error {
	return m.write(func(v memView) error { return v.UpdatePatient(ctx, p) })
}

func (m *Memory) PatientByID(ctx context.Context, id int64) (out *model.Patient, err error) {
	err = m.read(func(v memView) error { out, err = v.PatientByID(ctx, id); return err })
	return out, err
}

func (m *Memory) FindPatients(ctx context.Context, f ledger.PatientFilter) (out []model.Patient, err error) {
	err = m.read(func(v memView) error { out, err = v.FindPatients(ctx, f); return err })
	return out, err
}

func (m *Memory) InsertAppointment(ctx context.Context, a *model.Appointment) error {
	return m.write(func(v memView) error { return v.InsertAppointment(ctx, a) })
}

func (m *Memory) UpdateAppointment(ctx context.Context, a *model.Appointment) error {
	return m.write(func(v memView) error { return v.UpdateAppointment(ctx, a) })
}

func (m *Memory) AppointmentByID(ctx context.Context, id int64) (out *model.Appointment, err error) {
	err = m.read(func(v memView) error { out, err = v.AppointmentByID(ctx, id); return err })
	return out, err
}

func (m *Memory) FindAppointments(ctx context.Context, f ledger.AppointmentFilter) (out []model.Appointment, err error) {
	err = m.read(func(v memView) error { out, err = v.FindAppointments(ctx, f); return err })
	return out, err
}

func (m *Memory) InsertRequest(ctx context.Context, r *model.Request) error {
	return m.write(func(v memView) error { return v.InsertRequest(ctx, r) })
}

func (m *Memory) UpdateRequest(ctx context.Context, r *model.Request) error {
	return m.write(func(v memView) error { return v.UpdateRequest(ctx, r) })
}

func (m *Memory) RequestByID(ctx context.Context, id int64) (out *model.Request, err error) {
	err = m.read(func(v memView) error { out, err = v.RequestByID(ctx, id); return err })
	return out, err
}

func (m *Memory) FindRequests(ctx context.Context, f ledger.RequestFilter) (out []model.Request, err error) {
	err = m.read(func(v memView) error { out, err = v.FindRequests(ctx, f); return err })
	return out, err
}

// Atomic holds the write lock for the whole of fn and runs it against a
// copy of the collections, which replaces the live state only when fn
// succeeds.
func (m *Memory) Atomic(ctx context.Context, fn func(ledger.Repository) error) error {
	if err := m.init(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	work := m.st.clone()
	if err := fn(memView{work}); err != nil {
		return err
	}
	m.st = work
	return nil
}

type memState struct {
	users        map[int64]model.User
	patients     map[int64]model.Patient
	appointments map[int64]model.Appointment
	requests     map[int64]model.Request
}

func newMemState() *memState {
	return &memState{
		users:        map[int64]model.User{},
		patients:     map[int64]model.Patient{},
		appointments: map[int64]model.Appointment{},
		requests:     map[int64]model.Request{},
	}
}

func (s *memState) clone() *memState {
	c := newMemState()
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.patients {
		c.patients[k] = v
	}
	for k, v := range s.appointments {
		c.appointments[k] = v
	}
	for k, v := range s.requests {
		c.requests[k] = copyRequest(v)
	}
	return c
}

func copyRequest(r model.Request) model.Request {
	r.PreferredDates = append([]string(nil), r.PreferredDates...)
	r.PreferredTimes = append([]string(nil), r.PreferredTimes...)
	if r.UpdatedAt != nil {
		t := *r.UpdatedAt
		r.UpdatedAt = &t
	}
	return r
}

// memView is the unlocked repository over one state. The caller holds the
// lock.
type memView struct{ st *memState }

func (v memView) CreateUser(_ context.Context, u *model.User) error {
	if _, ok := v.st.users[u.ID]; ok {
		return ledger.ErrIDTaken
	}
	for _, x := range v.st.users {
		if x.Email == u.Email {
			return ledger.ErrDuplicate
		}
	}
	v.st.users[u.ID] = *u
	return nil
}

func (v memView) UserByID(_ context.Context, id int64) (*model.User, error) {
	u, ok := v.st.users[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return &u, nil
}

func (v memView) UserByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range v.st.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, ledger.ErrNotFound
}

func (v memView) ListUsers(_ context.Context, typ model.UserType) ([]model.User, error) {
	out := make([]model.User, 0, len(v.st.users))
	for _, u := range v.st.users {
		if typ != "" && u.Type != typ {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (v memView) InsertPatient(_ context.Context, p *model.Patient) error {
	if _, ok := v.st.patients[p.ID]; ok {
		return ledger.ErrIDTaken
	}
	return v.savePatient(p)
}

func (v memView) UpdatePatient(_ context.Context, p *model.Patient) error {
	if _, ok := v.st.patients[p.ID]; !ok {
		return ledger.ErrNotFound
	}
	return v.savePatient(p)
}

func (v memView) savePatient(p *model.Patient) error {
	for _, x := range v.st.patients {
		if x.ID != p.ID && x.Email == p.Email && x.PsychologistID == p.PsychologistID {
			return ledger.ErrDuplicate
		}
	}
	stored := *p
	stored.TotalSessions = 0
	v.st.patients[p.ID] = stored
	return nil
}

func (v memView) PatientByID(_ context.Context, id int64) (*model.Patient, error) {
	p, ok := v.st.patients[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return &p, nil
}

func (v memView) FindPatients(_ context.Context, f ledger.PatientFilter) ([]model.Patient, error) {
	out := []model.Patient{}
	for _, p := range v.st.patients {
		if f.PsychologistID != nil && p.PsychologistID != *f.PsychologistID {
			continue
		}
		if f.Email != "" && p.Email != f.Email {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (v memView) InsertAppointment(_ context.Context, a *model.Appointment) error {
	if _, ok := v.st.appointments[a.ID]; ok {
		return ledger.ErrIDTaken
	}
	v.st.appointments[a.ID] = *a
	return nil
}

func (v memView) UpdateAppointment(_ context.Context, a *model.Appointment) error {
	if _, ok := v.st.appointments[a.ID]; !ok {
		return ledger.ErrNotFound
	}
	v.st.appointments[a.ID] = *a
	return nil
}

func (v memView) AppointmentByID(_ context.Context, id int64) (*model.Appointment, error) {
	a, ok := v.st.appointments[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return &a, nil
}

func (v memView) FindAppointments(_ context.Context, f ledger.AppointmentFilter) ([]model.Appointment, error) {
	var patients map[int64]bool
	if f.PatientIDs != nil {
		patients = make(map[int64]bool, len(f.PatientIDs))
		for _, id := range f.PatientIDs {
			patients[id] = true
		}
	}
	out := []model.Appointment{}
	for _, a := range v.st.appointments {
		if f.PsychologistID != 0 && a.PsychologistID != f.PsychologistID {
			continue
		}
		if patients != nil && !patients[a.PatientID] {
			continue
		}
		if f.Date != "" && a.Date != f.Date {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (v memView) InsertRequest(_ context.Context, r *model.Request) error {
	if _, ok := v.st.requests[r.ID]; ok {
		return ledger.ErrIDTaken
	}
	return v.saveRequest(r)
}

func (v memView) UpdateRequest(_ context.Context, r *model.Request) error {
	if _, ok := v.st.requests[r.ID]; !ok {
		return ledger.ErrNotFound
	}
	return v.saveRequest(r)
}

// saveRequest keeps at most one pending request per (email, psychologist).
func (v memView) saveRequest(r *model.Request) error {
	if r.Status == model.Pending {
		for _, x := range v.st.requests {
			if x.ID != r.ID && x.Status == model.Pending &&
				x.PatientEmail == r.PatientEmail && x.PreferredPsychologist == r.PreferredPsychologist {
				return ledger.ErrDuplicate
			}
		}
	}
	v.st.requests[r.ID] = copyRequest(*r)
	return nil
}

func (v memView) RequestByID(_ context.Context, id int64) (*model.Request, error) {
	r, ok := v.st.requests[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	r = copyRequest(r)
	return &r, nil
}

func (v memView) FindRequests(_ context.Context, f ledger.RequestFilter) ([]model.Request, error) {
	out := []model.Request{}
	for _, r := range v.st.requests {
		if f.Email != "" && r.PatientEmail != f.Email {
			continue
		}
		if f.PsychologistID != 0 && r.PreferredPsychologist != f.PsychologistID {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		out = append(out, copyRequest(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Atomic on a view is already inside the lock; nested calls run in place.
func (v memView) Atomic(_ context.Context, fn func(ledger.Repository) error) error {
	return fn(v)
}
