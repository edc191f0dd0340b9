package handler

import (
	"time"

	"lunysse-scheduler/internal/ledger"
	"lunysse-scheduler/internal/model"
)

// Entities

type User struct {
	ID        int64
	Email     string
	Type      string
	Name      string
	Phone     string
	Specialty string
	LicenseID string
	BirthDate string
	CreatedAt time.Time
}

func (m *User) marshal() []byte {
	var out []byte
	out = appendInt(out, 1, m.ID)
	out = appendString(out, 2, m.Email)
	out = appendString(out, 3, m.Type)
	out = appendString(out, 4, m.Name)
	out = appendString(out, 5, m.Phone)
	out = appendString(out, 6, m.Specialty)
	out = appendString(out, 7, m.LicenseID)
	out = appendString(out, 8, m.BirthDate)
	out = appendTimestamp(out, 9, m.CreatedAt)
	return out
}

func (m *User) unmarshal(b []byte) error {
	return readFields(b, func(f field) error {
		switch f.num {
		case 1:
			m.ID = f.i64()
		case 2:
			m.Email = f.str()
		case 3:
			m.Type = f.str()
		case 4:
			m.Name = f.str()
		case 5:
			m.Phone = f.str()
		case 6:
			m.Specialty = f.str()
		case 7:
			m.LicenseID = f.str()
		case 8:
			m.BirthDate = f.str()
		case 9:
			m.CreatedAt = f.ts()
		}
		return nil
	})
}

func toUser(u *model.User) *User {
	return &User{
		ID:        u.ID,
		Email:     u.Email,
		Type:      string(u.Type),
		Name:      u.Name,
		Phone:     u.Phone,
		Specialty: u.Specialty,
		LicenseID: u.LicenseID,
		BirthDate: u.BirthDate,
		CreatedAt: u.CreatedAt,
	}
}

type Patient struct {
	ID             int64
	Name           string
	Email          string
	Phone          string
	BirthDate      string
	Age            int
	Status         string
	PsychologistID int64
	TotalSessions  int
}

func (m *Patient) marshal() []byte {
	var out []byte
	out = appendInt(out, 1, m.ID)
	out = appendString(out, 2, m.Name)
	out = appendString(out, 3, m.Email)
	out = appendString(out, 4, m.Phone)
	out = appendString(out, 5, m.BirthDate)
	out = appendInt(out, 6, int64(m.Age))
	out = appendString(out, 7, m.Status)
	out = appendInt(out, 8, m.PsychologistID)
	out = appendInt(out, 9, int64(m.TotalSessions))
	return out
}

func (m *Patient) unmarshal(b []byte) error {
	return readFields(b, func(f field) error {
		switch f.num {
		case 1:
			m.ID = f.i64()
		case 2:
			m.Name = f.str()
		case 3:
			m.Email = f.str()
		case 4:
			m.Phone = f.str()
		case 5:
			m.BirthDate = f.str()
		case 6:
			m.Age = f.n()
		case 7:
			m.Status = f.str()
		case 8:
			m.PsychologistID = f.i64()
		case 9:
			m.TotalSessions = f.n()
		}
		return nil
	})
}

func toPatient(p *model.Patient) *Patient {
	return &Patient{
		ID:             p.ID,
		Name:           p.Name,
		Email:          p.Email,
		Phone:          p.Phone,
		BirthDate:      p.BirthDate,
		Age:            p.Age,
		Status:         string(p.Status),
		PsychologistID: p.PsychologistID,
		TotalSessions:  p.TotalSessions,
	}
}

type Appointment struct {
	ID             int64
	PatientID      int64
	PsychologistID int64
	Date           string
	Time           string
	Duration       int
	Status         string
	Description    string
	Notes          string
	FullReport     string
}

func (m *Appointment) marshal() []byte {
	var out []byte
	out = appendInt(out, 1, m.ID)
	out = appendInt(out, 2, m.PatientID)
	out = appendInt(out, 3, m.PsychologistID)
	out = appendString(out, 4, m.Date)
	out = appendString(out, 5, m.Time)
	out = appendInt(out, 6, int64(m.Duration))
	out = appendString(out, 7, m.Status)
	out = appendString(out, 8, m.Description)
	out = appendString(out, 9, m.Notes)
	out = appendString(out, 10, m.FullReport)
	return out
}

func (m *Appointment) unmarshal(b []byte) error {
	return readFields(b, func(f field) error {
		switch f.num {
		case 1:
			m.ID = f.i64()
		case 2:
			m.PatientID = f.i64()
		case 3:
			m.PsychologistID = f.i64()
		case 4:
			m.Date = f.str()
		case 5:
			m.Time = f.str()
		case 6:
			m.Duration = f.n()
		case 7:
			m.Status = f.str()
		case 8:
			m.Description = f.str()
		case 9:
			m.Notes = f.str()
		case 10:
			m.FullReport = f.str()
		}
		return nil
	})
}

func toAppointment(a *model.Appointment) *Appointment {
	return &Appointment{
		ID:             a.ID,
		PatientID:      a.PatientID,
		PsychologistID: a.PsychologistID,
		Date:           a.Date,
		Time:           a.Time,
		Duration:       a.Duration,
		Status:         string(a.Status),
		Description:    a.Description,
		Notes:          a.Notes,
		FullReport:     a.FullReport,
	}
}

type Request struct {
	ID                    int64
	PatientName           string
	PatientEmail          string
	PatientPhone          string
	PreferredPsychologist int64
	Description           string
	Urgency               string
	PreferredDates        []string
	PreferredTimes        []string
	Status                string
	Notes                 string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

func (m *Request) marshal() []byte {
	var out []byte
	out = appendInt(out, 1, m.ID)
	out = appendString(out, 2, m.PatientName)
	out = appendString(out, 3, m.PatientEmail)
	out = appendString(out, 4, m.PatientPhone)
	out = appendInt(out, 5, m.PreferredPsychologist)
	out = appendString(out, 6, m.Description)
	out = appendString(out, 7, m.Urgency)
	out = appendStrings(out, 8, m.PreferredDates)
	out = appendStrings(out, 9, m.PreferredTimes)
	out = appendString(out, 10, m.Status)
	out = appendString(out, 11, m.Notes)
	out = appendTimestamp(out, 12, m.CreatedAt)
	out = appendTimestamp(out, 13, m.UpdatedAt)
	return out
}

func (m *Request) unmarshal(b []byte) error {
	return readFields(b, func(f field) error {
		switch f.num {
		case 1:
			m.ID = f.i64()
		case 2:
			m.PatientName = f.str()
		case 3:
			m.PatientEmail = f.str()
		case 4:
			m.PatientPhone = f.str()
		case 5:
			m.PreferredPsychologist = f.i64()
		case 6:
			m.Description = f.str()
		case 7:
			m.Urgency = f.str()
		case 8:
			m.PreferredDates = append(m.PreferredDates, f.str())
		case 9:
			m.PreferredTimes = append(m.PreferredTimes, f.str())
		case 10:
			m.Status = f.str()
		case 11:
			m.Notes = f.str()
		case 12:
			m.CreatedAt = f.ts()
		case 13:
			m.UpdatedAt = f.ts()
		}
		return nil
	})
}

func toRequest(r *model.Request) *Request {
	out := &Request{
		ID:                    r.ID,
		PatientName:           r.PatientName,
		PatientEmail:          r.PatientEmail,
		PatientPhone:          r.PatientPhone,
		PreferredPsychologist: r.PreferredPsychologist,
		Description:           r.Description,
		Urgency:               string(r.Urgency),
		PreferredDates:        r.PreferredDates,
		PreferredTimes:        r.PreferredTimes,
		Status:                string(r.Status),
		Notes:                 r.Notes,
		CreatedAt:             r.CreatedAt,
	}
	if r.UpdatedAt != nil {
		out.UpdatedAt = *r.UpdatedAt
	}
	return out
}

// Auth

type RegisterRequest struct {
	Email           string
	Password        string
	Name            string
	Type            string
	Phone           string
	Specialty       string
	LicenseID       string
	BirthDate       string
	ConfirmPassword string
}

func (m *RegisterRequest) marshal() []byte {
	var out []byte
	out = appendString(out, 1, m.Email)
	out = appendString(out, 2, m.Password)
	out = appendString(out, 3, m.Name)
	out = appendString(out, 4, m.Type)
	out = appendString(out, 5, m.Phone)
	out = appendString(out, 6, m.Specialty)
	out = appendString(out, 7, m.LicenseID)
	out = appendString(out, 8, m.BirthDate)
	out = appendString(out, 9, m.ConfirmPassword)
	return out
}

func (m *RegisterRequest) unmarshal(b []byte) error {
	return readFields(b, func(f field) error {
		switch f.num {
		case 1:
			m.Email = f.str()
		case 2:
			m.Password = f.str()
		case 3:
			m.Name = f.str()
		case 4:
			m.Type = f.str()
		case 5:
			m.Phone = f.str()
		case 6:
			m.Specialty = f.str()
		case 7:
			m.LicenseID = f.str()
		case 8:
			m.BirthDate = f.str()
		case 9:
			m.ConfirmPassword = f.str()
		}
		return nil
	})
}

type LoginRequest struct {
	Email    string
	Password string
}

func (m *LoginRequest) marshal() []byte {
	var out []byte
	out = appendString(out, 1, m.Email)
	out = appendString(out, 2, m.Password)
	return out
}

func (m *LoginRequest) unmarshal(b []byte) error {
	return readFields(b, func(f field) error {
		switch f.num {
		case 1:
			m.Email = f.str()
		case 2:
			m.Password = f.str()
		}
		return nil
	})
}

// AuthResponse answers both Register and Login.
type AuthResponse struct {
	Token string
	User  *User
}

func (m *AuthResponse) marshal() []byte {
	var out []byte
	out = appendString(out, 1, m.Token)
	if m.User != nil {
		out = appendMessage(out, 2, m.User)
	}
	return out
}

func (m *AuthResponse) unmarshal(b []byte) error {
	return readFields(b, func(f field) error {
		switch f.num {
		case 1:
			m.Token = f.str()
		case 2:
			m.User = &User{}
			return m.User.unmarshal(f.b)
		}
		return nil
	})
}

type ListPsychologistsRequest struct{}

func (m *ListPsychologistsRequest) marshal() []byte { return nil }

func (m *ListPsychologistsRequest) unmarshal(b []byte) error {
	return readFields(b, func(field) error { return nil })
}

type ListPsychologistsResponse struct {
	Psychologists []*User
}

func (m *ListPsychologistsResponse) marshal() []byte {
	var out []byte
	for _, u := range m.Psychologists {
		out = appendMessage(out, 1, u)
	}
	return out
}

func (m *ListPsychologistsResponse) unmarshal(b []byte) error {
	return readFields(b, func(f field) error {
		if f.num == 1 {
			u := &User{}
			if err := u.unmarshal(f.b); err != nil {
				return err
			}
			m.Psychologists = append(m.Psychologists, u)
		}
		return nil
	})
}

// Requests

type CreateRequestRequest struct {
	PatientName    string
	PatientEmail   string
	PatientPhone   string
	PsychologistID int64
	Description    string
	Urgency        string
	PreferredDates []string
	PreferredTimes []string
}

func (m *CreateRequestRequest) marshal() []byte {
	var out []byte
	out = appendString(out, 1, m.PatientName)
	out = appendString(out, 2, m.PatientEmail)
	out = appendString(out, 3, m.PatientPhone)
	out = appendInt(out, 4, m.PsychologistID)
	out = appendString(out, 5, m.Description)
	out = appendString(out, 6, m.Urgency)
	out = appendStrings(out, 7, m.PreferredDates)
	out = appendStrings(out, 8, m.PreferredTimes)
	return out
}

func (m *CreateRequestRequest) unmarshal(b []byte) error {
	return readFields(b, func(f field) error {
		switch f.num {
		case 1:
			m.PatientName = f.str()
		case 2:
			m.PatientEmail = f.str()
		case 3:
			m.PatientPhone = f.str()
		case 4:
			m.PsychologistID = f.i64()
		case 5:
			m.Description = f.str()
		case 6:
			m.Urgency = f.str()
		case 7:
			m.PreferredDates = append(m.PreferredDates, f.str())
		case 8:
			m.PreferredTimes = append(m.PreferredTimes, f.str())
		}
		return nil
	})
}

type RequestResponse struct {
	Request *Request
}

func (m *RequestResponse) marshal() []byte {
	if m.Request == nil {
		return nil
	}
	return appendMessage(nil, 1, m.Request)
}

func (m *RequestResponse) unmarshal(b []byte) error {
	return readFields(b, func(f field) error {
		if f.num == 1 {
			m.Request = &Request{}
			return m.Request.unmarshal(f.b)
		}
		return nil
	})
}

type ListRequestsRequest struct {
	Status         string
	PsychologistID int64
}

func (m *ListRequestsRequest) marshal() []byte {
	var out []byte
	out = appendString(out, 1, m.Status)
	out = appendInt(out, 2, m.PsychologistID)
	return out
}

func (m *ListRequestsRequest) unmarshal(b []byte) error {
	return readFields(b, func(f field) error {
		switch f.num {
		case 1:
			m.Status = f.str()
		case 2:
			m.PsychologistID = f.i64()
		}
		return nil
	})
}

type ListRequestsResponse struct {
	Requests []*Request
}

func (m *ListRequestsResponse) marshal() []byte {
	var out []byte
	for _, r := range m.Requests {
		out = appendMessage(out, 1, r)
	}
	return out
}

func (m *ListRequestsResponse) unmarshal(b []byte) error {
	return readFields(b, func(f field) error {
		if f.num == 1 {
			r := &Request{}
			if err := r.unmarshal(f.b); err != nil {
				return err
			}
			m.Requests = append(m.Requests, r)
		}
		return nil
	})
}

// DecideRequest is the input of AcceptRequest and RejectRequest.
type DecideRequest struct {
	ID    int64
	Notes string
}

func (m *DecideRequest) marshal() []byte {
	var out []byte
	out = appendInt(out, 1, m.ID)
	out = appendString(out, 2, m.Notes)
	return out
}

func (m *DecideRequest) unmarshal(b []byte) error {
	return readFields(b, func(f field) error {
		switch f.num {
		case 1:
			m.ID = f.i64()
		case 2:
			m.Notes = f.str()
		}
		return nil
	})
}

type AcceptRequestResponse struct {
	Request *Request
	Patient *Patient
}

func (m *AcceptRequestResponse) marshal() []byte {
	var out []byte
	if m.Request != nil {
		out = appendMessage(out, 1, m.Request)
	}
	if m.Patient != nil {
		out = appendMessage(out, 2, m.Patient)
	}
	return out
}

func (m *AcceptRequestResponse) unmarshal(b []byte) error {
	return readFields(b, func(f field) error {
		switch f.num {
		case 1:
			m.Request = &Request{}
			return m.Request.unmarshal(f.b)
		case 2:
			m.Patient = &Patient{}
			return m.Patient.unmarshal(f.b)
		}
		return nil
	})
}

// Appointments

type CreateAppointmentRequest struct {
	PatientID      int64
	PsychologistID int64
	Date           string
	Time           string
	Duration       int
	Description    string
	Notes          string
}

func (m *CreateAppointmentRequest) marshal() []byte {
	var out []byte
	out = appendInt(out, 1, m.PatientID)
	out = appendInt(out, 2, m.PsychologistID)
	out = appendString(out, 3, m.Date)
	out = appendString(out, 4, m.Time)
	out = appendInt(out, 5, int64(m.Duration))
	out = appendString(out, 6, m.Description)
	out = appendString(out, 7, m.Notes)
	return out
}

func (m *CreateAppointmentRequest) unmarshal(b []byte) error {
	return readFields(b, func(f field) error {
		switch f.num {
		case 1:
			m.PatientID = f.i64()
		case 2:
			m.PsychologistID = f.i64()
		case 3:
			m.Date = f.str()
		case 4:
			m.Time = f.str()
		case 5:
			m.Duration = f.n()
		case 6:
			m.Description = f.str()
		case 7:
			m.Notes = f.str()
		}
		return nil
	})
}

type AppointmentResponse struct {
	Appointment *Appointment
}

func (m *AppointmentResponse) marshal() []byte {
	if m.Appointment == nil {
		return nil
	}
	return appendMessage(nil, 1, m.Appointment)
}

func (m *AppointmentResponse) unmarshal(b []byte) error {
	return readFields(b, func(f field) error {
		if f.num == 1 {
			m.Appointment = &Appointment{}
			return m.Appointment.unmarshal(f.b)
		}
		return nil
	})
}

type ListAppointmentsRequest struct {
	Date   string
	Status string
}

func (m *ListAppointmentsRequest) marshal() []byte {
	var out []byte
	out = appendString(out, 1, m.Date)
	out = appendString(out, 2, m.Status)
	return out
}

func (m *ListAppointmentsRequest) unmarshal(b []byte) error {
	return readFields(b, func(f field) error {
		switch f.num {
		case 1:
			m.Date = f.str()
		case 2:
			m.Status = f.str()
		}
		return nil
	})
}

type ListAppointmentsResponse struct {
	Appointments []*Appointment
}

func (m *ListAppointmentsResponse) marshal() []byte {
	var out []byte
	for _, a := range m.Appointments {
		out = appendMessage(out, 1, a)
	}
	return out
}

func (m *ListAppointmentsResponse) unmarshal(b []byte) error {
	return readFields(b, func(f field) error {
		if f.num == 1 {
			a := &Appointment{}
			if err := a.unmarshal(f.b); err != nil {
				return err
			}
			m.Appointments = append(m.Appointments, a)
		}
		return nil
	})
}

type UpdateSessionStatusRequest struct {
	ID     int64
	Status string
}

func (m *UpdateSessionStatusRequest) marshal() []byte {
	var out []byte
	out = appendInt(out, 1, m.ID)
	out = appendString(out, 2, m.Status)
	return out
}

func (m *UpdateSessionStatusRequest) unmarshal(b []byte) error {
	return readFields(b, func(f field) error {
		switch f.num {
		case 1:
			m.ID = f.i64()
		case 2:
			m.Status = f.str()
		}
		return nil
	})
}

type UpdateSessionNotesRequest struct {
	ID         int64
	Notes      string
	FullReport string
}

func (m *UpdateSessionNotesRequest) marshal() []byte {
	var out []byte
	out = appendInt(out, 1, m.ID)
	out = appendString(out, 2, m.Notes)
	out = appendString(out, 3, m.FullReport)
	return out
}

func (m *UpdateSessionNotesRequest) unmarshal(b []byte) error {
	return readFields(b, func(f field) error {
		switch f.num {
		case 1:
			m.ID = f.i64()
		case 2:
			m.Notes = f.str()
		case 3:
			m.FullReport = f.str()
		}
		return nil
	})
}

type AvailableSlotsRequest struct {
	Date           string
	PsychologistID int64
}

func (m *AvailableSlotsRequest) marshal() []byte {
	var out []byte
	out = appendString(out, 1, m.Date)
	out = appendInt(out, 2, m.PsychologistID)
	return out
}

func (m *AvailableSlotsRequest) unmarshal(b []byte) error {
	return readFields(b, func(f field) error {
		switch f.num {
		case 1:
			m.Date = f.str()
		case 2:
			m.PsychologistID = f.i64()
		}
		return nil
	})
}

type AvailableSlotsResponse struct {
	Slots []string
}

func (m *AvailableSlotsResponse) marshal() []byte { return appendStrings(nil, 1, m.Slots) }

func (m *AvailableSlotsResponse) unmarshal(b []byte) error {
	return readFields(b, func(f field) error {
		if f.num == 1 {
			m.Slots = append(m.Slots, f.str())
		}
		return nil
	})
}

// Reports

type GetReportRequest struct {
	PsychologistID int64
}

func (m *GetReportRequest) marshal() []byte { return appendInt(nil, 1, m.PsychologistID) }

func (m *GetReportRequest) unmarshal(b []byte) error {
	return readFields(b, func(f field) error {
		if f.num == 1 {
			m.PsychologistID = f.i64()
		}
		return nil
	})
}

type MonthCount struct {
	Month    string
	Sessions int
}

func (m *MonthCount) marshal() []byte {
	var out []byte
	out = appendString(out, 1, m.Month)
	out = appendInt(out, 2, int64(m.Sessions))
	return out
}

func (m *MonthCount) unmarshal(b []byte) error {
	return readFields(b, func(f field) error {
		switch f.num {
		case 1:
			m.Month = f.str()
		case 2:
			m.Sessions = f.n()
		}
		return nil
	})
}

type RiskAlert struct {
	PatientID int64
	Patient   string
	Risk      string
	Reason    string
	Date      string
}

func (m *RiskAlert) marshal() []byte {
	var out []byte
	out = appendInt(out, 1, m.PatientID)
	out = appendString(out, 2, m.Patient)
	out = appendString(out, 3, m.Risk)
	out = appendString(out, 4, m.Reason)
	out = appendString(out, 5, m.Date)
	return out
}

func (m *RiskAlert) unmarshal(b []byte) error {
	return readFields(b, func(f field) error {
		switch f.num {
		case 1:
			m.PatientID = f.i64()
		case 2:
			m.Patient = f.str()
		case 3:
			m.Risk = f.str()
		case 4:
			m.Reason = f.str()
		case 5:
			m.Date = f.str()
		}
		return nil
	})
}

type ReportResponse struct {
	PsychologistID          int64
	TotalSessions           int
	CompletedSessions       int
	CanceledSessions        int
	ScheduledSessions       int
	StartedSessions         int
	CompletionRate          float64
	ActivePatients          int
	PatientsWithSessions    int
	PatientsWithoutSessions int
	Frequency               []*MonthCount
	RiskAlerts              []*RiskAlert
	GeneratedAt             time.Time
}

func (m *ReportResponse) marshal() []byte {
	var out []byte
	out = appendInt(out, 1, m.PsychologistID)
	out = appendInt(out, 2, int64(m.TotalSessions))
	out = appendInt(out, 3, int64(m.CompletedSessions))
	out = appendInt(out, 4, int64(m.CanceledSessions))
	out = appendInt(out, 5, int64(m.ScheduledSessions))
	out = appendInt(out, 6, int64(m.StartedSessions))
	out = appendDouble(out, 7, m.CompletionRate)
	out = appendInt(out, 8, int64(m.ActivePatients))
	out = appendInt(out, 9, int64(m.PatientsWithSessions))
	out = appendInt(out, 10, int64(m.PatientsWithoutSessions))
	for _, f := range m.Frequency {
		out = appendMessage(out, 11, f)
	}
	for _, a := range m.RiskAlerts {
		out = appendMessage(out, 12, a)
	}
	out = appendTimestamp(out, 13, m.GeneratedAt)
	return out
}

func (m *ReportResponse) unmarshal(b []byte) error {
	return readFields(b, func(f field) error {
		switch f.num {
		case 1:
			m.PsychologistID = f.i64()
		case 2:
			m.TotalSessions = f.n()
		case 3:
			m.CompletedSessions = f.n()
		case 4:
			m.CanceledSessions = f.n()
		case 5:
			m.ScheduledSessions = f.n()
		case 6:
			m.StartedSessions = f.n()
		case 7:
			m.CompletionRate = f.f64()
		case 8:
			m.ActivePatients = f.n()
		case 9:
			m.PatientsWithSessions = f.n()
		case 10:
			m.PatientsWithoutSessions = f.n()
		case 11:
			mc := &MonthCount{}
			if err := mc.unmarshal(f.b); err != nil {
				return err
			}
			m.Frequency = append(m.Frequency, mc)
		case 12:
			ra := &RiskAlert{}
			if err := ra.unmarshal(f.b); err != nil {
				return err
			}
			m.RiskAlerts = append(m.RiskAlerts, ra)
		case 13:
			m.GeneratedAt = f.ts()
		}
		return nil
	})
}

func toReport(r *ledger.Report) *ReportResponse {
	out := &ReportResponse{
		PsychologistID:          r.PsychologistID,
		TotalSessions:           r.Stats.TotalSessions,
		CompletedSessions:       r.Stats.CompletedSessions,
		CanceledSessions:        r.Stats.CanceledSessions,
		ScheduledSessions:       r.Stats.ScheduledSessions,
		StartedSessions:         r.Stats.StartedSessions,
		CompletionRate:          r.Stats.CompletionRate,
		ActivePatients:          r.Stats.ActivePatients,
		PatientsWithSessions:    r.PatientsWithSessions,
		PatientsWithoutSessions: r.PatientsWithoutSessions,
		GeneratedAt:             r.GeneratedAt,
	}
	for _, f := range r.Frequency {
		out.Frequency = append(out.Frequency, &MonthCount{Month: f.Month, Sessions: f.Sessions})
	}
	for _, a := range r.RiskAlerts {
		out.RiskAlerts = append(out.RiskAlerts, &RiskAlert{
			PatientID: a.PatientID,
			Patient:   a.Patient,
			Risk:      string(a.Risk),
			Reason:    a.Reason,
			Date:      a.Date,
		})
	}
	return out
}
