package client

import (
	"context"
	"errors"
	"net/http"

	"lunysse-scheduler/internal/ledger"
	"lunysse-scheduler/internal/model"
)

type Session struct {
	AccessToken string     `json:"access_token"`
	TokenType   string     `json:"token_type"`
	User        model.User `json:"user"`
}

type Registration struct {
	Email           string         `json:"email"`
	Password        string         `json:"password"`
	ConfirmPassword string         `json:"confirm_password,omitempty"`
	Name            string         `json:"name"`
	Type            model.UserType `json:"type"`
	Phone           string         `json:"phone,omitempty"`
	Specialty       string         `json:"specialty,omitempty"`
	LicenseID       string         `json:"license_id,omitempty"`
	BirthDate       string         `json:"birth_date,omitempty"`
}

type NewPatient struct {
	Name      string              `json:"name"`
	Email     string              `json:"email"`
	Phone     string              `json:"phone,omitempty"`
	BirthDate string              `json:"birth_date,omitempty"`
	Status    model.PatientStatus `json:"status,omitempty"`
}

// PatientUpdate only sends the fields that are set.
type PatientUpdate struct {
	Name      *string              `json:"name,omitempty"`
	Phone     *string              `json:"phone,omitempty"`
	BirthDate *string              `json:"birth_date,omitempty"`
	Status    *model.PatientStatus `json:"status,omitempty"`
}

type NewAppointment struct {
	PatientID      int64  `json:"patient_id,omitempty"`
	PsychologistID int64  `json:"psychologist_id,omitempty"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	Duration       int    `json:"duration,omitempty"`
	Description    string `json:"description,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

type AppointmentUpdate struct {
	Date        *string                  `json:"date,omitempty"`
	Time        *string                  `json:"time,omitempty"`
	Duration    *int                     `json:"duration,omitempty"`
	Description *string                  `json:"description,omitempty"`
	Notes       *string                  `json:"notes,omitempty"`
	FullReport  *string                  `json:"full_report,omitempty"`
	Status      *model.AppointmentStatus `json:"status,omitempty"`
}

type AppointmentQuery struct {
	Date         string
	Status       model.AppointmentStatus
	PatientEmail string
}

type NewRequest struct {
	PatientName    string        `json:"patient_name"`
	PatientEmail   string        `json:"patient_email"`
	PatientPhone   string        `json:"patient_phone,omitempty"`
	PsychologistID int64         `json:"preferred_psychologist"`
	Description    string        `json:"description,omitempty"`
	Urgency        model.Urgency `json:"urgency,omitempty"`
	PreferredDates []string      `json:"preferred_dates,omitempty"`
	PreferredTimes []string      `json:"preferred_times,omitempty"`
}

// RequestUpdate is the answer to a status change. Patient is only set when
// the request was accepted.
type RequestUpdate struct {
	model.Request
	Patient *model.Patient `json:"patient,omitempty"`
}

// Login stores the returned token for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var out Session
	body := map[string]string{"email": email, "password": password}
	if err := c.call(ctx, http.MethodPost, "/auth/login", body, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.AccessToken)
	return &out, nil
}

func (c *Client) Register(ctx context.Context, in Registration) (*Session, error) {
	var out Session
	if err := c.call(ctx, http.MethodPost, "/auth/register", in, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.AccessToken)
	return &out, nil
}

func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var out model.User
	if err := c.get(ctx, "/auth/me", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Psychologists(ctx context.Context) ([]model.User, error) {
	var out []model.User
	if err := c.get(ctx, "/psychologists/", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Patients(ctx context.Context) ([]model.Patient, error) {
	var out []model.Patient
	if err := c.get(ctx, "/patients/", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) PatientDetails(ctx context.Context, id int64) (*model.Patient, error) {
	var out model.Patient
	if err := c.get(ctx, idPath("/patients/", id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreatePatient(ctx context.Context, in NewPatient) (*model.Patient, error) {
	var out model.Patient
	if err := c.call(ctx, http.MethodPost, "/patients/", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdatePatient(ctx context.Context, id int64, in PatientUpdate) (*model.Patient, error) {
	var out model.Patient
	if err := c.call(ctx, http.MethodPut, idPath("/patients/", id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PatientSessions(ctx context.Context, id int64) ([]model.Appointment, error) {
	var out []model.Appointment
	if err := c.get(ctx, idPath("/patients/", id)+"/sessions", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Appointments(ctx context.Context, q AppointmentQuery) ([]model.Appointment, error) {
	var out []model.Appointment
	r := c.request(ctx).SetResult(&out)
	if q.Date != "" {
		r.SetQueryParam("date", q.Date)
	}
	if q.Status != "" {
		r.SetQueryParam("status", string(q.Status))
	}
	if q.PatientEmail != "" {
		r.SetQueryParam("patient_email", q.PatientEmail)
	}
	if _, err := c.send(r, http.MethodGet, "/appointments/"); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateAppointment(ctx context.Context, in NewAppointment) (*model.Appointment, error) {
	var out model.Appointment
	if err := c.call(ctx, http.MethodPost, "/appointments/", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SessionDetails(ctx context.Context, id int64) (*model.Appointment, error) {
	var out model.Appointment
	if err := c.get(ctx, idPath("/appointments/", id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateAppointment(ctx context.Context, id int64, in AppointmentUpdate) (*model.Appointment, error) {
	var out model.Appointment
	if err := c.call(ctx, http.MethodPut, idPath("/appointments/", id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CancelAppointment(ctx context.Context, id int64) (*model.Appointment, error) {
	var out model.Appointment
	if err := c.call(ctx, http.MethodDelete, idPath("/appointments/", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateSessionStatus(ctx context.Context, id int64, status model.AppointmentStatus) (*model.Appointment, error) {
	var out model.Appointment
	body := map[string]model.AppointmentStatus{"status": status}
	if err := c.call(ctx, http.MethodPatch, idPath("/appointments/", id)+"/status", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateSessionNotes(ctx context.Context, id int64, notes, fullReport string) (*model.Appointment, error) {
	var out model.Appointment
	body := map[string]string{"notes": notes, "full_report": fullReport}
	if err := c.call(ctx, http.MethodPatch, idPath("/appointments/", id)+"/notes", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AvailableSlots(ctx context.Context, psychologistID int64, date string) ([]string, error) {
	var out []string
	r := c.request(ctx).SetResult(&out).SetQueryParams(map[string]string{
		"psychologist_id": idPath("", psychologistID),
		"date":            date,
	})
	if _, err := c.send(r, http.MethodGet, "/appointments/available-slots"); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Dashboard(ctx context.Context) (*ledger.Dashboard, error) {
	var out ledger.Dashboard
	if err := c.get(ctx, "/dashboard", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Requests lists scheduling requests, optionally by status. Callers that
// may not see requests get an empty list instead of an error.
func (c *Client) Requests(ctx context.Context, status model.RequestStatus) ([]model.Request, error) {
	var out []model.Request
	r := c.request(ctx).SetResult(&out)
	if status != "" {
		r.SetQueryParam("status", string(status))
	}
	if _, err := c.send(r, http.MethodGet, "/requests/"); err != nil {
		if errors.Is(err, ledger.ErrForbidden) {
			return []model.Request{}, nil
		}
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateRequest(ctx context.Context, in NewRequest) (*model.Request, error) {
	var out model.Request
	if err := c.call(ctx, http.MethodPost, "/requests/", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateRequestStatus(ctx context.Context, id int64, status model.RequestStatus) (*RequestUpdate, error) {
	var out RequestUpdate
	body := map[string]model.RequestStatus{"status": status}
	if err := c.call(ctx, http.MethodPut, idPath("/requests/", id), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Report(ctx context.Context, psychologistID int64) (*ledger.Report, error) {
	var out ledger.Report
	if err := c.get(ctx, idPath("/reports/", psychologistID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExportReport downloads the report workbook as raw xlsx bytes.
func (c *Client) ExportReport(ctx context.Context, psychologistID int64) ([]byte, error) {
	resp, err := c.send(c.request(ctx), http.MethodGet, idPath("/reports/", psychologistID)+"/export")
	if err != nil {
		return nil, err
	}
	return resp.Body(), nil
}

func (c *Client) RiskAnalysis(ctx context.Context) ([]ledger.PatientRisk, error) {
	var out []ledger.PatientRisk
	if err := c.get(ctx, "/ml/risk-analysis", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) PatientRisk(ctx context.Context, patientID int64) (*ledger.PatientRisk, error) {
	var out ledger.PatientRisk
	if err := c.get(ctx, idPath("/ml/risk-analysis/", patientID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}
