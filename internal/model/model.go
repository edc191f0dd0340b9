package model

import "time"

type UserType string

const (
	Psychologist UserType = "psychologist"
	PatientUser  UserType = "patient"
)

func (t UserType) Valid() bool {
	return t == Psychologist || t == PatientUser
}

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Type         UserType  `json:"type"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone,omitempty"`
	Specialty    string    `json:"specialty,omitempty"`
	LicenseID    string    `json:"license_id,omitempty"`
	BirthDate    string    `json:"birth_date,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type PatientStatus string

const (
	PatientActive      PatientStatus = "active"
	PatientInTreatment PatientStatus = "in_treatment"
)

func (s PatientStatus) Valid() bool {
	return s == PatientActive || s == PatientInTreatment
}

// Patient is a profile owned by one psychologist. PsychologistID 0 marks a
// self-registered patient that nobody has taken on yet.
type Patient struct {
	ID             int64         `json:"id"`
	Name           string        `json:"name"`
	Email          string        `json:"email"`
	Phone          string        `json:"phone"`
	BirthDate      string        `json:"birth_date"`
	Age            int           `json:"age"`
	Status         PatientStatus `json:"status"`
	PsychologistID int64         `json:"psychologist_id"`
	TotalSessions  int           `json:"total_sessions"`
}

type AppointmentStatus string

const (
	Scheduled AppointmentStatus = "scheduled"
	Started   AppointmentStatus = "started"
	Completed AppointmentStatus = "completed"
	Canceled  AppointmentStatus = "canceled"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case Scheduled, Started, Completed, Canceled:
		return true
	}
	return false
}

type Appointment struct {
	ID             int64             `json:"id"`
	PatientID      int64             `json:"patient_id"`
	PsychologistID int64             `json:"psychologist_id"`
	Date           string            `json:"date"`
	Time           string            `json:"time"`
	Duration       int               `json:"duration"`
	Status         AppointmentStatus `json:"status"`
	Description    string            `json:"description"`
	Notes          string            `json:"notes"`
	FullReport     string            `json:"full_report"`
}

type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

func (u Urgency) Valid() bool {
	return u == UrgencyLow || u == UrgencyMedium || u == UrgencyHigh
}

type RequestStatus string

const (
	Pending  RequestStatus = "pending"
	Accepted RequestStatus = "accepted"
	Rejected RequestStatus = "rejected"
)

func (s RequestStatus) Valid() bool {
	return s == Pending || s == Accepted || s == Rejected
}

// Request is an unauthenticated inquiry asking a psychologist to take the
// sender on as a patient.
type Request struct {
	ID                    int64         `json:"id"`
	PatientName           string        `json:"patient_name"`
	PatientEmail          string        `json:"patient_email"`
	PatientPhone          string        `json:"patient_phone"`
	PreferredPsychologist int64         `json:"preferred_psychologist"`
	Description           string        `json:"description"`
	Urgency               Urgency       `json:"urgency"`
	PreferredDates        []string      `json:"preferred_dates,omitempty"`
	PreferredTimes        []string      `json:"preferred_times,omitempty"`
	Status                RequestStatus `json:"status"`
	Notes                 string        `json:"notes,omitempty"`
	CreatedAt             time.Time     `json:"created_at"`
	UpdatedAt             *time.Time    `json:"updated_at,omitempty"`
}
