package store

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"lunysse-scheduler/internal/auth"
	"lunysse-scheduler/internal/model"
)

// FixturePassword is the password of every seeded account.
const FixturePassword = "123456"

// Fixtures describes the demo data set: three psychologists, one patient
// account, twelve patients and a handful of sessions and requests. Session
// dates are relative to Now.
type Fixtures struct {
	Now      func() time.Time
	HashCost int
}

func (f Fixtures) state() (*memState, error) {
	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	cost := f.HashCost
	if cost == 0 {
		cost = bcrypt.MinCost
	}
	hash, err := auth.HashPassword(FixturePassword, cost)
	if err != nil {
		return nil, err
	}

	t := now()
	day := func(offset int) string { return t.AddDate(0, 0, offset).Format("2006-01-02") }
	st := newMemState()

	for _, u := range []model.User{
		{ID: 2, Email: "ana@test.com", Type: model.Psychologist, Name: "Dra. Ana Costa", Specialty: "Cognitive Behavioral Therapy", LicenseID: "CRP 01/23456"},
		{ID: 3, Email: "carlos@test.com", Type: model.Psychologist, Name: "Dr. Carlos Mendes", Specialty: "Child Psychology", LicenseID: "CRP 01/34567"},
		{ID: 4, Email: "lucia@test.com", Type: model.Psychologist, Name: "Dra. Lucia Ferreira", Specialty: "Family Therapy", LicenseID: "CRP 01/45678"},
		{ID: 5, Email: "paciente@test.com", Type: model.PatientUser, Name: "Maria Santos", BirthDate: "1995-05-10"},
	} {
		u.PasswordHash = hash
		u.CreatedAt = t.UTC()
		st.users[u.ID] = u
	}

	for _, p := range []model.Patient{
		{ID: 5, Name: "Maria Santos", Email: "paciente@test.com", Phone: "(11) 99999-4444", BirthDate: "1995-05-10", Status: model.PatientInTreatment, PsychologistID: 2},
		{ID: 6, Name: "Lucas Pereira", Email: "lucas.pereira@email.com", Phone: "(11) 99999-6666", BirthDate: "1987-11-25", Status: model.PatientActive, PsychologistID: 2},
		{ID: 7, Name: "Camila Rodrigues", Email: "camila.rodrigues@email.com", Phone: "(11) 99999-7777", BirthDate: "1993-09-08", Status: model.PatientInTreatment, PsychologistID: 2},
		{ID: 8, Name: "Diego Santos", Email: "diego.santos@email.com", Phone: "(11) 99999-8888", BirthDate: "1991-06-30", Status: model.PatientActive, PsychologistID: 2},
		{ID: 20, Name: "Fernanda Lima", Email: "fernanda.lima@email.com", Phone: "(11) 99999-5555", BirthDate: "1992-03-12", Status: model.PatientInTreatment, PsychologistID: 2},
		{ID: 9, Name: "Isabella Martins", Email: "isabella.martins@email.com", Phone: "(11) 99999-9999", BirthDate: "1994-04-14", Status: model.PatientInTreatment, PsychologistID: 3},
		{ID: 10, Name: "Gabriel Alves", Email: "gabriel.alves@email.com", Phone: "(11) 99999-0000", BirthDate: "1989-10-07", Status: model.PatientActive, PsychologistID: 3},
		{ID: 11, Name: "Sophia Ferreira", Email: "sophia.ferreira@email.com", Phone: "(11) 88888-1111", BirthDate: "1996-01-20", Status: model.PatientInTreatment, PsychologistID: 3},
		{ID: 12, Name: "Mateus Barbosa", Email: "mateus.barbosa@email.com", Phone: "(11) 88888-2222", BirthDate: "1986-12-11", Status: model.PatientActive, PsychologistID: 3},
		{ID: 13, Name: "Beatriz Souza", Email: "beatriz.souza@email.com", Phone: "(11) 88888-3333", BirthDate: "1990-08-05", Status: model.PatientInTreatment, PsychologistID: 4},
		{ID: 14, Name: "Thiago Nascimento", Email: "thiago.nascimento@email.com", Phone: "(11) 88888-4444", BirthDate: "1984-05-28", Status: model.PatientActive, PsychologistID: 4},
		{ID: 15, Name: "Larissa Campos", Email: "larissa.campos@email.com", Phone: "(11) 88888-5555", BirthDate: "1997-02-16", Status: model.PatientInTreatment, PsychologistID: 4},
		{ID: 16, Name: "André Moreira", Email: "andre.moreira@email.com", Phone: "(11) 88888-6666", BirthDate: "1983-11-09", Status: model.PatientActive, PsychologistID: 4},
	} {
		st.patients[p.ID] = p
	}

	for _, a := range []model.Appointment{
		{ID: 8, PatientID: 5, PsychologistID: 2, Date: day(-2), Time: "14:00", Duration: 50, Status: model.Completed,
			Description: "Cognitive behavioral therapy", Notes: "Productive session using CBT techniques.", FullReport: "Patient responded well to the interventions."},
		{ID: 9, PatientID: 6, PsychologistID: 2, Date: day(2), Time: "15:00", Duration: 50, Status: model.Scheduled,
			Description: "Follow-up session"},
		{ID: 10, PatientID: 7, PsychologistID: 2, Date: day(-8), Time: "11:00", Duration: 60, Status: model.Completed,
			Description: "First session", Notes: "Successful first appointment.", FullReport: "Therapeutic bond established."},
		{ID: 11, PatientID: 9, PsychologistID: 3, Date: day(-1), Time: "09:00", Duration: 45, Status: model.Completed,
			Description: "Child psychology, play therapy", Notes: "Very productive play therapy session.", FullReport: "Child showed good interaction."},
		{ID: 12, PatientID: 10, PsychologistID: 3, Date: day(4), Time: "10:00", Duration: 50, Status: model.Scheduled,
			Description: "Behavioral assessment"},
		{ID: 13, PatientID: 13, PsychologistID: 4, Date: day(-6), Time: "16:00", Duration: 60, Status: model.Completed,
			Description: "Family therapy", Notes: "Very productive family session.", FullReport: "Family showed good communication."},
		{ID: 14, PatientID: 14, PsychologistID: 4, Date: day(1), Time: "14:00", Duration: 60, Status: model.Scheduled,
			Description: "Couples therapy"},
		{ID: 17, PatientID: 5, PsychologistID: 2, Date: day(-7), Time: "14:00", Duration: 60, Status: model.Completed,
			Description: "First session, psychological assessment", Notes: "First appointment went well. Patient was receptive.", FullReport: "Full anamnesis. Mild anxiety symptoms identified."},
		{ID: 18, PatientID: 5, PsychologistID: 2, Date: day(-14), Time: "15:00", Duration: 50, Status: model.Completed,
			Description: "Cognitive behavioral therapy", Notes: "Worked on breathing and cognitive restructuring.", FullReport: "Patient responded well to the CBT techniques."},
		{ID: 19, PatientID: 5, PsychologistID: 2, Date: day(-21), Time: "14:00", Duration: 50, Status: model.Completed,
			Description: "Follow-up session", Notes: "Significant progress. Patient reported better sleep.", FullReport: "Positive evolution. Anxiety symptoms reduced."},
		{ID: 21, PatientID: 5, PsychologistID: 2, Date: day(1), Time: "15:00", Duration: 50, Status: model.Scheduled,
			Description: "Follow-up session"},
	} {
		st.appointments[a.ID] = a
	}

	for _, r := range []model.Request{
		{ID: 1, PatientName: "João Silva", PatientEmail: "joao.silva@email.com", PatientPhone: "(11) 99999-1111", PreferredPsychologist: 2,
			Description: "I would like to book a session. I need help with anxiety and stress at work. Afternoons work for me.",
			Urgency:     model.UrgencyMedium, PreferredDates: []string{"2024-12-20", "2024-12-21"}, PreferredTimes: []string{"14:00", "15:00"},
			Status: model.Pending, CreatedAt: t.UTC()},
		{ID: 2, PatientName: "Ana Oliveira", PatientEmail: "ana.oliveira@email.com", PatientPhone: "(11) 88888-2222", PreferredPsychologist: 3,
			Description: "I would like a session for my 8 year old son, who is having behavioral difficulties at school.",
			Urgency:     model.UrgencyHigh, PreferredDates: []string{"2024-12-19"}, PreferredTimes: []string{"09:00", "10:00"},
			Status: model.Pending, CreatedAt: t.Add(-24 * time.Hour).UTC()},
	} {
		st.requests[r.ID] = r
	}
	return st, nil
}
