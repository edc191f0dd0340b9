package httpapi_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/bcrypt"

	"lunysse-scheduler/internal/auth"
	"lunysse-scheduler/internal/events"
	"lunysse-scheduler/internal/export"
	"lunysse-scheduler/internal/httpapi"
	"lunysse-scheduler/internal/ledger"
	"lunysse-scheduler/internal/middleware"
	"lunysse-scheduler/internal/model"
	"lunysse-scheduler/internal/store"
)

var fixedNow = time.Date(2024, 12, 18, 10, 0, 0, 0, time.UTC)

type env struct {
	h     http.Handler
	bus   *events.Bus
	ana   string
	carlo string
	maria string
}

func setup(t *testing.T, opts ...httpapi.Option) *env {
	t.Helper()
	now := func() time.Time { return fixedNow }
	bus := events.NewBus(16)
	svc := ledger.New(store.NewSeededMemory(store.Fixtures{Now: now}),
		ledger.WithClock(now),
		ledger.WithHashCost(bcrypt.MinCost),
		ledger.WithPublisher(bus),
	)
	iss := auth.NewIssuer("test-secret", time.Hour)
	opts = append([]httpapi.Option{httpapi.WithBus(bus)}, opts...)
	e := &env{h: httpapi.New(svc, iss, opts...).Routes(), bus: bus}
	e.ana = token(t, iss, 2, model.Psychologist)
	e.carlo = token(t, iss, 3, model.Psychologist)
	e.maria = token(t, iss, 5, model.PatientUser)
	return e
}

func token(t *testing.T, iss *auth.Issuer, id int64, typ model.UserType) string {
	t.Helper()
	tok, err := iss.Make(id, typ)
	require.NoError(t, err)
	return tok
}

func (e *env) do(t *testing.T, method, path, tok string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	e.h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

type fieldDetail struct {
	Loc []string `json:"loc"`
	Msg string   `json:"msg"`
}

func TestLogin(t *testing.T) {
	e := setup(t)

	rec := e.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "ana@test.com", "password": store.FixturePassword})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode[struct {
		AccessToken string     `json:"access_token"`
		TokenType   string     `json:"token_type"`
		User        model.User `json:"user"`
	}](t, rec)
	assert.NotEmpty(t, out.AccessToken)
	assert.Equal(t, "bearer", out.TokenType)
	assert.Equal(t, int64(2), out.User.ID)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = e.do(t, http.MethodGet, "/auth/me", out.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ana@test.com", decode[model.User](t, rec).Email)

	tests := []struct {
		name string
		body any
		code int
	}{
		{"wrong password", map[string]string{"email": "ana@test.com", "password": "wrong!"}, http.StatusUnauthorized},
		{"unknown user", map[string]string{"email": "x@test.com", "password": "123456"}, http.StatusUnauthorized},
		{"bad json", "{", http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, e.do(t, http.MethodPost, "/auth/login", "", tt.body).Code)
		})
	}
}

func TestRegister(t *testing.T) {
	e := setup(t)
	body := map[string]string{
		"email": "novo@test.com", "password": "secret1", "confirm_password": "secret1",
		"name": "Novo Paciente", "type": "patient", "birth_date": "2000-06-15",
	}

	rec := e.do(t, http.MethodPost, "/auth/register", "", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = e.do(t, http.MethodPost, "/auth/register", "", body)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = e.do(t, http.MethodPost, "/auth/register", "", map[string]string{"email": "broken", "password": "secret1", "name": "X", "type": "psychologist"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	out := decode[struct {
		Detail []fieldDetail `json:"detail"`
	}](t, rec)
	require.NotEmpty(t, out.Detail)
	assert.Equal(t, []string{"body", "email"}, out.Detail[0].Loc)
}

func TestAuthRequired(t *testing.T) {
	e := setup(t)
	assert.Equal(t, http.StatusUnauthorized, e.do(t, http.MethodGet, "/patients/", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, e.do(t, http.MethodGet, "/patients/", "not.a.token", nil).Code)
	assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/psychologists/", "", nil).Code)
	assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/healthz", "", nil).Code)
}

func TestPatients(t *testing.T) {
	e := setup(t)

	rec := e.do(t, http.MethodGet, "/patients/", e.ana, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	pats := decode[[]model.Patient](t, rec)
	assert.Len(t, pats, 5)

	assert.Equal(t, http.StatusForbidden, e.do(t, http.MethodGet, "/patients/", e.maria, nil).Code)
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/patients/6", e.carlo, nil).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, e.do(t, http.MethodGet, "/patients/abc", e.ana, nil).Code)

	rec = e.do(t, http.MethodGet, "/patients/5", e.ana, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[model.Patient](t, rec)
	assert.Equal(t, 5, p.TotalSessions)
	assert.Equal(t, 29, p.Age)

	rec = e.do(t, http.MethodPut, "/patients/6", e.ana, map[string]string{"status": "in_treatment"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.PatientInTreatment, decode[model.Patient](t, rec).Status)

	rec = e.do(t, http.MethodPost, "/patients/", e.ana, map[string]string{"name": "Nova", "email": "nova@test.com"})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = e.do(t, http.MethodPost, "/patients/", e.ana, map[string]string{"name": "Nova", "email": "nova@test.com"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = e.do(t, http.MethodGet, "/patients/5/sessions", e.maria, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.Appointment](t, rec), 5)
}

func TestAppointments(t *testing.T) {
	e := setup(t)

	slots := func() []string {
		rec := e.do(t, http.MethodGet, "/appointments/available-slots?date=2024-12-20&psychologist_id=2", e.maria, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		return decode[[]string](t, rec)
	}
	assert.Equal(t, []string{"09:00", "10:00", "11:00", "14:00", "16:00", "17:00"}, slots())

	rec := e.do(t, http.MethodPost, "/appointments/", e.maria, map[string]any{
		"psychologist_id": 2, "date": "2024-12-20", "time": "10:00", "description": "Follow-up",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	apt := decode[model.Appointment](t, rec)
	assert.Equal(t, int64(5), apt.PatientID)
	assert.Equal(t, model.Scheduled, apt.Status)
	assert.Equal(t, 50, apt.Duration)
	assert.Equal(t, []string{"09:00", "11:00", "14:00", "16:00", "17:00"}, slots())

	path := "/appointments/" + itoa(apt.ID)
	rec = e.do(t, http.MethodPatch, path+"/status", e.ana, map[string]string{"status": "started"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.Started, decode[model.Appointment](t, rec).Status)

	rec = e.do(t, http.MethodPatch, path+"/notes", e.ana, map[string]string{"notes": "short", "full_report": "long"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "long", decode[model.Appointment](t, rec).FullReport)

	rec = e.do(t, http.MethodPut, path, e.ana, map[string]any{"time": "11:00", "duration": 60})
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[model.Appointment](t, rec)
	assert.Equal(t, "11:00", got.Time)
	assert.Equal(t, 60, got.Duration)
	assert.Equal(t, "short", got.Notes)

	rec = e.do(t, http.MethodDelete, path, e.maria, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.Canceled, decode[model.Appointment](t, rec).Status)

	tests := []struct {
		name   string
		method string
		path   string
		tok    string
		body   any
		code   int
	}{
		{"bad status", http.MethodPatch, path + "/status", e.ana, map[string]string{"status": "paused"}, http.StatusUnprocessableEntity},
		{"other psychologist", http.MethodGet, path, e.carlo, nil, http.StatusNotFound},
		{"missing", http.MethodGet, "/appointments/42", e.ana, nil, http.StatusNotFound},
		{"bad slot date", http.MethodGet, "/appointments/available-slots?date=tomorrow&psychologist_id=2", e.ana, nil, http.StatusUnprocessableEntity},
		{"bad slot psychologist", http.MethodGet, "/appointments/available-slots?date=2024-12-20&psychologist_id=x", e.ana, nil, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, e.do(t, tt.method, tt.path, tt.tok, tt.body).Code)
		})
	}
}

func TestListAppointments(t *testing.T) {
	e := setup(t)

	rec := e.do(t, http.MethodGet, "/appointments/?status=scheduled", e.ana, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int64{21, 9}, ids(decode[[]model.Appointment](t, rec)))

	rec = e.do(t, http.MethodGet, "/appointments/?patient_email=paciente@test.com", e.ana, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int64{19, 18, 17, 8, 21}, ids(decode[[]model.Appointment](t, rec)))

	rec = e.do(t, http.MethodGet, "/appointments/?patient_email=paciente@test.com", e.carlo, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]model.Appointment](t, rec))
}

func TestDashboard(t *testing.T) {
	e := setup(t)

	rec := e.do(t, http.MethodGet, "/dashboard", e.ana, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	d := decode[ledger.Dashboard](t, rec)
	assert.Equal(t, []int64{21, 9}, ids(d.Upcoming))
	assert.Equal(t, []int64{8, 17, 10}, ids(d.Recent))
	assert.Equal(t, 5, d.CompletedSessions)
	assert.Equal(t, 5, d.ActivePatients)
	assert.Equal(t, 1, d.PendingRequests)
}

func TestRequests(t *testing.T) {
	e := setup(t)
	body := map[string]any{
		"patient_name": "Paula Reis", "patient_email": "paula@test.com", "preferred_psychologist": 2,
		"description": "Stress", "urgency": "low",
	}

	rec := e.do(t, http.MethodPost, "/requests/", "", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	req := decode[model.Request](t, rec)
	assert.Equal(t, model.Pending, req.Status)

	assert.Equal(t, http.StatusConflict, e.do(t, http.MethodPost, "/requests/", "", body).Code)
	assert.Equal(t, http.StatusForbidden, e.do(t, http.MethodGet, "/requests/", e.maria, nil).Code)

	rec = e.do(t, http.MethodGet, "/requests/?status=pending&psychologist_id=2", e.ana, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.Request](t, rec), 2)

	rec = e.do(t, http.MethodPut, "/requests/"+itoa(req.ID), e.ana, map[string]string{"status": "accepted"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	acc := decode[struct {
		model.Request
		Patient model.Patient `json:"patient"`
	}](t, rec)
	assert.Equal(t, model.Accepted, acc.Status)
	assert.Equal(t, "paula@test.com", acc.Patient.Email)
	assert.Equal(t, int64(2), acc.Patient.PsychologistID)

	rec = e.do(t, http.MethodPut, "/requests/2", e.ana, map[string]string{"status": "rejected"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "request rejected", decode[model.Request](t, rec).Notes)

	rec = e.do(t, http.MethodPut, "/requests/2", e.ana, map[string]string{"status": "pending", "notes": "reopened"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.Pending, decode[model.Request](t, rec).Status)

	assert.Equal(t, http.StatusForbidden, e.do(t, http.MethodPut, "/requests/2", e.maria, map[string]string{"status": "accepted"}).Code)
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodPut, "/requests/77", e.ana, map[string]string{"status": "rejected"}).Code)
}

func TestReports(t *testing.T) {
	e := setup(t)

	rec := e.do(t, http.MethodGet, "/reports/2", e.ana, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rep := decode[ledger.Report](t, rec)
	assert.Equal(t, 7, rep.Stats.TotalSessions)
	assert.InDelta(t, 71.4, rep.Stats.CompletionRate, 1e-9)
	assert.Len(t, rep.RiskAlerts, 3)

	assert.Equal(t, http.StatusForbidden, e.do(t, http.MethodGet, "/reports/3", e.ana, nil).Code)
	assert.Equal(t, http.StatusForbidden, e.do(t, http.MethodGet, "/reports/5", e.maria, nil).Code)

	rec = e.do(t, http.MethodGet, "/reports/2/export", e.ana, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.ContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "report-2-20241218.xlsx")
	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	v, err := f.GetCellValue(export.SummarySheet, "B4")
	require.NoError(t, err)
	assert.Equal(t, "7", v)
}

func TestRiskAnalysis(t *testing.T) {
	e := setup(t)

	rec := e.do(t, http.MethodGet, "/ml/risk-analysis", e.ana, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]ledger.PatientRisk](t, rec), 5)

	assert.Equal(t, http.StatusForbidden, e.do(t, http.MethodGet, "/ml/risk-analysis", e.maria, nil).Code)

	rec = e.do(t, http.MethodGet, "/ml/risk-analysis/5", e.maria, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	r := decode[ledger.PatientRisk](t, rec)
	assert.Equal(t, ledger.RiskLow, r.Level)
	assert.Equal(t, 4, r.Completed)

	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/ml/risk-analysis/9", e.ana, nil).Code)
}

func TestRateLimitedAuth(t *testing.T) {
	rl := middleware.NewRateLimiter(0.001, 1)
	defer rl.Close()
	e := setup(t, httpapi.WithLimiter(rl))

	body := map[string]string{"email": "ana@test.com", "password": store.FixturePassword}
	assert.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/auth/login", "", body).Code)
	assert.Equal(t, http.StatusTooManyRequests, e.do(t, http.MethodPost, "/auth/login", "", body).Code)
	// authenticated routes are not throttled
	assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/dashboard", e.ana, nil).Code)
}

func TestEventsStream(t *testing.T) {
	e := setup(t)
	srv := httptest.NewServer(e.h)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+e.ana)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool { return e.bus.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	// another practice's event is filtered out
	require.NoError(t, e.bus.Publish(ctx, events.New(events.AppointmentUpdated, 12, 3)))
	// a mutation through the API reaches the stream
	rec := e.do(t, http.MethodPatch, "/appointments/9/status", e.ana, map[string]string{"status": "started"})
	require.Equal(t, http.StatusOK, rec.Code)

	sc := bufio.NewScanner(resp.Body)
	var got events.Event
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "data: ") {
			require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &got))
			break
		}
	}
	assert.Equal(t, events.AppointmentUpdated, got.Kind)
	assert.Equal(t, int64(9), got.EntityID)
	assert.Equal(t, int64(2), got.PsychologistID)
}

func ids(apts []model.Appointment) []int64 {
	out := make([]int64, len(apts))
	for i, a := range apts {
		out[i] = a.ID
	}
	return out
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
