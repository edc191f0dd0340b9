// Package httpapi serves the ledger as the JSON REST API the web client
// talks to.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"lunysse-scheduler/internal/auth"
	"lunysse-scheduler/internal/events"
	"lunysse-scheduler/internal/ledger"
	mw "lunysse-scheduler/internal/middleware"
)

type API struct {
	svc     *ledger.Service
	issuer  *auth.Issuer
	bus     *events.Bus
	limiter *mw.RateLimiter
	log     *zap.Logger
	origins []string
}

type Option func(*API)

// WithBus enables GET /events.
func WithBus(b *events.Bus) Option { return func(a *API) { a.bus = b } }

// WithLimiter throttles the auth routes and request creation per client IP.
func WithLimiter(rl *mw.RateLimiter) Option { return func(a *API) { a.limiter = rl } }

func WithLogger(l *zap.Logger) Option { return func(a *API) { a.log = l } }

func WithOrigins(origins []string) Option { return func(a *API) { a.origins = origins } }

func New(svc *ledger.Service, issuer *auth.Issuer, opts ...Option) *API {
	a := &API{svc: svc, issuer: issuer, log: zap.NewNop()}
	for _, o := range opts {
		o(a)
	}
	a.log = a.log.Named("http")
	return a
}

func (a *API) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(a.requestLogger)
	r.Use(middleware.Recoverer)

	if len(a.origins) > 0 {
		c := cors.New(cors.Options{
			AllowedOrigins:   a.origins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
			AllowCredentials: true,
			MaxAge:           300,
		})
		r.Use(c.Handler)
	}
	r.Use(mw.Authenticate(a.issuer))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// open
	r.Group(func(r chi.Router) {
		r.Use(a.limit)
		r.Post("/auth/login", a.login)
		r.Post("/auth/register", a.register)
		r.Post("/requests/", a.createRequest)
	})
	r.Get("/psychologists/", a.psychologists)

	r.Group(func(r chi.Router) {
		r.Use(mw.RequireCaller)

		r.Get("/auth/me", a.me)
		r.Get("/dashboard", a.dashboard)

		r.Route("/patients", func(r chi.Router) {
			r.Get("/", a.listPatients)
			r.Post("/", a.createPatient)
			r.Get("/{id}", a.patientDetails)
			r.Put("/{id}", a.updatePatient)
			r.Get("/{id}/sessions", a.patientSessions)
		})

		r.Route("/appointments", func(r chi.Router) {
			r.Get("/", a.listAppointments)
			r.Post("/", a.createAppointment)
			r.Get("/available-slots", a.availableSlots)
			r.Get("/{id}", a.sessionDetails)
			r.Put("/{id}", a.updateAppointment)
			r.Delete("/{id}", a.cancelAppointment)
			r.Patch("/{id}/status", a.updateSessionStatus)
			r.Patch("/{id}/notes", a.updateSessionNotes)
		})

		r.Get("/requests/", a.listRequests)
		r.Put("/requests/{id}", a.updateRequest)

		r.Get("/reports/{id}", a.report)
		r.Get("/reports/{id}/export", a.exportReport)
		r.Get("/ml/risk-analysis", a.riskAnalysis)
		r.Get("/ml/risk-analysis/{id}", a.patientRisk)

		if a.bus != nil {
			r.Get("/events", a.events)
		}
	})
	return r
}

func (a *API) limit(next http.Handler) http.Handler {
	if a.limiter == nil {
		return next
	}
	return mw.LimitHTTP(a.limiter)(next)
}

func (a *API) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		a.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
