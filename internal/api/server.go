// Package api is the HTTP+JSON boundary of the reservation service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"aura/internal/audit"
	"aura/internal/availability"
	"aura/internal/booking"
	"aura/internal/db"
	"aura/internal/metrics"
	"aura/internal/models"
	"aura/internal/session"
)

// Store is the part of the relational store the handlers read and the admin
// configuration endpoints write. *db.DB satisfies it.
type Store interface {
	PingContext(ctx context.Context) error

	ListWeeklySchedules(ctx context.Context) ([]models.WeeklySchedule, error)
	UpsertWeeklySchedule(ctx context.Context, s *models.WeeklySchedule) error
	UpsertTimeSlot(ctx context.Context, w models.Weekday, slot *models.TimeSlot) error
	DeleteTimeSlot(ctx context.Context, id int64) error

	ListDateOverrides(ctx context.Context, from, to models.Date) ([]models.DateOverride, error)
	InsertDateOverride(ctx context.Context, o *models.DateOverride) error
	DeleteDateOverride(ctx context.Context, id int64) error

	ListReservations(ctx context.Context, f db.ReservationFilter) ([]models.Reservation, error)
	ListOrders(ctx context.Context, f db.OrderFilter) ([]models.Order, error)
	ListMenuItems(ctx context.Context, onlyAvailable bool) ([]models.MenuItem, error)
	ListActivity(ctx context.Context, f db.ActivityFilter) ([]models.ActivityLog, error)
}

// Options tune the listener and the booking rate limit.
type Options struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	RateLimitEnabled bool
	RatePerSecond    float64
	RateBurst        int
	// TrustedProxies are IPs or CIDRs allowed to set X-Forwarded-For and
	// X-Real-IP. Headers from any other peer are ignored.
	TrustedProxies []string
}

// Deps are the collaborators the handlers call into.
type Deps struct {
	Store    Store
	Engine   *availability.Engine
	Booking  *booking.Service
	Verifier session.Verifier
	Exporter *audit.Exporter
}

type HTTPServer struct {
	store    Store
	engine   *availability.Engine
	booking  *booking.Service
	verifier session.Verifier
	exporter *audit.Exporter
	limiter  *ipLimiter
	proxies  trustedProxies
	logger   *zerolog.Logger
	server   *http.Server
}

func NewHTTPServer(opts Options, deps Deps, logger *zerolog.Logger) *HTTPServer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	s := &HTTPServer{
		store:    deps.Store,
		engine:   deps.Engine,
		booking:  deps.Booking,
		verifier: deps.Verifier,
		exporter: deps.Exporter,
		logger:   logger,
	}
	if opts.RateLimitEnabled {
		s.limiter = newIPLimiter(opts.RatePerSecond, opts.RateBurst)
	}
	proxies, err := parseTrustedProxies(opts.TrustedProxies)
	if err != nil {
		logger.Error().Err(err).Msg("Ignoring trusted proxies; forwarding headers will not be used")
	}
	s.proxies = proxies

	mux := http.NewServeMux()
	s.routes(mux)

	s.server = &http.Server{
		Addr:         opts.Address,
		Handler:      s.withRequestLogging(mux),
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	}
	return s
}

func (s *HTTPServer) routes(mux *http.ServeMux) {
	// Availability (public).
	s.handle(mux, "GET /api/availability/{date}", "availability_day", s.handleDayAvailability)
	s.handle(mux, "GET /api/availability/calendar/{start}/{end}", "availability_calendar", s.handleCalendar)
	s.handle(mux, "GET /api/schedule/available/{date}", "availability_day", s.handleDayAvailability)
	s.handle(mux, "GET /api/schedule/calendar/{start}/{end}", "availability_calendar", s.handleCalendar)

	// Reservations.
	s.handle(mux, "POST /api/reservations", "reservation_create", s.rateLimited(s.requireUser(s.handleCreateReservation)))
	s.handle(mux, "GET /api/my-reservations", "reservation_mine", s.requireUser(s.handleMyReservations))
	s.handle(mux, "GET /api/reservations", "reservation_list", s.requireAdmin(s.handleListReservations))
	s.handle(mux, "PUT /api/reservations/{id}", "reservation_update", s.requireAdmin(s.handleUpdateReservation))
	s.handle(mux, "DELETE /api/reservations/{id}", "reservation_delete", s.requireAdmin(s.handleDeleteReservation))

	// Weekly template and date overrides (admin).
	s.handle(mux, "GET /api/schedule", "schedule_list", s.handleListSchedule)
	s.handle(mux, "PUT /api/schedule/{weekday}", "schedule_upsert", s.requireAdmin(s.handleUpsertSchedule))
	s.handle(mux, "POST /api/schedule/{weekday}/slots", "slot_upsert", s.requireAdmin(s.handleUpsertSlot))
	s.handle(mux, "DELETE /api/schedule/slots/{id}", "slot_delete", s.requireAdmin(s.handleDeleteSlot))
	s.handle(mux, "GET /api/date-overrides", "override_list", s.requireAdmin(s.handleListOverrides))
	s.handle(mux, "POST /api/date-overrides", "override_create", s.requireAdmin(s.handleCreateOverride))
	s.handle(mux, "DELETE /api/date-overrides/{id}", "override_delete", s.requireAdmin(s.handleDeleteOverride))

	// Menu and orders.
	s.handle(mux, "GET /api/menu", "menu", s.handleMenu)
	s.handle(mux, "POST /api/orders", "order_create", s.rateLimited(s.requireUser(s.handleCreateOrder)))
	s.handle(mux, "POST /api/orders/guest", "order_create_guest", s.rateLimited(s.handleCreateGuestOrder))
	s.handle(mux, "GET /api/my-orders", "order_mine", s.requireUser(s.handleMyOrders))
	s.handle(mux, "GET /api/orders", "order_list", s.requireAdmin(s.handleListOrders))
	s.handle(mux, "PUT /api/orders/{id}", "order_update", s.requireAdmin(s.handleUpdateOrder))
	s.handle(mux, "DELETE /api/orders/{id}", "order_delete", s.requireAdmin(s.handleDeleteOrder))

	// Reporting (admin).
	s.handle(mux, "GET /api/admin/activity-logs", "activity_list", s.requireAdmin(s.handleActivityLogs))
	s.handle(mux, "GET /api/admin/export", "export", s.requireAdmin(s.handleExport))
}

// handle registers h and records its latency and status under name.
func (s *HTTPServer) handle(mux *http.ServeMux, pattern, name string, h http.HandlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec, ok := w.(*statusRecorder)
		if !ok {
			rec = &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		}
		h(rec, r)
		metrics.ObserveHTTP(name, rec.status, time.Since(start))
	})
}

// Handler exposes the routed handler, mainly for tests.
func (s *HTTPServer) Handler() http.Handler { return s.server.Handler }

// Start blocks serving until Shutdown is called.
func (s *HTTPServer) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// withRequestLogging tags each request with an id, puts a request-scoped
// logger into the context and writes one access log line.
func (s *HTTPServer) withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)

		logger := s.logger.With().Str("request_id", reqID).Logger()
		r = r.WithContext(logger.WithContext(r.Context()))

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Int("bytes", rec.bytes).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// decodeJSON reads a single JSON object from the body, rejecting unknown
// fields.
func decodeJSON(r *http.Request, v any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}
