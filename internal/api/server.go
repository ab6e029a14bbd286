package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"reservas/internal/booking"
	"reservas/internal/models"
)

// BookingService is the booking core consumed by the HTTP layer.
type BookingService interface {
	Availability(ctx context.Context, date string) ([]models.BusySlot, error)
	Create(ctx context.Context, req *models.BookingRequest) (*booking.Result, error)
}

// HTTPServer exposes the public booking endpoint. All responses carry
// permissive cross-origin headers so the static booking front end can
// call it from anywhere.
type HTTPServer struct {
	svc     BookingService
	limiter *rate.Limiter
	log     zerolog.Logger
	server  *http.Server
}

func New(port int, svc BookingService, limiter *rate.Limiter, log zerolog.Logger) *HTTPServer {
	s := &HTTPServer{
		svc:     svc,
		limiter: limiter,
		log:     log.With().Str("component", "api").Logger(),
	}

	r := mux.NewRouter()
	r.HandleFunc("/api/bookings", s.handleBookings)

	recovery := handlers.RecoveryHandler()
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: recovery(s.withRequestID(withCORS(r))),
	}
	return s
}

// withCORS sets permissive cross-origin headers on every response,
// including errors, so the static front end can call the API from any
// origin. The pre-flight 204 itself is answered by handleBookings.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		next.ServeHTTP(w, r)
	})
}

// Handler returns the full middleware chain.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = s.server.Shutdown(ctxShutdown)
	}()

	s.log.Info().Str("addr", s.server.Addr).Msg("booking API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *HTTPServer) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()
		w.Header().Set("X-Request-Id", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.log.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Msg("request handled")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
