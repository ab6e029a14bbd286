package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"reservas/internal/booking"
	"reservas/internal/metrics"
	"reservas/internal/models"
)

// AvailabilityResponse is the body for GET /api/bookings?date=YYYY-MM-DD.
type AvailabilityResponse struct {
	Busy []models.BusySlot `json:"busy"`
}

// BookingResponse is the body for POST /api/bookings.
type BookingResponse struct {
	Success bool   `json:"success"`
	EventID string `json:"eventId,omitempty"`
	Error   string `json:"error,omitempty"`
}

// handleBookings is the single public endpoint:
// GET lists busy slots for a day, POST creates a booking, OPTIONS is the
// pre-flight probe, anything else is 405.
func (s *HTTPServer) handleBookings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
	case http.MethodGet:
		s.handleAvailability(w, r)
	case http.MethodPost:
		s.handleCreateBooking(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	}
}

func (s *HTTPServer) handleAvailability(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("availability")

	slots, err := s.svc.Availability(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		if errors.Is(err, booking.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.log.Error().Err(err).Msg("availability query failed")
		writeError(w, http.StatusInternalServerError, "Internal Server Error: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, AvailabilityResponse{Busy: slots})
}

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("create_booking")

	if s.limiter != nil && !s.limiter.Allow() {
		writeError(w, http.StatusTooManyRequests, "too many requests; try again shortly")
		return
	}

	var req models.BookingRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, BookingResponse{Success: false, Error: "invalid JSON body"})
		return
	}

	res, err := s.svc.Create(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrValidation):
			writeJSON(w, http.StatusBadRequest, BookingResponse{Success: false, Error: err.Error()})
		case errors.Is(err, booking.ErrConflict):
			writeJSON(w, http.StatusConflict, BookingResponse{Success: false, Error: booking.ConflictMessage})
		default:
			s.log.Error().Err(err).Msg("booking creation failed")
			writeJSON(w, http.StatusInternalServerError, BookingResponse{
				Success: false,
				Error:   "Internal Server Error: " + err.Error(),
			})
		}
		return
	}

	writeJSON(w, http.StatusOK, BookingResponse{Success: true, EventID: res.EventID})
}
