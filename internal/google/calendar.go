package google

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"reservas/internal/models"
)

// CalendarService wraps the Google Calendar API for a single fixed
// calendar resource. It is the source of truth for availability.
type CalendarService struct {
	svc        *calendar.Service
	calendarID string
	timezone   string
	log        zerolog.Logger
}

func NewCalendarService(ctx context.Context, httpClient *http.Client, calendarID, timezone string, log zerolog.Logger) (*CalendarService, error) {
	svc, err := calendar.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return &CalendarService{
		svc:        svc,
		calendarID: calendarID,
		timezone:   timezone,
		log:        log.With().Str("component", "calendar").Logger(),
	}, nil
}

// BusySlots lists the events intersecting the given day, in the
// calendar's native ordering (by start time).
func (s *CalendarService) BusySlots(ctx context.Context, day time.Time) ([]models.BusySlot, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.Add(24*time.Hour - time.Millisecond)

	res, err := s.svc.Events.List(s.calendarID).
		TimeMin(dayStart.Format(time.RFC3339)).
		TimeMax(dayEnd.Format(time.RFC3339)).
		TimeZone(s.timezone).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	return busySlotsFromEvents(res.Items), nil
}

// HasConflict reports whether any existing event overlaps the interval.
func (s *CalendarService) HasConflict(ctx context.Context, iv models.TimeInterval) (bool, error) {
	res, err := s.svc.Events.List(s.calendarID).
		TimeMin(iv.Start.Format(time.RFC3339)).
		TimeMax(iv.End.Format(time.RFC3339)).
		TimeZone(s.timezone).
		SingleEvents(true).
		MaxResults(1).
		Context(ctx).
		Do()
	if err != nil {
		return false, fmt.Errorf("list events: %w", err)
	}
	return len(res.Items) > 0, nil
}

// CreateEvent inserts the booking's event. The client is registered as an
// attendee and sendUpdates=all lets Google deliver its own invitation.
func (s *CalendarService) CreateEvent(ctx context.Context, req *models.BookingRequest, iv models.TimeInterval) (*models.CreatedEvent, error) {
	event := &calendar.Event{
		Summary:     eventSummary(req),
		Description: eventDescription(req),
		Start: &calendar.EventDateTime{
			DateTime: iv.Start.Format(time.RFC3339),
			TimeZone: s.timezone,
		},
		End: &calendar.EventDateTime{
			DateTime: iv.End.Format(time.RFC3339),
			TimeZone: s.timezone,
		},
		Attendees: []*calendar.EventAttendee{
			{Email: req.Client.Email},
		},
	}

	created, err := s.svc.Events.Insert(s.calendarID, event).
		SendUpdates("all").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}

	s.log.Info().
		Str("event_id", created.Id).
		Str("service", req.ServiceName).
		Time("start", iv.Start).
		Msg("calendar event created")

	return &models.CreatedEvent{ID: created.Id, HTMLLink: created.HtmlLink}, nil
}

func busySlotsFromEvents(items []*calendar.Event) []models.BusySlot {
	slots := make([]models.BusySlot, 0, len(items))
	for _, item := range items {
		slots = append(slots, models.BusySlot{
			Start: eventEdge(item.Start),
			End:   eventEdge(item.End),
		})
	}
	return slots
}

// eventEdge returns the instant of a timed event, or the date string of
// an all-day event.
func eventEdge(edge *calendar.EventDateTime) string {
	if edge == nil {
		return ""
	}
	if edge.DateTime != "" {
		return edge.DateTime
	}
	return edge.Date
}

func eventSummary(req *models.BookingRequest) string {
	summary := fmt.Sprintf("Cita: %s con %s", req.ServiceName, req.Client.Name)
	if req.ExtraCupo {
		summary += " (EXTRA)"
	}
	return summary
}

func eventDescription(req *models.BookingRequest) string {
	modality := "Normal"
	if req.ExtraCupo {
		modality = "Extra Cupo"
	}
	return strings.Join([]string{
		"Cliente: " + req.Client.Name,
		"Email: " + req.Client.Email,
		"Telefono: " + req.Client.Phone,
		"Servicio: " + req.ServiceName,
		fmt.Sprintf("Duracion: %d min", req.DurationMin),
		"Modalidad: " + modality,
	}, "\n")
}
