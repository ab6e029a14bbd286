package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"reservas/internal/mailer"
	"reservas/internal/metrics"
	"reservas/internal/models"
)

// Step errors. The API boundary maps these to response codes; everything
// else is an upstream failure.
var (
	ErrValidation = errors.New("invalid request")
	ErrConflict   = errors.New("slot no longer available")
)

// ConflictMessage is the user-facing conflict text, suitable for direct
// display in the booking UI.
const ConflictMessage = "El horario seleccionado ya no esta disponible. Por favor, elige otro."

// Calendar is the external calendar, the source of truth for availability.
type Calendar interface {
	BusySlots(ctx context.Context, day time.Time) ([]models.BusySlot, error)
	HasConflict(ctx context.Context, iv models.TimeInterval) (bool, error)
	CreateEvent(ctx context.Context, req *models.BookingRequest, iv models.TimeInterval) (*models.CreatedEvent, error)
}

// Ledger is the append-only booking log.
type Ledger interface {
	AppendBooking(ctx context.Context, rec *models.BookingRecord) error
}

// Mailer delivers one HTML email.
type Mailer interface {
	Send(ctx context.Context, toEmail, toName, subject, html string) error
}

// Studio holds the fixed business facts that appear in events and emails.
type Studio struct {
	Name          string
	OwnerEmail    string
	WhatsappPhone string
	DepositLine   string
	BankLines     []string
}

// Result is returned for a successful booking.
type Result struct {
	EventID   string
	EventLink string
}

// Service runs the availability query and the booking sequence:
// validate, compute interval, conflict check, create event, append ledger
// row, notify. Steps 3 and 4 are not atomic with respect to each other;
// two concurrent requests for the same slot can both pass the conflict
// check before either commits. See DESIGN.md.
type Service struct {
	calendar Calendar
	ledger   Ledger
	mailer   Mailer
	studio   Studio
	loc      *time.Location

	cache    *redis.Client
	cacheTTL time.Duration

	now func() time.Time
	log zerolog.Logger
}

func NewService(cal Calendar, ledger Ledger, m Mailer, studio Studio, loc *time.Location, log zerolog.Logger) *Service {
	return &Service{
		calendar: cal,
		ledger:   ledger,
		mailer:   m,
		studio:   studio,
		loc:      loc,
		now:      time.Now,
		log:      log.With().Str("component", "booking").Logger(),
	}
}

// UseRedisCache configures optional caching of availability responses.
func (s *Service) UseRedisCache(cache *redis.Client, ttl time.Duration) {
	s.cache = cache
	s.cacheTTL = ttl
}

// Availability returns the busy slots for one calendar day. Read-only.
func (s *Service) Availability(ctx context.Context, dateStr string) ([]models.BusySlot, error) {
	if dateStr == "" {
		return nil, fmt.Errorf("%w: missing date parameter", ErrValidation)
	}
	day, err := time.ParseInLocation("2006-01-02", dateStr, s.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date format; expected YYYY-MM-DD", ErrValidation)
	}

	cacheKey := "busy:" + dateStr
	var slots []models.BusySlot
	if s.readCache(ctx, cacheKey, &slots) {
		metrics.IncCacheLookup("hit")
		return slots, nil
	}
	metrics.IncCacheLookup("miss")

	slots, err = s.calendar.BusySlots(ctx, day)
	if err != nil {
		return nil, err
	}
	s.writeCache(ctx, cacheKey, slots)
	return slots, nil
}

// Create runs the booking sequence. On success exactly one calendar event
// and one ledger row exist, and up to two confirmation emails were sent.
func (s *Service) Create(ctx context.Context, req *models.BookingRequest) (*Result, error) {
	if err := req.Validate(); err != nil {
		metrics.IncBooking("validation_error")
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	iv, err := req.Interval(s.loc)
	if err != nil {
		metrics.IncBooking("validation_error")
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	conflict, err := s.calendar.HasConflict(ctx, iv)
	if err != nil {
		metrics.IncBooking("error")
		return nil, fmt.Errorf("conflict check: %w", err)
	}
	if conflict {
		metrics.IncBooking("conflict")
		return nil, ErrConflict
	}

	ev, err := s.calendar.CreateEvent(ctx, req, iv)
	if err != nil {
		metrics.IncBooking("error")
		return nil, fmt.Errorf("create event: %w", err)
	}

	rec := models.NewBookingRecord(req, iv, ev, s.now())
	if err := s.ledger.AppendBooking(ctx, rec); err != nil {
		// The event exists but the ledger row does not. No compensating
		// delete: the owner reconciles from the calendar.
		metrics.IncLedgerFailure()
		metrics.IncBooking("error")
		s.log.Error().Err(err).
			Str("event_id", ev.ID).
			Msg("ledger append failed after event creation; event is orphaned")
		return nil, fmt.Errorf("append ledger row: %w", err)
	}

	s.invalidateDay(ctx, req.Date)
	s.notify(ctx, req, ev)

	metrics.IncBooking("created")
	s.log.Info().
		Str("event_id", ev.ID).
		Str("service", req.ServiceName).
		Str("client", req.Client.Name).
		Msg("booking created")

	return &Result{EventID: ev.ID, EventLink: ev.HTMLLink}, nil
}

// notify sends the confirmation to the client and the owner. The booking
// is already committed; mail failures are logged and counted, never
// returned to the caller.
func (s *Service) notify(ctx context.Context, req *models.BookingRequest, ev *models.CreatedEvent) {
	conf := mailer.Confirmation{
		StudioName:  s.studio.Name,
		ClientName:  req.Client.Name,
		Date:        req.Date,
		Time:        req.Start,
		DurationMin: req.DurationMin,
		Phone:       req.Client.Phone,
		ServiceName: req.ServiceName,
		EventLink:   ev.HTMLLink,
		DepositLine: s.studio.DepositLine,
		BankLines:   s.studio.BankLines,
		WhatsAppURL: mailer.WhatsAppLink(s.studio.WhatsappPhone, req.Client.Name),
	}

	html, err := mailer.RenderConfirmation(conf)
	if err != nil {
		metrics.IncMailFailure()
		s.log.Error().Err(err).Msg("failed to render confirmation email")
		return
	}

	if err := s.mailer.Send(ctx, req.Client.Email, req.Client.Name, conf.ClientSubject(), html); err != nil {
		metrics.IncMailFailure()
		s.log.Error().Err(err).Str("to", req.Client.Email).Msg("failed to send client confirmation")
	}
	if err := s.mailer.Send(ctx, s.studio.OwnerEmail, s.studio.Name, conf.OwnerSubject(), html); err != nil {
		metrics.IncMailFailure()
		s.log.Error().Err(err).Str("to", s.studio.OwnerEmail).Msg("failed to send owner notification")
	}
}

func (s *Service) readCache(ctx context.Context, key string, out any) bool {
	if s.cache == nil || s.cacheTTL <= 0 {
		return false
	}
	val, err := s.cache.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

func (s *Service) writeCache(ctx context.Context, key string, val any) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = s.cache.Set(ctx, key, data, s.cacheTTL).Err()
}

// invalidateDay drops the cached busy list for a day after a booking
// lands on it.
func (s *Service) invalidateDay(ctx context.Context, dateStr string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Del(ctx, "busy:"+dateStr).Err()
}
