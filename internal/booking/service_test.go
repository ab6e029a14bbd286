package booking

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"reservas/internal/models"
)

type mockCalendar struct {
	mock.Mock
}

func (m *mockCalendar) BusySlots(ctx context.Context, day time.Time) ([]models.BusySlot, error) {
	args := m.Called(ctx, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.BusySlot), args.Error(1)
}

func (m *mockCalendar) HasConflict(ctx context.Context, iv models.TimeInterval) (bool, error) {
	args := m.Called(ctx, iv)
	return args.Bool(0), args.Error(1)
}

func (m *mockCalendar) CreateEvent(ctx context.Context, req *models.BookingRequest, iv models.TimeInterval) (*models.CreatedEvent, error) {
	args := m.Called(ctx, req, iv)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CreatedEvent), args.Error(1)
}

type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) AppendBooking(ctx context.Context, rec *models.BookingRecord) error {
	return m.Called(ctx, rec).Error(0)
}

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Send(ctx context.Context, toEmail, toName, subject, html string) error {
	return m.Called(ctx, toEmail, toName, subject, html).Error(0)
}

func testStudio() Studio {
	return Studio{
		Name:          "Vanessa Nails Studio",
		OwnerEmail:    "owner@example.com",
		WhatsappPhone: "56991744464",
		DepositLine:   "Para apartar tu hora debes enviar una reserva de $5.000 pesos.",
		BankLines:     []string{"VANESSA MORALES - Cuenta RUT 27774310-8 - Banco Estado"},
	}
}

func testService(cal *mockCalendar, ledger *mockLedger, m *mockMailer) *Service {
	loc, _ := time.LoadLocation("America/Santiago")
	s := NewService(cal, ledger, m, testStudio(), loc, zerolog.New(io.Discard))
	s.now = func() time.Time { return time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC) }
	return s
}

func testRequest() *models.BookingRequest {
	return &models.BookingRequest{
		Client:      models.Client{Name: "Ana", Email: "ana@x.com", Phone: "+56911112222"},
		Date:        "2024-06-10",
		Start:       "14:00",
		DurationMin: 60,
		ServiceName: "Manicure",
	}
}

var errUpstream = assert.AnError

func TestCreateSuccess(t *testing.T) {
	cal := new(mockCalendar)
	ledger := new(mockLedger)
	m := new(mockMailer)
	s := testService(cal, ledger, m)
	req := testRequest()

	ev := &models.CreatedEvent{ID: "evt123", HTMLLink: "https://calendar.example/evt123"}
	cal.On("HasConflict", mock.Anything, mock.Anything).Return(false, nil)
	cal.On("CreateEvent", mock.Anything, req, mock.MatchedBy(func(iv models.TimeInterval) bool {
		return iv.End.Sub(iv.Start) == time.Hour && iv.End.After(iv.Start)
	})).Return(ev, nil)
	ledger.On("AppendBooking", mock.Anything, mock.MatchedBy(func(rec *models.BookingRecord) bool {
		return rec.EventID == "evt123" && rec.ClientName == "Ana" && rec.DurationMinutes == 60
	})).Return(nil)
	m.On("Send", mock.Anything, "ana@x.com", "Ana", "Confirmacion de reserva - Manicure", mock.Anything).Return(nil)
	m.On("Send", mock.Anything, "owner@example.com", "Vanessa Nails Studio", "Nueva cita - Manicure (Ana)", mock.Anything).Return(nil)

	res, err := s.Create(context.Background(), req)

	assert.NoError(t, err)
	assert.Equal(t, "evt123", res.EventID)
	cal.AssertExpectations(t)
	ledger.AssertExpectations(t)
	m.AssertNumberOfCalls(t, "Send", 2)
}

func TestCreateValidationMakesNoExternalCalls(t *testing.T) {
	cal := new(mockCalendar)
	ledger := new(mockLedger)
	m := new(mockMailer)
	s := testService(cal, ledger, m)

	req := testRequest()
	req.Client.Email = ""

	_, err := s.Create(context.Background(), req)

	assert.ErrorIs(t, err, ErrValidation)
	cal.AssertNotCalled(t, "HasConflict")
	cal.AssertNotCalled(t, "CreateEvent")
	ledger.AssertNotCalled(t, "AppendBooking")
	m.AssertNotCalled(t, "Send")
}

func TestCreateConflict(t *testing.T) {
	cal := new(mockCalendar)
	ledger := new(mockLedger)
	m := new(mockMailer)
	s := testService(cal, ledger, m)

	cal.On("HasConflict", mock.Anything, mock.Anything).Return(true, nil)

	_, err := s.Create(context.Background(), testRequest())

	assert.ErrorIs(t, err, ErrConflict)
	cal.AssertNotCalled(t, "CreateEvent")
	ledger.AssertNotCalled(t, "AppendBooking")
	m.AssertNotCalled(t, "Send")
}

func TestCreateConflictCheckUpstreamFailure(t *testing.T) {
	cal := new(mockCalendar)
	s := testService(cal, new(mockLedger), new(mockMailer))

	cal.On("HasConflict", mock.Anything, mock.Anything).Return(false, errUpstream)

	_, err := s.Create(context.Background(), testRequest())

	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrConflict)
	cal.AssertNotCalled(t, "CreateEvent")
}

func TestCreateLedgerFailureLeavesOrphanedEvent(t *testing.T) {
	cal := new(mockCalendar)
	ledger := new(mockLedger)
	m := new(mockMailer)
	s := testService(cal, ledger, m)

	cal.On("HasConflict", mock.Anything, mock.Anything).Return(false, nil)
	cal.On("CreateEvent", mock.Anything, mock.Anything, mock.Anything).
		Return(&models.CreatedEvent{ID: "evt123"}, nil)
	ledger.On("AppendBooking", mock.Anything, mock.Anything).Return(errUpstream)

	_, err := s.Create(context.Background(), testRequest())

	assert.Error(t, err)
	// The booking is not successful, so no notification goes out.
	m.AssertNotCalled(t, "Send")
}

func TestCreateMailFailureDoesNotFailBooking(t *testing.T) {
	cal := new(mockCalendar)
	ledger := new(mockLedger)
	m := new(mockMailer)
	s := testService(cal, ledger, m)

	cal.On("HasConflict", mock.Anything, mock.Anything).Return(false, nil)
	cal.On("CreateEvent", mock.Anything, mock.Anything, mock.Anything).
		Return(&models.CreatedEvent{ID: "evt123"}, nil)
	ledger.On("AppendBooking", mock.Anything, mock.Anything).Return(nil)
	m.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errUpstream)

	res, err := s.Create(context.Background(), testRequest())

	assert.NoError(t, err)
	assert.Equal(t, "evt123", res.EventID)
	m.AssertNumberOfCalls(t, "Send", 2)
}

// TestCreateConflictCheckRace documents current behavior: two requests for
// the same slot that both run their conflict check before either commit
// both succeed. The external calendar is the only arbiter, and it accepts
// overlapping events.
func TestCreateConflictCheckRace(t *testing.T) {
	cal := new(mockCalendar)
	ledger := new(mockLedger)
	m := new(mockMailer)
	s := testService(cal, ledger, m)

	cal.On("HasConflict", mock.Anything, mock.Anything).Return(false, nil).Twice()
	cal.On("CreateEvent", mock.Anything, mock.Anything, mock.Anything).
		Return(&models.CreatedEvent{ID: "evt-a"}, nil).Once()
	cal.On("CreateEvent", mock.Anything, mock.Anything, mock.Anything).
		Return(&models.CreatedEvent{ID: "evt-b"}, nil).Once()
	ledger.On("AppendBooking", mock.Anything, mock.Anything).Return(nil)
	m.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	first, err := s.Create(context.Background(), testRequest())
	assert.NoError(t, err)
	second, err := s.Create(context.Background(), testRequest())
	assert.NoError(t, err)

	assert.NotEqual(t, first.EventID, second.EventID)
	cal.AssertNumberOfCalls(t, "CreateEvent", 2)
}

func TestAvailability(t *testing.T) {
	cal := new(mockCalendar)
	s := testService(cal, new(mockLedger), new(mockMailer))

	slots := []models.BusySlot{
		{Start: "2024-06-10T10:00:00-04:00", End: "2024-06-10T11:00:00-04:00"},
		{Start: "2024-06-10T14:00:00-04:00", End: "2024-06-10T15:00:00-04:00"},
	}
	cal.On("BusySlots", mock.Anything, mock.Anything).Return(slots, nil)

	got, err := s.Availability(context.Background(), "2024-06-10")

	assert.NoError(t, err)
	// Calendar ordering is preserved as-is.
	assert.Equal(t, slots, got)
}

func TestAvailabilityValidation(t *testing.T) {
	s := testService(new(mockCalendar), new(mockLedger), new(mockMailer))

	_, err := s.Availability(context.Background(), "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = s.Availability(context.Background(), "10-06-2024")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAvailabilityCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cal := new(mockCalendar)
	ledger := new(mockLedger)
	m := new(mockMailer)
	s := testService(cal, ledger, m)
	s.UseRedisCache(rdb, time.Minute)

	slots := []models.BusySlot{{Start: "2024-06-10T10:00:00-04:00", End: "2024-06-10T11:00:00-04:00"}}
	cal.On("BusySlots", mock.Anything, mock.Anything).Return(slots, nil).Once()

	first, err := s.Availability(context.Background(), "2024-06-10")
	assert.NoError(t, err)

	// Second query is served from the cache; the calendar mock would panic
	// on a second call.
	second, err := s.Availability(context.Background(), "2024-06-10")
	assert.NoError(t, err)
	assert.Equal(t, first, second)

	// A booking on that day invalidates the cached busy list.
	cal.On("HasConflict", mock.Anything, mock.Anything).Return(false, nil)
	cal.On("CreateEvent", mock.Anything, mock.Anything, mock.Anything).
		Return(&models.CreatedEvent{ID: "evt123"}, nil)
	ledger.On("AppendBooking", mock.Anything, mock.Anything).Return(nil)
	m.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err = s.Create(context.Background(), testRequest())
	assert.NoError(t, err)

	cal.On("BusySlots", mock.Anything, mock.Anything).Return(slots, nil).Once()
	_, err = s.Availability(context.Background(), "2024-06-10")
	assert.NoError(t, err)
	cal.AssertNumberOfCalls(t, "BusySlots", 2)
}
