package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Client holds the contact details of the person booking a slot.
type Client struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// BookingRequest is the payload for creating a booking.
// Date is YYYY-MM-DD and Start is HH:MM, both in the studio's time zone.
type BookingRequest struct {
	Client      Client `json:"client"`
	Date        string `json:"date"`
	Start       string `json:"start"`
	DurationMin int    `json:"durationMin"`
	ServiceName string `json:"serviceName"`
	ExtraCupo   bool   `json:"extraCupo"`
}

// Validate checks that all required fields are present and well-formed.
// It performs no external calls; a request that fails validation must be
// rejected before any calendar or sheet access.
func (r *BookingRequest) Validate() error {
	switch {
	case strings.TrimSpace(r.Client.Name) == "":
		return fmt.Errorf("client.name is required")
	case strings.TrimSpace(r.Client.Email) == "":
		return fmt.Errorf("client.email is required")
	case strings.TrimSpace(r.Client.Phone) == "":
		return fmt.Errorf("client.phone is required")
	case r.Date == "":
		return fmt.Errorf("date is required")
	case r.Start == "":
		return fmt.Errorf("start is required")
	case r.ServiceName == "":
		return fmt.Errorf("serviceName is required")
	case r.DurationMin <= 0:
		return fmt.Errorf("durationMin must be a positive number")
	}
	return nil
}

// TimeInterval is the half-open slot [Start, End) a booking occupies.
type TimeInterval struct {
	Start time.Time
	End   time.Time
}

// Interval derives the booking's time interval in the given location.
// Invariant: End = Start + DurationMin, so End > Start for valid requests.
func (r *BookingRequest) Interval(loc *time.Location) (TimeInterval, error) {
	start, err := time.ParseInLocation("2006-01-02T15:04", r.Date+"T"+r.Start, loc)
	if err != nil {
		return TimeInterval{}, fmt.Errorf("invalid date/start: %w", err)
	}
	return TimeInterval{
		Start: start,
		End:   start.Add(time.Duration(r.DurationMin) * time.Minute),
	}, nil
}

// BusySlot is a read-only projection of an existing calendar event.
// Start/End are either RFC 3339 instants or all-day date strings,
// exactly as the calendar returns them.
type BusySlot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// CreatedEvent holds the only two things we keep from a calendar event
// after creating it.
type CreatedEvent struct {
	ID       string
	HTMLLink string
}

// BookingRecord is one ledger row. Rows are append-only: once written
// they are never updated or deleted by this service.
type BookingRecord struct {
	CreatedAt       time.Time
	ClientName      string
	ClientEmail     string
	ClientPhone     string
	ServiceName     string
	Start           time.Time
	End             time.Time
	DurationMinutes int
	IsExtraSlot     bool
	EventID         string
	EventLink       string
}

// NewBookingRecord builds the ledger row for a committed booking.
func NewBookingRecord(req *BookingRequest, iv TimeInterval, ev *CreatedEvent, createdAt time.Time) *BookingRecord {
	return &BookingRecord{
		CreatedAt:       createdAt,
		ClientName:      req.Client.Name,
		ClientEmail:     req.Client.Email,
		ClientPhone:     req.Client.Phone,
		ServiceName:     req.ServiceName,
		Start:           iv.Start,
		End:             iv.End,
		DurationMinutes: req.DurationMin,
		IsExtraSlot:     req.ExtraCupo,
		EventID:         ev.ID,
		EventLink:       ev.HTMLLink,
	}
}

// RowValues returns the eleven ordered cells of the ledger row.
func (r *BookingRecord) RowValues() []interface{} {
	extra := "NO"
	if r.IsExtraSlot {
		extra = "SI"
	}
	return []interface{}{
		r.CreatedAt.Format(time.RFC3339),
		r.ClientName,
		r.ClientEmail,
		r.ClientPhone,
		r.ServiceName,
		r.Start.Format(time.RFC3339),
		r.End.Format(time.RFC3339),
		r.DurationMinutes,
		extra,
		r.EventID,
		r.EventLink,
	}
}

// RecordFromRow parses a ledger row read back from the sheet.
func RecordFromRow(row []interface{}) (*BookingRecord, error) {
	if len(row) != 11 {
		return nil, fmt.Errorf("expected 11 columns, got %d", len(row))
	}
	cells := make([]string, len(row))
	for i, v := range row {
		cells[i] = fmt.Sprint(v)
	}

	createdAt, err := time.Parse(time.RFC3339, cells[0])
	if err != nil {
		return nil, fmt.Errorf("invalid createdAt: %w", err)
	}
	start, err := time.Parse(time.RFC3339, cells[5])
	if err != nil {
		return nil, fmt.Errorf("invalid start: %w", err)
	}
	end, err := time.Parse(time.RFC3339, cells[6])
	if err != nil {
		return nil, fmt.Errorf("invalid end: %w", err)
	}
	duration, err := strconv.Atoi(cells[7])
	if err != nil {
		return nil, fmt.Errorf("invalid durationMinutes: %w", err)
	}

	return &BookingRecord{
		CreatedAt:       createdAt,
		ClientName:      cells[1],
		ClientEmail:     cells[2],
		ClientPhone:     cells[3],
		ServiceName:     cells[4],
		Start:           start,
		End:             end,
		DurationMinutes: duration,
		IsExtraSlot:     cells[8] == "SI",
		EventID:         cells[9],
		EventLink:       cells[10],
	}, nil
}
