package google

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"

	"reservas/internal/models"
)

// SheetsService appends booking rows to the ledger spreadsheet.
// The ledger is append-only: this service never updates or deletes rows.
type SheetsService struct {
	svc           *sheets.Service
	spreadsheetID string
	sheetName     string
	log           zerolog.Logger
}

func NewSheetsService(ctx context.Context, httpClient *http.Client, spreadsheetID, sheetName string, log zerolog.Logger) (*SheetsService, error) {
	svc, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &SheetsService{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		log:           log.With().Str("component", "sheets").Logger(),
	}, nil
}

// AppendBooking appends one ledger row for a committed booking.
func (s *SheetsService) AppendBooking(ctx context.Context, rec *models.BookingRecord) error {
	vr := &sheets.ValueRange{
		Values: [][]interface{}{rec.RowValues()},
	}

	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, s.appendRange(), vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append ledger row: %w", err)
	}

	s.log.Info().
		Str("event_id", rec.EventID).
		Str("client", rec.ClientName).
		Msg("ledger row appended")
	return nil
}

// ListBookings reads the full ledger back, earliest-first by append order.
func (s *SheetsService) ListBookings(ctx context.Context) ([]models.BookingRecord, error) {
	res, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.readRange()).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}

	records := make([]models.BookingRecord, 0, len(res.Values))
	for i, row := range res.Values {
		rec, err := models.RecordFromRow(row)
		if err != nil {
			// Skip malformed rows (hand-edited or header rows) but keep going.
			s.log.Warn().Err(err).Int("row", i+1).Msg("skipping unparseable ledger row")
			continue
		}
		records = append(records, *rec)
	}
	return records, nil
}

func (s *SheetsService) appendRange() string {
	return s.sheetName + "!A1"
}

func (s *SheetsService) readRange() string {
	return s.sheetName + "!A:K"
}
