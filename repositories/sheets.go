package repositories

import (
	"chatroom/domain"
	"chatroom/errors"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"google.golang.org/api/sheets/v4"
)

// TimestampLayout is the fixed wire format of the third sheet column,
// interpreted in one deployment-wide time zone.
const TimestampLayout = "2006-01-02 15:04:05"

// SheetsRepository backs the message log with a Google Sheets spreadsheet.
// Rows have exactly three cells in fixed order: user, message, timestamp.
// Row order is append order, which is what ReadAll relies on.
type SheetsRepository struct {
	svc           *sheets.Service
	spreadsheetID string
	readRange     string
	location      *time.Location
	log           *slog.Logger
}

func NewSheetsRepository(svc *sheets.Service, spreadsheetID, readRange string,
	location *time.Location, log *slog.Logger) SheetsRepository {
	return SheetsRepository{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		readRange:     readRange,
		location:      location,
		log:           log,
	}
}

func (s SheetsRepository) ReadAll(ctx context.Context) ([]domain.Message, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}

	var messages []domain.Message
	for i, row := range resp.Values {
		message, err := s.toMessage(row)
		if err != nil {
			// A malformed row must not poison the whole feed.
			s.log.Warn("Skipping malformed sheet row", "row", i, "error", err)
			continue
		}
		messages = append(messages, message)
	}
	return messages, nil
}

func (s SheetsRepository) Append(ctx context.Context, message domain.Message) error {
	values := &sheets.ValueRange{
		Values: [][]interface{}{
			{message.User, message.Text, message.At.In(s.location).Format(TimestampLayout)},
		},
	}
	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, s.readRange, values).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	return nil
}

func (s SheetsRepository) toMessage(row []interface{}) (domain.Message, error) {
	if len(row) < 3 {
		return domain.Message{}, fmt.Errorf("expected 3 cells, got %d", len(row))
	}
	user, ok := row[0].(string)
	if !ok || user == "" {
		return domain.Message{}, fmt.Errorf("user cell is not a string")
	}
	text, ok := row[1].(string)
	if !ok {
		return domain.Message{}, fmt.Errorf("message cell is not a string")
	}
	raw, ok := row[2].(string)
	if !ok {
		return domain.Message{}, fmt.Errorf("timestamp cell is not a string")
	}
	at, err := time.ParseInLocation(TimestampLayout, raw, s.location)
	if err != nil {
		return domain.Message{}, err
	}
	// Sheet rows carry no identifier, one is minted per read.
	return domain.Message{
		ID:   uuid.New(),
		User: user,
		Text: text,
		At:   at,
	}, nil
}
