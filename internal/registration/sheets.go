package registration

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"course-chatter/internal/logger"
)

const headerRange = "A1:F1"

var ErrSheetNotFound = errors.New("spreadsheet not found")

// SheetsSink appends registrations to the first sheet of a Google
// spreadsheet. The spreadsheet is addressed by id, or looked up by name
// through Drive on first use.
type SheetsSink struct {
	sheets    *sheets.Service
	drive     *drive.Service
	sheetName string

	mu            sync.Mutex
	spreadsheetID string

	// headerMu spans the header check and the first append so concurrent
	// first registrations write the header once.
	headerMu      sync.Mutex
	headerChecked bool
}

// NewSheetsSink authenticates with a service account key file.
func NewSheetsSink(ctx context.Context, credentialsPath, spreadsheetID, sheetName string) (*SheetsSink, error) {
	data, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("read google credentials: %w", err)
	}
	conf, err := google.JWTConfigFromJSON(data, sheets.SpreadsheetsScope, drive.DriveMetadataReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parse google credentials: %w", err)
	}
	httpClient := conf.Client(ctx)
	return NewSheetsSinkWithOptions(ctx, spreadsheetID, sheetName, option.WithHTTPClient(httpClient))
}

// NewSheetsSinkWithOptions builds the Sheets and Drive services from raw client options.
func NewSheetsSinkWithOptions(ctx context.Context, spreadsheetID, sheetName string, opts ...option.ClientOption) (*SheetsSink, error) {
	sheetsSvc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	var driveSvc *drive.Service
	if spreadsheetID == "" {
		driveSvc, err = drive.NewService(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("create drive service: %w", err)
		}
	}
	return &SheetsSink{
		sheets:        sheetsSvc,
		drive:         driveSvc,
		sheetName:     sheetName,
		spreadsheetID: spreadsheetID,
	}, nil
}

func (s *SheetsSink) Save(ctx context.Context, rec Record) error {
	id, err := s.resolve(ctx)
	if err != nil {
		return err
	}

	s.headerMu.Lock()
	if s.headerChecked {
		s.headerMu.Unlock()
		return s.appendRows(ctx, id, rec.Row())
	}
	defer s.headerMu.Unlock()

	head, err := s.sheets.Spreadsheets.Values.Get(id, headerRange).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read header row: %w", err)
	}
	rows := [][]interface{}{}
	if head == nil || len(head.Values) == 0 {
		rows = append(rows, Header)
	}
	if err := s.appendRows(ctx, id, append(rows, rec.Row())...); err != nil {
		return err
	}
	s.headerChecked = true
	return nil
}

func (s *SheetsSink) appendRows(ctx context.Context, id string, rows ...[]interface{}) error {
	_, err := s.sheets.Spreadsheets.Values.Append(id, headerRange, &sheets.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append registration row: %w", err)
	}
	logger.Infof(ctx, "📝 Registration row appended to spreadsheet %s", id)
	return nil
}

// resolve caches the spreadsheet id. Failed lookups are retried on the next call.
func (s *SheetsSink) resolve(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.spreadsheetID != "" {
		return s.spreadsheetID, nil
	}
	if s.drive == nil {
		return "", fmt.Errorf("%w: no spreadsheet id or drive access", ErrSheetNotFound)
	}
	q := fmt.Sprintf("name = '%s' and mimeType = 'application/vnd.google-apps.spreadsheet' and trashed = false",
		driveQuote(s.sheetName))
	list, err := s.drive.Files.List().Q(q).Fields("files(id, name)").PageSize(1).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("search spreadsheet %q: %w", s.sheetName, err)
	}
	if len(list.Files) == 0 {
		return "", fmt.Errorf("%w: %q", ErrSheetNotFound, s.sheetName)
	}
	s.spreadsheetID = list.Files[0].Id
	return s.spreadsheetID, nil
}

var driveQuoter = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// driveQuote escapes a value for a single-quoted Drive query string.
func driveQuote(v string) string {
	return driveQuoter.Replace(v)
}
