// Package sheets implements the Tabular Store on a Google Sheets worksheet,
// located by spreadsheet name through Google Drive.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/JakeFAU/careers-crawler/internal/crawler"
	"github.com/JakeFAU/careers-crawler/internal/store"
)

const spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"

// Config locates the worksheet and the service-account credentials.
type Config struct {
	CredentialsFile string
	// SpreadsheetID skips the Drive lookup by name when set.
	SpreadsheetID   string
	SpreadsheetName string
	// Worksheet defaults to the first sheet.
	Worksheet string
	// ThrottleRetries is how many times a 429/5xx response is resent; 0 sends once.
	ThrottleRetries int
	// ClientOptions are appended to the credential options; tests use them
	// to point at a local endpoint.
	ClientOptions []option.ClientOption
}

// Store is a crawler.TabularStore backed by one worksheet.
type Store struct {
	cfg    Config
	logger *zap.Logger
	retry  *crawler.ExponentialRetryPolicy

	mu            sync.RWMutex
	sheets        *sheetsapi.Service
	spreadsheetID string
	worksheet     string
}

// New builds an unopened Store.
func New(cfg Config, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		cfg:    cfg,
		logger: logger,
		retry:  crawler.NewExponentialRetryPolicy(max(cfg.ThrottleRetries, 0)+1, isThrottled),
	}
}

// Open authenticates, resolves the spreadsheet by name, and selects the worksheet.
func (s *Store) Open(ctx context.Context) error {
	opts := s.clientOptions(sheetsapi.SpreadsheetsScope, drive.DriveMetadataReadonlyScope)

	svc, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return fmt.Errorf("%w: create sheets service: %w", crawler.ErrStoreAuth, err)
	}

	id := s.cfg.SpreadsheetID
	if id == "" {
		id, err = s.lookupByName(ctx, opts)
		if err != nil {
			return err
		}
	}

	meta, err := svc.Spreadsheets.Get(id).Fields("spreadsheetId", "sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%w: open spreadsheet %s: %w", crawler.ErrStoreAuth, id, err)
	}
	worksheet, err := pickWorksheet(meta, s.cfg.Worksheet)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.sheets = svc
	s.spreadsheetID = id
	s.worksheet = worksheet
	s.mu.Unlock()

	s.logger.Info("spreadsheet opened",
		zap.String("spreadsheet_id", id),
		zap.String("worksheet", worksheet),
	)
	return nil
}

func (s *Store) clientOptions(scopes ...string) []option.ClientOption {
	var opts []option.ClientOption
	if s.cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(s.cfg.CredentialsFile), option.WithScopes(scopes...))
	}
	return append(opts, s.cfg.ClientOptions...)
}

func (s *Store) lookupByName(ctx context.Context, opts []option.ClientOption) (string, error) {
	if s.cfg.SpreadsheetName == "" {
		return "", fmt.Errorf("%w: spreadsheet name or id is required", crawler.ErrStoreAuth)
	}
	driveSvc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: create drive service: %w", crawler.ErrStoreAuth, err)
	}
	query := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false",
		strings.ReplaceAll(s.cfg.SpreadsheetName, "'", `\'`), spreadsheetMimeType)
	list, err := driveSvc.Files.List().Q(query).Fields("files(id, name)").PageSize(10).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("%w: find spreadsheet %q: %w", crawler.ErrStoreAuth, s.cfg.SpreadsheetName, err)
	}
	if len(list.Files) == 0 {
		return "", fmt.Errorf("%w: spreadsheet %q not found or not shared", crawler.ErrStoreAuth, s.cfg.SpreadsheetName)
	}
	if len(list.Files) > 1 {
		s.logger.Warn("several spreadsheets share the name, using the first",
			zap.String("name", s.cfg.SpreadsheetName),
			zap.Int("matches", len(list.Files)),
		)
	}
	return list.Files[0].Id, nil
}

func pickWorksheet(meta *sheetsapi.Spreadsheet, want string) (string, error) {
	for _, sheet := range meta.Sheets {
		if sheet.Properties == nil {
			continue
		}
		if want == "" || sheet.Properties.Title == want {
			return sheet.Properties.Title, nil
		}
	}
	if want == "" {
		return "", fmt.Errorf("%w: spreadsheet has no worksheets", crawler.ErrStore)
	}
	return "", fmt.Errorf("%w: worksheet %q not found", crawler.ErrStore, want)
}

// Close releases the client. The Sheets client holds no persistent connection.
func (s *Store) Close() error {
	s.mu.Lock()
	s.sheets = nil
	s.mu.Unlock()
	return nil
}

// ColValues implements crawler.TabularStore.
func (s *Store) ColValues(ctx context.Context, col int) ([]string, error) {
	if err := store.ValidateIndex(1, col); err != nil {
		return nil, err
	}
	return s.readLine(ctx, "COLUMNS", func(sheet string) string { return columnRange(sheet, col) })
}

// RowValues implements crawler.TabularStore.
func (s *Store) RowValues(ctx context.Context, row int) ([]string, error) {
	if err := store.ValidateIndex(row, 1); err != nil {
		return nil, err
	}
	return s.readLine(ctx, "ROWS", func(sheet string) string { return rowRange(sheet, row) })
}

// Cell implements crawler.TabularStore.
func (s *Store) Cell(ctx context.Context, row, col int) (string, error) {
	if err := store.ValidateIndex(row, col); err != nil {
		return "", err
	}
	values, err := s.readLine(ctx, "ROWS", func(sheet string) string { return cellRange(sheet, row, col) })
	if err != nil || len(values) == 0 {
		return "", err
	}
	return values[0], nil
}

// UpdateCell implements crawler.TabularStore. Values are written RAW so a
// leading "=" is never evaluated.
func (s *Store) UpdateCell(ctx context.Context, row, col int, value string) error {
	if err := store.ValidateIndex(row, col); err != nil {
		return err
	}
	svc, id, sheet, err := s.handle()
	if err != nil {
		return err
	}
	body := &sheetsapi.ValueRange{Values: [][]any{{value}}}
	return s.retry.Do(ctx, func(ctx context.Context) error {
		_, err := svc.Spreadsheets.Values.Update(id, cellRange(sheet, row, col), body).
			ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("%w: update %s: %w", crawler.ErrStore, cellRange(sheet, row, col), err)
		}
		return nil
	})
}

func (s *Store) readLine(ctx context.Context, dimension string, rng func(sheet string) string) ([]string, error) {
	svc, id, sheet, err := s.handle()
	if err != nil {
		return nil, err
	}
	var resp *sheetsapi.ValueRange
	err = s.retry.Do(ctx, func(ctx context.Context) error {
		var callErr error
		resp, callErr = svc.Spreadsheets.Values.Get(id, rng(sheet)).
			MajorDimension(dimension).ValueRenderOption("FORMATTED_VALUE").Context(ctx).Do()
		if callErr != nil {
			return fmt.Errorf("%w: read %s: %w", crawler.ErrStore, rng(sheet), callErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Values) == 0 {
		return nil, nil
	}
	line := resp.Values[0]
	out := make([]string, len(line))
	for i, v := range line {
		if v != nil {
			out[i] = fmt.Sprint(v)
		}
	}
	return store.TrimTrailingEmpty(out), nil
}

func (s *Store) handle() (*sheetsapi.Service, string, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.sheets == nil {
		return nil, "", "", store.ErrNotOpen
	}
	return s.sheets, s.spreadsheetID, s.worksheet, nil
}

// isThrottled reports quota and transient server errors worth retrying.
func isThrottled(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
}
