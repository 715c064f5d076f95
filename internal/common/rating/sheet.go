// internal/common/rating/sheet.go
package rating

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	apperrors "line-parking-bot/internal/common/errors"
	"line-parking-bot/internal/common/logger"
	"line-parking-bot/internal/common/metrics"
)

type SheetConfig struct {
	BaseURL       string
	SheetKey      string
	WorksheetName string
	Timeout       time.Duration
}

// SheetStore keeps ratings in a Google spreadsheet with a 地點/評分 header row.
type SheetStore struct {
	config  SheetConfig
	service *sheets.Service
	logger  logger.Logger
}

// LoadSheetCredentials reads a service account key and returns a token source for the Sheets scope.
func LoadSheetCredentials(ctx context.Context, path string) (oauth2.TokenSource, error) {
	credsJSON, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	creds, err := google.CredentialsFromJSON(ctx, credsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}
	return creds.TokenSource, nil
}

// NewSheetStore builds a Sheets client that authorizes every request from tokens
// on top of httpClient's transport.
func NewSheetStore(ctx context.Context, config SheetConfig, tokens oauth2.TokenSource, httpClient *http.Client, log logger.Logger) (*SheetStore, error) {
	authed := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, httpClient), tokens)

	opts := []option.ClientOption{option.WithHTTPClient(authed)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(strings.TrimRight(config.BaseURL, "/")+"/"))
	}

	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &SheetStore{
		config:  config,
		service: service,
		logger:  log.With(map[string]interface{}{"component": "rating-sheet"}),
	}, nil
}

// Records reads every row below the header. Rows with a missing place or an
// unparsable score are skipped.
func (s *SheetStore) Records(ctx context.Context) ([]Record, error) {
	rows, err := s.values(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, nil
	}

	placeIdx, scoreIdx := -1, -1
	for i, h := range rows[0] {
		switch strings.TrimSpace(h) {
		case HeaderPlace:
			placeIdx = i
		case HeaderScore:
			scoreIdx = i
		}
	}
	if placeIdx < 0 || scoreIdx < 0 {
		s.logger.Warn("rating sheet header not found", map[string]interface{}{
			"header": rows[0],
		})
		return nil, nil
	}

	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) <= placeIdx || len(row) <= scoreIdx {
			continue
		}
		score, err := strconv.ParseFloat(strings.TrimSpace(row[scoreIdx]), 64)
		if err != nil || row[placeIdx] == "" {
			continue
		}
		records = append(records, Record{Place: row[placeIdx], Score: score})
	}
	return records, nil
}

// Append adds [place, score] as a new row.
func (s *SheetStore) Append(ctx context.Context, record Record) error {
	return s.appendRow(ctx, []interface{}{record.Place, record.Score})
}

// EnsureHeader writes the 地點/評分 header when the sheet is empty.
func (s *SheetStore) EnsureHeader(ctx context.Context) error {
	rows, err := s.values(ctx)
	if err != nil {
		return err
	}
	if len(rows) > 0 {
		return nil
	}
	return s.appendRow(ctx, []interface{}{HeaderPlace, HeaderScore})
}

func (s *SheetStore) values(ctx context.Context) ([][]string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	resp, err := s.service.Spreadsheets.Values.Get(s.config.SheetKey, s.readRange()).Context(ctx).Do()
	observeSheets("get", start, err)
	if err != nil {
		return nil, apperrors.NewRatingStoreFailedError("read", err)
	}

	rows := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		rows[i] = make([]string, len(row))
		for j, cell := range row {
			rows[i][j] = fmt.Sprint(cell)
		}
	}
	return rows, nil
}

func (s *SheetStore) appendRow(ctx context.Context, row []interface{}) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	_, err := s.service.Spreadsheets.Values.
		Append(s.config.SheetKey, s.readRange(), &sheets.ValueRange{Values: [][]interface{}{row}}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	observeSheets("append", start, err)
	if err != nil {
		return apperrors.NewRatingStoreFailedError("append", err)
	}
	return nil
}

// readRange covers columns A..Z of the configured worksheet, or of the first one.
func (s *SheetStore) readRange() string {
	if s.config.WorksheetName == "" {
		return "A:Z"
	}
	return "'" + strings.ReplaceAll(s.config.WorksheetName, "'", "''") + "'!A:Z"
}

func (s *SheetStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.config.Timeout > 0 {
		return context.WithTimeout(ctx, s.config.Timeout)
	}
	return ctx, func() {}
}

func observeSheets(op string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			status = strconv.Itoa(apiErr.Code)
		}
	}
	metrics.UpstreamDuration.WithLabelValues("sheets", op, status).Observe(time.Since(start).Seconds())
}
