// internal/common/rating/sheet_test.go
package rating

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/sheets/v4"

	apperrors "line-parking-bot/internal/common/errors"
	"line-parking-bot/internal/common/logger"
)

type fakeSheets struct {
	mu       sync.Mutex
	values   [][]interface{}
	appended [][]interface{}
	queries  []string
	paths    []string
	status   int
}

func (f *fakeSheets) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sheet-token", r.Header.Get("Authorization"))
		assert.True(t, strings.HasPrefix(r.URL.Path, "/v4/spreadsheets/sheet-key/values/"), r.URL.Path)

		f.mu.Lock()
		defer f.mu.Unlock()
		f.paths = append(f.paths, r.URL.Path)

		if f.status != 0 {
			w.WriteHeader(f.status)
			_, _ = w.Write([]byte(`{"error": {"code": 403, "message": "denied"}}`))
			return
		}

		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"range": "A1:Z100", "values": f.values})
		case http.MethodPost:
			assert.True(t, strings.HasSuffix(r.URL.Path, ":append"), r.URL.Path)
			f.queries = append(f.queries, r.URL.RawQuery)
			raw, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			var body sheets.ValueRange
			require.NoError(t, json.Unmarshal(raw, &body))
			f.appended = append(f.appended, body.Values...)
			f.values = append(f.values, body.Values...)
			_, _ = w.Write([]byte(`{}`))
		}
	}
}

func newTestSheetStore(t *testing.T, f *fakeSheets) *SheetStore {
	return newTestSheetStoreFor(t, f, "")
}

func newTestSheetStoreFor(t *testing.T, f *fakeSheets, worksheet string) *SheetStore {
	server := httptest.NewServer(f.handler(t))
	t.Cleanup(server.Close)
	tokens := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "sheet-token", TokenType: "Bearer"})
	s, err := NewSheetStore(context.Background(), SheetConfig{
		BaseURL:       server.URL,
		SheetKey:      "sheet-key",
		WorksheetName: worksheet,
		Timeout:       time.Second,
	}, tokens, server.Client(), logger.NewTestLogger(t))
	require.NoError(t, err)
	return s
}

func TestSheetStore_Records(t *testing.T) {
	f := &fakeSheets{values: [][]interface{}{
		{"時間", "地點", "評分"},
		{"t1", "市府公廁", "4"},
		{"t2", "市府公廁", "5"},
		{"t3", "車站公廁", "not a number"},
		{"t4"},
		{"t5", "車站公廁", 2},
	}}
	s := newTestSheetStore(t, f)

	records, err := s.Records(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Record{
		{Place: "市府公廁", Score: 4},
		{Place: "市府公廁", Score: 5},
		{Place: "車站公廁", Score: 2},
	}, records)
}

func TestSheetStore_Records_NoHeaderOrEmpty(t *testing.T) {
	f := &fakeSheets{values: [][]interface{}{{"name", "score"}, {"a", "1"}}}
	s := newTestSheetStore(t, f)
	records, err := s.Records(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)

	f = &fakeSheets{}
	s = newTestSheetStore(t, f)
	records, err = s.Records(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSheetStore_Append(t *testing.T) {
	f := &fakeSheets{values: [][]interface{}{{"地點", "評分"}}}
	s := newTestSheetStore(t, f)

	require.NoError(t, s.Append(context.Background(), Record{Place: "市府公廁", Score: 3}))

	require.Len(t, f.appended, 1)
	assert.Equal(t, []interface{}{"市府公廁", float64(3)}, f.appended[0])
	assert.Contains(t, f.queries[0], "valueInputOption=USER_ENTERED")
	assert.Contains(t, f.queries[0], "insertDataOption=INSERT_ROWS")
	assert.Equal(t, "/v4/spreadsheets/sheet-key/values/A:Z:append", f.paths[0])

	records, err := s.Records(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Record{{Place: "市府公廁", Score: 3}}, records)
}

func TestSheetStore_EnsureHeader(t *testing.T) {
	f := &fakeSheets{}
	s := newTestSheetStore(t, f)

	require.NoError(t, s.EnsureHeader(context.Background()))
	require.NoError(t, s.EnsureHeader(context.Background()))

	require.Len(t, f.appended, 1)
	assert.Equal(t, []interface{}{HeaderPlace, HeaderScore}, f.appended[0])
}

func TestSheetStore_Errors(t *testing.T) {
	f := &fakeSheets{status: http.StatusForbidden}
	s := newTestSheetStore(t, f)

	_, err := s.Records(context.Background())
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeRatingStoreFailed))
	var apiErr *googleapi.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.Code)

	err = s.Append(context.Background(), Record{Place: "x", Score: 1})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeRatingStoreFailed))
}

func TestSheetStore_NamedWorksheetRange(t *testing.T) {
	f := &fakeSheets{values: [][]interface{}{{"地點", "評分"}}}
	s := newTestSheetStoreFor(t, f, "Bob's ratings")

	_, err := s.Records(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.Append(context.Background(), Record{Place: "市府公廁", Score: 5}))

	assert.Equal(t, []string{
		"/v4/spreadsheets/sheet-key/values/'Bob''s ratings'!A:Z",
		"/v4/spreadsheets/sheet-key/values/'Bob''s ratings'!A:Z:append",
	}, f.paths)
}

func TestLoadSheetCredentials_MissingFile(t *testing.T) {
	_, err := LoadSheetCredentials(context.Background(), t.TempDir()+"/missing.json")
	assert.Error(t, err)
}
