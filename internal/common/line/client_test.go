// internal/common/line/client_test.go
package line

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "line-parking-bot/internal/common/errors"
	"line-parking-bot/internal/common/logger"
)

type capturedRequest struct {
	Path    string
	Header  http.Header
	Body    map[string]interface{}
	RawBody []byte
}

type fakeLine struct {
	mu       sync.Mutex
	requests []capturedRequest
	status   int
	body     string
}

func (f *fakeLine) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &decoded))

		f.mu.Lock()
		f.requests = append(f.requests, capturedRequest{Path: r.URL.Path, Header: r.Header.Clone(), Body: decoded, RawBody: raw})
		status, body := f.status, f.body
		f.mu.Unlock()

		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		if body == "" {
			body = "{}"
		}
		_, _ = w.Write([]byte(body))
	}
}

const (
	replyPath   = "/v2/bot/message/reply"
	pushPath    = "/v2/bot/message/push"
	loadingPath = "/v2/bot/chat/loading/start"
)

func newTestClient(t *testing.T, f *fakeLine) *Client {
	server := httptest.NewServer(f.handler(t))
	t.Cleanup(server.Close)
	c, err := NewClient(Config{BaseURL: server.URL, AccessToken: "tok", Timeout: time.Second}, server.Client(), logger.NewTestLogger(t))
	require.NoError(t, err)
	return c
}

func TestClient_Reply(t *testing.T) {
	f := &fakeLine{}
	c := newTestClient(t, f)

	err := c.Reply(context.Background(), "reply-token", NewTextMessage("收到"))
	require.NoError(t, err)

	require.Len(t, f.requests, 1)
	req := f.requests[0]
	assert.Equal(t, replyPath, req.Path)
	assert.Equal(t, "Bearer tok", req.Header.Get("Authorization"))
	assert.Empty(t, req.Header.Get("X-Line-Retry-Key"))
	assert.Equal(t, "reply-token", req.Body["replyToken"])
	msgs := req.Body["messages"].([]interface{})
	assert.Equal(t, "收到", msgs[0].(map[string]interface{})["text"])
}

func TestClient_PushCarriesRetryKey(t *testing.T) {
	f := &fakeLine{}
	c := newTestClient(t, f)

	carousel := &messaging_api.FlexCarousel{Contents: []messaging_api.FlexBubble{{
		Body: &messaging_api.FlexBox{
			Layout:   messaging_api.FlexBoxLAYOUT_VERTICAL,
			Contents: []messaging_api.FlexComponentInterface{&messaging_api.FlexText{Text: "hi"}},
		},
	}}}
	require.NoError(t, c.Push(context.Background(), "U1", NewFlexMessage("停車場資訊", carousel)))
	require.NoError(t, c.Push(context.Background(), "U1", NewTextMessage("again")))

	require.Len(t, f.requests, 2)
	first, second := f.requests[0], f.requests[1]
	assert.Equal(t, pushPath, first.Path)
	assert.Equal(t, "U1", first.Body["to"])
	assert.NotEmpty(t, first.Header.Get("X-Line-Retry-Key"))
	assert.NotEqual(t, first.Header.Get("X-Line-Retry-Key"), second.Header.Get("X-Line-Retry-Key"))

	msg := first.Body["messages"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "flex", msg["type"])
	assert.Equal(t, "停車場資訊", msg["altText"])
	assert.Equal(t, "carousel", msg["contents"].(map[string]interface{})["type"])
}

func TestClient_QuickReplyEncoding(t *testing.T) {
	f := &fakeLine{}
	c := newTestClient(t, f)

	msg := NewTextMessage("請給分")
	msg.QuickReply = NewQuickReply(&messaging_api.MessageAction{Label: "💩", Text: "評分 A 💩"})
	require.NoError(t, c.Reply(context.Background(), "tok", msg))

	sent := f.requests[0].Body["messages"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "text", sent["type"])
	items := sent["quickReply"].(map[string]interface{})["items"].([]interface{})
	require.Len(t, items, 1)
	item := items[0].(map[string]interface{})
	assert.Equal(t, "action", item["type"])
	action := item["action"].(map[string]interface{})
	assert.Equal(t, "message", action["type"])
	assert.Equal(t, "💩", action["label"])
	assert.Equal(t, "評分 A 💩", action["text"])
}

func TestClient_APIError(t *testing.T) {
	f := &fakeLine{status: http.StatusBadRequest, body: `{"message":"The request body has 1 error(s)","details":[{"message":"invalid uri","property":"messages[0].contents"}]}`}
	c := newTestClient(t, f)

	err := c.Push(context.Background(), "U1", NewTextMessage("x"))
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeMessagingAPIFailed))
	assert.Contains(t, err.Error(), "400")

	assert.Equal(t, "push", apperrors.AsStandardError(err).Metadata["operation"])
}

func TestClient_ReplyServerError(t *testing.T) {
	f := &fakeLine{status: http.StatusBadGateway, body: "bad gateway"}
	c := newTestClient(t, f)

	err := c.Reply(context.Background(), "tok", NewTextMessage("x"))
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeMessagingAPIFailed))
	assert.Contains(t, err.Error(), "502")
}

func TestClient_ConcurrentCallsKeepTheirOwnContext(t *testing.T) {
	f := &fakeLine{}
	c := newTestClient(t, f)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	var wg sync.WaitGroup
	errs := make([]error, 20)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ctx := context.Background()
			if i%2 == 1 {
				ctx = cancelled
			}
			errs[i] = c.Push(ctx, "U1", NewTextMessage("m"))
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if i%2 == 1 {
			assert.Error(t, err, "call %d used a cancelled context", i)
		} else {
			assert.NoError(t, err, "call %d", i)
		}
	}
	assert.Len(t, f.requests, 10)
}

func TestClient_MessageCountLimits(t *testing.T) {
	f := &fakeLine{}
	c := newTestClient(t, f)

	assert.Error(t, c.Push(context.Background(), "U1"))
	six := make([]Message, 6)
	for i := range six {
		six[i] = NewTextMessage("m")
	}
	assert.Error(t, c.Push(context.Background(), "U1", six...))
	assert.Empty(t, f.requests)
}

func TestClient_ShowLoadingAnimation(t *testing.T) {
	f := &fakeLine{}
	c := newTestClient(t, f)

	require.NoError(t, c.ShowLoadingAnimation(context.Background(), "U1", 60))

	require.Len(t, f.requests, 1)
	assert.Equal(t, loadingPath, f.requests[0].Path)
	assert.Equal(t, "U1", f.requests[0].Body["chatId"])
	assert.Equal(t, float64(60), f.requests[0].Body["loadingSeconds"])
}

func TestClient_LoadingFailureIsBestEffort(t *testing.T) {
	f := &fakeLine{status: http.StatusInternalServerError}
	c := newTestClient(t, f)

	err := c.ShowLoadingAnimation(context.Background(), "U1", 60)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeBestEffortFailed))
}

func TestClampLoadingSeconds(t *testing.T) {
	tests := map[int]int{0: 5, 3: 5, 5: 5, 17: 15, 60: 60, 90: 60}
	for in, want := range tests {
		assert.Equal(t, want, clampLoadingSeconds(in), "input %d", in)
	}
}
