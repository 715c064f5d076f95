// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric"

	"line-parking-bot/internal/common/agent"
	"line-parking-bot/internal/common/cards"
	apperrors "line-parking-bot/internal/common/errors"
	"line-parking-bot/internal/common/line"
	"line-parking-bot/internal/common/logger"
	"line-parking-bot/internal/common/observability"
	"line-parking-bot/internal/common/push"
	"line-parking-bot/internal/common/rating"
	"line-parking-bot/internal/common/workerpool"
	"line-parking-bot/internal/webhook"

	answerlocation "line-parking-bot/internal/workers/conversation/answer-location"
	answertext "line-parking-bot/internal/workers/conversation/answer-text"
	ratingleaderboard "line-parking-bot/internal/workers/rating/rating-leaderboard"
	ratingsetup "line-parking-bot/internal/workers/rating/rating-setup"
	ratingsubmit "line-parking-bot/internal/workers/rating/rating-submit"
)

const channelSecret = "e2e-secret"

// ==========================
// Fake upstreams
// ==========================

type sentMessage struct {
	Type    string `json:"type"`
	Text    string `json:"text"`
	AltText string `json:"altText"`
}

type lineCall struct {
	Path       string
	ReplyToken string        `json:"replyToken"`
	To         string        `json:"to"`
	ChatID     string        `json:"chatId"`
	Messages   []sentMessage `json:"messages"`
}

type fakeLine struct {
	mu    sync.Mutex
	calls []lineCall
}

func (f *fakeLine) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	var call lineCall
	_ = json.Unmarshal(body, &call)
	call.Path = r.URL.Path

	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte("{}"))
}

func (f *fakeLine) byPath(path string) []lineCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []lineCall
	for _, c := range f.calls {
		if c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

type fakeAgent struct {
	mu      sync.Mutex
	queries []string
	answer  string
}

func (f *fakeAgent) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/chat", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.queries = append(f.queries, r.URL.Query().Get("query"))
		answer := f.answer
		f.mu.Unlock()
		_, _ = w.Write([]byte(answer))
	})
	mux.HandleFunc("/get_agent_structure_response", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
		  "parking_list": [{"parking_name": "市府轉運站停車場", "available_seats": 42, "google_maps_url": "https://maps.google.com/?q=市府轉運站"}],
		  "toilet_list": [{"toilet_name": "市府公廁", "toilet_address": "市府路1號"}]
		}`))
	})
	mux.HandleFunc("/get_llm_summary", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("附近有一個停車場和一間公廁"))
	})
	return mux
}

func (f *fakeAgent) lastQuery() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queries) == 0 {
		return ""
	}
	return f.queries[len(f.queries)-1]
}

type memoryStore struct {
	mu      sync.Mutex
	records []rating.Record
}

func (m *memoryStore) Append(ctx context.Context, record rating.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, record)
	return nil
}

func (m *memoryStore) Records(ctx context.Context) ([]rating.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]rating.Record(nil), m.records...), nil
}

// ==========================
// Harness
// ==========================

type harness struct {
	server *httptest.Server
	line   *fakeLine
	agent  *fakeAgent
	store  *memoryStore
	pool   *workerpool.Pool
}

func newHarness(t *testing.T) *harness {
	gin.SetMode(gin.TestMode)
	log := logger.NewTestLogger(t)

	h := &harness{
		line:  &fakeLine{},
		agent: &fakeAgent{answer: "停車寶已為尼找到相關資訊：市府轉運站停車場還有 42 位"},
		store: &memoryStore{},
	}

	lineServer := httptest.NewServer(h.line)
	t.Cleanup(lineServer.Close)
	agentServer := httptest.NewServer(h.agent.handler())
	t.Cleanup(agentServer.Close)

	lineClient, err := line.NewClient(line.Config{BaseURL: lineServer.URL, AccessToken: "token", Timeout: 5 * time.Second}, lineServer.Client(), log)
	require.NoError(t, err)
	agentClient := agent.NewClient(agent.Config{BaseURL: agentServer.URL, Timeout: 5 * time.Second}, agentServer.Client(), log)

	ratings := rating.NewService(h.store, nil, 0, log)
	renderer := cards.NewRenderer(cards.Config{}, ratings, log)
	pusher := push.NewPusher(lineClient, renderer, log)

	h.pool = workerpool.New(workerpool.Config{Workers: 8, QueueSize: 16, Timeout: 10 * time.Second},
		apperrors.NewErrorHandler(log, pusher, push.ErrorMessage), observability.NewWithReader(metric.NewManualReader(), "e2e"), log)
	h.pool.Start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = h.pool.Shutdown(ctx)
	})

	dispatcher := webhook.NewDispatcher(webhook.DispatcherConfig{LoadingSeconds: 20}, lineClient, pusher, h.pool, webhook.Handlers{
		AnswerText:        answertext.NewHandler(answertext.LoadConfig(), agentClient, pusher, log),
		AnswerLocation:    answerlocation.NewHandler(answerlocation.LoadConfig(), agentClient, pusher, log),
		RatingSetup:       ratingsetup.NewHandler(ratingsetup.LoadConfig(), lineClient, log),
		RatingSubmit:      ratingsubmit.NewHandler(ratingsubmit.LoadConfig(), ratings, lineClient, log),
		RatingLeaderboard: ratingleaderboard.NewHandler(ratingleaderboard.LoadConfig(), ratings, renderer, lineClient, log),
	}, log)

	callback := webhook.NewHandler(line.NewVerifier(channelSecret), webhook.NewDeduper(nil, 0, log), dispatcher, log)
	h.server = httptest.NewServer(webhook.NewRouter(callback, nil, log))
	t.Cleanup(h.server.Close)
	return h
}

func (h *harness) send(t *testing.T, message string) *http.Response {
	body := fmt.Sprintf(`{"destination":"Ubot","events":[{
	  "type": "message",
	  "webhookEventId": "%d",
	  "timestamp": %d,
	  "replyToken": "reply-token",
	  "source": {"type": "user", "userId": "U42"},
	  "message": %s
	}]}`, time.Now().UnixNano(), time.Now().UnixMilli(), message)

	req, err := http.NewRequest(http.MethodPost, h.server.URL+"/callback", strings.NewReader(body))
	require.NoError(t, err)
	mac := hmac.New(sha256.New, []byte(channelSecret))
	mac.Write([]byte(body))
	req.Header.Set(line.SignatureHeader, base64.StdEncoding.EncodeToString(mac.Sum(nil)))

	resp, err := h.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func textMessage(text string) string {
	raw, _ := json.Marshal(text)
	return fmt.Sprintf(`{"id":"m1","type":"text","text":%s}`, raw)
}

// ==========================
// Flows
// ==========================

func TestE2E_TextQuestionPushesSummaryAndCards(t *testing.T) {
	h := newHarness(t)

	resp := h.send(t, textMessage("市府附近哪裡可以停車"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.Eventually(t, func() bool {
		return len(h.line.byPath("/v2/bot/message/push")) == 3
	}, 5*time.Second, 20*time.Millisecond)

	replies := h.line.byPath("/v2/bot/message/reply")
	require.Len(t, replies, 1)
	assert.Equal(t, webhook.TextAck, replies[0].Messages[0].Text)
	assert.Len(t, h.line.byPath("/v2/bot/chat/loading/start"), 1)

	pushes := h.line.byPath("/v2/bot/message/push")
	assert.Equal(t, "U42", pushes[0].To)
	assert.Equal(t, "附近有一個停車場和一間公廁", pushes[0].Messages[0].Text)
	assert.Equal(t, "flex", pushes[1].Messages[0].Type)
	assert.Equal(t, push.ParkingAltText, pushes[1].Messages[0].AltText)
	assert.Equal(t, push.ToiletAltText, pushes[2].Messages[0].AltText)
	assert.Equal(t, "市府附近哪裡可以停車", h.agent.lastQuery())
}

func TestE2E_PlainAnswerIsPushedVerbatim(t *testing.T) {
	h := newHarness(t)
	h.agent.answer = "你好，我是停車寶"

	h.send(t, textMessage("你好"))

	require.Eventually(t, func() bool {
		return len(h.line.byPath("/v2/bot/message/push")) == 1
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, "你好，我是停車寶", h.line.byPath("/v2/bot/message/push")[0].Messages[0].Text)
}

func TestE2E_LocationQuestion(t *testing.T) {
	h := newHarness(t)

	h.send(t, `{"id":"m2","type":"location","latitude":25.0408,"longitude":121.5674,"title":"市政府","address":"市府路1號"}`)

	require.Eventually(t, func() bool {
		return len(h.line.byPath("/v2/bot/message/push")) == 3
	}, 5*time.Second, 20*time.Millisecond)

	replies := h.line.byPath("/v2/bot/message/reply")
	require.Len(t, replies, 1)
	assert.Equal(t, webhook.LocationAck, replies[0].Messages[0].Text)
	assert.Equal(t, "我的位置資訊是：緯度：25.0408, 經度：121.5674 市政府 市府路1號 附近", h.agent.lastQuery())
}

func TestE2E_RatingFlow(t *testing.T) {
	h := newHarness(t)

	h.send(t, textMessage("評分準備|市府公廁|市府路1號"))
	h.send(t, textMessage("評分 市府公廁 💩💩💩💩"))
	h.send(t, textMessage("評分 市府公廁 💩💩"))
	h.send(t, textMessage("查看排行"))

	replies := h.line.byPath("/v2/bot/message/reply")
	require.Len(t, replies, 4)
	assert.Equal(t, rating.SetupPrompt("市府公廁"), replies[0].Messages[0].Text)
	assert.Equal(t, rating.ThankYou(rating.Record{Place: "市府公廁", Score: 4}), replies[1].Messages[0].Text)
	assert.Equal(t, "flex", replies[3].Messages[0].Type)

	records, err := h.store.Records(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []rating.Record{{Place: "市府公廁", Score: 4}, {Place: "市府公廁", Score: 2}}, records)

	assert.Empty(t, h.line.byPath("/v2/bot/message/push"))
	assert.Empty(t, h.line.byPath("/v2/bot/chat/loading/start"))
}

func TestE2E_RejectsUnsignedWebhook(t *testing.T) {
	h := newHarness(t)

	resp, err := h.server.Client().Post(h.server.URL+"/callback", "application/json", strings.NewReader(`{"events":[]}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, h.line.byPath("/v2/bot/message/reply"))
}
