// internal/common/agent/client.go
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	apperrors "line-parking-bot/internal/common/errors"
	"line-parking-bot/internal/common/logger"
	"line-parking-bot/internal/common/metrics"
)

const (
	chatPath      = "/chat"
	structurePath = "/get_agent_structure_response"
	summaryPath   = "/get_llm_summary"

	// ApologyMessage replaces the agent answer whenever the chat call fails.
	ApologyMessage = "有一些問題發生 ... 請稍後再試"

	maxResponseBytes = 4 << 20
)

type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks to the agent service over the shared pooled HTTP client.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     logger.Logger
}

func NewClient(config Config, httpClient *http.Client, log logger.Logger) *Client {
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	return &Client{
		config:     config,
		httpClient: httpClient,
		logger:     log.With(map[string]interface{}{"component": "agent-client"}),
	}
}

// Chat asks the agent a question inside the memory thread identified by sessionKey.
func (c *Client) Chat(ctx context.Context, sessionKey, query string) (string, error) {
	params := url.Values{}
	params.Set("user_id", sessionKey)
	params.Set("query", query)

	body, err := c.do(ctx, http.MethodGet, chatPath+"?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(body)), nil
}

// Ask is Chat that never fails: errors are logged and replaced by ApologyMessage.
func (c *Client) Ask(ctx context.Context, sessionKey, query string) string {
	answer, err := c.Chat(ctx, sessionKey, query)
	if err != nil {
		c.logger.Error("agent chat failed", map[string]interface{}{
			"sessionKey": sessionKey,
			"error":      err.Error(),
		})
		return ApologyMessage
	}
	return answer
}

// StructuredResponse extracts parking and toilet records from raw agent text.
func (c *Client) StructuredResponse(ctx context.Context, raw string) (StructuredResult, error) {
	body, err := c.do(ctx, http.MethodPost, structurePath, formQuery(raw))
	if err != nil {
		return StructuredResult{}, err
	}

	res, err := structuredSchema.ValidateBytes(body)
	if err != nil {
		return StructuredResult{}, apperrors.NewInvalidStructuredResponseError(err.Error())
	}
	if !res.Valid {
		return StructuredResult{}, apperrors.NewInvalidStructuredResponseError(strings.Join(res.GetErrorMessages(), "; "))
	}

	var result StructuredResult
	if err := json.Unmarshal(body, &result); err != nil {
		return StructuredResult{}, apperrors.NewInvalidStructuredResponseError(err.Error())
	}
	return result, nil
}

// Summary asks the agent to summarize raw agent text. The answer is normalized.
func (c *Client) Summary(ctx context.Context, raw string) (string, error) {
	body, err := c.do(ctx, http.MethodPost, summaryPath, formQuery(raw))
	if err != nil {
		return "", err
	}
	return Normalize(string(body)), nil
}

func formQuery(raw string) url.Values {
	form := url.Values{}
	form.Set("query", raw)
	return form
}

func (c *Client) do(ctx context.Context, method, path string, form url.Values) ([]byte, error) {
	endpoint := path
	if i := strings.IndexByte(endpoint, '?'); i >= 0 {
		endpoint = endpoint[:i]
	}

	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	var reqBody io.Reader
	if form != nil {
		reqBody = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reqBody)
	if err != nil {
		return nil, apperrors.NewUpstreamCallFailedError(endpoint, err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.UpstreamDuration.WithLabelValues("agent", endpoint, "error").Observe(time.Since(start).Seconds())
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.NewUpstreamTimeoutError(endpoint, err)
		}
		return nil, apperrors.NewUpstreamCallFailedError(endpoint, err)
	}
	defer resp.Body.Close()
	metrics.UpstreamDuration.WithLabelValues("agent", endpoint, strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.NewUpstreamTimeoutError(endpoint, err)
		}
		return nil, apperrors.NewUpstreamCallFailedError(endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.NewUpstreamCallFailedError(endpoint,
			fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(body), 200)))
	}
	return body, nil
}

// truncate keeps at most n runes of s.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
