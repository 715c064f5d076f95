// internal/common/line/client.go
package line

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	apperrors "line-parking-bot/internal/common/errors"
	"line-parking-bot/internal/common/logger"
	"line-parking-bot/internal/common/metrics"
)

const (
	opReply   = "reply"
	opPush    = "push"
	opLoading = "loading"

	// at most five messages per request
	maxMessagesPerRequest = 5
)

type Config struct {
	BaseURL     string
	AccessToken string
	Timeout     time.Duration
}

// Client calls the reply, push and loading-indicator endpoints through the Messaging API SDK.
type Client struct {
	config Config
	bot    *messaging_api.MessagingApiAPI
	logger logger.Logger
}

func NewClient(config Config, httpClient *http.Client, log logger.Logger) (*Client, error) {
	opts := []messaging_api.MessagingApiAPIOption{messaging_api.WithHTTPClient(httpClient)}
	if config.BaseURL != "" {
		opts = append(opts, messaging_api.WithEndpoint(config.BaseURL))
	}

	bot, err := messaging_api.NewMessagingApiAPI(config.AccessToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("create messaging api client: %w", err)
	}

	return &Client{
		config: config,
		bot:    bot,
		logger: log.With(map[string]interface{}{"component": "line-client"}),
	}, nil
}

// Reply answers an event with its single-use reply token.
func (c *Client) Reply(ctx context.Context, replyToken string, messages ...Message) error {
	if err := checkMessageCount(messages); err != nil {
		return apperrors.NewMessagingAPIFailedError(opReply, err)
	}

	err := c.call(ctx, opReply, func(api *messaging_api.MessagingApiAPI) error {
		_, err := api.ReplyMessage(&messaging_api.ReplyMessageRequest{
			ReplyToken: replyToken,
			Messages:   messages,
		})
		return err
	})
	if err != nil {
		return apperrors.NewMessagingAPIFailedError(opReply, err)
	}
	return nil
}

// Push sends messages to a user outside the reply window. Each call carries a fresh retry key.
func (c *Client) Push(ctx context.Context, to string, messages ...Message) error {
	if err := checkMessageCount(messages); err != nil {
		return apperrors.NewMessagingAPIFailedError(opPush, err)
	}

	err := c.call(ctx, opPush, func(api *messaging_api.MessagingApiAPI) error {
		_, err := api.PushMessage(&messaging_api.PushMessageRequest{
			To:       to,
			Messages: messages,
		}, uuid.NewString())
		return err
	})
	if err != nil {
		return apperrors.NewMessagingAPIFailedError(opPush, err)
	}
	return nil
}

// ShowLoadingAnimation displays the typing indicator in a one-on-one chat.
func (c *Client) ShowLoadingAnimation(ctx context.Context, chatID string, seconds int) error {
	err := c.call(ctx, opLoading, func(api *messaging_api.MessagingApiAPI) error {
		_, err := api.ShowLoadingAnimation(&messaging_api.ShowLoadingAnimationRequest{
			ChatId:         chatID,
			LoadingSeconds: int32(clampLoadingSeconds(seconds)),
		})
		return err
	})
	if err != nil {
		return apperrors.NewBestEffortFailedError("loading-animation", err)
	}
	return nil
}

// call runs fn against a per-call copy of the SDK client; WithContext mutates its receiver.
func (c *Client) call(ctx context.Context, op string, fn func(api *messaging_api.MessagingApiAPI) error) error {
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	api := *c.bot
	start := time.Now()
	err := fn(api.WithContext(ctx))
	if err != nil {
		metrics.UpstreamDuration.WithLabelValues("line", op, "error").Observe(time.Since(start).Seconds())
		c.logger.Warn("line api call failed", map[string]interface{}{
			"operation": op,
			"error":     err.Error(),
		})
		return err
	}
	metrics.UpstreamDuration.WithLabelValues("line", op, "ok").Observe(time.Since(start).Seconds())
	return nil
}

// clampLoadingSeconds maps any value onto the accepted 5..60 range in steps of 5.
func clampLoadingSeconds(seconds int) int {
	if seconds < 5 {
		return 5
	}
	if seconds > 60 {
		return 60
	}
	return seconds - seconds%5
}

func checkMessageCount(messages []Message) error {
	if len(messages) == 0 {
		return fmt.Errorf("no messages")
	}
	if len(messages) > maxMessagesPerRequest {
		return fmt.Errorf("%d messages exceeds the limit of %d", len(messages), maxMessagesPerRequest)
	}
	return nil
}
