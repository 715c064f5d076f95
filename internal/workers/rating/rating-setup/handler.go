// internal/workers/rating/rating-setup/handler.go
package ratingsetup

import (
	"context"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"line-parking-bot/internal/common/line"
	"line-parking-bot/internal/common/logger"
	"line-parking-bot/internal/common/rating"
)

const (
	TaskType = "rating-setup"
)

type Replier interface {
	Reply(ctx context.Context, replyToken string, messages ...line.Message) error
}

// Handler answers "評分準備|<place>|<address>" with a score picker.
type Handler struct {
	config  *Config
	replier Replier
	logger  logger.Logger
}

func NewHandler(config *Config, replier Replier, log logger.Logger) *Handler {
	if config.Options < rating.MinScore || config.Options > rating.MaxScore {
		config.Options = rating.MaxScore
	}
	return &Handler{
		config:  config,
		replier: replier,
		logger:  log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(ctx context.Context, input Input) error {
	output, err := h.execute(ctx, &input)
	if err != nil {
		h.logger.Warn("rating setup failed", map[string]interface{}{
			"userId": input.UserID,
			"error":  err.Error(),
		})
		if replyErr := h.replier.Reply(ctx, input.ReplyToken, line.NewTextMessage(rating.ErrorReply)); replyErr != nil {
			h.logger.Error("failed to reply rating error", map[string]interface{}{
				"error": replyErr.Error(),
			})
		}
		return err
	}

	h.logger.Info("score picker sent", map[string]interface{}{
		"userId": input.UserID,
		"place":  output.Place,
	})
	return nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	cmd, err := rating.ParseSetup(input.Text)
	if err != nil {
		return nil, err
	}

	actions := make([]messaging_api.ActionInterface, 0, h.config.Options)
	for n := 1; n <= h.config.Options; n++ {
		actions = append(actions, &messaging_api.MessageAction{
			Label: rating.Glyphs(n),
			Text:  rating.SubmitText(cmd.Place, n),
		})
	}

	msg := line.NewTextMessage(rating.SetupPrompt(cmd.Place))
	msg.QuickReply = line.NewQuickReply(actions...)
	if err := h.replier.Reply(ctx, input.ReplyToken, msg); err != nil {
		return nil, err
	}
	return &Output{Place: cmd.Place, Address: cmd.Address}, nil
}
