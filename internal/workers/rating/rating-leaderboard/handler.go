// internal/workers/rating/rating-leaderboard/handler.go
package ratingleaderboard

import (
	"context"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"line-parking-bot/internal/common/line"
	"line-parking-bot/internal/common/logger"
	"line-parking-bot/internal/common/rating"
)

const (
	TaskType = "rating-leaderboard"
)

type Replier interface {
	Reply(ctx context.Context, replyToken string, messages ...line.Message) error
}

type Ranker interface {
	Top(ctx context.Context, n int) ([]rating.Average, error)
}

type Renderer interface {
	RenderLeaderboard(entries []rating.Average) *messaging_api.FlexCarousel
}

// Handler replies to "查看排行" with the best rated places.
type Handler struct {
	config   *Config
	ranker   Ranker
	renderer Renderer
	replier  Replier
	logger   logger.Logger
}

func NewHandler(config *Config, ranker Ranker, renderer Renderer, replier Replier, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		ranker:   ranker,
		renderer: renderer,
		replier:  replier,
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(ctx context.Context, input Input) error {
	output, err := h.execute(ctx, &input)
	if err != nil {
		h.logger.Error("leaderboard failed", map[string]interface{}{
			"userId": input.UserID,
			"error":  err.Error(),
		})
		if replyErr := h.replier.Reply(ctx, input.ReplyToken, line.NewTextMessage(rating.ErrorReply)); replyErr != nil {
			h.logger.Error("failed to reply leaderboard error", map[string]interface{}{
				"error": replyErr.Error(),
			})
		}
		return err
	}

	h.logger.Info("leaderboard sent", map[string]interface{}{
		"userId": input.UserID,
		"places": len(output.Places),
	})
	return nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	top, err := h.ranker.Top(ctx, h.config.TopN)
	if err != nil {
		return nil, err
	}

	if len(top) == 0 {
		if err := h.replier.Reply(ctx, input.ReplyToken, line.NewTextMessage(rating.NoRecordsReply)); err != nil {
			return nil, err
		}
		return &Output{}, nil
	}

	msg := line.NewFlexMessage(h.config.AltText, h.renderer.RenderLeaderboard(top))
	if err := h.replier.Reply(ctx, input.ReplyToken, msg); err != nil {
		return nil, err
	}

	places := make([]string, len(top))
	for i, a := range top {
		places[i] = a.Place
	}
	return &Output{Places: places}, nil
}
