// internal/workers/rating/rating-submit/handler.go
package ratingsubmit

import (
	"context"

	"line-parking-bot/internal/common/line"
	"line-parking-bot/internal/common/logger"
	"line-parking-bot/internal/common/rating"
)

const (
	TaskType = "rating-submit"
)

type Replier interface {
	Reply(ctx context.Context, replyToken string, messages ...line.Message) error
}

type RatingService interface {
	Submit(ctx context.Context, record rating.Record) error
}

// Handler stores "評分 <place> <glyphs>" and thanks the user.
type Handler struct {
	config  *Config
	ratings RatingService
	replier Replier
	logger  logger.Logger
}

func NewHandler(config *Config, ratings RatingService, replier Replier, log logger.Logger) *Handler {
	return &Handler{
		config:  config,
		ratings: ratings,
		replier: replier,
		logger:  log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(ctx context.Context, input Input) error {
	output, err := h.execute(ctx, &input)
	if err != nil {
		h.logger.Error("rating submit failed", map[string]interface{}{
			"userId": input.UserID,
			"text":   input.Text,
			"error":  err.Error(),
		})
		if replyErr := h.replier.Reply(ctx, input.ReplyToken, line.NewTextMessage(rating.ErrorReply)); replyErr != nil {
			h.logger.Error("failed to reply rating error", map[string]interface{}{
				"error": replyErr.Error(),
			})
		}
		return err
	}

	h.logger.Info("rating stored", map[string]interface{}{
		"userId": input.UserID,
		"place":  output.Place,
		"score":  output.Score,
	})
	return nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	record, err := rating.ParseSubmit(input.Text)
	if err != nil {
		return nil, err
	}

	storeCtx := ctx
	if h.config.Timeout > 0 {
		var cancel context.CancelFunc
		storeCtx, cancel = context.WithTimeout(ctx, h.config.Timeout)
		defer cancel()
	}
	if err := h.ratings.Submit(storeCtx, record); err != nil {
		return nil, err
	}

	if err := h.replier.Reply(ctx, input.ReplyToken, line.NewTextMessage(rating.ThankYou(record))); err != nil {
		return nil, err
	}
	return &Output{Place: record.Place, Score: int(record.Score)}, nil
}
