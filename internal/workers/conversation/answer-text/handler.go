// internal/workers/conversation/answer-text/handler.go
package answertext

import (
	"context"
	"errors"
	"strings"

	"line-parking-bot/internal/common/agent"
	apperrors "line-parking-bot/internal/common/errors"
	"line-parking-bot/internal/common/logger"
)

const (
	TaskType = "answer-text"
)

var (
	ErrMissingUser = errors.New("MISSING_USER")
)

type Agent interface {
	Ask(ctx context.Context, sessionKey, query string) string
	FetchStructuredAndSummaryFromRawText(ctx context.Context, raw string) (agent.StructuredResult, string)
}

type Pusher interface {
	PushText(ctx context.Context, to, text string) error
	PushResults(ctx context.Context, to string, result agent.StructuredResult, summary string) error
}

// Handler answers a free-text question. Plain answers are pushed verbatim; answers
// carrying the marker are turned into a summary and carousels.
type Handler struct {
	config *Config
	agent  Agent
	pusher Pusher
	logger logger.Logger
}

func NewHandler(config *Config, agent Agent, pusher Pusher, log logger.Logger) *Handler {
	if config.Marker == "" {
		config.Marker = DefaultMarker
	}
	return &Handler{
		config: config,
		agent:  agent,
		pusher: pusher,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(ctx context.Context, input Input) error {
	h.logger.Info("processing task", map[string]interface{}{
		"userId":     input.UserID,
		"sessionKey": input.SessionKey,
	})

	output, err := h.execute(ctx, &input)
	if err != nil {
		return err
	}

	h.logger.Info("task completed", map[string]interface{}{
		"userId":       input.UserID,
		"structured":   output.Structured,
		"parkingCount": output.ParkingCount,
		"toiletCount":  output.ToiletCount,
	})
	return nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.UserID == "" {
		return nil, apperrors.NewInternalError(ErrMissingUser)
	}

	answer := agent.Normalize(h.agent.Ask(ctx, input.SessionKey, input.Query))

	if !strings.Contains(answer, h.config.Marker) {
		if err := h.pusher.PushText(ctx, input.UserID, answer); err != nil {
			return nil, err
		}
		return &Output{}, nil
	}

	result, summary := h.agent.FetchStructuredAndSummaryFromRawText(ctx, answer)
	if err := h.pusher.PushResults(ctx, input.UserID, result, summary); err != nil {
		return nil, err
	}

	return &Output{
		Structured:   true,
		ParkingCount: len(result.ParkingList),
		ToiletCount:  len(result.ToiletList),
		HasSummary:   summary != "",
	}, nil
}
