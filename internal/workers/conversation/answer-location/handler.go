// internal/workers/conversation/answer-location/handler.go
package answerlocation

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"line-parking-bot/internal/common/agent"
	apperrors "line-parking-bot/internal/common/errors"
	"line-parking-bot/internal/common/logger"
)

const (
	TaskType = "answer-location"
)

var (
	ErrMissingUser = errors.New("MISSING_USER")
)

type Agent interface {
	FetchStructuredAndSummary(ctx context.Context, sessionKey, query string) (agent.StructuredResult, string)
}

type Pusher interface {
	PushResults(ctx context.Context, to string, result agent.StructuredResult, summary string) error
}

// Handler looks up parking and toilets around a shared location.
type Handler struct {
	config *Config
	agent  Agent
	pusher Pusher
	logger logger.Logger
}

func NewHandler(config *Config, agent Agent, pusher Pusher, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		agent:  agent,
		pusher: pusher,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(ctx context.Context, input Input) error {
	h.logger.Info("processing task", map[string]interface{}{
		"userId":    input.UserID,
		"latitude":  input.Latitude,
		"longitude": input.Longitude,
	})

	output, err := h.execute(ctx, &input)
	if err != nil {
		return err
	}

	h.logger.Info("task completed", map[string]interface{}{
		"userId":       input.UserID,
		"parkingCount": output.ParkingCount,
		"toiletCount":  output.ToiletCount,
	})
	return nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.UserID == "" {
		return nil, apperrors.NewInternalError(ErrMissingUser)
	}

	query := h.BuildQuery(input)
	result, summary := h.agent.FetchStructuredAndSummary(ctx, input.SessionKey, query)
	if err := h.pusher.PushResults(ctx, input.UserID, result, summary); err != nil {
		return nil, err
	}

	return &Output{
		Query:        query,
		ParkingCount: len(result.ParkingList),
		ToiletCount:  len(result.ToiletList),
		HasSummary:   summary != "",
	}, nil
}

// BuildQuery renders "<prefix>緯度：<lat>, 經度：<lon> <title> <address> <suffix>".
// Empty title and address are left out.
func (h *Handler) BuildQuery(input *Input) string {
	parts := []string{
		h.config.QueryPrefix + "緯度：" + formatCoordinate(input.Latitude) + ", 經度：" + formatCoordinate(input.Longitude),
	}
	if t := strings.TrimSpace(input.Title); t != "" {
		parts = append(parts, t)
	}
	if a := strings.TrimSpace(input.Address); a != "" {
		parts = append(parts, a)
	}
	parts = append(parts, h.config.QuerySuffix)
	return strings.Join(parts, " ")
}

func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
