// internal/webhook/handler.go
package webhook

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"line-parking-bot/internal/common/line"
	"line-parking-bot/internal/common/logger"
	"line-parking-bot/internal/common/metrics"
)

const maxBodyBytes = 1 << 20

type EventDispatcher interface {
	Dispatch(ctx context.Context, ev line.InboundEvent)
}

// Handler is the LINE webhook endpoint.
type Handler struct {
	verifier   *line.Verifier
	dedup      *Deduper
	dispatcher EventDispatcher
	logger     logger.Logger
}

func NewHandler(verifier *line.Verifier, dedup *Deduper, dispatcher EventDispatcher, log logger.Logger) *Handler {
	return &Handler{
		verifier:   verifier,
		dedup:      dedup,
		dispatcher: dispatcher,
		logger:     log.With(map[string]interface{}{"component": "webhook"}),
	}
}

// Callback verifies the signature before parsing the body, then
// dispatches every supported event and answers 200 "OK". A verified body
// that does not decode is logged and acknowledged so the platform does not
// keep redelivering it.
func (h *Handler) Callback(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		metrics.WebhookRequests.WithLabelValues("bad_request").Inc()
		c.String(http.StatusBadRequest, "Bad request")
		return
	}

	if err := h.verifier.Verify(body, c.GetHeader(line.SignatureHeader)); err != nil {
		metrics.WebhookRequests.WithLabelValues("invalid_signature").Inc()
		h.logger.Warn("webhook rejected", map[string]interface{}{
			"error":    err.Error(),
			"clientIp": c.ClientIP(),
		})
		c.String(http.StatusBadRequest, "Invalid signature")
		return
	}

	req, err := line.ParseCallback(body)
	if err != nil {
		metrics.WebhookRequests.WithLabelValues("invalid_payload").Inc()
		h.logger.Error("webhook payload could not be decoded", map[string]interface{}{
			"error":    err.Error(),
			"bodySize": len(body),
		})
		c.String(http.StatusOK, "OK")
		return
	}

	ctx := c.Request.Context()
	for _, e := range req.Events {
		ev, ok := line.Inbound(e)
		if !ok {
			h.logger.Debug("event ignored", map[string]interface{}{
				"type": line.EventType(e),
			})
			continue
		}
		if h.dedup.Seen(ctx, ev.WebhookEventID) {
			h.logger.Info("duplicate event skipped", map[string]interface{}{
				"webhookEventId": ev.WebhookEventID,
				"redelivery":     ev.Redelivery,
			})
			continue
		}
		h.dispatcher.Dispatch(ctx, ev)
	}

	metrics.WebhookRequests.WithLabelValues("accepted").Inc()
	c.String(http.StatusOK, "OK")
}
