// internal/common/push/pusher.go
package push

import (
	"context"
	"encoding/json"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"line-parking-bot/internal/common/agent"
	apperrors "line-parking-bot/internal/common/errors"
	"line-parking-bot/internal/common/line"
	"line-parking-bot/internal/common/logger"
	"line-parking-bot/internal/common/metrics"
)

const (
	ParkingAltText = "停車場資訊"
	ToiletAltText  = "公廁資訊"

	NothingFoundMessage = "抱歉，附近沒有找到停車場或公廁資訊。"
	ErrorMessage        = "抱歉，取得資訊時發生錯誤，請稍後再試。"

	flexFallbackNotice = "\n抱歉，無法顯示互動式介面，請稍後再試。"
)

// Messenger sends push messages to a user.
type Messenger interface {
	Push(ctx context.Context, to string, messages ...line.Message) error
}

// CardRenderer builds the result carousels.
type CardRenderer interface {
	RenderParkingCards(records []agent.ParkingRecord) *messaging_api.FlexCarousel
	RenderToiletCards(ctx context.Context, records []agent.ToiletRecord) *messaging_api.FlexCarousel
}

type Pusher struct {
	messenger Messenger
	renderer  CardRenderer
	logger    logger.Logger
}

func NewPusher(messenger Messenger, renderer CardRenderer, log logger.Logger) *Pusher {
	return &Pusher{
		messenger: messenger,
		renderer:  renderer,
		logger:    log.With(map[string]interface{}{"component": "pusher"}),
	}
}

func (p *Pusher) PushText(ctx context.Context, to, text string) error {
	if err := p.messenger.Push(ctx, to, line.NewTextMessage(text)); err != nil {
		metrics.MessagesPushed.WithLabelValues("text", "error").Inc()
		return err
	}
	metrics.MessagesPushed.WithLabelValues("text", "ok").Inc()
	return nil
}

// PushFlex pushes a flex message. If the platform rejects it, the alt text and a
// notice are pushed as plain text instead; only a failed fallback is returned.
func (p *Pusher) PushFlex(ctx context.Context, to, altText string, contents messaging_api.FlexContainerInterface) error {
	var err error
	if _, marshalErr := json.Marshal(contents); marshalErr != nil {
		err = apperrors.NewRenderFailedError(altText, marshalErr)
	} else {
		err = p.messenger.Push(ctx, to, line.NewFlexMessage(altText, contents))
	}
	if err == nil {
		metrics.MessagesPushed.WithLabelValues("flex", "ok").Inc()
		return nil
	}

	metrics.MessagesPushed.WithLabelValues("flex", "error").Inc()
	metrics.FlexFallbacks.Inc()
	p.logger.Error("flex push failed, falling back to text", map[string]interface{}{
		"to":      to,
		"altText": altText,
		"error":   err.Error(),
	})
	return p.PushText(ctx, to, altText+flexFallbackNotice)
}

// PushResults runs the result sequence: summary, parking carousel, toilet carousel,
// and the nothing-found notice when no carousel was sent.
func (p *Pusher) PushResults(ctx context.Context, to string, result agent.StructuredResult, summary string) error {
	if summary != "" {
		if err := p.PushText(ctx, to, summary); err != nil {
			return err
		}
	}

	sent := false
	if len(result.ParkingList) > 0 {
		if err := p.PushFlex(ctx, to, ParkingAltText, p.renderer.RenderParkingCards(result.ParkingList)); err != nil {
			return err
		}
		sent = true
	}
	if len(result.ToiletList) > 0 {
		if err := p.PushFlex(ctx, to, ToiletAltText, p.renderer.RenderToiletCards(ctx, result.ToiletList)); err != nil {
			return err
		}
		sent = true
	}

	if !sent {
		return p.PushText(ctx, to, NothingFoundMessage)
	}
	return nil
}
