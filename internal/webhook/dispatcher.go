// internal/webhook/dispatcher.go
package webhook

import (
	"context"
	"time"

	"line-parking-bot/internal/common/agent"
	"line-parking-bot/internal/common/line"
	"line-parking-bot/internal/common/logger"
	"line-parking-bot/internal/common/metrics"
	"line-parking-bot/internal/common/rating"
	"line-parking-bot/internal/common/workerpool"

	answerlocation "line-parking-bot/internal/workers/conversation/answer-location"
	answertext "line-parking-bot/internal/workers/conversation/answer-text"
	ratingleaderboard "line-parking-bot/internal/workers/rating/rating-leaderboard"
	ratingsetup "line-parking-bot/internal/workers/rating/rating-setup"
	ratingsubmit "line-parking-bot/internal/workers/rating/rating-submit"
)

const (
	TextAck     = "停車寶收到囉，正在幫你查詢，請稍等一下 ... ϞϞ(๑⚈ ․̫ ⚈๑)∩"
	LocationAck = "收到定位，停車寶來幫你找找目前最新資訊，可能要稍等一下下得斯 ... ϞϞ(๑⚈ ․̫ ⚈๑)∩"
	BusyMessage = "停車寶現在有點忙，請稍後再試一次 ϞϞ(๑⚈ ․̫ ⚈๑)∩"
)

// Messenger is the part of the LINE client used while the webhook request is open.
type Messenger interface {
	Reply(ctx context.Context, replyToken string, messages ...line.Message) error
	ShowLoadingAnimation(ctx context.Context, chatID string, seconds int) error
}

type Notifier interface {
	PushText(ctx context.Context, to, text string) error
}

type Submitter interface {
	Submit(task workerpool.Task) (string, error)
}

type Handlers struct {
	AnswerText        interface{ Handle(context.Context, answertext.Input) error }
	AnswerLocation    interface{ Handle(context.Context, answerlocation.Input) error }
	RatingSetup       interface{ Handle(context.Context, ratingsetup.Input) error }
	RatingSubmit      interface{ Handle(context.Context, ratingsubmit.Input) error }
	RatingLeaderboard interface{ Handle(context.Context, ratingleaderboard.Input) error }
}

type DispatcherConfig struct {
	LoadingSeconds int
	Location       *time.Location
	BusyTimeout    time.Duration
}

// Dispatcher routes inbound events. Rating commands are answered inline with the
// reply token; questions are acknowledged and queued for the worker pool.
type Dispatcher struct {
	config    DispatcherConfig
	messenger Messenger
	notifier  Notifier
	pool      Submitter
	handlers  Handlers
	logger    logger.Logger
}

func NewDispatcher(config DispatcherConfig, messenger Messenger, notifier Notifier, pool Submitter, handlers Handlers, log logger.Logger) *Dispatcher {
	if config.Location == nil {
		config.Location = agent.LoadLocation("")
	}
	if config.BusyTimeout <= 0 {
		config.BusyTimeout = 10 * time.Second
	}
	return &Dispatcher{
		config:    config,
		messenger: messenger,
		notifier:  notifier,
		pool:      pool,
		handlers:  handlers,
		logger:    log.With(map[string]interface{}{"component": "dispatcher"}),
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, ev line.InboundEvent) {
	switch ev.Kind {
	case line.KindLocation:
		d.dispatchLocation(ctx, ev)
	case line.KindText:
		d.dispatchText(ctx, ev)
	}
}

func (d *Dispatcher) dispatchText(ctx context.Context, ev line.InboundEvent) {
	var (
		route string
		err   error
	)

	switch {
	case rating.IsSetup(ev.Text):
		route = ratingsetup.TaskType
		err = d.handlers.RatingSetup.Handle(ctx, ratingsetup.Input{ReplyToken: ev.ReplyToken, UserID: ev.UserID, Text: ev.Text})
	case rating.IsSubmit(ev.Text):
		route = ratingsubmit.TaskType
		err = d.handlers.RatingSubmit.Handle(ctx, ratingsubmit.Input{ReplyToken: ev.ReplyToken, UserID: ev.UserID, Text: ev.Text})
	case rating.IsLeaderboardQuery(ev.Text):
		route = ratingleaderboard.TaskType
		err = d.handlers.RatingLeaderboard.Handle(ctx, ratingleaderboard.Input{ReplyToken: ev.ReplyToken, UserID: ev.UserID})
	default:
		metrics.WebhookEvents.WithLabelValues(answertext.TaskType).Inc()
		d.acknowledge(ctx, ev, TextAck)

		input := answertext.Input{
			UserID:     ev.UserID,
			SessionKey: agent.SessionKey(ev.UserID, ev.Timestamp, d.config.Location),
			Query:      ev.Text,
		}
		d.enqueue(ctx, workerpool.Task{
			Type:   answertext.TaskType,
			UserID: ev.UserID,
			Run: func(ctx context.Context) error {
				return d.handlers.AnswerText.Handle(ctx, input)
			},
		})
		return
	}

	metrics.WebhookEvents.WithLabelValues(route).Inc()
	if err != nil {
		d.logger.Warn("rating command failed", map[string]interface{}{
			"route":  route,
			"userId": ev.UserID,
			"error":  err.Error(),
		})
	}
}

func (d *Dispatcher) dispatchLocation(ctx context.Context, ev line.InboundEvent) {
	metrics.WebhookEvents.WithLabelValues(answerlocation.TaskType).Inc()
	d.acknowledge(ctx, ev, LocationAck)

	input := answerlocation.Input{
		UserID:     ev.UserID,
		SessionKey: agent.SessionKey(ev.UserID, ev.Timestamp, d.config.Location),
		Latitude:   ev.Location.Latitude,
		Longitude:  ev.Location.Longitude,
		Title:      ev.Location.Title,
		Address:    ev.Location.Address,
	}
	d.enqueue(ctx, workerpool.Task{
		Type:   answerlocation.TaskType,
		UserID: ev.UserID,
		Run: func(ctx context.Context) error {
			return d.handlers.AnswerLocation.Handle(ctx, input)
		},
	})
}

// acknowledge replies right away and starts the loading animation. Both are best effort.
func (d *Dispatcher) acknowledge(ctx context.Context, ev line.InboundEvent, text string) {
	if err := d.messenger.Reply(ctx, ev.ReplyToken, line.NewTextMessage(text)); err != nil {
		d.logger.Warn("acknowledgement reply failed", map[string]interface{}{
			"userId": ev.UserID,
			"error":  err.Error(),
		})
	}
	if err := d.messenger.ShowLoadingAnimation(ctx, ev.UserID, d.config.LoadingSeconds); err != nil {
		d.logger.Debug("loading animation failed", map[string]interface{}{
			"userId": ev.UserID,
			"error":  err.Error(),
		})
	}
}

func (d *Dispatcher) enqueue(ctx context.Context, task workerpool.Task) {
	taskID, err := d.pool.Submit(task)
	if err == nil {
		d.logger.Debug("task enqueued", map[string]interface{}{
			"taskType": task.Type,
			"taskId":   taskID,
			"userId":   task.UserID,
		})
		return
	}

	d.logger.Error("task dropped", map[string]interface{}{
		"taskType": task.Type,
		"userId":   task.UserID,
		"error":    err.Error(),
	})

	// the request context ends with the webhook response
	busyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.config.BusyTimeout)
	go func() {
		defer cancel()
		if err := d.notifier.PushText(busyCtx, task.UserID, BusyMessage); err != nil {
			d.logger.Error("failed to push busy notice", map[string]interface{}{
				"userId": task.UserID,
				"error":  err.Error(),
			})
		}
	}()
}
