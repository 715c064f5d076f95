// internal/common/errors/handler.go
package errors

import (
	"context"
	"time"
)

// ErrorHandler turns a failed background task into a log entry and a single apology push.
type ErrorHandler struct {
	logger   Logger
	notifier Notifier
	apology  string
	timeout  time.Duration
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

// Notifier delivers the apology to the user whose task failed.
type Notifier interface {
	PushText(ctx context.Context, to, text string) error
}

func NewErrorHandler(logger Logger, notifier Notifier, apology string) *ErrorHandler {
	return &ErrorHandler{
		logger:   logger,
		notifier: notifier,
		apology:  apology,
		timeout:  10 * time.Second,
	}
}

// HandleTaskError is called once per failed task. It never returns an error.
func (h *ErrorHandler) HandleTaskError(ctx context.Context, taskType, taskID, userID string, err error) {
	stdErr := AsStandardError(err)

	h.logError(taskType, taskID, userID, stdErr)

	if userID == "" || h.notifier == nil {
		return
	}

	// the task context may already be cancelled or expired
	pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.timeout)
	defer cancel()

	if pushErr := h.notifier.PushText(pushCtx, userID, h.apology); pushErr != nil {
		h.logger.Error("failed to push apology", map[string]interface{}{
			"taskType": taskType,
			"taskId":   taskID,
			"userId":   userID,
			"error":    pushErr.Error(),
		})
	}
}

func (h *ErrorHandler) logError(taskType, taskID, userID string, stdErr *StandardError) {
	h.logger.Error("Task failed", map[string]interface{}{
		"taskType":      taskType,
		"taskId":        taskID,
		"userId":        userID,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
	})
}
