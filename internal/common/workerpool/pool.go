// internal/common/workerpool/pool.go
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "line-parking-bot/internal/common/errors"
	"line-parking-bot/internal/common/logger"
	"line-parking-bot/internal/common/metrics"
	"line-parking-bot/internal/common/observability"
)

var ErrPoolClosed = errors.New("worker pool is shut down")

// Task is one unit of background work. Run receives a context bounded by the pool timeout.
type Task struct {
	Type   string
	UserID string
	Run    func(ctx context.Context) error

	id         string
	enqueuedAt time.Time
}

// ErrorHandler receives every task that returns an error or panics.
type ErrorHandler interface {
	HandleTaskError(ctx context.Context, taskType, taskID, userID string, err error)
}

type Config struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration
}

// Pool runs tasks on a fixed number of goroutines fed by a bounded queue.
type Pool struct {
	config     Config
	queue      chan *Task
	errHandler ErrorHandler
	obs        *observability.Observability
	logger     logger.Logger

	baseCtx context.Context
	cancel  context.CancelFunc

	mu      sync.RWMutex
	closed  bool
	started bool
	wg      sync.WaitGroup
}

func New(config Config, errHandler ErrorHandler, obs *observability.Observability, log logger.Logger) *Pool {
	if config.Workers < 1 {
		config.Workers = 1
	}
	if config.QueueSize < 0 {
		config.QueueSize = 0
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		config:     config,
		queue:      make(chan *Task, config.QueueSize),
		errHandler: errHandler,
		obs:        obs,
		logger:     log.With(map[string]interface{}{"component": "workerpool"}),
		baseCtx:    ctx,
		cancel:     cancel,
	}
}

// Start launches the workers. Calling it twice is a no-op.
func (p *Pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.closed {
		return
	}
	p.started = true

	for i := 0; i < p.config.Workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	p.logger.Info("worker pool started", map[string]interface{}{
		"workers":   p.config.Workers,
		"queueSize": p.config.QueueSize,
	})
}

// Submit enqueues a task without blocking and returns its id. A full queue yields a QUEUE_FULL error.
func (p *Pool) Submit(task Task) (string, error) {
	if task.Run == nil {
		return "", fmt.Errorf("task %q has no Run func", task.Type)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return "", ErrPoolClosed
	}

	task.id = uuid.NewString()
	task.enqueuedAt = time.Now()

	select {
	case p.queue <- &task:
		metrics.QueueDepth.Set(float64(len(p.queue)))
		return task.id, nil
	default:
		metrics.TasksRejected.WithLabelValues(task.Type).Inc()
		return "", apperrors.NewQueueFullError(task.Type)
	}
}

// Shutdown stops intake and waits for queued and running tasks until ctx expires,
// then cancels whatever is still running.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		p.logger.Info("worker pool drained", nil)
		return nil
	case <-ctx.Done():
		p.cancel()
		p.logger.Warn("worker pool shutdown deadline reached, cancelling running tasks", map[string]interface{}{
			"pending": len(p.queue),
		})
		return ctx.Err()
	}
}

func (p *Pool) worker(idx int) {
	defer p.wg.Done()
	for task := range p.queue {
		metrics.QueueDepth.Set(float64(len(p.queue)))
		p.run(idx, task)
	}
}

func (p *Pool) run(idx int, task *Task) {
	ctx := p.baseCtx
	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}

	log := p.logger.With(map[string]interface{}{
		"taskType": task.Type,
		"taskId":   task.id,
		"worker":   idx,
	})

	p.obs.RecordQueueWait(ctx, task.Type, time.Since(task.enqueuedAt))
	metrics.TasksActive.WithLabelValues(task.Type).Inc()
	defer metrics.TasksActive.WithLabelValues(task.Type).Dec()

	start := time.Now()
	err := p.invoke(ctx, task, log)
	elapsed := time.Since(start)

	metrics.TaskDuration.WithLabelValues(task.Type).Observe(elapsed.Seconds())

	if err != nil {
		stdErr := apperrors.AsStandardError(err)
		metrics.TasksFailed.WithLabelValues(task.Type, string(stdErr.Code)).Inc()
		p.obs.RecordTaskProcessed(ctx, task.Type, "failed")
		p.obs.RecordTaskDuration(ctx, task.Type, elapsed, "failed")
		if p.errHandler != nil {
			p.errHandler.HandleTaskError(ctx, task.Type, task.id, task.UserID, stdErr)
		}
		return
	}

	metrics.TasksCompleted.WithLabelValues(task.Type).Inc()
	p.obs.RecordTaskProcessed(ctx, task.Type, "success")
	p.obs.RecordTaskDuration(ctx, task.Type, elapsed, "success")
	log.Debug("task completed", map[string]interface{}{"durationMs": elapsed.Milliseconds()})
}

func (p *Pool) invoke(ctx context.Context, task *Task, log logger.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("task panicked", map[string]interface{}{
				"panic": fmt.Sprint(r),
				"stack": string(debug.Stack()),
			})
			err = apperrors.NewTaskPanicError(task.Type, r)
		}
	}()
	return task.Run(ctx)
}
