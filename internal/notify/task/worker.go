// internal/notify/task/worker.go
package task

import (
	"context"
	"fmt"
	"time"

	"github.com/druids/gonotify/internal/common/errors"
	"github.com/druids/gonotify/internal/common/logger"
	"github.com/druids/gonotify/internal/common/metrics"
	"github.com/druids/gonotify/internal/notify/handler"
	"github.com/druids/gonotify/internal/notify/registry"
	"github.com/druids/gonotify/internal/notify/serializer"
	"github.com/druids/gonotify/internal/notify/signal"
)

const (
	statusOK      = "ok"
	statusFailed  = "failed"
	statusDropped = "dropped"
)

const (
	defaultMaxAttempts  = 5
	defaultRetryBackoff = 2 * time.Second
)

// AfterTask observes each processed task; wired to observability by the
// worker binary.
type AfterTask func(status string, duration time.Duration)

// Worker drains the task queue and re-runs deferred handler invocations
// exactly as the synchronous path would. Tasks are delivered at least once;
// a retryable failure is re-enqueued with exponential backoff until the
// attempt cap, everything else is dropped after logging.
type Worker struct {
	queue        *Queue
	registry     *registry.Registry
	pipeline     *handler.Pipeline
	loaders      *signal.Loaders
	log          logger.Logger
	afterTask    AfterTask
	maxAttempts  int
	retryBackoff time.Duration
}

func NewWorker(
	queue *Queue,
	reg *registry.Registry,
	pipeline *handler.Pipeline,
	loaders *signal.Loaders,
	log logger.Logger,
) *Worker {
	return &Worker{
		queue:        queue,
		registry:     reg,
		pipeline:     pipeline,
		loaders:      loaders,
		log:          log,
		maxAttempts:  defaultMaxAttempts,
		retryBackoff: defaultRetryBackoff,
	}
}

// WithAfterTask installs a per-task observer hook.
func (w *Worker) WithAfterTask(hook AfterTask) *Worker {
	w.afterTask = hook
	return w
}

// WithRetryPolicy overrides the delivery attempt cap and the base backoff
// between redeliveries of a retryable failure.
func (w *Worker) WithRetryPolicy(maxAttempts int, backoff time.Duration) *Worker {
	w.maxAttempts = maxAttempts
	w.retryBackoff = backoff
	return w
}

// Run processes tasks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info("task worker started", nil)
	for {
		select {
		case <-ctx.Done():
			w.log.Info("task worker stopping", nil)
			return ctx.Err()
		default:
		}

		env, err := w.queue.Dequeue(ctx, 2*time.Second)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.log.WithError(err).Error("dequeue failed", nil)
			metrics.TasksProcessed.WithLabelValues(statusFailed).Inc()
			continue
		}
		if env == nil {
			continue
		}

		start := time.Now()
		status := statusOK
		if err := w.Process(ctx, env); err != nil {
			status = statusFailed
			w.log.WithError(err).Error("task failed", map[string]interface{}{
				"taskId":  env.TaskID,
				"signal":  env.Signal,
				"handler": env.Handler,
				"attempt": env.Attempt,
			})
			if errors.IsRetryable(err) {
				status = w.requeue(ctx, env)
			}
		}
		metrics.TasksProcessed.WithLabelValues(status).Inc()
		if w.afterTask != nil {
			w.afterTask(status, time.Since(start))
		}
	}
}

// requeue redelivers a retryably failed envelope after a backoff that doubles
// per attempt. An envelope at the attempt cap is dropped instead of circling
// the queue forever.
func (w *Worker) requeue(ctx context.Context, env *Envelope) string {
	env.Attempt++
	if env.Attempt >= w.maxAttempts {
		w.log.Error("task dropped after max attempts", map[string]interface{}{
			"taskId":   env.TaskID,
			"attempts": env.Attempt,
		})
		return statusDropped
	}

	select {
	case <-time.After(w.retryBackoff << (env.Attempt - 1)):
	case <-ctx.Done():
	}

	// Requeue survives a shutdown arriving during the backoff wait.
	requeueCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := w.queue.Enqueue(requeueCtx, env); err != nil {
		w.log.WithError(err).Error("task re-enqueue failed", map[string]interface{}{
			"taskId": env.TaskID,
		})
	}
	return statusFailed
}

// Process executes one envelope: look up the binding, re-hydrate the payload
// and run the pipeline. A reference to a deleted object fails the task with
// DESERIALIZATION_FAILED rather than crashing inside a handler.
func (w *Worker) Process(ctx context.Context, env *Envelope) error {
	binding, ok := w.registry.Binding(signal.Signal(env.Signal), env.Handler)
	if !ok {
		return errors.NewTaskDecodeFailedError(
			fmt.Errorf("no binding %q registered for signal %q", env.Handler, env.Signal))
	}

	payload, err := serializer.Deserialize(ctx, w.loaders, env.Kwargs)
	if err != nil {
		return err
	}

	return w.pipeline.RunTask(ctx, binding, payload, env.TaskID)
}
