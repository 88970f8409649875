// internal/notify/receiver/receiver.go

// Package receiver adapts inbound signal deliveries into handler executions,
// either inline or via the deferred task queue.
package receiver

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/druids/gonotify/internal/common/config"
	"github.com/druids/gonotify/internal/common/errors"
	"github.com/druids/gonotify/internal/common/logger"
	"github.com/druids/gonotify/internal/notify/handler"
	"github.com/druids/gonotify/internal/notify/serializer"
	"github.com/druids/gonotify/internal/notify/signal"
	"github.com/druids/gonotify/internal/notify/task"
)

// Receiver ensures that a matching handler binding eventually runs for a raw
// signal payload.
type Receiver interface {
	Receive(ctx context.Context, b *handler.Binding, payload signal.Payload) error
}

// AfterCommit defers fn until the enclosing unit of work has committed, so
// deferred handlers never observe uncommitted state. The default hook runs fn
// immediately; callers owning a transaction install their own.
type AfterCommit func(fn func())

// Synchronous invokes the handler inline, within the caller's execution
// context, before returning.
type Synchronous struct {
	pipeline *handler.Pipeline
}

func NewSynchronous(pipeline *handler.Pipeline) *Synchronous {
	return &Synchronous{pipeline: pipeline}
}

func (r *Synchronous) Receive(ctx context.Context, b *handler.Binding, payload signal.Payload) error {
	return r.pipeline.Run(ctx, b, payload)
}

// Asynchronous serializes the payload and hands it to the deferred task
// queue. Serialization failures surface at send time; only the enqueue is
// deferred past the unit-of-work commit.
type Asynchronous struct {
	queue       *task.Queue
	afterCommit AfterCommit
	log         logger.Logger
}

func NewAsynchronous(queue *task.Queue, afterCommit AfterCommit, log logger.Logger) *Asynchronous {
	if afterCommit == nil {
		afterCommit = func(fn func()) { fn() }
	}
	return &Asynchronous{queue: queue, afterCommit: afterCommit, log: log}
}

func (r *Asynchronous) Receive(ctx context.Context, b *handler.Binding, payload signal.Payload) error {
	kwargs, err := serializer.Serialize(payload)
	if err != nil {
		return err
	}

	env := &task.Envelope{
		TaskID:     uuid.New().String(),
		Signal:     string(b.Signal),
		Handler:    b.Name,
		Kwargs:     kwargs,
		EnqueuedAt: time.Now().UTC().Format(time.RFC3339),
	}
	// Validate the envelope at send time; the deferred hop only pushes bytes.
	data, err := task.Encode(env)
	if err != nil {
		return err
	}

	r.afterCommit(func() {
		enqueueCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := r.queue.EnqueueEncoded(enqueueCtx, env.TaskID, data); err != nil {
			r.log.WithError(err).Error("deferred enqueue failed", map[string]interface{}{
				"taskId": env.TaskID,
				"signal": env.Signal,
			})
		}
	})
	return nil
}

// New resolves the configured receiver variant once at startup.
func New(cfg *config.Config, pipeline *handler.Pipeline, queue *task.Queue, afterCommit AfterCommit, log logger.Logger) (Receiver, error) {
	switch cfg.Notify.Receiver {
	case config.ReceiverSynchronous:
		return NewSynchronous(pipeline), nil
	case config.ReceiverAsynchronous:
		if queue == nil {
			return nil, errors.NewConfigurationInvalidError("asynchronous receiver requires a task queue")
		}
		return NewAsynchronous(queue, afterCommit, log), nil
	default:
		return nil, errors.NewConfigurationInvalidError(
			fmt.Sprintf("unknown receiver %q", cfg.Notify.Receiver))
	}
}
