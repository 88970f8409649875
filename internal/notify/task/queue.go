// internal/notify/task/queue.go
package task

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/druids/gonotify/internal/common/errors"
	"github.com/druids/gonotify/internal/common/logger"
)

// Queue is the Redis list backing deferred handler execution.
type Queue struct {
	rdb *redis.Client
	key string
	log logger.Logger
}

func NewQueue(rdb *redis.Client, key string, log logger.Logger) *Queue {
	return &Queue{rdb: rdb, key: key, log: log}
}

// Enqueue pushes one envelope. Rejects invalid envelopes before they reach
// the queue.
func (q *Queue) Enqueue(ctx context.Context, env *Envelope) error {
	data, err := Encode(env)
	if err != nil {
		return err
	}
	return q.EnqueueEncoded(ctx, env.TaskID, data)
}

// EnqueueEncoded pushes an envelope already serialized by Encode, so callers
// that validate at send time do not pay for a second encoding.
func (q *Queue) EnqueueEncoded(ctx context.Context, taskID string, data []byte) error {
	if err := q.rdb.LPush(ctx, q.key, data).Err(); err != nil {
		return errors.NewTaskEnqueueFailedError(err)
	}
	q.log.Debug("task enqueued", map[string]interface{}{
		"taskId": taskID,
	})
	return nil
}

// Dequeue blocks up to timeout for the next envelope. Returns (nil, nil) on
// timeout so the worker loop can check for shutdown.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*Envelope, error) {
	res, err := q.rdb.BRPop(ctx, timeout, q.key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	// BRPOP returns [key, value].
	return Decode([]byte(res[1]))
}

// Len reports the number of pending tasks.
func (q *Queue) Len(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, q.key).Result()
}
