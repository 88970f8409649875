// internal/notify/task/queue_test.go
package task

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/druids/gonotify/internal/common/errors"
	"github.com/druids/gonotify/internal/common/logger"
)

func newTestQueue(t *testing.T) (*Queue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewQueue(client, "gonotify:tasks", logger.NewNoOpLogger()), mr
}

func testEnvelope() *Envelope {
	return &Envelope{
		TaskID:  "task-1",
		Signal:  "article.viewed",
		Handler: "article_viewed",
		Sender:  "articles",
		Kwargs: map[string]interface{}{
			"article": map[string]interface{}{
				"__ref__": map[string]interface{}{"type": "article", "id": "a1"},
			},
			"count": float64(3),
		},
		EnqueuedAt: "2026-08-28T10:00:00Z",
	}
}

// ==========================
// Envelope Tests
// ==========================

func TestEnvelope_EncodeDecodeRoundTrip(t *testing.T) {
	data, err := Encode(testEnvelope())
	require.NoError(t, err)

	env, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, testEnvelope(), env)
}

func TestEnvelope_AttemptSurvivesRequeue(t *testing.T) {
	env := testEnvelope()
	env.Attempt = 3

	data, err := Encode(env)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, 3, decoded.Attempt)
}

func TestEnvelope_EncodeRejectsIncomplete(t *testing.T) {
	tests := []struct {
		name string
		env  *Envelope
	}{
		{name: "missing task id", env: &Envelope{Signal: "s", Handler: "h", Kwargs: map[string]interface{}{}}},
		{name: "missing signal", env: &Envelope{TaskID: "t", Handler: "h", Kwargs: map[string]interface{}{}}},
		{name: "missing handler", env: &Envelope{TaskID: "t", Signal: "s", Kwargs: map[string]interface{}{}}},
		{name: "missing kwargs", env: &Envelope{TaskID: "t", Signal: "s", Handler: "h"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(tt.env)
			assert.Equal(t, errors.ErrCodeTaskDecodeFailed, errors.CodeOf(err))
		})
	}
}

func TestEnvelope_DecodeRejectsGarbage(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not json", data: "not json"},
		{name: "wrong shape", data: `["a", "b"]`},
		{name: "unknown field", data: `{"taskId":"t","signal":"s","handler":"h","kwargs":{},"extra":1}`},
		{name: "empty task id", data: `{"taskId":"","signal":"s","handler":"h","kwargs":{}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			assert.Equal(t, errors.ErrCodeTaskDecodeFailed, errors.CodeOf(err))
		})
	}
}

// ==========================
// Queue Tests
// ==========================

func TestQueue_EnqueueEncoded(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	data, err := Encode(testEnvelope())
	require.NoError(t, err)
	require.NoError(t, q.EnqueueEncoded(ctx, "task-1", data))

	env, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, testEnvelope(), env)
}

func TestQueue_EnqueueDequeue(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, testEnvelope()))

	pending, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending)

	env, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, testEnvelope(), env)

	pending, err = q.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)
}

func TestQueue_FIFOOrder(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	first := testEnvelope()
	second := testEnvelope()
	second.TaskID = "task-2"

	require.NoError(t, q.Enqueue(ctx, first))
	require.NoError(t, q.Enqueue(ctx, second))

	env, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "task-1", env.TaskID)

	env, err = q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "task-2", env.TaskID)
}

func TestQueue_EnqueueRejectsInvalidEnvelope(t *testing.T) {
	q, _ := newTestQueue(t)

	err := q.Enqueue(context.Background(), &Envelope{TaskID: "t"})
	assert.Equal(t, errors.ErrCodeTaskDecodeFailed, errors.CodeOf(err))

	pending, lenErr := q.Len(context.Background())
	require.NoError(t, lenErr)
	assert.Zero(t, pending, "invalid envelopes must never reach the queue")
}

func TestQueue_PoisonedEntryFailsDecode(t *testing.T) {
	q, mr := newTestQueue(t)

	_, err := mr.Lpush("gonotify:tasks", `{"not":"an envelope"}`)
	require.NoError(t, err)

	_, err = q.Dequeue(context.Background(), time.Second)
	assert.Equal(t, errors.ErrCodeTaskDecodeFailed, errors.CodeOf(err))
}
