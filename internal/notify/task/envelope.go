// internal/notify/task/envelope.go

// Package task carries handler invocations across the deferred execution hop:
// the asynchronous receiver enqueues envelopes into Redis, the worker drains
// them and runs the pipeline. Delivery is at-least-once; a redelivered task
// skips recipients already persisted under its task ID, and retryable
// failures are redelivered with backoff up to an attempt cap.
package task

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/druids/gonotify/internal/common/errors"
)

// Envelope is the serialized form of one deferred handler invocation.
// Attempt counts completed deliveries, so a redelivered envelope carries its
// history across the queue hop.
type Envelope struct {
	TaskID     string                 `json:"taskId"`
	Signal     string                 `json:"signal"`
	Handler    string                 `json:"handler"`
	Sender     string                 `json:"sender,omitempty"`
	Kwargs     map[string]interface{} `json:"kwargs"`
	Attempt    int                    `json:"attempt,omitempty"`
	EnqueuedAt string                 `json:"enqueuedAt"`
}

// envelopeSchema guards the queue boundary: a malformed envelope is rejected
// before enqueue and again after dequeue, so a poisoned queue entry fails as
// TASK_DECODE_FAILED instead of crashing ambiguously inside a handler.
const envelopeSchema = `{
	"type": "object",
	"required": ["taskId", "signal", "handler", "kwargs"],
	"additionalProperties": false,
	"properties": {
		"taskId":     {"type": "string", "minLength": 1},
		"signal":     {"type": "string", "minLength": 1},
		"handler":    {"type": "string", "minLength": 1},
		"sender":     {"type": "string"},
		"kwargs":     {"type": "object"},
		"attempt":    {"type": "integer", "minimum": 0},
		"enqueuedAt": {"type": "string"}
	}
}`

var compiledSchema = gojsonschema.NewStringLoader(envelopeSchema)

// Encode validates and serializes an envelope.
func Encode(env *Envelope) ([]byte, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return nil, errors.NewTaskDecodeFailedError(err)
	}
	if err := validate(data); err != nil {
		return nil, err
	}
	return data, nil
}

// Decode validates and deserializes an envelope pulled from the queue.
func Decode(data []byte) (*Envelope, error) {
	if err := validate(data); err != nil {
		return nil, err
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.NewTaskDecodeFailedError(err)
	}
	return &env, nil
}

func validate(data []byte) error {
	result, err := gojsonschema.Validate(compiledSchema, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return errors.NewTaskDecodeFailedError(err)
	}
	if !result.Valid() {
		return errors.NewTaskDecodeFailedError(fmt.Errorf("envelope schema violation: %v", result.Errors()))
	}
	return nil
}
