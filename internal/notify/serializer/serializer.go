// internal/notify/serializer/serializer.go

// Package serializer converts signal payloads to and from a JSON-safe form
// for the deferred execution hop. Primitives pass through, object references
// are reduced to a (type, id) pair; anything else is rejected at send time,
// since it cannot survive the round-trip.
package serializer

import (
	"context"
	"fmt"

	"github.com/druids/gonotify/internal/common/errors"
	"github.com/druids/gonotify/internal/notify/signal"
)

// refKey marks a serialized object reference inside the payload.
const refKey = "__ref__"

// Serialize flattens a payload into JSON-compatible values. Referable values
// become {"__ref__": {"type": ..., "id": ...}} mappings.
func Serialize(p signal.Payload) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(p))
	for key, value := range p {
		switch v := value.(type) {
		case nil, string, bool,
			int, int8, int16, int32, int64,
			uint, uint8, uint16, uint32, uint64,
			float32, float64:
			out[key] = v
		case signal.Referable:
			out[key] = map[string]interface{}{
				refKey: map[string]interface{}{
					"type": v.ObjectType(),
					"id":   v.ObjectID(),
				},
			}
		default:
			return nil, errors.NewSerializationFailedError(key, value)
		}
	}
	return out, nil
}

// Deserialize re-hydrates a serialized payload, resolving object references
// through the loader registry. A reference to a since-deleted object fails
// cleanly with a DESERIALIZATION_FAILED error.
func Deserialize(ctx context.Context, loaders *signal.Loaders, raw map[string]interface{}) (signal.Payload, error) {
	out := make(signal.Payload, len(raw))
	for key, value := range raw {
		ref, ok := asRef(value)
		if !ok {
			out[key] = value
			continue
		}

		obj, err := loaders.Resolve(ctx, ref)
		if err != nil {
			return nil, errors.NewDeserializationFailedError(
				fmt.Sprintf("key: %s, ref: %s/%s", key, ref.Type, ref.ID), err)
		}
		out[key] = obj
	}
	return out, nil
}

// asRef recognizes the serialized reference shape.
func asRef(value interface{}) (signal.Ref, bool) {
	wrapper, ok := value.(map[string]interface{})
	if !ok || len(wrapper) != 1 {
		return signal.Ref{}, false
	}
	inner, ok := wrapper[refKey].(map[string]interface{})
	if !ok {
		return signal.Ref{}, false
	}
	objType, _ := inner["type"].(string)
	objID, _ := inner["id"].(string)
	if objType == "" || objID == "" {
		return signal.Ref{}, false
	}
	return signal.Ref{Type: objType, ID: objID}, true
}
