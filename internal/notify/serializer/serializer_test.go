// internal/notify/serializer/serializer_test.go
package serializer

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/druids/gonotify/internal/common/errors"
	"github.com/druids/gonotify/internal/notify/signal"
)

// ==========================
// Fakes
// ==========================

type fakeObject struct {
	objectType string
	id         string
}

func (o *fakeObject) ObjectType() string { return o.objectType }
func (o *fakeObject) ObjectID() string   { return o.id }
func (o *fakeObject) String() string     { return o.id }

func (o *fakeObject) Attr(string) (interface{}, bool) { return nil, false }

type fakeLoader struct {
	objects map[string]signal.Object
}

func (l *fakeLoader) Type() string { return "article" }

func (l *fakeLoader) Load(_ context.Context, id string) (signal.Object, error) {
	obj, ok := l.objects[id]
	if !ok {
		return nil, fmt.Errorf("article %s: %w", id, signal.ErrObjectNotFound)
	}
	return obj, nil
}

// ==========================
// Serialize Tests
// ==========================

func TestSerialize_PrimitivesPassThrough(t *testing.T) {
	out, err := Serialize(signal.Payload{
		"title":   "hello",
		"count":   3,
		"ratio":   0.5,
		"visible": true,
		"absent":  nil,
	})

	require.NoError(t, err)
	assert.Equal(t, "hello", out["title"])
	assert.Equal(t, 3, out["count"])
	assert.Equal(t, 0.5, out["ratio"])
	assert.Equal(t, true, out["visible"])
	assert.Nil(t, out["absent"])
}

func TestSerialize_ReferableBecomesRef(t *testing.T) {
	out, err := Serialize(signal.Payload{
		"article": &fakeObject{objectType: "article", id: "a1"},
	})

	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{
		"__ref__": map[string]interface{}{"type": "article", "id": "a1"},
	}, out["article"])
}

func TestSerialize_RejectsUnserializableValues(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
	}{
		{name: "slice", value: []string{"a"}},
		{name: "map", value: map[string]string{"a": "b"}},
		{name: "struct", value: struct{ X int }{1}},
		{name: "channel", value: make(chan int)},
		{name: "function", value: func() {}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Serialize(signal.Payload{"bad": tt.value})
			assert.Equal(t, errors.ErrCodeSerializationFailed, errors.CodeOf(err))
		})
	}
}

// ==========================
// Deserialize Tests
// ==========================

func TestDeserialize_RoundTrip(t *testing.T) {
	article := &fakeObject{objectType: "article", id: "a1"}
	loaders, err := signal.NewLoaders(&fakeLoader{objects: map[string]signal.Object{"a1": article}})
	require.NoError(t, err)

	serialized, err := Serialize(signal.Payload{
		"article": article,
		"count":   3,
	})
	require.NoError(t, err)

	// The payload crosses the queue as JSON, so round-trip through it.
	data, err := json.Marshal(serialized)
	require.NoError(t, err)
	var wire map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &wire))

	payload, err := Deserialize(context.Background(), loaders, wire)
	require.NoError(t, err)

	assert.Same(t, article, payload["article"])
	assert.Equal(t, float64(3), payload["count"], "numbers arrive as JSON floats")
}

func TestDeserialize_DeletedObjectFails(t *testing.T) {
	loaders, err := signal.NewLoaders(&fakeLoader{objects: map[string]signal.Object{}})
	require.NoError(t, err)

	_, err = Deserialize(context.Background(), loaders, map[string]interface{}{
		"article": map[string]interface{}{
			"__ref__": map[string]interface{}{"type": "article", "id": "gone"},
		},
	})

	assert.Equal(t, errors.ErrCodeDeserializationFailed, errors.CodeOf(err))
}

func TestDeserialize_NonRefMapsPassThrough(t *testing.T) {
	loaders, err := signal.NewLoaders()
	require.NoError(t, err)

	raw := map[string]interface{}{
		"meta": map[string]interface{}{"type": "x", "id": "y"},
	}
	payload, err := Deserialize(context.Background(), loaders, raw)

	require.NoError(t, err)
	assert.Equal(t, raw["meta"], payload["meta"])
}
