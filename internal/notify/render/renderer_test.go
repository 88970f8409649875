// internal/notify/render/renderer_test.go
package render

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/druids/gonotify/internal/common/errors"
	"github.com/druids/gonotify/internal/common/logger"
	"github.com/druids/gonotify/internal/notify/signal"
)

// ==========================
// Test Fixtures
// ==========================

type testObject struct {
	id    string
	str   string
	attrs map[string]interface{}
}

func (o *testObject) ObjectType() string { return "article" }
func (o *testObject) ObjectID() string   { return o.id }
func (o *testObject) String() string     { return o.str }

func (o *testObject) Attr(name string) (interface{}, bool) {
	v, ok := o.attrs[name]
	return v, ok
}

type testLoader struct {
	objects map[string]signal.Object
}

func (l *testLoader) Type() string { return "article" }

func (l *testLoader) Load(_ context.Context, id string) (signal.Object, error) {
	obj, ok := l.objects[id]
	if !ok {
		return nil, fmt.Errorf("article %s: %w", id, signal.ErrObjectNotFound)
	}
	return obj, nil
}

func newTestSandbox(t *testing.T, objs ...*testObject) *Sandbox {
	t.Helper()
	byID := map[string]signal.Object{}
	for _, o := range objs {
		byID[o.id] = o
	}
	loaders, err := signal.NewLoaders(&testLoader{objects: byID})
	require.NoError(t, err)
	return NewSandbox(loaders, []string{"get_absolute_url"}, logger.NewNoOpLogger())
}

// ==========================
// Sandbox Tests
// ==========================

func TestSandbox_SecureObject(t *testing.T) {
	sandbox := newTestSandbox(t, &testObject{
		id:  "a1",
		str: "First article",
		attrs: map[string]interface{}{
			"get_absolute_url": "/articles/a1",
			"secret_field":     "do-not-leak",
		},
	})

	ctx, err := sandbox.BuildContext(context.Background(),
		map[string]signal.Ref{"article": {Type: "article", ID: "a1"}}, nil)
	require.NoError(t, err)

	obj, ok := ctx["article"].(SecureObject)
	require.True(t, ok)
	assert.Equal(t, "First article", obj.String())
	assert.Equal(t, "/articles/a1", obj["get_absolute_url"])

	_, exposed := obj["secret_field"]
	assert.False(t, exposed, "attribute outside the allow-list must not be exposed")
}

func TestSandbox_DeletedObject(t *testing.T) {
	sandbox := newTestSandbox(t)

	ctx, err := sandbox.BuildContext(context.Background(),
		map[string]signal.Ref{"article": {Type: "article", ID: "gone"}}, nil)
	require.NoError(t, err)

	assert.True(t, IsDeleted(ctx["article"]))
	assert.Equal(t, DeletedPlaceholder, fmt.Sprint(ctx["article"]))

	obj, ok := ctx["article"].(DeletedObject)
	require.True(t, ok)
	assert.Equal(t, DeletedPlaceholder, obj["get_absolute_url"],
		"allow-listed attributes of a deleted object must carry the placeholder")
}

func TestSandbox_UnknownObjectType(t *testing.T) {
	sandbox := newTestSandbox(t)

	_, err := sandbox.BuildContext(context.Background(),
		map[string]signal.Ref{"thing": {Type: "unknown", ID: "1"}}, nil)
	assert.ErrorIs(t, err, signal.ErrUnknownObjectType)
}

func TestSandbox_RelatedObjectsWinOverExtraData(t *testing.T) {
	sandbox := newTestSandbox(t, &testObject{id: "a1", str: "Article"})

	ctx, err := sandbox.BuildContext(context.Background(),
		map[string]signal.Ref{"article": {Type: "article", ID: "a1"}},
		map[string]interface{}{"article": "shadowed", "count": 3},
	)
	require.NoError(t, err)

	_, isSecure := ctx["article"].(SecureObject)
	assert.True(t, isSecure, "related object must take precedence on name collision")
	assert.Equal(t, 3, ctx["count"])
}

// ==========================
// Renderer Tests
// ==========================

func TestRenderer_Render(t *testing.T) {
	user := &testObject{id: "u1", str: "John Doe", attrs: map[string]interface{}{
		"get_absolute_url": "/users/u1",
		"secret_field":     "hunter2",
	}}

	tests := []struct {
		name     string
		opts     Options
		catalog  Catalog
		template string
		extra    map[string]interface{}
		want     string
	}{
		{
			name:     "plain substitution keeps HTML",
			template: "<b>{{.user}}</b> viewed {{.article}}",
			want:     "<b>John Doe</b> viewed First article",
		},
		{
			name:     "strip html removes tags",
			opts:     Options{StripHTML: true},
			template: "<b>{{.user}}</b> viewed {{.article}}",
			want:     "John Doe viewed First article",
		},
		{
			name:     "allowed attribute renders",
			template: "{{.user.get_absolute_url}}",
			want:     "/users/u1",
		},
		{
			name:     "prefix is prepended",
			opts:     Options{Prefix: "NOTICE: "},
			template: "{{.user}}",
			want:     "NOTICE: John Doe",
		},
		{
			name:     "translation runs before rendering",
			opts:     Options{Translate: true},
			catalog:  Catalog{"{{.user}} says hello": "{{.user}} dit bonjour"},
			template: "{{.user}} says hello",
			want:     "John Doe dit bonjour",
		},
		{
			name:     "extra data is injected verbatim",
			template: "total: {{.count}}",
			extra:    map[string]interface{}{"count": 42},
			want:     "total: 42",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sandbox := newTestSandbox(t, user, &testObject{id: "a1", str: "First article"})
			ctx, err := sandbox.BuildContext(context.Background(), map[string]signal.Ref{
				"user":    {Type: "article", ID: "u1"},
				"article": {Type: "article", ID: "a1"},
			}, tt.extra)
			require.NoError(t, err)

			r := NewRenderer(tt.opts, tt.catalog)
			got, err := r.Render("title", tt.template, ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderer_DisallowedAttributeDoesNotLeak(t *testing.T) {
	user := &testObject{id: "u1", str: "John", attrs: map[string]interface{}{
		"get_absolute_url": "/users/u1",
		"secret_field":     "hunter2",
	}}
	sandbox := newTestSandbox(t, user)
	ctx, err := sandbox.BuildContext(context.Background(),
		map[string]signal.Ref{"user": {Type: "article", ID: "u1"}}, nil)
	require.NoError(t, err)

	r := NewRenderer(Options{}, nil)
	got, err := r.Render("title", "{{.user.secret_field}}", ctx)
	require.NoError(t, err)
	assert.NotContains(t, got, "hunter2")
}

func TestRenderer_Deterministic(t *testing.T) {
	sandbox := newTestSandbox(t, &testObject{id: "a1", str: "Article"})
	ctx, err := sandbox.BuildContext(context.Background(),
		map[string]signal.Ref{"article": {Type: "article", ID: "a1"}},
		map[string]interface{}{"n": 7})
	require.NoError(t, err)

	r := NewRenderer(Options{}, nil)
	first, err := r.Render("text", "{{.article}} ({{.n}})", ctx)
	require.NoError(t, err)
	second, err := r.Render("text", "{{.article}} ({{.n}})", ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRenderer_DeletedObjectRendersPlaceholder(t *testing.T) {
	sandbox := newTestSandbox(t)
	ctx, err := sandbox.BuildContext(context.Background(),
		map[string]signal.Ref{"article": {Type: "article", ID: "deleted"}}, nil)
	require.NoError(t, err)

	r := NewRenderer(Options{}, nil)
	got, err := r.Render("title", "deleted: {{.article}}", ctx)
	require.NoError(t, err)
	assert.Equal(t, "deleted: [DELETED]", got)
}

func TestRenderer_DeletedObjectAttributeRendersPlaceholder(t *testing.T) {
	sandbox := newTestSandbox(t)
	ctx, err := sandbox.BuildContext(context.Background(),
		map[string]signal.Ref{"article": {Type: "article", ID: "deleted"}}, nil)
	require.NoError(t, err)

	r := NewRenderer(Options{}, nil)
	got, err := r.Render("trigger_action", "link: {{.article.get_absolute_url}}", ctx)
	require.NoError(t, err)
	assert.Equal(t, "link: [DELETED]", got)
}

func TestRenderer_EmptyTemplateString(t *testing.T) {
	r := NewRenderer(Options{}, nil)
	got, err := r.Render("trigger_action", "", Context{})
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestRenderer_CheckContext(t *testing.T) {
	tests := []struct {
		name     string
		template string
		ctx      Context
		wantCode errors.ErrorCode
	}{
		{
			name:     "all placeholders present",
			template: "{{.user}} and {{.count}}",
			ctx:      Context{"user": "u", "count": 1},
		},
		{
			name:     "missing placeholder",
			template: "{{.user}} and {{.missing}}",
			ctx:      Context{"user": "u"},
			wantCode: errors.ErrCodeMissingContextVariable,
		},
		{
			name:     "deleted object counts as missing",
			template: "{{.article}}",
			ctx:      Context{"article": DeletedObject{}},
			wantCode: errors.ErrCodeMissingContextVariable,
		},
		{
			name:     "attribute access checks only the leading name",
			template: "{{.user.get_absolute_url}}",
			ctx:      Context{"user": SecureObject{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRenderer(Options{Check: true}, nil)
			_, err := r.Render("title", tt.template, tt.ctx)
			if tt.wantCode == "" {
				assert.NoError(t, err)
			} else {
				assert.Equal(t, tt.wantCode, errors.CodeOf(err))
			}
		})
	}
}

func TestCatalog_Translate(t *testing.T) {
	c := Catalog{"hello": "bonjour"}
	assert.Equal(t, "bonjour", c.Translate("hello"))
	assert.Equal(t, "unknown", c.Translate("unknown"))

	var empty Catalog
	assert.Equal(t, "hello", empty.Translate("hello"))
}
