// internal/notify/template/resolver_test.go
package template

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/druids/gonotify/internal/common/errors"
	"github.com/druids/gonotify/internal/common/logger"
)

// ==========================
// Fake Store
// ==========================

type fakeStore struct {
	admins        map[string]*AdminTemplate
	byFingerprint map[string]*Template
	adminLookups  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		admins:        map[string]*AdminTemplate{},
		byFingerprint: map[string]*Template{},
	}
}

func (s *fakeStore) GetAdmin(_ context.Context, slug string) (*AdminTemplate, error) {
	s.adminLookups++
	admin, ok := s.admins[slug]
	if !ok {
		return nil, errors.NewTemplateNotFoundError(slug)
	}
	return admin, nil
}

func (s *fakeStore) FindOrCreate(_ context.Context, content Content, adminSlug string) (*Template, error) {
	fp := content.Fingerprint()
	if t, ok := s.byFingerprint[fp]; ok {
		return t, nil
	}
	t := &Template{
		ID:            uuid.New().String(),
		Fingerprint:   fp,
		Title:         content.Title,
		Text:          content.Text,
		TriggerAction: content.TriggerAction,
		Level:         content.Level,
		AdminSlug:     adminSlug,
	}
	s.byFingerprint[fp] = t
	return t, nil
}

func (s *fakeStore) Get(_ context.Context, id string) (*Template, error) {
	for _, t := range s.byFingerprint {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, errors.NewTemplateNotFoundError(id)
}

// ==========================
// Resolver Tests
// ==========================

func TestResolver_Resolve_BySlug(t *testing.T) {
	store := newFakeStore()
	store.admins["article_viewed"] = &AdminTemplate{
		Slug:     "article_viewed",
		Title:    "{{.user}} viewed {{.article}}",
		Level:    "INFO",
		SendPush: true,
		IsActive: true,
	}

	resolver := NewResolver(store, logger.NewNoOpLogger())
	res, err := resolver.Resolve(context.Background(), "article_viewed", Content{})

	require.NoError(t, err)
	assert.Equal(t, "{{.user}} viewed {{.article}}", res.Template.Title)
	assert.Equal(t, "article_viewed", res.Template.AdminSlug)
	assert.True(t, res.SendPush())
}

func TestResolver_Resolve_SlugNotFound(t *testing.T) {
	resolver := NewResolver(newFakeStore(), logger.NewNoOpLogger())
	_, err := resolver.Resolve(context.Background(), "missing", Content{})
	assert.Equal(t, errors.ErrCodeTemplateNotFound, errors.CodeOf(err))
}

func TestResolver_Resolve_InactiveSlug(t *testing.T) {
	store := newFakeStore()
	store.admins["retired"] = &AdminTemplate{Slug: "retired", Title: "x", IsActive: false}

	resolver := NewResolver(store, logger.NewNoOpLogger())
	_, err := resolver.Resolve(context.Background(), "retired", Content{})
	assert.Equal(t, errors.ErrCodeTemplateInactive, errors.CodeOf(err))
}

func TestResolver_Resolve_AdHocIdempotent(t *testing.T) {
	store := newFakeStore()
	resolver := NewResolver(store, logger.NewNoOpLogger())
	content := Content{Title: "hello {{.user}}", Level: "INFO"}

	first, err := resolver.Resolve(context.Background(), "", content)
	require.NoError(t, err)
	second, err := resolver.Resolve(context.Background(), "", content)
	require.NoError(t, err)

	assert.Equal(t, first.Template.ID, second.Template.ID)
	assert.Nil(t, first.Admin)
	assert.False(t, first.SendPush())
	assert.Len(t, store.byFingerprint, 1)
}

// Editing an admin template after notifications were created must produce a
// fresh snapshot row instead of rewriting the old one.
func TestResolver_Resolve_AdminEditSnapshotsNewRow(t *testing.T) {
	store := newFakeStore()
	store.admins["greeting"] = &AdminTemplate{Slug: "greeting", Title: "v1", IsActive: true}

	resolver := NewResolver(store, logger.NewNoOpLogger())
	first, err := resolver.Resolve(context.Background(), "greeting", Content{})
	require.NoError(t, err)

	store.admins["greeting"].Title = "v2"
	second, err := resolver.Resolve(context.Background(), "greeting", Content{})
	require.NoError(t, err)

	assert.NotEqual(t, first.Template.ID, second.Template.ID)
	assert.Equal(t, "v1", first.Template.Title)
	assert.Equal(t, "v2", second.Template.Title)
}
