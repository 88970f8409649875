// internal/notify/template/store.go
package template

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/druids/gonotify/internal/common/errors"
)

// Store is the persistence boundary used by the resolver.
type Store interface {
	GetAdmin(ctx context.Context, slug string) (*AdminTemplate, error)
	FindOrCreate(ctx context.Context, content Content, adminSlug string) (*Template, error)
	Get(ctx context.Context, id string) (*Template, error)
}

// PostgresStore implements Store on top of PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const getAdminQuery = `
SELECT slug, title, text, trigger_action, level, send_push, is_active, created_at
FROM admin_templates WHERE slug = $1`

// GetAdmin looks up an admin template strictly by slug. Admin templates are
// never auto-created by the pipeline.
func (s *PostgresStore) GetAdmin(ctx context.Context, slug string) (*AdminTemplate, error) {
	var t AdminTemplate
	err := s.db.QueryRowContext(ctx, getAdminQuery, slug).Scan(
		&t.Slug, &t.Title, &t.Text, &t.TriggerAction, &t.Level, &t.SendPush, &t.IsActive, &t.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NewTemplateNotFoundError(slug)
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("get admin template", err)
	}
	return &t, nil
}

const insertTemplateQuery = `
INSERT INTO templates (id, fingerprint, title, text, trigger_action, level, admin_slug, created_at)
VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NOW())
ON CONFLICT (fingerprint) DO NOTHING`

const getByFingerprintQuery = `
SELECT id, fingerprint, title, text, trigger_action, level, COALESCE(admin_slug, ''), created_at
FROM templates WHERE fingerprint = $1`

// FindOrCreate returns the template with exactly matching content, creating it
// if absent. The fingerprint unique constraint makes concurrent creation of
// identical content converge on a single row: the losing INSERT is a no-op and
// the follow-up SELECT reads the winner.
func (s *PostgresStore) FindOrCreate(ctx context.Context, content Content, adminSlug string) (*Template, error) {
	fingerprint := content.Fingerprint()

	if t, err := s.getByFingerprint(ctx, fingerprint); err != nil {
		return nil, err
	} else if t != nil {
		return t, nil
	}

	_, err := s.db.ExecContext(ctx, insertTemplateQuery,
		uuid.New().String(), fingerprint,
		content.Title, content.Text, content.TriggerAction, content.Level, adminSlug,
	)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("insert template", err)
	}

	t, err := s.getByFingerprint(ctx, fingerprint)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, errors.NewQueryExecutionFailedError("select template after insert", sql.ErrNoRows)
	}
	return t, nil
}

func (s *PostgresStore) getByFingerprint(ctx context.Context, fingerprint string) (*Template, error) {
	var t Template
	err := s.db.QueryRowContext(ctx, getByFingerprintQuery, fingerprint).Scan(
		&t.ID, &t.Fingerprint, &t.Title, &t.Text, &t.TriggerAction, &t.Level, &t.AdminSlug, &t.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("get template by fingerprint", err)
	}
	return &t, nil
}

const getTemplateQuery = `
SELECT id, fingerprint, title, text, trigger_action, level, COALESCE(admin_slug, ''), created_at
FROM templates WHERE id = $1`

// Get returns a template by ID.
func (s *PostgresStore) Get(ctx context.Context, id string) (*Template, error) {
	var t Template
	err := s.db.QueryRowContext(ctx, getTemplateQuery, id).Scan(
		&t.ID, &t.Fingerprint, &t.Title, &t.Text, &t.TriggerAction, &t.Level, &t.AdminSlug, &t.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NewTemplateNotFoundError(id)
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("get template", err)
	}
	return &t, nil
}
