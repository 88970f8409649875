// internal/notify/storage/postgres.go
package storage

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/druids/gonotify/internal/common/errors"
)

// Store is the notification persistence boundary used by the pipeline.
type Store interface {
	Create(ctx context.Context, n *Notification) error
	Get(ctx context.Context, id string) (*Notification, error)
	CreatedForTask(ctx context.Context, taskID string) (map[string]bool, error)
	MarkRead(ctx context.Context, id string, read bool) error
	MarkTriggered(ctx context.Context, id string) error
}

// PostgresStore implements Store on top of PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const insertNotificationQuery = `
INSERT INTO notifications (id, task_id, recipient, template_id, is_read, is_triggered, send_push, extra_data, created_at)
VALUES ($1, NULLIF($2, ''), $3, $4, FALSE, FALSE, $5, $6, NOW())`

const insertRelatedQuery = `
INSERT INTO notification_related_objects (notification_id, name, object_type, object_id)
VALUES ($1, $2, $3, $4)`

// Create inserts the notification and its related-object rows in one
// transaction. Assigns the ID when unset.
func (s *PostgresStore) Create(ctx context.Context, n *Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}

	extraData, err := json.Marshal(n.ExtraData)
	if err != nil {
		return errors.NewNotificationCreateFailedError(err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewNotificationCreateFailedError(err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, insertNotificationQuery,
		n.ID, n.TaskID, n.Recipient, n.TemplateID, n.SendPush, extraData,
	); err != nil {
		return errors.NewNotificationCreateFailedError(err)
	}

	for _, related := range n.Related {
		if _, err := tx.ExecContext(ctx, insertRelatedQuery,
			n.ID, related.Name, related.Ref.Type, related.Ref.ID,
		); err != nil {
			return errors.NewNotificationCreateFailedError(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewNotificationCreateFailedError(err)
	}
	return nil
}

const getNotificationQuery = `
SELECT id, recipient, template_id, is_read, is_triggered, send_push, extra_data, created_at
FROM notifications WHERE id = $1`

const getRelatedQuery = `
SELECT name, object_type, object_id
FROM notification_related_objects WHERE notification_id = $1 ORDER BY name`

// Get loads a notification together with its related-object references.
func (s *PostgresStore) Get(ctx context.Context, id string) (*Notification, error) {
	var n Notification
	var extraData []byte
	err := s.db.QueryRowContext(ctx, getNotificationQuery, id).Scan(
		&n.ID, &n.Recipient, &n.TemplateID, &n.IsRead, &n.IsTriggered, &n.SendPush, &extraData, &n.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotificationNotFoundError(id)
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("get notification", err)
	}

	if len(extraData) > 0 {
		if err := json.Unmarshal(extraData, &n.ExtraData); err != nil {
			return nil, errors.NewQueryExecutionFailedError("decode extra data", err)
		}
	}

	rows, err := s.db.QueryContext(ctx, getRelatedQuery, id)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("get related objects", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r RelatedRef
		if err := rows.Scan(&r.Name, &r.Ref.Type, &r.Ref.ID); err != nil {
			return nil, errors.NewQueryExecutionFailedError("scan related object", err)
		}
		n.Related = append(n.Related, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("iterate related objects", err)
	}

	return &n, nil
}

// CreatedForTask reports the recipients already persisted for a deferred
// task, keyed by recipient. Lets a redelivered task skip the recipients its
// earlier delivery got through before failing.
func (s *PostgresStore) CreatedForTask(ctx context.Context, taskID string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT recipient FROM notifications WHERE task_id = $1`, taskID)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("recipients for task", err)
	}
	defer rows.Close()

	out := map[string]bool{}
	for rows.Next() {
		var recipient string
		if err := rows.Scan(&recipient); err != nil {
			return nil, errors.NewQueryExecutionFailedError("scan task recipient", err)
		}
		out[recipient] = true
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("iterate task recipients", err)
	}
	return out, nil
}

// MarkRead toggles the read flag with a single atomic update; the flag may be
// set concurrently by a user-facing action, so no read-modify-write.
func (s *PostgresStore) MarkRead(ctx context.Context, id string, read bool) error {
	_, err := s.db.ExecContext(ctx, `UPDATE notifications SET is_read = $2 WHERE id = $1`, id, read)
	if err != nil {
		return errors.NewQueryExecutionFailedError("mark read", err)
	}
	return nil
}

// MarkTriggered records that the recipient triggered the notification.
func (s *PostgresStore) MarkTriggered(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE notifications SET is_triggered = TRUE WHERE id = $1`, id)
	if err != nil {
		return errors.NewQueryExecutionFailedError("mark triggered", err)
	}
	return nil
}
