// internal/notify/dispatch/contacts.go
package dispatch

import (
	"context"
	"database/sql"

	"github.com/druids/gonotify/internal/common/errors"
)

// PostgresContactProvider resolves recipients against the users table.
type PostgresContactProvider struct {
	db *sql.DB
}

func NewPostgresContactProvider(db *sql.DB) *PostgresContactProvider {
	return &PostgresContactProvider{db: db}
}

func (p *PostgresContactProvider) Contact(ctx context.Context, recipient string) (string, string, error) {
	var email, phone string
	err := p.db.QueryRowContext(ctx,
		`SELECT email, COALESCE(phone, '') FROM users WHERE id = $1`, recipient,
	).Scan(&email, &phone)
	if err == sql.ErrNoRows {
		return "", "", errors.NewRecipientNotFoundError(recipient)
	}
	if err != nil {
		return "", "", errors.NewQueryExecutionFailedError("get recipient contact", err)
	}
	return email, phone, nil
}
