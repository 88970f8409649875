// internal/notify/objects/user.go

// Package objects contains the built-in related-object types and their
// loaders. Embedding applications register additional loaders next to these.
package objects

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/druids/gonotify/internal/common/errors"
	"github.com/druids/gonotify/internal/notify/signal"
)

// TypeUser is the reference type under which users are stored.
const TypeUser = "user"

// User is a notification recipient exposed to templates.
type User struct {
	ID          string
	DisplayName string
	Email       string
	Phone       string
	ProfilePath string
}

func (u *User) ObjectType() string { return TypeUser }
func (u *User) ObjectID() string   { return u.ID }

func (u *User) String() string { return u.DisplayName }

// Attr exposes user attributes to the sandbox. Only names on the configured
// allow-list ever reach a template.
func (u *User) Attr(name string) (interface{}, bool) {
	switch name {
	case "get_absolute_url":
		return u.ProfilePath, true
	case "email":
		return u.Email, true
	}
	return nil, false
}

// UserLoader resolves user references against the users table.
type UserLoader struct {
	db *sql.DB
}

func NewUserLoader(db *sql.DB) *UserLoader {
	return &UserLoader{db: db}
}

func (l *UserLoader) Type() string { return TypeUser }

func (l *UserLoader) Load(ctx context.Context, id string) (signal.Object, error) {
	var u User
	err := l.db.QueryRowContext(ctx,
		`SELECT id, display_name, email, COALESCE(phone, ''), COALESCE(profile_path, '') FROM users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.DisplayName, &u.Email, &u.Phone, &u.ProfilePath)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %s: %w", id, signal.ErrObjectNotFound)
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("load user", err)
	}
	return &u, nil
}
