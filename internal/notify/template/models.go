// internal/notify/template/models.go
package template

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Template fields rendered for a notification, in rendering order.
const (
	FieldTitle         = "title"
	FieldText          = "text"
	FieldTriggerAction = "trigger_action"
)

// Fields lists the renderable template fields.
var Fields = []string{FieldTitle, FieldText, FieldTriggerAction}

// Content is the canonical tuple identifying an ad-hoc template. The field
// values are template strings, not final rendered text.
type Content struct {
	Title         string `json:"title"`
	Text          string `json:"text"`
	TriggerAction string `json:"triggerAction"`
	Level         string `json:"level"`
}

// Fingerprint returns the content-address of the canonical tuple. Identical
// content always maps to the same fingerprint, which backs the race-tolerant
// find-or-create in the store.
func (c Content) Fingerprint() string {
	h := sha256.Sum256([]byte(strings.Join([]string{c.Title, c.Text, c.TriggerAction, c.Level}, "\x1f")))
	return hex.EncodeToString(h[:])
}

// Template is a stored blueprint for a notification's renderable fields.
// Shared by many notifications and immutable once matched by content.
type Template struct {
	ID            string
	Fingerprint   string
	Title         string
	Text          string
	TriggerAction string
	Level         string
	// AdminSlug references the admin template this row was created from, if any.
	AdminSlug string
	CreatedAt time.Time
}

// Content returns the canonical tuple of the template.
func (t *Template) Content() Content {
	return Content{
		Title:         t.Title,
		Text:          t.Text,
		TriggerAction: t.TriggerAction,
		Level:         t.Level,
	}
}

// Field returns the raw template string of a renderable field.
func (t *Template) Field(name string) string {
	switch name {
	case FieldTitle:
		return t.Title
	case FieldText:
		return t.Text
	case FieldTriggerAction:
		return t.TriggerAction
	}
	return ""
}

// AdminTemplate is a pre-created, slug-addressed "template of a template",
// managed out-of-band. It is never rendered directly; notifications always
// reference a Template row snapshotting its content.
type AdminTemplate struct {
	Slug          string
	Title         string
	Text          string
	TriggerAction string
	Level         string
	SendPush      bool
	IsActive      bool
	CreatedAt     time.Time
}

// Content returns the canonical tuple of the admin template.
func (t *AdminTemplate) Content() Content {
	return Content{
		Title:         t.Title,
		Text:          t.Text,
		TriggerAction: t.TriggerAction,
		Level:         t.Level,
	}
}
