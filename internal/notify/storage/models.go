// internal/notify/storage/models.go

// Package storage persists notifications and their related-object references.
package storage

import (
	"time"

	"github.com/druids/gonotify/internal/notify/signal"
)

// RelatedRef is a named object reference stored alongside a notification, so
// deleted objects degrade gracefully at render time.
type RelatedRef struct {
	Name string     `json:"name"`
	Ref  signal.Ref `json:"ref"`
}

// Notification is one (event, recipient) record. Rendered fields are never
// stored; they are computed on read from the referenced template. Extra data
// is frozen at creation time, related objects stay live references. TaskID
// records the deferred task that created the record, empty for the inline
// path; redelivered tasks use it to skip recipients already persisted.
type Notification struct {
	ID          string
	TaskID      string
	Recipient   string
	TemplateID  string
	IsRead      bool
	IsTriggered bool
	SendPush    bool
	Related     []RelatedRef
	ExtraData   map[string]interface{}
	CreatedAt   time.Time
}

// RelatedRefs returns the stored references as a name-keyed map for the
// render sandbox.
func (n *Notification) RelatedRefs() map[string]signal.Ref {
	out := make(map[string]signal.Ref, len(n.Related))
	for _, r := range n.Related {
		out[r.Name] = r.Ref
	}
	return out
}
