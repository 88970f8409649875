// internal/notify/dispatch/dispatcher.go

// Package dispatch contains the delivery-channel adapters invoked after
// notification creation. Dispatchers own their own retry and failure policy;
// the pipeline only guarantees invocation order and one invocation per
// notification within a processing pass.
package dispatch

import "context"

// Notification is the rendered view handed to dispatchers. Fields are final
// rendered text, not template strings.
type Notification struct {
	ID            string
	Recipient     string
	Title         string
	Text          string
	TriggerAction string
	Level         string
	SendPush      bool
	ExtraData     map[string]interface{}
}

// Dispatcher delivers a notification over one communication channel.
// No return value is interpreted beyond logging; a dispatch failure never
// rolls back the notification.
type Dispatcher interface {
	Name() string
	Dispatch(ctx context.Context, n Notification) error
}

// ContactProvider resolves a recipient identity to delivery addresses.
type ContactProvider interface {
	Contact(ctx context.Context, recipient string) (email, phone string, err error)
}
