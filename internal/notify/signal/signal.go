// internal/notify/signal/signal.go

// Package signal defines the in-process event types consumed by the
// notification pipeline: a named signal, its transient payload, and
// references to domain objects carried inside the payload.
package signal

import "context"

// Signal is a named occurrence broadcast in-process to zero or more handlers.
type Signal string

// Payload is the ephemeral mapping delivered once per event occurrence.
// Values are JSON primitives or object references (Referable); it is owned
// transiently by the receiver for the duration of one dispatch.
type Payload map[string]interface{}

// Referable identifies a domain object by a stable (type, id) pair, so it can
// be reduced to a reference and recovered later by the matching Loader.
type Referable interface {
	ObjectType() string
	ObjectID() string
}

// Ref is a plain (type, id) object reference.
type Ref struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

func (r Ref) ObjectType() string { return r.Type }
func (r Ref) ObjectID() string   { return r.ID }

// RefOf reduces any Referable to a plain Ref.
func RefOf(obj Referable) Ref {
	return Ref{Type: obj.ObjectType(), ID: obj.ObjectID()}
}

// Object is a loadable domain object exposed to notification templates.
// Attr returns the value of a named attribute; the sandbox consults it only
// for attribute names on the configured allow-list.
type Object interface {
	Referable
	String() string
	Attr(name string) (interface{}, bool)
}

// Loader resolves object references of a single type back into Objects.
type Loader interface {
	Type() string
	// Load returns ErrObjectNotFound when the referenced object no longer exists.
	Load(ctx context.Context, id string) (Object, error)
}
