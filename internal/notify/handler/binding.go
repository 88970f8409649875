// internal/notify/handler/binding.go

// Package handler defines the declarative handler contract and the pipeline
// that turns one signal occurrence into persisted, dispatched notifications.
package handler

import (
	"fmt"

	"github.com/druids/gonotify/internal/notify/dispatch"
	"github.com/druids/gonotify/internal/notify/signal"
	"github.com/druids/gonotify/internal/notify/template"
)

// Binding declares everything the pipeline needs to handle one signal:
// the guard, the recipients, the template source, the render context inputs
// and the ordered dispatcher list. Bindings are registered once at startup.
type Binding struct {
	// Name identifies the binding; registration of the same (signal, name)
	// pair twice is ignored.
	Name   string
	Signal signal.Signal

	// AllowedSenders restricts the binding to signals sent by listed senders.
	// Empty means any sender.
	AllowedSenders []string

	// Guard is the predicate evaluated against the payload before any other
	// work; returning false declines the event. Nil accepts everything.
	Guard func(p signal.Payload) bool

	// Recipients computes who gets notified. An empty result is valid and
	// short-circuits the pipeline without error.
	Recipients func(p signal.Payload) []string

	// TemplateSlug selects a pre-created admin template. Mutually exclusive
	// with TemplateData.
	TemplateSlug string

	// TemplateSlugFunc computes the slug from the payload. May coexist with
	// TemplateData; an empty result falls through to the content path.
	TemplateSlugFunc func(p signal.Payload) string

	// TemplateData supplies the ad-hoc template content for this event.
	TemplateData func(p signal.Payload) template.Content

	// RelatedObjects names the domain objects injected into the render
	// context. Shared by all recipients of one event.
	RelatedObjects func(p signal.Payload) map[string]signal.Referable

	// ExtraData supplies JSON-safe values frozen into each notification.
	ExtraData func(p signal.Payload) map[string]interface{}

	// Dispatchers are invoked per created notification, in declared order.
	Dispatchers []dispatch.Dispatcher

	// DispatchersFunc computes the dispatcher list from the payload,
	// overriding Dispatchers when set.
	DispatchersFunc func(p signal.Payload) []dispatch.Dispatcher

	// CanCreate vetoes notification creation for a single recipient.
	CanCreate func(p signal.Payload, recipient string) bool

	// CanDispatch vetoes a single dispatcher invocation.
	CanDispatch func(n dispatch.Notification, d dispatch.Dispatcher) bool
}

// Validate rejects bindings the registry cannot accept.
func (b *Binding) Validate() error {
	if b.Name == "" {
		return fmt.Errorf("binding has no name")
	}
	if b.Signal == "" {
		return fmt.Errorf("binding %q has no signal", b.Name)
	}
	if b.Recipients == nil {
		return fmt.Errorf("binding %q has no recipients function", b.Name)
	}
	if b.TemplateSlug == "" && b.TemplateSlugFunc == nil && b.TemplateData == nil {
		return fmt.Errorf("binding %q declares no template source", b.Name)
	}
	if b.TemplateSlug != "" && b.TemplateData != nil {
		return fmt.Errorf("binding %q declares both template slug and template data", b.Name)
	}
	return nil
}

// Slug returns the admin template slug for a payload, if any.
func (b *Binding) Slug(p signal.Payload) string {
	if b.TemplateSlugFunc != nil {
		return b.TemplateSlugFunc(p)
	}
	return b.TemplateSlug
}

// DispatcherList returns the dispatchers for a payload, in declared order.
func (b *Binding) DispatcherList(p signal.Payload) []dispatch.Dispatcher {
	if b.DispatchersFunc != nil {
		return b.DispatchersFunc(p)
	}
	return b.Dispatchers
}

// SenderAllowed reports whether the binding accepts signals from sender.
func (b *Binding) SenderAllowed(sender string) bool {
	if len(b.AllowedSenders) == 0 {
		return true
	}
	for _, allowed := range b.AllowedSenders {
		if allowed == sender {
			return true
		}
	}
	return false
}
