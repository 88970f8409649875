// internal/notify/notify.go
package notify

import (
	"context"
	"fmt"

	"github.com/druids/gonotify/internal/notify/dispatch"
	"github.com/druids/gonotify/internal/notify/handler"
	"github.com/druids/gonotify/internal/notify/registry"
	"github.com/druids/gonotify/internal/notify/signal"
	"github.com/druids/gonotify/internal/notify/template"
)

// SignalNotify is the built-in signal behind the Notify helper.
const SignalNotify = signal.Signal("notify")

// Request is a one-shot notification request. Either Slug or Content must be
// set, never both.
type Request struct {
	Recipients    []string
	Slug          string
	Title         string
	Text          string
	TriggerAction string
	Level         string
	Related       map[string]signal.Referable
	ExtraData     map[string]interface{}
	Dispatchers   []dispatch.Dispatcher
}

// Notify creates notifications without declaring a dedicated handler, by
// sending the built-in notify signal carrying the whole request.
func (s *Service) Notify(ctx context.Context, req Request) error {
	hasContent := req.Title != "" || req.Text != "" || req.TriggerAction != ""
	if (req.Slug != "") == hasContent {
		return fmt.Errorf("either provide a template slug or template data, not both")
	}

	return s.Send(ctx, SignalNotify, "", signal.Payload{"request": req})
}

// NotifyProvider registers the binding serving the built-in notify signal.
// Requests that name no dispatchers fall back to the defaults, typically the
// channels enabled in configuration.
func NotifyProvider(defaults ...dispatch.Dispatcher) registry.Provider {
	return registry.Provider{
		Name: "notify",
		Bindings: func() []*handler.Binding {
			return []*handler.Binding{NotifyBinding(defaults...)}
		},
	}
}

// NotifyBinding adapts a Request payload onto the generic handler contract.
func NotifyBinding(defaults ...dispatch.Dispatcher) *handler.Binding {
	request := func(p signal.Payload) Request {
		req, _ := p["request"].(Request)
		return req
	}

	return &handler.Binding{
		Name:   "notify",
		Signal: SignalNotify,
		Guard: func(p signal.Payload) bool {
			_, ok := p["request"].(Request)
			return ok
		},
		Recipients: func(p signal.Payload) []string {
			return request(p).Recipients
		},
		TemplateSlugFunc: func(p signal.Payload) string {
			return request(p).Slug
		},
		TemplateData: func(p signal.Payload) template.Content {
			req := request(p)
			return template.Content{
				Title:         req.Title,
				Text:          req.Text,
				TriggerAction: req.TriggerAction,
				Level:         req.Level,
			}
		},
		RelatedObjects: func(p signal.Payload) map[string]signal.Referable {
			return request(p).Related
		},
		ExtraData: func(p signal.Payload) map[string]interface{} {
			return request(p).ExtraData
		},
		DispatchersFunc: func(p signal.Payload) []dispatch.Dispatcher {
			if dispatchers := request(p).Dispatchers; len(dispatchers) > 0 {
				return dispatchers
			}
			return defaults
		},
	}
}
