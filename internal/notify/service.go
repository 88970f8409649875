// internal/notify/service.go

// Package notify is the front door of the notification pipeline: it accepts
// signal sends, fans them out to registered handler bindings through the
// configured receiver, and renders stored notifications on read.
package notify

import (
	"context"
	stderrors "errors"

	"github.com/druids/gonotify/internal/common/config"
	"github.com/druids/gonotify/internal/common/logger"
	"github.com/druids/gonotify/internal/notify/dispatch"
	"github.com/druids/gonotify/internal/notify/handler"
	"github.com/druids/gonotify/internal/notify/receiver"
	"github.com/druids/gonotify/internal/notify/registry"
	"github.com/druids/gonotify/internal/notify/signal"
	"github.com/druids/gonotify/internal/notify/storage"
	"github.com/druids/gonotify/internal/notify/template"
)

// Service wires the registry, the active receiver and the stores together.
type Service struct {
	cfg           *config.Config
	registry      *registry.Registry
	receiver      receiver.Receiver
	pipeline      *handler.Pipeline
	notifications storage.Store
	templates     template.Store
	log           logger.Logger
}

func NewService(
	cfg *config.Config,
	reg *registry.Registry,
	rcv receiver.Receiver,
	pipeline *handler.Pipeline,
	notifications storage.Store,
	templates template.Store,
	log logger.Logger,
) *Service {
	return &Service{
		cfg:           cfg,
		registry:      reg,
		receiver:      rcv,
		pipeline:      pipeline,
		notifications: notifications,
		templates:     templates,
		log:           log,
	}
}

// Send broadcasts one signal occurrence to every matching binding. When the
// global enable flag is off the whole pipeline no-ops, leaving no record of
// the attempt. Every binding runs in full even when a sibling fails; failures
// are joined into the returned error.
func (s *Service) Send(ctx context.Context, sig signal.Signal, sender string, payload signal.Payload) error {
	if !s.cfg.Notify.Enabled {
		return nil
	}

	var errs []error
	for _, b := range s.registry.Bindings(sig) {
		if !b.SenderAllowed(sender) {
			continue
		}
		if err := s.receiver.Receive(ctx, b, payload); err != nil {
			s.log.WithError(err).Error("handler run failed", map[string]interface{}{
				"signal":  string(sig),
				"handler": b.Name,
			})
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

// Rendered loads a notification and computes its human-facing fields. The
// attribute sandbox is re-applied on every render, so allowed-attribute
// values reflect the current state of the related objects while extra data
// stays frozen.
func (s *Service) Rendered(ctx context.Context, id string) (*dispatch.Notification, error) {
	n, err := s.notifications.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	tmpl, err := s.templates.Get(ctx, n.TemplateID)
	if err != nil {
		return nil, err
	}

	fields, err := s.pipeline.RenderFields(ctx, tmpl, n.RelatedRefs(), n.ExtraData)
	if err != nil {
		return nil, err
	}

	return &dispatch.Notification{
		ID:            n.ID,
		Recipient:     n.Recipient,
		Title:         fields[template.FieldTitle],
		Text:          fields[template.FieldText],
		TriggerAction: fields[template.FieldTriggerAction],
		Level:         tmpl.Level,
		SendPush:      n.SendPush,
		ExtraData:     n.ExtraData,
	}, nil
}

// MarkRead toggles the read flag.
func (s *Service) MarkRead(ctx context.Context, id string, read bool) error {
	return s.notifications.MarkRead(ctx, id, read)
}

// MarkTriggered records that the recipient triggered the notification.
func (s *Service) MarkTriggered(ctx context.Context, id string) error {
	return s.notifications.MarkTriggered(ctx, id)
}
