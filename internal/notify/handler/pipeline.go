// internal/notify/handler/pipeline.go
package handler

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/druids/gonotify/internal/common/errors"
	"github.com/druids/gonotify/internal/common/logger"
	"github.com/druids/gonotify/internal/common/metrics"
	"github.com/druids/gonotify/internal/notify/dispatch"
	"github.com/druids/gonotify/internal/notify/render"
	"github.com/druids/gonotify/internal/notify/signal"
	"github.com/druids/gonotify/internal/notify/storage"
	"github.com/druids/gonotify/internal/notify/template"
)

// Pipeline executes one handler binding against one signal occurrence:
// guard, recipients, template resolution, notification creation, dispatch.
type Pipeline struct {
	templates     *template.Resolver
	notifications storage.Store
	sandbox       *render.Sandbox
	renderer      *render.Renderer
	log           logger.Logger
}

func NewPipeline(
	templates *template.Resolver,
	notifications storage.Store,
	sandbox *render.Sandbox,
	renderer *render.Renderer,
	log logger.Logger,
) *Pipeline {
	return &Pipeline{
		templates:     templates,
		notifications: notifications,
		sandbox:       sandbox,
		renderer:      renderer,
		log:           log,
	}
}

// Run processes one event occurrence for one binding. Template resolution
// errors abort only this binding's run. Dispatch failures are logged and
// surfaced in the returned error but never undo notification creation and
// never block remaining recipients or dispatchers.
func (p *Pipeline) Run(ctx context.Context, b *Binding, payload signal.Payload) error {
	return p.run(ctx, b, payload, "")
}

// RunTask is Run for a deferred task delivery. Tasks arrive at least once, so
// recipients already persisted under taskID by an earlier delivery are
// skipped instead of getting a second notification record.
func (p *Pipeline) RunTask(ctx context.Context, b *Binding, payload signal.Payload, taskID string) error {
	return p.run(ctx, b, payload, taskID)
}

func (p *Pipeline) run(ctx context.Context, b *Binding, payload signal.Payload, taskID string) error {
	start := time.Now()
	log := p.log.WithFields(map[string]interface{}{
		"handler": b.Name,
		"signal":  string(b.Signal),
	})

	if b.Guard != nil && !b.Guard(payload) {
		log.Debug("handler declined event", nil)
		return nil
	}

	recipients := b.Recipients(payload)
	if len(recipients) == 0 {
		log.Debug("no recipients for event", nil)
		return nil
	}

	var content template.Content
	if b.TemplateData != nil {
		content = b.TemplateData(payload)
	}
	resolution, err := p.templates.Resolve(ctx, b.Slug(payload), content)
	if err != nil {
		metrics.HandlerFailures.WithLabelValues(b.Name, string(errors.CodeOf(err))).Inc()
		return err
	}
	tmpl := resolution.Template

	// Related objects and extra data are computed once; every recipient of
	// this event shares the same template and context inputs.
	related := map[string]storage.RelatedRef{}
	refs := map[string]signal.Ref{}
	if b.RelatedObjects != nil {
		for name, obj := range b.RelatedObjects(payload) {
			ref := signal.RefOf(obj)
			related[name] = storage.RelatedRef{Name: name, Ref: ref}
			refs[name] = ref
		}
	}
	var extra map[string]interface{}
	if b.ExtraData != nil {
		extra = b.ExtraData(payload)
	}

	var persisted map[string]bool
	if taskID != "" {
		persisted, err = p.notifications.CreatedForTask(ctx, taskID)
		if err != nil {
			metrics.HandlerFailures.WithLabelValues(b.Name, string(errors.CodeOf(err))).Inc()
			return err
		}
	}

	var errs []error
	var created []*storage.Notification
	for _, recipient := range recipients {
		if b.CanCreate != nil && !b.CanCreate(payload, recipient) {
			continue
		}
		if persisted[recipient] {
			log.Debug("recipient already notified for task", map[string]interface{}{
				"taskId":    taskID,
				"recipient": recipient,
			})
			continue
		}

		n := &storage.Notification{
			TaskID:     taskID,
			Recipient:  recipient,
			TemplateID: tmpl.ID,
			SendPush:   resolution.SendPush(),
			ExtraData:  extra,
		}
		for _, r := range related {
			n.Related = append(n.Related, r)
		}

		if err := p.notifications.Create(ctx, n); err != nil {
			metrics.HandlerFailures.WithLabelValues(b.Name, string(errors.CodeOf(err))).Inc()
			errs = append(errs, err)
			continue
		}
		metrics.NotificationsCreated.WithLabelValues(b.Name).Inc()
		created = append(created, n)
	}

	dispatchers := b.DispatcherList(payload)
	if len(dispatchers) > 0 && len(created) > 0 {
		if err := p.dispatchAll(ctx, b, dispatchers, tmpl, refs, extra, created, log); err != nil {
			errs = append(errs, err)
		}
	}

	metrics.HandlerDuration.WithLabelValues(b.Name).Observe(time.Since(start).Seconds())
	return stderrors.Join(errs...)
}

// dispatchAll renders the notification fields once and fans out to the
// binding's dispatchers for every created notification.
func (p *Pipeline) dispatchAll(
	ctx context.Context,
	b *Binding,
	dispatchers []dispatch.Dispatcher,
	tmpl *template.Template,
	refs map[string]signal.Ref,
	extra map[string]interface{},
	created []*storage.Notification,
	log logger.Logger,
) error {
	rendered, err := p.RenderFields(ctx, tmpl, refs, extra)
	if err != nil {
		// A context-check failure is an authoring defect and must reach the
		// caller; the notifications themselves stay persisted.
		metrics.HandlerFailures.WithLabelValues(b.Name, string(errors.CodeOf(err))).Inc()
		return err
	}

	var errs []error
	for _, n := range created {
		out := dispatch.Notification{
			ID:            n.ID,
			Recipient:     n.Recipient,
			Title:         rendered[template.FieldTitle],
			Text:          rendered[template.FieldText],
			TriggerAction: rendered[template.FieldTriggerAction],
			Level:         tmpl.Level,
			SendPush:      n.SendPush,
			ExtraData:     n.ExtraData,
		}

		for _, d := range dispatchers {
			if b.CanDispatch != nil && !b.CanDispatch(out, d) {
				continue
			}
			if err := d.Dispatch(ctx, out); err != nil {
				dispatchErr := errors.NewDispatchFailedError(d.Name(), err)
				log.WithError(err).Error("dispatcher failed", map[string]interface{}{
					"dispatcher":     d.Name(),
					"notificationId": n.ID,
				})
				metrics.DispatchFailures.WithLabelValues(d.Name()).Inc()
				errs = append(errs, dispatchErr)
			}
		}
	}
	return stderrors.Join(errs...)
}

// RenderFields builds the sandboxed context and renders every template field.
// Also used on the notification read path, where rendered fields are computed
// rather than stored.
func (p *Pipeline) RenderFields(
	ctx context.Context,
	tmpl *template.Template,
	refs map[string]signal.Ref,
	extra map[string]interface{},
) (map[string]string, error) {
	renderCtx, err := p.sandbox.BuildContext(ctx, refs, extra)
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(template.Fields))
	for _, field := range template.Fields {
		rendered, err := p.renderer.Render(field, tmpl.Field(field), renderCtx)
		if err != nil {
			return nil, err
		}
		out[field] = rendered
	}
	return out, nil
}
