// internal/notify/template/resolver.go
package template

import (
	"context"

	"github.com/druids/gonotify/internal/common/errors"
	"github.com/druids/gonotify/internal/common/logger"
)

// Resolver finds or creates the template a handler's notifications will
// reference. Slug-declaring handlers resolve through an admin template;
// everything else resolves by content.
type Resolver struct {
	store Store
	log   logger.Logger
}

func NewResolver(store Store, log logger.Logger) *Resolver {
	return &Resolver{store: store, log: log}
}

// Resolution is the outcome of a template lookup. Admin is nil for ad-hoc
// templates.
type Resolution struct {
	Template *Template
	Admin    *AdminTemplate
}

// SendPush reports whether notifications created from this resolution should
// carry the push flag, copied from the admin template when present.
func (r *Resolution) SendPush() bool {
	return r.Admin != nil && r.Admin.SendPush
}

// Resolve implements the lookup contract. With a slug, the admin template must
// already exist and be active; its content is snapshotted into a concrete
// Template row so later admin edits never rewrite existing notifications.
// Without a slug, the content tuple is found or created directly.
func (r *Resolver) Resolve(ctx context.Context, slug string, content Content) (*Resolution, error) {
	if slug != "" {
		admin, err := r.store.GetAdmin(ctx, slug)
		if err != nil {
			return nil, err
		}
		if !admin.IsActive {
			return nil, errors.NewTemplateInactiveError(slug)
		}

		tmpl, err := r.store.FindOrCreate(ctx, admin.Content(), admin.Slug)
		if err != nil {
			return nil, err
		}
		return &Resolution{Template: tmpl, Admin: admin}, nil
	}

	tmpl, err := r.store.FindOrCreate(ctx, content, "")
	if err != nil {
		return nil, err
	}
	r.log.Debug("resolved ad-hoc template", map[string]interface{}{
		"templateId":  tmpl.ID,
		"fingerprint": tmpl.Fingerprint,
	})
	return &Resolution{Template: tmpl}, nil
}
