// internal/notify/render/sandbox.go

// Package render builds the restricted template context and renders
// notification fields against it. The template engine itself is a black box;
// this package owns the sandboxing, the rendering options and the
// translation lookup.
package render

import (
	"context"

	stderrors "errors"

	"github.com/druids/gonotify/internal/common/logger"
	"github.com/druids/gonotify/internal/notify/signal"
)

// DeletedPlaceholder substitutes the string form of a deleted related object.
const DeletedPlaceholder = "[DELETED]"

// displayKey holds the object's string form inside a SecureObject. The key is
// not a valid template identifier, so templates cannot address it directly.
const displayKey = "!display"

// Context is the namespace notification templates are rendered against.
type Context map[string]interface{}

// SecureObject exposes a related object to templates as its string form plus
// the allow-listed attributes only. Attributes outside the allow-list are
// simply absent, so the engine's undefined-variable behavior applies and the
// underlying value can never leak.
type SecureObject map[string]interface{}

func (o SecureObject) String() string {
	s, _ := o[displayKey].(string)
	return s
}

// DeletedObject stands in for a related object whose reference no longer
// resolves. Rendering it yields the placeholder, and so does access to any
// allow-listed attribute; a deleted object never fails a render.
type DeletedObject map[string]interface{}

func (DeletedObject) String() string {
	return DeletedPlaceholder
}

// Sandbox assembles render contexts from object references and extra data.
type Sandbox struct {
	loaders *signal.Loaders
	allowed map[string]struct{}
	log     logger.Logger
}

func NewSandbox(loaders *signal.Loaders, allowedAttributes []string, log logger.Logger) *Sandbox {
	allowed := make(map[string]struct{}, len(allowedAttributes))
	for _, name := range allowedAttributes {
		allowed[name] = struct{}{}
	}
	return &Sandbox{loaders: loaders, allowed: allowed, log: log}
}

// Secure wraps an already-loaded object in the sandbox.
func (s *Sandbox) Secure(obj signal.Object) SecureObject {
	out := SecureObject{displayKey: obj.String()}
	for name := range s.allowed {
		if value, ok := obj.Attr(name); ok {
			out[name] = value
		}
	}
	return out
}

// Deleted builds the stand-in for an unresolvable reference. Every
// allow-listed attribute maps to the placeholder, so templates addressing
// attributes of a deleted object render the same fixed string as the object
// itself.
func (s *Sandbox) Deleted() DeletedObject {
	out := make(DeletedObject, len(s.allowed))
	for name := range s.allowed {
		out[name] = DeletedPlaceholder
	}
	return out
}

// BuildContext resolves named object references and merges in extra data.
// A reference to a deleted object degrades to DeletedObject. Related objects
// take precedence over extra data on a name collision; the collision is
// logged since it is always an authoring mistake.
func (s *Sandbox) BuildContext(ctx context.Context, related map[string]signal.Ref, extra map[string]interface{}) (Context, error) {
	out := make(Context, len(related)+len(extra))

	for key, value := range extra {
		out[key] = value
	}

	for name, ref := range related {
		if _, collision := extra[name]; collision {
			s.log.Warn("related object shadows extra data key", map[string]interface{}{
				"name": name,
			})
		}

		obj, err := s.loaders.Resolve(ctx, ref)
		if err != nil {
			if stderrors.Is(err, signal.ErrObjectNotFound) {
				out[name] = s.Deleted()
				continue
			}
			return nil, err
		}
		out[name] = s.Secure(obj)
	}

	return out, nil
}

// IsDeleted reports whether a context value is the deleted-object placeholder.
func IsDeleted(value interface{}) bool {
	_, ok := value.(DeletedObject)
	return ok
}
