// internal/notify/signal/loaders.go
package signal

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// ErrObjectNotFound is returned by loaders when a referenced object was deleted.
var ErrObjectNotFound = errors.New("referenced object not found")

// ErrUnknownObjectType is returned when no loader is registered for a reference type.
var ErrUnknownObjectType = errors.New("no loader registered for object type")

// Loaders is the per-type loader registry. Built once at startup, read-only
// afterwards; reference resolution goes only through registered loaders,
// never through open-ended reflection.
type Loaders struct {
	byType map[string]Loader
}

func NewLoaders(loaders ...Loader) (*Loaders, error) {
	byType := make(map[string]Loader, len(loaders))
	for _, l := range loaders {
		if _, dup := byType[l.Type()]; dup {
			return nil, fmt.Errorf("duplicate loader for object type %q", l.Type())
		}
		byType[l.Type()] = l
	}
	return &Loaders{byType: byType}, nil
}

// Resolve loads the object behind ref. Returns ErrObjectNotFound (wrapped)
// when the target was deleted and ErrUnknownObjectType for unknown types.
func (r *Loaders) Resolve(ctx context.Context, ref Ref) (Object, error) {
	loader, ok := r.byType[ref.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownObjectType, ref.Type)
	}
	obj, err := loader.Load(ctx, ref.ID)
	if err != nil {
		return nil, fmt.Errorf("load %s/%s: %w", ref.Type, ref.ID, err)
	}
	return obj, nil
}

// Types lists the registered object types in stable order.
func (r *Loaders) Types() []string {
	out := make([]string, 0, len(r.byType))
	for t := range r.byType {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
