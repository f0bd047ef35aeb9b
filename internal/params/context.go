package params

import (
	"context"

	"ccm/internal/apperr"
)

type contextKey struct{}

// WithParameters binds p to ctx for the duration of a request.
func WithParameters(ctx context.Context, p *Parameters) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// FromContext returns the parameters bound to ctx.
func FromContext(ctx context.Context) (*Parameters, error) {
	p, ok := ctx.Value(contextKey{}).(*Parameters)
	if !ok || p == nil {
		return nil, apperr.Lookup("no parameters bound to the request context")
	}
	return p, nil
}

// Submodel returns the unique submodel of type T.
func Submodel[T any](p *Parameters) (T, error) {
	var zero T
	if p == nil {
		return zero, apperr.Lookup("no parameters available")
	}
	for _, m := range []any{p.GHD, p.Animal, p.LongTerm, p.ImpactMethod} {
		if v, ok := m.(T); ok {
			return v, nil
		}
	}
	return zero, apperr.Lookup("parameters have no %T submodel", zero)
}
