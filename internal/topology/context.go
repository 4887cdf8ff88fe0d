package topology

import "context"

type key struct{}

var storeKey = key{}

// NewContext returns a copy of ctx carrying s.
func NewContext(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, storeKey, s)
}

// FromContext returns the store carried by ctx, or ErrContextUnavailable.
func FromContext(ctx context.Context) (*Store, error) {
	if s, ok := ctx.Value(storeKey).(*Store); ok && s != nil {
		return s, nil
	}
	return nil, ErrContextUnavailable
}

// MustFromContext is FromContext for callers that can only have been reached
// with a store in place.
func MustFromContext(ctx context.Context) *Store {
	s, err := FromContext(ctx)
	if err != nil {
		panic(err)
	}
	return s
}
