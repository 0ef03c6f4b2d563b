package telemetry

import "context"

// NewDetachedContext returns a context that keeps the values of parent, such
// as the logger and the active span, but is never cancelled with it. Use it
// for work that must finish after the caller gave up, like handing a grant
// back to its provider.
func NewDetachedContext(parent context.Context) context.Context {
	return context.WithoutCancel(parent)
}
