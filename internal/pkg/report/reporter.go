package report

import (
	"context"

	"github.com/getsentry/sentry-go"
)

// Reporter implements ports.ErrorReporter on a Sentry hub.
type Reporter struct {
	hub *sentry.Hub
}

// NewReporter reports through hub, or through the global hub when nil.
func NewReporter(hub *sentry.Hub) *Reporter {
	return &Reporter{hub: hub}
}

// Report captures err with tags. A hub attached to ctx takes precedence.
func (r *Reporter) Report(ctx context.Context, err error, tags map[string]string) {
	if err == nil {
		return
	}
	hub := r.hub
	if h := sentry.GetHubFromContext(ctx); h != nil {
		hub = h
	}
	if hub == nil {
		hub = sentry.CurrentHub()
	}

	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentry.LevelError)
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		hub.CaptureException(err)
	})
}
