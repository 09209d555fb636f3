package sentry

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
)

// Tracker reports errors to Sentry
type Tracker struct {
	hub *sentry.Hub
}

// New initializes the Sentry SDK and returns a tracker bound to the
// current hub
func New(dsn, environment string) (*Tracker, error) {
	err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
	})
	if err != nil {
		return nil, err
	}

	return &Tracker{hub: sentry.CurrentHub()}, nil
}

// CaptureError sends one error with its tags on a cloned scope
func (t *Tracker) CaptureError(_ context.Context, err error, tags map[string]string) error {
	hub := t.hub.Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
	})
	hub.CaptureException(err)
	return nil
}

// Flush blocks until buffered events are delivered or the deadline hits
func (t *Tracker) Flush(context.Context) error {
	sentry.Flush(2 * time.Second)
	return nil
}
