package noop

import "context"

// Tracker discards everything. Used when error tracking is disabled
// and in tests.
type Tracker struct{}

// New creates a no-op tracker
func New() *Tracker {
	return &Tracker{}
}

func (t *Tracker) CaptureError(context.Context, error, map[string]string) error { return nil }
func (t *Tracker) Flush(context.Context) error                                  { return nil }
