package errors

import "context"

// Tracker forwards errors to an external monitoring service. The
// logger calls CaptureError on every error-level entry; Flush runs at
// shutdown so buffered events are not lost.
type Tracker interface {
	CaptureError(ctx context.Context, err error, tags map[string]string) error
	Flush(ctx context.Context) error
}
