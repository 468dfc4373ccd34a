package agent

import (
	"context"
	"time"
)

// Recorder persists one completed exchange. Implementations must support
// concurrent calls from independent sessions (append-only, keyed by
// session).
//
// The Planner calls Record once per turn, after the last token fragment was
// delivered. A failing Record is logged and swallowed: it never invalidates
// the answer already streamed to the user.
type Recorder interface {
	Record(ctx context.Context, sessionKey, input, output string, ts time.Time) error
}

// NopRecorder discards exchanges. Used by the console chat, which keeps
// history in memory only.
type NopRecorder struct{}

// Record implements Recorder.
func (NopRecorder) Record(context.Context, string, string, string, time.Time) error {
	return nil
}
