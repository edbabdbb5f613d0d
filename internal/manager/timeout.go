package manager

import (
	"context"
	"time"
)

// Per-operation deadlines. Availability probes stay short so a wedged
// backend cannot stall first use; reads and listings get as long as an
// interactive CLI tolerates.
const (
	DefaultProbeTimeout  = 2 * time.Second
	DefaultGetTimeout    = 5 * time.Second
	DefaultWriteTimeout  = 5 * time.Second
	DefaultListTimeout   = 10 * time.Second
	DefaultHealthTimeout = 5 * time.Second
)

// withOpTimeout bounds one provider call.
func withOpTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, d)
}
