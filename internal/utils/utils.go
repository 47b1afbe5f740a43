package utils

import (
	"context"
	"time"
)

var after = time.After

// WaitFor blocks for d or until ctx is done. A non-positive d returns at once.
func WaitFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-after(d):
		return nil
	}
}
