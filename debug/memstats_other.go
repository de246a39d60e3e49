//go:build !windows

package debug

import (
	"context"
	"log/slog"
	"time"
)

// StartMemLogger logs Go heap stats every interval until ctx is done. RSS is
// only reported on Windows.
func StartMemLogger(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = memInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				logMemStats(logger)
			}
		}
	}()
}
