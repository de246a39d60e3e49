package capture

import (
	"context"
	"image"
	"image/color"
	"log/slog"
	"sync/atomic"
	"time"
)

// DefaultStatsInterval is how often LogStats emits capture.stats.
const DefaultStatsInterval = 5 * time.Second

// Instrumented wraps a FrameSource with capture counters and latency.
type Instrumented struct {
	src          FrameSource
	logger       *slog.Logger
	captures     atomic.Uint64
	failures     atomic.Uint64
	captureNanos atomic.Uint64
	lastCapture  atomic.Int64
}

// NewInstrumented wraps src. A nil logger disables LogStats output.
func NewInstrumented(src FrameSource, logger *slog.Logger) *Instrumented {
	return &Instrumented{src: src, logger: logger}
}

func (s *Instrumented) Capture(rect image.Rectangle) (*image.RGBA, error) {
	start := time.Now()
	img, err := s.src.Capture(rect)
	if err != nil {
		s.failures.Add(1)
		return nil, err
	}
	s.record(start)
	return img, nil
}

func (s *Instrumented) CapturePixel(pt image.Point) (color.RGBA, error) {
	start := time.Now()
	c, err := s.src.CapturePixel(pt)
	if err != nil {
		s.failures.Add(1)
		return c, err
	}
	s.record(start)
	return c, nil
}

func (s *Instrumented) Bounds() image.Rectangle { return s.src.Bounds() }

func (s *Instrumented) record(start time.Time) {
	now := time.Now()
	s.captureNanos.Add(uint64(now.Sub(start).Nanoseconds()))
	s.captures.Add(1)
	s.lastCapture.Store(now.UnixNano())
}

func (s *Instrumented) Stats() CaptureStats {
	captures := s.captures.Load()
	total := s.captureNanos.Load()
	var avg time.Duration
	avgMicros := 0.0
	if captures > 0 && total > 0 {
		avg = time.Duration(total / captures)
		avgMicros = float64(avg) / float64(time.Microsecond)
	}
	var last time.Time
	if ns := s.lastCapture.Load(); ns != 0 {
		last = time.Unix(0, ns)
	}
	return CaptureStats{
		Captures:         captures,
		Failures:         s.failures.Load(),
		AvgCapture:       avg,
		AvgCaptureMicros: avgMicros,
		LastCapture:      last,
	}
}

// LogStats logs capture.stats every interval until ctx is done.
func (s *Instrumented) LogStats(ctx context.Context, every time.Duration) {
	if s.logger == nil {
		return
	}
	if every <= 0 {
		every = DefaultStatsInterval
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := s.Stats()
			s.logger.Debug("capture.stats",
				"captures", stats.Captures,
				"failures", stats.Failures,
				"avg_capture", stats.AvgCapture,
				"last_capture", stats.LastCapture,
			)
		}
	}
}

var _ FrameSource = (*Instrumented)(nil)
