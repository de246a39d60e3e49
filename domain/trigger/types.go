// Package trigger runs one sampling loop per screen region and presses the
// region's key once on every rising edge of a color detection.
package trigger

import (
	"log/slog"
	"time"

	"github.com/soocke/pixel-trigger-go/domain/apperr"
	"github.com/soocke/pixel-trigger-go/domain/capture"
	"github.com/soocke/pixel-trigger-go/domain/vision"
)

// DetectionState enumerates the per-region edge-trigger states.
type DetectionState int32

const (
	StateInactive DetectionState = iota
	StateIdle
	StateTriggered
)

func (s DetectionState) String() string {
	switch s {
	case StateInactive:
		return "inactive"
	case StateIdle:
		return "idle"
	case StateTriggered:
		return "triggered"
	default:
		return "unknown"
	}
}

// MarshalText lets DetectionState travel as its name in JSON.
func (s DetectionState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *DetectionState) UnmarshalText(b []byte) error {
	switch string(b) {
	case "inactive":
		*s = StateInactive
	case "idle":
		*s = StateIdle
	case "triggered":
		*s = StateTriggered
	default:
		return apperr.Newf(apperr.CodeInvalidConfig, "unknown detection state %q", b)
	}
	return nil
}

// Status is the per-poll report a monitor sends to its observer.
type Status struct {
	Index    int            `json:"index"`
	Name     string         `json:"name"`
	State    DetectionState `json:"state"`
	Matched  bool           `json:"matched"`
	Active   bool           `json:"active"`
	Swatch   vision.Swatch  `json:"swatch"`
	Sequence uint64         `json:"sequence"`
	At       time.Time      `json:"at"`
}

// Dispatcher emits the key bound to a region. PressKey must not block the
// caller for longer than it takes to queue the press.
type Dispatcher interface {
	PressKey(symbol string)
}

// MonitorStats counts poll outcomes for one monitor.
type MonitorStats struct {
	Polls           uint64 `json:"polls"`
	Matches         uint64 `json:"matches"`
	Dispatches      uint64 `json:"dispatches"`
	CaptureFailures uint64 `json:"capture_failures"`
}

const (
	DefaultInterval     = time.Millisecond
	MinInterval         = 100 * time.Microsecond
	MaxInterval         = 100 * time.Millisecond
	DefaultStatusBuffer = 64
)

// Options are shared by every monitor a supervisor spawns. A zero Trim
// selects DefaultTrim.
type Options struct {
	Interval     time.Duration
	Trim         Trim
	Source       capture.FrameSource
	Matcher      vision.Matcher
	Dispatcher   Dispatcher
	Logger       *slog.Logger
	StatusBuffer int
}

// ClampInterval bounds a poll interval to [MinInterval, MaxInterval];
// zero selects DefaultInterval.
func ClampInterval(d time.Duration) time.Duration {
	switch {
	case d == 0:
		return DefaultInterval
	case d < MinInterval:
		return MinInterval
	case d > MaxInterval:
		return MaxInterval
	}
	return d
}

func (o Options) withDefaults() Options {
	o.Interval = ClampInterval(o.Interval)
	if o.Trim == (Trim{}) {
		o.Trim = DefaultTrim
	}
	if o.Matcher == nil {
		o.Matcher = vision.NewHSVMatcher(vision.DefaultKernelSize)
	}
	if o.StatusBuffer <= 0 {
		o.StatusBuffer = DefaultStatusBuffer
	}
	return o
}

func recoverLog(logger *slog.Logger, msg string) {
	if r := recover(); r != nil {
		if logger != nil {
			logger.Error(msg, "error", r)
		}
	}
}
