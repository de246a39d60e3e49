package trigger

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/soocke/pixel-trigger-go/domain/capture"
	"github.com/soocke/pixel-trigger-go/domain/vision"
)

// Monitor samples one region at a fixed interval and dispatches the region's
// action on each Idle→Triggered transition.
type Monitor struct {
	index      int
	region     *Handle
	source     capture.FrameSource
	matcher    vision.Matcher
	dispatcher Dispatcher
	logger     *slog.Logger
	interval   time.Duration
	observer   chan<- Status

	state atomic.Int32
	frame atomic.Pointer[capture.FrameSnapshot]

	// owned by the polling goroutine
	activations uint64
	failing     bool
	sequence    uint64

	polls      atomic.Uint64
	matches    atomic.Uint64
	dispatches atomic.Uint64
	failures   atomic.Uint64
}

// NewMonitor builds a monitor for the region behind h. observer may be nil.
func NewMonitor(index int, h *Handle, opts Options, observer chan<- Status) *Monitor {
	opts = opts.withDefaults()
	m := &Monitor{
		index:      index,
		region:     h,
		source:     opts.Source,
		matcher:    opts.Matcher,
		dispatcher: opts.Dispatcher,
		logger:     opts.Logger,
		interval:   opts.Interval,
		observer:   observer,
	}
	m.activations = h.Load().Activations
	m.state.Store(int32(StateInactive))
	return m
}

func (m *Monitor) Index() int              { return m.index }
func (m *Monitor) Interval() time.Duration { return m.interval }
func (m *Monitor) Region() Region          { return m.region.Load() }
func (m *Monitor) State() DetectionState   { return DetectionState(m.state.Load()) }

// LatestFrame returns the most recent interior capture, or a zero snapshot.
func (m *Monitor) LatestFrame() capture.FrameSnapshot {
	snap := m.frame.Load()
	if snap == nil {
		return capture.FrameSnapshot{}
	}
	return *snap
}

func (m *Monitor) Stats() MonitorStats {
	return MonitorStats{
		Polls:           m.polls.Load(),
		Matches:         m.matches.Load(),
		Dispatches:      m.dispatches.Load(),
		CaptureFailures: m.failures.Load(),
	}
}

// Run polls until ctx is cancelled. Cancellation is observed between polls.
func (m *Monitor) Run(ctx context.Context) {
	defer recoverLog(m.logger, "monitor panic")
	timer := time.NewTimer(m.interval)
	defer timer.Stop()
	for {
		if ctx.Err() != nil {
			return
		}
		m.Poll()
		timer.Reset(m.interval)
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
	}
}

// Poll runs one sampling cycle and returns the resulting status. Polls of a
// monitor must not overlap, so Poll is not to be called while Run is active.
func (m *Monitor) Poll() Status {
	m.polls.Add(1)
	r := m.region.Load()
	prev := m.State()
	next := prev
	matched := false

	if !r.Active {
		next = StateInactive
	} else {
		if prev == StateInactive || r.Activations != m.activations {
			next = StateIdle
		}
		m.activations = r.Activations
		matched = m.sample(r)
		switch {
		case matched && next == StateIdle:
			m.dispatch(r)
			next = StateTriggered
		case !matched && next == StateTriggered:
			next = StateIdle
		}
	}
	if next != prev {
		m.state.Store(int32(next))
		if m.logger != nil {
			m.logger.Debug("region state transition", "region", r.Name, "from", prev.String(), "to", next.String())
		}
	}

	m.sequence++
	st := Status{
		Index:    m.index,
		Name:     r.Name,
		State:    next,
		Matched:  matched,
		Active:   r.Active,
		Swatch:   r.Swatch,
		Sequence: m.sequence,
		At:       time.Now(),
	}
	if m.observer != nil {
		select {
		case m.observer <- st:
		default:
		}
	}
	return st
}

func (m *Monitor) sample(r Region) bool {
	rect := m.region.Interior(r)
	img, err := m.source.Capture(rect)
	if err != nil {
		m.noteFailure(r, err)
		return false
	}
	m.frame.Store(&capture.FrameSnapshot{Image: img, CapturedAt: time.Now(), Sequence: m.sequence + 1})
	ok, err := m.matcher.Matches(img, r.Range)
	if err != nil {
		m.noteFailure(r, err)
		return false
	}
	m.noteRecovered(r)
	if ok {
		m.matches.Add(1)
	}
	return ok
}

func (m *Monitor) dispatch(r Region) {
	m.dispatches.Add(1)
	if m.dispatcher != nil {
		m.dispatcher.PressKey(r.Action)
	}
	if m.logger != nil {
		m.logger.Debug("region triggered", "region", r.Name, "action", r.Action)
	}
}

func (m *Monitor) noteFailure(r Region, err error) {
	m.failures.Add(1)
	if m.failing {
		return
	}
	m.failing = true
	if m.logger != nil {
		m.logger.Warn("region capture failing", "region", r.Name, "error", err)
	}
}

func (m *Monitor) noteRecovered(r Region) {
	if !m.failing {
		return
	}
	m.failing = false
	if m.logger != nil {
		m.logger.Info("region capture recovered", "region", r.Name, "failures", m.failures.Load())
	}
}
