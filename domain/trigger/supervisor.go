package trigger

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"strconv"
	"sync"

	"github.com/soocke/pixel-trigger-go/domain/apperr"
	"github.com/soocke/pixel-trigger-go/domain/vision"
)

// Supervisor owns the monitors and is the only writer of region state.
type Supervisor struct {
	opts   Options
	logger *slog.Logger

	mu       sync.RWMutex
	handles  []*Handle
	monitors []*Monitor
	spawned  bool
	cancel   context.CancelFunc

	statuses chan Status
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewSupervisor prepares a supervisor; nothing runs until Spawn.
func NewSupervisor(opts Options) *Supervisor {
	opts = opts.withDefaults()
	return &Supervisor{opts: opts, logger: opts.Logger, statuses: make(chan Status, opts.StatusBuffer)}
}

// Spawn validates every spec and then starts one monitor goroutine per region.
// If any spec is invalid no monitor is started.
func (s *Supervisor) Spawn(ctx context.Context, specs []RegionSpec) error {
	if s.opts.Source == nil {
		return apperr.New(apperr.CodeInvalidConfig, "no frame source")
	}
	if len(specs) == 0 {
		return apperr.New(apperr.CodeInvalidConfig, "no regions")
	}
	handles := make([]*Handle, 0, len(specs))
	for i, spec := range specs {
		h, err := NewHandle(spec.region(), s.opts.Trim)
		if err != nil {
			var appErr *apperr.AppError
			if errors.As(err, &appErr) {
				appErr.WithMetadata("index", strconv.Itoa(i))
			}
			return err
		}
		handles = append(handles, h)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.spawned {
		return apperr.New(apperr.CodeInvalidConfig, "supervisor already spawned")
	}
	s.spawned = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.handles = handles
	s.monitors = make([]*Monitor, len(handles))
	for i, h := range handles {
		m := NewMonitor(i, h, s.opts, s.statuses)
		s.monitors[i] = m
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			m.Run(ctx)
		}()
	}
	if s.logger != nil {
		s.logger.Info("monitors spawned", "count", len(handles), "interval", s.opts.Interval)
	}
	return nil
}

// Shutdown stops every monitor and waits for them. Safe to call repeatedly.
func (s *Supervisor) Shutdown() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		cancel := s.cancel
		s.spawned = true
		s.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		s.wg.Wait()
		close(s.statuses)
		if s.logger != nil {
			s.logger.Info("monitors stopped")
		}
	})
}

// Statuses is the fan-in of every monitor's per-poll status. It is closed
// by Shutdown. Statuses are dropped while the reader is behind.
func (s *Supervisor) Statuses() <-chan Status { return s.statuses }

// Len reports the number of spawned regions.
func (s *Supervisor) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.handles)
}

func (s *Supervisor) handle(i int) (*Handle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.handles) {
		return nil, apperr.Newf(apperr.CodeNotFound, "region index %d out of range [0,%d)", i, len(s.handles))
	}
	return s.handles[i], nil
}

// Region returns the current snapshot of region i.
func (s *Supervisor) Region(i int) (Region, error) {
	h, err := s.handle(i)
	if err != nil {
		return Region{}, err
	}
	return h.Load(), nil
}

// Regions returns snapshots of every region in index order.
func (s *Supervisor) Regions() []Region {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Region, len(s.handles))
	for i, h := range s.handles {
		out[i] = h.Load()
	}
	return out
}

// Monitor returns the monitor of region i.
func (s *Supervisor) Monitor(i int) (*Monitor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.monitors) {
		return nil, apperr.Newf(apperr.CodeNotFound, "region index %d out of range [0,%d)", i, len(s.monitors))
	}
	return s.monitors[i], nil
}

func (s *Supervisor) update(i int, fn func(*Region)) (Region, error) {
	h, err := s.handle(i)
	if err != nil {
		return Region{}, err
	}
	return h.Update(fn)
}

// MoveRegion sets the top-left corner of region i, keeping its size.
func (s *Supervisor) MoveRegion(i int, topLeft image.Point) error {
	r, err := s.update(i, func(r *Region) {
		r.Bounds = r.Bounds.Sub(r.Bounds.Min).Add(topLeft)
	})
	if err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Info("region moved", "region", r.Name, "x", r.Bounds.Min.X, "y", r.Bounds.Min.Y)
	}
	return nil
}

// ResizeRegion sets the size of region i, keeping its top-left corner.
func (s *Supervisor) ResizeRegion(i int, width, height int) error {
	r, err := s.update(i, func(r *Region) {
		r.Bounds.Max = r.Bounds.Min.Add(image.Pt(width, height))
	})
	if err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Info("region resized", "region", r.Name, "width", width, "height", height)
	}
	return nil
}

// RecolorRegion replaces the color range and swatch of region i.
func (s *Supervisor) RecolorRegion(i int, rng vision.ColorRange, swatch vision.Swatch) error {
	r, err := s.update(i, func(r *Region) {
		r.Range = rng
		r.Swatch = swatch
	})
	if err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Info("region recolored", "region", r.Name, "range", rng.String(), "swatch", swatch.String())
	}
	return nil
}

// RebindAction replaces the key bound to region i.
func (s *Supervisor) RebindAction(i int, action string) error {
	r, err := s.update(i, func(r *Region) { r.Action = action })
	if err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Info("region rebound", "region", r.Name, "action", action)
	}
	return nil
}

// SetActive sets the active flag of region i.
func (s *Supervisor) SetActive(i int, active bool) error {
	_, err := s.update(i, func(r *Region) { r.Active = active })
	return err
}

// ToggleAll flips the active flag of every region.
func (s *Supervisor) ToggleAll() {
	s.mu.RLock()
	handles := s.handles
	s.mu.RUnlock()
	for _, h := range handles {
		// flipping Active never invalidates a region
		_, _ = h.Update(func(r *Region) { r.Active = !r.Active })
	}
	if s.logger != nil {
		s.logger.Info("regions toggled", "count", len(handles))
	}
}
