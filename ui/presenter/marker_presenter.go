package presenter

import (
	"context"
	"log/slog"
	"time"

	"github.com/soocke/pixel-trigger-go/domain/trigger"
	"github.com/soocke/pixel-trigger-go/domain/vision"
	"github.com/soocke/pixel-trigger-go/ui/model"
)

// RegionSource looks up the current region snapshot by index.
type RegionSource interface {
	Region(i int) (trigger.Region, error)
}

// MarkerView receives marker changes.
type MarkerView interface {
	UpdateMarker(m model.Marker)
}

var (
	inactiveColor = vision.Swatch{}
	matchedColor  = vision.Swatch{R: 0xFF, G: 0xFF, B: 0xFF}
)

// MarkerColor is black for an inactive region, white while its color is
// present, and the calibrated swatch otherwise.
func MarkerColor(st trigger.Status) vision.Swatch {
	switch {
	case !st.Active:
		return inactiveColor
	case st.Matched:
		return matchedColor
	default:
		return st.Swatch
	}
}

// MarkerPresenter folds monitor statuses into the marker model and pushes
// changed markers to the view. Nil fields are skipped.
type MarkerPresenter struct {
	Regions  RegionSource
	Model    *model.MarkerModel
	Activity *model.ActivityModel
	View     MarkerView
	Logger   *slog.Logger
}

func NewMarkerPresenter(regions RegionSource, m *model.MarkerModel, activity *model.ActivityModel, view MarkerView, logger *slog.Logger) *MarkerPresenter {
	return &MarkerPresenter{Regions: regions, Model: m, Activity: activity, View: view, Logger: logger}
}

// Present applies one status.
func (p *MarkerPresenter) Present(st trigger.Status) {
	if p == nil {
		return
	}
	mk := model.Marker{
		Index:   st.Index,
		Name:    st.Name,
		Color:   MarkerColor(st),
		State:   st.State,
		Active:  st.Active,
		Matched: st.Matched,
	}
	if p.Regions != nil {
		if r, err := p.Regions.Region(st.Index); err == nil {
			mk.Bounds = r.Bounds
			mk.Action = r.Action
		}
	}
	changed := p.Model.Set(mk)
	if p.Activity != nil {
		p.Activity.OnTick(p.anyActive(), st.At)
	}
	if changed && p.View != nil {
		p.View.UpdateMarker(mk)
	}
}

func (p *MarkerPresenter) anyActive() bool {
	for _, m := range p.Model.Snapshot() {
		if m.Active {
			return true
		}
	}
	return false
}

// Run presents statuses until ctx is done or statuses is closed.
func (p *MarkerPresenter) Run(ctx context.Context, statuses <-chan trigger.Status) {
	defer func() {
		if r := recover(); r != nil && p.Logger != nil {
			p.Logger.Error("marker presenter panic", "error", r)
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-statuses:
			if !ok {
				return
			}
			if st.At.IsZero() {
				st.At = time.Now()
			}
			p.Present(st)
		}
	}
}
