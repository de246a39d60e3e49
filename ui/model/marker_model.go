package model

import (
	"image"
	"sync"

	"github.com/soocke/pixel-trigger-go/domain/trigger"
	"github.com/soocke/pixel-trigger-go/domain/vision"
)

// Marker is what an overlay shows for one region.
type Marker struct {
	Index   int                    `json:"index"`
	Name    string                 `json:"name"`
	Bounds  image.Rectangle        `json:"bounds"`
	Color   vision.Swatch          `json:"color"`
	State   trigger.DetectionState `json:"state"`
	Active  bool                   `json:"active"`
	Matched bool                   `json:"matched"`
	Action  string                 `json:"action"`
}

// MarkerModel holds the latest marker per region. Safe for concurrent use;
// the zero value is empty and usable.
type MarkerModel struct {
	mu      sync.RWMutex
	markers []Marker
}

func NewMarkerModel() *MarkerModel { return &MarkerModel{} }

// Set stores m at its index and reports whether anything changed.
func (mm *MarkerModel) Set(m Marker) bool {
	if mm == nil || m.Index < 0 {
		return false
	}
	mm.mu.Lock()
	defer mm.mu.Unlock()
	for len(mm.markers) <= m.Index {
		mm.markers = append(mm.markers, Marker{Index: len(mm.markers)})
	}
	if mm.markers[m.Index] == m {
		return false
	}
	mm.markers[m.Index] = m
	return true
}

// Get returns the marker at i.
func (mm *MarkerModel) Get(i int) (Marker, bool) {
	if mm == nil {
		return Marker{}, false
	}
	mm.mu.RLock()
	defer mm.mu.RUnlock()
	if i < 0 || i >= len(mm.markers) {
		return Marker{}, false
	}
	return mm.markers[i], true
}

// Snapshot returns a copy of all markers in index order.
func (mm *MarkerModel) Snapshot() []Marker {
	if mm == nil {
		return nil
	}
	mm.mu.RLock()
	defer mm.mu.RUnlock()
	return append([]Marker(nil), mm.markers...)
}
