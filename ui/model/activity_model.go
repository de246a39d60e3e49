package model

import (
	"sync"
	"time"
)

// ActivityModel tracks how long monitoring has been active in the current
// stretch and in total. The zero value is ready to use and safe for
// concurrent use.
type ActivityModel struct {
	mu          sync.Mutex
	active      bool
	start       time.Time
	last        time.Duration
	accumulated time.Duration
}

func NewActivityModel() *ActivityModel { return &ActivityModel{} }

// OnTick updates the model with whether any region is active at now.
func (m *ActivityModel) OnTick(active bool, now time.Time) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if active {
		if !m.active { // off -> on
			m.active = true
			m.start = now
			m.last = 0
		}
		m.last = now.Sub(m.start)
	} else if m.active { // on -> off
		m.last = now.Sub(m.start)
		m.accumulated += m.last
		m.active = false
	}
}

// Values returns the current stretch and the total; the total includes an
// ongoing stretch.
func (m *ActivityModel) Values() (current, total time.Duration) {
	if m == nil {
		return 0, 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	current = m.last
	total = m.accumulated
	if m.active {
		total += current
	}
	return
}
