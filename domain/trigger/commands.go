package trigger

import (
	"image"

	"github.com/soocke/pixel-trigger-go/domain/vision"
)

// Command is a region mutation that can be queued and applied later.
type Command interface {
	Kind() string
	apply(s *Supervisor) error
}

type (
	MoveCommand struct {
		Index int
		To    image.Point
	}
	ResizeCommand struct {
		Index         int
		Width, Height int
	}
	RecolorCommand struct {
		Index  int
		Range  vision.ColorRange
		Swatch vision.Swatch
	}
	RebindCommand struct {
		Index  int
		Action string
	}
	SetActiveCommand struct {
		Index  int
		Active bool
	}
	ToggleAllCommand struct{}
)

func (MoveCommand) Kind() string      { return "move" }
func (ResizeCommand) Kind() string    { return "resize" }
func (RecolorCommand) Kind() string   { return "recolor" }
func (RebindCommand) Kind() string    { return "rebind" }
func (SetActiveCommand) Kind() string { return "activate" }
func (ToggleAllCommand) Kind() string { return "toggle" }

func (c MoveCommand) apply(s *Supervisor) error    { return s.MoveRegion(c.Index, c.To) }
func (c ResizeCommand) apply(s *Supervisor) error  { return s.ResizeRegion(c.Index, c.Width, c.Height) }
func (c RecolorCommand) apply(s *Supervisor) error { return s.RecolorRegion(c.Index, c.Range, c.Swatch) }
func (c RebindCommand) apply(s *Supervisor) error  { return s.RebindAction(c.Index, c.Action) }
func (c SetActiveCommand) apply(s *Supervisor) error {
	return s.SetActive(c.Index, c.Active)
}
func (ToggleAllCommand) apply(s *Supervisor) error { s.ToggleAll(); return nil }

// Apply executes cmd against the supervisor.
func (s *Supervisor) Apply(cmd Command) error {
	err := cmd.apply(s)
	if err != nil && s.logger != nil {
		s.logger.Warn("command rejected", "command", cmd.Kind(), "error", err)
	}
	return err
}
