package server

import (
	"image"
	"time"

	"github.com/soocke/pixel-trigger-go/domain/action"
	"github.com/soocke/pixel-trigger-go/domain/apperr"
	"github.com/soocke/pixel-trigger-go/domain/calibrate"
	"github.com/soocke/pixel-trigger-go/domain/trigger"
	"github.com/soocke/pixel-trigger-go/domain/vision"
	"github.com/soocke/pixel-trigger-go/ui/model"
)

const (
	// writeTimeout bounds a single websocket write to a slow client.
	writeTimeout = 2 * time.Second
	// shutdownTimeout bounds graceful HTTP shutdown.
	shutdownTimeout = 2 * time.Second
	// maxPreviewSide caps either side of a preview image in pixels.
	maxPreviewSide = 1024
	// sendBuffer is the per-client outgoing queue length.
	sendBuffer = 64
)

// Message types.
type Message struct {
	Type string `json:"type"`
}

type SnapshotMessage struct {
	Type    string         `json:"type"`
	Markers []model.Marker `json:"markers"`
}

type MarkerMessage struct {
	Type   string       `json:"type"`
	Marker model.Marker `json:"marker"`
}

type AckMessage struct {
	Type    string `json:"type"`
	Command string `json:"command"`
}

type CalibratedMessage struct {
	Type        string                `json:"type"`
	Index       int                   `json:"index"`
	Calibration calibrate.Calibration `json:"calibration"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CommandMessage is any client request. Fields are interpreted per Type:
// move (index, x, y), resize (index, width, height), recolor (index, lower,
// upper, swatch), rebind (index, action), activate (index, active),
// toggle, calibrate (index, x, y).
type CommandMessage struct {
	Type   string      `json:"type"`
	Index  int         `json:"index"`
	X      int         `json:"x"`
	Y      int         `json:"y"`
	Width  int         `json:"width"`
	Height int         `json:"height"`
	Lower  *vision.HSV `json:"lower,omitempty"`
	Upper  *vision.HSV `json:"upper,omitempty"`
	Swatch string      `json:"swatch,omitempty"`
	Action string      `json:"action,omitempty"`
	Active *bool       `json:"active,omitempty"`
}

// command converts msg into a supervisor command. current supplies the
// region's existing swatch when a recolor omits one.
func (msg CommandMessage) command(current func(i int) (trigger.Region, bool)) (trigger.Command, error) {
	switch msg.Type {
	case "move":
		return trigger.MoveCommand{Index: msg.Index, To: image.Pt(msg.X, msg.Y)}, nil
	case "resize":
		return trigger.ResizeCommand{Index: msg.Index, Width: msg.Width, Height: msg.Height}, nil
	case "recolor":
		if msg.Lower == nil || msg.Upper == nil {
			return nil, apperr.New(apperr.CodeInvalidRegion, "recolor needs lower and upper")
		}
		var swatch vision.Swatch
		if msg.Swatch != "" {
			s, err := vision.ParseSwatch(msg.Swatch)
			if err != nil {
				return nil, err
			}
			swatch = s
		} else if r, ok := current(msg.Index); ok {
			swatch = r.Swatch
		}
		return trigger.RecolorCommand{
			Index:  msg.Index,
			Range:  vision.ColorRange{Lower: *msg.Lower, Upper: *msg.Upper},
			Swatch: swatch,
		}, nil
	case "rebind":
		if msg.Action != "" {
			if _, ok := action.ParseVK(msg.Action); !ok {
				return nil, apperr.Newf(apperr.CodeInvalidConfig, "unknown key %q", msg.Action)
			}
		}
		return trigger.RebindCommand{Index: msg.Index, Action: msg.Action}, nil
	case "activate":
		if msg.Active == nil {
			return nil, apperr.New(apperr.CodeInvalidConfig, "activate needs active")
		}
		return trigger.SetActiveCommand{Index: msg.Index, Active: *msg.Active}, nil
	case "toggle":
		return trigger.ToggleAllCommand{}, nil
	default:
		return nil, apperr.Newf(apperr.CodeInvalidConfig, "unknown command type %q", msg.Type)
	}
}

func errorMessage(err error) ErrorMessage {
	return ErrorMessage{Type: "error", Code: apperr.CodeOf(err).String(), Message: err.Error()}
}
