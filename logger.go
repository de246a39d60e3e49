package main

import (
	"io"
	"log/slog"
)

// NewLogger returns a structured slog.Logger writing to w. format "text"
// selects the key=value handler; anything else is JSON.
func NewLogger(w io.Writer, level slog.Leveler, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
