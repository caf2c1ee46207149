// Package ui renders the tool's user-facing output: colored diffs,
// numbered previews, match context windows, and the event feedback shown
// during interactive sessions. Everything printed here is also mirrored
// to the structured log.
package ui

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
)

// 🎨 EventType classifies user-visible file events.
type EventType int

const (
	EventPatched EventType = iota
	EventPreviewed
	EventBackedUp
	EventRestored
	EventSkipped
	EventError
)

// 🖼️ Event is one user-visible file event.
type Event struct {
	Type        EventType
	Path        string
	Description string
	Error       error
}

// 📢 UserLogger provides user-friendly feedback about patch operations
type UserLogger struct {
	log zerolog.Logger // for debug/error logging
}

// 🎯 NewUserLogger creates a new user logger
func NewUserLogger(ctx context.Context) *UserLogger {
	return &UserLogger{
		log: *zerolog.Ctx(ctx),
	}
}

// 📝 LogEvent logs a file event with appropriate emoji and formatting
func (u *UserLogger) LogEvent(event Event) {
	relPath := filepath.Base(event.Path)

	var action string
	var printer *pterm.PrefixPrinter
	switch event.Type {
	case EventPatched:
		action = "Patched"
		printer = pterm.Success.WithPrefix(pterm.Prefix{Text: "🔧"})
	case EventPreviewed:
		action = "Previewed"
		printer = pterm.Info.WithPrefix(pterm.Prefix{Text: "🔍"})
	case EventBackedUp:
		action = "Backed up"
		printer = pterm.Info.WithPrefix(pterm.Prefix{Text: "💾"})
	case EventRestored:
		action = "Restored"
		printer = pterm.Warning.WithPrefix(pterm.Prefix{Text: "🔄"})
	case EventSkipped:
		action = "Skipped"
		printer = pterm.Debug.WithPrefix(pterm.Prefix{Text: "⏭️"})
	case EventError:
		action = "Error"
		printer = pterm.Error.WithPrefix(pterm.Prefix{Text: "❌"})
	}

	msg := fmt.Sprintf("%s %s", action, relPath)
	if event.Description != "" {
		msg += fmt.Sprintf(" (%s)", event.Description)
	}

	if event.Error != nil {
		printer.Println(msg)
		pterm.Error.Println(event.Error)
		u.log.Error().Err(event.Error).Msg(msg) // Also log to zerolog for debugging
	} else {
		printer.Println(msg)
		u.log.Info().Msg(msg) // Also log to zerolog for debugging
	}
}

// 📊 LogSummary logs a run-level summary line
func (u *UserLogger) LogSummary(description string) {
	printer := pterm.Info.WithPrefix(pterm.Prefix{Text: "📦"})
	printer.Println(description)
	u.log.Info().Msg(description)
}

// 🔍 LogValidation logs validation results
func (u *UserLogger) LogValidation(valid bool, description string, err error) {
	if valid {
		pterm.Success.WithPrefix(pterm.Prefix{Text: "✅"}).Println(description)
		u.log.Info().Msg(description)
	} else {
		if err != nil {
			pterm.Error.WithPrefix(pterm.Prefix{Text: "❌"}).Println(description)
			pterm.Error.Println(err)
			u.log.Error().Err(err).Msg(description)
		} else {
			pterm.Warning.WithPrefix(pterm.Prefix{Text: "⚠️"}).Println(description)
			u.log.Warn().Msg(description)
		}
	}
}
