package devserver

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// RebuildEventKind discriminates the rebuild event variants.
type RebuildEventKind int

const (
	RebuildStarted RebuildEventKind = iota
	RebuildFinished
	FileCreated
	FileChanged
	FileDeleted
)

// RebuildEvent is one event in the build lifecycle stream. Events are
// produced by the build watcher and fanned out to independent subscribers
// (log sink, broadcaster, metrics); they are transient and never persisted.
type RebuildEvent struct {
	Kind RebuildEventKind

	// Path is set for the file event variants.
	Path string

	// Duration and OK are set for RebuildFinished.
	Duration time.Duration
	OK       bool
}

// Subscriber consumes rebuild events.
type Subscriber interface {
	OnRebuildEvent(ev RebuildEvent)
}

// SubscriberFunc adapts a function to the Subscriber interface.
type SubscriberFunc func(ev RebuildEvent)

func (f SubscriberFunc) OnRebuildEvent(ev RebuildEvent) { f(ev) }

// EventMessage renders the human-readable log line for an event. File paths
// are shown relative to the current working directory.
func EventMessage(ev RebuildEvent) string {
	switch ev.Kind {
	case RebuildStarted:
		return "💿 Rebuilding..."
	case RebuildFinished:
		if !ev.OK {
			return fmt.Sprintf("💿 Rebuild failed after %dms", ev.Duration.Milliseconds())
		}
		return fmt.Sprintf("💿 Rebuilt in %dms", ev.Duration.Milliseconds())
	case FileCreated:
		return "💿 File created: " + relativeToCwd(ev.Path)
	case FileChanged:
		return "💿 File changed: " + relativeToCwd(ev.Path)
	case FileDeleted:
		return "💿 File deleted: " + relativeToCwd(ev.Path)
	}
	return ""
}

// relativeToCwd shortens a path relative to the working directory when the
// result is actually shorter to read.
func relativeToCwd(path string) string {
	wd, err := os.Getwd()
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(wd, path)
	if err != nil || len(rel) >= len(path) {
		return path
	}
	return rel
}

// BroadcastEvent is the wire-level live-reload payload.
type BroadcastEvent struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

// Broadcast event types.
const (
	BroadcastLog    = "LOG"
	BroadcastReload = "RELOAD"
)

// LogEvent builds a LOG broadcast payload.
func LogEvent(message string) BroadcastEvent {
	return BroadcastEvent{Type: BroadcastLog, Message: message}
}

// ReloadEvent builds a RELOAD broadcast payload.
func ReloadEvent() BroadcastEvent {
	return BroadcastEvent{Type: BroadcastReload}
}
