// Package devserver orchestrates watch-mode builds with live reload.
//
// This package implements:
//   - Channel: a WebSocket broadcast channel pushing JSON build events to
//     connected browsers with a configurable delay
//   - BuildWatcher: an adapter over the compiler's watch primitive that
//     times rebuild cycles and fans RebuildEvents out to subscribers
//   - Manager: the dev server, which purges the module cache before every
//     request so rebuilt bundles are re-loaded without a process restart
//   - Controller: the lifecycle state machine composing the three
//
// # Lifecycle
//
// Idle → Watching → (Ready ⇄ Rebuilding) → ShuttingDown → Stopped.
//
// The controller opens the channel, starts the watcher, and binds the dev
// server only once the first build has completed. On cancellation the
// shutdown sequence runs exactly once, in order: close the channel (so no
// client hears about the artifact removal), await the watcher's teardown
// (so no in-flight rebuild races the cleanup), close the server, then
// empty the output directory and remove the server artifact.
//
// # Broadcast protocol
//
// One JSON object per message:
//
//	{"type": "LOG", "message": "💿 Rebuilt in 120ms"}
//	{"type": "RELOAD"}
//
// Frames are delivered in publish order, each after the configured delay;
// a connection that is no longer open when its delivery fires is skipped
// silently.
package devserver
