// Package compiler builds the application bundle and watches for changes.
//
// A build walks app/routes, compiles each route file into an entry of the
// server bundle (a JSON artifact at the configured serverBuildPath), and
// copies app/public into <output>/assets. Watch runs the same build in a
// loop driven by fsnotify: one rebuild per debounced burst of file events,
// with per-file and lifecycle hooks for the orchestration layer above.
//
// A failing build is reported through OnBuildFailure. In a one-shot build
// that failure is fatal; under Watch it only fails that cycle and the loop
// keeps running for the next file change.
package compiler
