// Package config loads and validates the relight.json project configuration.
//
// The configuration is an immutable per-run descriptor: it is loaded once
// when a command starts and shared read-only by the compiler, the dev server,
// and the lifecycle controller. Paths in the file are relative to the project
// root (the directory containing relight.json) and resolved to absolute paths
// by the accessor methods.
package config
