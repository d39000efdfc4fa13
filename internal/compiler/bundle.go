package compiler

import (
	"encoding/json"
	"os"
	"time"

	"github.com/relight-dev/relight/internal/config"
)

// Bundle is the compiled server artifact: a self-contained description of
// the application that the dev server loads and serves in-process.
type Bundle struct {
	// Name is the project name from relight.json.
	Name string `json:"name,omitempty"`

	// Mode records the build mode the bundle was compiled for.
	Mode config.Mode `json:"mode"`

	// BuiltAt is the wall-clock time of the build.
	BuiltAt time.Time `json:"builtAt"`

	// Routes are the compiled routes, sorted by path.
	Routes []Route `json:"routes"`
}

// Route is one compiled route entry.
type Route struct {
	// Path is the URL path the route is served at.
	Path string `json:"path"`

	// File is the source file, relative to the routes directory.
	File string `json:"file"`

	// ContentType is the response content type.
	ContentType string `json:"contentType"`

	// Body is the response body.
	Body string `json:"body"`
}

// Lookup returns the route matching the given URL path.
func (b *Bundle) Lookup(urlPath string) (Route, bool) {
	for _, r := range b.Routes {
		if r.Path == urlPath {
			return r, true
		}
	}
	return Route{}, false
}

// ReadBundle reads and parses a compiled bundle from disk.
func ReadBundle(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// writeBundle writes the bundle to the given path.
func writeBundle(path string, b *Bundle) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0644)
}
