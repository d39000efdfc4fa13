package compiler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/relight-dev/relight/internal/config"
	"github.com/relight-dev/relight/internal/errors"
)

// BuildError describes a compilation failure in a single source file.
type BuildError struct {
	// File is the failing source file, relative to the project root.
	File string

	// Line is the failing line, when known.
	Line int

	// Message describes the failure.
	Message string
}

func (e *BuildError) Error() string {
	if e.File != "" && e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
	}
	if e.File != "" {
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	}
	return e.Message
}

// BuildOptions configures a build.
type BuildOptions struct {
	// Mode selects development or production compilation.
	Mode config.Mode

	// OnBuildFailure receives the BuildError when compilation fails.
	OnBuildFailure func(*BuildError)
}

// routeExtensions maps compilable route file extensions to content types.
var routeExtensions = map[string]string{
	".html": "text/html; charset=utf-8",
	".md":   "text/markdown; charset=utf-8",
	".txt":  "text/plain; charset=utf-8",
	".json": "application/json",
}

// Build compiles the application into the server bundle and copies public
// assets into the output directory. On failure the BuildError is delivered
// to opts.OnBuildFailure and returned wrapped in a coded error.
func Build(ctx context.Context, cfg *config.Config, opts BuildOptions) error {
	routesDir := cfg.RoutesPath()
	if info, err := os.Stat(routesDir); err != nil || !info.IsDir() {
		return errors.New("E201").WithDetail(routesDir)
	}

	outputDir := cfg.OutputPath()
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return errors.New("E202").Wrap(err)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.ServerBuildAbs()), 0755); err != nil {
		return errors.New("E202").Wrap(err)
	}

	routes, buildErr := compileRoutes(ctx, cfg, routesDir)
	if buildErr != nil {
		if opts.OnBuildFailure != nil {
			opts.OnBuildFailure(buildErr)
		}
		return errors.New("E200").WithDetail(buildErr.Error()).Wrap(buildErr)
	}

	bundle := &Bundle{
		Name:    cfg.Name,
		Mode:    opts.Mode,
		BuiltAt: time.Now(),
		Routes:  routes,
	}
	if err := writeBundle(cfg.ServerBuildAbs(), bundle); err != nil {
		return errors.New("E202").Wrap(err)
	}

	if err := copyPublicAssets(cfg); err != nil {
		return errors.New("E202").Wrap(err)
	}

	return nil
}

// compileRoutes walks the routes directory and compiles each route file.
func compileRoutes(ctx context.Context, cfg *config.Config, routesDir string) ([]Route, *BuildError) {
	var routes []Route
	var buildErr *BuildError

	err := filepath.Walk(routesDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if info.IsDir() {
			if strings.HasPrefix(info.Name(), ".") && path != routesDir {
				return filepath.SkipDir
			}
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		contentType, ok := routeExtensions[ext]
		if !ok {
			return nil
		}

		rel, err := filepath.Rel(routesDir, path)
		if err != nil {
			return nil
		}

		body, err := os.ReadFile(path)
		if err != nil {
			buildErr = &BuildError{File: projectRel(cfg, path), Message: err.Error()}
			return io.EOF
		}

		if ext == ".json" {
			if verr := validateJSONRoute(body); verr != nil {
				verr.File = projectRel(cfg, path)
				buildErr = verr
				return io.EOF
			}
		}

		routes = append(routes, Route{
			Path:        routePath(rel),
			File:        filepath.ToSlash(rel),
			ContentType: contentType,
			Body:        string(body),
		})
		return nil
	})

	if buildErr != nil {
		return nil, buildErr
	}
	if err != nil && err != io.EOF {
		return nil, &BuildError{Message: err.Error()}
	}

	sort.Slice(routes, func(i, j int) bool { return routes[i].Path < routes[j].Path })
	return routes, nil
}

// routePath derives a URL path from a route file path relative to the
// routes directory: index files map to their directory.
func routePath(rel string) string {
	rel = filepath.ToSlash(rel)
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))

	segments := strings.Split(rel, "/")
	if segments[len(segments)-1] == "index" {
		segments = segments[:len(segments)-1]
	}
	if len(segments) == 0 {
		return "/"
	}
	return "/" + strings.Join(segments, "/")
}

// validateJSONRoute checks that a .json route file parses, reporting the
// failing line for syntax errors.
func validateJSONRoute(body []byte) *BuildError {
	if json.Valid(body) {
		return nil
	}

	var v any
	err := json.Unmarshal(body, &v)
	if err == nil {
		return nil
	}

	line := 0
	if serr, ok := err.(*json.SyntaxError); ok {
		line = 1 + bytes.Count(body[:serr.Offset], []byte{'\n'})
	}
	return &BuildError{Line: line, Message: err.Error()}
}

// copyPublicAssets copies app/public into <output>/assets.
func copyPublicAssets(cfg *config.Config) error {
	publicDir := cfg.PublicPath()
	if info, err := os.Stat(publicDir); err != nil || !info.IsDir() {
		return nil
	}

	assetsDir := filepath.Join(cfg.OutputPath(), "assets")
	return filepath.Walk(publicDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(publicDir, path)
		if err != nil {
			return nil
		}
		dst := filepath.Join(assetsDir, rel)
		if info.IsDir() {
			return os.MkdirAll(dst, 0755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(dst, data, 0644)
	})
}

// projectRel returns path relative to the project root when possible.
func projectRel(cfg *config.Config, path string) string {
	rel, err := filepath.Rel(cfg.Dir(), path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
