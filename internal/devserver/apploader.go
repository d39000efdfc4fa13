package devserver

import (
	"github.com/relight-dev/relight/internal/compiler"
	"github.com/relight-dev/relight/internal/errors"
)

// AppLoader loads compiled server bundles through the module cache. After
// a purge the next Load re-reads the just-rebuilt artifact from disk.
type AppLoader struct {
	cache ModuleCache
}

// NewAppLoader creates a loader over the given cache.
func NewAppLoader(cache ModuleCache) *AppLoader {
	return &AppLoader{cache: cache}
}

// Load returns the bundle at the given path, from cache when present.
func (l *AppLoader) Load(path string) (*compiler.Bundle, error) {
	if v, ok := l.cache.Get(path); ok {
		if bundle, ok := v.(*compiler.Bundle); ok {
			return bundle, nil
		}
	}

	bundle, err := compiler.ReadBundle(path)
	if err != nil {
		return nil, errors.New("E302").WithDetail(path).Wrap(err)
	}

	l.cache.Put(path, bundle)
	return bundle, nil
}
