// Package session maps collection names to persisted locations and owns the
// one facade instance per name that a kirby process uses.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"kirby/internal/collection"
	"kirby/internal/config"
	"kirby/internal/logging"
	"kirby/internal/store"
)

// ErrInvalidName is returned for names that cannot be mapped to a location.
var ErrInvalidName = errors.New("invalid collection name")

var namePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Registry lazily builds and caches collection facades.
type Registry struct {
	mu        sync.Mutex
	cfg       config.SessionConfig
	db        *store.DB
	instances map[string]collection.Facade
}

// NewRegistry validates cfg and creates the session directory.
func NewRegistry(cfg config.SessionConfig) (*Registry, error) {
	if cfg.Dir == "" {
		return nil, errors.New("session directory is required")
	}
	switch cfg.Backend {
	case "":
		cfg.Backend = config.BackendFile
	case config.BackendFile, config.BackendSQLite:
	default:
		return nil, fmt.Errorf("unknown history backend %q", cfg.Backend)
	}
	if cfg.Backend == config.BackendSQLite && cfg.Database == "" {
		return nil, errors.New("sqlite backend requires a database name")
	}
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	logging.Session("Session registry at %s (backend=%s)", cfg.Dir, cfg.Backend)
	return &Registry{
		cfg:       cfg,
		instances: make(map[string]collection.Facade),
	}, nil
}

// Dir returns the session directory.
func (r *Registry) Dir() string {
	return r.cfg.Dir
}

// Resolve returns the persisted location for name. Valid names map to
// distinct locations.
func (r *Registry) Resolve(name string) (string, error) {
	if !namePattern.MatchString(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if r.cfg.Backend == config.BackendSQLite {
		return name, nil
	}
	return filepath.Join(r.cfg.Dir, name+".json"), nil
}

// Prompts returns the prompt collection.
func (r *Registry) Prompts() (*collection.Collection[[]string], error) {
	return open(r, collection.Prompts, collection.ListStrategy)
}

// SharedFiles returns the shared file collection.
func (r *Registry) SharedFiles() (*collection.Collection[collection.Set], error) {
	return open(r, collection.SharedFiles, collection.SetStrategy)
}

// ProcessingFiles returns the processing file collection.
func (r *Registry) ProcessingFiles() (*collection.Collection[collection.Set], error) {
	return open(r, collection.ProcessingFiles, collection.SetStrategy)
}

// URLs returns the URL collection.
func (r *Registry) URLs() (*collection.Collection[collection.Set], error) {
	return open(r, collection.URLs, collection.SetStrategy)
}

// Facade returns the collection of the given kind.
func (r *Registry) Facade(kind collection.Kind) (collection.Facade, error) {
	var (
		f   collection.Facade
		err error
	)
	switch kind.Name {
	case collection.Prompts.Name:
		f, err = asFacade(r.Prompts())
	case collection.SharedFiles.Name:
		f, err = asFacade(r.SharedFiles())
	case collection.ProcessingFiles.Name:
		f, err = asFacade(r.ProcessingFiles())
	case collection.URLs.Name:
		f, err = asFacade(r.URLs())
	default:
		err = fmt.Errorf("%w: %q", ErrInvalidName, kind.Name)
	}
	return f, err
}

// asFacade keeps a failed open from yielding a non-nil interface.
func asFacade[T any](c *collection.Collection[T], err error) (collection.Facade, error) {
	if err != nil {
		return nil, err
	}
	return c, nil
}

// All returns every collection in display order.
func (r *Registry) All() ([]collection.Facade, error) {
	out := make([]collection.Facade, 0, len(collection.Kinds))
	for _, kind := range collection.Kinds {
		f, err := r.Facade(kind)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// Close releases the sqlite database, if one was opened.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instances = make(map[string]collection.Facade)
	if r.db == nil {
		return nil
	}
	if locs, err := r.db.Locations(); err == nil {
		logging.SessionDebug("Closing %s (%d collections stored)", r.db.Path(), len(locs))
	}
	err := r.db.Close()
	r.db = nil
	return err
}

func open[T any](r *Registry, kind collection.Kind, strategy collection.Strategy[T]) (*collection.Collection[T], error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if f, ok := r.instances[kind.Name]; ok {
		c, ok := f.(*collection.Collection[T])
		if !ok {
			return nil, fmt.Errorf("collection %s already open with a different type", kind.Name)
		}
		return c, nil
	}

	location, err := r.Resolve(kind.Name)
	if err != nil {
		return nil, err
	}
	backend, err := backendFor[T](r)
	if err != nil {
		return nil, err
	}

	c, err := collection.New(kind, strategy, backend, location)
	if err != nil {
		logging.SessionError("Failed to open %s at %s: %v", kind.Name, location, err)
		return nil, err
	}
	r.instances[kind.Name] = c
	logging.SessionDebug("Opened %s at %s", kind.Name, location)
	return c, nil
}

// backendFor must be called with r.mu held.
func backendFor[T any](r *Registry) (store.Backend[T], error) {
	if r.cfg.Backend != config.BackendSQLite {
		return store.NewFileBackend[T](), nil
	}
	if r.db == nil {
		db, err := store.OpenDB(filepath.Join(r.cfg.Dir, r.cfg.Database))
		if err != nil {
			return nil, fmt.Errorf("failed to open history database: %w", err)
		}
		r.db = db
	}
	return store.NewSQLiteBackend[T](r.db), nil
}
