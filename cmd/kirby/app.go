package main

import (
	"fmt"

	"go.uber.org/zap"

	"kirby/cmd/kirby/ui"
	"kirby/internal/collection"
	"kirby/internal/config"
	"kirby/internal/logging"
	"kirby/internal/session"
)

// app is the state shared by every command of one invocation.
type app struct {
	cfg      *config.Config
	registry *session.Registry
	styles   ui.Styles
}

func (a *app) open(cfg *config.Config) error {
	registry, err := session.NewRegistry(cfg.Session)
	if err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}
	a.cfg = cfg
	a.registry = registry
	a.styles = ui.DefaultStyles()
	return nil
}

// shutdown closes the session and flushes both loggers. It is safe to call
// when the session never opened.
func (a *app) shutdown() {
	if a.registry != nil {
		if err := a.registry.Close(); err != nil && logger != nil {
			logger.Warn("Failed to close session", zap.Error(err))
		}
		a.registry = nil
	}
	if logger != nil {
		_ = logger.Sync()
	}
	logging.Boot("kirby finished")
	logging.CloseAll()
}

// facade returns the collection for kind.
func (a *app) facade(kind collection.Kind) (collection.Facade, error) {
	return a.registry.Facade(kind)
}
