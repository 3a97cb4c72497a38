package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/dgnsrekt/mordoo/internal/cache"
	"github.com/dgnsrekt/mordoo/internal/config"
	"github.com/dgnsrekt/mordoo/internal/favorites"
	"github.com/dgnsrekt/mordoo/internal/kv"
	"github.com/dgnsrekt/mordoo/internal/library"
)

// app holds the components shared by the library and cache commands.
type app struct {
	cfg       config.Config
	store     kv.Store // nil when storage could not be opened
	closer    io.Closer
	cache     *cache.Manager
	favorites *favorites.Registry
	library   *library.Store
}

// openApp opens storage and wires the components on top of it. Storage
// that cannot be opened leaves the components without persistence, except
// when another process owns it.
func openApp(cfg config.Config) (*app, error) {
	store, closer, err := kv.Open(cfg.KV())
	switch {
	case errors.Is(err, kv.ErrLocked):
		return nil, fmt.Errorf("storage at %s is in use by another mordoo process", cfg.Storage.Dir)
	case err != nil:
		log.Warn("Storage unavailable, nothing will be saved", "backend", cfg.Storage.Backend, "error", err)
		store, closer = nil, nil
	}

	logger := log.Default()
	a := &app{
		cfg:    cfg,
		store:  store,
		closer: closer,
		cache: cache.NewManager(store,
			cache.WithPrefix(cfg.Cache.Prefix),
			cache.WithLogger(logger.WithPrefix("cache")),
		),
		favorites: favorites.NewRegistry(store,
			favorites.WithKey(cfg.Favorites.Key),
			favorites.WithLogger(logger.WithPrefix("favorites")),
		),
	}
	a.library = library.NewStore(store, a.favorites,
		library.WithCapacity(cfg.Library.Capacity),
		library.WithKey(cfg.Library.Key),
		library.WithLogger(logger.WithPrefix("library")),
	)

	if cfg.Cache.SweepOnOpen {
		if n := a.cache.ClearExpired(); n > 0 {
			log.Debug("Swept expired cache entries", "count", n)
		}
	}
	return a, nil
}

func (a *app) Close() error {
	if a == nil || a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// available reports whether writes will persist.
func (a *app) available() bool {
	return a.store != nil
}

// current is the app opened for the running command.
var current *app

// withApp opens the app before running fn. The app is closed by main.
func withApp(fn func(a *app, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if current == nil {
			a, err := openApp(cfg)
			if err != nil {
				return err
			}
			current = a
		}
		return fn(current, cmd, args)
	}
}
