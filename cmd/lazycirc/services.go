package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/rebeliceyang/lazycirc/internal/config"
	"github.com/rebeliceyang/lazycirc/internal/credentials"
	"github.com/rebeliceyang/lazycirc/internal/db/catalog"
	"github.com/rebeliceyang/lazycirc/internal/history"
	"github.com/rebeliceyang/lazycirc/internal/lists"
	"github.com/rebeliceyang/lazycirc/internal/search"
	"github.com/rebeliceyang/lazycirc/internal/search/opds"
)

// services bundles everything a command may need. Close releases what was
// opened.
type services struct {
	Search  *search.Service
	History *history.Store
	Lists   *lists.Manager

	pool *pgxpool.Pool
}

func (s *services) Close() {
	if s.History != nil {
		if err := s.History.Close(); err != nil {
			logger.Warn("failed to close history", zap.Error(err))
		}
	}
	if s.pool != nil {
		s.pool.Close()
	}
}

func configDir() (string, error) {
	dir, err := config.GetConfigPath()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return dir, nil
}

// openHistory opens the history database, or returns nil when history is
// disabled
func openHistory(cfg *config.Config) (*history.Store, error) {
	if !cfg.History.Enabled {
		return nil, nil
	}
	path := ":memory:"
	if cfg.History.Persist {
		dir, err := configDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, history.DefaultFile)
	}
	return history.NewStore(path)
}

func openLists() (*lists.Manager, error) {
	dir, err := configDir()
	if err != nil {
		return nil, err
	}
	return lists.NewManager(dir, logger)
}

// openSearcher connects the configured backend
func openSearcher(ctx context.Context, cfg *config.Config, log *zap.Logger) (search.Searcher, *pgxpool.Pool, error) {
	switch cfg.Search.Backend {
	case config.BackendCatalog:
		pool, err := catalog.NewPool(ctx, cfg.Catalog)
		if err != nil {
			return nil, nil, err
		}
		return catalog.NewSearcher(pool, cfg.Catalog.Table, log), pool, nil
	default:
		password := ""
		if cfg.Server.Username != "" {
			p, err := credentials.NewPasswordStore().Get(cfg.Server.BaseURL, cfg.Server.Username)
			switch {
			case err == nil:
				password = p
			case errors.Is(err, credentials.ErrPasswordNotFound):
				log.Warn("no stored password; run lazycirc login",
					zap.String("server", cfg.Server.BaseURL),
					zap.String("user", cfg.Server.Username))
			default:
				return nil, nil, err
			}
		}
		client, err := opds.New(opds.Config{
			BaseURL:   cfg.Server.BaseURL,
			Library:   cfg.Server.Library,
			Username:  cfg.Server.Username,
			Password:  password,
			Timeout:   cfg.Server.Timeout(),
			CacheSize: cfg.Search.CacheSize,
		}, log)
		if err != nil {
			return nil, nil, err
		}
		return client, nil, nil
	}
}

func openServices(ctx context.Context, cfg *config.Config, log *zap.Logger) (*services, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	svc := &services{}

	searcher, pool, err := openSearcher(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	svc.pool = pool

	store, err := openHistory(cfg)
	if err != nil {
		svc.Close()
		return nil, err
	}
	svc.History = store

	var recorder search.Recorder
	if store != nil {
		recorder = store
		if n, err := store.Prune(ctx, cfg.History.MaxEntries); err != nil {
			log.Warn("failed to prune history", zap.Error(err))
		} else if n > 0 {
			log.Debug("pruned history", zap.Int64("removed", n))
		}
	}
	svc.Search = search.NewService(searcher, recorder, cfg.Server.Library, cfg.Server.PageSize, log)

	mgr, err := openLists()
	if err != nil {
		svc.Close()
		return nil, err
	}
	svc.Lists = mgr

	return svc, nil
}
