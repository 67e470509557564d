package main

import (
	"fmt"
	"log/slog"

	"github.com/ngenohkevin/circulation/internal/config"
	"github.com/ngenohkevin/circulation/internal/database"
	"github.com/ngenohkevin/circulation/internal/services"
)

// env holds the connections a command needs. Close releases them.
type env struct {
	cfg      *config.Config
	db       *database.Database
	redis    *database.RedisClient
	store    *database.SQLStore
	settings *services.SettingsService
	audit    *services.AuditService
}

func openEnv(logger *slog.Logger, withRedis bool) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	db, err := database.New(cfg)
	if err != nil {
		return nil, err
	}
	e := &env{cfg: cfg, db: db, store: database.NewStore(db.Pool)}
	e.audit = services.NewAuditService(e.store)
	e.settings = services.NewSettingsService(e.store, cfg.Library, logger).WithAudit(e.audit)

	if withRedis {
		redis, err := database.NewRedis(cfg)
		if err != nil {
			db.Close()
			return nil, err
		}
		e.redis = redis
		e.settings.WithCache(redis)
	}
	return e, nil
}

func (e *env) Close() {
	if e.redis != nil {
		e.redis.Close()
	}
	e.db.Close()
}
