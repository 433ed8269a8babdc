package main

import (
	"context"

	"github.com/samber/oops"

	"tabletop-companion/internal/config"
	"tabletop-companion/internal/repository"
	"tabletop-companion/internal/repository/postgres"
	"tabletop-companion/internal/repository/sqlite"
)

// stores bundles the repositories of one database backend.
type stores struct {
	users      repository.UserRepository
	characters repository.CharacterRepository
	migrate    func(ctx context.Context) error
	close      func()
}

func openStores(ctx context.Context, cfg config.Config) (*stores, error) {
	if err := cfg.ValidateDatabase(); err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}

	switch cfg.Database.Driver {
	case config.DriverPostgres:
		pool, err := postgres.Open(ctx, cfg.Database.URL)
		if err != nil {
			return nil, oops.Code("DB_CONNECT_FAILED").With("driver", cfg.Database.Driver).Wrap(err)
		}
		return &stores{
			users:      postgres.NewUserRepository(pool),
			characters: postgres.NewCharacterRepository(pool),
			migrate:    func(ctx context.Context) error { return postgres.Migrate(ctx, pool) },
			close:      pool.Close,
		}, nil
	default:
		db, err := sqlite.Open(cfg.Database.Path)
		if err != nil {
			return nil, oops.Code("DB_CONNECT_FAILED").With("driver", cfg.Database.Driver).With("path", cfg.Database.Path).Wrap(err)
		}
		return &stores{
			users:      sqlite.NewUserRepository(db),
			characters: sqlite.NewCharacterRepository(db),
			migrate:    func(ctx context.Context) error { return sqlite.Migrate(ctx, db) },
			close:      func() { _ = db.Close() },
		}, nil
	}
}
