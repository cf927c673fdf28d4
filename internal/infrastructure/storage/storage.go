// Package storage selects and connects the persistence providers once at
// startup. Handlers and services only ever see the ports interfaces.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	mongodrv "go.mongodb.org/mongo-driver/mongo"

	"github.com/crmdesk/crm-api/internal/core/ports"
	"github.com/crmdesk/crm-api/internal/infrastructure/config"
	"github.com/crmdesk/crm-api/internal/infrastructure/db/memory"
	"github.com/crmdesk/crm-api/internal/infrastructure/db/mongo"
	"github.com/crmdesk/crm-api/internal/infrastructure/db/postgres"
	"github.com/crmdesk/crm-api/internal/infrastructure/db/redis"
)

const pruneInterval = time.Minute

// Backend bundles the selected repositories with their live connections.
type Backend struct {
	Users     ports.UserRepository
	Customers ports.CustomerRepository
	Sessions  ports.SessionStore
	// Pingers is keyed by dependency name for the readiness probe.
	Pingers map[string]ports.Pinger

	log     zerolog.Logger
	closers []func(context.Context) error
	pruner  func(context.Context)
}

// Open connects every backend the configuration selects. On failure any
// connection already made is closed.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (b *Backend, err error) {
	b = &Backend{Pingers: make(map[string]ports.Pinger), log: log}
	defer func() {
		if err != nil {
			_ = b.Close(context.Background())
			b = nil
		}
	}()

	needs := func(driver string) bool {
		return cfg.StorageDriver == driver || cfg.SessionDriver == driver
	}

	var (
		pg  *sql.DB
		mdb *mongodrv.Database
		rdb *goredis.Client
	)

	if needs(config.DriverPostgres) {
		pg, err = postgres.Connect(ctx, postgres.Config{DSN: cfg.Postgres.DSN, MaxOpenConns: cfg.Postgres.MaxOpenConns})
		if err != nil {
			return b, err
		}
		b.closers = append(b.closers, func(context.Context) error { return pg.Close() })
		b.Pingers["postgres"] = ports.PingFunc(pg.PingContext)

		if err = postgres.Migrate(pg); err != nil {
			return b, err
		}
		log.Info().Msg("postgres connected and migrated")
	}

	if needs(config.DriverMongo) {
		var client *mongodrv.Client
		client, mdb, err = mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return b, err
		}
		b.closers = append(b.closers, client.Disconnect)
		b.Pingers["mongodb"] = ports.PingFunc(func(ctx context.Context) error { return client.Ping(ctx, nil) })

		if err = mongo.EnsureIndexes(ctx, mdb); err != nil {
			return b, err
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("mongodb connected")
	}

	if needs(config.DriverRedis) {
		rdb, err = redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			return b, err
		}
		b.closers = append(b.closers, func(context.Context) error { return rdb.Close() })
		b.Pingers["redis"] = ports.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis connected")
	}

	switch cfg.StorageDriver {
	case config.DriverPostgres:
		b.Users = postgres.NewUserRepository(pg)
		b.Customers = postgres.NewCustomerRepository(pg)
	case config.DriverMongo:
		b.Users = mongo.NewUserRepository(mdb)
		b.Customers = mongo.NewCustomerRepository(mdb)
	case config.DriverMemory:
		store := memory.NewStore()
		b.Users = store.Users()
		b.Customers = store.Customers()
		b.Pingers["memory"] = store
	default:
		return b, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}

	switch cfg.SessionDriver {
	case config.DriverRedis:
		b.Sessions = redis.NewSessionStore(rdb)
	case config.DriverMongo:
		b.Sessions = mongo.NewSessionStore(mdb)
	case config.DriverPostgres:
		sessions := postgres.NewSessionStore(pg)
		b.Sessions = sessions
		b.pruner = func(ctx context.Context) { prunePostgres(ctx, sessions, log) }
	case config.DriverMemory:
		sessions := memory.NewSessionStore()
		b.Sessions = sessions
		b.pruner = func(ctx context.Context) { sessions.RunPruner(ctx, pruneInterval) }
	default:
		return b, fmt.Errorf("unknown session driver %q", cfg.SessionDriver)
	}

	log.Info().
		Str("storage", cfg.StorageDriver).
		Str("sessions", cfg.SessionDriver).
		Msg("storage ready")
	return b, nil
}

// RunPruner removes expired sessions until ctx is cancelled. Stores that
// expire keys natively return immediately.
func (b *Backend) RunPruner(ctx context.Context) {
	if b.pruner == nil {
		return
	}
	b.pruner(ctx)
}

// Close releases every connection in reverse order of opening.
func (b *Backend) Close(ctx context.Context) error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}

func prunePostgres(ctx context.Context, s *postgres.SessionStore, log zerolog.Logger) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Prune(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("session prune failed")
				continue
			}
			if n > 0 {
				log.Debug().Int64("removed", n).Msg("expired sessions pruned")
			}
		}
	}
}
