package main

import (
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"projectboard/config"
	"projectboard/session"
	"projectboard/storage"
)

const seedGuardKey = "projectboard:seed:categories"

// openBackend builds the configured backend. The redis client is nil unless
// the table backend or the seed guard needs one.
func openBackend(cfg *config.Config, logger *log.Logger) (storage.Backend, *redis.Client, error) {
	var rc *redis.Client
	if cfg.RedisConnectionString != "" {
		opts, err := cfg.RedisOptions()
		if err != nil {
			return storage.Backend{}, nil, err
		}
		rc = redis.NewClient(opts)
	}
	if cfg.StorageBackend == config.BackendMemory {
		logger.Warn("using in-memory storage; data is lost on restart")
		return storage.NewMemoryBackend(), rc, nil
	}
	backend, err := storage.NewTableBackend(cfg.TableConfig(), rc, logger)
	if err != nil {
		return storage.Backend{}, nil, err
	}
	return backend, rc, nil
}

// sessionOptions wires the seed guard and the event queue into every session.
func sessionOptions(cfg *config.Config, rc *redis.Client, logger *log.Logger) (session.Options, error) {
	opts := session.Options{Logger: logger}
	if cfg.SeedGuard {
		opts.Guard = storage.NewRedisSeedGuard(rc, seedGuardKey, time.Minute)
	}
	if cfg.DomainEventsQueue != "" {
		sink, err := storage.NewQueueSink(cfg.StorageConnectionString, cfg.DomainEventsQueue)
		if err != nil {
			return opts, err
		}
		opts.Events = sink
	}
	return opts, nil
}
