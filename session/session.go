// Package session owns the per-user state built on login and torn down on
// logout.
package session

import (
	"context"
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"

	"projectboard/assembler"
	"projectboard/domain"
	"projectboard/storage"
	"projectboard/store"
)

var (
	ErrNoSession    = errors.New("no active session")
	ErrForeignToken = errors.New("token does not belong to the active session")
)

// Options configures the stores of every session.
type Options struct {
	Logger         *log.Logger
	Guard          store.SeedGuard
	Events         store.EventSink
	TracerProvider trace.TracerProvider
}

// Session is the state of one authenticated user.
type Session struct {
	User     domain.User
	Status   *store.Status
	Taxonomy *store.TaxonomyStore
	Entities *store.EntityStore

	logger    *log.Logger
	cancel    context.CancelFunc
	stopWatch func()
	closeOnce sync.Once
}

// Open builds the stores for user, bootstraps the taxonomy, loads every
// collection and starts watching the live ones. Seed and load failures are
// recorded in Status and logged; the session is still usable.
func Open(ctx context.Context, user domain.User, backend storage.Backend, opts Options) (*Session, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	var syncOpts []store.Option
	if opts.TracerProvider != nil {
		syncOpts = append(syncOpts, store.WithTracerProvider(opts.TracerProvider))
	}
	if opts.Events != nil {
		syncOpts = append(syncOpts, store.WithEvents(opts.Events, user.UID))
	}
	status := store.NewStatus()
	syncer := store.NewSyncer(status, logger, syncOpts...)

	s := &Session{
		User:     user,
		Status:   status,
		Taxonomy: store.NewTaxonomyStore(backend.Categories, syncer, user, opts.Guard),
		Entities: store.NewEntityStore(backend, syncer, user),
		logger:   logger,
	}

	if err := s.Taxonomy.EnsureSeeded(ctx); err != nil {
		logger.WithField("uid", user.UID).Warnf("using built-in taxonomy: %v", err)
	}
	if err := s.Entities.Load(ctx); err != nil {
		logger.WithField("uid", user.UID).Warnf("initial load incomplete: %v", err)
	}

	// Subscriptions outlive the call that opened the session.
	watchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stop, err := s.Entities.Watch(watchCtx)
	if err != nil {
		cancel()
		return nil, err
	}
	s.cancel = cancel
	s.stopWatch = stop
	logger.WithField("uid", user.UID).Info("session opened")
	return s, nil
}

// NewAssembler starts a project draft over this session's taxonomy.
func (s *Session) NewAssembler() *assembler.Assembler {
	return assembler.New(s.Taxonomy)
}

// Close disposes every subscription. It is safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		if s.stopWatch != nil {
			s.stopWatch()
		}
		if s.cancel != nil {
			s.cancel()
		}
		s.logger.WithField("uid", s.User.UID).Info("session closed")
	})
}
