package store

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"projectboard/domain"
)

const tracerName = "projectboard/store"

// EventSink receives a change event after every successful mutation.
type EventSink interface {
	Publish(ctx context.Context, ev domain.Event) error
}

// Op describes one mutation.
type Op struct {
	Collection string
	Entity     string
	Kind       Kind
	// Failure is recorded in Status when the remote call fails.
	Failure string
	// Data is attached to the emitted change event.
	Data any
}

// Syncer mediates every mutation: remote call first, then a full reload of
// the affected collection. Local state is never touched before the remote
// call succeeds.
type Syncer struct {
	status *Status
	log    *log.Logger
	tracer trace.Tracer
	events EventSink
	actor  string
	now    func() time.Time
}

type Option func(*Syncer)

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Syncer) { s.tracer = tp.Tracer(tracerName) }
}

// WithEvents publishes change events on behalf of actor.
func WithEvents(sink EventSink, actor string) Option {
	return func(s *Syncer) {
		s.events = sink
		s.actor = actor
	}
}

func NewSyncer(status *Status, logger *log.Logger, opts ...Option) *Syncer {
	if logger == nil {
		logger = log.StandardLogger()
	}
	s := &Syncer{
		status: status,
		log:    logger,
		tracer: otel.Tracer(tracerName),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Status returns the shared status the syncer records into.
func (s *Syncer) Status() *Status { return s.status }

// Mutate runs call against the remote collaborator and, on success, reload.
// call returns the id of the affected entity. A failed reload is recorded but
// does not fail the mutation since the remote change already happened.
func (s *Syncer) Mutate(ctx context.Context, op Op, call func(context.Context) (string, error), reload func(context.Context) error) (string, error) {
	end := s.status.begin(op.Collection)
	defer end()

	ctx, span := s.tracer.Start(ctx, "store."+op.Collection+"."+op.Kind.String(),
		trace.WithAttributes(attribute.String("store.collection", op.Collection)))
	defer span.End()

	id, err := call(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, op.Failure)
		return "", s.fail(op.Kind, op.Collection, op.Failure, err)
	}
	span.SetAttributes(attribute.String("store.entity_id", id))

	if err := reload(ctx); err != nil {
		span.AddEvent("reload failed")
		s.log.WithFields(log.Fields{"collection": op.Collection, "id": id}).Warnf("mutation applied but reload failed: %v", err)
	}
	s.publish(ctx, op, id)
	return id, nil
}

// Load runs fetch as a tracked read of collection.
func (s *Syncer) Load(ctx context.Context, collection string, fetch func(context.Context) error) error {
	return s.track(ctx, collection, KindLoad, "Failed to load "+collection, fetch)
}

// Seed runs a bootstrap step for collection under its busy mark.
func (s *Syncer) Seed(ctx context.Context, collection string, fn func(context.Context) error) error {
	return s.track(ctx, collection, KindSeed, "Failed to initialize "+collection, fn)
}

func (s *Syncer) track(ctx context.Context, collection string, kind Kind, msg string, fn func(context.Context) error) error {
	end := s.status.begin(collection)
	defer end()

	ctx, span := s.tracer.Start(ctx, "store."+collection+"."+kind.String(),
		trace.WithAttributes(attribute.String("store.collection", collection)))
	defer span.End()

	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, msg)
		return s.fail(kind, collection, msg, err)
	}
	return nil
}

// fail records msg as the current error and returns the wrapped failure.
func (s *Syncer) fail(kind Kind, collection, msg string, err error) error {
	s.status.SetError(msg)
	s.log.WithFields(log.Fields{"collection": collection, "op": kind.String()}).Errorf("%s: %v", msg, err)
	return &OpError{Kind: kind, Collection: collection, Msg: msg, Err: err}
}

func (s *Syncer) publish(ctx context.Context, op Op, id string) {
	if s.events == nil || op.Entity == "" {
		return
	}
	action := domain.ActionCreated
	switch op.Kind {
	case KindUpdate:
		action = domain.ActionUpdated
	case KindDelete:
		action = domain.ActionDeleted
	}
	ev := domain.Event{
		ID:         uuid.NewString(),
		EntityID:   id,
		EntityType: op.Entity,
		Type:       domain.EventType(op.Entity, action),
		Time:       s.now().UnixNano(),
		UserID:     s.actor,
	}
	if op.Data != nil {
		data, err := sonic.Marshal(op.Data)
		if err == nil {
			ev.Data = data
		}
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.WithFields(log.Fields{"event": ev.Type, "id": id}).Errorf("unable to publish event: %v", err)
	}
}
