package storage

import (
	"context"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Notice is published on a feed channel after every successful mutation.
type Notice struct {
	Collection string `json:"collection"`
	EntityID   string `json:"entityId"`
	Action     string `json:"action"`
	Time       int64  `json:"time"`
}

// Feed turns a Collection into a LiveCollection using Redis pub/sub. Writers
// publish a Notice and every subscriber re-lists the collection on receipt.
type Feed[T Entity[T], P Patch[T]] struct {
	Collection[T, P]
	name    string
	redis   *redis.Client
	channel string
	log     *log.Logger
}

// NewFeed publishes changes of base under the channel "feed:<name>".
func NewFeed[T Entity[T], P Patch[T]](base Collection[T, P], client *redis.Client, name string, logger *log.Logger) *Feed[T, P] {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Feed[T, P]{Collection: base, name: name, redis: client, channel: "feed:" + name, log: logger}
}

func (f *Feed[T, P]) Create(ctx context.Context, v T) (string, error) {
	id, err := f.Collection.Create(ctx, v)
	if err != nil {
		return "", err
	}
	f.publish(ctx, id, "created")
	return id, nil
}

func (f *Feed[T, P]) Update(ctx context.Context, id string, patch P) error {
	if err := f.Collection.Update(ctx, id, patch); err != nil {
		return err
	}
	f.publish(ctx, id, "updated")
	return nil
}

func (f *Feed[T, P]) Delete(ctx context.Context, id string) error {
	if err := f.Collection.Delete(ctx, id); err != nil {
		return err
	}
	f.publish(ctx, id, "deleted")
	return nil
}

func (f *Feed[T, P]) publish(ctx context.Context, id, action string) {
	payload, err := sonic.Marshal(Notice{Collection: f.name, EntityID: id, Action: action, Time: time.Now().UnixNano()})
	if err != nil {
		return
	}
	if err := f.redis.Publish(ctx, f.channel, payload).Err(); err != nil {
		f.log.WithFields(log.Fields{"collection": f.name, "id": id}).Errorf("unable to publish change: %v", err)
	}
}

// Subscribe waits until the Redis subscription is confirmed, delivers the
// current listing and then re-lists on every notice until unsubscribed.
func (f *Feed[T, P]) Subscribe(ctx context.Context, filter func(T) bool, fn func([]T)) (Unsubscribe, error) {
	sub := f.redis.Subscribe(ctx, f.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}
	items, err := f.Collection.List(ctx)
	if err != nil {
		_ = sub.Close()
		return nil, err
	}
	fn(filterItems(items, filter))

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				items, err := f.Collection.List(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					f.log.WithField("collection", f.name).Errorf("reload after notice: %v", err)
					continue
				}
				if ctx.Err() != nil {
					return
				}
				fn(filterItems(items, filter))
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			_ = sub.Close()
			<-done
		})
	}, nil
}
