package storage

import (
	"context"
	"testing"
)

func TestRedisSeedGuardClaimsOnce(t *testing.T) {
	_, client := newTestRedis(t)
	ctx := context.Background()
	g := NewRedisSeedGuard(client, "seed:categories", 0)

	first, err := g.Claim(ctx)
	if err != nil || !first {
		t.Fatalf("expected first claim to win, got %v %v", first, err)
	}
	second, err := g.Claim(ctx)
	if err != nil || second {
		t.Fatalf("expected second claim to lose, got %v %v", second, err)
	}
	if err := g.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	again, err := g.Claim(ctx)
	if err != nil || !again {
		t.Fatalf("expected claim after release to win, got %v %v", again, err)
	}
}
