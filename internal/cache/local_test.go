package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLocalProviderRoundTrip(t *testing.T) {
	ctx := context.Background()
	p := NewLocalProvider(4, time.Minute)

	if _, err := p.Get(ctx, "missing"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected cache miss, got %v", err)
	}

	value := []byte("payload")
	if err := p.Set(ctx, "k", value, 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	value[0] = 'X'

	got, err := p.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "payload" {
		t.Fatalf("expected stored copy, got %q", got)
	}

	if err := p.Del(ctx, "k"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if _, err := p.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss after delete, got %v", err)
	}
}

func TestLocalProviderExpiry(t *testing.T) {
	ctx := context.Background()
	p := NewLocalProvider(4, 20*time.Millisecond)
	_ = p.Set(ctx, "k", []byte("v"), 0)
	time.Sleep(60 * time.Millisecond)
	if _, err := p.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected expired entry, got %v", err)
	}
}

func TestNoopProvider(t *testing.T) {
	var p Provider = NoopProvider{}
	if _, err := p.Get(context.Background(), "k"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected noop miss, got %v", err)
	}
}
