package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/Additional-Code/millflow/internal/config"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	store := NewMemoryStore(time.Minute)
	store.now = func() time.Time { return now }

	if _, err := store.Get(ctx, "orders:1"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("Get() on empty store err = %v, want ErrCacheMiss", err)
	}

	value := []byte(`{"id":"1"}`)
	if err := store.Set(ctx, "orders:1", value, 0); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	value[0] = 'X'

	got, err := store.Get(ctx, "orders:1")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if string(got) != `{"id":"1"}` {
		t.Errorf("Get() = %s", got)
	}

	now = now.Add(time.Minute)
	if _, err := store.Get(ctx, "orders:1"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("expired Get() err = %v, want ErrCacheMiss", err)
	}

	if err := store.Set(ctx, "orders:2", []byte("x"), time.Hour); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(ctx, "orders:2"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Get(ctx, "orders:2"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("deleted Get() err = %v, want ErrCacheMiss", err)
	}

	if err := store.Set(ctx, "", []byte("x"), 0); err == nil {
		t.Error("Set() with empty key succeeded")
	}
}

func TestNewStore(t *testing.T) {
	tests := []struct {
		driver  string
		wantErr bool
	}{
		{driver: "noop"},
		{driver: "memory"},
		{driver: "memcached", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			lc := fxtest.NewLifecycle(t)
			store, err := NewStore(lc, config.Config{Cache: config.Cache{Driver: tt.driver}}, zap.NewNop())
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewStore(%s) error = %v, wantErr %v", tt.driver, err, tt.wantErr)
			}
			if !tt.wantErr && store == nil {
				t.Fatal("nil store")
			}
		})
	}
}
