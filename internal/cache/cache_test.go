package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()

	t.Run("hit before ttl and miss after", func(t *testing.T) {
		clock := clockwork.NewFakeClock()
		c := NewMemory(10*time.Minute, clock)

		if err := c.Set(ctx, "top:season", []byte(`[1,2]`)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		clock.Advance(9 * time.Minute)
		got, ok, err := c.Get(ctx, "top:season")
		if err != nil || !ok {
			t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
		}
		if string(got) != `[1,2]` {
			t.Errorf("unexpected value %q", got)
		}

		clock.Advance(time.Minute)
		if _, ok, _ := c.Get(ctx, "top:season"); ok {
			t.Error("expected miss once the ttl elapsed")
		}
		if c.Len() != 0 {
			t.Error("expired entry should be evicted on read")
		}

		if stats := c.Stats(); stats.Hits != 1 || stats.Misses != 1 {
			t.Errorf("unexpected stats %+v", stats)
		}
	})

	t.Run("unknown key is a miss", func(t *testing.T) {
		c := NewMemory(time.Minute, clockwork.NewFakeClock())
		got, ok, err := c.Get(ctx, "nope")
		if ok || err != nil || got != nil {
			t.Errorf("expected clean miss, got %q %v %v", got, ok, err)
		}
	})

	t.Run("stored values are copies", func(t *testing.T) {
		c := NewMemory(time.Minute, clockwork.NewFakeClock())
		value := []byte("abc")
		c.Set(ctx, "k", value)
		value[0] = 'x'

		got, _, _ := c.Get(ctx, "k")
		got[1] = 'y'

		again, _, _ := c.Get(ctx, "k")
		if string(again) != "abc" {
			t.Errorf("cache contents were mutated: %q", again)
		}
	})

	t.Run("overwrite refreshes the entry", func(t *testing.T) {
		clock := clockwork.NewFakeClock()
		c := NewMemory(time.Minute, clock)

		c.Set(ctx, "k", []byte("old"))
		clock.Advance(50 * time.Second)
		c.Set(ctx, "k", []byte("new"))
		clock.Advance(50 * time.Second)

		got, ok, _ := c.Get(ctx, "k")
		if !ok || string(got) != "new" {
			t.Errorf("expected fresh overwrite, got %q ok=%v", got, ok)
		}
	})

	t.Run("Purge drops expired entries", func(t *testing.T) {
		clock := clockwork.NewFakeClock()
		c := NewMemory(time.Minute, clock)

		c.Set(ctx, "a", []byte("1"))
		clock.Advance(2 * time.Minute)
		c.Set(ctx, "b", []byte("2"))

		if removed := c.Purge(); removed != 1 {
			t.Errorf("expected one removal, got %d", removed)
		}
		if c.Len() != 1 {
			t.Errorf("expected one entry left, got %d", c.Len())
		}
	})

	t.Run("default ttl", func(t *testing.T) {
		if c := NewMemory(0, nil); c.ttl != DefaultTTL {
			t.Errorf("expected default ttl, got %v", c.ttl)
		}
	})

	t.Run("concurrent writers", func(t *testing.T) {
		c := NewMemory(time.Minute, clockwork.NewFakeClock())

		var wg sync.WaitGroup
		for i := range 32 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				c.Set(ctx, "shared", []byte(fmt.Sprint(i)))
				c.Get(ctx, "shared")
			}()
		}
		wg.Wait()

		if _, ok, _ := c.Get(ctx, "shared"); !ok {
			t.Error("expected the last write to be readable")
		}
	})
}

func TestRedis(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip and expiry", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		defer client.Close()

		c := NewRedis(client, time.Minute)
		if err := c.Set(ctx, "search:frieren", []byte(`{"mal_id":52991}`)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !mr.Exists(KeyPrefix + "search:frieren") {
			t.Fatal("expected namespaced key in redis")
		}

		got, ok, err := c.Get(ctx, "search:frieren")
		if err != nil || !ok || string(got) != `{"mal_id":52991}` {
			t.Fatalf("expected hit, got %q ok=%v err=%v", got, ok, err)
		}

		mr.FastForward(2 * time.Minute)
		if _, ok, err := c.Get(ctx, "search:frieren"); ok || err != nil {
			t.Errorf("expected miss after ttl, got ok=%v err=%v", ok, err)
		}
	})

	t.Run("NewRedisClient", func(t *testing.T) {
		mr := miniredis.RunT(t)

		client, err := NewRedisClient(ctx, "redis://"+mr.Addr()+"/0", "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		client.Close()

		if _, err := NewRedisClient(ctx, "not a url", ""); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("server error", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
		defer client.Close()

		c := NewRedis(client, time.Minute)
		mr.SetError("LOADING")

		if _, _, err := c.Get(ctx, "k"); err == nil {
			t.Error("expected error from failing server")
		}
		if err := c.Set(ctx, "k", []byte("v")); err == nil {
			t.Error("expected error from failing server")
		}
	})

	t.Run("nil client", func(t *testing.T) {
		var c *Redis
		if _, _, err := c.Get(ctx, "k"); err == nil {
			t.Error("expected error for nil cache")
		}
	})
}

func TestNop(t *testing.T) {
	var c Cache = Nop{}
	c.Set(context.Background(), "k", []byte("v"))
	if _, ok, _ := c.Get(context.Background(), "k"); ok {
		t.Error("Nop should never hit")
	}
}
