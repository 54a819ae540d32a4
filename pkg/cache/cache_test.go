package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/techtree/pkg/layout"
)

var errRefused = errors.New("connection refused")

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit || data != nil {
		t.Error("NullCache.Get should always return miss")
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	if _, hit, _ = c.Get(ctx, "key"); hit {
		t.Error("NullCache should not store data")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

// testCache runs the shared Cache contract against c.
func testCache(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()

	if _, hit, err := c.Get(ctx, "missing"); hit || err != nil {
		t.Fatalf("Get(missing) = hit %v, err %v", hit, err)
	}

	if err := c.Set(ctx, "k", []byte("v"), time.Hour); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "v" {
		t.Fatalf("Get(k) = %q, %v, %v", data, hit, err)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("key should be gone after Delete")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete of missing key should not fail: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	defer c.Close()
	testCache(t, c)
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Set(ctx, "short", []byte("v"), time.Millisecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "short"); hit {
		t.Error("expired entry should be a miss")
	}
}

func TestFileCacheConcurrent(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	values := map[string]bool{}
	for i := range 8 {
		values[strings.Repeat(string(rune('a'+i)), 4096)] = true
	}

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for v := range values {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for range 20 {
				if err := c.Set(ctx, "shared", []byte(v), time.Hour); err != nil {
					errs <- err
					return
				}
			}
		}()
		go func() {
			defer wg.Done()
			for range 20 {
				data, hit, err := c.Get(ctx, "shared")
				if err != nil {
					errs <- err
					return
				}
				if hit && !values[string(data)] {
					errs <- fmt.Errorf("torn read of %d bytes", len(data))
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	data, hit, err := c.Get(ctx, "shared")
	if err != nil || !hit || !values[string(data)] {
		t.Errorf("final Get = %d bytes, %v, %v", len(data), hit, err)
	}
}

func TestFileCacheForeignEntry(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}

	// Rewrite the file as if another key had landed on the same path.
	path := c.(*FileCache).path("k")
	if err := os.WriteFile(path, []byte(`{"key":"other","data":"dg=="}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("entry stored under another key should be a miss")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("foreign entry should be removed")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := c.Set(cancelled, "k", []byte("v"), 0); !errors.Is(err, context.Canceled) {
		t.Errorf("Set with cancelled context = %v", err)
	}
}

func TestRedisCache(t *testing.T) {
	s := miniredis.RunT(t)
	c, err := NewRedisCache(context.Background(), "redis://"+s.Addr())
	if err != nil {
		t.Fatalf("NewRedisCache error: %v", err)
	}
	defer c.Close()
	testCache(t, c)
}

func TestRedisCacheTTL(t *testing.T) {
	ctx := context.Background()
	s := miniredis.RunT(t)
	c := NewRedisCacheWithClient(redis.NewClient(&redis.Options{Addr: s.Addr()}))
	defer c.Close()

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if ttl := s.TTL("k"); ttl != time.Minute {
		t.Errorf("TTL = %v, want 1m", ttl)
	}

	s.FastForward(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("key should expire after its TTL")
	}
}

func TestNewRedisCacheBadURL(t *testing.T) {
	if _, err := NewRedisCache(context.Background(), "not a url"); err == nil {
		t.Error("expected error for malformed URL")
	}
}

func TestTreeHash(t *testing.T) {
	h1 := TreeHash([]byte("hello"))
	if h1 != TreeHash([]byte("hello")) {
		t.Error("TreeHash should be deterministic")
	}
	if h1 == TreeHash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()
	base := LayoutKeyOpts{
		Viewport: layout.Viewport{Width: 800, Height: 600},
		Config:   layout.DefaultConfig(),
	}

	lk1 := k.LayoutKey("hash123", base)
	if !strings.HasPrefix(lk1, "layout:") {
		t.Errorf("LayoutKey unexpected: %s", lk1)
	}
	if lk1 != k.LayoutKey("hash123", base) {
		t.Error("LayoutKey should be deterministic")
	}

	wide := base
	wide.Viewport.Width = 1200
	if lk1 == k.LayoutKey("hash123", wide) {
		t.Error("Different viewports should produce different keys")
	}
	if lk1 == k.LayoutKey("hash456", base) {
		t.Error("Different trees should produce different keys")
	}

	rk1 := k.RenderKey("hash123", RenderKeyOpts{LayoutKeyOpts: base, Format: "svg"})
	rk2 := k.RenderKey("hash123", RenderKeyOpts{LayoutKeyOpts: base, Format: "svg", Done: []string{"fire"}})
	if rk1 == rk2 {
		t.Error("Completion state should be part of the render key")
	}
}

func TestScopedKeyer(t *testing.T) {
	opts := LayoutKeyOpts{Viewport: layout.Viewport{Width: 800, Height: 600}}
	scoped := NewScopedKeyer(NewDefaultKeyer(), "techtree:")

	key := scoped.LayoutKey("h", opts)
	if key != "techtree:"+NewDefaultKeyer().LayoutKey("h", opts) {
		t.Errorf("ScopedKeyer LayoutKey unexpected: %s", key)
	}

	// nil inner falls back to DefaultKeyer
	if got := NewScopedKeyer(nil, "p:").LayoutKey("h", opts); !strings.HasPrefix(got, "p:layout:") {
		t.Errorf("Unexpected key with nil inner: %s", got)
	}
}

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}

	err := Retryable(errRefused)
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if err.Error() != errRefused.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}
	if IsRetryable(errRefused) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()
	old := retryDelay
	retryDelay = time.Millisecond
	t.Cleanup(func() { retryDelay = old })

	calls := 0
	err := RetryWithBackoff(ctx, func() error {
		calls++
		return errRefused
	})
	if err != errRefused || calls != 1 {
		t.Errorf("non-retryable: err %v, calls %d", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(errRefused)
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("retry once: err %v, calls %d", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		return Retryable(errRefused)
	})
	if !IsRetryable(err) || calls != 3 {
		t.Errorf("exhausted: err %v, calls %d", err, calls)
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(errRefused)
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}
