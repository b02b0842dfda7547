package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit || data != nil {
		t.Error("NullCache.Get should always miss")
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

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()
	conn := Conn{URI: "mongodb://user:secret@db:27017", Database: "flows"}

	wk := k.WorkflowsKey(conn)
	if !strings.HasPrefix(wk, "workflows:") {
		t.Errorf("WorkflowsKey prefix: %s", wk)
	}
	if strings.Contains(wk, "secret") {
		t.Error("keys must not contain the connection string")
	}
	if wk == k.WorkflowsKey(Conn{URI: conn.URI, Database: "other"}) {
		t.Error("Different databases should produce different keys")
	}

	refs := []RefKey{{ID: "r1", Kind: "PLAIN"}, {ID: "w2", Kind: "SUB_WORKFLOW"}}
	swapped := []RefKey{refs[1], refs[0], refs[0]}
	if k.ResolutionKey(conn, "w1", refs) != k.ResolutionKey(conn, "w1", swapped) {
		t.Error("ResolutionKey should ignore ref order and duplicates")
	}
	if k.ResolutionKey(conn, "w1", refs) == k.ResolutionKey(conn, "w2", refs) {
		t.Error("Different workflows should produce different keys")
	}

	lk1 := k.LayoutKey("hash123", LayoutKeyOpts{Strategy: "layered", Direction: "LR"})
	lk2 := k.LayoutKey("hash123", LayoutKeyOpts{Strategy: "layered", Direction: "TB"})
	if lk1 == lk2 {
		t.Error("Different LayoutKeyOpts should produce different keys")
	}

	ak1 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "svg"})
	ak2 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "dot"})
	if ak1 == ak2 {
		t.Error("Different ArtifactKeyOpts should produce different keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "session:123:")
	conn := Conn{URI: "mongodb://db", Database: "flows"}

	tests := []struct {
		name   string
		scoped string
		plain  string
	}{
		{"Workflows", scoped.WorkflowsKey(conn), inner.WorkflowsKey(conn)},
		{"Resolution", scoped.ResolutionKey(conn, "w1", nil), inner.ResolutionKey(conn, "w1", nil)},
		{"Layout", scoped.LayoutKey("h", LayoutKeyOpts{}), inner.LayoutKey("h", LayoutKeyOpts{})},
		{"Artifact", scoped.ArtifactKey("h", ArtifactKeyOpts{}), inner.ArtifactKey("h", ArtifactKeyOpts{})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.scoped != "session:123:"+tt.plain {
				t.Errorf("got %s, want prefixed %s", tt.scoped, tt.plain)
			}
		})
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	scoped := NewScopedKeyer(nil, "prefix:")
	want := "prefix:" + NewDefaultKeyer().LayoutKey("h", LayoutKeyOpts{})
	if got := scoped.LayoutKey("h", LayoutKeyOpts{}); got != want {
		t.Errorf("Unexpected key with nil inner: %s", got)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if _, hit, err := c.Get(ctx, "missing"); hit || err != nil {
		t.Fatalf("Get(missing) = %v, %v", hit, err)
	}

	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "v" {
		t.Fatalf("Get(k) = %q, %v, %v", data, hit, err)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("entry should be deleted")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("deleting a missing key should succeed: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry should miss")
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}

	n, err := c.Clear()
	if err != nil || n != 3 {
		t.Fatalf("Clear() = %d, %v; want 3", n, err)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("entries should be cleared")
	}
}

func newRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisCacheFromClient(client, ""), mr
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedis(t)

	if _, hit, err := c.Get(ctx, "missing"); hit || err != nil {
		t.Fatalf("Get(missing) = %v, %v", hit, err)
	}

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if !mr.Exists(DefaultRedisPrefix + "k") {
		t.Error("key should be stored under the default prefix")
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "v" {
		t.Fatalf("Get(k) = %q, %v, %v", data, hit, err)
	}

	mr.FastForward(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("entry should expire with its ttl")
	}

	_ = c.Set(ctx, "d", []byte("x"), 0)
	if err := c.Delete(ctx, "d"); err != nil {
		t.Fatal(err)
	}
	if mr.Exists(DefaultRedisPrefix + "d") {
		t.Error("entry should be deleted")
	}
}

func TestRedisCacheClear(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedis(t)
	mr.Set("unrelated", "keep")
	for _, k := range []string{"a", "b"} {
		_ = c.Set(ctx, k, []byte(k), 0)
	}

	n, err := c.Clear(ctx)
	if err != nil || n != 2 {
		t.Fatalf("Clear() = %d, %v; want 2", n, err)
	}
	if !mr.Exists("unrelated") {
		t.Error("Clear must only touch prefixed keys")
	}
}

func TestRedisCacheUnavailable(t *testing.T) {
	c, mr := newRedis(t)
	mr.Close()

	_, _, err := c.Get(context.Background(), "k")
	if !errors.Is(err, ErrNetwork) {
		t.Errorf("err = %v, want ErrNetwork", err)
	}
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	c, _ := newRedis(t)

	type payload struct{ Names []string }
	if err := SetJSON(ctx, c, "p", payload{Names: []string{"a", "b"}}, 0); err != nil {
		t.Fatal(err)
	}
	var got payload
	ok, err := GetJSON(ctx, c, "p", &got)
	if err != nil || !ok || len(got.Names) != 2 {
		t.Fatalf("GetJSON = %v, %v, %+v", ok, err, got)
	}

	_ = c.Set(ctx, "bad", []byte("{"), 0)
	if ok, err := GetJSON(ctx, c, "bad", &got); ok || err != nil {
		t.Errorf("undecodable entry should miss, got %v, %v", ok, err)
	}
}

var errPermanent = errors.New("bad key")

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}

	err := Retryable(ErrNetwork)
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if err.Error() != ErrNetwork.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}
	if IsRetryable(errPermanent) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetry(t *testing.T) {
	ctx := context.Background()

	calls := 0
	if err := RetryWithBackoff(ctx, func() error { calls++; return nil }); err != nil || calls != 1 {
		t.Errorf("success: err=%v calls=%d", err, calls)
	}

	calls = 0
	err := retry(ctx, 3, time.Millisecond, func() error { calls++; return errPermanent })
	if err != errPermanent || calls != 1 {
		t.Errorf("non-retryable: err=%v calls=%d", err, calls)
	}

	calls = 0
	err = retry(ctx, 3, time.Millisecond, func() error {
		calls++
		if calls < 2 {
			return Retryable(ErrNetwork)
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("retryable: err=%v calls=%d", err, calls)
	}

	calls = 0
	err = retry(ctx, 3, time.Millisecond, func() error { calls++; return Retryable(ErrNetwork) })
	if !errors.Is(err, ErrNetwork) || calls != 3 {
		t.Errorf("exhausted: err=%v calls=%d", err, calls)
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(ErrNetwork)
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}
