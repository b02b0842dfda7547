package session

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/flowlens/pkg/workflow"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	file, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return map[string]Store{
		"file":   file,
		"redis":  NewRedisStore(client, ""),
		"memory": NewMemoryStore(),
	}
}

func sampleWorkflows() []workflow.Workflow {
	return []workflow.Workflow{
		{ID: "w1", Name: "Ingest", Nodes: []workflow.Node{{ID: "n1", ReferenceID: "r1"}}},
		{Name: "Unnamed", Edges: []workflow.Edge{{Source: "a", Target: "b"}}},
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			defer store.Close()

			sess := New("mongodb://db:27017", "flows", time.Hour)
			if err := sess.SetWorkflows(sampleWorkflows()); err != nil {
				t.Fatal(err)
			}
			if err := store.Set(ctx, sess); err != nil {
				t.Fatalf("Set: %v", err)
			}

			got, err := store.Get(ctx, sess.ID)
			if err != nil || got == nil {
				t.Fatalf("Get = %v, %v", got, err)
			}
			if got.MongoURI != sess.MongoURI || got.DBName != sess.DBName {
				t.Errorf("connection = %s/%s", got.MongoURI, got.DBName)
			}
			list := got.WorkflowList()
			if len(list) != 2 || list[0].ID != "w1" || list[1].ID != "1" {
				t.Errorf("WorkflowList() = %v", list)
			}
			if list[1].Edges[0].ID != "edge-0" {
				t.Errorf("edge id = %q, want edge-0", list[1].Edges[0].ID)
			}

			if err := store.Delete(ctx, sess.ID); err != nil {
				t.Fatal(err)
			}
			if got, _ := store.Get(ctx, sess.ID); got != nil {
				t.Error("session should be deleted")
			}
			if err := store.Delete(ctx, sess.ID); err != nil {
				t.Errorf("deleting a missing session should succeed: %v", err)
			}
		})
	}
}

func TestStoreMissing(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			got, err := store.Get(context.Background(), "nope")
			if got != nil || err != nil {
				t.Errorf("Get(nope) = %v, %v; want nil, nil", got, err)
			}
		})
	}
}

func TestStoreExpired(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			sess := New("mongodb://db", "flows", time.Hour)
			sess.ExpiresAt = time.Now().Add(-time.Minute)
			if name == "redis" {
				// Redis would drop a key that expired in the past on write.
				sess.ExpiresAt = time.Now().Add(50 * time.Millisecond)
			}
			if err := store.Set(ctx, sess); err != nil {
				t.Fatal(err)
			}
			if name == "redis" {
				time.Sleep(100 * time.Millisecond)
			}
			if got, _ := store.Get(ctx, sess.ID); got != nil {
				t.Error("expired session should read as missing")
			}
			if err := store.Cleanup(ctx); err != nil {
				t.Errorf("Cleanup: %v", err)
			}
		})
	}
}

func TestWorkflowListDegrades(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"Missing", ""},
		{"NotJSON", "{not json"},
		{"WrongShape", `{"a":1}`},
		{"Null", "null"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Session{Workflows: json.RawMessage(tt.payload)}
			list := s.WorkflowList()
			if list == nil || len(list) != 0 {
				t.Errorf("WorkflowList() = %#v, want empty", list)
			}
		})
	}

	var nilSession *Session
	if len(nilSession.WorkflowList()) != 0 {
		t.Error("nil session should have no workflows")
	}
}

func TestRedisStoreFixedKeys(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	store := NewRedisStore(client, "")

	sess := New("mongodb://db", "flows", 0)
	_ = sess.SetWorkflows(sampleWorkflows())
	if err := store.Set(ctx, sess); err != nil {
		t.Fatal(err)
	}

	key := DefaultRedisPrefix + sess.ID
	for _, field := range []string{KeyMongoURI, KeyDBName, KeyWorkflows} {
		if mr.HGet(key, field) == "" {
			t.Errorf("field %s missing from %s", field, key)
		}
	}
	if mr.TTL(key) != 0 {
		t.Error("session without expiry should not get a ttl")
	}

	// A corrupted workflow payload still yields a usable session.
	mr.HSet(key, KeyWorkflows, "garbage")
	got, err := store.Get(ctx, sess.ID)
	if err != nil || got == nil {
		t.Fatalf("Get = %v, %v", got, err)
	}
	if len(got.WorkflowList()) != 0 {
		t.Error("unparsable payload should read as empty")
	}
}

func TestRedisStoreTTL(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	store := NewRedisStore(client, "test:")

	sess := New("mongodb://db", "flows", time.Hour)
	if err := store.Set(ctx, sess); err != nil {
		t.Fatal(err)
	}
	mr.FastForward(2 * time.Hour)
	if got, _ := store.Get(ctx, sess.ID); got != nil {
		t.Error("session should expire in Redis")
	}
}

func TestFileStoreCleanup(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, _ := NewFileStore(dir)

	live := New("mongodb://db", "a", time.Hour)
	dead := New("mongodb://db", "b", time.Hour)
	dead.ExpiresAt = time.Now().Add(-time.Hour)
	_ = store.Set(ctx, live)
	_ = store.Set(ctx, dead)

	if err := store.Cleanup(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, dead.ID+".json")); !os.IsNotExist(err) {
		t.Error("expired session file should be removed")
	}
	if _, err := os.Stat(filepath.Join(dir, live.ID+".json")); err != nil {
		t.Error("live session file should stay")
	}
}

func TestCLIStore(t *testing.T) {
	ctx := context.Background()
	cli, err := NewCLIStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if sess, _ := cli.Load(ctx); sess != nil {
		t.Fatal("new store should not be connected")
	}

	sess := New("mongodb://db", "flows", 0)
	if err := cli.Save(ctx, sess); err != nil {
		t.Fatal(err)
	}
	if sess.ID != CurrentID {
		t.Errorf("Save should assign id %q, got %q", CurrentID, sess.ID)
	}
	if filepath.Base(cli.Path()) != CurrentID+".json" {
		t.Errorf("Path() = %s", cli.Path())
	}

	got, _ := cli.Load(ctx)
	if got == nil || got.DBName != "flows" {
		t.Fatalf("Load() = %v", got)
	}

	if err := cli.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if got, _ := cli.Load(ctx); got != nil {
		t.Error("Clear should forget the session")
	}
}
