package kvstore

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/starford/perchsync/internal/apperr"
)

func testSQLite(t *testing.T) *SQLite {
	t.Helper()
	f, err := os.CreateTemp("", "perchsync-kv-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	s, err := OpenSQLite(f.Name())
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// backends returns every Store implementation that runs without external services.
// Redis joins when PERCHSYNC_TEST_REDIS_ADDR is set.
func backends(t *testing.T) map[string]Store {
	t.Helper()
	out := map[string]Store{
		"memory": NewMemory(),
		"sqlite": testSQLite(t),
	}
	if addr := os.Getenv("PERCHSYNC_TEST_REDIS_ADDR"); addr != "" {
		r, err := OpenRedis(context.Background(), RedisOptions{Addr: addr})
		if err != nil {
			t.Fatalf("OpenRedis: %v", err)
		}
		ctx := context.Background()
		for _, ns := range []string{"a", "b"} {
			_ = r.Clear(ctx, ns)
		}
		t.Cleanup(func() { r.Close() })
		out["redis"] = r
	}
	return out
}

func TestStore_GetSetRemove(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := s.Get(ctx, "a", "missing"); err != nil || ok {
				t.Fatalf("missing key: ok=%v err=%v", ok, err)
			}
			if err := s.Set(ctx, "a", "k", "v1"); err != nil {
				t.Fatalf("Set: %v", err)
			}
			if err := s.Set(ctx, "a", "k", "v2"); err != nil {
				t.Fatalf("Set overwrite: %v", err)
			}
			v, ok, err := s.Get(ctx, "a", "k")
			if err != nil || !ok || v != "v2" {
				t.Fatalf("Get = %q, %v, %v", v, ok, err)
			}
			if err := s.Remove(ctx, "a", "k"); err != nil {
				t.Fatalf("Remove: %v", err)
			}
			if err := s.Remove(ctx, "a", "k"); err != nil {
				t.Fatalf("Remove missing should be a no-op: %v", err)
			}
			if _, ok, _ := s.Get(ctx, "a", "k"); ok {
				t.Error("key still present after Remove")
			}
		})
	}
}

func TestStore_NamespacesIsolated(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_ = s.Set(ctx, "a", "x", "1")
			_ = s.Set(ctx, "a", "y", "2")
			_ = s.Set(ctx, "b", "x", "3")

			if err := s.Clear(ctx, "a"); err != nil {
				t.Fatalf("Clear: %v", err)
			}
			keys, err := s.Keys(ctx, "a")
			if err != nil {
				t.Fatal(err)
			}
			if len(keys) != 0 {
				t.Errorf("keys after clear = %v", keys)
			}
			if v, ok, _ := s.Get(ctx, "b", "x"); !ok || v != "3" {
				t.Errorf("other namespace affected: %q %v", v, ok)
			}
		})
	}
}

func TestBucket_Keys(t *testing.T) {
	ctx := context.Background()
	b := Scope(NewMemory(), LocalNamespace("c1"))
	_ = b.Set(ctx, "zeta", "1")
	_ = b.Set(ctx, "alpha", "2")

	keys, err := b.Keys(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 2 || keys[0] != "alpha" || keys[1] != "zeta" {
		t.Errorf("keys = %v", keys)
	}
	if b.Namespace() != "local/c1" {
		t.Errorf("namespace = %q", b.Namespace())
	}
}

func TestValidateClientID(t *testing.T) {
	for _, id := range []string{"abc", "device-42", "0f1e2d3c"} {
		if err := ValidateClientID(id); err != nil {
			t.Errorf("%q rejected: %v", id, err)
		}
	}
	for _, id := range []string{"", "a/b", "a b"} {
		if err := ValidateClientID(id); !errors.Is(err, apperr.ErrInvalidClient) {
			t.Errorf("%q: err = %v", id, err)
		}
	}
}
