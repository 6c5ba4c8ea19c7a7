package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/choiway/photoguess/internal/config"
)

// exercise runs the same checks against any backend.
func exercise(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	key := "photoguess-test-" + t.Name()

	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	if _, ok, err := s.Get(ctx, key+"-missing"); err != nil || ok {
		t.Fatalf("Get missing: ok=%v err=%v", ok, err)
	}

	if err := s.Set(ctx, key, `{"gamePhase":"setup"}`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok, err := s.Get(ctx, key)
	if err != nil || !ok || v != `{"gamePhase":"setup"}` {
		t.Fatalf("Get = %q, %v, %v", v, ok, err)
	}

	if err := s.Set(ctx, key, `{"gamePhase":"playing"}`); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	if v, _, _ := s.Get(ctx, key); v != `{"gamePhase":"playing"}` {
		t.Fatalf("overwrite not visible: %q", v)
	}
}

func TestMemory(t *testing.T) {
	exercise(t, NewMemory())
}

func TestSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "photoguess.db")

	s, err := OpenSQLite(context.Background(), path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	exercise(t, s)
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	// Values survive reopening.
	s, err = OpenSQLite(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if v, ok, _ := s.Get(context.Background(), "photoguess-test-TestSQLite"); !ok || v != `{"gamePhase":"playing"}` {
		t.Fatalf("after reopen: %q %v", v, ok)
	}
}

func TestInitSQLiteStartsEmpty(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "photoguess.db")

	s, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, "k", "v"); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = InitSQLite(ctx, path)
	if err != nil {
		t.Fatalf("InitSQLite: %v", err)
	}
	defer s.Close()
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Fatal("InitSQLite should discard existing values")
	}
}

func TestRedis(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	s, err := OpenRedis(context.Background(), url)
	if err != nil {
		t.Fatalf("OpenRedis: %v", err)
	}
	defer s.Close()
	exercise(t, s)
}

func TestPostgres(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	s, err := OpenPostgres(context.Background(), url)
	if err != nil {
		t.Fatalf("OpenPostgres: %v", err)
	}
	defer s.Close()
	exercise(t, s)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, &config.Config{StorageBackend: "memory"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*Memory); !ok {
		t.Fatalf("got %T", s)
	}

	s, err = Open(ctx, &config.Config{StorageBackend: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "db.sqlite")})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if _, ok := s.(*SQLite); !ok {
		t.Fatalf("got %T", s)
	}

	if _, err := Open(ctx, &config.Config{StorageBackend: "etcd"}); !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("err = %v", err)
	}
	if _, err := Open(ctx, &config.Config{StorageBackend: "postgres"}); err == nil {
		t.Fatal("postgres without DATABASE_URL should fail")
	}
}
