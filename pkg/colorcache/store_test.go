package colorcache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// exerciseStore runs the behavior every store shares.
func exerciseStore(t *testing.T, s Store, id int64) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, id, "Asahi 1"); err != nil || ok {
		t.Fatalf("Get() on empty store = ok %v, err %v; want miss", ok, err)
	}

	steps := []struct {
		attribute string
		color     int
	}{
		{"Asahi 1", 3},
		{"Asahi 1", 5},
		{"Asahi, East", 2},
	}
	for _, st := range steps {
		if err := s.Append(ctx, id, st.attribute, st.color); err != nil {
			t.Fatalf("Append(%q, %d) error: %v", st.attribute, st.color, err)
		}
	}

	tests := []struct {
		attribute string
		want      int
		found     bool
	}{
		{"Asahi 1", 5, true},
		{"Asahi, East", 2, true},
		{"Asahi 2", 0, false},
	}
	for _, tt := range tests {
		got, ok, err := s.Get(ctx, id, tt.attribute)
		if err != nil {
			t.Fatalf("Get(%q) error: %v", tt.attribute, err)
		}
		if ok != tt.found || got != tt.want {
			t.Errorf("Get(%q) = %d, %v; want %d, %v", tt.attribute, got, ok, tt.want, tt.found)
		}
	}

	if _, ok, _ := s.Get(ctx, id+1, "Asahi 1"); ok {
		t.Error("colors must be keyed by polygon id")
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	exerciseStore(t, s, 1)
	if s.Writes() != 3 {
		t.Errorf("Writes() = %d, want 3", s.Writes())
	}
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(filepath.Join(dir, "colors"))
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}
	exerciseStore(t, s, 42)

	// A fresh store over the same directory sees the same colors.
	reopened, err := NewFileStore(filepath.Join(dir, "colors"))
	if err != nil {
		t.Fatal(err)
	}
	if got, ok, _ := reopened.Get(context.Background(), 42, "Asahi 1"); !ok || got != 5 {
		t.Errorf("Get() after reopen = %d, %v; want 5, true", got, ok)
	}
}

func TestFileStoreSkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	content := "Kita,4\ngarbage\nKita,notanumber\n\nKita,6\nMinami,1\n"
	if err := os.WriteFile(filepath.Join(dir, "7.txt"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	got, ok, err := s.Get(context.Background(), 7, "Kita")
	if err != nil || !ok || got != 6 {
		t.Errorf("Get() = %d, %v, %v; want 6, true, nil", got, ok, err)
	}
}

func TestFileStoreMultilineAttribute(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := s.Append(ctx, 1, "Line one\nLine two", 3); err != nil {
		t.Fatal(err)
	}
	if got, ok, _ := s.Get(ctx, 1, "Line one\nLine two"); !ok || got != 3 {
		t.Errorf("Get() = %d, %v; want 3, true", got, ok)
	}
}

func TestNewFileStoreEmptyDir(t *testing.T) {
	if _, err := NewFileStore(""); err == nil {
		t.Error("NewFileStore(\"\") should fail")
	}
}

func TestNullStore(t *testing.T) {
	s := NewNullStore()
	ctx := context.Background()
	if err := s.Append(ctx, 1, "A", 3); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.Get(ctx, 1, "A"); ok {
		t.Error("null store should never hit")
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"default", Config{}, false},
		{"none", Config{Kind: KindNone}, false},
		{"memory", Config{Kind: KindMemory}, false},
		{"file", Config{Kind: KindFile, Dir: t.TempDir()}, false},
		{"file without dir", Config{Kind: KindFile}, true},
		{"postgres without dsn", Config{Kind: KindPostgres}, true},
		{"unknown", Config{Kind: "etcd"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(ctx, tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open() error = %v, wantErr %v", err, tt.wantErr)
			}
			if s != nil {
				s.Close()
			}
		})
	}

	_, err := Open(ctx, Config{Kind: "etcd"})
	var unknown *ErrUnknownStore
	if !errors.As(err, &unknown) || unknown.Kind != "etcd" {
		t.Errorf("Open() error = %v, want ErrUnknownStore", err)
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("SHEETMAP_TEST_REDIS")
	if addr == "" {
		t.Skip("SHEETMAP_TEST_REDIS not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, err := NewRedisStore(ctx, addr, os.Getenv("REDIS_PASS"), 0)
	if err != nil {
		t.Fatalf("NewRedisStore() error: %v", err)
	}
	defer s.Close()

	id := time.Now().UnixNano()
	defer s.rc.Del(context.Background(), redisKey(id), redisKey(id+1))
	exerciseStore(t, s, id)
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("SHEETMAP_TEST_PG")
	if dsn == "" {
		t.Skip("SHEETMAP_TEST_PG not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, err := NewPostgresStore(ctx, dsn)
	if err != nil {
		t.Fatalf("NewPostgresStore() error: %v", err)
	}
	defer s.Close()

	id := time.Now().UnixNano()
	defer s.db.Exec(`DELETE FROM color_cache WHERE id IN ($1, $2)`, id, id+1)
	exerciseStore(t, s, id)
}
