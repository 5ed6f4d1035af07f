package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/beetlebugorg/sheetmap/pkg/colorcache"
	"github.com/beetlebugorg/sheetmap/pkg/sheetmap"
)

// clearEnv blanks every variable applyEnv reads.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"SHEETMAP_DATA", "SHEETMAP_STORE", "SHEETMAP_STORE_DIR",
		"REDIS_HOST", "REDIS_PORT", "REDIS_PASS", "REDIS_DB", "SHEETMAP_PG_DSN",
	} {
		t.Setenv(k, "")
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() error: %v", err)
	}
	if cfg.Thresholds()[sheetmap.LayerBuilding] != 16 {
		t.Errorf("default building zoom = %d, want 16", cfg.Thresholds()[sheetmap.LayerBuilding])
	}
	if got := cfg.LabelOptions().TownSizes; got != [3]float64{18, 14, 11} {
		t.Errorf("default town sizes = %v", got)
	}
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "sheetmap.toml")
	content := `
interval = "250ms"

[data]
dir = "/srv/sheets"
cache_bytes = 1048576

[store]
kind = "redis"
redis_host = "cache.local"

[labels]
town_sizes = [20.0, 16.0, 12.0]

[zoom]
building = 15
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Data.Dir != "/srv/sheets" || cfg.Data.CacheBytes != 1<<20 {
		t.Errorf("Data = %+v", cfg.Data)
	}
	if cfg.Interval.Duration != 250*time.Millisecond {
		t.Errorf("Interval = %s, want 250ms", cfg.Interval.Duration)
	}
	sc := cfg.StoreConfig()
	if sc.Kind != colorcache.KindRedis || sc.RedisAddr != "cache.local:6379" {
		t.Errorf("StoreConfig() = %+v", sc)
	}
	lo := cfg.LabelOptions()
	if lo.TownSizes != [3]float64{20, 16, 12} || lo.PointSize != 12 {
		t.Errorf("LabelOptions() = %+v, want file town sizes and default point size", lo)
	}
	th := cfg.Thresholds()
	if th[sheetmap.LayerBuilding] != 15 || th[sheetmap.LayerRoad] != 14 {
		t.Errorf("Thresholds() = %v, want building 15 and road 14", th)
	}
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad toml", "interval = ", "decode"},
		{"bad duration", `interval = "soon"`, "decode"},
		{"unknown store", "[store]\nkind = \"etcd\"", "unknown color store"},
		{"unknown layer", "[zoom]\nbuildings = 3", "unknown layer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "_")+".toml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() error = %v, want it to mention %q", err, tt.want)
			}
		})
	}

	if _, err := Load(filepath.Join(dir, "missing.toml")); err == nil {
		t.Error("Load() of a missing file should fail")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"SHEETMAP_DATA":   "/data",
		"SHEETMAP_STORE":  "postgres",
		"REDIS_HOST":      "redis.internal",
		"REDIS_PORT":      "6380",
		"REDIS_PASS":      "secret",
		"REDIS_DB":        "3",
		"SHEETMAP_PG_DSN": "postgres://localhost/sheetmap",
	}
	cfg := Default()
	if err := cfg.applyEnv(func(k string) string { return env[k] }); err != nil {
		t.Fatalf("applyEnv() error: %v", err)
	}

	if cfg.Data.Dir != "/data" || cfg.Store.Kind != "postgres" {
		t.Errorf("Data.Dir = %q, Store.Kind = %q", cfg.Data.Dir, cfg.Store.Kind)
	}
	if cfg.Store.RedisHost != "redis.internal" || cfg.Store.RedisPort != 6380 ||
		cfg.Store.RedisPassword != "secret" || cfg.Store.RedisDB != 3 {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if cfg.Store.PostgresDSN != "postgres://localhost/sheetmap" {
		t.Errorf("PostgresDSN = %q", cfg.Store.PostgresDSN)
	}
	if cfg.Store.Dir != "colors" {
		t.Errorf("unset SHEETMAP_STORE_DIR changed Store.Dir to %q", cfg.Store.Dir)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
}

func TestApplyEnvRedisValues(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantDB  int
		wantErr bool
	}{
		{"bad db falls back to zero", map[string]string{"REDIS_DB": "two"}, 0, false},
		{"negative db falls back to zero", map[string]string{"REDIS_DB": "-1"}, 0, false},
		{"bad port", map[string]string{"REDIS_PORT": "http"}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Store.RedisDB = 5
			err := cfg.applyEnv(func(k string) string { return tt.env[k] })
			if (err != nil) != tt.wantErr {
				t.Fatalf("applyEnv() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && cfg.Store.RedisDB != tt.wantDB {
				t.Errorf("RedisDB = %d, want %d", cfg.Store.RedisDB, tt.wantDB)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{"empty data dir", func(c *Config) { c.Data.Dir = "" }},
		{"file store without dir", func(c *Config) { c.Store.Dir = "" }},
		{"redis port", func(c *Config) { c.Store.Kind = "redis"; c.Store.RedisPort = 70000 }},
		{"postgres without dsn", func(c *Config) { c.Store.Kind = "postgres" }},
		{"zero point size", func(c *Config) { c.Labels.PointSize = 0 }},
		{"town sizes out of order", func(c *Config) { c.Labels.TownSizes = [3]float64{11, 14, 18} }},
		{"negative gap", func(c *Config) { c.Labels.Gap = -1 }},
		{"negative zoom", func(c *Config) { c.Zoom["road"] = -2 }},
		{"zero interval", func(c *Config) { c.Interval.Duration = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() should fail")
			}
		})
	}

	cfg := Default()
	cfg.Store.Kind = "etcd"
	cfg.Data.Dir = ""
	err := cfg.Validate()
	var unknown *colorcache.ErrUnknownStore
	if !errors.As(err, &unknown) {
		t.Errorf("Validate() error = %v, want ErrUnknownStore among the problems", err)
	}
	if !strings.Contains(err.Error(), "data.dir") {
		t.Errorf("Validate() should report every problem, got %v", err)
	}
}
